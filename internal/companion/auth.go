package companion

import (
	"context"
	"errors"
	"strings"

	"carewatch/backend/internal/client"
)

type AuthState int

const (
	AwaitingPhoneNumber AuthState = iota
	AwaitingVerificationCode
	Authenticated
)

func (s AuthState) String() string {
	switch s {
	case AwaitingPhoneNumber:
		return "awaiting-phone-number"
	case AwaitingVerificationCode:
		return "awaiting-verification-code"
	case Authenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// AuthBackend is the part of the API the sign-in flow talks to.
type AuthBackend interface {
	SendCode(ctx context.Context, phone string) error
	VerifyCode(ctx context.Context, phone, code string) (client.Session, error)
}

var (
	errBlankPhone      = errors.New("phone number is empty")
	errBlankCode       = errors.New("verification code is empty")
	errAlreadySignedIn = errors.New("already authenticated")
	errNoCodeRequested = errors.New("no code requested yet")
)

// AuthFlow is the phone number / SMS code sign-in. It only moves forward, and
// only after the backend acknowledged the step.
type AuthFlow struct {
	backend AuthBackend
	state   AuthState
	phone   string
	session client.Session
}

func NewAuthFlow(backend AuthBackend) *AuthFlow {
	return &AuthFlow{backend: backend, state: AwaitingPhoneNumber}
}

func (f *AuthFlow) State() AuthState {
	return f.state
}

func (f *AuthFlow) Phone() string {
	return f.phone
}

func (f *AuthFlow) Session() client.Session {
	return f.session
}

// SendCode asks the backend to text a code to phone. The flow moves on to
// code entry only when the backend accepted the request. Calling it again
// while awaiting the code requests a new one.
func (f *AuthFlow) SendCode(ctx context.Context, phone string) error {
	if f.state == Authenticated {
		return actionError(ErrSendCode, errAlreadySignedIn)
	}
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return actionError(ErrSendCode, errBlankPhone)
	}
	if err := f.backend.SendCode(ctx, phone); err != nil {
		return actionError(ErrSendCode, err)
	}
	f.phone = phone
	f.state = AwaitingVerificationCode
	return nil
}

func (f *AuthFlow) VerifyCode(ctx context.Context, code string) (client.Session, error) {
	if f.state != AwaitingVerificationCode {
		if f.state == Authenticated {
			return client.Session{}, actionError(ErrVerifyCode, errAlreadySignedIn)
		}
		return client.Session{}, actionError(ErrVerifyCode, errNoCodeRequested)
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return client.Session{}, actionError(ErrVerifyCode, errBlankCode)
	}
	session, err := f.backend.VerifyCode(ctx, f.phone, code)
	if err != nil {
		return client.Session{}, actionError(ErrVerifyCode, err)
	}
	f.session = session
	f.state = Authenticated
	return session, nil
}

var (
	_ AuthBackend    = (*client.Client)(nil)
	_ UserRepository = (*client.Client)(nil)
	_ Enroller       = (*client.Client)(nil)
)
