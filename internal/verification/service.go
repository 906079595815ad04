// Package verification implements the SMS one-time-code login: send-code
// stores a hashed code and texts it, verify-code consumes it.
package verification

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log"
	"math/big"
	"regexp"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"carewatch/backend/internal/sms"
)

var (
	ErrInvalidPhone      = errors.New("invalid phone number")
	ErrInvalidCode       = errors.New("invalid verification code")
	ErrCodeExpired       = errors.New("verification code expired or not requested")
	ErrTooManyAttempts   = errors.New("too many verification attempts")
	ErrResendTooSoon     = errors.New("verification code requested too recently")
	errCodeFormatInvalid = errors.New("verification code must be 6 digits")
)

const codeLength = 6

var (
	e164      = regexp.MustCompile(`^\+[1-9][0-9]{6,14}$`)
	codeShape = regexp.MustCompile(`^[0-9]{6}$`)
)

type Options struct {
	TTL            time.Duration
	MaxAttempts    int
	ResendInterval time.Duration
	// BcryptCost defaults to bcrypt.DefaultCost.
	BcryptCost int
}

type Service struct {
	codes    CodeStore
	sender   sms.Sender
	opts     Options
	now      func() time.Time
	generate func() (string, error)
}

func NewService(codes CodeStore, sender sms.Sender, opts Options) *Service {
	if opts.TTL <= 0 {
		opts.TTL = 5 * time.Minute
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 5
	}
	if opts.ResendInterval < 0 {
		opts.ResendInterval = 0
	}
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		codes:    codes,
		sender:   sender,
		opts:     opts,
		now:      time.Now,
		generate: randomCode,
	}
}

// NormalizePhone strips formatting and returns the E.164 form.
// "0049 170 1234567" and "+49 (170) 123-4567" both become "+491701234567".
func NormalizePhone(raw string) (string, error) {
	var b strings.Builder
	for _, r := range strings.TrimSpace(raw) {
		switch {
		case r >= '0' && r <= '9', r == '+':
			b.WriteRune(r)
		case r == ' ', r == '-', r == '(', r == ')', r == '/', r == '.':
		default:
			return "", ErrInvalidPhone
		}
	}
	phone := b.String()
	if strings.HasPrefix(phone, "00") {
		phone = "+" + phone[2:]
	}
	if !e164.MatchString(phone) {
		return "", ErrInvalidPhone
	}
	return phone, nil
}

// SendCode texts a fresh code to phone. It returns only after the SMS
// provider accepted the message, so callers may treat a nil error as the
// acknowledgement that a code is on its way.
func (s *Service) SendCode(ctx context.Context, rawPhone string) error {
	phone, err := NormalizePhone(rawPhone)
	if err != nil {
		return err
	}
	if s.opts.ResendInterval > 0 {
		existing, err := s.codes.Load(ctx, phone)
		if err != nil {
			return fmt.Errorf("load pending code: %w", err)
		}
		if existing != nil && s.now().Sub(existing.CreatedAt) < s.opts.ResendInterval {
			return ErrResendTooSoon
		}
	}

	code, err := s.generate()
	if err != nil {
		return fmt.Errorf("generate code: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), s.opts.BcryptCost)
	if err != nil {
		return fmt.Errorf("hash code: %w", err)
	}
	entry := Entry{Hash: hash, CreatedAt: s.now()}
	if err := s.codes.Save(ctx, phone, entry, s.opts.TTL); err != nil {
		return fmt.Errorf("store code: %w", err)
	}

	body := fmt.Sprintf("Ihr Carewatch-Code lautet %s. Er ist %d Minuten gültig.", code, int(s.opts.TTL/time.Minute))
	if err := s.sender.Send(ctx, phone, body); err != nil {
		_ = s.codes.Delete(ctx, phone)
		return fmt.Errorf("send sms: %w", err)
	}
	log.Printf("[verify] code sent phone=%s", maskPhone(phone))
	return nil
}

// VerifyCode checks code against the pending entry for phone and consumes it
// on success. It returns the normalized phone number.
func (s *Service) VerifyCode(ctx context.Context, rawPhone, code string) (string, error) {
	phone, err := NormalizePhone(rawPhone)
	if err != nil {
		return "", err
	}
	code = strings.TrimSpace(code)
	if !codeShape.MatchString(code) {
		return "", fmt.Errorf("%w: %v", ErrInvalidCode, errCodeFormatInvalid)
	}

	entry, err := s.codes.Load(ctx, phone)
	if err != nil {
		return "", fmt.Errorf("load pending code: %w", err)
	}
	if entry == nil {
		return "", ErrCodeExpired
	}

	// Reserve the attempt before comparing: at most MaxAttempts guesses per
	// code ever reach bcrypt.
	attempts, err := s.codes.IncrementAttempts(ctx, phone)
	if err != nil {
		return "", fmt.Errorf("count attempt: %w", err)
	}
	if attempts == 0 {
		return "", ErrCodeExpired
	}
	if attempts > s.opts.MaxAttempts {
		_ = s.codes.Delete(ctx, phone)
		return "", ErrTooManyAttempts
	}

	if err := bcrypt.CompareHashAndPassword(entry.Hash, []byte(code)); err != nil {
		if attempts >= s.opts.MaxAttempts {
			_ = s.codes.Delete(ctx, phone)
			log.Printf("[verify] attempts exhausted phone=%s", maskPhone(phone))
			return "", ErrTooManyAttempts
		}
		return "", ErrInvalidCode
	}

	if err := s.codes.Delete(ctx, phone); err != nil {
		return "", fmt.Errorf("consume code: %w", err)
	}
	log.Printf("[verify] code accepted phone=%s", maskPhone(phone))
	return phone, nil
}

func randomCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", codeLength, n.Int64()), nil
}

func maskPhone(phone string) string {
	if len(phone) <= 4 {
		return "****"
	}
	return strings.Repeat("*", len(phone)-4) + phone[len(phone)-4:]
}
