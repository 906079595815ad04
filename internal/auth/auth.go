package auth

import (
	"context"
	"errors"
)

type Claims struct {
	UID   string
	Phone string
	Email string
	Name  string
	Role  string
}

// Provider verifies bearer tokens presented by the app.
type Provider interface {
	Verify(ctx context.Context, token string) (Claims, error)
}

// Issuer mints the token returned by verify-code.
type Issuer interface {
	Issue(ctx context.Context, claims Claims) (string, error)
}

var ErrInvalidToken = errors.New("invalid token")

// Chain accepts a token if any of its providers does.
type Chain []Provider

func (c Chain) Verify(ctx context.Context, token string) (Claims, error) {
	lastErr := ErrInvalidToken
	for _, p := range c {
		claims, err := p.Verify(ctx, token)
		if err == nil {
			return claims, nil
		}
		lastErr = err
	}
	return Claims{}, lastErr
}
