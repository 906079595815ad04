package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

const jwtIssuer = "carewatch-api"

// JWTProvider issues and verifies HS256 session tokens.
type JWTProvider struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

type sessionClaims struct {
	Phone string `json:"phone"`
	Role  string `json:"role"`
	Name  string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

func NewJWTProvider(secret string, ttl time.Duration) (*JWTProvider, error) {
	if len(secret) < 16 {
		return nil, errors.New("jwt secret must be at least 16 characters")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &JWTProvider{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

func (p *JWTProvider) Issue(_ context.Context, claims Claims) (string, error) {
	if claims.UID == "" || claims.Phone == "" {
		return "", errors.New("uid and phone are required")
	}
	now := p.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, sessionClaims{
		Phone: claims.Phone,
		Role:  claims.Role,
		Name:  claims.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   claims.UID,
			Issuer:    jwtIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(p.ttl)),
		},
	})
	return token.SignedString(p.secret)
}

func (p *JWTProvider) Verify(_ context.Context, token string) (Claims, error) {
	if token == "" {
		return Claims{}, errors.New("missing token")
	}
	parsed := &sessionClaims{}
	_, err := jwt.ParseWithClaims(token, parsed, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return p.secret, nil
	})
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if parsed.Issuer != jwtIssuer {
		return Claims{}, fmt.Errorf("%w: unexpected issuer %q", ErrInvalidToken, parsed.Issuer)
	}
	return Claims{
		UID:   parsed.Subject,
		Phone: parsed.Phone,
		Name:  parsed.Name,
		Role:  parsed.Role,
	}, nil
}
