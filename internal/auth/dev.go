package auth

import (
	"context"
	"errors"
	"strings"
)

type DevProvider struct {
	DefaultPhone string
}

func (d DevProvider) Verify(_ context.Context, token string) (Claims, error) {
	if token == "" {
		return Claims{}, errors.New("missing token")
	}

	// Format: dev:<phone>:<role>
	if strings.HasPrefix(token, "dev:") {
		parts := strings.Split(token, ":")
		claims := Claims{
			Phone: d.DefaultPhone,
			Role:  "caregiver",
		}

		if len(parts) >= 2 && parts[1] != "" {
			claims.Phone = parts[1]
		}
		if len(parts) >= 3 && parts[2] != "" {
			claims.Role = parts[2]
		}
		claims.UID = "dev:" + claims.Phone
		return claims, nil
	}

	return Claims{}, ErrInvalidToken
}

func (d DevProvider) Issue(_ context.Context, claims Claims) (string, error) {
	if claims.Phone == "" {
		return "", errors.New("phone is required")
	}
	role := claims.Role
	if role == "" {
		role = "caregiver"
	}
	return "dev:" + claims.Phone + ":" + role, nil
}
