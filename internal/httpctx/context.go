package httpctx

import (
	"context"

	"carewatch/backend/internal/auth"
	"carewatch/backend/internal/models"
)

type ctxKey string

const (
	caregiverKey ctxKey = "caregiver"
	claimsKey    ctxKey = "claims"
	deviceKey    ctxKey = "device"
)

func WithCaregiver(ctx context.Context, caregiver *models.Caregiver) context.Context {
	return context.WithValue(ctx, caregiverKey, caregiver)
}

func WithClaims(ctx context.Context, claims auth.Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

// WithDevice stores the monitored user whose watch authenticated the request.
func WithDevice(ctx context.Context, user *models.MonitoredUser) context.Context {
	return context.WithValue(ctx, deviceKey, user)
}

func CaregiverFromContext(ctx context.Context) *models.Caregiver {
	if val := ctx.Value(caregiverKey); val != nil {
		if caregiver, ok := val.(*models.Caregiver); ok {
			return caregiver
		}
	}
	return nil
}

func ClaimsFromContext(ctx context.Context) *auth.Claims {
	if val := ctx.Value(claimsKey); val != nil {
		if claims, ok := val.(auth.Claims); ok {
			return &claims
		}
	}
	return nil
}

func DeviceFromContext(ctx context.Context) *models.MonitoredUser {
	if val := ctx.Value(deviceKey); val != nil {
		if user, ok := val.(*models.MonitoredUser); ok {
			return user
		}
	}
	return nil
}
