package store

import (
	"context"
	"errors"
	"time"

	"carewatch/backend/internal/models"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrDuplicateIMEI  = errors.New("imei already enrolled")
	ErrDuplicatePhone = errors.New("phone already registered")
)

// Repository is the data access used by the HTTP layer. Get* lookups return
// (nil, nil) when nothing matches; mutations of missing rows return
// ErrNotFound.
type Repository interface {
	Ping(ctx context.Context) error

	GetCaregiver(ctx context.Context, id string) (*models.Caregiver, error)
	GetCaregiverByPhone(ctx context.Context, phone string) (*models.Caregiver, error)
	CreateCaregiver(ctx context.Context, caregiver models.Caregiver) (*models.Caregiver, error)

	// ListMonitoredUsers returns users in enrollment order. An empty
	// caregiverID lists every user.
	ListMonitoredUsers(ctx context.Context, caregiverID string) ([]models.MonitoredUser, error)
	GetMonitoredUser(ctx context.Context, id string) (*models.MonitoredUser, error)
	GetMonitoredUserByIMEI(ctx context.Context, imei string) (*models.MonitoredUser, error)
	CreateMonitoredUser(ctx context.Context, user models.MonitoredUser) (*models.MonitoredUser, error)
	UpdateMonitoredUser(ctx context.Context, user models.MonitoredUser) error

	CreateNotification(ctx context.Context, notification models.Notification) (*models.Notification, error)
	GetNotification(ctx context.Context, id string) (*models.Notification, error)
	// ListNotificationsByUser returns the newest notifications first.
	ListNotificationsByUser(ctx context.Context, userID string, limit int) ([]models.Notification, error)
	MarkNotificationRead(ctx context.Context, id string) error

	AddHealthSample(ctx context.Context, sample models.HealthSample) error
	ListHealthSamples(ctx context.Context, userID string, since time.Time) ([]models.HealthSample, error)

	UpsertDeviceToken(ctx context.Context, caregiverID, token, platform string) error
	ListDeviceTokens(ctx context.Context, caregiverID string) ([]string, error)

	CreateAuditEvent(ctx context.Context, event models.AuditEvent) error
	ListAuditEvents(ctx context.Context, limit int) ([]models.AuditEvent, error)
}

func clampLimit(limit, fallback, max int) int {
	if limit <= 0 || limit > max {
		return fallback
	}
	return limit
}
