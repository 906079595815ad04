// Package notify delivers alerts about monitored users to their caregivers.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log"

	"carewatch/backend/internal/models"
)

// Sender delivers one notification about user to the caregiver owning it.
type Sender interface {
	SendAlert(ctx context.Context, caregiverID string, user models.MonitoredUser, n models.Notification) error
}

// TokenLister resolves the push tokens registered by a caregiver.
type TokenLister interface {
	ListDeviceTokens(ctx context.Context, caregiverID string) ([]string, error)
}

// CaregiverLookup resolves a caregiver's contact details.
type CaregiverLookup interface {
	GetCaregiver(ctx context.Context, id string) (*models.Caregiver, error)
}

// Multi fans an alert out to every sender. A failing sender does not stop
// the others; their errors are joined.
type Multi []Sender

func (m Multi) SendAlert(ctx context.Context, caregiverID string, user models.MonitoredUser, n models.Notification) error {
	var errs []error
	for _, s := range m {
		if s == nil {
			continue
		}
		if err := s.SendAlert(ctx, caregiverID, user, n); err != nil {
			log.Printf("[notify] %T failed for notification %s: %v", s, n.ID, err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Title is the short alert headline shown in push and email subjects.
func Title(user models.MonitoredUser, n models.Notification) string {
	switch n.Type {
	case models.NotificationSOS:
		return fmt.Sprintf("SOS von %s", user.FullName())
	case models.NotificationFall:
		return fmt.Sprintf("Sturz erkannt: %s", user.FullName())
	case models.NotificationBattery:
		return fmt.Sprintf("Akku niedrig: %s", user.FullName())
	case models.NotificationOffline:
		return fmt.Sprintf("%s ist offline", user.FullName())
	default:
		return fmt.Sprintf("Hinweis zu %s", user.FullName())
	}
}

// Data is the key/value payload attached to push messages so the app can
// open the notification detail directly.
func Data(user models.MonitoredUser, n models.Notification) map[string]string {
	data := map[string]string{
		"notificationId": n.ID,
		"userId":         user.ID,
		"type":           string(n.Type),
	}
	if n.EmergencyCall != nil {
		data["callStatus"] = string(n.EmergencyCall.Status)
	}
	return data
}
