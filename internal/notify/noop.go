package notify

import (
	"context"

	"carewatch/backend/internal/models"
)

type NoopSender struct{}

func (NoopSender) SendAlert(_ context.Context, _ string, _ models.MonitoredUser, _ models.Notification) error {
	return nil
}
