//go:build firebase
// +build firebase

package notify

import (
	"context"
	"strings"
	"time"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"

	"carewatch/backend/internal/models"
)

type FirebaseSender struct {
	tokens TokenLister
	client *messaging.Client
}

func NewFirebaseSender(ctx context.Context, credentialsFile string, tokens TokenLister) (Sender, error) {
	if strings.TrimSpace(credentialsFile) == "" {
		return NoopSender{}, nil
	}
	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, err
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, err
	}
	return &FirebaseSender{tokens: tokens, client: client}, nil
}

func (s *FirebaseSender) SendAlert(ctx context.Context, caregiverID string, user models.MonitoredUser, n models.Notification) error {
	if s == nil || s.client == nil || s.tokens == nil {
		return nil
	}
	tokens, err := s.tokens.ListDeviceTokens(ctx, caregiverID)
	if err != nil {
		return err
	}
	if len(tokens) == 0 {
		return nil
	}
	msg := &messaging.MulticastMessage{
		Tokens: tokens,
		Notification: &messaging.Notification{
			Title: Title(user, n),
			Body:  n.Message,
		},
		Data: Data(user, n),
	}
	if n.Type.Critical() {
		msg.Android = &messaging.AndroidConfig{Priority: "high"}
	}
	var lastErr error
	backoff := 300 * time.Millisecond
	for attempt := 1; attempt <= 3; attempt++ {
		_, err = s.client.SendEachForMulticast(ctx, msg)
		if err == nil {
			return nil
		}
		lastErr = err
		if attempt < 3 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}
	}
	return lastErr
}
