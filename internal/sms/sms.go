// Package sms delivers verification codes to caregiver phones.
package sms

import (
	"context"
	"log"
	"strings"
)

type Sender interface {
	Send(ctx context.Context, to, body string) error
}

// LogSender writes messages to the log instead of a carrier. Development only.
type LogSender struct{}

func (LogSender) Send(_ context.Context, to, body string) error {
	log.Printf("[sms] to=%s body=%q", to, body)
	return nil
}

// maskNumber keeps the last four digits of a recipient for log lines.
func maskNumber(phone string) string {
	if len(phone) <= 4 {
		return "****"
	}
	return strings.Repeat("*", len(phone)-4) + phone[len(phone)-4:]
}
