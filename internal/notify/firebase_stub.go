//go:build !firebase
// +build !firebase

package notify

import "context"

func NewFirebaseSender(_ context.Context, _ string, _ TokenLister) (Sender, error) {
	return NoopSender{}, nil
}
