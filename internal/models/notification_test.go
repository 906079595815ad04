package models

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestNotificationValidateEmergencyCallOnlyOnSOS(t *testing.T) {
	types := []NotificationType{NotificationSOS, NotificationFall, NotificationBattery, NotificationOffline, NotificationOther}
	statuses := []CallStatus{CallCompleted, CallFailed, CallOngoing}
	now := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)

	for i, typ := range types {
		for j, status := range statuses {
			for _, withCall := range []bool{false, true} {
				n := Notification{
					ID:        fmt.Sprintf("n-%d-%d", i, j),
					UserID:    "u-1",
					Type:      typ,
					Message:   "event",
					Timestamp: now,
				}
				if withCall {
					n.EmergencyCall = &EmergencyCall{Number: "112", Timestamp: now, Status: status}
				}
				err := n.Validate()
				switch {
				case withCall && typ != NotificationSOS:
					if !errors.Is(err, ErrInvalidNotification) {
						t.Errorf("%s with call: err = %v, want ErrInvalidNotification", typ, err)
					}
				case err != nil:
					t.Errorf("%s (call=%v): unexpected error %v", typ, withCall, err)
				}
			}
		}
	}
}

func TestNotificationValidateRejectsBadInput(t *testing.T) {
	cases := map[string]Notification{
		"unknown type":  {Type: "PANIC", Message: "x"},
		"empty message": {Type: NotificationOther, Message: "  "},
		"bad status":    {Type: NotificationSOS, Message: "x", EmergencyCall: &EmergencyCall{Number: "112", Status: "dropped"}},
		"no number":     {Type: NotificationSOS, Message: "x", EmergencyCall: &EmergencyCall{Status: CallFailed}},
	}
	for name, n := range cases {
		if err := n.Validate(); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestNotificationIndicatorsDistinct(t *testing.T) {
	seen := map[string]NotificationType{}
	for typ := range notificationIndicators {
		icon := typ.Indicator().Icon
		if other, ok := seen[icon]; ok {
			t.Fatalf("%s and %s share icon %s", typ, other, icon)
		}
		seen[icon] = typ
	}
}

func TestMonitoredUserCloneIsolated(t *testing.T) {
	seen := time.Now()
	u := MonitoredUser{Name: "Maria", LastSeenAt: &seen}
	c := u.Clone()
	c.Name = "Changed"
	*c.LastSeenAt = seen.Add(time.Hour)
	if u.Name != "Maria" || !u.LastSeenAt.Equal(seen) {
		t.Fatalf("clone mutated original: %+v", u)
	}
}
