package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"carewatch/backend/internal/theme"
)

type NotificationType string

const (
	NotificationSOS     NotificationType = "SOS"
	NotificationFall    NotificationType = "FALL"
	NotificationBattery NotificationType = "BATTERY"
	NotificationOffline NotificationType = "OFFLINE"
	NotificationOther   NotificationType = "OTHER"
)

var notificationIndicators = map[NotificationType]theme.Indicator{
	NotificationSOS:     {Icon: "sos", Color: theme.Error},
	NotificationFall:    {Icon: "personal-injury", Color: theme.Error},
	NotificationBattery: {Icon: "battery-alert", Color: theme.Warning},
	NotificationOffline: {Icon: "wifi-off", Color: theme.Muted},
	NotificationOther:   {Icon: "notifications", Color: theme.Primary},
}

func (t NotificationType) Valid() bool {
	_, ok := notificationIndicators[t]
	return ok
}

// Indicator returns the icon and color the app uses for t.
func (t NotificationType) Indicator() theme.Indicator {
	if ind, ok := notificationIndicators[t]; ok {
		return ind
	}
	return notificationIndicators[NotificationOther]
}

// Critical reports whether t should reach the caregiver outside the app.
func (t NotificationType) Critical() bool {
	return t == NotificationSOS || t == NotificationFall
}

type CallStatus string

const (
	CallCompleted CallStatus = "completed"
	CallFailed    CallStatus = "failed"
	CallOngoing   CallStatus = "ongoing"
)

func (s CallStatus) Valid() bool {
	return s == CallCompleted || s == CallFailed || s == CallOngoing
}

type EmergencyCall struct {
	Number    string     `json:"number"`
	Timestamp time.Time  `json:"timestamp"`
	Status    CallStatus `json:"status"`
}

type NotificationLocation struct {
	Coordinates Coordinates `json:"coordinates"`
	Address     string      `json:"address,omitempty"`
}

type Notification struct {
	ID            string                `json:"id"`
	UserID        string                `json:"userId"`
	Type          NotificationType      `json:"type"`
	Message       string                `json:"message"`
	Timestamp     time.Time             `json:"timestamp"`
	IsRead        bool                  `json:"isRead"`
	Location      *NotificationLocation `json:"location,omitempty"`
	EmergencyCall *EmergencyCall        `json:"emergencyCall,omitempty"`
}

var ErrInvalidNotification = errors.New("invalid notification")

// Validate enforces that only SOS events carry an emergency call.
func (n Notification) Validate() error {
	if !n.Type.Valid() {
		return fmt.Errorf("%w: unknown type %q", ErrInvalidNotification, n.Type)
	}
	if strings.TrimSpace(n.Message) == "" {
		return fmt.Errorf("%w: message is required", ErrInvalidNotification)
	}
	if n.EmergencyCall != nil {
		if n.Type != NotificationSOS {
			return fmt.Errorf("%w: emergency call on %s event", ErrInvalidNotification, n.Type)
		}
		if strings.TrimSpace(n.EmergencyCall.Number) == "" {
			return fmt.Errorf("%w: emergency call number is required", ErrInvalidNotification)
		}
		if !n.EmergencyCall.Status.Valid() {
			return fmt.Errorf("%w: unknown call status %q", ErrInvalidNotification, n.EmergencyCall.Status)
		}
	}
	return nil
}

// Clone returns a deep copy of n.
func (n Notification) Clone() Notification {
	out := n
	if n.Location != nil {
		loc := *n.Location
		out.Location = &loc
	}
	if n.EmergencyCall != nil {
		call := *n.EmergencyCall
		out.EmergencyCall = &call
	}
	return out
}
