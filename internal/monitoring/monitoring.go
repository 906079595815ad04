// Package monitoring turns raw watch telemetry into monitored-user state and
// the notifications a caregiver sees.
package monitoring

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"carewatch/backend/internal/battery"
	"carewatch/backend/internal/models"
)

// Telemetry is one status report pushed by a paired watch. Nil fields were
// not reported and leave the stored value untouched.
type Telemetry struct {
	BatteryLevel         *int             `json:"batteryLevel,omitempty"`
	IsActive             *bool            `json:"isActive,omitempty"`
	IsWearing            *bool            `json:"isWearing,omitempty"`
	HasNetworkConnection *bool            `json:"hasNetworkConnection,omitempty"`
	Status               *string          `json:"status,omitempty"`
	Location             *models.Location `json:"location,omitempty"`
	HeartRate            *int             `json:"heartRate,omitempty"`
	Steps                *int             `json:"steps,omitempty"`
	RecordedAt           time.Time        `json:"recordedAt"`
}

// DeviceEvent is an alert raised on the watch itself.
type DeviceEvent struct {
	Type          models.NotificationType      `json:"type"`
	Message       string                       `json:"message"`
	Timestamp     time.Time                    `json:"timestamp"`
	Location      *models.NotificationLocation `json:"location,omitempty"`
	EmergencyCall *models.EmergencyCall        `json:"emergencyCall,omitempty"`
}

var ErrInvalidTelemetry = errors.New("invalid telemetry")

func (t Telemetry) Validate() error {
	if t.BatteryLevel != nil {
		if _, err := battery.Classify(*t.BatteryLevel); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidTelemetry, err)
		}
	}
	if t.Location != nil && !t.Location.Type.Valid() {
		return fmt.Errorf("%w: unknown location type %q", ErrInvalidTelemetry, t.Location.Type)
	}
	if t.HeartRate != nil && (*t.HeartRate < 0 || *t.HeartRate > 300) {
		return fmt.Errorf("%w: heart rate %d", ErrInvalidTelemetry, *t.HeartRate)
	}
	if t.Steps != nil && *t.Steps < 0 {
		return fmt.Errorf("%w: negative step count", ErrInvalidTelemetry)
	}
	return nil
}

// Apply merges t into user and returns the updated record together with the
// notifications the change implies: a BATTERY alert when the level first
// drops into the critical tier and an OFFLINE alert when a connected watch
// disconnects.
func Apply(user models.MonitoredUser, t Telemetry) (models.MonitoredUser, []models.Notification, error) {
	if err := t.Validate(); err != nil {
		return user, nil, err
	}
	at := t.RecordedAt
	if at.IsZero() {
		at = time.Now().UTC()
	}

	next := user.Clone()
	var derived []models.Notification

	if t.BatteryLevel != nil {
		wasCritical := false
		if prev, err := battery.ClassifyString(user.BatteryLevel); err == nil {
			wasCritical = prev.Tier == battery.TierCritical
		}
		status, _ := battery.Classify(*t.BatteryLevel)
		next.BatteryLevel = battery.FormatLevel(*t.BatteryLevel)
		if status.Tier == battery.TierCritical && !wasCritical {
			derived = append(derived, models.Notification{
				UserID:    user.ID,
				Type:      models.NotificationBattery,
				Message:   fmt.Sprintf("Akku kritisch: %s", next.BatteryLevel),
				Timestamp: at,
			})
		}
	}
	if t.IsActive != nil {
		if user.IsActive && !*t.IsActive {
			derived = append(derived, models.Notification{
				UserID:    user.ID,
				Type:      models.NotificationOffline,
				Message:   "Uhr ist offline",
				Timestamp: at,
				Location:  locationOf(user.Location),
			})
		}
		next.IsActive = *t.IsActive
	}
	if t.IsWearing != nil {
		next.IsWearing = *t.IsWearing
	}
	if t.HasNetworkConnection != nil {
		next.HasNetworkConnection = *t.HasNetworkConnection
	}
	if t.Status != nil {
		next.Status = strings.TrimSpace(*t.Status)
	}
	if t.Location != nil {
		next.Location = *t.Location
	}

	// A late report never moves the timestamps backwards.
	if user.LastSeenAt == nil || at.After(*user.LastSeenAt) {
		seen := at
		next.LastSeenAt = &seen
	}
	if at.After(user.UpdatedAt) {
		next.UpdatedAt = at
	}
	return next, derived, nil
}

// HealthSample extracts the vitals part of t, if any.
func (t Telemetry) HealthSample(userID string) (models.HealthSample, bool) {
	if t.HeartRate == nil && t.Steps == nil {
		return models.HealthSample{}, false
	}
	sample := models.HealthSample{UserID: userID, RecordedAt: t.RecordedAt}
	if sample.RecordedAt.IsZero() {
		sample.RecordedAt = time.Now().UTC()
	}
	if t.HeartRate != nil {
		sample.HeartRate = *t.HeartRate
	}
	if t.Steps != nil {
		sample.Steps = *t.Steps
	}
	return sample, true
}

// Notification converts a watch event into a stored notification.
func (e DeviceEvent) Notification(userID string) (models.Notification, error) {
	n := models.Notification{
		UserID:        userID,
		Type:          e.Type,
		Message:       strings.TrimSpace(e.Message),
		Timestamp:     e.Timestamp,
		Location:      e.Location,
		EmergencyCall: e.EmergencyCall,
	}
	if n.Timestamp.IsZero() {
		n.Timestamp = time.Now().UTC()
	}
	if n.Message == "" {
		n.Message = defaultMessage(e.Type)
	}
	if err := n.Validate(); err != nil {
		return models.Notification{}, err
	}
	return n, nil
}

func defaultMessage(t models.NotificationType) string {
	switch t {
	case models.NotificationSOS:
		return "SOS-Alarm ausgelöst"
	case models.NotificationFall:
		return "Sturz erkannt"
	case models.NotificationBattery:
		return "Akku schwach"
	case models.NotificationOffline:
		return "Uhr ist offline"
	default:
		return "Neue Meldung"
	}
}

func locationOf(loc models.Location) *models.NotificationLocation {
	if loc.Coordinates == (models.Coordinates{}) {
		return nil
	}
	return &models.NotificationLocation{Coordinates: loc.Coordinates, Address: loc.Address}
}

// LastUpdateLabel renders the short relative label shown on user cards.
func LastUpdateLabel(lastSeen *time.Time, now time.Time) string {
	if lastSeen == nil || lastSeen.IsZero() {
		return "never"
	}
	d := now.Sub(*lastSeen)
	switch {
	case d < time.Minute:
		return "now"
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d/time.Minute))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d/time.Hour))
	default:
		return fmt.Sprintf("%dd", int(d/(24*time.Hour)))
	}
}

// SeriesLabels are the chart buckets of the 24h health view.
var SeriesLabels = []string{"00:00", "06:00", "12:00", "18:00", "24:00"}

// BuildSeries buckets samples into the five chart points ending at until.
// Each point carries the latest sample inside the window at or before its
// boundary, or zeros when the watch had not reported yet.
func BuildSeries(samples []models.HealthSample, until time.Time) models.HealthSeries {
	series := models.HealthSeries{
		Labels:    append([]string(nil), SeriesLabels...),
		HeartRate: make([]int, len(SeriesLabels)),
		Steps:     make([]int, len(SeriesLabels)),
	}
	start := until.Add(-24 * time.Hour)
	step := 24 * time.Hour / time.Duration(len(SeriesLabels)-1)

	for i := range SeriesLabels {
		boundary := start.Add(time.Duration(i) * step)
		var latest *models.HealthSample
		for j := range samples {
			s := &samples[j]
			if s.RecordedAt.Before(start) || s.RecordedAt.After(boundary) {
				continue
			}
			if latest == nil || s.RecordedAt.After(latest.RecordedAt) {
				latest = s
			}
		}
		if latest != nil {
			series.HeartRate[i] = latest.HeartRate
			series.Steps[i] = latest.Steps
		}
	}
	return series
}
