package monitoring

import (
	"errors"
	"testing"
	"time"

	"carewatch/backend/internal/models"
)

func intPtr(v int) *int { return &v }

func boolPtr(v bool) *bool { return &v }

func strPtr(v string) *string { return &v }

func baseUser() models.MonitoredUser {
	return models.MonitoredUser{
		ID:           "u-1",
		Name:         "Maria",
		BatteryLevel: "45%",
		IsActive:     true,
		Location: models.Location{
			Type:        models.LocationHome,
			Coordinates: models.Coordinates{Latitude: 52.520008, Longitude: 13.404954},
		},
	}
}

func TestApplyMergesReportedFields(t *testing.T) {
	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	user := baseUser()
	next, derived, err := Apply(user, Telemetry{
		BatteryLevel: intPtr(60),
		IsWearing:    boolPtr(true),
		Status:       strPtr(" Unterwegs "),
		RecordedAt:   at,
	})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if len(derived) != 0 {
		t.Fatalf("unexpected notifications: %+v", derived)
	}
	if next.BatteryLevel != "60%" || !next.IsWearing || next.Status != "Unterwegs" {
		t.Fatalf("fields not merged: %+v", next)
	}
	if !next.IsActive || next.Location.Type != models.LocationHome {
		t.Fatalf("unreported fields changed: %+v", next)
	}
	if next.LastSeenAt == nil || !next.LastSeenAt.Equal(at) {
		t.Fatalf("LastSeenAt = %v", next.LastSeenAt)
	}
	if user.BatteryLevel != "45%" {
		t.Fatalf("input mutated: %+v", user)
	}
}

func TestApplyKeepsNewerTimestamps(t *testing.T) {
	seen := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	user := baseUser()
	user.LastSeenAt = &seen
	user.UpdatedAt = seen

	next, _, err := Apply(user, Telemetry{BatteryLevel: intPtr(60), RecordedAt: seen.Add(-time.Hour)})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if !next.LastSeenAt.Equal(seen) || !next.UpdatedAt.Equal(seen) {
		t.Fatalf("timestamps moved back: seen=%v updated=%v", next.LastSeenAt, next.UpdatedAt)
	}

	later := seen.Add(time.Minute)
	next, _, err = Apply(next, Telemetry{BatteryLevel: intPtr(59), RecordedAt: later})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if !next.LastSeenAt.Equal(later) || !next.UpdatedAt.Equal(later) {
		t.Fatalf("timestamps not advanced: seen=%v updated=%v", next.LastSeenAt, next.UpdatedAt)
	}
}

func TestApplyRaisesBatteryAlertOnceOnCriticalCrossing(t *testing.T) {
	user := baseUser()
	next, derived, err := Apply(user, Telemetry{BatteryLevel: intPtr(15)})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if len(derived) != 1 || derived[0].Type != models.NotificationBattery {
		t.Fatalf("derived = %+v", derived)
	}
	if derived[0].UserID != "u-1" {
		t.Fatalf("derived user = %s", derived[0].UserID)
	}

	_, derived, err = Apply(next, Telemetry{BatteryLevel: intPtr(10)})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if len(derived) != 0 {
		t.Fatalf("repeated alert while already critical: %+v", derived)
	}
}

func TestApplyRaisesOfflineAlert(t *testing.T) {
	_, derived, err := Apply(baseUser(), Telemetry{IsActive: boolPtr(false)})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if len(derived) != 1 || derived[0].Type != models.NotificationOffline {
		t.Fatalf("derived = %+v", derived)
	}
	if derived[0].Location == nil || derived[0].Location.Coordinates.Latitude != 52.520008 {
		t.Fatalf("offline alert should carry last location: %+v", derived[0].Location)
	}
}

func TestApplyRejectsInvalidTelemetry(t *testing.T) {
	cases := []Telemetry{
		{BatteryLevel: intPtr(101)},
		{BatteryLevel: intPtr(-1)},
		{Location: &models.Location{Type: "SOMEWHERE"}},
		{HeartRate: intPtr(-3)},
		{Steps: intPtr(-1)},
	}
	for i, tc := range cases {
		if _, _, err := Apply(baseUser(), tc); !errors.Is(err, ErrInvalidTelemetry) {
			t.Errorf("case %d: err = %v", i, err)
		}
	}
}

func TestDeviceEventNotification(t *testing.T) {
	call := &models.EmergencyCall{Number: "112", Status: models.CallCompleted}
	n, err := DeviceEvent{Type: models.NotificationSOS, EmergencyCall: call}.Notification("u-1")
	if err != nil {
		t.Fatalf("SOS event: %v", err)
	}
	if n.Message == "" || n.Timestamp.IsZero() || n.UserID != "u-1" {
		t.Fatalf("defaults not applied: %+v", n)
	}

	_, err = DeviceEvent{Type: models.NotificationFall, EmergencyCall: call}.Notification("u-1")
	if !errors.Is(err, models.ErrInvalidNotification) {
		t.Fatalf("fall with call: err = %v", err)
	}
}

func TestLastUpdateLabel(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	at := func(d time.Duration) *time.Time {
		v := now.Add(-d)
		return &v
	}
	cases := []struct {
		seen *time.Time
		want string
	}{
		{nil, "never"},
		{at(10 * time.Second), "now"},
		{at(30 * time.Minute), "30m"},
		{at(time.Hour), "1h"},
		{at(50 * time.Hour), "2d"},
	}
	for _, tc := range cases {
		if got := LastUpdateLabel(tc.seen, now); got != tc.want {
			t.Errorf("LastUpdateLabel = %q, want %q", got, tc.want)
		}
	}
}

func TestBuildSeries(t *testing.T) {
	until := time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)
	samples := []models.HealthSample{
		{RecordedAt: until.Add(-30 * time.Hour), HeartRate: 99, Steps: 99},
		{RecordedAt: until.Add(-20 * time.Hour), HeartRate: 72, Steps: 1200},
		{RecordedAt: until.Add(-13 * time.Hour), HeartRate: 78, Steps: 4500},
		{RecordedAt: until.Add(-6 * time.Hour), HeartRate: 82, Steps: 8900},
		{RecordedAt: until.Add(-1 * time.Hour), HeartRate: 76, Steps: 10200},
	}
	got := BuildSeries(samples, until)
	wantHR := []int{0, 72, 78, 82, 76}
	wantSteps := []int{0, 1200, 4500, 8900, 10200}
	for i := range wantHR {
		if got.HeartRate[i] != wantHR[i] || got.Steps[i] != wantSteps[i] {
			t.Fatalf("point %d = (%d,%d), want (%d,%d)", i, got.HeartRate[i], got.Steps[i], wantHR[i], wantSteps[i])
		}
	}
	if len(got.Labels) != 5 || got.Labels[0] != "00:00" {
		t.Fatalf("labels = %v", got.Labels)
	}
}

func TestIndicatorsAreIndependent(t *testing.T) {
	base := models.MonitoredUser{IsActive: true, IsWearing: true, HasNetworkConnection: true, Location: models.Location{Type: models.LocationHome}}
	want := IndicatorsFor(base)

	noNetwork := base
	noNetwork.HasNetworkConnection = false
	got := IndicatorsFor(noNetwork)
	if got.Network == want.Network {
		t.Fatal("network indicator did not change")
	}
	if got.Wearing != want.Wearing || got.Location != want.Location || got.Connection != want.Connection {
		t.Fatalf("unrelated indicators changed: %+v", got)
	}

	if LocationIndicator(models.LocationUnknown).Icon != "location-off" {
		t.Fatal("unknown location should render as location-off")
	}
	if LocationIndicator("bogus") != LocationIndicator(models.LocationUnknown) {
		t.Fatal("unrecognized location type should render as unknown")
	}
}
