package companion

import (
	"context"
	"errors"
	"fmt"

	"carewatch/backend/internal/battery"
	"carewatch/backend/internal/models"
	"carewatch/backend/internal/monitoring"
)

// UserRepository persists an edited profile and returns the stored record.
type UserRepository interface {
	UpdateUser(ctx context.Context, user models.MonitoredUser) (models.MonitoredUser, error)
}

var (
	errNotEditing           = errors.New("not in edit mode")
	errNotificationNotFound = errors.New("notification not found")
)

// UserDetail is the detail screen state for one user. The battery tier and
// the indicators are derived once from the record it was opened with.
type UserDetail struct {
	repo          UserRepository
	user          models.MonitoredUser
	notifications []models.Notification
	battery       battery.Status
	batteryErr    error
	indicators    monitoring.Indicators
	working       *models.MonitoredUser
}

func NewUserDetail(repo UserRepository, user models.MonitoredUser, notifications []models.Notification) *UserDetail {
	d := &UserDetail{
		repo:          repo,
		notifications: make([]models.Notification, len(notifications)),
	}
	for i, n := range notifications {
		d.notifications[i] = n.Clone()
	}
	d.setUser(user)
	return d
}

func (d *UserDetail) setUser(user models.MonitoredUser) {
	d.user = user.Clone()
	d.battery, d.batteryErr = battery.ClassifyString(d.user.BatteryLevel)
	d.indicators = monitoring.IndicatorsFor(d.user)
}

func (d *UserDetail) User() models.MonitoredUser {
	return d.user.Clone()
}

func (d *UserDetail) Title() string {
	return d.user.Name
}

// Battery returns the derived tier, or the parse error for a malformed level.
func (d *UserDetail) Battery() (battery.Status, error) {
	return d.battery, d.batteryErr
}

func (d *UserDetail) Indicators() monitoring.Indicators {
	return d.indicators
}

// Notifications are returned in the order the screen was given.
func (d *UserDetail) Notifications() []models.Notification {
	out := make([]models.Notification, len(d.notifications))
	for i, n := range d.notifications {
		out[i] = n.Clone()
	}
	return out
}

func (d *UserDetail) OpenNotification(id string) (NotificationDetailRoute, error) {
	for _, n := range d.notifications {
		if n.ID == id {
			return NotificationDetailRoute{Notification: n.Clone()}, nil
		}
	}
	return NotificationDetailRoute{}, fmt.Errorf("%w: %s", errNotificationNotFound, id)
}

// MarkRead flips the local read flag after the backend acknowledged it.
func (d *UserDetail) MarkRead(updated models.Notification) {
	for i := range d.notifications {
		if d.notifications[i].ID == updated.ID {
			d.notifications[i].IsRead = updated.IsRead
		}
	}
}

func (d *UserDetail) Editing() bool {
	return d.working != nil
}

// BeginEdit enters edit mode and returns the working copy. Changes to it do
// not touch the displayed record until Save succeeds.
func (d *UserDetail) BeginEdit() *models.MonitoredUser {
	if d.working == nil {
		working := d.user.Clone()
		d.working = &working
	}
	return d.working
}

// Cancel leaves edit mode and drops the working copy.
func (d *UserDetail) Cancel() {
	d.working = nil
}

// Save persists the working copy and returns to view mode with the stored
// record. On failure the screen stays in edit mode with the working copy.
func (d *UserDetail) Save(ctx context.Context) (models.MonitoredUser, error) {
	if d.working == nil {
		return models.MonitoredUser{}, actionError(ErrSave, errNotEditing)
	}
	saved, err := d.repo.UpdateUser(ctx, d.working.Clone())
	if err != nil {
		return models.MonitoredUser{}, saveError(err)
	}
	d.setUser(saved)
	d.working = nil
	return d.User(), nil
}
