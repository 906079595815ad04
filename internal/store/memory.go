package store

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"carewatch/backend/internal/battery"
	"carewatch/backend/internal/models"
)

// Memory is an in-process Repository used for local development and tests.
// Records are copied on the way in and out so callers never share state
// with the store.
type Memory struct {
	mu            sync.RWMutex
	caregivers    map[string]models.Caregiver
	users         map[string]models.MonitoredUser
	userOrder     []string
	notifications map[string]models.Notification
	samples       map[string][]models.HealthSample
	tokens        map[string]deviceToken
	audit         []models.AuditEvent
}

type deviceToken struct {
	caregiverID string
	platform    string
}

var _ Repository = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{
		caregivers:    map[string]models.Caregiver{},
		users:         map[string]models.MonitoredUser{},
		notifications: map[string]models.Notification{},
		samples:       map[string][]models.HealthSample{},
		tokens:        map[string]deviceToken{},
	}
}

func (m *Memory) Ping(_ context.Context) error {
	return nil
}

func (m *Memory) GetCaregiver(_ context.Context, id string) (*models.Caregiver, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.caregivers[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (m *Memory) GetCaregiverByPhone(_ context.Context, phone string) (*models.Caregiver, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, c := range m.caregivers {
		if c.Phone == phone {
			found := c
			return &found, nil
		}
	}
	return nil, nil
}

func (m *Memory) CreateCaregiver(_ context.Context, caregiver models.Caregiver) (*models.Caregiver, error) {
	if caregiver.ID == "" {
		caregiver.ID = uuid.NewString()
	}
	if caregiver.Role == "" {
		caregiver.Role = models.RoleCaregiver
	}
	if caregiver.CreatedAt.IsZero() {
		caregiver.CreatedAt = time.Now().UTC()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.caregivers {
		if c.Phone == caregiver.Phone {
			return nil, ErrDuplicatePhone
		}
	}
	m.caregivers[caregiver.ID] = caregiver
	return &caregiver, nil
}

func (m *Memory) ListMonitoredUsers(_ context.Context, caregiverID string) ([]models.MonitoredUser, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	users := []models.MonitoredUser{}
	for _, id := range m.userOrder {
		u := m.users[id]
		if caregiverID != "" && u.CaregiverID != caregiverID {
			continue
		}
		users = append(users, u.Clone())
	}
	return users, nil
}

func (m *Memory) GetMonitoredUser(_ context.Context, id string) (*models.MonitoredUser, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	out := u.Clone()
	return &out, nil
}

func (m *Memory) GetMonitoredUserByIMEI(_ context.Context, imei string) (*models.MonitoredUser, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.IMEI == imei {
			out := u.Clone()
			return &out, nil
		}
	}
	return nil, nil
}

func (m *Memory) CreateMonitoredUser(_ context.Context, user models.MonitoredUser) (*models.MonitoredUser, error) {
	if _, err := battery.ParseLevel(user.BatteryLevel); err != nil {
		return nil, err
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	user.UpdatedAt = user.CreatedAt
	if user.Location.Type == "" {
		user.Location.Type = models.LocationUnknown
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.imeiTakenLocked(user.IMEI, user.ID) {
		return nil, ErrDuplicateIMEI
	}
	m.users[user.ID] = user.Clone()
	m.userOrder = append(m.userOrder, user.ID)
	out := user.Clone()
	return &out, nil
}

func (m *Memory) UpdateMonitoredUser(_ context.Context, user models.MonitoredUser) error {
	if _, err := battery.ParseLevel(user.BatteryLevel); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.users[user.ID]
	if !ok {
		return ErrNotFound
	}
	if m.imeiTakenLocked(user.IMEI, user.ID) {
		return ErrDuplicateIMEI
	}
	if user.UpdatedAt.IsZero() {
		user.UpdatedAt = time.Now().UTC()
	}
	user.CaregiverID = current.CaregiverID
	user.CreatedAt = current.CreatedAt
	m.users[user.ID] = user.Clone()
	return nil
}

func (m *Memory) imeiTakenLocked(imei, exceptID string) bool {
	for id, u := range m.users {
		if id != exceptID && u.IMEI == imei {
			return true
		}
	}
	return false
}

func (m *Memory) CreateNotification(_ context.Context, notification models.Notification) (*models.Notification, error) {
	if err := notification.Validate(); err != nil {
		return nil, err
	}
	if notification.ID == "" {
		notification.ID = uuid.NewString()
	}
	if notification.Timestamp.IsZero() {
		notification.Timestamp = time.Now().UTC()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notifications[notification.ID] = notification.Clone()
	out := notification.Clone()
	return &out, nil
}

func (m *Memory) GetNotification(_ context.Context, id string) (*models.Notification, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n, ok := m.notifications[id]
	if !ok {
		return nil, nil
	}
	out := n.Clone()
	return &out, nil
}

func (m *Memory) ListNotificationsByUser(_ context.Context, userID string, limit int) ([]models.Notification, error) {
	limit = clampLimit(limit, 50, 500)
	m.mu.RLock()
	items := []models.Notification{}
	for _, n := range m.notifications {
		if n.UserID == userID {
			items = append(items, n.Clone())
		}
	}
	m.mu.RUnlock()

	sort.Slice(items, func(i, j int) bool {
		if !items[i].Timestamp.Equal(items[j].Timestamp) {
			return items[i].Timestamp.After(items[j].Timestamp)
		}
		return items[i].ID < items[j].ID
	})
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (m *Memory) MarkNotificationRead(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.notifications[id]
	if !ok {
		return ErrNotFound
	}
	n.IsRead = true
	m.notifications[id] = n
	return nil
}

func (m *Memory) AddHealthSample(_ context.Context, sample models.HealthSample) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	samples := m.samples[sample.UserID]
	for i := range samples {
		if samples[i].RecordedAt.Equal(sample.RecordedAt) {
			samples[i] = sample
			return nil
		}
	}
	m.samples[sample.UserID] = append(samples, sample)
	return nil
}

func (m *Memory) ListHealthSamples(_ context.Context, userID string, since time.Time) ([]models.HealthSample, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []models.HealthSample{}
	for _, s := range m.samples[userID] {
		if !s.RecordedAt.Before(since) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RecordedAt.Before(out[j].RecordedAt) })
	return out, nil
}

func (m *Memory) UpsertDeviceToken(_ context.Context, caregiverID, token, platform string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[token] = deviceToken{caregiverID: caregiverID, platform: platform}
	return nil
}

func (m *Memory) ListDeviceTokens(_ context.Context, caregiverID string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var tokens []string
	for token, dt := range m.tokens {
		if dt.caregiverID == caregiverID {
			tokens = append(tokens, token)
		}
	}
	sort.Strings(tokens)
	return tokens, nil
}

func (m *Memory) CreateAuditEvent(_ context.Context, event models.AuditEvent) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	if len(event.Payload) == 0 {
		event.Payload = json.RawMessage(`{}`)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.audit = append(m.audit, event)
	return nil
}

func (m *Memory) ListAuditEvents(_ context.Context, limit int) ([]models.AuditEvent, error) {
	limit = clampLimit(limit, 100, 500)
	m.mu.RLock()
	defer m.mu.RUnlock()
	items := []models.AuditEvent{}
	for i := len(m.audit) - 1; i >= 0 && len(items) < limit; i-- {
		items = append(items, m.audit[i])
	}
	return items, nil
}
