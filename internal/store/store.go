package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"carewatch/backend/internal/battery"
	"carewatch/backend/internal/models"
)

// Store is the Postgres-backed Repository.
type Store struct {
	db *sql.DB
}

var _ Repository = (*Store)(nil)

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

const caregiverColumns = `id::text, role, full_name, phone, email, created_at`

func scanCaregiver(row interface{ Scan(...any) error }) (*models.Caregiver, error) {
	var c models.Caregiver
	if err := row.Scan(&c.ID, &c.Role, &c.FullName, &c.Phone, &c.Email, &c.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

func (s *Store) GetCaregiver(ctx context.Context, id string) (*models.Caregiver, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}
	row := s.db.QueryRowContext(ctx, `SELECT `+caregiverColumns+` FROM caregivers WHERE id = $1`, id)
	return scanCaregiver(row)
}

func (s *Store) GetCaregiverByPhone(ctx context.Context, phone string) (*models.Caregiver, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+caregiverColumns+` FROM caregivers WHERE phone = $1`, phone)
	return scanCaregiver(row)
}

func (s *Store) CreateCaregiver(ctx context.Context, caregiver models.Caregiver) (*models.Caregiver, error) {
	if caregiver.ID == "" {
		caregiver.ID = uuid.NewString()
	}
	if caregiver.Role == "" {
		caregiver.Role = models.RoleCaregiver
	}
	if caregiver.CreatedAt.IsZero() {
		caregiver.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO caregivers (id, role, full_name, phone, email, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, caregiver.ID, caregiver.Role, caregiver.FullName, caregiver.Phone, caregiver.Email, caregiver.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicatePhone
		}
		return nil, err
	}
	return &caregiver, nil
}

const monitoredUserColumns = `
	id::text, caregiver_id::text, name, last_name, age,
	street, house_number, postal_code, city, imei, code,
	status, battery_level, last_seen_at, is_active, is_wearing, has_network_connection,
	location_type, location_address, latitude, longitude, profile_image,
	created_at, updated_at`

func scanMonitoredUser(row interface{ Scan(...any) error }) (*models.MonitoredUser, error) {
	var (
		u        models.MonitoredUser
		level    int
		lastSeen sql.NullTime
	)
	err := row.Scan(
		&u.ID, &u.CaregiverID, &u.Name, &u.LastName, &u.Age,
		&u.Address.Street, &u.Address.HouseNumber, &u.Address.PostalCode, &u.Address.City, &u.IMEI, &u.Code,
		&u.Status, &level, &lastSeen, &u.IsActive, &u.IsWearing, &u.HasNetworkConnection,
		&u.Location.Type, &u.Location.Address, &u.Location.Coordinates.Latitude, &u.Location.Coordinates.Longitude, &u.ProfileImage,
		&u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	u.BatteryLevel = battery.FormatLevel(level)
	if lastSeen.Valid {
		seen := lastSeen.Time
		u.LastSeenAt = &seen
	}
	return &u, nil
}

func (s *Store) ListMonitoredUsers(ctx context.Context, caregiverID string) ([]models.MonitoredUser, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if caregiverID != "" {
		rows, err = s.db.QueryContext(ctx, `
			SELECT `+monitoredUserColumns+`
			FROM monitored_users
			WHERE caregiver_id = $1
			ORDER BY created_at ASC, id ASC
		`, caregiverID)
	} else {
		rows, err = s.db.QueryContext(ctx, `
			SELECT `+monitoredUserColumns+`
			FROM monitored_users
			ORDER BY created_at ASC, id ASC
		`)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []models.MonitoredUser{}
	for rows.Next() {
		u, err := scanMonitoredUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

func (s *Store) GetMonitoredUser(ctx context.Context, id string) (*models.MonitoredUser, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}
	row := s.db.QueryRowContext(ctx, `SELECT `+monitoredUserColumns+` FROM monitored_users WHERE id = $1`, id)
	return scanMonitoredUser(row)
}

func (s *Store) GetMonitoredUserByIMEI(ctx context.Context, imei string) (*models.MonitoredUser, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+monitoredUserColumns+` FROM monitored_users WHERE imei = $1`, imei)
	return scanMonitoredUser(row)
}

func (s *Store) CreateMonitoredUser(ctx context.Context, user models.MonitoredUser) (*models.MonitoredUser, error) {
	level, err := battery.ParseLevel(user.BatteryLevel)
	if err != nil {
		return nil, err
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = user.CreatedAt
	if user.Location.Type == "" {
		user.Location.Type = models.LocationUnknown
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO monitored_users (
			id, caregiver_id, name, last_name, age,
			street, house_number, postal_code, city, imei, code,
			status, battery_level, last_seen_at, is_active, is_wearing, has_network_connection,
			location_type, location_address, latitude, longitude, profile_image,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24)
	`, user.ID, user.CaregiverID, user.Name, user.LastName, user.Age,
		user.Address.Street, user.Address.HouseNumber, user.Address.PostalCode, user.Address.City, user.IMEI, user.Code,
		user.Status, level, nullTime(user.LastSeenAt), user.IsActive, user.IsWearing, user.HasNetworkConnection,
		user.Location.Type, user.Location.Address, user.Location.Coordinates.Latitude, user.Location.Coordinates.Longitude, user.ProfileImage,
		user.CreatedAt, user.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateIMEI
		}
		return nil, err
	}
	return &user, nil
}

func (s *Store) UpdateMonitoredUser(ctx context.Context, user models.MonitoredUser) error {
	level, err := battery.ParseLevel(user.BatteryLevel)
	if err != nil {
		return err
	}
	if user.UpdatedAt.IsZero() {
		user.UpdatedAt = time.Now().UTC()
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE monitored_users SET
			name = $2, last_name = $3, age = $4,
			street = $5, house_number = $6, postal_code = $7, city = $8, imei = $9, code = $10,
			status = $11, battery_level = $12, last_seen_at = $13,
			is_active = $14, is_wearing = $15, has_network_connection = $16,
			location_type = $17, location_address = $18, latitude = $19, longitude = $20,
			profile_image = $21, updated_at = $22
		WHERE id = $1
	`, user.ID, user.Name, user.LastName, user.Age,
		user.Address.Street, user.Address.HouseNumber, user.Address.PostalCode, user.Address.City, user.IMEI, user.Code,
		user.Status, level, nullTime(user.LastSeenAt),
		user.IsActive, user.IsWearing, user.HasNetworkConnection,
		user.Location.Type, user.Location.Address, user.Location.Coordinates.Latitude, user.Location.Coordinates.Longitude,
		user.ProfileImage, user.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateIMEI
		}
		return err
	}
	return expectOneRow(res)
}

const notificationColumns = `
	id::text, user_id::text, type, message, occurred_at, is_read,
	latitude, longitude, location_address, call_number, call_at, call_status`

func scanNotification(row interface{ Scan(...any) error }) (*models.Notification, error) {
	var (
		n          models.Notification
		lat, lng   sql.NullFloat64
		address    sql.NullString
		callNumber sql.NullString
		callAt     sql.NullTime
		callStatus sql.NullString
	)
	if err := row.Scan(&n.ID, &n.UserID, &n.Type, &n.Message, &n.Timestamp, &n.IsRead,
		&lat, &lng, &address, &callNumber, &callAt, &callStatus); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if lat.Valid && lng.Valid {
		n.Location = &models.NotificationLocation{
			Coordinates: models.Coordinates{Latitude: lat.Float64, Longitude: lng.Float64},
			Address:     address.String,
		}
	}
	if callNumber.Valid {
		n.EmergencyCall = &models.EmergencyCall{
			Number:    callNumber.String,
			Timestamp: callAt.Time,
			Status:    models.CallStatus(callStatus.String),
		}
	}
	return &n, nil
}

func (s *Store) CreateNotification(ctx context.Context, notification models.Notification) (*models.Notification, error) {
	if err := notification.Validate(); err != nil {
		return nil, err
	}
	if notification.ID == "" {
		notification.ID = uuid.NewString()
	}
	if notification.Timestamp.IsZero() {
		notification.Timestamp = time.Now().UTC()
	}

	var lat, lng sql.NullFloat64
	var address sql.NullString
	if loc := notification.Location; loc != nil {
		lat = sql.NullFloat64{Float64: loc.Coordinates.Latitude, Valid: true}
		lng = sql.NullFloat64{Float64: loc.Coordinates.Longitude, Valid: true}
		address = nullString(loc.Address)
	}
	var callNumber, callStatus sql.NullString
	var callAt sql.NullTime
	if call := notification.EmergencyCall; call != nil {
		callNumber = sql.NullString{String: call.Number, Valid: true}
		callStatus = sql.NullString{String: string(call.Status), Valid: true}
		callAt = sql.NullTime{Time: call.Timestamp, Valid: !call.Timestamp.IsZero()}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO notifications (id, user_id, type, message, occurred_at, is_read,
			latitude, longitude, location_address, call_number, call_at, call_status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, notification.ID, notification.UserID, notification.Type, notification.Message, notification.Timestamp, notification.IsRead,
		lat, lng, address, callNumber, callAt, callStatus)
	if err != nil {
		return nil, err
	}
	return &notification, nil
}

func (s *Store) GetNotification(ctx context.Context, id string) (*models.Notification, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}
	row := s.db.QueryRowContext(ctx, `SELECT `+notificationColumns+` FROM notifications WHERE id = $1`, id)
	return scanNotification(row)
}

func (s *Store) ListNotificationsByUser(ctx context.Context, userID string, limit int) ([]models.Notification, error) {
	limit = clampLimit(limit, 50, 500)
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+notificationColumns+`
		FROM notifications
		WHERE user_id = $1
		ORDER BY occurred_at DESC, id ASC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []models.Notification{}
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *n)
	}
	return items, rows.Err()
}

func (s *Store) MarkNotificationRead(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrNotFound
	}
	res, err := s.db.ExecContext(ctx, `UPDATE notifications SET is_read = true WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return expectOneRow(res)
}

func (s *Store) AddHealthSample(ctx context.Context, sample models.HealthSample) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO health_samples (user_id, recorded_at, heart_rate, steps)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, recorded_at) DO UPDATE
		SET heart_rate = excluded.heart_rate, steps = excluded.steps
	`, sample.UserID, sample.RecordedAt, sample.HeartRate, sample.Steps)
	return err
}

func (s *Store) ListHealthSamples(ctx context.Context, userID string, since time.Time) ([]models.HealthSample, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT user_id::text, recorded_at, heart_rate, steps
		FROM health_samples
		WHERE user_id = $1 AND recorded_at >= $2
		ORDER BY recorded_at ASC
	`, userID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	samples := []models.HealthSample{}
	for rows.Next() {
		var sample models.HealthSample
		if err := rows.Scan(&sample.UserID, &sample.RecordedAt, &sample.HeartRate, &sample.Steps); err != nil {
			return nil, err
		}
		samples = append(samples, sample)
	}
	return samples, rows.Err()
}

func (s *Store) UpsertDeviceToken(ctx context.Context, caregiverID, token, platform string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO device_tokens (id, caregiver_id, token, platform, created_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (token) DO UPDATE
		SET caregiver_id = excluded.caregiver_id, platform = excluded.platform
	`, uuid.NewString(), caregiverID, token, platform)
	return err
}

func (s *Store) ListDeviceTokens(ctx context.Context, caregiverID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT token
		FROM device_tokens
		WHERE caregiver_id = $1
	`, caregiverID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var tokens []string
	for rows.Next() {
		var token string
		if err := rows.Scan(&token); err != nil {
			return nil, err
		}
		tokens = append(tokens, token)
	}
	return tokens, rows.Err()
}

func (s *Store) CreateAuditEvent(ctx context.Context, event models.AuditEvent) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	payload := event.Payload
	if len(payload) == 0 {
		payload = json.RawMessage(`{}`)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_events (id, caregiver_id, user_role, action, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, now())
	`, event.ID, nullString(event.CaregiverID), event.Role, event.Action, []byte(payload))
	return err
}

func (s *Store) ListAuditEvents(ctx context.Context, limit int) ([]models.AuditEvent, error) {
	limit = clampLimit(limit, 100, 500)
	rows, err := s.db.QueryContext(ctx, `
		SELECT id::text, coalesce(caregiver_id::text, ''), user_role, action, payload, created_at
		FROM audit_events
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []models.AuditEvent{}
	for rows.Next() {
		var item models.AuditEvent
		var payload []byte
		if err := rows.Scan(&item.ID, &item.CaregiverID, &item.Role, &item.Action, &payload, &item.CreatedAt); err != nil {
			return nil, err
		}
		item.Payload = json.RawMessage(payload)
		items = append(items, item)
	}
	return items, rows.Err()
}

func nullString(value string) sql.NullString {
	if strings.TrimSpace(value) == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: value, Valid: true}
}

func nullTime(value *time.Time) sql.NullTime {
	if value == nil || value.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *value, Valid: true}
}

func expectOneRow(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
