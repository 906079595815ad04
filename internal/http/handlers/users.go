package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"carewatch/backend/internal/battery"
	"carewatch/backend/internal/httpctx"
	"carewatch/backend/internal/models"
	"carewatch/backend/internal/monitoring"
	"carewatch/backend/internal/store"
)

const detailNotificationLimit = 50

type UsersHandler struct {
	Store store.Repository
}

type userDetailResponse struct {
	User          models.MonitoredUser  `json:"user"`
	Battery       *battery.Status       `json:"battery,omitempty"`
	Indicators    monitoring.Indicators `json:"indicators"`
	Notifications []models.Notification `json:"notifications"`
}

type healthResponse struct {
	Series  models.HealthSeries   `json:"series"`
	Samples []models.HealthSample `json:"samples"`
}

// List returns the caller's monitored users in enrollment order. Admins get
// every user.
func (h UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	caregiver := httpctx.CaregiverFromContext(r.Context())
	if caregiver == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	owner := caregiver.ID
	if hasRole(caregiver, models.RoleAdmin) {
		owner = ""
	}
	items, err := h.Store.ListMonitoredUsers(r.Context(), owner)
	if err != nil {
		log.Printf("[users] list for caregiver id=%s failed: %v", caregiver.ID, err)
		writeError(w, http.StatusInternalServerError, "failed to load users")
		return
	}
	out := make([]models.MonitoredUser, 0, len(items))
	for _, item := range items {
		out = append(out, present(item))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h UsersHandler) Create(w http.ResponseWriter, r *http.Request) {
	caregiver := httpctx.CaregiverFromContext(r.Context())
	if caregiver == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req models.Enrollment
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	user, err := req.MonitoredUser(caregiver.ID)
	if err != nil {
		writeValidationError(w, err)
		return
	}
	created, err := h.Store.CreateMonitoredUser(r.Context(), user)
	if err != nil {
		if errors.Is(err, store.ErrDuplicateIMEI) {
			writeError(w, http.StatusConflict, "imei already enrolled")
			return
		}
		log.Printf("[users] create failed: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to create user")
		return
	}
	auditLog(r.Context(), "user.created", caregiver, map[string]interface{}{
		"user_id": created.ID,
	})
	writeJSON(w, http.StatusCreated, present(*created))
}

// Get returns the detail view: the record, its battery tier, the device
// health indicators and the user's notifications newest first.
func (h UsersHandler) Get(w http.ResponseWriter, r *http.Request) {
	_, user := loadOwnedUser(w, r, h.Store)
	if user == nil {
		return
	}
	notifications, err := h.Store.ListNotificationsByUser(r.Context(), user.ID, detailNotificationLimit)
	if err != nil {
		log.Printf("[users] notifications for user id=%s failed: %v", user.ID, err)
		writeError(w, http.StatusInternalServerError, "failed to load notifications")
		return
	}
	resp := userDetailResponse{
		User:          present(*user),
		Indicators:    monitoring.IndicatorsFor(*user),
		Notifications: notifications,
	}
	if status, err := battery.ClassifyString(user.BatteryLevel); err == nil {
		resp.Battery = &status
	} else {
		log.Printf("[users] user id=%s has unreadable battery level %q", user.ID, user.BatteryLevel)
	}
	if resp.Notifications == nil {
		resp.Notifications = []models.Notification{}
	}
	writeJSON(w, http.StatusOK, resp)
}

// Update saves an edited profile. Only the fields the edit form owns are
// taken from the body; device state stays as reported by the watch.
func (h UsersHandler) Update(w http.ResponseWriter, r *http.Request) {
	caregiver, user := loadOwnedUser(w, r, h.Store)
	if user == nil {
		return
	}
	var req models.MonitoredUser
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if err := validateEdit(req); err != nil {
		writeValidationError(w, err)
		return
	}

	next := user.Clone()
	next.Name = strings.TrimSpace(req.Name)
	next.LastName = strings.TrimSpace(req.LastName)
	next.Age = req.Age
	next.Address = trimAddress(req.Address)
	next.IMEI = strings.TrimSpace(req.IMEI)
	next.Code = strings.TrimSpace(req.Code)
	next.Status = strings.TrimSpace(req.Status)
	next.ProfileImage = strings.TrimSpace(req.ProfileImage)
	next.UpdatedAt = now().UTC()

	if err := h.Store.UpdateMonitoredUser(r.Context(), next); err != nil {
		switch {
		case errors.Is(err, store.ErrDuplicateIMEI):
			writeError(w, http.StatusConflict, "imei already enrolled")
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "user not found")
		default:
			log.Printf("[users] update id=%s failed: %v", user.ID, err)
			writeError(w, http.StatusInternalServerError, "failed to update user")
		}
		return
	}
	auditLog(r.Context(), "user.updated", caregiver, map[string]interface{}{
		"user_id": user.ID,
	})
	writeJSON(w, http.StatusOK, present(next))
}

func (h UsersHandler) Notifications(w http.ResponseWriter, r *http.Request) {
	_, user := loadOwnedUser(w, r, h.Store)
	if user == nil {
		return
	}
	limit := detailNotificationLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			limit = parsed
		}
	}
	items, err := h.Store.ListNotificationsByUser(r.Context(), user.ID, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load notifications")
		return
	}
	if items == nil {
		items = []models.Notification{}
	}
	writeJSON(w, http.StatusOK, items)
}

// Health returns the 24h chart series plus the raw samples of the last
// `hours` hours (default 24, at most a week).
func (h UsersHandler) Health(w http.ResponseWriter, r *http.Request) {
	_, user := loadOwnedUser(w, r, h.Store)
	if user == nil {
		return
	}
	hours := 24
	if raw := r.URL.Query().Get("hours"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 168 {
			writeError(w, http.StatusBadRequest, "hours must be between 1 and 168")
			return
		}
		hours = parsed
	}
	until := now().UTC()
	window := time.Duration(hours) * time.Hour
	if window < 24*time.Hour {
		window = 24 * time.Hour
	}
	samples, err := h.Store.ListHealthSamples(r.Context(), user.ID, until.Add(-window))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load health data")
		return
	}
	recent := make([]models.HealthSample, 0, len(samples))
	since := until.Add(-time.Duration(hours) * time.Hour)
	for _, s := range samples {
		if !s.RecordedAt.Before(since) {
			recent = append(recent, s)
		}
	}
	writeJSON(w, http.StatusOK, healthResponse{
		Series:  monitoring.BuildSeries(samples, until),
		Samples: recent,
	})
}

func trimAddress(a models.Address) models.Address {
	return models.Address{
		Street:      strings.TrimSpace(a.Street),
		HouseNumber: strings.TrimSpace(a.HouseNumber),
		PostalCode:  strings.TrimSpace(a.PostalCode),
		City:        strings.TrimSpace(a.City),
	}
}

func validateEdit(u models.MonitoredUser) error {
	verr := &models.ValidationError{}
	required := []struct{ name, value string }{
		{"name", u.Name},
		{"lastName", u.LastName},
		{"street", u.Address.Street},
		{"houseNumber", u.Address.HouseNumber},
		{"postalCode", u.Address.PostalCode},
		{"city", u.Address.City},
		{"imei", u.IMEI},
		{"code", u.Code},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			verr.Missing = append(verr.Missing, f.name)
		}
	}
	if u.Age < 0 || u.Age > 150 {
		verr.Invalid = append(verr.Invalid, "age")
	}
	if len(verr.Missing) > 0 || len(verr.Invalid) > 0 {
		return verr
	}
	return nil
}

func writeValidationError(w http.ResponseWriter, err error) {
	var verr *models.ValidationError
	if errors.As(err, &verr) {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
			"error":   "please fill all fields",
			"missing": verr.Missing,
			"invalid": verr.Invalid,
		})
		return
	}
	writeError(w, http.StatusBadRequest, err.Error())
}
