package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"carewatch/backend/internal/httpctx"
	"carewatch/backend/internal/models"
	"carewatch/backend/internal/monitoring"
	"carewatch/backend/internal/notify"
	"carewatch/backend/internal/store"
)

type DevicesHandler struct {
	Store    store.Repository
	Notifier notify.Sender
}

type registerDeviceTokenRequest struct {
	Token    string `json:"token"`
	Platform string `json:"platform"`
}

func (h DevicesHandler) RegisterToken(w http.ResponseWriter, r *http.Request) {
	caregiver := httpctx.CaregiverFromContext(r.Context())
	if caregiver == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req registerDeviceTokenRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	req.Token = strings.TrimSpace(req.Token)
	req.Platform = strings.TrimSpace(req.Platform)
	if req.Token == "" {
		writeError(w, http.StatusBadRequest, "token is required")
		return
	}
	if req.Platform == "" {
		req.Platform = "android"
	}
	if err := h.Store.UpsertDeviceToken(r.Context(), caregiver.ID, req.Token, req.Platform); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to register token")
		return
	}
	auditLog(r.Context(), "device.token.registered", caregiver, map[string]interface{}{
		"platform": req.Platform,
	})
	writeJSON(w, http.StatusOK, map[string]string{"status": "registered"})
}

// Telemetry ingests a status report from the watch paired to the request's
// device and raises the notifications the change implies.
func (h DevicesHandler) Telemetry(w http.ResponseWriter, r *http.Request) {
	device := httpctx.DeviceFromContext(r.Context())
	if device == nil {
		writeError(w, http.StatusUnauthorized, "unknown device")
		return
	}
	var report monitoring.Telemetry
	if err := decodeJSON(r, &report); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if report.RecordedAt.IsZero() {
		report.RecordedAt = now().UTC()
	}

	updated, alerts, err := monitoring.Apply(*device, report)
	if err != nil {
		if errors.Is(err, monitoring.ErrInvalidTelemetry) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to apply telemetry")
		return
	}
	if err := h.Store.UpdateMonitoredUser(r.Context(), updated); err != nil {
		log.Printf("[telemetry] update user id=%s failed: %v", device.ID, err)
		writeError(w, http.StatusInternalServerError, "failed to store telemetry")
		return
	}
	if sample, ok := report.HealthSample(device.ID); ok {
		if err := h.Store.AddHealthSample(r.Context(), sample); err != nil {
			log.Printf("[telemetry] health sample for user id=%s failed: %v", device.ID, err)
		}
	}

	stored := make([]models.Notification, 0, len(alerts))
	for _, alert := range alerts {
		created, err := h.Store.CreateNotification(r.Context(), alert)
		if err != nil {
			log.Printf("[telemetry] create %s notification failed: %v", alert.Type, err)
			continue
		}
		stored = append(stored, *created)
		h.dispatch(r, updated, *created)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"user":          present(updated),
		"notifications": stored,
	})
}

// Event ingests an alert raised on the watch (SOS button, fall detection).
func (h DevicesHandler) Event(w http.ResponseWriter, r *http.Request) {
	device := httpctx.DeviceFromContext(r.Context())
	if device == nil {
		writeError(w, http.StatusUnauthorized, "unknown device")
		return
	}
	var event monitoring.DeviceEvent
	if err := decodeJSON(r, &event); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = now().UTC()
	}
	if event.Location == nil && device.Location.Type != models.LocationUnknown {
		event.Location = &models.NotificationLocation{
			Coordinates: device.Location.Coordinates,
			Address:     device.Location.Address,
		}
	}
	n, err := event.Notification(device.ID)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	created, err := h.Store.CreateNotification(r.Context(), n)
	if err != nil {
		if errors.Is(err, models.ErrInvalidNotification) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		log.Printf("[telemetry] create %s event for user id=%s failed: %v", n.Type, device.ID, err)
		writeError(w, http.StatusInternalServerError, "failed to store event")
		return
	}
	log.Printf("[telemetry] %s event user id=%s notification id=%s", created.Type, device.ID, created.ID)
	h.dispatch(r, *device, *created)
	writeJSON(w, http.StatusCreated, created)
}

func (h DevicesHandler) dispatch(r *http.Request, user models.MonitoredUser, n models.Notification) {
	if h.Notifier == nil {
		return
	}
	if err := h.Notifier.SendAlert(r.Context(), user.CaregiverID, user, n); err != nil {
		log.Printf("[notify] alert for notification id=%s incomplete: %v", n.ID, err)
	}
}
