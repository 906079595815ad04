package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"carewatch/backend/internal/httpctx"
	"carewatch/backend/internal/models"
	"carewatch/backend/internal/realtime"
	"carewatch/backend/internal/store"
)

type NotificationsHandler struct {
	Store store.Repository
	Hub   *realtime.Hub
}

// loadOwnedNotification resolves {id} to a notification of one of the
// caller's users.
func (h NotificationsHandler) loadOwnedNotification(w http.ResponseWriter, r *http.Request) (*models.Caregiver, *models.Notification) {
	caregiver := httpctx.CaregiverFromContext(r.Context())
	if caregiver == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return nil, nil
	}
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing id")
		return nil, nil
	}
	n, err := h.Store.GetNotification(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load notification")
		return nil, nil
	}
	if n == nil {
		writeError(w, http.StatusNotFound, "notification not found")
		return nil, nil
	}
	user, err := h.Store.GetMonitoredUser(r.Context(), n.UserID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load notification")
		return nil, nil
	}
	if !canAccess(caregiver, user) {
		writeError(w, http.StatusNotFound, "notification not found")
		return nil, nil
	}
	return caregiver, n
}

func (h NotificationsHandler) Get(w http.ResponseWriter, r *http.Request) {
	_, n := h.loadOwnedNotification(w, r)
	if n == nil {
		return
	}
	writeJSON(w, http.StatusOK, n)
}

func (h NotificationsHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	caregiver, n := h.loadOwnedNotification(w, r)
	if n == nil {
		return
	}
	if !n.IsRead {
		if err := h.Store.MarkNotificationRead(r.Context(), n.ID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				writeError(w, http.StatusNotFound, "notification not found")
				return
			}
			writeError(w, http.StatusInternalServerError, "failed to update notification")
			return
		}
		auditLog(r.Context(), "notification.read", caregiver, map[string]interface{}{
			"notification_id": n.ID,
		})
	}
	n.IsRead = true
	writeJSON(w, http.StatusOK, n)
}

// Stream upgrades to a websocket that receives every new notification for
// the caller's users.
func (h NotificationsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	caregiver := httpctx.CaregiverFromContext(r.Context())
	if caregiver == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if h.Hub == nil {
		writeError(w, http.StatusServiceUnavailable, "stream unavailable")
		return
	}
	log.Printf("[ws] stream requested caregiver=%s", caregiver.ID)
	h.Hub.Serve(w, r, caregiver.ID)
}
