package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"carewatch/backend/internal/httpctx"
	"carewatch/backend/internal/models"
	"carewatch/backend/internal/monitoring"
	"carewatch/backend/internal/store"
)

// now is swapped in tests that assert relative labels.
var now = time.Now

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func decodeJSON(r *http.Request, dst interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dst)
}

func hasRole(caregiver *models.Caregiver, roles ...models.Role) bool {
	if caregiver == nil {
		return false
	}
	for _, role := range roles {
		if caregiver.Role == role {
			return true
		}
	}
	return false
}

// canAccess reports whether caregiver may see user. Admins see everyone.
func canAccess(caregiver *models.Caregiver, user *models.MonitoredUser) bool {
	if caregiver == nil || user == nil {
		return false
	}
	return hasRole(caregiver, models.RoleAdmin) || user.CaregiverID == caregiver.ID
}

// loadOwnedUser resolves the {id} path value to a monitored user the caller
// may access. It writes the error response and returns nil otherwise; users
// of other caregivers are reported as missing.
func loadOwnedUser(w http.ResponseWriter, r *http.Request, repo store.Repository) (*models.Caregiver, *models.MonitoredUser) {
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
	user, err := repo.GetMonitoredUser(r.Context(), id)
	if err != nil {
		log.Printf("[users] load user id=%s failed: %v", id, err)
		writeError(w, http.StatusInternalServerError, "failed to load user")
		return nil, nil
	}
	if !canAccess(caregiver, user) {
		writeError(w, http.StatusNotFound, "user not found")
		return nil, nil
	}
	return caregiver, user
}

// present fills the derived lastUpdate label.
func present(user models.MonitoredUser) models.MonitoredUser {
	user.LastUpdate = monitoring.LastUpdateLabel(user.LastSeenAt, now())
	return user
}
