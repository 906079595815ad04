package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"carewatch/backend/internal/httpctx"
	"carewatch/backend/internal/models"
	"carewatch/backend/internal/store"
)

var auditStore store.Repository

// SetAuditStore wires the repository audit entries are written to. Audit
// writes are skipped until it is set.
func SetAuditStore(repo store.Repository) {
	auditStore = repo
}

func auditLog(ctx context.Context, action string, caregiver *models.Caregiver, payload map[string]interface{}) {
	if auditStore == nil {
		return
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		log.Printf("[audit] encode %s failed: %v", action, err)
		return
	}
	event := models.AuditEvent{Action: action, Payload: raw}
	if caregiver != nil {
		event.CaregiverID = caregiver.ID
		event.Role = caregiver.Role
	}
	if err := auditStore.CreateAuditEvent(ctx, event); err != nil {
		log.Printf("[audit] write %s failed: %v", action, err)
	}
}

type AuditLogsHandler struct {
	Store store.Repository
}

func (h AuditLogsHandler) List(w http.ResponseWriter, r *http.Request) {
	caregiver := httpctx.CaregiverFromContext(r.Context())
	if caregiver == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if !hasRole(caregiver, models.RoleAdmin) {
		writeError(w, http.StatusForbidden, "admin required")
		return
	}
	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			limit = parsed
		}
	}
	items, err := h.Store.ListAuditEvents(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load audit logs")
		return
	}
	writeJSON(w, http.StatusOK, items)
}
