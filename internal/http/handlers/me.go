package handlers

import (
	"net/http"

	"carewatch/backend/internal/httpctx"
	"carewatch/backend/internal/models"
)

// sessionInfo describes the token the request was authenticated with. The
// token role is what the identity provider asserted; the caregiver's stored
// role is what the API enforces.
type sessionInfo struct {
	UID   string `json:"uid"`
	Role  string `json:"role,omitempty"`
	Email string `json:"email,omitempty"`
}

type meResponse struct {
	*models.Caregiver
	Session *sessionInfo `json:"session,omitempty"`
}

func Me(w http.ResponseWriter, r *http.Request) {
	caregiver := httpctx.CaregiverFromContext(r.Context())
	if caregiver == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	resp := meResponse{Caregiver: caregiver}
	if claims := httpctx.ClaimsFromContext(r.Context()); claims != nil {
		resp.Session = &sessionInfo{UID: claims.UID, Role: claims.Role, Email: claims.Email}
	}
	writeJSON(w, http.StatusOK, resp)
}
