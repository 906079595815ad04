package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"carewatch/backend/internal/store"
)

type HealthzHandler struct {
	Store store.Repository
}

func (h HealthzHandler) Check(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := h.Store.Ping(ctx); err != nil {
		log.Printf("[health] store ping failed: %v", err)
		writeError(w, http.StatusServiceUnavailable, "store unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
