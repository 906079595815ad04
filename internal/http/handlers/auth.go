package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"

	"carewatch/backend/internal/auth"
	"carewatch/backend/internal/models"
	"carewatch/backend/internal/store"
	"carewatch/backend/internal/verification"
)

// CodeVerifier is the SMS one-time-code flow behind send-code and verify-code.
type CodeVerifier interface {
	SendCode(ctx context.Context, phone string) error
	VerifyCode(ctx context.Context, phone, code string) (string, error)
}

type AuthHandler struct {
	Store  store.Repository
	Codes  CodeVerifier
	Issuer auth.Issuer
}

type sendCodeRequest struct {
	PhoneNumber string `json:"phoneNumber"`
}

type verifyCodeRequest struct {
	PhoneNumber string `json:"phoneNumber"`
	Code        string `json:"code"`
}

type verifyCodeResponse struct {
	Token     string           `json:"token"`
	Caregiver models.Caregiver `json:"caregiver"`
}

func (h AuthHandler) SendCode(w http.ResponseWriter, r *http.Request) {
	var req sendCodeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if err := h.Codes.SendCode(r.Context(), req.PhoneNumber); err != nil {
		switch {
		case errors.Is(err, verification.ErrInvalidPhone):
			writeError(w, http.StatusBadRequest, "invalid phone number")
		case errors.Is(err, verification.ErrResendTooSoon):
			writeError(w, http.StatusTooManyRequests, "code requested too recently")
		default:
			log.Printf("[session] send-code failed: %v", err)
			writeError(w, http.StatusBadGateway, "failed to send code")
		}
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "sent"})
}

func (h AuthHandler) VerifyCode(w http.ResponseWriter, r *http.Request) {
	var req verifyCodeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	phone, err := h.Codes.VerifyCode(r.Context(), req.PhoneNumber, req.Code)
	if err != nil {
		switch {
		case errors.Is(err, verification.ErrInvalidPhone):
			writeError(w, http.StatusBadRequest, "invalid phone number")
		case errors.Is(err, verification.ErrInvalidCode), errors.Is(err, verification.ErrCodeExpired):
			writeError(w, http.StatusUnauthorized, "invalid or expired code")
		case errors.Is(err, verification.ErrTooManyAttempts):
			writeError(w, http.StatusTooManyRequests, "too many attempts")
		default:
			log.Printf("[session] verify-code failed: %v", err)
			writeError(w, http.StatusInternalServerError, "failed to verify code")
		}
		return
	}

	caregiver, created, err := store.EnsureCaregiver(r.Context(), h.Store, phone, "", models.RoleCaregiver)
	if err != nil {
		log.Printf("[session] caregiver lookup failed: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to load caregiver")
		return
	}
	if created {
		log.Printf("[session] created caregiver id=%s", caregiver.ID)
		auditLog(r.Context(), "caregiver.created", caregiver, nil)
	}

	token, err := h.Issuer.Issue(r.Context(), auth.Claims{
		UID:   caregiver.ID,
		Phone: caregiver.Phone,
		Email: caregiver.Email,
		Name:  caregiver.FullName,
		Role:  string(caregiver.Role),
	})
	if err != nil {
		log.Printf("[session] issue token failed: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to issue token")
		return
	}
	auditLog(r.Context(), "session.created", caregiver, nil)
	writeJSON(w, http.StatusOK, verifyCodeResponse{Token: token, Caregiver: *caregiver})
}
