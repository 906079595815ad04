package httpapi

import (
	"crypto/subtle"
	"log"
	"net/http"
	"strings"

	"carewatch/backend/internal/auth"
	"carewatch/backend/internal/httpctx"
	"carewatch/backend/internal/models"
	"carewatch/backend/internal/store"
)

const deviceCodeHeader = "X-Device-Code"

func RequireAuth(authProvider auth.Provider, repo store.Repository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log.Printf("[auth] %s %s", r.Method, r.URL.Path)
			token := requestToken(r)
			if token == "" {
				log.Printf("[auth] missing bearer token")
				http.Error(w, "missing token", http.StatusUnauthorized)
				return
			}

			claims, err := authProvider.Verify(r.Context(), token)
			if err != nil {
				log.Printf("[auth] token verify failed: %v", err)
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}

			principal := principalFromClaims(claims)
			if principal == "" {
				log.Printf("[auth] token missing principal")
				http.Error(w, "missing identity", http.StatusUnauthorized)
				return
			}
			log.Printf("[auth] claims principal=%s role=%s", principal, claims.Role)

			caregiver, created, err := store.EnsureCaregiver(r.Context(), repo, principal, claims.Name, toRole(claims.Role))
			if err != nil {
				log.Printf("[auth] caregiver lookup failed for principal=%s err=%v", principal, err)
				http.Error(w, "failed to load caregiver", http.StatusInternalServerError)
				return
			}
			if created {
				log.Printf("[auth] auto-created caregiver id=%s role=%s", caregiver.ID, caregiver.Role)
			}

			ctx := httpctx.WithCaregiver(r.Context(), caregiver)
			ctx = httpctx.WithClaims(ctx, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireDevice authenticates watch traffic by the {imei} path value and the
// pairing code header.
func RequireDevice(repo store.Repository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			imei := strings.TrimSpace(r.PathValue("imei"))
			code := r.Header.Get(deviceCodeHeader)
			if imei == "" || code == "" {
				http.Error(w, "missing device credentials", http.StatusUnauthorized)
				return
			}
			user, err := repo.GetMonitoredUserByIMEI(r.Context(), imei)
			if err != nil {
				log.Printf("[telemetry] device lookup failed imei=%s err=%v", imei, err)
				http.Error(w, "failed to load device", http.StatusInternalServerError)
				return
			}
			if user == nil || subtle.ConstantTimeCompare([]byte(user.Code), []byte(code)) != 1 {
				log.Printf("[telemetry] rejected device imei=%s", imei)
				http.Error(w, "invalid device credentials", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(httpctx.WithDevice(r.Context(), user)))
		})
	}
}

func toRole(value string) models.Role {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case string(models.RoleAdmin):
		return models.RoleAdmin
	case string(models.RoleCaregiver):
		return models.RoleCaregiver
	default:
		return ""
	}
}

// requestToken reads the bearer token. Websocket handshakes from browsers
// cannot set headers, so they may pass it as access_token instead.
func requestToken(r *http.Request) string {
	if token := bearerToken(r.Header.Get("Authorization")); token != "" {
		return token
	}
	if strings.EqualFold(r.Header.Get("Upgrade"), "websocket") {
		return r.URL.Query().Get("access_token")
	}
	return ""
}

func bearerToken(value string) string {
	const prefix = "Bearer "
	if len(value) <= len(prefix) || value[:len(prefix)] != prefix {
		return ""
	}
	return value[len(prefix):]
}

func principalFromClaims(claims auth.Claims) string {
	if phone := strings.TrimSpace(claims.Phone); phone != "" {
		return phone
	}
	if email := strings.ToLower(strings.TrimSpace(claims.Email)); email != "" {
		return "email:" + email
	}
	if uid := strings.TrimSpace(claims.UID); uid != "" {
		return "uid:" + uid
	}
	return ""
}
