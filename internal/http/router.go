package httpapi

import (
	"net/http"
	"time"

	"carewatch/backend/internal/auth"
	"carewatch/backend/internal/http/handlers"
	"carewatch/backend/internal/notify"
	"carewatch/backend/internal/realtime"
	"carewatch/backend/internal/store"
)

type API struct {
	Store         store.Repository
	AuthProvider  auth.Provider
	TokenIssuer   auth.Issuer
	Codes         handlers.CodeVerifier
	Notifier      notify.Sender
	Hub           *realtime.Hub
	CORSAllowList []string
}

func (a API) Router() http.Handler {
	mux := http.NewServeMux()
	handlers.SetAuditStore(a.Store)

	healthz := handlers.HealthzHandler{Store: a.Store}
	mux.HandleFunc("GET /healthz", healthz.Check)

	authHandler := handlers.AuthHandler{Store: a.Store, Codes: a.Codes, Issuer: a.TokenIssuer}
	authLimited := withRateLimit(newFixedWindow("auth", 30, time.Minute), clientIP)
	mux.Handle("POST /auth/send-code", authLimited(http.HandlerFunc(authHandler.SendCode)))
	mux.Handle("POST /auth/verify-code", authLimited(http.HandlerFunc(authHandler.VerifyCode)))

	protected := RequireAuth(a.AuthProvider, a.Store)

	mux.Handle("GET /api/v1/me", protected(http.HandlerFunc(handlers.Me)))

	usersHandler := handlers.UsersHandler{Store: a.Store}
	mux.Handle("GET /api/v1/users", protected(http.HandlerFunc(usersHandler.List)))
	mux.Handle("POST /api/v1/users", protected(http.HandlerFunc(usersHandler.Create)))
	mux.Handle("GET /api/v1/users/{id}", protected(http.HandlerFunc(usersHandler.Get)))
	mux.Handle("PUT /api/v1/users/{id}", protected(http.HandlerFunc(usersHandler.Update)))
	mux.Handle("GET /api/v1/users/{id}/notifications", protected(http.HandlerFunc(usersHandler.Notifications)))
	mux.Handle("GET /api/v1/users/{id}/health", protected(http.HandlerFunc(usersHandler.Health)))

	notificationsHandler := handlers.NotificationsHandler{Store: a.Store, Hub: a.Hub}
	mux.Handle("GET /api/v1/notifications/stream", protected(http.HandlerFunc(notificationsHandler.Stream)))
	mux.Handle("GET /api/v1/notifications/{id}", protected(http.HandlerFunc(notificationsHandler.Get)))
	mux.Handle("POST /api/v1/notifications/{id}/read", protected(http.HandlerFunc(notificationsHandler.MarkRead)))

	devicesHandler := handlers.DevicesHandler{Store: a.Store, Notifier: a.Notifier}
	mux.Handle("POST /api/v1/devices/token", protected(http.HandlerFunc(devicesHandler.RegisterToken)))

	device := RequireDevice(a.Store)
	deviceLimited := withRateLimit(newFixedWindow("device", 120, time.Minute), byDevice)
	mux.Handle("POST /api/v1/devices/{imei}/telemetry", deviceLimited(device(http.HandlerFunc(devicesHandler.Telemetry))))
	mux.Handle("POST /api/v1/devices/{imei}/events", deviceLimited(device(http.HandlerFunc(devicesHandler.Event))))

	auditLogsHandler := handlers.AuditLogsHandler{Store: a.Store}
	mux.Handle("GET /api/v1/audit-logs", protected(http.HandlerFunc(auditLogsHandler.List)))

	return withCORS(mux, a.CORSAllowList)
}
