package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"carewatch/backend/internal/auth"
	"carewatch/backend/internal/config"
	"carewatch/backend/internal/db"
	"carewatch/backend/internal/http"
	"carewatch/backend/internal/notify"
	"carewatch/backend/internal/realtime"
	"carewatch/backend/internal/sms"
	"carewatch/backend/internal/store"
	"carewatch/backend/internal/verification"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	repo := openStore(ctx, cfg)
	authProvider, issuer := buildAuth(ctx, cfg)

	codes := verification.NewService(buildCodeStore(ctx, cfg), buildSMSSender(cfg), verification.Options{
		TTL:            cfg.CodeTTL,
		MaxAttempts:    cfg.CodeMaxAttempts,
		ResendInterval: cfg.CodeResendInterval,
	})

	hub := realtime.NewHub(cfg.CORSAllowList)
	notifier := notify.Multi{hub}
	pushSender, err := notify.NewFirebaseSender(ctx, cfg.FirebaseCredentialsFile, repo)
	if err != nil {
		log.Fatalf("failed to initialize push notifications: %v", err)
	}
	notifier = append(notifier, pushSender)
	if cfg.SMTPHost != "" {
		emailSender, emailErr := notify.NewEmailSender(notify.SMTPConfig{
			Host:      cfg.SMTPHost,
			Port:      cfg.SMTPPort,
			Username:  cfg.SMTPUsername,
			Password:  cfg.SMTPPassword,
			FromName:  cfg.SMTPFromName,
			FromEmail: cfg.SMTPFromEmail,
		}, repo)
		if emailErr != nil {
			log.Printf("[notify] email alerts disabled: %v", emailErr)
		} else {
			notifier = append(notifier, emailSender)
		}
	}

	api := httpapi.API{
		Store:         repo,
		AuthProvider:  authProvider,
		TokenIssuer:   issuer,
		Codes:         codes,
		Notifier:      notifier,
		Hub:           hub,
		CORSAllowList: cfg.CORSAllowList,
	}

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      api.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	log.Printf("carewatch api listening on %s (store=%s auth=%s)", cfg.HTTPAddr, cfg.StoreMode, cfg.AuthMode)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("server error: %v", err)
	}
}

func openStore(ctx context.Context, cfg config.Config) store.Repository {
	switch cfg.StoreMode {
	case "memory":
		if cfg.IsProduction() {
			log.Fatal("STORE_MODE=memory is not allowed in production")
		}
		repo := store.NewMemory()
		if err := store.Seed(ctx, repo, cfg.DevAuthPhone, time.Now().UTC()); err != nil {
			log.Fatalf("failed to seed memory store: %v", err)
		}
		log.Printf("using in-memory store seeded for %s", cfg.DevAuthPhone)
		return repo
	case "postgres":
		if cfg.DatabaseURL == "" {
			log.Fatal("DATABASE_URL is required")
		}
		dbConn, err := db.Open(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("failed to open db: %v", err)
		}
		if err := db.Migrate(ctx, dbConn); err != nil {
			log.Fatalf("failed to migrate db: %v", err)
		}
		return store.New(dbConn)
	default:
		log.Fatalf("unsupported STORE_MODE: %s", cfg.StoreMode)
		return nil
	}
}

// buildAuth returns the verifier for bearer tokens and the issuer used by
// verify-code. Session JWTs are accepted in every mode once a secret is set.
func buildAuth(ctx context.Context, cfg config.Config) (auth.Provider, auth.Issuer) {
	var jwtProvider *auth.JWTProvider
	if cfg.JWTSecret != "" {
		provider, err := auth.NewJWTProvider(cfg.JWTSecret, cfg.JWTTTL)
		if err != nil {
			log.Fatalf("failed to initialize jwt provider: %v", err)
		}
		jwtProvider = provider
	}

	switch cfg.AuthMode {
	case "jwt":
		if jwtProvider == nil {
			log.Fatal("JWT_SECRET is required for AUTH_MODE=jwt")
		}
		return jwtProvider, jwtProvider
	case "dev":
		if cfg.IsProduction() {
			log.Fatal("AUTH_MODE=dev is not allowed in production")
		}
		dev := auth.DevProvider{DefaultPhone: cfg.DevAuthPhone}
		if jwtProvider == nil {
			return dev, dev
		}
		return auth.Chain{jwtProvider, dev}, jwtProvider
	case "firebase":
		if jwtProvider == nil {
			log.Fatal("JWT_SECRET is required for AUTH_MODE=firebase")
		}
		firebaseProvider, err := auth.NewFirebaseProvider(ctx, cfg.FirebaseProjectID, cfg.FirebaseCredentialsFile)
		if err != nil {
			log.Fatalf("failed to initialize firebase auth provider: %v", err)
		}
		return auth.Chain{jwtProvider, firebaseProvider}, jwtProvider
	default:
		log.Fatalf("unsupported AUTH_MODE: %s", cfg.AuthMode)
		return nil, nil
	}
}

func buildCodeStore(ctx context.Context, cfg config.Config) verification.CodeStore {
	switch cfg.CodeStore {
	case "memory":
		return verification.NewMemoryStore()
	case "redis":
		client := verification.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			log.Fatalf("failed to reach redis at %s: %v", cfg.RedisAddr, err)
		}
		return verification.NewRedisStore(client)
	default:
		log.Fatalf("unsupported CODE_STORE: %s", cfg.CodeStore)
		return nil
	}
}

func buildSMSSender(cfg config.Config) sms.Sender {
	switch cfg.SMSMode {
	case "log":
		if cfg.IsProduction() {
			log.Fatal("SMS_MODE=log is not allowed in production")
		}
		return sms.LogSender{}
	case "twilio":
		sender, err := sms.NewTwilioSender(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioPhoneNumber)
		if err != nil {
			log.Fatalf("failed to initialize twilio: %v", err)
		}
		return sender
	default:
		log.Fatalf("unsupported SMS_MODE: %s", cfg.SMSMode)
		return nil
	}
}
