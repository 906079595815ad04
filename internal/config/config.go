package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env                     string
	HTTPAddr                string
	DatabaseURL             string
	StoreMode               string
	AuthMode                string
	DevAuthPhone            string
	JWTSecret               string
	JWTTTL                  time.Duration
	FirebaseProjectID       string
	FirebaseCredentialsFile string
	CodeStore               string
	RedisAddr               string
	RedisPassword           string
	RedisDB                 int
	CodeTTL                 time.Duration
	CodeMaxAttempts         int
	CodeResendInterval      time.Duration
	SMSMode                 string
	TwilioAccountSID        string
	TwilioAuthToken         string
	TwilioPhoneNumber       string
	SMTPHost                string
	SMTPPort                int
	SMTPUsername            string
	SMTPPassword            string
	SMTPFromName            string
	SMTPFromEmail           string
	CORSAllowList           []string
}

func Load() Config {
	// A missing .env is fine; the process environment wins either way.
	_ = godotenv.Load()
	return Config{
		Env:                     getEnv("APP_ENV", "development"),
		HTTPAddr:                getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:             getEnv("DATABASE_URL", ""),
		StoreMode:               getEnv("STORE_MODE", "postgres"),
		AuthMode:                getEnv("AUTH_MODE", "jwt"),
		DevAuthPhone:            getEnv("DEV_AUTH_PHONE", "+491701234567"),
		JWTSecret:               getEnv("JWT_SECRET", ""),
		JWTTTL:                  time.Duration(getEnvInt("JWT_TTL_HOURS", 24*30)) * time.Hour,
		FirebaseProjectID:       getEnv("FIREBASE_PROJECT_ID", ""),
		FirebaseCredentialsFile: getEnv("FIREBASE_CREDENTIALS_FILE", ""),
		CodeStore:               getEnv("CODE_STORE", "memory"),
		RedisAddr:               getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:           getEnv("REDIS_PASSWORD", ""),
		RedisDB:                 getEnvInt("REDIS_DB", 0),
		CodeTTL:                 time.Duration(getEnvInt("CODE_TTL_MINUTES", 5)) * time.Minute,
		CodeMaxAttempts:         getEnvInt("CODE_MAX_ATTEMPTS", 5),
		CodeResendInterval:      time.Duration(getEnvInt("CODE_RESEND_SECONDS", 30)) * time.Second,
		SMSMode:                 getEnv("SMS_MODE", "log"),
		TwilioAccountSID:        getEnv("TWILIO_ACCOUNT_SID", ""),
		TwilioAuthToken:         getEnv("TWILIO_AUTH_TOKEN", ""),
		TwilioPhoneNumber:       getEnv("TWILIO_PHONE_NUMBER", ""),
		SMTPHost:                getEnv("SMTP_HOST", ""),
		SMTPPort:                getEnvInt("SMTP_PORT", 587),
		SMTPUsername:            getEnv("SMTP_USERNAME", ""),
		SMTPPassword:            getEnv("SMTP_PASSWORD", ""),
		SMTPFromName:            getEnv("SMTP_FROM_NAME", "Carewatch"),
		SMTPFromEmail:           getEnv("SMTP_FROM_EMAIL", ""),
		CORSAllowList:           getEnvList("CORS_ALLOWED_ORIGINS"),
	}
}

func (c Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(strings.TrimSpace(val)); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
