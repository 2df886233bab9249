package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	Environment string
	DatabaseURL string
	JWTSecret   string
	CORSOrigins []string

	// Payment gateway
	PaymentProvider      string // "http" or "stripe"
	PaymentBaseURL       string
	PaymentSecretKey     string
	PaymentWebhookSecret string
	PaymentCallbackURL   string
	PaymentCurrency      string
	PaymentTimeout       time.Duration

	// Stale pending orders are re-verified every ReconcileInterval once they
	// are older than ReconcileAfter. A zero interval disables the sweep.
	// Orders still pending after ReconcileExpire are failed and their stock
	// released; zero keeps them pending.
	ReconcileInterval time.Duration
	ReconcileAfter    time.Duration
	ReconcileExpire   time.Duration

	CloudinaryURL string
}

// Load reads .env (optional) and the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:                 getEnv("PORT", "8080"),
		Environment:          getEnv("ENVIRONMENT", "development"),
		DatabaseURL:          databaseURL(),
		JWTSecret:            os.Getenv("JWT_SECRET"),
		CORSOrigins:          splitList(getEnv("CORS_ORIGINS", "*")),
		PaymentProvider:      strings.ToLower(getEnv("PAYMENT_PROVIDER", "http")),
		PaymentBaseURL:       getEnv("PAYMENT_BASE_URL", "https://api.paystack.co"),
		PaymentSecretKey:     os.Getenv("PAYMENT_SECRET_KEY"),
		PaymentWebhookSecret: os.Getenv("PAYMENT_WEBHOOK_SECRET"),
		PaymentCallbackURL:   getEnv("PAYMENT_CALLBACK_URL", "http://localhost:5173/payment/callback"),
		PaymentCurrency:      strings.ToLower(getEnv("PAYMENT_CURRENCY", "ngn")),
		CloudinaryURL:        os.Getenv("CLOUDINARY_URL"),
	}

	if len(cfg.CORSOrigins) == 0 {
		cfg.CORSOrigins = []string{"*"}
	}

	var err error
	if cfg.PaymentTimeout, err = getDuration("PAYMENT_TIMEOUT", 15*time.Second); err != nil {
		return nil, err
	}
	if cfg.ReconcileInterval, err = getDuration("RECONCILE_INTERVAL", 10*time.Minute); err != nil {
		return nil, err
	}
	if cfg.ReconcileAfter, err = getDuration("RECONCILE_AFTER", 30*time.Minute); err != nil {
		return nil, err
	}
	if cfg.ReconcileExpire, err = getDuration("RECONCILE_EXPIRE", 24*time.Hour); err != nil {
		return nil, err
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET must be set")
	}
	if cfg.PaymentSecretKey == "" {
		return nil, fmt.Errorf("PAYMENT_SECRET_KEY must be set")
	}
	if cfg.PaymentWebhookSecret == "" {
		// The HTTP gateway signs webhooks with the secret key itself.
		if cfg.PaymentProvider == "stripe" {
			return nil, fmt.Errorf("PAYMENT_WEBHOOK_SECRET must be set for stripe")
		}
		cfg.PaymentWebhookSecret = cfg.PaymentSecretKey
	}
	if cfg.PaymentTimeout <= 0 {
		return nil, fmt.Errorf("PAYMENT_TIMEOUT must be positive")
	}

	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// databaseURL prefers DATABASE_URL and falls back to discrete DB_* variables.
func databaseURL() string {
	if url := os.Getenv("DATABASE_URL"); url != "" {
		return url
	}
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		getEnv("DB_HOST", "localhost"),
		getEnv("DB_USER", "postgres"),
		os.Getenv("DB_PASSWORD"),
		getEnv("DB_NAME", "storefront"),
		getEnv("DB_PORT", "5432"),
		getEnv("DB_SSLMODE", "disable"),
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	if d < 0 {
		log.Printf("⚠️ %s is negative, treating as 0", key)
		d = 0
	}
	return d, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
