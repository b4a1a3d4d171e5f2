package config

import (
	"os"
	"time"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	JWT        JWTConfig
	OAuth      OAuthConfig
	Cloudinary CloudinaryConfig
	Payment    PaymentConfig
	KYC        KYCConfig
}

type ServerConfig struct {
	Port         string
	Env          string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type DatabaseConfig struct {
	DSN             string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

type JWTConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessExpiry  time.Duration
	RefreshExpiry time.Duration
	Issuer        string
}

type OAuthConfig struct {
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
}

type CloudinaryConfig struct {
	CloudName string
	APIKey    string
	APISecret string
}

// PaymentConfig for the Easypay checkout provider.
type PaymentConfig struct {
	BaseURL        string
	AccountID      string
	APIKey         string
	WebhookSecret  string
	WebhookBaseURL string // callback will be WebhookBaseURL + /api/v1/webhooks/payment
	PaymentExpiry  time.Duration
}

// KYCConfig for the Didit identity-verification provider.
type KYCConfig struct {
	BaseURL       string
	APIKey        string
	WebhookSecret string
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         envOr("PORT", "8088"),
			Env:          envOr("APP_ENV", "development"),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			DSN:             envOr("DATABASE_DSN", "idosolink:idosolink@tcp(localhost:3306)/idosolink?charset=utf8mb4&parseTime=True&loc=Local"),
			MaxIdleConns:    10,
			MaxOpenConns:    100,
			ConnMaxLifetime: time.Hour,
		},
		JWT: JWTConfig{
			AccessSecret:  envOr("JWT_ACCESS_SECRET", "change-me-in-production"),
			RefreshSecret: envOr("JWT_REFRESH_SECRET", "change-me-refresh"),
			AccessExpiry:  15 * time.Minute,
			RefreshExpiry: 168 * time.Hour,
			Issuer:        "idosolink",
		},
		OAuth: OAuthConfig{
			GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
			GoogleClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
			GoogleRedirectURL:  envOr("GOOGLE_REDIRECT_URL", "https://idosolink.pt/api/v1/auth/google/callback"),
		},
		Cloudinary: CloudinaryConfig{
			CloudName: os.Getenv("CLOUDINARY_CLOUD_NAME"),
			APIKey:    os.Getenv("CLOUDINARY_API_KEY"),
			APISecret: os.Getenv("CLOUDINARY_API_SECRET"),
		},
		Payment: PaymentConfig{
			BaseURL:        envOr("EASYPAY_BASE_URL", "https://api.easypay.pt/2.0"),
			AccountID:      os.Getenv("EASYPAY_ACCOUNT_ID"),
			APIKey:         os.Getenv("EASYPAY_API_KEY"),
			WebhookSecret:  os.Getenv("PAYMENT_WEBHOOK_SECRET"),
			WebhookBaseURL: envOr("PAYMENT_WEBHOOK_BASE_URL", "https://idosolink.pt"),
			PaymentExpiry:  30 * time.Minute,
		},
		KYC: KYCConfig{
			BaseURL:       envOr("DIDIT_BASE_URL", "https://verification.didit.me/v1"),
			APIKey:        os.Getenv("DIDIT_API_KEY"),
			WebhookSecret: os.Getenv("KYC_WEBHOOK_SECRET"),
		},
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
