package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"pushnotify/internal/model"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port        string `envconfig:"PORT" default:"8080"`
	Environment string `envconfig:"ENV" default:"development"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	// Supabase Postgres
	DBConnectionString string `envconfig:"DB_CONNECTION_STRING" required:"true"`

	// Firebase service account. Exactly one of these must be set.
	ServiceAccountJSON   string `envconfig:"SERVICE_ACCOUNT_JSON"`
	ServiceAccountSecret string `envconfig:"SERVICE_ACCOUNT_SECRET"`

	// Push gateway
	GoogleTokenURL    string `envconfig:"GOOGLE_TOKEN_URL" default:"https://oauth2.googleapis.com/token"`
	FCMBaseURL        string `envconfig:"FCM_BASE_URL" default:"https://fcm.googleapis.com"`
	FCMScope          string `envconfig:"FCM_SCOPE" default:"https://www.googleapis.com/auth/firebase.messaging"`
	OfferContactTitle string `envconfig:"OFFER_CONTACT_TITLE" default:"Te han hablado"`
	RequestTimeoutSec int    `envconfig:"REQUEST_TIMEOUT_SEC" default:"30"`

	// Inbound webhook auth, disabled when the secret is empty
	WebhookJWTSecret    string `envconfig:"WEBHOOK_JWT_SECRET"`
	WebhookRequiredRole string `envconfig:"WEBHOOK_REQUIRED_ROLE" default:"service_role"`

	// GCP
	GCPProjectID       string `envconfig:"GCP_PROJECT_ID"`
	PubSubOutcomeTopic string `envconfig:"PUBSUB_OUTCOME_TOPIC"`
	PubSubEmulatorHost string `envconfig:"PUBSUB_EMULATOR_HOST"`

	CORSAllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.DBConnectionString) == "" {
		return errors.New("DB_CONNECTION_STRING is required")
	}
	hasJSON := strings.TrimSpace(c.ServiceAccountJSON) != ""
	hasSecret := strings.TrimSpace(c.ServiceAccountSecret) != ""
	switch {
	case hasJSON && hasSecret:
		return errors.New("SERVICE_ACCOUNT_JSON and SERVICE_ACCOUNT_SECRET are mutually exclusive")
	case !hasJSON && !hasSecret:
		return errors.New("one of SERVICE_ACCOUNT_JSON or SERVICE_ACCOUNT_SECRET is required")
	}
	if c.RequestTimeoutSec <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT_SEC must be positive, got %d", c.RequestTimeoutSec)
	}
	return nil
}

// GetGCPProjectID returns the project used for Pub/Sub and Secret Manager.
// Falls back to the service account's project when GCP_PROJECT_ID is unset.
func (c *Config) GetGCPProjectID(cred *model.ServiceAccountCredential) string {
	if c.GCPProjectID != "" {
		return c.GCPProjectID
	}
	if cred != nil {
		return cred.ProjectID
	}
	return ""
}

var credentialValidate = validator.New(validator.WithRequiredStructEnabled())

// ParseServiceAccount decodes a Google service account JSON key file.
func ParseServiceAccount(raw []byte) (*model.ServiceAccountCredential, error) {
	var cred model.ServiceAccountCredential
	if err := json.Unmarshal(raw, &cred); err != nil {
		return nil, fmt.Errorf("decoding service account JSON: %w", err)
	}
	if err := credentialValidate.Struct(&cred); err != nil {
		return nil, fmt.Errorf("invalid service account: %w", err)
	}
	return &cred, nil
}
