package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/gommon/log"
)

type DatabaseConfig struct {
	Driver string // "sqlite" or "postgres"
	DSN    string
}

type CognitoConfig struct {
	Region       string
	ClientID     string
	ClientSecret string // Optional, only for app clients created with a secret
	UserPoolID   string // Optional, enables admin lookups
}

type CalendlyConfig struct {
	APIKey          string
	APIURL          string
	Username        string
	EventTypeUUID   string
	IntroSlug       string
	CoachingSlug    string
	PageSize        int
	OrganizationURI string
	UserURI         string
}

// IsConfigured returns true when the Calendly REST API can be called.
func (c CalendlyConfig) IsConfigured() bool {
	return c.APIKey != ""
}

type AppConfig struct {
	Port               string
	CORSAllowedOrigins []string
	LogLevel           string
	HTTPTimeout        time.Duration
	AuthRateLimit      float64 // requests per second per client on /api/auth

	Database DatabaseConfig
	Cognito  CognitoConfig
	Calendly CalendlyConfig
}

// Load reads the environment (and .env, if any) once and validates it.
// Missing required keys are reported immediately instead of on first use.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Warn("could not load .env file, continuing with system env vars")
	}

	clientID, err := getEnvRequired("COGNITO_CLIENT_ID")
	if err != nil {
		return nil, err
	}

	region := getEnvWithDefault("COGNITO_REGION", os.Getenv("AWS_REGION"))
	if region == "" {
		return nil, fmt.Errorf("missing required environment variable: COGNITO_REGION or AWS_REGION")
	}

	timeout, err := getDuration("HTTP_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}

	rateLimit, err := getFloat("AUTH_RATE_LIMIT", 5)
	if err != nil {
		return nil, err
	}

	pageSize, err := getInt("CALENDLY_PAGE_SIZE", 100)
	if err != nil {
		return nil, err
	}

	cfg := &AppConfig{
		Port:               getEnvWithDefault("PORT", "5001"),
		CORSAllowedOrigins: splitList(getEnvWithDefault("CORS_ALLOWED_ORIGINS", "*")),
		LogLevel:           getEnvWithDefault("LOG_LEVEL", "info"),
		HTTPTimeout:        timeout,
		AuthRateLimit:      rateLimit,
		Database: DatabaseConfig{
			Driver: getEnvWithDefault("DB_DRIVER", "sqlite"),
			DSN:    getEnvWithDefault("DB_DSN", "./database.db"),
		},
		Cognito: CognitoConfig{
			Region:       region,
			ClientID:     clientID,
			ClientSecret: os.Getenv("COGNITO_CLIENT_SECRET"),
			UserPoolID:   os.Getenv("COGNITO_USER_POOL_ID"),
		},
		Calendly: CalendlyConfig{
			APIKey:          os.Getenv("CALENDLY_API_KEY"),
			APIURL:          strings.TrimRight(getEnvWithDefault("CALENDLY_API_URL", "https://api.calendly.com"), "/"),
			Username:        os.Getenv("CALENDLY_USERNAME"),
			EventTypeUUID:   os.Getenv("CALENDLY_EVENT_TYPE_UUID"),
			IntroSlug:       getEnvWithDefault("CALENDLY_INTRO_EVENT_SLUG", "30min"),
			CoachingSlug:    getEnvWithDefault("CALENDLY_COACHING_EVENT_SLUG", "new-meeting"),
			PageSize:        pageSize,
			OrganizationURI: os.Getenv("CALENDLY_ORGANIZATION_URI"),
			UserURI:         os.Getenv("CALENDLY_USER_URI"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *AppConfig) validate() error {
	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q (expected sqlite or postgres)", c.Database.Driver)
	}

	if c.Database.DSN == "" {
		return fmt.Errorf("missing required environment variable: DB_DSN")
	}

	if c.Calendly.PageSize < 1 || c.Calendly.PageSize > 100 {
		return fmt.Errorf("CALENDLY_PAGE_SIZE must be between 1 and 100, got %d", c.Calendly.PageSize)
	}

	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive")
	}
	return nil
}

func getEnvRequired(key string) (string, error) {
	value := os.Getenv(key)
	if value == "" {
		return "", fmt.Errorf("missing required environment variable: %s", key)
	}
	return value, nil
}

func getEnvWithDefault(key, defaultValue string) string {
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
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func getInt(key string, defaultValue int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getFloat(key string, defaultValue float64) (float64, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
