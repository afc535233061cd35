// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// JWTConfig provides JWT validation settings for middleware.
type JWTConfig interface {
	GetJWTAccessSecret() string
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
}

// EmailConfig provides settings for SMTP email sending.
type EmailConfig interface {
	GetEmailEnabled() bool
	GetSMTPHost() string
	GetSMTPPort() int
	GetSMTPUsername() string
	GetSMTPPassword() string
	GetEmailFromName() string
	GetEmailFromAddress() string
}

// CheckoutConfig provides settings for the hosted checkout provider.
type CheckoutConfig interface {
	GetCheckoutSecretKey() string
	GetCheckoutAPIBaseURL() string
	GetCheckoutSuccessURL() string
	GetCheckoutCancelURL() string
	GetCheckoutCurrency() string
	IsCheckoutEnabled() bool
}

// SchedulerConfig provides settings for the background job queue.
type SchedulerConfig interface {
	GetRedisAddr() string
}

// ScoringConfig provides settings for the report scoring engine.
type ScoringConfig interface {
	GetScoringRulesPath() string
}

// NotificationConfig provides settings for outbound notification links.
type NotificationConfig interface {
	GetAppBaseURL() string
	GetStudioNotifyAddress() string
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env                 string
	HTTPAddr            string
	DatabaseURL         string
	JWTAccessSecret     string
	CORSAllowAll        bool
	CORSOrigins         []string
	CORSAllowCreds      bool
	AppBaseURL          string
	EmailEnabled        bool
	SMTPHost            string
	SMTPPort            int
	SMTPUsername        string
	SMTPPassword        string
	EmailFromName       string
	EmailFromAddress    string
	StudioNotifyAddress string
	CheckoutSecretKey   string
	CheckoutAPIBaseURL  string
	CheckoutSuccessURL  string
	CheckoutCancelURL   string
	CheckoutCurrency    string
	RedisAddr           string
	ScoringRulesPath    string
}

// =============================================================================
// Interface Implementations
// =============================================================================

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

// JWTConfig implementation
func (c *Config) GetJWTAccessSecret() string { return c.JWTAccessSecret }

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool  { return c.CORSAllowCreds }

// EmailConfig implementation
func (c *Config) GetEmailEnabled() bool       { return c.EmailEnabled }
func (c *Config) GetSMTPHost() string         { return c.SMTPHost }
func (c *Config) GetSMTPPort() int            { return c.SMTPPort }
func (c *Config) GetSMTPUsername() string     { return c.SMTPUsername }
func (c *Config) GetSMTPPassword() string     { return c.SMTPPassword }
func (c *Config) GetEmailFromName() string    { return c.EmailFromName }
func (c *Config) GetEmailFromAddress() string { return c.EmailFromAddress }

// CheckoutConfig implementation
func (c *Config) GetCheckoutSecretKey() string  { return c.CheckoutSecretKey }
func (c *Config) GetCheckoutAPIBaseURL() string { return c.CheckoutAPIBaseURL }
func (c *Config) GetCheckoutSuccessURL() string { return c.CheckoutSuccessURL }
func (c *Config) GetCheckoutCancelURL() string  { return c.CheckoutCancelURL }
func (c *Config) GetCheckoutCurrency() string   { return c.CheckoutCurrency }
func (c *Config) IsCheckoutEnabled() bool       { return c.CheckoutSecretKey != "" }

// SchedulerConfig implementation
func (c *Config) GetRedisAddr() string { return c.RedisAddr }

// ScoringConfig implementation
func (c *Config) GetScoringRulesPath() string { return c.ScoringRulesPath }

// NotificationConfig implementation
func (c *Config) GetAppBaseURL() string          { return c.AppBaseURL }
func (c *Config) GetStudioNotifyAddress() string { return c.StudioNotifyAddress }

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:4200"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	smtpHost := getEnv("SMTP_HOST", "")
	emailEnabled := strings.EqualFold(getEnv("EMAIL_ENABLED", "true"), "true")

	cfg := &Config{
		Env:                 getEnv("APP_ENV", "development"),
		HTTPAddr:            getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:         getEnv("DATABASE_URL", ""),
		JWTAccessSecret:     getEnv("JWT_ACCESS_SECRET", ""),
		CORSAllowAll:        corsAllowAll,
		CORSOrigins:         corsOrigins,
		CORSAllowCreds:      strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "true"), "true"),
		AppBaseURL:          getEnv("APP_BASE_URL", "http://localhost:4200"),
		EmailEnabled:        emailEnabled && smtpHost != "",
		SMTPHost:            smtpHost,
		SMTPPort:            mustInt(getEnv("SMTP_PORT", "587")),
		SMTPUsername:        getEnv("SMTP_USERNAME", ""),
		SMTPPassword:        getEnv("SMTP_PASSWORD", ""),
		EmailFromName:       getEnv("EMAIL_FROM_NAME", "Studio"),
		EmailFromAddress:    getEnv("EMAIL_FROM_ADDRESS", ""),
		StudioNotifyAddress: getEnv("STUDIO_NOTIFY_ADDRESS", ""),
		CheckoutSecretKey:   getEnv("CHECKOUT_SECRET_KEY", ""),
		CheckoutAPIBaseURL:  getEnv("CHECKOUT_API_BASE_URL", "https://api.stripe.com"),
		CheckoutSuccessURL:  getEnv("CHECKOUT_SUCCESS_URL", ""),
		CheckoutCancelURL:   getEnv("CHECKOUT_CANCEL_URL", ""),
		CheckoutCurrency:    strings.ToLower(getEnv("CHECKOUT_CURRENCY", "usd")),
		RedisAddr:           getEnv("REDIS_ADDR", "127.0.0.1:6379"),
		ScoringRulesPath:    getEnv("SCORING_RULES_PATH", ""),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.JWTAccessSecret == "" {
		return nil, fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if cfg.EmailEnabled && cfg.EmailFromAddress == "" {
		return nil, fmt.Errorf("EMAIL_FROM_ADDRESS is required when email is enabled")
	}
	if cfg.IsCheckoutEnabled() && (cfg.CheckoutSuccessURL == "" || cfg.CheckoutCancelURL == "") {
		return nil, fmt.Errorf("CHECKOUT_SUCCESS_URL and CHECKOUT_CANCEL_URL are required when checkout is enabled")
	}
	if cfg.CORSAllowAll && cfg.CORSAllowCreds {
		return nil, fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustInt(value string) int {
	result, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return result
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}
