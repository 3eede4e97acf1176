package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	AuthModeDev = "dev"
	AuthModeJWT = "jwt"
	AuthModeIDP = "idp"
)

// Server es la config del API.
type Server struct {
	Port    string `mapstructure:"PORT"`
	Env     string `mapstructure:"ENV"`
	DBDSN   string `mapstructure:"DB_DSN"`
	AppName string `mapstructure:"APP_NAME"`

	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT"`

	AuthMode   string `mapstructure:"AUTH_MODE"`
	JWTSecret  string `mapstructure:"JWT_SECRET"`
	JWTIssuer  string `mapstructure:"JWT_ISSUER"`
	IDPBaseURL string `mapstructure:"IDP_BASE_URL"`
	IDPAPIKey  string `mapstructure:"IDP_API_KEY"`

	// TrustClientStatus: si es true, el estado calculado offline por el cliente se acepta tal cual.
	TrustClientStatus bool `mapstructure:"TRUST_CLIENT_STATUS"`
}

// Client es la config de medsync (cola offline).
type Client struct {
	ServerURL   string `mapstructure:"SERVER_URL"`
	QueuePath   string `mapstructure:"QUEUE_PATH"`
	HouseholdID string `mapstructure:"HOUSEHOLD_ID"`
	UserID      string `mapstructure:"USER_ID"`
	AuthToken   string `mapstructure:"AUTH_TOKEN"`

	MaxRetries    int           `mapstructure:"QUEUE_MAX_RETRIES"`
	RetryDelay    time.Duration `mapstructure:"QUEUE_RETRY_DELAY"`
	MaxItems      int           `mapstructure:"QUEUE_MAX_ITEMS"`
	LeaseTTL      time.Duration `mapstructure:"QUEUE_LEASE_TTL"`
	ProbeInterval time.Duration `mapstructure:"PROBE_INTERVAL"`
	HTTPTimeout   time.Duration `mapstructure:"HTTP_TIMEOUT"`

	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT"`
}

var serverKeys = []string{
	"PORT", "ENV", "DB_DSN", "APP_NAME", "LOG_LEVEL", "LOG_FORMAT",
	"AUTH_MODE", "JWT_SECRET", "JWT_ISSUER", "IDP_BASE_URL", "IDP_API_KEY",
	"TRUST_CLIENT_STATUS",
}

var clientKeys = []string{
	"SERVER_URL", "QUEUE_PATH", "HOUSEHOLD_ID", "USER_ID", "AUTH_TOKEN",
	"QUEUE_MAX_RETRIES", "QUEUE_RETRY_DELAY", "QUEUE_MAX_ITEMS", "QUEUE_LEASE_TTL",
	"PROBE_INTERVAL", "HTTP_TIMEOUT", "LOG_LEVEL", "LOG_FORMAT",
}

func newViper(keys []string) *viper.Viper {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	for _, k := range keys {
		_ = v.BindEnv(k)
	}
	return v
}

// LoadServer lee env (y .env si existe).
func LoadServer() (*Server, error) {
	v := newViper(serverKeys)

	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("APP_NAME", "vet-med-tracker")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")
	v.SetDefault("AUTH_MODE", "")
	v.SetDefault("TRUST_CLIENT_STATUS", false)

	// .env es opcional
	_ = v.ReadInConfig()

	cfg := &Server{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, nil
}

// ResolvedAuthMode infiere el modo si AUTH_MODE no viene:
// JWT_SECRET => jwt, IDP_BASE_URL => idp, si no => dev.
func (c *Server) ResolvedAuthMode() string {
	if m := strings.ToLower(strings.TrimSpace(c.AuthMode)); m != "" {
		return m
	}
	if c.JWTSecret != "" {
		return AuthModeJWT
	}
	if c.IDPBaseURL != "" {
		return AuthModeIDP
	}
	return AuthModeDev
}

func (c *Server) IsProduction() bool {
	return c.Env == "production"
}

func (c *Server) Validate() error {
	switch c.ResolvedAuthMode() {
	case AuthModeDev:
		if c.IsProduction() {
			return errors.New("AUTH_MODE=dev is not allowed in production")
		}
	case AuthModeJWT:
		if c.JWTSecret == "" {
			return errors.New("JWT_SECRET is required when AUTH_MODE is jwt")
		}
	case AuthModeIDP:
		if c.IDPBaseURL == "" || c.IDPAPIKey == "" {
			return errors.New("IDP_BASE_URL and IDP_API_KEY are required when AUTH_MODE is idp")
		}
	default:
		return fmt.Errorf("AUTH_MODE must be dev, jwt or idp, got %q", c.AuthMode)
	}
	return nil
}

// LoadClient lee la config de medsync.
func LoadClient() (*Client, error) {
	v := newViper(clientKeys)

	v.SetDefault("SERVER_URL", "http://localhost:8080")
	v.SetDefault("QUEUE_PATH", "medsync.db")
	v.SetDefault("QUEUE_MAX_RETRIES", 3)
	v.SetDefault("QUEUE_RETRY_DELAY", "2s")
	v.SetDefault("QUEUE_MAX_ITEMS", 500)
	v.SetDefault("QUEUE_LEASE_TTL", "30s")
	v.SetDefault("PROBE_INTERVAL", "15s")
	v.SetDefault("HTTP_TIMEOUT", "10s")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")

	_ = v.ReadInConfig()

	cfg := &Client{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, nil
}

func (c *Client) Validate() error {
	if strings.TrimSpace(c.ServerURL) == "" {
		return errors.New("SERVER_URL is required")
	}
	if strings.TrimSpace(c.HouseholdID) == "" {
		return errors.New("HOUSEHOLD_ID is required")
	}
	if c.AuthToken == "" && c.UserID == "" {
		return errors.New("AUTH_TOKEN or USER_ID is required")
	}
	if c.MaxRetries <= 0 {
		return fmt.Errorf("QUEUE_MAX_RETRIES must be positive, got %d", c.MaxRetries)
	}
	if c.RetryDelay < 0 {
		return errors.New("QUEUE_RETRY_DELAY must not be negative")
	}
	if c.LeaseTTL <= 0 {
		return errors.New("QUEUE_LEASE_TTL must be positive")
	}
	return nil
}
