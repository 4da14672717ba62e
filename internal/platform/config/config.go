package config

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL   string
	Port          string
	IsProduction  bool
	EnableDBCheck bool

	// RateLimit uses the limiter formatted syntax, e.g. "100-M" for 100
	// requests per minute per client.
	RateLimit string

	// GatewayTimeout bounds webhook-driven captures. Zero disables the bound.
	GatewayTimeout time.Duration

	// AuditBufferSize is the audit publisher's channel capacity.
	AuditBufferSize int

	// CORSAllowedOrigins lists the origins allowed to call the API.
	CORSAllowedOrigins []string
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("ENABLE_DB_CHECK", false)
	viper.SetDefault("RATE_LIMIT", "300-M")
	viper.SetDefault("GATEWAY_TIMEOUT", "10s")
	viper.SetDefault("AUDIT_BUFFER_SIZE", 256)
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "*")

	viper.AutomaticEnv()

	cfg := &Config{}

	cfg.DatabaseURL = viper.GetString("PGSQL_URL")
	if cfg.DatabaseURL == "" {
		log.Println("Warning: PGSQL_URL environment variable not set.")
	}

	cfg.Port = viper.GetString("PORT")
	if cfg.Port == "" {
		cfg.Port = "8080"
		log.Printf("Warning: PORT environment variable not set. Defaulting to %s\n", cfg.Port)
	}

	gatewayTimeoutStr := viper.GetString("GATEWAY_TIMEOUT")
	gatewayTimeout, err := time.ParseDuration(gatewayTimeoutStr)
	if err != nil {
		gatewayTimeout = 10 * time.Second
		if gatewayTimeoutStr != "" {
			log.Printf("Warning: Invalid value for GATEWAY_TIMEOUT ('%s'). Defaulting to %s.\n", gatewayTimeoutStr, gatewayTimeout.String())
		}
	}

	cfg.IsProduction = viper.GetBool("IS_PRODUCTION")
	cfg.EnableDBCheck = viper.GetBool("ENABLE_DB_CHECK")
	cfg.RateLimit = viper.GetString("RATE_LIMIT")
	cfg.GatewayTimeout = gatewayTimeout
	cfg.AuditBufferSize = viper.GetInt("AUDIT_BUFFER_SIZE")
	cfg.CORSAllowedOrigins = viper.GetStringSlice("CORS_ALLOWED_ORIGINS")

	return cfg, nil
}
