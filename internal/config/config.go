// Package config loads server settings from SVODKA_-prefixed environment
// variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP server
	Addr string

	// Database
	PGDSN         string
	MigrationsDir string

	// Auth
	JWTSecret string
	TokenTTL  time.Duration

	// Bootstrap admin account, created on startup if the username is absent.
	AdminUsername string
	AdminPassword string

	// Per-client request rate limit
	RateRPS   float64
	RateBurst int
}

func Load() *Config {
	return &Config{
		Addr:          getEnv("SVODKA_ADDR", ":8080"),
		PGDSN:         getEnv("SVODKA_PG_DSN", ""),
		MigrationsDir: getEnv("SVODKA_MIGRATIONS_DIR", "migrations"),
		JWTSecret:     getEnv("SVODKA_JWT_SECRET", ""),
		TokenTTL:      getEnvDuration("SVODKA_TOKEN_TTL", 12*time.Hour),
		AdminUsername: getEnv("SVODKA_ADMIN_USERNAME", "admin"),
		AdminPassword: getEnv("SVODKA_ADMIN_PASSWORD", ""),
		RateRPS:       getEnvFloat("SVODKA_RATE_RPS", 20),
		RateBurst:     getEnvInt("SVODKA_RATE_BURST", 40),
	}
}

// Validate reports every problem at once so an operator can fix a deployment
// in one pass.
func (c *Config) Validate() error {
	var problems []string

	if c.Addr == "" {
		problems = append(problems, "listen address cannot be empty")
	}
	if c.PGDSN == "" {
		problems = append(problems, "SVODKA_PG_DSN is required")
	}
	if c.JWTSecret == "" {
		problems = append(problems, "SVODKA_JWT_SECRET is required")
	}
	if c.TokenTTL <= 0 {
		problems = append(problems, fmt.Sprintf("invalid token ttl %v: must be positive", c.TokenTTL))
	}
	if c.AdminPassword == "" {
		problems = append(problems, "SVODKA_ADMIN_PASSWORD is required")
	}
	if c.RateRPS <= 0 {
		problems = append(problems, fmt.Sprintf("invalid rate limit %v: must be positive", c.RateRPS))
	}
	if c.RateBurst <= 0 {
		problems = append(problems, fmt.Sprintf("invalid rate burst %d: must be positive", c.RateBurst))
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(problems, "; "))
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
