package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config holds environment-driven settings for the REST API.
type Config struct {
	DatabaseURL       string `validate:"required"`
	Port              int    `validate:"gt=0"`
	BearerToken       string
	ReportFetchLimit  int `validate:"gt=0"`
	DefaultCrowdLevel int `validate:"gte=1,lte=5"`
	LineCacheTTLSecs  int `validate:"gt=0"`
}

// Load reads configuration from environment variables (optionally .env).
func Load() (Config, error) {
	_ = godotenv.Load() // ignore missing file

	cfg := Config{
		Port:              8080,
		ReportFetchLimit:  5,
		DefaultCrowdLevel: 3,
		LineCacheTTLSecs:  300,
	}

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")

	if portStr := os.Getenv("PORT"); portStr != "" {
		if port, err := strconv.Atoi(portStr); err == nil && port > 0 {
			cfg.Port = port
		} else {
			return cfg, fmt.Errorf("invalid PORT: %s", portStr)
		}
	} else if portStr := os.Getenv("API_PORT"); portStr != "" {
		if port, err := strconv.Atoi(portStr); err == nil && port > 0 {
			cfg.Port = port
		} else {
			return cfg, fmt.Errorf("invalid API_PORT: %s", portStr)
		}
	}

	if limitStr := os.Getenv("REPORT_FETCH_LIMIT"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil && limit > 0 {
			cfg.ReportFetchLimit = limit
		} else {
			return cfg, fmt.Errorf("invalid REPORT_FETCH_LIMIT: %s", limitStr)
		}
	}

	if crowdStr := os.Getenv("DEFAULT_CROWD_LEVEL"); crowdStr != "" {
		if crowd, err := strconv.Atoi(crowdStr); err == nil && crowd >= 1 && crowd <= 5 {
			cfg.DefaultCrowdLevel = crowd
		} else {
			return cfg, fmt.Errorf("invalid DEFAULT_CROWD_LEVEL: %s", crowdStr)
		}
	}

	if ttlStr := os.Getenv("LINE_CACHE_TTL_SECS"); ttlStr != "" {
		if ttl, err := strconv.Atoi(ttlStr); err == nil && ttl > 0 {
			cfg.LineCacheTTLSecs = ttl
		} else {
			return cfg, fmt.Errorf("invalid LINE_CACHE_TTL_SECS: %s", ttlStr)
		}
	}

	cfg.BearerToken = os.Getenv("API_BEARER_TOKEN")

	v := validator.New()
	if err := v.Struct(cfg); err != nil {
		return cfg, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// ListenAddr returns the host:port string for the HTTP server.
func (c Config) ListenAddr() string {
	return fmt.Sprintf(":%d", c.Port)
}
