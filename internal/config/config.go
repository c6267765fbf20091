// Package config handles application configuration loading from environment
// variables. It provides a centralized Config struct used across the application.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration values loaded from the environment.
type Config struct {
	// Server settings
	Host string
	Port string
	Env  string // "development", "production", "testing"

	// PostgreSQL connection
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Valkey (Redis-compatible session and cache store)
	ValkeyHost     string
	ValkeyPort     string
	ValkeyPassword string

	// S3-compatible object storage for uploaded images
	S3Endpoint  string
	S3Region    string
	S3AccessKey string
	S3SecretKey string
	S3Bucket    string
	S3PublicURL string

	// Moderation and abuse-control policy. These are policy knobs rather
	// than engineering constants, so they ship as configuration.
	ReportHideThreshold int           // reports before a comment is auto-hidden
	AuthRateLimit       int           // login/signup attempts per window per IP
	ReportRateLimit     int           // comment/report submissions per window per IP
	RateLimitWindow     time.Duration

	// How often the scheduled-publish job runs.
	PublishInterval time.Duration

	// Pagination sizes.
	PostsPerPage    int
	CommentsPerPage int

	// Public site identity, used in feeds and the sitemap.
	SiteURL         string // canonical base URL, no trailing slash
	SiteTitle       string
	SiteDescription string
}

// Load reads configuration from environment variables, applying defaults
// for development where appropriate. Returns an error if critical values
// are missing in production mode.
func Load() (*Config, error) {
	cfg := &Config{
		Host: envOrDefault("APP_HOST", "0.0.0.0"),
		Port: envOrDefault("APP_PORT", "8080"),
		Env:  envOrDefault("APP_ENV", "development"),

		DBHost:     envOrDefault("POSTGRES_HOST", "localhost"),
		DBPort:     envOrDefault("POSTGRES_PORT", "5432"),
		DBUser:     envOrDefault("POSTGRES_USER", "seoroblog"),
		DBPassword: envOrDefault("POSTGRES_PASSWORD", "changeme"),
		DBName:     envOrDefault("POSTGRES_DB", "seoroblog"),

		ValkeyHost:     envOrDefault("VALKEY_HOST", "localhost"),
		ValkeyPort:     envOrDefault("VALKEY_PORT", "6379"),
		ValkeyPassword: os.Getenv("VALKEY_PASSWORD"),

		S3Endpoint:  os.Getenv("S3_ENDPOINT"),
		S3Region:    envOrDefault("S3_REGION", "us-east-1"),
		S3AccessKey: os.Getenv("S3_ACCESS_KEY"),
		S3SecretKey: os.Getenv("S3_SECRET_KEY"),
		S3Bucket:    envOrDefault("S3_BUCKET", "seoroblog-media"),
		S3PublicURL: os.Getenv("S3_PUBLIC_URL"),

		ReportHideThreshold: envOrDefaultInt("REPORT_HIDE_THRESHOLD", 3),
		AuthRateLimit:       envOrDefaultInt("AUTH_RATE_LIMIT", 10),
		ReportRateLimit:     envOrDefaultInt("REPORT_RATE_LIMIT", 30),
		RateLimitWindow:     envOrDefaultDuration("RATE_LIMIT_WINDOW", time.Minute),

		PublishInterval: envOrDefaultDuration("PUBLISH_INTERVAL", 5*time.Minute),

		PostsPerPage:    envOrDefaultInt("POSTS_PER_PAGE", 10),
		CommentsPerPage: envOrDefaultInt("COMMENTS_PER_PAGE", 20),

		SiteURL:         strings.TrimRight(envOrDefault("SITE_URL", "http://localhost:8080"), "/"),
		SiteTitle:       envOrDefault("SITE_TITLE", "Seoroblog"),
		SiteDescription: envOrDefault("SITE_DESCRIPTION", "A developer blog"),
	}

	if cfg.Env == "production" {
		if cfg.DBPassword == "changeme" {
			return nil, fmt.Errorf("POSTGRES_PASSWORD must be set in production")
		}
	}

	if cfg.ReportHideThreshold < 1 {
		return nil, fmt.Errorf("REPORT_HIDE_THRESHOLD must be at least 1")
	}

	return cfg, nil
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName,
	)
}

// Addr returns the server listen address (host:port).
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// IsDev returns true if the application is running in development mode.
func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// envOrDefault reads an environment variable, returning a fallback if unset or empty.
func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// envOrDefaultInt reads an integer environment variable, returning a fallback
// if unset or unparsable.
func envOrDefaultInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

// envOrDefaultDuration reads a duration environment variable ("30s", "5m"),
// returning a fallback if unset or unparsable.
func envOrDefaultDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
