package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP Server
	Port string

	// MongoDB. An empty URI forces fallback mode for the process lifetime.
	MongoURI            string
	MongoDatabase       string
	MongoConnectTimeout time.Duration

	// Fallback store
	SeedFallback bool

	// Logging
	LogLevel string
}

func Load() *Config {
	return &Config{
		Port: getEnv("PORT", "8080"),

		MongoURI:            getEnv("MONGO_URI", ""),
		MongoDatabase:       getEnv("MONGO_DB", "finance-tracker"),
		MongoConnectTimeout: getEnvDuration("MONGO_CONNECT_TIMEOUT", 10*time.Second),

		SeedFallback: getEnvBool("SEED_FALLBACK", true),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate port
	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	// Validate MongoDB settings only when a URI is configured
	if c.MongoURI != "" {
		if parsedURL, err := url.Parse(c.MongoURI); err != nil {
			errors = append(errors, fmt.Sprintf("invalid MongoDB URI '%s': %v", c.MongoURI, err))
		} else if parsedURL.Scheme != "mongodb" && parsedURL.Scheme != "mongodb+srv" {
			errors = append(errors, fmt.Sprintf("invalid MongoDB URI scheme '%s': must be 'mongodb' or 'mongodb+srv'", parsedURL.Scheme))
		}

		if c.MongoDatabase == "" {
			errors = append(errors, "MongoDB database name cannot be empty when a URI is configured")
		}

		if c.MongoConnectTimeout < time.Second {
			errors = append(errors, fmt.Sprintf("invalid MongoDB connect timeout %v: must be at least 1 second", c.MongoConnectTimeout))
		}
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
