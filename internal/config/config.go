package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port               string
	DatabaseURL        string
	SlackToken         string
	WorkspaceID        string
	ReactionBatchSize  int
	EmojiRefreshWindow time.Duration
	LogLevel           string
	LogFormat          string
	Environment        string
}

func Load() *Config {
	return &Config{
		Port:               getEnvOrDefault("PORT", "8080"),
		DatabaseURL:        getEnvOrDefault("DATABASE_URL", "postgres://localhost/slackpeek?sslmode=disable"),
		SlackToken:         os.Getenv("SLACK_TOKEN"),
		WorkspaceID:        getEnvOrDefault("SLACK_WORKSPACE_ID", "default"),
		ReactionBatchSize:  getEnvIntOrDefault("REACTION_BATCH_SIZE", 50),
		EmojiRefreshWindow: getEnvDurationOrDefault("EMOJI_REFRESH_WINDOW", 24*time.Hour),
		LogLevel:           getEnvOrDefault("LOG_LEVEL", "INFO"),
		LogFormat:          getEnvOrDefault("LOG_FORMAT", "text"),
		Environment:        getEnvOrDefault("ENVIRONMENT", "development"),
	}
}

func (c *Config) Validate() error {
	var errs []string

	if c.SlackToken == "" {
		errs = append(errs, "SLACK_TOKEN is required")
	}

	if c.SlackToken != "" && !strings.HasPrefix(c.SlackToken, "xoxb-") && !strings.HasPrefix(c.SlackToken, "xoxp-") {
		errs = append(errs, "SLACK_TOKEN must start with 'xoxb-' or 'xoxp-'")
	}

	if c.DatabaseURL == "" {
		errs = append(errs, "DATABASE_URL is required")
	}

	if c.ReactionBatchSize < 1 || c.ReactionBatchSize > 500 {
		errs = append(errs, "REACTION_BATCH_SIZE must be between 1 and 500")
	}

	if c.EmojiRefreshWindow < time.Minute {
		errs = append(errs, "EMOJI_REFRESH_WINDOW must be at least 1m")
	}

	validLogLevels := []string{"DEBUG", "INFO", "WARN", "ERROR"}
	if !contains(validLogLevels, strings.ToUpper(c.LogLevel)) {
		errs = append(errs, "LOG_LEVEL must be one of: DEBUG, INFO, WARN, ERROR")
	}

	validLogFormats := []string{"text", "json"}
	if !contains(validLogFormats, strings.ToLower(c.LogFormat)) {
		errs = append(errs, "LOG_FORMAT must be one of: text, json")
	}

	if len(errs) > 0 {
		return fmt.Errorf("%s", errs[0])
	}

	return nil
}

func (c *Config) IsProduction() bool {
	return strings.ToLower(c.Environment) == "production"
}

func (c *Config) IsDevelopment() bool {
	return strings.ToLower(c.Environment) == "development"
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
