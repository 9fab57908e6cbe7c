package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// ErrMissingAPIKey is returned by Load when no Azure OpenAI credential is configured.
var ErrMissingAPIKey = errors.New("AZURE_OPENAI_KEY environment variable is required")

type Config struct {
	// Azure OpenAI configuration
	AzureEndpoint   string
	AzureAPIKey     string
	AzureAPIVersion string
	AzureDeployment string
	// AzureModel names the model behind the deployment. It is only logged,
	// requests are routed by AzureDeployment.
	AzureModel string

	// HTTP configuration
	HTTPAddr           string
	CORSAllowedOrigins []string

	// NATS configuration, transport is disabled when NatsURL is empty
	NatsURL            string
	NatsRequestSubject string
	NatsTimeout        time.Duration

	// Command history, disabled when RedisURL is empty
	RedisURL    string
	HistorySize int
	HistoryTTL  time.Duration

	// Service configuration
	ServiceName string
	LogLevel    string
}

func Load() (*Config, error) {
	cfg := &Config{
		// Azure OpenAI settings
		AzureEndpoint:   getEnv("AZURE_OPENAI_ENDPOINT", "https://schor-mcg3c944-eastus2.cognitiveservices.azure.com/"),
		AzureAPIKey:     getEnv("AZURE_OPENAI_KEY", ""),
		AzureAPIVersion: getEnv("AZURE_OPENAI_API_VERSION", "2025-01-01-preview"),
		AzureDeployment: getEnv("AZURE_OPENAI_DEPLOYMENT", "o4-mini"),
		AzureModel:      getEnv("AZURE_OPENAI_MODEL", "o4-mini"),

		// HTTP settings
		HTTPAddr:           getEnv("HTTP_ADDR", ":8000"),
		CORSAllowedOrigins: getListEnv("CORS_ALLOWED_ORIGINS", []string{"*"}),

		// NATS settings
		NatsURL:            getEnv("NATS_URL", ""),
		NatsRequestSubject: getEnv("NATS_REQUEST_SUBJECT", "robot.command.parse"),
		NatsTimeout:        getDurationEnv("NATS_TIMEOUT", 30*time.Second),

		// History settings
		RedisURL:    getEnv("REDIS_URL", ""),
		HistorySize: getIntEnv("HISTORY_SIZE", 10),
		HistoryTTL:  getDurationEnv("HISTORY_TTL", 24*time.Hour),

		// Service settings
		ServiceName: getEnv("SERVICE_NAME", "roboto-command-parser"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
	}

	if cfg.AzureAPIKey == "" {
		return nil, ErrMissingAPIKey
	}

	return cfg, nil
}

// NatsEnabled reports whether the NATS request/reply transport should start.
func (c *Config) NatsEnabled() bool {
	return c.NatsURL != ""
}

// HistoryEnabled reports whether parsed commands are recorded in Redis.
func (c *Config) HistoryEnabled() bool {
	return c.RedisURL != "" && c.HistorySize > 0
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getListEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	if len(items) == 0 {
		return defaultValue
	}
	return items
}
