// Package config reads server configuration from the environment.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds application configuration.
type Config struct {
	ServerPort string

	// Transcript archive
	ArchiveEnabled bool
	ArchiveDriver  string // "sqlite" or "postgres"
	DatabasePath   string // sqlite file
	DatabaseURL    string // postgres DSN

	// Agent provider: "openai", "anthropic" or "gemini". Falls back to
	// the first available provider when the named one has no API key.
	AgentProvider string

	// LLM spend ceilings enforced by the budget gate
	DailyBudgetUSD   float64
	MonthlyBudgetUSD float64

	// Built-in narrator
	NarratorEnabled  bool
	NarratorAudioDir string
	NarratorLang     string
	NarratorPoll     time.Duration

	// Channel buffers - larger means more memory, less blocking
	BroadcastChannelBuffer int
	ClientSendBuffer       int
}

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	return &Config{
		ServerPort: getEnv("PORT", "8080"),

		ArchiveEnabled: getEnvBool("ARCHIVE_ENABLED", true),
		ArchiveDriver:  getEnv("ARCHIVE_DRIVER", "sqlite"),
		DatabasePath:   getEnv("DB_PATH", "./clueless.db"),
		DatabaseURL:    getEnv("DATABASE_URL", ""),

		AgentProvider: getEnv("AGENT_PROVIDER", "openai"),

		DailyBudgetUSD:   getEnvFloat("LLM_DAILY_BUDGET_USD", 10.0),
		MonthlyBudgetUSD: getEnvFloat("LLM_MONTHLY_BUDGET_USD", 100.0),

		NarratorEnabled:  getEnvBool("NARRATOR_ENABLED", false),
		NarratorAudioDir: getEnv("NARRATOR_AUDIO_DIR", "./narration"),
		NarratorLang:     getEnv("NARRATOR_LANG", "en"),
		NarratorPoll:     getEnvDuration("NARRATOR_POLL", 250*time.Millisecond),

		BroadcastChannelBuffer: getEnvInt("BROADCAST_BUFFER", 256),
		ClientSendBuffer:       getEnvInt("CLIENT_SEND_BUFFER", 64),
	}
}

// getEnv reads an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
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

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
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
