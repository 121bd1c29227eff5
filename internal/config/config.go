package config

import (
	"os"
	"strconv"
	"time"

	"github.com/gojiplus/statqa/internal/errors"
)

// Config represents the complete application configuration.
type Config struct {
	Analysis AnalysisConfig
	LLM      LLMConfig
	Database DatabaseConfig
	Batch    BatchConfig
}

// AnalysisConfig holds analyzer thresholds.
type AnalysisConfig struct {
	Alpha           float64
	NormalityCutoff int
	MinPairCount    int
}

// LLMConfig holds paraphrase stage settings. Paraphrasing is optional and
// only enabled when an API key is present.
type LLMConfig struct {
	Enabled         bool
	APIKey          string
	Model           string
	BaseURL         string
	Temperature     float64
	MaxTokens       int
	Timeout         time.Duration
	ParaphraseCount int
}

// DatabaseConfig holds the optional Postgres sink settings.
type DatabaseConfig struct {
	URL     string
	Enabled bool
}

// BatchConfig holds pipeline settings.
type BatchConfig struct {
	Workers int
}

// Load reads configuration from environment variables. Only malformed
// values fail; absent optional sections simply come back disabled.
func Load() (*Config, error) {
	config := &Config{
		Analysis: AnalysisConfig{
			Alpha:           getEnvFloatOrDefault("ANALYSIS_ALPHA", 0.05),
			NormalityCutoff: getEnvIntOrDefault("NORMALITY_CUTOFF", 5000),
			MinPairCount:    getEnvIntOrDefault("MIN_PAIR_COUNT", 10),
		},
		LLM: LLMConfig{
			APIKey:          os.Getenv("OPENAI_API_KEY"),
			Model:           getEnvOrDefault("LLM_MODEL", "gpt-4o-mini"),
			BaseURL:         getEnvOrDefault("LLM_BASE_URL", ""),
			Temperature:     getEnvFloatOrDefault("LLM_TEMPERATURE", 0.8),
			MaxTokens:       getEnvIntOrDefault("LLM_MAX_TOKENS", 800),
			Timeout:         getEnvDurationOrDefault("LLM_TIMEOUT", 30*time.Second),
			ParaphraseCount: getEnvIntOrDefault("PARAPHRASE_COUNT", 2),
		},
		Database: DatabaseConfig{
			URL: os.Getenv("DATABASE_URL"),
		},
		Batch: BatchConfig{
			Workers: getEnvIntOrDefault("WORKERS", 4),
		},
	}
	config.LLM.Enabled = config.LLM.APIKey != ""
	config.Database.Enabled = config.Database.URL != ""

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return config, nil
}

func validateConfig(config *Config) error {
	if config.Analysis.Alpha <= 0 || config.Analysis.Alpha >= 1 {
		return errors.ConfigInvalid("ANALYSIS_ALPHA must be in (0, 1)")
	}
	if config.Analysis.MinPairCount < 2 {
		return errors.ConfigInvalid("MIN_PAIR_COUNT must be at least 2")
	}
	if config.Batch.Workers < 1 {
		return errors.ConfigInvalid("WORKERS must be at least 1")
	}
	if config.LLM.Enabled && config.LLM.ParaphraseCount < 1 {
		return errors.ConfigInvalid("PARAPHRASE_COUNT must be at least 1")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
