package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds all configuration for the engine host
type Config struct {
	Log       LogConfig
	Redis     RedisConfig
	Telemetry TelemetryConfig
	Engine    EngineConfig
}

// LogConfig configures the host logger
type LogConfig struct {
	Level  string
	Format string // "text" or "json"
}

// RedisConfig holds Redis-specific configuration for the ability store.
// An empty URL selects the in-memory store.
type RedisConfig struct {
	URL string
}

// TelemetryConfig toggles OpenTelemetry tracing. The exporter itself reads
// the standard OTEL_* variables.
type TelemetryConfig struct {
	Enabled bool
}

// EngineConfig holds simulation settings
type EngineConfig struct {
	RulesPath  string  // optional YAML rules file
	Seed       int64   // 0 means seed from the clock
	SightRange float64 // visibility radius used by the default area
	TickSize   float64 // time units advanced per simulation frame
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Log: LogConfig{
			Level:  getEnvOrDefault("LOG_LEVEL", "info"),
			Format: getEnvOrDefault("LOG_FORMAT", "text"),
		},
		Redis: RedisConfig{
			URL: os.Getenv("REDIS_URL"),
		},
		Telemetry: TelemetryConfig{
			Enabled: getEnvAsBoolOrDefault("TELEMETRY_ENABLED", false),
		},
		Engine: EngineConfig{
			RulesPath:  os.Getenv("ENGINE_RULES_PATH"),
			Seed:       int64(getEnvAsIntOrDefault("ENGINE_SEED", 0)),
			SightRange: getEnvAsFloatOrDefault("ENGINE_SIGHT_RANGE", 12.0),
			TickSize:   getEnvAsFloatOrDefault("ENGINE_TICK_SIZE", 0.1),
		},
	}

	if cfg.Engine.SightRange <= 0 {
		return nil, fmt.Errorf("ENGINE_SIGHT_RANGE must be positive, got %v", cfg.Engine.SightRange)
	}
	if cfg.Engine.TickSize <= 0 {
		return nil, fmt.Errorf("ENGINE_TICK_SIZE must be positive, got %v", cfg.Engine.TickSize)
	}

	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvAsBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
