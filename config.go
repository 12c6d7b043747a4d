package companion

import (
	"bufio"
	"os"
	"strconv"
	"strings"
	"time"
)

// ──────────────────────────────────────────────
// Engine configuration — env-driven with .env support
// ──────────────────────────────────────────────

// EngineConfig holds everything needed to assemble a CompanionEngine.
// Use NewEngineConfigFromEnv() to load from environment variables.
type EngineConfig struct {
	// CompanionName is the display name for new profiles.
	CompanionName string
	// SessionID scopes memory storage. Empty means a generated id.
	SessionID string
	// Timezone for interaction-state time-of-day classification.
	Timezone string

	// RedisAddr enables the Redis long-term store when non-empty.
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	// RedisKeyPrefix namespaces all keys (default "companion").
	RedisKeyPrefix string

	// QdrantURL enables the vector long-term store when non-empty.
	QdrantURL        string
	QdrantCollection string

	// ExercisePollInterval is how often exercise sessions check their time
	// limit (default 1s).
	ExercisePollInterval time.Duration

	// Debug enables verbose logging.
	Debug bool
}

// NewEngineConfigFromEnv loads configuration from COMPANION_* environment
// variables, reading a .env file first if one exists.
func NewEngineConfigFromEnv() *EngineConfig {
	loadDotEnv()

	return &EngineConfig{
		CompanionName:        getEnv("COMPANION_NAME", "Kitsune"),
		SessionID:            getEnv("COMPANION_SESSION_ID", ""),
		Timezone:             getEnv("COMPANION_TIMEZONE", "UTC"),
		RedisAddr:            getEnv("COMPANION_REDIS_ADDR", ""),
		RedisPassword:        getEnv("COMPANION_REDIS_PASSWORD", ""),
		RedisDB:              getEnvInt("COMPANION_REDIS_DB", 0),
		RedisKeyPrefix:       getEnv("COMPANION_REDIS_PREFIX", "companion"),
		QdrantURL:            getEnv("COMPANION_QDRANT_URL", ""),
		QdrantCollection:     getEnv("COMPANION_QDRANT_COLLECTION", "companion_memories"),
		ExercisePollInterval: getEnvDuration("COMPANION_EXERCISE_POLL", time.Second),
		Debug:                getEnvBool("COMPANION_DEBUG", false),
	}
}

// loadDotEnv reads KEY=VALUE lines from ./.env into the environment.
// Existing variables are never overridden. Missing file is not an error.
func loadDotEnv() {
	f, err := os.Open(".env")
	if err != nil {
		return
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), `"'`)
		if _, exists := os.LookupEnv(key); !exists {
			os.Setenv(key, value)
		}
	}
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

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
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
