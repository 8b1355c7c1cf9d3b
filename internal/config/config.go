package config

import (
	"os"
	"strconv"
	"strings"
)

// Config centralizes runtime settings for the API and workers.
type Config struct {
	Port string

	AuthToken   string
	CORSOrigins []string

	DatabaseURL string

	RedisAddr         string
	RedisPassword     string
	RedisDB           int
	RedisKeyPrefix    string
	RedisPayloadTTLMS int

	EngineBaseURL    string
	EngineTimeoutMS  int
	EngineMaxRetries int

	StorageDir     string
	StorageBaseURL string

	MaxConcurrentJobs  int
	DispatchIntervalMS int
	JobTimeoutMS       int

	RateLimitRPS   float64
	RateLimitBurst int

	OpenAIAPIKey     string
	OpenAIBaseURL    string
	OpenAIModel      string
	OpenAITimeoutMS  int
	OpenAIMaxRetries int

	WorkerEnabled bool
}

func Load() Config {
	return Config{
		Port: getEnv("PORT", "8080"),

		AuthToken:   getEnv("API_AUTH_TOKEN", ""),
		CORSOrigins: getEnvList("CORS_ALLOWED_ORIGINS", nil),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		RedisAddr:         getEnv("REDIS_ADDR", ""),
		RedisPassword:     getEnv("REDIS_PASSWORD", ""),
		RedisDB:           getEnvInt("REDIS_DB", 0),
		RedisKeyPrefix:    getEnv("REDIS_KEY_PREFIX", "luna:payload:"),
		RedisPayloadTTLMS: getEnvInt("REDIS_PAYLOAD_TTL_MS", 3600000),

		EngineBaseURL:    getEnv("ENGINE_BASE_URL", "http://localhost:7001"),
		EngineTimeoutMS:  getEnvInt("ENGINE_TIMEOUT_MS", 60000),
		EngineMaxRetries: getEnvInt("ENGINE_MAX_RETRIES", 2),

		StorageDir:     getEnv("STORAGE_DIR", ""),
		StorageBaseURL: getEnv("STORAGE_BASE_URL", ""),

		MaxConcurrentJobs:  getEnvInt("MAX_CONCURRENT_JOBS", 3),
		DispatchIntervalMS: getEnvInt("DISPATCH_INTERVAL_MS", 100),
		JobTimeoutMS:       getEnvInt("JOB_TIMEOUT_MS", 300000),

		RateLimitRPS:   getEnvFloat("RATE_LIMIT_RPS", 20),
		RateLimitBurst: getEnvInt("RATE_LIMIT_BURST", 40),

		OpenAIAPIKey:     getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:    getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OpenAIModel:      getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAITimeoutMS:  getEnvInt("OPENAI_TIMEOUT_MS", 30000),
		OpenAIMaxRetries: getEnvInt("OPENAI_MAX_RETRIES", 2),

		WorkerEnabled: getEnvBool("WORKER_ENABLED", true),
	}
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getEnvList(key string, fallback []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parts := strings.Split(value, ",")
	list := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			list = append(list, trimmed)
		}
	}
	return list
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvFloat(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}
