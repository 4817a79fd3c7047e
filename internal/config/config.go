package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Port        string
	Environment string // "production" switches logging to JSON

	// MongoDB conversation store
	MongoURL      string
	MongoDatabase string

	// Vector index
	VectorDBPath string

	// Azure OpenAI (falls back to plain OpenAI when Endpoint is empty)
	OpenAIAPIKey        string
	OpenAIEndpoint      string
	ChatDeployment      string
	EmbeddingDeployment string
	StreamResponses     bool

	// Onboarding portal backend (task progress + blob listings)
	OnboardingBackendURL string
	StorageAccountName   string
	BlobCacheTTL         time.Duration

	// File matching
	FileMatchThreshold float64

	// Conversation context
	HistoryWindow int

	AllowedOrigins string
}

// Load loads configuration from environment variables with defaults
func Load() *Config {
	return &Config{
		Port:        getEnv("PORT", "8000"),
		Environment: getEnv("ENVIRONMENT", "development"),

		MongoURL:      getEnv("MONGODB_URL", "mongodb://localhost:27017"),
		MongoDatabase: getEnv("MONGODB_DATABASE", "noxy"),

		VectorDBPath: getEnv("VECTOR_DB_PATH", "./noxy-vectors.db"),

		OpenAIAPIKey:        getEnv("AZURE_OPENAI_API_KEY", ""),
		OpenAIEndpoint:      getEnv("AZURE_OPENAI_ENDPOINT", ""),
		ChatDeployment:      getEnv("AZURE_OPENAI_DEPLOYMENT_NAME", "gpt-4o-mini"),
		EmbeddingDeployment: getEnv("AZURE_EMBEDDING_DEPLOYMENT_NAME", "text-embedding-3-small"),
		StreamResponses:     getBoolEnv("STREAM_RESPONSES", false),

		OnboardingBackendURL: getEnv("ONBOARDING_BACKEND_URL", "http://localhost:5164/api/onboarding"),
		StorageAccountName:   getEnv("STORAGE_ACCOUNT_NAME", ""),
		BlobCacheTTL:         getDurationEnv("BLOB_CACHE_TTL", 5*time.Minute),

		FileMatchThreshold: getFloatEnv("FILE_MATCH_THRESHOLD", 0.55),

		HistoryWindow: getIntEnv("HISTORY_WINDOW", 6),

		AllowedOrigins: getEnv("ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173,http://localhost:5164"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
