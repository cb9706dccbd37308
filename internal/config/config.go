package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	MongoURI    string
	DBName      string
	Port        string
	GinMode     string
	CORSOrigins []string

	// Upload limits
	MaxFileSize  int64
	AllowedTypes []string

	// Ingestion pipeline
	MaxChunkSize     int // characters per chunk
	MinTextLength    int // minimum extractable characters for a usable PDF
	EmbedConcurrency int // parallel embedding calls per ingestion
	OCRFallback      bool

	// Retrieval
	MatchThreshold float64
	MatchCount     int
	HistoryTurns   int

	// Gemini
	GeminiAPIKey    string
	EmbeddingModel  string
	ChatModel       string
	VectorDim       int
	GeminiTier      string
	ProviderTimeout int // seconds

	// Redis (rate limiting, per-document locks)
	RedisURL      string
	RedisPassword string
	RedisDB       int

	RateLimitReqs   int
	RateLimitWindow int

	// Tracing
	TracingEnabled bool
	OTLPEndpoint   string
}

func LoadConfig() (*Config, error) {
	// Load .env file if exists
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("error loading .env file: %v", err)
		}
	}

	cfg := &Config{
		MongoURI:    getEnv("MONGO_URI", "mongodb://localhost:27017/docchat"),
		DBName:      getEnv("DB_NAME", "docchat"),
		Port:        getEnv("PORT", "8080"),
		GinMode:     getEnv("GIN_MODE", "debug"),
		CORSOrigins: strings.Split(getEnv("CORS_ORIGINS", "http://localhost:3000,http://localhost:5173"), ","),

		MaxFileSize:  getEnvInt64("MAX_FILE_SIZE", 52428800), // 50MB
		AllowedTypes: strings.Split(getEnv("ALLOWED_FILE_TYPES", "application/pdf"), ","),

		MaxChunkSize:     getEnvInt("MAX_CHUNK_SIZE", 1000),
		MinTextLength:    getEnvInt("MIN_TEXT_LENGTH", 50),
		EmbedConcurrency: getEnvInt("EMBED_CONCURRENCY", 4),
		OCRFallback:      getEnvBool("OCR_FALLBACK_ENABLED", false),

		MatchThreshold: getEnvFloat("MATCH_THRESHOLD", 0.7),
		MatchCount:     getEnvInt("MATCH_COUNT", 5),
		HistoryTurns:   getEnvInt("HISTORY_TURNS", 6),

		GeminiAPIKey:    getEnv("GEMINI_API_KEY", ""),
		EmbeddingModel:  getEnv("EMBEDDING_MODEL", "text-embedding-004"),
		ChatModel:       getEnv("CHAT_MODEL", "gemini-2.0-flash"),
		VectorDim:       getEnvInt("VECTOR_DIM", 768),
		GeminiTier:      getEnv("GEMINI_TIER", "free"),
		ProviderTimeout: getEnvInt("PROVIDER_TIMEOUT", 60),

		RedisURL:      getEnv("REDIS_URL", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		RateLimitReqs:   getEnvInt("RATE_LIMIT_REQUESTS", 100),
		RateLimitWindow: getEnvInt("RATE_LIMIT_WINDOW", 60),

		TracingEnabled: getEnvBool("TRACING_ENABLED", false),
		OTLPEndpoint:   getEnv("OTLP_ENDPOINT", "localhost:4317"),
	}

	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required")
	}
	if cfg.MaxChunkSize <= 0 {
		return nil, fmt.Errorf("MAX_CHUNK_SIZE must be positive")
	}
	if cfg.VectorDim <= 0 {
		return nil, fmt.Errorf("VECTOR_DIM must be positive")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
