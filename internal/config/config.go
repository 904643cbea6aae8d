package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	GinMode     string
	CORSOrigins []string

	// Text generation (Gemini)
	GeminiAPIKey string
	GeminiModel  string
	TextRPM      int

	// Image generation (OpenAI-compatible gateway)
	ImageAPIKey string
	ImageAPIURL string
	ImageModel  string

	// Social platform
	GraphAPIURL string

	// Generation fan-out
	GenerateVersions int

	// Redis Configuration
	RedisURL      string
	RedisPassword string
	RedisDB       int

	// Key prefix for the durable store
	StoreNamespace string

	// Scheduled post dispatch
	DispatchEnabled  bool
	DispatchInterval int // seconds

	// Rate limiting for the HTTP surface
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
		Port:        getEnv("PORT", "8080"),
		GinMode:     getEnv("GIN_MODE", "debug"),
		CORSOrigins: strings.Split(getEnv("CORS_ORIGINS", "http://localhost:3000,http://localhost:8080"), ","),

		GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
		GeminiModel:  getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		TextRPM:      getEnvInt("TEXT_RPM", 10),

		ImageAPIKey: getEnv("IMAGE_API_KEY", ""),
		ImageAPIURL: getEnv("IMAGE_API_URL", "https://generativelanguage.googleapis.com/v1beta/openai/chat/completions"),
		ImageModel:  getEnv("IMAGE_MODEL", "gemini-2.5-flash-image-preview"),

		GraphAPIURL: getEnv("GRAPH_API_URL", "https://graph.facebook.com/v18.0"),

		GenerateVersions: getEnvInt("GENERATE_VERSIONS", 3),

		// Redis Configuration
		RedisURL:      getEnv("REDIS_URL", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		StoreNamespace: getEnv("STORE_NAMESPACE", "postpilot"),

		DispatchEnabled:  getEnvBool("DISPATCH_ENABLED", true),
		DispatchInterval: getEnvInt("DISPATCH_INTERVAL", 60),

		RateLimitReqs:   getEnvInt("RATE_LIMIT_REQUESTS", 100),
		RateLimitWindow: getEnvInt("RATE_LIMIT_WINDOW", 60),

		TracingEnabled: getEnvBool("TRACING_ENABLED", false),
		OTLPEndpoint:   getEnv("OTLP_ENDPOINT", "localhost:4317"),
	}

	// The image gateway defaults to the same key as text generation.
	if cfg.ImageAPIKey == "" {
		cfg.ImageAPIKey = cfg.GeminiAPIKey
	}

	// Validate required fields
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required - set it in .env file")
	}

	if cfg.GenerateVersions < 1 {
		return nil, fmt.Errorf("GENERATE_VERSIONS must be at least 1")
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

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
