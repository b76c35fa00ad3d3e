// config.go - Configuration loaded from environment variables

package configs

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

var (
	// Completion provider configuration
	COMPLETION_PROVIDER string // "openai" or "gemini"
	OPENAI_API_KEY      string // fallback credential when a request carries none
	OPENAI_BASE_URL     string
	MODEL_NAME          string
	GEMINI_API_KEY      string
	GEMINI_MODEL_NAME   string

	// Request shaping
	EXTRACT_MAX_TOKENS      int
	DOCUMENT_MAX_TOKENS     int
	TEMPERATURE             float64
	REQUIRE_KEY_PREFIX      bool
	COMPLETION_MAX_ATTEMPTS int
	RATE_LIMIT_PER_MINUTE   int
	REQUEST_TIMEOUT_SECONDS int

	// Pricing (per 1M tokens in USD)
	INPUT_PRICE_PER_MILLION  float64
	OUTPUT_PRICE_PER_MILLION float64
	USD_TO_ILS               float64

	// Submission endpoint
	SUBMISSION_URL string

	// Server Configuration
	PORT            string
	ALLOWED_ORIGINS string
	MAX_UPLOAD_MB   int

	// Storage
	STORAGE_BACKEND string // "memory" or "mongodb"
	MONGO_URI       string
	MONGO_DB_NAME   string

	// Document schema override (YAML)
	DOCUMENT_SCHEMA_FILE string

	// Image preprocessing settings
	ENABLE_IMAGE_PREPROCESSING bool
	MAX_IMAGE_DIMENSION        int
)

// LoadConfig loads configuration from environment variables
func LoadConfig() {
	// Load .env file if exists (for local development)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	COMPLETION_PROVIDER = strings.ToLower(getEnv("COMPLETION_PROVIDER", "openai"))
	OPENAI_API_KEY = getEnv("OPENAI_API_KEY", "")
	OPENAI_BASE_URL = getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1")
	MODEL_NAME = getEnv("MODEL_NAME", "gpt-4o-mini")
	GEMINI_API_KEY = getEnv("GEMINI_API_KEY", "")
	GEMINI_MODEL_NAME = getEnv("GEMINI_MODEL_NAME", "gemini-2.5-flash")

	// Short, low-temperature answers: the output feeds a form field
	EXTRACT_MAX_TOKENS = getEnvInt("EXTRACT_MAX_TOKENS", 100)
	DOCUMENT_MAX_TOKENS = getEnvInt("DOCUMENT_MAX_TOKENS", 500)
	TEMPERATURE = getEnvFloat("TEMPERATURE", 0.1)
	REQUIRE_KEY_PREFIX = getEnvBool("REQUIRE_KEY_PREFIX", false)
	COMPLETION_MAX_ATTEMPTS = getEnvInt("COMPLETION_MAX_ATTEMPTS", 1) // 1 = no retry
	RATE_LIMIT_PER_MINUTE = getEnvInt("RATE_LIMIT_PER_MINUTE", 30)
	REQUEST_TIMEOUT_SECONDS = getEnvInt("REQUEST_TIMEOUT_SECONDS", 60)

	// gpt-4o-mini list pricing
	INPUT_PRICE_PER_MILLION = getEnvFloat("INPUT_PRICE_PER_MILLION", 0.15)
	OUTPUT_PRICE_PER_MILLION = getEnvFloat("OUTPUT_PRICE_PER_MILLION", 0.60)
	USD_TO_ILS = getEnvFloat("USD_TO_ILS", 3.7)

	SUBMISSION_URL = getEnv("SUBMISSION_URL", "https://oye-oscam.co.il/UpdateMakor/Index")

	PORT = getEnv("PORT", "8080")
	ALLOWED_ORIGINS = getEnv("ALLOWED_ORIGINS", "*")
	MAX_UPLOAD_MB = getEnvInt("MAX_UPLOAD_MB", 10)

	STORAGE_BACKEND = strings.ToLower(getEnv("STORAGE_BACKEND", "memory"))
	MONGO_URI = getEnv("MONGO_URI", "mongodb://localhost:27017")
	MONGO_DB_NAME = getEnv("MONGO_DB_NAME", "fleetcapture")

	DOCUMENT_SCHEMA_FILE = getEnv("DOCUMENT_SCHEMA_FILE", "")

	// Off by default: images go to the model exactly as captured
	ENABLE_IMAGE_PREPROCESSING = getEnvBool("ENABLE_IMAGE_PREPROCESSING", false)
	MAX_IMAGE_DIMENSION = getEnvInt("MAX_IMAGE_DIMENSION", 2000)

	if COMPLETION_PROVIDER == "gemini" && GEMINI_API_KEY == "" {
		log.Println("⚠️  GEMINI_API_KEY not set, requests must carry their own credential")
	}

	log.Println("✓ Configuration loaded successfully")
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}
