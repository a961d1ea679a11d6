package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/luisherrera/finances-go/internal/domain"
)

// Config holds all application configuration.
// Values are loaded from environment variables with sensible defaults.
type Config struct {
	// Server
	Port     int
	LogLevel string

	// Storage
	DBPath string

	// External recommendation generator
	GeneratorBaseURL  string
	GeneratorAPIKey   string
	GeneratorModel    string
	GeneratorTimeout  time.Duration
	GeneratorFallback bool

	// External RAG provider (document indexing)
	RagBaseURL string
	RagAPIKey  string
	RagTimeout time.Duration

	// Resilience
	MaxRetries     int
	InitialBackoff time.Duration

	// Scheduled recommendations
	RecommendationsEnabled bool
	RecommendationInterval time.Duration
	RecommendationLookback int // days
	RecommendationKind     domain.CategoryKind
	RecommendationPrompt   string // empty means the built-in advisory prompt

	// Observability
	OTLPEndpoint string
}

// Load reads configuration from environment variables with defaults.
func Load() *Config {
	return &Config{
		Port:     getEnvInt("PORT", 8080),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		DBPath: getEnv("DB_PATH", "data/finances.db"),

		GeneratorBaseURL:  getEnv("GENERATOR_BASE_URL", "http://localhost:8090"),
		GeneratorAPIKey:   getEnv("GENERATOR_API_KEY", ""),
		GeneratorModel:    getEnv("GENERATOR_MODEL", "fast"),
		GeneratorTimeout:  getEnvDuration("GENERATOR_TIMEOUT", 8*time.Second),
		GeneratorFallback: getEnv("GENERATOR_FALLBACK", "true") == "true",

		RagBaseURL: getEnv("RAG_BASE_URL", ""),
		RagAPIKey:  getEnv("RAG_API_KEY", ""),
		RagTimeout: getEnvDuration("RAG_TIMEOUT", 8*time.Second),

		MaxRetries:     getEnvInt("MAX_RETRIES", 3),
		InitialBackoff: getEnvDuration("INITIAL_BACKOFF", 100*time.Millisecond),

		RecommendationsEnabled: getEnv("REC_ENABLED", "true") == "true",
		RecommendationInterval: getEnvDuration("REC_INTERVAL", 30*time.Minute),
		RecommendationLookback: getEnvInt("REC_LOOKBACK_DAYS", 30),
		RecommendationKind:     domain.CategoryKind(getEnv("REC_CATEGORY_KIND", string(domain.KindExpense))),
		RecommendationPrompt:   getEnv("REC_PROMPT", ""),

		OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
	}
}

// Validate rejects configurations the service cannot run with.
func (c *Config) Validate() error {
	if c.GeneratorTimeout <= 0 {
		return fmt.Errorf("GENERATOR_TIMEOUT must be positive, got %s", c.GeneratorTimeout)
	}
	if c.RagTimeout <= 0 {
		return fmt.Errorf("RAG_TIMEOUT must be positive, got %s", c.RagTimeout)
	}
	if c.RecommendationInterval <= 0 {
		return fmt.Errorf("REC_INTERVAL must be positive, got %s", c.RecommendationInterval)
	}
	if _, ok := domain.ParseCategoryKind(string(c.RecommendationKind)); !ok {
		return fmt.Errorf("REC_CATEGORY_KIND must be income or expense, got %q", c.RecommendationKind)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
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
