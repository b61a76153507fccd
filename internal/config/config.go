package config

import (
	"errors"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config carries everything the server reads from the environment.  A
// .env file is honoured when present; otherwise plain process
// environment variables are used.
type Config struct {
	Port                string
	APIKey              string
	LLMBaseURL          string
	LLMModel            string
	ChatMaxTokens       int
	EvaluationMaxTokens int
	PubMedMaxResults    int
	Environment         string
}

const (
	// Groq hosts an OpenAI-compatible API; the default model matches
	// what the tool was tuned against.
	defaultBaseURL = "https://api.groq.com/openai/v1"
	defaultModel   = "llama3-70b-8192"
)

// Load reads the configuration.  The provider API key is the one
// required value: without it no gateway-backed operation can work, so
// its absence is a startup error.
func Load() (*Config, error) {
	// Missing .env is fine; the process environment still applies.
	_ = godotenv.Load()

	cfg := &Config{
		Port:                getEnv("PORT", "8080"),
		APIKey:              getEnv("GROQ_API_KEY", ""),
		LLMBaseURL:          getEnv("LLM_BASE_URL", defaultBaseURL),
		LLMModel:            getEnv("LLM_MODEL", defaultModel),
		ChatMaxTokens:       getEnvAsInt("CHAT_MAX_TOKENS", 600),
		EvaluationMaxTokens: getEnvAsInt("EVALUATION_MAX_TOKENS", 800),
		PubMedMaxResults:    getEnvAsInt("PUBMED_MAX_RESULTS", 10),
		Environment:         getEnv("GO_ENV", "development"),
	}
	if cfg.APIKey == "" {
		return nil, errors.New("GROQ_API_KEY must be set")
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return value
	}
	return fallback
}
