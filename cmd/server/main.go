package main

import (
	"log"
	"net/http"

	"go.uber.org/zap"

	"medilearn/internal/config"
	httpserver "medilearn/internal/http"
	"medilearn/internal/llm"
	"medilearn/internal/pubmed"
	"medilearn/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger, err := newLogger(cfg.Environment)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	llmClient := llm.NewOpenAIClient(cfg.APIKey, cfg.LLMBaseURL, cfg.LLMModel)
	pubmedClient := pubmed.NewClient(cfg.PubMedMaxResults)
	sessions := store.NewRegistry()

	srv := httpserver.NewServer(sessions, llmClient, pubmedClient,
		cfg.ChatMaxTokens, cfg.EvaluationMaxTokens, logger)

	addr := ":" + cfg.Port
	logger.Info("listening",
		zap.String("addr", addr),
		zap.String("model", cfg.LLMModel),
		zap.String("llm_base_url", cfg.LLMBaseURL))
	if err := http.ListenAndServe(addr, srv); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}

// newLogger builds a production JSON logger, or a human-readable one
// during development.
func newLogger(environment string) (*zap.Logger, error) {
	if environment == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
