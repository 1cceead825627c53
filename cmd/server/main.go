package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"

	"github.com/medassist/prescription-analyzer/internal/ai"
	"github.com/medassist/prescription-analyzer/internal/config"
	"github.com/medassist/prescription-analyzer/internal/httpapi"
	"github.com/medassist/prescription-analyzer/internal/logger"
	"github.com/medassist/prescription-analyzer/internal/ocr"
	"github.com/medassist/prescription-analyzer/internal/prescription"
	"github.com/medassist/prescription-analyzer/internal/session"
	"github.com/medassist/prescription-analyzer/internal/workflow"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}

	cfg := config.Load()

	if err := logger.Setup(logger.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		Output: cfg.LogOutput,
	}); err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	lg := logger.WithComponent("main")

	var connector prescription.Connector
	switch cfg.StoreDriver {
	case "mongo":
		connector = prescription.NewMongoConnector(cfg.MongoURI, cfg.MongoDatabase, cfg.MongoCollection)
	default:
		db, err := prescription.OpenGorm(cfg.StoreDriver, cfg.StoreDSN)
		if err != nil {
			lg.Fatal().Err(err).Str("driver", cfg.StoreDriver).Msg("failed to open prescription store")
		}
		connector = prescription.NewGormConnector(db)
	}

	ctx := context.Background()

	var ocrSvc ocr.Service
	if svc, err := ocr.NewGoogleVisionService(ctx); err != nil {
		lg.Warn().Err(err).Msg("OCR backend unavailable, extraction will fail until configured")
		ocrSvc = ocr.Unavailable(err)
	} else {
		defer svc.Close()
		ocrSvc = svc
	}

	reg := ai.NewRegistry()
	reg.Register("mistral", cfg.MistralModel, func(model string) ai.Provider {
		return ai.NewMistralProvider(cfg.MistralBaseURL, cfg.MistralAPIKey, model)
	})
	reg.Register("ollama", cfg.OllamaModel, func(model string) ai.Provider {
		return ai.NewOllamaProvider(cfg.OllamaBaseURL, model)
	})

	flow := workflow.NewController(ocrSvc, connector, reg, cfg.AIProvider, "")
	sessions := session.NewManager()

	r := httpapi.NewRouter(cfg, sessions, flow)

	lg.Info().Str("addr", cfg.HTTPAddr).Msg("server listening")
	if err := r.Run(cfg.HTTPAddr); err != nil {
		lg.Fatal().Err(err).Msg("server exited")
	}
}
