package config

import (
	"os"
)

type Config struct {
	HTTPAddr string

	// Document store
	MongoURI        string
	MongoDatabase   string
	MongoCollection string

	// Store backend selection: "mongo" (default), or the relational
	// fallback "sqlite" / "mysql" for local development.
	StoreDriver string
	StoreDSN    string

	// AI provider
	AIProvider     string
	MistralBaseURL string
	MistralAPIKey  string
	MistralModel   string
	OllamaBaseURL  string
	OllamaModel    string

	// Logging
	LogLevel  string
	LogFormat string
	LogOutput string
}

func Load() Config {
	addr := os.Getenv("HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	mongoURI := os.Getenv("MONGO_URI")
	if mongoURI == "" {
		mongoURI = "mongodb://localhost:27017/"
	}
	mongoDB := os.Getenv("MONGO_DB")
	if mongoDB == "" {
		mongoDB = "medical_prescriptions"
	}
	mongoColl := os.Getenv("MONGO_COLLECTION")
	if mongoColl == "" {
		mongoColl = "extracted_texts"
	}

	storeDriver := os.Getenv("PRESCRIPTION_DB_DRIVER")
	if storeDriver == "" {
		storeDriver = "mongo"
	}

	aiProvider := os.Getenv("AI_PROVIDER")
	if aiProvider == "" {
		aiProvider = "mistral"
	}

	mistralBaseURL := os.Getenv("MISTRAL_BASE_URL")
	if mistralBaseURL == "" {
		mistralBaseURL = "https://api.mistral.ai/v1"
	}
	mistralModel := os.Getenv("MISTRAL_MODEL")
	if mistralModel == "" {
		mistralModel = "mistral-large-latest"
	}

	ollamaBaseURL := os.Getenv("OLLAMA_BASE_URL")
	if ollamaBaseURL == "" {
		ollamaBaseURL = "http://localhost:11434"
	}
	ollamaModel := os.Getenv("OLLAMA_MODEL")
	if ollamaModel == "" {
		ollamaModel = "llama3:latest"
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	logFormat := os.Getenv("LOG_FORMAT")
	if logFormat == "" {
		logFormat = "console"
	}
	logOutput := os.Getenv("LOG_OUTPUT")
	if logOutput == "" {
		logOutput = "stdout"
	}

	return Config{
		HTTPAddr: addr,

		MongoURI:        mongoURI,
		MongoDatabase:   mongoDB,
		MongoCollection: mongoColl,

		StoreDriver: storeDriver,
		StoreDSN:    os.Getenv("PRESCRIPTION_DB_DSN"),

		AIProvider:     aiProvider,
		MistralBaseURL: mistralBaseURL,
		MistralAPIKey:  os.Getenv("MISTRAL_API_KEY"),
		MistralModel:   mistralModel,
		OllamaBaseURL:  ollamaBaseURL,
		OllamaModel:    ollamaModel,

		LogLevel:  logLevel,
		LogFormat: logFormat,
		LogOutput: logOutput,
	}
}
