package main

import (
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/Solaceking/live-document-ocr/internal/extract"
	"github.com/Solaceking/live-document-ocr/internal/llm"
	"github.com/Solaceking/live-document-ocr/internal/logger"
	"github.com/Solaceking/live-document-ocr/internal/router"
)

// providerKeyEnvs lists the credential variables checked at startup so a
// fully unconfigured deployment fails loudly in the logs instead of on
// the first request. Keys are still read per request, so this is only a
// warning.
var providerKeyEnvs = []string{
	"GEMINI_API_KEY",
	"DEEPSEEK_API_KEY",
	"OPENAI_API_KEY",
	"LLAMA_API_KEY",
}

func main() {
	if os.Getenv("APP_ENV") != "production" {
		_ = godotenv.Load()
	}

	log, err := logger.New(&logger.Config{
		Level:  os.Getenv("LOG_LEVEL"),
		Format: os.Getenv("LOG_FORMAT"),
	})
	if err != nil {
		logger.Get().Fatalw("invalid logger config", "error", err)
	}
	logger.SetDefault(log)

	configured := 0
	for _, key := range providerKeyEnvs {
		if os.Getenv(key) != "" {
			configured++
		}
	}
	if configured == 0 {
		log.Warn("no provider API key configured; every extraction will fail")
	}

	if os.Getenv("APP_ENV") == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	registry := llm.NewRegistry(log)
	handler := extract.NewHandler(registry, log)
	r := router.New(handler, log)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8000"
	}

	log.Infow("api listening", "port", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatalw("server exited", "error", err)
	}
}
