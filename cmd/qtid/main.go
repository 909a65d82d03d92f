package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	api "github.com/mind-engage/mindengage-qti/internal/api/http"
	"github.com/mind-engage/mindengage-qti/internal/config"
)

func main() {
	envFile := os.Getenv("QTI_ENV_FILE")
	var cfg config.Config
	if envFile != "" {
		cfg = config.Load(envFile)
	} else {
		cfg = config.Load()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := api.Run(ctx, cfg); err != nil {
		log.Fatalf("qtid: %v", err)
	}
}
