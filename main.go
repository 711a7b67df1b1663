package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"districtrisk/internal"
	"districtrisk/internal/api"
	"districtrisk/internal/config"
	"districtrisk/internal/container"

	"github.com/joho/godotenv"
)

func main() {
	// Load .env file if present
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: could not load .env file: %v", err)
	}

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	internal.DefaultLogger.SetLevel(appConfig.Log.Level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c, err := container.New(appConfig)
	if err != nil {
		log.Fatalf("Failed to create container: %v", err)
	}
	if err := c.Init(ctx); err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := c.Shutdown(shutdownCtx); err != nil {
			log.Printf("Shutdown error: %v", err)
		}
	}()

	server := api.NewServer(api.Options{
		Store:          c.Store,
		Scorer:         c.Scorer,
		Engine:         c.EngineConfig,
		ExportDecimals: appConfig.Risk.ExportDecimals,
		Narrator:       c.Narrator,
		Metrics:        c.Metrics,
		GinMode:        appConfig.Server.GinMode,
	})

	addr := ":" + appConfig.Server.Port
	if err := server.Run(ctx, addr, appConfig.Server.ShutdownTimeout); err != nil {
		log.Printf("Server error: %v", err)
	}
}
