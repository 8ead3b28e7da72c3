// Command server runs the fileshare HTTP API and feed page.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fileshare/internal/cache"
	"fileshare/internal/config"
	"fileshare/internal/observability"
	"fileshare/internal/server"

	"github.com/joho/godotenv"
)

// @title fileshare API
// @version 1.0
// @description Multi-file posts with an in-memory feed, plus a paginated mock sales endpoint

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:3000
// @BasePath /api
// @schemes http https

func main() {
	// A missing .env is fine; real deployments use the environment.
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	observability.SetLogger(observability.NewLogger(cfg.Env, os.Stdout))

	shutdownTracing, err := observability.InitTracing(observability.TracingConfig{
		ServiceName:    "fileshare",
		ServiceVersion: "1.0",
		Environment:    cfg.Env,
		Enabled:        cfg.TracingEnabled,
		Exporter:       cfg.TracingExporter,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		SamplerRatio:   cfg.TracingSampler,
	})
	if err != nil {
		log.Fatalf("Failed to initialize tracing: %v", err)
	}

	connectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	rdb := cache.Connect(connectCtx, cfg.RedisURL)
	cancel()

	srv, err := server.NewServer(cfg, server.Deps{Redis: rdb})
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	// Graceful shutdown
	done := make(chan struct{})
	go func() {
		defer close(done)

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
		if err := shutdownTracing(ctx); err != nil {
			log.Printf("Tracing shutdown error: %v", err)
		}
	}()

	if err := srv.Start(); err != nil {
		log.Fatalf("Server stopped: %v", err)
	}
	<-done
}
