// Package main starts the task posting wizard's web server.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/kazipost/kazipost/internal/platform/config"
	"github.com/kazipost/kazipost/internal/platform/otel"
	"github.com/kazipost/kazipost/internal/telemetry"
	telemetrysqlite "github.com/kazipost/kazipost/internal/telemetry/sqlite"
	"github.com/kazipost/kazipost/internal/web"
)

type envConfig struct {
	HTTPAddr       string `env:"KAZIPOST_WEB_HTTP_ADDR" envDefault:"localhost:8080"`
	MediaBaseURL   string `env:"KAZIPOST_MEDIA_BASE_URL" envDefault:"http://localhost:8081"`
	GeocodeBaseURL string `env:"KAZIPOST_GEOCODE_BASE_URL" envDefault:"http://localhost:8082"`
	TaskEndpoint   string `env:"KAZIPOST_TASK_ENDPOINT" envDefault:"http://localhost:8083/tasks"`
	TelemetryDB    string `env:"KAZIPOST_TELEMETRY_DB"`
}

func main() {
	var cfg envConfig
	if err := config.ParseEnv(&cfg); err != nil {
		config.Exitf("parse env: %v", err)
	}
	log.SetPrefix("[WEB] ")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdown, err := otel.Setup(ctx, "kazipost-web")
	if err != nil {
		config.Exitf("setup tracing: %v", err)
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			log.Printf("shutdown tracing: %v", err)
		}
	}()

	var emitter *telemetry.Emitter
	if cfg.TelemetryDB != "" {
		store, err := telemetrysqlite.Open(cfg.TelemetryDB)
		if err != nil {
			config.Exitf("open telemetry store: %v", err)
		}
		defer func() {
			if err := store.Close(); err != nil {
				log.Printf("close telemetry store: %v", err)
			}
		}()
		emitter = telemetry.NewEmitter(store)
	}

	server, err := web.NewServer(web.Config{
		HTTPAddr:       cfg.HTTPAddr,
		MediaBaseURL:   cfg.MediaBaseURL,
		GeocodeBaseURL: cfg.GeocodeBaseURL,
		TaskEndpoint:   cfg.TaskEndpoint,
	}, emitter)
	if err != nil {
		config.Exitf("init web server: %v", err)
	}

	if err := server.ListenAndServe(ctx); err != nil {
		config.Exitf("serve web: %v", err)
	}
}
