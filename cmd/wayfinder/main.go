// Wayfinder - spoken hazard guidance from a live camera
// Captures frames, detects objects, and speaks throttled warnings
package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/teslashibe/go-wayfinder/internal/app"
	"github.com/teslashibe/go-wayfinder/internal/config"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatalf("Initialization failed: %v", err)
	}
	defer func() {
		shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
		defer done()
		if err := a.Close(shutdownCtx); err != nil {
			a.Logger.Warn("shutdown", "error", err)
		}
	}()

	if !a.Gateway.Configured() {
		a.Logger.Warn("GEMINI_API_KEY not set; alerts will use fixed text")
	}

	sp, err := a.Speaker()
	if err != nil {
		a.Logger.Error("speech engine unavailable", "engine", cfg.Speech.Engine, "error", err)
		return
	}

	src, err := a.OpenCamera()
	if err != nil {
		a.Logger.Error("camera unavailable", "device", cfg.Camera.Device, "error", err)
		return
	}
	defer src.Close()

	if err := a.Loop(src, sp).Run(ctx); err != nil {
		a.Logger.Error("guide loop stopped", "error", err)
	}
}
