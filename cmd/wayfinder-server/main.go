// Wayfinder server - HTTP API for hazard narration, questions and speaker
// segmentation, with a live websocket alert feed
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/teslashibe/go-wayfinder/internal/app"
	"github.com/teslashibe/go-wayfinder/internal/config"
	"github.com/teslashibe/go-wayfinder/pkg/guide"
	"github.com/teslashibe/go-wayfinder/pkg/hub"
	"github.com/teslashibe/go-wayfinder/pkg/speaker"
	"github.com/teslashibe/go-wayfinder/pkg/web"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file")
	addr := flag.String("addr", "", "Listen address (overrides server.addr)")
	withLoop := flag.Bool("loop", false, "Also run the camera loop and stream its alerts")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatalf("Initialization failed: %v", err)
	}

	alerts := hub.New("alerts", a.Logger)
	go alerts.Run(ctx)

	srv := web.New(web.Deps{
		Detector:    a.Detector,
		Gateway:     a.Gateway,
		Analyzer:    speaker.NewAnalyzer(),
		Throttle:    a.Throttle(cfg.Server.Throttle, time.Time{}),
		Alerts:      alerts,
		Metrics:     a.Metrics,
		Logger:      a.Logger,
		MaxUploadMB: cfg.Server.MaxUploadMB,
	})

	if *withLoop {
		go runLoop(ctx, a, alerts)
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Listen(cfg.Server.Addr) }()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			a.Logger.Error("server stopped", "error", err)
		}
	}

	shutdownCtx, done := context.WithTimeout(context.Background(), 10*time.Second)
	defer done()
	if err := errors.Join(srv.Shutdown(shutdownCtx), a.Close(shutdownCtx)); err != nil {
		a.Logger.Warn("shutdown", "error", err)
	}
}

// runLoop streams camera alerts to the hub until ctx is done.
func runLoop(ctx context.Context, a *app.App, alerts *hub.Hub) {
	sp, err := a.Speaker()
	if err != nil {
		a.Logger.Error("speech engine unavailable; loop disabled", "error", err)
		return
	}
	src, err := a.OpenCamera()
	if err != nil {
		a.Logger.Error("camera unavailable; loop disabled", "error", err)
		return
	}
	defer src.Close()

	if err := a.Loop(src, sp, guide.WithPublisher(alerts)).Run(ctx); err != nil {
		a.Logger.Error("guide loop stopped", "error", err)
	}
}
