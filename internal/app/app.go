// Package app wires configuration into the components shared by the
// wayfinder binaries.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/teslashibe/go-wayfinder/internal/config"
	"github.com/teslashibe/go-wayfinder/internal/log"
	"github.com/teslashibe/go-wayfinder/internal/observe"
	"github.com/teslashibe/go-wayfinder/pkg/alert"
	"github.com/teslashibe/go-wayfinder/pkg/camera"
	"github.com/teslashibe/go-wayfinder/pkg/camera/webcam"
	"github.com/teslashibe/go-wayfinder/pkg/detection"
	"github.com/teslashibe/go-wayfinder/pkg/detection/yolo"
	"github.com/teslashibe/go-wayfinder/pkg/guide"
	"github.com/teslashibe/go-wayfinder/pkg/narration"
	"github.com/teslashibe/go-wayfinder/pkg/speech"
)

// Version is reported in telemetry. Overridden at link time.
var Version = "dev"

// App holds the long-lived components built from a Config.
type App struct {
	Config   *config.Config
	Logger   *slog.Logger
	Metrics  *observe.Metrics
	Detector detection.Detector
	Gateway  *narration.Gateway

	shutdownMetrics func(context.Context) error
}

// New initializes logging and metrics, loads the detector and builds the
// narration gateway. A missing narration key is not an error; the gateway
// then answers with fixed text.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	log.Init(cfg.Log.Level)
	logger := log.L()

	shutdown, err := observe.InitProvider(ctx, observe.ProviderConfig{
		ServiceName:    "wayfinder",
		ServiceVersion: Version,
	})
	if err != nil {
		return nil, fmt.Errorf("app: init metrics: %w", err)
	}
	metrics := observe.DefaultMetrics()

	yc := yolo.DefaultConfig()
	yc.ModelPath = cfg.Detector.ModelPath
	yc.ConfidenceThresh = cfg.Detector.Confidence
	yc.NMSThresh = cfg.Detector.NMS
	yc.Logger = logger
	det, err := yolo.New(yc)
	if err != nil {
		_ = shutdown(ctx)
		return nil, fmt.Errorf("app: load detector: %w", err)
	}

	gw := narration.New(
		narration.WithAPIKey(cfg.Narration.APIKey),
		narration.WithBaseURL(cfg.Narration.BaseURL),
		narration.WithModel(cfg.Narration.Model),
		narration.WithTimeout(cfg.Narration.Timeout),
		narration.WithLabelTimeout(cfg.Narration.LabelTimeout),
		narration.WithSeverityOrder(cfg.Narration.SeverityOrder),
		narration.WithLogger(logger),
		narration.WithMetrics(metrics),
	)

	return &App{
		Config:          cfg,
		Logger:          logger,
		Metrics:         metrics,
		Detector:        det,
		Gateway:         gw,
		shutdownMetrics: shutdown,
	}, nil
}

// Throttle returns a throttle whose clock starts at start.
func (a *App) Throttle(enabled bool, start time.Time) *alert.Throttle {
	return alert.New(alert.Config{Interval: a.Config.Alert.Interval, Enabled: enabled}, start)
}

// Speaker builds the configured speech engine.
func (a *App) Speaker() (speech.Speaker, error) {
	sc := a.Config.Speech
	return speech.New(sc.Engine,
		speech.WithCommand(sc.Command),
		speech.WithRate(sc.Rate),
		speech.WithAPIKey(sc.OpenAIKey),
		speech.WithVoice(sc.Voice),
		speech.WithPlayer(sc.Player),
		speech.WithLogger(a.Logger),
	)
}

// OpenCamera opens the configured capture device.
func (a *App) OpenCamera() (camera.Source, error) {
	cc := a.Config.Camera
	return webcam.Open(camera.Config{
		Device:  strconv.Itoa(cc.Device),
		Width:   cc.Width,
		Height:  cc.Height,
		Quality: cc.Quality,
	}, a.Logger)
}

// Loop wires a guidance loop around src and sp.
func (a *App) Loop(src camera.Source, sp speech.Speaker, opts ...guide.Option) *guide.Loop {
	opts = append([]guide.Option{
		guide.WithFrameInterval(a.Config.Camera.FrameInterval),
		guide.WithMetrics(a.Metrics),
		guide.WithLogger(a.Logger),
	}, opts...)
	return guide.New(src, a.Detector, a.Gateway, sp, a.Throttle(true, time.Now()), opts...)
}

// Close releases the detector and flushes metrics.
func (a *App) Close(ctx context.Context) error {
	return errors.Join(a.Detector.Close(), a.shutdownMetrics(ctx))
}
