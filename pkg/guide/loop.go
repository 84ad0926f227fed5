// Package guide runs the continuous capture, detect, narrate and speak loop.
package guide

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/teslashibe/go-wayfinder/pkg/alert"
	"github.com/teslashibe/go-wayfinder/pkg/camera"
	"github.com/teslashibe/go-wayfinder/pkg/detection"
	"github.com/teslashibe/go-wayfinder/pkg/hub"
	"github.com/teslashibe/go-wayfinder/pkg/narration"
	"github.com/teslashibe/go-wayfinder/pkg/perception"
	"github.com/teslashibe/go-wayfinder/pkg/speech"
)

// ErrSensor marks a frame that was skipped because capture or detection
// failed. The loop keeps running.
var ErrSensor = errors.New("guide: sensor failure")

// Publisher receives every narration the loop produces.
type Publisher interface {
	Publish(ev hub.Event) error
}

// Outcome describes one loop iteration.
type Outcome struct {
	ID           string
	Observations []perception.Observation
	Text         string
	Spoken       bool
}

// Loop owns one camera, detector, gateway and speaker. It is not safe for
// concurrent use; Run drives it from a single goroutine.
type Loop struct {
	camera   camera.Source
	detector detection.Detector
	gateway  *narration.Gateway
	speaker  speech.Speaker
	throttle *alert.Throttle

	cfg *Config
}

// New wires a Loop. All collaborators are required.
func New(src camera.Source, det detection.Detector, gw *narration.Gateway, sp speech.Speaker, th *alert.Throttle, opts ...Option) *Loop {
	cfg := DefaultConfig()
	cfg.Apply(opts...)
	cfg.Logger = cfg.Logger.With("component", "guide")
	return &Loop{
		camera:   src,
		detector: det,
		gateway:  gw,
		speaker:  sp,
		throttle: th,
		cfg:      cfg,
	}
}

// Run iterates until ctx is done or the camera is closed. Other sensor
// failures skip the frame.
func (l *Loop) Run(ctx context.Context) error {
	l.cfg.Logger.Info("guide loop started",
		"interval", l.throttle.Snapshot().Interval,
		"frame_interval", l.cfg.FrameInterval)

	var tick <-chan time.Time
	if l.cfg.FrameInterval > 0 {
		t := time.NewTicker(l.cfg.FrameInterval)
		defer t.Stop()
		tick = t.C
	}

	for {
		select {
		case <-ctx.Done():
			l.cfg.Logger.Info("guide loop stopped")
			return nil
		default:
		}

		out, err := l.Step(ctx, time.Now())
		switch {
		case errors.Is(err, camera.ErrClosed):
			return err
		case errors.Is(err, ErrSensor):
			l.cfg.Logger.Debug("frame skipped", "error", err)
		case err != nil:
			return err
		case out.Spoken:
			l.cfg.Logger.Info("alert spoken", "id", out.ID, "text", out.Text,
				"objects", len(out.Observations))
		}

		if tick != nil {
			select {
			case <-ctx.Done():
			case <-tick:
			}
		}
	}
}

// Step runs one iteration at time now: capture, detect, classify and, when
// the throttle allows, narrate and speak. A sensor failure returns an error
// wrapping ErrSensor and leaves the throttle untouched.
func (l *Loop) Step(ctx context.Context, now time.Time) (Outcome, error) {
	out := Outcome{ID: uuid.NewString()}
	m := l.cfg.Metrics

	frame, err := l.camera.Read()
	if err != nil {
		m.RecordFrameError(ctx, "capture")
		return out, fmt.Errorf("%w: capture: %w", ErrSensor, err)
	}

	start := time.Now()
	res, err := l.detector.Detect(frame.JPEG)
	m.RecordDetection(ctx, time.Since(start))
	if err != nil {
		m.RecordFrameError(ctx, "detect")
		return out, fmt.Errorf("%w: detect: %w", ErrSensor, err)
	}

	out.Observations = perception.FromDetections(res)
	for _, o := range out.Observations {
		m.RecordObservation(ctx, string(o.Risk))
	}
	if len(out.Observations) == 0 || !l.throttle.Due(now) {
		return out, nil
	}

	out.Text = l.gateway.Narrate(ctx, out.Observations)
	if !l.throttle.ShouldSpeak(out.Text, now) {
		l.throttle.RecordAttempt(now)
		m.RecordAlert(ctx, false)
		l.publish(out, now)
		return out, nil
	}

	if err := l.speaker.Speak(ctx, out.Text); err != nil {
		l.cfg.Logger.Warn("speak failed", "id", out.ID, "error", err)
		l.throttle.RecordAttempt(now)
		m.RecordAlert(ctx, false)
		l.publish(out, now)
		return out, nil
	}

	out.Spoken = true
	l.throttle.RecordSpoken(out.Text, now)
	m.RecordAlert(ctx, true)
	l.publish(out, now)
	return out, nil
}

func (l *Loop) publish(out Outcome, now time.Time) {
	if l.cfg.Publisher == nil {
		return
	}
	err := l.cfg.Publisher.Publish(hub.Event{
		Kind:      hub.KindAlert,
		ID:        out.ID,
		Text:      out.Text,
		Spoken:    out.Spoken,
		Timestamp: now,
		Payload:   perception.Summary(out.Observations),
	})
	if err != nil {
		l.cfg.Logger.Warn("publish failed", "id", out.ID, "error", err)
	}
}
