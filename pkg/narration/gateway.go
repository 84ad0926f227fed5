// Package narration turns structured observations into short spoken text
// using a remote language-generation service.
//
// The Gateway never returns errors. Missing credentials, network failures,
// timeouts, non-success statuses and malformed bodies all resolve to fixed
// fallback sentences, so a caller always has something to say.
package narration

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/teslashibe/go-wayfinder/pkg/perception"
	"github.com/teslashibe/go-wayfinder/pkg/speaker"
)

// Fixed sentences used instead of generated text.
const (
	FallbackNarration = "Unable to describe the surroundings right now. Please move carefully."
	FallbackAnswer    = "Sorry, I can't answer that right now."
	NotConfigured     = "Narration service is not configured."
	NothingDetected   = "The path ahead looks clear."
	NoQuestion        = "Please ask a question about what is in front of you."
)

// Prompt variants, also used as metric attributes.
const (
	VariantHazard = "hazard"
	VariantAnswer = "answer"
	VariantLabels = "labels"
)

// Generator produces text for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Gateway builds prompts, calls a Generator and substitutes fallback text on
// failure. It holds no per-call state and is safe for concurrent use.
type Gateway struct {
	gen    Generator
	cfg    *Config
	logger *slog.Logger
}

// New returns a Gateway backed by Gemini. Without an API key the gateway is
// still usable but answers every call with NotConfigured.
func New(opts ...Option) *Gateway {
	cfg := DefaultConfig()
	cfg.Apply(opts...)

	gen, err := NewGemini(opts...)
	if err != nil {
		cfg.Logger.Warn("narration service not configured", "error", err)
		return newGateway(nil, cfg)
	}
	return newGateway(gen, cfg)
}

// NewWithGenerator returns a Gateway backed by gen. A nil gen behaves as an
// unconfigured service.
func NewWithGenerator(gen Generator, opts ...Option) *Gateway {
	cfg := DefaultConfig()
	cfg.Apply(opts...)
	return newGateway(gen, cfg)
}

func newGateway(gen Generator, cfg *Config) *Gateway {
	return &Gateway{
		gen:    gen,
		cfg:    cfg,
		logger: cfg.Logger.With("component", "narration"),
	}
}

// Configured reports whether a generator is available.
func (g *Gateway) Configured() bool {
	return g.gen != nil
}

// Narrate returns a short hazard warning for obs.
func (g *Gateway) Narrate(ctx context.Context, obs []perception.Observation) string {
	if len(obs) == 0 {
		g.cfg.Metrics.RecordNarration(ctx, VariantHazard, "skipped", 0)
		return NothingDetected
	}
	if g.gen == nil {
		g.cfg.Metrics.RecordNarration(ctx, VariantHazard, "not_configured", 0)
		return NotConfigured
	}
	if g.cfg.SeverityOrder {
		obs = perception.SortBySeverity(obs)
	}

	text, err := g.generate(ctx, VariantHazard, g.cfg.Timeout, HazardPrompt(obs))
	if err != nil {
		return FallbackNarration
	}
	return text
}

// Answer responds to question using only obs. When nothing matching was
// detected the service is instructed to say it is not visible.
func (g *Gateway) Answer(ctx context.Context, obs []perception.Observation, question string) string {
	if strings.TrimSpace(question) == "" {
		return NoQuestion
	}
	if g.gen == nil {
		g.cfg.Metrics.RecordNarration(ctx, VariantAnswer, "not_configured", 0)
		return NotConfigured
	}

	text, err := g.generate(ctx, VariantAnswer, g.cfg.Timeout, QuestionPrompt(obs, question))
	if err != nil {
		return FallbackAnswer
	}
	return text
}

// LabelSpeakers asks for a spatial label per segment. The input is never
// modified; on any failure the returned copy simply has no labels.
func (g *Gateway) LabelSpeakers(ctx context.Context, segs []speaker.Segment) []speaker.Segment {
	if len(segs) == 0 {
		return segs
	}
	if g.gen == nil {
		g.cfg.Metrics.RecordNarration(ctx, VariantLabels, "not_configured", 0)
		return ApplyLabels(segs, nil)
	}

	text, err := g.generate(ctx, VariantLabels, g.cfg.LabelTimeout, LabelPrompt(segs))
	if err != nil {
		return ApplyLabels(segs, nil)
	}

	labels, err := ParseLabels(text)
	if err != nil {
		g.logger.Warn("speaker labels not parsed", "error", err)
		return ApplyLabels(segs, nil)
	}
	if len(labels) != len(segs) {
		g.logger.Debug("label count mismatch", "labels", len(labels), "segments", len(segs))
	}
	return ApplyLabels(segs, labels)
}

func (g *Gateway) generate(ctx context.Context, variant string, timeout time.Duration, prompt string) (string, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	start := time.Now()
	text, err := g.gen.Generate(ctx, prompt)
	elapsed := time.Since(start)

	if err == nil && strings.TrimSpace(text) == "" {
		err = ErrEmptyResponse
	}
	if err != nil {
		status := "error"
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			status = "timeout"
		}
		g.cfg.Metrics.RecordNarration(ctx, variant, status, elapsed)
		g.logger.Warn("narration failed", "variant", variant, "status", status, "elapsed", elapsed, "error", err)
		return "", err
	}

	g.cfg.Metrics.RecordNarration(ctx, variant, "ok", elapsed)
	g.logger.Debug("narration ok", "variant", variant, "elapsed", elapsed)
	return strings.TrimSpace(text), nil
}
