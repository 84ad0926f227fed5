package guide

import (
	"log/slog"
	"time"

	"github.com/teslashibe/go-wayfinder/internal/observe"
)

// Config holds loop options.
type Config struct {
	// FrameInterval paces capture. Zero reads frames as fast as the camera
	// delivers them.
	FrameInterval time.Duration

	Publisher Publisher
	Metrics   *observe.Metrics
	Logger    *slog.Logger
}

// Option configures a Loop.
type Option func(*Config)

// DefaultConfig returns an unpaced loop that logs to the default logger.
func DefaultConfig() *Config {
	return &Config{Logger: slog.Default()}
}

// Apply applies options to the config.
func (c *Config) Apply(opts ...Option) {
	for _, opt := range opts {
		opt(c)
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// WithFrameInterval sets the minimum time between captures.
func WithFrameInterval(d time.Duration) Option {
	return func(c *Config) { c.FrameInterval = d }
}

// WithPublisher forwards every narration to p.
func WithPublisher(p Publisher) Option {
	return func(c *Config) { c.Publisher = p }
}

// WithMetrics records loop activity.
func WithMetrics(m *observe.Metrics) Option {
	return func(c *Config) { c.Metrics = m }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) { c.Logger = l }
}
