package speech

import (
	"log/slog"
	"time"
)

// Defaults.
const (
	DefaultRate  = 150
	DefaultVoice = "shimmer"
	DefaultModel = "tts-1"
)

// Config holds speaker configuration.
// Use functional options (WithXxx) to set these values.
type Config struct {
	// Command is the synthesizer binary. Empty means auto-detect.
	Command string

	// Rate is the speaking rate in words per minute.
	Rate int

	// OpenAI engine
	APIKey  string
	BaseURL string
	Voice   string
	Model   string

	// Player is the audio player binary for synthesized MP3. Empty means
	// auto-detect.
	Player string

	// Timeout bounds synthesis requests.
	Timeout time.Duration

	// Runner overrides process execution.
	Runner Runner

	Logger *slog.Logger
}

// Option is a functional option for configuring speakers.
type Option func(*Config)

// WithCommand sets the synthesizer binary.
func WithCommand(cmd string) Option {
	return func(c *Config) { c.Command = cmd }
}

// WithRate sets the speaking rate in words per minute.
func WithRate(wpm int) Option {
	return func(c *Config) { c.Rate = wpm }
}

// WithAPIKey sets the OpenAI API key.
func WithAPIKey(key string) Option {
	return func(c *Config) { c.APIKey = key }
}

// WithBaseURL overrides the speech API URL.
func WithBaseURL(url string) Option {
	return func(c *Config) { c.BaseURL = url }
}

// WithVoice sets the OpenAI voice.
func WithVoice(voice string) Option {
	return func(c *Config) { c.Voice = voice }
}

// WithModel sets the OpenAI speech model.
func WithModel(model string) Option {
	return func(c *Config) { c.Model = model }
}

// WithPlayer sets the audio player binary.
func WithPlayer(player string) Option {
	return func(c *Config) { c.Player = player }
}

// WithTimeout sets the synthesis request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Config) { c.Timeout = d }
}

// WithRunner replaces process execution.
func WithRunner(r Runner) Option {
	return func(c *Config) { c.Runner = r }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) { c.Logger = l }
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Rate:    DefaultRate,
		Voice:   DefaultVoice,
		Model:   DefaultModel,
		Timeout: 30 * time.Second,
		Runner:  execRunner,
		Logger:  slog.Default(),
	}
}

// Apply applies functional options to the config.
func (c *Config) Apply(opts ...Option) {
	for _, opt := range opts {
		opt(c)
	}
}
