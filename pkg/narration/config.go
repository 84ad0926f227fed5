package narration

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/teslashibe/go-wayfinder/internal/observe"
)

// Defaults for the Gemini narration service.
const (
	DefaultBaseURL      = "https://generativelanguage.googleapis.com/v1beta"
	DefaultModel        = "gemini-2.5-flash"
	DefaultTimeout      = 10 * time.Second
	DefaultLabelTimeout = 30 * time.Second
)

// Config holds gateway configuration.
type Config struct {
	// Connection
	APIKey  string
	BaseURL string
	Model   string

	// Timeout bounds hazard narration and question answering.
	Timeout time.Duration

	// LabelTimeout bounds speaker labeling.
	LabelTimeout time.Duration

	// SeverityOrder sorts observations danger-first before building the
	// hazard prompt. Off by default: ordering is left to the service.
	SeverityOrder bool

	// HTTPClient overrides the client used for service calls.
	HTTPClient *http.Client

	// Observability
	Logger  *slog.Logger
	Metrics *observe.Metrics
}

// Option is a functional option for configuring the gateway.
type Option func(*Config)

// WithAPIKey sets the service credential.
func WithAPIKey(key string) Option {
	return func(c *Config) { c.APIKey = key }
}

// WithBaseURL sets the API base URL.
func WithBaseURL(url string) Option {
	return func(c *Config) { c.BaseURL = url }
}

// WithModel sets the generation model.
func WithModel(model string) Option {
	return func(c *Config) { c.Model = model }
}

// WithTimeout sets the interactive call timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Config) { c.Timeout = d }
}

// WithLabelTimeout sets the speaker labeling timeout.
func WithLabelTimeout(d time.Duration) Option {
	return func(c *Config) { c.LabelTimeout = d }
}

// WithSeverityOrder enables danger-first ordering of observations.
func WithSeverityOrder(enabled bool) Option {
	return func(c *Config) { c.SeverityOrder = enabled }
}

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Config) { c.HTTPClient = client }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) { c.Logger = l }
}

// WithMetrics sets the metric instruments.
func WithMetrics(m *observe.Metrics) Option {
	return func(c *Config) { c.Metrics = m }
}

// DefaultConfig returns the Gemini defaults with no credential.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:      DefaultBaseURL,
		Model:        DefaultModel,
		Timeout:      DefaultTimeout,
		LabelTimeout: DefaultLabelTimeout,
		Logger:       slog.Default(),
	}
}

// Apply applies functional options to the config.
func (c *Config) Apply(opts ...Option) {
	for _, opt := range opts {
		opt(c)
	}
}
