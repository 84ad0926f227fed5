// Package alert decides whether a freshly computed narration should be
// spoken. It performs no I/O; callers speak and then record.
package alert

import (
	"sync"
	"time"
)

// DefaultInterval is the minimum gap between spoken alerts.
const DefaultInterval = 5 * time.Second

// Config controls a Throttle.
type Config struct {
	// Interval is the minimum time between spoken alerts.
	Interval time.Duration

	// Enabled turns throttling on. When false every candidate is spoken,
	// which is what the request/response server wants by default.
	Enabled bool
}

// DefaultConfig returns an enabled throttle with a 5s interval.
func DefaultConfig() Config {
	return Config{Interval: DefaultInterval, Enabled: true}
}

// State is a point-in-time copy of the throttle.
type State struct {
	LastSpoken time.Time     `json:"last_spoken"`
	LastText   string        `json:"last_text"`
	Interval   time.Duration `json:"interval"`
	Enabled    bool          `json:"enabled"`
}

// Throttle rate-limits and deduplicates alerts. It is safe for concurrent
// use.
type Throttle struct {
	mu         sync.Mutex
	cfg        Config
	lastSpoken time.Time
	lastText   string
}

// New returns a Throttle whose interval clock starts at start, so the first
// alert can go out one interval later.
func New(cfg Config, start time.Time) *Throttle {
	if cfg.Interval < 0 {
		cfg.Interval = 0
	}
	return &Throttle{cfg: cfg, lastSpoken: start}
}

// ShouldSpeak reports whether text should be spoken at now: the interval has
// elapsed since the last attempt and text differs from what was last spoken.
func (t *Throttle) ShouldSpeak(text string, now time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.cfg.Enabled {
		return true
	}
	return now.Sub(t.lastSpoken) >= t.cfg.Interval && text != t.lastText
}

// Due reports whether the interval has elapsed. The camera loop checks it
// before asking for a narration at all.
func (t *Throttle) Due(now time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.cfg.Enabled {
		return true
	}
	return now.Sub(t.lastSpoken) >= t.cfg.Interval
}

// RecordSpoken commits text as spoken at now.
func (t *Throttle) RecordSpoken(text string, now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.lastSpoken = now
	t.lastText = text
}

// RecordAttempt restarts the interval without changing the last text.
// Used when a narration came back identical to the previous one.
func (t *Throttle) RecordAttempt(now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.lastSpoken = now
}

// SetEnabled toggles throttling at runtime.
func (t *Throttle) SetEnabled(enabled bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.cfg.Enabled = enabled
}

// Snapshot returns a copy of the current state.
func (t *Throttle) Snapshot() State {
	t.mu.Lock()
	defer t.mu.Unlock()

	return State{
		LastSpoken: t.lastSpoken,
		LastText:   t.lastText,
		Interval:   t.cfg.Interval,
		Enabled:    t.cfg.Enabled,
	}
}
