package speech

import (
	"context"
	"sync"
	"time"
)

// Mock implements Speaker for testing.
type Mock struct {
	// Err is returned from every Speak call.
	Err error

	// Delay simulates playback time, honoring cancellation.
	Delay time.Duration

	mu    sync.Mutex
	texts []string
}

// NewMock returns a Mock that succeeds instantly.
func NewMock() *Mock {
	return &Mock{}
}

// Speak records text.
func (m *Mock) Speak(ctx context.Context, text string) error {
	m.mu.Lock()
	m.texts = append(m.texts, text)
	m.mu.Unlock()

	if m.Delay > 0 {
		select {
		case <-time.After(m.Delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return m.Err
}

// Calls returns the number of Speak calls.
func (m *Mock) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.texts)
}

// Texts returns a copy of everything spoken.
func (m *Mock) Texts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.texts))
	copy(out, m.texts)
	return out
}
