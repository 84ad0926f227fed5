package camera

import (
	"sync"
	"time"
)

// Mock implements Source for tests. It cycles through Frames, or returns Err
// when set.
type Mock struct {
	Frames []Frame
	Err    error

	mu     sync.Mutex
	next   int
	reads  int
	closed bool
}

// NewMock returns a mock that serves frames in order, repeating.
func NewMock(frames ...Frame) *Mock {
	return &Mock{Frames: frames}
}

// Read returns the next frame.
func (m *Mock) Read() (Frame, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.reads++
	switch {
	case m.closed:
		return Frame{}, ErrClosed
	case m.Err != nil:
		return Frame{}, m.Err
	case len(m.Frames) == 0:
		return Frame{}, ErrNoFrame
	}
	f := m.Frames[m.next%len(m.Frames)]
	m.next++
	if f.Captured.IsZero() {
		f.Captured = time.Now()
	}
	return f, nil
}

// Reads returns how many times Read ran.
func (m *Mock) Reads() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reads
}

// Close marks the source closed.
func (m *Mock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

var _ Source = (*Mock)(nil)
