package detection

import (
	"sync"
)

// Mock implements Detector for tests. It returns Result (or Err) for every
// call and counts invocations.
type Mock struct {
	Result *Result
	Err    error

	mu    sync.Mutex
	calls int
}

// NewMock returns a mock that always reports res.
func NewMock(res *Result) *Mock {
	return &Mock{Result: res}
}

// Detect returns the configured result.
func (m *Mock) Detect(img []byte) (*Result, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()

	if m.Err != nil {
		return nil, m.Err
	}
	if len(img) == 0 {
		return nil, ErrEmptyImage
	}
	if m.Result == nil {
		return &Result{}, nil
	}
	out := *m.Result
	out.Objects = append([]Object(nil), m.Result.Objects...)
	return &out, nil
}

// Calls returns how many times Detect ran.
func (m *Mock) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Close is a no-op.
func (m *Mock) Close() error { return nil }

var _ Detector = (*Mock)(nil)
