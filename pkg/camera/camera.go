package camera

import (
	"errors"
	"time"
)

var (
	// ErrClosed is returned by Read after Close.
	ErrClosed = errors.New("camera: source closed")

	// ErrNoFrame is returned when the device delivered nothing.
	ErrNoFrame = errors.New("camera: no frame")
)

// Frame is one captured image.
type Frame struct {
	JPEG     []byte
	Width    int
	Height   int
	Captured time.Time
}

// Source delivers frames. Read blocks until a frame is available.
type Source interface {
	Read() (Frame, error)
	Close() error
}
