// Package webcam captures frames from a local camera or video stream with
// OpenCV.
package webcam

import (
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"gocv.io/x/gocv"

	"github.com/teslashibe/go-wayfinder/pkg/camera"
)

// Source reads frames from an OpenCV VideoCapture and JPEG-encodes them.
type Source struct {
	cap     *gocv.VideoCapture
	mat     gocv.Mat
	quality int
	logger  *slog.Logger

	mu     sync.Mutex
	closed bool
}

// Open starts capturing from cfg.Device. A numeric device is a camera
// index; anything else is passed to OpenCV as a file or URL.
func Open(cfg camera.Config, logger *slog.Logger) (*Source, error) {
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("webcam: invalid config: %v", errs)
	}
	if logger == nil {
		logger = slog.Default()
	}

	var device any = cfg.Device
	if idx, err := strconv.Atoi(cfg.Device); err == nil {
		device = idx
	}

	vc, err := gocv.OpenVideoCapture(device)
	if err != nil {
		return nil, fmt.Errorf("webcam: open %s: %w", cfg.Device, err)
	}
	if !vc.IsOpened() {
		vc.Close()
		return nil, fmt.Errorf("webcam: cannot open %s", cfg.Device)
	}
	vc.Set(gocv.VideoCaptureFrameWidth, float64(cfg.Width))
	vc.Set(gocv.VideoCaptureFrameHeight, float64(cfg.Height))

	logger = logger.With("component", "camera.webcam")
	logger.Info("camera opened", "device", cfg.Device, "width", cfg.Width, "height", cfg.Height)

	return &Source{
		cap:     vc,
		mat:     gocv.NewMat(),
		quality: cfg.Quality,
		logger:  logger,
	}, nil
}

// Read grabs the next frame. It blocks until the device delivers one.
func (s *Source) Read() (camera.Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return camera.Frame{}, camera.ErrClosed
	}
	if ok := s.cap.Read(&s.mat); !ok || s.mat.Empty() {
		return camera.Frame{}, camera.ErrNoFrame
	}
	captured := time.Now()

	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, s.mat, []int{gocv.IMWriteJpegQuality, s.quality})
	if err != nil {
		return camera.Frame{}, fmt.Errorf("webcam: encode: %w", err)
	}
	defer buf.Close()

	return camera.Frame{
		JPEG:     append([]byte(nil), buf.GetBytes()...),
		Width:    s.mat.Cols(),
		Height:   s.mat.Rows(),
		Captured: captured,
	}, nil
}

// Close releases the device.
func (s *Source) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	s.mat.Close()
	return s.cap.Close()
}

var _ camera.Source = (*Source)(nil)
