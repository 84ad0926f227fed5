// Package yolo runs a YOLOv8 ONNX model through OpenCV's DNN module.
package yolo

import (
	"fmt"
	"image"
	"log/slog"
	"os"
	"sync"

	"gocv.io/x/gocv"

	"github.com/teslashibe/go-wayfinder/pkg/detection"
)

// Config holds YOLO detector configuration.
type Config struct {
	ModelPath        string
	ConfidenceThresh float32
	NMSThresh        float32
	InputWidth       int
	InputHeight      int
	Logger           *slog.Logger
}

// DefaultConfig returns production defaults for YOLOv8n.
func DefaultConfig() Config {
	return Config{
		ModelPath:        "models/yolov8n.onnx",
		ConfidenceThresh: 0.5,
		NMSThresh:        0.45,
		InputWidth:       640,
		InputHeight:      640,
		Logger:           slog.Default(),
	}
}

// Detector uses YOLOv8 for general object detection.
// Detect is serialized; gocv.Net is not safe for concurrent forward passes.
type Detector struct {
	net       gocv.Net
	config    Config
	inputSize image.Point
	logger    *slog.Logger
	mu        sync.Mutex
}

// New loads the ONNX model named in cfg.
func New(cfg Config) (*Detector, error) {
	if _, err := os.Stat(cfg.ModelPath); err != nil {
		return nil, fmt.Errorf("yolo: model file %s: %w", cfg.ModelPath, err)
	}

	net := gocv.ReadNetFromONNX(cfg.ModelPath)
	if net.Empty() {
		return nil, fmt.Errorf("yolo: failed to load model from %s", cfg.ModelPath)
	}
	net.SetPreferableBackend(gocv.NetBackendDefault)
	net.SetPreferableTarget(gocv.NetTargetCPU)

	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Detector{
		net:       net,
		config:    cfg,
		inputSize: image.Pt(cfg.InputWidth, cfg.InputHeight),
		logger:    cfg.Logger.With("component", "detection.yolo"),
	}, nil
}

// Detect decodes img and returns objects in pixel coordinates.
func (d *Detector) Detect(img []byte) (*detection.Result, error) {
	mat, err := gocv.IMDecode(img, gocv.IMReadColor)
	if err != nil {
		return nil, fmt.Errorf("yolo: decode image: %w", err)
	}
	defer mat.Close()

	if mat.Empty() {
		return nil, detection.ErrEmptyImage
	}
	return d.DetectMat(mat), nil
}

// DetectMat runs the model on an already-decoded BGR frame.
func (d *Detector) DetectMat(mat gocv.Mat) *detection.Result {
	d.mu.Lock()
	defer d.mu.Unlock()

	w, h := mat.Cols(), mat.Rows()

	blob := gocv.BlobFromImage(mat, 1.0/255.0, d.inputSize, gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	d.net.SetInput(blob, "")
	output := d.net.Forward("")
	defer output.Close()

	res := &detection.Result{
		Width:   w,
		Height:  h,
		Objects: d.parse(output, w, h),
	}
	d.logger.Debug("detected objects", "count", len(res.Objects), "width", w, "height", h)
	return res
}

// parse decodes the [1, 84, N] YOLOv8 tensor: 4 box values (cx, cy, w, h in
// model-input pixels) followed by 80 class scores, one column per candidate.
func (d *Detector) parse(output gocv.Mat, imgW, imgH int) []detection.Object {
	size := output.Size()
	if len(size) != 3 {
		return nil
	}
	attrs, candidates := size[1], size[2]

	data, err := output.DataPtrFloat32()
	if err != nil {
		return nil
	}

	sx := float32(imgW) / float32(d.config.InputWidth)
	sy := float32(imgH) / float32(d.config.InputHeight)
	bounds := image.Rect(0, 0, imgW, imgH)

	var (
		boxes  []image.Rectangle
		scores []float32
		ids    []int
	)
	for i := 0; i < candidates; i++ {
		best, bestID := float32(0), 0
		for c := 4; c < attrs; c++ {
			if s := data[c*candidates+i]; s > best {
				best, bestID = s, c-4
			}
		}
		if best < d.config.ConfidenceThresh {
			continue
		}

		cx := data[0*candidates+i]
		cy := data[1*candidates+i]
		bw := data[2*candidates+i]
		bh := data[3*candidates+i]

		box := image.Rect(
			int((cx-bw/2)*sx), int((cy-bh/2)*sy),
			int((cx+bw/2)*sx), int((cy+bh/2)*sy),
		).Intersect(bounds)
		if box.Empty() {
			continue
		}

		boxes = append(boxes, box)
		scores = append(scores, best)
		ids = append(ids, bestID)
	}
	if len(boxes) == 0 {
		return nil
	}

	keep := gocv.NMSBoxes(boxes, scores, d.config.ConfidenceThresh, d.config.NMSThresh)
	objects := make([]detection.Object, 0, len(keep))
	for _, idx := range keep {
		objects = append(objects, detection.Object{
			ClassID:    ids[idx],
			Label:      detection.ClassName(ids[idx]),
			Confidence: float64(scores[idx]),
			Box:        boxes[idx],
		})
	}
	return objects
}

// Close releases the network.
func (d *Detector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.net.Close()
}

var _ detection.Detector = (*Detector)(nil)
