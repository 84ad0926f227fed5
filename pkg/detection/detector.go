// Package detection defines the object-detection boundary: a black box that
// takes an encoded image and returns labelled, pixel-space bounding boxes.
package detection

import (
	"errors"
	"image"
)

// ErrEmptyImage is returned when an image decodes to zero pixels.
var ErrEmptyImage = errors.New("detection: empty image")

// Object is one detection in pixel coordinates.
type Object struct {
	ClassID    int             // COCO class ID
	Label      string          // Human-readable class name
	Confidence float64         // Detection confidence (0-1)
	Box        image.Rectangle // Pixel-space box, Min is top-left
}

// Result is the detector output for one frame.
type Result struct {
	Width   int
	Height  int
	Objects []Object
}

// Detector is the interface for object detection backends.
type Detector interface {
	// Detect decodes an encoded image (JPEG/PNG) and finds objects in it.
	Detect(img []byte) (*Result, error)

	// Close releases resources.
	Close() error
}

// COCOClasses contains the 80 COCO class names.
var COCOClasses = []string{
	"person", "bicycle", "car", "motorcycle", "airplane", "bus", "train", "truck", "boat",
	"traffic light", "fire hydrant", "stop sign", "parking meter", "bench", "bird", "cat",
	"dog", "horse", "sheep", "cow", "elephant", "bear", "zebra", "giraffe", "backpack",
	"umbrella", "handbag", "tie", "suitcase", "frisbee", "skis", "snowboard", "sports ball",
	"kite", "baseball bat", "baseball glove", "skateboard", "surfboard", "tennis racket",
	"bottle", "wine glass", "cup", "fork", "knife", "spoon", "bowl", "banana", "apple",
	"sandwich", "orange", "broccoli", "carrot", "hot dog", "pizza", "donut", "cake", "chair",
	"couch", "potted plant", "bed", "dining table", "toilet", "tv", "laptop", "mouse",
	"remote", "keyboard", "cell phone", "microwave", "oven", "toaster", "sink", "refrigerator",
	"book", "clock", "vase", "scissors", "teddy bear", "hair drier", "toothbrush",
}

// ClassName returns the COCO name for id, or "object" when out of range.
func ClassName(id int) string {
	if id < 0 || id >= len(COCOClasses) {
		return "object"
	}
	return COCOClasses[id]
}
