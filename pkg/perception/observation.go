// Package perception turns object-detection boxes into Observations: where an
// object is (left/center/right), roughly how far away it is, and how risky
// that makes it for someone walking toward it.
//
// Everything here is a pure function of the bounding box and frame size.
package perception

import "fmt"

// Direction is the horizontal third of the frame an object sits in.
type Direction string

const (
	DirectionLeft   Direction = "left"
	DirectionCenter Direction = "center"
	DirectionRight  Direction = "right"
)

// Risk is the hazard bucket derived from estimated distance.
type Risk string

const (
	RiskDanger  Risk = "danger"
	RiskCaution Risk = "caution"
	RiskClear   Risk = "clear"
)

// Severity orders risks; higher is more urgent.
func (r Risk) Severity() int {
	switch r {
	case RiskDanger:
		return 2
	case RiskCaution:
		return 1
	default:
		return 0
	}
}

// Box is an axis-aligned bounding box in pixel coordinates.
type Box struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

// MidX returns the horizontal center of the box.
func (b Box) MidX() float64 {
	return (b.X1 + b.X2) / 2
}

// Height returns the box height in pixels.
func (b Box) Height() float64 {
	return b.Y2 - b.Y1
}

// Valid reports whether the corners are ordered.
func (b Box) Valid() bool {
	return b.X1 < b.X2 && b.Y1 < b.Y2
}

// Observation is one detected object in one frame.
type Observation struct {
	Label      string    `json:"label"`
	Confidence float64   `json:"confidence"`
	Box        Box       `json:"bbox"`
	Distance   float64   `json:"distance"`
	Direction  Direction `json:"direction"`
	Risk       Risk      `json:"risk"`
}

// String renders the observation the way prompts list it.
func (o Observation) String() string {
	return fmt.Sprintf("%s at %.2fm, risk: %s, direction: %s", o.Label, o.Distance, o.Risk, o.Direction)
}
