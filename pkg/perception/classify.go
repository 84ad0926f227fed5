package perception

import (
	"math"
	"sort"

	"github.com/teslashibe/go-wayfinder/pkg/detection"
)

// Frame-width fractions splitting left/center/right. Both are exclusive:
// a midpoint exactly on a boundary is center.
const (
	LeftBoundary  = 0.33
	RightBoundary = 0.66
)

// Distance model: distance = max(MinDistance, DistanceScale*(1-relativeHeight)).
const (
	MinDistance   = 0.2
	DistanceScale = 3.0
)

// Risk thresholds in meters. Both comparisons are strict.
const (
	DangerDistance  = 0.7
	CautionDistance = 1.5
)

// DirectionOf returns which third of a frame of the given width box falls in.
func DirectionOf(box Box, width float64) Direction {
	mid := box.MidX()
	switch {
	case mid < width*LeftBoundary:
		return DirectionLeft
	case mid > width*RightBoundary:
		return DirectionRight
	default:
		return DirectionCenter
	}
}

// EstimateDistance converts apparent box height into meters, rounded to
// two decimal places. Taller boxes are closer.
func EstimateDistance(box Box, height float64) float64 {
	relative := box.Height() / height
	d := math.Max(MinDistance, DistanceScale*(1-relative))
	return math.Round(d*100) / 100
}

// RiskFor buckets a distance.
func RiskFor(distance float64) Risk {
	switch {
	case distance < DangerDistance:
		return RiskDanger
	case distance < CautionDistance:
		return RiskCaution
	default:
		return RiskClear
	}
}

// Classify derives direction, distance and risk for a box in a w×h frame.
func Classify(box Box, w, h float64) (Direction, float64, Risk) {
	d := EstimateDistance(box, h)
	return DirectionOf(box, w), d, RiskFor(d)
}

// Observe builds a full Observation.
func Observe(label string, confidence float64, box Box, w, h float64) Observation {
	dir, dist, risk := Classify(box, w, h)
	return Observation{
		Label:      label,
		Confidence: confidence,
		Box:        box,
		Distance:   dist,
		Direction:  dir,
		Risk:       risk,
	}
}

// FromDetections classifies every object in a detection result, keeping the
// detector's order.
func FromDetections(res *detection.Result) []Observation {
	if res == nil || res.Width <= 0 || res.Height <= 0 {
		return nil
	}
	w, h := float64(res.Width), float64(res.Height)
	obs := make([]Observation, 0, len(res.Objects))
	for _, o := range res.Objects {
		box := Box{
			X1: float64(o.Box.Min.X),
			Y1: float64(o.Box.Min.Y),
			X2: float64(o.Box.Max.X),
			Y2: float64(o.Box.Max.Y),
		}
		obs = append(obs, Observe(o.Label, o.Confidence, box, w, h))
	}
	return obs
}

// SortBySeverity returns a copy ordered danger first, nearest first within a
// bucket. Ties keep their original order.
func SortBySeverity(obs []Observation) []Observation {
	out := make([]Observation, len(obs))
	copy(out, obs)
	sort.SliceStable(out, func(i, j int) bool {
		si, sj := out[i].Risk.Severity(), out[j].Risk.Severity()
		if si != sj {
			return si > sj
		}
		return out[i].Distance < out[j].Distance
	})
	return out
}

// Summary counts observations per risk bucket.
func Summary(obs []Observation) map[Risk]int {
	counts := map[Risk]int{RiskDanger: 0, RiskCaution: 0, RiskClear: 0}
	for _, o := range obs {
		counts[o.Risk]++
	}
	return counts
}
