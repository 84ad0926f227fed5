package speaker

import (
	"math"
	"slices"
	"time"
)

// Segmenter splits audio into voice-active intervals using frame energy
// against a percentile threshold. It holds no state between calls.
type Segmenter struct {
	// Window is the analysis frame length.
	Window time.Duration

	// Hop is the distance between frame starts.
	Hop time.Duration

	// Percentile of frame energies used as the voice threshold (0-100).
	Percentile float64

	// MaxSegments caps the result; later activity is dropped.
	MaxSegments int
}

// DefaultSegmenter returns 25ms frames every 10ms, a 30th-percentile
// threshold and at most five segments.
func DefaultSegmenter() Segmenter {
	return Segmenter{
		Window:      25 * time.Millisecond,
		Hop:         10 * time.Millisecond,
		Percentile:  30,
		MaxSegments: 5,
	}
}

// Segment returns voice-active intervals of samples in order, earliest first.
// A frame is voice when its energy is strictly above the threshold, so ties
// with the threshold (including all-equal energies) count as silence.
func (s Segmenter) Segment(samples []float64, sampleRate int) []Interval {
	win := int(math.Round(s.Window.Seconds() * float64(sampleRate)))
	hop := int(math.Round(s.Hop.Seconds() * float64(sampleRate)))
	if win <= 0 || hop <= 0 {
		return nil
	}

	energies := FrameEnergies(samples, win, hop)
	if len(energies) == 0 {
		return nil
	}
	threshold := Percentile(energies, s.Percentile)

	var (
		out     []Interval
		inVoice bool
		start   int
	)
	for i, e := range energies {
		voice := e > threshold
		switch {
		case voice && !inVoice:
			start = i
			inVoice = true
		case !voice && inVoice:
			out = append(out, Interval{Start: start * hop, End: i * hop})
			inVoice = false
		}
	}
	if inVoice {
		out = append(out, Interval{Start: start * hop, End: len(samples)})
	}

	if s.MaxSegments > 0 && len(out) > s.MaxSegments {
		out = out[:s.MaxSegments]
	}
	return out
}

// FrameEnergies returns the sum of squares of each win-long frame, with
// frames starting every hop samples while a full window plus one sample fits.
func FrameEnergies(samples []float64, win, hop int) []float64 {
	if win <= 0 || hop <= 0 {
		return nil
	}
	var out []float64
	for i := 0; i < len(samples)-win; i += hop {
		var e float64
		for _, x := range samples[i : i+win] {
			e += x * x
		}
		out = append(out, e)
	}
	return out
}

// Percentile returns the p-th percentile (0-100) of values using linear
// interpolation between closest ranks. values is not modified.
func Percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	sorted := slices.Clone(values)
	slices.Sort(sorted)

	pos := math.Min(math.Max(p, 0), 100) / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	return sorted[lo] + (sorted[hi]-sorted[lo])*(pos-float64(lo))
}
