package speaker

import (
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/stat"
)

// Localizer guesses where a sound came from.
type Localizer interface {
	Locate(channels [][]float64, sampleRate int) Direction
}

// StereoLocalizer compares the first two channels. Highly correlated
// channels mean a centered source; otherwise the louder side wins when it
// exceeds the other by LevelRatio.
type StereoLocalizer struct {
	CorrelationThreshold float64
	LevelRatio           float64
}

// NewStereoLocalizer returns a StereoLocalizer with a 0.8 correlation
// threshold and a 1.2 level ratio.
func NewStereoLocalizer() StereoLocalizer {
	return StereoLocalizer{CorrelationThreshold: 0.8, LevelRatio: 1.2}
}

// Locate implements Localizer. Fewer than two channels yields unknown.
// Signed means are compared, not magnitudes.
func (l StereoLocalizer) Locate(channels [][]float64, _ int) Direction {
	if len(channels) < 2 {
		return DirectionUnknown
	}
	left, right := channels[0], channels[1]
	n := min(len(left), len(right))
	if n == 0 {
		return DirectionUnknown
	}
	left, right = left[:n], right[:n]

	// Zero-variance channels give NaN, which never passes the threshold.
	if n > 1 {
		if r := stat.Correlation(left, right, nil); r > l.CorrelationThreshold {
			return DirectionCenter
		}
	}

	lm := stat.Mean(left, nil)
	rm := stat.Mean(right, nil)
	switch {
	case lm > rm*l.LevelRatio:
		return DirectionLeft
	case rm > lm*l.LevelRatio:
		return DirectionRight
	default:
		return DirectionCenter
	}
}

// SpectralLocalizer guesses front or back for mono audio from the share of
// spectral magnitude in the high band. Air and the head absorb high
// frequencies, so a brighter sound is taken to be in front.
type SpectralLocalizer struct {
	LowCutoff  float64 // Hz; the low band is (0, LowCutoff)
	HighCutoff float64 // Hz; mid is [LowCutoff, HighCutoff)
	Ceiling    float64 // Hz; high is [HighCutoff, Ceiling)

	FrontRatio float64 // high share above this is front
	BackRatio  float64 // high share at or below this is back
}

// NewSpectralLocalizer returns the 1k/4k/8k band split with front above a
// 0.4 high-band share and back at or below 0.25.
func NewSpectralLocalizer() SpectralLocalizer {
	return SpectralLocalizer{
		LowCutoff:  1000,
		HighCutoff: 4000,
		Ceiling:    8000,
		FrontRatio: 0.4,
		BackRatio:  0.25,
	}
}

// Locate implements Localizer. Multi-channel input is averaged first.
func (l SpectralLocalizer) Locate(channels [][]float64, sampleRate int) Direction {
	x := mix(channels)
	n := len(x)
	if n < 2 || sampleRate <= 0 {
		return DirectionUnknown
	}

	coeffs := fourier.NewFFT(n).Coefficients(nil, x)

	var low, mid, high float64
	// Positive frequencies only; the Nyquist bin of an even-length input
	// is excluded.
	for k := 1; k <= (n-1)/2; k++ {
		f := float64(k) * float64(sampleRate) / float64(n)
		mag := cmplx.Abs(coeffs[k])
		switch {
		case f < l.LowCutoff:
			low += mag
		case f < l.HighCutoff:
			mid += mag
		case f < l.Ceiling:
			high += mag
		}
	}

	total := low + mid + high
	if total < 1e-6 || math.IsNaN(total) {
		return DirectionUnknown
	}
	ratio := high / total
	switch {
	case ratio > l.FrontRatio:
		return DirectionFront
	case ratio > l.BackRatio:
		return DirectionCenter
	default:
		return DirectionBack
	}
}

func mix(channels [][]float64) []float64 {
	switch len(channels) {
	case 0:
		return nil
	case 1:
		return channels[0]
	}
	n := len(channels[0])
	for _, ch := range channels[1:] {
		n = min(n, len(ch))
	}
	out := make([]float64, n)
	for _, ch := range channels {
		for i := range out {
			out[i] += ch[i]
		}
	}
	for i := range out {
		out[i] /= float64(len(channels))
	}
	return out
}
