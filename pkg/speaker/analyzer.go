package speaker

import (
	"github.com/teslashibe/go-wayfinder/pkg/audioio"
)

// Result is the outcome of analyzing one audio capture.
type Result struct {
	Segments      []Segment `json:"speakers"`
	TotalDuration float64   `json:"total_duration"`
	SampleRate    int       `json:"sample_rate"`
	Stereo        bool      `json:"stereo"`

	// Direction is the estimate for the whole capture. Segments whose own
	// estimate is unknown inherit it.
	Direction Direction `json:"direction"`
}

// Analyzer segments a buffer and estimates a direction per segment.
// Stereo captures use Stereo; mono captures use Mono.
type Analyzer struct {
	Segmenter Segmenter
	Stereo    Localizer
	Mono      Localizer
}

// NewAnalyzer returns an Analyzer with the default segmenter and the
// heuristic localizers.
func NewAnalyzer() *Analyzer {
	return &Analyzer{
		Segmenter: DefaultSegmenter(),
		Stereo:    NewStereoLocalizer(),
		Mono:      NewSpectralLocalizer(),
	}
}

// Analyze is pure: the same buffer always yields the same Result.
func (a *Analyzer) Analyze(buf audioio.Buffer) Result {
	res := Result{
		TotalDuration: buf.Duration(),
		SampleRate:    buf.SampleRate,
		Stereo:        buf.Stereo(),
		Segments:      []Segment{},
	}
	if buf.Len() == 0 {
		res.Direction = DirectionUnknown
		return res
	}

	mono := buf.Mono()
	res.Direction = a.locate(buf, mono)

	rate := float64(buf.SampleRate)
	for i, iv := range a.Segmenter.Segment(mono, buf.SampleRate) {
		dir := a.locate(buf.Slice(iv.Start, iv.End), mono[iv.Start:iv.End])
		if dir == DirectionUnknown {
			dir = res.Direction
		}
		res.Segments = append(res.Segments, Segment{
			ID:        i,
			StartTime: float64(iv.Start) / rate,
			EndTime:   float64(iv.End) / rate,
			Duration:  float64(iv.Len()) / rate,
			Direction: dir,
		})
	}
	return res
}

func (a *Analyzer) locate(buf audioio.Buffer, mono []float64) Direction {
	if buf.Stereo() {
		return a.Stereo.Locate(buf.Channels[:2], buf.SampleRate)
	}
	return a.Mono.Locate([][]float64{mono}, buf.SampleRate)
}
