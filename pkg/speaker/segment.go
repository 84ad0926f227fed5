// Package speaker finds voice-active intervals in an audio buffer and guesses
// a coarse direction for each one.
//
// Direction estimates here are heuristics. Stereo captures compare channel
// correlation and level; mono captures look at how much energy sits in the
// high band. Neither is physical localization: there is no microphone-array
// geometry behind them. Both sit behind the Localizer interface so a real
// localizer can replace them without changing Segment.
package speaker

// Direction is a coarse spatial guess for a voice segment.
type Direction string

const (
	DirectionLeft    Direction = "left"
	DirectionCenter  Direction = "center"
	DirectionRight   Direction = "right"
	DirectionFront   Direction = "front"
	DirectionBack    Direction = "back"
	DirectionUnknown Direction = "unknown"
)

// Segment is one voice-active interval of a processed buffer.
type Segment struct {
	ID        int       `json:"id"`
	StartTime float64   `json:"start_time"`
	EndTime   float64   `json:"end_time"`
	Duration  float64   `json:"duration"`
	Direction Direction `json:"direction"`

	// Text is a transcript. Transcription is not performed, so it is empty
	// unless a caller fills it in.
	Text string `json:"text"`

	// SpatialLabel is a human-readable position such as "Man on your left",
	// filled in by the narration service when available.
	SpatialLabel string `json:"spatial_label,omitempty"`
}

// Interval is a half-open [Start, End) range in samples.
type Interval struct {
	Start int
	End   int
}

// Len returns the interval length in samples.
func (iv Interval) Len() int {
	return iv.End - iv.Start
}
