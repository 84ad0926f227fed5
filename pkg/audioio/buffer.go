// Package audioio decodes uploaded audio into float sample buffers at the
// analysis sample rate.
//
// Supported containers are WAV (PCM) and FLAC. Samples are normalized to
// [-1, 1] and resampled to TargetSampleRate.
package audioio

// TargetSampleRate is the rate all analysis runs at.
const TargetSampleRate = 16000

// Buffer is decoded, de-interleaved audio.
type Buffer struct {
	// Channels holds one slice per channel, all the same length.
	Channels [][]float64

	// SampleRate in Hz.
	SampleRate int
}

// NumChannels returns the channel count.
func (b Buffer) NumChannels() int {
	return len(b.Channels)
}

// Len returns the number of samples per channel.
func (b Buffer) Len() int {
	if len(b.Channels) == 0 {
		return 0
	}
	return len(b.Channels[0])
}

// Stereo reports whether the buffer has at least two channels.
func (b Buffer) Stereo() bool {
	return len(b.Channels) > 1
}

// Duration returns the length in seconds.
func (b Buffer) Duration() float64 {
	if b.SampleRate == 0 {
		return 0
	}
	return float64(b.Len()) / float64(b.SampleRate)
}

// Mono averages all channels into one.
func (b Buffer) Mono() []float64 {
	switch len(b.Channels) {
	case 0:
		return nil
	case 1:
		return b.Channels[0]
	}
	n := b.Len()
	out := make([]float64, n)
	for _, ch := range b.Channels {
		for i := 0; i < n && i < len(ch); i++ {
			out[i] += ch[i]
		}
	}
	k := float64(len(b.Channels))
	for i := range out {
		out[i] /= k
	}
	return out
}

// Slice returns the sub-buffer [start, end) in samples, clamped to bounds.
// Channel slices share memory with b.
func (b Buffer) Slice(start, end int) Buffer {
	n := b.Len()
	start = max(0, min(start, n))
	end = max(start, min(end, n))
	out := Buffer{SampleRate: b.SampleRate, Channels: make([][]float64, len(b.Channels))}
	for i, ch := range b.Channels {
		out.Channels[i] = ch[start:end]
	}
	return out
}
