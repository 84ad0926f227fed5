package audioio

// Resample converts samples from one rate to another using linear
// interpolation. Good enough for speech-band analysis.
func Resample(samples []float64, fromRate, toRate int) []float64 {
	if fromRate == toRate || len(samples) == 0 || fromRate <= 0 || toRate <= 0 {
		return samples
	}

	ratio := float64(fromRate) / float64(toRate)
	newLen := int(float64(len(samples)) / ratio)
	if newLen == 0 {
		return []float64{}
	}

	out := make([]float64, newLen)
	last := len(samples) - 1
	for i := range out {
		pos := float64(i) * ratio
		idx := int(pos)
		if idx >= last {
			out[i] = samples[last]
			continue
		}
		frac := pos - float64(idx)
		out[i] = samples[idx] + frac*(samples[idx+1]-samples[idx])
	}
	return out
}

// ResampleBuffer resamples every channel of b to rate.
func ResampleBuffer(b Buffer, rate int) Buffer {
	if b.SampleRate == rate {
		return b
	}
	out := Buffer{SampleRate: rate, Channels: make([][]float64, len(b.Channels))}
	for i, ch := range b.Channels {
		out.Channels[i] = Resample(ch, b.SampleRate, rate)
	}
	return out
}

// deinterleave splits interleaved integer PCM into normalized channels.
func deinterleave(data []int, channels, bitDepth int) [][]float64 {
	if channels <= 0 {
		return nil
	}
	if bitDepth <= 0 {
		bitDepth = 16
	}
	scale := float64(int64(1) << (bitDepth - 1))
	n := len(data) / channels
	out := make([][]float64, channels)
	for c := range out {
		out[c] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for c := 0; c < channels; c++ {
			out[c][i] = float64(data[i*channels+c]) / scale
		}
	}
	return out
}
