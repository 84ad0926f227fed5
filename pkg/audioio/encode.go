package audioio

import (
	"errors"
	"io"
	"math"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// WriteWAV encodes b as 16-bit PCM WAV. Samples outside [-1, 1] are clipped.
func WriteWAV(w io.WriteSeeker, b Buffer) error {
	channels := b.NumChannels()
	if channels == 0 || b.Len() == 0 || b.SampleRate <= 0 {
		return ErrEmptyAudio
	}

	n := b.Len()
	data := make([]int, 0, n*channels)
	for i := range n {
		for _, ch := range b.Channels {
			v := math.Max(-1, math.Min(1, ch[i]))
			data = append(data, int(math.Round(v*32767)))
		}
	}

	enc := wav.NewEncoder(w, b.SampleRate, 16, channels, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: channels, SampleRate: b.SampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}
	return errors.Join(enc.Write(buf), enc.Close())
}
