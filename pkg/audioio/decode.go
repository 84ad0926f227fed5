package audioio

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/go-audio/wav"
	"github.com/mewkiz/flac"
)

var (
	// ErrUnsupportedFormat is returned for containers other than WAV and FLAC.
	ErrUnsupportedFormat = errors.New("audioio: unsupported audio format")

	// ErrEmptyAudio is returned when a file holds no samples.
	ErrEmptyAudio = errors.New("audioio: no audio samples")
)

// Decode sniffs the container, decodes it and resamples to TargetSampleRate.
func Decode(data []byte) (Buffer, error) {
	var (
		buf Buffer
		err error
	)
	switch {
	case bytes.HasPrefix(data, []byte("RIFF")):
		buf, err = DecodeWAV(bytes.NewReader(data))
	case bytes.HasPrefix(data, []byte("fLaC")):
		buf, err = DecodeFLAC(bytes.NewReader(data))
	default:
		return Buffer{}, ErrUnsupportedFormat
	}
	if err != nil {
		return Buffer{}, err
	}
	if buf.Len() == 0 {
		return Buffer{}, ErrEmptyAudio
	}
	return ResampleBuffer(buf, TargetSampleRate), nil
}

// DecodeWAV decodes a PCM WAV stream at its native rate.
func DecodeWAV(r io.ReadSeeker) (Buffer, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return Buffer{}, fmt.Errorf("audioio: invalid wav file: %w", ErrUnsupportedFormat)
	}

	pcm, err := dec.FullPCMBuffer()
	if err != nil {
		return Buffer{}, fmt.Errorf("audioio: decode wav: %w", err)
	}
	if pcm == nil || pcm.Format == nil {
		return Buffer{}, ErrEmptyAudio
	}

	bitDepth := pcm.SourceBitDepth
	if bitDepth == 0 {
		bitDepth = int(dec.BitDepth)
	}
	return Buffer{
		Channels:   deinterleave(pcm.Data, pcm.Format.NumChannels, bitDepth),
		SampleRate: pcm.Format.SampleRate,
	}, nil
}

// DecodeFLAC decodes a FLAC stream at its native rate.
func DecodeFLAC(r io.Reader) (Buffer, error) {
	stream, err := flac.New(r)
	if err != nil {
		return Buffer{}, fmt.Errorf("audioio: open flac: %w", err)
	}
	defer stream.Close()

	channels := int(stream.Info.NChannels)
	bits := int(stream.Info.BitsPerSample)
	if bits <= 0 {
		bits = 16
	}
	scale := float64(int64(1) << (bits - 1))
	out := Buffer{
		Channels:   make([][]float64, channels),
		SampleRate: int(stream.Info.SampleRate),
	}

	for {
		frame, err := stream.ParseNext()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Buffer{}, fmt.Errorf("audioio: decode flac frame: %w", err)
		}
		for c := 0; c < channels && c < len(frame.Subframes); c++ {
			for _, s := range frame.Subframes[c].Samples {
				out.Channels[c] = append(out.Channels[c], float64(s)/scale)
			}
		}
	}
	return out, nil
}
