package audio

import (
	"fmt"
	"io"
	"os"

	"github.com/hajimehoshi/go-mp3"
)

// go-mp3 always emits 16-bit little-endian stereo.
const (
	mp3Channels      = 2
	mp3BytesPerFrame = 4
)

// DecodeMP3 decodes an MPEG-1/2 Layer III file.
func DecodeMP3(path string) (*Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOpen, err)
	}
	defer f.Close()

	dec, err := mp3.NewDecoder(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOpen, err)
	}

	frames := int(dec.Length() / mp3BytesPerFrame)
	if err := checkShape(frames, mp3Channels); err != nil {
		return nil, err
	}

	raw := make([]byte, frames*mp3BytesPerFrame)
	n, err := io.ReadFull(dec, raw)
	if err != nil {
		return nil, fmt.Errorf("%w: read %d of %d frames: %v", ErrShortRead, n/mp3BytesPerFrame, frames, err)
	}

	samples := make([]float32, frames*mp3Channels)
	for i := range samples {
		s := int16(raw[2*i]) | int16(raw[2*i+1])<<8
		samples[i] = float32(s) / 32768
	}

	return &Buffer{
		Samples:    samples,
		Frames:     frames,
		Channels:   mp3Channels,
		SampleRate: dec.SampleRate(),
		Format:     "mp3",
	}, nil
}
