// Package audio decodes audio files into interleaved float32 samples.
package audio

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

var (
	// ErrNotFound means the path does not exist.
	ErrNotFound = errors.New("file not found")
	// ErrOpen means the container could not be opened or parsed.
	ErrOpen = errors.New("cannot open audio file")
	// ErrInvalidContent means the file declares zero frames or zero channels.
	ErrInvalidContent = errors.New("frames or channels is zero")
	// ErrShortRead means fewer frames could be read than the header declares.
	ErrShortRead = errors.New("short read")
)

// Buffer holds decoded PCM. Samples are interleaved, one value per channel
// per frame, normalized to [-1, 1).
type Buffer struct {
	Samples    []float32
	Frames     int
	Channels   int
	SampleRate int
	Format     string
}

// Duration returns the length of the buffer in seconds.
func (b *Buffer) Duration() float64 {
	if b.SampleRate <= 0 {
		return 0
	}
	return float64(b.Frames) / float64(b.SampleRate)
}

// DecodeFunc decodes one file.
type DecodeFunc func(path string) (*Buffer, error)

var decoders = map[string]DecodeFunc{
	".wav": DecodeWAV,
	".mp3": DecodeMP3,
}

// Extensions returns the recognized file extensions in sorted order.
func Extensions() []string {
	exts := make([]string, 0, len(decoders))
	for ext := range decoders {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Decode picks a decoder by file extension.
func Decode(path string) (*Buffer, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("%w: %v", ErrOpen, err)
	}

	dec, ok := decoders[filepath.Ext(path)]
	if !ok {
		return nil, fmt.Errorf("%w: unsupported extension %q", ErrOpen, filepath.Ext(path))
	}
	return dec(path)
}

func checkShape(frames, channels int) error {
	if frames <= 0 || channels <= 0 {
		return fmt.Errorf("%w (frames=%d, channels=%d)", ErrInvalidContent, frames, channels)
	}
	return nil
}
