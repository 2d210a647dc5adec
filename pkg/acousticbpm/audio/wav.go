package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/go-audio/riff"
	"github.com/go-audio/wav"
)

const (
	wavFormatPCM        = 1
	wavFormatFloat      = 3
	wavFormatExtensible = 0xFFFE

	// fmt chunk: 16 bytes of WAVEFORMAT, then cbSize, valid bits,
	// channel mask and the 16-byte SubFormat GUID.
	fmtBaseSize       = 16
	fmtExtensibleSize = 40
	fmtSubFormatAt    = 24
	fmtMaxSize        = 1024
)

// wavFormat is a parsed fmt chunk. Code is the sample encoding, taken from
// the SubFormat GUID when the tag is WAVE_FORMAT_EXTENSIBLE.
type wavFormat struct {
	Tag        uint16
	Code       uint16
	Channels   int
	SampleRate int
	BitDepth   int
}

// containerBytes is the number of bytes each sample occupies.
func (f *wavFormat) containerBytes() int {
	if f.BitDepth <= 0 {
		return 0
	}
	return (f.BitDepth-1)/8 + 1
}

// readWAVFormat walks the RIFF chunks up to the data chunk and returns the
// parsed fmt chunk together with the (unread) data chunk.
func readWAVFormat(r io.Reader) (*wavFormat, *riff.Chunk, error) {
	p := riff.New(r)
	if err := p.ParseHeaders(); err != nil {
		return nil, nil, err
	}
	if p.Format != riff.WavFormatID {
		return nil, nil, fmt.Errorf("not a WAVE file (%q)", p.Format[:])
	}

	var wf *wavFormat
	for {
		ch, err := p.NextChunk()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, nil, errors.New("data chunk not found")
			}
			return nil, nil, err
		}

		switch ch.ID {
		case riff.FmtID:
			if ch.Size < fmtBaseSize || ch.Size > fmtMaxSize {
				return nil, nil, fmt.Errorf("bad fmt chunk size %d", ch.Size)
			}
			raw := make([]byte, ch.Size)
			if _, err := io.ReadFull(ch, raw); err != nil {
				return nil, nil, fmt.Errorf("reading fmt chunk: %v", err)
			}
			wf, err = parseFmtChunk(raw)
			if err != nil {
				return nil, nil, err
			}
		case riff.DataFormatID:
			if wf == nil {
				return nil, nil, errors.New("data chunk before fmt chunk")
			}
			return wf, ch, nil
		default:
			ch.Drain()
		}
	}
}

func parseFmtChunk(raw []byte) (*wavFormat, error) {
	le := binary.LittleEndian
	wf := &wavFormat{
		Tag:        le.Uint16(raw[0:2]),
		Channels:   int(le.Uint16(raw[2:4])),
		SampleRate: int(le.Uint32(raw[4:8])),
		BitDepth:   int(le.Uint16(raw[14:16])),
	}
	wf.Code = wf.Tag
	if wf.Tag == wavFormatExtensible {
		if len(raw) < fmtExtensibleSize {
			return nil, fmt.Errorf("extensible fmt chunk too short (%d bytes)", len(raw))
		}
		// the first two GUID bytes carry the format code
		wf.Code = le.Uint16(raw[fmtSubFormatAt : fmtSubFormatAt+2])
	}
	return wf, nil
}

// DecodeWAV reads an integer PCM (8, 16, 24 or 32 bit) or IEEE float
// (32 or 64 bit) WAV file, plain or WAVE_FORMAT_EXTENSIBLE.
func DecodeWAV(path string) (*Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOpen, err)
	}
	defer f.Close()

	wf, data, err := readWAVFormat(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOpen, err)
	}
	if wf.Channels == 0 || wf.BitDepth == 0 {
		return nil, checkShape(0, wf.Channels)
	}

	switch wf.Code {
	case wavFormatPCM:
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrOpen, err)
		}
		return decodePCM(f, wf)
	case wavFormatFloat:
		return decodeFloat(data, wf)
	default:
		return nil, fmt.Errorf("%w: unsupported wav audio format %#x", ErrOpen, wf.Code)
	}
}

// decodePCM reads integer samples through the go-audio decoder.
func decodePCM(r io.ReadSeeker, wf *wavFormat) (*Buffer, error) {
	switch wf.BitDepth {
	case 8, 16, 24, 32:
	default:
		return nil, fmt.Errorf("%w: unsupported pcm bit depth %d", ErrOpen, wf.BitDepth)
	}

	dec := wav.NewDecoder(r)
	if err := dec.FwdToPCM(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOpen, err)
	}
	if err := dec.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOpen, err)
	}

	frames := int(dec.PCMLen()) / (wf.Channels * wf.containerBytes())
	if err := checkShape(frames, wf.Channels); err != nil {
		return nil, err
	}

	pcm, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrShortRead, err)
	}
	if got := len(pcm.Data) / wf.Channels; got < frames {
		return nil, fmt.Errorf("%w: read %d of %d frames", ErrShortRead, got, frames)
	}

	return &Buffer{
		Samples:    intToFloat(pcm.Data[:frames*wf.Channels], wf.BitDepth),
		Frames:     frames,
		Channels:   wf.Channels,
		SampleRate: wf.SampleRate,
		Format:     "wav",
	}, nil
}

// decodeFloat reads little-endian IEEE float samples from the data chunk.
func decodeFloat(data *riff.Chunk, wf *wavFormat) (*Buffer, error) {
	size := wf.BitDepth / 8
	if wf.BitDepth != 32 && wf.BitDepth != 64 {
		return nil, fmt.Errorf("%w: unsupported float bit depth %d", ErrOpen, wf.BitDepth)
	}

	frames := data.Size / (wf.Channels * size)
	if err := checkShape(frames, wf.Channels); err != nil {
		return nil, err
	}

	want := frames * wf.Channels * size
	raw, err := io.ReadAll(io.LimitReader(data, int64(want)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrShortRead, err)
	}
	if len(raw) < want {
		return nil, fmt.Errorf("%w: read %d of %d frames", ErrShortRead, len(raw)/(wf.Channels*size), frames)
	}

	le := binary.LittleEndian
	samples := make([]float32, frames*wf.Channels)
	for i := range samples {
		if size == 4 {
			samples[i] = math.Float32frombits(le.Uint32(raw[4*i:]))
		} else {
			samples[i] = float32(math.Float64frombits(le.Uint64(raw[8*i:])))
		}
	}

	return &Buffer{
		Samples:    samples,
		Frames:     frames,
		Channels:   wf.Channels,
		SampleRate: wf.SampleRate,
		Format:     "wav",
	}, nil
}

// intToFloat normalizes integer PCM to [-1, 1). 8-bit WAV is unsigned.
func intToFloat(data []int, bitDepth int) []float32 {
	out := make([]float32, len(data))
	if bitDepth == 8 {
		for i, v := range data {
			out[i] = float32(v-128) / 128
		}
		return out
	}

	scale := float32(1) / float32(int64(1)<<(bitDepth-1))
	for i, v := range data {
		out[i] = float32(v) * scale
	}
	return out
}
