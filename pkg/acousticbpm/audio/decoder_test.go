package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// writeTestWAV encodes 16-bit PCM frames to path.
func writeTestWAV(t *testing.T, path string, sampleRate, channels int, data []int) {
	t.Helper()

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create %s: %v", path, err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, sampleRate, 16, channels, wavFormatPCM)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: channels, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("Failed to write samples: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("Failed to finalize wav: %v", err)
	}
}

// writeRawWAV writes a canonical 44-byte header followed by dataLen zero bytes.
func writeRawWAV(t *testing.T, path string, channels uint16, dataLen uint32) {
	t.Helper()

	const sampleRate, bits = 8000, 16
	blockAlign := channels * bits / 8

	var b bytes.Buffer
	b.WriteString("RIFF")
	binary.Write(&b, binary.LittleEndian, uint32(36+dataLen))
	b.WriteString("WAVE")
	b.WriteString("fmt ")
	binary.Write(&b, binary.LittleEndian, uint32(16))
	binary.Write(&b, binary.LittleEndian, uint16(wavFormatPCM))
	binary.Write(&b, binary.LittleEndian, channels)
	binary.Write(&b, binary.LittleEndian, uint32(sampleRate))
	binary.Write(&b, binary.LittleEndian, uint32(sampleRate)*uint32(blockAlign))
	binary.Write(&b, binary.LittleEndian, blockAlign)
	binary.Write(&b, binary.LittleEndian, uint16(bits))
	b.WriteString("data")
	binary.Write(&b, binary.LittleEndian, dataLen)
	b.Write(make([]byte, dataLen))

	if err := os.WriteFile(path, b.Bytes(), 0o644); err != nil {
		t.Fatalf("Failed to write %s: %v", path, err)
	}
}

func TestDecodeWAVStereo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stereo.wav")
	writeTestWAV(t, path, 22050, 2, []int{16384, -16384, 0, 32767, -32768, 8192})

	buf, err := Decode(path)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	if buf.Channels != 2 {
		t.Errorf("Expected 2 channels, got %d", buf.Channels)
	}
	if buf.Frames != 3 {
		t.Errorf("Expected 3 frames, got %d", buf.Frames)
	}
	if buf.SampleRate != 22050 {
		t.Errorf("Expected 22050 Hz, got %d", buf.SampleRate)
	}
	if len(buf.Samples) != buf.Frames*buf.Channels {
		t.Errorf("Expected %d samples, got %d", buf.Frames*buf.Channels, len(buf.Samples))
	}
	if buf.Format != "wav" {
		t.Errorf("Expected format wav, got %q", buf.Format)
	}

	expected := []float32{0.5, -0.5, 0, 32767.0 / 32768.0, -1, 0.25}
	for i, want := range expected {
		if math.Abs(float64(buf.Samples[i]-want)) > 1e-6 {
			t.Errorf("Sample %d: expected %f, got %f", i, want, buf.Samples[i])
		}
	}
}

func TestDecodeNotFound(t *testing.T) {
	_, err := Decode(filepath.Join(t.TempDir(), "missing.wav"))
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestDecodeCorruptWAV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corrupt.wav")
	if err := os.WriteFile(path, []byte("INVALID HEADER DATA"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := Decode(path)
	if !errors.Is(err, ErrOpen) {
		t.Errorf("Expected ErrOpen, got %v", err)
	}
}

func TestDecodeCorruptMP3(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corrupt.mp3")
	if err := os.WriteFile(path, bytes.Repeat([]byte{0x00}, 64), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := Decode(path)
	if err == nil {
		t.Fatal("Expected an error decoding garbage as mp3")
	}
	if !errors.Is(err, ErrOpen) && !errors.Is(err, ErrInvalidContent) {
		t.Errorf("Expected ErrOpen or ErrInvalidContent, got %v", err)
	}
}

func TestDecodeUnsupportedExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	if err := os.WriteFile(path, []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := Decode(path)
	if !errors.Is(err, ErrOpen) {
		t.Errorf("Expected ErrOpen, got %v", err)
	}
}

func TestDecodeZeroFrames(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.wav")
	writeRawWAV(t, path, 1, 0)

	_, err := Decode(path)
	if !errors.Is(err, ErrInvalidContent) {
		t.Errorf("Expected ErrInvalidContent, got %v", err)
	}
}

func TestDecodeZeroChannels(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nochan.wav")
	writeRawWAV(t, path, 0, 0)

	_, err := Decode(path)
	if !errors.Is(err, ErrInvalidContent) {
		t.Errorf("Expected ErrInvalidContent, got %v", err)
	}
}

func TestDecodeTruncatedWAV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "truncated.wav")
	writeTestWAV(t, path, 8000, 1, make([]int, 4000))

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Truncate(path, info.Size()-1001); err != nil {
		t.Fatal(err)
	}

	_, err = Decode(path)
	if !errors.Is(err, ErrShortRead) {
		t.Errorf("Expected ErrShortRead, got %v", err)
	}
}

func TestIntToFloat(t *testing.T) {
	tests := []struct {
		name     string
		data     []int
		bitDepth int
		expected []float32
	}{
		{"8-bit unsigned", []int{0, 128, 192}, 8, []float32{-1, 0, 0.5}},
		{"16-bit", []int{-32768, 0, 16384}, 16, []float32{-1, 0, 0.5}},
		{"24-bit", []int{-8388608, 4194304}, 24, []float32{-1, 0.5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := intToFloat(tt.data, tt.bitDepth)
			for i := range tt.expected {
				if got[i] != tt.expected[i] {
					t.Errorf("Value %d: expected %f, got %f", i, tt.expected[i], got[i])
				}
			}
		})
	}
}

func TestExtensions(t *testing.T) {
	exts := Extensions()
	if len(exts) != 2 || exts[0] != ".mp3" || exts[1] != ".wav" {
		t.Errorf("Expected [.mp3 .wav], got %v", exts)
	}
}

func TestBufferDuration(t *testing.T) {
	b := &Buffer{Frames: 22050, SampleRate: 44100}
	if d := b.Duration(); d != 0.5 {
		t.Errorf("Expected 0.5s, got %f", d)
	}
	if d := (&Buffer{Frames: 10}).Duration(); d != 0 {
		t.Errorf("Expected 0 for unknown rate, got %f", d)
	}
}

// wavChunk encodes one RIFF chunk, padded to an even length.
func wavChunk(id string, body []byte) []byte {
	var b bytes.Buffer
	b.WriteString(id)
	binary.Write(&b, binary.LittleEndian, uint32(len(body)))
	b.Write(body)
	if len(body)%2 == 1 {
		b.WriteByte(0)
	}
	return b.Bytes()
}

// fmtBody builds a fmt chunk. A non-zero subFormat produces the 40-byte
// WAVE_FORMAT_EXTENSIBLE layout with that code in the SubFormat GUID.
func fmtBody(tag, channels uint16, sampleRate uint32, bits uint16, subFormat uint16) []byte {
	var b bytes.Buffer
	blockAlign := channels * ((bits + 7) / 8)
	binary.Write(&b, binary.LittleEndian, tag)
	binary.Write(&b, binary.LittleEndian, channels)
	binary.Write(&b, binary.LittleEndian, sampleRate)
	binary.Write(&b, binary.LittleEndian, sampleRate*uint32(blockAlign))
	binary.Write(&b, binary.LittleEndian, blockAlign)
	binary.Write(&b, binary.LittleEndian, bits)
	if tag == wavFormatExtensible {
		// cbSize, valid bits, channel mask (front left/right)
		binary.Write(&b, binary.LittleEndian, uint16(22))
		binary.Write(&b, binary.LittleEndian, bits)
		binary.Write(&b, binary.LittleEndian, uint32(0x3))
		// SubFormat GUID {0000xxxx-0000-0010-8000-00AA00389B71}
		binary.Write(&b, binary.LittleEndian, subFormat)
		b.Write([]byte{0x00, 0x00, 0x00, 0x00, 0x10, 0x00})
		b.Write([]byte{0x80, 0x00, 0x00, 0xAA, 0x00, 0x38, 0x9B, 0x71})
	} else if tag != wavFormatPCM {
		binary.Write(&b, binary.LittleEndian, uint16(0)) // cbSize
	}
	return b.Bytes()
}

func writeChunkedWAV(t *testing.T, path string, chunks ...[]byte) {
	t.Helper()

	var body bytes.Buffer
	body.WriteString("WAVE")
	for _, c := range chunks {
		body.Write(c)
	}

	var b bytes.Buffer
	b.WriteString("RIFF")
	binary.Write(&b, binary.LittleEndian, uint32(body.Len()))
	b.Write(body.Bytes())

	if err := os.WriteFile(path, b.Bytes(), 0o644); err != nil {
		t.Fatalf("Failed to write %s: %v", path, err)
	}
}

func float32Data(values ...float32) []byte {
	var b bytes.Buffer
	for _, v := range values {
		binary.Write(&b, binary.LittleEndian, math.Float32bits(v))
	}
	return b.Bytes()
}

func float64Data(values ...float64) []byte {
	var b bytes.Buffer
	for _, v := range values {
		binary.Write(&b, binary.LittleEndian, math.Float64bits(v))
	}
	return b.Bytes()
}

func TestDecodeFloatWAV(t *testing.T) {
	expected := []float32{0.5, -0.5, 0.25, 0}
	fact := wavChunk("fact", []byte{2, 0, 0, 0})

	tests := []struct {
		name   string
		chunks [][]byte
	}{
		{
			name: "ieee float 32",
			chunks: [][]byte{
				wavChunk("fmt ", fmtBody(wavFormatFloat, 2, 44100, 32, 0)),
				fact,
				wavChunk("data", float32Data(expected...)),
			},
		},
		{
			name: "ieee float 64",
			chunks: [][]byte{
				wavChunk("fmt ", fmtBody(wavFormatFloat, 2, 44100, 64, 0)),
				fact,
				wavChunk("data", float64Data(0.5, -0.5, 0.25, 0)),
			},
		},
		{
			name: "extensible float 32",
			chunks: [][]byte{
				wavChunk("fmt ", fmtBody(wavFormatExtensible, 2, 44100, 32, wavFormatFloat)),
				fact,
				wavChunk("data", float32Data(expected...)),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "float.wav")
			writeChunkedWAV(t, path, tt.chunks...)

			buf, err := Decode(path)
			if err != nil {
				t.Fatalf("Decode failed: %v", err)
			}
			if buf.Channels != 2 || buf.Frames != 2 || buf.SampleRate != 44100 {
				t.Fatalf("Unexpected shape: %d ch, %d frames, %d Hz", buf.Channels, buf.Frames, buf.SampleRate)
			}
			if len(buf.Samples) != len(expected) {
				t.Fatalf("Expected %d samples, got %d", len(expected), len(buf.Samples))
			}
			for i, want := range expected {
				if buf.Samples[i] != want {
					t.Errorf("Sample %d: expected %v, got %v", i, want, buf.Samples[i])
				}
			}
		})
	}
}

func TestDecodeExtensiblePCM(t *testing.T) {
	var data bytes.Buffer
	for _, v := range []int16{16384, -16384, 0, -32768} {
		binary.Write(&data, binary.LittleEndian, v)
	}

	path := filepath.Join(t.TempDir(), "ext.wav")
	writeChunkedWAV(t, path,
		wavChunk("fmt ", fmtBody(wavFormatExtensible, 2, 8000, 16, wavFormatPCM)),
		wavChunk("data", data.Bytes()),
	)

	buf, err := Decode(path)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	expected := []float32{0.5, -0.5, 0, -1}
	if buf.Frames != 2 || len(buf.Samples) != len(expected) {
		t.Fatalf("Expected 2 frames / 4 samples, got %d / %d", buf.Frames, len(buf.Samples))
	}
	for i, want := range expected {
		if buf.Samples[i] != want {
			t.Errorf("Sample %d: expected %v, got %v", i, want, buf.Samples[i])
		}
	}
}

func TestDecodeTruncatedFloatWAV(t *testing.T) {
	data := wavChunk("data", float32Data(0.5, -0.5, 0.25, 0))
	// drop the last sample but keep the declared size
	data = data[:len(data)-4]

	path := filepath.Join(t.TempDir(), "short.wav")
	writeChunkedWAV(t, path, wavChunk("fmt ", fmtBody(wavFormatFloat, 1, 8000, 32, 0)), data)

	_, err := Decode(path)
	if !errors.Is(err, ErrShortRead) {
		t.Errorf("Expected ErrShortRead, got %v", err)
	}
}

func TestDecodeUnsupportedWAV(t *testing.T) {
	pcm := make([]byte, 64)

	tests := []struct {
		name string
		fmt  []byte
	}{
		{"a-law", fmtBody(6, 1, 8000, 8, 0)},
		{"extensible a-law", fmtBody(wavFormatExtensible, 1, 8000, 8, 6)},
		{"12-bit pcm", fmtBody(wavFormatPCM, 1, 8000, 12, 0)},
		{"20-bit pcm", fmtBody(wavFormatPCM, 2, 8000, 20, 0)},
		{"16-bit float", fmtBody(wavFormatFloat, 1, 8000, 16, 0)},
		{"truncated extensible fmt", fmtBody(wavFormatExtensible, 1, 8000, 16, 1)[:18]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "odd.wav")
			writeChunkedWAV(t, path, wavChunk("fmt ", tt.fmt), wavChunk("data", pcm))

			_, err := Decode(path)
			if !errors.Is(err, ErrOpen) {
				t.Errorf("Expected ErrOpen, got %v", err)
			}
		})
	}
}

func TestDecodeWAVMissingDataChunk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nodata.wav")
	writeChunkedWAV(t, path, wavChunk("fmt ", fmtBody(wavFormatPCM, 1, 8000, 16, 0)))

	_, err := Decode(path)
	if !errors.Is(err, ErrOpen) {
		t.Errorf("Expected ErrOpen, got %v", err)
	}
}

func TestWAVContainerBytes(t *testing.T) {
	tests := []struct {
		bits, expected int
	}{
		{0, 0}, {8, 1}, {12, 2}, {16, 2}, {20, 3}, {24, 3}, {32, 4},
	}
	for _, tt := range tests {
		wf := &wavFormat{BitDepth: tt.bits}
		if got := wf.containerBytes(); got != tt.expected {
			t.Errorf("containerBytes(%d) = %d, expected %d", tt.bits, got, tt.expected)
		}
	}
}
