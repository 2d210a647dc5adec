package tempo

import (
	"math"
	"testing"
)

func TestEnvelopeAlternatingSigns(t *testing.T) {
	env := Envelope([]float32{1, -1, 1, -1}, 0.1)

	expected := []float32{1, 1, 1, 1}
	if len(env) != len(expected) {
		t.Fatalf("Expected %d values, got %d", len(expected), len(env))
	}
	for i := range expected {
		if env[i] != expected[i] {
			t.Errorf("env[%d]: expected %v, got %v", i, expected[i], env[i])
		}
	}
}

func TestEnvelopeRecurrence(t *testing.T) {
	in := []float32{0, -2, 0, 0.5}
	a := float32(0.1)

	env := Envelope(in, a)

	// hand-computed in float32
	want := make([]float32, 4)
	want[0] = 0
	want[1] = float32(a*2) + float32((1-a)*want[0])
	want[2] = float32(a*0) + float32((1-a)*want[1])
	want[3] = float32(a*0.5) + float32((1-a)*want[2])

	for i := range want {
		if env[i] != want[i] {
			t.Errorf("env[%d]: expected %v, got %v", i, want[i], env[i])
		}
	}
	if math.Abs(float64(env[1])-0.2) > 1e-6 {
		t.Errorf("Expected env[1] ~= 0.2, got %v", env[1])
	}
}

func TestEnvelopeNonNegative(t *testing.T) {
	in := make([]float32, 2048)
	for i := range in {
		in[i] = float32(math.Sin(float64(i)*0.37)) * -0.8
	}

	env := Envelope(in, DefaultSmoothing)

	for i, v := range env {
		if v < 0 {
			t.Fatalf("env[%d] is negative: %v", i, v)
		}
	}
}

func TestEnvelopeDoesNotMutateInput(t *testing.T) {
	in := []float32{-1, -0.5, 0.25}
	Envelope(in, 0.5)

	if in[0] != -1 || in[1] != -0.5 || in[2] != 0.25 {
		t.Errorf("Input was modified: %v", in)
	}
}

func TestEnvelopeEmpty(t *testing.T) {
	if env := Envelope(nil, DefaultSmoothing); len(env) != 0 {
		t.Errorf("Expected empty envelope, got %d values", len(env))
	}
}
