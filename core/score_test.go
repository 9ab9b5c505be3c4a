package core

import (
	"math"
	"testing"
)

func TestDecodeScore_Monotonic(t *testing.T) {
	// Higher raw codes must decode to higher scores for a fixed factor.
	const factor = 1000.0
	prev := -1.0
	for code := 0; code <= 7; code++ {
		got := DecodeScore(float64(code), factor)
		if got <= prev {
			t.Fatalf("DecodeScore(%d, %v) = %v, not greater than %v", code, factor, got, prev)
		}
		prev = got
	}
}

func TestDecodeScore_Zero(t *testing.T) {
	if got := DecodeScore(0, 1000); got != 0 {
		t.Errorf("DecodeScore(0, 1000) = %v, want 0", got)
	}
	if got := DecodeScore(5, 0); got != 0 {
		t.Errorf("DecodeScore(5, 0) = %v, want 0", got)
	}
}

func TestDecodeScore_TopOfScale(t *testing.T) {
	// A full 3-bit code decodes back to the factor itself.
	if got := DecodeScore(7, 12345); got != 12345 {
		t.Errorf("DecodeScore(7, 12345) = %v, want 12345", got)
	}
}

func TestEncodeDecodeScore(t *testing.T) {
	const max = 500000.0
	for _, score := range []float64{1, 10, 1000, 250000, max} {
		code := EncodeScore(score, max)
		decoded := DecodeScore(float64(code), max)
		// Log-scale encoding is lossy but must never decode below the input's
		// next-lower bucket.
		lower := DecodeScore(float64(code)-1, max)
		if decoded < score && score > 1 && lower >= score {
			t.Errorf("EncodeScore(%v) = %d decodes to %v, bucket floor %v", score, code, decoded, lower)
		}
	}
}

func TestDecodeScoredist(t *testing.T) {
	const factor = 700.0

	// Within the 3-bit range: log decode.
	if got, want := DecodeScoredist(7, factor), factor; got != want {
		t.Errorf("DecodeScoredist(7, %v) = %v, want %v", factor, got, want)
	}

	// Beyond the 3-bit range: linear decode.
	if got, want := DecodeScoredist(14, factor), factor/7*14; got != want {
		t.Errorf("DecodeScoredist(14, %v) = %v, want %v", factor, got, want)
	}
}

func TestRound8(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want float64
	}{
		{"exact", 0.5, 0.5},
		{"rounds half up", 0.000000005, 0.00000001},
		{"rounds down", 0.000000004, 0},
		{"negative half away from zero", -0.000000005, -0.00000001},
		{"long tail", 1.0/3.0, 0.33333333},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Round8(tt.in); math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("Round8(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
