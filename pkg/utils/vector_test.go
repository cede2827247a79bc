package utils

import (
	"math"
	"testing"
)

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical direction", []float32{1, 0}, []float32{2, 0}, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"mismatched lengths", []float32{1, 0}, []float32{1}, 0},
		{"empty", nil, nil, 0},
		{"zero magnitude", []float32{0, 0}, []float32{1, 1}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CosineSimilarity(tt.a, tt.b)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("CosineSimilarity() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNormalizeUnitLength(t *testing.T) {
	normalized := Normalize([]float32{3, 4})
	if normalized == nil {
		t.Fatal("Normalize() = nil for a non-zero vector")
	}

	var sum float64
	for _, x := range normalized {
		sum += float64(x) * float64(x)
	}
	if math.Abs(math.Sqrt(sum)-1) > 1e-6 {
		t.Errorf("normalized magnitude = %v, want 1", math.Sqrt(sum))
	}
	if math.Abs(float64(normalized[0])-0.6) > 1e-6 {
		t.Errorf("normalized[0] = %v, want 0.6", normalized[0])
	}
}

func TestNormalizeDegenerateInputs(t *testing.T) {
	if Normalize(nil) != nil {
		t.Error("Normalize(nil) should be nil")
	}
	if Normalize([]float32{0, 0, 0}) != nil {
		t.Error("Normalize of a zero vector should be nil")
	}
}
