package similarity

import (
	"math"
	"reflect"
	"testing"
)

func TestCosine(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"parallel", []float32{1, 0}, []float32{2, 0}, 1},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"orthogonal", []float32{1, 0}, []float32{0, 3}, 0},
		{"zero vector", []float32{0, 0}, []float32{1, 1}, 0},
		{"both zero", []float32{0, 0}, []float32{0, 0}, 0},
		{"length mismatch", []float32{1, 0, 0}, []float32{1, 0}, 0},
		{"empty", nil, nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Cosine(tt.a, tt.b)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Cosine(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestFilter(t *testing.T) {
	ref := []float32{1, 0}
	vectors := [][]float32{
		{0, 1},    // 0.0
		{1, 0.1},  // ~0.995
		{-1, 0},   // -1
		{1, 1},    // ~0.707
		{2, 0.2},  // ~0.995, ties with index 1
	}

	tests := []struct {
		name       string
		threshold  float64
		maxResults int
		want       []int
	}{
		{"threshold selects", 0.5, 5, []int{1, 4, 3}},
		{"truncated to max results", 0.5, 2, []int{1, 4}},
		{"fallback when nothing passes", 1.5, 2, []int{1, 4}},
		{"fallback capped at input size", 1.5, 10, []int{1, 4, 3, 0, 2}},
		{"negative threshold takes everything", -1, 5, []int{1, 4, 3, 0, 2}},
		{"no cap", 0.9, 0, []int{1, 4}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Filter(vectors, ref, tt.threshold, tt.maxResults)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Filter() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFilterEmpty(t *testing.T) {
	got := Filter(nil, []float32{1, 0}, 0.3, 3)
	if len(got) != 0 {
		t.Errorf("Filter(nil) = %v, want empty", got)
	}
}

func TestFilterZeroReference(t *testing.T) {
	got := Filter([][]float32{{1, 0}, {0, 1}}, []float32{0, 0}, 0.3, 1)
	if !reflect.DeepEqual(got, []int{0}) {
		t.Errorf("Filter() = %v, want [0]", got)
	}
}

func TestMean(t *testing.T) {
	got := Mean([][]float32{{1, 2}, {3, 4}})
	if !reflect.DeepEqual(got, []float32{2, 3}) {
		t.Errorf("Mean() = %v, want [2 3]", got)
	}
	if Mean(nil) != nil {
		t.Error("Mean(nil) should be nil")
	}
}
