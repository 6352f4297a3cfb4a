// Package similarity scores vectors against a reference and selects the closest ones.
package similarity

import (
	"math"
	"sort"
)

// Cosine returns the cosine similarity of a and b in [-1, 1].
// Mismatched lengths, empty vectors and zero magnitudes score 0.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, magA, magB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		magA += x * x
		magB += y * y
	}
	if magA == 0 || magB == 0 {
		return 0
	}
	return dot / (math.Sqrt(magA) * math.Sqrt(magB))
}

// Scored is a candidate index with its similarity to the reference.
type Scored struct {
	Index int
	Score float64
}

// Rank scores every vector against reference, sorted by score descending and
// index ascending on ties.
func Rank(vectors [][]float32, reference []float32) []Scored {
	scored := make([]Scored, len(vectors))
	for i, v := range vectors {
		scored[i] = Scored{Index: i, Score: Cosine(v, reference)}
	}
	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].Index < scored[j].Index
	})
	return scored
}

// Filter returns the indices of vectors whose similarity to reference is at
// least threshold, best first, capped at maxResults. When nothing reaches the
// threshold the top min(maxResults, len(vectors)) indices are returned instead,
// so the result is only empty for empty input. maxResults <= 0 means no cap.
func Filter(vectors [][]float32, reference []float32, threshold float64, maxResults int) []int {
	if len(vectors) == 0 {
		return []int{}
	}
	if maxResults <= 0 || maxResults > len(vectors) {
		maxResults = len(vectors)
	}

	ranked := Rank(vectors, reference)
	accepted := make([]int, 0, maxResults)
	for _, s := range ranked {
		if len(accepted) == maxResults {
			break
		}
		if s.Score >= threshold {
			accepted = append(accepted, s.Index)
		}
	}
	if len(accepted) > 0 {
		return accepted
	}

	for _, s := range ranked[:maxResults] {
		accepted = append(accepted, s.Index)
	}
	return accepted
}

// Mean returns the element-wise average of vectors, or nil when there are none.
func Mean(vectors [][]float32) []float32 {
	if len(vectors) == 0 {
		return nil
	}
	dim := len(vectors[0])
	sums := make([]float64, dim)
	for _, v := range vectors {
		for d := 0; d < dim && d < len(v); d++ {
			sums[d] += float64(v[d])
		}
	}
	mean := make([]float32, dim)
	for d, s := range sums {
		mean[d] = float32(s / float64(len(vectors)))
	}
	return mean
}
