// Package cluster partitions embedding vectors into a bounded number of groups.
package cluster

import (
	"math"
	"math/rand/v2"
	"sort"
)

const (
	// Seed fixes the k-means++ initialisation so identical inputs give identical groups.
	Seed = 42
	// Restarts is the number of independent initialisations; the lowest-inertia run wins.
	Restarts = 10
	// MaxIterations caps Lloyd iterations per run.
	MaxIterations = 300
)

// Partition splits vectors into at most maxK groups of indices.
//
// Every index in [0, len(vectors)) appears in exactly one group. Singleton
// groups are folded into the nearest group of size two or more when one
// exists. Groups are ordered by size descending then by smallest member, and
// members are listed in ascending order.
func Partition(vectors [][]float32, maxK int) [][]int {
	n := len(vectors)
	if n == 0 {
		return nil
	}
	k := min(max(maxK, 1), n)
	if k == 1 {
		all := make([]int, n)
		for i := range all {
			all[i] = i
		}
		return [][]int{all}
	}

	points := toFloat64(vectors)
	best := fitBest(points, k)

	groups := make([][]int, k)
	for i, label := range best.labels {
		groups[label] = append(groups[label], i)
	}

	groups = mergeSingletons(points, groups)
	return order(groups)
}

type model struct {
	labels  []int
	centers [][]float64
	inertia float64
}

func fitBest(points [][]float64, k int) model {
	rng := rand.New(rand.NewPCG(Seed, Seed))
	var best model
	for run := 0; run < Restarts; run++ {
		m := fit(points, k, rng)
		if run == 0 || m.inertia < best.inertia {
			best = m
		}
	}
	return best
}

func fit(points [][]float64, k int, rng *rand.Rand) model {
	centers := seedCenters(points, k, rng)
	labels := make([]int, len(points))
	for i := range labels {
		labels[i] = -1
	}

	for iter := 0; iter < MaxIterations; iter++ {
		changed := false
		for i, p := range points {
			nearest, _ := nearestCenter(p, centers)
			if nearest != labels[i] {
				labels[i] = nearest
				changed = true
			}
		}
		if !changed {
			break
		}
		centers = recomputeCenters(points, labels, centers)
	}

	var inertia float64
	for i, p := range points {
		inertia += squaredDistance(p, centers[labels[i]])
	}
	return model{labels: labels, centers: centers, inertia: inertia}
}

// seedCenters implements k-means++: each next center is drawn with
// probability proportional to its squared distance from the closest chosen one.
func seedCenters(points [][]float64, k int, rng *rand.Rand) [][]float64 {
	centers := make([][]float64, 0, k)
	centers = append(centers, clone(points[rng.IntN(len(points))]))

	weights := make([]float64, len(points))
	for len(centers) < k {
		var total float64
		for i, p := range points {
			_, d := nearestCenter(p, centers)
			weights[i] = d
			total += d
		}

		pick := rng.IntN(len(points))
		if total > 0 {
			target := rng.Float64() * total
			var acc float64
			for i, w := range weights {
				acc += w
				if acc >= target && w > 0 {
					pick = i
					break
				}
			}
		}
		centers = append(centers, clone(points[pick]))
	}
	return centers
}

// recomputeCenters averages members per label. A label with no members keeps its previous center.
func recomputeCenters(points [][]float64, labels []int, previous [][]float64) [][]float64 {
	dim := len(points[0])
	sums := make([][]float64, len(previous))
	counts := make([]int, len(previous))
	for i := range sums {
		sums[i] = make([]float64, dim)
	}
	for i, p := range points {
		l := labels[i]
		counts[l]++
		for d, v := range p {
			sums[l][d] += v
		}
	}
	for l := range sums {
		if counts[l] == 0 {
			sums[l] = clone(previous[l])
			continue
		}
		for d := range sums[l] {
			sums[l][d] /= float64(counts[l])
		}
	}
	return sums
}

// mergeSingletons moves each singleton member into the nearest group with at
// least two members. Targets are fixed before any move so merge order does
// not matter. When every group is a singleton nothing changes.
func mergeSingletons(points [][]float64, groups [][]int) [][]int {
	var large []int
	for g, members := range groups {
		if len(members) >= 2 {
			large = append(large, g)
		}
	}
	if len(large) == 0 {
		return groups
	}

	targets := make([][]float64, len(large))
	for i, g := range large {
		targets[i] = centroid(points, groups[g])
	}

	merged := make([][]int, len(groups))
	for g, members := range groups {
		merged[g] = append([]int(nil), members...)
	}
	for g, members := range groups {
		if len(members) != 1 {
			continue
		}
		nearest, _ := nearestCenter(points[members[0]], targets)
		dst := large[nearest]
		merged[dst] = append(merged[dst], members[0])
		merged[g] = nil
	}
	return merged
}

func order(groups [][]int) [][]int {
	out := make([][]int, 0, len(groups))
	for _, members := range groups {
		if len(members) == 0 {
			continue
		}
		sorted := append([]int(nil), members...)
		sort.Ints(sorted)
		out = append(out, sorted)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if len(out[i]) != len(out[j]) {
			return len(out[i]) > len(out[j])
		}
		return out[i][0] < out[j][0]
	})
	return out
}

// nearestCenter returns the index of the closest center and the squared
// distance to it. Ties resolve to the lowest index.
func nearestCenter(p []float64, centers [][]float64) (int, float64) {
	best, bestDist := 0, math.Inf(1)
	for c, center := range centers {
		if d := squaredDistance(p, center); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best, bestDist
}

func centroid(points [][]float64, members []int) []float64 {
	c := make([]float64, len(points[members[0]]))
	for _, m := range members {
		for d, v := range points[m] {
			c[d] += v
		}
	}
	for d := range c {
		c[d] /= float64(len(members))
	}
	return c
}

func squaredDistance(a, b []float64) float64 {
	var sum float64
	for i := range a {
		if i >= len(b) {
			break
		}
		diff := a[i] - b[i]
		sum += diff * diff
	}
	return sum
}

func toFloat64(vectors [][]float32) [][]float64 {
	dim := 0
	for _, v := range vectors {
		dim = max(dim, len(v))
	}
	out := make([][]float64, len(vectors))
	for i, v := range vectors {
		out[i] = make([]float64, dim)
		for d, x := range v {
			out[i][d] = float64(x)
		}
	}
	return out
}

func clone(v []float64) []float64 {
	return append([]float64(nil), v...)
}
