package cluster

import (
	"reflect"
	"testing"
)

func TestPartition(t *testing.T) {
	tests := []struct {
		name    string
		vectors [][]float32
		maxK    int
		want    [][]int
	}{
		{
			name:    "single vector",
			vectors: [][]float32{{1, 2}},
			maxK:    3,
			want:    [][]int{{0}},
		},
		{
			name:    "max k of one",
			vectors: [][]float32{{0, 0}, {9, 9}, {4, 1}},
			maxK:    1,
			want:    [][]int{{0, 1, 2}},
		},
		{
			name:    "two obvious clusters",
			vectors: [][]float32{{0, 0}, {0.1, 0}, {10, 10}, {10, 10.1}},
			maxK:    2,
			want:    [][]int{{0, 1}, {2, 3}},
		},
		{
			name:    "singleton merged into large group",
			vectors: [][]float32{{0, 0}, {0.2, 0}, {5, 5}},
			maxK:    2,
			want:    [][]int{{0, 1, 2}},
		},
		{
			name:    "all singletons are kept",
			vectors: [][]float32{{0, 0}, {10, 0}, {0, 10}},
			maxK:    3,
			want:    [][]int{{0}, {1}, {2}},
		},
		{
			name: "ordered by size then smallest member",
			vectors: [][]float32{
				{0, 0}, {0.1, 0}, {0, 0.1},
				{10, 10}, {10.1, 10},
				{-10, 10}, {-10.1, 10},
			},
			maxK: 3,
			want: [][]int{{0, 1, 2}, {3, 4}, {5, 6}},
		},
		{
			name:    "identical vectors collapse",
			vectors: [][]float32{{1, 1}, {1, 1}, {1, 1}},
			maxK:    3,
			want:    [][]int{{0, 1, 2}},
		},
		{
			name:    "max k below one treated as one",
			vectors: [][]float32{{0}, {5}},
			maxK:    0,
			want:    [][]int{{0, 1}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Partition(tt.vectors, tt.maxK)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Partition() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPartitionCoversEveryIndexOnce(t *testing.T) {
	vectors := [][]float32{
		{0.3, 0.9, 0.1}, {0.8, 0.2, 0.5}, {0.1, 0.1, 0.1}, {0.9, 0.9, 0.9},
		{0.4, 0.6, 0.2}, {0.7, 0.3, 0.8}, {0.2, 0.5, 0.4}, {0.6, 0.1, 0.3},
		{0.5, 0.5, 0.5},
	}
	for maxK := 1; maxK <= len(vectors)+1; maxK++ {
		groups := Partition(vectors, maxK)
		if len(groups) > maxK {
			t.Errorf("maxK=%d: got %d groups", maxK, len(groups))
		}
		seen := make(map[int]bool)
		for _, g := range groups {
			if len(g) == 0 {
				t.Fatalf("maxK=%d: empty group in %v", maxK, groups)
			}
			for i, idx := range g {
				if seen[idx] {
					t.Errorf("maxK=%d: index %d appears twice", maxK, idx)
				}
				seen[idx] = true
				if i > 0 && g[i-1] >= idx {
					t.Errorf("maxK=%d: members not ascending: %v", maxK, g)
				}
			}
		}
		if len(seen) != len(vectors) {
			t.Errorf("maxK=%d: covered %d indices, want %d", maxK, len(seen), len(vectors))
		}
	}
}

func TestPartitionDeterministic(t *testing.T) {
	vectors := [][]float32{{0.1, 0.2}, {0.9, 0.8}, {0.15, 0.25}, {0.85, 0.9}, {0.5, 0.5}}
	first := Partition(vectors, 3)
	for i := 0; i < 5; i++ {
		if got := Partition(vectors, 3); !reflect.DeepEqual(got, first) {
			t.Fatalf("run %d: Partition() = %v, want %v", i, got, first)
		}
	}
}

func TestPartitionEmpty(t *testing.T) {
	if got := Partition(nil, 3); got != nil {
		t.Errorf("Partition(nil) = %v, want nil", got)
	}
}
