// Package neighbors finds the k nearest neighbors of every point in a point
// cloud, either by brute force under any metric or with a gonum kd-tree for
// the Euclidean distance.
package neighbors

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/chazu/metricgraph/pkg/metric"
)

// Algorithm selects the search strategy.
type Algorithm int

const (
	Auto   Algorithm = iota // kd-tree for Euclidean, brute force otherwise
	Brute                   // exhaustive pairwise search
	KDTree                  // gonum kd-tree, Euclidean only
)

func (a Algorithm) String() string {
	switch a {
	case Auto:
		return "auto"
	case Brute:
		return "brute"
	case KDTree:
		return "kd_tree"
	default:
		return fmt.Sprintf("Algorithm(%d)", int(a))
	}
}

// ParseAlgorithm converts an algorithm name to an Algorithm.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return Auto, nil
	case "brute":
		return Brute, nil
	case "kd_tree", "kd-tree", "kdtree":
		return KDTree, nil
	}
	return 0, fmt.Errorf("unknown neighbor search algorithm %q", s)
}

// Neighbor is one result of a neighbor query.
type Neighbor struct {
	Index    int
	Distance float64
}

// Options configures a search.
type Options struct {
	Metric    metric.Metric
	P         float64 // Minkowski exponent
	Algorithm Algorithm
}

// Resolve returns the concrete algorithm used for these options.
func (o Options) Resolve() (Algorithm, error) {
	switch o.Algorithm {
	case Auto:
		if o.Metric.IsEuclidean(o.P) {
			return KDTree, nil
		}
		return Brute, nil
	case Brute:
		return Brute, nil
	case KDTree:
		if !o.Metric.IsEuclidean(o.P) {
			return 0, fmt.Errorf("kd_tree search requires the euclidean metric, got %s", o.Metric)
		}
		return KDTree, nil
	}
	return 0, fmt.Errorf("unknown neighbor search algorithm %v", o.Algorithm)
}

// Search returns, for every row of points, its k nearest other rows ordered
// by distance and then by index. The query point itself is never returned.
// With metric.Precomputed, points must be a square distance matrix whose row
// i holds the distances from point i.
func Search(points mat.Matrix, k int, opts Options) ([][]Neighbor, error) {
	n, _ := points.Dims()
	if k < 1 {
		return nil, fmt.Errorf("number of neighbors must be >= 1, got %d", k)
	}
	if k >= n {
		return nil, fmt.Errorf("number of neighbors %d must be smaller than the number of points %d", k, n)
	}
	algo, err := opts.Resolve()
	if err != nil {
		return nil, err
	}
	if algo == KDTree {
		return searchKDTree(points, k), nil
	}
	d, err := metric.Pairwise(points, opts.Metric, opts.P)
	if err != nil {
		return nil, err
	}
	return searchBrute(d, k), nil
}

// searchBrute reads neighbors off a full distance matrix.
func searchBrute(d *mat.Dense, k int) [][]Neighbor {
	n, _ := d.Dims()
	out := make([][]Neighbor, n)
	candidates := make([]Neighbor, 0, n-1)
	for i := 0; i < n; i++ {
		candidates = candidates[:0]
		for j := 0; j < n; j++ {
			if j == i {
				continue
			}
			candidates = append(candidates, Neighbor{Index: j, Distance: d.At(i, j)})
		}
		sortNeighbors(candidates)
		out[i] = append([]Neighbor(nil), candidates[:k]...)
	}
	return out
}

// sortNeighbors orders by distance then index. NaN distances sort last.
func sortNeighbors(ns []Neighbor) {
	sort.Slice(ns, func(a, b int) bool {
		da, db := ns[a].Distance, ns[b].Distance
		if da != db {
			if math.IsNaN(da) {
				return false
			}
			if math.IsNaN(db) {
				return true
			}
			return da < db
		}
		return ns[a].Index < ns[b].Index
	})
}
