// Package shortest computes all-pairs shortest path lengths on an
// adjacency matrix using the gonum graph/path algorithms.
package shortest

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/mat"

	"github.com/chazu/metricgraph/pkg/graph"
)

var (
	// ErrNegativeCycle is returned when the graph has a cycle of negative
	// total weight. In an undirected graph any negative edge is one.
	ErrNegativeCycle = errors.New("negative cycle detected")

	// ErrNegativeWeight is returned when Dijkstra is requested on a graph
	// with negative weights.
	ErrNegativeWeight = errors.New("dijkstra requires non-negative weights")
)

// Method selects the all-pairs algorithm.
type Method int

const (
	Auto          Method = iota // chosen from density and sign of weights
	FloydWarshall               // O(V^3)
	Dijkstra                    // one Dijkstra per source
	BellmanFord                 // one Bellman-Ford per source
	Johnson                     // reweighting + Dijkstra
)

func (m Method) String() string {
	switch m {
	case Auto:
		return "auto"
	case FloydWarshall:
		return "FW"
	case Dijkstra:
		return "D"
	case BellmanFord:
		return "BF"
	case Johnson:
		return "J"
	default:
		return fmt.Sprintf("Method(%d)", int(m))
	}
}

// ParseMethod accepts the short names auto, FW, D, BF and J as well as the
// spelled-out algorithm names, case-insensitively.
func ParseMethod(s string) (Method, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return Auto, nil
	case "fw", "floyd-warshall", "floyd_warshall":
		return FloydWarshall, nil
	case "d", "dijkstra":
		return Dijkstra, nil
	case "bf", "bellman-ford", "bellman_ford":
		return BellmanFord, nil
	case "j", "johnson":
		return Johnson, nil
	}
	return 0, fmt.Errorf("unknown shortest path method %q", s)
}

// denseThreshold is the edge density above which Auto picks Floyd-Warshall.
const denseThreshold = 0.25

// Options configures AllPairs.
type Options struct {
	Directed   bool
	Unweighted bool
	Method     Method
}

// Resolve returns the concrete method AllPairs will run for a.
func (o Options) Resolve(a *graph.Adjacency) Method {
	if o.Method != Auto {
		return o.Method
	}
	if !o.Unweighted && a.HasNegative() {
		return Johnson
	}
	n := a.Len()
	if n > 1 && float64(a.NumEdges())/float64(n*(n-1)) > denseThreshold {
		return FloydWarshall
	}
	return Dijkstra
}

// AllPairs returns the n x n matrix of shortest path lengths of a. The
// diagonal is zero and unreachable pairs are +Inf. Self-loops are ignored.
// In the undirected case a path may use an edge in either direction and the
// smaller of the two stored weights is used.
func AllPairs(a *graph.Adjacency, opts Options) (*mat.Dense, error) {
	n := a.Len()
	if n == 0 {
		return nil, fmt.Errorf("graph has no vertices")
	}
	method := opts.Resolve(a)

	negative := !opts.Unweighted && a.HasNegative()
	if negative && !opts.Directed {
		return nil, ErrNegativeCycle
	}
	if negative && method == Dijkstra {
		return nil, ErrNegativeWeight
	}

	var g graph.WeightedGraph
	if opts.Directed {
		g = a.Directed(opts.Unweighted)
	} else {
		g = a.Undirected(opts.Unweighted)
	}

	var weight func(i, j int) float64
	switch method {
	case FloydWarshall:
		paths, ok := path.FloydWarshall(g)
		if !ok {
			return nil, ErrNegativeCycle
		}
		weight = func(i, j int) float64 { return paths.Weight(int64(i), int64(j)) }
	case Dijkstra:
		paths := path.DijkstraAllPaths(g)
		weight = func(i, j int) float64 { return paths.Weight(int64(i), int64(j)) }
	case Johnson:
		paths, ok := path.JohnsonAllPaths(g)
		if !ok {
			return nil, ErrNegativeCycle
		}
		weight = func(i, j int) float64 { return paths.Weight(int64(i), int64(j)) }
	case BellmanFord:
		trees := make([]path.Shortest, n)
		for i := 0; i < n; i++ {
			tree, ok := path.BellmanFordFrom(simple.Node(i), g)
			if !ok {
				return nil, ErrNegativeCycle
			}
			trees[i] = tree
		}
		weight = func(i, j int) float64 { return trees[i].WeightTo(int64(j)) }
	default:
		return nil, fmt.Errorf("unknown shortest path method %v", method)
	}

	dist := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			w := weight(i, j)
			if math.IsNaN(w) {
				w = math.Inf(1)
			}
			dist.Set(i, j, w)
		}
	}
	return dist, nil
}
