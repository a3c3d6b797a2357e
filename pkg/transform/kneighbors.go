package transform

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync/atomic"

	"gonum.org/v1/gonum/mat"

	"github.com/chazu/metricgraph/pkg/graph"
	"github.com/chazu/metricgraph/pkg/metric"
	"github.com/chazu/metricgraph/pkg/neighbors"
)

const kneighborsName = "kneighbors_graph"

// Mode selects the edge weights of a neighbor graph.
type Mode int

const (
	Connectivity Mode = iota // unit weights
	Distance                 // metric distance between the endpoints
)

func (m Mode) String() string {
	switch m {
	case Connectivity:
		return "connectivity"
	case Distance:
		return "distance"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode converts "connectivity" or "distance" to a Mode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "connectivity":
		return Connectivity, nil
	case "distance":
		return Distance, nil
	}
	return 0, fmt.Errorf("unknown mode %q", s)
}

// KNeighborsGraph builds symmetric k-nearest-neighbor graphs from a
// collection of point clouds. The edge i - j exists when j is among the
// NNeighbors nearest points of i or i is among those of j; a point is never
// its own neighbor. With metric.Precomputed each sample is a square
// distance matrix instead of a point cloud.
type KNeighborsGraph struct {
	Runner

	NNeighbors int
	Mode       Mode
	Metric     metric.Metric
	// P is the Minkowski exponent, used when Metric is metric.Minkowski.
	P         float64
	Algorithm neighbors.Algorithm

	fitted atomic.Bool
}

// NewKNeighborsGraph returns a KNeighborsGraph with 4 neighbors,
// connectivity weights and the Euclidean metric.
func NewKNeighborsGraph() *KNeighborsGraph {
	return &KNeighborsGraph{
		NNeighbors: 4,
		Mode:       Connectivity,
		Metric:     metric.Euclidean,
		P:          2,
		Algorithm:  neighbors.Auto,
	}
}

func (t *KNeighborsGraph) options() neighbors.Options {
	return neighbors.Options{Metric: t.Metric, P: t.P, Algorithm: t.Algorithm}
}

func (t *KNeighborsGraph) validateParams() error {
	if t.NNeighbors < 1 {
		return paramErr(kneighborsName, "NNeighbors", "must be >= 1, got %d", t.NNeighbors)
	}
	if t.Mode != Connectivity && t.Mode != Distance {
		return paramErr(kneighborsName, "Mode", "unknown mode %v", t.Mode)
	}
	if t.Metric == metric.Minkowski && !(t.P >= 1) {
		return paramErr(kneighborsName, "P", "must be >= 1, got %v", t.P)
	}
	if _, err := t.options().Resolve(); err != nil {
		return paramErr(kneighborsName, "Algorithm", "%v", err)
	}
	return nil
}

// Fit validates the hyper-parameters and the sample shapes.
func (t *KNeighborsGraph) Fit(ctx context.Context, X []mat.Matrix) error {
	if err := t.validateParams(); err != nil {
		return err
	}
	if err := checkPointClouds(kneighborsName, X, t.Metric); err != nil {
		return err
	}
	t.fitted.Store(true)
	return nil
}

// Transform returns one neighbor graph per sample.
func (t *KNeighborsGraph) Transform(ctx context.Context, X []mat.Matrix) ([]*graph.Adjacency, error) {
	if !t.fitted.Load() {
		return nil, fmt.Errorf("%s: %w", kneighborsName, ErrNotFitted)
	}
	if err := checkPointClouds(kneighborsName, X, t.Metric); err != nil {
		return nil, err
	}
	opts := t.options()
	return mapSamples(ctx, kneighborsName, t.Runner, X, func(_ context.Context, x mat.Matrix) (*graph.Adjacency, error) {
		return kneighborsGraph(x, t.NNeighbors, opts, func(d float64) float64 {
			if t.Mode == Connectivity {
				return 1
			}
			return d
		})
	})
}

// FitTransform fits and then transforms X.
func (t *KNeighborsGraph) FitTransform(ctx context.Context, X []mat.Matrix) ([]*graph.Adjacency, error) {
	if err := t.Fit(ctx, X); err != nil {
		return nil, err
	}
	return t.Transform(ctx, X)
}

// kneighborsGraph builds the symmetrised neighbor graph of one sample with
// edge weights weight(distance).
func kneighborsGraph(x mat.Matrix, k int, opts neighbors.Options, weight func(float64) float64) (*graph.Adjacency, error) {
	nbrs, err := neighbors.Search(x, k, opts)
	if err != nil {
		return nil, err
	}
	a := graph.New(len(nbrs))
	for i, list := range nbrs {
		for _, nb := range list {
			ok, err := usableDistance(nb.Distance, i, nb.Index)
			if err != nil {
				return nil, err
			}
			if ok {
				a.Set(i, nb.Index, weight(nb.Distance))
			}
		}
	}
	return a.Symmetrize(), nil
}

// usableDistance reports whether d between points i and j becomes an edge.
// +Inf marks an absent edge; negative and NaN distances are errors.
func usableDistance(d float64, i, j int) (bool, error) {
	switch {
	case math.IsInf(d, 1):
		return false, nil
	case d < 0 || math.IsNaN(d):
		return false, fmt.Errorf("invalid distance %v between points %d and %d", d, i, j)
	}
	return true, nil
}

// checkPointClouds validates a collection of point clouds, or of square
// distance matrices when m is metric.Precomputed.
func checkPointClouds(name string, X []mat.Matrix, m metric.Metric) error {
	if err := checkMatrices(name, X); err != nil {
		return err
	}
	for i, x := range X {
		r, c := x.Dims()
		if r == 0 || c == 0 {
			return fmt.Errorf("%s: sample %d is empty", name, i)
		}
		if m == metric.Precomputed && r != c {
			return fmt.Errorf("%s: sample %d must be a square distance matrix, got %dx%d", name, i, r, c)
		}
	}
	return nil
}
