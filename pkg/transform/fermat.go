package transform

import (
	"context"
	"fmt"
	"math"
	"sync/atomic"

	"gonum.org/v1/gonum/mat"

	"github.com/chazu/metricgraph/pkg/graph"
	"github.com/chazu/metricgraph/pkg/metric"
	"github.com/chazu/metricgraph/pkg/neighbors"
	"github.com/chazu/metricgraph/pkg/shortest"
)

const fermatName = "fermat_distance"

// FermatDistance computes sample Fermat distances of point clouds: the
// shortest path lengths in the graph whose edge weights are the pairwise
// distances raised to the power P. Larger P favours paths through dense
// regions of the cloud.
//
// With NNeighbors zero the complete graph is used. Otherwise paths are
// restricted to the symmetrised NNeighbors-nearest-neighbor graph and pairs
// in different components are +Inf.
type FermatDistance struct {
	Runner

	P          float64
	Metric     metric.Metric
	MinkowskiP float64
	NNeighbors int
	Method     shortest.Method

	fitted atomic.Bool
}

// NewFermatDistance returns a FermatDistance with exponent 2 on the complete
// Euclidean graph.
func NewFermatDistance() *FermatDistance {
	return &FermatDistance{
		P:          2,
		Metric:     metric.Euclidean,
		MinkowskiP: 2,
		Method:     shortest.Auto,
	}
}

func (t *FermatDistance) validateParams() error {
	if !(t.P >= 1) || math.IsInf(t.P, 1) {
		return paramErr(fermatName, "P", "must be a finite value >= 1, got %v", t.P)
	}
	if t.Metric == metric.Minkowski && !(t.MinkowskiP >= 1) {
		return paramErr(fermatName, "MinkowskiP", "must be >= 1, got %v", t.MinkowskiP)
	}
	if t.NNeighbors < 0 {
		return paramErr(fermatName, "NNeighbors", "must be >= 0, got %d", t.NNeighbors)
	}
	if t.Method < shortest.Auto || t.Method > shortest.Johnson {
		return paramErr(fermatName, "Method", "unknown method %v", t.Method)
	}
	return nil
}

// Fit validates the hyper-parameters and the sample shapes.
func (t *FermatDistance) Fit(ctx context.Context, X []mat.Matrix) error {
	if err := t.validateParams(); err != nil {
		return err
	}
	if err := checkPointClouds(fermatName, X, t.Metric); err != nil {
		return err
	}
	t.fitted.Store(true)
	return nil
}

// Transform returns one Fermat distance matrix per sample.
func (t *FermatDistance) Transform(ctx context.Context, X []mat.Matrix) ([]*mat.Dense, error) {
	if !t.fitted.Load() {
		return nil, fmt.Errorf("%s: %w", fermatName, ErrNotFitted)
	}
	if err := checkPointClouds(fermatName, X, t.Metric); err != nil {
		return nil, err
	}
	return mapSamples(ctx, fermatName, t.Runner, X, func(_ context.Context, x mat.Matrix) (*mat.Dense, error) {
		a, err := t.fermatGraph(x)
		if err != nil {
			return nil, err
		}
		return shortest.AllPairs(a, shortest.Options{Method: t.Method})
	})
}

// FitTransform fits and then transforms X.
func (t *FermatDistance) FitTransform(ctx context.Context, X []mat.Matrix) ([]*mat.Dense, error) {
	if err := t.Fit(ctx, X); err != nil {
		return nil, err
	}
	return t.Transform(ctx, X)
}

// fermatGraph builds the weighted graph of one sample.
func (t *FermatDistance) fermatGraph(x mat.Matrix) (*graph.Adjacency, error) {
	power := func(d float64) float64 { return math.Pow(d, t.P) }

	if t.NNeighbors > 0 {
		opts := neighbors.Options{Metric: t.Metric, P: t.MinkowskiP, Algorithm: neighbors.Auto}
		return kneighborsGraph(x, t.NNeighbors, opts, power)
	}

	d, err := metric.Pairwise(x, t.Metric, t.MinkowskiP)
	if err != nil {
		return nil, err
	}
	n, _ := d.Dims()
	a := graph.New(n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			dij := d.At(i, j)
			ok, err := usableDistance(dij, i, j)
			if err != nil {
				return nil, err
			}
			if ok {
				a.Set(i, j, power(dij))
			}
		}
	}
	return a, nil
}
