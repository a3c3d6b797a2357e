package transform

import (
	"context"
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"

	"github.com/chazu/metricgraph/pkg/graph"
	"github.com/chazu/metricgraph/pkg/shortest"
)

const geodesicName = "graph_geodesic_distance"

// GraphGeodesicDistance computes the matrix of shortest path lengths of
// each graph in a collection. Unreachable pairs are +Inf and the diagonal is
// zero. When Directed is false a path may use an edge in either direction;
// when Unweighted is set every edge has length one.
type GraphGeodesicDistance struct {
	Runner

	Directed   bool
	Unweighted bool
	Method     shortest.Method

	fitted atomic.Bool
}

// NewGraphGeodesicDistance returns an undirected, weighted
// GraphGeodesicDistance with automatic method selection.
func NewGraphGeodesicDistance() *GraphGeodesicDistance {
	return &GraphGeodesicDistance{Method: shortest.Auto}
}

func (t *GraphGeodesicDistance) options() shortest.Options {
	return shortest.Options{Directed: t.Directed, Unweighted: t.Unweighted, Method: t.Method}
}

func (t *GraphGeodesicDistance) validateParams() error {
	if t.Method < shortest.Auto || t.Method > shortest.Johnson {
		return paramErr(geodesicName, "Method", "unknown method %v", t.Method)
	}
	return nil
}

// Fit validates the hyper-parameters and every adjacency matrix. Warnings
// are logged at debug level.
func (t *GraphGeodesicDistance) Fit(ctx context.Context, X []*graph.Adjacency) error {
	if err := t.validateParams(); err != nil {
		return err
	}
	if err := t.checkGraphs(X); err != nil {
		return err
	}
	t.fitted.Store(true)
	return nil
}

func (t *GraphGeodesicDistance) checkGraphs(X []*graph.Adjacency) error {
	if len(X) == 0 {
		return fmt.Errorf("%s: %w", geodesicName, ErrEmptyInput)
	}
	log := t.log()
	for i, a := range X {
		var result graph.ValidationResult
		if t.Directed {
			result = graph.Validate(a)
		} else {
			result = graph.ValidateUndirected(a)
		}
		if err := result.Err(); err != nil {
			return fmt.Errorf("%s: sample %d: %w", geodesicName, i, err)
		}
		for _, w := range result.Warnings {
			log.Debug("adjacency warning", zap.Int("sample", i), zap.String("finding", w.Error()))
		}
	}
	return nil
}

// Transform returns one distance matrix per graph.
func (t *GraphGeodesicDistance) Transform(ctx context.Context, X []*graph.Adjacency) ([]*mat.Dense, error) {
	if !t.fitted.Load() {
		return nil, fmt.Errorf("%s: %w", geodesicName, ErrNotFitted)
	}
	if err := t.checkGraphs(X); err != nil {
		return nil, err
	}
	opts := t.options()
	return mapSamples(ctx, geodesicName, t.Runner, X, func(_ context.Context, a *graph.Adjacency) (*mat.Dense, error) {
		return shortest.AllPairs(a, opts)
	})
}

// FitTransform fits and then transforms X.
func (t *GraphGeodesicDistance) FitTransform(ctx context.Context, X []*graph.Adjacency) ([]*mat.Dense, error) {
	if err := t.Fit(ctx, X); err != nil {
		return nil, err
	}
	return t.Transform(ctx, X)
}

// FromDense converts a collection of dense adjacency matrices in which +Inf
// marks an absent edge.
func FromDense(X []mat.Matrix) ([]*graph.Adjacency, error) {
	out := make([]*graph.Adjacency, len(X))
	for i, x := range X {
		a, err := graph.FromDense(x, graph.AbsentInf)
		if err != nil {
			return nil, fmt.Errorf("sample %d: %w", i, err)
		}
		out[i] = a
	}
	return out, nil
}
