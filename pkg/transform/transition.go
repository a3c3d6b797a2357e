package transform

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync/atomic"

	"gonum.org/v1/gonum/mat"

	"github.com/chazu/metricgraph/pkg/graph"
)

const transitionName = "transition_graph"

// StateFunc maps the feature vector of one time step to its state. It must
// not retain row.
type StateFunc func(row []float64) []float64

// Argsort is the default StateFunc. It returns the stable argsort of row as
// float64 indices, i.e. the ordinal pattern of the feature vector. NaN
// values sort last.
func Argsort(row []float64) []float64 {
	idx := make([]int, len(row))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return lessNaNLast(row[idx[a]], row[idx[b]])
	})
	out := make([]float64, len(idx))
	for i, v := range idx {
		out[i] = float64(v)
	}
	return out
}

// Identity uses the feature vector itself as the state.
func Identity(row []float64) []float64 {
	return append([]float64(nil), row...)
}

// TransitionGraph builds undirected transition graphs from a collection of
// time series. Each time series is a dense n_time_steps x n_features matrix.
// States are the distinct outputs of StateFunc over the time steps, numbered in
// lexicographic order; an edge joins two states whenever they occur at
// consecutive time steps. The output adjacency matrices are symmetric, have
// unit weights and no self-loops.
type TransitionGraph struct {
	Runner

	// StateFunc maps a time step to its state. Nil means Argsort.
	StateFunc StateFunc

	fitted atomic.Bool
}

// NewTransitionGraph returns a TransitionGraph with default parameters.
func NewTransitionGraph() *TransitionGraph {
	return &TransitionGraph{StateFunc: Argsort}
}

func (t *TransitionGraph) stateFunc() StateFunc {
	if t.StateFunc == nil {
		return Argsort
	}
	return t.StateFunc
}

// Fit validates the input collection.
func (t *TransitionGraph) Fit(ctx context.Context, X []mat.Matrix) error {
	if err := checkMatrices(transitionName, X); err != nil {
		return err
	}
	for i, x := range X {
		if steps, feats := x.Dims(); steps == 0 || feats == 0 {
			return fmt.Errorf("%s: sample %d has shape %dx%d, need at least one time step and one feature",
				transitionName, i, steps, feats)
		}
	}
	t.fitted.Store(true)
	return nil
}

// Transform returns one transition graph per time series.
func (t *TransitionGraph) Transform(ctx context.Context, X []mat.Matrix) ([]*graph.Adjacency, error) {
	if !t.fitted.Load() {
		return nil, fmt.Errorf("%s: %w", transitionName, ErrNotFitted)
	}
	if err := checkMatrices(transitionName, X); err != nil {
		return nil, err
	}
	fn := t.stateFunc()
	return mapSamples(ctx, transitionName, t.Runner, X, func(_ context.Context, x mat.Matrix) (*graph.Adjacency, error) {
		return transitionGraph(x, fn)
	})
}

// FitTransform fits and then transforms X.
func (t *TransitionGraph) FitTransform(ctx context.Context, X []mat.Matrix) ([]*graph.Adjacency, error) {
	if err := t.Fit(ctx, X); err != nil {
		return nil, err
	}
	return t.Transform(ctx, X)
}

// transitionGraph computes the transition graph of one time series.
func transitionGraph(x mat.Matrix, fn StateFunc) (*graph.Adjacency, error) {
	steps, feats := x.Dims()
	if steps == 0 {
		return nil, fmt.Errorf("time series has no time steps")
	}

	states := make([][]float64, steps)
	row := make([]float64, feats)
	for s := 0; s < steps; s++ {
		mat.Row(row, s, x)
		states[s] = fn(row)
		if len(states[s]) != len(states[0]) {
			return nil, fmt.Errorf("state function returned %d values at step %d, %d at step 0",
				len(states[s]), s, len(states[0]))
		}
	}

	ids, n := enumerateStates(states)
	a := graph.New(n)
	for s := 1; s < steps; s++ {
		u, v := ids[s-1], ids[s]
		if u == v {
			continue
		}
		a.Set(u, v, 1)
		a.Set(v, u, 1)
	}
	return a, nil
}

// enumerateStates assigns each time step the rank of its state among the
// distinct states in lexicographic order, and returns the number of
// distinct states.
func enumerateStates(states [][]float64) ([]int, int) {
	order := make([]int, len(states))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return compareStates(states[order[a]], states[order[b]]) < 0
	})

	ids := make([]int, len(states))
	next := -1
	for k, s := range order {
		if k == 0 || compareStates(states[order[k-1]], states[s]) != 0 {
			next++
		}
		ids[s] = next
	}
	return ids, next + 1
}

// compareStates orders states lexicographically, treating NaN as equal to
// NaN and greater than every number.
func compareStates(a, b []float64) int {
	for i := range a {
		switch {
		case lessNaNLast(a[i], b[i]):
			return -1
		case lessNaNLast(b[i], a[i]):
			return 1
		}
	}
	return 0
}

func lessNaNLast(x, y float64) bool {
	if math.IsNaN(x) {
		return false
	}
	if math.IsNaN(y) {
		return true
	}
	return x < y
}
