// Package transform implements the four metricgraph transformers:
// TransitionGraph and KNeighborsGraph build graphs from data,
// GraphGeodesicDistance and FermatDistance extract metric spaces.
//
// Every transformer follows the fit/transform convention. Fit validates the
// hyper-parameters and the shape of the input collection; Transform maps
// each sample independently, in parallel when Workers allows it.
package transform

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"

	"github.com/chazu/metricgraph/pkg/graph"
)

// ErrNotFitted is returned by Transform when Fit has not succeeded yet.
var ErrNotFitted = errors.New("transformer is not fitted; call Fit first")

// ErrEmptyInput is returned when the input collection has no samples.
var ErrEmptyInput = errors.New("input collection is empty")

// Transformer is the fit/transform contract shared by all transformers.
type Transformer[In, Out any] interface {
	Fit(ctx context.Context, X []In) error
	Transform(ctx context.Context, X []In) ([]Out, error)
	FitTransform(ctx context.Context, X []In) ([]Out, error)
}

// Compile-time interface checks.
var (
	_ Transformer[mat.Matrix, *graph.Adjacency] = (*TransitionGraph)(nil)
	_ Transformer[mat.Matrix, *graph.Adjacency] = (*KNeighborsGraph)(nil)
	_ Transformer[*graph.Adjacency, *mat.Dense] = (*GraphGeodesicDistance)(nil)
	_ Transformer[mat.Matrix, *mat.Dense]       = (*FermatDistance)(nil)
)

// Runner holds the execution settings common to every transformer.
type Runner struct {
	// Workers bounds the number of samples processed concurrently. Zero and
	// one mean sequential; a negative value means one worker per CPU.
	Workers int

	// Logger receives debug and error records. Nil disables logging.
	Logger *zap.Logger
}

func (r Runner) log() *zap.Logger {
	if r.Logger == nil {
		return zap.NewNop()
	}
	return r.Logger
}

// ParamError reports an invalid hyper-parameter.
type ParamError struct {
	Transformer string
	Param       string
	Reason      string
}

func (e *ParamError) Error() string {
	return fmt.Sprintf("%s: invalid %s: %s", e.Transformer, e.Param, e.Reason)
}

func paramErr(transformer, param, format string, args ...any) error {
	return &ParamError{Transformer: transformer, Param: param, Reason: fmt.Sprintf(format, args...)}
}

// checkMatrices validates that a collection of dense samples is non-empty
// and free of nil entries.
func checkMatrices(name string, X []mat.Matrix) error {
	if len(X) == 0 {
		return fmt.Errorf("%s: %w", name, ErrEmptyInput)
	}
	for i, x := range X {
		if x == nil {
			return fmt.Errorf("%s: sample %d is nil", name, i)
		}
	}
	return nil
}
