// Package pipeline chains transformers into an ordered sequence whose
// input and output kinds are checked before anything runs.
package pipeline

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"

	"github.com/chazu/metricgraph/pkg/graph"
	"github.com/chazu/metricgraph/pkg/metric"
	"github.com/chazu/metricgraph/pkg/transform"
)

// Kind is the type of a collection flowing between steps.
type Kind int

const (
	// Points are point clouds or time series, one dense matrix per sample.
	Points Kind = iota
	// Graphs are adjacency matrices.
	Graphs
	// Distances are square distance matrices.
	Distances
)

func (k Kind) String() string {
	switch k {
	case Points:
		return "points"
	case Graphs:
		return "graphs"
	case Distances:
		return "distances"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ParseKind converts "points", "graphs" or "distances" to a Kind.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "points":
		return Points, nil
	case "graphs":
		return Graphs, nil
	case "distances":
		return Distances, nil
	}
	return 0, fmt.Errorf("unknown data kind %q", s)
}

// Data is a collection of samples of one Kind. Matrices holds Points and
// Distances samples, Graphs holds Graphs samples.
type Data struct {
	Kind     Kind
	Matrices []mat.Matrix
	Graphs   []*graph.Adjacency
}

// Len returns the number of samples.
func (d Data) Len() int {
	if d.Kind == Graphs {
		return len(d.Graphs)
	}
	return len(d.Matrices)
}

// PointsData wraps point clouds.
func PointsData(X []mat.Matrix) Data { return Data{Kind: Points, Matrices: X} }

// DistancesData wraps distance matrices.
func DistancesData(X []mat.Matrix) Data { return Data{Kind: Distances, Matrices: X} }

// GraphsData wraps adjacency matrices.
func GraphsData(X []*graph.Adjacency) Data { return Data{Kind: Graphs, Graphs: X} }

// Step is one transformer in a pipeline.
type Step interface {
	Name() string
	Accepts(k Kind) bool
	Output() Kind
	// Transformer returns the wrapped transformer.
	Transformer() any
	// SetRunner replaces the execution settings of the wrapped transformer.
	SetRunner(r transform.Runner)
	Run(ctx context.Context, in Data) (Data, error)
}

// Pipeline runs its steps in order, feeding each step's output to the next.
type Pipeline struct {
	Steps []Step
}

// New returns a pipeline of the given steps.
func New(steps ...Step) *Pipeline {
	return &Pipeline{Steps: steps}
}

// Names returns the step names in order.
func (p *Pipeline) Names() []string {
	names := make([]string, len(p.Steps))
	for i, s := range p.Steps {
		names[i] = s.Name()
	}
	return names
}

// SetRunner applies r to every step.
func (p *Pipeline) SetRunner(r transform.Runner) {
	for _, s := range p.Steps {
		s.SetRunner(r)
	}
}

// Validate checks that the steps chain starting from input and returns the
// kind of the final output.
func (p *Pipeline) Validate(input Kind) (Kind, error) {
	if len(p.Steps) == 0 {
		return input, fmt.Errorf("pipeline has no steps")
	}
	k := input
	for i, s := range p.Steps {
		if !s.Accepts(k) {
			return k, fmt.Errorf("step %d (%s) does not accept %s", i, s.Name(), k)
		}
		k = s.Output()
	}
	return k, nil
}

// Run validates the pipeline against in.Kind and fit-transforms each step in
// order.
func (p *Pipeline) Run(ctx context.Context, in Data) (Data, error) {
	if _, err := p.Validate(in.Kind); err != nil {
		return Data{}, err
	}
	cur := in
	for i, s := range p.Steps {
		out, err := s.Run(ctx, cur)
		if err != nil {
			return Data{}, fmt.Errorf("step %d (%s): %w", i, s.Name(), err)
		}
		cur = out
	}
	return cur, nil
}

// ---------------------------------------------------------------------------
// Step adapters
// ---------------------------------------------------------------------------

type step[In, Out any] struct {
	name    string
	t       transform.Transformer[In, Out]
	runner  *transform.Runner
	accepts func(Kind) bool
	out     Kind
	in      func(Data) []In
	wrap    func([]Out) Data
}

func (s *step[In, Out]) Name() string                 { return s.name }
func (s *step[In, Out]) Accepts(k Kind) bool          { return s.accepts(k) }
func (s *step[In, Out]) Output() Kind                 { return s.out }
func (s *step[In, Out]) Transformer() any             { return s.t }
func (s *step[In, Out]) SetRunner(r transform.Runner) { *s.runner = r }

func (s *step[In, Out]) Run(ctx context.Context, in Data) (Data, error) {
	if !s.accepts(in.Kind) {
		return Data{}, fmt.Errorf("%s does not accept %s", s.name, in.Kind)
	}
	if l := s.runner.Logger; l != nil {
		l.Debug("pipeline step", zap.String("step", s.name), zap.Int("samples", in.Len()))
	}
	y, err := s.t.FitTransform(ctx, s.in(in))
	if err != nil {
		return Data{}, err
	}
	return s.wrap(y), nil
}

func matrices(d Data) []mat.Matrix         { return d.Matrices }
func graphs(d Data) []*graph.Adjacency     { return d.Graphs }
func only(k Kind) func(Kind) bool          { return func(in Kind) bool { return in == k } }
func wrapGraphs(y []*graph.Adjacency) Data { return GraphsData(y) }

func wrapDistances(y []*mat.Dense) Data {
	X := make([]mat.Matrix, len(y))
	for i, d := range y {
		X[i] = d
	}
	return DistancesData(X)
}

// pointsOrDistances accepts point clouds, and distance matrices when the
// metric is precomputed.
func pointsOrDistances(m *metric.Metric) func(Kind) bool {
	return func(k Kind) bool {
		if *m == metric.Precomputed {
			return k == Distances
		}
		return k == Points
	}
}

// Transition wraps a TransitionGraph: points to graphs.
func Transition(t *transform.TransitionGraph) Step {
	return &step[mat.Matrix, *graph.Adjacency]{
		name: "transition-graph", t: t, runner: &t.Runner,
		accepts: only(Points), out: Graphs, in: matrices, wrap: wrapGraphs,
	}
}

// KNeighbors wraps a KNeighborsGraph: points, or distances with the
// precomputed metric, to graphs.
func KNeighbors(t *transform.KNeighborsGraph) Step {
	return &step[mat.Matrix, *graph.Adjacency]{
		name: "kneighbors-graph", t: t, runner: &t.Runner,
		accepts: pointsOrDistances(&t.Metric), out: Graphs, in: matrices, wrap: wrapGraphs,
	}
}

// Geodesic wraps a GraphGeodesicDistance: graphs to distances.
func Geodesic(t *transform.GraphGeodesicDistance) Step {
	return &step[*graph.Adjacency, *mat.Dense]{
		name: "graph-geodesic-distance", t: t, runner: &t.Runner,
		accepts: only(Graphs), out: Distances, in: graphs, wrap: wrapDistances,
	}
}

// Fermat wraps a FermatDistance: points, or distances with the precomputed
// metric, to distances.
func Fermat(t *transform.FermatDistance) Step {
	return &step[mat.Matrix, *mat.Dense]{
		name: "fermat-distance", t: t, runner: &t.Runner,
		accepts: pointsOrDistances(&t.Metric), out: Distances, in: matrices, wrap: wrapDistances,
	}
}
