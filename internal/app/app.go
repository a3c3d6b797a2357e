// Package app wires the engine, kernel and transformers behind the
// operations the metricgraph CLI exposes.
package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"

	"github.com/chazu/metricgraph/internal/config"
	"github.com/chazu/metricgraph/pkg/engine"
	"github.com/chazu/metricgraph/pkg/graph"
	"github.com/chazu/metricgraph/pkg/kernel"
	"github.com/chazu/metricgraph/pkg/kernel/sdfx"
	"github.com/chazu/metricgraph/pkg/meshgraph"
	"github.com/chazu/metricgraph/pkg/pipeline"
	"github.com/chazu/metricgraph/pkg/shortest"
	"github.com/chazu/metricgraph/pkg/transform"
)

// App holds the shared state of one CLI invocation.
type App struct {
	cfg    *config.Config
	log    *zap.Logger
	engine *engine.Engine
	kernel kernel.Kernel
}

// ErrorData is a pipeline program error with its source position.
type ErrorData struct {
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Message string `json:"message"`
}

// EvalResult is the outcome of running a pipeline program.
type EvalResult struct {
	Steps  []string      `json:"steps"`
	Output pipeline.Data `json:"-"`
	Errors []ErrorData   `json:"errors"`
}

// Err folds the result errors into one error, or nil.
func (r EvalResult) Err() error {
	switch len(r.Errors) {
	case 0:
		return nil
	case 1:
		return errorAt(r.Errors[0])
	}
	return fmt.Errorf("%w (and %d more)", errorAt(r.Errors[0]), len(r.Errors)-1)
}

func errorAt(e ErrorData) error {
	if e.Line > 0 {
		return fmt.Errorf("line %d: %s", e.Line, e.Message)
	}
	return fmt.Errorf("%s", e.Message)
}

// New creates an App with the sdfx kernel. A nil logger disables logging.
func New(cfg *config.Config, log *zap.Logger) *App {
	if log == nil {
		log = zap.NewNop()
	}
	eng := engine.NewEngine()
	eng.Timeout = cfg.Engine.Timeout
	return &App{
		cfg:    cfg,
		log:    log,
		engine: eng,
		kernel: sdfx.New(),
	}
}

// Runner returns the execution settings every transformer runs with.
func (a *App) Runner() transform.Runner {
	return transform.Runner{Workers: a.cfg.Workers, Logger: a.log}
}

// Evaluate compiles a pipeline program and runs it on in.
func (a *App) Evaluate(ctx context.Context, source string, in pipeline.Data) EvalResult {
	result := EvalResult{
		Steps:  []string{},
		Errors: []ErrorData{},
	}

	// Step 1: Evaluate the Lisp source into a pipeline.
	p, evalErrs, err := a.engine.Evaluate(source)
	if err != nil {
		a.log.Error("evaluate failed", zap.Error(err))
		result.Errors = append(result.Errors, ErrorData{Message: err.Error()})
		return result
	}
	if len(evalErrs) > 0 {
		for _, e := range evalErrs {
			result.Errors = append(result.Errors, ErrorData{
				Line:    e.Line,
				Col:     e.Col,
				Message: e.Message,
			})
		}
		return result
	}
	result.Steps = p.Names()

	// Step 2: Check the steps chain from the input kind.
	out, err := p.Validate(in.Kind)
	if err != nil {
		result.Errors = append(result.Errors, ErrorData{Message: err.Error()})
		return result
	}
	a.log.Debug("pipeline compiled",
		zap.Strings("steps", result.Steps),
		zap.Stringer("input", in.Kind),
		zap.Stringer("output", out))

	// Step 3: Run it.
	data, err := a.Run(ctx, p, in)
	if err != nil {
		result.Errors = append(result.Errors, ErrorData{Message: err.Error()})
		return result
	}
	result.Output = data
	return result
}

// Run executes p on in with the configured runner.
func (a *App) Run(ctx context.Context, p *pipeline.Pipeline, in pipeline.Data) (pipeline.Data, error) {
	p.SetRunner(a.Runner())
	start := time.Now()
	data, err := p.Run(ctx, in)
	if err != nil {
		a.log.Error("pipeline failed", zap.Strings("steps", p.Names()), zap.Error(err))
		return pipeline.Data{}, err
	}
	a.log.Info("pipeline done",
		zap.Strings("steps", p.Names()),
		zap.Int("samples", data.Len()),
		zap.Duration("elapsed", time.Since(start)))
	return data, nil
}

// SurfaceOptions selects the solid and sampling for surface geodesics.
type SurfaceOptions struct {
	Shape string
	Size  float64
	Cells int     // marching cube cells; zero uses the configured default
	Weld  float64 // vertex weld tolerance; negative uses the configured default
}

// SurfaceResult holds the welded mesh graph and its geodesic distances.
type SurfaceResult struct {
	Shape     string
	Triangles int
	Points    *mat.Dense
	Graph     *graph.Adjacency
	Distances *mat.Dense
}

// Surface meshes a named solid and computes geodesic distances along its
// surface edges between every pair of welded vertices.
func (a *App) Surface(ctx context.Context, opts SurfaceOptions) (*SurfaceResult, error) {
	if opts.Cells == 0 {
		opts.Cells = a.cfg.Surface.Cells
	}
	if opts.Weld < 0 {
		opts.Weld = a.cfg.Surface.Weld
	}

	solid, err := kernel.Shape(a.kernel, opts.Shape, opts.Size)
	if err != nil {
		return nil, err
	}
	mesh, err := a.kernel.Triangulate(solid, opts.Cells)
	if err != nil {
		return nil, err
	}
	surface, err := meshgraph.FromMesh(mesh, opts.Weld)
	if err != nil {
		return nil, err
	}
	a.log.Info("surface meshed",
		zap.String("shape", opts.Shape),
		zap.Int("triangles", mesh.TriangleCount()),
		zap.Int("vertices", surface.Len()),
		zap.Int("edges", surface.Graph.NumEdges()))

	gg := transform.NewGraphGeodesicDistance()
	gg.Runner = a.Runner()
	gg.Method = shortest.Dijkstra
	D, err := gg.FitTransform(ctx, []*graph.Adjacency{surface.Graph})
	if err != nil {
		return nil, err
	}
	return &SurfaceResult{
		Shape:     opts.Shape,
		Triangles: mesh.TriangleCount(),
		Points:    surface.Points,
		Graph:     surface.Graph,
		Distances: D[0],
	}, nil
}
