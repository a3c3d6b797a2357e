package engine

import (
	"context"
	"strings"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/chazu/metricgraph/pkg/metric"
	"github.com/chazu/metricgraph/pkg/neighbors"
	"github.com/chazu/metricgraph/pkg/pipeline"
	"github.com/chazu/metricgraph/pkg/shortest"
	"github.com/chazu/metricgraph/pkg/transform"
)

// ---------------------------------------------------------------------------
// Preprocessing tests
// ---------------------------------------------------------------------------

func TestPreprocessKeywords(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		expect string
	}{
		{
			name:   "simple keyword",
			input:  `(kneighbors-graph :mode :distance)`,
			expect: `(kneighbors_graph "__kw_mode" "__kw_distance")`,
		},
		{
			name:   "keyword with number",
			input:  `(fermat-distance :p 3)`,
			expect: `(fermat_distance "__kw_p" 3)`,
		},
		{
			name:   "keyword in string preserved",
			input:  `"thing with :keyword inside"`,
			expect: `"thing with :keyword inside"`,
		},
		{
			name:   "escaped quote in string",
			input:  `"a \" :b" :c`,
			expect: `"a \" :b" "__kw_c"`,
		},
		{
			name:   "backtick string preserved",
			input:  "`raw :kw a-b`",
			expect: "`raw :kw a-b`",
		},
		{
			name:   "assignment operator preserved",
			input:  `(def x := 10)`,
			expect: `(def x := 10)`,
		},
		{
			name:   "kebab-case identifier",
			input:  `(graph-geodesic-distance :method :FW)`,
			expect: `(graph_geodesic_distance "__kw_method" "__kw_FW")`,
		},
		{
			name:   "minus operator preserved",
			input:  `(- 10 5)`,
			expect: `(- 10 5)`,
		},
		{
			name:   "negative literal preserved",
			input:  `(+ x -1)`,
			expect: `(+ x -1)`,
		},
		{
			name:   "comment converted to // style",
			input:  `;; comment with :keyword`,
			expect: `// comment with :keyword`,
		},
		{
			name:   "single semicolon comment",
			input:  `; simple comment`,
			expect: `// simple comment`,
		},
		{
			name:   "hyphen in keyword preserved",
			input:  `:n-neighbors`,
			expect: `"__kw_n-neighbors"`,
		},
		{
			name:   "underscore in keyword preserved",
			input:  `:kd_tree`,
			expect: `"__kw_kd_tree"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := preprocessSource(tt.input)
			if got != tt.expect {
				t.Errorf("preprocessSource(%q) = %q, want %q", tt.input, got, tt.expect)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Builtin tests
// ---------------------------------------------------------------------------

func evaluateOK(t *testing.T, source string) *pipeline.Pipeline {
	t.Helper()
	p, evalErrs, err := NewEngine().Evaluate(source)
	if err != nil {
		t.Fatalf("fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("eval errors: %v", evalErrs)
	}
	if p == nil {
		t.Fatal("expected non-nil pipeline")
	}
	return p
}

func evaluateErr(t *testing.T, source, want string) {
	t.Helper()
	p, evalErrs, err := NewEngine().Evaluate(source)
	if err != nil {
		t.Fatalf("expected non-fatal eval error, got fatal: %v", err)
	}
	if p != nil {
		t.Fatal("expected nil pipeline")
	}
	if len(evalErrs) == 0 {
		t.Fatal("expected eval errors")
	}
	if !strings.Contains(evalErrs[0].Message, want) {
		t.Errorf("error %q should mention %q", evalErrs[0].Message, want)
	}
}

func TestKNeighborsGraphBuiltin(t *testing.T) {
	p := evaluateOK(t, `
; distance-weighted neighbor graph
(pipeline
  (kneighbors-graph :n-neighbors 3 :mode :distance :metric :minkowski :p 3 :algorithm :brute))
`)
	if len(p.Steps) != 1 {
		t.Fatalf("expected 1 step, got %d", len(p.Steps))
	}
	kg, ok := p.Steps[0].Transformer().(*transform.KNeighborsGraph)
	if !ok {
		t.Fatalf("expected *KNeighborsGraph, got %T", p.Steps[0].Transformer())
	}
	if kg.NNeighbors != 3 {
		t.Errorf("NNeighbors = %d, want 3", kg.NNeighbors)
	}
	if kg.Mode != transform.Distance {
		t.Errorf("Mode = %s, want distance", kg.Mode)
	}
	if kg.Metric != metric.Minkowski {
		t.Errorf("Metric = %s, want minkowski", kg.Metric)
	}
	if kg.P != 3 {
		t.Errorf("P = %v, want 3", kg.P)
	}
	if kg.Algorithm != neighbors.Brute {
		t.Errorf("Algorithm = %s, want brute", kg.Algorithm)
	}
}

func TestKNeighborsGraphDefaults(t *testing.T) {
	p := evaluateOK(t, `(kneighbors-graph)`)
	kg := p.Steps[0].Transformer().(*transform.KNeighborsGraph)
	if kg.NNeighbors != 4 || kg.Mode != transform.Connectivity || kg.Metric != metric.Euclidean {
		t.Errorf("unexpected defaults: %+v", kg)
	}
}

func TestGraphGeodesicDistanceBuiltin(t *testing.T) {
	p := evaluateOK(t, `(pipeline (transition-graph) (graph-geodesic-distance :directed true :unweighted true :method :BF))`)
	gg, ok := p.Steps[1].Transformer().(*transform.GraphGeodesicDistance)
	if !ok {
		t.Fatalf("expected *GraphGeodesicDistance, got %T", p.Steps[1].Transformer())
	}
	if !gg.Directed || !gg.Unweighted {
		t.Errorf("Directed/Unweighted = %v/%v, want true/true", gg.Directed, gg.Unweighted)
	}
	if gg.Method != shortest.BellmanFord {
		t.Errorf("Method = %s, want BF", gg.Method)
	}
}

func TestFermatDistanceBuiltin(t *testing.T) {
	p := evaluateOK(t, `(fermat-distance :p 4 :n-neighbors 5 :metric :manhattan :method :J)`)
	fd, ok := p.Steps[0].Transformer().(*transform.FermatDistance)
	if !ok {
		t.Fatalf("expected *FermatDistance, got %T", p.Steps[0].Transformer())
	}
	if fd.P != 4 || fd.NNeighbors != 5 || fd.Metric != metric.Manhattan || fd.Method != shortest.Johnson {
		t.Errorf("unexpected parameters: %+v", fd)
	}
}

func TestTransitionGraphStateBuiltin(t *testing.T) {
	p := evaluateOK(t, `(transition-graph :state "identity")`)
	tg := p.Steps[0].Transformer().(*transform.TransitionGraph)
	if got := tg.StateFunc([]float64{3, 1}); got[0] != 3 || got[1] != 1 {
		t.Errorf("identity state function returned %v", got)
	}
}

func TestPipelineAcceptsList(t *testing.T) {
	p := evaluateOK(t, `(pipeline (list (kneighbors-graph :n-neighbors 1) (graph-geodesic-distance)))`)
	if len(p.Steps) != 2 {
		t.Fatalf("expected 2 steps, got %d", len(p.Steps))
	}
}

func TestLastPipelineWins(t *testing.T) {
	p := evaluateOK(t, `
(def p1 (pipeline (fermat-distance)))
(def p2 (pipeline (transition-graph) (graph-geodesic-distance)))
(+ 1 2)
`)
	if got := strings.Join(p.Names(), ","); got != "transition-graph,graph-geodesic-distance" {
		t.Errorf("steps = %s", got)
	}
}

func TestBuiltinErrors(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   string
	}{
		{"unknown keyword", `(kneighbors-graph :neighbours 3)`, "unknown keyword :neighbours"},
		{"bad mode", `(kneighbors-graph :mode :binary)`, "mode"},
		{"non-integer neighbors", `(kneighbors-graph :n-neighbors 2.5)`, "n-neighbors"},
		{"bad metric", `(fermat-distance :metric :hamming)`, "metric"},
		{"bad method", `(graph-geodesic-distance :method :astar)`, "method"},
		{"non-bool directed", `(graph-geodesic-distance :directed 1)`, "directed"},
		{"bad state", `(transition-graph :state :random)`, "state"},
		{"positional argument", `(fermat-distance 2)`, "positional"},
		{"empty pipeline", `(pipeline)`, "at least one step"},
		{"non-step in pipeline", `(pipeline 42)`, "expected step"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			evaluateErr(t, tt.source, tt.want)
		})
	}
}

func TestEvaluatedPipelineRuns(t *testing.T) {
	p := evaluateOK(t, `
(pipeline
  (kneighbors-graph :n-neighbors 1 :mode :distance)
  (graph-geodesic-distance))
`)
	points := pipeline.PointsData([]mat.Matrix{mat.NewDense(4, 1, []float64{0, 1, 3, 7})})
	out, err := p.Run(context.Background(), points)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if got := out.Matrices[0].At(0, 3); got != 7 {
		t.Errorf("distance 0 -> 3 = %v, want 7", got)
	}
}
