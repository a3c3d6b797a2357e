package shortest

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/chazu/metricgraph/pkg/graph"
)

var allMethods = []Method{FloydWarshall, Dijkstra, BellmanFord, Johnson}

// path4 is the weighted path 0 -1- 1 -2- 2 -3- 3 plus an isolated vertex 4,
// with only forward entries stored.
func path4() *graph.Adjacency {
	a := graph.New(5)
	a.Set(0, 1, 1)
	a.Set(1, 2, 2)
	a.Set(2, 3, 3)
	return a
}

func assertMatrix(t *testing.T, got *mat.Dense, want [][]float64) {
	t.Helper()
	for i, row := range want {
		for j, w := range row {
			g := got.At(i, j)
			if math.IsInf(w, 1) {
				if !math.IsInf(g, 1) {
					t.Errorf("(%d, %d) = %v, want +Inf", i, j, g)
				}
				continue
			}
			if math.Abs(g-w) > 1e-12 {
				t.Errorf("(%d, %d) = %v, want %v", i, j, g, w)
			}
		}
	}
}

func TestAllPairsUndirected(t *testing.T) {
	inf := math.Inf(1)
	want := [][]float64{
		{0, 1, 3, 6, inf},
		{1, 0, 2, 5, inf},
		{3, 2, 0, 3, inf},
		{6, 5, 3, 0, inf},
		{inf, inf, inf, inf, 0},
	}
	for _, m := range append(allMethods, Auto) {
		t.Run(m.String(), func(t *testing.T) {
			d, err := AllPairs(path4(), Options{Method: m})
			if err != nil {
				t.Fatalf("AllPairs failed: %v", err)
			}
			assertMatrix(t, d, want)
		})
	}
}

func TestAllPairsDirected(t *testing.T) {
	inf := math.Inf(1)
	want := [][]float64{
		{0, 1, 3, 6, inf},
		{inf, 0, 2, 5, inf},
		{inf, inf, 0, 3, inf},
		{inf, inf, inf, 0, inf},
		{inf, inf, inf, inf, 0},
	}
	for _, m := range allMethods {
		t.Run(m.String(), func(t *testing.T) {
			d, err := AllPairs(path4(), Options{Directed: true, Method: m})
			if err != nil {
				t.Fatalf("AllPairs failed: %v", err)
			}
			assertMatrix(t, d, want)
		})
	}
}

func TestAllPairsUnweighted(t *testing.T) {
	d, err := AllPairs(path4(), Options{Unweighted: true})
	if err != nil {
		t.Fatalf("AllPairs failed: %v", err)
	}
	if d.At(0, 3) != 3 {
		t.Errorf("hop count (0, 3) = %v, want 3", d.At(0, 3))
	}
}

func TestAllPairsUsesMinimumOfBothDirections(t *testing.T) {
	a := graph.New(2)
	a.Set(0, 1, 5)
	a.Set(1, 0, 2)
	d, err := AllPairs(a, Options{})
	if err != nil {
		t.Fatalf("AllPairs failed: %v", err)
	}
	if d.At(0, 1) != 2 || d.At(1, 0) != 2 {
		t.Errorf("distances = %v, %v; want 2, 2", d.At(0, 1), d.At(1, 0))
	}
}

func TestAllPairsZeroWeightEdge(t *testing.T) {
	a := graph.New(3)
	a.Set(0, 1, 0)
	a.Set(1, 2, 4)
	d, err := AllPairs(a, Options{})
	if err != nil {
		t.Fatalf("AllPairs failed: %v", err)
	}
	if d.At(0, 1) != 0 {
		t.Errorf("(0, 1) = %v, want 0", d.At(0, 1))
	}
	if d.At(0, 2) != 4 {
		t.Errorf("(0, 2) = %v, want 4", d.At(0, 2))
	}
}

func TestAllPairsIgnoresSelfLoops(t *testing.T) {
	a := graph.New(2)
	a.Set(0, 0, -5)
	a.Set(0, 1, 1)
	d, err := AllPairs(a, Options{})
	if err != nil {
		t.Fatalf("AllPairs failed: %v", err)
	}
	if d.At(0, 0) != 0 {
		t.Errorf("diagonal = %v, want 0", d.At(0, 0))
	}
}

func TestAllPairsNegativeWeights(t *testing.T) {
	// 0 -> 1 (4), 0 -> 2 (1), 2 -> 1 (-2): shortest 0 -> 1 is -1.
	a := graph.New(3)
	a.Set(0, 1, 4)
	a.Set(0, 2, 1)
	a.Set(2, 1, -2)

	for _, m := range []Method{Auto, FloydWarshall, BellmanFord, Johnson} {
		t.Run(m.String(), func(t *testing.T) {
			d, err := AllPairs(a, Options{Directed: true, Method: m})
			if err != nil {
				t.Fatalf("AllPairs failed: %v", err)
			}
			if d.At(0, 1) != -1 {
				t.Errorf("(0, 1) = %v, want -1", d.At(0, 1))
			}
		})
	}

	if _, err := AllPairs(a, Options{Directed: true, Method: Dijkstra}); !errors.Is(err, ErrNegativeWeight) {
		t.Errorf("Dijkstra error = %v, want ErrNegativeWeight", err)
	}
	if _, err := AllPairs(a, Options{}); !errors.Is(err, ErrNegativeCycle) {
		t.Errorf("undirected error = %v, want ErrNegativeCycle", err)
	}
}

func TestAllPairsNegativeCycle(t *testing.T) {
	a := graph.New(3)
	a.Set(0, 1, 1)
	a.Set(1, 2, -3)
	a.Set(2, 0, 1)

	for _, m := range []Method{FloydWarshall, BellmanFord, Johnson} {
		t.Run(m.String(), func(t *testing.T) {
			_, err := AllPairs(a, Options{Directed: true, Method: m})
			if !errors.Is(err, ErrNegativeCycle) {
				t.Errorf("error = %v, want ErrNegativeCycle", err)
			}
		})
	}
}

func TestAllPairsEmptyGraph(t *testing.T) {
	if _, err := AllPairs(graph.New(0), Options{}); err == nil {
		t.Error("expected error for empty graph")
	}
}

func TestResolve(t *testing.T) {
	sparse := graph.New(10)
	sparse.Set(0, 1, 1)

	dense := graph.New(3)
	dense.Set(0, 1, 1)
	dense.Set(1, 2, 1)

	negative := graph.New(2)
	negative.Set(0, 1, -1)

	tests := []struct {
		name string
		a    *graph.Adjacency
		opts Options
		want Method
	}{
		{"sparse", sparse, Options{}, Dijkstra},
		{"dense", dense, Options{}, FloydWarshall},
		{"negative", negative, Options{Directed: true}, Johnson},
		{"negative unweighted", negative, Options{Unweighted: true}, FloydWarshall},
		{"explicit", dense, Options{Method: BellmanFord}, BellmanFord},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.opts.Resolve(tt.a); got != tt.want {
				t.Errorf("Resolve() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestParseMethod(t *testing.T) {
	tests := map[string]Method{
		"":               Auto,
		"auto":           Auto,
		"FW":             FloydWarshall,
		"floyd-warshall": FloydWarshall,
		"D":              Dijkstra,
		"bf":             BellmanFord,
		"J":              Johnson,
	}
	for in, want := range tests {
		got, err := ParseMethod(in)
		if err != nil || got != want {
			t.Errorf("ParseMethod(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseMethod("astar"); err == nil {
		t.Error("expected error for unknown method")
	}
}
