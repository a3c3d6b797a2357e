// Package meshgraph turns triangle meshes into weighted graphs whose
// shortest paths approximate geodesic distances on the surface.
package meshgraph

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/kdtree"

	"github.com/chazu/metricgraph/pkg/graph"
	"github.com/chazu/metricgraph/pkg/kernel"
)

// Surface is a welded mesh: one row of Points per distinct vertex and an
// undirected adjacency joining vertices that share a triangle edge, weighted
// by the Euclidean edge length.
type Surface struct {
	Points *mat.Dense
	Graph  *graph.Adjacency
}

// Len returns the number of welded vertices.
func (s *Surface) Len() int {
	return s.Graph.Len()
}

// FromMesh welds vertices closer than weld and builds the edge graph of m.
// A weld of zero merges only identical vertices. Triangles that collapse
// under welding contribute only their remaining edges.
func FromMesh(m *kernel.Mesh, weld float64) (*Surface, error) {
	if m == nil || m.IsEmpty() {
		return nil, fmt.Errorf("mesh is empty")
	}
	if weld < 0 || math.IsNaN(weld) {
		return nil, fmt.Errorf("weld tolerance must be >= 0, got %v", weld)
	}
	if len(m.Vertices)%3 != 0 || len(m.Indices)%3 != 0 {
		return nil, fmt.Errorf("mesh arrays are not multiples of 3: %d vertex floats, %d indices",
			len(m.Vertices), len(m.Indices))
	}

	var w welder
	if weld == 0 {
		w = newExactWelder()
	} else {
		w = newTreeWelder(weld)
	}
	ids := make([]int, m.VertexCount())
	for i := range ids {
		ids[i] = w.weld(m.Vertex(i))
	}

	points := w.points()
	a := graph.New(len(points))
	for t := 0; t < m.TriangleCount(); t++ {
		tri := m.Triangle(t)
		for e := 0; e < 3; e++ {
			u, v := tri[e], tri[(e+1)%3]
			if u >= len(ids) || v >= len(ids) {
				return nil, fmt.Errorf("triangle %d references vertex %d, mesh has %d", t, max(u, v), len(ids))
			}
			wu, wv := ids[u], ids[v]
			if wu == wv {
				continue
			}
			d := floats.Distance(points[wu][:], points[wv][:], 2)
			a.Set(wu, wv, d)
			a.Set(wv, wu, d)
		}
	}

	data := make([]float64, 0, 3*len(points))
	for _, p := range points {
		data = append(data, p[0], p[1], p[2])
	}
	return &Surface{Points: mat.NewDense(len(points), 3, data), Graph: a}, nil
}

// welder assigns each vertex the index of its welded representative.
type welder interface {
	weld(p [3]float64) int
	points() [][3]float64
}

type exactWelder struct {
	index map[[3]float64]int
	pts   [][3]float64
}

func newExactWelder() *exactWelder {
	return &exactWelder{index: make(map[[3]float64]int)}
}

func (w *exactWelder) weld(p [3]float64) int {
	if i, ok := w.index[p]; ok {
		return i
	}
	i := len(w.pts)
	w.index[p] = i
	w.pts = append(w.pts, p)
	return i
}

func (w *exactWelder) points() [][3]float64 { return w.pts }

// treeWelder merges a vertex into the nearest representative within tol,
// found with a kd-tree that grows as representatives are added.
type treeWelder struct {
	tol2 float64
	tree *kdtree.Tree
	pts  [][3]float64
}

func newTreeWelder(tol float64) *treeWelder {
	return &treeWelder{tol2: tol * tol, tree: &kdtree.Tree{}}
}

func (w *treeWelder) weld(p [3]float64) int {
	q := vertex{coords: kdtree.Point{p[0], p[1], p[2]}}
	if nearest, d2 := w.tree.Nearest(q); nearest != nil && d2 <= w.tol2 {
		return nearest.(vertex).index
	}
	q.index = len(w.pts)
	w.tree.Insert(q, false)
	w.pts = append(w.pts, p)
	return q.index
}

func (w *treeWelder) points() [][3]float64 { return w.pts }

// vertex is a kdtree.Comparable carrying its representative index.
type vertex struct {
	index  int
	coords kdtree.Point
}

func (v vertex) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	return v.coords.Compare(c.(vertex).coords, d)
}

func (v vertex) Dims() int { return len(v.coords) }

func (v vertex) Distance(c kdtree.Comparable) float64 {
	return v.coords.Distance(c.(vertex).coords)
}
