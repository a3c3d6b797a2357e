package graph

import (
	"fmt"
	"math"
	"sort"
)

// Adjacency is a square sparse weighted adjacency matrix over vertices
// 0..Len()-1. A stored entry (i, j) is an edge from i to j; entries that are
// not stored are absent edges. Explicitly stored zero weights are edges of
// weight zero.
type Adjacency struct {
	n    int
	rows []map[int]float64
}

// New creates an empty adjacency matrix with n vertices.
func New(n int) *Adjacency {
	if n < 0 {
		panic(fmt.Sprintf("graph: negative vertex count %d", n))
	}
	rows := make([]map[int]float64, n)
	for i := range rows {
		rows[i] = make(map[int]float64)
	}
	return &Adjacency{n: n, rows: rows}
}

// Len returns the number of vertices.
func (a *Adjacency) Len() int {
	return a.n
}

func (a *Adjacency) check(i, j int) {
	if i < 0 || i >= a.n || j < 0 || j >= a.n {
		panic(fmt.Sprintf("graph: index (%d, %d) out of range for %d vertices", i, j, a.n))
	}
}

// Set stores the edge i -> j with weight w, replacing any previous weight.
func (a *Adjacency) Set(i, j int, w float64) {
	a.check(i, j)
	a.rows[i][j] = w
}

// At returns the weight of edge i -> j and whether it is stored.
func (a *Adjacency) At(i, j int) (float64, bool) {
	a.check(i, j)
	w, ok := a.rows[i][j]
	return w, ok
}

// Has reports whether the edge i -> j is stored.
func (a *Adjacency) Has(i, j int) bool {
	_, ok := a.At(i, j)
	return ok
}

// Delete removes the edge i -> j if present.
func (a *Adjacency) Delete(i, j int) {
	a.check(i, j)
	delete(a.rows[i], j)
}

// NumEdges returns the number of stored entries, counting i -> j and
// j -> i separately.
func (a *Adjacency) NumEdges() int {
	total := 0
	for _, r := range a.rows {
		total += len(r)
	}
	return total
}

// Neighbors returns the sorted targets of edges leaving i.
func (a *Adjacency) Neighbors(i int) []int {
	a.check(i, i)
	out := make([]int, 0, len(a.rows[i]))
	for j := range a.rows[i] {
		out = append(out, j)
	}
	sort.Ints(out)
	return out
}

// Edges returns every stored entry ordered by (From, To).
func (a *Adjacency) Edges() []Edge {
	edges := make([]Edge, 0, a.NumEdges())
	for i := range a.rows {
		for _, j := range a.Neighbors(i) {
			edges = append(edges, Edge{From: i, To: j, Weight: a.rows[i][j]})
		}
	}
	return edges
}

// Clone returns a deep copy.
func (a *Adjacency) Clone() *Adjacency {
	c := New(a.n)
	for i, r := range a.rows {
		for j, w := range r {
			c.rows[i][j] = w
		}
	}
	return c
}

// Transpose returns a new matrix with every edge reversed.
func (a *Adjacency) Transpose() *Adjacency {
	t := New(a.n)
	for i, r := range a.rows {
		for j, w := range r {
			t.rows[j][i] = w
		}
	}
	return t
}

// Symmetrize returns the undirected closure of a: the edge i - j exists if
// either i -> j or j -> i is stored. When both are stored the smaller
// weight wins.
func (a *Adjacency) Symmetrize() *Adjacency {
	s := a.Clone()
	for i, r := range a.rows {
		for j, w := range r {
			if cur, ok := s.rows[j][i]; !ok || w < cur {
				s.rows[j][i] = w
			}
			if cur := s.rows[i][j]; s.rows[j][i] < cur {
				s.rows[i][j] = s.rows[j][i]
			}
		}
	}
	return s
}

// IsSymmetric reports whether every stored edge has a reverse edge of equal
// weight.
func (a *Adjacency) IsSymmetric() bool {
	for i, r := range a.rows {
		for j, w := range r {
			back, ok := a.rows[j][i]
			if !ok || back != w {
				return false
			}
		}
	}
	return true
}

// HasNegative reports whether any edge other than a self-loop has a
// negative weight.
func (a *Adjacency) HasNegative() bool {
	for i, r := range a.rows {
		for j, w := range r {
			if i != j && w < 0 {
				return true
			}
		}
	}
	return false
}

// Degree returns the number of edges leaving i, ignoring a self-loop.
func (a *Adjacency) Degree(i int) int {
	a.check(i, i)
	d := len(a.rows[i])
	if _, ok := a.rows[i][i]; ok {
		d--
	}
	return d
}

// Equal reports whether a and b have the same size, edges and weights.
// NaN weights compare equal to each other.
func (a *Adjacency) Equal(b *Adjacency) bool {
	if a.n != b.n || a.NumEdges() != b.NumEdges() {
		return false
	}
	for i, r := range a.rows {
		for j, w := range r {
			v, ok := b.rows[i][j]
			if !ok {
				return false
			}
			if w != v && !(math.IsNaN(w) && math.IsNaN(v)) {
				return false
			}
		}
	}
	return true
}
