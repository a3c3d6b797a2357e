package graph

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// AbsentFunc decides whether a dense matrix entry denotes a missing edge.
type AbsentFunc func(w float64) bool

// AbsentInf treats +Inf entries as missing edges. Zero entries are edges of
// weight zero.
func AbsentInf(w float64) bool {
	return math.IsInf(w, 1)
}

// AbsentZero treats zero and +Inf entries as missing edges.
func AbsentZero(w float64) bool {
	return w == 0 || math.IsInf(w, 1)
}

// FromDense converts a square dense matrix to an Adjacency. Entries for
// which absent returns true are dropped; a nil absent means AbsentInf.
// Diagonal entries are never stored.
func FromDense(m mat.Matrix, absent AbsentFunc) (*Adjacency, error) {
	r, c := m.Dims()
	if r != c {
		return nil, fmt.Errorf("adjacency matrix must be square, got %dx%d", r, c)
	}
	if absent == nil {
		absent = AbsentInf
	}
	a := New(r)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if i == j {
				continue
			}
			w := m.At(i, j)
			if absent(w) {
				continue
			}
			a.rows[i][j] = w
		}
	}
	return a, nil
}

// Dense returns the matrix as a gonum dense matrix with missing entries set
// to absent. Diagonal entries that are not stored are also set to absent.
func (a *Adjacency) Dense(absent float64) *mat.Dense {
	if a.n == 0 {
		return &mat.Dense{}
	}
	d := mat.NewDense(a.n, a.n, nil)
	for i := 0; i < a.n; i++ {
		for j := 0; j < a.n; j++ {
			if w, ok := a.rows[i][j]; ok {
				d.Set(i, j, w)
			} else {
				d.Set(i, j, absent)
			}
		}
	}
	return d
}
