// Package metric provides the point-cloud distance functions used to build
// neighbor graphs and Fermat distances.
package metric

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Metric names a distance between two points.
type Metric int

const (
	Euclidean   Metric = iota // L2
	Manhattan                 // L1
	Chebyshev                 // L-infinity
	Minkowski                 // Lp, p >= 1
	Cosine                    // 1 - cosine similarity
	Precomputed               // input rows are already distances
)

func (m Metric) String() string {
	switch m {
	case Euclidean:
		return "euclidean"
	case Manhattan:
		return "manhattan"
	case Chebyshev:
		return "chebyshev"
	case Minkowski:
		return "minkowski"
	case Cosine:
		return "cosine"
	case Precomputed:
		return "precomputed"
	default:
		return fmt.Sprintf("Metric(%d)", int(m))
	}
}

// ParseMetric converts a metric name to a Metric. Names are case-insensitive
// and accept the common aliases l1, l2, cityblock and infinity.
func ParseMetric(s string) (Metric, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "euclidean", "l2":
		return Euclidean, nil
	case "manhattan", "cityblock", "l1":
		return Manhattan, nil
	case "chebyshev", "infinity":
		return Chebyshev, nil
	case "minkowski":
		return Minkowski, nil
	case "cosine":
		return Cosine, nil
	case "precomputed":
		return Precomputed, nil
	}
	return 0, fmt.Errorf("unknown metric %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (m Metric) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Metric) UnmarshalText(text []byte) error {
	parsed, err := ParseMetric(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Func computes the distance between two equal-length points.
type Func func(x, y []float64) float64

// Func returns the distance function for m. p is the Minkowski exponent and
// is ignored by the other metrics. Precomputed has no distance function.
func (m Metric) Func(p float64) (Func, error) {
	switch m {
	case Euclidean:
		return func(x, y []float64) float64 { return floats.Distance(x, y, 2) }, nil
	case Manhattan:
		return func(x, y []float64) float64 { return floats.Distance(x, y, 1) }, nil
	case Chebyshev:
		return func(x, y []float64) float64 { return floats.Distance(x, y, math.Inf(1)) }, nil
	case Minkowski:
		if !(p >= 1) {
			return nil, fmt.Errorf("minkowski exponent must be >= 1, got %v", p)
		}
		return func(x, y []float64) float64 { return floats.Distance(x, y, p) }, nil
	case Cosine:
		return cosine, nil
	case Precomputed:
		return nil, fmt.Errorf("precomputed metric has no distance function")
	}
	return nil, fmt.Errorf("unknown metric %v", m)
}

// IsEuclidean reports whether m with exponent p is the L2 distance.
func (m Metric) IsEuclidean(p float64) bool {
	return m == Euclidean || (m == Minkowski && p == 2)
}

// cosine returns 1 - x.y / (|x| |y|), clipped to [0, 2]. A zero vector is at
// distance 1 from everything, including itself.
func cosine(x, y []float64) float64 {
	nx, ny := floats.Norm(x, 2), floats.Norm(y, 2)
	if nx == 0 || ny == 0 {
		return 1
	}
	d := 1 - floats.Dot(x, y)/(nx*ny)
	return math.Min(math.Max(d, 0), 2)
}

// Pairwise returns the square matrix of distances between the rows of
// points. With Precomputed, points must already be a square matrix and a
// copy is returned.
func Pairwise(points mat.Matrix, m Metric, p float64) (*mat.Dense, error) {
	r, c := points.Dims()
	if r == 0 {
		return nil, fmt.Errorf("no points")
	}
	if m == Precomputed {
		if r != c {
			return nil, fmt.Errorf("precomputed distance matrix must be square, got %dx%d", r, c)
		}
		return mat.DenseCopyOf(points), nil
	}
	f, err := m.Func(p)
	if err != nil {
		return nil, err
	}
	rows := make([][]float64, r)
	for i := range rows {
		rows[i] = mat.Row(nil, i, points)
	}
	d := mat.NewDense(r, r, nil)
	for i := 0; i < r; i++ {
		for j := i + 1; j < r; j++ {
			v := f(rows[i], rows[j])
			d.Set(i, j, v)
			d.Set(j, i, v)
		}
	}
	return d, nil
}
