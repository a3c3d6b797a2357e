package neighbors

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/kdtree"
)

// indexedPoint is a kd-tree point that remembers its row in the input.
type indexedPoint struct {
	index  int
	coords kdtree.Point
}

var _ kdtree.Comparable = indexedPoint{}

func (p indexedPoint) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	q := c.(indexedPoint)
	return p.coords[d] - q.coords[d]
}

func (p indexedPoint) Dims() int {
	return len(p.coords)
}

// Distance returns the squared Euclidean distance, as kdtree.Point does.
func (p indexedPoint) Distance(c kdtree.Comparable) float64 {
	q := c.(indexedPoint)
	return p.coords.Distance(q.coords)
}

// indexedPoints implements kdtree.Interface.
type indexedPoints []indexedPoint

var _ kdtree.Interface = indexedPoints(nil)

func (p indexedPoints) Index(i int) kdtree.Comparable { return p[i] }
func (p indexedPoints) Len() int                      { return len(p) }
func (p indexedPoints) Slice(start, end int) kdtree.Interface {
	return p[start:end]
}
func (p indexedPoints) Pivot(d kdtree.Dim) int {
	return plane{dim: d, points: p}.Pivot()
}

// plane sorts points along one dimension for median partitioning.
type plane struct {
	dim    kdtree.Dim
	points indexedPoints
}

func (p plane) Len() int { return len(p.points) }
func (p plane) Less(i, j int) bool {
	return p.points[i].coords[p.dim] < p.points[j].coords[p.dim]
}
func (p plane) Swap(i, j int) { p.points[i], p.points[j] = p.points[j], p.points[i] }
func (p plane) Slice(start, end int) kdtree.SortSlicer {
	p.points = p.points[start:end]
	return p
}
func (p plane) Pivot() int {
	return kdtree.Partition(p, kdtree.MedianOfMedians(p))
}

// searchKDTree finds the k+1 nearest set of each query, then collects every
// point within the largest distance kept so that ties at the boundary are
// resolved by index rather than by traversal order.
func searchKDTree(points mat.Matrix, k int) [][]Neighbor {
	n, _ := points.Dims()
	queries := make([]indexedPoint, n)
	build := make(indexedPoints, n)
	for i := 0; i < n; i++ {
		queries[i] = indexedPoint{index: i, coords: kdtree.Point(mat.Row(nil, i, points))}
		build[i] = queries[i]
	}
	tree := kdtree.New(build, false)

	out := make([][]Neighbor, n)
	for i, q := range queries {
		nearest := kdtree.NewNKeeper(k + 1)
		tree.NearestSet(nearest, q)

		var radius float64
		for _, cd := range nearest.Heap {
			if cd.Comparable != nil && cd.Dist > radius {
				radius = cd.Dist
			}
		}
		// Widen the squared radius so pruning on an exact tie cannot drop
		// a candidate; extra candidates are cut by the sort below.
		within := kdtree.NewDistKeeper(radius*(1+1e-9) + math.SmallestNonzeroFloat64)
		tree.NearestSet(within, q)

		found := make([]Neighbor, 0, len(within.Heap))
		for _, cd := range within.Heap {
			if cd.Comparable == nil {
				continue
			}
			p := cd.Comparable.(indexedPoint)
			if p.index == i {
				continue
			}
			found = append(found, Neighbor{Index: p.index, Distance: math.Sqrt(cd.Dist)})
		}
		sortNeighbors(found)
		if len(found) > k {
			found = found[:k]
		}
		out[i] = found
	}
	return out
}
