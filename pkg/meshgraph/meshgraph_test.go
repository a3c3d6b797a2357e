package meshgraph

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazu/metricgraph/pkg/graph"
	"github.com/chazu/metricgraph/pkg/kernel"
	"github.com/chazu/metricgraph/pkg/transform"
)

// square is the unit square split along its 0-2 diagonal, with every
// triangle carrying its own vertices. jitter displaces the second copies.
func square(jitter float64) *kernel.Mesh {
	m := &kernel.Mesh{}
	m.AddTriangle([3]float64{0, 0, 0}, [3]float64{1, 0, 0}, [3]float64{1, 1, 0})
	m.AddTriangle([3]float64{jitter, 0, 0}, [3]float64{1, 1 + jitter, 0}, [3]float64{0, 1, 0})
	return m
}

func TestFromMeshExactWeld(t *testing.T) {
	s, err := FromMesh(square(0), 0)
	require.NoError(t, err)
	require.Equal(t, 4, s.Len())

	r, c := s.Points.Dims()
	assert.Equal(t, 4, r)
	assert.Equal(t, 3, c)

	// Four sides and one diagonal, stored in both directions.
	assert.Equal(t, 10, s.Graph.NumEdges())
	assert.True(t, s.Graph.IsSymmetric())

	w, ok := s.Graph.At(0, 2)
	require.True(t, ok)
	assert.InDelta(t, math.Sqrt2, w, 1e-12)
	assert.False(t, s.Graph.Has(1, 3))
}

func TestFromMeshToleranceWeld(t *testing.T) {
	jittered := square(1e-9)

	exact, err := FromMesh(jittered, 0)
	require.NoError(t, err)
	assert.Equal(t, 6, exact.Len())

	welded, err := FromMesh(jittered, 1e-6)
	require.NoError(t, err)
	assert.Equal(t, 4, welded.Len())
	assert.Equal(t, 10, welded.Graph.NumEdges())
}

func TestFromMeshCollapsedTriangle(t *testing.T) {
	m := &kernel.Mesh{}
	m.AddTriangle([3]float64{0, 0, 0}, [3]float64{0.001, 0, 0}, [3]float64{0, 1, 0})

	s, err := FromMesh(m, 0.01)
	require.NoError(t, err)
	assert.Equal(t, 2, s.Len())
	assert.Equal(t, 2, s.Graph.NumEdges())
	assert.False(t, s.Graph.Has(0, 0))
}

func TestFromMeshErrors(t *testing.T) {
	tests := []struct {
		name string
		mesh *kernel.Mesh
		weld float64
	}{
		{"nil mesh", nil, 0},
		{"empty mesh", &kernel.Mesh{}, 0},
		{"negative weld", square(0), -1},
		{"NaN weld", square(0), math.NaN()},
		{"bad index", &kernel.Mesh{Vertices: []float64{0, 0, 0, 1, 0, 0}, Indices: []uint32{0, 1, 7}}, 0},
		{"ragged vertices", &kernel.Mesh{Vertices: []float64{0, 0}, Indices: []uint32{0, 0, 0}}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromMesh(tt.mesh, tt.weld)
			assert.Error(t, err)
		})
	}
}

func TestSurfaceGeodesics(t *testing.T) {
	s, err := FromMesh(square(0), 0)
	require.NoError(t, err)

	dist, err := transform.NewGraphGeodesicDistance().FitTransform(context.Background(), []*graph.Adjacency{s.Graph})
	require.NoError(t, err)

	// Vertices 1 and 3 are opposite corners not joined by the diagonal.
	assert.InDelta(t, 2.0, dist[0].At(1, 3), 1e-12)
	assert.InDelta(t, math.Sqrt2, dist[0].At(0, 2), 1e-12)
}
