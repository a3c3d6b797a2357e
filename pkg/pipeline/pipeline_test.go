package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/chazu/metricgraph/pkg/metric"
	"github.com/chazu/metricgraph/pkg/transform"
)

func linePoints() Data {
	return PointsData([]mat.Matrix{mat.NewDense(4, 1, []float64{0, 1, 3, 7})})
}

func TestValidate(t *testing.T) {
	precomputed := transform.NewKNeighborsGraph()
	precomputed.Metric = metric.Precomputed

	tests := []struct {
		name    string
		steps   []Step
		input   Kind
		want    Kind
		wantErr bool
	}{
		{"knn then geodesic", []Step{
			KNeighbors(transform.NewKNeighborsGraph()),
			Geodesic(transform.NewGraphGeodesicDistance()),
		}, Points, Distances, false},
		{"transition", []Step{Transition(transform.NewTransitionGraph())}, Points, Graphs, false},
		{"fermat", []Step{Fermat(transform.NewFermatDistance())}, Points, Distances, false},
		{"fermat then precomputed knn", []Step{
			Fermat(transform.NewFermatDistance()),
			KNeighbors(precomputed),
			Geodesic(transform.NewGraphGeodesicDistance()),
		}, Points, Distances, false},
		{"geodesic on points", []Step{Geodesic(transform.NewGraphGeodesicDistance())}, Points, Points, true},
		{"two graph builders", []Step{
			KNeighbors(transform.NewKNeighborsGraph()),
			Transition(transform.NewTransitionGraph()),
		}, Points, Graphs, true},
		{"empty", nil, Points, Points, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := New(tt.steps...).Validate(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRunKNeighborsGeodesic(t *testing.T) {
	kg := transform.NewKNeighborsGraph()
	kg.NNeighbors = 1
	kg.Mode = transform.Distance
	p := New(KNeighbors(kg), Geodesic(transform.NewGraphGeodesicDistance()))

	out, err := p.Run(context.Background(), linePoints())
	require.NoError(t, err)
	require.Equal(t, Distances, out.Kind)
	require.Equal(t, 1, out.Len())

	// Path 0 -1- 1 -2- 3 -4- 7.
	assert.Equal(t, 7.0, out.Matrices[0].At(0, 3))
	assert.Equal(t, 6.0, out.Matrices[0].At(3, 1))
}

func TestRunRejectsWrongInput(t *testing.T) {
	p := New(Geodesic(transform.NewGraphGeodesicDistance()))
	_, err := p.Run(context.Background(), linePoints())
	assert.ErrorContains(t, err, "does not accept points")
}

func TestRunWrapsStepError(t *testing.T) {
	// Four points cannot have four neighbors each.
	p := New(KNeighbors(transform.NewKNeighborsGraph()))
	_, err := p.Run(context.Background(), linePoints())
	assert.ErrorContains(t, err, "step 0 (kneighbors-graph)")
}

func TestSetRunner(t *testing.T) {
	kg := transform.NewKNeighborsGraph()
	fd := transform.NewFermatDistance()
	p := New(KNeighbors(kg), Fermat(fd))
	p.SetRunner(transform.Runner{Workers: 3})
	assert.Equal(t, 3, kg.Workers)
	assert.Equal(t, 3, fd.Workers)
	assert.Equal(t, []string{"kneighbors-graph", "fermat-distance"}, p.Names())
	assert.Same(t, kg, p.Steps[0].Transformer())
}

func TestParseKind(t *testing.T) {
	for _, k := range []Kind{Points, Graphs, Distances} {
		got, err := ParseKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, got)
	}
	_, err := ParseKind("tensors")
	assert.Error(t, err)
}
