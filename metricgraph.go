// Package metricgraph is the entry point of the graph transformers. It
// re-exports the four transformers implemented in pkg/transform: two that
// build graphs from data (TransitionGraph, KNeighborsGraph) and two that
// extract metric spaces (GraphGeodesicDistance, FermatDistance).
package metricgraph

import "github.com/chazu/metricgraph/pkg/transform"

type (
	TransitionGraph       = transform.TransitionGraph
	KNeighborsGraph       = transform.KNeighborsGraph
	GraphGeodesicDistance = transform.GraphGeodesicDistance
	FermatDistance        = transform.FermatDistance
)

var (
	NewTransitionGraph       = transform.NewTransitionGraph
	NewKNeighborsGraph       = transform.NewKNeighborsGraph
	NewGraphGeodesicDistance = transform.NewGraphGeodesicDistance
	NewFermatDistance        = transform.NewFermatDistance
)

// Exports lists the public transformer names of the package in order.
var Exports = []string{
	"TransitionGraph",
	"KNeighborsGraph",
	"GraphGeodesicDistance",
	"FermatDistance",
}
