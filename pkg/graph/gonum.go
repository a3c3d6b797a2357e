package graph

import (
	"math"

	gg "gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
)

// WeightedGraph is the gonum view of an Adjacency used by the shortest-path
// algorithms.
type WeightedGraph interface {
	gg.Graph
	gg.Weighted
}

// Directed returns a gonum directed graph with one node per vertex and one
// weighted edge per stored off-diagonal entry. When unweighted is set every
// edge has weight 1.
func (a *Adjacency) Directed(unweighted bool) *simple.WeightedDirectedGraph {
	g := simple.NewWeightedDirectedGraph(0, math.Inf(1))
	for i := 0; i < a.n; i++ {
		g.AddNode(simple.Node(i))
	}
	for i, r := range a.rows {
		for j, w := range r {
			if i == j {
				continue
			}
			if unweighted {
				w = 1
			}
			g.SetWeightedEdge(simple.WeightedEdge{F: simple.Node(i), T: simple.Node(j), W: w})
		}
	}
	return g
}

// Undirected returns a gonum undirected graph in which i - j is an edge if
// either i -> j or j -> i is stored. When both are stored the smaller
// weight is used. Self-loops are dropped.
func (a *Adjacency) Undirected(unweighted bool) *simple.WeightedUndirectedGraph {
	g := simple.NewWeightedUndirectedGraph(0, math.Inf(1))
	for i := 0; i < a.n; i++ {
		g.AddNode(simple.Node(i))
	}
	sym := a.Symmetrize()
	for i, r := range sym.rows {
		for j, w := range r {
			if j <= i {
				continue
			}
			if unweighted {
				w = 1
			}
			g.SetWeightedEdge(simple.WeightedEdge{F: simple.Node(i), T: simple.Node(j), W: w})
		}
	}
	return g
}
