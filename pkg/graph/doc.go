// Package graph defines the sparse weighted adjacency matrix shared by the
// metricgraph transformers. Graph-building transformers produce an
// Adjacency; distance transformers consume one.
package graph
