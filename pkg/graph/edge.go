package graph

import (
	"encoding/json"
	"fmt"
)

// Edge is one stored entry of an adjacency matrix.
type Edge struct {
	From   int     `json:"from"`
	To     int     `json:"to"`
	Weight float64 `json:"weight"`
}

func (e Edge) String() string {
	return fmt.Sprintf("%d->%d (%g)", e.From, e.To, e.Weight)
}

// FromEdges builds an adjacency matrix with n vertices from an edge list.
// Later edges overwrite earlier ones with the same endpoints.
func FromEdges(n int, edges []Edge) (*Adjacency, error) {
	a := New(n)
	for k, e := range edges {
		if e.From < 0 || e.From >= n || e.To < 0 || e.To >= n {
			return nil, fmt.Errorf("edge %d (%d->%d) out of range for %d vertices", k, e.From, e.To, n)
		}
		a.rows[e.From][e.To] = e.Weight
	}
	return a, nil
}

// adjacencyJSON is the serialized form of an Adjacency.
type adjacencyJSON struct {
	Vertices int    `json:"vertices"`
	Edges    []Edge `json:"edges"`
}

// MarshalJSON encodes the matrix as a vertex count plus an ordered edge list.
func (a *Adjacency) MarshalJSON() ([]byte, error) {
	return json.Marshal(adjacencyJSON{Vertices: a.n, Edges: a.Edges()})
}

// UnmarshalJSON decodes the form written by MarshalJSON.
func (a *Adjacency) UnmarshalJSON(data []byte) error {
	var raw adjacencyJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Vertices < 0 {
		return fmt.Errorf("negative vertex count %d", raw.Vertices)
	}
	decoded, err := FromEdges(raw.Vertices, raw.Edges)
	if err != nil {
		return err
	}
	*a = *decoded
	return nil
}
