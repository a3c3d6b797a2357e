package kernel

// Mesh is a triangle mesh. Vertices has 3 floats per vertex (x,y,z) and
// indices has 3 entries per triangle. Vertices may repeat; meshgraph welds
// coincident vertices.
type Mesh struct {
	Vertices []float64 `json:"vertices"` // [x0,y0,z0, x1,y1,z1, ...]
	Indices  []uint32  `json:"indices"`  // [i0,i1,i2, ...] triangles
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Vertices) / 3
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// IsEmpty returns true if the mesh has no geometry.
func (m *Mesh) IsEmpty() bool {
	return len(m.Vertices) == 0
}

// Vertex returns the coordinates of vertex i.
func (m *Mesh) Vertex(i int) [3]float64 {
	return [3]float64{m.Vertices[3*i], m.Vertices[3*i+1], m.Vertices[3*i+2]}
}

// Triangle returns the vertex indices of triangle t.
func (m *Mesh) Triangle(t int) [3]int {
	return [3]int{int(m.Indices[3*t]), int(m.Indices[3*t+1]), int(m.Indices[3*t+2])}
}

// AddTriangle appends a triangle with three new vertices.
func (m *Mesh) AddTriangle(a, b, c [3]float64) {
	base := uint32(m.VertexCount())
	for _, v := range [3][3]float64{a, b, c} {
		m.Vertices = append(m.Vertices, v[0], v[1], v[2])
	}
	m.Indices = append(m.Indices, base, base+1, base+2)
}
