// Package kernel defines the abstract geometry kernel used to build
// surfaces for geodesic computations. Implementations (sdfx) provide solid
// modeling, boolean operations and triangulation behind this interface.
package kernel

// Solid is an opaque handle to a geometry kernel solid.
// Implementations wrap their internal representation.
type Solid interface {
	// BoundingBox returns the axis-aligned bounding box.
	BoundingBox() (min, max [3]float64)
}

// Kernel is the abstract geometry kernel interface.
// Primitives are centred on the origin.
type Kernel interface {
	// Primitives
	Sphere(radius float64) (Solid, error)
	Box(x, y, z float64) (Solid, error)
	Cylinder(height, radius float64) (Solid, error) // axis along Z

	// Boolean operations
	Union(a, b Solid) Solid
	Difference(a, b Solid) Solid

	// Transforms
	Translate(s Solid, x, y, z float64) Solid

	// Triangulate samples the surface of s on a grid with cells cells along
	// its longest side.
	Triangulate(s Solid, cells int) (*Mesh, error)
}
