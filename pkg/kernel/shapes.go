package kernel

import (
	"fmt"
	"sort"
	"strings"
)

// ShapeFunc builds a named test surface of characteristic size from k.
type ShapeFunc func(k Kernel, size float64) (Solid, error)

// Shapes are the named solids available to the surface command.
var Shapes = map[string]ShapeFunc{
	"sphere": func(k Kernel, size float64) (Solid, error) {
		return k.Sphere(size / 2)
	},
	"box": func(k Kernel, size float64) (Solid, error) {
		return k.Box(size, size, size)
	},
	"cylinder": func(k Kernel, size float64) (Solid, error) {
		return k.Cylinder(size, size/2)
	},
	// Two spheres joined by a thin bar along X.
	"dumbbell": func(k Kernel, size float64) (Solid, error) {
		r := size / 4
		a, err := k.Sphere(r)
		if err != nil {
			return nil, err
		}
		bar, err := k.Box(size, r/2, r/2)
		if err != nil {
			return nil, err
		}
		left := k.Translate(a, -size/2, 0, 0)
		right := k.Translate(a, size/2, 0, 0)
		return k.Union(k.Union(left, right), bar), nil
	},
	// A cube with a cylindrical hole along Z.
	"drilled-box": func(k Kernel, size float64) (Solid, error) {
		box, err := k.Box(size, size, size)
		if err != nil {
			return nil, err
		}
		hole, err := k.Cylinder(size*1.5, size/4)
		if err != nil {
			return nil, err
		}
		return k.Difference(box, hole), nil
	},
}

// ShapeNames returns the keys of Shapes in sorted order.
func ShapeNames() []string {
	names := make([]string, 0, len(Shapes))
	for name := range Shapes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Shape builds the named shape.
func Shape(k Kernel, name string, size float64) (Solid, error) {
	fn, ok := Shapes[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown shape %q, expected one of %s", name, strings.Join(ShapeNames(), ", "))
	}
	if !(size > 0) {
		return nil, fmt.Errorf("shape size must be positive, got %v", size)
	}
	return fn(k, size)
}
