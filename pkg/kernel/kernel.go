// Package kernel defines the solid modelling interface used to build parts
// for slicing. Implementations provide primitives, boolean operations and
// tessellation into a mesh.TriangleMesh behind this interface.
package kernel

import "github.com/chazu/strata/pkg/mesh"

// Solid is an opaque handle to a kernel solid.
type Solid interface {
	// BoundingBox returns the axis-aligned bounding box.
	BoundingBox() (min, max [3]float64)
}

// Kernel builds solids and tessellates them.
type Kernel interface {
	// Primitives. A box has its minimum corner at the origin; a cylinder
	// stands on z=0 centred on the z axis.
	Box(x, y, z float64) Solid
	Cylinder(height, radius float64) Solid

	// Boolean operations
	Union(a, b Solid) Solid
	Difference(a, b Solid) Solid
	Intersection(a, b Solid) Solid

	// Transforms
	Translate(s Solid, x, y, z float64) Solid
	Rotate(s Solid, x, y, z float64) Solid // Euler angles in degrees

	// Mesh output
	ToMesh(s Solid) (*mesh.TriangleMesh, error)
}
