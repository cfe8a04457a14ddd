package mesh

import (
	"math"

	"github.com/chazu/strata/pkg/geom"
)

// boxFaces lists the twelve outward-facing triangles of a box whose corners
// are numbered bottom ring 0-3 then top ring 4-7, counter-clockwise seen
// from above.
var boxFaces = [][3]int{
	{0, 2, 1}, {0, 3, 2}, // bottom
	{4, 5, 6}, {4, 6, 7}, // top
	{0, 1, 5}, {0, 5, 4}, // front
	{1, 2, 6}, {1, 6, 5}, // right
	{2, 3, 7}, {2, 7, 6}, // back
	{3, 0, 4}, {3, 4, 7}, // left
}

// Box returns an axis-aligned box with 8 vertices and 12 triangles. With
// inward set the winding is flipped, which is how a cavity is modelled.
func Box(min, max [3]float64, inward bool) *TriangleMesh {
	positions := [][3]float64{
		{min[0], min[1], min[2]},
		{max[0], min[1], min[2]},
		{max[0], max[1], min[2]},
		{min[0], max[1], min[2]},
		{min[0], min[1], max[2]},
		{max[0], min[1], max[2]},
		{max[0], max[1], max[2]},
		{min[0], max[1], max[2]},
	}
	faces := make([][3]int, len(boxFaces))
	for i, f := range boxFaces {
		if inward {
			f[1], f[2] = f[2], f[1]
		}
		faces[i] = f
	}
	return New(positions, faces)
}

// Merge concatenates meshes into one, renumbering vertices. Shells stay
// disconnected; nothing is welded.
func Merge(meshes ...*TriangleMesh) *TriangleMesh {
	var positions [][3]float64
	var faces [][3]int
	for _, m := range meshes {
		base := len(positions)
		for _, v := range m.Vertices {
			positions = append(positions, [3]float64{v.X, v.Y, v.Z})
		}
		for _, f := range m.Faces {
			faces = append(faces, [3]int{f.V[0] + base, f.V[1] + base, f.V[2] + base})
		}
	}
	return New(positions, faces)
}

// FromTriangles builds an indexed mesh from a triangle soup, welding
// corners that fall into the same cell of a grid with spacing tol.
// Triangles that collapse after welding are dropped.
func FromTriangles(tris [][3][3]float64, tol float64) *TriangleMesh {
	if tol <= 0 {
		tol = 1e-9
	}
	index := make(map[[3]int64]int, len(tris))
	var positions [][3]float64
	faces := make([][3]int, 0, len(tris))

	weld := func(p [3]float64) int {
		key := [3]int64{
			int64(math.Round(p[0] / tol)),
			int64(math.Round(p[1] / tol)),
			int64(math.Round(p[2] / tol)),
		}
		if i, ok := index[key]; ok {
			return i
		}
		i := len(positions)
		index[key] = i
		positions = append(positions, p)
		return i
	}

	for _, t := range tris {
		f := [3]int{weld(t[0]), weld(t[1]), weld(t[2])}
		if f[0] == f[1] || f[1] == f[2] || f[0] == f[2] {
			continue
		}
		faces = append(faces, f)
	}
	return New(positions, faces)
}

// Translate returns a copy of the mesh moved by (dx, dy, dz).
func (m *TriangleMesh) Translate(dx, dy, dz float64) *TriangleMesh {
	out := &TriangleMesh{
		Vertices: make([]geom.Vertex, len(m.Vertices)),
		Faces:    append([]Face(nil), m.Faces...),
	}
	for i, v := range m.Vertices {
		out.Vertices[i] = geom.Vertex{X: v.X + dx, Y: v.Y + dy, Z: v.Z + dz, Index: v.Index}
	}
	return out
}
