// Package mesh models the triangle meshes the slicer consumes.
//
// A TriangleMesh holds vertices and triangular faces supplied by a format
// reader. The edge table, where each edge knows its owning faces and its
// z-extent, is derived lazily on first use and is safe to read from many
// layer tasks at once.
package mesh

import (
	"fmt"
	"math"
	"sync"

	"github.com/chazu/strata/pkg/geom"
)

// Face is a triangle given by three vertex indices.
type Face struct {
	V [3]int
}

// Edge is an undirected mesh edge. In a watertight 2-manifold mesh every
// edge is owned by exactly two faces.
type Edge struct {
	V     [2]int
	Faces []int
	ZMin  float64
	ZMax  float64
}

// Crosses reports whether the plane at z passes strictly through the edge.
func (e *Edge) Crosses(z float64) bool {
	return e.ZMin < z && z < e.ZMax
}

// TriangleMesh is an indexed triangle mesh.
type TriangleMesh struct {
	Vertices []geom.Vertex
	Faces    []Face

	once      sync.Once
	edges     []Edge
	faceEdges [][3]int
}

// New builds a mesh from vertex positions and face index triples. Vertex
// indices are assigned in order.
func New(positions [][3]float64, faces [][3]int) *TriangleMesh {
	m := &TriangleMesh{
		Vertices: make([]geom.Vertex, len(positions)),
		Faces:    make([]Face, len(faces)),
	}
	for i, p := range positions {
		m.Vertices[i] = geom.Vertex{X: p[0], Y: p[1], Z: p[2], Index: i}
	}
	for i, f := range faces {
		m.Faces[i] = Face{V: f}
	}
	return m
}

// Edges returns the edge table, building it on first use.
func (m *TriangleMesh) Edges() []Edge {
	m.once.Do(m.buildEdges)
	return m.edges
}

// FaceEdges returns the indices of the three edges of face f.
func (m *TriangleMesh) FaceEdges(f int) [3]int {
	m.once.Do(m.buildEdges)
	return m.faceEdges[f]
}

func (m *TriangleMesh) buildEdges() {
	index := make(map[[2]int]int, len(m.Faces)*3/2)
	m.faceEdges = make([][3]int, len(m.Faces))
	for fi, f := range m.Faces {
		for k := 0; k < 3; k++ {
			a, b := f.V[k], f.V[(k+1)%3]
			if a > b {
				a, b = b, a
			}
			key := [2]int{a, b}
			ei, ok := index[key]
			if !ok {
				ei = len(m.edges)
				index[key] = ei
				m.edges = append(m.edges, m.newEdge(a, b))
			}
			m.edges[ei].Faces = append(m.edges[ei].Faces, fi)
			m.faceEdges[fi][k] = ei
		}
	}
}

// newEdge caches the z-extent of a-b. Edges that reference missing
// vertices get an empty extent so no plane ever crosses them.
func (m *TriangleMesh) newEdge(a, b int) Edge {
	e := Edge{V: [2]int{a, b}, ZMin: math.Inf(1), ZMax: math.Inf(-1)}
	if a < 0 || b < 0 || a >= len(m.Vertices) || b >= len(m.Vertices) {
		return e
	}
	za, zb := m.Vertices[a].Z, m.Vertices[b].Z
	e.ZMin, e.ZMax = math.Min(za, zb), math.Max(za, zb)
	return e
}

// Intersection returns where edge ei meets the plane at z. The edge must
// cross z.
func (m *TriangleMesh) Intersection(ei int, z float64) geom.Point {
	e := &m.Edges()[ei]
	return geom.Lerp(m.Vertices[e.V[0]], m.Vertices[e.V[1]], z)
}

// CrossingEdges returns the indices of the edges the plane at z passes
// through, in ascending order.
func (m *TriangleMesh) CrossingEdges(z float64) []int {
	edges := m.Edges()
	var out []int
	for i := range edges {
		if edges[i].Crosses(z) {
			out = append(out, i)
		}
	}
	return out
}

// Bounds returns the axis-aligned bounding box of the vertices.
func (m *TriangleMesh) Bounds() (min, max [3]float64) {
	if len(m.Vertices) == 0 {
		return min, max
	}
	min = [3]float64{math.Inf(1), math.Inf(1), math.Inf(1)}
	max = [3]float64{math.Inf(-1), math.Inf(-1), math.Inf(-1)}
	for _, v := range m.Vertices {
		p := [3]float64{v.X, v.Y, v.Z}
		for k := 0; k < 3; k++ {
			min[k] = math.Min(min[k], p[k])
			max[k] = math.Max(max[k], p[k])
		}
	}
	return min, max
}

// Limits bounds the size of a mesh accepted for slicing.
type Limits struct {
	MaxVertices int
	MaxFaces    int
}

// Validate checks the mesh against the limits and rejects faces that
// reference missing vertices. A zero limit means unbounded.
func (m *TriangleMesh) Validate(l Limits) error {
	if len(m.Faces) == 0 {
		return fmt.Errorf("mesh: no faces")
	}
	if l.MaxVertices > 0 && len(m.Vertices) > l.MaxVertices {
		return fmt.Errorf("mesh: %d vertices exceeds limit of %d", len(m.Vertices), l.MaxVertices)
	}
	if l.MaxFaces > 0 && len(m.Faces) > l.MaxFaces {
		return fmt.Errorf("mesh: %d faces exceeds limit of %d", len(m.Faces), l.MaxFaces)
	}
	for fi, f := range m.Faces {
		for _, vi := range f.V {
			if vi < 0 || vi >= len(m.Vertices) {
				return fmt.Errorf("mesh: face %d references vertex %d of %d", fi, vi, len(m.Vertices))
			}
		}
	}
	return nil
}
