// Package slice cuts a triangle mesh with a horizontal plane and returns
// the cross-section as closed loops.
//
// SliceExact walks the crossing edges of a clean 2-manifold and fails with
// a *diag.MeshIntegrityError when the mesh is not one at that height.
// SliceApproximate always succeeds: it rebuilds the section from a point
// cloud by circle packing. Extract chains the two.
package slice

import (
	"github.com/chazu/strata/pkg/diag"
	"github.com/chazu/strata/pkg/geom"
	"github.com/chazu/strata/pkg/mesh"
)

// SliceExact returns the loops where the plane at z cuts m. The loops are
// unsimplified and their winding follows the face order of the walk.
func SliceExact(m *mesh.TriangleMesh, z float64) ([]geom.Loop, error) {
	edges := m.Edges()
	crossing := m.CrossingEdges(z)

	remaining := make(map[int]struct{}, len(crossing))
	for _, ei := range crossing {
		if n := len(edges[ei].Faces); n != 2 {
			return nil, &diag.MeshIntegrityError{Z: z, Edge: ei, Faces: n, Reason: diag.ReasonNonManifoldEdge}
		}
		remaining[ei] = struct{}{}
	}

	var loops []geom.Loop
	for _, start := range crossing {
		if _, ok := remaining[start]; !ok {
			continue
		}
		loop, closed := walk(m, z, start, remaining)
		if !closed || len(loop) < 3 {
			return nil, &diag.MeshIntegrityError{Z: z, Edge: start, Faces: len(edges[start].Faces), Reason: diag.ReasonDanglingEdges}
		}
		loops = append(loops, loop)
	}

	if geom.IsLoopListIntersecting(loops) {
		return nil, &diag.MeshIntegrityError{Z: z, Edge: -1, Reason: diag.ReasonIntersectingLoops}
	}
	return loops, nil
}

// walk follows crossing edges across shared faces starting at start,
// consuming them from remaining. It reports whether the walk ended on an
// edge that shares a face with start.
func walk(m *mesh.TriangleMesh, z float64, start int, remaining map[int]struct{}) (geom.Loop, bool) {
	edges := m.Edges()
	delete(remaining, start)
	loop := geom.Loop{m.Intersection(start, z)}

	cur := start
	for {
		next := -1
		for _, f := range edges[cur].Faces {
			for _, ei := range m.FaceEdges(f) {
				if _, ok := remaining[ei]; ok {
					next = ei
					break
				}
			}
			if next >= 0 {
				break
			}
		}
		if next < 0 {
			break
		}
		delete(remaining, next)
		loop = append(loop, m.Intersection(next, z))
		cur = next
	}

	return loop, cur != start && sharesFace(edges, cur, start)
}

func sharesFace(edges []mesh.Edge, a, b int) bool {
	for _, fa := range edges[a].Faces {
		for _, fb := range edges[b].Faces {
			if fa == fb {
				return true
			}
		}
	}
	return false
}
