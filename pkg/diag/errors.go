package diag

import "fmt"

// Reason says why exact slicing gave up at a height.
type Reason int

const (
	ReasonNonManifoldEdge Reason = iota
	ReasonDanglingEdges
	ReasonIntersectingLoops
)

func (r Reason) String() string {
	switch r {
	case ReasonNonManifoldEdge:
		return "non-manifold edge"
	case ReasonDanglingEdges:
		return "dangling edges"
	case ReasonIntersectingLoops:
		return "intersecting loops"
	default:
		return fmt.Sprintf("Reason(%d)", int(r))
	}
}

// Kind maps the reason onto the warning taxonomy.
func (r Reason) Kind() Kind {
	switch r {
	case ReasonDanglingEdges:
		return KindDanglingEdges
	case ReasonIntersectingLoops:
		return KindSelfIntersection
	default:
		return KindMeshIntegrity
	}
}

// MeshIntegrityError reports that the mesh is not a clean 2-manifold at a
// cut height. It is never fatal: callers fall back to approximate slicing.
type MeshIntegrityError struct {
	Z      float64
	Edge   int // offending edge index, -1 when not tied to one edge
	Faces  int // owning face count of Edge
	Reason Reason
}

func (e *MeshIntegrityError) Error() string {
	if e.Edge >= 0 {
		return fmt.Sprintf("mesh integrity at z=%.4f: %s (edge %d has %d faces)", e.Z, e.Reason, e.Edge, e.Faces)
	}
	return fmt.Sprintf("mesh integrity at z=%.4f: %s", e.Z, e.Reason)
}

// Warning converts the error into an advisory finding for layer.
func (e *MeshIntegrityError) Warning(layer int) Warning {
	return Warning{
		Kind:    e.Reason.Kind(),
		Layer:   layer,
		Z:       e.Z,
		Message: e.Error() + "; using approximate slicing",
	}
}
