// Package diag defines the advisory diagnostics raised while slicing.
//
// Nothing in the geometric core aborts a job. Geometric trouble is recorded
// as a Warning on the Report owned by the task processing the layer and the
// pipeline carries on with a best-effort result. Only configuration problems
// (an invalid profile, a mesh over its size limits) surface as plain errors.
package diag

import (
	"fmt"

	"github.com/chazu/strata/pkg/logging"
	"github.com/samber/lo"
)

// Kind classifies a warning.
type Kind int

const (
	KindMeshIntegrity    Kind = iota // non-manifold edge at a cut height; fallback used
	KindDanglingEdges                // edge walk could not close a loop; fallback used
	KindSelfIntersection             // exact loops crossed each other; fallback used
	KindSliceEmpty                   // a layer produced no loops
	KindDegenerateOffset             // an offset loop collapsed and was discarded
)

func (k Kind) String() string {
	switch k {
	case KindMeshIntegrity:
		return "mesh-integrity"
	case KindDanglingEdges:
		return "dangling-edges"
	case KindSelfIntersection:
		return "self-intersection"
	case KindSliceEmpty:
		return "slice-empty"
	case KindDegenerateOffset:
		return "degenerate-offset"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Warning is a single advisory finding.
type Warning struct {
	Kind    Kind
	Layer   int // layer index, -1 when the finding is not tied to a layer
	Z       float64
	Message string
}

func (w Warning) String() string {
	if w.Layer < 0 {
		return fmt.Sprintf("[%s] z=%.4f: %s", w.Kind, w.Z, w.Message)
	}
	return fmt.Sprintf("[%s] layer %d z=%.4f: %s", w.Kind, w.Layer, w.Z, w.Message)
}

// Report collects the warnings of one unit of work. A Report is not safe
// for concurrent use; each layer task owns its own and results are merged
// afterwards in layer order.
type Report struct {
	Warnings []Warning
}

// Add records w and logs it at warn level.
func (r *Report) Add(w Warning) {
	r.Warnings = append(r.Warnings, w)
	logging.Logger().Warn(w.Message,
		"kind", w.Kind.String(),
		"layer", w.Layer,
		"z", w.Z,
	)
}

// Merge appends the warnings of o without logging them again.
func (r *Report) Merge(o *Report) {
	if o == nil {
		return
	}
	r.Warnings = append(r.Warnings, o.Warnings...)
}

// Count returns how many warnings of the given kind were recorded.
func (r *Report) Count(kind Kind) int {
	return lo.CountBy(r.Warnings, func(w Warning) bool { return w.Kind == kind })
}

// Empty reports whether nothing was recorded.
func (r *Report) Empty() bool {
	return len(r.Warnings) == 0
}
