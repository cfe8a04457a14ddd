package slice

import (
	"errors"

	"github.com/chazu/strata/pkg/diag"
	"github.com/chazu/strata/pkg/geom"
	"github.com/chazu/strata/pkg/logging"
	"github.com/chazu/strata/pkg/mesh"
	"github.com/chazu/strata/pkg/simplify"
)

// Options controls one extraction.
type Options struct {
	// Radius is the import radius: the simplification tolerance and the
	// disk radius of the fallback.
	Radius float64
	// CorrectMesh enables the exact edge walk. When false every height is
	// sliced approximately.
	CorrectMesh bool
}

// Result is the section at one height.
type Result struct {
	// Loops are simplified, sorted by descending area and oriented so that
	// filled regions are widdershins.
	Loops []geom.Loop
	// Fallback is set when the exact walk was abandoned.
	Fallback *diag.MeshIntegrityError
}

// Extract slices m at z, falling back to SliceApproximate when the exact
// walk fails.
func Extract(m *mesh.TriangleMesh, z float64, opts Options) Result {
	var res Result
	var loops []geom.Loop
	if opts.CorrectMesh {
		var err error
		loops, err = SliceExact(m, z)
		if err != nil {
			var mie *diag.MeshIntegrityError
			if !errors.As(err, &mie) {
				mie = &diag.MeshIntegrityError{Z: z, Edge: -1, Reason: diag.ReasonNonManifoldEdge}
			}
			res.Fallback = mie
			logging.Logger().Debug("slice: exact walk failed", "z", z, "err", err)
			loops = SliceApproximate(m, z, opts.Radius)
		}
	} else {
		loops = SliceApproximate(m, z, opts.Radius)
	}

	loops = simplify.Loops(loops, opts.Radius)
	geom.SortByArea(loops, true)
	res.Loops = Orient(loops)
	return res
}

// Orient winds every loop widdershins when it bounds material and
// clockwise when it bounds a hole, judged by even-odd containment of a
// point just inside it among the other loops. Loops are modified in place.
func Orient(loops []geom.Loop) []geom.Loop {
	for i, l := range loops {
		others := make([]geom.Loop, 0, len(loops)-1)
		others = append(others, loops[:i]...)
		others = append(others, loops[i+1:]...)
		inside := geom.IsInFilledRegion(others, l.InteriorPoint())
		l.Direct(!inside)
	}
	return loops
}
