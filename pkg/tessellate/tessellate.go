// Package tessellate turns the parts of an evaluated job into triangle
// meshes ready for slicing. One mesh is produced per part.
package tessellate

import (
	"context"
	"fmt"

	"github.com/chazu/strata/pkg/engine"
	"github.com/chazu/strata/pkg/kernel"
	"github.com/chazu/strata/pkg/mesh"
	"golang.org/x/sync/errgroup"
)

// PartMesh is the mesh of one named part.
type PartMesh struct {
	Name string
	Mesh *mesh.TriangleMesh
}

// Tessellate meshes every part of job with k, in parallel, and returns the
// meshes in part order. Each mesh is moved so that its lowest point sits
// on z=0, the print bed. The job is never mutated.
func Tessellate(ctx context.Context, job *engine.Job, k kernel.Kernel) ([]PartMesh, error) {
	if job == nil || len(job.Parts) == 0 {
		return nil, nil
	}

	out := make([]PartMesh, len(job.Parts))
	g, ctx := errgroup.WithContext(ctx)
	if job.Profile != nil && job.Profile.Workers > 0 {
		g.SetLimit(job.Profile.Workers)
	}
	for i, p := range job.Parts {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			m, err := k.ToMesh(p.Solid)
			if err != nil {
				return fmt.Errorf("tessellate: ToMesh failed for part %s: %w", p.Name, err)
			}
			out[i] = PartMesh{Name: p.Name, Mesh: seat(m)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// seat moves m so that its lowest vertex is at z=0.
func seat(m *mesh.TriangleMesh) *mesh.TriangleMesh {
	min, _ := m.Bounds()
	if min[2] == 0 {
		return m
	}
	return m.Translate(0, 0, -min[2])
}
