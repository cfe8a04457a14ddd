package tessellate_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/chazu/strata/pkg/engine"
	"github.com/chazu/strata/pkg/kernel"
	"github.com/chazu/strata/pkg/kernel/sdfx"
	"github.com/chazu/strata/pkg/mesh"
	"github.com/chazu/strata/pkg/profile"
	"github.com/chazu/strata/pkg/tessellate"
)

// newKernel returns a coarse sdfx kernel so tests stay fast.
func newKernel() kernel.Kernel {
	return sdfx.New(30)
}

func TestTessellateEmptyJob(t *testing.T) {
	for _, job := range []*engine.Job{nil, {Profile: profile.Default()}} {
		meshes, err := tessellate.Tessellate(context.Background(), job, newKernel())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(meshes) != 0 {
			t.Errorf("expected no meshes, got %d", len(meshes))
		}
	}
}

func TestTessellatePartsInOrder(t *testing.T) {
	k := newKernel()
	job := &engine.Job{
		Profile: profile.Default(),
		Parts: []engine.Part{
			{Name: "plate", Solid: k.Box(20, 20, 2)},
			{Name: "peg", Solid: k.Cylinder(10, 3)},
		},
	}
	meshes, err := tessellate.Tessellate(context.Background(), job, k)
	if err != nil {
		t.Fatalf("Tessellate: %v", err)
	}
	if len(meshes) != 2 || meshes[0].Name != "plate" || meshes[1].Name != "peg" {
		t.Fatalf("meshes = %+v", meshes)
	}
	for _, pm := range meshes {
		if len(pm.Mesh.Faces) == 0 {
			t.Errorf("%s: empty mesh", pm.Name)
		}
	}
}

func TestTessellateSeatsOnBed(t *testing.T) {
	k := newKernel()
	job := &engine.Job{Parts: []engine.Part{
		{Name: "floating", Solid: k.Translate(k.Box(10, 10, 10), 5, 5, 30)},
	}}
	meshes, err := tessellate.Tessellate(context.Background(), job, k)
	if err != nil {
		t.Fatalf("Tessellate: %v", err)
	}
	min, max := meshes[0].Mesh.Bounds()
	if min[2] != 0 {
		t.Errorf("lowest z = %v, want 0", min[2])
	}
	if math.Abs(max[2]-10) > 1 {
		t.Errorf("height = %v, want about 10", max[2])
	}
	if math.Abs(min[0]-5) > 1 {
		t.Errorf("x offset = %v, want about 5", min[0])
	}
}

type failingKernel struct{ kernel.Kernel }

var errBoom = errors.New("boom")

func (failingKernel) ToMesh(kernel.Solid) (*mesh.TriangleMesh, error) { return nil, errBoom }

func TestTessellateWrapsKernelErrors(t *testing.T) {
	k := newKernel()
	job := &engine.Job{Parts: []engine.Part{{Name: "bad", Solid: k.Box(1, 1, 1)}}}
	_, err := tessellate.Tessellate(context.Background(), job, failingKernel{k})
	if !errors.Is(err, errBoom) {
		t.Fatalf("err = %v, want wrapped errBoom", err)
	}
}

func TestTessellateCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	k := newKernel()
	job := &engine.Job{Parts: []engine.Part{{Name: "cube", Solid: k.Box(1, 1, 1)}}}
	if _, err := tessellate.Tessellate(ctx, job, k); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}
