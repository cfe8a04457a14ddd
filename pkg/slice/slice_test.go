package slice

import (
	"errors"
	"math"
	"testing"

	"github.com/chazu/strata/pkg/diag"
	"github.com/chazu/strata/pkg/geom"
	"github.com/chazu/strata/pkg/mesh"
)

func unitCube() *mesh.TriangleMesh {
	return mesh.Box([3]float64{0, 0, 0}, [3]float64{1, 1, 1}, false)
}

func hollowCube() *mesh.TriangleMesh {
	return mesh.Merge(
		mesh.Box([3]float64{0, 0, 0}, [3]float64{10, 10, 10}, false),
		mesh.Box([3]float64{3, 3, 3}, [3]float64{7, 7, 7}, true),
	)
}

// withDuplicateFace returns a 10 unit box whose first side triangle is
// repeated, leaving three edges owned by three faces.
func withDuplicateFace() *mesh.TriangleMesh {
	b := mesh.Box([3]float64{0, 0, 0}, [3]float64{10, 10, 10}, false)
	positions := make([][3]float64, len(b.Vertices))
	for i, v := range b.Vertices {
		positions[i] = [3]float64{v.X, v.Y, v.Z}
	}
	var faces [][3]int
	for _, f := range b.Faces {
		faces = append(faces, f.V)
	}
	faces = append(faces, b.Faces[4].V)
	return mesh.New(positions, faces)
}

func TestSliceExactUnitCube(t *testing.T) {
	loops, err := SliceExact(unitCube(), 0.5)
	if err != nil {
		t.Fatalf("SliceExact: %v", err)
	}
	if len(loops) != 1 {
		t.Fatalf("got %d loops, want 1", len(loops))
	}
	if len(loops[0]) != 8 {
		t.Errorf("got %d points, want 8 (4 vertical edges and 4 diagonals)", len(loops[0]))
	}
	if got := math.Abs(loops[0].Area()); math.Abs(got-1) > 1e-9 {
		t.Errorf("|area| = %v, want 1", got)
	}
}

func TestSliceExactOutsideMesh(t *testing.T) {
	loops, err := SliceExact(unitCube(), 2)
	if err != nil {
		t.Fatalf("SliceExact: %v", err)
	}
	if len(loops) != 0 {
		t.Errorf("got %d loops above the mesh", len(loops))
	}
}

func TestSliceExactNonManifold(t *testing.T) {
	_, err := SliceExact(withDuplicateFace(), 5)
	var mie *diag.MeshIntegrityError
	if !errors.As(err, &mie) {
		t.Fatalf("err = %v, want *MeshIntegrityError", err)
	}
	if mie.Reason != diag.ReasonNonManifoldEdge {
		t.Errorf("reason = %v, want %v", mie.Reason, diag.ReasonNonManifoldEdge)
	}
	if mie.Faces != 3 {
		t.Errorf("faces = %d, want 3", mie.Faces)
	}
}

func TestSliceExactOpenMesh(t *testing.T) {
	b := unitCube()
	positions := make([][3]float64, len(b.Vertices))
	for i, v := range b.Vertices {
		positions[i] = [3]float64{v.X, v.Y, v.Z}
	}
	var faces [][3]int
	for i, f := range b.Faces {
		if i == 4 {
			continue
		}
		faces = append(faces, f.V)
	}
	_, err := SliceExact(mesh.New(positions, faces), 0.5)
	var mie *diag.MeshIntegrityError
	if !errors.As(err, &mie) {
		t.Fatalf("err = %v, want *MeshIntegrityError", err)
	}
}

func TestExtractUnitCube(t *testing.T) {
	res := Extract(unitCube(), 0.5, Options{Radius: 0.3, CorrectMesh: true})
	if res.Fallback != nil {
		t.Fatalf("unexpected fallback: %v", res.Fallback)
	}
	if len(res.Loops) != 1 {
		t.Fatalf("got %d loops, want 1", len(res.Loops))
	}
	l := res.Loops[0]
	if len(l) != 4 {
		t.Errorf("got %d points after simplification, want 4", len(l))
	}
	if !l.IsWiddershins() {
		t.Error("outer loop should be widdershins")
	}
	if got := l.Area(); math.Abs(got-1) > 1e-9 {
		t.Errorf("area = %v, want 1", got)
	}
	for _, p := range l {
		if (p[0] != 0 && p[0] != 1) || (p[1] != 0 && p[1] != 1) {
			t.Errorf("point %v is not a unit square corner", p)
		}
	}
}

func TestExtractCavity(t *testing.T) {
	res := Extract(hollowCube(), 5, Options{Radius: 0.3, CorrectMesh: true})
	if res.Fallback != nil {
		t.Fatalf("unexpected fallback: %v", res.Fallback)
	}
	if len(res.Loops) != 2 {
		t.Fatalf("got %d loops, want 2", len(res.Loops))
	}
	outer, inner := res.Loops[0], res.Loops[1]
	if !outer.IsWiddershins() || math.Abs(outer.Area()-100) > 1e-9 {
		t.Errorf("outer area = %v, want +100", outer.Area())
	}
	if inner.IsWiddershins() || math.Abs(inner.Area()+16) > 1e-9 {
		t.Errorf("inner area = %v, want -16", inner.Area())
	}
}

func TestExtractBelowCavity(t *testing.T) {
	res := Extract(hollowCube(), 1, Options{Radius: 0.3, CorrectMesh: true})
	if len(res.Loops) != 1 {
		t.Fatalf("got %d loops, want 1", len(res.Loops))
	}
}

func TestExtractFallsBack(t *testing.T) {
	tests := []struct {
		name         string
		m            *mesh.TriangleMesh
		correct      bool
		wantFallback bool
	}{
		{"non-manifold edge", withDuplicateFace(), true, true},
		{"exact walk disabled", mesh.Box([3]float64{0, 0, 0}, [3]float64{10, 10, 10}, false), false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Extract(tt.m, 5, Options{Radius: 0.3, CorrectMesh: tt.correct})
			if (res.Fallback != nil) != tt.wantFallback {
				t.Errorf("fallback = %v, want set=%v", res.Fallback, tt.wantFallback)
			}
			if len(res.Loops) != 1 {
				t.Fatalf("got %d loops, want 1", len(res.Loops))
			}
			l := res.Loops[0]
			if !l.IsWiddershins() {
				t.Error("approximate outer loop should be widdershins")
			}
			if got := l.Area(); math.Abs(got-100) > 2 {
				t.Errorf("area = %v, want about 100", got)
			}
		})
	}
}

func TestSliceApproximateTooFewPoints(t *testing.T) {
	if loops := SliceApproximate(unitCube(), 5, 0.3); len(loops) != 0 {
		t.Errorf("got %d loops above the mesh", len(loops))
	}
	if loops := SliceApproximate(unitCube(), 0.5, 0); len(loops) != 0 {
		t.Errorf("got %d loops with zero radius", len(loops))
	}
}

func TestOrient(t *testing.T) {
	outer := geom.Loop{{0, 10}, {10, 10}, {10, 0}, {0, 0}}
	hole := geom.Loop{{2, 2}, {8, 2}, {8, 8}, {2, 8}}
	island := geom.Loop{{4, 4}, {4, 6}, {6, 6}, {6, 4}}
	loops := Orient([]geom.Loop{outer, hole, island})

	want := []bool{true, false, true}
	for i, l := range loops {
		if l.IsWiddershins() != want[i] {
			t.Errorf("loop %d widdershins = %v, want %v", i, l.IsWiddershins(), want[i])
		}
	}
}

func TestInsertWithLeastLength(t *testing.T) {
	l := geom.Loop{{0, 0}, {1, 0}, {2, 0}, {3, 0}, {3, 2}, {0, 2}}
	far := insertWithLeastLength([]geom.Loop{l.Clone()}, geom.Point{1, 1}, 1)
	if len(far[0]) != 6 {
		t.Errorf("off-line point should not be inserted: %v", far[0])
	}

	loops := insertWithLeastLength([]geom.Loop{l}, geom.Point{1.5, 0}, 1)
	if len(loops[0]) != 7 {
		t.Fatalf("got %d points, want 7", len(loops[0]))
	}
	if loops[0][2] != (geom.Point{1.5, 0}) {
		t.Errorf("inserted at wrong place: %v", loops[0])
	}
}
