package sdfx

import (
	"math"
	"testing"
)

func TestBoxMesh(t *testing.T) {
	k := New(40)
	m, err := k.ToMesh(k.Box(10, 10, 10))
	if err != nil {
		t.Fatalf("ToMesh failed: %v", err)
	}
	if len(m.Faces) == 0 || len(m.Vertices) == 0 {
		t.Fatal("mesh is empty")
	}
	min, max := m.Bounds()
	const tol = 0.5
	for i := 0; i < 3; i++ {
		if math.Abs(min[i]) > tol || math.Abs(max[i]-10) > tol {
			t.Errorf("axis %d bounds = [%f, %f], expected about [0, 10]", i, min[i], max[i])
		}
	}
	// Welding shares vertices between neighbouring triangles.
	if len(m.Vertices) >= 3*len(m.Faces) {
		t.Errorf("%d vertices for %d faces: corners were not welded", len(m.Vertices), len(m.Faces))
	}
}

func TestBoundingBox(t *testing.T) {
	k := New(0)
	min, max := k.Box(100, 50, 25).BoundingBox()

	const tol = 0.01
	expectMin := [3]float64{0, 0, 0}
	expectMax := [3]float64{100, 50, 25}
	for i := 0; i < 3; i++ {
		if math.Abs(min[i]-expectMin[i]) > tol {
			t.Errorf("min[%d] = %f, expected %f", i, min[i], expectMin[i])
		}
		if math.Abs(max[i]-expectMax[i]) > tol {
			t.Errorf("max[%d] = %f, expected %f", i, max[i], expectMax[i])
		}
	}
}

func TestCylinderStandsOnPlane(t *testing.T) {
	k := New(0)
	min, max := k.Cylinder(50, 10).BoundingBox()

	const tol = 0.01
	expectMin := [3]float64{-10, -10, 0}
	expectMax := [3]float64{10, 10, 50}
	for i := 0; i < 3; i++ {
		if math.Abs(min[i]-expectMin[i]) > tol {
			t.Errorf("min[%d] = %f, expected %f", i, min[i], expectMin[i])
		}
		if math.Abs(max[i]-expectMax[i]) > tol {
			t.Errorf("max[%d] = %f, expected %f", i, max[i], expectMax[i])
		}
	}
}

func TestDifference(t *testing.T) {
	k := New(60)

	box := k.Box(100, 100, 100)
	boxMesh, err := k.ToMesh(box)
	if err != nil {
		t.Fatalf("ToMesh(box) failed: %v", err)
	}

	cyl := k.Translate(k.Cylinder(120, 20), 50, 50, -10)
	diffMesh, err := k.ToMesh(k.Difference(box, cyl))
	if err != nil {
		t.Fatalf("ToMesh(diff) failed: %v", err)
	}
	// A box with a hole should have more triangles than a plain box.
	if len(diffMesh.Faces) <= len(boxMesh.Faces) {
		t.Fatalf("difference (%d triangles) should have more triangles than box (%d triangles)",
			len(diffMesh.Faces), len(boxMesh.Faces))
	}
}

func TestUnion(t *testing.T) {
	k := New(40)
	u := k.Union(k.Box(50, 50, 50), k.Translate(k.Box(50, 50, 50), 30, 0, 0))
	min, max := u.BoundingBox()
	if math.Abs(min[0]) > 0.01 || math.Abs(max[0]-80) > 0.01 {
		t.Errorf("union x extent = [%f, %f], expected [0, 80]", min[0], max[0])
	}
	if _, err := k.ToMesh(u); err != nil {
		t.Fatalf("ToMesh failed: %v", err)
	}
}

func TestIntersection(t *testing.T) {
	k := New(40)
	inter := k.Intersection(k.Box(100, 100, 100), k.Translate(k.Box(100, 100, 100), 50, 0, 0))
	if _, err := k.ToMesh(inter); err != nil {
		t.Fatalf("ToMesh failed: %v", err)
	}
}

func TestTranslate(t *testing.T) {
	k := New(0)
	min, max := k.Translate(k.Box(10, 10, 10), 100, 200, 300).BoundingBox()

	const tol = 0.5
	expectMin := [3]float64{100, 200, 300}
	expectMax := [3]float64{110, 210, 310}
	for i := 0; i < 3; i++ {
		if math.Abs(min[i]-expectMin[i]) > tol {
			t.Errorf("min[%d] = %f, expected ~%f", i, min[i], expectMin[i])
		}
		if math.Abs(max[i]-expectMax[i]) > tol {
			t.Errorf("max[%d] = %f, expected ~%f", i, max[i], expectMax[i])
		}
	}
}

func TestRotate(t *testing.T) {
	k := New(0)
	// A long box along X rotated 90 degrees around Z should extend along Y instead.
	min, max := k.Rotate(k.Box(100, 10, 10), 0, 0, 90).BoundingBox()

	xExtent := max[0] - min[0]
	yExtent := max[1] - min[1]

	const tol = 1.0
	if math.Abs(xExtent-10) > tol {
		t.Errorf("rotated X extent = %f, expected ~10", xExtent)
	}
	if math.Abs(yExtent-100) > tol {
		t.Errorf("rotated Y extent = %f, expected ~100", yExtent)
	}
}
