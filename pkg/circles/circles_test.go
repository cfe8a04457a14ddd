package circles

import (
	"math"
	"testing"

	"github.com/chazu/strata/pkg/geom"
)

func circlePoints(cx, cy, r, spacing float64) []geom.Point {
	n := int(math.Ceil(2 * math.Pi * r / spacing))
	pts := make([]geom.Point, n)
	for i := range pts {
		a := 2 * math.Pi * float64(i) / float64(n)
		pts[i] = geom.Point{cx + r*math.Cos(a), cy + r*math.Sin(a)}
	}
	return pts
}

func squarePoints(size, spacing float64) []geom.Point {
	var pts []geom.Point
	corners := []geom.Point{{0, 0}, {size, 0}, {size, size}, {0, size}}
	for i, a := range corners {
		b := corners[(i+1)%4]
		n := int(math.Ceil(size / spacing))
		for k := 0; k < n; k++ {
			t := float64(k) / float64(n)
			pts = append(pts, geom.Point{a[0] + (b[0]-a[0])*t, a[1] + (b[1]-a[1])*t})
		}
	}
	return pts
}

func TestCenterLoopsEmpty(t *testing.T) {
	if loops := CenterLoops(nil, 1); len(loops) != 0 {
		t.Errorf("got %d loops from no points", len(loops))
	}
}

func TestCenterLoopsSingleDisk(t *testing.T) {
	loops := CenterLoops([]geom.Point{{1, 1}}, 1)
	if len(loops) != 0 {
		t.Errorf("a lone disk has no intersections, got %d loops", len(loops))
	}
}

func TestCenterLoopsDeduplicates(t *testing.T) {
	pk := NewPacking([]geom.Point{{0, 0}, {0, 0}, {1e-6, 0}, {1, 0}}, 0.5)
	if pk.Len() != 2 {
		t.Errorf("Len = %d, want 2", pk.Len())
	}
}

func TestCenterLoopsCircle(t *testing.T) {
	pts := circlePoints(0, 0, 5, 0.3)
	loops := CenterLoops(pts, 0.5)
	if len(loops) != 2 {
		t.Fatalf("got %d loops, want 2", len(loops))
	}

	want := math.Pi * 25
	var ccw, cw int
	for _, l := range loops {
		if l.IsWiddershins() {
			ccw++
		} else {
			cw++
		}
		if got := math.Abs(l.Area()); math.Abs(got-want)/want > 0.05 {
			t.Errorf("|area| = %.2f, want about %.2f", got, want)
		}
		if len(l) < len(pts)/2 {
			t.Errorf("loop has %d centres, expected most of %d", len(l), len(pts))
		}
	}
	if ccw != 1 || cw != 1 {
		t.Errorf("windings ccw=%d cw=%d, want one of each", ccw, cw)
	}
}

func TestCenterLoopsSquare(t *testing.T) {
	loops := CenterLoops(squarePoints(10, 0.3), 0.5)
	if len(loops) != 2 {
		t.Fatalf("got %d loops, want 2", len(loops))
	}
	for _, l := range loops {
		if got := math.Abs(l.Area()); math.Abs(got-100) > 5 {
			t.Errorf("|area| = %.2f, want about 100", got)
		}
	}
}

func TestCenterLoopsSeparateCurves(t *testing.T) {
	pts := append(circlePoints(0, 0, 3, 0.3), circlePoints(20, 0, 3, 0.3)...)
	loops := CenterLoops(pts, 0.5)
	if len(loops) != 4 {
		t.Errorf("got %d loops, want 4", len(loops))
	}
}
