package simplify

import (
	"math"
	"math/rand"
	"reflect"
	"testing"

	"github.com/chazu/strata/pkg/geom"
)

func TestLoopRemovesCollinearPoints(t *testing.T) {
	l := geom.Loop{{0, 0}, {0.5, 0}, {1, 0}, {1, 0.5}, {1, 1}, {0.5, 1}, {0, 1}, {0, 0.5}}
	got := Loop(l, 1e-6)
	if len(got) != 4 {
		t.Fatalf("expected 4 corners, got %d: %v", len(got), got)
	}
	if math.Abs(got.Area()-1) > 1e-12 {
		t.Errorf("area changed: %v", got.Area())
	}
}

func TestLoopRemovesClosePoints(t *testing.T) {
	l := geom.Loop{{0, 0}, {10, 0}, {10, 0.001}, {10, 10}, {0, 10}}
	got := Loop(l, 0.01)
	if len(got) != 4 {
		t.Fatalf("expected 4 points, got %d: %v", len(got), got)
	}
}

func TestLoopKeepsDenselySampledSquare(t *testing.T) {
	var l geom.Loop
	for i := 0; i < 50; i++ {
		l = append(l, geom.Point{0.2 * float64(i), 0})
	}
	for i := 0; i < 50; i++ {
		l = append(l, geom.Point{10, 0.2 * float64(i)})
	}
	for i := 0; i < 50; i++ {
		l = append(l, geom.Point{10 - 0.2*float64(i), 10})
	}
	for i := 0; i < 50; i++ {
		l = append(l, geom.Point{0, 10 - 0.2*float64(i)})
	}

	got := Loop(l, 0.3)
	if len(got) != 4 {
		t.Fatalf("expected 4 corners, got %d: %v", len(got), got)
	}
	if math.Abs(got.Area()-100) > 1e-9 {
		t.Errorf("area = %v, want 100", got.Area())
	}
}

func TestLoopKeepsPolygonalCircle(t *testing.T) {
	const n = 64
	l := make(geom.Loop, n)
	for i := range l {
		a := 2 * math.Pi * float64(i) / n
		l[i] = geom.Point{5 * math.Cos(a), 5 * math.Sin(a)}
	}
	want := l.Area()

	got := Loop(l, 0.3)
	if len(got) < n/2 {
		t.Errorf("kept %d of %d points", len(got), n)
	}
	if rel := math.Abs(got.Area()-want) / want; rel > 0.01 {
		t.Errorf("area %v -> %v, lost %.2f%%", want, got.Area(), rel*100)
	}
}

func TestLoopKeepsShortLoops(t *testing.T) {
	l := geom.Loop{{0, 0}, {1, 1}}
	got := Loop(l, 10)
	if !reflect.DeepEqual(got, l) {
		t.Errorf("Loop() = %v, want %v", got, l)
	}
}

func TestLoopDoesNotModifyInput(t *testing.T) {
	l := geom.Loop{{0, 0}, {0.5, 0}, {1, 0}, {1, 1}, {0, 1}}
	orig := l.Clone()
	Loop(l, 1e-6)
	if !reflect.DeepEqual(l, orig) {
		t.Errorf("input modified: %v", l)
	}
}

func TestLoopIsIdempotent(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	tols := []float64{0, 0.01, 0.1, 0.5}
	for trial := 0; trial < 50; trial++ {
		n := 3 + rng.Intn(60)
		l := make(geom.Loop, n)
		for i := range l {
			a := 2 * math.Pi * float64(i) / float64(n)
			r := 5 + rng.Float64()*0.3
			l[i] = geom.Point{r * math.Cos(a), r * math.Sin(a)}
		}
		for _, tol := range tols {
			once := Loop(l, tol)
			twice := Loop(once, tol)
			if !reflect.DeepEqual(once, twice) {
				t.Fatalf("trial %d tol %v: not idempotent\nonce:  %v\ntwice: %v", trial, tol, once, twice)
			}
		}
	}
}

func TestLoopsDropsDegenerate(t *testing.T) {
	loops := []geom.Loop{
		{{0, 0}, {1, 0}, {1, 1}, {0, 1}},
		{{0, 0}, {1, 0}, {2, 0}},
	}
	got := Loops(loops, 1e-6)
	if len(got) != 1 {
		t.Fatalf("expected collinear loop to be dropped, got %d loops", len(got))
	}
}
