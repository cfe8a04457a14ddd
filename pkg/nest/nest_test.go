package nest

import (
	"testing"

	"github.com/chazu/strata/pkg/geom"
)

func rect(x0, y0, x1, y1 float64) geom.Loop {
	return geom.Loop{{x0, y0}, {x1, y0}, {x1, y1}, {x0, y1}}
}

func TestBuildDisjoint(t *testing.T) {
	loops := []geom.Loop{rect(0, 0, 1, 1), rect(2, 0, 3, 1), rect(4, 0, 5, 1), rect(0, 2, 1, 3)}
	f := Build(loops)
	if len(f.Roots) != len(loops) {
		t.Fatalf("got %d roots, want %d", len(f.Roots), len(loops))
	}
	for i, n := range f.Nodes {
		if len(n.Children) != 0 {
			t.Errorf("node %d has %d children", i, len(n.Children))
		}
		if n.Depth != 0 || !n.Loop.IsWiddershins() {
			t.Errorf("node %d depth=%d widdershins=%v", i, n.Depth, n.Loop.IsWiddershins())
		}
	}
}

func TestBuildNesting(t *testing.T) {
	outer := rect(0, 0, 10, 10)
	hole := rect(2, 2, 8, 8)
	island := rect(4, 4, 6, 6)
	// input order should not matter
	f := Build([]geom.Loop{island, outer, hole})

	tests := []struct {
		name       string
		index      int
		parent     int
		depth      int
		widdershin bool
	}{
		{"island", 0, 2, 2, true},
		{"outer", 1, -1, 0, true},
		{"hole", 2, 1, 1, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := f.Nodes[tt.index]
			if n.Parent != tt.parent {
				t.Errorf("parent = %d, want %d", n.Parent, tt.parent)
			}
			if n.Depth != tt.depth {
				t.Errorf("depth = %d, want %d", n.Depth, tt.depth)
			}
			if n.Loop.IsWiddershins() != tt.widdershin {
				t.Errorf("widdershins = %v, want %v", n.Loop.IsWiddershins(), tt.widdershin)
			}
			if n.Solid() != tt.widdershin {
				t.Errorf("solid = %v", n.Solid())
			}
		})
	}
	if len(f.Roots) != 1 || f.Roots[0] != 1 {
		t.Errorf("roots = %v, want [1]", f.Roots)
	}
}

func TestBuildPicksTightestParent(t *testing.T) {
	f := Build([]geom.Loop{rect(0, 0, 10, 10), rect(1, 1, 7, 7), rect(2, 2, 3, 3)})
	if got := f.Nodes[2].Parent; got != 1 {
		t.Errorf("parent of small loop = %d, want 1", got)
	}
}

func TestBuildEqualAreaTieBreak(t *testing.T) {
	a := rect(0, 0, 2, 2)
	b := rect(1, 0.5, 3, 2.5)

	f := Build([]geom.Loop{a.Clone(), b.Clone()})
	if f.Nodes[1].Parent != 0 {
		t.Errorf("later equal-area loop should nest in the earlier one, parent = %d", f.Nodes[1].Parent)
	}

	f = Build([]geom.Loop{b.Clone(), a.Clone()})
	if len(f.Roots) != 2 {
		t.Errorf("earlier loop may not nest in a later equal-area loop, roots = %v", f.Roots)
	}

	f = Build([]geom.Loop{a.Clone(), a.Clone()})
	if f.Nodes[0].Parent != -1 || f.Nodes[1].Parent != 0 {
		t.Errorf("identical loops: parents = %d, %d; want -1, 0", f.Nodes[0].Parent, f.Nodes[1].Parent)
	}
}

func TestBuildTouchingLoops(t *testing.T) {
	tests := []struct {
		name  string
		loops []geom.Loop
	}{
		{"shared edge", []geom.Loop{rect(0, 0, 10, 10), rect(10, 0, 20, 10)}},
		{"shared partial edge", []geom.Loop{rect(0, 0, 10, 10), rect(10, 2, 14, 6)}},
		{"shared corner", []geom.Loop{rect(0, 0, 10, 10), rect(10, 10, 12, 12)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := Build(tt.loops)
			if len(f.Roots) != 2 {
				t.Fatalf("got %d roots, want 2", len(f.Roots))
			}
			for i, n := range f.Nodes {
				if n.Parent != -1 || !n.Solid() || !n.Loop.IsWiddershins() {
					t.Errorf("node %d parent=%d solid=%v, want a solid root", i, n.Parent, n.Solid())
				}
			}
		})
	}
}

func TestBuildDegenerateLoop(t *testing.T) {
	f := Build([]geom.Loop{rect(0, 0, 10, 10), {{5, 5}, {6, 6}}})
	if f.Nodes[1].Parent != -1 || len(f.Roots) != 2 {
		t.Errorf("two-point loop should stay a root: %+v", f.Nodes[1])
	}
}

func TestWalkPreOrder(t *testing.T) {
	f := Build([]geom.Loop{rect(4, 4, 6, 6), rect(0, 0, 10, 10), rect(2, 2, 8, 8), rect(20, 0, 21, 1)})
	var order []int
	f.Walk(func(i int) { order = append(order, i) })
	want := []int{1, 2, 0, 3}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
}
