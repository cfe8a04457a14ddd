// Package nest arranges the loops of one layer into a containment forest.
//
// Nodes live in a single arena and refer to each other by index. A loop's
// parent is the smallest-area loop that encloses a point just inside it, so
// loops that only touch along an edge stay siblings. Equal areas resolve to the lower input index, so identical loops nest the later
// one inside the earlier. Depth parity decides solid versus hole.
package nest

import (
	"math"

	"github.com/chazu/strata/pkg/geom"
)

// Node is one loop in the forest.
type Node struct {
	Loop     geom.Loop
	Parent   int // -1 for a root
	Children []int
	Depth    int
}

// Solid reports whether the node bounds material (even depth).
func (n *Node) Solid() bool {
	return n.Depth%2 == 0
}

// Forest is the containment forest of a layer's loops. Nodes[i] holds
// input loop i.
type Forest struct {
	Nodes []Node
	Roots []int
}

// Build nests loops. Loops with fewer than three points are kept as roots
// without children. After Build every solid loop winds widdershins and
// every hole clockwise; the input loops are reoriented in place.
func Build(loops []geom.Loop) *Forest {
	f := &Forest{Nodes: make([]Node, len(loops))}
	areas := make([]float64, len(loops))
	for i, l := range loops {
		f.Nodes[i] = Node{Loop: l, Parent: -1}
		areas[i] = math.Abs(l.Area())
	}

	for i, l := range loops {
		if len(l) < 3 {
			continue
		}
		f.Nodes[i].Parent = parentOf(loops, areas, i)
	}

	for i := range f.Nodes {
		if p := f.Nodes[i].Parent; p >= 0 {
			f.Nodes[p].Children = append(f.Nodes[p].Children, i)
		} else {
			f.Roots = append(f.Roots, i)
		}
	}

	f.Walk(func(i int) {
		n := &f.Nodes[i]
		if n.Parent >= 0 {
			n.Depth = f.Nodes[n.Parent].Depth + 1
		}
		n.Loop.Direct(n.Solid())
	})
	return f
}

// parentOf returns the tightest loop enclosing loop i, or -1.
func parentOf(loops []geom.Loop, areas []float64, i int) int {
	at := loops[i].InteriorPoint()
	best := -1
	for j, c := range loops {
		if j == i || len(c) < 3 || !encloses(areas, j, i) {
			continue
		}
		if !c.Contains(at) {
			continue
		}
		if best < 0 || areas[j] < areas[best] || (areas[j] == areas[best] && j < best) {
			best = j
		}
	}
	return best
}

// encloses reports whether j may be a parent of i: larger, or equal in
// area and earlier in the input. This keeps the parent relation acyclic.
func encloses(areas []float64, j, i int) bool {
	if areas[j] != areas[i] {
		return areas[j] > areas[i]
	}
	return j < i
}

// Walk visits every node in depth-first pre-order: roots in input order,
// each followed by its subtree. Parents are always visited before their
// children.
func (f *Forest) Walk(visit func(i int)) {
	var rec func(i int)
	rec = func(i int) {
		visit(i)
		for _, c := range f.Nodes[i].Children {
			rec(c)
		}
	}
	for _, r := range f.Roots {
		rec(r)
	}
}

// Len returns the number of nodes.
func (f *Forest) Len() int {
	return len(f.Nodes)
}
