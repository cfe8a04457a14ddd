// Package layer assembles sliced layers: the cross-section at one height,
// nested into rings, each ring carrying its perimeter toolpaths.
//
// Rings of a layer live in one arena (Layer.Rings) and refer to each other
// by index. The core writes boundaries and perimeters; the ExtraLoops and
// Infill fields are left for downstream planners to fill.
package layer

import (
	"github.com/chazu/strata/pkg/geom"
	"github.com/chazu/strata/pkg/offset"
)

// NestedRing is one region boundary of a layer with its toolpaths.
type NestedRing struct {
	Boundary   geom.Loop
	Perimeters []offset.Perimeter
	ExtraLoops []geom.Loop
	Infill     []geom.Path

	Parent   int // -1 for a top-level ring
	Children []int
	Depth    int
}

// Solid reports whether the ring bounds material rather than a hole.
func (r *NestedRing) Solid() bool {
	return r.Depth%2 == 0
}

// Translate moves the ring and all its toolpaths by (dx, dy).
func (r *NestedRing) Translate(dx, dy float64) {
	r.Boundary.Translate(dx, dy)
	for i := range r.Perimeters {
		geom.Loop(r.Perimeters[i].Points).Translate(dx, dy)
	}
	for _, l := range r.ExtraLoops {
		l.Translate(dx, dy)
	}
	for _, p := range r.Infill {
		geom.Loop(p).Translate(dx, dy)
	}
}

// Layer is the sliced result at one height.
type Layer struct {
	Z      float64
	Index  int
	Bridge bool

	Rings []NestedRing
	Roots []int
}

// Empty reports whether the layer has no rings.
func (l *Layer) Empty() bool {
	return len(l.Rings) == 0
}

// Walk visits rings depth first, each ring before its children, in the
// order perimeters were produced.
func (l *Layer) Walk(visit func(i int, r *NestedRing)) {
	var rec func(i int)
	rec = func(i int) {
		visit(i, &l.Rings[i])
		for _, c := range l.Rings[i].Children {
			rec(c)
		}
	}
	for _, r := range l.Roots {
		rec(r)
	}
}

// Translate moves every ring of the layer.
func (l *Layer) Translate(dx, dy float64) {
	for i := range l.Rings {
		l.Rings[i].Translate(dx, dy)
	}
}

// PerimeterCount returns how many perimeter paths the layer holds.
func (l *Layer) PerimeterCount() int {
	n := 0
	for i := range l.Rings {
		n += len(l.Rings[i].Perimeters)
	}
	return n
}
