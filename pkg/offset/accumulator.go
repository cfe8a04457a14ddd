package offset

import (
	"github.com/chazu/strata/pkg/geom"
	clipper "github.com/ctessum/go.clipper"
	"github.com/dhconnelly/rtreego"
	"github.com/paulmach/orb"
)

// Accumulator is the running record of perimeter geometry already emitted
// on one layer. Each emitted loop or path is kept as an exclusion band of
// the accumulator's width. An Accumulator belongs to the single task that
// builds its layer and is not safe for concurrent use.
type Accumulator struct {
	width        float64
	arcTolerance float64
	tree         *rtreego.Rtree
	count        int
}

// entry is one exclusion band.
type entry struct {
	region clipper.Paths
	rect   rtreego.Rect
}

func (e *entry) Bounds() rtreego.Rect {
	return e.rect
}

// NewAccumulator returns an empty accumulator whose bands extend width on
// each side of the emitted geometry.
func NewAccumulator(width, arcTolerance float64) *Accumulator {
	return &Accumulator{
		width:        width,
		arcTolerance: arcTolerance,
		tree:         rtreego.NewTree(2, 8, 32),
	}
}

// Width returns the exclusion margin.
func (a *Accumulator) Width() float64 {
	return a.width
}

// Len returns the number of emitted items recorded.
func (a *Accumulator) Len() int {
	return a.count
}

// AddLoop records a closed loop.
func (a *Accumulator) AddLoop(l geom.Loop) {
	a.add(l, true, l.Bound())
}

// AddPath records an open path.
func (a *Accumulator) AddPath(p geom.Path) {
	a.add(p, false, p.Bound())
}

func (a *Accumulator) add(pts []geom.Point, closed bool, b orb.Bound) {
	if len(pts) < 2 || a.width <= 0 {
		return
	}
	region := band(pts, closed, a.width, a.arcTolerance)
	if len(region) == 0 {
		return
	}
	a.tree.Insert(&entry{region: region, rect: geom.Rect(b, a.width)})
	a.count++
}

// Near returns the bands that may touch geometry within bound b.
func (a *Accumulator) Near(b orb.Bound) clipper.Paths {
	if a.tree.Size() == 0 {
		return nil
	}
	var out clipper.Paths
	for _, hit := range a.tree.SearchIntersect(geom.Rect(b, 0)) {
		out = append(out, hit.(*entry).region...)
	}
	return out
}
