// Package circles reconstructs loops from an unordered point cloud by
// walking the boundary of the union of equal disks centred on the points.
//
// Each boundary arc belongs to one disk. Walking the union boundary
// widdershins and recording the centre of every disk it passes over yields
// a "centre loop" that traces the original curve the points were sampled
// from. A thin band around a closed curve has an outer and an inner
// boundary, so every curve produces two centre loops of opposite winding;
// callers keep one of each pair.
package circles

import (
	"math"

	"github.com/chazu/strata/pkg/geom"
	"github.com/dhconnelly/rtreego"
)

// dedupeRatio is the fraction of the radius under which two points are
// treated as the same disk.
const dedupeRatio = 1e-3

// node is one disk.
type node struct {
	index  int
	center geom.Point
	rect   rtreego.Rect
}

func (n *node) Bounds() rtreego.Rect {
	return n.rect
}

// intersection is a point where the union boundary leaves the behind disk
// and continues on the ahead disk.
type intersection struct {
	p      geom.Point
	behind int
	ahead  int
	used   bool
}

// Packing is the set of disks built from a point cloud.
type Packing struct {
	radius float64
	nodes  []*node
	tree   *rtreego.Rtree
}

// NewPacking places a disk of the given radius at every point, merging
// points that nearly coincide.
func NewPacking(points []geom.Point, radius float64) *Packing {
	pk := &Packing{
		radius: radius,
		tree:   rtreego.NewTree(2, 8, 32),
	}
	dedupe := radius * dedupeRatio
	for _, p := range points {
		q := rtreego.Point{p[0], p[1]}
		if pk.tree.Size() > 0 {
			nearest := pk.tree.NearestNeighbor(q).(*node)
			if geom.Dist(nearest.center, p) <= dedupe {
				continue
			}
		}
		n := &node{
			index:  len(pk.nodes),
			center: p,
			rect:   q.ToRect(geomPad),
		}
		pk.nodes = append(pk.nodes, n)
		pk.tree.Insert(n)
	}
	return pk
}

// geomPad keeps point rectangles from having zero extent.
const geomPad = 1e-9

// Len returns the number of disks.
func (pk *Packing) Len() int {
	return len(pk.nodes)
}

// near returns the disks whose centres lie within dist of p.
func (pk *Packing) near(p geom.Point, dist float64) []*node {
	hits := pk.tree.SearchIntersect(rtreego.Point{p[0], p[1]}.ToRect(dist))
	out := make([]*node, 0, len(hits))
	for _, h := range hits {
		n := h.(*node)
		if geom.Dist(n.center, p) <= dist {
			out = append(out, n)
		}
	}
	return out
}

// covered reports whether p lies strictly inside a disk other than a and b.
func (pk *Packing) covered(p geom.Point, a, b int) bool {
	inner := pk.radius * (1 - 1e-9)
	for _, n := range pk.near(p, pk.radius) {
		if n.index == a || n.index == b {
			continue
		}
		if geom.Dist(n.center, p) < inner {
			return true
		}
	}
	return false
}

// intersections returns every pairwise disk intersection that lies on the
// boundary of the union.
func (pk *Packing) intersections() []*intersection {
	r := pk.radius
	var out []*intersection
	for _, a := range pk.nodes {
		for _, b := range pk.near(a.center, 2*r) {
			if b.index <= a.index {
				continue
			}
			dx, dy := b.center[0]-a.center[0], b.center[1]-a.center[1]
			d := math.Hypot(dx, dy)
			if d <= 0 || d >= 2*r {
				continue
			}
			h := math.Sqrt(r*r - d*d/4)
			mid := geom.Point{a.center[0] + dx/2, a.center[1] + dy/2}
			px, py := -dy/d*h, dx/d*h
			for _, p := range []geom.Point{{mid[0] + px, mid[1] + py}, {mid[0] - px, mid[1] - py}} {
				if pk.covered(p, a.index, b.index) {
					continue
				}
				out = append(out, pk.orient(p, a, b))
			}
		}
	}
	return out
}

// orient decides which disk the widdershins boundary walk arrives on and
// which it leaves on. Moving widdershins around a from p heads into b
// exactly when the boundary is leaving a's arc.
func (pk *Packing) orient(p geom.Point, a, b *node) *intersection {
	tx, ty := -(p[1] - a.center[1]), p[0]-a.center[0]
	if tx*(b.center[0]-p[0])+ty*(b.center[1]-p[1]) > 0 {
		return &intersection{p: p, behind: a.index, ahead: b.index}
	}
	return &intersection{p: p, behind: b.index, ahead: a.index}
}

// CenterLoops walks every boundary component of the disk union and returns
// the centre loop of each. Components that cannot be closed are dropped.
func (pk *Packing) CenterLoops() []geom.Loop {
	all := pk.intersections()
	byBehind := make(map[int][]*intersection, len(pk.nodes))
	for _, in := range all {
		byBehind[in.behind] = append(byBehind[in.behind], in)
	}

	var loops []geom.Loop
	for _, start := range all {
		if start.used {
			continue
		}
		if loop, ok := pk.walk(start, byBehind, len(all)); ok {
			loops = append(loops, loop)
		}
	}
	return loops
}

// walk follows the boundary from start until it returns there.
func (pk *Packing) walk(start *intersection, byBehind map[int][]*intersection, limit int) (geom.Loop, bool) {
	var loop geom.Loop
	cur := start
	for step := 0; step <= limit; step++ {
		cur.used = true
		c := pk.nodes[cur.ahead].center
		loop = append(loop, c)

		from := math.Atan2(cur.p[1]-c[1], cur.p[0]-c[0])
		var next *intersection
		best := math.Inf(1)
		for _, cand := range byBehind[cur.ahead] {
			if cand.used && cand != start {
				continue
			}
			delta := math.Atan2(cand.p[1]-c[1], cand.p[0]-c[0]) - from
			for delta <= 0 {
				delta += 2 * math.Pi
			}
			if delta < best {
				best = delta
				next = cand
			}
		}
		if next == nil {
			return nil, false
		}
		if next == start {
			return loop, true
		}
		cur = next
	}
	return nil, false
}

// CenterLoops is a convenience for NewPacking(points, radius).CenterLoops().
func CenterLoops(points []geom.Point, radius float64) []geom.Loop {
	return NewPacking(points, radius).CenterLoops()
}
