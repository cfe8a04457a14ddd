package geom

import (
	"math"

	"github.com/dhconnelly/rtreego"
	"github.com/paulmach/orb"
)

// boundsPad widens index rectangles so that axis-aligned segments, whose
// bounds have zero extent on one axis, still intersect queries.
const boundsPad = 1e-9

// Rect converts orb bounds into an rtreego rectangle padded by pad.
func Rect(b orb.Bound, pad float64) rtreego.Rect {
	pad += boundsPad
	r, err := rtreego.NewRectFromPoints(
		rtreego.Point{b.Min[0] - pad, b.Min[1] - pad},
		rtreego.Point{b.Max[0] + pad, b.Max[1] + pad},
	)
	if err != nil {
		// Both corners are 2D, so this cannot happen.
		panic(err)
	}
	return r
}

// Segment is a directed line segment.
type Segment struct {
	A, B Point
}

// Bound returns the bounds of the segment.
func (s Segment) Bound() orb.Bound {
	return orb.Bound{Min: s.A, Max: s.A}.Extend(s.B)
}

// Crosses reports whether two segments cross at a single point interior to
// both. Touching at an endpoint or running collinear does not count.
func (s Segment) Crosses(o Segment) bool {
	d1 := Cross(o.A, o.B, s.A)
	d2 := Cross(o.A, o.B, s.B)
	d3 := Cross(s.A, s.B, o.A)
	d4 := Cross(s.A, s.B, o.B)
	return ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0))
}

// Intersection returns the crossing point of the two supporting lines and
// the parameter along s. ok is false for parallel segments.
func (s Segment) Intersection(o Segment) (p Point, t float64, ok bool) {
	rx, ry := s.B[0]-s.A[0], s.B[1]-s.A[1]
	qx, qy := o.B[0]-o.A[0], o.B[1]-o.A[1]
	den := rx*qy - ry*qx
	if math.Abs(den) < 1e-18 {
		return Point{}, 0, false
	}
	t = ((o.A[0]-s.A[0])*qy - (o.A[1]-s.A[1])*qx) / den
	return Point{s.A[0] + t*rx, s.A[1] + t*ry}, t, true
}

// indexedSegment is an rtree entry for one edge of one loop.
type indexedSegment struct {
	seg   Segment
	loop  int
	index int
	n     int
	rect  rtreego.Rect
}

func (s *indexedSegment) Bounds() rtreego.Rect {
	return s.rect
}

// adjacent reports whether two edges of the same loop share a vertex.
func (s *indexedSegment) adjacent(o *indexedSegment) bool {
	if s.loop != o.loop {
		return false
	}
	d := s.index - o.index
	if d < 0 {
		d = -d
	}
	return d <= 1 || d == s.n-1
}

// IsLoopListIntersecting reports whether any two edges drawn from the loops
// cross each other, including edges of the same loop. Edges are bucketed in
// an R-tree so only edges with overlapping bounds are compared.
func IsLoopListIntersecting(loops []Loop) bool {
	var entries []*indexedSegment
	for li, l := range loops {
		n := len(l)
		if n < 2 {
			continue
		}
		for i := range l {
			seg := Segment{l[i], l[(i+1)%n]}
			entries = append(entries, &indexedSegment{
				seg:   seg,
				loop:  li,
				index: i,
				n:     n,
				rect:  Rect(seg.Bound(), 0),
			})
		}
	}
	if len(entries) < 2 {
		return false
	}

	tree := rtreego.NewTree(2, 8, 32)
	for _, e := range entries {
		tree.Insert(e)
	}
	for _, e := range entries {
		for _, hit := range tree.SearchIntersect(e.rect) {
			o := hit.(*indexedSegment)
			if o == e || e.adjacent(o) {
				continue
			}
			if e.seg.Crosses(o.seg) {
				return true
			}
		}
	}
	return false
}

// IsSelfIntersecting reports whether non-adjacent edges of the loop cross.
func IsSelfIntersecting(l Loop) bool {
	return IsLoopListIntersecting([]Loop{l})
}
