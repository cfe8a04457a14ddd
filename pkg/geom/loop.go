package geom

import (
	"cmp"
	"math"
	"slices"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/samber/lo"
)

// Loop is an ordered, implicitly closed sequence of points. A widdershins
// (counter-clockwise) loop bounds solid material; a clockwise loop bounds a
// hole.
type Loop []Point

// Ring views the loop as an orb ring without copying.
func (l Loop) Ring() orb.Ring {
	return orb.Ring(l)
}

// Area returns the signed enclosed area, positive for widdershins loops.
func (l Loop) Area() float64 {
	if len(l) < 3 {
		return 0
	}
	_, a := planar.CentroidArea(l.Ring())
	return a
}

// IsWiddershins reports whether the loop winds counter-clockwise.
func (l Loop) IsWiddershins() bool {
	return l.Area() > 0
}

// Clone returns a copy that shares no storage with l.
func (l Loop) Clone() Loop {
	if l == nil {
		return nil
	}
	out := make(Loop, len(l))
	copy(out, l)
	return out
}

// Reverse flips the winding in place and returns the loop.
func (l Loop) Reverse() Loop {
	lo.Reverse(l)
	return l
}

// Direct orients the loop in place so that it winds widdershins when
// widdershins is true and clockwise otherwise.
func (l Loop) Direct(widdershins bool) Loop {
	if len(l) >= 3 && l.IsWiddershins() != widdershins {
		l.Reverse()
	}
	return l
}

// LeftPoint returns the point with the smallest x, breaking ties by the
// smallest y. It panics on an empty loop.
func (l Loop) LeftPoint() Point {
	return lo.MinBy(l, func(a, b Point) bool {
		if a[0] != b[0] {
			return a[0] < b[0]
		}
		return a[1] < b[1]
	})
}

// interiorStep is the distance InteriorPoint steps in from the LeftPoint,
// as a fraction of the loop's larger bound dimension.
const interiorStep = 1e-6

// InteriorPoint returns a point strictly inside the loop, a short step from
// its LeftPoint along the bisector of the two edges meeting there. Unlike
// the LeftPoint itself it never lies on another loop that merely touches
// this one. Loops with fewer than three points return their LeftPoint.
func (l Loop) InteriorPoint() Point {
	p := l.LeftPoint()
	n := len(l)
	if n < 3 {
		return p
	}
	i := lo.IndexOf(l, p)
	u := unit(l[(i+n-1)%n], p)
	v := unit(l[(i+1)%n], p)
	bx, by := u[0]+v[0], u[1]+v[1]
	m := math.Hypot(bx, by)
	if m == 0 {
		return p
	}
	b := l.Bound()
	step := interiorStep * math.Max(b.Max[0]-b.Min[0], b.Max[1]-b.Min[1])
	return Point{p[0] + bx/m*step, p[1] + by/m*step}
}

// unit returns the unit vector from p towards q, or zero when they meet.
func unit(q, p Point) Point {
	d := Dist(p, q)
	if d == 0 {
		return Point{}
	}
	return Point{(q[0] - p[0]) / d, (q[1] - p[1]) / d}
}

// Length returns the closed perimeter length.
func (l Loop) Length() float64 {
	if len(l) < 2 {
		return 0
	}
	return Path(l).Length() + Dist(l[len(l)-1], l[0])
}

// Bound returns the axis-aligned bounds of the loop.
func (l Loop) Bound() orb.Bound {
	return l.Ring().Bound()
}

// Contains reports whether p lies inside the loop or on its boundary,
// regardless of winding.
func (l Loop) Contains(p Point) bool {
	if len(l) < 3 {
		return false
	}
	return planar.RingContains(l.Ring(), p)
}

// Closed returns the loop as an explicit path whose last point repeats the
// first.
func (l Loop) Closed() Path {
	if len(l) == 0 {
		return nil
	}
	out := make(Path, 0, len(l)+1)
	out = append(out, l...)
	return append(out, l[0])
}

// Translate shifts every point in place.
func (l Loop) Translate(dx, dy float64) {
	for i := range l {
		l[i] = Point{l[i][0] + dx, l[i][1] + dy}
	}
}

// IsInFilledRegion reports whether p is inside an odd number of loops, the
// even-odd rule that turns a flat loop list into solid and void regions.
func IsInFilledRegion(loops []Loop, p Point) bool {
	count := lo.CountBy(loops, func(l Loop) bool {
		return l.Contains(p)
	})
	return count%2 == 1
}

// OnMaterialSide reports whether p lies on the material side of the loop:
// inside a widdershins loop, or outside a clockwise one.
func OnMaterialSide(l Loop, p Point) bool {
	return l.Contains(p) == l.IsWiddershins()
}

// SortByArea orders loops by absolute area, largest first when descending.
// The sort is stable so equal areas keep their input order.
func SortByArea(loops []Loop, descending bool) {
	type keyed struct {
		loop Loop
		area float64
	}
	ks := lo.Map(loops, func(l Loop, _ int) keyed {
		return keyed{loop: l, area: math.Abs(l.Area())}
	})
	slices.SortStableFunc(ks, func(a, b keyed) int {
		if descending {
			return cmp.Compare(b.area, a.area)
		}
		return cmp.Compare(a.area, b.area)
	})
	for i, k := range ks {
		loops[i] = k.loop
	}
}
