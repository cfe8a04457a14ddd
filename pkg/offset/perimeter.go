package offset

import (
	"cmp"
	"fmt"
	"math"
	"slices"

	"github.com/chazu/strata/pkg/geom"
)

// Tag says which side of the material a perimeter follows.
type Tag int

const (
	// Outer perimeters follow a solid boundary.
	Outer Tag = iota
	// Inner perimeters follow a hole boundary.
	Inner
)

func (t Tag) String() string {
	switch t {
	case Outer:
		return "outer"
	case Inner:
		return "inner"
	default:
		return fmt.Sprintf("Tag(%d)", int(t))
	}
}

// Perimeter is one emitted toolpath. A closed perimeter is an implicitly
// closed loop; an open one is a perimeter block left over after overlap
// suppression.
type Perimeter struct {
	Points geom.Path
	Closed bool
	Tag    Tag
}

// Loop returns the points as a loop.
func (p Perimeter) Loop() geom.Loop {
	return geom.Loop(p.Points)
}

// Length returns the travelled length, including the closing segment of a
// closed perimeter.
func (p Perimeter) Length() float64 {
	if p.Closed {
		return p.Loop().Length()
	}
	return p.Points.Length()
}

const (
	// minLengthRatio times the half width is the longest open piece that
	// is still dropped.
	minLengthRatio = 6.0

	// joinRatio times the half width is how close two piece ends must be
	// to be merged.
	joinRatio = 0.01

	// wholeTolerance absorbs grid rounding when deciding whether clipping
	// removed anything.
	wholeTolerance = 1e-3
)

// Offsetter turns boundaries into perimeters.
type Offsetter struct {
	// HalfWidth is the nominal perimeter offset. It scales the minimum
	// kept piece length and the piece join tolerance.
	HalfWidth float64
	// ArcTolerance bounds the chord error of round joins.
	ArcTolerance float64
}

// Perimeters offsets boundary by d and emits the result through acc. A
// candidate that neither self-intersects nor overlaps acc is emitted as a
// closed loop; otherwise only the parts outside acc's bands survive, as
// open pieces longer than the minimum length whose midpoints lie on the
// material side of boundary. Everything emitted is added to acc. A nil acc
// or one of zero width disables overlap suppression.
func (o *Offsetter) Perimeters(boundary geom.Loop, d float64, acc *Accumulator) ([]Perimeter, error) {
	candidates, err := Parallel(boundary, d, o.ArcTolerance)
	if err != nil {
		return nil, err
	}

	tag := Inner
	if boundary.IsWiddershins() {
		tag = Outer
	}

	var out []Perimeter
	for _, c := range candidates {
		path := c.Closed()
		selfCrossing := geom.IsSelfIntersecting(c)

		var pieces [][]geom.Point
		clipped := false
		if acc != nil && acc.Width() > 0 {
			if regions := acc.Near(c.Bound()); len(regions) > 0 {
				pieces = difference(path, regions)
				clipped = !whole(pieces, path.Length())
			}
		}

		if !selfCrossing && !clipped {
			out = append(out, Perimeter{Points: geom.Path(c), Closed: true, Tag: tag})
			if acc != nil {
				acc.AddLoop(c)
			}
			continue
		}
		if !clipped {
			pieces = [][]geom.Point{path}
		}
		pieces = joinPieces(pieces, math.Max(joinRatio*o.HalfWidth, 1/scale))
		if selfCrossing {
			pieces = splitAtCrossings(pieces)
		}

		for _, piece := range pieces {
			p := geom.Path(piece)
			if p.Length() <= minLengthRatio*o.HalfWidth {
				continue
			}
			if !geom.OnMaterialSide(boundary, midpoint(p)) {
				continue
			}
			out = append(out, Perimeter{Points: p, Closed: false, Tag: tag})
			if acc != nil {
				acc.AddPath(p)
			}
		}
	}
	return out, nil
}

func whole(pieces [][]geom.Point, full float64) bool {
	var total float64
	for _, p := range pieces {
		total += geom.Path(p).Length()
	}
	return total >= full-wholeTolerance
}

// joinPieces merges pieces whose ends meet, reversing pieces as needed.
// Clipping a closed path opened at its first point splits a surviving run
// at that seam; this stitches it back.
func joinPieces(pieces [][]geom.Point, tol float64) [][]geom.Point {
	out := make([][]geom.Point, 0, len(pieces))
	for _, p := range pieces {
		out = append(out, slices.Clone(p))
	}

	near := func(a, b geom.Point) bool { return geom.Dist(a, b) <= tol }
	for merged := true; merged; {
		merged = false
		for i := 0; i < len(out) && !merged; i++ {
			for j := 0; j < len(out) && !merged; j++ {
				if i == j {
					continue
				}
				a, b := out[i], out[j]
				var joined []geom.Point
				switch {
				case near(a[len(a)-1], b[0]):
					joined = append(a, b[1:]...)
				case near(a[len(a)-1], b[len(b)-1]):
					r := slices.Clone(b)
					slices.Reverse(r)
					joined = append(a, r[1:]...)
				case near(a[0], b[0]):
					r := slices.Clone(a)
					slices.Reverse(r)
					joined = append(r, b[1:]...)
				default:
					continue
				}
				out[i] = joined
				out = slices.Delete(out, j, j+1)
				merged = true
			}
		}
	}
	return out
}

type crossing struct {
	t  float64
	at geom.Point
}

// splitAtCrossings cuts every piece wherever one of its segments properly
// crosses a segment of any piece, so no returned piece crosses another or
// itself.
func splitAtCrossings(pieces [][]geom.Point) [][]geom.Point {
	var segs []geom.Segment
	for _, p := range pieces {
		for i := 1; i < len(p); i++ {
			segs = append(segs, geom.Segment{A: p[i-1], B: p[i]})
		}
	}

	var out [][]geom.Point
	for _, p := range pieces {
		if len(p) < 2 {
			continue
		}
		cur := []geom.Point{p[0]}
		for i := 1; i < len(p); i++ {
			s := geom.Segment{A: p[i-1], B: p[i]}
			var cuts []crossing
			for _, o := range segs {
				if !s.Crosses(o) {
					continue
				}
				if x, t, ok := s.Intersection(o); ok {
					cuts = append(cuts, crossing{t: t, at: x})
				}
			}
			slices.SortFunc(cuts, func(a, b crossing) int { return cmp.Compare(a.t, b.t) })
			for _, c := range cuts {
				cur = append(cur, c.at)
				out = append(out, cur)
				cur = []geom.Point{c.at}
			}
			cur = append(cur, p[i])
		}
		out = append(out, cur)
	}
	return out
}

// midpoint returns the point halfway along p.
func midpoint(p geom.Path) geom.Point {
	half := p.Length() / 2
	for i := 1; i < len(p); i++ {
		seg := geom.Dist(p[i-1], p[i])
		if seg >= half && seg > 0 {
			t := half / seg
			return geom.Point{p[i-1][0] + (p[i][0]-p[i-1][0])*t, p[i-1][1] + (p[i][1]-p[i-1][1])*t}
		}
		half -= seg
	}
	return p[len(p)-1]
}
