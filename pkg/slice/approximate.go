package slice

import (
	"math"

	"github.com/chazu/strata/pkg/circles"
	"github.com/chazu/strata/pkg/geom"
	"github.com/chazu/strata/pkg/mesh"
	"github.com/chazu/strata/pkg/simplify"
	"github.com/samber/lo"
)

const (
	// sampleRatio is the spacing of cloud points along a face segment, as
	// a fraction of the import radius.
	sampleRatio = 0.7

	// maxOverlap is the largest shared-point ratio a candidate loop may
	// have with loops already accepted.
	maxOverlap = 0.2

	// closeRatio bounds how far, in import radii, a corner may sit from
	// its neighbours when it is snapped back into a loop.
	closeRatio = 2.0

	// inlineDot is the dot product below which two unit vectors count as
	// opposite.
	inlineDot = -0.999
)

// SliceApproximate rebuilds the section at z from a point cloud of edge
// intersections and face-segment samples. It never fails; too few points
// yield no loops.
func SliceApproximate(m *mesh.TriangleMesh, z, radius float64) []geom.Loop {
	crossing := m.CrossingEdges(z)
	if len(crossing) == 0 || radius <= 0 {
		return nil
	}

	corners := lo.Map(crossing, func(ei int, _ int) geom.Point {
		return m.Intersection(ei, z)
	})
	points := append([]geom.Point(nil), corners...)
	for _, seg := range faceSegments(m, crossing, z) {
		points = appendSamples(points, seg.A, seg.B, sampleRatio*radius)
	}
	if len(points) < 3 {
		return nil
	}

	candidates := circles.CenterLoops(points, radius)
	geom.SortByArea(candidates, true)

	table := make(map[geom.Point]struct{})
	var accepted []geom.Loop
	for _, c := range candidates {
		if len(c) < 3 || overlapRatio(c, table) >= maxOverlap {
			continue
		}
		c = c.Direct(!geom.IsInFilledRegion(accepted, c.InteriorPoint()))
		accepted = append(accepted, c)
		for _, p := range c {
			table[p] = struct{}{}
		}
	}

	loops := simplify.Loops(accepted, radius)
	for _, p := range corners {
		if _, ok := table[p]; ok {
			continue
		}
		loops = insertWithLeastLength(loops, p, radius)
	}
	return loops
}

// faceSegments returns the in-plane segment of every face crossed by two of
// the crossing edges.
func faceSegments(m *mesh.TriangleMesh, crossing []int, z float64) []geom.Segment {
	edges := m.Edges()
	isCrossing := make(map[int]struct{}, len(crossing))
	for _, ei := range crossing {
		isCrossing[ei] = struct{}{}
	}

	seen := make(map[int]struct{})
	var segs []geom.Segment
	for _, ei := range crossing {
		for _, f := range edges[ei].Faces {
			if _, ok := seen[f]; ok {
				continue
			}
			seen[f] = struct{}{}
			fe := m.FaceEdges(f)
			hits := lo.Filter(fe[:], func(e int, _ int) bool {
				_, ok := isCrossing[e]
				return ok
			})
			for i := 0; i+1 < len(hits); i++ {
				segs = append(segs, geom.Segment{
					A: m.Intersection(hits[i], z),
					B: m.Intersection(hits[i+1], z),
				})
			}
		}
	}
	return segs
}

// appendSamples adds evenly spaced interior points of a-b no further apart
// than spacing.
func appendSamples(points []geom.Point, a, b geom.Point, spacing float64) []geom.Point {
	n := int(math.Ceil(geom.Dist(a, b) / spacing))
	for k := 1; k < n; k++ {
		t := float64(k) / float64(n)
		points = append(points, geom.Point{a[0] + (b[0]-a[0])*t, a[1] + (b[1]-a[1])*t})
	}
	return points
}

func overlapRatio(l geom.Loop, table map[geom.Point]struct{}) float64 {
	shared := lo.CountBy(l, func(p geom.Point) bool {
		_, ok := table[p]
		return ok
	})
	return float64(shared) / float64(len(l))
}

// insertWithLeastLength snaps p into the loop position that lengthens the
// loop least, provided p lies on the straight run through that position.
func insertWithLeastLength(loops []geom.Loop, p geom.Point, radius float64) []geom.Loop {
	reach := closeRatio * radius
	best := reach
	bestLoop, bestIndex := -1, -1
	for li, l := range loops {
		if len(l) <= 3 {
			continue
		}
		for i := range l {
			before := l[(i+len(l)-1)%len(l)]
			added := geom.Dist(p, before) + geom.Dist(p, l[i]) - geom.Dist(l[i], before)
			if added < best && closeInline(l, p, i, reach) {
				best = added
				bestLoop, bestIndex = li, i
			}
		}
	}
	if bestLoop < 0 {
		return loops
	}
	l := loops[bestLoop]
	l = append(l[:bestIndex:bestIndex], append(geom.Loop{p}, l[bestIndex:]...)...)
	loops[bestLoop] = l
	return loops
}

// closeInline reports whether p sits near both neighbours of position i and
// continues the straight segments beyond them.
func closeInline(l geom.Loop, p geom.Point, i int, reach float64) bool {
	n := len(l)
	after, afterEnd := l[i], l[(i+1)%n]
	before, beforeEnd := l[(i+n-1)%n], l[(i+n-2)%n]
	if geom.Dist(after, p) > reach || geom.Dist(before, p) > reach {
		return false
	}
	return inline(p, after, afterEnd) && inline(p, before, beforeEnd)
}

// inline reports whether center lies on the straight line between begin
// and end.
func inline(begin, center, end geom.Point) bool {
	bx, by := begin[0]-center[0], begin[1]-center[1]
	ex, ey := end[0]-center[0], end[1]-center[1]
	bl, el := math.Hypot(bx, by), math.Hypot(ex, ey)
	if bl <= 0 || el <= 0 {
		return false
	}
	return (bx*ex+by*ey)/(bl*el) < inlineDot
}
