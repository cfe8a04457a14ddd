// Package simplify removes redundant points from cross-section loops.
package simplify

import (
	"math"

	"github.com/chazu/strata/pkg/geom"
	"github.com/samber/lo"
)

// channelRatio scales tol down to the width of the channel a point must
// stray out of to count as a corner.
const channelRatio = 0.01

// Loop drops points that continue a straight run, then points closer than
// tol to the previously kept point, and repeats until a pass removes
// nothing. Because the result is a fixed point of the same passes,
// Loop(Loop(l, tol), tol) reproduces its input point for point.
//
// A point continues a straight run when its two edges leave it in nearly
// opposite directions: the edge length times one plus the cosine of the
// angle between them is below tol*channelRatio. Corners and the gentle
// bends of a sampled curve survive however densely the loop is sampled.
//
// Loops with fewer than three points are returned unchanged. The input is
// never modified.
func Loop(l geom.Loop, tol float64) geom.Loop {
	if len(l) < 3 {
		return l.Clone()
	}
	channel := tol * channelRatio
	out := l.Clone()
	for {
		n := len(out)
		out = removeInline(out, channel, 0)
		out = removeInline(out, channel, 1)
		if len(out) >= 3 {
			out = removeClose(out, tol)
		}
		if len(out) == n || len(out) < 3 {
			return out
		}
	}
}

// Loops simplifies each loop and drops those left with fewer than three
// points.
func Loops(loops []geom.Loop, tol float64) []geom.Loop {
	out := lo.Map(loops, func(l geom.Loop, _ int) geom.Loop {
		return Loop(l, tol)
	})
	return lo.Filter(out, func(l geom.Loop, _ int) bool {
		return len(l) >= 3
	})
}

// removeInline drops straight-run points whose index parity differs from
// keep. Every candidate is judged against neighbours of the kept parity, so
// no two adjacent points go in one pass and each decision sees the loop as
// it was sampled.
func removeInline(l geom.Loop, channel float64, keep int) geom.Loop {
	n := len(l)
	if n < 3 {
		return l
	}
	// For odd n, indices n-1 and 0 share a parity; pinning n-1 keeps one.
	pinned := 0
	if keep == 1 {
		pinned = n - 1
	}
	out := make(geom.Loop, 0, n)
	for i, p := range l {
		if i%2 == keep || i == pinned {
			out = append(out, p)
			continue
		}
		if !inChannel(l[(i+n-1)%n], p, l[(i+1)%n], channel) {
			out = append(out, p)
		}
	}
	return out
}

// inChannel reports whether p barely deflects the path prev -> p -> next.
func inChannel(prev, p, next geom.Point, channel float64) bool {
	bx, by := prev[0]-p[0], prev[1]-p[1]
	ax, ay := next[0]-p[0], next[1]-p[1]
	behind := math.Hypot(bx, by)
	ahead := math.Hypot(ax, ay)
	if behind < channel || ahead < channel {
		return true
	}
	bend := (bx*ax+by*ay)/(behind*ahead) + 1
	return behind*bend < channel || ahead*bend < channel
}

// removeClose drops points closer than tol to the previously kept point,
// including across the seam back to the first point.
func removeClose(l geom.Loop, tol float64) geom.Loop {
	out := make(geom.Loop, 0, len(l))
	out = append(out, l[0])
	for _, p := range l[1:] {
		if geom.Dist(out[len(out)-1], p) < tol {
			continue
		}
		out = append(out, p)
	}
	for len(out) > 1 && geom.Dist(out[len(out)-1], out[0]) < tol {
		out = out[:len(out)-1]
	}
	return out
}
