// Package offset computes parallel curves of cross-section loops and turns
// them into perimeter toolpaths.
//
// Offsets are signed: a positive distance moves to the left of the
// direction of travel, which is into the material for a widdershins outer
// boundary and for a clockwise hole alike. Within one layer, perimeters
// are produced in order through an Accumulator so that a later ring never
// covers what an earlier ring already claimed.
package offset

import (
	"errors"
	"math"

	"github.com/chazu/strata/pkg/geom"
)

// ErrDegenerate is returned when an offset collapses below a usable size.
var ErrDegenerate = errors.New("offset: loop collapsed")

const (
	// maxArcStep caps the angle between consecutive points of a round
	// join.
	maxArcStep = math.Pi / 8

	// minAreaRatio times d² is the smallest area an offset loop may keep.
	minAreaRatio = 0.5
)

// Parallel returns the loops at signed distance d from l. Convex joins on
// the offset side become arcs of radius |d| approximated within
// arcTolerance; overlaps are resolved by a positive-winding union. Results
// keep the winding of l. When nothing of sufficient area survives,
// Parallel returns ErrDegenerate.
func Parallel(l geom.Loop, d, arcTolerance float64) ([]geom.Loop, error) {
	src := dedupe(l)
	if len(src) < 3 || src.Area() == 0 {
		return nil, ErrDegenerate
	}
	if d == 0 {
		return []geom.Loop{src}, nil
	}

	widdershins := src.IsWiddershins()
	if !widdershins {
		src = src.Reverse()
		d = -d
	}

	minArea := minAreaRatio * d * d
	var out []geom.Loop
	for _, c := range union(envelope(src, d, arcStep(math.Abs(d), arcTolerance))) {
		if a := c.Area(); a <= 0 || a < minArea {
			continue
		}
		out = append(out, c.Direct(widdershins))
	}
	if len(out) == 0 {
		return nil, ErrDegenerate
	}
	return out, nil
}

// envelope builds the raw offset path of a widdershins loop: every edge
// shifted left by d, joined by an arc where the shifted edges part and by
// a detour through the source vertex where they overlap.
func envelope(l geom.Loop, d, step float64) []geom.Point {
	n := len(l)
	normals := make([]geom.Point, n)
	for i := range l {
		a, b := l[i], l[(i+1)%n]
		dx, dy := b[0]-a[0], b[1]-a[1]
		length := math.Hypot(dx, dy)
		normals[i] = geom.Point{-dy / length, dx / length}
	}

	r := math.Abs(d)
	out := make([]geom.Point, 0, 3*n)
	for i, p := range l {
		in, outN := normals[(i+n-1)%n], normals[i]
		a := geom.Point{p[0] + d*in[0], p[1] + d*in[1]}
		b := geom.Point{p[0] + d*outN[0], p[1] + d*outN[1]}

		turn := in[0]*outN[1] - in[1]*outN[0]
		switch {
		case math.Abs(turn) < 1e-12 && in[0]*outN[0]+in[1]*outN[1] > 0:
			out = append(out, a)
		case turn*d < 0:
			out = append(out, a)
			a0 := math.Atan2(a[1]-p[1], a[0]-p[0])
			sweep := math.Atan2(b[1]-p[1], b[0]-p[0]) - a0
			if sweep > math.Pi {
				sweep -= 2 * math.Pi
			} else if sweep <= -math.Pi {
				sweep += 2 * math.Pi
			}
			steps := int(math.Ceil(math.Abs(sweep) / step))
			for k := 1; k < steps; k++ {
				t := a0 + sweep*float64(k)/float64(steps)
				out = append(out, geom.Point{p[0] + r*math.Cos(t), p[1] + r*math.Sin(t)})
			}
			out = append(out, b)
		default:
			out = append(out, a, p, b)
		}
	}
	return out
}

// arcStep is the largest angle whose chord on a circle of radius r stays
// within tol of the arc.
func arcStep(r, tol float64) float64 {
	if tol <= 0 || tol >= r {
		return maxArcStep
	}
	return math.Min(maxArcStep, 2*math.Acos(1-tol/r))
}

// dedupe drops consecutive repeated points, including across the seam.
func dedupe(l geom.Loop) geom.Loop {
	out := make(geom.Loop, 0, len(l))
	for _, p := range l {
		if len(out) > 0 && out[len(out)-1] == p {
			continue
		}
		out = append(out, p)
	}
	for len(out) > 1 && out[0] == out[len(out)-1] {
		out = out[:len(out)-1]
	}
	return out
}
