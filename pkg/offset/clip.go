package offset

import (
	"math"

	"github.com/chazu/strata/pkg/geom"
	clipper "github.com/ctessum/go.clipper"
)

// scale converts millimetres to the integer grid clipper works on.
const scale = 1e6

func toClipper(pts []geom.Point) clipper.Path {
	out := make(clipper.Path, 0, len(pts))
	for _, p := range pts {
		out = append(out, &clipper.IntPoint{
			X: clipper.CInt(math.Round(p[0] * scale)),
			Y: clipper.CInt(math.Round(p[1] * scale)),
		})
	}
	return out
}

func fromClipper(path clipper.Path) []geom.Point {
	out := make([]geom.Point, len(path))
	for i, p := range path {
		out[i] = geom.Point{float64(p.X) / scale, float64(p.Y) / scale}
	}
	return out
}

// union resolves a raw, possibly self-overlapping envelope into simple
// polygons, keeping regions of positive winding.
func union(raw []geom.Point) []geom.Loop {
	c := clipper.NewClipper(clipper.IoStrictlySimple)
	c.AddPath(toClipper(raw), clipper.PtSubject, true)
	paths, ok := c.Execute1(clipper.CtUnion, clipper.PftPositive, clipper.PftPositive)
	if !ok {
		return nil
	}
	loops := make([]geom.Loop, 0, len(paths))
	for _, p := range paths {
		loops = append(loops, geom.Loop(fromClipper(p)))
	}
	return loops
}

// difference cuts the open path by the closed regions and returns the
// open pieces that survive.
func difference(path []geom.Point, regions clipper.Paths) [][]geom.Point {
	c := clipper.NewClipper(clipper.IoNone)
	c.AddPath(toClipper(path), clipper.PtSubject, false)
	c.AddPaths(regions, clipper.PtClip, true)
	tree, ok := c.Execute2(clipper.CtDifference, clipper.PftNonZero, clipper.PftNonZero)
	if !ok || tree == nil {
		return nil
	}
	open := c.OpenPathsFromPolyTree(tree)
	out := make([][]geom.Point, 0, len(open))
	for _, p := range open {
		if len(p) >= 2 {
			out = append(out, fromClipper(p))
		}
	}
	return out
}

// band returns the region within width of the points, rounded at joins
// and ends.
func band(pts []geom.Point, closed bool, width, arcTolerance float64) clipper.Paths {
	co := clipper.NewClipperOffset()
	co.ArcTolerance = arcTolerance * scale
	end := clipper.EtOpenRound
	if closed {
		end = clipper.EtClosedLine
	}
	co.AddPath(toClipper(pts), clipper.JtRound, end)
	return co.Execute(width * scale)
}
