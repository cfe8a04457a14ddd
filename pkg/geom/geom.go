// Package geom holds the planar primitives shared by every stage of the
// slicing pipeline: points, closed loops, open paths and segment tests.
//
// Points are orb points so the planar helpers from github.com/paulmach/orb
// (area, containment, distance) apply directly. A Loop is implicitly closed:
// the last point connects back to the first and is never repeated.
package geom

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// Point is a position in the XY plane.
type Point = orb.Point

// Vertex is a mesh vertex: a 3D position plus its stable index in the mesh.
type Vertex struct {
	X, Y, Z float64
	Index   int
}

// XY drops the z coordinate.
func (v Vertex) XY() Point {
	return Point{v.X, v.Y}
}

// Lerp returns the point where the segment a-b crosses height z, projected
// onto the XY plane. The caller guarantees a.Z != b.Z.
func Lerp(a, b Vertex, z float64) Point {
	t := (z - a.Z) / (b.Z - a.Z)
	return Point{a.X + t*(b.X-a.X), a.Y + t*(b.Y-a.Y)}
}

// Dist returns the euclidean distance between two points.
func Dist(a, b Point) float64 {
	return math.Hypot(b[0]-a[0], b[1]-a[1])
}

// Cross returns the z component of (b-a) x (c-a).
func Cross(a, b, c Point) float64 {
	return (b[0]-a[0])*(c[1]-a[1]) - (b[1]-a[1])*(c[0]-a[0])
}

// Path is an open polyline.
type Path []Point

// Length returns the summed segment length of the path.
func (p Path) Length() float64 {
	total := 0.0
	for i := 1; i < len(p); i++ {
		total += Dist(p[i-1], p[i])
	}
	return total
}

// Bound returns the axis-aligned bounds of the path.
func (p Path) Bound() orb.Bound {
	return orb.LineString(p).Bound()
}

// DistanceToSegment returns the distance from p to the segment a-b.
func DistanceToSegment(a, b, p Point) float64 {
	return planar.DistanceFromSegment(a, b, p)
}
