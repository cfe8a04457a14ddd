package layer

import (
	"fmt"
	"time"

	"github.com/chazu/strata/pkg/geom"
	"github.com/chazu/strata/pkg/profile"
)

// PathKind selects how a toolpath is printed.
type PathKind int

const (
	KindPerimeter PathKind = iota // boundary perimeter
	KindLoop                      // extra loop inside the perimeter
	KindInfill                    // infill line
	KindTravel                    // non-extruding move
)

func (k PathKind) String() string {
	switch k {
	case KindPerimeter:
		return "perimeter"
	case KindLoop:
		return "loop"
	case KindInfill:
		return "infill"
	case KindTravel:
		return "travel"
	default:
		return fmt.Sprintf("PathKind(%d)", int(k))
	}
}

// Rated is implemented by anything printed at a feed rate and flow.
type Rated interface {
	FeedRate() float64 // mm/s
	FlowRate() float64 // multiplier of nominal extrusion
}

// Path is one toolpath of a layer with the rates of its kind resolved.
type Path struct {
	Kind   PathKind
	Points geom.Path
	Closed bool

	feed float64
	flow float64
}

var _ Rated = Path{}

// NewPath resolves the rates of kind from p, scaled for bridge layers.
func NewPath(p *profile.Profile, kind PathKind, pts geom.Path, closed, bridge bool) Path {
	feed, flow := rates(p, kind, bridge)
	return Path{Kind: kind, Points: pts, Closed: closed, feed: feed, flow: flow}
}

func (p Path) FeedRate() float64 { return p.feed }
func (p Path) FlowRate() float64 { return p.flow }

// Length returns the travelled length, including the closing segment of a
// closed path.
func (p Path) Length() float64 {
	if p.Closed {
		return geom.Loop(p.Points).Length()
	}
	return p.Points.Length()
}

// Start returns the first point.
func (p Path) Start() geom.Point {
	return p.Points[0]
}

// End returns where the nozzle is after the path.
func (p Path) End() geom.Point {
	if p.Closed {
		return p.Points[0]
	}
	return p.Points[len(p.Points)-1]
}

func rates(p *profile.Profile, kind PathKind, bridge bool) (feed, flow float64) {
	switch kind {
	case KindPerimeter:
		feed, flow = p.PerimeterFeedRate, p.PerimeterFlowRateRatio
	case KindTravel:
		return p.TravelFeedRate, 0
	default:
		feed, flow = p.FeedRate, p.FlowRateRatio
	}
	if bridge {
		feed *= p.BridgeFeedRateRatio
		flow *= p.BridgeFlowRateRatio
	}
	return feed, flow
}

// OrderedPaths lists the toolpaths of the layer in print order: rings
// depth first, and within a ring the kinds in p.ExtrusionPrintOrder.
func (l *Layer) OrderedPaths(p *profile.Profile) []Path {
	var out []Path
	l.Walk(func(_ int, r *NestedRing) {
		for _, kind := range p.ExtrusionPrintOrder {
			switch kind {
			case "perimeter":
				for _, per := range r.Perimeters {
					if len(per.Points) > 0 {
						out = append(out, NewPath(p, KindPerimeter, per.Points, per.Closed, l.Bridge))
					}
				}
			case "loops":
				for _, loop := range r.ExtraLoops {
					if len(loop) > 0 {
						out = append(out, NewPath(p, KindLoop, geom.Path(loop), true, l.Bridge))
					}
				}
			case "infill":
				for _, in := range r.Infill {
					if len(in) > 0 {
						out = append(out, NewPath(p, KindInfill, in, false, l.Bridge))
					}
				}
			}
		}
	})
	return out
}

// StartPoint returns where printing of the layer begins. It reports false
// for a layer without toolpaths.
func (l *Layer) StartPoint(p *profile.Profile) (geom.Point, bool) {
	paths := l.OrderedPaths(p)
	if len(paths) == 0 {
		return geom.Point{}, false
	}
	return paths[0].Start(), true
}

// DistanceAndDuration estimates the nozzle distance of the layer and the
// time it takes, counting straight travel moves between paths.
func (l *Layer) DistanceAndDuration(p *profile.Profile) (float64, time.Duration) {
	var dist, secs float64
	add := func(length float64, r Rated) {
		dist += length
		if f := r.FeedRate(); f > 0 {
			secs += length / f
		}
	}

	paths := l.OrderedPaths(p)
	for i, path := range paths {
		if i > 0 {
			hop := geom.Path{paths[i-1].End(), path.Start()}
			add(hop.Length(), NewPath(p, KindTravel, hop, false, false))
		}
		add(path.Length(), path)
	}
	return dist, time.Duration(secs * float64(time.Second))
}
