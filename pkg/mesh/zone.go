package mesh

import (
	"math"

	"github.com/chazu/strata/pkg/geom"
)

// ZoneArrangement nudges cut heights off vertex heights. A plane passing
// exactly through a vertex makes the crossing-edge test ambiguous, so the
// z axis is split into narrow zones and any zone holding a vertex is
// avoided.
type ZoneArrangement struct {
	interval float64
	occupied map[int64]struct{}
}

// NewZoneArrangement sizes zones from the layer thickness and the vertex
// count so that the nudge stays far below any printable feature.
func NewZoneArrangement(layerThickness float64, vertices []geom.Vertex) *ZoneArrangement {
	za := &ZoneArrangement{occupied: make(map[int64]struct{}, 2*len(vertices))}
	if len(vertices) == 0 {
		return za
	}
	za.interval = layerThickness / math.Sqrt(float64(len(vertices))) / 1000
	for _, v := range vertices {
		f := v.Z / za.interval
		za.occupied[int64(math.Floor(f))] = struct{}{}
		za.occupied[int64(math.Ceil(f))] = struct{}{}
	}
	return za
}

// EmptyZ returns z if its zone holds no vertex, otherwise the nearest free
// zone, searching downward first at each distance.
func (za *ZoneArrangement) EmptyZ(z float64) float64 {
	if za.interval <= 0 {
		return z
	}
	zone := int64(math.Round(z / za.interval))
	if _, ok := za.occupied[zone]; !ok {
		return z
	}
	for around := int64(1); ; around++ {
		if _, ok := za.occupied[zone-around]; !ok {
			return float64(zone-around) * za.interval
		}
		if _, ok := za.occupied[zone+around]; !ok {
			return float64(zone+around) * za.interval
		}
	}
}
