// Package profile holds the numeric settings that drive slicing.
//
// A Profile is plain data. Values derived from several settings, such as
// the perimeter offset or the import radius, are methods so that a
// changed setting can never leave a stale derived value behind.
package profile

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/chazu/strata/pkg/mesh"
)

// DefaultPackingDensity is the ratio of the deposited bead's effective
// width to the nominal extrusion width, about pi/4. It is an empirical
// calibration, not a geometric constant.
const DefaultPackingDensity = 0.7853

// PrintOrderKinds lists the accepted ExtrusionPrintOrder entries.
var PrintOrderKinds = []string{"perimeter", "loops", "infill"}

// Profile is a complete set of slicing settings. Lengths are millimetres,
// speeds millimetres per second.
type Profile struct {
	// Geometry
	LayerHeight      float64
	ExtrusionWidth   float64
	ImportCoarseness float64
	CorrectMesh      bool
	PackingDensity   float64

	// Perimeters
	OverlapRemovalScaler   float64
	NozzleDiameter         float64
	BridgeWidthMultiplier  float64
	LoopOrderAscendingArea bool

	// Layer range. LayerPrintTo < 0 means through the last layer.
	LayerPrintFrom int
	LayerPrintTo   int

	// Speeds and flow
	FeedRate               float64
	PerimeterFeedRate      float64
	TravelFeedRate         float64
	BridgeFeedRateRatio    float64
	FlowRateRatio          float64
	PerimeterFlowRateRatio float64
	BridgeFlowRateRatio    float64

	// Limits and scheduling. Workers <= 0 means GOMAXPROCS.
	Workers     int
	MaxVertices int
	MaxFaces    int

	ExtrusionPrintOrder []string
}

// Default returns the stock profile.
func Default() *Profile {
	return &Profile{
		LayerHeight:      0.4,
		ExtrusionWidth:   0.6,
		ImportCoarseness: 1.0,
		CorrectMesh:      true,
		PackingDensity:   DefaultPackingDensity,

		OverlapRemovalScaler:  1.0,
		NozzleDiameter:        0.5,
		BridgeWidthMultiplier: 1.0,

		LayerPrintFrom: 0,
		LayerPrintTo:   -1,

		FeedRate:               16,
		PerimeterFeedRate:      16,
		TravelFeedRate:         30,
		BridgeFeedRateRatio:    1.0,
		FlowRateRatio:          1.0,
		PerimeterFlowRateRatio: 1.0,
		BridgeFlowRateRatio:    1.0,

		MaxVertices: 5_000_000,
		MaxFaces:    10_000_000,

		ExtrusionPrintOrder: slices.Clone(PrintOrderKinds),
	}
}

// Clone returns a deep copy.
func (p *Profile) Clone() *Profile {
	c := *p
	c.ExtrusionPrintOrder = slices.Clone(p.ExtrusionPrintOrder)
	return &c
}

// ImportRadius is the tolerance used to merge points while extracting
// sections and the disk radius of the approximate slicer.
func (p *Profile) ImportRadius() float64 {
	return math.Max(0.5*p.ImportCoarseness*math.Abs(p.ExtrusionWidth), 0.001*p.LayerHeight)
}

// HalfWidth is the perimeter offset from a boundary.
func (p *Profile) HalfWidth() float64 {
	return 0.5 * p.ExtrusionWidth * p.PackingDensity
}

// BridgeHalfWidth is the perimeter offset on bridge layers, where the bead
// is laid in air and spreads to the nozzle width.
func (p *Profile) BridgeHalfWidth() float64 {
	return p.BridgeWidthMultiplier * ((2*p.NozzleDiameter - p.LayerHeight) / 2) * p.PackingDensity
}

// OverlapRemovalWidth is the exclusion margin kept around emitted
// perimeters. Zero disables overlap suppression.
func (p *Profile) OverlapRemovalWidth() float64 {
	if p.OverlapRemovalScaler < 0.1 {
		return 0
	}
	return p.ExtrusionWidth * p.PackingDensity * p.OverlapRemovalScaler
}

// Limits returns the mesh size limits to validate input against.
func (p *Profile) Limits() mesh.Limits {
	return mesh.Limits{MaxVertices: p.MaxVertices, MaxFaces: p.MaxFaces}
}

// InRange reports whether layer index i is within the print range.
func (p *Profile) InRange(i int) bool {
	if i < p.LayerPrintFrom {
		return false
	}
	return p.LayerPrintTo < 0 || i <= p.LayerPrintTo
}

// Validate checks the profile and returns every problem found, joined.
func (p *Profile) Validate() error {
	var errs []error
	positive := []struct {
		name string
		v    float64
	}{
		{"layer-height", p.LayerHeight},
		{"extrusion-width", p.ExtrusionWidth},
		{"import-coarseness", p.ImportCoarseness},
		{"nozzle-diameter", p.NozzleDiameter},
		{"feed-rate", p.FeedRate},
		{"perimeter-feed-rate", p.PerimeterFeedRate},
		{"travel-feed-rate", p.TravelFeedRate},
	}
	for _, f := range positive {
		if !(f.v > 0) {
			errs = append(errs, fmt.Errorf("%s must be positive, got %v", f.name, f.v))
		}
	}

	if !(p.PackingDensity > 0 && p.PackingDensity <= 1) {
		errs = append(errs, fmt.Errorf("packing-density must be in (0, 1], got %v", p.PackingDensity))
	}

	ratios := []struct {
		name string
		v    float64
	}{
		{"overlap-removal-scaler", p.OverlapRemovalScaler},
		{"bridge-width-multiplier", p.BridgeWidthMultiplier},
		{"bridge-feed-rate-ratio", p.BridgeFeedRateRatio},
		{"flow-rate-ratio", p.FlowRateRatio},
		{"perimeter-flow-rate-ratio", p.PerimeterFlowRateRatio},
		{"bridge-flow-rate-ratio", p.BridgeFlowRateRatio},
	}
	for _, f := range ratios {
		if f.v < 0 || math.IsNaN(f.v) {
			errs = append(errs, fmt.Errorf("%s must not be negative, got %v", f.name, f.v))
		}
	}

	if p.LayerPrintFrom < 0 {
		errs = append(errs, fmt.Errorf("layer-print-from must not be negative, got %d", p.LayerPrintFrom))
	}
	if p.LayerPrintTo >= 0 && p.LayerPrintTo < p.LayerPrintFrom {
		errs = append(errs, fmt.Errorf("layer-print-to %d is before layer-print-from %d", p.LayerPrintTo, p.LayerPrintFrom))
	}
	if p.MaxVertices <= 0 || p.MaxFaces <= 0 {
		errs = append(errs, errors.New("mesh limits must be positive"))
	}

	for _, k := range p.ExtrusionPrintOrder {
		if !slices.Contains(PrintOrderKinds, k) {
			errs = append(errs, fmt.Errorf("unknown extrusion-print-order entry %q", k))
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("profile: %w", errors.Join(errs...))
}
