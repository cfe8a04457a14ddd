package layer

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"slices"

	"github.com/chazu/strata/pkg/diag"
	"github.com/chazu/strata/pkg/logging"
	"github.com/chazu/strata/pkg/mesh"
	"github.com/chazu/strata/pkg/nest"
	"github.com/chazu/strata/pkg/offset"
	"github.com/chazu/strata/pkg/profile"
	"github.com/chazu/strata/pkg/slice"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
)

// arcToleranceRatio sets the chord error of round offset joins as a
// fraction of the perimeter offset.
const arcToleranceRatio = 0.05

// BridgePolicy marks layers printed over air. Bridge detection lives
// outside the core.
type BridgePolicy interface {
	IsBridge(index int, z float64) bool
}

// Assembler turns cut heights into layers. It is safe for concurrent use;
// all per-layer state is created inside Assemble.
type Assembler struct {
	profile *profile.Profile
	bridges BridgePolicy
}

// NewAssembler validates p and returns an assembler for it. bridges may be
// nil.
func NewAssembler(p *profile.Profile, bridges BridgePolicy) (*Assembler, error) {
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("layer: %w", err)
	}
	return &Assembler{profile: p.Clone(), bridges: bridges}, nil
}

// Profile returns the assembler's copy of the profile.
func (a *Assembler) Profile() *profile.Profile {
	return a.profile
}

// Plan returns the cut height of every layer of m: the first half a layer
// above the bottom, then one layer apart while more than a quarter layer
// of material remains above.
func (a *Assembler) Plan(m *mesh.TriangleMesh) []float64 {
	if len(m.Vertices) == 0 {
		return nil
	}
	bottom, top := m.Bounds()
	h := a.profile.LayerHeight
	var zs []float64
	for i := 0; ; i++ {
		z := bottom[2] + h/2 + float64(i)*h
		if z >= top[2]-h/4 {
			break
		}
		zs = append(zs, z)
	}
	return zs
}

// Assemble builds layer index at height z. zones may be nil, in which case
// z is used as given. The returned report holds this layer's warnings.
func (a *Assembler) Assemble(m *mesh.TriangleMesh, zones *mesh.ZoneArrangement, index int, z float64) (*Layer, *diag.Report) {
	p := a.profile
	report := &diag.Report{}
	log := logging.Logger().With("layer", index)

	cut := z
	if zones != nil {
		cut = zones.EmptyZ(z)
	}
	l := &Layer{Z: z, Index: index}
	if a.bridges != nil {
		l.Bridge = a.bridges.IsBridge(index, z)
	}

	res := slice.Extract(m, cut, slice.Options{Radius: p.ImportRadius(), CorrectMesh: p.CorrectMesh})
	if res.Fallback != nil {
		report.Add(res.Fallback.Warning(index))
	}
	if len(res.Loops) == 0 {
		report.Add(diag.Warning{Kind: diag.KindSliceEmpty, Layer: index, Z: z, Message: "no loops at this height; layer left empty"})
		return l, report
	}

	forest := nest.Build(res.Loops)
	l.Rings = make([]NestedRing, forest.Len())
	for i, n := range forest.Nodes {
		l.Rings[i] = NestedRing{
			Boundary: n.Loop,
			Parent:   n.Parent,
			Children: slices.Clone(n.Children),
			Depth:    n.Depth,
		}
	}
	l.Roots = slices.Clone(forest.Roots)
	a.orderByArea(l)

	d := p.HalfWidth()
	if l.Bridge {
		d = p.BridgeHalfWidth()
	}
	off := &offset.Offsetter{HalfWidth: d, ArcTolerance: arcToleranceRatio * d}
	acc := offset.NewAccumulator(p.OverlapRemovalWidth(), arcToleranceRatio*d)
	l.Walk(func(i int, r *NestedRing) {
		perims, err := off.Perimeters(r.Boundary, d, acc)
		if errors.Is(err, offset.ErrDegenerate) {
			report.Add(diag.Warning{
				Kind:    diag.KindDegenerateOffset,
				Layer:   index,
				Z:       z,
				Message: fmt.Sprintf("ring %d collapsed under a %.4f offset; perimeter discarded", i, d),
			})
			return
		}
		r.Perimeters = perims
	})

	log.Debug("layer assembled",
		"z", z,
		"loops", len(res.Loops),
		"perimeters", l.PerimeterCount(),
		"approximate", res.Fallback != nil || !p.CorrectMesh,
	)
	return l, report
}

// orderByArea sorts sibling rings by boundary area, largest first unless
// the profile asks for ascending order. Perimeters are produced in this
// order.
func (a *Assembler) orderByArea(l *Layer) {
	area := func(i int) float64 { return math.Abs(l.Rings[i].Boundary.Area()) }
	less := func(x, y int) int {
		if a.profile.LoopOrderAscendingArea {
			return cmp.Compare(area(x), area(y))
		}
		return cmp.Compare(area(y), area(x))
	}
	slices.SortStableFunc(l.Roots, less)
	for i := range l.Rings {
		slices.SortStableFunc(l.Rings[i].Children, less)
	}
}

// SliceAll validates m and assembles every planned layer within the
// profile's print range, in parallel. Layers come back in index order and
// the report merges every layer's warnings in that order. Only an invalid
// mesh or a cancelled context is an error.
func (a *Assembler) SliceAll(ctx context.Context, m *mesh.TriangleMesh) ([]*Layer, *diag.Report, error) {
	if err := m.Validate(a.profile.Limits()); err != nil {
		return nil, nil, fmt.Errorf("layer: %w", err)
	}

	type job struct {
		index int
		z     float64
	}
	jobs := lo.FilterMap(a.Plan(m), func(z float64, i int) (job, bool) {
		return job{index: i, z: z}, a.profile.InRange(i)
	})

	zones := mesh.NewZoneArrangement(a.profile.LayerHeight, m.Vertices)
	m.Edges()

	workers := a.profile.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	layers := make([]*Layer, len(jobs))
	reports := make([]*diag.Report, len(jobs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, j := range jobs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			layers[i], reports[i] = a.Assemble(m, zones, j.index, j.z)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, fmt.Errorf("layer: slicing cancelled: %w", err)
	}

	merged := &diag.Report{}
	for _, r := range reports {
		merged.Merge(r)
	}
	logging.Logger().Debug("slicing finished", "layers", len(layers), "warnings", len(merged.Warnings))
	return layers, merged, nil
}
