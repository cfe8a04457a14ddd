package main

import (
	"context"
	"fmt"
	"time"

	"github.com/chazu/strata/pkg/diag"
	"github.com/chazu/strata/pkg/engine"
	"github.com/chazu/strata/pkg/kernel"
	"github.com/chazu/strata/pkg/layer"
	"github.com/chazu/strata/pkg/logging"
	"github.com/chazu/strata/pkg/tessellate"
)

// App runs the whole pipeline: Lisp source, parts, meshes, layers.
type App struct {
	engine *engine.Engine
	kernel kernel.Kernel
}

// NewApp creates an App whose parts are built with k.
func NewApp(k kernel.Kernel) *App {
	return &App{
		engine: engine.NewEngine(k),
		kernel: k,
	}
}

// LayerSummary describes one sliced layer.
type LayerSummary struct {
	Index      int
	Z          float64
	Bridge     bool
	Rings      int
	Perimeters int
	Distance   float64
	Duration   time.Duration
}

// PartResult is the slicing outcome of one part.
type PartResult struct {
	Name     string
	Layers   []LayerSummary
	Warnings []diag.Warning
}

// Duration is the estimated print time of the part.
func (p PartResult) Duration() time.Duration {
	var d time.Duration
	for _, l := range p.Layers {
		d += l.Duration
	}
	return d
}

// Result is what Slice returns. Errors holds user errors from the
// source; when it is non-empty nothing was sliced.
type Result struct {
	Parts  []PartResult
	Errors []engine.EvalError
}

// Slice evaluates source and slices every part it defines, or only the
// part named only when that is not empty.
func (a *App) Slice(ctx context.Context, source, only string) (Result, error) {
	var result Result
	log := logging.Logger()

	job, evalErrs, err := a.engine.Evaluate(source)
	if err != nil {
		return result, fmt.Errorf("evaluate: %w", err)
	}
	if len(evalErrs) > 0 {
		result.Errors = evalErrs
		return result, nil
	}

	if only != "" {
		p := job.Lookup(only)
		if p == nil {
			return result, fmt.Errorf("no part named %q", only)
		}
		job.Parts = []engine.Part{*p}
	}
	log.Info("evaluated source", "parts", len(job.Parts), "layer-height", job.Profile.LayerHeight)

	meshes, err := tessellate.Tessellate(ctx, job, a.kernel)
	if err != nil {
		return result, err
	}

	asm, err := layer.NewAssembler(job.Profile, nil)
	if err != nil {
		return result, err
	}
	for _, pm := range meshes {
		start := time.Now()
		layers, report, err := asm.SliceAll(ctx, pm.Mesh)
		if err != nil {
			return result, fmt.Errorf("slice %s: %w", pm.Name, err)
		}
		pr := PartResult{Name: pm.Name, Warnings: report.Warnings}
		for _, l := range layers {
			dist, dur := l.DistanceAndDuration(job.Profile)
			pr.Layers = append(pr.Layers, LayerSummary{
				Index:      l.Index,
				Z:          l.Z,
				Bridge:     l.Bridge,
				Rings:      len(l.Rings),
				Perimeters: l.PerimeterCount(),
				Distance:   dist,
				Duration:   dur,
			})
		}
		log.Info("sliced part",
			"part", pm.Name,
			"faces", len(pm.Mesh.Faces),
			"layers", len(layers),
			"warnings", len(report.Warnings),
			"elapsed", time.Since(start),
		)
		result.Parts = append(result.Parts, pr)
	}
	return result, nil
}
