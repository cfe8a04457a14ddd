// Command strata slices the parts defined in a strata Lisp source and
// prints a per-layer summary.
//
//	strata [-v] [-cells n] [-part name] [-layers] file.strata
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/chazu/strata/pkg/kernel/sdfx"
	"github.com/chazu/strata/pkg/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "strata:", err)
		os.Exit(1)
	}
}

// errUserSource reports that the source had errors, already printed.
var errUserSource = errors.New("source has errors")

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("strata", flag.ContinueOnError)
	fs.SetOutput(stderr)
	verbose := fs.Bool("v", false, "log per-layer debug output")
	cells := fs.Int("cells", sdfx.DefaultMeshCells, "marching cubes cells along the longest axis")
	part := fs.String("part", "", "slice only the named part")
	perLayer := fs.Bool("layers", false, "print one line per layer")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return errors.New("expected one source file")
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logging.SetLogger(slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level})))
	defer logging.SetLogger(nil)

	source, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		return err
	}

	result, err := NewApp(sdfx.New(*cells)).Slice(ctx, string(source), *part)
	if err != nil {
		return err
	}
	if len(result.Errors) > 0 {
		for _, e := range result.Errors {
			fmt.Fprintf(stderr, "%s: %s\n", fs.Arg(0), e)
		}
		return errUserSource
	}

	printResult(stdout, result, *perLayer)
	return nil
}

func printResult(w io.Writer, result Result, perLayer bool) {
	for _, p := range result.Parts {
		perimeters := 0
		var dist float64
		for _, l := range p.Layers {
			perimeters += l.Perimeters
			dist += l.Distance
		}
		fmt.Fprintf(w, "%s: %d layers, %d perimeters, %.1f mm, %s, %d warnings\n",
			p.Name, len(p.Layers), perimeters, dist, p.Duration().Round(time.Second), len(p.Warnings))
		if !perLayer {
			continue
		}
		for _, l := range p.Layers {
			bridge := ""
			if l.Bridge {
				bridge = " bridge"
			}
			fmt.Fprintf(w, "  %4d z=%.3f rings=%d perimeters=%d %.1f mm%s\n",
				l.Index, l.Z, l.Rings, l.Perimeters, l.Distance, bridge)
		}
	}
}
