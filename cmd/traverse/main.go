// Command traverse builds survey polygons from a job file of bearing and
// distance courses and writes them as JSON, KML, GeoJSON, XLSX or PDF.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/terratracer/traverse"
	"github.com/terratracer/traverse/internal/config"
	"github.com/terratracer/traverse/internal/export"
	"github.com/terratracer/traverse/internal/job"
	"github.com/terratracer/traverse/internal/logging"
	"github.com/terratracer/traverse/internal/metrics"
	"github.com/terratracer/traverse/internal/tracing"
)

// replayTolerance is the largest coordinate difference, in degrees, allowed
// between a registered point and the same point regenerated from the steps.
const replayTolerance = 1e-9

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "traverse:", err)
		os.Exit(1)
	}
}

type options struct {
	configPath  string
	envFile     string
	jobPath     string
	outDir      string
	formats     string
	metricsFile string
	trace       bool
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var o options
	fs := flag.NewFlagSet("traverse", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.configPath, "config", "", "YAML configuration file (default $TRAVERSE_CONFIG)")
	fs.StringVar(&o.envFile, "env", ".env", "dotenv file to load before reading the environment")
	fs.StringVar(&o.jobPath, "job", "", "YAML job file describing the polygons to build")
	fs.StringVar(&o.outDir, "out", "", "output directory, or - to write a single format to stdout (default from config)")
	fs.StringVar(&o.formats, "format", "", "comma-separated output formats: json, kml, geojson, xlsx, pdf (default from config)")
	fs.StringVar(&o.metricsFile, "metrics-file", "", "write Prometheus metrics in text format to this file")
	fs.BoolVar(&o.trace, "trace", false, "write OpenTelemetry spans to stderr")
	if err := fs.Parse(args); err != nil {
		return o, err
	}
	if o.jobPath == "" && fs.NArg() > 0 {
		o.jobPath = fs.Arg(0)
	}
	if o.jobPath == "" {
		return o, errors.New("a job file is required (-job)")
	}
	return o, nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}
	cfg, err := config.Load(opts.configPath, opts.envFile)
	if err != nil {
		return err
	}
	log := cfg.Logger(stderr)
	ctx, runID := logging.EnsureRunID(ctx)
	ctx = logging.ContextWithLogger(ctx, log)

	var traceOut io.Writer
	if opts.trace {
		traceOut = stderr
	}
	tp, shutdown, err := tracing.Init(ctx, traceOut, log)
	if err != nil {
		return fmt.Errorf("tracing: %w", err)
	}
	defer tracing.Shutdown(context.WithoutCancel(ctx), shutdown, log)

	reg := prometheus.NewRegistry()
	collector, err := metrics.NewCollector(reg)
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}

	jf, err := job.Load(opts.jobPath)
	if err != nil {
		return err
	}
	e, err := cfg.ResolveEllipsoid()
	if err != nil {
		return err
	}
	if jf.Ellipsoid != "" {
		if e, err = traverse.EllipsoidByName(jf.Ellipsoid); err != nil {
			return err
		}
	}
	unit := cfg.Unit()
	if jf.Units != "" {
		if unit, err = traverse.ParseUnit(jf.Units); err != nil {
			return err
		}
	}
	plans, err := jf.Plans(job.Defaults{Units: cfg.Unit(), Method: cfg.DefaultMethod(), Closure: cfg.ClosureMode()})
	if err != nil {
		return err
	}
	log.Info(ctx, "job loaded",
		logging.String("job", opts.jobPath),
		logging.String("run_id", runID),
		logging.String("ellipsoid", e.Name()),
		logging.Int("polygons", len(plans)))

	registry := traverse.NewRegistry()
	report := export.Report{
		Title: strings.TrimSuffix(filepath.Base(opts.jobPath), filepath.Ext(opts.jobPath)),
		Unit:  unit,
	}
	for i, plan := range plans {
		if err := ctx.Err(); err != nil {
			return err
		}
		name := jf.Polygons[i].Name
		en, err := traverse.NewEngine(
			traverse.WithEllipsoid(e),
			traverse.WithRegistry(registry),
			traverse.WithClosureTolerance(cfg.ClosureToleranceM),
			traverse.WithNearClosureRadius(cfg.NearClosureM),
			traverse.WithDefaultMethod(cfg.DefaultMethod()),
			traverse.WithLogger(log.With(logging.String("polygon", name))),
			traverse.WithObserver(collector),
			traverse.WithTracer(tp.Tracer("github.com/terratracer/traverse")),
		)
		if err != nil {
			return err
		}
		poly, err := en.Build(ctx, plan)
		if err != nil {
			return fmt.Errorf("polygon %q: %w", name, err)
		}
		view, err := en.View()
		if err != nil {
			return err
		}
		if err := verifyReplay(view, e); err != nil {
			return fmt.Errorf("polygon %q: %w", name, err)
		}
		doc := export.NewDocument(name, view, e)
		report.Documents = append(report.Documents, doc)
		log.Info(ctx, "polygon built",
			logging.Uint64("polygon_id", poly.ID),
			logging.Int("corners", len(poly.CornerIDs)),
			logging.Bool("closed", poly.Closed),
			logging.Float64("perimeter_m", doc.Summary.Perimeter),
			logging.Float64("area_m2", doc.Summary.Area),
			logging.Float64("misclosure_m", doc.Summary.Misclosure))
	}

	if err := writeOutputs(ctx, log, opts, cfg, report, stdout); err != nil {
		return err
	}
	if opts.metricsFile != "" {
		if err := collector.WriteFile(opts.metricsFile); err != nil {
			return fmt.Errorf("metrics: %w", err)
		}
	}
	return nil
}

func writeOutputs(ctx context.Context, log logging.Logger, opts options, cfg config.Config, report export.Report, stdout io.Writer) error {
	names := cfg.Formats
	if opts.formats != "" {
		names = strings.Split(opts.formats, ",")
	}
	formats := make([]export.Format, 0, len(names))
	for _, n := range names {
		if strings.TrimSpace(n) == "" {
			continue
		}
		f, err := export.ParseFormat(n)
		if err != nil {
			return err
		}
		formats = append(formats, f)
	}
	if len(formats) == 0 {
		return errors.New("no output format selected")
	}

	dir := opts.outDir
	if dir == "" {
		dir = cfg.OutputDir
	}
	if dir == "-" {
		if len(formats) != 1 {
			return errors.New("exactly one format can be written to stdout")
		}
		return export.Write(stdout, formats[0], report)
	}
	for _, f := range formats {
		path, err := export.WriteFile(dir, report.Title, f, report)
		if err != nil {
			return err
		}
		log.Info(ctx, "export written", logging.String("format", string(f)), logging.String("path", path))
	}
	return nil
}

// verifyReplay regenerates every point of the view from its steps and
// checks it matches what was registered.
func verifyReplay(v traverse.View, e *traverse.Ellipsoid) error {
	steps := v.Steps
	if v.MonumentStep != nil {
		steps = append(steps[:len(steps):len(steps)], *v.MonumentStep)
	}
	coords, err := traverse.Replay(v.TiePoint, steps, e)
	if err != nil {
		return fmt.Errorf("replay: %w", err)
	}
	for _, p := range v.Points() {
		c, ok := coords[p.ID]
		if !ok {
			return fmt.Errorf("replay: point %d not regenerated", p.ID)
		}
		if math.Abs(c.Lat-p.Coordinate.Lat) > replayTolerance ||
			math.Abs(c.Lon-p.Coordinate.Lon) > replayTolerance {
			return fmt.Errorf("replay: point %d moved from %s to %s", p.ID, p.Coordinate, c)
		}
	}
	return nil
}
