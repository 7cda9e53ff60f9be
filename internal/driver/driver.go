// Package driver runs instrumentation over loaded packages and writes the
// rewritten files along with an overlay for go build.
package driver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"go/ast"
	"go/printer"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/tools/go/packages"

	"github.com/sirkon/jumbotrace/events"
	"github.com/sirkon/jumbotrace/internal/config"
	"github.com/sirkon/jumbotrace/internal/diag"
	"github.com/sirkon/jumbotrace/internal/faults"
	"github.com/sirkon/jumbotrace/internal/instrument"
	"github.com/sirkon/jumbotrace/internal/load"
	"github.com/sirkon/jumbotrace/internal/metrics"
	"github.com/sirkon/jumbotrace/internal/probeapi"
	"github.com/sirkon/jumbotrace/internal/symbols"
)

// OverlayFile is the name of the overlay written into the output directory.
const OverlayFile = "overlay.json"

// Options tunes a run.
type Options struct {
	Config *config.Config

	// OutDir receives rewritten files and the overlay.
	OutDir string

	Logger  *slog.Logger
	Metrics *metrics.Metrics
}

// Output describes a rewritten file.
type Output struct {
	Source    string
	Rewritten string
	Probes    map[events.Kind]int
}

// Summary is the outcome of a run.
type Summary struct {
	Outputs []Output

	// Failed lists files left as is because instrumentation failed.
	Failed []string

	// Overlay is the path of the overlay file, empty when nothing was rewritten.
	Overlay string
}

// Probes returns probe counts of all outputs.
func (s Summary) Probes() map[events.Kind]int {
	res := map[events.Kind]int{}
	for _, o := range s.Outputs {
		for k, n := range o.Probes {
			res[k] += n
		}
	}
	return res
}

// Driver instruments packages.
type Driver struct {
	cfg     *config.Config
	outDir  string
	rep     *diag.Reporter
	log     *slog.Logger
	metrics *metrics.Metrics
}

// New creates a driver reporting diagnostics to rep.
func New(opts Options, rep *diag.Reporter) (*Driver, error) {
	switch {
	case opts.Config == nil:
		return nil, faults.ArgumentNil("driver.New", "opts.Config")
	case opts.OutDir == "":
		return nil, faults.Argument("driver.New", "opts.OutDir", "must not be empty")
	case rep == nil:
		return nil, faults.ArgumentNil("driver.New", "rep")
	}

	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	m := opts.Metrics
	if m == nil {
		m = metrics.New()
	}

	return &Driver{
		cfg:     opts.Config,
		outDir:  opts.OutDir,
		rep:     rep,
		log:     log,
		metrics: m,
	}, nil
}

// job is a package with the files it owns.
type job struct {
	pkg   *packages.Package
	files []load.File
}

// Run instruments pkgs. Files failing instrumentation are reported and left out.
func (d *Driver) Run(ctx context.Context, pkgs []*packages.Package) (Summary, error) {
	jobs := d.plan(pkgs)

	var syntax []*ast.File
	for _, j := range jobs {
		for _, f := range j.files {
			syntax = append(syntax, f.Syntax)
		}
	}

	factory, err := symbols.NewFactory(
		symbols.WithPrefix(d.cfg.IdentPrefix),
		symbols.WithReserved(symbols.ReservedNames(syntax...)),
	)
	if err != nil {
		return Summary{}, fmt.Errorf("new symbols factory: %w", err)
	}
	api, err := probeapi.New(factory, d.cfg.ProbePackage, d.cfg.EventsPackage)
	if err != nil {
		return Summary{}, fmt.Errorf("new probe api: %w", err)
	}
	in, err := instrument.New(factory, api, d.rep, instrument.Options{
		Kinds:      d.cfg.Kinds,
		ThrowFuncs: d.cfg.ThrowRefs(),
		Logger:     d.log,
	})
	if err != nil {
		return Summary{}, fmt.Errorf("new instrumenter: %w", err)
	}

	var (
		mu  sync.Mutex
		sum Summary
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.cfg.JobsLimit())
	for _, j := range jobs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			outs, failed, err := d.pkg(in, j)
			if err != nil {
				return fmt.Errorf("package %s: %w", j.pkg.PkgPath, err)
			}

			mu.Lock()
			defer mu.Unlock()
			sum.Outputs = append(sum.Outputs, outs...)
			sum.Failed = append(sum.Failed, failed...)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Summary{}, err
	}

	slices.SortFunc(sum.Outputs, func(a, b Output) int { return strings.Compare(a.Source, b.Source) })
	slices.Sort(sum.Failed)
	d.metrics.Diagnostics(d.rep.Reports())

	if len(sum.Outputs) > 0 {
		path, err := d.writeOverlay(sum.Outputs)
		if err != nil {
			return Summary{}, err
		}
		sum.Overlay = path
	}

	d.log.Info("instrumentation done",
		slog.Int("rewritten", len(sum.Outputs)),
		slog.Int("failed", len(sum.Failed)),
		slog.String("out", d.outDir),
	)
	return sum, nil
}

// plan assigns every file to a single package. Test variants win over
// plain packages since they hold the same files and test ones on top.
func (d *Driver) plan(pkgs []*packages.Package) []job {
	owner := map[string]*packages.Package{}
	files := map[string]load.File{}
	for _, pkg := range pkgs {
		if d.excluded(pkg) {
			d.log.Debug("package excluded", slog.String("pkg", pkg.ID))
			continue
		}

		for _, f := range load.Files(pkg, d.cfg.SkipGenerated) {
			if !d.cfg.Tests && strings.HasSuffix(f.Name, "_test.go") {
				continue
			}
			if prev, ok := owner[f.Name]; ok && isTestVariant(prev) && !isTestVariant(pkg) {
				continue
			}
			owner[f.Name] = pkg
			files[f.Name] = f
		}
	}

	byPkg := map[*packages.Package]*job{}
	for _, name := range slices.Sorted(maps.Keys(owner)) {
		pkg := owner[name]
		j, ok := byPkg[pkg]
		if !ok {
			j = &job{pkg: pkg}
			byPkg[pkg] = j
		}
		j.files = append(j.files, files[name])
	}

	res := make([]job, 0, len(byPkg))
	for _, j := range byPkg {
		res = append(res, *j)
	}
	slices.SortFunc(res, func(a, b job) int { return strings.Compare(a.pkg.ID, b.pkg.ID) })
	return res
}

// excluded checks if pkg must not be instrumented: runtime packages would
// trace themselves and test mains are synthesized.
func (d *Driver) excluded(pkg *packages.Package) bool {
	switch {
	case pkg.Types == nil || pkg.TypesInfo == nil || pkg.Fset == nil:
		return true
	case pkg.PkgPath == d.cfg.ProbePackage || pkg.PkgPath == d.cfg.EventsPackage:
		return true
	case strings.HasSuffix(pkg.PkgPath, ".test"):
		return true
	}
	return false
}

func isTestVariant(pkg *packages.Package) bool {
	return strings.Contains(pkg.ID, " [")
}

// pkg instruments files of a package one by one since they share scopes.
func (d *Driver) pkg(in *instrument.Instrumenter, j job) ([]Output, []string, error) {
	start := time.Now()
	defer func() { d.metrics.Package(time.Since(start)) }()

	var (
		outs   []Output
		failed []string
	)
	for _, f := range j.files {
		res, err := in.Instrument(instrument.Unit{
			Fset: j.pkg.Fset,
			File: f.Syntax,
			Pkg:  j.pkg.Types,
			Info: j.pkg.TypesInfo,
		})
		if err != nil {
			d.log.Warn("file is left as is", slog.String("file", f.Name), slog.Any("err", err))
			d.metrics.Unit(metrics.StatusFailed)
			failed = append(failed, f.Name)
			continue
		}
		if res.Total() == 0 {
			d.metrics.Unit(metrics.StatusUntouched)
			continue
		}

		rewritten, err := d.write(j.pkg, f)
		if err != nil {
			return nil, nil, err
		}
		for k, n := range res.Probes {
			d.metrics.Probes(k, n)
		}
		d.metrics.Unit(metrics.StatusInstrumented)
		outs = append(outs, Output{Source: f.Name, Rewritten: rewritten, Probes: res.Probes})
	}

	return outs, failed, nil
}

// write prints f into the output directory mirroring the package path.
func (d *Driver) write(pkg *packages.Package, f load.File) (string, error) {
	mode := printer.UseSpaces | printer.TabIndent
	if d.cfg.PreservePositions {
		mode |= printer.SourcePos
	}
	cfg := printer.Config{Mode: mode, Tabwidth: 8}

	var buf bytes.Buffer
	if err := cfg.Fprint(&buf, pkg.Fset, f.Syntax); err != nil {
		return "", fmt.Errorf("print %s: %w", f.Name, err)
	}

	dir := filepath.Join(d.outDir, filepath.FromSlash(pkg.PkgPath))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	path := filepath.Join(dir, filepath.Base(f.Name))
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}

	return path, nil
}

// overlay is the go build -overlay file format.
type overlay struct {
	Replace map[string]string
}

func (d *Driver) writeOverlay(outs []Output) (string, error) {
	ov := overlay{Replace: make(map[string]string, len(outs))}
	for _, o := range outs {
		ov.Replace[o.Source] = o.Rewritten
	}

	data, err := json.MarshalIndent(ov, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode overlay: %w", err)
	}
	if err := os.MkdirAll(d.outDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	path := filepath.Join(d.outDir, OverlayFile)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write overlay: %w", err)
	}
	return path, nil
}

// ReadOverlay reads an overlay written by a run.
func ReadOverlay(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read overlay: %w", err)
	}

	var ov overlay
	if err := json.Unmarshal(data, &ov); err != nil {
		return nil, fmt.Errorf("decode overlay %s: %w", path, err)
	}
	return ov.Replace, nil
}
