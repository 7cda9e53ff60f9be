package instrument

import (
	"errors"
	"fmt"
	"go/ast"
	"go/token"
	"go/types"
	"log/slog"

	"golang.org/x/tools/go/ast/astutil"

	"github.com/sirkon/jumbotrace/events"
	"github.com/sirkon/jumbotrace/internal/codes"
	"github.com/sirkon/jumbotrace/internal/diag"
	"github.com/sirkon/jumbotrace/internal/faults"
	"github.com/sirkon/jumbotrace/internal/probeapi"
	"github.com/sirkon/jumbotrace/internal/sites"
	"github.com/sirkon/jumbotrace/internal/spans"
	"github.com/sirkon/jumbotrace/internal/symbols"
	"github.com/sirkon/jumbotrace/internal/synth"
)

// SkipDirective in a function doc comment disables tracing of the function.
const SkipDirective = "//jumbotrace:skip"

// Unit is a type checked file to rewrite. The file is mutated in place.
type Unit struct {
	Fset *token.FileSet
	File *ast.File
	Pkg  *types.Package
	Info *types.Info
}

// Options tunes instrumentation.
type Options struct {
	// Kinds limits traced constructs. Empty means all of them.
	Kinds []events.Kind

	// ThrowFuncs lists functions besides panic whose first argument is a thrown value.
	ThrowFuncs []sites.Ref

	// Filename maps file names to what probes report. Identity when nil.
	Filename func(name string) string

	Logger *slog.Logger
}

// Result summarizes instrumentation of a unit.
type Result struct {
	// Probes counts inserted probes by kind.
	Probes map[events.Kind]int

	// ImportName is the probe package import name, empty when nothing was inserted.
	ImportName string
}

// Total returns the number of inserted probes.
func (r Result) Total() int {
	var n int
	for _, v := range r.Probes {
		n += v
	}
	return n
}

// Instrumenter rewrites units. It is safe to use it for different units
// concurrently as long as the factory and the API are shared read only.
type Instrumenter struct {
	factory *symbols.Factory
	api     *probeapi.API
	rep     *diag.PhaseReporter
	kinds   map[events.Kind]bool
	opts    Options
	log     *slog.Logger
}

// New creates an Instrumenter.
func New(factory *symbols.Factory, api *probeapi.API, rep *diag.Reporter, opts Options) (*Instrumenter, error) {
	switch {
	case factory == nil:
		return nil, faults.ArgumentNil("instrument.New", "factory")
	case api == nil:
		return nil, faults.ArgumentNil("instrument.New", "api")
	case rep == nil:
		return nil, faults.ArgumentNil("instrument.New", "rep")
	}

	kinds := map[events.Kind]bool{}
	for _, k := range opts.Kinds {
		kinds[k] = true
	}
	if len(kinds) == 0 {
		for _, k := range events.Kinds() {
			kinds[k] = true
		}
	}

	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	return &Instrumenter{
		factory: factory,
		api:     api,
		rep:     rep.Phase(diag.PhaseInstrument),
		kinds:   kinds,
		opts:    opts,
		log:     log,
	}, nil
}

// failure carries a fatal error up to Instrument.
type failure struct {
	err error
}

// must unwraps v or aborts the file.
func must[T any](v T, err error) T {
	if err != nil {
		panic(failure{err: err})
	}
	return v
}

func check(err error) {
	if err != nil {
		panic(failure{err: err})
	}
}

// Instrument rewrites u.File. An error means the file must be discarded.
func (in *Instrumenter) Instrument(u Unit) (res Result, err error) {
	switch {
	case u.Fset == nil:
		return Result{}, faults.ArgumentNil("Instrument", "u.Fset")
	case u.File == nil:
		return Result{}, faults.ArgumentNil("Instrument", "u.File")
	case u.Pkg == nil:
		return Result{}, faults.ArgumentNil("Instrument", "u.Pkg")
	case u.Info == nil:
		return Result{}, faults.ArgumentNil("Instrument", "u.Info")
	}

	b, err := synth.New(u.Pkg, u.File, u.Info)
	if err != nil {
		return Result{}, fmt.Errorf("new builder: %w", err)
	}

	s := &fileState{
		in:    in,
		unit:  u,
		b:     b,
		sites: sites.NewClassifier(u.Info, in.opts.ThrowFuncs),
		idx:   spans.Build(u.File, u.Info),
		res:   Result{Probes: map[events.Kind]int{}},
	}

	defer func() {
		r := recover()
		if r == nil {
			return
		}
		f, ok := r.(failure)
		if !ok {
			panic(r)
		}
		res, err = Result{}, s.abort(f.err)
	}()

	s.file()
	if s.probe != nil {
		if !astutil.AddNamedImport(u.Fset, u.File, s.probe.Name(), in.api.Probe.Path()) {
			return Result{}, faults.Consistency(u.Fset.Position(u.File.Package), "probe import was not added")
		}
		s.res.ImportName = s.probe.Name()
	}

	in.log.Debug("file instrumented",
		slog.String("file", u.Fset.Position(u.File.Package).Filename),
		slog.Int("probes", s.res.Total()),
	)
	return s.res, nil
}

// fileState is the state of rewriting a single file.
type fileState struct {
	in    *Instrumenter
	unit  Unit
	b     *synth.Builder
	sites *sites.Classifier
	idx   *spans.Index
	probe *types.PkgName
	res   Result

	// cur is the position of the construct being rewritten.
	cur token.Pos
}

func (s *fileState) enabled(k events.Kind) bool {
	return s.in.kinds[k]
}

func (s *fileState) position(pos token.Pos) token.Position {
	if !pos.IsValid() {
		return token.Position{}
	}
	return s.unit.Fset.Position(pos)
}

// fatal aborts the file with err.
func (s *fileState) fatal(pos token.Pos, err error) {
	s.cur = pos
	panic(failure{err: err})
}

// abort reports a fatal err at the current construct.
func (s *fileState) abort(err error) error {
	code := codes.Internal()
	var (
		argErr  *faults.ArgumentError
		consErr *faults.ConsistencyError
	)
	switch {
	case errors.As(err, &argErr):
		code = codes.InvalidArgument()
	case errors.As(err, &consErr):
		code = codes.Inconsistency()
	}

	p := s.position(s.cur)
	s.in.rep.Report(code, err.Error(), p)
	if p.IsValid() {
		err = fmt.Errorf("%s: %w", p, err)
	}
	return err
}

// warn reports a soft failure.
func (s *fileState) warn(code codes.Code, pos token.Pos, format string, a ...any) {
	msg := fmt.Sprintf(format, a...)
	s.in.rep.Report(code, msg, s.position(pos))
	s.in.log.Warn("degraded instrumentation",
		slog.String("code", code.String()),
		slog.String("pos", s.position(pos).String()),
		slog.String("msg", msg),
	)
}

func (s *fileState) file() {
	for _, decl := range s.unit.File.Decls {
		switch d := decl.(type) {
		case *ast.FuncDecl:
			if d.Body == nil || skipped(d.Doc) {
				continue
			}
			s.funcBody(s.idx.ByNode(d), d.Type, d.Body)
		case *ast.GenDecl:
			s.literals(d)
		}
	}
}

func skipped(doc *ast.CommentGroup) bool {
	if doc == nil {
		return false
	}
	for _, c := range doc.List {
		if c.Text == SkipDirective {
			return true
		}
	}
	return false
}
