package driver

import (
	"context"
	"go/ast"
	"go/parser"
	"go/token"
	"go/types"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirkon/deepequal"
	"golang.org/x/tools/go/packages"

	"github.com/sirkon/jumbotrace/events"
	"github.com/sirkon/jumbotrace/internal/config"
	"github.com/sirkon/jumbotrace/internal/diag"
	"github.com/sirkon/jumbotrace/internal/probeapi"
)

const (
	demoSource = `package demo

func Sign(x int) int {
	switch {
	case x < 0:
		return -1
	}
	return 1
}
`
	typesSource = `package demo

type Point struct{ X, Y int }
`
)

// fakePackage type checks sources the way go/packages would present them.
func fakePackage(t *testing.T, path, dir string, srcs map[string]string) *packages.Package {
	t.Helper()

	fset := token.NewFileSet()
	pkg := &packages.Package{ID: path, PkgPath: path, Fset: fset}
	for name, src := range srcs {
		fname := filepath.Join(dir, name)
		f, err := parser.ParseFile(fset, fname, src, parser.ParseComments)
		if err != nil {
			t.Fatal(err)
		}
		pkg.Syntax = append(pkg.Syntax, f)
		pkg.CompiledGoFiles = append(pkg.CompiledGoFiles, fname)
	}

	pkg.TypesInfo = &types.Info{
		Types:      map[ast.Expr]types.TypeAndValue{},
		Defs:       map[*ast.Ident]types.Object{},
		Uses:       map[*ast.Ident]types.Object{},
		Implicits:  map[ast.Node]types.Object{},
		Scopes:     map[ast.Node]*types.Scope{},
		Instances:  map[*ast.Ident]types.Instance{},
		Selections: map[*ast.SelectorExpr]*types.Selection{},
	}
	var conf types.Config
	typ, err := conf.Check(path, fset, pkg.Syntax, pkg.TypesInfo)
	if err != nil {
		t.Fatal(err)
	}
	pkg.Types = typ
	pkg.Name = typ.Name()
	return pkg
}

func TestRun(t *testing.T) {
	src := t.TempDir()
	out := t.TempDir()

	pkg := fakePackage(t, "example.com/demo", src, map[string]string{
		"demo.go":  demoSource,
		"types.go": typesSource,
	})
	runtime := fakePackage(t, probeapi.DefaultEventsPath, t.TempDir(), map[string]string{
		"events.go": "package events\n\nfunc F() int { return 1 }\n",
	})

	rep := &diag.Reporter{}
	d, err := New(Options{Config: config.Default(), OutDir: out}, rep)
	if err != nil {
		t.Fatal(err)
	}

	sum, err := d.Run(context.Background(), []*packages.Package{pkg, runtime})
	if err != nil {
		t.Fatal(err)
	}

	if len(sum.Outputs) != 1 {
		t.Fatalf("%d outputs: %+v", len(sum.Outputs), sum.Outputs)
	}
	deepequal.SideBySide(t, "probes", map[events.Kind]int{
		events.KindSwitch: 1,
		events.KindReturn: 2,
	}, sum.Probes())

	replace, err := ReadOverlay(sum.Overlay)
	if err != nil {
		t.Fatal(err)
	}
	source := filepath.Join(src, "demo.go")
	rewritten := filepath.Join(out, "example.com", "demo", "demo.go")
	deepequal.SideBySide(t, "overlay", map[string]string{source: rewritten}, replace)

	data, err := os.ReadFile(rewritten)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := parser.ParseFile(token.NewFileSet(), rewritten, data, 0); err != nil {
		t.Fatalf("rewritten file does not parse: %s\n%s", err, data)
	}
	if !strings.Contains(string(data), `"`+probeapi.DefaultProbePath+`"`) {
		t.Errorf("no probe import in\n%s", data)
	}
	if rep.HasFatal() {
		t.Errorf("fatal reports: %v", rep.Reports())
	}
}

func TestRunFailedFile(t *testing.T) {
	src := t.TempDir()
	out := t.TempDir()

	pkg := fakePackage(t, "example.com/demo", src, map[string]string{
		"demo.go":   demoSource,
		"broken.go": "package demo\n\nfunc Twice(x int) int {\n\treturn x * 2\n}\n",
	})
	broken := filepath.Join(src, "broken.go")
	for _, f := range pkg.Syntax {
		if pkg.Fset.Position(f.Package).Filename != broken {
			continue
		}
		ast.Inspect(f, func(n ast.Node) bool {
			if r, ok := n.(*ast.ReturnStmt); ok {
				delete(pkg.TypesInfo.Types, r.Results[0])
			}
			return true
		})
	}

	rep := &diag.Reporter{}
	d, err := New(Options{Config: config.Default(), OutDir: out}, rep)
	if err != nil {
		t.Fatal(err)
	}
	sum, err := d.Run(context.Background(), []*packages.Package{pkg})
	if err != nil {
		t.Fatal(err)
	}

	deepequal.SideBySide(t, "failed", []string{broken}, sum.Failed)
	replace, err := ReadOverlay(sum.Overlay)
	if err != nil {
		t.Fatal(err)
	}
	deepequal.SideBySide(t, "overlay", map[string]string{
		filepath.Join(src, "demo.go"): filepath.Join(out, "example.com", "demo", "demo.go"),
	}, replace)
	if _, err := os.Stat(filepath.Join(out, "example.com", "demo", "broken.go")); !os.IsNotExist(err) {
		t.Errorf("failed file is written: %v", err)
	}

	var fatal []diag.Report
	for _, r := range rep.Reports() {
		if r.Code.Fatal() {
			fatal = append(fatal, r)
		}
	}
	if len(fatal) != 1 {
		t.Fatalf("unexpected reports %v", rep.Reports())
	}
	r := fatal[0]
	if r.Pos.Filename != broken || r.Pos.Line != 4 || r.Pos.Column != 2 {
		t.Errorf("unexpected report %s", r)
	}
}

func TestRunPreservePositions(t *testing.T) {
	src := t.TempDir()
	out := t.TempDir()

	pkg := fakePackage(t, "example.com/demo", src, map[string]string{"demo.go": demoSource})
	cfg := config.Default()
	cfg.PreservePositions = true

	d, err := New(Options{Config: cfg, OutDir: out}, &diag.Reporter{})
	if err != nil {
		t.Fatal(err)
	}
	sum, err := d.Run(context.Background(), []*packages.Package{pkg})
	if err != nil {
		t.Fatal(err)
	}
	if len(sum.Outputs) != 1 {
		t.Fatalf("%d outputs", len(sum.Outputs))
	}

	data, err := os.ReadFile(sum.Outputs[0].Rewritten)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "//line ") {
		t.Errorf("no line directives in\n%s", data)
	}
}

func TestNewRejectsInvalid(t *testing.T) {
	if _, err := New(Options{OutDir: "x"}, &diag.Reporter{}); err == nil {
		t.Error("nil config accepted")
	}
	if _, err := New(Options{Config: config.Default()}, &diag.Reporter{}); err == nil {
		t.Error("empty output dir accepted")
	}
	if _, err := New(Options{Config: config.Default(), OutDir: "x"}, nil); err == nil {
		t.Error("nil reporter accepted")
	}
}
