package instrument

import (
	"bytes"
	"errors"
	"fmt"
	"go/ast"
	"go/format"
	"go/parser"
	"go/token"
	"go/types"
	"regexp"
	"strings"
	"testing"

	"github.com/sirkon/deepequal"

	"github.com/sirkon/jumbotrace/events"
	"github.com/sirkon/jumbotrace/internal/codes"
	"github.com/sirkon/jumbotrace/internal/diag"
	"github.com/sirkon/jumbotrace/internal/faults"
	"github.com/sirkon/jumbotrace/internal/probeapi"
	"github.com/sirkon/jumbotrace/internal/symbols"
)

type importerFunc func(path string) (*types.Package, error)

func (f importerFunc) Import(path string) (*types.Package, error) { return f(path) }

func newInfo() *types.Info {
	return &types.Info{
		Types:      map[ast.Expr]types.TypeAndValue{},
		Defs:       map[*ast.Ident]types.Object{},
		Uses:       map[*ast.Ident]types.Object{},
		Implicits:  map[ast.Node]types.Object{},
		Scopes:     map[ast.Node]*types.Scope{},
		Instances:  map[*ast.Ident]types.Instance{},
		Selections: map[*ast.SelectorExpr]*types.Selection{},
	}
}

func loadUnit(t *testing.T, src string, imp types.Importer) Unit {
	t.Helper()

	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "p.go", src, parser.ParseComments)
	if err != nil {
		t.Fatal(err)
	}

	info := newInfo()
	conf := types.Config{Importer: imp}
	pkg, err := conf.Check("example.com/p", fset, []*ast.File{file}, info)
	if err != nil {
		t.Fatalf("check source: %s", err)
	}

	return Unit{Fset: fset, File: file, Pkg: pkg, Info: info}
}

type fixture struct {
	api *probeapi.API
	rep *diag.Reporter
	in  *Instrumenter
}

func newFixture(t *testing.T, opts Options) fixture {
	t.Helper()

	f, err := symbols.NewFactory()
	if err != nil {
		t.Fatal(err)
	}
	api, err := probeapi.New(f, probeapi.DefaultProbePath, probeapi.DefaultEventsPath)
	if err != nil {
		t.Fatal(err)
	}
	rep := &diag.Reporter{}
	in, err := New(f, api, rep, opts)
	if err != nil {
		t.Fatal(err)
	}

	return fixture{api: api, rep: rep, in: in}
}

// run instruments src and checks the output still type checks against
// the probe package.
func (fx fixture) run(t *testing.T, src string) (Result, string) {
	t.Helper()

	return fx.runUnit(t, fx.load(t, src))
}

func (fx fixture) load(t *testing.T, src string) Unit {
	t.Helper()

	return loadUnit(t, src, importerFunc(func(path string) (*types.Package, error) {
		return nil, fmt.Errorf("unexpected import %s", path)
	}))
}

func (fx fixture) runUnit(t *testing.T, u Unit) (Result, string) {
	t.Helper()

	res, err := fx.in.Instrument(u)
	if err != nil {
		t.Fatalf("instrument: %s", err)
	}

	var buf bytes.Buffer
	if err := format.Node(&buf, u.Fset, u.File); err != nil {
		t.Fatalf("print: %s", err)
	}
	out := buf.String()

	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "p.go", out, 0)
	if err != nil {
		t.Fatalf("parse output: %s\n%s", err, out)
	}
	conf := types.Config{Importer: importerFunc(func(path string) (*types.Package, error) {
		if path == fx.api.Probe.Path() {
			return fx.api.Probe, nil
		}
		return nil, fmt.Errorf("unexpected import %s", path)
	})}
	if _, err := conf.Check("example.com/p", fset, []*ast.File{file}, nil); err != nil {
		t.Fatalf("check output: %s\n%s", err, out)
	}

	return res, out
}

func TestInstrument(t *testing.T) {
	type test struct {
		name     string
		src      string
		want     map[events.Kind]int
		contains []string
	}

	tests := []test{
		{
			name: "return-value",
			src: `package p

func f(x int) int {
	return x + 1
}
`,
			want:     map[events.Kind]int{events.KindReturn: 1},
			contains: []string{"= x + 1", `"f"`},
		},
		{
			name: "return-tuple",
			src: `package p

func pair() (int, string) { return 1, "a" }

func f() (int, string) {
	return pair()
}
`,
			want:     map[events.Kind]int{events.KindReturn: 2},
			contains: []string{"= pair()", `"pair"`},
		},
		{
			name: "exec-and-var-decl",
			src: `package p

func g() {}

func f() {
	y := 1
	var z int
	g()
	_, _ = y, z
	return
}
`,
			want: map[events.Kind]int{
				events.KindVarDecl: 2,
				events.KindExec:    1,
				events.KindReturn:  1,
			},
			contains: []string{`"y", "int"`, `"z", "int"`},
		},
		{
			name: "jumps",
			src: `package p

func f(xs []int) {
outer:
	for i := 0; i < 10; i++ {
		for range xs {
			if i > 5 {
				break outer
			}
			continue
		}
	}
}
`,
			want: map[events.Kind]int{
				events.KindVarDecl:  1,
				events.KindBreak:    1,
				events.KindContinue: 1,
			},
			contains: []string{`"outer", 5, 2`, `"range loop", 6, 3`},
		},
		{
			name: "switches",
			src: `package p

func f(x int) string {
	switch y := x * 2; y {
	case 1:
		return "one"
	}
	switch {
	case x > 0:
		return "pos"
	}
	return ""
}
`,
			want: map[events.Kind]int{
				events.KindVarDecl: 1,
				events.KindSwitch:  2,
				events.KindReturn:  3,
			},
			contains: []string{"x * 2, ", ".NextID();", "true)"},
		},
		{
			name: "type-switch-and-assertion",
			src: `package p

func f(v any) int {
	switch t := v.(type) {
	case int:
		return t
	}
	n := v.(int)
	return n
}
`,
			want: map[events.Kind]int{
				events.KindSwitch:    1,
				events.KindReturn:    2,
				events.KindVarDecl:   1,
				events.KindAssertion: 1,
			},
			contains: []string{`"v.(int)", v).(int)`, "v).(type)"},
		},
		{
			name: "throw-and-catch",
			src: `package p

func f() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = nil
		}
	}()
	panic("boom")
}
`,
			want: map[events.Kind]int{
				events.KindThrow:   1,
				events.KindCatch:   1,
				events.KindVarDecl: 1,
			},
			contains: []string{"panic(", `"boom"))`, "recover())"},
		},
		{
			name: "yield",
			src: `package p

func seq(yield func(int) bool) {
	if !yield(1) {
		return
	}
}
`,
			want: map[events.Kind]int{
				events.KindYield:  1,
				events.KindReturn: 1,
			},
			contains: []string{`"seq", 3, 6, yield, 1)`},
		},
		{
			name: "skipped",
			src: `package p

//jumbotrace:skip
func f() int {
	return 1
}
`,
			want: map[events.Kind]int{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx := newFixture(t, Options{})
			res, out := fx.run(t, tt.src)

			deepequal.SideBySide(t, "probes", tt.want, res.Probes)
			for _, s := range tt.contains {
				if !strings.Contains(out, s) {
					t.Errorf("output lacks %q:\n%s", s, out)
				}
			}
			if res.Total() == 0 && res.ImportName != "" {
				t.Errorf("import %s added without probes", res.ImportName)
			}
			if res.Total() > 0 && !strings.Contains(out, res.ImportName+` "`+probeapi.DefaultProbePath+`"`) {
				t.Errorf("output lacks probe import:\n%s", out)
			}
		})
	}
}

func TestInstrumentKinds(t *testing.T) {
	fx := newFixture(t, Options{Kinds: []events.Kind{events.KindReturn}})
	res, _ := fx.run(t, `package p

func f() int {
	y := 1
	return y
}
`)

	deepequal.SideBySide(t, "probes", map[events.Kind]int{events.KindReturn: 1}, res.Probes)
}

func TestInstrumentShadowedResult(t *testing.T) {
	fx := newFixture(t, Options{})
	res, out := fx.run(t, `package p

func f() (err error) {
	{
		err := error(nil)
		return err
	}
}
`)

	deepequal.SideBySide(t, "probes", map[events.Kind]int{
		events.KindVarDecl: 1,
		events.KindReturn:  1,
	}, res.Probes)
	if !strings.Contains(out, `"f")`) {
		t.Errorf("return value of a shadowed result is captured:\n%s", out)
	}

	var found bool
	for _, r := range fx.rep.Reports() {
		if r.Code == codes.ShadowedResult() {
			found = true
		}
	}
	if !found {
		t.Errorf("no %s report in %v", codes.ShadowedResult(), fx.rep.Reports())
	}
}

func TestInstrumentLabeledLoopGoto(t *testing.T) {
	tests := []struct {
		name      string
		jump      string
		keepLabel bool
	}{
		{
			name: "goto-only",
		},
		{
			name:      "goto-and-continue",
			jump:      "continue again",
			keepLabel: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx := newFixture(t, Options{})
			res, out := fx.run(t, `package p

func f() int {
	n := 0
again:
	for i := 0; i < 2; i++ {
		n += i
		`+tt.jump+`
	}
	if n < 3 {
		n = 5
		goto again
	}
	return n
}
`)

			if res.Probes[events.KindVarDecl] != 2 {
				t.Errorf("unexpected probes %v", res.Probes)
			}

			m := regexp.MustCompile(`(?m)^(\w+_again):\n\s*\w+\.VarDecl\(`).FindStringSubmatch(out)
			if m == nil {
				t.Fatalf("loop init probe is not labeled:\n%s", out)
			}
			if !strings.Contains(out, "goto "+m[1]+"\n") {
				t.Errorf("goto is not redirected to %s:\n%s", m[1], out)
			}
			if kept := strings.Contains(out, "\nagain:"); kept != tt.keepLabel {
				t.Errorf("loop label kept: %t, want %t:\n%s", kept, tt.keepLabel, out)
			}
		})
	}
}

func TestInstrumentMissingPositions(t *testing.T) {
	fx := newFixture(t, Options{})
	u := fx.load(t, `package p

func g() {}

func f() int {
	for {
		g()
		break
	}
	return 1
}
`)

	var loop *ast.ForStmt
	ast.Inspect(u.File, func(n ast.Node) bool {
		switch v := n.(type) {
		case *ast.ForStmt:
			loop = v
		case *ast.CallExpr:
			v.Fun.(*ast.Ident).NamePos = token.NoPos
			v.Lparen = token.NoPos
			v.Rparen = token.NoPos
		}
		return true
	})
	loop.For = token.NoPos

	res, out := fx.runUnit(t, u)

	deepequal.SideBySide(t, "probes", map[events.Kind]int{
		events.KindExec:   1,
		events.KindBreak:  1,
		events.KindReturn: 1,
	}, res.Probes)
	if !strings.Contains(out, `"<unknown>", 0, 0, 0, 0)`) {
		t.Errorf("no placeholder location for the call:\n%s", out)
	}
	if !strings.Contains(out, `"for loop", 0, 0)`) {
		t.Errorf("no placeholder target position for the break:\n%s", out)
	}

	var missing int
	for _, r := range fx.rep.Reports() {
		switch {
		case r.Code == codes.MissingPosition():
			missing++
		case r.Code.Fatal():
			t.Errorf("fatal report %s", r)
		}
	}
	if missing != 2 {
		t.Errorf("%d %s reports in %v", missing, codes.MissingPosition(), fx.rep.Reports())
	}
}

func TestInstrumentFatal(t *testing.T) {
	const src = `package p

func g() {}

func f() int {
	g()
	return 1
}
`

	t.Run("incomplete-probe-api", func(t *testing.T) {
		f, err := symbols.NewFactory()
		if err != nil {
			t.Fatal(err)
		}
		api := &probeapi.API{
			Probe:  types.NewPackage(probeapi.DefaultProbePath, "probe"),
			Events: types.NewPackage(probeapi.DefaultEventsPath, "events"),
		}
		rep := &diag.Reporter{}
		in, err := New(f, api, rep, Options{})
		if err != nil {
			t.Fatal(err)
		}

		fx := fixture{api: api, rep: rep, in: in}
		fx.checkFatal(t, fx.load(t, src), codes.InvalidArgument(), 6, 2)
	})

	t.Run("untyped-result", func(t *testing.T) {
		fx := newFixture(t, Options{})
		u := fx.load(t, src)
		ast.Inspect(u.File, func(n ast.Node) bool {
			if r, ok := n.(*ast.ReturnStmt); ok {
				delete(u.Info.Types, r.Results[0])
			}
			return true
		})

		fx.checkFatal(t, u, codes.InvalidArgument(), 7, 2)
	})
}

// checkFatal instruments u expecting a failure reported at line:col.
func (fx fixture) checkFatal(t *testing.T, u Unit, code codes.Code, line, col int) {
	t.Helper()

	res, err := fx.in.Instrument(u)
	if err == nil {
		t.Fatal("error expected")
	}
	if res.Total() != 0 || res.ImportName != "" {
		t.Errorf("unexpected result of a failed file %+v", res)
	}
	if !strings.HasPrefix(err.Error(), fmt.Sprintf("p.go:%d:%d: ", line, col)) {
		t.Errorf("error lacks position: %s", err)
	}

	reports := fx.rep.Reports()
	if len(reports) != 1 {
		t.Fatalf("unexpected reports %v", reports)
	}
	r := reports[0]
	if r.Code != code || !r.Code.Fatal() || r.Pos.Line != line || r.Pos.Column != col {
		t.Errorf("unexpected report %s", r)
	}
	if !fx.rep.HasFatal() {
		t.Error("no fatal reports")
	}
}

func TestInstrumentRejectsNil(t *testing.T) {
	fx := newFixture(t, Options{})
	if _, err := fx.in.Instrument(Unit{}); !isArgumentError(err) {
		t.Errorf("unexpected error %v", err)
	}

	if _, err := New(nil, fx.api, fx.rep, Options{}); !isArgumentError(err) {
		t.Errorf("unexpected error %v", err)
	}
}

func isArgumentError(err error) bool {
	var target *faults.ArgumentError
	return errors.As(err, &target)
}
