package spans

import (
	"go/ast"
	"go/parser"
	"go/token"
	"go/types"
	"testing"
)

func TestIndexDepthPattern(t *testing.T) {
	x := New()

	fn := func(name string) *Func {
		return &Func{Name: name}
	}

	if x.GetByPos(0) != nil {
		t.Fatal("nothing was expected at pos 0 right now")
	}

	x.Add(fn("ground"), 0, 200)
	if got := x.GetByPos(10); got == nil || got.Name != "ground" {
		t.Fatal("ground was expected at pos 10")
	}

	x.Add(fn("mid1"), 10, 90)
	x.Add(fn("mid11"), 20, 30)
	x.Add(fn("mid12"), 40, 80)
	x.Add(fn("mid13"), 85, 88)
	x.Add(fn("mid2"), 110, 190)
	x.Add(fn("mid21"), 120, 130)

	type test struct {
		name  string
		pos   token.Pos
		isnil bool
	}
	check := func(tt test) func(t *testing.T) {
		return func(t *testing.T) {
			got := x.GetByPos(tt.pos)
			switch {
			case got == nil && !tt.isnil:
				t.Fatalf("span %q was not found at position %d", tt.name, tt.pos)
			case got != nil && tt.isnil:
				t.Fatalf("no span was expected at position %d, got %q", tt.pos, got.Name)
			case got != nil && got.Name != tt.name:
				t.Fatalf("span %q was expected, got %q at position %d", tt.name, got.Name, tt.pos)
			}
		}
	}

	tests := []test{
		{name: "ground", pos: 0},
		{name: "ground", pos: 5},
		{name: "ground", pos: 200},
		{name: "mid1", pos: 90},
		{name: "mid11", pos: 25},
		{name: "mid12", pos: 41},
		{name: "mid12", pos: 79},
		{name: "mid13", pos: 86},
		{name: "ground", pos: 100},
		{name: "mid2", pos: 115},
		{name: "mid21", pos: 125},
		{name: "on-the-left", pos: -1, isnil: true},
		{name: "on-the-right", pos: 201, isnil: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, check(tt))
	}

	x.Add(fn("underground"), -10, 300)
	tests = []test{
		{name: "underground", pos: -5},
		{name: "underground", pos: 250},
		{name: "ground", pos: 2},
		{name: "mid21", pos: 121},
	}
	for _, tt := range tests {
		t.Run(tt.name, check(tt))
	}
}

const namingSource = `package p

type T struct{}

type G[K comparable] struct{}

var hook = func() {}

func foo() {
	f := func() {
		g := func() {}
		g()
	}
	f()
	_ = func() {}
}

func (T) M() {}

func (*T) P() {}

func (*G[K]) Q() {}
`

func TestBuildNaming(t *testing.T) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "p.go", namingSource, 0)
	if err != nil {
		t.Fatal(err)
	}
	info := &types.Info{
		Types: map[ast.Expr]types.TypeAndValue{},
		Defs:  map[*ast.Ident]types.Object{},
	}
	var conf types.Config
	if _, err := conf.Check("example.com/p", fset, []*ast.File{file}, info); err != nil {
		t.Fatal(err)
	}

	x := Build(file, info)
	var names []string
	for _, fn := range x.Funcs() {
		names = append(names, fn.Name)
		if fn.Sig == nil {
			t.Errorf("no signature for %s", fn.Name)
		}
		if x.ByNode(fn.Node) != fn {
			t.Errorf("%s is not found by its node", fn.Name)
		}
	}

	want := []string{
		"glob..func1",
		"foo",
		"foo.func1",
		"foo.func1.1",
		"foo.func2",
		"T.M",
		"(*T).P",
		"(*G).Q",
	}
	if len(names) != len(want) {
		t.Fatalf("got %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("function %d: got %q, want %q", i, names[i], want[i])
		}
	}
}

func TestIndexPartialOverlap(t *testing.T) {
	x := New()
	x.Add(&Func{Name: "left"}, 10, 20)

	defer func() {
		if recover() == nil {
			t.Error("partially overlapping span accepted")
		}
	}()
	x.Add(&Func{Name: "right"}, 15, 30)
}
