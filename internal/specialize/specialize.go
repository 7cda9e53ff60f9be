package specialize

import (
	"bytes"
	"fmt"
	"go/ast"
	"go/format"
	"go/parser"
	"go/printer"
	"go/token"
	"slices"
	"strings"

	"github.com/sirkon/jumbotrace/internal/faults"
)

const (
	// Directive marks a function to specialize.
	Directive = "//jumbotrace:specialize"

	// Tag marks a produced copy.
	Tag = "//jumbotrace:specialized"

	// RawPackage is the only package name accepted.
	RawPackage = "raw"

	// ProcessedPackage is the package name of the output.
	ProcessedPackage = "processed"

	resultArg = "result"
)

// Target is a type functions are specialized for.
type Target struct {
	Type   string
	Suffix string
}

var targets = []Target{
	{Type: "int", Suffix: "Int"},
	{Type: "int16", Suffix: "Int16"},
	{Type: "int64", Suffix: "Int64"},
	{Type: "float32", Suffix: "Float32"},
	{Type: "float64", Suffix: "Float64"},
	{Type: "bool", Suffix: "Bool"},
	{Type: "rune", Suffix: "Rune"},
	{Type: "byte", Suffix: "Byte"},
	{Type: "any", Suffix: "Any"},
}

// Targets returns target types in the order copies are produced.
func Targets() []Target {
	return slices.Clone(targets)
}

// Result describes a processed file.
type Result struct {
	// Source is the formatted output.
	Source []byte

	// Specialized lists names of replicated functions.
	Specialized []string
}

// Source specializes marked functions of a raw package file.
func Source(filename string, src []byte) (Result, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, filename, src, parser.ParseComments)
	if err != nil {
		return Result{}, fmt.Errorf("parse %s: %w", filename, err)
	}

	if file.Name.Name != RawPackage {
		return Result{}, faults.Consistency(
			fset.Position(file.Name.Pos()),
			"package %s must be %s",
			file.Name.Name,
			RawPackage,
		)
	}

	base := fset.File(file.Pos()).Base()
	offset := func(pos token.Pos) int {
		return int(pos) - base
	}

	var (
		out bytes.Buffer
		res Result
	)
	out.Write(src[:offset(file.Name.Pos())])
	out.WriteString(ProcessedPackage)
	cursor := offset(file.Name.End())

	for _, decl := range file.Decls {
		fn, ok := decl.(*ast.FuncDecl)
		if !ok {
			continue
		}
		m, ok, err := marker(fset, fn)
		if err != nil {
			return Result{}, err
		}
		if !ok {
			continue
		}

		start := fn.Pos()
		if fn.Doc != nil {
			start = fn.Doc.Pos()
		}
		out.Write(src[cursor:offset(start)])

		text := src[offset(fn.Pos()):offset(fn.End())]
		for i, t := range targets {
			if i > 0 {
				out.WriteString("\n\n")
			}
			if err := replicate(&out, fn, m, text, t); err != nil {
				return Result{}, fmt.Errorf("specialize %s for %s: %w", fn.Name.Name, t.Type, err)
			}
		}

		cursor = offset(fn.End())
		res.Specialized = append(res.Specialized, fn.Name.Name)
	}
	out.Write(src[cursor:])

	formatted, err := format.Source(out.Bytes())
	if err != nil {
		return Result{}, fmt.Errorf("format output: %w", err)
	}
	res.Source = formatted

	return res, nil
}

// mark is a parsed directive.
type mark struct {
	result bool
	params []string
	doc    []string // doc comment lines without the directive
}

func marker(fset *token.FileSet, fn *ast.FuncDecl) (mark, bool, error) {
	if fn.Doc == nil {
		return mark{}, false, nil
	}

	var (
		m     mark
		found bool
	)
	for _, c := range fn.Doc.List {
		rest, ok := strings.CutPrefix(c.Text, Directive)
		if !ok || (rest != "" && rest[0] != ' ' && rest[0] != '\t') {
			m.doc = append(m.doc, c.Text)
			continue
		}

		found = true
		args := strings.Fields(rest)
		if len(args) == 0 {
			m.result = true
		}
		for _, arg := range args {
			if arg == resultArg {
				m.result = true
				continue
			}
			m.params = append(m.params, arg)
		}
	}
	if !found {
		return mark{}, false, nil
	}

	// A single result is retyped even when only parameters are listed.
	pos := fset.Position(fn.Pos())
	switch n := fn.Type.Results.NumFields(); {
	case n == 1:
		m.result = true
	case n > 1:
		return mark{}, false, faults.Consistency(pos, "%s must have at most one result to specialize it", fn.Name.Name)
	case m.result:
		return mark{}, false, faults.Consistency(pos, "%s has no result to specialize", fn.Name.Name)
	}
	for _, p := range m.params {
		if !hasParam(fn.Type.Params, p) {
			return mark{}, false, faults.Consistency(pos, "%s has no parameter %s", fn.Name.Name, p)
		}
	}

	return m, true, nil
}

func hasParam(params *ast.FieldList, name string) bool {
	for _, f := range params.List {
		for _, n := range f.Names {
			if n.Name == name {
				return true
			}
		}
	}
	return false
}

// replicate writes a copy of fn specialized for t. Copies are built from
// the function text so that they share no syntax with the original.
func replicate(w *bytes.Buffer, orig *ast.FuncDecl, m mark, text []byte, t Target) error {
	fset := token.NewFileSet()
	src := append([]byte("package "+RawPackage+"\n\n"), text...)
	file, err := parser.ParseFile(fset, "", src, parser.ParseComments)
	if err != nil {
		return fmt.Errorf("reparse: %w", err)
	}
	var fn *ast.FuncDecl
	if len(file.Decls) == 1 {
		fn, _ = file.Decls[0].(*ast.FuncDecl)
	}
	if fn == nil {
		return faults.Consistency(token.Position{}, "function text of %s does not reparse to itself", orig.Name.Name)
	}

	fn.Name.Name += t.Suffix
	if m.result {
		field := fn.Type.Results.List[0]
		field.Type = retype(field.Type, t)
	}
	if len(m.params) > 0 {
		fn.Type.Params.List = retypeParams(fn.Type.Params.List, m.params, t)
	}

	for _, line := range m.doc {
		w.WriteString(line)
		w.WriteByte('\n')
	}
	fmt.Fprintf(w, "%s typeName=%s\n", Tag, t.Type)

	cfg := printer.Config{Mode: printer.UseSpaces | printer.TabIndent, Tabwidth: 8}
	return cfg.Fprint(w, fset, &printer.CommentedNode{Node: fn, Comments: file.Comments})
}

func retype(typ ast.Expr, t Target) ast.Expr {
	if e, ok := typ.(*ast.Ellipsis); ok {
		return &ast.Ellipsis{Ellipsis: e.Ellipsis, Elt: ast.NewIdent(t.Type)}
	}
	return &ast.Ident{NamePos: typ.Pos(), Name: t.Type}
}

// retypeParams splits parameter groups so that only listed names change types.
func retypeParams(fields []*ast.Field, names []string, t Target) []*ast.Field {
	res := make([]*ast.Field, 0, len(fields))
	for _, f := range fields {
		var hit int
		for _, n := range f.Names {
			if slices.Contains(names, n.Name) {
				hit++
			}
		}

		switch hit {
		case 0:
			res = append(res, f)
		case len(f.Names):
			f.Type = retype(f.Type, t)
			res = append(res, f)
		default:
			for _, n := range f.Names {
				typ := f.Type
				if slices.Contains(names, n.Name) {
					typ = retype(f.Type, t)
				}
				res = append(res, &ast.Field{Names: []*ast.Ident{n}, Type: typ})
			}
		}
	}
	return res
}
