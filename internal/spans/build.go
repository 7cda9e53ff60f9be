package spans

import (
	"go/ast"
	"go/types"
	"strconv"
)

// Build indexes every function declaration and literal of file.
func Build(file *ast.File, info *types.Info) *Index {
	x := New()
	glob := &namer{name: "glob.", sep: ".func"}
	for _, decl := range file.Decls {
		switch d := decl.(type) {
		case *ast.FuncDecl:
			fn := &Func{
				Name: declName(d),
				Node: d,
				Type: d.Type,
				Body: d.Body,
				Sig:  signatureOf(info, d.Name),
			}
			x.Add(fn, d.Pos(), d.End())
			if d.Body != nil {
				x.literals(d.Body, &namer{name: fn.Name, sep: ".func"}, info)
			}
		case *ast.GenDecl:
			x.literals(d, glob, info)
		}
	}
	return x
}

// namer numbers literals directly nested into a function.
type namer struct {
	name  string
	sep   string
	count int
}

func (n *namer) next() string {
	n.count++
	return n.name + n.sep + strconv.Itoa(n.count)
}

func (x *Index) literals(root ast.Node, names *namer, info *types.Info) {
	ast.Inspect(root, func(node ast.Node) bool {
		lit, ok := node.(*ast.FuncLit)
		if !ok {
			return true
		}

		fn := &Func{
			Name: names.next(),
			Node: lit,
			Type: lit.Type,
			Body: lit.Body,
		}
		if sig, ok := info.TypeOf(lit).(*types.Signature); ok {
			fn.Sig = sig
		}
		x.Add(fn, lit.Pos(), lit.End())
		x.literals(lit.Body, &namer{name: fn.Name, sep: "."}, info)
		return false
	})
}

func signatureOf(info *types.Info, name *ast.Ident) *types.Signature {
	if fn, ok := info.Defs[name].(*types.Func); ok {
		return fn.Type().(*types.Signature)
	}
	return nil
}

func declName(d *ast.FuncDecl) string {
	if d.Recv == nil || len(d.Recv.List) == 0 {
		return d.Name.Name
	}

	typ := d.Recv.List[0].Type
	pointer := false
	if star, ok := typ.(*ast.StarExpr); ok {
		pointer = true
		typ = star.X
	}
	switch v := typ.(type) {
	case *ast.IndexExpr:
		typ = v.X
	case *ast.IndexListExpr:
		typ = v.X
	}

	recv := "?"
	if id, ok := typ.(*ast.Ident); ok {
		recv = id.Name
	}
	if pointer {
		return "(*" + recv + ")." + d.Name.Name
	}
	return recv + "." + d.Name.Name
}
