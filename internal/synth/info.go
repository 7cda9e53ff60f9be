package synth

import (
	"go/ast"
	"go/types"
)

// Info holds facts about synthesized nodes.
type Info struct {
	Types map[ast.Expr]types.Type
	Uses  map[*ast.Ident]types.Object
	Defs  map[*ast.Ident]types.Object

	// Instances maps a generic function reference to its explicit type arguments.
	Instances map[*ast.Ident][]types.Type
}

func newInfo() *Info {
	return &Info{
		Types:     map[ast.Expr]types.Type{},
		Uses:      map[*ast.Ident]types.Object{},
		Defs:      map[*ast.Ident]types.Object{},
		Instances: map[*ast.Ident][]types.Type{},
	}
}

// funcIdent returns the identifier naming the function referenced by e.
func funcIdent(e ast.Expr) *ast.Ident {
	switch v := e.(type) {
	case *ast.Ident:
		return v
	case *ast.SelectorExpr:
		return v.Sel
	case *ast.ParenExpr:
		return funcIdent(v.X)
	default:
		return nil
	}
}
