package synth

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/types"

	"github.com/sirkon/jumbotrace/internal/faults"
)

// TypeExpr renders t as a type expression valid in the file. It fails for
// types that cannot be spelled there: untyped types, unexported foreign
// names and types of packages the file does not import.
func (b *Builder) TypeExpr(t types.Type) (ast.Expr, error) {
	if t == nil {
		return nil, faults.ArgumentNil("TypeExpr", "t")
	}
	if err := b.nameable(t, map[types.Type]bool{}); err != nil {
		return nil, err
	}

	src := types.TypeString(t, func(p *types.Package) string {
		if p == b.pkg {
			return ""
		}
		return b.imports[p]
	})

	expr, err := parser.ParseExpr(src)
	if err != nil {
		return nil, faults.Argument("TypeExpr", "t", fmt.Sprintf("cannot parse %q: %s", src, err))
	}
	clearPos(expr)
	b.info.Types[expr] = t

	return expr, nil
}

func (b *Builder) nameable(t types.Type, seen map[types.Type]bool) error {
	if seen[t] {
		return nil
	}
	seen[t] = true

	switch v := t.(type) {
	case *types.Basic:
		if v.Info()&types.IsUntyped != 0 || v.Kind() == types.Invalid {
			return faults.Argument("TypeExpr", "t", fmt.Sprintf("%s has no spelling", v))
		}
		return nil
	case *types.Named:
		if err := b.nameableObj(v.Obj()); err != nil {
			return err
		}
		for i := range v.TypeArgs().Len() {
			if err := b.nameable(v.TypeArgs().At(i), seen); err != nil {
				return err
			}
		}
		return nil
	case *types.Alias:
		if err := b.nameableObj(v.Obj()); err != nil {
			return err
		}
		for i := range v.TypeArgs().Len() {
			if err := b.nameable(v.TypeArgs().At(i), seen); err != nil {
				return err
			}
		}
		return nil
	case *types.TypeParam:
		return nil
	case *types.Pointer:
		return b.nameable(v.Elem(), seen)
	case *types.Slice:
		return b.nameable(v.Elem(), seen)
	case *types.Array:
		return b.nameable(v.Elem(), seen)
	case *types.Chan:
		return b.nameable(v.Elem(), seen)
	case *types.Map:
		if err := b.nameable(v.Key(), seen); err != nil {
			return err
		}
		return b.nameable(v.Elem(), seen)
	case *types.Signature:
		if err := b.nameableTuple(v.Params(), seen); err != nil {
			return err
		}
		return b.nameableTuple(v.Results(), seen)
	case *types.Struct:
		for i := range v.NumFields() {
			f := v.Field(i)
			if !f.Exported() && f.Pkg() != b.pkg {
				return faults.Argument("TypeExpr", "t", fmt.Sprintf("field %s of %s is foreign and unexported", f.Name(), v))
			}
			if err := b.nameable(f.Type(), seen); err != nil {
				return err
			}
		}
		return nil
	case *types.Interface:
		for i := range v.NumExplicitMethods() {
			m := v.ExplicitMethod(i)
			if !m.Exported() && m.Pkg() != b.pkg {
				return faults.Argument("TypeExpr", "t", fmt.Sprintf("method %s of %s is foreign and unexported", m.Name(), v))
			}
			if err := b.nameable(m.Type(), seen); err != nil {
				return err
			}
		}
		for i := range v.NumEmbeddeds() {
			if err := b.nameable(v.EmbeddedType(i), seen); err != nil {
				return err
			}
		}
		return nil
	case *types.Union:
		for i := range v.Len() {
			if err := b.nameable(v.Term(i).Type(), seen); err != nil {
				return err
			}
		}
		return nil
	default:
		return faults.Argument("TypeExpr", "t", fmt.Sprintf("unsupported type %T", t))
	}
}

func (b *Builder) nameableTuple(tuple *types.Tuple, seen map[types.Type]bool) error {
	for i := range tuple.Len() {
		if err := b.nameable(tuple.At(i).Type(), seen); err != nil {
			return err
		}
	}
	return nil
}

func (b *Builder) nameableObj(obj *types.TypeName) error {
	p := obj.Pkg()
	if p == nil || p == b.pkg {
		// Predeclared or local.
		return nil
	}
	if !obj.Exported() {
		return faults.Argument("TypeExpr", "t", fmt.Sprintf("%s.%s is not exported", p.Path(), obj.Name()))
	}
	if _, ok := b.imports[p]; !ok {
		return faults.Argument("TypeExpr", "t", fmt.Sprintf("package %s is not imported", p.Path()))
	}

	return nil
}

// clearPos drops positions a throwaway parse left in a type expression.
func clearPos(n ast.Node) {
	ast.Inspect(n, func(n ast.Node) bool {
		switch v := n.(type) {
		case *ast.Ident:
			v.NamePos = 0
		case *ast.BasicLit:
			v.ValuePos = 0
		case *ast.StarExpr:
			v.Star = 0
		case *ast.ParenExpr:
			v.Lparen, v.Rparen = 0, 0
		case *ast.ArrayType:
			v.Lbrack = 0
		case *ast.MapType:
			v.Map = 0
		case *ast.ChanType:
			v.Begin, v.Arrow = 0, 0
		case *ast.FuncType:
			v.Func = 0
		case *ast.FieldList:
			v.Opening, v.Closing = 0, 0
		case *ast.StructType:
			v.Struct = 0
		case *ast.InterfaceType:
			v.Interface = 0
		case *ast.IndexExpr:
			v.Lbrack, v.Rbrack = 0, 0
		case *ast.IndexListExpr:
			v.Lbrack, v.Rbrack = 0, 0
		case *ast.Ellipsis:
			v.Ellipsis = 0
		case *ast.BinaryExpr:
			v.OpPos = 0
		case *ast.UnaryExpr:
			v.OpPos = 0
		}
		return true
	})
}
