package instrument

import (
	"go/ast"
	"go/token"
	"go/types"

	"github.com/sirkon/jumbotrace/events"
	"github.com/sirkon/jumbotrace/internal/codes"
	"github.com/sirkon/jumbotrace/internal/spans"
	"github.com/sirkon/jumbotrace/internal/symbols"
)

// funcBody rewrites a function body. Every function starts from the sentinel parent.
func (s *fileState) funcBody(span *spans.Func, ftype *ast.FuncType, body *ast.BlockStmt) {
	fn := &funcInfo{
		span:    span,
		scope:   s.unit.Info.Scopes[ftype],
		fresh:   map[*types.Var]bool{},
		body:    body,
		relabel: map[string]string{},
	}
	fn.hasResults = ftype.Results != nil && len(ftype.Results.List) > 0
	if fn.hasResults && s.enabled(events.KindReturn) {
		fn.results = s.namedResults(fn, ftype)
	}

	s.block(context{fn: fn}, body)
	if len(fn.relabel) > 0 {
		branches(body, func(br *ast.BranchStmt) {
			if name, ok := fn.relabel[br.Label.Name]; ok && br.Tok == token.GOTO {
				br.Label = &ast.Ident{NamePos: br.Label.NamePos, Name: name}
			}
		})
	}
}

// branches calls f for labeled branch statements of a function body.
// Function literals have labels of their own and are not entered.
func branches(n ast.Node, f func(br *ast.BranchStmt)) {
	ast.Inspect(n, func(n ast.Node) bool {
		switch v := n.(type) {
		case *ast.FuncLit:
			return false
		case *ast.BranchStmt:
			if v.Label != nil {
				f(v)
			}
		}
		return true
	})
}

// jumpsTo checks if n has branch statements of the given kind targeting label.
func jumpsTo(n ast.Node, label string, gotos bool) bool {
	var found bool
	branches(n, func(br *ast.BranchStmt) {
		if br.Label.Name == label && (br.Tok == token.GOTO) == gotos {
			found = true
		}
	})
	return found
}

// literals rewrites function literals of package level declarations.
func (s *fileState) literals(decl *ast.GenDecl) {
	ast.Inspect(decl, func(n ast.Node) bool {
		lit, ok := n.(*ast.FuncLit)
		if !ok {
			return true
		}
		s.funcBody(s.idx.ByNode(lit), lit.Type, lit.Body)
		return false
	})
}

// namedResults names results of a function so that return values can be
// captured. Unnamed and blank results get fresh names.
func (s *fileState) namedResults(fn *funcInfo, ftype *ast.FuncType) []*types.Var {
	type slot struct {
		field *ast.Field
		index int // -1 for unnamed fields
		typ   types.Type
	}

	var slots []slot
	for _, field := range ftype.Results.List {
		typ := s.unit.Info.TypeOf(field.Type)
		if typ == nil {
			s.warn(codes.MissingType(), field.Pos(), "no type for a result of %s", fn.name())
			return nil
		}

		if len(field.Names) == 0 {
			slots = append(slots, slot{field: field, index: -1, typ: typ})
			continue
		}
		for i := range field.Names {
			slots = append(slots, slot{field: field, index: i, typ: typ})
		}
	}

	owner := symbols.Owner{Pkg: s.unit.Pkg, Scope: fn.scope}
	res := make([]*types.Var, 0, len(slots))
	for _, sl := range slots {
		if sl.index >= 0 && sl.field.Names[sl.index].Name != "_" {
			v, ok := s.unit.Info.Defs[sl.field.Names[sl.index]].(*types.Var)
			if !ok {
				s.warn(codes.MissingType(), sl.field.Pos(), "no object for result %s of %s", sl.field.Names[sl.index].Name, fn.name())
				return nil
			}
			res = append(res, v)
			continue
		}

		s.cur = sl.field.Pos()
		v := must(s.in.factory.ParamSymbol(owner, "r", sl.typ))
		id := must(s.b.DefIdent(v))
		if sl.index < 0 {
			sl.field.Names = []*ast.Ident{id}
		} else {
			id.NamePos = sl.field.Names[sl.index].NamePos
			sl.field.Names[sl.index] = id
		}
		fn.fresh[v] = true
		res = append(res, v)
	}

	return res
}

// shadowed checks if result v is not visible at pos.
func (s *fileState) shadowed(fn *funcInfo, v *types.Var, pos token.Pos) bool {
	if fn.fresh[v] {
		return false
	}

	scope := s.unit.Pkg.Scope().Innermost(pos)
	if scope == nil {
		return false
	}
	_, obj := scope.LookupParent(v.Name(), pos)
	return obj != v
}
