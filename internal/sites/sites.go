package sites

import (
	"go/ast"
	"go/token"
	"go/types"

	"golang.org/x/tools/go/types/typeutil"

	"github.com/sirkon/jumbotrace/events"
	"github.com/sirkon/jumbotrace/internal/spans"
)

// Classifier recognizes traceable constructs of a single package.
type Classifier struct {
	info   *types.Info
	throws *knownThrowFuncs
}

// NewClassifier creates a classifier. throwFuncs extends the builtin panic
// with functions whose first argument is the thrown value.
func NewClassifier(info *types.Info, throwFuncs []Ref) *Classifier {
	return &Classifier{
		info:   info,
		throws: newKnownThrowFuncs(throwFuncs),
	}
}

// Throw returns the throwing call of stmt and the index of the thrown argument.
func (c *Classifier) Throw(stmt *ast.ExprStmt) (*ast.CallExpr, int, bool) {
	call, ok := ast.Unparen(stmt.X).(*ast.CallExpr)
	if !ok {
		return nil, 0, false
	}

	idx, ok := c.throws.thrownArg(c.info, call)
	if !ok {
		return nil, 0, false
	}
	return call, idx, true
}

// IsRecover checks if call is a call of the builtin recover.
func (c *Classifier) IsRecover(call *ast.CallExpr) bool {
	b, ok := typeutil.Callee(c.info, call).(*types.Builtin)
	return ok && b.Name() == "recover"
}

// Yield describes a call of an iterator yield function.
type Yield struct {
	// Param is the yield parameter called.
	Param *types.Var
	// Sig is the type of the yield function.
	Sig *types.Signature
	// Iter is the iterator function declaring Param.
	Iter *spans.Func
}

// Yield checks if call invokes the yield parameter of an iterator
// func(yield func(...) bool) indexed in idx.
func (c *Classifier) Yield(call *ast.CallExpr, idx *spans.Index) (*Yield, bool) {
	id, ok := ast.Unparen(call.Fun).(*ast.Ident)
	if !ok || call.Ellipsis.IsValid() {
		return nil, false
	}
	v, ok := c.info.Uses[id].(*types.Var)
	if !ok {
		return nil, false
	}

	fn := idx.GetByPos(v.Pos())
	if fn == nil || fn.Sig == nil {
		return nil, false
	}
	params := fn.Sig.Params()
	if params.Len() != 1 || params.At(0) != v || fn.Sig.Results().Len() != 0 {
		return nil, false
	}

	sig, ok := v.Type().(*types.Signature)
	if !ok || sig.Params().Len() > 2 || sig.Variadic() || sig.Results().Len() != 1 {
		return nil, false
	}
	if !types.Identical(sig.Results().At(0).Type(), types.Typ[types.Bool]) {
		return nil, false
	}

	return &Yield{Param: v, Sig: sig, Iter: fn}, true
}

// Defined returns non-blank identifiers a short variable declaration introduces.
func (c *Classifier) Defined(stmt *ast.AssignStmt) []*ast.Ident {
	if stmt.Tok != token.DEFINE {
		return nil
	}

	var res []*ast.Ident
	for _, lhs := range stmt.Lhs {
		id, ok := lhs.(*ast.Ident)
		if !ok || id.Name == "_" {
			continue
		}
		if _, ok := c.info.Defs[id].(*types.Var); ok {
			res = append(res, id)
		}
	}
	return res
}

// Declared returns non-blank variables a var declaration introduces.
func (c *Classifier) Declared(decl *ast.GenDecl) []*ast.Ident {
	if decl.Tok != token.VAR {
		return nil
	}

	var res []*ast.Ident
	for _, spec := range decl.Specs {
		vs, ok := spec.(*ast.ValueSpec)
		if !ok {
			continue
		}
		for _, id := range vs.Names {
			if id.Name == "_" {
				continue
			}
			if _, ok := c.info.Defs[id].(*types.Var); ok {
				res = append(res, id)
			}
		}
	}
	return res
}

// Classify returns the kind of event n produces.
func (c *Classifier) Classify(n ast.Node, idx *spans.Index) (events.Kind, bool) {
	switch v := n.(type) {
	case *ast.ReturnStmt:
		return events.KindReturn, true
	case *ast.BranchStmt:
		switch v.Tok {
		case token.BREAK:
			return events.KindBreak, true
		case token.CONTINUE:
			return events.KindContinue, true
		}
	case *ast.SwitchStmt, *ast.TypeSwitchStmt:
		return events.KindSwitch, true
	case *ast.DeclStmt:
		if gd, ok := v.Decl.(*ast.GenDecl); ok && len(c.Declared(gd)) > 0 {
			return events.KindVarDecl, true
		}
	case *ast.AssignStmt:
		if len(c.Defined(v)) > 0 {
			return events.KindVarDecl, true
		}
	case *ast.ExprStmt:
		if _, _, ok := c.Throw(v); ok {
			return events.KindThrow, true
		}
		return events.KindExec, true
	case *ast.CallExpr:
		if c.IsRecover(v) {
			return events.KindCatch, true
		}
		if _, ok := c.Yield(v, idx); ok {
			return events.KindYield, true
		}
	case *ast.TypeAssertExpr:
		if v.Type != nil {
			return events.KindAssertion, true
		}
	}

	return 0, false
}
