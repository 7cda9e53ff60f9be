package instrument

import (
	"go/ast"
	"go/types"

	"golang.org/x/tools/go/ast/astutil"

	"github.com/sirkon/jumbotrace/events"
	"github.com/sirkon/jumbotrace/internal/codes"
	"github.com/sirkon/jumbotrace/internal/probeapi"
	"github.com/sirkon/jumbotrace/internal/sites"
)

func (s *fileState) exprs(ctx context, list []ast.Expr) {
	for i, e := range list {
		list[i] = s.expr(ctx, e)
	}
}

// expr rewrites catches, yields and assertions within e. Function literals
// are rewritten as separate functions.
func (s *fileState) expr(ctx context, e ast.Expr) ast.Expr {
	if e == nil {
		return nil
	}

	// Descriptions are taken before operands are rewritten.
	descrs := map[*ast.TypeAssertExpr]string{}
	res := astutil.Apply(e, func(c *astutil.Cursor) bool {
		switch v := c.Node().(type) {
		case *ast.FuncLit:
			s.funcBody(s.idx.ByNode(v), v.Type, v.Body)
			return false
		case *ast.TypeAssertExpr:
			if v.Type != nil {
				descrs[v] = types.ExprString(v)
			}
		}
		return true
	}, func(c *astutil.Cursor) bool {
		switch v := c.Node().(type) {
		case *ast.CallExpr:
			if repl := s.call(ctx, v); repl != nil {
				c.Replace(repl)
			}
		case *ast.TypeAssertExpr:
			if descr, ok := descrs[v]; ok {
				s.assertion(ctx, v, descr)
			}
		}
		return true
	})

	return res.(ast.Expr)
}

// callParts rewrites operands of a deferred or spawned call. The call
// itself is kept.
func (s *fileState) callParts(ctx context, call *ast.CallExpr) {
	call.Fun = s.expr(ctx, call.Fun)
	s.exprs(ctx, call.Args)
}

// call returns a replacement of a catch or yield call, nil for others.
func (s *fileState) call(ctx context, call *ast.CallExpr) ast.Expr {
	s.cur = call.Pos()

	if s.sites.IsRecover(call) {
		if !s.enabled(events.KindCatch) {
			return nil
		}
		return s.probeCall(ctx, events.KindCatch, call, s.fun(call.Pos(), probeapi.FuncCatch), nil, call)
	}

	if y, ok := s.sites.Yield(call, s.idx); ok && s.enabled(events.KindYield) {
		return s.yield(ctx, call, y)
	}
	return nil
}

func (s *fileState) yield(ctx context, call *ast.CallExpr, y *sites.Yield) ast.Expr {
	params := y.Sig.Params()

	var fun ast.Expr
	switch params.Len() {
	case 0:
		fun = s.fun(call.Pos(), probeapi.FuncYield0)
	case 1:
		fun = s.fun(call.Pos(), probeapi.FuncYield, params.At(0).Type())
	case 2:
		fun = s.fun(call.Pos(), probeapi.FuncYield2, params.At(0).Type(), params.At(1).Type())
	default:
		return nil
	}

	tl, tc := s.targetPos(events.KindYield.String(), y.Iter.Pos())
	payload := []ast.Expr{
		s.b.String(y.Iter.Name),
		s.uint32Lit(call.Pos(), tl),
		s.uint32Lit(call.Pos(), tc),
		call.Fun,
	}
	payload = append(payload, call.Args...)

	return s.probeCall(ctx, events.KindYield, call, fun, nil, payload...)
}

// assertion wraps the operand of a type assertion.
func (s *fileState) assertion(ctx context, ta *ast.TypeAssertExpr, descr string) {
	if !s.enabled(events.KindAssertion) {
		return
	}

	s.cur = ta.Pos()
	xt := s.b.TypeOf(ta.X)
	if xt == nil {
		s.warn(codes.MissingType(), ta.Pos(), "no type for operand of %s", descr)
		return
	}

	ta.X = s.probeCall(
		ctx,
		events.KindAssertion,
		ta,
		s.fun(ta.Pos(), probeapi.FuncAssert, xt),
		nil,
		s.b.String(descr),
		ta.X,
	)
}
