package instrument

import (
	"go/ast"
	"go/token"
	"go/types"

	"fortio.org/safecast"

	"github.com/sirkon/jumbotrace/events"
	"github.com/sirkon/jumbotrace/internal/codes"
	"github.com/sirkon/jumbotrace/internal/faults"
	"github.com/sirkon/jumbotrace/internal/probeapi"
	"github.com/sirkon/jumbotrace/internal/symbols"
)

const unknownFile = "<unknown>"

type location struct {
	file   string
	sl, sc uint32
	el, ec uint32
}

// locate returns the span of a construct, or a placeholder when
// positions are missing.
func (s *fileState) locate(construct string, n ast.Node) location {
	start, end := n.Pos(), n.End()
	if !start.IsValid() || !end.IsValid() {
		s.warn(codes.MissingPosition(), start, "%s", faults.MissingMetadata(construct, "source position"))
		return location{file: unknownFile}
	}

	from, to := s.unit.Fset.Position(start), s.unit.Fset.Position(end)
	loc, err := convLocation(from, to)
	if err != nil {
		s.warn(codes.MissingPosition(), start, "%s: %s", faults.MissingMetadata(construct, "source position"), err)
		return location{file: unknownFile}
	}

	loc.file = from.Filename
	if s.in.opts.Filename != nil {
		loc.file = s.in.opts.Filename(loc.file)
	}
	return loc
}

func convLocation(from, to token.Position) (location, error) {
	var (
		res location
		err error
	)
	if res.sl, err = safecast.Conv[uint32](from.Line); err != nil {
		return res, err
	}
	if res.sc, err = safecast.Conv[uint32](from.Column); err != nil {
		return res, err
	}
	if res.el, err = safecast.Conv[uint32](to.Line); err != nil {
		return res, err
	}
	if res.ec, err = safecast.Conv[uint32](to.Column); err != nil {
		return res, err
	}
	return res, nil
}

// targetPos returns line and column of a jump target.
func (s *fileState) targetPos(construct string, pos token.Pos) (uint32, uint32) {
	if !pos.IsValid() {
		s.warn(codes.MissingPosition(), pos, "%s", faults.MissingMetadata(construct, "target position"))
		return 0, 0
	}

	p := s.unit.Fset.Position(pos)
	loc, err := convLocation(p, p)
	if err != nil {
		s.warn(codes.MissingPosition(), pos, "%s: %s", faults.MissingMetadata(construct, "target position"), err)
		return 0, 0
	}
	return loc.sl, loc.sc
}

// importName returns the probe package name in the file, adding it on first use.
func (s *fileState) importName(pos token.Pos) *types.PkgName {
	if s.probe != nil {
		return s.probe
	}

	owner := symbols.Owner{Pkg: s.unit.Pkg, Scope: s.unit.Info.Scopes[s.unit.File]}
	pn := must(s.in.factory.PkgNameSymbol(owner, "probe", s.in.api.Probe))
	check(s.b.AddImport(pn))
	s.probe = pn
	return pn
}

// fun references a probe function, instantiated with targs when generic.
func (s *fileState) fun(pos token.Pos, fn probeapi.Func, targs ...types.Type) ast.Expr {
	obj := s.in.api.Func(fn)
	if obj == nil {
		s.fatal(pos, faults.Argument("fun", "fn", "unknown probe function "+fn.String()))
	}

	pkg := must(s.b.Ident(s.importName(pos), nil))
	sel := must(s.b.Select(pkg, obj, obj.Type()))
	if len(targs) == 0 {
		return sel
	}
	return must(s.b.Instantiate(sel, targs...))
}

// parentExpr refers to the enclosing event id.
func (s *fileState) parentExpr(ctx context, pos token.Pos) ast.Expr {
	if ctx.parent == nil {
		return must(s.b.Uint(uint64(events.Sentinel), s.in.api.ID))
	}
	return must(s.b.Ident(ctx.parent, ctx.parent.Type()))
}

// nextID calls probe.NextID.
func (s *fileState) nextID(pos token.Pos) ast.Expr {
	return must(s.b.Call(s.fun(pos, probeapi.FuncNextID)))
}

func (s *fileState) uint32Lit(pos token.Pos, v uint32) ast.Expr {
	return must(s.b.Uint(uint64(v), types.Typ[types.Uint32]))
}

// header builds leading probe arguments.
func (s *fileState) header(ctx context, id ast.Expr, construct string, n ast.Node) []ast.Expr {
	pos := n.Pos()
	s.cur = pos
	loc := s.locate(construct, n)
	return []ast.Expr{
		id,
		s.parentExpr(ctx, pos),
		s.b.String(loc.file),
		s.uint32Lit(pos, loc.sl),
		s.uint32Lit(pos, loc.sc),
		s.uint32Lit(pos, loc.el),
		s.uint32Lit(pos, loc.ec),
	}
}

// probeCall builds a probe call for construct n of kind k.
func (s *fileState) probeCall(
	ctx context,
	k events.Kind,
	n ast.Node,
	fun ast.Expr,
	id ast.Expr,
	payload ...ast.Expr,
) *ast.CallExpr {
	pos := n.Pos()
	if id == nil {
		id = s.nextID(pos)
	}

	args := append(s.header(ctx, id, k.String(), n), payload...)
	call := must(s.b.Call(fun, args...))
	s.res.Probes[k]++
	return call
}

// probeStmt builds a probe statement for construct n of kind k.
func (s *fileState) probeStmt(ctx context, k events.Kind, n ast.Node, fn probeapi.Func, payload ...ast.Expr) ast.Stmt {
	call := s.probeCall(ctx, k, n, s.fun(n.Pos(), fn), nil, payload...)
	return must(s.b.ExprStmt(call))
}
