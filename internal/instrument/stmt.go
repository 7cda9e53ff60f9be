package instrument

import (
	"go/ast"
	"go/token"
	"go/types"

	"github.com/sirkon/jumbotrace/events"
	"github.com/sirkon/jumbotrace/internal/codes"
	"github.com/sirkon/jumbotrace/internal/probeapi"
	"github.com/sirkon/jumbotrace/internal/symbols"
)

func (s *fileState) block(ctx context, b *ast.BlockStmt) {
	if b == nil {
		return
	}
	b.List = s.stmts(ctx, b.List)
}

func (s *fileState) stmts(ctx context, list []ast.Stmt) []ast.Stmt {
	res := make([]ast.Stmt, 0, len(list))
	for _, st := range list {
		res = append(res, s.stmt(ctx, st)...)
	}
	return res
}

// stmt rewrites st. The result ends with st itself, or st wrapped into a
// block, preceded by probes that must run before it.
func (s *fileState) stmt(ctx context, st ast.Stmt) []ast.Stmt {
	s.cur = st.Pos()

	switch v := st.(type) {
	case *ast.ReturnStmt:
		return s.returnStmt(ctx, v)
	case *ast.BranchStmt:
		return s.branchStmt(ctx, v)
	case *ast.LabeledStmt:
		return s.labeledStmt(ctx, v)
	case *ast.BlockStmt:
		s.block(ctx, v)
	case *ast.ExprStmt:
		return s.exprStmt(ctx, v)
	case *ast.DeclStmt:
		return s.declStmt(ctx, v)
	case *ast.AssignStmt:
		return s.assignStmt(ctx, v)
	case *ast.IfStmt:
		return s.ifStmt(ctx, v)
	case *ast.ForStmt:
		return s.forStmt(ctx, v, "")
	case *ast.RangeStmt:
		return s.rangeStmt(ctx, v, "")
	case *ast.SwitchStmt:
		return s.switchStmt(ctx, v, "")
	case *ast.TypeSwitchStmt:
		return s.typeSwitchStmt(ctx, v, "")
	case *ast.SelectStmt:
		return s.selectStmt(ctx, v, "")
	case *ast.GoStmt:
		s.callParts(ctx, v.Call)
	case *ast.DeferStmt:
		s.callParts(ctx, v.Call)
	case *ast.SendStmt, *ast.IncDecStmt:
		s.simple(ctx, v)
	}

	return []ast.Stmt{st}
}

// split rewrites an init statement and returns probes to put before the
// owning statement.
func (s *fileState) split(ctx context, st ast.Stmt) ([]ast.Stmt, ast.Stmt) {
	if st == nil {
		return nil, nil
	}

	res := s.stmt(ctx, st)
	return res[:len(res)-1], res[len(res)-1]
}

// simple rewrites expressions of a simple statement without adding probes.
func (s *fileState) simple(ctx context, st ast.Stmt) {
	switch v := st.(type) {
	case *ast.ExprStmt:
		v.X = s.expr(ctx, v.X)
	case *ast.SendStmt:
		v.Chan = s.expr(ctx, v.Chan)
		v.Value = s.expr(ctx, v.Value)
	case *ast.IncDecStmt:
		v.X = s.expr(ctx, v.X)
	case *ast.AssignStmt:
		s.exprs(ctx, v.Rhs)
		if v.Tok != token.DEFINE {
			s.exprs(ctx, v.Lhs)
		}
	}
}

func (s *fileState) labeledStmt(ctx context, l *ast.LabeledStmt) []ast.Stmt {
	label := l.Label.Name

	var res []ast.Stmt
	switch inner := l.Stmt.(type) {
	case *ast.ForStmt:
		res = s.forStmt(ctx, inner, label)
	case *ast.RangeStmt:
		res = s.rangeStmt(ctx, inner, label)
	case *ast.SwitchStmt:
		res = s.switchStmt(ctx, inner, label)
	case *ast.TypeSwitchStmt:
		res = s.typeSwitchStmt(ctx, inner, label)
	case *ast.SelectStmt:
		res = s.selectStmt(ctx, inner, label)
	default:
		// The label moves to the first probe so that goto still runs them.
		res = s.stmt(ctx, l.Stmt)
		l.Stmt = res[0]
		res[0] = l
		return res
	}

	// Break and continue need the label on the statement itself while goto
	// must run probes put before it, so they get a label of their own.
	last := len(res) - 1
	l.Stmt = res[last]
	res[last] = l
	if last == 0 || !jumpsTo(ctx.fn.body, label, true) {
		return res
	}

	id := must(s.in.factory.NextID(label))
	ctx.fn.relabel[label] = id.Name()
	res[0] = &ast.LabeledStmt{
		Label: &ast.Ident{NamePos: l.Label.NamePos, Name: id.Name()},
		Colon: l.Colon,
		Stmt:  res[0],
	}
	if !jumpsTo(l.Stmt, label, false) {
		res[last] = l.Stmt
	}
	return res
}

func (s *fileState) returnStmt(ctx context, r *ast.ReturnStmt) []ast.Stmt {
	s.exprs(ctx, r.Results)
	if !s.enabled(events.KindReturn) {
		return []ast.Stmt{r}
	}

	fn := ctx.fn
	method := s.b.String(fn.name())
	if !fn.hasResults {
		return []ast.Stmt{s.probeStmt(ctx, events.KindReturn, r, probeapi.FuncReturn, method), r}
	}

	results := fn.results
	for _, v := range results {
		if s.shadowed(fn, v, r.Pos()) {
			s.warn(codes.ShadowedResult(), r.Pos(), "result %s of %s is shadowed, value is not captured", v.Name(), fn.name())
			results = nil
			break
		}
	}
	if results == nil {
		return []ast.Stmt{s.probeStmt(ctx, events.KindReturn, r, probeapi.FuncReturn, method), r}
	}

	refs := func() []ast.Expr {
		res := make([]ast.Expr, 0, len(results))
		for _, v := range results {
			res = append(res, must(s.b.Ident(v, v.Type())))
		}
		return res
	}

	payload := append([]ast.Expr{method}, refs()...)
	probe := s.probeStmt(ctx, events.KindReturn, r, probeapi.FuncReturn, payload...)
	if len(r.Results) == 0 {
		return []ast.Stmt{probe, r}
	}

	assign := must(s.b.Assign(refs(), r.Results))
	r.Results = refs()
	return []ast.Stmt{assign, probe, r}
}

func (s *fileState) branchStmt(ctx context, br *ast.BranchStmt) []ast.Stmt {
	var (
		kind events.Kind
		fn   probeapi.Func
	)
	switch br.Tok {
	case token.BREAK:
		kind, fn = events.KindBreak, probeapi.FuncBreak
	case token.CONTINUE:
		kind, fn = events.KindContinue, probeapi.FuncContinue
	default:
		return []ast.Stmt{br}
	}
	if !s.enabled(kind) {
		return []ast.Stmt{br}
	}

	var label string
	if br.Label != nil {
		label = br.Label.Name
	}

	var (
		descr  string
		tl, tc uint32
	)
	if t := ctx.lookup(label, br.Tok == token.CONTINUE); t != nil {
		descr = t.text()
		tl, tc = s.targetPos(kind.String(), t.pos)
	} else {
		descr = label
		if descr == "" {
			descr = "<unknown>"
		}
		s.warn(codes.MissingJumpTarget(), br.Pos(), "no target for %s in %s", br.Tok, ctx.fn.name())
	}

	probe := s.probeStmt(
		ctx,
		kind,
		br,
		fn,
		s.b.String(descr),
		s.uint32Lit(br.Pos(), tl),
		s.uint32Lit(br.Pos(), tc),
	)
	return []ast.Stmt{probe, br}
}

func (s *fileState) exprStmt(ctx context, st *ast.ExprStmt) []ast.Stmt {
	if call, idx, ok := s.sites.Throw(st); ok {
		call.Fun = s.expr(ctx, call.Fun)
		s.exprs(ctx, call.Args)
		if s.enabled(events.KindThrow) {
			call.Args[idx] = s.probeCall(ctx, events.KindThrow, st, s.fun(st.Pos(), probeapi.FuncThrow), nil, call.Args[idx])
		}
		return []ast.Stmt{st}
	}

	st.X = s.expr(ctx, st.X)
	if !s.enabled(events.KindExec) {
		return []ast.Stmt{st}
	}
	return []ast.Stmt{s.probeStmt(ctx, events.KindExec, st, probeapi.FuncExec), st}
}

func (s *fileState) declStmt(ctx context, d *ast.DeclStmt) []ast.Stmt {
	gd, ok := d.Decl.(*ast.GenDecl)
	if !ok || gd.Tok != token.VAR {
		return []ast.Stmt{d}
	}

	for _, spec := range gd.Specs {
		if vs, ok := spec.(*ast.ValueSpec); ok {
			s.exprs(ctx, vs.Values)
		}
	}

	return append(s.varDecls(ctx, s.sites.Declared(gd), d), d)
}

func (s *fileState) assignStmt(ctx context, a *ast.AssignStmt) []ast.Stmt {
	s.simple(ctx, a)
	return append(s.varDecls(ctx, s.sites.Defined(a), a), a)
}

// varDecls builds a probe per declared variable.
func (s *fileState) varDecls(ctx context, ids []*ast.Ident, at ast.Node) []ast.Stmt {
	if !s.enabled(events.KindVarDecl) {
		return nil
	}

	var res []ast.Stmt
	for _, id := range ids {
		obj := s.unit.Info.Defs[id]
		if obj == nil || obj.Type() == nil {
			s.warn(codes.MissingType(), id.Pos(), "no type for variable %s", id.Name)
			continue
		}

		typ := types.TypeString(obj.Type(), types.RelativeTo(s.unit.Pkg))
		res = append(res, s.probeStmt(
			ctx,
			events.KindVarDecl,
			at,
			probeapi.FuncVarDecl,
			s.b.String(id.Name),
			s.b.String(typ),
		))
	}
	return res
}

func (s *fileState) ifStmt(ctx context, v *ast.IfStmt) []ast.Stmt {
	pre, init := s.split(ctx, v.Init)
	v.Init = init
	v.Cond = s.expr(ctx, v.Cond)
	s.block(ctx, v.Body)

	switch e := v.Else.(type) {
	case *ast.BlockStmt:
		s.block(ctx, e)
	case *ast.IfStmt:
		res := s.ifStmt(ctx, e)
		if len(res) == 1 {
			v.Else = res[0]
		} else {
			v.Else = &ast.BlockStmt{Lbrace: e.If, List: res, Rbrace: e.End()}
		}
	}

	return append(pre, v)
}

func (s *fileState) forStmt(ctx context, f *ast.ForStmt, label string) []ast.Stmt {
	pre, init := s.split(ctx, f.Init)
	f.Init = init
	f.Cond = s.expr(ctx, f.Cond)
	if f.Post != nil {
		s.simple(ctx, f.Post)
	}

	inner := ctx.withTarget(&target{label: label, descr: "for loop", loop: true, pos: f.For})
	s.block(inner, f.Body)
	return append(pre, f)
}

func (s *fileState) rangeStmt(ctx context, r *ast.RangeStmt, label string) []ast.Stmt {
	r.X = s.expr(ctx, r.X)
	if r.Tok == token.ASSIGN {
		r.Key = s.expr(ctx, r.Key)
		r.Value = s.expr(ctx, r.Value)
	}

	inner := ctx.withTarget(&target{label: label, descr: "range loop", loop: true, pos: r.For})
	s.block(inner, r.Body)
	return []ast.Stmt{r}
}

func (s *fileState) selectStmt(ctx context, sel *ast.SelectStmt, label string) []ast.Stmt {
	inner := ctx.withTarget(&target{label: label, descr: "select", pos: sel.Select})
	for _, c := range sel.Body.List {
		cc, ok := c.(*ast.CommClause)
		if !ok {
			continue
		}

		var pre []ast.Stmt
		if cc.Comm != nil {
			s.simple(inner, cc.Comm)
			if a, ok := cc.Comm.(*ast.AssignStmt); ok {
				pre = s.varDecls(inner, s.sites.Defined(a), a)
			}
		}
		cc.Body = append(pre, s.stmts(inner, cc.Body)...)
	}
	return []ast.Stmt{sel}
}

// switchID binds the id of a switch event and places its declaration
// into the switch init. wrap is set when the declaration has to go
// into a block around the switch, a nil v means the id can't be bound.
type switchID struct {
	v    *types.Var
	decl *ast.AssignStmt
	wrap bool
}

func (s *fileState) bindSwitch(init ast.Stmt, scope *types.Scope, label string, pos token.Pos) (switchID, ast.Stmt) {
	s.cur = pos
	owner := symbols.Owner{Pkg: s.unit.Pkg, Scope: scope}
	v := must(s.in.factory.VarSymbol(owner, "id", s.in.api.ID))
	decl := must(s.b.VarDecl(v, s.nextID(pos)))

	switch a, _ := init.(*ast.AssignStmt); {
	case init == nil:
		return switchID{v: v, decl: decl}, decl
	case a != nil && a.Tok == token.DEFINE && len(a.Lhs) == len(a.Rhs):
		a.Lhs = append(a.Lhs, decl.Lhs...)
		a.Rhs = append(a.Rhs, decl.Rhs...)
		return switchID{v: v, decl: decl}, a
	case label == "":
		return switchID{v: v, decl: decl, wrap: true}, init
	default:
		s.warn(codes.UnsupportedSwitch(), pos, "labeled switch with init %T, cases are not nested", init)
		return switchID{}, init
	}
}

// wrapped returns the statement replacing a switch sw with init.
func (id switchID) wrapped(pre []ast.Stmt, init ast.Stmt, sw ast.Stmt) []ast.Stmt {
	if !id.wrap {
		return append(pre, sw)
	}
	return append(pre, &ast.BlockStmt{
		Lbrace: sw.Pos(),
		List:   []ast.Stmt{init, id.decl, sw},
		Rbrace: sw.End(),
	})
}

func (id switchID) expr(s *fileState) ast.Expr {
	if id.v == nil {
		return nil
	}
	return must(s.b.Ident(id.v, id.v.Type()))
}

func (id switchID) scope(ctx context) context {
	if id.v == nil {
		return ctx
	}
	return ctx.withParent(id.v)
}

func (s *fileState) switchStmt(ctx context, sw *ast.SwitchStmt, label string) []ast.Stmt {
	pre, init := s.split(ctx, sw.Init)
	sw.Init = init
	sw.Tag = s.expr(ctx, sw.Tag)

	var (
		tagT   types.Type
		traced = s.enabled(events.KindSwitch)
	)
	if traced {
		switch {
		case sw.Tag != nil:
			if tagT = s.b.TypeOf(sw.Tag); tagT == nil {
				s.warn(codes.MissingType(), sw.Pos(), "no type for switch tag")
				traced = false
			} else {
				tagT = types.Default(tagT)
			}
		case s.boolCases(sw):
			tagT = types.Typ[types.Bool]
		default:
			s.warn(codes.UnsupportedSwitch(), sw.Pos(), "tagless switch with non bool cases")
			traced = false
		}
	}

	var id switchID
	if traced {
		id, sw.Init = s.bindSwitch(sw.Init, s.unit.Info.Scopes[sw], label, sw.Pos())
		tag := sw.Tag
		if tag == nil {
			tag = s.b.True()
		}
		sw.Tag = s.probeCall(ctx, events.KindSwitch, sw, s.fun(sw.Pos(), probeapi.FuncSwitch, tagT), id.expr(s), tag)
	}

	inner := id.scope(ctx).withTarget(&target{label: label, descr: "switch", pos: sw.Switch})
	for _, c := range sw.Body.List {
		cc, ok := c.(*ast.CaseClause)
		if !ok {
			continue
		}
		s.exprs(inner, cc.List)
		cc.Body = s.stmts(inner, cc.Body)
	}

	if id.wrap {
		init, sw.Init = sw.Init, nil
		return id.wrapped(pre, init, sw)
	}
	return append(pre, sw)
}

// boolCases checks if all cases of a tagless switch are of bool type.
func (s *fileState) boolCases(sw *ast.SwitchStmt) bool {
	for _, c := range sw.Body.List {
		cc, ok := c.(*ast.CaseClause)
		if !ok {
			continue
		}
		for _, e := range cc.List {
			t := s.b.TypeOf(e)
			if t == nil {
				return false
			}
			if !types.Identical(t, types.Typ[types.Bool]) && !types.Identical(t, types.Typ[types.UntypedBool]) {
				return false
			}
		}
	}
	return true
}

func (s *fileState) typeSwitchStmt(ctx context, ts *ast.TypeSwitchStmt, label string) []ast.Stmt {
	pre, init := s.split(ctx, ts.Init)
	ts.Init = init

	var ta *ast.TypeAssertExpr
	switch v := ts.Assign.(type) {
	case *ast.ExprStmt:
		ta, _ = v.X.(*ast.TypeAssertExpr)
	case *ast.AssignStmt:
		if len(v.Rhs) == 1 {
			ta, _ = v.Rhs[0].(*ast.TypeAssertExpr)
		}
	}

	var id switchID
	if ta != nil {
		ta.X = s.expr(ctx, ta.X)
		if s.enabled(events.KindSwitch) {
			if xt := s.b.TypeOf(ta.X); xt != nil {
				id, ts.Init = s.bindSwitch(ts.Init, s.unit.Info.Scopes[ts], label, ts.Pos())
				ta.X = s.probeCall(ctx, events.KindSwitch, ts, s.fun(ts.Pos(), probeapi.FuncSwitch, xt), id.expr(s), ta.X)
			} else {
				s.warn(codes.MissingType(), ts.Pos(), "no type for type switch operand")
			}
		}
	} else {
		s.warn(codes.UnsupportedSwitch(), ts.Pos(), "type switch guard %T", ts.Assign)
	}

	inner := id.scope(ctx).withTarget(&target{label: label, descr: "type switch", pos: ts.Switch})
	for _, c := range ts.Body.List {
		if cc, ok := c.(*ast.CaseClause); ok {
			cc.Body = s.stmts(inner, cc.Body)
		}
	}

	if id.wrap {
		init, ts.Init = ts.Init, nil
		return id.wrapped(pre, init, ts)
	}
	return append(pre, ts)
}
