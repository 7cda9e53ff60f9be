package synth

import (
	"fmt"
	"go/ast"
	"go/token"
	"go/types"
	"strconv"

	"github.com/sirkon/jumbotrace/internal/faults"
)

// Builder constructs typed fragments for a single file.
// It is not safe for concurrent use.
type Builder struct {
	pkg     *types.Package
	file    *ast.File
	orig    *types.Info
	info    *Info
	imports map[*types.Package]string
}

// New creates a builder for file of pkg described by orig.
func New(pkg *types.Package, file *ast.File, orig *types.Info) (*Builder, error) {
	switch {
	case pkg == nil:
		return nil, faults.ArgumentNil("synth.New", "pkg")
	case file == nil:
		return nil, faults.ArgumentNil("synth.New", "file")
	case orig == nil:
		return nil, faults.ArgumentNil("synth.New", "orig")
	}

	b := &Builder{
		pkg:     pkg,
		file:    file,
		orig:    orig,
		info:    newInfo(),
		imports: map[*types.Package]string{},
	}
	b.collectImports()

	return b, nil
}

// Info returns facts about synthesized nodes.
func (b *Builder) Info() *Info {
	return b.info
}

// Package returns the package of the file.
func (b *Builder) Package() *types.Package {
	return b.pkg
}

// TypeOf returns the type of e, synthesized or original. It returns nil for
// package names and untyped nodes.
func (b *Builder) TypeOf(e ast.Expr) types.Type {
	if e == nil {
		return nil
	}
	if t, ok := b.info.Types[e]; ok {
		return t
	}
	if id, ok := e.(*ast.Ident); ok {
		if obj := b.info.Uses[id]; obj != nil {
			return obj.Type()
		}
	}

	return b.orig.TypeOf(e)
}

// ObjectOf returns the object denoted by id, synthesized or original.
func (b *Builder) ObjectOf(id *ast.Ident) types.Object {
	if obj, ok := b.info.Uses[id]; ok {
		return obj
	}
	if obj, ok := b.info.Defs[id]; ok {
		return obj
	}

	return b.orig.ObjectOf(id)
}

// AddImport registers an import name added to the file.
func (b *Builder) AddImport(pn *types.PkgName) error {
	if pn == nil {
		return faults.ArgumentNil("AddImport", "pn")
	}

	b.imports[pn.Imported()] = pn.Name()
	return nil
}

func (b *Builder) collectImports() {
	for _, spec := range b.file.Imports {
		var obj types.Object
		if spec.Name != nil {
			obj = b.orig.Defs[spec.Name]
		} else {
			obj = b.orig.Implicits[spec]
		}

		pn, ok := obj.(*types.PkgName)
		if !ok {
			continue
		}

		switch pn.Name() {
		case "_":
		case ".":
			b.imports[pn.Imported()] = ""
		default:
			b.imports[pn.Imported()] = pn.Name()
		}
	}
}

// Ident references an existing object with an explicit type. typ must be nil
// for package names.
func (b *Builder) Ident(obj types.Object, typ types.Type) (*ast.Ident, error) {
	if obj == nil {
		return nil, faults.ArgumentNil("Ident", "obj")
	}

	id := ast.NewIdent(obj.Name())
	if _, ok := obj.(*types.PkgName); ok {
		if typ != nil {
			return nil, faults.Argument("Ident", "typ", "must be nil for a package name")
		}
		b.info.Uses[id] = obj
		return id, nil
	}

	if typ == nil {
		return nil, faults.ArgumentNil("Ident", "typ")
	}
	if err := checkObjectType("Ident", obj, typ); err != nil {
		return nil, err
	}

	b.info.Uses[id] = obj
	b.info.Types[id] = typ
	return id, nil
}

// DefIdent is a defining occurrence of a fresh object.
func (b *Builder) DefIdent(obj types.Object) (*ast.Ident, error) {
	if obj == nil {
		return nil, faults.ArgumentNil("DefIdent", "obj")
	}
	if obj.Type() == nil {
		return nil, faults.Argument("DefIdent", "obj", "has no type")
	}

	id := ast.NewIdent(obj.Name())
	b.info.Defs[id] = obj
	b.info.Types[id] = obj.Type()
	return id, nil
}

func checkObjectType(op string, obj types.Object, typ types.Type) error {
	switch o := obj.(type) {
	case *types.Var, *types.Const, *types.TypeName:
		if types.Identical(o.Type(), typ) {
			return nil
		}
	case *types.Func:
		sig := o.Type().(*types.Signature)
		if sig.TypeParams().Len() > 0 || types.Identical(sig, typ) {
			return nil
		}
	case *types.Builtin, *types.Nil:
		return nil
	default:
		return faults.Argument(op, "obj", fmt.Sprintf("unsupported object %T", obj))
	}

	return faults.Argument(op, "typ", fmt.Sprintf("%s is inconsistent with %s of type %s", typ, obj.Name(), obj.Type()))
}

// Select builds x.sel: a qualified identifier when x names a package, a
// field or method selection otherwise.
func (b *Builder) Select(x ast.Expr, sel types.Object, typ types.Type) (*ast.SelectorExpr, error) {
	switch {
	case x == nil:
		return nil, faults.ArgumentNil("Select", "x")
	case sel == nil:
		return nil, faults.ArgumentNil("Select", "sel")
	case typ == nil:
		return nil, faults.ArgumentNil("Select", "typ")
	}

	if err := b.checkSelection(x, sel); err != nil {
		return nil, err
	}
	if err := checkObjectType("Select", sel, typ); err != nil {
		return nil, err
	}

	id := ast.NewIdent(sel.Name())
	res := &ast.SelectorExpr{X: x, Sel: id}
	b.info.Uses[id] = sel
	b.info.Types[id] = typ
	b.info.Types[res] = typ
	return res, nil
}

func (b *Builder) checkSelection(x ast.Expr, sel types.Object) error {
	if id, ok := x.(*ast.Ident); ok {
		if pn, ok := b.ObjectOf(id).(*types.PkgName); ok {
			if sel.Pkg() != pn.Imported() {
				return faults.Argument("Select", "sel", fmt.Sprintf("%s is not a member of package %s", sel.Name(), pn.Imported().Path()))
			}
			if !sel.Exported() {
				return faults.Argument("Select", "sel", fmt.Sprintf("%s is not exported", sel.Name()))
			}
			return nil
		}
	}

	xt := b.TypeOf(x)
	if xt == nil {
		return faults.Argument("Select", "x", "has no type")
	}

	obj, _, _ := types.LookupFieldOrMethod(xt, true, b.pkg, sel.Name())
	if obj == nil {
		return faults.Argument("Select", "sel", fmt.Sprintf("%s is not a member of %s", sel.Name(), xt))
	}
	if obj != sel && !sameOrigin(obj, sel) {
		return faults.Argument("Select", "sel", fmt.Sprintf("%s.%s resolves to a different object", xt, sel.Name()))
	}

	return nil
}

func sameOrigin(a, b types.Object) bool {
	switch a := a.(type) {
	case *types.Func:
		bf, ok := b.(*types.Func)
		return ok && a.Origin() == bf.Origin()
	case *types.Var:
		bv, ok := b.(*types.Var)
		return ok && a.Origin() == bv.Origin()
	default:
		return false
	}
}

// Instantiate records an explicit instantiation of the generic function fun
// with targs. The returned expression is fun itself: the printed form relies
// on implicit instantiation, so targs must be what inference derives from the
// call arguments.
func (b *Builder) Instantiate(fun ast.Expr, targs ...types.Type) (ast.Expr, error) {
	if fun == nil {
		return nil, faults.ArgumentNil("Instantiate", "fun")
	}

	sig, ok := b.TypeOf(fun).(*types.Signature)
	if !ok {
		return nil, faults.Argument("Instantiate", "fun", "is not a function")
	}
	if sig.TypeParams().Len() != len(targs) {
		return nil, faults.Argument(
			"Instantiate",
			"targs",
			fmt.Sprintf("%d type arguments for %d type parameters", len(targs), sig.TypeParams().Len()),
		)
	}
	for i, t := range targs {
		if t == nil {
			return nil, faults.ArgumentNil("Instantiate", "targs["+strconv.Itoa(i)+"]")
		}
	}

	inst, err := types.Instantiate(nil, sig, targs, true)
	if err != nil {
		return nil, faults.Argument("Instantiate", "targs", err.Error())
	}

	id := funcIdent(fun)
	if id == nil {
		return nil, faults.Argument("Instantiate", "fun", "is not a function reference")
	}

	b.info.Types[fun] = inst
	if fun != id {
		b.info.Types[id] = inst
	}
	b.info.Instances[id] = targs
	return fun, nil
}

// Call builds fun(args...). Its type is derived from the callee signature:
// the single result, a tuple of results or an empty tuple.
func (b *Builder) Call(fun ast.Expr, args ...ast.Expr) (*ast.CallExpr, error) {
	if fun == nil {
		return nil, faults.ArgumentNil("Call", "fun")
	}

	ft := b.TypeOf(fun)
	if ft == nil {
		return nil, faults.Argument("Call", "fun", "has no type")
	}
	sig, ok := ft.Underlying().(*types.Signature)
	if !ok {
		return nil, faults.Argument("Call", "fun", fmt.Sprintf("%s is not a function type", ft))
	}
	if sig.TypeParams().Len() > 0 {
		return nil, faults.Argument("Call", "fun", "generic function must be instantiated")
	}

	if err := b.checkArgs(sig, args); err != nil {
		return nil, err
	}

	call := &ast.CallExpr{Fun: fun, Args: args}
	b.info.Types[call] = resultType(sig)
	return call, nil
}

func (b *Builder) checkArgs(sig *types.Signature, args []ast.Expr) error {
	params := sig.Params()
	n := params.Len()
	switch {
	case sig.Variadic() && len(args) < n-1:
		return faults.Argument("Call", "args", fmt.Sprintf("at least %d arguments expected, got %d", n-1, len(args)))
	case !sig.Variadic() && len(args) != n:
		return faults.Argument("Call", "args", fmt.Sprintf("%d arguments expected, got %d", n, len(args)))
	}

	for i, arg := range args {
		if arg == nil {
			return faults.ArgumentNil("Call", "args["+strconv.Itoa(i)+"]")
		}

		var pt types.Type
		if sig.Variadic() && i >= n-1 {
			pt = params.At(n - 1).Type().(*types.Slice).Elem()
		} else {
			pt = params.At(i).Type()
		}

		at := b.TypeOf(arg)
		if at == nil {
			return faults.Argument("Call", "args["+strconv.Itoa(i)+"]", "has no type")
		}
		if !types.AssignableTo(at, pt) {
			return faults.Argument(
				"Call",
				"args["+strconv.Itoa(i)+"]",
				fmt.Sprintf("%s is not assignable to %s", at, pt),
			)
		}
	}

	return nil
}

func resultType(sig *types.Signature) types.Type {
	res := sig.Results()
	if res.Len() == 1 {
		return res.At(0).Type()
	}

	return res
}

// ExprStmt wraps a typed expression into a statement.
func (b *Builder) ExprStmt(x ast.Expr) (*ast.ExprStmt, error) {
	if x == nil {
		return nil, faults.ArgumentNil("ExprStmt", "x")
	}
	if b.TypeOf(x) == nil {
		return nil, faults.Argument("ExprStmt", "x", "has no type")
	}

	switch v := x.(type) {
	case *ast.CallExpr:
	case *ast.UnaryExpr:
		if v.Op != token.ARROW {
			return nil, faults.Argument("ExprStmt", "x", "is not a call or receive")
		}
	default:
		return nil, faults.Argument("ExprStmt", "x", "is not a call or receive")
	}

	return &ast.ExprStmt{X: x}, nil
}

// VarDecl builds v := init. The type of v must be the default type of init.
func (b *Builder) VarDecl(v *types.Var, init ast.Expr) (*ast.AssignStmt, error) {
	switch {
	case v == nil:
		return nil, faults.ArgumentNil("VarDecl", "v")
	case init == nil:
		return nil, faults.ArgumentNil("VarDecl", "init")
	}

	it := b.TypeOf(init)
	if it == nil {
		return nil, faults.Argument("VarDecl", "init", "has no type")
	}
	if _, ok := it.(*types.Tuple); ok {
		return nil, faults.Argument("VarDecl", "init", "must be a single value")
	}
	if !types.Identical(v.Type(), types.Default(it)) {
		return nil, faults.Argument("VarDecl", "v", fmt.Sprintf("type %s differs from initializer type %s", v.Type(), it))
	}

	id, err := b.DefIdent(v)
	if err != nil {
		return nil, err
	}

	return &ast.AssignStmt{
		Lhs: []ast.Expr{id},
		Tok: token.DEFINE,
		Rhs: []ast.Expr{init},
	}, nil
}

// Assign builds lhs = rhs. A single multi-valued rhs is matched against lhs
// as a tuple.
func (b *Builder) Assign(lhs []ast.Expr, rhs []ast.Expr) (*ast.AssignStmt, error) {
	if len(lhs) == 0 {
		return nil, faults.Argument("Assign", "lhs", "must not be empty")
	}

	var rtypes []types.Type
	switch {
	case len(rhs) == 1 && len(lhs) > 1:
		tuple, ok := b.TypeOf(rhs[0]).(*types.Tuple)
		if !ok || tuple.Len() != len(lhs) {
			return nil, faults.Argument("Assign", "rhs", fmt.Sprintf("%d values expected", len(lhs)))
		}
		for i := range tuple.Len() {
			rtypes = append(rtypes, tuple.At(i).Type())
		}
	case len(rhs) == len(lhs):
		for i, r := range rhs {
			if r == nil {
				return nil, faults.ArgumentNil("Assign", "rhs["+strconv.Itoa(i)+"]")
			}
			rt := b.TypeOf(r)
			if rt == nil {
				return nil, faults.Argument("Assign", "rhs["+strconv.Itoa(i)+"]", "has no type")
			}
			rtypes = append(rtypes, rt)
		}
	default:
		return nil, faults.Argument("Assign", "rhs", fmt.Sprintf("%d values expected, got %d", len(lhs), len(rhs)))
	}

	for i, l := range lhs {
		if l == nil {
			return nil, faults.ArgumentNil("Assign", "lhs["+strconv.Itoa(i)+"]")
		}
		lt := b.TypeOf(l)
		if lt == nil {
			return nil, faults.Argument("Assign", "lhs["+strconv.Itoa(i)+"]", "has no type")
		}
		if !types.AssignableTo(rtypes[i], lt) {
			return nil, faults.Argument("Assign", "rhs["+strconv.Itoa(i)+"]", fmt.Sprintf("%s is not assignable to %s", rtypes[i], lt))
		}
	}

	return &ast.AssignStmt{Lhs: lhs, Tok: token.ASSIGN, Rhs: rhs}, nil
}

// Let builds a scoped expression evaluating stmts and then result. It is
// rendered as an immediately invoked function literal, so stmts must not
// return or jump outside.
func (b *Builder) Let(stmts []ast.Stmt, result ast.Expr) (*ast.CallExpr, error) {
	if result == nil {
		return nil, faults.ArgumentNil("Let", "result")
	}
	rt := b.TypeOf(result)
	if rt == nil {
		return nil, faults.Argument("Let", "result", "has no type")
	}
	if _, ok := rt.(*types.Tuple); ok {
		return nil, faults.Argument("Let", "result", "must be a single value")
	}
	rt = types.Default(rt)

	for i, s := range stmts {
		if s == nil {
			return nil, faults.ArgumentNil("Let", "stmts["+strconv.Itoa(i)+"]")
		}
		if escapes(s) {
			return nil, faults.Argument("Let", "stmts["+strconv.Itoa(i)+"]", "leaves the enclosing function")
		}
	}

	texpr, err := b.TypeExpr(rt)
	if err != nil {
		return nil, fmt.Errorf("let expression result: %w", err)
	}

	sig := types.NewSignatureType(
		nil, nil, nil,
		nil,
		types.NewTuple(types.NewParam(token.NoPos, b.pkg, "", rt)),
		false,
	)
	lit := &ast.FuncLit{
		Type: &ast.FuncType{
			Params:  &ast.FieldList{},
			Results: &ast.FieldList{List: []*ast.Field{{Type: texpr}}},
		},
		Body: &ast.BlockStmt{
			List: append(stmts[:len(stmts):len(stmts)], &ast.ReturnStmt{Results: []ast.Expr{result}}),
		},
	}
	b.info.Types[lit] = sig

	call := &ast.CallExpr{Fun: lit}
	b.info.Types[call] = rt
	return call, nil
}

func escapes(s ast.Stmt) bool {
	var found bool
	ast.Inspect(s, func(n ast.Node) bool {
		if found {
			return false
		}
		switch v := n.(type) {
		case *ast.FuncLit:
			return false
		case *ast.ReturnStmt:
			found = true
		case *ast.BranchStmt:
			if v.Tok == token.GOTO || v.Label != nil {
				found = true
			}
		}
		return true
	})
	return found
}

// String builds a string literal.
func (b *Builder) String(s string) *ast.BasicLit {
	lit := &ast.BasicLit{Kind: token.STRING, Value: strconv.Quote(s)}
	b.info.Types[lit] = types.Typ[types.String]
	return lit
}

// Uint builds an unsigned integer literal of type typ.
func (b *Builder) Uint(n uint64, typ types.Type) (*ast.BasicLit, error) {
	if typ == nil {
		return nil, faults.ArgumentNil("Uint", "typ")
	}
	basic, ok := typ.Underlying().(*types.Basic)
	if !ok || basic.Info()&types.IsInteger == 0 {
		return nil, faults.Argument("Uint", "typ", fmt.Sprintf("%s is not an integer type", typ))
	}

	lit := &ast.BasicLit{Kind: token.INT, Value: strconv.FormatUint(n, 10)}
	b.info.Types[lit] = typ
	return lit, nil
}

// True references the predeclared true.
func (b *Builder) True() *ast.Ident {
	id := ast.NewIdent("true")
	obj := types.Universe.Lookup("true")
	b.info.Uses[id] = obj
	b.info.Types[id] = obj.Type()
	return id
}
