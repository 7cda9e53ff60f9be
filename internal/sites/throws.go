package sites

import (
	"go/ast"
	"go/types"
	"maps"

	"golang.org/x/tools/go/types/typeutil"
)

// Ref names a package level function or, with Type set, a method.
type Ref struct {
	Package string
	Type    string
	Name    string
}

type packagedFunc struct {
	pkgPath string
	typ     string
	name    string
}

// knownThrowFuncs lists functions that stop the flow by panicking with one of their arguments.
// The value is the index of the argument holding the thrown value.
type knownThrowFuncs struct {
	known map[packagedFunc]int
}

func newKnownThrowFuncs(custom []Ref) *knownThrowFuncs {
	predefined := map[packagedFunc]int{
		{pkgPath: "builtin", name: "panic"}: 0,
		{pkgPath: "log", name: "Panic"}:     0,
		{pkgPath: "log", name: "Panicln"}:   0,
		{pkgPath: "log", typ: "Logger", name: "Panic"}:   0,
		{pkgPath: "log", typ: "Logger", name: "Panicln"}: 0,
	}

	known := make(map[packagedFunc]int, len(custom))
	for _, ref := range custom {
		known[packagedFunc{pkgPath: ref.Package, typ: ref.Type, name: ref.Name}] = 0
	}
	res := maps.Clone(predefined)
	maps.Insert(res, maps.All(known))

	return &knownThrowFuncs{known: res}
}

// thrownArg returns the index of the argument call throws.
func (k *knownThrowFuncs) thrownArg(info *types.Info, call *ast.CallExpr) (int, bool) {
	key, sig, ok := calleeKey(info, call)
	if !ok {
		return 0, false
	}

	idx, ok := k.known[key]
	if !ok || len(call.Args) == 0 || call.Ellipsis.IsValid() {
		return 0, false
	}
	if idx >= len(call.Args) {
		return 0, false
	}

	if sig != nil && !acceptsAny(sig, idx) {
		// Custom entries must take the thrown value as an empty interface.
		return 0, false
	}

	return idx, true
}

func calleeKey(info *types.Info, call *ast.CallExpr) (packagedFunc, *types.Signature, bool) {
	switch fn := typeutil.Callee(info, call).(type) {
	case *types.Builtin:
		return packagedFunc{pkgPath: "builtin", name: fn.Name()}, nil, true
	case *types.Func:
		if fn.Pkg() == nil {
			return packagedFunc{}, nil, false
		}

		sig := fn.Type().(*types.Signature)
		key := packagedFunc{pkgPath: fn.Pkg().Path(), name: fn.Name()}
		if recv := sig.Recv(); recv != nil {
			rt := recv.Type()
			if p, ok := rt.(*types.Pointer); ok {
				rt = p.Elem()
			}
			named, ok := rt.(*types.Named)
			if !ok {
				return packagedFunc{}, nil, false
			}
			key.typ = named.Obj().Name()
		}
		return key, sig, true
	default:
		return packagedFunc{}, nil, false
	}
}

func acceptsAny(sig *types.Signature, idx int) bool {
	params := sig.Params()
	var pt types.Type
	switch {
	case sig.Variadic() && idx >= params.Len()-1:
		pt = params.At(params.Len() - 1).Type().(*types.Slice).Elem()
	case idx < params.Len():
		pt = params.At(idx).Type()
	default:
		return false
	}

	iface, ok := pt.Underlying().(*types.Interface)
	return ok && iface.Empty()
}
