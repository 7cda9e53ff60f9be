// Package probeapi describes the runtime probe package as type checker objects.
//
// Instrumented units do not import the probe package before the rewrite, so its
// objects are created here from scratch, through a symbols factory, and mirror the
// declarations of the probe and events packages.
package probeapi

import (
	"fmt"
	"go/token"
	"go/types"

	"github.com/sirkon/jumbotrace/internal/symbols"
)

// Default import paths of the runtime packages.
const (
	DefaultProbePath  = "github.com/sirkon/jumbotrace/probe"
	DefaultEventsPath = "github.com/sirkon/jumbotrace/events"
)

// Func enumerates probe functions.
type Func int

const (
	funcInvalid Func = iota
	FuncNextID
	FuncExec
	FuncReturn
	FuncBreak
	FuncContinue
	FuncYield0
	FuncYield
	FuncYield2
	FuncSwitch
	FuncVarDecl
	FuncThrow
	FuncCatch
	FuncAssert
)

var funcNames = map[Func]string{
	FuncNextID:   "NextID",
	FuncExec:     "Exec",
	FuncReturn:   "Return",
	FuncBreak:    "Break",
	FuncContinue: "Continue",
	FuncYield0:   "Yield0",
	FuncYield:    "Yield",
	FuncYield2:   "Yield2",
	FuncSwitch:   "Switch",
	FuncVarDecl:  "VarDecl",
	FuncThrow:    "Throw",
	FuncCatch:    "Catch",
	FuncAssert:   "Assert",
}

func (f Func) String() string {
	if v, ok := funcNames[f]; ok {
		return v
	}

	return fmt.Sprintf("func-invalid(%d)", int(f))
}

// Funcs returns all probe functions.
func Funcs() []Func {
	res := make([]Func, 0, len(funcNames))
	for f := FuncNextID; f <= FuncAssert; f++ {
		res = append(res, f)
	}
	return res
}

// API holds probe package objects. It is read only after construction.
type API struct {
	Probe  *types.Package
	Events *types.Package

	// ID is events.ID.
	ID *types.Named

	funcs map[Func]*types.Func
}

// New builds the probe package objects.
func New(f *symbols.Factory, probePath, eventsPath string) (*API, error) {
	probe, err := f.PackageSymbol(probePath, "probe")
	if err != nil {
		return nil, fmt.Errorf("probe package: %w", err)
	}
	events, err := f.PackageSymbol(eventsPath, "events")
	if err != nil {
		return nil, fmt.Errorf("events package: %w", err)
	}

	a := &API{
		Probe:  probe,
		Events: events,
		funcs:  map[Func]*types.Func{},
	}

	if obj := events.Scope().Lookup("ID"); obj != nil {
		// Packages are shared through the factory, so is the API.
		return a.reuse()
	}

	idName := types.NewTypeName(token.NoPos, events, "ID", nil)
	a.ID = types.NewNamed(idName, types.Typ[types.Uint64], nil)
	if err := symbols.Declare(symbols.Owner{Pkg: events, Scope: events.Scope()}, idName); err != nil {
		return nil, fmt.Errorf("declare events.ID: %w", err)
	}
	events.MarkComplete()

	if err := a.declare(); err != nil {
		return nil, err
	}
	probe.SetImports([]*types.Package{events})
	probe.MarkComplete()

	return a, nil
}

func (a *API) reuse() (*API, error) {
	a.ID = a.Events.Scope().Lookup("ID").Type().(*types.Named)
	for fn, name := range funcNames {
		obj, ok := a.Probe.Scope().Lookup(name).(*types.Func)
		if !ok {
			return nil, fmt.Errorf("probe package %s lacks %s", a.Probe.Path(), name)
		}
		a.funcs[fn] = obj
	}
	return a, nil
}

// Func returns the object of fn.
func (a *API) Func(fn Func) *types.Func {
	return a.funcs[fn]
}

// Which returns the probe function obj stands for.
func (a *API) Which(obj types.Object) (Func, bool) {
	fn, ok := obj.(*types.Func)
	if !ok || fn.Pkg() != a.Probe {
		return funcInvalid, false
	}
	for k, v := range a.funcs {
		if v == fn.Origin() {
			return k, true
		}
	}
	return funcInvalid, false
}

func (a *API) declare() error {
	var (
		u32    = types.Typ[types.Uint32]
		str    = types.Typ[types.String]
		boolT  = types.Typ[types.Bool]
		anyT   = types.Universe.Lookup("any").Type()
		owner  = symbols.Owner{Pkg: a.Probe, Scope: a.Probe.Scope()}
		tparam = func(name string) *types.TypeParam {
			return types.NewTypeParam(types.NewTypeName(token.NoPos, a.Probe, name, nil), anyT)
		}
	)

	param := func(name string, t types.Type) *types.Var {
		return types.NewParam(token.NoPos, a.Probe, name, t)
	}
	header := func(rest ...*types.Var) *types.Tuple {
		vars := []*types.Var{
			param("id", a.ID),
			param("parent", a.ID),
			param("file", str),
			param("sl", u32),
			param("sc", u32),
			param("el", u32),
			param("ec", u32),
		}
		return types.NewTuple(append(vars, rest...)...)
	}
	result := func(t types.Type) *types.Tuple {
		return types.NewTuple(param("", t))
	}
	yieldFunc := func(ts ...types.Type) *types.Signature {
		vars := make([]*types.Var, 0, len(ts))
		for _, t := range ts {
			vars = append(vars, param("", t))
		}
		return types.NewSignatureType(nil, nil, nil, types.NewTuple(vars...), result(boolT), false)
	}
	target := func(rest ...*types.Var) *types.Tuple {
		return header(append([]*types.Var{
			param("target", str),
			param("tl", u32),
			param("tc", u32),
		}, rest...)...)
	}

	v := tparam("V")
	k2, v2 := tparam("K"), tparam("V")
	st := tparam("T")
	at := tparam("T")

	sigs := map[Func]*types.Signature{
		FuncNextID: types.NewSignatureType(nil, nil, nil, nil, result(a.ID), false),
		FuncExec:   types.NewSignatureType(nil, nil, nil, header(), nil, false),
		FuncReturn: types.NewSignatureType(nil, nil, nil,
			header(param("method", str), param("values", types.NewSlice(anyT))), nil, true),
		FuncBreak:    types.NewSignatureType(nil, nil, nil, target(), nil, false),
		FuncContinue: types.NewSignatureType(nil, nil, nil, target(), nil, false),
		FuncYield0: types.NewSignatureType(nil, nil, nil,
			target(param("yield", yieldFunc())), result(boolT), false),
		FuncYield: types.NewSignatureType(nil, nil, []*types.TypeParam{v},
			target(param("yield", yieldFunc(v)), param("v", v)), result(boolT), false),
		FuncYield2: types.NewSignatureType(nil, nil, []*types.TypeParam{k2, v2},
			target(param("yield", yieldFunc(k2, v2)), param("k", k2), param("v", v2)), result(boolT), false),
		FuncSwitch: types.NewSignatureType(nil, nil, []*types.TypeParam{st},
			header(param("sel", st)), result(st), false),
		FuncVarDecl: types.NewSignatureType(nil, nil, nil,
			header(param("name", str), param("typ", str)), nil, false),
		FuncThrow: types.NewSignatureType(nil, nil, nil,
			header(param("v", anyT)), result(anyT), false),
		FuncCatch: types.NewSignatureType(nil, nil, nil,
			header(param("v", anyT)), result(anyT), false),
		FuncAssert: types.NewSignatureType(nil, nil, []*types.TypeParam{at},
			header(param("assertion", str), param("v", at)), result(at), false),
	}

	for _, fn := range Funcs() {
		obj := types.NewFunc(token.NoPos, a.Probe, fn.String(), sigs[fn])
		if err := symbols.Declare(owner, obj); err != nil {
			return fmt.Errorf("declare probe.%s: %w", fn, err)
		}
		a.funcs[fn] = obj
	}

	return nil
}
