package symbols

import (
	"fmt"
	"go/token"
	"go/types"
	"sync"
	"sync/atomic"

	"github.com/sirkon/jumbotrace/internal/faults"
)

// Factory mints identifiers and symbols. Safe for concurrent use.
type Factory struct {
	counter  atomic.Uint64
	prefix   string
	reserved func(name string) bool

	mu   sync.Mutex
	pkgs map[string]*types.Package
}

// Option configures a Factory.
type Option func(f *Factory)

// WithPrefix sets the replacement of $ in generated names.
func WithPrefix(prefix string) Option {
	return func(f *Factory) {
		f.prefix = prefix
	}
}

// WithReserved makes the factory skip counters whose Go spelling is reserved.
func WithReserved(reserved func(name string) bool) Option {
	return func(f *Factory) {
		f.reserved = reserved
	}
}

// NewFactory creates a Factory.
func NewFactory(opts ...Option) (*Factory, error) {
	f := &Factory{
		prefix: DefaultPrefix,
		pkgs:   map[string]*types.Package{},
	}
	for _, opt := range opts {
		opt(f)
	}

	if !isIdent(f.prefix) {
		return nil, faults.Argument("NewFactory", "prefix", fmt.Sprintf("%q is not an identifier start", f.prefix))
	}

	return f, nil
}

// Prefix returns the replacement of $ in generated names.
func (f *Factory) Prefix() string {
	return f.prefix
}

// NextID returns a fresh identifier with the given debug hint.
func (f *Factory) NextID(hint string) (Identifier, error) {
	if !isIdentTail(hint) {
		return Identifier{}, faults.Argument("NextID", "hint", fmt.Sprintf("%q is not a valid hint", hint))
	}

	for {
		id := Identifier{
			counter: f.counter.Add(1),
			hint:    hint,
			prefix:  f.prefix,
		}
		if f.reserved != nil && f.reserved(id.Name()) {
			continue
		}

		return id, nil
	}
}

// Owner is where a symbol belongs. Scope may be nil for objects that
// live outside any lexical scope, like methods and struct fields.
type Owner struct {
	Pkg   *types.Package
	Scope *types.Scope
}

// Declare inserts obj into the owner scope.
func Declare(owner Owner, obj types.Object) error {
	if obj == nil {
		return faults.ArgumentNil("Declare", "obj")
	}
	if owner.Scope == nil {
		return nil
	}

	if alt := owner.Scope.Insert(obj); alt != nil {
		return faults.Consistency(token.Position{}, "name %s is already declared in the owner scope", obj.Name())
	}

	return nil
}

// VarSymbol creates a fresh local variable of type typ.
func (f *Factory) VarSymbol(owner Owner, hint string, typ types.Type) (*types.Var, error) {
	if typ == nil {
		return nil, faults.ArgumentNil("VarSymbol", "typ")
	}

	id, err := f.NextID(hint)
	if err != nil {
		return nil, fmt.Errorf("new var identifier: %w", err)
	}

	v := types.NewVar(token.NoPos, owner.Pkg, id.Name(), typ)
	if err := Declare(owner, v); err != nil {
		return nil, err
	}

	return v, nil
}

// ParamSymbol creates a fresh parameter or result variable of type typ.
func (f *Factory) ParamSymbol(owner Owner, hint string, typ types.Type) (*types.Var, error) {
	if typ == nil {
		return nil, faults.ArgumentNil("ParamSymbol", "typ")
	}

	id, err := f.NextID(hint)
	if err != nil {
		return nil, fmt.Errorf("new param identifier: %w", err)
	}

	v := types.NewParam(token.NoPos, owner.Pkg, id.Name(), typ)
	if err := Declare(owner, v); err != nil {
		return nil, err
	}

	return v, nil
}

// FuncSymbol creates a fresh package level function.
func (f *Factory) FuncSymbol(owner Owner, hint string, sig *types.Signature) (*types.Func, error) {
	if sig == nil {
		return nil, faults.ArgumentNil("FuncSymbol", "sig")
	}
	if sig.Recv() != nil {
		return nil, faults.Argument("FuncSymbol", "sig", "must not have a receiver")
	}

	id, err := f.NextID(hint)
	if err != nil {
		return nil, fmt.Errorf("new func identifier: %w", err)
	}

	fn := types.NewFunc(token.NoPos, owner.Pkg, id.Name(), sig)
	if err := Declare(owner, fn); err != nil {
		return nil, err
	}

	return fn, nil
}

// MethodSymbol creates a fresh method of recv and attaches it to the type.
func (f *Factory) MethodSymbol(
	owner Owner,
	recv *types.Named,
	pointer bool,
	hint string,
	params *types.Tuple,
	results *types.Tuple,
	variadic bool,
) (*types.Func, error) {
	if recv == nil {
		return nil, faults.ArgumentNil("MethodSymbol", "recv")
	}

	id, err := f.NextID(hint)
	if err != nil {
		return nil, fmt.Errorf("new method identifier: %w", err)
	}

	var rtype types.Type = recv
	if pointer {
		rtype = types.NewPointer(recv)
	}
	rvar := types.NewParam(token.NoPos, owner.Pkg, "", rtype)
	sig := types.NewSignatureType(rvar, nil, nil, params, results, variadic)

	m := types.NewFunc(token.NoPos, owner.Pkg, id.Name(), sig)
	if obj, _, _ := types.LookupFieldOrMethod(recv, true, owner.Pkg, m.Name()); obj != nil {
		return nil, faults.Consistency(token.Position{}, "type %s already has member %s", recv, m.Name())
	}
	recv.AddMethod(m)

	return m, nil
}

// TypeSymbol creates a fresh defined type with the given underlying type.
func (f *Factory) TypeSymbol(owner Owner, hint string, underlying types.Type) (*types.TypeName, error) {
	if underlying == nil {
		return nil, faults.ArgumentNil("TypeSymbol", "underlying")
	}

	id, err := f.NextID(hint)
	if err != nil {
		return nil, fmt.Errorf("new type identifier: %w", err)
	}

	tn := types.NewTypeName(token.NoPos, owner.Pkg, id.Name(), nil)
	types.NewNamed(tn, underlying.Underlying(), nil)
	if err := Declare(owner, tn); err != nil {
		return nil, err
	}

	return tn, nil
}

// PkgNameSymbol creates a fresh import name of imported.
func (f *Factory) PkgNameSymbol(owner Owner, hint string, imported *types.Package) (*types.PkgName, error) {
	if imported == nil {
		return nil, faults.ArgumentNil("PkgNameSymbol", "imported")
	}

	id, err := f.NextID(hint)
	if err != nil {
		return nil, fmt.Errorf("new import identifier: %w", err)
	}

	pn := types.NewPkgName(token.NoPos, owner.Pkg, id.Name(), imported)
	if err := Declare(owner, pn); err != nil {
		return nil, err
	}

	return pn, nil
}

// PackageSymbol returns the package with the given path. Packages are
// cached per path, so repeated calls return the same object.
func (f *Factory) PackageSymbol(path, name string) (*types.Package, error) {
	if path == "" {
		return nil, faults.Argument("PackageSymbol", "path", "must not be empty")
	}
	if !isIdent(name) {
		return nil, faults.Argument("PackageSymbol", "name", fmt.Sprintf("%q is not an identifier", name))
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if pkg, ok := f.pkgs[path]; ok {
		if pkg.Name() != name {
			return nil, faults.Consistency(
				token.Position{},
				"package %s is already known under name %s, not %s",
				path,
				pkg.Name(),
				name,
			)
		}
		return pkg, nil
	}

	pkg := types.NewPackage(path, name)
	f.pkgs[path] = pkg
	return pkg, nil
}
