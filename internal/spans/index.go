package spans

import (
	"go/ast"
	"go/token"
	"go/types"

	"github.com/sirkon/rbtree"
)

// Func describes a function declaration or literal.
type Func struct {
	// Name follows runtime naming: foo, T.M, (*T).M, foo.func1, foo.func1.1.
	Name string
	Node ast.Node
	Type *ast.FuncType
	Body *ast.BlockStmt
	Sig  *types.Signature
}

// Pos returns the position of the func keyword, or of the name for methods
// and functions.
func (f *Func) Pos() token.Pos {
	if d, ok := f.Node.(*ast.FuncDecl); ok {
		return d.Name.Pos()
	}
	return f.Node.Pos()
}

// Index holds function spans of a file.
type Index struct {
	tree  *rbtree.Tree[*span]
	funcs []*Func
}

// New creates an empty index.
func New() *Index {
	return &Index{tree: rbtree.New[*span]()}
}

// Add registers fn with its [start,end] span. Spans of different functions
// must be either disjoint or nested.
func (x *Index) Add(fn *Func, start, end token.Pos) {
	place(x.tree, &span{from: start, to: end, fn: fn})
	x.funcs = append(x.funcs, fn)
}

// GetByPos returns the innermost function covering pos.
func (x *Index) GetByPos(pos token.Pos) *Func {
	return innermost(x.tree, pos)
}

// Funcs returns registered functions in registration order.
func (x *Index) Funcs() []*Func {
	return x.funcs
}

// ByNode returns the function registered for a declaration or literal.
func (x *Index) ByNode(n ast.Node) *Func {
	fn := x.GetByPos(n.Pos())
	if fn == nil || fn.Node != n {
		return nil
	}
	return fn
}
