package instrument

import (
	"go/ast"
	"go/token"
	"go/types"

	"github.com/sirkon/jumbotrace/internal/spans"
)

// context is what a construct knows about its surroundings. It is passed by
// value and never mutated.
type context struct {
	// parent holds the id of the enclosing event, nil stands for the sentinel.
	parent *types.Var

	fn      *funcInfo
	targets *target
}

func (c context) withParent(v *types.Var) context {
	c.parent = v
	return c
}

func (c context) withTarget(t *target) context {
	t.next = c.targets
	c.targets = t
	return c
}

// funcInfo describes the function being rewritten.
type funcInfo struct {
	span  *spans.Func
	scope *types.Scope

	hasResults bool

	// results are named results of the function, nil when they
	// cannot be captured.
	results []*types.Var

	// fresh marks results named by the rewrite.
	fresh map[*types.Var]bool

	body *ast.BlockStmt

	// relabel maps labels of loops and switches to labels put on probes
	// preceding them. Gotos are redirected there.
	relabel map[string]string
}

func (f *funcInfo) name() string {
	if f == nil || f.span == nil {
		return "<unknown>"
	}
	return f.span.Name
}

// target is a statement break or continue can land at.
type target struct {
	label string
	descr string
	loop  bool
	pos   token.Pos
	next  *target
}

// text returns the description reported by jumps to t.
func (t *target) text() string {
	if t.label != "" {
		return t.label
	}
	return t.descr
}

// lookup finds the target of a jump. An empty label stands for the innermost
// eligible statement.
func (c context) lookup(label string, cont bool) *target {
	for t := c.targets; t != nil; t = t.next {
		if cont && !t.loop {
			continue
		}
		if label == "" || t.label == label {
			return t
		}
	}
	return nil
}
