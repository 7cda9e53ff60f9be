package spans

import (
	"fmt"
	"go/token"

	"github.com/sirkon/rbtree"
)

// span is the extent of a function. Spans sharing a tree never overlap:
// functions nested into another one live in its inner tree.
type span struct {
	from, to token.Pos

	fn    *Func
	inner *rbtree.Tree[*span]
}

// Cmp makes overlapping spans equal, so a search with a single point span
// lands at the span holding that point.
func (s *span) Cmp(o *span) int {
	switch {
	case s.to < o.from:
		return -1
	case s.from > o.to:
		return 1
	default:
		return 0
	}
}

func (s *span) covers(o *span) bool {
	return s.from <= o.from && o.to <= s.to
}

func (s *span) nested() *rbtree.Tree[*span] {
	if s.inner == nil {
		s.inner = rbtree.New[*span]()
	}
	return s.inner
}

// place puts s into the tree, going down through spans covering it. When s
// covers a span already there it takes its node and the former occupant is
// placed beneath it.
func place(tree *rbtree.Tree[*span], s *span) {
	for {
		got := tree.InsertReturn(s)
		switch {
		case got == s:
			return
		case s.covers(got):
			moved := *got
			*got = *s
			tree, s = got.nested(), &moved
		case got.covers(s):
			tree = got.nested()
		default:
			panic(fmt.Sprintf("function spans [%d, %d] and [%d, %d] overlap partially", got.from, got.to, s.from, s.to))
		}
	}
}

// innermost returns the function of the deepest span holding pos.
func innermost(tree *rbtree.Tree[*span], pos token.Pos) *Func {
	var (
		fn  *Func
		key = &span{from: pos, to: pos}
	)
	for tree != nil {
		s := tree.Search(key)
		if s == nil {
			break
		}
		fn, tree = s.fn, s.inner
	}
	return fn
}
