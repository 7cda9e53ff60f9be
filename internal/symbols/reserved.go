package symbols

import (
	"go/ast"
)

// ReservedNames returns a predicate matching every identifier used in files.
// The result is read only and can be shared.
func ReservedNames(files ...*ast.File) func(name string) bool {
	names := map[string]struct{}{}
	for _, file := range files {
		ast.Inspect(file, func(n ast.Node) bool {
			if id, ok := n.(*ast.Ident); ok {
				names[id.Name] = struct{}{}
			}
			return true
		})
	}

	return func(name string) bool {
		_, ok := names[name]
		return ok
	}
}
