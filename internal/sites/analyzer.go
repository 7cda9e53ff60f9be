package sites

import (
	"go/ast"
	"go/token"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/passes/inspect"
	"golang.org/x/tools/go/ast/inspector"

	"github.com/sirkon/jumbotrace/internal/spans"
)

const doc = `jumbotrace lists constructs that get a trace probe on instrumentation`

// Analyzer reports every probe site of a package.
var Analyzer = &analysis.Analyzer{
	Name:     "jumbotrace",
	Doc:      doc,
	Requires: []*analysis.Analyzer{inspect.Analyzer},
	Run:      run,
}

func run(pass *analysis.Pass) (any, error) {
	pector := pass.ResultOf[inspect.Analyzer].(*inspector.Inspector)

	indexes := make(map[*token.File]*spans.Index, len(pass.Files))
	for _, file := range pass.Files {
		indexes[pass.Fset.File(file.Pos())] = spans.Build(file, pass.TypesInfo)
	}

	c := NewClassifier(pass.TypesInfo, nil)
	nodeFilter := []ast.Node{
		(*ast.ReturnStmt)(nil),
		(*ast.BranchStmt)(nil),
		(*ast.SwitchStmt)(nil),
		(*ast.TypeSwitchStmt)(nil),
		(*ast.DeclStmt)(nil),
		(*ast.AssignStmt)(nil),
		(*ast.ExprStmt)(nil),
		(*ast.CallExpr)(nil),
		(*ast.TypeAssertExpr)(nil),
	}

	pector.Preorder(nodeFilter, func(node ast.Node) {
		idx := indexes[pass.Fset.File(node.Pos())]
		if idx == nil || idx.GetByPos(node.Pos()) == nil {
			// Only function bodies are instrumented.
			return
		}

		kind, ok := c.Classify(node, idx)
		if !ok {
			return
		}
		pass.Reportf(node.Pos(), "%s probe site", kind)
	})

	return nil, nil
}
