package parser

import (
	"go/ast"
	"go/token"
	"regexp"
	"strings"

	"github.com/iceinvein/code-intelligence-mcp-server/pkg/types"
)

var todoPattern = regexp.MustCompile(`(?i)\b(TODO|FIXME|HACK|XXX)\b:?\s*(.*)`)
var decoratorPattern = regexp.MustCompile(`@(\w+)(?:\(([^)]*)\))?`)

// extractCalls walks every function and method body in file, recording each
// call expression as an unresolved CallRef. Resolution against the symbol
// table happens in the indexer, since a callee may live in a file this
// parser hasn't seen yet.
func (p *Parser) extractCalls(fset *token.FileSet, file *ast.File) []types.CallRef {
	var calls []types.CallRef

	ast.Inspect(file, func(n ast.Node) bool {
		funcDecl, ok := n.(*ast.FuncDecl)
		if !ok || funcDecl.Body == nil {
			return true
		}
		fromName := funcDecl.Name.Name

		ast.Inspect(funcDecl.Body, func(inner ast.Node) bool {
			call, ok := inner.(*ast.CallExpr)
			if !ok {
				return true
			}
			switch fn := call.Fun.(type) {
			case *ast.Ident:
				calls = append(calls, types.CallRef{
					FromName: fromName,
					ToName:   fn.Name,
					Line:     fset.Position(call.Pos()).Line,
				})
			case *ast.SelectorExpr:
				toPackage := ""
				if ident, ok := fn.X.(*ast.Ident); ok {
					toPackage = ident.Name
				}
				calls = append(calls, types.CallRef{
					FromName:  fromName,
					ToName:    fn.Sel.Name,
					ToPackage: toPackage,
					Line:      fset.Position(call.Pos()).Line,
				})
			}
			return true
		})

		return false
	})

	return calls
}

// extractTypeRelations finds struct embedding, interface embedding, and
// type-alias declarations without a type checker: a nameless struct field
// or interface method entry is, by Go's grammar, an embedded type rather
// than a named member.
func (p *Parser) extractTypeRelations(fset *token.FileSet, file *ast.File) []types.TypeRelRef {
	var rels []types.TypeRelRef

	ast.Inspect(file, func(n ast.Node) bool {
		typeSpec, ok := n.(*ast.TypeSpec)
		if !ok {
			return true
		}

		if typeSpec.Assign != token.NoPos {
			rels = append(rels, types.TypeRelRef{
				FromName: typeSpec.Name.Name,
				ToName:   exprToTypeName(typeSpec.Type),
				Kind:     "type_alias",
				Line:     fset.Position(typeSpec.Pos()).Line,
			})
			return true
		}

		switch t := typeSpec.Type.(type) {
		case *ast.StructType:
			if t.Fields == nil {
				return true
			}
			for _, field := range t.Fields.List {
				if len(field.Names) > 0 {
					continue
				}
				rels = append(rels, types.TypeRelRef{
					FromName: typeSpec.Name.Name,
					ToName:   exprToTypeName(field.Type),
					Kind:     "type_extends",
					Line:     fset.Position(field.Pos()).Line,
				})
			}
		case *ast.InterfaceType:
			if t.Methods == nil {
				return true
			}
			for _, m := range t.Methods.List {
				if len(m.Names) > 0 {
					continue
				}
				rels = append(rels, types.TypeRelRef{
					FromName: typeSpec.Name.Name,
					ToName:   exprToTypeName(m.Type),
					Kind:     "type_implements",
					Line:     fset.Position(m.Pos()).Line,
				})
			}
		}
		return true
	})

	return rels
}

// extractTODOs scans every comment in the file for a TODO/FIXME/HACK/XXX
// marker and anchors it to the nearest symbol declared at or after the
// comment's line.
func (p *Parser) extractTODOs(fset *token.FileSet, file *ast.File, symbols []types.Symbol) []types.TODORef {
	var todos []types.TODORef

	for _, cg := range file.Comments {
		for _, c := range cg.List {
			text := strings.TrimLeft(strings.TrimPrefix(strings.TrimPrefix(c.Text, "//"), "/*"), " ")
			m := todoPattern.FindStringSubmatch(text)
			if m == nil {
				continue
			}
			line := fset.Position(c.Pos()).Line
			todos = append(todos, types.TODORef{
				Line:       line,
				Keyword:    strings.ToUpper(m[1]),
				Text:       strings.TrimSpace(m[2]),
				NearSymbol: nearestSymbolAfter(symbols, line),
			})
		}
	}

	return todos
}

// nearestSymbolAfter returns the name of the symbol starting closest to,
// but not before, line.
func nearestSymbolAfter(symbols []types.Symbol, line int) string {
	best := ""
	bestLine := -1
	for _, s := range symbols {
		if s.Start.Line >= line && (bestLine == -1 || s.Start.Line < bestLine) {
			best = s.Name
			bestLine = s.Start.Line
		}
	}
	return best
}

// extractDecorators scans each symbol's doc comment for `@Name(args)`
// annotations, the convention swag/gin-swagger use for route and schema
// markers in Go source, the closest ecosystem analogue to a decorator.
func extractDecorators(symbols []types.Symbol) []types.DecoratorRef {
	var decorators []types.DecoratorRef
	for _, s := range symbols {
		if s.DocComment == "" {
			continue
		}
		for _, m := range decoratorPattern.FindAllStringSubmatch(s.DocComment, -1) {
			decorators = append(decorators, types.DecoratorRef{
				SymbolName: s.Name,
				Name:       m[1],
				Class:      m[2],
			})
		}
	}
	return decorators
}

// exprToTypeName renders a type expression down to the bare name used to
// resolve it against the symbol table (pointer and package qualifiers
// stripped, since symbols are stored by name within a package).
func exprToTypeName(expr ast.Expr) string {
	switch e := expr.(type) {
	case *ast.Ident:
		return e.Name
	case *ast.StarExpr:
		return exprToTypeName(e.X)
	case *ast.SelectorExpr:
		return e.Sel.Name
	case *ast.IndexExpr:
		return exprToTypeName(e.X)
	default:
		return ""
	}
}
