package parser

import (
	"context"
	"fmt"
	"os"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"

	"github.com/iceinvein/code-intelligence-mcp-server/pkg/types"
)

// TreeSitterParser is a tree-sitter-backed Implementation for a single
// ECMAScript-family grammar. NewTypeScriptParser, NewTSXParser, and
// NewJavaScriptParser bind the same extraction logic to different grammars,
// since the three dialects share almost all of their relevant node types.
type TreeSitterParser struct {
	lang     *sitter.Language
	language string // stamped onto every extracted Symbol.Language
}

// NewTypeScriptParser builds the .ts/.mts/.cts implementation.
func NewTypeScriptParser() *TreeSitterParser {
	return &TreeSitterParser{lang: typescript.GetLanguage(), language: "typescript"}
}

// NewTSXParser builds the .tsx implementation.
func NewTSXParser() *TreeSitterParser {
	return &TreeSitterParser{lang: tsx.GetLanguage(), language: "tsx"}
}

// NewJavaScriptParser builds the .js/.jsx/.mjs implementation.
func NewJavaScriptParser() *TreeSitterParser {
	return &TreeSitterParser{lang: javascript.GetLanguage(), language: "javascript"}
}

// ParseFile parses a single TypeScript/JavaScript-family source file.
func (p *TreeSitterParser) ParseFile(filePath string) (*types.ParseResult, error) {
	source, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	result := &types.ParseResult{}

	sp := sitter.NewParser()
	sp.SetLanguage(p.lang)
	tree, err := sp.ParseCtx(context.Background(), nil, source)
	if err != nil {
		// Same contract as the Go parser: a syntax error is recorded, not
		// fatal, and whatever partial tree exists is still walked below.
		result.AddError(filePath, 0, 0, fmt.Sprintf("syntax error: %v", err))
	}
	if tree == nil {
		return result, nil
	}
	defer tree.Close()

	ex := &tsExtractor{source: source, language: p.language}
	ex.walkTopLevel(tree.RootNode())

	result.Symbols = ex.symbols
	result.Imports = ex.imports
	result.Calls = ex.calls
	result.TypeRelations = ex.typeRels
	result.Decorators = ex.decorators
	result.TODOs = ex.extractTODOs(tree.RootNode())

	return result, nil
}

// tsExtractor accumulates extraction results while walking a single file's
// tree-sitter AST. One instance is scoped to one ParseFile call.
type tsExtractor struct {
	source   []byte
	language string

	symbols    []types.Symbol
	imports    []types.Import
	calls      []types.CallRef
	typeRels   []types.TypeRelRef
	decorators []types.DecoratorRef
}

func (e *tsExtractor) text(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	return string(e.source[n.StartByte():n.EndByte()])
}

func (e *tsExtractor) position(n *sitter.Node) (types.Position, types.Position) {
	start := n.StartPoint()
	end := n.EndPoint()
	return types.Position{Line: int(start.Row) + 1, Column: int(start.Column) + 1},
		types.Position{Line: int(end.Row) + 1, Column: int(end.Column) + 1}
}

// walkTopLevel visits the program's direct statements, descending into
// exported declarations (export_statement wraps its declaration in a
// "declaration" field) so a top-level `export class Foo` is still found.
func (e *tsExtractor) walkTopLevel(root *sitter.Node) {
	for i := 0; i < int(root.ChildCount()); i++ {
		e.visitStatement(root.Child(i))
	}
}

func (e *tsExtractor) visitStatement(n *sitter.Node) {
	if n == nil {
		return
	}
	if n.Type() == "export_statement" {
		if decl := n.ChildByFieldName("declaration"); decl != nil {
			e.visitStatement(decl)
			return
		}
		// export { a, b } / export default <expr> carry no declaration to
		// extract a symbol from; nothing further to do.
		return
	}

	switch n.Type() {
	case "import_statement":
		e.visitImport(n)
	case "function_declaration", "generator_function_declaration":
		e.visitFunction(n, "")
	case "class_declaration":
		e.visitClass(n)
	case "interface_declaration":
		e.visitInterface(n)
	case "type_alias_declaration":
		e.visitTypeAlias(n)
	case "enum_declaration":
		e.visitEnum(n)
	case "lexical_declaration", "variable_declaration":
		e.visitVariableDeclaration(n)
	}
}

func (e *tsExtractor) visitImport(n *sitter.Node) {
	srcNode := n.ChildByFieldName("source")
	if srcNode == nil {
		return
	}
	imp := types.Import{Path: strings.Trim(e.text(srcNode), `"'`)}

	if clause := findChildByType(n, "import_clause"); clause != nil {
		if ns := findChildByType(clause, "namespace_import"); ns != nil {
			if id := findChildByType(ns, "identifier"); id != nil {
				imp.Alias = e.text(id)
			}
		} else if id := directChildOfType(clause, "identifier"); id != nil {
			imp.Alias = e.text(id)
		}
	}

	e.imports = append(e.imports, imp)
}

func (e *tsExtractor) visitFunction(n *sitter.Node, receiver string) {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	start, end := e.position(n)
	sym := types.Symbol{
		Name:     e.text(nameNode),
		Kind:     types.KindFunction,
		Language: e.language,
		Start:    start,
		End:      end,
	}
	if receiver != "" {
		sym.Kind = types.KindMethod
		sym.Receiver = receiver
	}
	sym.Signature = e.functionSignature(n, sym.Name)
	e.symbols = append(e.symbols, sym)
	e.decorators = append(e.decorators, collectDecorators(n, e, sym.Name)...)

	if body := n.ChildByFieldName("body"); body != nil {
		e.collectCalls(body, sym.Name)
	}
}

func (e *tsExtractor) functionSignature(n *sitter.Node, name string) string {
	params := e.text(n.ChildByFieldName("parameters"))
	ret := n.ChildByFieldName("return_type")
	sig := name + params
	if ret != nil {
		sig += " " + e.text(ret)
	}
	return sig
}

func (e *tsExtractor) visitClass(n *sitter.Node) {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := e.text(nameNode)
	start, end := e.position(n)
	sym := types.Symbol{
		Name:     name,
		Kind:     types.KindClass,
		Language: e.language,
		Start:    start,
		End:      end,
	}
	detectDDDPatterns(&sym)
	e.symbols = append(e.symbols, sym)
	e.decorators = append(e.decorators, collectDecorators(n, e, name)...)

	extends, implements := heritageNames(n, e)
	line := start.Line
	for _, to := range extends {
		e.typeRels = append(e.typeRels, types.TypeRelRef{FromName: name, ToName: to, Kind: "type_extends", Line: line})
	}
	for _, to := range implements {
		e.typeRels = append(e.typeRels, types.TypeRelRef{FromName: name, ToName: to, Kind: "type_implements", Line: line})
	}

	if body := n.ChildByFieldName("body"); body != nil {
		e.visitClassBody(body, name)
	}
}

func (e *tsExtractor) visitClassBody(body *sitter.Node, className string) {
	for i := 0; i < int(body.ChildCount()); i++ {
		member := body.Child(i)
		if member == nil {
			continue
		}
		switch member.Type() {
		case "method_definition":
			e.visitFunction(member, className)
		case "public_field_definition":
			e.visitField(member, className)
		}
	}
}

func (e *tsExtractor) visitField(n *sitter.Node, className string) {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	start, end := e.position(n)
	sig := e.text(nameNode)
	if t := n.ChildByFieldName("type"); t != nil {
		sig += " " + e.text(t)
	}
	e.symbols = append(e.symbols, types.Symbol{
		Name:      e.text(nameNode),
		Kind:      types.KindField,
		Language:  e.language,
		Receiver:  className,
		Signature: sig,
		Start:     start,
		End:       end,
	})
}

func (e *tsExtractor) visitInterface(n *sitter.Node) {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := e.text(nameNode)
	start, end := e.position(n)
	sym := types.Symbol{
		Name:     name,
		Kind:     types.KindInterface,
		Language: e.language,
		Start:    start,
		End:      end,
	}
	detectDDDPatterns(&sym)
	e.symbols = append(e.symbols, sym)

	if ext := findChildByType(n, "extends_type_clause"); ext != nil {
		for _, to := range collectTypeIdentifiers(ext, e) {
			e.typeRels = append(e.typeRels, types.TypeRelRef{
				FromName: name, ToName: to, Kind: "type_implements", Line: start.Line,
			})
		}
	}
}

func (e *tsExtractor) visitTypeAlias(n *sitter.Node) {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := e.text(nameNode)
	start, end := e.position(n)
	e.symbols = append(e.symbols, types.Symbol{
		Name:      name,
		Kind:      types.KindTypeAlias,
		Language:  e.language,
		Signature: "type " + name + " = " + e.text(n.ChildByFieldName("value")),
		Start:     start,
		End:       end,
	})

	if value := n.ChildByFieldName("value"); value != nil {
		for _, to := range collectTypeIdentifiers(value, e) {
			e.typeRels = append(e.typeRels, types.TypeRelRef{
				FromName: name, ToName: to, Kind: "type_alias", Line: start.Line,
			})
		}
	}
}

func (e *tsExtractor) visitEnum(n *sitter.Node) {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	start, end := e.position(n)
	e.symbols = append(e.symbols, types.Symbol{
		Name:     e.text(nameNode),
		Kind:     types.KindEnum,
		Language: e.language,
		Start:    start,
		End:      end,
	})
}

// visitVariableDeclaration picks up `const foo = () => {}` and
// `const foo = function() {}` bindings, the idiomatic way most
// TypeScript/JavaScript codebases declare top-level functions.
func (e *tsExtractor) visitVariableDeclaration(n *sitter.Node) {
	for i := 0; i < int(n.ChildCount()); i++ {
		decl := n.Child(i)
		if decl == nil || decl.Type() != "variable_declarator" {
			continue
		}
		nameNode := decl.ChildByFieldName("name")
		valueNode := decl.ChildByFieldName("value")
		if nameNode == nil || valueNode == nil {
			continue
		}
		if valueNode.Type() != "arrow_function" && valueNode.Type() != "function_expression" {
			continue
		}
		start, end := e.position(decl)
		name := e.text(nameNode)
		e.symbols = append(e.symbols, types.Symbol{
			Name:      name,
			Kind:      types.KindFunction,
			Language:  e.language,
			Signature: name + e.text(valueNode.ChildByFieldName("parameters")),
			Start:     start,
			End:       end,
		})
		if body := valueNode.ChildByFieldName("body"); body != nil {
			e.collectCalls(body, name)
		}
	}
}

// collectCalls walks a function/method body recording every call_expression
// as an unresolved CallRef, mirroring the Go parser's AST-only call
// extraction: resolution against the symbol table happens in the indexer.
func (e *tsExtractor) collectCalls(body *sitter.Node, fromName string) {
	var walk func(*sitter.Node)
	walk = func(n *sitter.Node) {
		if n == nil {
			return
		}
		if n.Type() == "call_expression" {
			if fn := n.ChildByFieldName("function"); fn != nil {
				switch fn.Type() {
				case "identifier":
					e.calls = append(e.calls, types.CallRef{FromName: fromName, ToName: e.text(fn)})
				case "member_expression":
					obj := fn.ChildByFieldName("object")
					prop := fn.ChildByFieldName("property")
					if prop != nil {
						ref := types.CallRef{FromName: fromName, ToName: e.text(prop)}
						if obj != nil {
							ref.ToPackage = e.text(obj)
						}
						e.calls = append(e.calls, ref)
					}
				}
			}
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			walk(n.Child(i))
		}
	}
	walk(body)
}

// extractTODOs scans every comment node in the tree for a TODO/FIXME/HACK/XXX
// marker, reusing the Go parser's regex and nearest-symbol anchoring.
func (e *tsExtractor) extractTODOs(root *sitter.Node) []types.TODORef {
	var todos []types.TODORef
	var walk func(*sitter.Node)
	walk = func(n *sitter.Node) {
		if n == nil {
			return
		}
		if n.Type() == "comment" {
			text := strings.TrimLeft(strings.TrimPrefix(strings.TrimPrefix(e.text(n), "//"), "/*"), " ")
			if m := todoPattern.FindStringSubmatch(text); m != nil {
				line := int(n.StartPoint().Row) + 1
				todos = append(todos, types.TODORef{
					Line:       line,
					Keyword:    strings.ToUpper(m[1]),
					Text:       strings.TrimSpace(m[2]),
					NearSymbol: nearestSymbolAfter(e.symbols, line),
				})
			}
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			walk(n.Child(i))
		}
	}
	walk(root)
	return todos
}

// collectDecorators gathers `@Name(...)` decorator children attached
// directly to declNode (tree-sitter's TypeScript grammar attaches decorators
// as leading children of the class/method node they annotate).
func collectDecorators(declNode *sitter.Node, e *tsExtractor, symbolName string) []types.DecoratorRef {
	var decs []types.DecoratorRef
	for i := 0; i < int(declNode.ChildCount()); i++ {
		child := declNode.Child(i)
		if child == nil || child.Type() != "decorator" {
			continue
		}
		decs = append(decs, decoratorFromNode(child, e, symbolName))
	}
	return decs
}

func decoratorFromNode(dec *sitter.Node, e *tsExtractor, symbolName string) types.DecoratorRef {
	var name, args string
	for i := 0; i < int(dec.ChildCount()); i++ {
		child := dec.Child(i)
		if child == nil {
			continue
		}
		switch child.Type() {
		case "identifier":
			name = e.text(child)
		case "call_expression":
			if fn := child.ChildByFieldName("function"); fn != nil {
				name = e.text(fn)
			}
			if argsNode := child.ChildByFieldName("arguments"); argsNode != nil {
				args = e.text(argsNode)
			}
		}
	}
	return types.DecoratorRef{SymbolName: symbolName, Name: name, Class: args}
}

// heritageNames returns a class declaration's `extends` target (at most
// one, per the grammar) and `implements` targets.
func heritageNames(classNode *sitter.Node, e *tsExtractor) (extends, implements []string) {
	heritage := findChildByType(classNode, "class_heritage")
	if heritage == nil {
		return nil, nil
	}
	if ext := findChildByType(heritage, "extends_clause"); ext != nil {
		extends = collectTypeIdentifiers(ext, e)
	}
	if impl := findChildByType(heritage, "implements_clause"); impl != nil {
		implements = collectTypeIdentifiers(impl, e)
	}
	return extends, implements
}

// collectTypeIdentifiers collects the text of every type_identifier
// descendant of n, the node type tree-sitter-typescript uses for a bare
// reference to another declared type.
func collectTypeIdentifiers(n *sitter.Node, e *tsExtractor) []string {
	var names []string
	var walk func(*sitter.Node)
	walk = func(node *sitter.Node) {
		if node == nil {
			return
		}
		if node.Type() == "type_identifier" {
			names = append(names, e.text(node))
		}
		for i := 0; i < int(node.ChildCount()); i++ {
			walk(node.Child(i))
		}
	}
	walk(n)
	return names
}

// findChildByType does a depth-first search for the first descendant of n
// with the given node type.
func findChildByType(n *sitter.Node, nodeType string) *sitter.Node {
	if n == nil {
		return nil
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		if child == nil {
			continue
		}
		if child.Type() == nodeType {
			return child
		}
		if found := findChildByType(child, nodeType); found != nil {
			return found
		}
	}
	return nil
}

// directChildOfType returns the first direct child of n with the given
// node type, without descending further.
func directChildOfType(n *sitter.Node, nodeType string) *sitter.Node {
	if n == nil {
		return nil
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		if child != nil && child.Type() == nodeType {
			return child
		}
	}
	return nil
}
