// Package parser extracts symbols and metadata from source files.
//
// Parser (this package's default) handles Go via the standard library
// (go/parser, go/ast, go/token). TreeSitterParser, built on
// smacker/go-tree-sitter, covers the TypeScript/JavaScript family.
// Registry dispatches between Implementations by file extension, so
// callers that just want "parse this file" never need to know which
// concrete parser ran.
//
// # Basic Usage
//
//	p := parser.New()
//	result, err := p.ParseFile("/path/to/file.go")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	for _, symbol := range result.Symbols {
//	    fmt.Printf("Found %s: %s\n", symbol.Kind, symbol.Name)
//	}
//
// # Features
//
// Symbol extraction includes:
//   - Functions and methods (with receiver types)
//   - Structs, interfaces, and type aliases
//   - Constants and variables
//   - Documentation comments
//   - Exported vs unexported scope
//   - Precise source positions (line/column)
//
// # Domain-Driven Design (DDD) Pattern Detection
//
// The parser automatically detects common DDD patterns based on naming
// conventions. Detection applies only to struct, interface, type and class
// symbols:
//
//	symbol.IsRepository    // "*Repository" or "*Repo" suffix
//	symbol.IsService       // "*Service" suffix
//	symbol.IsEntity        // "*Entity" suffix, or a name containing Order, User,
//	                       // Product, Account, Customer or Item that is not a
//	                       // *Service, *Repository or *Handler
//	symbol.IsAggregateRoot // "*Aggregate" or "*AggregateRoot" suffix (also sets IsEntity)
//	symbol.IsValueObject   // "*VO" or "*ValueObject" suffix
//	symbol.IsCommand       // "*Command" or "*Cmd" suffix (CQRS)
//	symbol.IsQuery         // "*Query" suffix (CQRS)
//	symbol.IsHandler       // "*Handler" suffix (CQRS)
//
// # Error Handling
//
// The parser handles syntax errors gracefully:
//
//	result, err := p.ParseFile("broken.go")
//	// err is nil even for syntax errors
//
//	if result.HasErrors() {
//	    for _, parseErr := range result.Errors {
//	        fmt.Printf("Parse error: %v\n", parseErr)
//	    }
//	}
//
//	// Partial results still returned for valid symbols
//	fmt.Printf("Extracted %d symbols despite errors\n", len(result.Symbols))
//
// This allows indexing to continue even when some files have syntax errors.
//
// # Performance
//
// The parser is optimized for batch processing:
//   - Reuses token.FileSet for memory efficiency
//   - Extracts all symbols in a single AST traversal
//   - Targets 100+ files/second on modern hardware
package parser
