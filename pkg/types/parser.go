package types

// ParseResult represents the output of parsing a Go source file
type ParseResult struct {
	// Extracted data
	Symbols     []Symbol
	Imports     []Import
	PackageName string

	// Relationships discovered by AST-only inspection (no type-checking), so
	// every reference here is a name that the indexer must still resolve
	// against the symbol table, same-file first then project-wide.
	Calls         []CallRef
	TypeRelations []TypeRelRef
	TODOs         []TODORef
	Decorators    []DecoratorRef

	// Errors encountered during parsing
	Errors []ParseError
}

// Import represents an import statement in a Go file
type Import struct {
	Path  string // Import path (e.g., "github.com/pkg/errors")
	Alias string // Import alias if present (e.g., ".")
}

// CallRef is an unresolved call-site reference: FromName calls ToName at
// Line. ToPackage is set when the call was a qualified selector
// (pkg.Func), empty when it was a bare identifier resolved within the file.
type CallRef struct {
	FromName  string
	ToName    string
	ToPackage string
	Line      int
}

// TypeRelRef is an unresolved type relationship: FromName relates to
// ToName via Kind ("type_extends" for struct embedding, "type_implements"
// for interface embedding or satisfaction, "type_alias" for a type alias).
type TypeRelRef struct {
	FromName string
	ToName   string
	Kind     string
	Line     int
}

// TODORef is a scanned TODO/FIXME/HACK/XXX comment marker.
type TODORef struct {
	Line    int
	Keyword string
	Text    string
	// NearSymbol is the name of the nearest symbol declared at or after
	// Line, used to anchor the marker once symbol IDs exist.
	NearSymbol string
}

// DecoratorRef is an `@Name(...)`-style annotation found in a symbol's doc
// comment, the Go-ecosystem convention (swag/gin-swagger route and schema
// annotations) closest to the decorator concept in languages that have one.
type DecoratorRef struct {
	SymbolName string
	Name       string
	Class      string
}

// ParseError represents an error that occurred during parsing
type ParseError struct {
	File    string
	Line    int
	Column  int
	Message string
}

// Error implements the error interface
func (pe *ParseError) Error() string {
	return pe.Message
}

// HasErrors returns true if any parsing errors occurred
func (pr *ParseResult) HasErrors() bool {
	return len(pr.Errors) > 0
}

// AddError adds a parsing error to the result
func (pr *ParseResult) AddError(file string, line, col int, msg string) {
	pr.Errors = append(pr.Errors, ParseError{
		File:    file,
		Line:    line,
		Column:  col,
		Message: msg,
	})
}
