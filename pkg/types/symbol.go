package types

import (
	"errors"
	"go/token"
	"hash/fnv"
	"strconv"
)

// SymbolKind represents the type of a code symbol. The set covers every
// language the Parser capability may front, not just Go; a given concrete
// parser only ever emits the subset relevant to its language.
type SymbolKind string

const (
	KindFunction  SymbolKind = "function"
	KindMethod    SymbolKind = "method"
	KindClass     SymbolKind = "class"
	KindStruct    SymbolKind = "struct"
	KindInterface SymbolKind = "interface"
	KindEnum      SymbolKind = "enum"
	KindTrait     SymbolKind = "trait"
	KindImpl      SymbolKind = "impl"
	KindType      SymbolKind = "type"
	KindTypeAlias SymbolKind = "type-alias"
	KindConst     SymbolKind = "const"
	KindVar       SymbolKind = "var"
	KindVariable  SymbolKind = "variable"
	KindField     SymbolKind = "field"
	KindModule    SymbolKind = "module"
	KindFileRoot  SymbolKind = "file-root"
)

// SymbolScope represents the visibility scope of a symbol
type SymbolScope string

const (
	ScopeExported     SymbolScope = "exported"
	ScopeUnexported   SymbolScope = "unexported"
	ScopePackageLocal SymbolScope = "package_local"
)

// Position represents a location in source code
type Position struct {
	Line   int
	Column int
}

// Symbol represents a code symbol extracted from a parsed source file.
//
// ID is stable across runs: FNV-1a of (repo-relative file path, name, start
// byte offset). Callers that already hold an ID (from a prior search result)
// can pass it straight back into hydrate_symbols or get_definition without
// re-deriving it.
type Symbol struct {
	ID int64

	// Identification
	Name     string
	Kind     SymbolKind
	Package  string
	Language string

	// FilePath is repo-relative; StartByte anchors the id computation.
	FilePath  string
	StartByte int
	PackageID string // Package.ID this symbol belongs to, if detected

	// Content
	Signature  string // Function signature or type definition
	DocComment string

	// Scope
	Scope    SymbolScope
	Receiver string // For methods: receiver type name

	// Location
	Start Position
	End   Position

	// DDD Pattern Detection Flags
	IsAggregateRoot bool
	IsEntity        bool
	IsValueObject   bool
	IsRepository    bool
	IsService       bool
	IsCommand       bool
	IsQuery         bool
	IsHandler       bool
}

// ComputeID derives the stable symbol id per the data model: FNV-1a over
// "<file path>\x00<name>\x00<start byte>". Call after FilePath, Name, and
// StartByte are all set.
func (s *Symbol) ComputeID() int64 {
	h := fnv.New64a()
	h.Write([]byte(s.FilePath))
	h.Write([]byte{0})
	h.Write([]byte(s.Name))
	h.Write([]byte{0})
	h.Write([]byte(strconv.Itoa(s.StartByte)))
	s.ID = int64(h.Sum64())
	return s.ID
}

// ValidateKind checks if the symbol kind is valid
func (s *Symbol) ValidateKind() error {
	switch s.Kind {
	case KindFunction, KindMethod, KindStruct, KindInterface, KindType, KindConst, KindVar, KindField:
		return nil
	default:
		return errors.New("invalid symbol kind")
	}
}

// ValidateScope checks if the symbol scope is valid
func (s *Symbol) ValidateScope() error {
	switch s.Scope {
	case ScopeExported, ScopeUnexported, ScopePackageLocal:
		return nil
	default:
		return errors.New("invalid symbol scope")
	}
}

// IsExported returns true if the symbol is exported (visible outside package).
// Falls back to the Go capitalization convention when Scope was never set by
// a non-Go extractor.
func (s *Symbol) IsExported() bool {
	if s.Scope == ScopeExported {
		return true
	}
	if s.Scope == "" {
		return token.IsExported(s.Name)
	}
	return false
}

// Validate performs comprehensive validation of the symbol
func (s *Symbol) Validate() error {
	if s.Name == "" {
		return errors.New("symbol name is required")
	}

	if err := s.ValidateKind(); err != nil {
		return err
	}

	if err := s.ValidateScope(); err != nil {
		return err
	}

	if s.Package == "" {
		return errors.New("package name is required")
	}

	// Methods must have a receiver
	if s.Kind == KindMethod && s.Receiver == "" {
		return errors.New("methods must have a receiver type")
	}

	// Non-methods should not have a receiver
	if s.Kind != KindMethod && s.Receiver != "" {
		return errors.New("only methods can have a receiver type")
	}

	// Position validation
	if s.Start.Line <= 0 || s.End.Line <= 0 {
		return errors.New("invalid position: line numbers must be positive")
	}

	if s.Start.Line > s.End.Line {
		return errors.New("invalid position: start line must be before or equal to end line")
	}

	return nil
}

// IsDDDPattern returns true if this symbol matches any DDD pattern
func (s *Symbol) IsDDDPattern() bool {
	return s.IsAggregateRoot || s.IsEntity || s.IsValueObject ||
		s.IsRepository || s.IsService || s.IsCommand || s.IsQuery || s.IsHandler
}
