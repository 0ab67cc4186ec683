package types

import "time"

// EdgeKind is the relationship type carried by a directed Edge between two
// symbols.
type EdgeKind string

const (
	EdgeCall           EdgeKind = "call"
	EdgeReference      EdgeKind = "reference"
	EdgeTypeExtends    EdgeKind = "type_extends"
	EdgeTypeImplements EdgeKind = "type_implements"
	EdgeTypeAlias      EdgeKind = "type_alias"
	EdgeImport         EdgeKind = "import"
	EdgeRead           EdgeKind = "read"
	EdgeWrite          EdgeKind = "write"
)

// EdgeResolution describes how confidently an edge's endpoints were tied
// together during extraction.
type EdgeResolution string

const (
	ResolutionLocal              EdgeResolution = "local"
	ResolutionPackage            EdgeResolution = "package"
	ResolutionCrossPackage       EdgeResolution = "cross-package"
	ResolutionImport             EdgeResolution = "import"
	ResolutionCrossPackageImport EdgeResolution = "cross-package-import"
	ResolutionUnknown            EdgeResolution = "unknown"
)

// Edge is a directed relationship between two symbols, produced during
// extraction and resolved (§4.5 stage 5) before commit.
type Edge struct {
	FromSymbolID  int64
	ToSymbolID    int64
	Kind          EdgeKind
	AtFile        string
	AtLine        int
	EvidenceCount int
	Resolution    EdgeResolution
}

// Fingerprint is the cheap per-file change-detection record (§3).
type Fingerprint struct {
	Path        string
	MtimeNS     int64
	SizeBytes   int64
	ContentHash string // optional; empty until the content-hash fallback runs
}

// Docstring holds the structured documentation entry for a symbol.
type Docstring struct {
	SymbolID    int64
	Summary     string
	Parameters  []DocParameter
	ReturnDesc  string
	Examples    []string
	Tags        map[string]string
}

// DocParameter is one entry of a Docstring's parameter table.
type DocParameter struct {
	Name string
	Desc string
}

// IsEmpty reports whether the docstring carries no useful content, used by
// the §4.7 step 6.4 documentation-boost signal.
func (d *Docstring) IsEmpty() bool {
	return d == nil || (d.Summary == "" && len(d.Parameters) == 0 && d.ReturnDesc == "" && len(d.Examples) == 0)
}

// DecoratorClass distinguishes decorators/annotations the extractor
// recognizes by name (framework-known) from everything else (custom).
type DecoratorClass string

const (
	DecoratorFrameworkKnown DecoratorClass = "framework-known"
	DecoratorCustom         DecoratorClass = "custom"
)

// Decorator is keyed by (symbol_id, name); cascade-deleted with its symbol.
type Decorator struct {
	SymbolID int64
	Name     string
	Class    DecoratorClass
}

// TODOKeyword distinguishes TODO from FIXME markers.
type TODOKeyword string

const (
	TODOKeywordTODO  TODOKeyword = "TODO"
	TODOKeywordFIXME TODOKeyword = "FIXME"
)

// TODOEntry is a scanned comment marker, associated with the nearest
// following symbol when one exists. Cascade-deleted with its file.
type TODOEntry struct {
	FilePath      string
	Line          int
	Keyword       TODOKeyword
	Text          string
	NearSymbolID  *int64
}

// TestLink is the bidirectional mapping between a test file/symbol and the
// subject file/symbol it tests, derived from filename conventions.
type TestLink struct {
	TestFilePath    string
	TestSymbolID    *int64
	SubjectFilePath string
	SubjectSymbolID *int64
}

// PackageEcosystem names the manifest dialect a Package was detected from.
type PackageEcosystem string

const (
	EcosystemGo     PackageEcosystem = "go"
	EcosystemNPM    PackageEcosystem = "npm"
	EcosystemCargo  PackageEcosystem = "cargo"
	EcosystemPyPI   PackageEcosystem = "pypi"
	EcosystemUnknown PackageEcosystem = "unknown"
)

// Package is a manifest-bounded unit of source code. ID is path-derived
// (never name-derived) to avoid name collisions between unrelated packages
// that happen to share a name.
type Package struct {
	ID           string
	Name         string
	Version      string
	ManifestPath string
	Ecosystem    PackageEcosystem
	RootDir      string
	RepoID       string
}

// Repository aggregates packages sharing a VCS root, identified by SHA-256 of
// the root path.
type Repository struct {
	ID       string
	RootPath string
}

// SymbolMetrics holds the per-symbol graph metrics recomputed at the end of
// every full index (§4.5 stage 8).
type SymbolMetrics struct {
	SymbolID           int64
	PageRank           float64
	PopularityCount    int64
	NormalizedPageRank float64
	InDegree           int64
	OutDegree          int64
	UpdatedAt          time.Time
}

// QuerySelection is an append-only record of a user selecting a symbol from
// a search's results, feeding the learning boost (§4.7.1).
type QuerySelection struct {
	QueryText         string
	QueryNormalized   string
	SelectedSymbolID  int64
	Position          int
	CreatedAt         time.Time
}

// FileAffinity tracks view/edit engagement per file, upserted with atomic
// counter increments.
type FileAffinity struct {
	FilePath       string
	ViewCount      int64
	EditCount      int64
	LastAccessedAt time.Time
}

// Intent is the coarse query category detected during §4.7 step 1, driving
// the intent multiplier of step 6.2.
type Intent string

const (
	IntentMigration      Intent = "migration"
	IntentSchema         Intent = "schema"
	IntentTest           Intent = "test"
	IntentDefinition     Intent = "definition"
	IntentCallers        Intent = "callers"
	IntentError          Intent = "error"
	IntentImplementation Intent = "implementation"
	IntentConfig         Intent = "config"
	IntentAPI            Intent = "api"
	IntentHook           Intent = "hook"
	IntentMiddleware     Intent = "middleware"
	IntentGeneral        Intent = "general"
)

// QueryControls carries the inline controls stripped from a raw query by
// §4.7 step 1 (`pkg:<name>` / `package:<name>`), plus the detected
// CallersOf target when Intent is IntentCallers.
type QueryControls struct {
	Package    string
	CallersOf  string
}

// HitSignals records every scoring contribution applied to a single
// candidate during §4.7 step 6, for transparency via the explain_search
// tool.
type HitSignals struct {
	KeywordScore      float64
	VectorScore       float64
	BaseScore         float64
	StructuralAdjust  float64
	IntentMult        float64
	DefinitionBias    float64
	PopularityBoost   float64
	LearningBoost     float64
	AffinityBoost     float64
	DocstringBoost    float64
	PackageBoost      float64
	RerankerScore     *float64 // nil if the reranker was unavailable
}
