package indexer

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	ignore "github.com/sabhiram/go-gitignore"
	"golang.org/x/sync/errgroup"

	"github.com/iceinvein/code-intelligence-mcp-server/internal/apperrors"
	"github.com/iceinvein/code-intelligence-mcp-server/internal/chunker"
	"github.com/iceinvein/code-intelligence-mcp-server/internal/embedder"
	"github.com/iceinvein/code-intelligence-mcp-server/internal/graph"
	"github.com/iceinvein/code-intelligence-mcp-server/internal/parser"
	"github.com/iceinvein/code-intelligence-mcp-server/internal/storage"
	"github.com/iceinvein/code-intelligence-mcp-server/pkg/types"
)

// Indexer coordinates the indexing pipeline: parse -> chunk -> embed -> store
type Indexer struct {
	parser   *parser.Registry
	chunker  *chunker.Chunker
	storage  storage.Storage
	embedder embedder.Embedder // nil means chunks are stored without embeddings
	graph    *graph.Engine

	// Worker pool configuration
	workers int

	// reindexLock guards IndexProject against overlapping runs on the same
	// Indexer; the MCP server shares one Indexer across every tool call, and
	// index_codebase/refresh_index both end up calling it.
	reindexLock IndexLock
}

// ErrIndexingInProgress is returned by IndexProject when another indexing
// run on the same Indexer is already in flight.
var ErrIndexingInProgress = fmt.Errorf("an indexing run is already in progress")

// DefaultEmbeddingBatch is the number of chunk texts sent per GenerateBatch
// call when Config.EmbeddingBatch is unset.
const DefaultEmbeddingBatch = 20

// Config contains configuration for the indexer
type Config struct {
	Workers            int     // Number of concurrent workers (default: runtime.NumCPU())
	BatchSize          int     // Number of files to commit per transaction (default: 20)
	IncludeTests       bool     // Whether to index test files (default: true)
	IncludeVendor      bool     // Whether to index vendor/node_modules directories (default: false)
	IndexPatterns      []string // Doublestar globs a file's relative path must match; empty means every extension the parser registry recognizes (.go, .ts, .tsx, .js, .jsx, ...)
	ExcludePatterns    []string // Doublestar globs that exclude a file even if IndexPatterns matched
	RespectGitignore   bool     // Whether to skip paths matched by the project's .gitignore (default: true)
	GenerateEmbeddings bool    // Whether to embed chunks after indexing (requires NewWithEmbedder)
	EmbeddingBatch     int     // Chunks per GenerateBatch call (default: DefaultEmbeddingBatch)
	ForceReindex       bool    // Reindex every file regardless of content hash
	PageRankDamping    float64 // Damping factor for the end-of-run PageRank recompute (default: 0.85)
	PageRankIterations int     // Power-iteration count for the end-of-run PageRank recompute (default: 20)
	PackageDetection   bool    // Whether to scan for and assign manifest-bounded packages (go.mod, package.json, Cargo.toml, pyproject.toml)
}

// Progress tracks indexing progress
type Progress struct {
	TotalFiles   int32
	IndexedFiles int32
	SkippedFiles int32
	FailedFiles  int32
	TotalSymbols int32
	TotalChunks  int32
	StartTime    time.Time
	EndTime      time.Time
}

// Statistics contains statistics about the indexing operation
type Statistics struct {
	FilesIndexed        int
	FilesSkipped        int
	FilesFailed         int
	SymbolsExtracted    int
	ChunksCreated       int
	EmbeddingsGenerated int
	EmbeddingsFailed    int
	EdgesResolved       int
	TestLinksResolved   int
	MetricsUpdated      int
	Duration            time.Duration
	ErrorMessages       []string
}

// pendingCall is an unresolved call edge collected during indexFile. Calls
// are resolved after every file in the run has been parsed, since a callee
// symbol may live in a file this worker hasn't reached yet.
type pendingCall struct {
	fromName    string
	fromPackage string
	toName      string
	toPackage   string
	atFile      string
	atLine      int
}

// pendingTypeRel is an unresolved struct-embedding, interface-embedding, or
// type-alias relationship, resolved the same way as pendingCall.
type pendingTypeRel struct {
	fromName    string
	fromPackage string
	toName      string
	kind        string
	atFile      string
	atLine      int
}

// pendingTestLink is an unresolved test-to-subject mapping: a TestXxx
// function found in a _test.go file, paired with the Xxx symbol it likely
// exercises once that symbol's ID is known.
type pendingTestLink struct {
	testFilePath string
	testSymbolID int64
	subjectName  string
	packageName  string
}

// New creates a new Indexer instance that stores chunks without embeddings.
func New(storage storage.Storage) *Indexer {
	return &Indexer{
		parser:  parser.NewRegistry(),
		chunker: chunker.New(),
		storage: storage,
		graph:   graph.New(storage),
		workers: runtime.NumCPU(),
	}
}

// NewWithEmbedder creates an Indexer that generates and stores a vector
// embedding for every chunk it indexes, using emb.
func NewWithEmbedder(storage storage.Storage, emb embedder.Embedder) *Indexer {
	idx := New(storage)
	idx.embedder = emb
	return idx
}

// IndexProject indexes an entire Go project. Returns ErrIndexingInProgress if
// another call is already indexing on this Indexer.
func (idx *Indexer) IndexProject(ctx context.Context, rootPath string, config *Config) (*Statistics, error) {
	if !idx.reindexLock.TryAcquire() {
		return nil, ErrIndexingInProgress
	}
	defer idx.reindexLock.Release()

	if config == nil {
		config = &Config{
			Workers:          runtime.NumCPU(),
			BatchSize:        20,
			IncludeTests:     true,
			IncludeVendor:    false,
			RespectGitignore: true,
		}
	}

	if config.Workers <= 0 {
		config.Workers = runtime.NumCPU()
	}
	idx.workers = config.Workers

	startTime := time.Now()
	stats := &Statistics{
		ErrorMessages: make([]string, 0),
	}

	// Get or create project
	project, err := idx.getOrCreateProject(ctx, rootPath)
	if err != nil {
		return nil, fmt.Errorf("failed to get or create project: %w", err)
	}

	// Discover Go files
	files, err := idx.discoverFiles(rootPath, config)
	if err != nil {
		return nil, fmt.Errorf("failed to discover files: %w", err)
	}

	// Detect manifest-bounded packages (go.mod, package.json, Cargo.toml,
	// pyproject.toml) up front so indexFile can assign each source file to
	// its owning package as it's stored.
	var packageDirs map[string]string
	if config.PackageDetection {
		packages, dirs := detectPackages(rootPath)
		for _, pkg := range packages {
			if err := idx.storage.UpsertPackage(ctx, pkg); err != nil {
				stats.ErrorMessages = append(stats.ErrorMessages, fmt.Sprintf("package %s: %v", pkg.ManifestPath, err))
				continue
			}
		}
		packageDirs = dirs
	}

	// Index files concurrently
	pending, err := idx.indexFiles(ctx, project, files, config, stats, packageDirs)
	if err != nil {
		return nil, fmt.Errorf("failed to index files: %w", err)
	}

	// Resolve cross-file call edges, type relations, and test links now that
	// every file's symbols are committed.
	if err := idx.resolveEdges(ctx, project, pending, stats); err != nil {
		return nil, fmt.Errorf("failed to resolve edges: %w", err)
	}

	// Update project statistics
	if err := idx.updateProjectStats(ctx, project); err != nil {
		return nil, fmt.Errorf("failed to update project stats: %w", err)
	}

	// Recompute PageRank and popularity now that the edge set is current.
	damping := config.PageRankDamping
	if damping <= 0 {
		damping = 0.85
	}
	iterations := config.PageRankIterations
	if iterations <= 0 {
		iterations = 20
	}
	metrics, err := idx.graph.RecomputeMetrics(ctx, project.ID, damping, iterations)
	if err != nil {
		stats.ErrorMessages = append(stats.ErrorMessages, fmt.Sprintf("pagerank recompute: %v", err))
	} else {
		if err := idx.storage.BatchUpsertSymbolMetrics(ctx, metrics); err != nil {
			stats.ErrorMessages = append(stats.ErrorMessages, fmt.Sprintf("store pagerank metrics: %v", err))
		} else {
			stats.MetricsUpdated = len(metrics)
		}
	}

	stats.Duration = time.Since(startTime)
	return stats, nil
}

// getOrCreateProject retrieves an existing project or creates a new one
func (idx *Indexer) getOrCreateProject(ctx context.Context, rootPath string) (*storage.Project, error) {
	// Try to get existing project
	project, err := idx.storage.GetProject(ctx, rootPath)
	if err == nil {
		return project, nil
	}

	if err != storage.ErrNotFound {
		return nil, err
	}

	// Create new project
	project = &storage.Project{
		RootPath:     rootPath,
		IndexVersion: storage.CurrentSchemaVersion,
	}

	// Try to extract module info from go.mod
	goModPath := filepath.Join(rootPath, "go.mod")
	if modInfo, err := parseGoMod(goModPath); err == nil {
		project.ModuleName = modInfo.Module
		project.GoVersion = modInfo.GoVersion
	}

	if err := idx.storage.CreateProject(ctx, project); err != nil {
		return nil, err
	}

	return project, nil
}

// discoverFiles finds all source files the parser registry recognizes
func (idx *Indexer) discoverFiles(rootPath string, config *Config) ([]string, error) {
	var files []string

	gitignore := loadGitignore(rootPath, config)

	err := filepath.Walk(rootPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		relPath, relErr := filepath.Rel(rootPath, path)
		if relErr != nil {
			relPath = path
		}

		// Skip directories
		if info.IsDir() {
			// Skip vendor/node_modules (the Go and JS/TS equivalents of
			// vendored dependency trees) unless explicitly included
			if !config.IncludeVendor && (info.Name() == "vendor" || info.Name() == "node_modules") {
				return filepath.SkipDir
			}
			// Skip hidden directories
			if strings.HasPrefix(info.Name(), ".") && relPath != "." {
				return filepath.SkipDir
			}
			if gitignore != nil && relPath != "." && gitignore.MatchesPath(relPath) {
				return filepath.SkipDir
			}
			return nil
		}

		// Check if it's a file type the parser registry has an implementation for
		if !recognizedSourceExts[strings.ToLower(filepath.Ext(path))] {
			return nil
		}

		// Skip test files unless explicitly included
		if !config.IncludeTests && strings.HasSuffix(path, "_test.go") {
			return nil
		}

		if gitignore != nil && gitignore.MatchesPath(relPath) {
			return nil
		}

		if !matchesIndexPatterns(relPath, config.IndexPatterns) {
			return nil
		}
		if matchesExcludePatterns(relPath, config.ExcludePatterns) {
			return nil
		}

		files = append(files, path)
		return nil
	})

	return files, err
}

// recognizedSourceExts lists every extension the parser registry has a
// language implementation for; anything else is skipped during discovery
// regardless of IndexPatterns.
var recognizedSourceExts = map[string]bool{
	".go":  true,
	".ts":  true,
	".mts": true,
	".cts": true,
	".tsx": true,
	".js":  true,
	".jsx": true,
	".mjs": true,
}

// loadGitignore compiles the project's root .gitignore, if RespectGitignore
// is set and the file exists. A missing or unparseable file just disables
// gitignore-based filtering rather than failing the walk.
func loadGitignore(rootPath string, config *Config) *ignore.GitIgnore {
	if !config.RespectGitignore {
		return nil
	}
	gi, err := ignore.CompileIgnoreFile(filepath.Join(rootPath, ".gitignore"))
	if err != nil {
		return nil
	}
	return gi
}

// matchesIndexPatterns reports whether relPath matches one of the configured
// doublestar globs. An empty pattern list means "any recognized source
// file", since the walk above has already filtered to recognizedSourceExts.
func matchesIndexPatterns(relPath string, patterns []string) bool {
	if len(patterns) == 0 {
		return true
	}
	for _, pattern := range patterns {
		if matched, err := doublestar.Match(pattern, relPath); err == nil && matched {
			return true
		}
	}
	return false
}

// matchesExcludePatterns reports whether relPath matches any of the
// configured doublestar exclusion globs.
func matchesExcludePatterns(relPath string, patterns []string) bool {
	for _, pattern := range patterns {
		if matched, err := doublestar.Match(pattern, relPath); err == nil && matched {
			return true
		}
	}
	return false
}

// chunkWithID pairs a stored chunk with the text it was embedded from, so
// embedding generation can run as a second pass after all chunks in the
// project have been committed.
type chunkWithID struct {
	chunk   *storage.Chunk
	content string
}

// pendingEdges accumulates every unresolved relationship discovered across
// all files in a run, handed to resolveEdges once indexFiles returns.
type pendingEdges struct {
	calls     []pendingCall
	typeRels  []pendingTypeRel
	testLinks []pendingTestLink
}

// indexFiles indexes a batch of files concurrently
func (idx *Indexer) indexFiles(ctx context.Context, project *storage.Project, files []string, config *Config, stats *Statistics, packageDirs map[string]string) (*pendingEdges, error) {
	// Create worker pool with semaphore
	semaphore := make(chan struct{}, idx.workers)

	// Track progress with atomic counters
	var (
		indexed int32
		skipped int32
		failed  int32
		symbols int32
		chunks  int32
	)

	// Process files in batches for transaction efficiency
	batchSize := config.BatchSize
	if batchSize <= 0 {
		batchSize = 20
	}

	// Use errgroup for concurrent processing with error propagation
	g, gctx := errgroup.WithContext(ctx)
	var mu sync.Mutex // Protect stats.ErrorMessages, pendingChunks, and pending
	var pendingChunks []chunkWithID
	pending := &pendingEdges{}

	for i := 0; i < len(files); i += batchSize {
		end := i + batchSize
		if end > len(files) {
			end = len(files)
		}
		batch := files[i:end]

		g.Go(func() error {
			return idx.indexBatch(gctx, project, batch, semaphore, config.ForceReindex, &indexed, &skipped, &failed, &symbols, &chunks, &mu, stats, &pendingChunks, pending, packageDirs)
		})
	}

	// Wait for all goroutines to complete
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Update statistics
	stats.FilesIndexed = int(indexed)
	stats.FilesSkipped = int(skipped)
	stats.FilesFailed = int(failed)
	stats.SymbolsExtracted = int(symbols)
	stats.ChunksCreated = int(chunks)

	if config.GenerateEmbeddings && idx.embedder != nil && len(pendingChunks) > 0 {
		var embeddings, embeddingsFail int32
		idx.generateEmbeddingsForChunks(ctx, pendingChunks, config.EmbeddingBatch, &embeddings, &embeddingsFail, &mu, stats)
		stats.EmbeddingsGenerated = int(embeddings)
		stats.EmbeddingsFailed = int(embeddingsFail)
	}

	return pending, nil
}

// generateEmbeddingsForChunks embeds and stores chunks in groups of
// batchSize, using the embedder's batch API. A failed group is recorded in
// stats without aborting the remaining groups.
func (idx *Indexer) generateEmbeddingsForChunks(ctx context.Context, chunks []chunkWithID, batchSize int,
	embeddings, embeddingsFail *int32, mu *sync.Mutex, stats *Statistics) {

	if batchSize <= 0 {
		batchSize = DefaultEmbeddingBatch
	}

	for i := 0; i < len(chunks); i += batchSize {
		end := i + batchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		group := chunks[i:end]

		texts := make([]string, len(group))
		for j, c := range group {
			texts[j] = c.content
		}

		resp, err := idx.embedder.GenerateBatch(ctx, embedder.BatchEmbeddingRequest{Texts: texts})
		if err != nil {
			atomic.AddInt32(embeddingsFail, int32(len(group)))
			mu.Lock()
			stats.ErrorMessages = append(stats.ErrorMessages, fmt.Sprintf("embedding batch: %v", err))
			mu.Unlock()
			continue
		}

		for j, c := range group {
			vec := resp.Embeddings[j]
			err := idx.storage.UpsertEmbedding(ctx, &storage.Embedding{
				ChunkID:   c.chunk.ID,
				Vector:    storage.SerializeVector(vec.Vector),
				Dimension: vec.Dimension,
				Provider:  vec.Provider,
				Model:     vec.Model,
			})
			if err != nil {
				atomic.AddInt32(embeddingsFail, 1)
				mu.Lock()
				stats.ErrorMessages = append(stats.ErrorMessages, fmt.Sprintf("store embedding for chunk %d: %v", c.chunk.ID, err))
				mu.Unlock()
				continue
			}
			atomic.AddInt32(embeddings, 1)
		}
	}
}

// indexBatch indexes a batch of files within a transaction
func (idx *Indexer) indexBatch(ctx context.Context, project *storage.Project, files []string,
	semaphore chan struct{}, forceReindex bool, indexed, skipped, failed, symbols, chunks *int32,
	mu *sync.Mutex, stats *Statistics, pendingChunks *[]chunkWithID, pending *pendingEdges, packageDirs map[string]string) error {

	// Start a transaction for this batch
	tx, err := idx.storage.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	// Process each file in the batch
	for _, filePath := range files {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case semaphore <- struct{}{}:
			// Acquire semaphore
		}

		result, err := idx.indexFile(ctx, tx, project, filePath, forceReindex, indexed, skipped, failed, symbols, chunks, packageDirs)
		<-semaphore // Release semaphore

		if err != nil {
			atomic.AddInt32(failed, 1)
			mu.Lock()
			stats.ErrorMessages = append(stats.ErrorMessages, fmt.Sprintf("%s: %v", filePath, err))
			mu.Unlock()
			// Continue with other files
			continue
		}
		if result == nil {
			continue
		}

		mu.Lock()
		*pendingChunks = append(*pendingChunks, result.chunks...)
		pending.calls = append(pending.calls, result.calls...)
		pending.typeRels = append(pending.typeRels, result.typeRels...)
		pending.testLinks = append(pending.testLinks, result.testLinks...)
		mu.Unlock()
	}

	// Commit the batch
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// fileIndexResult carries everything a single file contributed that needs
// further processing once the whole run's symbol table is committed:
// chunks awaiting embedding, and calls/type relations/test links awaiting
// cross-file resolution.
type fileIndexResult struct {
	chunks    []chunkWithID
	calls     []pendingCall
	typeRels  []pendingTypeRel
	testLinks []pendingTestLink
}

// indexFile indexes a single file and returns the chunks and unresolved
// relationships it produced.
func (idx *Indexer) indexFile(ctx context.Context, store storage.Storage, project *storage.Project,
	filePath string, forceReindex bool, indexed, skipped, failed, symbols, chunks *int32, packageDirs map[string]string) (*fileIndexResult, error) {

	// Compute relative path
	relPath, err := filepath.Rel(project.RootPath, filePath)
	if err != nil {
		return nil, err
	}

	// Compute file hash
	hash, modTime, sizeBytes, err := computeFileHash(filePath)
	if err != nil {
		return nil, apperrors.E(apperrors.IoFailure, "indexer.indexFile", err)
	}

	// Check if file has changed and handle incremental update
	shouldSkip, err := idx.checkFileChanged(ctx, store, project.ID, relPath, hash, forceReindex, skipped)
	if err != nil {
		return nil, err
	}
	if shouldSkip {
		return nil, nil
	}

	// Parse the file
	parseResult, err := idx.parser.ParseFile(filePath)
	if err != nil {
		return nil, apperrors.E(apperrors.ParseError, "indexer.indexFile", err)
	}

	// Create or update file record
	file := &storage.File{
		ProjectID:   project.ID,
		FilePath:    relPath,
		PackageName: parseResult.PackageName,
		ContentHash: hash,
		ModTime:     modTime,
		SizeBytes:   sizeBytes,
	}

	// Check for parse errors
	if len(parseResult.Errors) > 0 {
		errMsg := parseResult.Errors[0].Message
		file.ParseError = &errMsg
	}

	if err := store.UpsertFile(ctx, file); err != nil {
		return nil, err
	}

	if packageID, ok := packageForFile(packageDirs, relPath); ok {
		if err := store.AssignFilePackage(ctx, file.ID, packageID); err != nil {
			return nil, fmt.Errorf("failed to assign file package: %w", err)
		}
	}

	// Store imports
	for _, imp := range parseResult.Imports {
		impRecord := &storage.Import{
			FileID:     file.ID,
			ImportPath: imp.Path,
			Alias:      imp.Alias,
		}
		if err := store.UpsertImport(ctx, impRecord); err != nil {
			return nil, fmt.Errorf("failed to store import: %w", err)
		}
	}

	// Store symbols, keeping a same-file name index for decorator/TODO
	// anchoring and for the local half of call/type-relation resolution.
	symbolCount := 0
	byName := make(map[string]*storage.Symbol, len(parseResult.Symbols))
	for i := range parseResult.Symbols {
		sym := storage.FromTypesSymbol(parseResult.Symbols[i], file.ID)
		if err := store.UpsertSymbol(ctx, sym); err != nil {
			return nil, fmt.Errorf("failed to store symbol: %w", err)
		}
		byName[sym.Name] = sym
		symbolCount++
	}

	for _, dec := range parseResult.Decorators {
		sym, ok := byName[dec.SymbolName]
		if !ok {
			continue
		}
		if err := store.UpsertDecorator(ctx, &storage.Decorator{
			SymbolID: sym.ID,
			Name:     dec.Name,
			Class:    dec.Class,
		}); err != nil {
			return nil, fmt.Errorf("failed to store decorator: %w", err)
		}
	}

	for _, todo := range parseResult.TODOs {
		entry := &storage.TODOEntry{
			FileID:   file.ID,
			FilePath: relPath,
			Line:     todo.Line,
			Keyword:  todo.Keyword,
			Text:     todo.Text,
		}
		if sym, ok := byName[todo.NearSymbol]; ok {
			id := sym.ID
			entry.NearSymbolID = &id
		}
		if err := store.UpsertTODO(ctx, entry); err != nil {
			return nil, fmt.Errorf("failed to store todo: %w", err)
		}
	}

	var pendingCalls []pendingCall
	for _, call := range parseResult.Calls {
		pendingCalls = append(pendingCalls, pendingCall{
			fromName:    call.FromName,
			fromPackage: parseResult.PackageName,
			toName:      call.ToName,
			toPackage:   call.ToPackage,
			atFile:      relPath,
			atLine:      call.Line,
		})
	}

	var pendingTypeRels []pendingTypeRel
	for _, rel := range parseResult.TypeRelations {
		pendingTypeRels = append(pendingTypeRels, pendingTypeRel{
			fromName:    rel.FromName,
			fromPackage: parseResult.PackageName,
			toName:      rel.ToName,
			kind:        rel.Kind,
			atFile:      relPath,
			atLine:      rel.Line,
		})
	}

	var pendingTestLinks []pendingTestLink
	if strings.HasSuffix(relPath, "_test.go") {
		for _, sym := range parseResult.Symbols {
			if sym.Kind != types.KindFunction || !strings.HasPrefix(sym.Name, "Test") {
				continue
			}
			subject := strings.TrimPrefix(sym.Name, "Test")
			if subject == "" {
				continue
			}
			testSym, ok := byName[sym.Name]
			if !ok {
				continue
			}
			pendingTestLinks = append(pendingTestLinks, pendingTestLink{
				testFilePath: relPath,
				testSymbolID: testSym.ID,
				subjectName:  subject,
				packageName:  parseResult.PackageName,
			})
		}
	}

	// Create chunks
	fileChunks, err := idx.chunker.ChunkFile(filePath, parseResult, file.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to chunk file: %w", err)
	}

	// Store chunks
	chunkCount := 0
	createdChunks := make([]chunkWithID, 0, len(fileChunks))
	for _, chunk := range fileChunks {
		storageChunk := &storage.Chunk{
			FileID:        file.ID,
			SymbolID:      chunk.SymbolID,
			Content:       chunk.Content,
			ContentHash:   chunk.ContentHash,
			TokenCount:    chunk.TokenCount,
			StartLine:     chunk.StartLine,
			EndLine:       chunk.EndLine,
			ContextBefore: chunk.ContextBefore,
			ContextAfter:  chunk.ContextAfter,
			ChunkType:     string(chunk.ChunkType),
		}
		if err := store.UpsertChunk(ctx, storageChunk); err != nil {
			return nil, fmt.Errorf("failed to store chunk: %w", err)
		}
		chunkCount++
		createdChunks = append(createdChunks, chunkWithID{chunk: storageChunk, content: storageChunk.Content})
	}

	// Update counters
	atomic.AddInt32(indexed, 1)
	atomic.AddInt32(symbols, int32(symbolCount))
	atomic.AddInt32(chunks, int32(chunkCount))

	return &fileIndexResult{
		chunks:    createdChunks,
		calls:     pendingCalls,
		typeRels:  pendingTypeRels,
		testLinks: pendingTestLinks,
	}, nil
}

// checkFileChanged checks if a file has changed and needs re-indexing.
// forceReindex bypasses the hash comparison entirely, treating every file
// as changed.
func (idx *Indexer) checkFileChanged(ctx context.Context, store storage.Storage, projectID int64,
	relPath string, hash [32]byte, forceReindex bool, skipped *int32) (bool, error) {

	existingFile, err := store.GetFile(ctx, projectID, relPath)
	if err == storage.ErrNotFound {
		// New file, needs indexing
		return false, nil
	}
	if err != nil {
		return false, err
	}

	// File exists - check if it has changed
	if !forceReindex && existingFile.ContentHash == hash {
		// File unchanged, skip
		atomic.AddInt32(skipped, 1)
		return true, nil
	}

	// File changed (or force reindex requested) - delete old chunks before re-indexing
	if err := store.DeleteChunksByFile(ctx, existingFile.ID); err != nil {
		return false, fmt.Errorf("failed to delete old chunks: %w", err)
	}

	return false, nil
}

// resolveEdges resolves every call, type relation, and test link gathered
// across the run against the now-complete symbol table, and stores
// whatever resolves as an edge or test link. Unresolved references
// (callees the parser couldn't see, usually because they live outside the
// project) are dropped silently; AST-only extraction produces noise that
// only a full symbol table lets it filter.
func (idx *Indexer) resolveEdges(ctx context.Context, project *storage.Project, pending *pendingEdges, stats *Statistics) error {
	if pending == nil {
		return nil
	}

	resolved := 0
	for _, c := range pending.calls {
		fromSyms, err := idx.storage.FindSymbolsByName(ctx, project.ID, c.fromName, c.fromPackage)
		if err != nil || len(fromSyms) == 0 {
			continue
		}
		toPackageHint := c.toPackage
		if toPackageHint == c.fromPackage {
			toPackageHint = ""
		}
		toSyms, resolution := idx.resolveCallee(ctx, project.ID, c.toName, c.fromPackage, toPackageHint)
		if len(toSyms) == 0 {
			continue
		}
		edge := &storage.Edge{
			FromSymbolID: fromSyms[0].ID,
			ToSymbolID:   toSyms[0].ID,
			Kind:         "call",
			AtFile:       c.atFile,
			AtLine:       c.atLine,
			Resolution:   resolution,
		}
		if err := idx.storage.UpsertEdge(ctx, edge); err != nil {
			stats.ErrorMessages = append(stats.ErrorMessages, fmt.Sprintf("upsert call edge %s->%s: %v", c.fromName, c.toName, err))
			continue
		}
		resolved++
	}

	for _, r := range pending.typeRels {
		fromSyms, err := idx.storage.FindSymbolsByName(ctx, project.ID, r.fromName, r.fromPackage)
		if err != nil || len(fromSyms) == 0 {
			continue
		}
		resolution := "exact"
		toSyms, err := idx.storage.FindSymbolsByName(ctx, project.ID, r.toName, r.fromPackage)
		if err != nil || len(toSyms) == 0 {
			resolution = "heuristic"
			toSyms, err = idx.storage.FindSymbolsByName(ctx, project.ID, r.toName, "")
			if err != nil || len(toSyms) == 0 {
				continue
			}
		}
		edge := &storage.Edge{
			FromSymbolID: fromSyms[0].ID,
			ToSymbolID:   toSyms[0].ID,
			Kind:         r.kind,
			AtFile:       r.atFile,
			AtLine:       r.atLine,
			Resolution:   resolution,
		}
		if err := idx.storage.UpsertEdge(ctx, edge); err != nil {
			stats.ErrorMessages = append(stats.ErrorMessages, fmt.Sprintf("upsert type edge %s->%s: %v", r.fromName, r.toName, err))
			continue
		}
		resolved++
	}
	stats.EdgesResolved = resolved

	linked := 0
	for _, l := range pending.testLinks {
		subjectSyms, err := idx.storage.FindSymbolsByName(ctx, project.ID, l.subjectName, l.packageName)
		if err != nil || len(subjectSyms) == 0 {
			continue
		}
		subjectFile, err := idx.storage.GetFileByID(ctx, subjectSyms[0].FileID)
		if err != nil {
			continue
		}
		testSymbolID := l.testSymbolID
		subjectSymbolID := subjectSyms[0].ID
		link := &storage.TestLink{
			TestFilePath:    l.testFilePath,
			TestSymbolID:    &testSymbolID,
			SubjectFilePath: subjectFile.FilePath,
			SubjectSymbolID: &subjectSymbolID,
		}
		if err := idx.storage.UpsertTestLink(ctx, link); err != nil {
			stats.ErrorMessages = append(stats.ErrorMessages, fmt.Sprintf("upsert test link %s: %v", l.testFilePath, err))
			continue
		}
		linked++
	}
	stats.TestLinksResolved = linked

	return nil
}

// resolveCallee looks up a call target first within the caller's own
// package, then, if the call was a qualified selector naming a different
// package, across that package. Falling back to a project-wide search with
// no package filter is a heuristic: AST-only extraction can't tell a call
// through a package alias from a method call through a local variable that
// happens to share a name with an import.
func (idx *Indexer) resolveCallee(ctx context.Context, projectID int64, name, samePackage, packageHint string) ([]*storage.Symbol, string) {
	if syms, err := idx.storage.FindSymbolsByName(ctx, projectID, name, samePackage); err == nil && len(syms) > 0 {
		return syms, "exact"
	}
	if packageHint != "" {
		if syms, err := idx.storage.FindSymbolsByName(ctx, projectID, name, packageHint); err == nil && len(syms) > 0 {
			return syms, "exact"
		}
	}
	syms, err := idx.storage.FindSymbolsByName(ctx, projectID, name, "")
	if err != nil {
		return nil, ""
	}
	return syms, "heuristic"
}

// updateProjectStats refreshes the project's file and chunk counts.
func (idx *Indexer) updateProjectStats(ctx context.Context, project *storage.Project) error {
	// Get file count
	files, err := idx.storage.ListFiles(ctx, project.ID)
	if err != nil {
		return err
	}

	// Count chunks across all files
	totalChunks := 0
	for _, file := range files {
		chunks, err := idx.storage.ListChunksByFile(ctx, file.ID)
		if err != nil {
			return err
		}
		totalChunks += len(chunks)
	}

	project.TotalFiles = len(files)
	project.TotalChunks = totalChunks
	project.LastIndexedAt = time.Now()

	return idx.storage.UpdateProject(ctx, project)
}

// computeFileHash computes SHA-256 hash of a file
func computeFileHash(filePath string) ([32]byte, time.Time, int64, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return [32]byte{}, time.Time{}, 0, err
	}
	defer func() { _ = file.Close() }()

	// Get file info
	info, err := file.Stat()
	if err != nil {
		return [32]byte{}, time.Time{}, 0, err
	}

	// Compute hash
	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		return [32]byte{}, time.Time{}, 0, err
	}

	var result [32]byte
	copy(result[:], hash.Sum(nil))

	return result, info.ModTime(), info.Size(), nil
}

// goModInfo contains parsed go.mod information
type goModInfo struct {
	Module    string
	GoVersion string
}

// parseGoMod extracts basic info from go.mod file
func parseGoMod(goModPath string) (*goModInfo, error) {
	content, err := os.ReadFile(goModPath)
	if err != nil {
		return nil, err
	}

	info := &goModInfo{}
	lines := strings.Split(string(content), "\n")

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "module ") {
			info.Module = strings.TrimSpace(strings.TrimPrefix(line, "module"))
		} else if strings.HasPrefix(line, "go ") {
			info.GoVersion = strings.TrimSpace(strings.TrimPrefix(line, "go"))
		}
	}

	return info, nil
}
