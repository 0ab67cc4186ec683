package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// Edge operations

func (s *SQLiteStorage) upsertEdgeWithQuerier(ctx context.Context, q querier, edge *Edge) error {
	query := `
		INSERT INTO edges (from_symbol_id, to_symbol_id, kind, at_file, at_line, evidence_count, resolution, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(from_symbol_id, to_symbol_id, kind, at_file, at_line) DO UPDATE SET
			evidence_count = evidence_count + 1,
			resolution = excluded.resolution
		RETURNING id, evidence_count
	`
	now := time.Now()
	err := q.QueryRowContext(ctx, query,
		edge.FromSymbolID, edge.ToSymbolID, edge.Kind, edge.AtFile, edge.AtLine,
		max(edge.EvidenceCount, 1), edge.Resolution, now).Scan(&edge.ID, &edge.EvidenceCount) //nolint:predeclared -- builtin max(int,int) from go1.21
	if err != nil {
		return fmt.Errorf("failed to upsert edge: %w", err)
	}
	edge.CreatedAt = now
	return nil
}

func (s *SQLiteStorage) UpsertEdge(ctx context.Context, edge *Edge) error {
	return s.upsertEdgeWithQuerier(ctx, s.querier(), edge)
}

func (s *SQLiteStorage) listEdgesFromWithQuerier(ctx context.Context, q querier, fromSymbolID int64, kinds []string) ([]*Edge, error) {
	query := `
		SELECT id, from_symbol_id, to_symbol_id, kind, at_file, at_line, evidence_count, resolution, created_at
		FROM edges WHERE from_symbol_id = ?
	`
	args := []interface{}{fromSymbolID}
	if len(kinds) > 0 {
		query += " AND kind IN (" + placeholders(len(kinds)) + ")"
		for _, k := range kinds {
			args = append(args, k)
		}
	}
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list edges from symbol: %w", err)
	}
	defer rows.Close()
	return scanEdges(rows)
}

func (s *SQLiteStorage) ListEdgesFrom(ctx context.Context, fromSymbolID int64, kinds []string) ([]*Edge, error) {
	return s.listEdgesFromWithQuerier(ctx, s.querier(), fromSymbolID, kinds)
}

func (s *SQLiteStorage) listEdgesToWithQuerier(ctx context.Context, q querier, toSymbolID int64, kinds []string) ([]*Edge, error) {
	query := `
		SELECT id, from_symbol_id, to_symbol_id, kind, at_file, at_line, evidence_count, resolution, created_at
		FROM edges WHERE to_symbol_id = ?
	`
	args := []interface{}{toSymbolID}
	if len(kinds) > 0 {
		query += " AND kind IN (" + placeholders(len(kinds)) + ")"
		for _, k := range kinds {
			args = append(args, k)
		}
	}
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list edges to symbol: %w", err)
	}
	defer rows.Close()
	return scanEdges(rows)
}

func (s *SQLiteStorage) ListEdgesTo(ctx context.Context, toSymbolID int64, kinds []string) ([]*Edge, error) {
	return s.listEdgesToWithQuerier(ctx, s.querier(), toSymbolID, kinds)
}

func scanEdges(rows *sql.Rows) ([]*Edge, error) {
	var edges []*Edge
	for rows.Next() {
		var e Edge
		if err := rows.Scan(&e.ID, &e.FromSymbolID, &e.ToSymbolID, &e.Kind, &e.AtFile, &e.AtLine, &e.EvidenceCount, &e.Resolution, &e.CreatedAt); err != nil {
			return nil, err
		}
		edges = append(edges, &e)
	}
	return edges, rows.Err()
}

func (s *SQLiteStorage) deleteEdgesByFileWithQuerier(ctx context.Context, q querier, atFile string) error {
	_, err := q.ExecContext(ctx, "DELETE FROM edges WHERE at_file = ?", atFile)
	if err != nil {
		return fmt.Errorf("failed to delete edges by file: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) DeleteEdgesByFile(ctx context.Context, atFile string) error {
	return s.deleteEdgesByFileWithQuerier(ctx, s.querier(), atFile)
}

// Docstring operations

func (s *SQLiteStorage) upsertDocstringWithQuerier(ctx context.Context, q querier, doc *Docstring) error {
	query := `
		INSERT INTO docstrings (symbol_id, summary, parameters, return_desc, examples, tags)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(symbol_id) DO UPDATE SET
			summary = excluded.summary,
			parameters = excluded.parameters,
			return_desc = excluded.return_desc,
			examples = excluded.examples,
			tags = excluded.tags
	`
	_, err := q.ExecContext(ctx, query, doc.SymbolID, doc.Summary, doc.Parameters, doc.ReturnDesc, doc.Examples, doc.Tags)
	if err != nil {
		return fmt.Errorf("failed to upsert docstring: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) UpsertDocstring(ctx context.Context, doc *Docstring) error {
	return s.upsertDocstringWithQuerier(ctx, s.querier(), doc)
}

func (s *SQLiteStorage) GetDocstring(ctx context.Context, symbolID int64) (*Docstring, error) {
	query := `SELECT symbol_id, summary, parameters, return_desc, examples, tags FROM docstrings WHERE symbol_id = ?`
	var d Docstring
	var summary, params, retDesc, examples, tags sql.NullString
	err := s.querier().QueryRowContext(ctx, query, symbolID).Scan(&d.SymbolID, &summary, &params, &retDesc, &examples, &tags)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	d.Summary, d.Parameters, d.ReturnDesc, d.Examples, d.Tags = summary.String, params.String, retDesc.String, examples.String, tags.String
	return &d, nil
}

// Decorator operations

func (s *SQLiteStorage) upsertDecoratorWithQuerier(ctx context.Context, q querier, dec *Decorator) error {
	query := `
		INSERT INTO decorators (symbol_id, name, class)
		VALUES (?, ?, ?)
		ON CONFLICT(symbol_id, name) DO UPDATE SET class = excluded.class
	`
	_, err := q.ExecContext(ctx, query, dec.SymbolID, dec.Name, dec.Class)
	if err != nil {
		return fmt.Errorf("failed to upsert decorator: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) UpsertDecorator(ctx context.Context, dec *Decorator) error {
	return s.upsertDecoratorWithQuerier(ctx, s.querier(), dec)
}

func (s *SQLiteStorage) ListDecoratorsBySymbol(ctx context.Context, symbolID int64) ([]*Decorator, error) {
	rows, err := s.querier().QueryContext(ctx, `SELECT symbol_id, name, class FROM decorators WHERE symbol_id = ?`, symbolID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var decs []*Decorator
	for rows.Next() {
		var d Decorator
		if err := rows.Scan(&d.SymbolID, &d.Name, &d.Class); err != nil {
			return nil, err
		}
		decs = append(decs, &d)
	}
	return decs, rows.Err()
}

func (s *SQLiteStorage) SearchDecorators(ctx context.Context, name string, limit int) ([]*Decorator, error) {
	rows, err := s.querier().QueryContext(ctx, `SELECT symbol_id, name, class FROM decorators WHERE name LIKE ? LIMIT ?`, "%"+name+"%", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var decs []*Decorator
	for rows.Next() {
		var d Decorator
		if err := rows.Scan(&d.SymbolID, &d.Name, &d.Class); err != nil {
			return nil, err
		}
		decs = append(decs, &d)
	}
	return decs, rows.Err()
}

// TODO operations

func (s *SQLiteStorage) upsertTODOWithQuerier(ctx context.Context, q querier, todo *TODOEntry) error {
	query := `
		INSERT INTO todos (file_id, file_path, line, keyword, text, near_symbol_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`
	now := time.Now()
	err := q.QueryRowContext(ctx, query, todo.FileID, todo.FilePath, todo.Line, todo.Keyword, todo.Text, todo.NearSymbolID, now).Scan(&todo.ID)
	if err != nil {
		return fmt.Errorf("failed to insert todo: %w", err)
	}
	todo.CreatedAt = now
	return nil
}

func (s *SQLiteStorage) UpsertTODO(ctx context.Context, todo *TODOEntry) error {
	return s.upsertTODOWithQuerier(ctx, s.querier(), todo)
}

func (s *SQLiteStorage) ListTODOsByFile(ctx context.Context, fileID int64) ([]*TODOEntry, error) {
	rows, err := s.querier().QueryContext(ctx,
		`SELECT id, file_id, file_path, line, keyword, text, near_symbol_id, created_at FROM todos WHERE file_id = ? ORDER BY line`, fileID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTODOs(rows)
}

func (s *SQLiteStorage) SearchTODOs(ctx context.Context, keyword string, limit int) ([]*TODOEntry, error) {
	query := `SELECT id, file_id, file_path, line, keyword, text, near_symbol_id, created_at FROM todos`
	var rows *sql.Rows
	var err error
	if keyword != "" {
		rows, err = s.querier().QueryContext(ctx, query+` WHERE keyword = ? ORDER BY created_at DESC LIMIT ?`, keyword, limit)
	} else {
		rows, err = s.querier().QueryContext(ctx, query+` ORDER BY created_at DESC LIMIT ?`, limit)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTODOs(rows)
}

func scanTODOs(rows *sql.Rows) ([]*TODOEntry, error) {
	var todos []*TODOEntry
	for rows.Next() {
		var t TODOEntry
		var nearSymbolID sql.NullInt64
		if err := rows.Scan(&t.ID, &t.FileID, &t.FilePath, &t.Line, &t.Keyword, &t.Text, &nearSymbolID, &t.CreatedAt); err != nil {
			return nil, err
		}
		if nearSymbolID.Valid {
			v := nearSymbolID.Int64
			t.NearSymbolID = &v
		}
		todos = append(todos, &t)
	}
	return todos, rows.Err()
}

func (s *SQLiteStorage) deleteTODOsByFileWithQuerier(ctx context.Context, q querier, fileID int64) error {
	_, err := q.ExecContext(ctx, "DELETE FROM todos WHERE file_id = ?", fileID)
	if err != nil {
		return fmt.Errorf("failed to delete todos by file: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) DeleteTODOsByFile(ctx context.Context, fileID int64) error {
	return s.deleteTODOsByFileWithQuerier(ctx, s.querier(), fileID)
}

// Test-link operations

func (s *SQLiteStorage) upsertTestLinkWithQuerier(ctx context.Context, q querier, link *TestLink) error {
	query := `
		INSERT INTO test_links (test_file_path, test_symbol_id, subject_file_path, subject_symbol_id, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(test_file_path, subject_file_path, test_symbol_id, subject_symbol_id) DO NOTHING
	`
	now := time.Now()
	_, err := q.ExecContext(ctx, query, link.TestFilePath, link.TestSymbolID, link.SubjectFilePath, link.SubjectSymbolID, now)
	if err != nil {
		return fmt.Errorf("failed to upsert test link: %w", err)
	}
	link.CreatedAt = now
	return nil
}

func (s *SQLiteStorage) UpsertTestLink(ctx context.Context, link *TestLink) error {
	return s.upsertTestLinkWithQuerier(ctx, s.querier(), link)
}

func (s *SQLiteStorage) ListTestLinksForSubject(ctx context.Context, subjectFilePath string) ([]*TestLink, error) {
	rows, err := s.querier().QueryContext(ctx,
		`SELECT id, test_file_path, test_symbol_id, subject_file_path, subject_symbol_id, created_at FROM test_links WHERE subject_file_path = ?`,
		subjectFilePath)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var links []*TestLink
	for rows.Next() {
		var l TestLink
		var testSym, subjSym sql.NullInt64
		if err := rows.Scan(&l.ID, &l.TestFilePath, &testSym, &l.SubjectFilePath, &subjSym, &l.CreatedAt); err != nil {
			return nil, err
		}
		if testSym.Valid {
			v := testSym.Int64
			l.TestSymbolID = &v
		}
		if subjSym.Valid {
			v := subjSym.Int64
			l.SubjectSymbolID = &v
		}
		links = append(links, &l)
	}
	return links, rows.Err()
}

// Package/repository operations

func (s *SQLiteStorage) upsertRepositoryWithQuerier(ctx context.Context, q querier, repo *Repository) error {
	query := `
		INSERT INTO repositories (id, root_path, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET root_path = excluded.root_path
	`
	now := time.Now()
	_, err := q.ExecContext(ctx, query, repo.ID, repo.RootPath, now)
	if err != nil {
		return fmt.Errorf("failed to upsert repository: %w", err)
	}
	repo.CreatedAt = now
	return nil
}

func (s *SQLiteStorage) UpsertRepository(ctx context.Context, repo *Repository) error {
	return s.upsertRepositoryWithQuerier(ctx, s.querier(), repo)
}

func (s *SQLiteStorage) upsertPackageWithQuerier(ctx context.Context, q querier, pkg *Package) error {
	query := `
		INSERT INTO packages (id, name, version, manifest_path, ecosystem, root_dir, repo_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			version = excluded.version,
			manifest_path = excluded.manifest_path,
			ecosystem = excluded.ecosystem,
			root_dir = excluded.root_dir,
			repo_id = excluded.repo_id
	`
	now := time.Now()
	_, err := q.ExecContext(ctx, query, pkg.ID, pkg.Name, pkg.Version, pkg.ManifestPath, pkg.Ecosystem, pkg.RootDir, pkg.RepoID, now)
	if err != nil {
		return fmt.Errorf("failed to upsert package: %w", err)
	}
	pkg.CreatedAt = now
	return nil
}

func (s *SQLiteStorage) UpsertPackage(ctx context.Context, pkg *Package) error {
	return s.upsertPackageWithQuerier(ctx, s.querier(), pkg)
}

func (s *SQLiteStorage) AssignFilePackage(ctx context.Context, fileID int64, packageID string) error {
	query := `
		INSERT INTO file_packages (file_id, package_id) VALUES (?, ?)
		ON CONFLICT(file_id) DO UPDATE SET package_id = excluded.package_id
	`
	_, err := s.querier().ExecContext(ctx, query, fileID, packageID)
	if err != nil {
		return fmt.Errorf("failed to assign file package: %w", err)
	}
	return nil
}

// BatchGetSymbolPackages resolves the owning package for a batch of symbols
// in one round trip (symbol -> file -> file_packages -> package), for
// callers that need package context for a whole result set rather than one
// symbol at a time.
func (s *SQLiteStorage) BatchGetSymbolPackages(ctx context.Context, symbolIDs []int64) (map[int64]*Package, error) {
	result := make(map[int64]*Package, len(symbolIDs))
	if len(symbolIDs) == 0 {
		return result, nil
	}
	query := `
		SELECT sym.id, p.id, p.name, p.version, p.manifest_path, p.ecosystem, p.root_dir, p.repo_id, p.created_at
		FROM symbols sym
		JOIN file_packages fp ON fp.file_id = sym.file_id
		JOIN packages p ON p.id = fp.package_id
		WHERE sym.id IN (` + placeholders(len(symbolIDs)) + `)
	`
	args := make([]interface{}, len(symbolIDs))
	for i, id := range symbolIDs {
		args[i] = id
	}
	rows, err := s.querier().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var symbolID int64
		var p Package
		var repoID sql.NullString
		if err := rows.Scan(&symbolID, &p.ID, &p.Name, &p.Version, &p.ManifestPath, &p.Ecosystem, &p.RootDir, &repoID, &p.CreatedAt); err != nil {
			return nil, err
		}
		if repoID.Valid {
			p.RepoID = repoID.String
		}
		result[symbolID] = &p
	}
	return result, rows.Err()
}

func (s *SQLiteStorage) GetPackageForFile(ctx context.Context, fileID int64) (*Package, error) {
	query := `
		SELECT p.id, p.name, p.version, p.manifest_path, p.ecosystem, p.root_dir, p.repo_id, p.created_at
		FROM packages p
		JOIN file_packages fp ON fp.package_id = p.id
		WHERE fp.file_id = ?
	`
	var p Package
	var repoID sql.NullString
	err := s.querier().QueryRowContext(ctx, query, fileID).Scan(
		&p.ID, &p.Name, &p.Version, &p.ManifestPath, &p.Ecosystem, &p.RootDir, &repoID, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	p.RepoID = repoID.String
	return &p, nil
}

// Symbol metrics operations

func (s *SQLiteStorage) upsertSymbolMetricsWithQuerier(ctx context.Context, q querier, m *SymbolMetrics) error {
	query := `
		INSERT INTO symbol_metrics (symbol_id, pagerank, popularity_count, normalized_pagerank, in_degree, out_degree, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(symbol_id) DO UPDATE SET
			pagerank = excluded.pagerank,
			popularity_count = excluded.popularity_count,
			normalized_pagerank = excluded.normalized_pagerank,
			in_degree = excluded.in_degree,
			out_degree = excluded.out_degree,
			updated_at = excluded.updated_at
	`
	now := time.Now()
	_, err := q.ExecContext(ctx, query, m.SymbolID, m.PageRank, m.PopularityCount, m.NormalizedPageRank, m.InDegree, m.OutDegree, now)
	if err != nil {
		return fmt.Errorf("failed to upsert symbol metrics: %w", err)
	}
	m.UpdatedAt = now
	return nil
}

func (s *SQLiteStorage) UpsertSymbolMetrics(ctx context.Context, m *SymbolMetrics) error {
	return s.upsertSymbolMetricsWithQuerier(ctx, s.querier(), m)
}

// BatchUpsertSymbolMetrics writes the full PageRank recomputation from
// §4.5 stage 8 inside one transaction so a crash mid-write never leaves
// half the graph with stale metrics.
func (s *SQLiteStorage) BatchUpsertSymbolMetrics(ctx context.Context, ms []*SymbolMetrics) error {
	if len(ms) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	for _, m := range ms {
		if err := s.upsertSymbolMetricsWithQuerier(ctx, tx, m); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLiteStorage) GetSymbolMetrics(ctx context.Context, symbolID int64) (*SymbolMetrics, error) {
	query := `SELECT symbol_id, pagerank, popularity_count, normalized_pagerank, in_degree, out_degree, updated_at FROM symbol_metrics WHERE symbol_id = ?`
	var m SymbolMetrics
	err := s.querier().QueryRowContext(ctx, query, symbolID).Scan(
		&m.SymbolID, &m.PageRank, &m.PopularityCount, &m.NormalizedPageRank, &m.InDegree, &m.OutDegree, &m.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *SQLiteStorage) BatchGetSymbolMetrics(ctx context.Context, symbolIDs []int64) (map[int64]*SymbolMetrics, error) {
	result := make(map[int64]*SymbolMetrics, len(symbolIDs))
	if len(symbolIDs) == 0 {
		return result, nil
	}
	query := `SELECT symbol_id, pagerank, popularity_count, normalized_pagerank, in_degree, out_degree, updated_at
		FROM symbol_metrics WHERE symbol_id IN (` + placeholders(len(symbolIDs)) + `)`
	args := make([]interface{}, len(symbolIDs))
	for i, id := range symbolIDs {
		args[i] = id
	}
	rows, err := s.querier().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var m SymbolMetrics
		if err := rows.Scan(&m.SymbolID, &m.PageRank, &m.PopularityCount, &m.NormalizedPageRank, &m.InDegree, &m.OutDegree, &m.UpdatedAt); err != nil {
			return nil, err
		}
		result[m.SymbolID] = &m
	}
	return result, rows.Err()
}

// Learning signal operations

func (s *SQLiteStorage) RecordQuerySelection(ctx context.Context, sel *QuerySelection) error {
	query := `
		INSERT INTO query_selections (query_text, query_normalized, selected_symbol_id, position, created_at)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id
	`
	now := time.Now()
	err := s.querier().QueryRowContext(ctx, query, sel.QueryText, sel.QueryNormalized, sel.SelectedSymbolID, sel.Position, now).Scan(&sel.ID)
	if err != nil {
		return fmt.Errorf("failed to record query selection: %w", err)
	}
	sel.CreatedAt = now
	return nil
}

func (s *SQLiteStorage) GetSelectionsForNormalizedQuery(ctx context.Context, queryNormalized string, limit int) ([]*QuerySelection, error) {
	rows, err := s.querier().QueryContext(ctx,
		`SELECT id, query_text, query_normalized, selected_symbol_id, position, created_at
		 FROM query_selections WHERE query_normalized = ? ORDER BY created_at DESC LIMIT ?`,
		queryNormalized, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var sels []*QuerySelection
	for rows.Next() {
		var sel QuerySelection
		if err := rows.Scan(&sel.ID, &sel.QueryText, &sel.QueryNormalized, &sel.SelectedSymbolID, &sel.Position, &sel.CreatedAt); err != nil {
			return nil, err
		}
		sels = append(sels, &sel)
	}
	return sels, rows.Err()
}

func (s *SQLiteStorage) RecordFileView(ctx context.Context, filePath string) error {
	query := `
		INSERT INTO file_affinity (file_path, view_count, last_accessed_at) VALUES (?, 1, ?)
		ON CONFLICT(file_path) DO UPDATE SET view_count = view_count + 1, last_accessed_at = excluded.last_accessed_at
	`
	_, err := s.querier().ExecContext(ctx, query, filePath, time.Now())
	return err
}

func (s *SQLiteStorage) RecordFileEdit(ctx context.Context, filePath string) error {
	query := `
		INSERT INTO file_affinity (file_path, edit_count, last_accessed_at) VALUES (?, 1, ?)
		ON CONFLICT(file_path) DO UPDATE SET edit_count = edit_count + 1, last_accessed_at = excluded.last_accessed_at
	`
	_, err := s.querier().ExecContext(ctx, query, filePath, time.Now())
	return err
}

func (s *SQLiteStorage) GetFileAffinity(ctx context.Context, filePath string) (*FileAffinity, error) {
	query := `SELECT file_path, view_count, edit_count, last_accessed_at FROM file_affinity WHERE file_path = ?`
	var a FileAffinity
	err := s.querier().QueryRowContext(ctx, query, filePath).Scan(&a.FilePath, &a.ViewCount, &a.EditCount, &a.LastAccessedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// placeholders returns "?, ?, ..." repeated n times, used for dynamic IN
// clauses built from caller-supplied slices.
func placeholders(n int) string {
	ph := make([]string, n)
	for i := range ph {
		ph[i] = "?"
	}
	return strings.Join(ph, ", ")
}

// Transaction delegation for the domain operations above.

func (t *sqliteTx) UpsertEdge(ctx context.Context, edge *Edge) error {
	return t.storage.upsertEdgeWithQuerier(ctx, t.querier(), edge)
}

func (t *sqliteTx) ListEdgesFrom(ctx context.Context, fromSymbolID int64, kinds []string) ([]*Edge, error) {
	return t.storage.listEdgesFromWithQuerier(ctx, t.querier(), fromSymbolID, kinds)
}

func (t *sqliteTx) ListEdgesTo(ctx context.Context, toSymbolID int64, kinds []string) ([]*Edge, error) {
	return t.storage.listEdgesToWithQuerier(ctx, t.querier(), toSymbolID, kinds)
}

func (t *sqliteTx) DeleteEdgesByFile(ctx context.Context, atFile string) error {
	return t.storage.deleteEdgesByFileWithQuerier(ctx, t.querier(), atFile)
}

func (t *sqliteTx) UpsertDocstring(ctx context.Context, doc *Docstring) error {
	return t.storage.upsertDocstringWithQuerier(ctx, t.querier(), doc)
}

func (t *sqliteTx) GetDocstring(ctx context.Context, symbolID int64) (*Docstring, error) {
	return t.storage.GetDocstring(ctx, symbolID)
}

func (t *sqliteTx) UpsertDecorator(ctx context.Context, dec *Decorator) error {
	return t.storage.upsertDecoratorWithQuerier(ctx, t.querier(), dec)
}

func (t *sqliteTx) ListDecoratorsBySymbol(ctx context.Context, symbolID int64) ([]*Decorator, error) {
	return t.storage.ListDecoratorsBySymbol(ctx, symbolID)
}

func (t *sqliteTx) SearchDecorators(ctx context.Context, name string, limit int) ([]*Decorator, error) {
	return t.storage.SearchDecorators(ctx, name, limit)
}

func (t *sqliteTx) UpsertTODO(ctx context.Context, todo *TODOEntry) error {
	return t.storage.upsertTODOWithQuerier(ctx, t.querier(), todo)
}

func (t *sqliteTx) ListTODOsByFile(ctx context.Context, fileID int64) ([]*TODOEntry, error) {
	return t.storage.ListTODOsByFile(ctx, fileID)
}

func (t *sqliteTx) SearchTODOs(ctx context.Context, keyword string, limit int) ([]*TODOEntry, error) {
	return t.storage.SearchTODOs(ctx, keyword, limit)
}

func (t *sqliteTx) DeleteTODOsByFile(ctx context.Context, fileID int64) error {
	return t.storage.deleteTODOsByFileWithQuerier(ctx, t.querier(), fileID)
}

func (t *sqliteTx) UpsertTestLink(ctx context.Context, link *TestLink) error {
	return t.storage.upsertTestLinkWithQuerier(ctx, t.querier(), link)
}

func (t *sqliteTx) ListTestLinksForSubject(ctx context.Context, subjectFilePath string) ([]*TestLink, error) {
	return t.storage.ListTestLinksForSubject(ctx, subjectFilePath)
}

func (t *sqliteTx) UpsertRepository(ctx context.Context, repo *Repository) error {
	return t.storage.upsertRepositoryWithQuerier(ctx, t.querier(), repo)
}

func (t *sqliteTx) UpsertPackage(ctx context.Context, pkg *Package) error {
	return t.storage.upsertPackageWithQuerier(ctx, t.querier(), pkg)
}

func (t *sqliteTx) AssignFilePackage(ctx context.Context, fileID int64, packageID string) error {
	return t.storage.AssignFilePackage(ctx, fileID, packageID)
}

func (t *sqliteTx) GetPackageForFile(ctx context.Context, fileID int64) (*Package, error) {
	return t.storage.GetPackageForFile(ctx, fileID)
}

func (t *sqliteTx) BatchGetSymbolPackages(ctx context.Context, symbolIDs []int64) (map[int64]*Package, error) {
	return t.storage.BatchGetSymbolPackages(ctx, symbolIDs)
}

func (t *sqliteTx) UpsertSymbolMetrics(ctx context.Context, m *SymbolMetrics) error {
	return t.storage.upsertSymbolMetricsWithQuerier(ctx, t.querier(), m)
}

func (t *sqliteTx) BatchUpsertSymbolMetrics(ctx context.Context, ms []*SymbolMetrics) error {
	return t.storage.BatchUpsertSymbolMetrics(ctx, ms)
}

func (t *sqliteTx) GetSymbolMetrics(ctx context.Context, symbolID int64) (*SymbolMetrics, error) {
	return t.storage.GetSymbolMetrics(ctx, symbolID)
}

func (t *sqliteTx) BatchGetSymbolMetrics(ctx context.Context, symbolIDs []int64) (map[int64]*SymbolMetrics, error) {
	return t.storage.BatchGetSymbolMetrics(ctx, symbolIDs)
}

func (t *sqliteTx) RecordQuerySelection(ctx context.Context, sel *QuerySelection) error {
	return t.storage.RecordQuerySelection(ctx, sel)
}

func (t *sqliteTx) GetSelectionsForNormalizedQuery(ctx context.Context, queryNormalized string, limit int) ([]*QuerySelection, error) {
	return t.storage.GetSelectionsForNormalizedQuery(ctx, queryNormalized, limit)
}

func (t *sqliteTx) RecordFileView(ctx context.Context, filePath string) error {
	return t.storage.RecordFileView(ctx, filePath)
}

func (t *sqliteTx) RecordFileEdit(ctx context.Context, filePath string) error {
	return t.storage.RecordFileEdit(ctx, filePath)
}

func (t *sqliteTx) GetFileAffinity(ctx context.Context, filePath string) (*FileAffinity, error) {
	return t.storage.GetFileAffinity(ctx, filePath)
}
