package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)
)

const sqliteFileName = "dictionary.db"

// SQLiteGateway keeps every index in one SQLite database with an FTS5 table.
// WAL mode lets other processes read the database while this one writes.
type SQLiteGateway struct {
	mu        sync.RWMutex
	db        *sql.DB
	path      string
	stopWords map[string]struct{}
	closed    bool
}

var _ Gateway = (*SQLiteGateway)(nil)

func sqlitePath(dataDir string) string {
	return filepath.Join(dataDir, sqliteFileName)
}

// validateSQLiteIntegrity checks an existing database before opening.
// Returns nil when the file is absent or valid.
func validateSQLiteIntegrity(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	db, err := sql.Open("sqlite", path+"?mode=ro")
	if err != nil {
		return fmt.Errorf("cannot open for validation: %w", err)
	}
	defer db.Close()

	var result string
	if err := db.QueryRow("PRAGMA integrity_check").Scan(&result); err != nil {
		return fmt.Errorf("integrity check failed: %w", err)
	}
	if result != "ok" {
		return fmt.Errorf("database corrupted: %s", result)
	}
	return nil
}

// NewSQLiteGateway opens <DataDir>/dictionary.db.
// An empty DataDir uses an in-memory database.
func NewSQLiteGateway(cfg Config) (*SQLiteGateway, error) {
	var dsn, path string
	if cfg.DataDir == "" {
		dsn = ":memory:"
	} else {
		if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", cfg.DataDir, err)
		}
		path = sqlitePath(cfg.DataDir)

		if validErr := validateSQLiteIntegrity(path); validErr != nil {
			slog.Warn("sqlite_index_corrupted",
				slog.String("path", path),
				slog.String("error", validErr.Error()))

			if removeErr := os.Remove(path); removeErr != nil && !os.IsNotExist(removeErr) {
				return nil, fmt.Errorf("database corrupted at %s and cannot remove: %w (original error: %v)", path, removeErr, validErr)
			}
			_ = os.Remove(path + "-wal")
			_ = os.Remove(path + "-shm")

			slog.Info("sqlite_index_cleared",
				slog.String("path", path),
				slog.String("reason", "corruption detected, awaiting resync"))
		}
		dsn = path
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Single writer; also keeps one :memory: database per gateway
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	// modernc.org/sqlite ignores most DSN params, so pragmas are set here
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA temp_store = MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	stopWords := cfg.StopWords
	if stopWords == nil {
		stopWords = DefaultStopWords
	}

	g := &SQLiteGateway{
		db:        db,
		path:      path,
		stopWords: BuildStopWordMap(stopWords),
	}
	if err := g.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return g, nil
}

// initSchema creates the index registry, the document store and the FTS5 table.
func (g *SQLiteGateway) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY
	);

	CREATE TABLE IF NOT EXISTS indices (
		name TEXT PRIMARY KEY
	);

	CREATE TABLE IF NOT EXISTS documents (
		index_name TEXT NOT NULL,
		doc_id     TEXT NOT NULL,
		source     TEXT NOT NULL,
		PRIMARY KEY (index_name, doc_id)
	);

	-- index_name and doc_id are stored but not searchable
	-- content holds pre-tokenized text (camelCase/snake_case split)
	CREATE VIRTUAL TABLE IF NOT EXISTS fts_content USING fts5(
		index_name UNINDEXED,
		doc_id UNINDEXED,
		content,
		tokenize='unicode61'
	);

	INSERT OR IGNORE INTO schema_version (version) VALUES (1);
	`
	_, err := g.db.Exec(schema)
	return err
}

// Create implements Gateway.
// FTS5 tables do not support REPLACE, so the old row is deleted first.
func (g *SQLiteGateway) Create(ctx context.Context, index string, doc *Document) error {
	if doc == nil || doc.ID == "" {
		return fmt.Errorf("document id is required")
	}
	if !ValidIndexName(index) {
		return fmt.Errorf("%w: %q", ErrInvalidIndexName, index)
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return ErrClosed
	}

	tx, err := g.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	content := strings.Join(AnalyzeText(doc.Content, g.stopWords), " ")

	stmts := []struct {
		query string
		args  []any
	}{
		{`INSERT OR IGNORE INTO indices(name) VALUES (?)`, []any{index}},
		{`DELETE FROM fts_content WHERE index_name = ? AND doc_id = ?`, []any{index, doc.ID}},
		{`INSERT INTO fts_content(index_name, doc_id, content) VALUES (?, ?, ?)`, []any{index, doc.ID, content}},
		{`INSERT OR REPLACE INTO documents(index_name, doc_id, source) VALUES (?, ?, ?)`, []any{index, doc.ID, string(doc.Source)}},
	}
	for _, st := range stmts {
		if _, err := tx.ExecContext(ctx, st.query, st.args...); err != nil {
			return fmt.Errorf("failed to index document %s: %w", doc.ID, err)
		}
	}

	return tx.Commit()
}

// Delete implements Gateway.
func (g *SQLiteGateway) Delete(ctx context.Context, index, id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return ErrClosed
	}

	tx, err := g.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM fts_content WHERE index_name = ? AND doc_id = ?`, index, id); err != nil {
		return fmt.Errorf("failed to delete from FTS: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM documents WHERE index_name = ? AND doc_id = ?`, index, id); err != nil {
		return fmt.Errorf("failed to delete document %s: %w", id, err)
	}

	return tx.Commit()
}

// Get implements Gateway.
func (g *SQLiteGateway) Get(ctx context.Context, index, id string) (*Document, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.closed {
		return nil, ErrClosed
	}

	ok, err := g.existsLocked(ctx, index)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrIndexNotFound
	}

	var source string
	err = g.db.QueryRowContext(ctx,
		`SELECT source FROM documents WHERE index_name = ? AND doc_id = ?`, index, id).Scan(&source)
	if err == sql.ErrNoRows {
		return nil, ErrDocumentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get failed: %w", err)
	}
	return &Document{ID: id, Source: json.RawMessage(source)}, nil
}

// Search implements Gateway.
// The last query token is matched as an FTS5 prefix.
func (g *SQLiteGateway) Search(ctx context.Context, index string, req SearchRequest) (*SearchResult, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.closed {
		return nil, ErrClosed
	}

	ok, err := g.existsLocked(ctx, index)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrIndexNotFound
	}

	tokens := AnalyzeText(req.Query, g.stopWords)

	var countQuery, pageQuery string
	var args []any
	if len(tokens) == 0 {
		countQuery = `SELECT COUNT(*) FROM documents WHERE index_name = ?`
		pageQuery = `
			SELECT doc_id, source FROM documents
			WHERE index_name = ?
			ORDER BY CAST(doc_id AS INTEGER), doc_id
			LIMIT ? OFFSET ?`
		args = []any{index}
	} else {
		match := buildMatchExpression(tokens)
		countQuery = `
			SELECT COUNT(*) FROM fts_content
			WHERE content MATCH ? AND index_name = ?`
		// FTS5 bm25() is negative; lower is a better match
		pageQuery = `
			SELECT d.doc_id, d.source
			FROM fts_content f
			JOIN documents d ON d.index_name = f.index_name AND d.doc_id = f.doc_id
			WHERE f.content MATCH ? AND f.index_name = ?
			ORDER BY bm25(f), CAST(d.doc_id AS INTEGER), d.doc_id
			LIMIT ? OFFSET ?`
		args = []any{match, index}
	}

	result := &SearchResult{Hits: []*Document{}}
	if err := g.db.QueryRowContext(ctx, countQuery, args...).Scan(&result.Total); err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}
	if req.Size <= 0 || result.Total == 0 {
		return result, nil
	}

	rows, err := g.db.QueryContext(ctx, pageQuery, append(args, req.Size, req.From)...)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id, source string
		if err := rows.Scan(&id, &source); err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		result.Hits = append(result.Hits, &Document{ID: id, Source: json.RawMessage(source)})
	}
	return result, rows.Err()
}

// buildMatchExpression quotes each token and marks the last as a prefix.
func buildMatchExpression(tokens []string) string {
	parts := make([]string, len(tokens))
	for i, tok := range tokens {
		parts[i] = `"` + strings.ReplaceAll(tok, `"`, `""`) + `"`
	}
	parts[len(parts)-1] += "*"
	return strings.Join(parts, " ")
}

// Exists implements Gateway.
func (g *SQLiteGateway) Exists(ctx context.Context, index string) (bool, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.closed {
		return false, ErrClosed
	}
	return g.existsLocked(ctx, index)
}

func (g *SQLiteGateway) existsLocked(ctx context.Context, index string) (bool, error) {
	var n int
	err := g.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM indices WHERE name = ?`, index).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check index %s: %w", index, err)
	}
	return n > 0, nil
}

// Indices implements Gateway.
func (g *SQLiteGateway) Indices(ctx context.Context) ([]string, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.closed {
		return nil, ErrClosed
	}

	rows, err := g.db.QueryContext(ctx, `SELECT name FROM indices ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list indices: %w", err)
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan index name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// Close implements Gateway. It checkpoints the WAL and is idempotent.
func (g *SQLiteGateway) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		return nil
	}
	g.closed = true

	_, _ = g.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
	return g.db.Close()
}
