// Package index persists the relationship graph and a per-file manifest to
// SQLite, supporting incremental rebuilds: files whose content hash matches
// the manifest are skipped on the next run.
package index

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"codegraph/internal/graph"
)

type Store struct {
	db *sql.DB
}

// Open creates or opens a SQLite index at path, creating parent directories
// as needed.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to init schema: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS nodes (
			id TEXT PRIMARY KEY,
			name TEXT,
			node_type TEXT,
			scope TEXT,
			filepath TEXT,
			start_line INTEGER,
			end_line INTEGER,
			properties JSON
		);`,
		`CREATE TABLE IF NOT EXISTS edges (
			source_id TEXT,
			target_id TEXT,
			edge_type TEXT,
			line_number INTEGER,
			scope TEXT,
			PRIMARY KEY (source_id, target_id, edge_type, line_number)
		);`,
		`CREATE TABLE IF NOT EXISTS files (
			path TEXT PRIMARY KEY,
			content_hash TEXT,
			indexed_at TEXT
		);`,
		`CREATE INDEX IF NOT EXISTS idx_nodes_file ON nodes(filepath);`,
	}

	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return err
		}
	}
	return nil
}

// SaveGraph writes the full graph, replacing any prior snapshot. The file
// manifest is cleared with it: entries for files that no longer exist must
// not outlive the graph they described, so callers re-record the surviving
// files after a successful save.
func (s *Store) SaveGraph(ctx context.Context, g *graph.Graph) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM nodes"); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM edges"); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM files"); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO nodes (id, name, node_type, scope, filepath, start_line, end_line, properties)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	export := g.ToExport()
	for _, n := range export.Nodes {
		var props []byte
		if len(n.Properties) > 0 {
			props, _ = json.Marshal(n.Properties)
		}
		if _, err := stmt.Exec(n.ID, n.Name, string(n.Type), n.Scope, n.FilePath, n.StartLine, n.EndLine, props); err != nil {
			return err
		}
	}

	edgeStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO edges (source_id, target_id, edge_type, line_number, scope) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(source_id, target_id, edge_type, line_number) DO NOTHING
	`)
	if err != nil {
		return err
	}
	defer edgeStmt.Close()

	for _, e := range export.Edges {
		if _, err := edgeStmt.Exec(e.SourceID, e.TargetID, string(e.Type), e.Properties.LineNumber, e.Properties.Scope); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// LoadGraph reconstructs the stored graph. Nodes load before edges so edge
// endpoint validation holds during the rebuild.
func (s *Store) LoadGraph(ctx context.Context) (*graph.Graph, error) {
	g := graph.New()

	rows, err := s.db.QueryContext(ctx, "SELECT id, name, node_type, scope, filepath, start_line, end_line, properties FROM nodes ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to query nodes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var n graph.Node
		var typ string
		var props []byte
		if err := rows.Scan(&n.ID, &n.Name, &typ, &n.Scope, &n.FilePath, &n.StartLine, &n.EndLine, &props); err != nil {
			return nil, fmt.Errorf("failed to scan node: %w", err)
		}
		n.Type = graph.NodeType(typ)
		if len(props) > 0 {
			_ = json.Unmarshal(props, &n.Properties)
		}
		if _, err := g.AddNode(&n); err != nil {
			return nil, err
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	edgeRows, err := s.db.QueryContext(ctx, "SELECT source_id, target_id, edge_type, line_number, scope FROM edges")
	if err != nil {
		return nil, fmt.Errorf("failed to query edges: %w", err)
	}
	defer edgeRows.Close()

	for edgeRows.Next() {
		var src, dst, typ, scope string
		var line int
		if err := edgeRows.Scan(&src, &dst, &typ, &line, &scope); err != nil {
			return nil, fmt.Errorf("failed to scan edge: %w", err)
		}
		if _, err := g.AddEdge(src, dst, graph.EdgeType(typ), graph.EdgeProps{LineNumber: line, Scope: scope}); err != nil {
			return nil, err
		}
	}
	return g, edgeRows.Err()
}

// RecordFile stores the content hash for path in the manifest.
func (s *Store) RecordFile(ctx context.Context, path, hash string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO files (path, content_hash, indexed_at) VALUES (?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET content_hash=excluded.content_hash, indexed_at=excluded.indexed_at
	`, path, hash, time.Now().UTC().Format(time.RFC3339))
	return err
}

// FileHash returns the recorded hash for path, or "" if unindexed.
func (s *Store) FileHash(ctx context.Context, path string) (string, error) {
	row := s.db.QueryRowContext(ctx, "SELECT content_hash FROM files WHERE path = ?", path)
	var hash string
	if err := row.Scan(&hash); err != nil {
		if err == sql.ErrNoRows {
			return "", nil
		}
		return "", err
	}
	return hash, nil
}

// FileCount reports how many files the manifest covers.
func (s *Store) FileCount(ctx context.Context) (int, error) {
	row := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM files")
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// Stale reports whether path needs reindexing given its current hash.
func (s *Store) Stale(ctx context.Context, path, hash string) (bool, error) {
	recorded, err := s.FileHash(ctx, path)
	if err != nil {
		return false, err
	}
	return recorded != hash, nil
}

// ForgetFile drops the manifest entry for path.
func (s *Store) ForgetFile(ctx context.Context, path string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM files WHERE path = ?", path)
	return err
}
