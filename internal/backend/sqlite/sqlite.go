// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package sqlite is a local search backend on an SQLite FTS5 index. Each
// collection owns a document table and an FTS5 table over its searchable
// fields. Full-text queries are ranked by bm25; the match-all query returns
// documents in insertion order with no score.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"github.com/spf13/cast"

	"github.com/pdiddy/fedsearch/pkg/types"
)

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Store is one collection inside an SQLite database file.
type Store struct {
	db         *sql.DB
	name       string
	collection string
}

// Open opens or creates the database at path. The collection's tables are
// created by CreateIndex.
func Open(name, path, collection string) (*Store, error) {
	if !identRe.MatchString(collection) {
		return nil, fmt.Errorf("invalid collection name %q", collection)
	}
	if path == "" {
		return nil, fmt.Errorf("database path is required")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, name: name, collection: collection}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS collections (
		name TEXT PRIMARY KEY,
		schema TEXT NOT NULL
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating catalog: %w", err)
	}
	return s, nil
}

// Name returns the backend identifier.
func (s *Store) Name() string { return s.name }

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) docsTable() string { return s.collection + "_docs" }
func (s *Store) ftsTable() string  { return s.collection + "_fts" }

// CreateIndex drops and recreates the collection's tables for schema.
func (s *Store) CreateIndex(ctx context.Context, schema types.Schema) error {
	searchable := schema.SearchableFields()
	if len(searchable) == 0 {
		return fmt.Errorf("schema for %s has no searchable fields", s.collection)
	}
	for _, f := range schema.Fields {
		if !identRe.MatchString(f.Name) {
			return fmt.Errorf("invalid field name %q", f.Name)
		}
	}
	schemaJSON, err := json.Marshal(schema)
	if err != nil {
		return fmt.Errorf("encoding schema: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	statements := []string{
		`DROP TABLE IF EXISTS ` + s.ftsTable(),
		`DROP TABLE IF EXISTS ` + s.docsTable(),
		`CREATE TABLE ` + s.docsTable() + ` (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			key TEXT NOT NULL UNIQUE,
			doc TEXT NOT NULL
		)`,
		`CREATE VIRTUAL TABLE ` + s.ftsTable() + ` USING fts5(key UNINDEXED, ` + strings.Join(searchable, ", ") + `)`,
	}
	for _, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("creating index %s: %w", s.collection, err)
		}
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO collections (name, schema) VALUES (?, ?)
		 ON CONFLICT(name) DO UPDATE SET schema=excluded.schema`,
		s.collection, string(schemaJSON),
	); err != nil {
		return fmt.Errorf("recording schema: %w", err)
	}
	return tx.Commit()
}

func (s *Store) schema(ctx context.Context) (types.Schema, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT schema FROM collections WHERE name = ?`, s.collection).Scan(&raw)
	if err == sql.ErrNoRows {
		return types.Schema{}, fmt.Errorf("index %s does not exist", s.collection)
	}
	if err != nil {
		return types.Schema{}, fmt.Errorf("loading schema: %w", err)
	}
	var schema types.Schema
	if err := json.Unmarshal([]byte(raw), &schema); err != nil {
		return types.Schema{}, fmt.Errorf("decoding schema: %w", err)
	}
	return schema, nil
}

// Upload upserts docs in one transaction and returns the number written.
func (s *Store) Upload(ctx context.Context, docs []map[string]any) (int, error) {
	schema, err := s.schema(ctx)
	if err != nil {
		return 0, err
	}
	keyField := schema.KeyField()
	searchable := schema.SearchableFields()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	upsert, err := tx.PrepareContext(ctx,
		`INSERT INTO `+s.docsTable()+` (key, doc) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET doc=excluded.doc`)
	if err != nil {
		return 0, fmt.Errorf("preparing upsert: %w", err)
	}
	defer upsert.Close()

	unindex, err := tx.PrepareContext(ctx, `DELETE FROM `+s.ftsTable()+` WHERE key = ?`)
	if err != nil {
		return 0, fmt.Errorf("preparing delete: %w", err)
	}
	defer unindex.Close()

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(searchable)+1), ", ")
	index, err := tx.PrepareContext(ctx,
		`INSERT INTO `+s.ftsTable()+` (key, `+strings.Join(searchable, ", ")+`) VALUES (`+placeholders+`)`)
	if err != nil {
		return 0, fmt.Errorf("preparing index insert: %w", err)
	}
	defer index.Close()

	for i, doc := range docs {
		key := cast.ToString(doc[keyField])
		if key == "" {
			return 0, fmt.Errorf("document %d has no %q key", i, keyField)
		}
		data, err := json.Marshal(doc)
		if err != nil {
			return 0, fmt.Errorf("encoding document %s: %w", key, err)
		}
		if _, err := upsert.ExecContext(ctx, key, string(data)); err != nil {
			return 0, fmt.Errorf("upserting document %s: %w", key, err)
		}
		if _, err := unindex.ExecContext(ctx, key); err != nil {
			return 0, fmt.Errorf("unindexing document %s: %w", key, err)
		}
		args := []any{key}
		for _, f := range searchable {
			args = append(args, cast.ToString(doc[f]))
		}
		if _, err := index.ExecContext(ctx, args...); err != nil {
			return 0, fmt.Errorf("indexing document %s: %w", key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing upload: %w", err)
	}
	return len(docs), nil
}

// Search runs a ranked FTS5 query (or a match-all scan) and pages with
// LIMIT/OFFSET. Field restrictions must name searchable fields.
func (s *Store) Search(ctx context.Context, req types.SearchRequest) ([]types.Record, error) {
	if req.Size <= 0 {
		return nil, fmt.Errorf("size must be positive")
	}
	schema, err := s.schema(ctx)
	if err != nil {
		return nil, err
	}

	match, err := buildMatch(req.Query, req.Fields, schema.SearchableFields())
	if err != nil {
		return nil, err
	}

	var (
		query string
		args  []any
	)
	if match == "" {
		query = `SELECT doc, NULL FROM ` + s.docsTable() + ` ORDER BY rowid LIMIT ? OFFSET ?`
		args = []any{req.Size, req.Skip}
	} else {
		fts := s.ftsTable()
		query = `SELECT d.doc, -bm25(` + fts + `) AS score
			FROM ` + fts + `
			JOIN ` + s.docsTable() + ` d ON d.key = ` + fts + `.key
			WHERE ` + fts + ` MATCH ?
			ORDER BY bm25(` + fts + `), d.rowid
			LIMIT ? OFFSET ?`
		args = []any{match, req.Size, req.Skip}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", s.collection, err)
	}
	defer rows.Close()

	var records []types.Record
	for rows.Next() {
		var (
			raw   string
			score sql.NullFloat64
		)
		if err := rows.Scan(&raw, &score); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		rec := types.Record{Backend: s.name}
		if err := json.Unmarshal([]byte(raw), &rec.Document); err != nil {
			return nil, fmt.Errorf("decoding document: %w", err)
		}
		if score.Valid {
			rec.Score = types.Score(score.Float64)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// buildMatch turns free text into an FTS5 expression: every term becomes a
// quoted phrase, terms are OR-ed, and a field restriction becomes a column
// filter on each phrase. "" or "*" yields "" (match all). Fields are checked
// against the searchable set either way.
func buildMatch(text string, fields, searchable []string) (string, error) {
	if len(fields) > 0 {
		allowed := make(map[string]bool, len(searchable))
		for _, f := range searchable {
			allowed[f] = true
		}
		for _, f := range fields {
			if !allowed[f] {
				return "", fmt.Errorf("field %q is not searchable", f)
			}
		}
	}

	terms := strings.Fields(text)
	if len(terms) == 0 || (len(terms) == 1 && terms[0] == "*") {
		return "", nil
	}

	filter := ""
	if len(fields) > 0 {
		filter = "{" + strings.Join(fields, " ") + "} : "
	}

	phrases := make([]string, len(terms))
	for i, t := range terms {
		phrases[i] = filter + `"` + strings.ReplaceAll(t, `"`, `""`) + `"`
	}
	return strings.Join(phrases, " OR "), nil
}
