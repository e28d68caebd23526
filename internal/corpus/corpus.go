// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package corpus persists paper metadata and the citation graph in a
// SQLite database and provides read-only lookups for the retrieval core.
package corpus

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/citation-engine/pkg/types"
)

const (
	metadataDir = "metadata"
	indexDir    = "index"
	dbFile      = "corpus.db"
)

// ErrNotFound is returned by Get when a document id is not in the corpus.
var ErrNotFound = errors.New("document not found in corpus")

// Store manages the corpus SQLite database. A Store is opened once per
// corpus snapshot and is safe for concurrent reads.
type Store struct {
	db        *sql.DB
	corpusDir string
}

// NewStore opens or creates the corpus database at
// corpusDir/index/corpus.db and creates the schema if it does not exist.
func NewStore(cfg types.CorpusConfig) (*Store, error) {
	dbDir := filepath.Join(cfg.CorpusDir, indexDir)
	if err := os.MkdirAll(dbDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	dbPath := filepath.Join(dbDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening corpus database: %w", err)
	}

	s := &Store{db: db, corpusDir: cfg.CorpusDir}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS papers (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL DEFAULT '',
			abstract TEXT NOT NULL DEFAULT '',
			year INTEGER NOT NULL DEFAULT 0,
			authors TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS citations (
			paper_id TEXT NOT NULL REFERENCES papers(id),
			position INTEGER NOT NULL,
			cited_id TEXT NOT NULL,
			PRIMARY KEY (paper_id, position)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_citations_paper ON citations(paper_id)`,
		`CREATE TABLE IF NOT EXISTS ingest_status (
			paper_id TEXT PRIMARY KEY,
			file_mod_time TEXT
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Put upserts a document and its outbound-citation list.
func (s *Store) Put(ctx context.Context, doc types.Document) error {
	if doc.ID == "" {
		return fmt.Errorf("document has no id")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	authorsJSON, _ := json.Marshal(doc.Authors)
	_, err = tx.ExecContext(ctx,
		`INSERT INTO papers (id, title, abstract, year, authors)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			title=excluded.title, abstract=excluded.abstract,
			year=excluded.year, authors=excluded.authors`,
		doc.ID, doc.Title, doc.Abstract, doc.Year, string(authorsJSON),
	)
	if err != nil {
		return fmt.Errorf("upserting paper %s: %w", doc.ID, err)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM citations WHERE paper_id = ?`, doc.ID); err != nil {
		return fmt.Errorf("clearing citations for %s: %w", doc.ID, err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO citations (paper_id, position, cited_id) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing citation insert: %w", err)
	}
	defer stmt.Close()

	for i, cited := range doc.OutCitations {
		if _, err := stmt.ExecContext(ctx, doc.ID, i, cited); err != nil {
			return fmt.Errorf("inserting citation %s -> %s: %w", doc.ID, cited, err)
		}
	}

	return tx.Commit()
}

// Get returns the document with the given id, or ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (types.Document, error) {
	var (
		doc         types.Document
		authorsJSON sql.NullString
	)

	err := s.db.QueryRowContext(ctx,
		`SELECT id, title, abstract, year, authors FROM papers WHERE id = ?`, id,
	).Scan(&doc.ID, &doc.Title, &doc.Abstract, &doc.Year, &authorsJSON)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Document{}, fmt.Errorf("document %s: %w", id, ErrNotFound)
		}
		return types.Document{}, fmt.Errorf("looking up document %s: %w", id, err)
	}

	if authorsJSON.Valid {
		json.Unmarshal([]byte(authorsJSON.String), &doc.Authors)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT cited_id FROM citations WHERE paper_id = ? ORDER BY position`, id)
	if err != nil {
		return types.Document{}, fmt.Errorf("loading citations for %s: %w", id, err)
	}
	defer rows.Close()

	for rows.Next() {
		var cited string
		if err := rows.Scan(&cited); err != nil {
			return types.Document{}, fmt.Errorf("scanning citation: %w", err)
		}
		doc.OutCitations = append(doc.OutCitations, cited)
	}

	return doc, rows.Err()
}

// Count returns the number of documents in the corpus.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM papers`).Scan(&n)
	return n, err
}

// AllIDs returns every document id in the corpus.
func (s *Store) AllIDs(ctx context.Context) ([]string, error) {
	return s.idQuery(ctx, `SELECT id FROM papers ORDER BY id`)
}

// IDsBefore returns the ids of documents published strictly before year.
// Documents with an unknown year are excluded. This is the usual
// candidate pool for a query paper published in that year.
func (s *Store) IDsBefore(ctx context.Context, year int) ([]string, error) {
	return s.idQuery(ctx,
		`SELECT id FROM papers WHERE year > 0 AND year < ? ORDER BY id`, year)
}

func (s *Store) idQuery(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ForEachDocument streams every document in the corpus to fn in id order.
// Iteration stops at the first error fn returns.
func (s *Store) ForEachDocument(ctx context.Context, fn func(types.Document) error) error {
	ids, err := s.AllIDs(ctx)
	if err != nil {
		return err
	}
	for _, id := range ids {
		doc, err := s.Get(ctx, id)
		if err != nil {
			return err
		}
		if err := fn(doc); err != nil {
			return err
		}
	}
	return nil
}
