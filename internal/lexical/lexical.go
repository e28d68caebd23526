// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package lexical builds and queries a persisted BM25 index over paper
// titles and abstracts, backed by a SQLite FTS5 table.
package lexical

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"
	"unicode"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/citation-engine/pkg/types"
)

const ftsTable = "papers_fts"

// Field weights for the bm25() ranking function, in column order
// (id, title, abstract). Title matches count double.
const (
	titleWeight    = 2.0
	abstractWeight = 1.0
)

// Errors returned by lexical index operations.
var (
	ErrIndexNotFound = errors.New("lexical index not found")
	ErrBadSchema     = errors.New("lexical index has an incompatible schema")
)

// DocumentSource streams documents into an index build.
// *corpus.Store satisfies it.
type DocumentSource interface {
	ForEachDocument(ctx context.Context, fn func(types.Document) error) error
}

// Build creates (or replaces) the lexical index at path from every
// document in source. It returns the number of documents indexed.
func Build(ctx context.Context, path string, source DocumentSource) (int, error) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return 0, fmt.Errorf("removing stale index: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return 0, fmt.Errorf("creating lexical index: %w", err)
	}
	defer db.Close()

	_, err = db.ExecContext(ctx, fmt.Sprintf(
		`CREATE VIRTUAL TABLE %s USING fts5(id UNINDEXED, title, abstract, tokenize='porter unicode61')`,
		ftsTable))
	if err != nil {
		return 0, fmt.Errorf("creating FTS table: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(
		`INSERT INTO %s (id, title, abstract) VALUES (?, ?, ?)`, ftsTable))
	if err != nil {
		return 0, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	count := 0
	err = source.ForEachDocument(ctx, func(doc types.Document) error {
		if _, err := stmt.ExecContext(ctx, doc.ID, doc.Title, doc.Abstract); err != nil {
			return fmt.Errorf("indexing %s: %w", doc.ID, err)
		}
		count++
		return nil
	})
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing index: %w", err)
	}
	return count, nil
}

// Index is a read-only handle on a persisted lexical index. It is
// acquired once at construction and released with Close; queries never
// reopen the underlying database.
type Index struct {
	db *sql.DB
}

// Open opens the lexical index at path read-only. It fails fast if the
// file does not exist or the FTS schema is absent or incompatible.
func Open(path string) (*Index, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrIndexNotFound, path)
		}
		return nil, fmt.Errorf("checking lexical index: %w", err)
	}

	db, err := sql.Open("sqlite3", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("opening lexical index: %w", err)
	}

	if err := verifySchema(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Index{db: db}, nil
}

// verifySchema checks that the FTS5 table exists with the expected columns.
func verifySchema(db *sql.DB) error {
	var ddl string
	err := db.QueryRow(
		`SELECT sql FROM sqlite_master WHERE type='table' AND name=?`, ftsTable,
	).Scan(&ddl)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: missing table %s", ErrBadSchema, ftsTable)
		}
		return fmt.Errorf("reading index schema: %w", err)
	}

	lower := strings.ToLower(ddl)
	for _, want := range []string{"fts5", "id", "title", "abstract"} {
		if !strings.Contains(lower, want) {
			return fmt.Errorf("%w: schema lacks %q", ErrBadSchema, want)
		}
	}
	return nil
}

// Close releases the index handle.
func (ix *Index) Close() error {
	return ix.db.Close()
}

// Hit is one ranked lexical search result. Score is the raw SQLite
// bm25() value: more negative means a better match.
type Hit struct {
	ID    string
	Score float64
}

// Search runs a field-weighted BM25 query over the title and abstract
// fields and returns up to limit hits, best first. The query text is
// split into terms combined with OR, so any matching term contributes.
// Empty query text yields no hits; that is a valid empty result, not an
// error.
func (ix *Index) Search(ctx context.Context, queryText string, limit int) ([]Hit, error) {
	match := buildMatchQuery(queryText)
	if match == "" {
		return nil, nil
	}

	rows, err := ix.db.QueryContext(ctx, fmt.Sprintf(
		`SELECT id, bm25(%s, 0.0, %g, %g) AS score
		 FROM %s WHERE %s MATCH ?
		 ORDER BY score LIMIT ?`,
		ftsTable, titleWeight, abstractWeight, ftsTable, ftsTable),
		match, limit)
	if err != nil {
		return nil, fmt.Errorf("querying lexical index: %w", err)
	}
	defer rows.Close()

	var hits []Hit
	for rows.Next() {
		var h Hit
		if err := rows.Scan(&h.ID, &h.Score); err != nil {
			return nil, fmt.Errorf("scanning hit: %w", err)
		}
		hits = append(hits, h)
	}
	return hits, rows.Err()
}

// buildMatchQuery turns free text into an FTS5 MATCH expression:
// lowercased alphanumeric terms, each quoted, joined with OR. Returns ""
// when the text contains no indexable terms.
func buildMatchQuery(text string) string {
	terms := tokenize(text)
	if len(terms) == 0 {
		return ""
	}
	quoted := make([]string, len(terms))
	for i, t := range terms {
		quoted[i] = `"` + t + `"`
	}
	return strings.Join(quoted, " OR ")
}

// tokenize lowercases text and splits it into alphanumeric terms,
// dropping punctuation so user text cannot inject FTS5 query syntax.
func tokenize(text string) []string {
	var b strings.Builder
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	return strings.Fields(b.String())
}
