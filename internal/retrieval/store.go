// Package retrieval stores policy documents and serves keyword search over
// them. Backed by SQLite FTS5 so the corpus and its index live in a single
// file (or fully in memory for tests).
package retrieval

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	_ "modernc.org/sqlite"
)

// Passage is one retrieved excerpt with its provenance.
type Passage struct {
	Text   string `json:"text"`
	Source string `json:"source"`
}

// Searcher is the orchestrator-facing retrieval contract. Safe to call
// against an empty corpus.
type Searcher interface {
	Search(ctx context.Context, query string, k int) ([]Passage, error)
}

// Store is an FTS5-backed passage index.
type Store struct {
	db  *sql.DB
	log zerolog.Logger
}

// Open creates or opens the passage index at path. Use ":memory:" for an
// ephemeral index.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open retrieval db: %w", err)
	}

	schema := `
		CREATE VIRTUAL TABLE IF NOT EXISTS passages USING fts5(
			content, source
		);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init retrieval schema: %w", err)
	}

	return &Store{
		db:  db,
		log: log.With().Str("component", "retrieval").Logger(),
	}, nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Add indexes one passage.
func (s *Store) Add(ctx context.Context, p Passage) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO passages (content, source) VALUES (?, ?)`,
		p.Text, p.Source,
	)
	if err != nil {
		return fmt.Errorf("insert passage: %w", err)
	}
	return nil
}

// Count returns the number of indexed passages.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM passages`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count passages: %w", err)
	}
	return n, nil
}

// Search returns up to k passages ranked by relevance. An empty corpus or
// a query with no indexable terms yields an empty result, not an error.
func (s *Store) Search(ctx context.Context, query string, k int) ([]Passage, error) {
	if k <= 0 {
		k = 3
	}
	match := buildMatchQuery(query)
	if match == "" {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT content, source
		FROM passages
		WHERE passages MATCH ?
		ORDER BY bm25(passages)
		LIMIT ?
	`, match, k)
	if err != nil {
		return nil, fmt.Errorf("search passages: %w", err)
	}
	defer rows.Close()

	var out []Passage
	for rows.Next() {
		var p Passage
		if err := rows.Scan(&p.Text, &p.Source); err != nil {
			return nil, fmt.Errorf("scan passage: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// buildMatchQuery turns free text into an OR-joined FTS5 query of quoted
// terms, so user punctuation cannot break the match syntax.
func buildMatchQuery(query string) string {
	fields := strings.Fields(query)
	terms := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, `"'.,;:!?()[]{}`)
		if f == "" {
			continue
		}
		terms = append(terms, `"`+strings.ReplaceAll(f, `"`, ``)+`"`)
	}
	return strings.Join(terms, " OR ")
}
