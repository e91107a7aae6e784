// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package history persists the searches that were run, most recent first.
// Only the request and its counts are kept; extracted records are not.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/pubmed-search/pkg/types"
)

// Entry is one recorded search.
type Entry struct {
	ID         int64         `json:"id" yaml:"id"`
	Query      string        `json:"query" yaml:"query"`
	Mode       types.Mode    `json:"mode" yaml:"mode"`
	Sort       types.SortKey `json:"sortby" yaml:"sortby"`
	MaxResults int           `json:"searchnumber" yaml:"searchnumber"`

	// Matched is the remote match count; Articles and Emails count what
	// was extracted.
	Matched  int `json:"matched" yaml:"matched"`
	Articles int `json:"articles" yaml:"articles"`
	Emails   int `json:"emails" yaml:"emails"`

	RequestID string    `json:"request_id,omitempty" yaml:"request_id,omitempty"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// timeLayout has fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Store manages the history SQLite database.
type Store struct {
	db         *sql.DB
	maxResults int
	now        func() time.Time
}

// NewStore opens or creates the history database at cfg.Path, creating
// its directory and schema as needed.
func NewStore(cfg types.HistoryConfig) (*Store, error) {
	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", cfg.Path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 20
	}

	s := &Store{db: db, maxResults: maxResults, now: time.Now}
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
		`CREATE TABLE IF NOT EXISTS searches (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			query TEXT NOT NULL,
			mode TEXT NOT NULL,
			sort TEXT NOT NULL,
			max_results INTEGER NOT NULL,
			matched INTEGER NOT NULL DEFAULT 0,
			articles INTEGER NOT NULL DEFAULT 0,
			emails INTEGER NOT NULL DEFAULT 0,
			request_id TEXT,
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_searches_created_at ON searches(created_at)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Record stores e and returns it with ID and CreatedAt set. A zero
// CreatedAt is replaced by the current time.
func (s *Store) Record(ctx context.Context, e Entry) (Entry, error) {
	if strings.TrimSpace(e.Query) == "" {
		return Entry{}, fmt.Errorf("recording search: empty query")
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.now()
	}
	e.CreatedAt = e.CreatedAt.UTC()

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO searches (query, mode, sort, max_results, matched, articles, emails, request_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.Query, string(e.Mode), string(e.Sort), e.MaxResults,
		e.Matched, e.Articles, e.Emails, e.RequestID,
		e.CreatedAt.Format(timeLayout),
	)
	if err != nil {
		return Entry{}, fmt.Errorf("recording search: %w", err)
	}
	if e.ID, err = res.LastInsertId(); err != nil {
		return Entry{}, fmt.Errorf("reading search id: %w", err)
	}
	return e, nil
}

// ListOptions filters List. Zero values mean no filter and the configured
// default limit.
type ListOptions struct {
	// Contains keeps searches whose query contains this text, case-insensitively.
	Contains string
	Limit    int
}

// List returns recorded searches, most recent first.
func (s *Store) List(ctx context.Context, opts ListOptions) ([]Entry, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = s.maxResults
	}

	query := `SELECT id, query, mode, sort, max_results, matched, articles, emails, COALESCE(request_id, ''), created_at
		FROM searches`
	var args []any
	if opts.Contains != "" {
		query += ` WHERE query LIKE ? ESCAPE '\'`
		args = append(args, "%"+escapeLike(opts.Contains)+"%")
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing searches: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var (
			e         Entry
			mode, srt string
			created   string
		)
		if err := rows.Scan(&e.ID, &e.Query, &mode, &srt, &e.MaxResults,
			&e.Matched, &e.Articles, &e.Emails, &e.RequestID, &created); err != nil {
			return nil, fmt.Errorf("scanning search: %w", err)
		}
		e.Mode, e.Sort = types.Mode(mode), types.SortKey(srt)
		if e.CreatedAt, err = time.Parse(timeLayout, created); err != nil {
			return nil, fmt.Errorf("parsing timestamp of search %d: %w", e.ID, err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string { return likeEscaper.Replace(s) }
