// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package features is a local SQLite backend for the per-session feature
// services consulted during enrichment: bookmarks, annotations, ratings and
// page views.
//
// Rows are keyed by session and result key (document id or URL). Lookups
// that find nothing return the zero answer, never an error.
package features

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/search-aggregator/pkg/types"
)

const defaultDBPath = "data/features.db"

// Store holds feature data in a SQLite database.
type Store struct {
	db *sql.DB
}

// NewStore opens or creates the database at cfg.DBPath and creates the
// schema if it does not exist.
func NewStore(cfg types.FeaturesConfig) (*Store, error) {
	path := cfg.DBPath
	if path == "" {
		path = defaultDBPath
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating features directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
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

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS bookmarks (
			session_id TEXT NOT NULL,
			doc_id TEXT NOT NULL,
			user_id TEXT NOT NULL,
			starred INTEGER NOT NULL DEFAULT 0,
			excluded INTEGER NOT NULL DEFAULT 0,
			created INTEGER NOT NULL,
			PRIMARY KEY (session_id, doc_id)
		)`,
		`CREATE TABLE IF NOT EXISTS annotations (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL,
			doc_id TEXT NOT NULL,
			user_id TEXT NOT NULL,
			annotation TEXT NOT NULL,
			created INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_annotations_doc ON annotations(session_id, doc_id)`,
		`CREATE TABLE IF NOT EXISTS ratings (
			session_id TEXT NOT NULL,
			doc_id TEXT NOT NULL,
			user_id TEXT NOT NULL,
			rating INTEGER NOT NULL,
			PRIMARY KEY (session_id, doc_id, user_id)
		)`,
		`CREATE TABLE IF NOT EXISTS views (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL,
			url TEXT NOT NULL,
			user_id TEXT NOT NULL,
			created INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_views_url ON views(session_id, url)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// --- lookups ---

// GetBookmark returns the bookmark on resultID in the session. With exclude
// set it only matches bookmarks that mark the result as excluded; without
// it only plain bookmarks match. A miss returns nil.
func (s *Store) GetBookmark(ctx context.Context, sessionID, resultID string, exclude bool) (*types.Bookmark, error) {
	var b types.Bookmark
	err := s.db.QueryRowContext(ctx,
		`SELECT user_id, starred, excluded, created FROM bookmarks
		 WHERE session_id = ? AND doc_id = ? AND excluded = ?`,
		sessionID, resultID, exclude,
	).Scan(&b.UserID, &b.Starred, &b.Excluded, &b.Created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying bookmark %s: %w", resultID, err)
	}
	return &b, nil
}

// GetAnnotations returns the annotations on resultID in creation order.
func (s *Store) GetAnnotations(ctx context.Context, sessionID, resultID string) ([]types.Annotation, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT user_id, annotation, created FROM annotations
		 WHERE session_id = ? AND doc_id = ? ORDER BY created, rowid`,
		sessionID, resultID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying annotations %s: %w", resultID, err)
	}
	defer rows.Close()

	annotations := []types.Annotation{}
	for rows.Next() {
		var a types.Annotation
		if err := rows.Scan(&a.UserID, &a.Annotation, &a.Created); err != nil {
			return nil, fmt.Errorf("scanning annotation: %w", err)
		}
		annotations = append(annotations, a)
	}
	return annotations, rows.Err()
}

// GetRating returns userID's rating of resultID together with the session
// total. It returns nil when nobody in the session rated the result.
func (s *Store) GetRating(ctx context.Context, sessionID, resultID, userID string) (*types.Rating, error) {
	var count, total, own int
	err := s.db.QueryRowContext(ctx,
		`SELECT count(*), coalesce(sum(rating), 0),
		        coalesce(sum(CASE WHEN user_id = ? THEN rating ELSE 0 END), 0)
		 FROM ratings WHERE session_id = ? AND doc_id = ?`,
		userID, sessionID, resultID,
	).Scan(&count, &total, &own)
	if err != nil {
		return nil, fmt.Errorf("querying rating %s: %w", resultID, err)
	}
	if count == 0 {
		return nil, nil
	}
	return &types.Rating{Rating: own, Total: total}, nil
}

// GetViews returns how often url was opened in the session.
func (s *Store) GetViews(ctx context.Context, sessionID, url string) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx,
		`SELECT count(*) FROM views WHERE session_id = ? AND url = ?`,
		sessionID, url,
	).Scan(&n); err != nil {
		return 0, fmt.Errorf("querying views %s: %w", url, err)
	}
	return n, nil
}

// ListBookmarks returns the session's bookmarks, newest first. A non-empty
// userID restricts the list to that user's bookmarks.
func (s *Store) ListBookmarks(ctx context.Context, sessionID, userID string) ([]types.SessionBookmark, error) {
	query := `SELECT doc_id, user_id, starred, excluded, created FROM bookmarks WHERE session_id = ?`
	args := []any{sessionID}
	if userID != "" {
		query += ` AND user_id = ?`
		args = append(args, userID)
	}
	query += ` ORDER BY created DESC, doc_id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing bookmarks: %w", err)
	}
	defer rows.Close()

	var out []types.SessionBookmark
	for rows.Next() {
		var b types.SessionBookmark
		if err := rows.Scan(&b.DocID, &b.UserID, &b.Starred, &b.Excluded, &b.Created); err != nil {
			return nil, fmt.Errorf("scanning bookmark: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// --- writes ---

// AddBookmark creates or replaces the bookmark on docID in the session.
func (s *Store) AddBookmark(ctx context.Context, sessionID, docID string, b types.Bookmark) error {
	if b.Created == 0 {
		b.Created = time.Now().UnixMilli()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO bookmarks (session_id, doc_id, user_id, starred, excluded, created)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		sessionID, docID, b.UserID, b.Starred, b.Excluded, b.Created,
	)
	if err != nil {
		return fmt.Errorf("inserting bookmark %s: %w", docID, err)
	}
	return nil
}

// RemoveBookmark deletes the bookmark on docID in the session.
func (s *Store) RemoveBookmark(ctx context.Context, sessionID, docID string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM bookmarks WHERE session_id = ? AND doc_id = ?`, sessionID, docID,
	); err != nil {
		return fmt.Errorf("deleting bookmark %s: %w", docID, err)
	}
	return nil
}

// AddAnnotation appends an annotation on docID.
func (s *Store) AddAnnotation(ctx context.Context, sessionID, docID string, a types.Annotation) error {
	if a.Created == 0 {
		a.Created = time.Now().UnixMilli()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO annotations (session_id, doc_id, user_id, annotation, created) VALUES (?, ?, ?, ?, ?)`,
		sessionID, docID, a.UserID, a.Annotation, a.Created,
	)
	if err != nil {
		return fmt.Errorf("inserting annotation %s: %w", docID, err)
	}
	return nil
}

// SetRating records userID's rating of docID, replacing an earlier one.
func (s *Store) SetRating(ctx context.Context, sessionID, docID, userID string, rating int) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO ratings (session_id, doc_id, user_id, rating) VALUES (?, ?, ?, ?)`,
		sessionID, docID, userID, rating,
	)
	if err != nil {
		return fmt.Errorf("inserting rating %s: %w", docID, err)
	}
	return nil
}

// AddView records one visit of url.
func (s *Store) AddView(ctx context.Context, sessionID, url, userID string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO views (session_id, url, user_id, created) VALUES (?, ?, ?, ?)`,
		sessionID, url, userID, time.Now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("inserting view %s: %w", url, err)
	}
	return nil
}
