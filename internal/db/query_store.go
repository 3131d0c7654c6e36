package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrQueryNotFound is returned when a saved query name does not exist.
var ErrQueryNotFound = errors.New("saved query not found")

// SavedQuery is a named notmuch search expression.
type SavedQuery struct {
	ID        int64
	Name      string
	Query     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// HistoryEntry is one past search.
type HistoryEntry struct {
	Query      string
	SearchedAt time.Time
}

// SaveQuery stores a named query, replacing a previous query under the same
// name.
func (s *Store) SaveQuery(ctx context.Context, name, query string) error {
	if name == "" || query == "" {
		return fmt.Errorf("name and query are required")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO saved_queries (name, query) VALUES (?, ?)
		ON CONFLICT(name) DO UPDATE SET
			query = excluded.query,
			updated_at = CURRENT_TIMESTAMP`,
		name, query)
	if err != nil {
		return fmt.Errorf("saving query %q: %w", name, err)
	}
	return nil
}

// GetQueryByName fetches a saved query by name.
func (s *Store) GetQueryByName(ctx context.Context, name string) (*SavedQuery, error) {
	var q SavedQuery
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, query, created_at, updated_at
		FROM saved_queries WHERE name = ?`, name).
		Scan(&q.ID, &q.Name, &q.Query, &q.CreatedAt, &q.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrQueryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading query %q: %w", name, err)
	}
	return &q, nil
}

// ListQueries returns all saved queries ordered by name.
func (s *Store) ListQueries(ctx context.Context) ([]*SavedQuery, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, query, created_at, updated_at
		FROM saved_queries ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("listing queries: %w", err)
	}
	defer rows.Close()

	var out []*SavedQuery
	for rows.Next() {
		var q SavedQuery
		if err := rows.Scan(&q.ID, &q.Name, &q.Query, &q.CreatedAt, &q.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, &q)
	}
	return out, rows.Err()
}

// DeleteQuery removes a saved query by name.
func (s *Store) DeleteQuery(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM saved_queries WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("deleting query %q: %w", name, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrQueryNotFound
	}
	return nil
}

// RecordSearch appends a query to the history. Consecutive duplicates are
// collapsed.
func (s *Store) RecordSearch(ctx context.Context, query string) error {
	if query == "" {
		return nil
	}
	var last string
	err := s.db.QueryRowContext(ctx, `
		SELECT query FROM query_history ORDER BY id DESC LIMIT 1`).Scan(&last)
	if err == nil && last == query {
		_, err = s.db.ExecContext(ctx, `
			UPDATE query_history SET searched_at = CURRENT_TIMESTAMP
			WHERE id = (SELECT MAX(id) FROM query_history)`)
		return err
	}
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("recording search: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO query_history (query) VALUES (?)`, query)
	if err != nil {
		return fmt.Errorf("recording search: %w", err)
	}
	return nil
}

// History returns the most recent searches, newest first.
func (s *Store) History(ctx context.Context, limit int) ([]HistoryEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT query, searched_at FROM query_history
		ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("loading history: %w", err)
	}
	defer rows.Close()

	var out []HistoryEntry
	for rows.Next() {
		var e HistoryEntry
		if err := rows.Scan(&e.Query, &e.SearchedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
