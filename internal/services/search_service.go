package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/rbarranco/nmail/internal/notmuch"
)

// Cell is the four-column projection of a search row for the results table.
type Cell struct {
	Date    string
	From    string
	Subject string
	Tags    string
	Unread  bool
}

// SearchService owns the current search query and its result snapshot. The
// snapshot is immutable; a refresh replaces it wholesale so readers never see
// a partially updated list.
type SearchService struct {
	mu         sync.RWMutex
	client     Indexer
	logger     *log.Logger
	query      string
	rows       []*notmuch.SearchRow
	selected   int
	formatTags func([]string) string
}

// NewSearchService creates a search service over the given indexer.
func NewSearchService(client Indexer) *SearchService {
	return &SearchService{
		client:     client,
		selected:   -1,
		formatTags: func(tags []string) string { return strings.Join(tags, " ") },
	}
}

// SetLogger sets the logger for debug output.
func (s *SearchService) SetLogger(logger *log.Logger) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logger = logger
}

// SetTagFormatter installs the tag summary formatter used for the tags
// column.
func (s *SearchService) SetTagFormatter(f func([]string) string) {
	if f == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.formatTags = f
}

// Search runs a new query and replaces the snapshot. Selection moves to the
// first row, or clears when the result is empty.
func (s *SearchService) Search(ctx context.Context, query string) error {
	if strings.TrimSpace(query) == "" {
		return fmt.Errorf("%w: empty query", ErrInvalidInput)
	}

	rows, err := s.client.Search(ctx, query)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrProcess, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.query = query
	s.rows = rows
	if len(rows) == 0 {
		s.selected = -1
	} else {
		s.selected = 0
	}
	if s.logger != nil {
		s.logger.Printf("search: %q matched %d threads", query, len(rows))
	}
	return nil
}

// Refresh reruns the current query. The selected index is preserved and
// clamped to the new snapshot; rows may have shifted underneath it.
func (s *SearchService) Refresh(ctx context.Context) error {
	s.mu.RLock()
	query := s.query
	s.mu.RUnlock()
	if query == "" {
		return nil
	}

	rows, err := s.client.Search(ctx, query)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrProcess, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = rows
	s.selected = clamp(s.selected, len(rows))
	return nil
}

// Query returns the current query string.
func (s *SearchService) Query() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.query
}

// Count returns the number of rows in the snapshot.
func (s *SearchService) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rows)
}

// Row returns the search row at the given index.
func (s *SearchService) Row(i int) (*notmuch.SearchRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i < 0 || i >= len(s.rows) {
		return nil, fmt.Errorf("%w: row %d of %d", ErrNotFound, i, len(s.rows))
	}
	return s.rows[i], nil
}

// CellAt projects the row at the given index into table columns.
func (s *SearchService) CellAt(i int) (Cell, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i < 0 || i >= len(s.rows) {
		return Cell{}, fmt.Errorf("%w: row %d of %d", ErrNotFound, i, len(s.rows))
	}
	r := s.rows[i]
	subject := r.Subject
	if strings.TrimSpace(subject) == "" {
		subject = "(no subject)"
	}
	return Cell{
		Date:    r.DateRelative,
		From:    r.Authors,
		Subject: subject,
		Tags:    s.formatTags(r.Tags),
		Unread:  r.IsUnread(),
	}, nil
}

// Selected returns the selected row index, -1 when the snapshot is empty.
func (s *SearchService) Selected() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selected
}

// Select moves the selection, clamping to the snapshot bounds.
func (s *SearchService) Select(i int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = clamp(i, len(s.rows))
}

func clamp(i, n int) int {
	if n == 0 {
		return -1
	}
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}
