package services

import (
	"context"
	"errors"
	"testing"

	"github.com/rbarranco/nmail/internal/notmuch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func searchRows(n int) []*notmuch.SearchRow {
	rows := make([]*notmuch.SearchRow, n)
	for i := range rows {
		rows[i] = &notmuch.SearchRow{
			ThreadID:     string(rune('a' + i)),
			DateRelative: "today",
			Authors:      "ada",
			Subject:      "hello",
			Tags:         []string{"inbox"},
		}
	}
	return rows
}

func TestSearch_ReplacesSnapshot(t *testing.T) {
	fake := &fakeIndexer{searchRows: searchRows(3)}
	s := NewSearchService(fake)

	require.NoError(t, s.Search(context.Background(), "tag:inbox"))
	assert.Equal(t, 3, s.Count())
	assert.Equal(t, 0, s.Selected())
	assert.Equal(t, "tag:inbox", s.Query())
}

func TestSearch_EmptyQueryRejected(t *testing.T) {
	s := NewSearchService(&fakeIndexer{})
	err := s.Search(context.Background(), "  ")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestSearch_EmptyResultClearsSelection(t *testing.T) {
	s := NewSearchService(&fakeIndexer{})
	require.NoError(t, s.Search(context.Background(), "tag:none"))
	assert.Equal(t, 0, s.Count())
	assert.Equal(t, -1, s.Selected())
}

func TestSearch_ProcessErrorWrapped(t *testing.T) {
	fake := &fakeIndexer{searchErr: errors.New("boom")}
	s := NewSearchService(fake)
	err := s.Search(context.Background(), "tag:inbox")
	assert.ErrorIs(t, err, ErrProcess)
}

func TestRefresh_PreservesAndClampsSelection(t *testing.T) {
	fake := &fakeIndexer{searchRows: searchRows(5)}
	s := NewSearchService(fake)
	require.NoError(t, s.Search(context.Background(), "tag:inbox"))

	s.Select(4)
	require.NoError(t, s.Refresh(context.Background()))
	assert.Equal(t, 4, s.Selected(), "index survives when still in range")

	fake.mu.Lock()
	fake.searchRows = searchRows(2)
	fake.mu.Unlock()
	require.NoError(t, s.Refresh(context.Background()))
	assert.Equal(t, 1, s.Selected(), "index clamps to the shrunken snapshot")

	fake.mu.Lock()
	fake.searchRows = nil
	fake.mu.Unlock()
	require.NoError(t, s.Refresh(context.Background()))
	assert.Equal(t, -1, s.Selected())
}

func TestRefresh_NoQueryIsNoop(t *testing.T) {
	s := NewSearchService(&fakeIndexer{searchErr: errors.New("must not be called")})
	assert.NoError(t, s.Refresh(context.Background()))
}

func TestCellAt_Projection(t *testing.T) {
	fake := &fakeIndexer{searchRows: []*notmuch.SearchRow{{
		ThreadID:     "t1",
		DateRelative: "yesterday",
		Authors:      "ada, bob",
		Subject:      "",
		Tags:         []string{"inbox", "unread"},
	}}}
	s := NewSearchService(fake)
	s.SetTagFormatter(func(tags []string) string { return "#" })
	require.NoError(t, s.Search(context.Background(), "tag:inbox"))

	cell, err := s.CellAt(0)
	require.NoError(t, err)
	assert.Equal(t, "yesterday", cell.Date)
	assert.Equal(t, "ada, bob", cell.From)
	assert.Equal(t, "(no subject)", cell.Subject)
	assert.Equal(t, "#", cell.Tags)
	assert.True(t, cell.Unread)

	_, err = s.CellAt(5)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRow_OutOfRange(t *testing.T) {
	s := NewSearchService(&fakeIndexer{})
	_, err := s.Row(0)
	assert.ErrorIs(t, err, ErrNotFound)
}
