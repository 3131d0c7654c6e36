package db

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nmail.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpen_RunsMigrations(t *testing.T) {
	s := openTestStore(t)

	var version int
	require.NoError(t, s.db.QueryRow("PRAGMA user_version").Scan(&version))
	assert.Equal(t, len(migrations), version)
}

func TestOpen_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nmail.db")

	s, err := Open(path, nil)
	require.NoError(t, err)
	require.NoError(t, s.SaveQuery(context.Background(), "inbox", "tag:inbox"))
	require.NoError(t, s.Close())

	s, err = Open(path, nil)
	require.NoError(t, err)
	defer s.Close()

	q, err := s.GetQueryByName(context.Background(), "inbox")
	require.NoError(t, err)
	assert.Equal(t, "tag:inbox", q.Query)
}

func TestSaveQuery_UpsertByName(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveQuery(ctx, "inbox", "tag:inbox"))
	require.NoError(t, s.SaveQuery(ctx, "inbox", "tag:inbox and tag:unread"))

	q, err := s.GetQueryByName(ctx, "inbox")
	require.NoError(t, err)
	assert.Equal(t, "tag:inbox and tag:unread", q.Query)

	all, err := s.ListQueries(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestSaveQuery_RejectsEmpty(t *testing.T) {
	s := openTestStore(t)
	assert.Error(t, s.SaveQuery(context.Background(), "", "tag:inbox"))
	assert.Error(t, s.SaveQuery(context.Background(), "inbox", ""))
}

func TestGetQueryByName_NotFound(t *testing.T) {
	s := openTestStore(t)
	_, err := s.GetQueryByName(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrQueryNotFound)
}

func TestDeleteQuery(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveQuery(ctx, "inbox", "tag:inbox"))
	require.NoError(t, s.DeleteQuery(ctx, "inbox"))
	assert.ErrorIs(t, s.DeleteQuery(ctx, "inbox"), ErrQueryNotFound)
}

func TestListQueries_OrderedByName(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveQuery(ctx, "zeta", "tag:z"))
	require.NoError(t, s.SaveQuery(ctx, "alpha", "tag:a"))

	all, err := s.ListQueries(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "alpha", all[0].Name)
	assert.Equal(t, "zeta", all[1].Name)
}

func TestRecordSearch_CollapsesConsecutiveDuplicates(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.RecordSearch(ctx, "tag:inbox"))
	require.NoError(t, s.RecordSearch(ctx, "tag:inbox"))
	require.NoError(t, s.RecordSearch(ctx, "from:ada"))
	require.NoError(t, s.RecordSearch(ctx, "tag:inbox"))
	require.NoError(t, s.RecordSearch(ctx, ""))

	hist, err := s.History(ctx, 10)
	require.NoError(t, err)
	require.Len(t, hist, 3)
	assert.Equal(t, "tag:inbox", hist[0].Query)
	assert.Equal(t, "from:ada", hist[1].Query)
	assert.Equal(t, "tag:inbox", hist[2].Query)
}

func TestHistory_Limit(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.RecordSearch(ctx, "one"))
	require.NoError(t, s.RecordSearch(ctx, "two"))
	require.NoError(t, s.RecordSearch(ctx, "three"))

	hist, err := s.History(ctx, 2)
	require.NoError(t, err)
	require.Len(t, hist, 2)
	assert.Equal(t, "three", hist[0].Query)
	assert.Equal(t, "two", hist[1].Query)
}
