package services

import (
	"context"
	"testing"

	"github.com/rbarranco/nmail/internal/notmuch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThreadLoad_FlattensInTimeOrder(t *testing.T) {
	fake := &fakeIndexer{showRoot: branch(
		branch(leaf("a", 10), branch(leaf("c", 30))),
		branch(leaf("b", 20)),
	)}
	s := NewThreadService(fake)

	require.NoError(t, s.Load(context.Background(), "t1"))
	require.Equal(t, 3, s.Count())

	ids := make([]string, 0, 3)
	for i := 0; i < s.Count(); i++ {
		m, err := s.Message(i)
		require.NoError(t, err)
		ids = append(ids, m.ID)
	}
	assert.Equal(t, []string{"a", "b", "c"}, ids)
}

func TestThreadLoad_DefaultSelection(t *testing.T) {
	t.Run("first unread", func(t *testing.T) {
		fake := &fakeIndexer{showRoot: branch(
			leaf("a", 10), leaf("b", 20, "unread"), leaf("c", 30, "unread"),
		)}
		s := NewThreadService(fake)
		require.NoError(t, s.Load(context.Background(), "t1"))
		assert.Equal(t, 1, s.Selected())
	})

	t.Run("all read selects newest", func(t *testing.T) {
		fake := &fakeIndexer{showRoot: branch(leaf("a", 10), leaf("b", 20))}
		s := NewThreadService(fake)
		require.NoError(t, s.Load(context.Background(), "t1"))
		assert.Equal(t, 1, s.Selected())
	})

	t.Run("empty thread", func(t *testing.T) {
		fake := &fakeIndexer{showRoot: branch()}
		s := NewThreadService(fake)
		require.NoError(t, s.Load(context.Background(), "t1"))
		assert.Equal(t, -1, s.Selected())
	})
}

func TestThreadLoad_MalformedNode(t *testing.T) {
	fake := &fakeIndexer{showRoot: branch(leaf("a", 10), notmuch.ThreadNode{})}
	s := NewThreadService(fake)

	err := s.Load(context.Background(), "t1")
	assert.ErrorIs(t, err, notmuch.ErrMalformedThread)
	assert.Equal(t, 0, s.Count(), "no partial snapshot on malformed input")
}

func TestThreadLoad_EmptyID(t *testing.T) {
	s := NewThreadService(&fakeIndexer{})
	assert.ErrorIs(t, s.Load(context.Background(), " "), ErrInvalidInput)
}

func TestThreadRefresh_ClampsSelection(t *testing.T) {
	fake := &fakeIndexer{showRoot: branch(leaf("a", 10), leaf("b", 20), leaf("c", 30))}
	s := NewThreadService(fake)
	require.NoError(t, s.Load(context.Background(), "t1"))
	s.Select(2)

	fake.mu.Lock()
	fake.showRoot = branch(leaf("a", 10))
	fake.mu.Unlock()

	require.NoError(t, s.Refresh(context.Background()))
	assert.Equal(t, 0, s.Selected())
}

func TestThreadRefresh_BeforeLoadIsNoop(t *testing.T) {
	fake := &fakeIndexer{showErr: notmuch.ErrMalformedThread}
	s := NewThreadService(fake)
	assert.NoError(t, s.Refresh(context.Background()))
}

func TestThreadNavigation(t *testing.T) {
	fake := &fakeIndexer{showRoot: branch(leaf("a", 10), leaf("b", 20))}
	s := NewThreadService(fake)
	require.NoError(t, s.Load(context.Background(), "t1"))

	assert.Equal(t, 1, s.Selected())
	assert.Equal(t, 1, s.Next(), "next at the end stays put")
	assert.Equal(t, 0, s.Prev())
	assert.Equal(t, 0, s.Prev(), "prev at the start stays put")
}

func TestThreadRowLabel(t *testing.T) {
	fake := &fakeIndexer{showRoot: branch(
		notmuch.ThreadNode{Leaf: &notmuch.Message{
			ID: "a", Timestamp: 10,
			Headers: map[string]string{"From": `"Ada Lovelace" <ada@example.com>`},
		}},
		notmuch.ThreadNode{Leaf: &notmuch.Message{ID: "b", Timestamp: 20}},
	)}
	s := NewThreadService(fake)
	require.NoError(t, s.Load(context.Background(), "t1"))

	assert.Equal(t, "Ada Lovelace", s.RowLabel(0))
	assert.Equal(t, "(message)", s.RowLabel(1))
	assert.Equal(t, "", s.RowLabel(9))
}
