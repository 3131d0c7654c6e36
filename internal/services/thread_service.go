package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/rbarranco/nmail/internal/notmuch"
	"github.com/rbarranco/nmail/internal/render"
)

// ThreadService owns one open conversation: the flattened, time-ordered
// message snapshot and the selected position within it. Reply nesting is
// deliberately discarded; the view is a flat list sorted by timestamp.
type ThreadService struct {
	mu       sync.RWMutex
	client   Indexer
	logger   *log.Logger
	threadID string
	messages []*notmuch.Message
	selected int
}

// NewThreadService creates a thread service over the given indexer.
func NewThreadService(client Indexer) *ThreadService {
	return &ThreadService{client: client, selected: -1}
}

// SetLogger sets the logger for debug output.
func (s *ThreadService) SetLogger(logger *log.Logger) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logger = logger
}

// Load fetches and flattens a thread, replacing the snapshot. The initial
// selection is the first unread message, or the newest one when everything
// has been read.
func (s *ThreadService) Load(ctx context.Context, threadID string) error {
	if strings.TrimSpace(threadID) == "" {
		return fmt.Errorf("%w: empty thread ID", ErrInvalidInput)
	}

	root, err := s.client.Show(ctx, threadID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrProcess, err)
	}
	msgs, err := notmuch.Flatten(root)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.threadID = threadID
	s.messages = msgs
	s.selected = defaultSelection(msgs)
	if s.logger != nil {
		s.logger.Printf("thread: loaded %s with %d messages", threadID, len(msgs))
	}
	return nil
}

// Refresh re-fetches the current thread. The selected index is preserved and
// clamped; after a tag change the same position usually still holds the same
// message.
func (s *ThreadService) Refresh(ctx context.Context) error {
	s.mu.RLock()
	threadID := s.threadID
	s.mu.RUnlock()
	if threadID == "" {
		return nil
	}

	root, err := s.client.Show(ctx, threadID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrProcess, err)
	}
	msgs, err := notmuch.Flatten(root)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = msgs
	s.selected = clamp(s.selected, len(msgs))
	return nil
}

// defaultSelection picks the first unread message, else the last message,
// else -1 for an empty thread.
func defaultSelection(msgs []*notmuch.Message) int {
	for i, m := range msgs {
		if m.IsUnread() {
			return i
		}
	}
	return len(msgs) - 1
}

// ThreadID returns the loaded thread's ID.
func (s *ThreadService) ThreadID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.threadID
}

// Count returns the number of messages in the snapshot.
func (s *ThreadService) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.messages)
}

// Message returns the message at the given index.
func (s *ThreadService) Message(i int) (*notmuch.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i < 0 || i >= len(s.messages) {
		return nil, fmt.Errorf("%w: message %d of %d", ErrNotFound, i, len(s.messages))
	}
	return s.messages[i], nil
}

// RowLabel returns the list label for a message: the sender's display name,
// falling back to a placeholder when the From header is empty.
func (s *ThreadService) RowLabel(i int) string {
	m, err := s.Message(i)
	if err != nil {
		return ""
	}
	if name := render.SenderName(m.Header("From")); name != "" {
		return name
	}
	return "(message)"
}

// IsUnread reports whether the message at the given index is unread.
func (s *ThreadService) IsUnread(i int) bool {
	m, err := s.Message(i)
	return err == nil && m.IsUnread()
}

// Selected returns the selected message index, -1 when empty.
func (s *ThreadService) Selected() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selected
}

// Select moves the selection, clamping to the snapshot bounds. The new index
// is returned.
func (s *ThreadService) Select(i int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = clamp(i, len(s.messages))
	return s.selected
}

// Next advances the selection by one and returns the new index.
func (s *ThreadService) Next() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = clamp(s.selected+1, len(s.messages))
	return s.selected
}

// Prev moves the selection back by one and returns the new index.
func (s *ThreadService) Prev() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = clamp(s.selected-1, len(s.messages))
	return s.selected
}
