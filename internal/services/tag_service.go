package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/rbarranco/nmail/internal/notmuch"
)

// TagService applies tag mutations through the indexer and notifies observers
// so open views re-read their snapshots.
type TagService struct {
	mu        sync.Mutex
	client    Indexer
	logger    *log.Logger
	notifiers []Notifier
}

// NewTagService creates a tag service over the given indexer.
func NewTagService(client Indexer) *TagService {
	return &TagService{client: client}
}

// SetLogger sets the logger for debug output.
func (s *TagService) SetLogger(logger *log.Logger) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logger = logger
}

// AddNotifier registers an observer for post-mutation notifications.
func (s *TagService) AddNotifier(n Notifier) {
	if n == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifiers = append(s.notifiers, n)
}

func (s *TagService) notify() {
	s.mu.Lock()
	observers := make([]Notifier, len(s.notifiers))
	copy(observers, s.notifiers)
	s.mu.Unlock()
	for _, n := range observers {
		n.NotifyChanged()
	}
}

// Apply normalizes and applies tag expressions to a thread or message. A bare
// tag name is treated as an addition; "+tag" and "-tag" pass through.
func (s *TagService) Apply(ctx context.Context, scope notmuch.Scope, id string, exprs ...string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: empty target ID", ErrInvalidInput)
	}
	normalized, err := NormalizeTagExprs(exprs)
	if err != nil {
		return err
	}
	if err := s.client.Tag(ctx, scope, id, normalized); err != nil {
		return fmt.Errorf("%w: %v", ErrProcess, err)
	}
	if s.logger != nil {
		s.logger.Printf("tags: %s:%s %v", scope, id, normalized)
	}
	s.notify()
	return nil
}

// Toggle adds or removes a single tag depending on its current presence.
func (s *TagService) Toggle(ctx context.Context, scope notmuch.Scope, id, tag string, present bool) error {
	if present {
		return s.Apply(ctx, scope, id, "-"+tag)
	}
	return s.Apply(ctx, scope, id, "+"+tag)
}

// MarkRead clears the unread tag on a single message. Viewing a message
// marks it read as a side effect.
func (s *TagService) MarkRead(ctx context.Context, messageID string) error {
	return s.Apply(ctx, notmuch.ScopeMessage, messageID, "-unread")
}

// NormalizeTagExprs validates tag expressions and prefixes bare names with
// "+". An expression that is only a sign, or empty, is rejected.
func NormalizeTagExprs(exprs []string) ([]string, error) {
	if len(exprs) == 0 {
		return nil, fmt.Errorf("%w: no tag expressions", ErrInvalidInput)
	}
	out := make([]string, 0, len(exprs))
	for _, e := range exprs {
		e = strings.TrimSpace(e)
		if e == "" || e == "+" || e == "-" {
			return nil, fmt.Errorf("%w: bad tag expression %q", ErrInvalidInput, e)
		}
		if e[0] != '+' && e[0] != '-' {
			e = "+" + e
		}
		out = append(out, e)
	}
	return out, nil
}
