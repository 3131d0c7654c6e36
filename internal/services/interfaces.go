package services

import (
	"context"

	"github.com/rbarranco/nmail/internal/notmuch"
)

// Indexer is the subset of the notmuch client the services depend on.
type Indexer interface {
	Search(ctx context.Context, query string) ([]*notmuch.SearchRow, error)
	Show(ctx context.Context, threadID string) (notmuch.ThreadNode, error)
	Tag(ctx context.Context, scope notmuch.Scope, id string, exprs []string) error
	Index(ctx context.Context) error
}

// Notifier receives change notifications after mutations so open views can
// refresh from the index.
type Notifier interface {
	NotifyChanged()
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func()

// NotifyChanged calls the wrapped function.
func (f NotifierFunc) NotifyChanged() { f() }
