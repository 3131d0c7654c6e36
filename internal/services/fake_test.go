package services

import (
	"context"
	"sync"

	"github.com/rbarranco/nmail/internal/notmuch"
)

// fakeIndexer records calls and serves canned results.
type fakeIndexer struct {
	mu         sync.Mutex
	searchRows []*notmuch.SearchRow
	searchErr  error
	showRoot   notmuch.ThreadNode
	showErr    error
	tagErr     error
	tagCalls   []string
	indexCalls int
}

func (f *fakeIndexer) Search(ctx context.Context, query string) ([]*notmuch.SearchRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.searchRows, nil
}

func (f *fakeIndexer) Show(ctx context.Context, threadID string) (notmuch.ThreadNode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.showErr != nil {
		return notmuch.ThreadNode{}, f.showErr
	}
	return f.showRoot, nil
}

func (f *fakeIndexer) Tag(ctx context.Context, scope notmuch.Scope, id string, exprs []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.tagErr != nil {
		return f.tagErr
	}
	call := string(scope) + ":" + id
	for _, e := range exprs {
		call += " " + e
	}
	f.tagCalls = append(f.tagCalls, call)
	return nil
}

func (f *fakeIndexer) Index(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.indexCalls++
	return nil
}

func (f *fakeIndexer) taggedWith() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.tagCalls))
	copy(out, f.tagCalls)
	return out
}

func (f *fakeIndexer) indexed() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.indexCalls
}

func leaf(id string, ts int64, tags ...string) notmuch.ThreadNode {
	return notmuch.ThreadNode{Leaf: &notmuch.Message{
		ID:        id,
		Timestamp: ts,
		Tags:      tags,
		Headers:   map[string]string{"From": id + "@example.com", "Subject": "s-" + id},
	}}
}

func branch(children ...notmuch.ThreadNode) notmuch.ThreadNode {
	return notmuch.ThreadNode{Branch: children}
}
