package notmuch

import (
	"fmt"
	"sort"
)

// Flatten collapses a nested thread tree into a single sequence of messages
// ordered by timestamp ascending. Collection is depth-first, left to right,
// and the sort is stable, so messages sharing a timestamp keep their
// traversal order. A node that is neither a message nor a sequence aborts
// the whole flatten with ErrMalformedThread.
func Flatten(root ThreadNode) ([]*Message, error) {
	var msgs []*Message

	var walk func(n ThreadNode) error
	walk = func(n ThreadNode) error {
		switch {
		case n.Leaf != nil:
			msgs = append(msgs, n.Leaf)
		case n.Branch != nil:
			for _, child := range n.Branch {
				if err := walk(child); err != nil {
					return err
				}
			}
		default:
			return fmt.Errorf("flatten thread: %w", ErrMalformedThread)
		}
		return nil
	}

	if err := walk(root); err != nil {
		return nil, err
	}

	sort.SliceStable(msgs, func(i, j int) bool {
		return msgs[i].Timestamp < msgs[j].Timestamp
	})
	return msgs, nil
}
