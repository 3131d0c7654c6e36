package notmuch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os/exec"
	"strings"
)

// Scope selects what a tag mutation applies to.
type Scope string

const (
	// ScopeThread targets every message in a thread (thread:<id>).
	ScopeThread Scope = "thread"
	// ScopeMessage targets a single message (id:<id>).
	ScopeMessage Scope = "id"
)

// runnerFunc executes an external command and returns its stdout. Tests
// substitute this to avoid depending on an installed notmuch binary.
type runnerFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return nil, fmt.Errorf("%s %s: %s: %w", name, strings.Join(args, " "), msg, err)
		}
		return nil, fmt.Errorf("%s %s: %w", name, strings.Join(args, " "), err)
	}
	return stdout.Bytes(), nil
}

// Client shells out to the notmuch binary and parses its JSON output. All
// calls are synchronous; they are expected to be fast and local, so no
// timeout is applied here.
type Client struct {
	binary string
	logger *log.Logger
	run    runnerFunc
}

// NewClient creates a client for the given notmuch binary. An empty binary
// falls back to "notmuch" on PATH.
func NewClient(binary string) *Client {
	if strings.TrimSpace(binary) == "" {
		binary = "notmuch"
	}
	return &Client{binary: binary, run: runCommand}
}

// SetLogger sets the logger for debug output.
func (c *Client) SetLogger(logger *log.Logger) {
	c.logger = logger
}

// Search runs "notmuch search --format=json" and returns the conversation
// rows in notmuch's own order.
func (c *Client) Search(ctx context.Context, query string) ([]*SearchRow, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("empty search query")
	}
	out, err := c.run(ctx, c.binary, "search", "--format=json", query)
	if err != nil {
		return nil, fmt.Errorf("notmuch search: %w", err)
	}
	var rows []*SearchRow
	if err := json.Unmarshal(out, &rows); err != nil {
		return nil, fmt.Errorf("parse search output: %w", err)
	}
	if c.logger != nil {
		c.logger.Printf("notmuch: search %q returned %d threads", query, len(rows))
	}
	return rows, nil
}

// Show runs "notmuch show --format=json --include-html" for a thread and
// returns the raw nested tree. Callers flatten it before display.
func (c *Client) Show(ctx context.Context, threadID string) (ThreadNode, error) {
	if strings.TrimSpace(threadID) == "" {
		return ThreadNode{}, fmt.Errorf("empty thread ID")
	}
	out, err := c.run(ctx, c.binary, "show", "--format=json", "--include-html", "thread:"+threadID)
	if err != nil {
		return ThreadNode{}, fmt.Errorf("notmuch show: %w", err)
	}
	var root ThreadNode
	if err := json.Unmarshal(out, &root); err != nil {
		return ThreadNode{}, fmt.Errorf("parse show output: %w", err)
	}
	return root, nil
}

// Tag applies one or more +TAG/-TAG expressions to a thread or message.
// The exit status is intentionally not inspected beyond launch failure;
// notmuch reports per-message tagging problems on stderr only.
func (c *Client) Tag(ctx context.Context, scope Scope, id string, exprs []string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("empty target ID")
	}
	if len(exprs) == 0 {
		return fmt.Errorf("empty tag expression")
	}
	args := append([]string{"tag"}, exprs...)
	args = append(args, "--", string(scope)+":"+id)
	if _, err := c.run(ctx, c.binary, args...); err != nil {
		return fmt.Errorf("notmuch tag: %w", err)
	}
	if c.logger != nil {
		c.logger.Printf("notmuch: tagged %s:%s with %v", scope, id, exprs)
	}
	return nil
}

// Part returns the raw bytes of a single MIME part, decoded from its
// transfer encoding by notmuch. Used to extract attachments to disk.
func (c *Client) Part(ctx context.Context, messageID string, part int) ([]byte, error) {
	if strings.TrimSpace(messageID) == "" {
		return nil, fmt.Errorf("empty message ID")
	}
	out, err := c.run(ctx, c.binary, "show", "--format=raw", fmt.Sprintf("--part=%d", part), "id:"+messageID)
	if err != nil {
		return nil, fmt.Errorf("notmuch show part: %w", err)
	}
	return out, nil
}

// Index runs "notmuch new" so freshly delivered mail (for example the sent
// copy) is picked up by the index.
func (c *Client) Index(ctx context.Context) error {
	if _, err := c.run(ctx, c.binary, "new"); err != nil {
		return fmt.Errorf("notmuch new: %w", err)
	}
	return nil
}
