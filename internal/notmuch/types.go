package notmuch

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
)

// ErrMalformedThread is returned when the output of "notmuch show" contains a
// node that is neither a message object nor a list of child nodes. Callers
// must treat the whole thread as unavailable rather than render it partially.
var ErrMalformedThread = errors.New("malformed thread node")

// SearchRow is one conversation summary as emitted by
// "notmuch search --format=json". Row order mirrors notmuch output and is
// never re-sorted client side.
type SearchRow struct {
	ThreadID     string   `json:"thread"`
	Timestamp    int64    `json:"timestamp"`
	DateRelative string   `json:"date_relative"`
	Matched      int      `json:"matched"`
	Total        int      `json:"total"`
	Authors      string   `json:"authors"`
	Subject      string   `json:"subject"`
	Tags         []string `json:"tags"`
}

// HasTag reports whether the row carries the given tag.
func (r *SearchRow) HasTag(tag string) bool {
	for _, t := range r.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// IsUnread reports whether the conversation contains unread messages.
func (r *SearchRow) IsUnread() bool {
	return r.HasTag("unread")
}

// Part is a single MIME part from a message body. Multipart containers carry
// their children in Children and have an empty Content.
type Part struct {
	ID          int
	ContentType string
	Disposition string
	ContentID   string
	Filename    string
	Content     string
	Children    []Part
}

type partJSON struct {
	ID          int             `json:"id"`
	ContentType string          `json:"content-type"`
	Disposition string          `json:"content-disposition"`
	ContentID   string          `json:"content-id"`
	Filename    string          `json:"filename"`
	Content     json.RawMessage `json:"content"`
}

// UnmarshalJSON decodes a body part, accepting either a string payload or a
// nested list of sub-parts in the "content" field.
func (p *Part) UnmarshalJSON(data []byte) error {
	var aux partJSON
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	p.ID = aux.ID
	p.ContentType = aux.ContentType
	p.Disposition = aux.Disposition
	p.ContentID = aux.ContentID
	p.Filename = aux.Filename
	p.Content = ""
	p.Children = nil

	raw := bytes.TrimSpace(aux.Content)
	if len(raw) == 0 {
		return nil
	}
	switch raw[0] {
	case '"':
		return json.Unmarshal(raw, &p.Content)
	case '[':
		return json.Unmarshal(raw, &p.Children)
	}
	return nil
}

// IsAttachment reports whether the part should be listed as an attachment.
func (p *Part) IsAttachment() bool {
	return p.Disposition == "attachment" && p.Filename != ""
}

// Message is one parsed message from "notmuch show". Immutable once fetched;
// refreshes replace the containing snapshot wholesale.
type Message struct {
	ID           string
	Timestamp    int64
	DateRelative string
	Tags         []string
	Headers      map[string]string
	Body         []Part
	Filenames    []string
}

type messageJSON struct {
	ID           string            `json:"id"`
	Timestamp    int64             `json:"timestamp"`
	DateRelative string            `json:"date_relative"`
	Tags         []string          `json:"tags"`
	Headers      map[string]string `json:"headers"`
	Body         []Part            `json:"body"`
	Filename     json.RawMessage   `json:"filename"`
}

// UnmarshalJSON decodes a message object. The "filename" field is a list on
// current notmuch versions but was a single string historically; both forms
// are accepted.
func (m *Message) UnmarshalJSON(data []byte) error {
	var aux messageJSON
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	m.ID = aux.ID
	m.Timestamp = aux.Timestamp
	m.DateRelative = aux.DateRelative
	m.Tags = aux.Tags
	m.Headers = aux.Headers
	m.Body = aux.Body
	m.Filenames = nil

	raw := bytes.TrimSpace(aux.Filename)
	if len(raw) == 0 {
		return nil
	}
	switch raw[0] {
	case '[':
		return json.Unmarshal(raw, &m.Filenames)
	case '"':
		var single string
		if err := json.Unmarshal(raw, &single); err != nil {
			return err
		}
		m.Filenames = []string{single}
	}
	return nil
}

// Header returns the named header or "" when absent. Lookup is
// case-insensitive since notmuch preserves the original header casing.
func (m *Message) Header(name string) string {
	if v, ok := m.Headers[name]; ok {
		return v
	}
	for k, v := range m.Headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}

// HasTag reports whether the message carries the given tag.
func (m *Message) HasTag(tag string) bool {
	for _, t := range m.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// IsUnread reports whether the message carries the unread tag.
func (m *Message) IsUnread() bool {
	return m.HasTag("unread")
}

// WalkParts visits every body part depth-first, containers included.
func (m *Message) WalkParts(visit func(p *Part)) {
	var walk func(parts []Part)
	walk = func(parts []Part) {
		for i := range parts {
			visit(&parts[i])
			walk(parts[i].Children)
		}
	}
	walk(m.Body)
}

// FirstPart returns the first leaf part whose content type matches, or nil.
func (m *Message) FirstPart(contentType string) *Part {
	var found *Part
	m.WalkParts(func(p *Part) {
		if found == nil && strings.EqualFold(p.ContentType, contentType) {
			found = p
		}
	})
	return found
}

// PartByContentID returns the part whose Content-ID matches the given
// reference, or nil when it does not resolve. Angle brackets and a "cid:"
// prefix on the reference are ignored.
func (m *Message) PartByContentID(cid string) *Part {
	cid = strings.TrimPrefix(cid, "cid:")
	cid = strings.Trim(cid, "<>")
	if cid == "" {
		return nil
	}
	var found *Part
	m.WalkParts(func(p *Part) {
		if found == nil && strings.Trim(p.ContentID, "<>") == cid {
			found = p
		}
	})
	return found
}

// Attachments returns the parts carrying an attachment disposition.
func (m *Message) Attachments() []*Part {
	var out []*Part
	m.WalkParts(func(p *Part) {
		if p.IsAttachment() {
			out = append(out, p)
		}
	})
	return out
}

// ThreadNode is the raw nested form returned by "notmuch show": either a
// single message or an ordered sequence of child nodes mirroring the reply
// structure. Nesting carries no display semantics beyond grouping; Flatten
// discards it.
type ThreadNode struct {
	Leaf   *Message
	Branch []ThreadNode
}

// UnmarshalJSON decodes a node as either a message object or a list of child
// nodes. Anything else leaves both fields nil, which Flatten rejects as
// malformed; null placeholders for excluded messages land here too.
func (n *ThreadNode) UnmarshalJSON(data []byte) error {
	n.Leaf = nil
	n.Branch = nil

	raw := bytes.TrimSpace(data)
	if len(raw) == 0 {
		return nil
	}
	switch raw[0] {
	case '[':
		children := []ThreadNode{}
		if err := json.Unmarshal(raw, &children); err != nil {
			return err
		}
		n.Branch = children
		return nil
	case '{':
		var m Message
		if err := json.Unmarshal(raw, &m); err != nil {
			return err
		}
		n.Leaf = &m
		return nil
	}
	return nil
}
