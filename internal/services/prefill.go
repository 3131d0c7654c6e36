package services

import (
	"fmt"
	"strings"

	"github.com/rbarranco/nmail/internal/notmuch"
)

// subjectPrefix prepends a reply/forward marker unless one of the usual
// variants is already present.
func subjectPrefix(prefix, subject string) string {
	trimmed := strings.TrimSpace(subject)
	lower := strings.ToLower(trimmed)
	for _, p := range []string{"re:", "fw:", "fwd:"} {
		if strings.HasPrefix(lower, p) && strings.EqualFold(p, strings.ToLower(prefix)) {
			return trimmed
		}
	}
	if trimmed == "" {
		return prefix
	}
	return prefix + " " + trimmed
}

// quoteBody prefixes every line of the original text with the quote marker,
// preceded by an attribution line.
func quoteBody(m *notmuch.Message) string {
	var b strings.Builder
	fmt.Fprintf(&b, "On %s, %s wrote:\n", m.Header("Date"), m.Header("From"))

	text := ""
	if p := m.FirstPart("text/plain"); p != nil {
		text = p.Content
	}
	for _, line := range strings.Split(strings.TrimRight(text, "\n"), "\n") {
		b.WriteString("> ")
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

// splitAddresses splits a recipient header on commas and semicolons.
func splitAddresses(header string) []string {
	var out []string
	for _, part := range strings.FieldsFunc(header, func(r rune) bool {
		return r == ',' || r == ';'
	}) {
		if a := strings.TrimSpace(part); a != "" {
			out = append(out, a)
		}
	}
	return out
}

// replyRecipients computes the recipient lines for a reply. Reply-To wins
// over From on the To line; with all set, the original To and Cc recipients
// accumulate on the Cc line. The sender's own address and duplicates are
// dropped across both lines.
func replyRecipients(m *notmuch.Message, all bool, ownAddress string) (to, cc []string) {
	seen := map[string]bool{}
	add := func(dst []string, addrs []string) []string {
		for _, a := range addrs {
			key := strings.ToLower(bareAddress(a))
			if key == "" || seen[key] {
				continue
			}
			if ownAddress != "" && key == strings.ToLower(ownAddress) {
				continue
			}
			seen[key] = true
			dst = append(dst, a)
		}
		return dst
	}

	sender := m.Header("Reply-To")
	if sender == "" {
		sender = m.Header("From")
	}
	to = add(nil, splitAddresses(sender))

	if all {
		for _, h := range []string{"To", "Cc"} {
			cc = add(cc, splitAddresses(m.Header(h)))
		}
	}
	return to, cc
}

// bareAddress strips a display name and angle brackets from an address.
func bareAddress(addr string) string {
	if i := strings.Index(addr, "<"); i >= 0 {
		if j := strings.Index(addr[i:], ">"); j > 0 {
			return strings.TrimSpace(addr[i+1 : i+j])
		}
	}
	return strings.TrimSpace(addr)
}
