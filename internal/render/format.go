package render

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// FitWidth pads or truncates a string to the given display width, measuring
// cells rather than bytes so wide runes and emoji line up in table columns.
func FitWidth(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) > width {
		return runewidth.Truncate(s, width, "…")
	}
	return runewidth.FillRight(s, width)
}

// RightFit right-aligns a string within the given display width, truncating
// from the left when it does not fit.
func RightFit(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) > width {
		return runewidth.TruncateLeft(s, runewidth.StringWidth(s)-width+1, "…")
	}
	return runewidth.FillLeft(s, width)
}

// SenderName extracts a display name from an address header value like
// `"Ada Lovelace" <ada@example.com>`, falling back to the bare address.
func SenderName(from string) string {
	from = strings.TrimSpace(from)
	if from == "" {
		return ""
	}
	if i := strings.Index(from, "<"); i > 0 {
		name := strings.TrimSpace(from[:i])
		name = strings.Trim(name, `"`)
		if name != "" {
			return name
		}
	}
	return strings.Trim(strings.Trim(from, "<>"), `"`)
}
