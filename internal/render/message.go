package render

import (
	"fmt"
	"strings"

	"github.com/derailed/tview"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rbarranco/nmail/internal/config"
	"github.com/rbarranco/nmail/internal/notmuch"
)

// BodyMode selects how a message body is rendered.
type BodyMode int

const (
	// ModePlainText renders the first text/plain part with quote styling.
	ModePlainText BodyMode = iota
	// ModeHTML renders the first text/html part, sanitized.
	ModeHTML
)

// Renderer converts a single message into tview markup. It holds the tag
// icon mapping and the remote-content policy; both come from configuration.
type Renderer struct {
	icons        map[string]string
	allowRemote  bool
	headerKeyTag string // e.g. "[#50fa7b::b]"
	tagTag       string
	quoteTag     string
	policy       *bluemonday.Policy
}

// NewRenderer creates a renderer. When allowRemote is false (the default
// configuration) the HTML sanitizer strips every reference that is not a
// cid: or mailto: URL, so nothing can trigger a remote fetch.
func NewRenderer(icons map[string]string, allowRemote bool) *Renderer {
	if icons == nil {
		icons = map[string]string{}
	}
	return &Renderer{
		icons:        icons,
		allowRemote:  allowRemote,
		headerKeyTag: "[green::b]",
		tagTag:       "[aqua]",
		quoteTag:     "[gray]",
		policy:       newBodyPolicy(allowRemote),
	}
}

func newBodyPolicy(allowRemote bool) *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowElements("p", "br", "div", "span", "h1", "h2", "h3", "h4", "h5", "h6")
	p.AllowElements("strong", "em", "u", "s", "code", "pre")
	p.AllowElements("ul", "ol", "li", "blockquote")
	p.AllowElements("a", "img")
	p.AllowElements("table", "thead", "tbody", "tr", "th", "td")
	p.AllowAttrs("href").OnElements("a")
	p.AllowAttrs("src", "alt").OnElements("img")
	p.RequireParseableURLs(true)
	if allowRemote {
		p.AllowURLSchemes("http", "https", "mailto", "cid")
	} else {
		p.AllowURLSchemes("mailto", "cid")
	}
	return p
}

// UpdateFromConfig applies theme colors to the markup tags.
func (r *Renderer) UpdateFromConfig(colors *config.ColorsConfig) {
	if colors == nil {
		return
	}
	r.headerKeyTag = fmt.Sprintf("[%s::b]", colors.Mail.HeaderColor.String())
	r.tagTag = fmt.Sprintf("[%s]", colors.Mail.TagColor.String())
	r.quoteTag = fmt.Sprintf("[%s]", colors.Mail.QuoteColor.String())
}

// TagSummary maps each tag through the icon table, falling back to the
// bracketed tag name.
func (r *Renderer) TagSummary(tags []string) string {
	parts := make([]string, 0, len(tags))
	for _, t := range tags {
		if icon, ok := r.icons[t]; ok {
			parts = append(parts, icon)
		} else {
			parts = append(parts, "["+t+"]")
		}
	}
	return strings.Join(parts, " ")
}

// headerOrder is the fixed display order; absent headers are skipped.
var headerOrder = []string{"Subject", "Date", "From", "To", "Cc"}

// RenderHeaders produces the header block for the message view: the fixed
// header table, a tag summary, and an attachment summary.
func (r *Renderer) RenderHeaders(m *notmuch.Message) string {
	var b strings.Builder

	for _, name := range headerOrder {
		if v := m.Header(name); v != "" {
			fmt.Fprintf(&b, "%s%s:[-:-:-] %s\n", r.headerKeyTag, name, tview.Escape(v))
		}
	}

	if len(m.Tags) > 0 {
		fmt.Fprintf(&b, "%sTags:[-:-:-] %s%s[-]\n",
			r.headerKeyTag, r.tagTag, tview.Escape(r.TagSummary(m.Tags)))
	}

	if atts := m.Attachments(); len(atts) > 0 {
		names := make([]string, len(atts))
		for i, p := range atts {
			names[i] = "[" + p.Filename + "]"
		}
		fmt.Fprintf(&b, "%sAttachments:[-:-:-] %s%s[-]\n",
			r.headerKeyTag, r.tagTag, tview.Escape(strings.Join(names, " ")))
	}

	return b.String()
}

// RenderBody renders the message body in the requested mode. A message with
// no matching part yields an empty string, not an error.
func (r *Renderer) RenderBody(m *notmuch.Message, mode BodyMode) string {
	switch mode {
	case ModeHTML:
		part := m.FirstPart("text/html")
		if part == nil {
			return ""
		}
		return r.renderHTML(m, part.Content)
	default:
		part := m.FirstPart("text/plain")
		if part == nil {
			return ""
		}
		return r.colorizeText(part.Content)
	}
}

// colorizeText escapes plain text and styles quoted lines ('>' prefixed)
// distinctly from body text.
func (r *Renderer) colorizeText(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		escaped := tview.Escape(line)
		if strings.HasPrefix(line, ">") {
			lines[i] = r.quoteTag + escaped + "[-]"
		} else {
			lines[i] = escaped
		}
	}
	return strings.Join(lines, "\n")
}
