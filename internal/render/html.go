package render

import (
	"strings"

	"github.com/derailed/tview"
	"github.com/rbarranco/nmail/internal/notmuch"
	"golang.org/x/net/html"
)

// renderHTML sanitizes the HTML part and converts what survives into styled
// terminal text. Sanitization runs first so the converter only ever sees
// markup the policy allows.
func (r *Renderer) renderHTML(m *notmuch.Message, raw string) string {
	clean := r.policy.Sanitize(raw)

	doc, err := html.Parse(strings.NewReader(clean))
	if err != nil {
		// Sanitized output that still fails to parse gets shown verbatim,
		// escaped, rather than dropped.
		return tview.Escape(clean)
	}

	var b strings.Builder
	w := &htmlWriter{renderer: r, message: m, out: &b}
	w.walk(doc)
	return strings.TrimRight(collapseBlankLines(b.String()), "\n")
}

// htmlWriter accumulates terminal text while walking a parsed HTML tree.
type htmlWriter struct {
	renderer   *Renderer
	message    *notmuch.Message
	out        *strings.Builder
	quoteDepth int
	listDepth  int
}

// blockElements start and end on their own line.
var blockElements = map[string]bool{
	"p": true, "div": true, "ul": true, "ol": true, "li": true,
	"table": true, "tr": true, "blockquote": true, "pre": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
}

func (w *htmlWriter) walk(n *html.Node) {
	switch n.Type {
	case html.TextNode:
		w.writeText(n.Data)
		return
	case html.ElementNode:
		switch n.Data {
		case "head", "style", "script", "title":
			return
		case "br":
			w.out.WriteString("\n")
			return
		case "img":
			w.writeImage(n)
			return
		case "a":
			w.writeLink(n)
			return
		case "blockquote":
			w.newline()
			w.quoteDepth++
			defer func() {
				w.quoteDepth--
				w.newline()
			}()
		case "li":
			w.newline()
			w.writeQuotePrefix()
			w.out.WriteString(strings.Repeat("  ", w.listDepth))
			w.out.WriteString("- ")
		case "ul", "ol":
			w.listDepth++
			defer func() { w.listDepth-- }()
		case "td", "th":
			w.out.WriteString("\t")
		default:
			if blockElements[n.Data] {
				w.newline()
				defer w.newline()
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		w.walk(c)
	}
}

func (w *htmlWriter) writeText(text string) {
	text = strings.Join(strings.Fields(text), " ")
	if text == "" {
		return
	}
	w.writeQuotePrefix()
	w.out.WriteString(tview.Escape(text))
	w.out.WriteString(" ")
}

// writeQuotePrefix emits the quote marker at the start of a line only.
func (w *htmlWriter) writeQuotePrefix() {
	if w.quoteDepth == 0 {
		return
	}
	s := w.out.String()
	if s != "" && !strings.HasSuffix(s, "\n") {
		return
	}
	w.out.WriteString(w.renderer.quoteTag)
	w.out.WriteString(strings.Repeat("> ", w.quoteDepth))
	w.out.WriteString("[-]")
}

func (w *htmlWriter) newline() {
	if s := w.out.String(); s != "" && !strings.HasSuffix(s, "\n") {
		w.out.WriteString("\n")
	}
}

// writeImage resolves cid: references against the message parts. A reference
// that does not resolve is dropped rather than shown with its raw URL; any
// non-cid src only survives sanitization when remote content is allowed.
func (w *htmlWriter) writeImage(n *html.Node) {
	src := attr(n, "src")
	alt := attr(n, "alt")

	if strings.HasPrefix(src, "cid:") {
		part := w.message.PartByContentID(src)
		if part == nil {
			return
		}
		label := part.Filename
		if label == "" {
			label = alt
		}
		if label == "" {
			label = part.ContentType
		}
		w.writeText("[image: " + label + "]")
		return
	}

	if src != "" {
		label := alt
		if label == "" {
			label = "remote image"
		}
		w.writeText("[image: " + label + "]")
	}
}

// writeLink renders the anchor text followed by the target when they differ.
func (w *htmlWriter) writeLink(n *html.Node) {
	var text strings.Builder
	var collect func(*html.Node)
	collect = func(c *html.Node) {
		if c.Type == html.TextNode {
			text.WriteString(c.Data)
		}
		for gc := c.FirstChild; gc != nil; gc = gc.NextSibling {
			collect(gc)
		}
	}
	collect(n)

	label := strings.Join(strings.Fields(text.String()), " ")
	href := attr(n, "href")

	switch {
	case label == "" && href == "":
		return
	case label == "":
		w.writeText(href)
	case href == "" || href == label:
		w.writeText(label)
	default:
		w.writeText(label + " <" + href + ">")
	}
}

func attr(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val
		}
	}
	return ""
}

// collapseBlankLines squeezes runs of blank lines down to one and trims
// trailing spaces left by inline text joins.
func collapseBlankLines(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	blank := false
	for _, line := range lines {
		line = strings.TrimRight(line, " ")
		if line == "" {
			if blank || len(out) == 0 {
				continue
			}
			blank = true
		} else {
			blank = false
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}
