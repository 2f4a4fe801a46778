// Package markup renders chat message markup for the terminal.
//
// Messages are stored as the HTML fragments the web client produced, so the
// renderer understands the small subset that appears in practice: anchors,
// line breaks, paragraphs, list items and entities. Everything else is
// reduced to its text.
package markup

import (
	"html"
	"strings"

	xhtml "golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// LinkFunc formats an anchor for display.
type LinkFunc func(text, href string) string

// PlainLink renders an anchor as "text (href)".
func PlainLink(text, href string) string {
	if href == "" || href == text {
		return text
	}
	return text + " (" + href + ")"
}

// Render converts markup to terminal text, formatting anchors with link.
// A nil link uses PlainLink.
func Render(src string, link LinkFunc) string {
	if link == nil {
		link = PlainLink
	}

	var (
		out    strings.Builder
		anchor *strings.Builder
		href   string
		skip   int // depth inside script/style
	)
	write := func(s string) {
		if anchor != nil {
			anchor.WriteString(s)
			return
		}
		out.WriteString(s)
	}
	newline := func() {
		s := out.String()
		if s != "" && !strings.HasSuffix(s, "\n") {
			out.WriteString("\n")
		}
	}

	z := xhtml.NewTokenizer(strings.NewReader(src))
	for {
		tt := z.Next()
		switch tt {
		case xhtml.ErrorToken:
			if anchor != nil {
				out.WriteString(link(anchor.String(), href))
			}
			return out.String()

		case xhtml.TextToken:
			if skip == 0 {
				write(string(z.Text()))
			}

		case xhtml.StartTagToken, xhtml.SelfClosingTagToken:
			name, hasAttr := z.TagName()
			switch atom.Lookup(name) {
			case atom.A:
				href = ""
				for hasAttr {
					var key, val []byte
					key, val, hasAttr = z.TagAttr()
					if string(key) == "href" {
						href = string(val)
					}
				}
				anchor = &strings.Builder{}
			case atom.Br:
				write("\n")
			case atom.P, atom.Div, atom.Ul, atom.Ol:
				newline()
			case atom.Li:
				newline()
				write("• ")
			case atom.Script, atom.Style:
				if tt == xhtml.StartTagToken {
					skip++
				}
			}

		case xhtml.EndTagToken:
			name, _ := z.TagName()
			switch atom.Lookup(name) {
			case atom.A:
				if anchor != nil {
					text := anchor.String()
					anchor = nil
					out.WriteString(link(text, href))
				}
			case atom.P, atom.Div, atom.Li, atom.Ul, atom.Ol:
				newline()
			case atom.Script, atom.Style:
				if skip > 0 {
					skip--
				}
			}
		}
	}
}

// Text strips all tags, keeping anchor text only.
func Text(src string) string {
	return Render(src, func(text, _ string) string { return text })
}

// Preview is the first n characters of the message text with whitespace
// collapsed; "..." marks a truncation.
func Preview(src string, n int) string {
	text := strings.Join(strings.Fields(Text(src)), " ")
	r := []rune(text)
	if len(r) > n {
		return string(r[:n]) + "..."
	}
	return text
}

// Escape turns plain text into markup that renders as the same text.
func Escape(s string) string {
	return html.EscapeString(s)
}
