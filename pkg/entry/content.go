package entry

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Elements that carry content without any text.
var mediaAtoms = map[atom.Atom]struct{}{
	atom.Img:    {},
	atom.Video:  {},
	atom.Audio:  {},
	atom.Iframe: {},
	atom.Hr:     {},
	atom.Input:  {},
}

// NormalizeContent returns the content to persist for an editor value. Markup
// without any visible text (empty paragraphs, line breaks, &nbsp;) normalizes
// to the empty string, meaning there is nothing to save.
func NormalizeContent(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return ""
	}
	if !strings.ContainsAny(trimmed, "<&") {
		return trimmed
	}
	doc, err := html.Parse(strings.NewReader(trimmed))
	if err != nil {
		// Not markup we understand; keep what the user typed.
		return trimmed
	}
	if !hasContent(doc) {
		return ""
	}
	return trimmed
}

// IsBlank reports whether value normalizes to no content.
func IsBlank(value string) bool {
	return NormalizeContent(value) == ""
}

func hasContent(n *html.Node) bool {
	switch n.Type {
	case html.TextNode:
		if strings.TrimSpace(n.Data) != "" {
			return true
		}
	case html.ElementNode:
		if _, ok := mediaAtoms[n.DataAtom]; ok {
			return true
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if hasContent(c) {
			return true
		}
	}
	return false
}

// PlainText strips markup for terminal display.
func PlainText(value string) string {
	if !strings.ContainsAny(value, "<&") {
		return value
	}
	doc, err := html.Parse(strings.NewReader(value))
	if err != nil {
		return value
	}
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.Br:
				b.WriteString("\n")
			case atom.P, atom.Div, atom.Li:
				if b.Len() > 0 && !strings.HasSuffix(b.String(), "\n") {
					b.WriteString("\n")
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return strings.TrimSpace(b.String())
}
