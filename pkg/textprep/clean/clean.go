// Package clean normalizes raw tweet text before annotation.
// Scraped tweet dumps routinely carry HTML fragments and entities
// ("&amp;", "<a href=...>"); the NLP pipelines expect plain text.
package clean

import (
	"strings"

	"golang.org/x/net/html"
)

// StripHTML removes markup and decodes entities, keeping only text content.
func StripHTML(s string) string {
	doc, err := html.Parse(strings.NewReader(s))
	if err != nil {
		// Fallback to string if parsing fails
		return s
	}

	var buf strings.Builder
	var extractText func(*html.Node)
	extractText = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extractText(c)
		}
	}
	extractText(doc)

	return strings.TrimSpace(buf.String())
}

// Text strips markup and collapses runs of whitespace to single spaces.
func Text(s string) string {
	return strings.Join(strings.Fields(StripHTML(s)), " ")
}
