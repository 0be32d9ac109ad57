package acquire

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
)

var blockElements = map[string]bool{
	"p": true, "h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"li": true, "blockquote": true, "pre": true, "td": true, "th": true,
	"figcaption": true, "dt": true, "dd": true,
}

var skippedElements = map[string]bool{
	"script": true, "style": true, "noscript": true, "template": true, "head": true, "svg": true,
}

// htmlText joins the text of every outermost block-level element. Nested
// blocks are read once, as part of their outermost ancestor.
func htmlText(body []byte) (string, error) {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	var blocks []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if skippedElements[n.Data] {
				return
			}
			if blockElements[n.Data] {
				var sb strings.Builder
				collectText(n, &sb)
				if txt := normalizeSpace(sb.String()); txt != "" {
					blocks = append(blocks, txt)
				}
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return strings.Join(blocks, " "), nil
}

func collectText(n *html.Node, sb *strings.Builder) {
	switch n.Type {
	case html.TextNode:
		sb.WriteString(n.Data)
		return
	case html.ElementNode:
		if skippedElements[n.Data] {
			return
		}
		if n.Data == "br" {
			sb.WriteString(" ")
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, sb)
	}
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
