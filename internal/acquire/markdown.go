package acquire

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

func markdownText(source []byte) string {
	doc := goldmark.New().Parser().Parse(text.NewReader(source))
	var blocks []string
	for node := doc.FirstChild(); node != nil; node = node.NextSibling() {
		if txt := blockText(node, source); txt != "" {
			blocks = append(blocks, txt)
		}
	}
	return strings.Join(blocks, " ")
}

func blockText(n ast.Node, source []byte) string {
	var sb strings.Builder
	_ = ast.Walk(n, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch v := node.(type) {
		case *ast.Text:
			sb.Write(v.Segment.Value(source))
			if v.SoftLineBreak() || v.HardLineBreak() {
				sb.WriteString(" ")
			}
		case *ast.String:
			sb.Write(v.Value)
		case *ast.FencedCodeBlock, *ast.CodeBlock:
			lines := node.Lines()
			for i := 0; i < lines.Len(); i++ {
				line := lines.At(i)
				sb.Write(line.Value(source))
			}
			return ast.WalkSkipChildren, nil
		}
		if node.Kind() == ast.KindParagraph || node.Kind() == ast.KindHeading || node.Kind() == ast.KindTextBlock {
			sb.WriteString(" ")
		}
		return ast.WalkContinue, nil
	})
	return normalizeSpace(sb.String())
}
