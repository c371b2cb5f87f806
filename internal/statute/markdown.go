package statute

import (
	"strconv"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

var markdown = goldmark.New(goldmark.WithExtensions(extension.Table))

// FlattenMarkdown renders markdown as plain text. Every heading and paragraph starts on
// its own line, so article headings such as "## Artículo 138." become line-initial
// "Artículo 138." and remain detectable by the article index. Blocks are separated by a
// blank line, list items and table rows by a single newline.
func FlattenMarkdown(content []byte) string {
	content = []byte(normalizeNewlines(string(content)))
	doc := markdown.Parser().Parse(text.NewReader(content))

	var b strings.Builder
	block := func() {
		if b.Len() == 0 {
			return
		}
		s := b.String()
		switch {
		case strings.HasSuffix(s, "\n\n"):
		case strings.HasSuffix(s, "\n"):
			b.WriteString("\n")
		default:
			b.WriteString("\n\n")
		}
	}
	line := func() {
		if b.Len() > 0 && !strings.HasSuffix(b.String(), "\n") {
			b.WriteString("\n")
		}
	}

	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch node := n.(type) {
		case *ast.Heading, *ast.Paragraph, *ast.Blockquote:
			if _, inItem := n.Parent().(*ast.ListItem); inItem {
				return ast.WalkContinue, nil
			}
			block()

		case *ast.List:
			block()

		case *ast.ListItem:
			line()
			if list, ok := n.Parent().(*ast.List); ok && list.IsOrdered() {
				b.WriteString(strconv.Itoa(list.Start+itemIndex(n)) + string(list.Marker) + " ")
			}

		case *ast.Text:
			b.Write(node.Segment.Value(content))
			if node.HardLineBreak() || node.SoftLineBreak() {
				b.WriteString("\n")
			}

		case *ast.String:
			b.Write(node.Value)

		case *ast.CodeBlock, *ast.FencedCodeBlock:
			block()
			lines := n.Lines()
			for i := 0; i < lines.Len(); i++ {
				seg := lines.At(i)
				b.Write(seg.Value(content))
			}
			return ast.WalkSkipChildren, nil

		case *extast.Table:
			block()

		case *extast.TableHeader, *extast.TableRow:
			line()
			b.WriteString(tableRowText(n, content))
			b.WriteString("\n")
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})

	return collapseBlankRuns(strings.TrimSpace(b.String()))
}

func itemIndex(item ast.Node) int {
	i := 0
	for p := item.PreviousSibling(); p != nil; p = p.PreviousSibling() {
		i++
	}
	return i
}

// tableRowText formats the cells of a table row separated by " | ".
func tableRowText(row ast.Node, content []byte) string {
	var cells []string
	for c := row.FirstChild(); c != nil; c = c.NextSibling() {
		cells = append(cells, strings.TrimSpace(nodeText(c, content)))
	}
	return strings.Join(cells, " | ")
}

// nodeText concatenates the text leaves under n.
func nodeText(n ast.Node, content []byte) string {
	var b strings.Builder
	_ = ast.Walk(n, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch v := node.(type) {
		case *ast.Text:
			b.Write(v.Segment.Value(content))
		case *ast.String:
			b.Write(v.Value)
		}
		return ast.WalkContinue, nil
	})
	return b.String()
}

func collapseBlankRuns(s string) string {
	for strings.Contains(s, "\n\n\n") {
		s = strings.ReplaceAll(s, "\n\n\n", "\n\n")
	}
	return s
}
