package docgen

import (
	"fmt"
	"strings"

	gofpdf "github.com/jung-kurt/gofpdf"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	gmtext "github.com/yuin/goldmark/text"
)

// markdown renders a markdown element by walking its CommonMark AST:
// headings, paragraphs with emphasis/strong/code spans, lists, code
// blocks and thematic breaks.
func (r *renderer) markdown(elem Element) error {
	source := []byte(elem.Text)
	root := goldmark.New().Parser().Parse(gmtext.NewReader(source))
	r.markdownBlocks(root, source, 0)
	r.reset(elem)
	return r.pdf.Error()
}

func (r *renderer) markdownBlocks(parent ast.Node, source []byte, depth int) {
	for n := parent.FirstChild(); n != nil; n = n.NextSibling() {
		switch b := n.(type) {
		case *ast.Heading:
			r.markdownHeading(b, source)
		case *ast.Paragraph, *ast.TextBlock:
			r.markdownParagraph(n, source)
		case *ast.List:
			r.markdownList(b, source, depth)
		case *ast.FencedCodeBlock, *ast.CodeBlock:
			r.markdownCode(n, source)
		case *ast.ThematicBreak:
			r.rule(Element{})
		default:
			// Containers such as blockquotes render their children.
			r.markdownBlocks(n, source, depth)
		}
	}
}

func (r *renderer) markdownHeading(h *ast.Heading, source []byte) {
	level := h.Level
	if level < 1 {
		level = 1
	}
	if level > 6 {
		level = 6
	}
	size := headingSizes[level-1]

	r.pdf.SetFont(r.font.Family, "B", size)
	r.pdf.Ln(size * 0.3)
	r.pdf.MultiCell(r.contentWidth(), size*0.5, r.tr(inlineText(h, source)), "", "L", false)
	r.pdf.Ln(size * 0.2)
	r.pdf.SetFont(r.font.Family, r.font.Style, r.font.Size)
}

// spanStyle is the inline formatting state while flowing a paragraph.
type spanStyle struct {
	font   Font
	bold   bool
	italic bool
	code   bool
}

func (s spanStyle) apply(pdf *gofpdf.Fpdf) {
	family := s.font.Family
	if s.code {
		family = "Courier"
	}
	style := ""
	if s.bold {
		style += "B"
	}
	if s.italic {
		style += "I"
	}
	pdf.SetFont(family, style, s.font.Size)
}

func (r *renderer) markdownParagraph(n ast.Node, source []byte) {
	lineH := r.font.Size * 0.5
	r.markdownInlines(n, source, spanStyle{font: r.font}, lineH)
	r.pdf.Ln(lineH)
	r.pdf.Ln(r.font.Size * 0.15)
	r.pdf.SetFont(r.font.Family, r.font.Style, r.font.Size)
}

// markdownInlines writes the inline children of a node as flowing text,
// switching fonts for emphasis, strong and code spans.
func (r *renderer) markdownInlines(parent ast.Node, source []byte, st spanStyle, lineH float64) {
	for n := parent.FirstChild(); n != nil; n = n.NextSibling() {
		switch c := n.(type) {
		case *ast.Text:
			st.apply(r.pdf)
			r.pdf.Write(lineH, r.tr(string(c.Segment.Value(source))))
			if c.HardLineBreak() {
				r.pdf.Ln(lineH)
			} else if c.SoftLineBreak() {
				r.pdf.Write(lineH, " ")
			}
		case *ast.String:
			st.apply(r.pdf)
			r.pdf.Write(lineH, r.tr(string(c.Value)))
		case *ast.Emphasis:
			sub := st
			if c.Level >= 2 {
				sub.bold = true
			} else {
				sub.italic = true
			}
			r.markdownInlines(n, source, sub, lineH)
		case *ast.CodeSpan:
			sub := st
			sub.code = true
			r.markdownInlines(n, source, sub, lineH)
		case *ast.AutoLink:
			st.apply(r.pdf)
			r.pdf.Write(lineH, r.tr(string(c.Label(source))))
		default:
			// Links and images contribute their child text.
			r.markdownInlines(n, source, st, lineH)
		}
	}
}

func (r *renderer) markdownList(list *ast.List, source []byte, depth int) {
	lineH := r.font.Size * 0.5
	lm, _, _, _ := r.pdf.GetMargins()
	indent := 5 + float64(depth)*5

	num := list.Start
	if num == 0 {
		num = 1
	}

	for item := list.FirstChild(); item != nil; item = item.NextSibling() {
		prefix := "• "
		if list.IsOrdered() {
			prefix = fmt.Sprintf("%d. ", num)
			num++
		}

		first := true
		for block := item.FirstChild(); block != nil; block = block.NextSibling() {
			if sub, ok := block.(*ast.List); ok {
				r.markdownList(sub, source, depth+1)
				continue
			}
			text := inlineText(block, source)
			if first {
				text = prefix + text
				first = false
			}
			r.pdf.SetX(lm + indent)
			r.pdf.MultiCell(r.contentWidth()-indent, lineH, r.tr(text), "", "L", false)
		}
	}
	r.pdf.Ln(1)
}

func (r *renderer) markdownCode(n ast.Node, source []byte) {
	size := r.font.Size - 1
	if size < 6 {
		size = 6
	}
	lineH := size * 0.5

	r.pdf.SetFont("Courier", "", size)
	r.pdf.SetFillColor(245, 245, 245)

	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		line := strings.TrimRight(string(seg.Value(source)), "\n")
		r.pdf.MultiCell(r.contentWidth(), lineH, r.tr(line), "", "L", true)
	}

	r.pdf.SetFillColor(0, 0, 0)
	r.pdf.Ln(r.font.Size * 0.3)
	r.pdf.SetFont(r.font.Family, r.font.Style, r.font.Size)
}

// inlineText flattens the inline content of a node to plain text.
func inlineText(parent ast.Node, source []byte) string {
	var sb strings.Builder
	for n := parent.FirstChild(); n != nil; n = n.NextSibling() {
		switch c := n.(type) {
		case *ast.Text:
			sb.Write(c.Segment.Value(source))
			if c.SoftLineBreak() || c.HardLineBreak() {
				sb.WriteByte(' ')
			}
		case *ast.String:
			sb.Write(c.Value)
		default:
			sb.WriteString(inlineText(n, source))
		}
	}
	return sb.String()
}
