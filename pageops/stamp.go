package pageops

import (
	"fmt"

	gofpdf "github.com/jung-kurt/gofpdf"
)

// Stamp describes translucent text drawn diagonally across a page, for
// markings like "CONFIDENTIAL" or "DRAFT".
type Stamp struct {
	Text     string   // stamp text
	FontSize float64  // font size in points (default 60)
	Color    RGBColor // text color (default light gray)
	Opacity  float64  // 0.0 to 1.0 (default 0.3)
	Angle    float64  // rotation angle in degrees (default 45)
}

// StampText draws st across the selected 1-based pages of src. Without a
// page selection every page is stamped.
func StampText(src []byte, st Stamp, pages ...int) (out []byte, err error) {
	if st.Text == "" {
		return nil, fmt.Errorf("pageops: stamp text is empty")
	}
	if st.FontSize == 0 {
		st.FontSize = 60
	}
	if st.Opacity == 0 {
		st.Opacity = 0.3
	}
	if st.Angle == 0 {
		st.Angle = 45
	}
	if st.Color == (RGBColor{}) {
		st.Color = RGBColor{200, 200, 200}
	}

	n, err := sourcePages(src)
	if err != nil {
		return nil, fmt.Errorf("pageops: stamp: %w", err)
	}
	selected, err := pageSet(pages, n)
	if err != nil {
		return nil, fmt.Errorf("pageops: stamp: %w", err)
	}
	defer recoverImport(&err)

	pdf := newCanvas()
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	s := newSource(src)
	for p := 1; p <= n; p++ {
		tpl, w, h := s.importTemplate(pdf, p)
		s.layDown(pdf, tpl, w, h)
		if selected[p] {
			drawStamp(pdf, tr, st, w, h)
		}
	}
	return output(pdf)
}

// StampTextToFile stamps the file at inputPath and writes the result to
// outputPath.
func StampTextToFile(inputPath, outputPath string, st Stamp, pages ...int) error {
	src, err := readInput(inputPath)
	if err != nil {
		return err
	}
	out, err := StampText(src, st, pages...)
	if err != nil {
		return err
	}
	return writeOutput(outputPath, out)
}

// drawStamp renders the stamp text rotated around the page center.
func drawStamp(pdf *gofpdf.Fpdf, tr func(string) string, st Stamp, pageW, pageH float64) {
	pdf.SetFont("Helvetica", "B", st.FontSize)
	pdf.SetTextColor(st.Color.R, st.Color.G, st.Color.B)
	pdf.SetAlpha(st.Opacity, "Normal")

	text := tr(st.Text)
	textW := pdf.GetStringWidth(text)
	cx := pageW / 2
	cy := pageH / 2

	pdf.TransformBegin()
	pdf.TransformRotate(st.Angle, cx, cy)
	pdf.Text(cx-textW/2, cy+st.FontSize/3, text)
	pdf.TransformEnd()

	pdf.SetAlpha(1.0, "Normal")
}

// PageNumberStyle defines the appearance and placement of page numbers.
type PageNumberStyle struct {
	Format   string   // fmt format string receiving page and total, e.g. "Page %d of %d"
	Position Position // placement (default BottomCenter)
	FontSize float64  // font size in points (default 10)
	Color    RGBColor // text color (default black)
	Margin   float64  // distance from the page edge in points (default 30)
}

// AddPageNumbers draws a page number on every page of src.
func AddPageNumbers(src []byte, style PageNumberStyle) (out []byte, err error) {
	if style.Format == "" {
		style.Format = "Page %d of %d"
	}
	if style.FontSize == 0 {
		style.FontSize = 10
	}
	if style.Margin == 0 {
		style.Margin = 30
	}

	n, err := sourcePages(src)
	if err != nil {
		return nil, fmt.Errorf("pageops: page numbers: %w", err)
	}
	defer recoverImport(&err)

	pdf := newCanvas()
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	s := newSource(src)
	for p := 1; p <= n; p++ {
		tpl, w, h := s.importTemplate(pdf, p)
		s.layDown(pdf, tpl, w, h)

		text := tr(fmt.Sprintf(style.Format, p, n))
		pdf.SetFont("Helvetica", "", style.FontSize)
		pdf.SetTextColor(style.Color.R, style.Color.G, style.Color.B)
		x, y := placeText(style.Position, w, h, pdf.GetStringWidth(text), style.FontSize, style.Margin)
		pdf.Text(x, y, text)
	}
	return output(pdf)
}

// AddPageNumbersToFile numbers the pages of the file at inputPath and
// writes the result to outputPath.
func AddPageNumbersToFile(inputPath, outputPath string, style PageNumberStyle) error {
	src, err := readInput(inputPath)
	if err != nil {
		return err
	}
	out, err := AddPageNumbers(src, style)
	if err != nil {
		return err
	}
	return writeOutput(outputPath, out)
}

// placeText returns the text origin for a position, inset by margin.
func placeText(pos Position, pageW, pageH, textW, textH, margin float64) (x, y float64) {
	switch pos {
	case TopLeft:
		return margin, margin + textH
	case TopCenter:
		return (pageW - textW) / 2, margin + textH
	case TopRight:
		return pageW - textW - margin, margin + textH
	case BottomLeft:
		return margin, pageH - margin
	case BottomRight:
		return pageW - textW - margin, pageH - margin
	case Center:
		return (pageW - textW) / 2, pageH / 2
	default: // BottomCenter
		return (pageW - textW) / 2, pageH - margin
	}
}
