package reader_test

import (
	"bytes"
	"fmt"
	"math"
	"testing"

	gofpdf "github.com/jung-kurt/gofpdf"

	"github.com/SonoItalianoVero/refactored-lamp/reader"
)

const (
	mmToPt   = 72.0 / 25.4
	a4Height = 841.89
)

func approx(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

// pageLayout parses the PDF and returns the layout of one page.
func pageLayout(t *testing.T, data []byte, pageNum int) *reader.Layout {
	t.Helper()
	doc, err := reader.ReadBytes(data)
	if err != nil {
		t.Fatalf("reading PDF: %v", err)
	}
	page, err := doc.Page(pageNum)
	if err != nil {
		t.Fatalf("getting page %d: %v", pageNum, err)
	}
	layout, err := page.Layout()
	if err != nil {
		t.Fatalf("layout: %v", err)
	}
	return layout
}

// rawPDF assembles a complete PDF file from numbered object bodies
// (object i+1 gets body objects[i]), computing xref offsets. Object 1
// must be the catalog.
func rawPDF(t *testing.T, objects ...string) []byte {
	t.Helper()
	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects)+1)
	for i, body := range objects {
		offsets[i+1] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, body)
	}
	xrefOff := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for i := 1; i <= len(objects); i++ {
		fmt.Fprintf(&buf, "%010d 00000 n \n", offsets[i])
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n",
		len(objects)+1, xrefOff)
	return buf.Bytes()
}

// streamObj wraps content in a stream object body with a correct /Length.
func streamObj(extra, content string) string {
	return fmt.Sprintf("<< %s/Length %d >>\nstream\n%s\nendstream", extra, len(content), content)
}

func TestLayoutSingleLine(t *testing.T) {
	data := generateTestPDF(t, "Hello")
	layout := pageLayout(t, data, 1)

	if len(layout.Lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(layout.Lines))
	}
	line := layout.Lines[0]
	if line.Text != "Hello" {
		t.Errorf("line text = %q, want %q", line.Text, "Hello")
	}
	if len(line.Glyphs) != 5 {
		t.Fatalf("expected 5 glyphs, got %d", len(line.Glyphs))
	}

	g := line.Glyphs[0]
	if g.Text != "H" {
		t.Errorf("glyph 0 text = %q, want H", g.Text)
	}
	if g.FontName != "Helvetica" {
		t.Errorf("glyph 0 font = %q, want Helvetica", g.FontName)
	}
	if !approx(g.FontSize, 12, 0.01) {
		t.Errorf("glyph 0 size = %g, want 12", g.FontSize)
	}

	// Text(10, 20) in mm: x = 28.35pt, baseline = 841.89 - 56.69pt.
	if !approx(g.X0, 10*mmToPt, 0.05) {
		t.Errorf("glyph 0 X0 = %g, want %g", g.X0, 10*mmToPt)
	}
	baseline := a4Height - 20*mmToPt
	// Helvetica descends 207/1000 below and ascends 718/1000 above.
	if !approx(g.Y0, baseline-0.207*12, 0.1) {
		t.Errorf("glyph 0 Y0 = %g, want %g", g.Y0, baseline-0.207*12)
	}
	if !approx(g.Y1, baseline+0.718*12, 0.1) {
		t.Errorf("glyph 0 Y1 = %g, want %g", g.Y1, baseline+0.718*12)
	}

	// 'H' is 722/1000 em wide; the 'e' glyph starts where 'H' ends.
	wantX1 := g.X0 + 0.722*12
	if !approx(g.X1, wantX1, 0.05) {
		t.Errorf("glyph 0 X1 = %g, want %g", g.X1, wantX1)
	}
	if !approx(line.Glyphs[1].X0, wantX1, 0.05) {
		t.Errorf("glyph 1 X0 = %g, want %g", line.Glyphs[1].X0, wantX1)
	}
}

func TestLayoutLineGrouping(t *testing.T) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Helvetica", "", 12)
	pdf.AddPage()
	pdf.Text(10, 20, "first")
	pdf.Text(10, 30, "second")
	pdf.Text(10, 40, "third")
	pdf.Text(100, 40, "right")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		t.Fatalf("output: %v", err)
	}
	layout := pageLayout(t, buf.Bytes(), 1)

	if len(layout.Lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(layout.Lines))
	}
	if layout.Lines[0].Text != "first" {
		t.Errorf("line 0 = %q, want %q", layout.Lines[0].Text, "first")
	}
	if layout.Lines[1].Text != "second" {
		t.Errorf("line 1 = %q, want %q", layout.Lines[1].Text, "second")
	}
	// Fragments on the same baseline join left to right with no
	// separator inserted.
	if layout.Lines[2].Text != "thirdright" {
		t.Errorf("line 2 = %q, want %q", layout.Lines[2].Text, "thirdright")
	}
}

func TestLayoutEuroText(t *testing.T) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.Text(10, 20, tr("€ 1.234,56"))

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		t.Fatalf("output: %v", err)
	}
	layout := pageLayout(t, buf.Bytes(), 1)

	if len(layout.Lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(layout.Lines))
	}
	line := layout.Lines[0]
	if line.Text != "€ 1.234,56" {
		t.Fatalf("line text = %q, want %q", line.Text, "€ 1.234,56")
	}
	if len(line.Glyphs) != 10 {
		t.Fatalf("expected 10 glyphs, got %d", len(line.Glyphs))
	}

	// The euro sign occupies the first three bytes of the line text.
	span := line.GlyphsInSpan(0, 3)
	if len(span) != 1 || span[0].Text != "€" {
		t.Errorf("GlyphsInSpan(0,3) = %v, want the euro glyph", span)
	}

	// "1.234,56" starts after "€ " (4 bytes in).
	span = line.GlyphsInSpan(4, len(line.Text))
	if len(span) != 8 {
		t.Errorf("GlyphsInSpan amount = %d glyphs, want 8", len(span))
	}
}

func TestLayoutBoldFontName(t *testing.T) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "", 12)
	pdf.Text(10, 20, "plain")
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Text(10, 40, "loud")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		t.Fatalf("output: %v", err)
	}
	layout := pageLayout(t, buf.Bytes(), 1)

	if len(layout.Lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(layout.Lines))
	}
	plain := layout.Lines[0].Glyphs[0]
	loud := layout.Lines[1].Glyphs[0]
	if plain.FontName != "Helvetica" {
		t.Errorf("plain font = %q", plain.FontName)
	}
	if loud.FontName != "Helvetica-Bold" {
		t.Errorf("bold font = %q", loud.FontName)
	}
	if !approx(loud.FontSize, 16, 0.01) {
		t.Errorf("bold size = %g, want 16", loud.FontSize)
	}
}

func TestLayoutEmptyPage(t *testing.T) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Helvetica", "", 12)
	pdf.AddPage()

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		t.Fatalf("output: %v", err)
	}
	layout := pageLayout(t, buf.Bytes(), 1)

	if len(layout.Lines) != 0 {
		t.Errorf("expected no lines on empty page, got %d", len(layout.Lines))
	}
}

func TestLayoutPagesIndependent(t *testing.T) {
	data := generateTestPDF(t, "one", "two")

	if got := pageLayout(t, data, 1).Lines[0].Text; got != "one" {
		t.Errorf("page 1 = %q", got)
	}
	if got := pageLayout(t, data, 2).Lines[0].Text; got != "two" {
		t.Errorf("page 2 = %q", got)
	}
}

// Raw content-stream fixtures exercise operators gofpdf never emits.

func rawLayoutPDF(t *testing.T, content string) []byte {
	t.Helper()
	return rawPDF(t,
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 4 0 R >> >> /Contents 5 0 R >>",
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>",
		streamObj("", content),
	)
}

func TestLayoutTJAdjustment(t *testing.T) {
	data := rawLayoutPDF(t, "BT /F1 12 Tf 72 720 Td [(A) -1000 (B)] TJ ET")
	layout := pageLayout(t, data, 1)

	if len(layout.Lines) != 1 || layout.Lines[0].Text != "AB" {
		t.Fatalf("unexpected layout: %+v", layout.Lines)
	}
	gA := layout.Lines[0].Glyphs[0]
	gB := layout.Lines[0].Glyphs[1]

	if !approx(gA.X0, 72, 0.01) {
		t.Errorf("A.X0 = %g, want 72", gA.X0)
	}
	// 'A' is 667/1000 em; the -1000 adjustment adds a full 12pt.
	wantB := 72 + 0.667*12 + 12
	if !approx(gB.X0, wantB, 0.01) {
		t.Errorf("B.X0 = %g, want %g", gB.X0, wantB)
	}
}

func TestLayoutHorizontalScaling(t *testing.T) {
	data := rawLayoutPDF(t, "BT /F1 12 Tf 50 Tz 72 720 Td (AB) Tj ET")
	layout := pageLayout(t, data, 1)

	line := layout.Lines[0]
	gA, gB := line.Glyphs[0], line.Glyphs[1]

	// At 50% horizontal scale both the glyph box and the advance halve.
	wantWidth := 0.667 * 12 * 0.5
	if !approx(gA.X1-gA.X0, wantWidth, 0.01) {
		t.Errorf("A width = %g, want %g", gA.X1-gA.X0, wantWidth)
	}
	if !approx(gB.X0, 72+wantWidth, 0.01) {
		t.Errorf("B.X0 = %g, want %g", gB.X0, 72+wantWidth)
	}
	if !approx(gA.FontSize, 12, 0.01) {
		t.Errorf("font size = %g, want 12 (Tz must not change it)", gA.FontSize)
	}
}

func TestLayoutCTMScalesFontSize(t *testing.T) {
	data := rawLayoutPDF(t, "q 2 0 0 2 0 0 cm BT /F1 12 Tf 36 360 Td (A) Tj ET Q")
	layout := pageLayout(t, data, 1)

	g := layout.Lines[0].Glyphs[0]
	if !approx(g.FontSize, 24, 0.01) {
		t.Errorf("font size = %g, want 24", g.FontSize)
	}
	if !approx(g.X0, 72, 0.01) {
		t.Errorf("X0 = %g, want 72", g.X0)
	}
	if !approx(g.X1-g.X0, 0.667*24, 0.01) {
		t.Errorf("width = %g, want %g", g.X1-g.X0, 0.667*24)
	}
}

func TestLayoutCharAndWordSpacing(t *testing.T) {
	data := rawLayoutPDF(t, "BT /F1 12 Tf 2 Tc 3 Tw 72 720 Td (a b) Tj ET")
	layout := pageLayout(t, data, 1)

	line := layout.Lines[0]
	if line.Text != "a b" {
		t.Fatalf("text = %q", line.Text)
	}
	ga, gsp, gb := line.Glyphs[0], line.Glyphs[1], line.Glyphs[2]

	// 'a' is 556/1000 em. Advance adds Tc; the space also adds Tw.
	wantSp := 72 + 0.556*12 + 2
	if !approx(gsp.X0, wantSp, 0.01) {
		t.Errorf("space X0 = %g, want %g", gsp.X0, wantSp)
	}
	wantB := wantSp + 0.278*12 + 2 + 3
	if !approx(gb.X0, wantB, 0.01) {
		t.Errorf("b X0 = %g, want %g", gb.X0, wantB)
	}
	_ = ga
}

func TestLayoutFormXObject(t *testing.T) {
	form := streamObj(
		"/Type /XObject /Subtype /Form /BBox [0 0 200 100] /Matrix [1 0 0 1 0 700] /Resources << /Font << /F1 4 0 R >> >> ",
		"BT /F1 10 Tf 0 0 Td (Z) Tj ET",
	)
	data := rawPDF(t,
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /XObject << /X1 6 0 R >> >> /Contents 5 0 R >>",
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>",
		streamObj("", "q 1 0 0 1 100 0 cm /X1 Do Q"),
		form,
	)
	layout := pageLayout(t, data, 1)

	if len(layout.Lines) != 1 || layout.Lines[0].Text != "Z" {
		t.Fatalf("unexpected layout: %+v", layout.Lines)
	}
	g := layout.Lines[0].Glyphs[0]
	if !approx(g.X0, 100, 0.01) {
		t.Errorf("X0 = %g, want 100 (cm translation)", g.X0)
	}
	if !approx(g.Y0, 700-0.207*10, 0.1) {
		t.Errorf("Y0 = %g, want around %g (form matrix translation)", g.Y0, 700-0.207*10)
	}
	if !approx(g.FontSize, 10, 0.01) {
		t.Errorf("font size = %g, want 10", g.FontSize)
	}
}

func TestLayoutInvisibleTextKept(t *testing.T) {
	// Render mode 3 text is invisible but still part of the layout.
	data := rawLayoutPDF(t, "BT /F1 12 Tf 3 Tr 72 720 Td (hidden) Tj ET")
	layout := pageLayout(t, data, 1)

	if len(layout.Lines) != 1 || layout.Lines[0].Text != "hidden" {
		t.Errorf("invisible text missing from layout: %+v", layout.Lines)
	}
}

func TestLayoutLeadingOperators(t *testing.T) {
	data := rawLayoutPDF(t, "BT /F1 12 Tf 14 TL 72 720 Td (top) Tj T* (below) Tj ET")
	layout := pageLayout(t, data, 1)

	if len(layout.Lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(layout.Lines))
	}
	if layout.Lines[0].Text != "top" || layout.Lines[1].Text != "below" {
		t.Errorf("lines = %q, %q", layout.Lines[0].Text, layout.Lines[1].Text)
	}
}
