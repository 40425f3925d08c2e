package reader_test

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"testing"

	"github.com/SonoItalianoVero/refactored-lamp/reader"
)

// TestXRefStreamWithObjectStream reads a PDF 1.5 file whose cross-reference
// data lives in a stream and whose font dictionary is packed into an object
// stream. Both paths must work for the page text to come out.
func TestXRefStreamWithObjectStream(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString("%PDF-1.5\n")

	offsets := make([]int, 8)
	writeObj := func(num int, body string) {
		offsets[num] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", num, body)
	}

	writeObj(1, "<< /Type /Catalog /Pages 2 0 R >>")
	writeObj(2, "<< /Type /Pages /Kids [3 0 R] /Count 1 >>")
	writeObj(3, "<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] "+
		"/Resources << /Font << /F1 5 0 R >> >> /Contents 6 0 R >>")

	// Object 5 is stored inside object stream 4. The header "5 0 " is
	// 4 bytes, so /First is 4 and the object's relative offset is 0.
	packed := "5 0 << /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>"
	writeObj(4, fmt.Sprintf("<< /Type /ObjStm /N 1 /First 4 /Length %d >>\nstream\n%s\nendstream",
		len(packed), packed))

	writeObj(6, streamObj("", "BT /F1 12 Tf 72 720 Td (compressed fonts) Tj ET"))

	// Cross-reference stream, /W [1 2 1]: one row of 4 bytes per object.
	xrefOff := buf.Len()
	offsets[7] = xrefOff
	var rows []byte
	addRow := func(typ byte, mid int, last byte) {
		rows = append(rows, typ, byte(mid>>8), byte(mid), last)
	}
	addRow(0, 0, 255)        // 0: head of the free list
	addRow(1, offsets[1], 0) // 1: catalog
	addRow(1, offsets[2], 0) // 2: page tree
	addRow(1, offsets[3], 0) // 3: page
	addRow(1, offsets[4], 0) // 4: object stream
	addRow(2, 4, 0)          // 5: compressed, stream 4 index 0
	addRow(1, offsets[6], 0) // 6: contents
	addRow(1, offsets[7], 0) // 7: this xref stream

	fmt.Fprintf(&buf, "7 0 obj\n<< /Type /XRef /Size 8 /W [1 2 1] /Root 1 0 R /Length %d >>\nstream\n",
		len(rows))
	buf.Write(rows)
	buf.WriteString("\nendstream\nendobj\n")
	fmt.Fprintf(&buf, "startxref\n%d\n%%%%EOF\n", xrefOff)

	doc, err := reader.ReadBytes(buf.Bytes())
	if err != nil {
		t.Fatalf("ReadBytes: %v", err)
	}
	if doc.NumPages() != 1 {
		t.Fatalf("expected 1 page, got %d", doc.NumPages())
	}

	page, err := doc.Page(1)
	if err != nil {
		t.Fatalf("Page(1): %v", err)
	}
	text, err := page.ExtractText()
	if err != nil {
		t.Fatalf("ExtractText: %v", err)
	}
	if text != "compressed fonts" {
		t.Errorf("text = %q, want %q", text, "compressed fonts")
	}

	// The font metrics only load if object 5 was found inside stream 4.
	layout, err := page.Layout()
	if err != nil {
		t.Fatalf("Layout: %v", err)
	}
	if len(layout.Lines) != 1 || len(layout.Lines[0].Glyphs) == 0 {
		t.Fatalf("unexpected layout: %+v", layout.Lines)
	}
	if got := layout.Lines[0].Glyphs[0].FontName; got != "Helvetica" {
		t.Errorf("glyph font = %q, want Helvetica", got)
	}
}

// TestIncrementalUpdate appends a replacement content stream plus a second
// xref section chained through /Prev. The newest definition must win.
func TestIncrementalUpdate(t *testing.T) {
	base := rawLayoutPDF(t, "BT /F1 12 Tf 72 720 Td (original text) Tj ET")

	m := regexp.MustCompile(`startxref\s+(\d+)`).FindSubmatch(base)
	if m == nil {
		t.Fatal("base PDF has no startxref")
	}
	prev, err := strconv.Atoi(string(m[1]))
	if err != nil {
		t.Fatalf("bad startxref offset: %v", err)
	}

	var buf bytes.Buffer
	buf.Write(base)
	updOff := buf.Len()
	fmt.Fprintf(&buf, "5 0 obj\n%s\nendobj\n",
		streamObj("", "BT /F1 12 Tf 72 720 Td (revised text) Tj ET"))
	xrefOff := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 1\n0000000000 65535 f \n5 1\n%010d 00000 n \n", updOff)
	fmt.Fprintf(&buf, "trailer\n<< /Size 6 /Root 1 0 R /Prev %d >>\nstartxref\n%d\n%%%%EOF\n",
		prev, xrefOff)

	doc, err := reader.ReadBytes(buf.Bytes())
	if err != nil {
		t.Fatalf("ReadBytes: %v", err)
	}
	if doc.NumPages() != 1 {
		t.Fatalf("expected 1 page, got %d", doc.NumPages())
	}
	page, err := doc.Page(1)
	if err != nil {
		t.Fatalf("Page(1): %v", err)
	}
	text, err := page.ExtractText()
	if err != nil {
		t.Fatalf("ExtractText: %v", err)
	}
	if text != "revised text" {
		t.Errorf("text = %q, want %q", text, "revised text")
	}
}
