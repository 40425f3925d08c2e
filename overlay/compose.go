package overlay

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	gofpdf "github.com/jung-kurt/gofpdf"
	"github.com/jung-kurt/gofpdf/contrib/gofpdi"

	"github.com/SonoItalianoVero/refactored-lamp/reader"
)

// ErrComposition reports a plan set that does not line up with the source
// document. Reaching it through the engine indicates a bug, not bad input.
var ErrComposition = errors.New("overlay: composition mismatch")

// Composer merges page plans onto the pages of a source document.
//
// Created, when non-zero, is written as the output's creation timestamp,
// which makes output bytes a pure function of input and plans. Fonts may
// be nil, in which case the process-wide default registry is used.
type Composer struct {
	Created time.Time
	Fonts   *Registry
}

// Compose imports every source page at its original size, lays the
// corresponding plan's patches on top, and returns the assembled document.
// Pages are composed in order; ctx is checked between pages. The plan
// count must equal the source page count.
func (c Composer) Compose(ctx context.Context, src []byte, plans []PagePlan) (out []byte, err error) {
	doc, err := reader.ReadBytes(src)
	if err != nil {
		return nil, fmt.Errorf("overlay: compose: %w", err)
	}
	if doc.IsEncrypted() {
		return nil, errors.New("overlay: compose: encrypted source cannot be imported")
	}
	if len(plans) != doc.NumPages() {
		return nil, fmt.Errorf("overlay: %d plans for a %d-page document: %w",
			len(plans), doc.NumPages(), ErrComposition)
	}

	// The page importer panics on input it cannot parse rather than
	// returning an error.
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, fmt.Errorf("overlay: compose: importing pages: %v", r)
		}
	}()

	pdf := gofpdf.New("P", "pt", "A4", "")
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCatalogSort(true)
	if !c.Created.IsZero() {
		pdf.SetCreationDate(c.Created)
	}
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	imp := gofpdi.NewImporter()
	rs := io.ReadSeeker(bytes.NewReader(src))
	loaded := make(map[fontKey]bool)

	for i, plan := range plans {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("overlay: compose: %w", ctxErr)
		}

		tpl := imp.ImportPageFromStream(pdf, &rs, i+1, "/MediaBox")
		w, h := plan.W, plan.H
		if w <= 0 || h <= 0 {
			w, h = importedSize(imp, i+1)
		}

		pdf.AddPageFormat("P", gofpdf.SizeType{Wd: w, Ht: h})
		imp.UseImportedTemplate(pdf, tpl, 0, 0, w, h)
		c.drawPatches(pdf, tr, plan, h, loaded)
	}

	if pdf.Err() {
		return nil, fmt.Errorf("overlay: compose: %w", pdf.Error())
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("overlay: compose: %w", err)
	}
	return buf.Bytes(), nil
}

// drawPatches executes one plan on the current page. Plan coordinates are
// PDF user space; the canvas origin is top-left, so y flips against the
// page height.
func (c Composer) drawPatches(pdf *gofpdf.Fpdf, tr func(string) string, plan PagePlan, pageH float64, loaded map[fontKey]bool) {
	fonts := c.Fonts
	if fonts == nil {
		fonts = DefaultRegistry()
	}

	for _, p := range plan.Patches {
		b := p.Blank
		pdf.SetFillColor(255, 255, 255)
		pdf.Rect(b.X0, pageH-b.Y1, b.X1-b.X0, b.Y1-b.Y0, "F")

		t := p.Text
		family, styleStr, utf8 := fonts.resolveInto(pdf, loaded, t.Family, t.Style)
		pdf.SetFont(family, styleStr, t.Size)
		pdf.SetTextColor(0, 0, 0)
		value := t.Value
		if !utf8 {
			value = tr(value)
		}
		pdf.Text(t.X, pageH-t.Y, value)
	}
}

// importedSize reads a page's media box dimensions from the importer,
// falling back to A4 when the box is unusable.
func importedSize(imp *gofpdi.Importer, pageNum int) (w, h float64) {
	if dims, ok := imp.GetPageSizes()[pageNum]; ok {
		if mb, ok := dims["/MediaBox"]; ok {
			w, h = mb["w"], mb["h"]
		}
	}
	if w <= 0 || h <= 0 {
		w, h = 595.28, 841.89
	}
	return w, h
}
