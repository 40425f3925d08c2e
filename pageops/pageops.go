// Package pageops assembles new PDF documents from the pages of existing
// ones: merging, page extraction, splitting, rotation, and stamping.
//
// Every operation is byte-stream based: the source is parsed with the
// reader package, its pages are imported as templates through the gofpdi
// contrib package, and a fresh document is written around them. File-path
// wrappers are provided for callers working on disk.
package pageops

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	gofpdf "github.com/jung-kurt/gofpdf"
	"github.com/jung-kurt/gofpdf/contrib/gofpdi"

	"github.com/SonoItalianoVero/refactored-lamp/reader"
)

// Position names a placement on a page, used for page numbers.
type Position int

const (
	Center Position = iota
	TopLeft
	TopCenter
	TopRight
	BottomLeft
	BottomCenter
	BottomRight
)

// RGBColor is an RGB color with 0-255 components.
type RGBColor struct {
	R, G, B int
}

// sourcePages validates that src can be imported and returns its page
// count. The importer cannot decrypt, so encrypted documents are
// rejected here with a real error instead of a panic later.
func sourcePages(src []byte) (int, error) {
	doc, err := reader.ReadBytes(src)
	if err != nil {
		return 0, err
	}
	if doc.IsEncrypted() {
		return 0, errors.New("encrypted source cannot be imported")
	}
	if doc.NumPages() == 0 {
		return 0, errors.New("source has no pages")
	}
	return doc.NumPages(), nil
}

// newCanvas returns the empty document pages are imported into. The page
// format passed here is irrelevant; every real page is added with its
// source size.
func newCanvas() *gofpdf.Fpdf {
	pdf := gofpdf.New("P", "pt", "A4", "")
	pdf.SetAutoPageBreak(false, 0)
	return pdf
}

// source pairs an importer with the seekable view of one input document.
// The contrib API wants a pointer to the ReadSeeker, so the field stays
// addressable for the whole import.
type source struct {
	imp *gofpdi.Importer
	rs  io.ReadSeeker
}

func newSource(src []byte) *source {
	return &source{imp: gofpdi.NewImporter(), rs: bytes.NewReader(src)}
}

// importTemplate imports one 1-based page and returns its template id
// and media box size.
func (s *source) importTemplate(pdf *gofpdf.Fpdf, pageNum int) (tpl int, w, h float64) {
	tpl = s.imp.ImportPageFromStream(pdf, &s.rs, pageNum, "/MediaBox")
	w, h = importedSize(s.imp, pageNum)
	return tpl, w, h
}

// layDown adds a page of the source size and draws the imported page
// onto it at full scale.
func (s *source) layDown(pdf *gofpdf.Fpdf, tpl int, w, h float64) {
	pdf.AddPageFormat("P", gofpdf.SizeType{Wd: w, Ht: h})
	s.imp.UseImportedTemplate(pdf, tpl, 0, 0, w, h)
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

// recoverImport converts the page importer's panics on unparseable input
// into errors, so no operation panics on caller data.
func recoverImport(err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("pageops: importing pages: %v", r)
	}
}

// output serializes the assembled document.
func output(pdf *gofpdf.Fpdf) ([]byte, error) {
	if pdf.Err() {
		return nil, fmt.Errorf("pageops: %w", pdf.Error())
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("pageops: %w", err)
	}
	return buf.Bytes(), nil
}

// readInput loads a source file for one of the file-path wrappers.
func readInput(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("pageops: reading %s: %w", path, err)
	}
	return data, nil
}

// writeOutput stores the result of one of the file-path wrappers.
func writeOutput(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("pageops: writing %s: %w", path, err)
	}
	return nil
}

// pageSet expands a page selection against the source page count: nil
// selects every page, anything else must be within range.
func pageSet(selected []int, total int) (map[int]bool, error) {
	set := make(map[int]bool, total)
	if selected == nil {
		for i := 1; i <= total; i++ {
			set[i] = true
		}
		return set, nil
	}
	for _, p := range selected {
		if p < 1 || p > total {
			return nil, fmt.Errorf("page %d out of range [1, %d]", p, total)
		}
		set[p] = true
	}
	return set, nil
}
