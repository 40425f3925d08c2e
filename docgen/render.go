package docgen

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	gofpdf "github.com/jung-kurt/gofpdf"
)

// ErrAssetMissing reports that a file referenced by a template, such as
// an image, does not exist. Checked with errors.Is.
var ErrAssetMissing = errors.New("docgen: asset missing")

// pageSizes maps supported page size names to dimensions in points.
var pageSizes = map[string]gofpdf.SizeType{
	"a3":      {Wd: 841.89, Ht: 1190.55},
	"a4":      {Wd: 595.28, Ht: 841.89},
	"a5":      {Wd: 420.94, Ht: 595.28},
	"letter":  {Wd: 612, Ht: 792},
	"legal":   {Wd: 612, Ht: 1008},
	"tabloid": {Wd: 792, Ht: 1224},
}

// Heading sizes by level: h1=24, h2=20, h3=16, h4=14, h5=12, h6=11.
var headingSizes = [...]float64{24, 20, 16, 14, 12, 11}

// Render parses a JSON template and writes the resulting PDF to w.
func Render(w io.Writer, jsonTemplate []byte) error {
	return RenderFields(w, jsonTemplate, nil)
}

// RenderFields parses a JSON template, substitutes the field mapping
// into its text content, and writes the resulting PDF to w.
func RenderFields(w io.Writer, jsonTemplate []byte, fields Fields) error {
	var doc Document
	if err := json.Unmarshal(jsonTemplate, &doc); err != nil {
		return fmt.Errorf("docgen: parsing template: %w", err)
	}
	return RenderDocument(w, &doc, fields)
}

// RenderDocument renders a Document to a PDF written to w. The document
// is not modified; fields may be nil.
func RenderDocument(w io.Writer, doc *Document, fields Fields) error {
	doc = doc.withFields(fields)

	pageSize := doc.PageSize
	if pageSize == "" {
		pageSize = "A4"
	}
	if _, ok := pageSizes[strings.ToLower(pageSize)]; !ok {
		return fmt.Errorf("docgen: unknown page size %q", doc.PageSize)
	}
	unit := doc.Unit
	if unit == "" {
		unit = "mm"
	}

	pdf := gofpdf.New("P", unit, pageSize, "")

	if doc.Margin != nil {
		pdf.SetMargins(doc.Margin.Left, doc.Margin.Top, doc.Margin.Right)
		pdf.SetAutoPageBreak(true, doc.Margin.Bottom)
	} else {
		pdf.SetAutoPageBreak(true, 15)
	}

	if doc.Title != "" {
		pdf.SetTitle(doc.Title, true)
	}
	if doc.Author != "" {
		pdf.SetAuthor(doc.Author, true)
	}
	if doc.Subject != "" {
		pdf.SetSubject(doc.Subject, true)
	}

	font := Font{Family: "Helvetica", Size: 11}
	if doc.Font != nil {
		font = mergeFont(font, doc.Font)
	}

	r := &renderer{
		pdf:  pdf,
		tr:   pdf.UnicodeTranslatorFromDescriptor(""),
		font: font,
	}

	if doc.Header != nil {
		hdr := *doc.Header
		pdf.SetHeaderFunc(func() { r.header(hdr) })
	}
	if doc.Footer != nil {
		ftr := *doc.Footer
		if strings.Contains(ftr.Text, "{pages}") {
			pdf.AliasNbPages("")
		}
		pdf.SetFooterFunc(func() { r.footer(ftr) })
	}

	for i, page := range doc.Pages {
		if err := r.addPage(page, pageSize); err != nil {
			return fmt.Errorf("docgen: page %d: %w", i+1, err)
		}
		pdf.SetFont(font.Family, font.Style, font.Size)

		for _, elem := range page.Elements {
			if err := r.element(elem); err != nil {
				return fmt.Errorf("docgen: page %d: %w", i+1, err)
			}
		}
	}

	// A document with no pages still produces one empty page.
	if len(doc.Pages) == 0 {
		pdf.AddPage()
	}

	if pdf.Err() {
		return fmt.Errorf("docgen: %w", pdf.Error())
	}
	return pdf.Output(w)
}

// renderer carries the canvas, the cp1252 translator and the document
// default font through element rendering.
type renderer struct {
	pdf  *gofpdf.Fpdf
	tr   func(string) string
	font Font
}

func (r *renderer) element(elem Element) error {
	switch elem.Type {
	case "heading":
		return r.heading(elem)
	case "paragraph", "text":
		return r.paragraph(elem)
	case "table":
		return r.table(elem)
	case "image":
		return r.image(elem)
	case "barcode":
		return r.barcode(elem)
	case "markdown":
		return r.markdown(elem)
	case "line":
		r.line(elem)
	case "rect":
		r.rect(elem)
	case "spacer":
		r.spacer(elem)
	case "hr":
		r.rule(elem)
	case "list":
		r.list(elem)
	default:
		return fmt.Errorf("unknown element type %q", elem.Type)
	}
	return nil
}

// addPage starts the next page, honoring a per-page size override.
func (r *renderer) addPage(page Page, docSize string) error {
	if page.Size == "" || strings.EqualFold(page.Size, docSize) {
		r.pdf.AddPage()
		return nil
	}
	sz, ok := pageSizes[strings.ToLower(page.Size)]
	if !ok {
		return fmt.Errorf("unknown page size %q", page.Size)
	}
	// AddPageFormat wants dimensions in document units.
	k := r.pdf.GetConversionRatio()
	r.pdf.AddPageFormat("P", gofpdf.SizeType{Wd: sz.Wd / k, Ht: sz.Ht / k})
	return nil
}

func (r *renderer) contentWidth() float64 {
	pageW, _ := r.pdf.GetPageSize()
	lm, _, rm, _ := r.pdf.GetMargins()
	return pageW - lm - rm
}

// reset restores the default font, and the text color if the element
// changed it.
func (r *renderer) reset(elem Element) {
	r.pdf.SetFont(r.font.Family, r.font.Style, r.font.Size)
	if elem.Color != nil {
		r.pdf.SetTextColor(0, 0, 0)
	}
}

// mergeFont overlays the non-zero fields of override onto base.
func mergeFont(base Font, override *Font) Font {
	if override == nil {
		return base
	}
	if override.Family != "" {
		base.Family = override.Family
	}
	if override.Style != "" {
		base.Style = override.Style
	}
	if override.Size > 0 {
		base.Size = override.Size
	}
	return base
}

func (r *renderer) heading(elem Element) error {
	level := elem.Level
	if level < 1 {
		level = 1
	}
	if level > 6 {
		level = 6
	}

	f := mergeFont(Font{Family: r.font.Family, Style: "B", Size: headingSizes[level-1]}, elem.Font)

	if elem.Color != nil {
		r.pdf.SetTextColor(elem.Color.R, elem.Color.G, elem.Color.B)
	}
	r.pdf.SetFont(f.Family, f.Style, f.Size)

	if level <= 2 {
		r.pdf.Ln(f.Size * 0.4)
	} else {
		r.pdf.Ln(f.Size * 0.3)
	}

	align := "L"
	if elem.Align != "" {
		align = strings.ToUpper(elem.Align)
	}

	r.pdf.MultiCell(r.contentWidth(), f.Size*0.5, r.tr(elem.Text), "", align, false)
	r.pdf.Ln(f.Size * 0.2)

	r.reset(elem)
	return nil
}

func (r *renderer) paragraph(elem Element) error {
	f := mergeFont(r.font, elem.Font)

	if elem.Color != nil {
		r.pdf.SetTextColor(elem.Color.R, elem.Color.G, elem.Color.B)
	}
	r.pdf.SetFont(f.Family, f.Style, f.Size)

	align := "L"
	if elem.Align != "" {
		align = strings.ToUpper(elem.Align)
	}

	r.pdf.MultiCell(r.contentWidth(), f.Size*0.5, r.tr(elem.Text), "", align, false)
	r.pdf.Ln(f.Size * 0.3)

	r.reset(elem)
	return nil
}

func (r *renderer) line(elem Element) {
	if elem.LineWidth > 0 {
		r.pdf.SetLineWidth(elem.LineWidth)
	}
	if elem.Color != nil {
		r.pdf.SetDrawColor(elem.Color.R, elem.Color.G, elem.Color.B)
	}
	r.pdf.Line(elem.X1, elem.Y1, elem.X2, elem.Y2)
	if elem.Color != nil {
		r.pdf.SetDrawColor(0, 0, 0)
	}
	if elem.LineWidth > 0 {
		r.pdf.SetLineWidth(0.2)
	}
}

func (r *renderer) rect(elem Element) {
	style := ""
	if elem.FillColor != nil {
		r.pdf.SetFillColor(elem.FillColor.R, elem.FillColor.G, elem.FillColor.B)
		style = "F"
	}
	if elem.Border {
		if style == "F" {
			style = "FD"
		} else {
			style = "D"
		}
	}
	if style == "" {
		style = "D"
	}
	r.pdf.Rect(elem.X, elem.Y, elem.Width, elem.Height, style)
	if elem.FillColor != nil {
		r.pdf.SetFillColor(0, 0, 0)
	}
}

func (r *renderer) spacer(elem Element) {
	h := elem.SpacerHeight
	if h == 0 {
		h = 10
	}
	r.pdf.Ln(h)
}

func (r *renderer) rule(elem Element) {
	pageW, _ := r.pdf.GetPageSize()
	lm, _, rm, _ := r.pdf.GetMargins()

	r.pdf.Ln(3)
	y := r.pdf.GetY()

	lw := elem.LineWidth
	if lw == 0 {
		lw = 0.3
	}
	r.pdf.SetLineWidth(lw)

	if elem.Color != nil {
		r.pdf.SetDrawColor(elem.Color.R, elem.Color.G, elem.Color.B)
	} else {
		r.pdf.SetDrawColor(180, 180, 180)
	}

	r.pdf.Line(lm, y, pageW-rm, y)
	r.pdf.SetDrawColor(0, 0, 0)
	r.pdf.SetLineWidth(0.2)
	r.pdf.Ln(3)
}

func (r *renderer) list(elem Element) {
	f := mergeFont(r.font, elem.Font)
	r.pdf.SetFont(f.Family, f.Style, f.Size)

	lm, _, _, _ := r.pdf.GetMargins()
	contentW := r.contentWidth() - 10 // indent for bullet

	bullet := "• "
	if elem.BulletStr != "" {
		bullet = elem.BulletStr + " "
	}

	for i, item := range elem.Items {
		prefix := bullet
		if elem.Ordered {
			prefix = fmt.Sprintf("%d. ", i+1)
		}

		r.pdf.SetX(lm + 5)
		r.pdf.MultiCell(contentW, f.Size*0.5, r.tr(prefix+item), "", "L", false)
		r.pdf.Ln(1)
	}

	r.pdf.Ln(2)
	r.pdf.SetFont(r.font.Family, r.font.Style, r.font.Size)
}

func (r *renderer) header(hdr Header) {
	f := mergeFont(Font{Family: r.font.Family, Style: "B", Size: 9}, hdr.Font)

	if hdr.Color != nil {
		r.pdf.SetTextColor(hdr.Color.R, hdr.Color.G, hdr.Color.B)
	}
	r.pdf.SetFont(f.Family, f.Style, f.Size)

	align := "L"
	if hdr.Align != "" {
		align = strings.ToUpper(hdr.Align)
	}

	r.pdf.SetY(5)
	r.pdf.CellFormat(r.contentWidth(), 10, r.tr(hdr.Text), "", 0, align, false, 0, "")
	r.pdf.Ln(5)

	if hdr.Color != nil {
		r.pdf.SetTextColor(0, 0, 0)
	}
}

func (r *renderer) footer(ftr Footer) {
	f := mergeFont(Font{Family: r.font.Family, Size: 8}, ftr.Font)

	if ftr.Color != nil {
		r.pdf.SetTextColor(ftr.Color.R, ftr.Color.G, ftr.Color.B)
	} else {
		r.pdf.SetTextColor(128, 128, 128)
	}
	r.pdf.SetFont(f.Family, f.Style, f.Size)

	align := "C"
	if ftr.Align != "" {
		align = strings.ToUpper(ftr.Align)
	}

	// {page} is the current page; {pages} becomes the alias the canvas
	// substitutes with the total page count on output.
	text := strings.ReplaceAll(ftr.Text, "{page}", fmt.Sprintf("%d", r.pdf.PageNo()))
	text = strings.ReplaceAll(text, "{pages}", "{nb}")

	r.pdf.SetY(-15)
	r.pdf.CellFormat(r.contentWidth(), 10, r.tr(text), "", 0, align, false, 0, "")

	r.pdf.SetTextColor(0, 0, 0)
}
