// Package docgen renders PDF documents from a JSON template DSL.
//
// A template describes a document declaratively: pages hold a list of
// elements such as headings, paragraphs, tables, images, barcodes and
// markdown blocks. Text content may carry {name} placeholders that are
// substituted from a flat field mapping at render time, so one template
// serves many documents.
//
// Example JSON:
//
//	{
//	  "title": "Shipment {ref}",
//	  "pageSize": "A4",
//	  "pages": [{
//	    "elements": [
//	      {"type": "heading", "text": "Shipment {ref}", "level": 1},
//	      {"type": "paragraph", "text": "Recipient: {recipient}"},
//	      {"type": "barcode", "symbology": "code128", "content": "{ref}"}
//	    ]
//	  }]
//	}
package docgen

import "strings"

// Document is the top-level template that describes an entire PDF.
type Document struct {
	Title    string  `json:"title,omitempty"`
	Author   string  `json:"author,omitempty"`
	Subject  string  `json:"subject,omitempty"`
	PageSize string  `json:"pageSize,omitempty"` // A3, A4, A5, Letter, Legal, Tabloid (default: A4)
	Unit     string  `json:"unit,omitempty"`     // mm, cm, in, pt (default: mm)
	Margin   *Margin `json:"margin,omitempty"`
	Font     *Font   `json:"font,omitempty"` // default font for the document
	Pages    []Page  `json:"pages"`
	Header   *Header `json:"header,omitempty"` // repeated on every page
	Footer   *Footer `json:"footer,omitempty"` // repeated on every page
}

// Margin defines page margins.
type Margin struct {
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
	Left   float64 `json:"left"`
}

// Font specifies a font face.
type Font struct {
	Family string  `json:"family"` // Helvetica, Courier, Times
	Style  string  `json:"style"`  // "" (regular), "B" (bold), "I" (italic), "BI"
	Size   float64 `json:"size"`
}

// Color is an RGB color.
type Color struct {
	R int `json:"r"`
	G int `json:"g"`
	B int `json:"b"`
}

// Page represents a single page of the document.
type Page struct {
	Size     string    `json:"size,omitempty"` // override document page size
	Elements []Element `json:"elements"`
}

// Element is a single visual element within a page.
// The Type field determines which other fields are relevant.
type Element struct {
	Type string `json:"type"` // heading, paragraph, table, image, barcode, markdown, line, rect, spacer, list, hr

	// Text content (heading, paragraph, markdown)
	Text  string `json:"text,omitempty"`
	Level int    `json:"level,omitempty"` // heading level 1-6
	Align string `json:"align,omitempty"` // L, C, R (default: L)

	// Font override for this element
	Font  *Font  `json:"font,omitempty"`
	Color *Color `json:"color,omitempty"`

	// Table
	Columns     []TableColumn `json:"columns,omitempty"`
	Rows        [][]string    `json:"rows,omitempty"`
	HeaderStyle *CellStyle    `json:"headerStyle,omitempty"`
	CellStyle   *CellStyle    `json:"cellStyle,omitempty"`

	// Image / barcode placement. X and Y of zero mean flow position.
	Src    string  `json:"src,omitempty"`
	X      float64 `json:"x,omitempty"`
	Y      float64 `json:"y,omitempty"`
	Width  float64 `json:"width,omitempty"`
	Height float64 `json:"height,omitempty"`

	// Barcode
	Symbology string `json:"symbology,omitempty"` // qr (default), code128, pdf417
	Content   string `json:"content,omitempty"`   // encoded payload

	// Line
	X1 float64 `json:"x1,omitempty"`
	Y1 float64 `json:"y1,omitempty"`
	X2 float64 `json:"x2,omitempty"`
	Y2 float64 `json:"y2,omitempty"`

	// Spacer / HR
	SpacerHeight float64 `json:"spacerHeight,omitempty"`
	LineWidth    float64 `json:"lineWidth,omitempty"`

	// List
	Items     []string `json:"items,omitempty"`
	Ordered   bool     `json:"ordered,omitempty"`
	BulletStr string   `json:"bullet,omitempty"` // custom bullet character

	// Background (rect)
	FillColor *Color `json:"fillColor,omitempty"`
	Border    bool   `json:"border,omitempty"`
}

// TableColumn defines a column in a table element.
type TableColumn struct {
	Header string  `json:"header"`
	Width  float64 `json:"width,omitempty"` // 0 = auto
	Align  string  `json:"align,omitempty"` // L, C, R
}

// CellStyle defines styling for table cells. Setting fillColor on the
// body cell style replaces the alternating row fill with a uniform one.
type CellStyle struct {
	FillColor *Color `json:"fillColor,omitempty"`
	TextColor *Color `json:"textColor,omitempty"`
	Font      *Font  `json:"font,omitempty"`
}

// Header defines content repeated at the top of every page.
type Header struct {
	Text  string `json:"text,omitempty"`
	Align string `json:"align,omitempty"`
	Font  *Font  `json:"font,omitempty"`
	Color *Color `json:"color,omitempty"`
}

// Footer defines content repeated at the bottom of every page.
type Footer struct {
	Text  string `json:"text,omitempty"` // supports {page} and {pages} placeholders
	Align string `json:"align,omitempty"`
	Font  *Font  `json:"font,omitempty"`
	Color *Color `json:"color,omitempty"`
}

// Fields is a flat placeholder mapping applied to a template before
// rendering: every {name} occurrence in text content is replaced by the
// mapped value. Unmapped placeholders are left as-is. The names "page"
// and "pages" are reserved for footer numbering and never substituted.
type Fields map[string]string

func (f Fields) replacer() *strings.Replacer {
	pairs := make([]string, 0, 2*len(f))
	for name, value := range f {
		if name == "page" || name == "pages" {
			continue
		}
		pairs = append(pairs, "{"+name+"}", value)
	}
	return strings.NewReplacer(pairs...)
}

// withFields returns a copy of the document with all field placeholders
// substituted. The receiver is not modified.
func (doc *Document) withFields(f Fields) *Document {
	if len(f) == 0 {
		return doc
	}
	r := f.replacer()

	out := *doc
	out.Title = r.Replace(doc.Title)
	out.Author = r.Replace(doc.Author)
	out.Subject = r.Replace(doc.Subject)
	if doc.Header != nil {
		hdr := *doc.Header
		hdr.Text = r.Replace(hdr.Text)
		out.Header = &hdr
	}
	if doc.Footer != nil {
		ftr := *doc.Footer
		ftr.Text = r.Replace(ftr.Text)
		out.Footer = &ftr
	}

	out.Pages = make([]Page, len(doc.Pages))
	for i, page := range doc.Pages {
		out.Pages[i] = page
		elems := make([]Element, len(page.Elements))
		for j, elem := range page.Elements {
			elems[j] = elem.withFields(r)
		}
		out.Pages[i].Elements = elems
	}
	return &out
}

func (e Element) withFields(r *strings.Replacer) Element {
	e.Text = r.Replace(e.Text)
	e.Content = r.Replace(e.Content)
	e.Src = r.Replace(e.Src)

	if len(e.Items) > 0 {
		items := make([]string, len(e.Items))
		for i, item := range e.Items {
			items[i] = r.Replace(item)
		}
		e.Items = items
	}
	if len(e.Rows) > 0 {
		rows := make([][]string, len(e.Rows))
		for i, row := range e.Rows {
			cells := make([]string, len(row))
			for j, cell := range row {
				cells[j] = r.Replace(cell)
			}
			rows[i] = cells
		}
		e.Rows = rows
	}
	if len(e.Columns) > 0 {
		cols := make([]TableColumn, len(e.Columns))
		for i, col := range e.Columns {
			col.Header = r.Replace(col.Header)
			cols[i] = col
		}
		e.Columns = cols
	}
	return e
}
