package docgen

import (
	"strings"
)

// Default table paint: indigo header with white bold text, even body
// rows on a light gray fill.
var (
	tableHeaderFill = Color{R: 63, G: 81, B: 181}
	tableHeaderText = Color{R: 255, G: 255, B: 255}
	tableAltFill    = Color{R: 245, G: 245, B: 245}
)

// cellStyle is the resolved paint for one class of table cells.
type cellStyle struct {
	fill *Color
	text *Color
	font Font
}

// tableLayout draws one table element: fixed and auto-sized columns, a
// header row repeated after every page break, and alternating row fills.
type tableLayout struct {
	r         *renderer
	columns   []TableColumn
	rows      [][]string
	hasHeader bool
	header    cellStyle
	body      cellStyle
	alt       *Color // even body row fill, nil disables alternation
	padding   float64
}

func (r *renderer) table(elem Element) error {
	cols := elem.Columns
	hasHeader := len(cols) > 0
	if len(cols) == 0 {
		// Headerless table: column count from the first row.
		if len(elem.Rows) == 0 {
			return nil
		}
		cols = make([]TableColumn, len(elem.Rows[0]))
	}

	header := cellStyle{
		fill: &tableHeaderFill,
		text: &tableHeaderText,
		font: Font{Family: r.font.Family, Style: "B", Size: r.font.Size},
	}
	if elem.HeaderStyle != nil {
		if elem.HeaderStyle.FillColor != nil {
			header.fill = elem.HeaderStyle.FillColor
		}
		if elem.HeaderStyle.TextColor != nil {
			header.text = elem.HeaderStyle.TextColor
		}
		header.font = mergeFont(header.font, elem.HeaderStyle.Font)
	}

	body := cellStyle{font: r.font}
	alt := &tableAltFill
	if elem.CellStyle != nil {
		if elem.CellStyle.FillColor != nil {
			body.fill = elem.CellStyle.FillColor
			alt = nil
		}
		if elem.CellStyle.TextColor != nil {
			body.text = elem.CellStyle.TextColor
		}
		body.font = mergeFont(body.font, elem.CellStyle.Font)
	}

	t := &tableLayout{
		r:         r,
		columns:   cols,
		rows:      elem.Rows,
		hasHeader: hasHeader,
		header:    header,
		body:      body,
		alt:       alt,
		padding:   2,
	}

	r.pdf.Ln(2)
	t.render()
	r.reset(elem)
	return r.pdf.Error()
}

func (t *tableLayout) render() {
	widths := t.widths()
	if len(widths) == 0 {
		return
	}

	pdf := t.r.pdf
	startX := pdf.GetX()

	if t.hasHeader {
		t.headerRow(widths, startX)
	}

	for i, cells := range t.rows {
		style := t.body
		if t.alt != nil && i%2 == 0 {
			style.fill = t.alt
		}
		pdf.SetFont(style.font.Family, style.font.Style, style.font.Size)
		rowH := t.rowHeight(cells, widths)

		_, pageH := pdf.GetPageSize()
		_, _, _, bottom := pdf.GetMargins()
		if pdf.GetY()+rowH > pageH-bottom {
			pdf.AddPage()
			if t.hasHeader {
				t.headerRow(widths, startX)
			}
			pdf.SetFont(style.font.Family, style.font.Style, style.font.Size)
		}

		t.row(cells, widths, startX, style, rowH)
	}

	pdf.SetDrawColor(0, 0, 0)
	pdf.SetFillColor(0, 0, 0)
	pdf.SetTextColor(0, 0, 0)
}

func (t *tableLayout) headerRow(widths []float64, startX float64) {
	cells := make([]string, len(t.columns))
	for i, col := range t.columns {
		cells[i] = col.Header
	}
	t.r.pdf.SetFont(t.header.font.Family, t.header.font.Style, t.header.font.Size)
	t.row(cells, widths, startX, t.header, t.rowHeight(cells, widths))
}

// widths computes final column widths: fixed widths as given, remaining
// space split across auto columns.
func (t *tableLayout) widths() []float64 {
	total := t.r.contentWidth()

	widths := make([]float64, len(t.columns))
	fixed := 0.0
	auto := 0
	for i, col := range t.columns {
		if col.Width > 0 {
			widths[i] = col.Width
			fixed += col.Width
		} else {
			auto++
		}
	}

	if auto > 0 {
		remaining := total - fixed
		if remaining < 0 {
			remaining = 0
		}
		autoW := remaining / float64(auto)
		for i, col := range t.columns {
			if col.Width == 0 {
				widths[i] = autoW
			}
		}
	}
	return widths
}

// rowHeight computes the height one row needs with the current font.
func (t *tableLayout) rowHeight(cells []string, widths []float64) float64 {
	maxH := 5.0 // minimum row height
	_, unitSize := t.r.pdf.GetFontSize()
	lineH := unitSize * 1.5

	for i, w := range widths {
		if i >= len(cells) {
			break
		}
		contentW := w - 2*t.padding
		if contentW < 1 {
			contentW = 1
		}
		lines := t.r.pdf.SplitLines([]byte(t.r.tr(cells[i])), contentW)
		if h := float64(len(lines))*lineH + 2*t.padding; h > maxH {
			maxH = h
		}
	}
	return maxH
}

// row draws one row of cells. The caller has set the row font and
// computed rowH with it.
func (t *tableLayout) row(cells []string, widths []float64, startX float64, style cellStyle, rowH float64) {
	pdf := t.r.pdf

	if style.text != nil {
		pdf.SetTextColor(style.text.R, style.text.G, style.text.B)
	}

	pdf.SetX(startX)
	y := pdf.GetY()

	for i, w := range widths {
		x := pdf.GetX()

		if style.fill != nil {
			pdf.SetFillColor(style.fill.R, style.fill.G, style.fill.B)
			pdf.Rect(x, y, w, rowH, "F")
		}
		pdf.Rect(x, y, w, rowH, "D")

		var cell string
		if i < len(cells) {
			cell = t.r.tr(cells[i])
		}

		align := "L"
		if t.columns[i].Align != "" {
			align = strings.ToUpper(t.columns[i].Align)
		}

		contentW := w - 2*t.padding
		if contentW < 1 {
			contentW = 1
		}

		pdf.SetXY(x+t.padding, y+t.padding)
		if strings.Contains(cell, "\n") || pdf.GetStringWidth(cell) > contentW {
			pdf.MultiCell(contentW, rowH-2*t.padding, cell, "", align, false)
		} else {
			pdf.CellFormat(contentW, rowH-2*t.padding, cell, "", 0, align, false, 0, "")
		}

		pdf.SetXY(x+w, y)
	}

	if style.text != nil {
		pdf.SetTextColor(0, 0, 0)
	}
	pdf.SetXY(startX, y+rowH)
}
