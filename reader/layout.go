package reader

import (
	"fmt"
	"io"
	"math"
	"sort"
)

// Glyph is one positioned character on a page. Coordinates are in PDF
// user space (origin bottom-left, y up). Text is usually a single rune
// but ligature mappings can expand to several.
type Glyph struct {
	Text     string
	X0, Y0   float64
	X1, Y1   float64
	FontName string
	FontSize float64
}

// Line is a horizontal run of glyphs. Text is the concatenation of the
// glyph texts in visual order, with no separators inserted, so byte
// offsets into Text map directly back onto Glyphs.
type Line struct {
	Glyphs []Glyph
	Text   string
	X0, Y0 float64
	X1, Y1 float64
}

// GlyphsInSpan returns the glyphs whose text overlaps the byte range
// [start, end) of the line's Text.
func (l *Line) GlyphsInSpan(start, end int) []Glyph {
	var out []Glyph
	pos := 0
	for _, g := range l.Glyphs {
		glen := len(g.Text)
		if pos < end && pos+glen > start {
			out = append(out, g)
		}
		pos += glen
	}
	return out
}

// Layout is the positioned text of one page, as lines ordered top to bottom.
type Layout struct {
	Lines []Line
}

// Layout interprets the page's content streams and returns its text layout.
func (p *Page) Layout() (*Layout, error) {
	content, err := p.ContentStream()
	if err != nil {
		return nil, err
	}

	it := &layoutInterp{
		doc: p.doc,
		gs:  gstate{ctm: identityMatrix, ts: textState{hscale: 1}},
		tm:  identityMatrix,
		tlm: identityMatrix,
	}
	if err := it.run(content, p.Resources, 0); err != nil {
		return nil, fmt.Errorf("reader: page %d layout: %w", p.Number, err)
	}

	return &Layout{Lines: buildLines(it.glyphs)}, nil
}

// matrix is a PDF transformation matrix [a b c d e f]:
// x' = a*x + c*y + e, y' = b*x + d*y + f.
type matrix [6]float64

var identityMatrix = matrix{1, 0, 0, 1, 0, 0}

func translation(tx, ty float64) matrix {
	return matrix{1, 0, 0, 1, tx, ty}
}

// mul returns the matrix that applies m first, then n.
func (m matrix) mul(n matrix) matrix {
	return matrix{
		m[0]*n[0] + m[1]*n[2],
		m[0]*n[1] + m[1]*n[3],
		m[2]*n[0] + m[3]*n[2],
		m[2]*n[1] + m[3]*n[3],
		m[4]*n[0] + m[5]*n[2] + n[4],
		m[4]*n[1] + m[5]*n[3] + n[5],
	}
}

func (m matrix) apply(x, y float64) (float64, float64) {
	return m[0]*x + m[2]*y + m[4], m[1]*x + m[3]*y + m[5]
}

// textState mirrors the PDF text state parameters.
type textState struct {
	font     *Font
	fontName Name
	size     float64
	charSp   float64
	wordSp   float64
	hscale   float64 // Tz / 100
	leading  float64
	rise     float64
	mode     int
}

// gstate is the saved/restored graphics state.
type gstate struct {
	ctm matrix
	ts  textState
}

// placedGlyph keeps the baseline y and emission order alongside the
// glyph for line grouping.
type placedGlyph struct {
	Glyph
	baseline float64
}

// maxFormDepth bounds form XObject recursion against reference cycles.
const maxFormDepth = 12

type layoutInterp struct {
	doc       *Document
	resources Dict
	glyphs    []placedGlyph

	gs    gstate
	stack []gstate
	tm    matrix
	tlm   matrix
}

// run executes one content stream against the given resource dictionary.
func (it *layoutInterp) run(content []byte, resources Dict, depth int) error {
	if depth > maxFormDepth {
		return fmt.Errorf("form nesting deeper than %d levels", maxFormDepth)
	}

	savedRes := it.resources
	it.resources = resources
	defer func() { it.resources = savedRes }()

	s := newContentScanner(content)
	var operands []Object

	for {
		obj, op, err := s.next()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Malformed token: resynchronize one byte further on.
			s.p.pos++
			operands = operands[:0]
			continue
		}
		if obj != nil {
			if len(operands) > 128 {
				operands = operands[:0]
			}
			operands = append(operands, obj)
			continue
		}
		it.execute(op, operands, s, depth)
		operands = operands[:0]
	}
	return nil
}

func (it *layoutInterp) execute(op string, operands []Object, s *contentScanner, depth int) {
	ts := &it.gs.ts

	switch op {
	case "q":
		it.stack = append(it.stack, it.gs)
	case "Q":
		if n := len(it.stack); n > 0 {
			it.gs = it.stack[n-1]
			it.stack = it.stack[:n-1]
		}
	case "cm":
		if m, ok := matrixOperands(operands); ok {
			it.gs.ctm = m.mul(it.gs.ctm)
		}

	case "BT":
		it.tm = identityMatrix
		it.tlm = identityMatrix
	case "ET":

	case "Tf":
		if len(operands) >= 2 {
			if name, ok := operands[len(operands)-2].(Name); ok {
				ts.fontName = name
				ts.font = it.fontFor(name)
			}
			if v, ok := toFloat(operands[len(operands)-1]); ok {
				ts.size = v
			}
		}
	case "Tc":
		if v, ok := lastNumber(operands); ok {
			ts.charSp = v
		}
	case "Tw":
		if v, ok := lastNumber(operands); ok {
			ts.wordSp = v
		}
	case "Tz":
		if v, ok := lastNumber(operands); ok {
			ts.hscale = v / 100
		}
	case "TL":
		if v, ok := lastNumber(operands); ok {
			ts.leading = v
		}
	case "Ts":
		if v, ok := lastNumber(operands); ok {
			ts.rise = v
		}
	case "Tr":
		if v, ok := lastNumber(operands); ok {
			ts.mode = int(v)
		}

	case "Td":
		if tx, ty, ok := pairOperands(operands); ok {
			it.textMove(tx, ty)
		}
	case "TD":
		if tx, ty, ok := pairOperands(operands); ok {
			ts.leading = -ty
			it.textMove(tx, ty)
		}
	case "Tm":
		if m, ok := matrixOperands(operands); ok {
			it.tlm = m
			it.tm = m
		}
	case "T*":
		it.textMove(0, -ts.leading)

	case "Tj":
		if len(operands) >= 1 {
			if str, ok := operands[len(operands)-1].(String); ok {
				it.showText(str.Value)
			}
		}
	case "'":
		it.textMove(0, -ts.leading)
		if len(operands) >= 1 {
			if str, ok := operands[len(operands)-1].(String); ok {
				it.showText(str.Value)
			}
		}
	case "\"":
		if len(operands) >= 3 {
			if aw, ok := toFloat(operands[len(operands)-3]); ok {
				ts.wordSp = aw
			}
			if ac, ok := toFloat(operands[len(operands)-2]); ok {
				ts.charSp = ac
			}
			it.textMove(0, -ts.leading)
			if str, ok := operands[len(operands)-1].(String); ok {
				it.showText(str.Value)
			}
		}
	case "TJ":
		if len(operands) >= 1 {
			if arr, ok := operands[len(operands)-1].(Array); ok {
				for _, el := range arr {
					switch v := el.(type) {
					case String:
						it.showText(v.Value)
					case Integer, Real:
						adj, _ := toFloat(v)
						tx := -adj / 1000 * ts.size * ts.hscale
						it.tm = translation(tx, 0).mul(it.tm)
					}
				}
			}
		}

	case "Do":
		if len(operands) >= 1 {
			if name, ok := operands[len(operands)-1].(Name); ok {
				it.execForm(name, depth)
			}
		}
	case "BI":
		s.skipInlineImage()
	}
}

// textMove implements Td: translate the line matrix and restart from it.
func (it *layoutInterp) textMove(tx, ty float64) {
	it.tlm = translation(tx, ty).mul(it.tlm)
	it.tm = it.tlm
}

// showText places the glyphs of one shown string and advances the text matrix.
func (it *layoutInterp) showText(raw []byte) {
	ts := &it.gs.ts
	if ts.font == nil {
		return
	}

	asc, desc := ts.font.ascent, ts.font.descent

	for _, c := range ts.font.decode(raw) {
		w0 := c.width / 1000

		trm := matrix{ts.size * ts.hscale, 0, 0, ts.size, 0, ts.rise}.
			mul(it.tm).mul(it.gs.ctm)

		x0, y0 := trm.apply(0, desc)
		x1, y1 := trm.apply(w0, asc)
		x2, y2 := trm.apply(w0, desc)
		x3, y3 := trm.apply(0, asc)
		_, base := trm.apply(0, 0)

		m := it.tm.mul(it.gs.ctm)
		fsize := ts.size * math.Hypot(m[2], m[3])

		it.glyphs = append(it.glyphs, placedGlyph{
			Glyph: Glyph{
				Text:     c.text,
				X0:       min(x0, x1, x2, x3),
				Y0:       min(y0, y1, y2, y3),
				X1:       max(x0, x1, x2, x3),
				Y1:       max(y0, y1, y2, y3),
				FontName: ts.font.BaseFont,
				FontSize: fsize,
			},
			baseline: base,
		})

		adv := w0*ts.size + ts.charSp
		if c.isSpace {
			adv += ts.wordSp
		}
		it.tm = translation(adv*ts.hscale, 0).mul(it.tm)
	}
}

// fontFor resolves a font name through the current resource dictionary.
func (it *layoutInterp) fontFor(name Name) *Font {
	if it.resources == nil {
		return nil
	}
	fontsObj, err := it.doc.resolveIfRef(it.resources["Font"])
	if err != nil {
		return nil
	}
	fonts, ok := fontsObj.(Dict)
	if !ok {
		return nil
	}
	entry, ok := fonts[name]
	if !ok {
		return nil
	}
	f, err := it.doc.loadFont(entry)
	if err != nil {
		return nil
	}
	return f
}

// execForm runs a form XObject with the Do operator's implicit
// save/concat/restore semantics. Image XObjects are ignored.
func (it *layoutInterp) execForm(name Name, depth int) {
	if it.resources == nil {
		return
	}
	xobjsObj, err := it.doc.resolveIfRef(it.resources["XObject"])
	if err != nil {
		return
	}
	xobjs, ok := xobjsObj.(Dict)
	if !ok {
		return
	}
	entryObj, err := it.doc.resolveIfRef(xobjs[name])
	if err != nil {
		return
	}
	stream, ok := entryObj.(Stream)
	if !ok || stream.Dict.GetName("Subtype") != "Form" {
		return
	}

	content, err := decodeStream(stream)
	if err != nil {
		return
	}

	resources := it.resources
	resObj, err := it.doc.resolveIfRef(stream.Dict["Resources"])
	if err == nil {
		if resDict, ok := resObj.(Dict); ok {
			resources = resDict
		}
	}

	it.stack = append(it.stack, it.gs)
	if fm := stream.Dict.GetArray("Matrix"); len(fm) == 6 {
		var m matrix
		valid := true
		for i, v := range fm {
			f, ok := toFloat(v)
			if !ok {
				valid = false
				break
			}
			m[i] = f
		}
		if valid {
			it.gs.ctm = m.mul(it.gs.ctm)
		}
	}

	_ = it.run(content, resources, depth+1)

	if n := len(it.stack); n > 0 {
		it.gs = it.stack[n-1]
		it.stack = it.stack[:n-1]
	}
}

func lastNumber(operands []Object) (float64, bool) {
	if len(operands) == 0 {
		return 0, false
	}
	return toFloat(operands[len(operands)-1])
}

func pairOperands(operands []Object) (float64, float64, bool) {
	if len(operands) < 2 {
		return 0, 0, false
	}
	a, ok1 := toFloat(operands[len(operands)-2])
	b, ok2 := toFloat(operands[len(operands)-1])
	return a, b, ok1 && ok2
}

func matrixOperands(operands []Object) (matrix, bool) {
	if len(operands) < 6 {
		return matrix{}, false
	}
	var m matrix
	for i := 0; i < 6; i++ {
		v, ok := toFloat(operands[len(operands)-6+i])
		if !ok {
			return matrix{}, false
		}
		m[i] = v
	}
	return m, true
}

// buildLines groups placed glyphs into lines by baseline proximity and
// orders each line left to right. Lines come out top to bottom.
func buildLines(glyphs []placedGlyph) []Line {
	if len(glyphs) == 0 {
		return nil
	}

	// Tolerance adapts to the page's glyph heights so tightly leaded
	// text still separates into distinct lines.
	var totalH float64
	var count int
	for _, g := range glyphs {
		if h := g.Y1 - g.Y0; h > 0 {
			totalH += h
			count++
		}
	}
	tol := 2.0
	if count > 0 {
		tol = 0.5 * totalH / float64(count)
	}

	sorted := make([]placedGlyph, len(glyphs))
	copy(sorted, glyphs)
	sort.SliceStable(sorted, func(i, j int) bool {
		d := sorted[i].baseline - sorted[j].baseline
		if math.Abs(d) > tol {
			return d > 0 // larger y first: top of page
		}
		return false // same band: keep stream order
	})

	var groups [][]placedGlyph
	var cur []placedGlyph
	var baselineSum float64

	flush := func() {
		if len(cur) > 0 {
			groups = append(groups, cur)
			cur = nil
			baselineSum = 0
		}
	}

	for _, g := range sorted {
		if len(cur) > 0 {
			avg := baselineSum / float64(len(cur))
			if math.Abs(g.baseline-avg) > tol {
				flush()
			}
		}
		cur = append(cur, g)
		baselineSum += g.baseline
	}
	flush()

	lines := make([]Line, 0, len(groups))
	for _, group := range groups {
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].X0 < group[j].X0
		})

		line := Line{
			Glyphs: make([]Glyph, len(group)),
			X0:     math.Inf(1),
			Y0:     math.Inf(1),
			X1:     math.Inf(-1),
			Y1:     math.Inf(-1),
		}
		var text []byte
		for i, g := range group {
			line.Glyphs[i] = g.Glyph
			text = append(text, g.Text...)
			line.X0 = min(line.X0, g.X0)
			line.Y0 = min(line.Y0, g.Y0)
			line.X1 = max(line.X1, g.X1)
			line.Y1 = max(line.Y1, g.Y1)
		}
		line.Text = string(text)
		lines = append(lines, line)
	}
	return lines
}
