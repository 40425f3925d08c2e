package reader

import (
	"fmt"

	"golang.org/x/text/unicode/norm"
)

// Font carries everything the layout interpreter needs to turn shown
// strings into positioned text: per-code advance widths, text decoding,
// and vertical extent.
type Font struct {
	BaseFont string
	Subtype  Name

	ascent  float64 // em fraction, positive
	descent float64 // em fraction, negative

	// Simple fonts (Type1, TrueType, Type3)
	firstChar   int
	widths      []float64
	widthFactor float64
	enc         *simpleEncoding
	metrics     *coreMetrics
	missing     float64

	// Composite fonts (Type0)
	cid *cidWidths

	toUni *toUnicode
}

// cidWidths holds the /W and /DW advance data of a CIDFont.
type cidWidths struct {
	dw     float64
	ranges []cidWidthRange
}

type cidWidthRange struct {
	lo, hi int
	list   []float64 // per-CID widths when non-nil
	w      float64   // uniform width otherwise
}

func (c *cidWidths) width(code int) float64 {
	for _, r := range c.ranges {
		if code >= r.lo && code <= r.hi {
			if r.list != nil {
				return r.list[code-r.lo]
			}
			return r.w
		}
	}
	return c.dw
}

// glyphCode is one decoded code unit from a shown string.
type glyphCode struct {
	text    string  // decoded text, may be empty or multiple runes
	width   float64 // advance in 1000ths of an em
	isSpace bool    // single-byte code 32; word spacing applies
}

// loadFont builds a Font from a font dictionary or a reference to one.
// Fonts reached through references are cached on the document.
func (d *Document) loadFont(obj Object) (*Font, error) {
	ref, isRef := obj.(Reference)
	if isRef {
		d.mu.Lock()
		f, ok := d.fonts[ref]
		d.mu.Unlock()
		if ok {
			return f, nil
		}
	}

	resolved, err := d.resolveIfRef(obj)
	if err != nil {
		return nil, fmt.Errorf("reader: resolving font: %w", err)
	}
	dict, ok := resolved.(Dict)
	if !ok {
		return nil, fmt.Errorf("reader: font is %T, want dictionary", resolved)
	}

	f := &Font{
		BaseFont:    string(dict.GetName("BaseFont")),
		Subtype:     dict.GetName("Subtype"),
		widthFactor: 1,
		ascent:      0.8,
		descent:     -0.2,
	}

	if f.Subtype == "Type0" {
		err = d.loadCompositeFont(f, dict)
	} else {
		err = d.loadSimpleFont(f, dict)
	}
	if err != nil {
		return nil, err
	}

	// ToUnicode gives the most accurate text mapping when present.
	if tuObj, ok := dict["ToUnicode"]; ok {
		tuResolved, err := d.resolveIfRef(tuObj)
		if err == nil {
			if stream, ok := tuResolved.(Stream); ok {
				if data, err := decodeStream(stream); err == nil {
					f.toUni = parseToUnicode(data)
				}
			}
		}
	}

	if isRef {
		d.mu.Lock()
		d.fonts[ref] = f
		d.mu.Unlock()
	}
	return f, nil
}

// loadSimpleFont fills in the single-byte font fields.
func (d *Document) loadSimpleFont(f *Font, dict Dict) error {
	if fc, ok := dict.GetInt("FirstChar"); ok {
		f.firstChar = int(fc)
	}

	if wObj, ok := dict["Widths"]; ok {
		resolved, err := d.resolveIfRef(wObj)
		if err == nil {
			if arr, ok := resolved.(Array); ok {
				f.widths = make([]float64, len(arr))
				for i, v := range arr {
					f.widths[i], _ = toFloat(v)
				}
			}
		}
	}

	// Type3 widths are expressed in glyph space; /FontMatrix converts.
	if f.Subtype == "Type3" {
		if fm := dict.GetArray("FontMatrix"); len(fm) == 6 {
			if a, ok := toFloat(fm[0]); ok && a != 0 {
				f.widthFactor = a * 1000
			}
		}
	}

	f.enc = d.encodingFromObject(dict["Encoding"])
	f.metrics = coreMetricsFor(f.BaseFont)
	d.applyFontDescriptor(f, dict)

	if f.metrics != nil {
		if _, hasDesc := dict["FontDescriptor"]; !hasDesc {
			f.ascent = f.metrics.ascent
			f.descent = f.metrics.descent
		}
	}
	return nil
}

// loadCompositeFont fills in Type0 fields from the descendant CIDFont.
func (d *Document) loadCompositeFont(f *Font, dict Dict) error {
	descArr := dict.GetArray("DescendantFonts")
	if descArr == nil {
		if ref, ok := dict["DescendantFonts"].(Reference); ok {
			resolved, err := d.resolve(ref)
			if err == nil {
				descArr, _ = resolved.(Array)
			}
		}
	}
	if len(descArr) == 0 {
		return fmt.Errorf("reader: Type0 font %s has no descendant font", f.BaseFont)
	}

	descObj, err := d.resolveIfRef(descArr[0])
	if err != nil {
		return fmt.Errorf("reader: resolving descendant font: %w", err)
	}
	desc, ok := descObj.(Dict)
	if !ok {
		return fmt.Errorf("reader: descendant font is %T, want dictionary", descObj)
	}

	cw := &cidWidths{dw: 1000}
	if dw, ok := desc.GetReal("DW"); ok {
		cw.dw = dw
	}

	wObj, err := d.resolveIfRef(desc["W"])
	if err == nil {
		if wArr, ok := wObj.(Array); ok {
			parseCIDWidths(cw, wArr)
		}
	}
	f.cid = cw

	d.applyFontDescriptor(f, desc)
	return nil
}

// parseCIDWidths walks a /W array. Entries come in two forms:
// "c [w1 ... wn]" and "cFirst cLast w".
func parseCIDWidths(cw *cidWidths, arr Array) {
	for i := 0; i < len(arr); {
		start, ok := toFloat(arr[i])
		if !ok {
			return
		}
		i++
		if i >= len(arr) {
			return
		}

		if list, isList := arr[i].(Array); isList {
			widths := make([]float64, len(list))
			for j, w := range list {
				widths[j], _ = toFloat(w)
			}
			cw.ranges = append(cw.ranges, cidWidthRange{
				lo:   int(start),
				hi:   int(start) + len(widths) - 1,
				list: widths,
			})
			i++
			continue
		}

		end, ok := toFloat(arr[i])
		if !ok {
			return
		}
		i++
		if i >= len(arr) {
			return
		}
		w, _ := toFloat(arr[i])
		i++
		cw.ranges = append(cw.ranges, cidWidthRange{lo: int(start), hi: int(end), w: w})
	}
}

// applyFontDescriptor pulls vertical metrics and the missing width from
// /FontDescriptor. Values there are in 1000ths of an em.
func (d *Document) applyFontDescriptor(f *Font, dict Dict) {
	fdObj, ok := dict["FontDescriptor"]
	if !ok {
		return
	}
	resolved, err := d.resolveIfRef(fdObj)
	if err != nil {
		return
	}
	fd, ok := resolved.(Dict)
	if !ok {
		return
	}

	if a, ok := fd.GetReal("Ascent"); ok && a != 0 {
		f.ascent = a / 1000
	}
	if de, ok := fd.GetReal("Descent"); ok && de != 0 {
		f.descent = de / 1000
		if f.descent > 0 {
			f.descent = -f.descent
		}
	}
	if mw, ok := fd.GetReal("MissingWidth"); ok {
		f.missing = mw
	}
}

// decode splits a shown string into per-glyph codes with text and widths.
func (f *Font) decode(data []byte) []glyphCode {
	if f.cid != nil {
		return f.decodeComposite(data)
	}
	return f.decodeSimple(data)
}

func (f *Font) decodeSimple(data []byte) []glyphCode {
	out := make([]glyphCode, 0, len(data))
	for _, b := range data {
		code := int(b)
		var text string
		if s, ok := f.toUni.lookup(uint32(code)); ok {
			text = s
		} else {
			text = string(f.enc.decode(b))
		}
		text = normalizeText(text)

		var width float64
		idx := code - f.firstChar
		if f.widths != nil && idx >= 0 && idx < len(f.widths) {
			width = f.widths[idx] * f.widthFactor
		} else if f.metrics != nil {
			r := rune(b)
			for _, rr := range text {
				r = rr
				break
			}
			width = f.metrics.width(r)
		} else if f.missing > 0 {
			width = f.missing
		} else {
			width = 500
		}

		out = append(out, glyphCode{text: text, width: width, isSpace: b == ' '})
	}
	return out
}

func (f *Font) decodeComposite(data []byte) []glyphCode {
	out := make([]glyphCode, 0, len(data)/2+1)
	for i := 0; i < len(data); i += 2 {
		var code uint32
		if i+1 < len(data) {
			code = uint32(data[i])<<8 | uint32(data[i+1])
		} else {
			code = uint32(data[i])
		}
		text, _ := f.toUni.lookup(code)
		out = append(out, glyphCode{
			text:  normalizeText(text),
			width: f.cid.width(int(code)),
		})
	}
	return out
}

// normalizeText applies NFC so decoded text compares consistently.
func normalizeText(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return norm.NFC.String(s)
		}
	}
	return s
}
