package reader

import (
	"strings"
	"unicode/utf16"
)

// ExtractText returns the page text reconstructed from the positioned
// layout: lines top to bottom separated by newlines, with spaces
// inserted where the horizontal gap between glyphs reads as a word
// break.
func (p *Page) ExtractText() (string, error) {
	layout, err := p.Layout()
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for i, line := range layout.Lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		writeLineText(&b, line)
	}
	return b.String(), nil
}

// writeLineText renders one line of glyphs. A space is synthesized when
// neighboring glyphs sit further apart than a quarter of the font size
// and neither side already is a space.
func writeLineText(b *strings.Builder, line Line) {
	var prev *Glyph
	for i := range line.Glyphs {
		g := &line.Glyphs[i]
		if g.Text == "" {
			continue
		}
		if prev != nil && prev.Text != " " && g.Text != " " {
			gap := g.X0 - prev.X1
			if threshold := 0.25 * max(prev.FontSize, g.FontSize); threshold > 0 && gap > threshold {
				b.WriteByte(' ')
			}
		}
		b.WriteString(g.Text)
		prev = g
	}
}

// decodePDFString decodes a PDF text string. Strings with a UTF-16BE
// BOM are decoded as UTF-16; everything else is treated as
// PDFDocEncoding, which matches Latin-1 for printable characters.
func decodePDFString(data []byte) string {
	if len(data) >= 2 && data[0] == 0xFE && data[1] == 0xFF {
		return decodeUTF16BE(data[2:])
	}
	var buf strings.Builder
	for _, b := range data {
		buf.WriteRune(rune(b))
	}
	return buf.String()
}

// decodeUTF16BE decodes UTF-16BE encoded bytes to a Go string.
func decodeUTF16BE(data []byte) string {
	if len(data)%2 != 0 {
		data = append(data, 0) // pad
	}
	u16s := make([]uint16, len(data)/2)
	for i := range u16s {
		u16s[i] = uint16(data[2*i])<<8 | uint16(data[2*i+1])
	}
	return string(utf16.Decode(u16s))
}
