package reader

import (
	"unicode/utf16"
)

// toUnicode maps character codes to Unicode text, built from a font's
// /ToUnicode CMap stream.
type toUnicode struct {
	single map[uint32]string
	ranges []bfRange
}

// bfRange maps [lo, hi] to text starting at base, incrementing the last
// UTF-16 code unit across the range.
type bfRange struct {
	lo, hi uint32
	base   []uint16
}

// lookup returns the text for a character code and whether a mapping exists.
func (tu *toUnicode) lookup(code uint32) (string, bool) {
	if tu == nil {
		return "", false
	}
	if s, ok := tu.single[code]; ok {
		return s, true
	}
	for _, r := range tu.ranges {
		if code >= r.lo && code <= r.hi {
			if len(r.base) == 0 {
				return "", true
			}
			units := make([]uint16, len(r.base))
			copy(units, r.base)
			units[len(units)-1] += uint16(code - r.lo)
			return string(utf16.Decode(units)), true
		}
	}
	return "", false
}

// parseToUnicode parses a ToUnicode CMap program. The surrounding
// PostScript scaffolding (findresource, begincmap, CIDSystemInfo) is
// skipped; only bfchar and bfrange sections contribute mappings.
func parseToUnicode(data []byte) *toUnicode {
	tu := &toUnicode{single: make(map[uint32]string)}
	s := newContentScanner(data)

	var pending []Object
	for {
		obj, op, err := s.next()
		if err != nil {
			break
		}
		if obj != nil {
			pending = append(pending, obj)
			if len(pending) > 16 {
				pending = pending[1:]
			}
			continue
		}
		switch op {
		case "beginbfchar":
			tu.parseBfChar(s)
			pending = nil
		case "beginbfrange":
			tu.parseBfRange(s)
			pending = nil
		default:
			pending = nil
		}
	}
	return tu
}

// parseBfChar reads <src> <dst> pairs until endbfchar.
func (tu *toUnicode) parseBfChar(s *contentScanner) {
	var pair []String
	for {
		obj, op, err := s.next()
		if err != nil || op == "endbfchar" {
			return
		}
		str, ok := obj.(String)
		if !ok {
			continue
		}
		pair = append(pair, str)
		if len(pair) == 2 {
			code := codeFromBytes(pair[0].Value)
			tu.single[code] = utf16BEToString(pair[1].Value)
			pair = pair[:0]
		}
	}
}

// parseBfRange reads <lo> <hi> (<dst> | [<dst> ...]) triples until endbfrange.
func (tu *toUnicode) parseBfRange(s *contentScanner) {
	var lo, hi *String
	for {
		obj, op, err := s.next()
		if err != nil || op == "endbfrange" {
			return
		}
		switch v := obj.(type) {
		case String:
			if lo == nil {
				str := v
				lo = &str
			} else if hi == nil {
				str := v
				hi = &str
			} else {
				tu.addRange(lo.Value, hi.Value, v.Value)
				lo, hi = nil, nil
			}
		case Array:
			if lo != nil && hi != nil {
				start := codeFromBytes(lo.Value)
				for i, item := range v {
					if dst, ok := item.(String); ok {
						tu.single[start+uint32(i)] = utf16BEToString(dst.Value)
					}
				}
			}
			lo, hi = nil, nil
		default:
			lo, hi = nil, nil
		}
	}
}

func (tu *toUnicode) addRange(lo, hi, dst []byte) {
	units := make([]uint16, 0, len(dst)/2)
	for i := 0; i+1 < len(dst); i += 2 {
		units = append(units, uint16(dst[i])<<8|uint16(dst[i+1]))
	}
	if len(dst) == 1 {
		units = append(units, uint16(dst[0]))
	}
	tu.ranges = append(tu.ranges, bfRange{
		lo:   codeFromBytes(lo),
		hi:   codeFromBytes(hi),
		base: units,
	})
}

// codeFromBytes interprets up to 4 big-endian bytes as a character code.
func codeFromBytes(b []byte) uint32 {
	var v uint32
	for _, by := range b {
		v = v<<8 | uint32(by)
	}
	return v
}

// utf16BEToString decodes big-endian UTF-16 bytes, handling surrogate pairs.
func utf16BEToString(b []byte) string {
	if len(b) == 1 {
		return string(rune(b[0]))
	}
	units := make([]uint16, 0, len(b)/2)
	for i := 0; i+1 < len(b); i += 2 {
		units = append(units, uint16(b[i])<<8|uint16(b[i+1]))
	}
	return string(utf16.Decode(units))
}
