package reader

import (
	"strconv"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// simpleEncoding decodes single-byte character codes for simple fonts.
// It combines a base encoding with the overrides from a /Differences array.
type simpleEncoding struct {
	base *charmap.Charmap
	diff map[byte]rune
}

// winAnsi is the default for fonts that declare no encoding: it matches
// what the overwhelming majority of invoice-style documents use, and the
// Euro sign lives at 0x80.
var winAnsi = &simpleEncoding{base: charmap.Windows1252}

// decode maps one character code to a rune.
func (e *simpleEncoding) decode(b byte) rune {
	if e.diff != nil {
		if r, ok := e.diff[b]; ok {
			return r
		}
	}
	r := e.base.DecodeByte(b)
	if r == utf8.RuneError {
		// Unassigned slot; keep the byte value so offsets stay stable.
		return rune(b)
	}
	return r
}

// encodingFromObject builds a simpleEncoding from a font's /Encoding entry,
// which may be a predefined name or a dictionary with /BaseEncoding and
// /Differences. A nil object yields the WinAnsi default.
func (d *Document) encodingFromObject(obj Object) *simpleEncoding {
	resolved, err := d.resolveIfRef(obj)
	if err != nil || resolved == nil {
		return winAnsi
	}

	switch v := resolved.(type) {
	case Name:
		return &simpleEncoding{base: baseCharmap(v)}
	case Dict:
		enc := &simpleEncoding{base: baseCharmap(v.GetName("BaseEncoding"))}
		diffObj, err := d.resolveIfRef(v["Differences"])
		if err == nil {
			if diffs, ok := diffObj.(Array); ok {
				enc.diff = parseDifferences(diffs)
			}
		}
		return enc
	}
	return winAnsi
}

// baseCharmap maps a predefined encoding name to its character map.
// StandardEncoding and the expert encodings diverge from Windows-1252
// only outside the ASCII range, which is close enough for layout work.
func baseCharmap(name Name) *charmap.Charmap {
	switch name {
	case "MacRomanEncoding":
		return charmap.Macintosh
	default:
		return charmap.Windows1252
	}
}

// parseDifferences reads a /Differences array: an integer sets the next
// code, and each following name maps a glyph to consecutive codes.
func parseDifferences(diffs Array) map[byte]rune {
	m := make(map[byte]rune)
	code := 0
	for _, item := range diffs {
		switch v := item.(type) {
		case Integer:
			code = int(v)
		case Real:
			code = int(v)
		case Name:
			if code >= 0 && code <= 255 {
				if r, ok := runeForGlyphName(v); ok {
					m[byte(code)] = r
				}
			}
			code++
		}
	}
	return m
}

// runeForGlyphName resolves an Adobe glyph name to a rune. Covers the
// names that show up in Differences arrays of Latin-script documents,
// plus the uniXXXX convention.
func runeForGlyphName(n Name) (rune, bool) {
	s := string(n)
	if r, ok := glyphNames[s]; ok {
		return r, true
	}
	// Single-character names map to themselves.
	if utf8.RuneCountInString(s) == 1 {
		r, _ := utf8.DecodeRuneInString(s)
		return r, true
	}
	// uniXXXX / uXXXX[XX] hexadecimal forms
	if len(s) == 7 && s[:3] == "uni" {
		if v, err := strconv.ParseUint(s[3:], 16, 32); err == nil {
			return rune(v), true
		}
	}
	if len(s) >= 5 && len(s) <= 7 && s[0] == 'u' {
		if v, err := strconv.ParseUint(s[1:], 16, 32); err == nil {
			return rune(v), true
		}
	}
	return 0, false
}

var glyphNames = map[string]rune{
	"space": ' ', "exclam": '!', "quotedbl": '"', "numbersign": '#',
	"dollar": '$', "percent": '%', "ampersand": '&', "quotesingle": '\'',
	"parenleft": '(', "parenright": ')', "asterisk": '*', "plus": '+',
	"comma": ',', "hyphen": '-', "period": '.', "slash": '/',
	"zero": '0', "one": '1', "two": '2', "three": '3', "four": '4',
	"five": '5', "six": '6', "seven": '7', "eight": '8', "nine": '9',
	"colon": ':', "semicolon": ';', "less": '<', "equal": '=',
	"greater": '>', "question": '?', "at": '@',
	"bracketleft": '[', "backslash": '\\', "bracketright": ']',
	"asciicircum": '^', "underscore": '_', "grave": '`',
	"braceleft": '{', "bar": '|', "braceright": '}', "asciitilde": '~',
	"Euro": '€', "euro": '€', "sterling": '£', "yen": '¥', "cent": '¢',
	"currency": '¤', "section": '§', "paragraph": '¶', "degree": '°',
	"plusminus": '±', "copyright": '©', "registered": '®', "trademark": '™',
	"bullet": '•', "ellipsis": '…', "endash": '–', "emdash": '—',
	"quoteleft": '‘', "quoteright": '’',
	"quotedblleft": '“', "quotedblright": '”',
	"quotesinglbase": '‚', "quotedblbase": '„',
	"guillemotleft": '«', "guillemotright": '»',
	"guilsinglleft": '‹', "guilsinglright": '›',
	"exclamdown": '¡', "questiondown": '¿',
	"agrave": 'à', "aacute": 'á', "acircumflex": 'â', "atilde": 'ã',
	"adieresis": 'ä', "aring": 'å', "ae": 'æ', "ccedilla": 'ç',
	"egrave": 'è', "eacute": 'é', "ecircumflex": 'ê', "edieresis": 'ë',
	"igrave": 'ì', "iacute": 'í', "icircumflex": 'î', "idieresis": 'ï',
	"ntilde": 'ñ', "ograve": 'ò', "oacute": 'ó', "ocircumflex": 'ô',
	"otilde": 'õ', "odieresis": 'ö', "oslash": 'ø', "ugrave": 'ù',
	"uacute": 'ú', "ucircumflex": 'û', "udieresis": 'ü', "yacute": 'ý',
	"ydieresis": 'ÿ', "germandbls": 'ß', "thorn": 'þ', "eth": 'ð',
	"Agrave": 'À', "Aacute": 'Á', "Acircumflex": 'Â', "Atilde": 'Ã',
	"Adieresis": 'Ä', "Aring": 'Å', "AE": 'Æ', "Ccedilla": 'Ç',
	"Egrave": 'È', "Eacute": 'É', "Ecircumflex": 'Ê', "Edieresis": 'Ë',
	"Igrave": 'Ì', "Iacute": 'Í', "Icircumflex": 'Î', "Idieresis": 'Ï',
	"Ntilde": 'Ñ', "Ograve": 'Ò', "Oacute": 'Ó', "Ocircumflex": 'Ô',
	"Otilde": 'Õ', "Odieresis": 'Ö', "Oslash": 'Ø', "Ugrave": 'Ù',
	"Uacute": 'Ú', "Ucircumflex": 'Û', "Udieresis": 'Ü', "Yacute": 'Ý',
	"Thorn": 'Þ', "Eth": 'Ð', "dotlessi": 'ı', "florin": 'ƒ',
	"fi": 'ﬁ', "fl": 'ﬂ', "oe": 'œ', "OE": 'Œ', "scaron": 'š',
	"Scaron": 'Š', "zcaron": 'ž', "Zcaron": 'Ž', "ydieresis.sc": 'ÿ',
	"mu": 'µ', "multiply": '×', "divide": '÷', "logicalnot": '¬',
	"onehalf": '½', "onequarter": '¼', "threequarters": '¾',
	"onesuperior": '¹', "twosuperior": '²', "threesuperior": '³',
	"ordfeminine": 'ª', "ordmasculine": 'º', "brokenbar": '¦',
	"dieresis": '¨', "macron": '¯', "acute": '´', "cedilla": '¸',
	"periodcentered": '·', "middot": '·', "dagger": '†', "daggerdbl": '‡',
	"perthousand": '‰', "minus": '−', "fraction": '⁄', "circumflex": 'ˆ',
	"tilde": '˜', "nbspace": ' ',
}
