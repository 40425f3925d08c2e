package reader

import "strings"

// coreMetrics holds glyph metrics for one of the Standard 14 fonts.
// Widths are in 1000ths of an em; ascent and descent are em fractions.
type coreMetrics struct {
	ascent  float64
	descent float64
	widths  map[rune]float64
	pitch   float64 // fixed advance for monospaced fonts, 0 otherwise
}

// width returns the advance width of a rune in 1000ths of an em.
func (m *coreMetrics) width(r rune) float64 {
	if m.pitch > 0 {
		return m.pitch
	}
	if w, ok := m.widths[r]; ok {
		return w
	}
	return 500
}

// coreMetricsFor returns metrics for a Standard 14 base font name, or nil
// for fonts that must carry their own /Widths. Subset prefixes of the
// form "ABCDEF+" are ignored.
func coreMetricsFor(baseFont string) *coreMetrics {
	name := baseFont
	if len(name) > 7 && name[6] == '+' {
		name = name[7:]
	}

	if m, ok := coreFonts[name]; ok {
		return m
	}

	// Writers sometimes use aliases like Arial or ArialMT for Helvetica.
	lower := strings.ToLower(name)
	bold := strings.Contains(lower, "bold")
	switch {
	case strings.Contains(lower, "courier") || strings.Contains(lower, "mono"):
		return &courierMetrics
	case strings.Contains(lower, "times") || strings.Contains(lower, "serif"):
		if bold {
			return &timesBoldMetrics
		}
		return &timesMetrics
	case strings.Contains(lower, "helvetica") || strings.Contains(lower, "arial"):
		if bold {
			return &helveticaBoldMetrics
		}
		return &helveticaMetrics
	}
	return nil
}

var coreFonts = map[string]*coreMetrics{
	"Helvetica":             &helveticaMetrics,
	"Helvetica-Bold":        &helveticaBoldMetrics,
	"Helvetica-Oblique":     &helveticaMetrics,
	"Helvetica-BoldOblique": &helveticaBoldMetrics,
	"Times-Roman":           &timesMetrics,
	"Times-Bold":            &timesBoldMetrics,
	"Times-Italic":          &timesMetrics,
	"Times-BoldItalic":      &timesBoldMetrics,
	"Courier":               &courierMetrics,
	"Courier-Bold":          &courierMetrics,
	"Courier-Oblique":       &courierMetrics,
	"Courier-BoldOblique":   &courierMetrics,
	"Symbol":                &symbolMetrics,
	"ZapfDingbats":          &symbolMetrics,
}

var helveticaMetrics = coreMetrics{
	ascent:  0.718,
	descent: -0.207,
	widths: map[rune]float64{
		' ': 278, '!': 278, '"': 355, '#': 556, '$': 556, '%': 889, '&': 667,
		'\'': 191, '(': 333, ')': 333, '*': 389, '+': 584, ',': 278, '-': 333,
		'.': 278, '/': 278, '0': 556, '1': 556, '2': 556, '3': 556, '4': 556,
		'5': 556, '6': 556, '7': 556, '8': 556, '9': 556, ':': 278, ';': 278,
		'<': 584, '=': 584, '>': 584, '?': 556, '@': 1015,
		'A': 667, 'B': 667, 'C': 722, 'D': 722, 'E': 667, 'F': 611, 'G': 778,
		'H': 722, 'I': 278, 'J': 500, 'K': 667, 'L': 556, 'M': 833, 'N': 722,
		'O': 778, 'P': 667, 'Q': 778, 'R': 722, 'S': 667, 'T': 611, 'U': 722,
		'V': 667, 'W': 944, 'X': 667, 'Y': 667, 'Z': 611,
		'[': 278, '\\': 278, ']': 278, '^': 469, '_': 556, '`': 333,
		'a': 556, 'b': 556, 'c': 500, 'd': 556, 'e': 556, 'f': 278, 'g': 556,
		'h': 556, 'i': 222, 'j': 222, 'k': 500, 'l': 222, 'm': 833, 'n': 556,
		'o': 556, 'p': 556, 'q': 556, 'r': 333, 's': 500, 't': 278, 'u': 556,
		'v': 500, 'w': 722, 'x': 500, 'y': 500, 'z': 500,
		'{': 334, '|': 260, '}': 334, '~': 584, '€': 556,
	},
}

var helveticaBoldMetrics = coreMetrics{
	ascent:  0.718,
	descent: -0.207,
	widths: map[rune]float64{
		' ': 278, '!': 333, '"': 474, '#': 556, '$': 556, '%': 889, '&': 722,
		'\'': 238, '(': 333, ')': 333, '*': 389, '+': 584, ',': 278, '-': 333,
		'.': 278, '/': 278, '0': 556, '1': 556, '2': 556, '3': 556, '4': 556,
		'5': 556, '6': 556, '7': 556, '8': 556, '9': 556, ':': 333, ';': 333,
		'<': 584, '=': 584, '>': 584, '?': 611, '@': 975,
		'A': 722, 'B': 722, 'C': 722, 'D': 722, 'E': 667, 'F': 611, 'G': 778,
		'H': 722, 'I': 278, 'J': 556, 'K': 722, 'L': 611, 'M': 833, 'N': 722,
		'O': 778, 'P': 667, 'Q': 778, 'R': 722, 'S': 667, 'T': 611, 'U': 722,
		'V': 667, 'W': 944, 'X': 667, 'Y': 667, 'Z': 611,
		'[': 333, '\\': 278, ']': 333, '^': 584, '_': 556, '`': 333,
		'a': 556, 'b': 611, 'c': 556, 'd': 611, 'e': 556, 'f': 333, 'g': 611,
		'h': 611, 'i': 278, 'j': 278, 'k': 556, 'l': 278, 'm': 889, 'n': 611,
		'o': 611, 'p': 611, 'q': 611, 'r': 389, 's': 556, 't': 333, 'u': 611,
		'v': 556, 'w': 778, 'x': 556, 'y': 556, 'z': 500,
		'{': 389, '|': 280, '}': 389, '~': 584, '€': 556,
	},
}

var timesMetrics = coreMetrics{
	ascent:  0.683,
	descent: -0.217,
	widths: map[rune]float64{
		' ': 250, '!': 333, '"': 408, '#': 500, '$': 500, '%': 833, '&': 778,
		'\'': 180, '(': 333, ')': 333, '*': 500, '+': 564, ',': 250, '-': 333,
		'.': 250, '/': 278, '0': 500, '1': 500, '2': 500, '3': 500, '4': 500,
		'5': 500, '6': 500, '7': 500, '8': 500, '9': 500, ':': 278, ';': 278,
		'<': 564, '=': 564, '>': 564, '?': 444, '@': 921,
		'A': 722, 'B': 667, 'C': 667, 'D': 722, 'E': 611, 'F': 556, 'G': 722,
		'H': 722, 'I': 333, 'J': 389, 'K': 722, 'L': 611, 'M': 889, 'N': 722,
		'O': 722, 'P': 556, 'Q': 722, 'R': 667, 'S': 556, 'T': 611, 'U': 722,
		'V': 722, 'W': 944, 'X': 722, 'Y': 722, 'Z': 611,
		'[': 333, '\\': 278, ']': 333, '^': 469, '_': 500, '`': 333,
		'a': 444, 'b': 500, 'c': 444, 'd': 500, 'e': 444, 'f': 333, 'g': 500,
		'h': 500, 'i': 278, 'j': 278, 'k': 500, 'l': 278, 'm': 778, 'n': 500,
		'o': 500, 'p': 500, 'q': 500, 'r': 333, 's': 389, 't': 278, 'u': 500,
		'v': 500, 'w': 722, 'x': 500, 'y': 500, 'z': 444,
		'{': 480, '|': 200, '}': 480, '~': 541, '€': 500,
	},
}

var timesBoldMetrics = coreMetrics{
	ascent:  0.676,
	descent: -0.205,
	widths: map[rune]float64{
		' ': 250, '!': 333, '"': 555, '#': 500, '$': 500, '%': 1000, '&': 833,
		'\'': 278, '(': 333, ')': 333, '*': 500, '+': 570, ',': 250, '-': 333,
		'.': 250, '/': 278, '0': 500, '1': 500, '2': 500, '3': 500, '4': 500,
		'5': 500, '6': 500, '7': 500, '8': 500, '9': 500, ':': 333, ';': 333,
		'<': 570, '=': 570, '>': 570, '?': 500, '@': 930,
		'A': 722, 'B': 667, 'C': 722, 'D': 722, 'E': 667, 'F': 611, 'G': 778,
		'H': 778, 'I': 389, 'J': 500, 'K': 778, 'L': 667, 'M': 944, 'N': 722,
		'O': 778, 'P': 611, 'Q': 778, 'R': 722, 'S': 556, 'T': 667, 'U': 722,
		'V': 722, 'W': 1000, 'X': 722, 'Y': 722, 'Z': 667,
		'[': 333, '\\': 278, ']': 333, '^': 581, '_': 500, '`': 333,
		'a': 500, 'b': 556, 'c': 444, 'd': 556, 'e': 444, 'f': 333, 'g': 500,
		'h': 556, 'i': 278, 'j': 333, 'k': 556, 'l': 278, 'm': 833, 'n': 556,
		'o': 500, 'p': 556, 'q': 556, 'r': 444, 's': 389, 't': 333, 'u': 556,
		'v': 500, 'w': 722, 'x': 500, 'y': 500, 'z': 444,
		'{': 394, '|': 220, '}': 394, '~': 520, '€': 500,
	},
}

var courierMetrics = coreMetrics{
	ascent:  0.629,
	descent: -0.157,
	pitch:   600,
}

var symbolMetrics = coreMetrics{
	ascent:  0.8,
	descent: -0.2,
}
