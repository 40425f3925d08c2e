// Package overlay turns matched document tokens into drawable replacements.
//
// The pipeline has three stages. FindHits resolves scan matches against a
// page's text layout into Hits carrying geometry and font identity.
// BuildPlan converts the hits of one page into a PagePlan of blank-and-
// redraw operations. A Composer lays every plan over its source page,
// producing the revised document bytes.
package overlay

import (
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/SonoItalianoVero/refactored-lamp/reader"
	"github.com/SonoItalianoVero/refactored-lamp/scan"
)

// FontStyle is the weight of a resolved font face.
type FontStyle int

const (
	Regular FontStyle = iota
	Bold
)

// String returns a short name for the style.
func (s FontStyle) String() string {
	if s == Bold {
		return "Bold"
	}
	return "Regular"
}

// BBox is an axis-aligned box in PDF user space (origin bottom-left, y up).
type BBox struct {
	X0, Y0 float64
	X1, Y1 float64
}

// Width returns the horizontal extent of the box.
func (b BBox) Width() float64 { return b.X1 - b.X0 }

// Height returns the vertical extent of the box.
func (b BBox) Height() float64 { return b.Y1 - b.Y0 }

// Hit is one matched token resolved to page geometry. BBox covers the
// glyphs of the match; FontSize is the median of their sizes; FontFamily
// and FontStyle come from the first covering glyph. AnchorRatio positions
// the replacement baseline inside the box, measured up from Y0.
type Hit struct {
	Kind        scan.Kind
	BBox        BBox
	FontSize    float64
	FontFamily  string
	FontStyle   FontStyle
	SourceText  string
	AnchorRatio float64
}

// Policy carries the replacement values of one invocation, applied
// uniformly to every hit. Date is preformatted as DD-MM-YYYY.
type Policy struct {
	NewAmount   float64
	Date        string
	AnchorRatio float64
}

// subsetPrefix matches the tag embedded font subsets prepend to the base
// font name, e.g. "ABCDEF+Calibri-Bold".
var subsetPrefix = regexp.MustCompile(`^[A-Z]{6}\+`)

// FindHits scans every line of a page layout and resolves the matches to
// hits. Hits come out in reading order: top to bottom, left to right
// within a line.
func FindHits(layout *reader.Layout, anchorRatio float64) []Hit {
	var hits []Hit
	for i := range layout.Lines {
		line := &layout.Lines[i]
		for _, m := range scan.Find(line.Text) {
			if h, ok := resolveHit(line, m, anchorRatio); ok {
				hits = append(hits, h)
			}
		}
	}
	return hits
}

// resolveHit maps one match back onto the glyphs that drew it. A match
// with no covering glyphs or a non-positive size cannot be redrawn and is
// dropped.
func resolveHit(line *reader.Line, m scan.Match, anchorRatio float64) (Hit, bool) {
	glyphs := line.GlyphsInSpan(m.Start, m.End)
	if len(glyphs) == 0 {
		return Hit{}, false
	}

	box := BBox{X0: math.Inf(1), Y0: math.Inf(1), X1: math.Inf(-1), Y1: math.Inf(-1)}
	sizes := make([]float64, len(glyphs))
	for i, g := range glyphs {
		box.X0 = min(box.X0, g.X0)
		box.Y0 = min(box.Y0, g.Y0)
		box.X1 = max(box.X1, g.X1)
		box.Y1 = max(box.Y1, g.Y1)
		sizes[i] = g.FontSize
	}

	size := median(sizes)
	if size <= 0 {
		return Hit{}, false
	}

	name := subsetPrefix.ReplaceAllString(glyphs[0].FontName, "")
	style := Regular
	if strings.Contains(strings.ToLower(name), "bold") {
		style = Bold
	}

	return Hit{
		Kind:        m.Kind,
		BBox:        box,
		FontSize:    size,
		FontFamily:  name,
		FontStyle:   style,
		SourceText:  m.Text,
		AnchorRatio: anchorRatio,
	}, true
}

// ReplacementFor returns the text drawn in place of a hit: the policy date
// for date hits, the policy amount in the source's symbol placement for
// amount hits.
func ReplacementFor(h Hit, pol Policy) string {
	if h.Kind == scan.Date {
		return pol.Date
	}
	return scan.FormatAmount(pol.NewAmount, scan.SymbolLeft(h.SourceText))
}

// median returns the middle value of sizes; for an even count, the mean of
// the two middle values.
func median(sizes []float64) float64 {
	s := make([]float64, len(sizes))
	copy(s, sizes)
	sort.Float64s(s)
	n := len(s)
	if n%2 == 1 {
		return s[n/2]
	}
	return (s[n/2-1] + s[n/2]) / 2
}
