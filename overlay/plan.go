package overlay

import (
	"math"

	"github.com/SonoItalianoVero/refactored-lamp/reader"
)

// RectOp is an opaque white rectangle in page-local PDF coordinates.
type RectOp struct {
	X0, Y0 float64
	X1, Y1 float64
}

// TextOp draws Value left-aligned with its baseline at (X, Y), in
// page-local PDF coordinates.
type TextOp struct {
	Value  string
	X, Y   float64
	Family string
	Style  FontStyle
	Size   float64
}

// Patch is the replacement work for one hit: blank the source token, then
// draw its replacement. Patches execute in order, each blank before its
// own text.
type Patch struct {
	Blank RectOp
	Text  TextOp
}

// PagePlan is the ordered drawing work for one page of the output. A page
// without hits has an empty but present plan; the compositor still merges
// the original page.
type PagePlan struct {
	W, H    float64
	Patches []Patch
}

// BuildPlan converts the hits of one page into its plan. The page box is
// the media box the compositor will import; hit coordinates shift by its
// origin so plans are page-local even when the box does not start at 0,0.
func BuildPlan(box reader.Rectangle, hits []Hit, pol Policy) PagePlan {
	plan := PagePlan{W: box.Width(), H: box.Height()}
	for _, h := range hits {
		pad := padding(h.FontSize)
		b := h.BBox
		plan.Patches = append(plan.Patches, Patch{
			Blank: RectOp{
				X0: b.X0 - pad - box.LLX,
				Y0: b.Y0 - pad - box.LLY,
				X1: b.X1 + pad - box.LLX,
				Y1: b.Y1 + pad - box.LLY,
			},
			Text: TextOp{
				Value:  ReplacementFor(h, pol),
				X:      b.X0 - box.LLX,
				Y:      b.Y0 + b.Height()*h.AnchorRatio - box.LLY,
				Family: h.FontFamily,
				Style:  h.FontStyle,
				Size:   h.FontSize,
			},
		})
	}
	return plan
}

// padding is the margin the blank rectangle extends past the hit box,
// scaled with the font size and floored at 1.2 points.
func padding(size float64) float64 {
	return math.Max(1.2, 0.18*size)
}
