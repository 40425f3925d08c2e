package docgen

import (
	"bytes"
	"fmt"
	"hash/fnv"
	"image/png"
	"strings"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/code128"
	"github.com/boombuler/barcode/qr"
	gofpdf "github.com/jung-kurt/gofpdf"
	pdf417 "github.com/ruudk/golang-pdf417"
)

// Fixed encoding parameters for the pdf417 symbology.
const (
	pdf417Columns  = 4
	pdf417Security = 2
)

// barcode renders a barcode element. The symbology selects the encoder:
// qr (default), code128 or pdf417. The encoded matrix is scaled,
// converted to PNG and placed like an image.
func (r *renderer) barcode(elem Element) error {
	if elem.Content == "" {
		return fmt.Errorf("barcode element requires content")
	}

	symbology := strings.ToLower(elem.Symbology)
	if symbology == "" {
		symbology = "qr"
	}

	w, h := barcodeBox(symbology, elem.Width, elem.Height)
	name := barcodeName(symbology, elem.Content)

	if r.pdf.GetImageInfo(name) == nil {
		var bc barcode.Barcode
		var err error
		switch symbology {
		case "qr":
			bc, err = qr.Encode(elem.Content, qr.M, qr.Unicode)
		case "code128":
			bc, err = code128.Encode(elem.Content)
		case "pdf417":
			bc = pdf417.Encode(elem.Content, pdf417Columns, pdf417Security)
		default:
			return fmt.Errorf("unknown barcode symbology %q", elem.Symbology)
		}
		if err != nil {
			return fmt.Errorf("encoding %s barcode: %w", symbology, err)
		}

		// About three device pixels per point keeps modules crisp.
		// Never scale below the intrinsic matrix size.
		k := r.pdf.GetConversionRatio()
		wPx, hPx := int(w*k*3), int(h*k*3)
		bounds := bc.Bounds()
		if wPx < bounds.Dx() {
			wPx = bounds.Dx()
		}
		if hPx < bounds.Dy() {
			hPx = bounds.Dy()
		}
		scaled, err := barcode.Scale(bc, wPx, hPx)
		if err != nil {
			return fmt.Errorf("scaling %s barcode: %w", symbology, err)
		}

		var buf bytes.Buffer
		if err := png.Encode(&buf, scaled); err != nil {
			return fmt.Errorf("encoding %s barcode: %w", symbology, err)
		}
		r.pdf.RegisterImageOptionsReader(name, gofpdf.ImageOptions{ImageType: "png"}, &buf)
	}

	x, y := elem.X, elem.Y
	if x == 0 && y == 0 {
		x, y = r.pdf.GetX(), r.pdf.GetY()
	}
	r.pdf.Image(name, x, y, w, h, false, "png", 0, "")
	if elem.Y == 0 {
		r.pdf.SetY(y + h + 2)
	}
	return r.pdf.Error()
}

// barcodeBox fills in default draw dimensions per symbology.
func barcodeBox(symbology string, w, h float64) (float64, float64) {
	if w == 0 {
		w = 40
	}
	if h == 0 {
		switch symbology {
		case "pdf417":
			h = w * 0.35
		case "code128":
			h = 15
		default:
			h = w
		}
	}
	return w, h
}

// barcodeName derives a stable image key so identical codes are
// embedded once.
func barcodeName(symbology, content string) string {
	hash := fnv.New32a()
	hash.Write([]byte(symbology))
	hash.Write([]byte{0})
	hash.Write([]byte(content))
	return fmt.Sprintf("barcode-%s-%08x", symbology, hash.Sum32())
}
