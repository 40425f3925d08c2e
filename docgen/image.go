package docgen

import (
	"bytes"
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	gofpdf "github.com/jung-kurt/gofpdf"
	"golang.org/x/image/tiff"
)

// image places a raster image. PNG, JPEG and GIF pass through the
// canvas directly; TIFF is decoded and re-embedded as PNG because the
// canvas has no native TIFF support.
func (r *renderer) image(elem Element) error {
	if elem.Src == "" {
		return fmt.Errorf("image element requires a src path")
	}
	if _, err := os.Stat(elem.Src); err != nil {
		return fmt.Errorf("%w: %s", ErrAssetMissing, elem.Src)
	}

	x, y := elem.X, elem.Y
	if x == 0 && y == 0 {
		x, y = r.pdf.GetX(), r.pdf.GetY()
	}

	switch strings.ToLower(filepath.Ext(elem.Src)) {
	case ".tif", ".tiff":
		if err := r.registerTIFF(elem.Src); err != nil {
			return err
		}
		r.pdf.Image(elem.Src, x, y, elem.Width, elem.Height, false, "png", 0, "")
	default:
		r.pdf.Image(elem.Src, x, y, elem.Width, elem.Height, false, "", 0, "")
	}

	// Advance past the image when it was placed in the flow.
	if elem.Y == 0 && elem.Height > 0 {
		r.pdf.SetY(y + elem.Height + 2)
	}
	return r.pdf.Error()
}

// registerTIFF registers a TIFF file with the canvas under its path by
// converting it to PNG in memory. Later references reuse the first
// registration.
func (r *renderer) registerTIFF(src string) error {
	if r.pdf.GetImageInfo(src) != nil {
		return nil
	}

	data, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrAssetMissing, src)
	}
	img, err := tiff.Decode(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("decoding tiff %s: %w", src, err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return fmt.Errorf("converting tiff %s: %w", src, err)
	}
	r.pdf.RegisterImageOptionsReader(src, gofpdf.ImageOptions{ImageType: "png"}, &buf)
	return r.pdf.Error()
}
