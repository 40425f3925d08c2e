package pageops

import (
	"fmt"

	gofpdf "github.com/jung-kurt/gofpdf"
)

// Rotate returns src with the selected 1-based pages rotated clockwise
// by angle degrees (90, 180 or 270). Without a page selection every page
// rotates. Unselected pages pass through at their original size.
func Rotate(src []byte, angle int, pages ...int) (out []byte, err error) {
	if angle != 90 && angle != 180 && angle != 270 {
		return nil, fmt.Errorf("pageops: rotation angle must be 90, 180, or 270, got %d", angle)
	}
	n, err := sourcePages(src)
	if err != nil {
		return nil, fmt.Errorf("pageops: rotate: %w", err)
	}
	selected, err := pageSet(pages, n)
	if err != nil {
		return nil, fmt.Errorf("pageops: rotate: %w", err)
	}
	defer recoverImport(&err)

	pdf := newCanvas()
	s := newSource(src)
	for p := 1; p <= n; p++ {
		tpl, w, h := s.importTemplate(pdf, p)
		if !selected[p] {
			s.layDown(pdf, tpl, w, h)
			continue
		}

		// A quarter turn swaps the page dimensions.
		if angle == 90 || angle == 270 {
			pdf.AddPageFormat("P", gofpdf.SizeType{Wd: h, Ht: w})
		} else {
			pdf.AddPageFormat("P", gofpdf.SizeType{Wd: w, Ht: h})
		}

		pdf.TransformBegin()
		switch angle {
		case 90:
			pdf.TransformRotate(-90, 0, 0)
			pdf.TransformTranslate(0, w)
		case 180:
			pdf.TransformRotate(-180, w/2, h/2)
		case 270:
			pdf.TransformRotate(-270, 0, 0)
			pdf.TransformTranslate(h, 0)
		}
		s.imp.UseImportedTemplate(pdf, tpl, 0, 0, w, h)
		pdf.TransformEnd()
	}
	return output(pdf)
}

// RotateToFile rotates pages of the file at inputPath and writes the
// result to outputPath.
func RotateToFile(inputPath, outputPath string, angle int, pages ...int) error {
	src, err := readInput(inputPath)
	if err != nil {
		return err
	}
	out, err := Rotate(src, angle, pages...)
	if err != nil {
		return err
	}
	return writeOutput(outputPath, out)
}
