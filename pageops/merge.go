package pageops

import (
	"errors"
	"fmt"

	gofpdf "github.com/jung-kurt/gofpdf"
)

// Merge combines the pages of the given documents into one, in input
// order, each page at its original size.
func Merge(inputs ...[]byte) (out []byte, err error) {
	if len(inputs) == 0 {
		return nil, errors.New("pageops: no input documents")
	}
	defer recoverImport(&err)

	pdf := newCanvas()
	for i, src := range inputs {
		if err := appendPages(pdf, src); err != nil {
			return nil, fmt.Errorf("pageops: merge input %d: %w", i+1, err)
		}
	}
	return output(pdf)
}

// MergeFiles merges the named PDF files into outputPath.
func MergeFiles(outputPath string, inputPaths ...string) error {
	if len(inputPaths) == 0 {
		return errors.New("pageops: no input files")
	}
	inputs := make([][]byte, len(inputPaths))
	for i, path := range inputPaths {
		data, err := readInput(path)
		if err != nil {
			return err
		}
		inputs[i] = data
	}
	out, err := Merge(inputs...)
	if err != nil {
		return err
	}
	return writeOutput(outputPath, out)
}

// appendPages imports every page of src onto fresh pages of pdf. Each
// input gets its own importer so template objects of separate sources
// never collide.
func appendPages(pdf *gofpdf.Fpdf, src []byte) error {
	n, err := sourcePages(src)
	if err != nil {
		return err
	}
	s := newSource(src)
	for i := 1; i <= n; i++ {
		tpl, w, h := s.importTemplate(pdf, i)
		s.layDown(pdf, tpl, w, h)
	}
	return nil
}
