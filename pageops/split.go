package pageops

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ExtractPages returns a new document holding the given 1-based pages of
// src, in the order requested. A page may appear more than once.
func ExtractPages(src []byte, pages ...int) (out []byte, err error) {
	if len(pages) == 0 {
		return nil, errors.New("pageops: no pages specified")
	}
	n, err := sourcePages(src)
	if err != nil {
		return nil, fmt.Errorf("pageops: extract: %w", err)
	}
	for _, p := range pages {
		if p < 1 || p > n {
			return nil, fmt.Errorf("pageops: extract: page %d out of range [1, %d]", p, n)
		}
	}
	defer recoverImport(&err)

	pdf := newCanvas()
	s := newSource(src)
	for _, p := range pages {
		tpl, w, h := s.importTemplate(pdf, p)
		s.layDown(pdf, tpl, w, h)
	}
	return output(pdf)
}

// ExtractPageRange returns pages start through end inclusive (1-based).
func ExtractPageRange(src []byte, start, end int) ([]byte, error) {
	if start < 1 || end < start {
		return nil, fmt.Errorf("pageops: invalid page range [%d, %d]", start, end)
	}
	pages := make([]int, 0, end-start+1)
	for p := start; p <= end; p++ {
		pages = append(pages, p)
	}
	return ExtractPages(src, pages...)
}

// ExtractPagesToFile extracts pages from the file at inputPath and
// writes them to outputPath.
func ExtractPagesToFile(inputPath, outputPath string, pages ...int) error {
	src, err := readInput(inputPath)
	if err != nil {
		return err
	}
	out, err := ExtractPages(src, pages...)
	if err != nil {
		return err
	}
	return writeOutput(outputPath, out)
}

// Split returns one single-page document per page of src, in page order.
func Split(src []byte) ([][]byte, error) {
	n, err := sourcePages(src)
	if err != nil {
		return nil, fmt.Errorf("pageops: split: %w", err)
	}
	docs := make([][]byte, 0, n)
	for p := 1; p <= n; p++ {
		doc, err := ExtractPages(src, p)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// SplitToFiles splits the file at inputPath into individual pages in
// outputDir, named page_001.pdf, page_002.pdf, and so on.
func SplitToFiles(inputPath, outputDir string) error {
	info, err := os.Stat(outputDir)
	if err != nil {
		return fmt.Errorf("pageops: output directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("pageops: %s is not a directory", outputDir)
	}

	src, err := readInput(inputPath)
	if err != nil {
		return err
	}
	docs, err := Split(src)
	if err != nil {
		return err
	}
	for i, doc := range docs {
		path := filepath.Join(outputDir, fmt.Sprintf("page_%03d.pdf", i+1))
		if err := writeOutput(path, doc); err != nil {
			return err
		}
	}
	return nil
}
