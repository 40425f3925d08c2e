package pageops_test

import (
	"bytes"
	"fmt"

	gofpdf "github.com/jung-kurt/gofpdf"

	"github.com/SonoItalianoVero/refactored-lamp/pageops"
	"github.com/SonoItalianoVero/refactored-lamp/reader"
)

func examplePDF(labels ...string) []byte {
	pdf := gofpdf.New("P", "pt", "A4", "")
	pdf.SetFont("Helvetica", "", 14)
	for _, label := range labels {
		pdf.AddPage()
		pdf.Text(72, 100, label)
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// ExampleMerge concatenates two documents and reads the result back.
func ExampleMerge() {
	contract := examplePDF("Contract page 1", "Contract page 2")
	annex := examplePDF("Annex A")

	out, err := pageops.Merge(contract, annex)
	if err != nil {
		panic(err)
	}

	doc, err := reader.ReadBytes(out)
	if err != nil {
		panic(err)
	}
	fmt.Println("pages:", doc.NumPages())
	// Output:
	// pages: 3
}

// ExampleExtractPages pulls a subset of pages into a new document.
func ExampleExtractPages() {
	src := examplePDF("one", "two", "three", "four")

	out, err := pageops.ExtractPages(src, 2, 4)
	if err != nil {
		panic(err)
	}

	doc, err := reader.ReadBytes(out)
	if err != nil {
		panic(err)
	}
	for n, page := range doc.Pages() {
		text, err := page.ExtractText()
		if err != nil {
			panic(err)
		}
		fmt.Printf("page %d: %s\n", n, text)
	}
	// Output:
	// page 1: two
	// page 2: four
}

// ExampleStampText marks every page of a document as a draft.
func ExampleStampText() {
	src := examplePDF("Quarterly report")

	out, err := pageops.StampText(src, pageops.Stamp{Text: "DRAFT", Opacity: 0.2})
	if err != nil {
		panic(err)
	}

	doc, err := reader.ReadBytes(out)
	if err != nil {
		panic(err)
	}
	fmt.Println("pages:", doc.NumPages())
	// Output:
	// pages: 1
}
