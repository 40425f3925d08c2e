package form

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"regexp"

	"github.com/SonoItalianoVero/refactored-lamp/reader"
)

// FlattenBytes converts all form field widgets in a document into static
// page content, removing the interactive AcroForm structure. The result
// looks the same but fields are no longer editable.
//
// Interactive markers are replaced with spaces of the same byte length so
// object offsets and the xref table stay valid.
func FlattenBytes(data []byte) ([]byte, error) {
	doc, err := reader.ReadBytes(data)
	if err != nil {
		return nil, fmt.Errorf("form: parsing PDF: %w", err)
	}
	if doc.IsEncrypted() {
		return nil, fmt.Errorf("form: cannot flatten an encrypted document")
	}

	fields, err := doc.FormFields()
	if err != nil {
		return nil, fmt.Errorf("form: reading form fields: %w", err)
	}

	modified := make([]byte, len(data))
	copy(modified, data)

	if len(fields) == 0 {
		return modified, nil
	}

	blankAcroForm(modified)

	for _, field := range flattenFields(fields) {
		blankFieldMarkers(modified, field)
	}

	return modified, nil
}

// Flatten reads a PDF with form fields from input and writes the flattened
// result to output.
func Flatten(input io.Reader, output io.Writer) error {
	data, err := io.ReadAll(input)
	if err != nil {
		return fmt.Errorf("form: reading input: %w", err)
	}
	out, err := FlattenBytes(data)
	if err != nil {
		return err
	}
	_, err = output.Write(out)
	return err
}

// FlattenFile reads a PDF from inputPath, flattens form fields, and writes to outputPath.
func FlattenFile(inputPath, outputPath string) error {
	input, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("form: opening %s: %w", inputPath, err)
	}
	defer input.Close()

	out, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("form: creating %s: %w", outputPath, err)
	}
	defer out.Close()

	return Flatten(input, out)
}

// blankAcroForm replaces the /AcroForm entry in the catalog with spaces
// (same byte length) to preserve xref offsets.
func blankAcroForm(data []byte) {
	acroStart := bytes.Index(data, []byte("/AcroForm"))
	if acroStart < 0 {
		return
	}

	// Find what follows /AcroForm
	pos := acroStart + len("/AcroForm")
	for pos < len(data) && (data[pos] == ' ' || data[pos] == '\n' || data[pos] == '\r') {
		pos++
	}

	var acroEnd int
	if pos < len(data)-1 && data[pos] == '<' && data[pos+1] == '<' {
		// Inline dict: find matching >>
		depth := 1
		i := pos + 2
		for i < len(data)-1 && depth > 0 {
			if data[i] == '<' && data[i+1] == '<' {
				depth++
				i += 2
				continue
			}
			if data[i] == '>' && data[i+1] == '>' {
				depth--
				if depth == 0 {
					acroEnd = i + 2
					break
				}
				i += 2
				continue
			}
			i++
		}
	} else {
		// Reference: /AcroForm N N R
		re := regexp.MustCompile(`\d+\s+\d+\s+R`)
		remaining := data[pos:]
		if loc := re.FindIndex(remaining); loc != nil && loc[0] == 0 {
			acroEnd = pos + loc[1]
		}
	}

	if acroEnd <= acroStart {
		return
	}

	// Replace with spaces (preserves byte offsets)
	for i := acroStart; i < acroEnd; i++ {
		data[i] = ' '
	}
}

// blankFieldMarkers replaces interactive field markers (/FT, /Subtype /Widget)
// with spaces to de-interactivize the field while preserving byte offsets.
func blankFieldMarkers(data []byte, field *reader.FormField) {
	escapedName := escapePDFString(field.Name)
	patterns := []string{
		fmt.Sprintf("/T (%s)", escapedName),
		fmt.Sprintf("/T(%s)", escapedName),
	}

	for _, pattern := range patterns {
		idx := bytes.Index(data, []byte(pattern))
		if idx < 0 {
			continue
		}

		dictStart := findDictStart(data, idx)
		dictEnd := findDictEnd(data, idx)
		if dictStart < 0 || dictEnd < 0 {
			continue
		}

		fieldDict := data[dictStart : dictEnd+2]

		blankPattern(fieldDict, `/FT\s+/[A-Za-z]+`)
		blankPattern(fieldDict, `/Subtype\s+/Widget`)
		blankPattern(fieldDict, `/DA\s*\([^)]*\)`)
		blankPattern(fieldDict, `/NeedAppearances\s+(true|false)`)

		break
	}
}

// blankPattern replaces all matches of a regex pattern in data with spaces.
func blankPattern(data []byte, pattern string) {
	re := regexp.MustCompile(pattern)
	for _, loc := range re.FindAllIndex(data, -1) {
		for i := loc[0]; i < loc[1]; i++ {
			data[i] = ' '
		}
	}
}
