package form

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"

	"github.com/SonoItalianoVero/refactored-lamp/reader"
)

// FillBytes fills form field values in a finished document and returns the
// modified bytes. Field names are matched case-sensitively against the
// fully qualified names reported by the reader.
//
// Values are written by byte-level /V patching; the cross-reference table
// is rebuilt afterwards to account for shifted offsets.
func FillBytes(data []byte, values map[string]string) ([]byte, error) {
	if len(values) == 0 {
		out := make([]byte, len(data))
		copy(out, data)
		return out, nil
	}

	doc, err := reader.ReadBytes(data)
	if err != nil {
		return nil, fmt.Errorf("form: parsing PDF: %w", err)
	}
	if doc.IsEncrypted() {
		return nil, fmt.Errorf("form: cannot fill an encrypted document")
	}

	fields, err := doc.FormFields()
	if err != nil {
		return nil, fmt.Errorf("form: reading form fields: %w", err)
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("form: no form fields found in PDF")
	}

	allFields := flattenFields(fields)

	fieldMap := make(map[string]*reader.FormField)
	for _, f := range allFields {
		fieldMap[f.FullName] = f
	}
	for name := range values {
		if _, ok := fieldMap[name]; !ok {
			return nil, fmt.Errorf("form: field %q not found in PDF", name)
		}
	}

	modified := make([]byte, len(data))
	copy(modified, data)

	for name, value := range values {
		modified = setFieldValue(modified, fieldMap[name], value)
	}

	return rebuildXref(modified), nil
}

// Fill reads a PDF from input, fills form fields with the provided values,
// and writes the result to output.
func Fill(input io.Reader, output io.Writer, values map[string]string) error {
	data, err := io.ReadAll(input)
	if err != nil {
		return fmt.Errorf("form: reading input: %w", err)
	}
	out, err := FillBytes(data, values)
	if err != nil {
		return err
	}
	_, err = output.Write(out)
	return err
}

// FillFile reads a PDF from inputPath, fills form fields, and writes to outputPath.
func FillFile(inputPath, outputPath string, values map[string]string) error {
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

	return Fill(input, out, values)
}

// flattenFields returns a flat list of all form fields, recursing into kids.
func flattenFields(fields []*reader.FormField) []*reader.FormField {
	var result []*reader.FormField
	for _, f := range fields {
		result = append(result, f)
		if len(f.Kids) > 0 {
			result = append(result, flattenFields(f.Kids)...)
		}
	}
	return result
}

// setFieldValue modifies the raw PDF bytes to set a field's /V entry.
// Updates all occurrences (field dicts can be duplicated across /Annots
// and /Fields). May change total data length; caller must rebuild xref
// after.
func setFieldValue(data []byte, field *reader.FormField, value string) []byte {
	escapedName := escapePDFString(field.Name)
	pattern := []byte(fmt.Sprintf("/T (%s)", escapedName))
	altPattern := []byte(fmt.Sprintf("/T(%s)", escapedName))

	// Process up to 10 occurrences
	for pass := 0; pass < 10; pass++ {
		idx := bytes.Index(data, pattern)
		if idx < 0 {
			idx = bytes.Index(data, altPattern)
		}
		if idx < 0 {
			break
		}

		dictStart := findDictStart(data, idx)
		dictEnd := findDictEnd(data, idx)
		if dictStart < 0 || dictEnd < 0 {
			break
		}

		fieldDict := make([]byte, dictEnd+2-dictStart)
		copy(fieldDict, data[dictStart:dictEnd+2])

		var newValueStr string
		switch field.Type {
		case "Btn":
			if value == "true" || value == "Yes" || value == "on" {
				newValueStr = "/V /Yes /AS /Yes"
			} else {
				newValueStr = "/V /Off /AS /Off"
			}
		default:
			newValueStr = fmt.Sprintf("/V (%s)", escapePDFString(value))
		}

		var newDict []byte
		replaced := false

		if loc := regexp.MustCompile(`/V\s*\([^)]*\)`).FindIndex(fieldDict); loc != nil {
			newDict = make([]byte, 0, len(fieldDict))
			newDict = append(newDict, fieldDict[:loc[0]]...)
			newDict = append(newDict, []byte(newValueStr)...)
			newDict = append(newDict, fieldDict[loc[1]:]...)
			replaced = true
		}
		if !replaced {
			if loc := regexp.MustCompile(`/V\s+/[A-Za-z]+(\s+/AS\s+/[A-Za-z]+)?`).FindIndex(fieldDict); loc != nil {
				newDict = make([]byte, 0, len(fieldDict))
				newDict = append(newDict, fieldDict[:loc[0]]...)
				newDict = append(newDict, []byte(newValueStr)...)
				newDict = append(newDict, fieldDict[loc[1]:]...)
				replaced = true
			}
		}
		if !replaced {
			newDict = make([]byte, 0, len(fieldDict)+len(newValueStr)+1)
			newDict = append(newDict, fieldDict[:len(fieldDict)-2]...)
			newDict = append(newDict, ' ')
			newDict = append(newDict, []byte(newValueStr)...)
			newDict = append(newDict, '>', '>')
		}

		if bytes.Equal(fieldDict, newDict) {
			break
		}

		result := make([]byte, 0, len(data)-len(fieldDict)+len(newDict))
		result = append(result, data[:dictStart]...)
		result = append(result, newDict...)
		result = append(result, data[dictEnd+2:]...)
		data = result
	}

	return data
}

// objMarker matches an indirect object header at the start of a line.
var objMarker = regexp.MustCompile(`(?m)^(\d+)\s+(\d+)\s+obj\b`)

// maxObjectNumber returns the highest object number defined in the body.
func maxObjectNumber(data []byte) int {
	maxObj := 0
	for _, m := range objMarker.FindAllSubmatchIndex(data, -1) {
		if num, err := strconv.Atoi(string(data[m[2]:m[3]])); err == nil && num > maxObj {
			maxObj = num
		}
	}
	return maxObj
}

var trailerSizePattern = regexp.MustCompile(`/Size\s+\d+`)

// rebuildXref scans the PDF body for object definitions and rebuilds the
// xref table with correct offsets. This handles byte-level modifications
// that shift object positions. The trailer's /Size is updated to match.
func rebuildXref(data []byte) []byte {
	matches := objMarker.FindAllSubmatchIndex(data, -1)
	if len(matches) == 0 {
		return data
	}

	type objInfo struct {
		num, gen, offset int
	}
	var objects []objInfo
	maxObj := 0

	for _, m := range matches {
		num, _ := strconv.Atoi(string(data[m[2]:m[3]]))
		gen, _ := strconv.Atoi(string(data[m[4]:m[5]]))
		objects = append(objects, objInfo{num: num, gen: gen, offset: m[0]})
		if num > maxObj {
			maxObj = num
		}
	}

	// Find old xref table position
	xrefIdx := bytes.LastIndex(data, []byte("\nxref\n"))
	if xrefIdx < 0 {
		xrefIdx = bytes.Index(data, []byte("xref\n"))
		if xrefIdx > 0 {
			xrefIdx-- // include preceding newline for body slice
		}
	}
	if xrefIdx < 0 {
		return data
	}

	// Extract trailer dict
	trailerIdx := bytes.Index(data[xrefIdx:], []byte("trailer"))
	if trailerIdx < 0 {
		return data
	}
	trailerAbsIdx := xrefIdx + trailerIdx

	startxrefIdx := bytes.Index(data[trailerAbsIdx:], []byte("startxref"))
	if startxrefIdx < 0 {
		return data
	}
	trailerDict := bytes.TrimSpace(data[trailerAbsIdx+7 : trailerAbsIdx+startxrefIdx])
	trailerDict = trailerSizePattern.ReplaceAll(trailerDict, []byte(fmt.Sprintf("/Size %d", maxObj+1)))

	// Body = everything up to and including the newline before "xref"
	body := data[:xrefIdx+1]

	// Build new xref
	var xref bytes.Buffer
	xref.WriteString("xref\n")
	xref.WriteString(fmt.Sprintf("0 %d\n", maxObj+1))
	xref.WriteString("0000000000 65535 f \n")

	offsets := make(map[int]objInfo)
	for _, obj := range objects {
		offsets[obj.num] = obj
	}

	for i := 1; i <= maxObj; i++ {
		if obj, ok := offsets[i]; ok {
			xref.WriteString(fmt.Sprintf("%010d %05d n \n", obj.offset, obj.gen))
		} else {
			xref.WriteString("0000000000 00000 f \n")
		}
	}

	// Calculate new xref offset
	newXrefOffset := len(body)

	// Assemble result
	var result bytes.Buffer
	result.Write(body)
	result.Write(xref.Bytes())
	result.WriteString("trailer\n")
	result.Write(trailerDict)
	result.WriteString(fmt.Sprintf("\nstartxref\n%d\n%%%%EOF\n", newXrefOffset))

	return result.Bytes()
}

// findDictStart searches backward from pos for the nearest enclosing "<<".
func findDictStart(data []byte, pos int) int {
	depth := 0
	for i := pos - 1; i > 0; i-- {
		if i+1 < len(data) && data[i] == '>' && data[i+1] == '>' {
			depth++
		}
		if data[i] == '<' && i > 0 && data[i-1] == '<' {
			if depth == 0 {
				return i - 1
			}
			depth--
		}
	}
	return -1
}

// findDictEnd searches forward from pos, which must lie inside the
// dictionary body, for the matching ">>". Nested dictionaries are skipped.
func findDictEnd(data []byte, pos int) int {
	depth := 1
	for i := pos; i < len(data)-1; i++ {
		switch {
		case data[i] == '<' && data[i+1] == '<':
			depth++
			i++
		case data[i] == '>' && data[i+1] == '>':
			depth--
			if depth == 0 {
				return i
			}
			i++
		}
	}
	return -1
}
