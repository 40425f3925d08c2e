// Package form creates and fills interactive PDF form fields (AcroForm)
// in finished documents.
//
// It supports text fields, checkboxes, dropdowns, and buttons. Fields are
// added to an existing document by appending widget annotation objects and
// rebuilding the cross-reference table, so the package works with any
// generator that emits a classic xref table. Existing forms can be filled
// by byte-level /V patching and flattened to static content.
package form

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/SonoItalianoVero/refactored-lamp/reader"
)

// FieldType specifies the type of form field.
type FieldType int

const (
	TypeText     FieldType = iota // single or multi-line text input
	TypeCheckbox                  // checkbox (on/off)
	TypeRadio                     // radio button group
	TypeDropdown                  // dropdown/combo box
	TypeButton                    // push button
)

// Field defines a form field to be added to a PDF page. Coordinates are
// in PDF points with the origin at the bottom-left of the page.
type Field struct {
	Name      string    // field name (must be unique within the form)
	Type      FieldType // field type
	Page      int       // page number (1-based)
	X, Y      float64   // lower-left corner in points
	W, H      float64   // width and height in points
	Value     string    // default value
	Options   []string  // options for dropdown/radio fields
	FontSize  float64   // font size for text display (default: 12)
	MaxLen    int       // maximum text length (0 = unlimited)
	ReadOnly  bool      // whether the field is read-only
	Required  bool      // whether the field is required
	MultiLine bool      // for text fields: allow multi-line input
}

// Builder collects form fields and injects them into a finished document.
type Builder struct {
	fields []Field
}

// NewBuilder creates an empty form builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// AddTextField adds a text input field to the form.
func (b *Builder) AddTextField(name string, page int, x, y, w, h float64) *Field {
	f := Field{
		Name:     name,
		Type:     TypeText,
		Page:     page,
		X:        x,
		Y:        y,
		W:        w,
		H:        h,
		FontSize: 12,
	}
	b.fields = append(b.fields, f)
	return &b.fields[len(b.fields)-1]
}

// AddCheckbox adds a checkbox field to the form.
func (b *Builder) AddCheckbox(name string, page int, x, y, size float64) *Field {
	f := Field{
		Name: name,
		Type: TypeCheckbox,
		Page: page,
		X:    x,
		Y:    y,
		W:    size,
		H:    size,
	}
	b.fields = append(b.fields, f)
	return &b.fields[len(b.fields)-1]
}

// AddDropdown adds a dropdown/combo box field to the form.
func (b *Builder) AddDropdown(name string, page int, x, y, w, h float64, options []string) *Field {
	f := Field{
		Name:     name,
		Type:     TypeDropdown,
		Page:     page,
		X:        x,
		Y:        y,
		W:        w,
		H:        h,
		Options:  options,
		FontSize: 12,
	}
	b.fields = append(b.fields, f)
	return &b.fields[len(b.fields)-1]
}

// AddButton adds a push button field to the form.
func (b *Builder) AddButton(name string, page int, x, y, w, h float64, label string) *Field {
	f := Field{
		Name:  name,
		Type:  TypeButton,
		Page:  page,
		X:     x,
		Y:     y,
		W:     w,
		H:     h,
		Value: label,
	}
	b.fields = append(b.fields, f)
	return &b.fields[len(b.fields)-1]
}

// SetValue sets the default value for a field. Returns the field for chaining.
func (f *Field) SetValue(v string) *Field {
	f.Value = v
	return f
}

// SetRequired marks the field as required.
func (f *Field) SetRequired(required bool) *Field {
	f.Required = required
	return f
}

// SetReadOnly marks the field as read-only.
func (f *Field) SetReadOnly(readOnly bool) *Field {
	f.ReadOnly = readOnly
	return f
}

// SetMaxLen sets the maximum input length for text fields.
func (f *Field) SetMaxLen(n int) *Field {
	f.MaxLen = n
	return f
}

// SetMultiLine enables multi-line input for text fields.
func (f *Field) SetMultiLine(multiLine bool) *Field {
	f.MultiLine = multiLine
	return f
}

// Apply injects the collected fields into a finished document and returns
// the modified bytes. Each field becomes one indirect object serving as
// both the field dictionary and its widget annotation, referenced from the
// page's /Annots array and a new /AcroForm catalog entry. The input must
// use a classic cross-reference table; it is rebuilt after insertion.
func (b *Builder) Apply(data []byte) ([]byte, error) {
	if len(b.fields) == 0 {
		out := make([]byte, len(data))
		copy(out, data)
		return out, nil
	}

	doc, err := reader.ReadBytes(data)
	if err != nil {
		return nil, fmt.Errorf("form: parsing PDF: %w", err)
	}
	if doc.IsEncrypted() {
		return nil, fmt.Errorf("form: cannot add fields to an encrypted document")
	}

	catalog, err := doc.Catalog()
	if err != nil {
		return nil, fmt.Errorf("form: reading catalog: %w", err)
	}
	if _, ok := catalog["AcroForm"]; ok {
		return nil, fmt.Errorf("form: document already contains a form")
	}

	seen := make(map[string]bool)
	for _, f := range b.fields {
		if f.Name == "" {
			return nil, fmt.Errorf("form: field with empty name")
		}
		if seen[f.Name] {
			return nil, fmt.Errorf("form: duplicate field name %q", f.Name)
		}
		seen[f.Name] = true
		if f.Page < 1 || f.Page > doc.NumPages() {
			return nil, fmt.Errorf("form: field %q placed on page %d of a %d-page document",
				f.Name, f.Page, doc.NumPages())
		}
	}

	next := maxObjectNumber(data) + 1
	if next <= 1 {
		return nil, fmt.Errorf("form: no indirect objects found")
	}

	var objs bytes.Buffer
	var fieldRefs []string
	perPage := make(map[int][]string)
	for _, f := range b.fields {
		num := next
		next++
		fmt.Fprintf(&objs, "%d 0 obj\n%s\nendobj\n", num, widgetDict(f))
		ref := fmt.Sprintf("%d 0 R", num)
		fieldRefs = append(fieldRefs, ref)
		perPage[f.Page] = append(perPage[f.Page], ref)
	}

	acroNum := next
	fmt.Fprintf(&objs, "%d 0 obj\n<< /Fields [%s] /DR << /Font << /Helv << /Type /Font /Subtype /Type1 /BaseFont /Helvetica >> >> >> /DA (/Helv 0 Tf 0 g) /NeedAppearances true >>\nendobj\n",
		acroNum, strings.Join(fieldRefs, " "))

	out, err := insertBeforeXref(data, objs.Bytes())
	if err != nil {
		return nil, err
	}

	for page := 1; page <= doc.NumPages(); page++ {
		refs := perPage[page]
		if len(refs) == 0 {
			continue
		}
		p, err := doc.Page(page)
		if err != nil {
			return nil, fmt.Errorf("form: page %d: %w", page, err)
		}
		out, err = addPageAnnotations(out, p.Ref, refs)
		if err != nil {
			return nil, err
		}
	}

	out, err = addCatalogFormRef(out, acroNum)
	if err != nil {
		return nil, err
	}
	return rebuildXref(out), nil
}

// widgetDict serializes the merged field/widget dictionary for a field.
func widgetDict(f Field) string {
	var ff int
	if f.ReadOnly {
		ff |= 1 // Bit 1: ReadOnly
	}
	if f.Required {
		ff |= 2 // Bit 2: Required
	}

	d := fmt.Sprintf("<< /Type /Annot /Subtype /Widget /T (%s) /Rect [%.2f %.2f %.2f %.2f] /F 4",
		escapePDFString(f.Name), f.X, f.Y, f.X+f.W, f.Y+f.H)

	switch f.Type {
	case TypeText:
		d += " /FT /Tx"
		if f.FontSize > 0 {
			d += fmt.Sprintf(" /DA (/Helv %.1f Tf 0 g)", f.FontSize)
		}
		if f.Value != "" {
			d += fmt.Sprintf(" /V (%s)", escapePDFString(f.Value))
		}
		if f.MaxLen > 0 {
			d += fmt.Sprintf(" /MaxLen %d", f.MaxLen)
		}
		if f.MultiLine {
			ff |= 1 << 12 // Bit 13: Multiline
		}

	case TypeCheckbox:
		d += " /FT /Btn"
		if f.Value == "Yes" || f.Value == "true" || f.Value == "on" {
			d += " /V /Yes /AS /Yes"
		} else {
			d += " /V /Off /AS /Off"
		}

	case TypeDropdown:
		d += " /FT /Ch"
		ff |= 1 << 17 // Bit 18: Combo (dropdown)
		if len(f.Options) > 0 {
			opts := make([]string, len(f.Options))
			for i, opt := range f.Options {
				opts[i] = fmt.Sprintf("(%s)", escapePDFString(opt))
			}
			d += fmt.Sprintf(" /Opt [%s]", strings.Join(opts, " "))
		}
		if f.Value != "" {
			d += fmt.Sprintf(" /V (%s)", escapePDFString(f.Value))
		}
		if f.FontSize > 0 {
			d += fmt.Sprintf(" /DA (/Helv %.1f Tf 0 g)", f.FontSize)
		}

	case TypeButton:
		d += " /FT /Btn"
		ff |= 1 << 16 // Bit 17: Pushbutton
		if f.Value != "" {
			d += fmt.Sprintf(" /MK <</CA (%s)>>", escapePDFString(f.Value))
		}
	}

	if ff != 0 {
		d += fmt.Sprintf(" /Ff %d", ff)
	}
	return d + " >>"
}

// insertBeforeXref splices new object definitions into the body, just
// before the final cross-reference table.
func insertBeforeXref(data, objs []byte) ([]byte, error) {
	idx := bytes.LastIndex(data, []byte("\nxref\n"))
	if idx < 0 {
		return nil, fmt.Errorf("form: no cross-reference table found")
	}
	return spliceBytes(data, idx+1, string(objs)), nil
}

var annotsRefPattern = regexp.MustCompile(`/Annots\s+(\d+)\s+(\d+)\s+R\b`)

// addPageAnnotations adds widget references to a page's /Annots array,
// creating the array when the page has none.
func addPageAnnotations(data []byte, ref reader.Reference, refs []string) ([]byte, error) {
	if ref.Number == 0 {
		return nil, fmt.Errorf("form: page has no object reference")
	}
	marker := regexp.MustCompile(fmt.Sprintf(`(?m)^%d\s+%d\s+obj\b`, ref.Number, ref.Generation))
	loc := marker.FindIndex(data)
	if loc == nil {
		return nil, fmt.Errorf("form: page object %d not found", ref.Number)
	}
	open := bytes.Index(data[loc[1]:], []byte("<<"))
	if open < 0 {
		return nil, fmt.Errorf("form: page object %d has no dictionary", ref.Number)
	}
	inside := loc[1] + open + 2
	end := findDictEnd(data, inside)
	if end < 0 {
		return nil, fmt.Errorf("form: page object %d dictionary is unterminated", ref.Number)
	}

	refList := strings.Join(refs, " ")
	dict := data[inside:end]

	// /Annots held in a separate array object
	if m := annotsRefPattern.FindSubmatchIndex(dict); m != nil {
		num, _ := strconv.Atoi(string(dict[m[2]:m[3]]))
		return appendToArrayObject(data, num, refList)
	}

	// inline /Annots array
	if aIdx := bytes.Index(dict, []byte("/Annots")); aIdx >= 0 {
		bOpen := bytes.IndexByte(dict[aIdx:], '[')
		if bOpen < 0 {
			return nil, fmt.Errorf("form: page object %d has a malformed /Annots", ref.Number)
		}
		bClose := bytes.IndexByte(dict[aIdx+bOpen:], ']')
		if bClose < 0 {
			return nil, fmt.Errorf("form: page object %d has a malformed /Annots", ref.Number)
		}
		return spliceBytes(data, inside+aIdx+bOpen+bClose, " "+refList), nil
	}

	return spliceBytes(data, inside, " /Annots ["+refList+"] "), nil
}

// appendToArrayObject appends references to a standalone array object.
func appendToArrayObject(data []byte, num int, refList string) ([]byte, error) {
	marker := regexp.MustCompile(fmt.Sprintf(`(?m)^%d\s+\d+\s+obj\b`, num))
	loc := marker.FindIndex(data)
	if loc == nil {
		return nil, fmt.Errorf("form: annotation array object %d not found", num)
	}
	bOpen := bytes.IndexByte(data[loc[1]:], '[')
	if bOpen < 0 {
		return nil, fmt.Errorf("form: object %d is not an array", num)
	}
	bClose := bytes.IndexByte(data[loc[1]+bOpen:], ']')
	if bClose < 0 {
		return nil, fmt.Errorf("form: object %d is not an array", num)
	}
	return spliceBytes(data, loc[1]+bOpen+bClose, " "+refList), nil
}

var catalogPattern = regexp.MustCompile(`/Type\s*/Catalog`)

// addCatalogFormRef inserts an /AcroForm reference into the document catalog.
func addCatalogFormRef(data []byte, acroNum int) ([]byte, error) {
	loc := catalogPattern.FindIndex(data)
	if loc == nil {
		return nil, fmt.Errorf("form: document catalog not found")
	}
	end := findDictEnd(data, loc[1])
	if end < 0 {
		return nil, fmt.Errorf("form: document catalog is unterminated")
	}
	return spliceBytes(data, end, fmt.Sprintf(" /AcroForm %d 0 R ", acroNum)), nil
}

// spliceBytes inserts s into data at the given offset.
func spliceBytes(data []byte, at int, s string) []byte {
	out := make([]byte, 0, len(data)+len(s))
	out = append(out, data[:at]...)
	out = append(out, s...)
	out = append(out, data[at:]...)
	return out
}

// escapePDFString escapes special characters in a PDF string.
func escapePDFString(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `(`, `\(`)
	s = strings.ReplaceAll(s, `)`, `\)`)
	return s
}
