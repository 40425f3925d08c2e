// Package reader provides functionality for reading and parsing existing PDF files.
//
// It implements a PDF parser that can extract the object structure, page tree,
// positioned text layout, and form data from documents conforming to the PDF
// specification (ISO 32000).
package reader

import (
	"fmt"
)

// Object is the interface satisfied by all PDF object types.
// The unexported method prevents external types from implementing it.
type Object interface {
	pdfObject()
	String() string
}

// Null represents the PDF null object.
type Null struct{}

func (Null) pdfObject()     {}
func (Null) String() string { return "null" }

// Boolean represents a PDF boolean.
type Boolean bool

func (Boolean) pdfObject() {}
func (b Boolean) String() string {
	if b {
		return "true"
	}
	return "false"
}

// Integer represents a PDF integer number.
type Integer int64

func (Integer) pdfObject()       {}
func (i Integer) String() string { return fmt.Sprintf("%d", int64(i)) }

// Real represents a PDF real number.
type Real float64

func (Real) pdfObject()       {}
func (r Real) String() string { return fmt.Sprintf("%g", float64(r)) }

// Name represents a PDF name object, stored without the leading slash.
type Name string

func (Name) pdfObject()       {}
func (n Name) String() string { return "/" + string(n) }

// String represents a PDF string object. Value holds the raw bytes after
// escape processing and decryption; IsHex records which written form the
// file used.
type String struct {
	Value []byte
	IsHex bool
}

func (String) pdfObject() {}
func (s String) String() string {
	if s.IsHex {
		return fmt.Sprintf("<%x>", s.Value)
	}
	return fmt.Sprintf("(%s)", s.Value)
}

// Array represents a PDF array.
type Array []Object

func (Array) pdfObject()       {}
func (a Array) String() string { return fmt.Sprintf("[array len=%d]", len(a)) }

// Dict represents a PDF dictionary keyed by name.
type Dict map[Name]Object

func (Dict) pdfObject()       {}
func (d Dict) String() string { return fmt.Sprintf("<<dict len=%d>>", len(d)) }

// GetName returns the named entry as a Name, or "" if absent or of another type.
func (d Dict) GetName(key Name) Name {
	if v, ok := d[key]; ok {
		if n, ok := v.(Name); ok {
			return n
		}
	}
	return ""
}

// GetInt returns the named entry as an integer. Real values are truncated,
// matching how some writers emit integral reals.
func (d Dict) GetInt(key Name) (int64, bool) {
	if v, ok := d[key]; ok {
		switch n := v.(type) {
		case Integer:
			return int64(n), true
		case Real:
			return int64(n), true
		}
	}
	return 0, false
}

// GetReal returns the named entry as a float, accepting both number types.
func (d Dict) GetReal(key Name) (float64, bool) {
	if v, ok := d[key]; ok {
		return toFloat(v)
	}
	return 0, false
}

// GetDict returns the named entry as a Dict, or nil.
func (d Dict) GetDict(key Name) Dict {
	if v, ok := d[key]; ok {
		if sub, ok := v.(Dict); ok {
			return sub
		}
	}
	return nil
}

// GetArray returns the named entry as an Array, or nil.
func (d Dict) GetArray(key Name) Array {
	if v, ok := d[key]; ok {
		if arr, ok := v.(Array); ok {
			return arr
		}
	}
	return nil
}

// Stream represents a PDF stream: its dictionary plus the raw, still
// encoded stream bytes.
type Stream struct {
	Dict Dict
	Data []byte
}

func (Stream) pdfObject()       {}
func (s Stream) String() string { return fmt.Sprintf("<<stream len=%d>>", len(s.Data)) }

// Reference represents an indirect object reference (the "N G R" form).
type Reference struct {
	Number     int
	Generation int
}

func (Reference) pdfObject() {}
func (r Reference) String() string {
	return fmt.Sprintf("%d %d R", r.Number, r.Generation)
}

// IndirectObject pairs a reference with the object it designates.
type IndirectObject struct {
	Reference Reference
	Value     Object
}

func (IndirectObject) pdfObject() {}
func (o IndirectObject) String() string {
	return fmt.Sprintf("%s obj %s", o.Reference, o.Value)
}

// toFloat converts either PDF number type to a float64.
func toFloat(obj Object) (float64, bool) {
	switch n := obj.(type) {
	case Integer:
		return float64(n), true
	case Real:
		return float64(n), true
	}
	return 0, false
}
