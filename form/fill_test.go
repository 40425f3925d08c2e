package form_test

import (
	"bytes"
	"testing"

	"github.com/SonoItalianoVero/refactored-lamp/form"
	"github.com/SonoItalianoVero/refactored-lamp/reader"
)

// formPDF builds a document carrying a text form ready to be filled.
func formPDF(t *testing.T) []byte {
	t.Helper()
	b := form.NewBuilder()
	b.AddTextField("name", 1, 150, 700, 220, 18)
	b.AddTextField("email", 1, 150, 660, 220, 18)
	b.AddDropdown("country", 1, 150, 620, 160, 18, []string{"USA", "Canada", "Mexico"})
	b.AddCheckbox("agree", 1, 150, 580, 14)

	out, err := b.Apply(basePDF(t, "Fill test form"))
	if err != nil {
		t.Fatalf("building form: %v", err)
	}
	return out
}

func TestFillTextField(t *testing.T) {
	filled, err := form.FillBytes(formPDF(t), map[string]string{
		"name":  "John Doe",
		"email": "john@example.com",
	})
	if err != nil {
		t.Fatalf("FillBytes: %v", err)
	}

	doc, err := reader.ReadBytes(filled)
	if err != nil {
		t.Fatalf("reading filled PDF: %v", err)
	}
	if doc.NumPages() != 1 {
		t.Errorf("expected 1 page, got %d", doc.NumPages())
	}

	name, err := doc.FormField("name")
	if err != nil || name == nil {
		t.Fatalf("name field: %v", err)
	}
	if name.Value != "John Doe" {
		t.Errorf("name value = %q, want John Doe", name.Value)
	}
	email, err := doc.FormField("email")
	if err != nil || email == nil {
		t.Fatalf("email field: %v", err)
	}
	if email.Value != "john@example.com" {
		t.Errorf("email value = %q, want john@example.com", email.Value)
	}
}

func TestFillCheckbox(t *testing.T) {
	filled, err := form.FillBytes(formPDF(t), map[string]string{"agree": "Yes"})
	if err != nil {
		t.Fatalf("FillBytes: %v", err)
	}

	doc, err := reader.ReadBytes(filled)
	if err != nil {
		t.Fatalf("reading filled PDF: %v", err)
	}
	f, err := doc.FormField("agree")
	if err != nil || f == nil {
		t.Fatalf("agree field: %v", err)
	}
	if f.Value != "Yes" {
		t.Errorf("agree value = %q, want Yes", f.Value)
	}
}

func TestFillNonExistentField(t *testing.T) {
	if _, err := form.FillBytes(formPDF(t), map[string]string{"nonexistent": "value"}); err == nil {
		t.Error("expected error when filling non-existent field")
	}
}

func TestFillEmptyValues(t *testing.T) {
	data := formPDF(t)
	out, err := form.FillBytes(data, map[string]string{})
	if err != nil {
		t.Fatalf("FillBytes with empty values: %v", err)
	}
	if !bytes.Equal(out, data) {
		t.Error("empty fill should return the document unchanged")
	}
}

func TestFillNoFormPDF(t *testing.T) {
	data := basePDF(t, "No forms here")
	if _, err := form.FillBytes(data, map[string]string{"field": "value"}); err == nil {
		t.Error("expected error when filling a document without a form")
	}
}

func TestFillReaderWriter(t *testing.T) {
	var out bytes.Buffer
	err := form.Fill(bytes.NewReader(formPDF(t)), &out, map[string]string{"name": "Ada"})
	if err != nil {
		t.Fatalf("Fill: %v", err)
	}
	doc, err := reader.ReadBytes(out.Bytes())
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	f, err := doc.FormField("name")
	if err != nil || f == nil {
		t.Fatalf("name field: %v", err)
	}
	if f.Value != "Ada" {
		t.Errorf("name value = %q, want Ada", f.Value)
	}
}

func TestFlattenForm(t *testing.T) {
	data := formPDF(t)
	flattened, err := form.FlattenBytes(data)
	if err != nil {
		t.Fatalf("FlattenBytes: %v", err)
	}

	if bytes.Contains(flattened, []byte("/AcroForm")) {
		t.Error("flattened PDF should not contain /AcroForm")
	}
	if bytes.Contains(flattened, []byte("/FT /Tx")) {
		t.Error("flattened PDF should not contain /FT /Tx")
	}

	doc, err := reader.ReadBytes(flattened)
	if err != nil {
		t.Fatalf("reading flattened PDF: %v", err)
	}
	if doc.NumPages() != 1 {
		t.Errorf("expected 1 page, got %d", doc.NumPages())
	}
	fields, err := doc.FormFields()
	if err != nil {
		t.Fatalf("FormFields: %v", err)
	}
	if len(fields) != 0 {
		t.Errorf("expected no fields after flatten, got %d", len(fields))
	}

	// Space blanking keeps every object at its original offset.
	if len(flattened) != len(data) {
		t.Errorf("flatten changed length: %d vs %d", len(flattened), len(data))
	}
}

func TestFlattenNoForm(t *testing.T) {
	data := basePDF(t, "No forms")
	out, err := form.FlattenBytes(data)
	if err != nil {
		t.Fatalf("FlattenBytes: %v", err)
	}
	if !bytes.Equal(out, data) {
		t.Error("flattening a form-less document should be a no-op")
	}
}

func TestFillThenFlatten(t *testing.T) {
	filled, err := form.FillBytes(formPDF(t), map[string]string{
		"name":    "Jane Smith",
		"email":   "jane@example.com",
		"country": "Canada",
	})
	if err != nil {
		t.Fatalf("FillBytes: %v", err)
	}

	flattened, err := form.FlattenBytes(filled)
	if err != nil {
		t.Fatalf("FlattenBytes: %v", err)
	}

	// Values stay in the document as static entries.
	if !bytes.Contains(flattened, []byte("Jane Smith")) {
		t.Error("expected flattened PDF to retain the filled value")
	}
	if bytes.Contains(flattened, []byte("/AcroForm")) {
		t.Error("flattened PDF should not contain /AcroForm")
	}

	doc, err := reader.ReadBytes(flattened)
	if err != nil {
		t.Fatalf("reading result: %v", err)
	}
	if doc.NumPages() != 1 {
		t.Errorf("expected 1 page, got %d", doc.NumPages())
	}
}
