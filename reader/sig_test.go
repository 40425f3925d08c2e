package reader_test

import (
	"bytes"
	"fmt"
	"testing"
	"time"

	"github.com/SonoItalianoVero/refactored-lamp/reader"
)

// signedPDF builds a document with three signature fields: one fully
// signed, one empty, one signed with minimal metadata. The first field's
// /ByteRange is written with a fixed-width placeholder and patched after
// assembly so it covers the produced file exactly.
func signedPDF(t *testing.T) []byte {
	t.Helper()
	data := rawPDF(t,
		"<< /Type /Catalog /Pages 2 0 R /AcroForm << /Fields [4 0 R 6 0 R 7 0 R] >> >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] >>",
		"<< /FT /Sig /T (ApprovalSig) /V 5 0 R >>",
		"<< /Type /Sig /Filter /Adobe.PPKLite /SubFilter /adbe.pkcs7.detached "+
			"/Name (Jordan Reviewer) /Reason (Approved) /Location (Hamburg) "+
			"/ContactInfo (ops@example.com) /M (D:20240215093000+01'00') "+
			"/ByteRange [0 300 400 5555555] /Contents <AABB> >>",
		"<< /FT /Sig /T (BackupSig) >>",
		"<< /FT /Sig /T (NotarySig) /V 8 0 R >>",
		"<< /Type /Sig /Filter /Adobe.PPKLite /M (D:20240301) "+
			"/ByteRange [0 50 60 70] /Contents <CC> >>",
	)

	placeholder := []byte("/ByteRange [0 300 400 5555555]")
	if !bytes.Contains(data, placeholder) {
		t.Fatal("placeholder byte range not found")
	}
	tail := fmt.Sprintf("/ByteRange [0 300 400 %07d]", len(data)-400)
	return bytes.Replace(data, placeholder, []byte(tail), 1)
}

func TestSignatures(t *testing.T) {
	doc, err := reader.ReadBytes(signedPDF(t))
	if err != nil {
		t.Fatalf("ReadBytes: %v", err)
	}

	sigs, err := doc.Signatures()
	if err != nil {
		t.Fatalf("Signatures: %v", err)
	}
	// BackupSig has no /V and must be skipped.
	if len(sigs) != 2 {
		t.Fatalf("expected 2 signatures, got %d", len(sigs))
	}

	s := sigs[0]
	if s.FieldName != "ApprovalSig" {
		t.Errorf("field name = %q, want ApprovalSig", s.FieldName)
	}
	if s.Filter != "Adobe.PPKLite" {
		t.Errorf("filter = %q, want Adobe.PPKLite", s.Filter)
	}
	if s.SubFilter != "adbe.pkcs7.detached" {
		t.Errorf("subfilter = %q, want adbe.pkcs7.detached", s.SubFilter)
	}
	if s.Name != "Jordan Reviewer" || s.Reason != "Approved" || s.Location != "Hamburg" {
		t.Errorf("unexpected signer info: %+v", s)
	}
	if s.ContactInfo != "ops@example.com" {
		t.Errorf("contact = %q", s.ContactInfo)
	}
	want := time.Date(2024, 2, 15, 9, 30, 0, 0, time.FixedZone("", 3600))
	if !s.SignedAt.Equal(want) {
		t.Errorf("signed at %v, want %v", s.SignedAt, want)
	}
	if len(s.ByteRange) != 4 || s.ByteRange[1] != 300 {
		t.Errorf("byte range = %v", s.ByteRange)
	}
	if !s.CoversWholeDocument {
		t.Error("byte range should cover the whole document")
	}

	s = sigs[1]
	if s.FieldName != "NotarySig" {
		t.Errorf("field name = %q, want NotarySig", s.FieldName)
	}
	if got := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC); !s.SignedAt.Equal(got) {
		t.Errorf("signed at %v, want %v", s.SignedAt, got)
	}
	if s.CoversWholeDocument {
		t.Error("truncated byte range must not report full coverage")
	}
}

func TestSignaturesAbsent(t *testing.T) {
	doc, err := reader.ReadBytes(generateTestPDF(t, "no forms here"))
	if err != nil {
		t.Fatalf("ReadBytes: %v", err)
	}
	sigs, err := doc.Signatures()
	if err != nil {
		t.Fatalf("Signatures: %v", err)
	}
	if sigs == nil || len(sigs) != 0 {
		t.Errorf("expected empty slice, got %v", sigs)
	}
}
