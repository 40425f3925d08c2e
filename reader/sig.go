package reader

import (
	"strings"
	"time"
)

// Signature describes one digital signature present in the document's
// form tree. The fields report what the signer recorded; cryptographic
// validation of the embedded PKCS#7 blob is not performed here.
type Signature struct {
	FieldName   string
	Filter      string // signature handler, e.g. "Adobe.PPKLite"
	SubFilter   string // encoding, e.g. "adbe.pkcs7.detached"
	Name        string
	Reason      string
	Location    string
	ContactInfo string
	SignedAt    time.Time
	ByteRange   []int64

	// CoversWholeDocument reports whether the byte range spans the
	// whole file apart from the signature contents gap. A signature
	// that covers less than the file guarantees nothing about later
	// revisions.
	CoversWholeDocument bool
}

// Signatures returns the digital signatures found in the document.
// Documents without signature fields yield an empty slice.
func (d *Document) Signatures() ([]Signature, error) {
	fields, err := d.FormFields()
	if err != nil {
		return nil, err
	}
	sigs := []Signature{}
	d.collectSignatures(fields, &sigs)
	return sigs, nil
}

func (d *Document) collectSignatures(fields []*FormField, out *[]Signature) {
	for _, f := range fields {
		if f.Type == "Sig" {
			if sig, ok := d.signatureFromField(f); ok {
				*out = append(*out, sig)
			}
		}
		d.collectSignatures(f.Kids, out)
	}
}

// signatureFromField reads the signature value dictionary of a signed
// field. Unsigned signature fields have no /V and are skipped.
func (d *Document) signatureFromField(f *FormField) (Signature, bool) {
	vObj, ok := f.dict["V"]
	if !ok {
		return Signature{}, false
	}
	resolved, err := d.resolveIfRef(vObj)
	if err != nil {
		return Signature{}, false
	}
	dict, ok := resolved.(Dict)
	if !ok {
		return Signature{}, false
	}

	sig := Signature{
		FieldName:   f.FullName,
		Filter:      string(dict.GetName("Filter")),
		SubFilter:   string(dict.GetName("SubFilter")),
		Name:        sigText(dict, "Name"),
		Reason:      sigText(dict, "Reason"),
		Location:    sigText(dict, "Location"),
		ContactInfo: sigText(dict, "ContactInfo"),
	}

	if m := sigText(dict, "M"); m != "" {
		sig.SignedAt = parsePDFDate(m)
	}

	if br := dict.GetArray("ByteRange"); br != nil {
		for _, el := range br {
			if v, ok := toFloat(el); ok {
				sig.ByteRange = append(sig.ByteRange, int64(v))
			}
		}
	}
	sig.CoversWholeDocument = byteRangeCoversFile(sig.ByteRange, int64(len(d.data)))

	return sig, true
}

func sigText(dict Dict, key Name) string {
	if s, ok := dict[key].(String); ok {
		return decodePDFString(s.Value)
	}
	return ""
}

// byteRangeCoversFile checks the usual [0 a b c] shape where the two
// ranges cover the file completely except the hex contents between them.
func byteRangeCoversFile(br []int64, size int64) bool {
	if len(br) != 4 {
		return false
	}
	return br[0] == 0 && br[1] > 0 && br[1] <= br[2] && br[2]+br[3] == size
}

// parsePDFDate parses a PDF date string of the form
// D:YYYYMMDDHHmmSS+HH'MM'. Truncated forms are accepted; an
// unparseable string yields the zero time.
func parsePDFDate(s string) time.Time {
	s = strings.TrimPrefix(s, "D:")

	layouts := []string{
		"20060102150405-07'00'",
		"20060102150405Z",
		"20060102150405",
		"200601021504",
		"2006010215",
		"20060102",
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
