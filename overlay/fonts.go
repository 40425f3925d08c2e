package overlay

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	gofpdf "github.com/jung-kurt/gofpdf"
)

// ErrFontLoad reports a replacement face that could not be loaded. The
// renderer recovers by falling back to a built-in face, so the error only
// surfaces from registration.
var ErrFontLoad = errors.New("overlay: font load failed")

type fontKey struct {
	family string // lower-case
	style  FontStyle
}

// Registry maps document font families to replacement TrueType faces.
// Register every face before composition starts; lookups take no lock, so
// the registry must not change once it is shared between goroutines.
type Registry struct {
	ttf map[fontKey][]byte
}

// NewRegistry returns an empty registry. Unregistered families resolve to
// the built-in core faces.
func NewRegistry() *Registry {
	return &Registry{ttf: make(map[fontKey][]byte)}
}

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
)

// DefaultRegistry returns the process-wide registry, created empty on
// first use.
func DefaultRegistry() *Registry {
	defaultOnce.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// RegisterTTF loads the TrueType file at path as the face for the given
// family and style.
func (r *Registry) RegisterTTF(family string, style FontStyle, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrFontLoad, path, err)
	}
	return r.RegisterTTFBytes(family, style, data)
}

// RegisterTTFBytes registers an in-memory TrueType face.
func (r *Registry) RegisterTTFBytes(family string, style FontStyle, data []byte) error {
	if !looksLikeSfnt(data) {
		return fmt.Errorf("%w: %s: not a TrueType font", ErrFontLoad, family)
	}
	r.ttf[fontKey{strings.ToLower(family), style}] = data
	return nil
}

// Registered reports whether a face is registered for family and style.
func (r *Registry) Registered(family string, style FontStyle) bool {
	_, ok := r.ttf[fontKey{strings.ToLower(family), style}]
	return ok
}

// looksLikeSfnt checks the magic of an sfnt container (TrueType/OpenType).
func looksLikeSfnt(b []byte) bool {
	if len(b) < 12 {
		return false
	}
	switch string(b[:4]) {
	case "\x00\x01\x00\x00", "true", "OTTO":
		return true
	}
	return false
}

// resolveInto returns a family and style usable with SetFont on pdf,
// embedding a registered face into the document on first use. utf8
// reports whether the face takes UTF-8 text directly; the built-in faces
// take code-page text instead.
func (r *Registry) resolveInto(pdf *gofpdf.Fpdf, loaded map[fontKey]bool, family string, style FontStyle) (name, styleStr string, utf8 bool) {
	key := fontKey{strings.ToLower(family), style}
	if data, ok := r.ttf[key]; ok {
		if !loaded[key] && embedFace(pdf, key.family, styleLetter(style), data) {
			loaded[key] = true
		}
		if loaded[key] {
			return key.family, styleLetter(style), true
		}
	}
	return builtinFamily(family), styleLetter(style), false
}

// embedFace adds a TrueType face to the document. A malformed face must
// not poison the document, so font parser failures of any kind report
// false and the document error state is cleared. The font parser reports
// some failures only on the next font selection, hence the probe.
func embedFace(pdf *gofpdf.Fpdf, family, styleStr string, data []byte) (ok bool) {
	defer func() {
		if recover() != nil {
			pdf.ClearError()
			ok = false
		}
	}()
	pdf.AddUTF8FontFromBytes(family, styleStr, data)
	if pdf.Err() {
		pdf.ClearError()
		return false
	}
	pdf.SetFont(family, styleStr, 1)
	if pdf.Err() {
		pdf.ClearError()
		return false
	}
	return true
}

// builtinFamily maps a document font name onto one of the built-in core
// faces. Serif names and anything unrecognized land on Times.
func builtinFamily(family string) string {
	f := strings.ToLower(family)
	switch {
	case strings.Contains(f, "helvetica"), strings.Contains(f, "arial"):
		return "Helvetica"
	case strings.Contains(f, "courier"), strings.Contains(f, "mono"):
		return "Courier"
	default:
		return "Times"
	}
}

// styleLetter converts a FontStyle to the style string SetFont expects.
func styleLetter(s FontStyle) string {
	if s == Bold {
		return "B"
	}
	return ""
}
