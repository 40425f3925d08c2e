package reader

import (
	"bytes"
	"io"
)

// contentScanner tokenizes content streams and CMap programs, which mix
// PDF objects with bare operator keywords. Exactly one of the returned
// object and operator is set per call.
type contentScanner struct {
	p *parser
}

func newContentScanner(data []byte) *contentScanner {
	return &contentScanner{p: newParser(data)}
}

// next returns the next object or operator keyword. io.EOF signals the
// end of the stream.
func (s *contentScanner) next() (Object, string, error) {
	s.p.skipWhitespace()
	b, ok := s.p.peek()
	if !ok {
		return nil, "", io.EOF
	}

	switch {
	case b == '(' || b == '<' || b == '/' || b == '[':
		obj, err := s.p.ParseObject()
		return obj, "", err
	case b >= '0' && b <= '9', b == '+', b == '-', b == '.':
		obj, err := s.p.ParseObject()
		return obj, "", err
	case b == ']' || b == ')' || b == '>' || b == '{' || b == '}':
		// Stray delimiter in a malformed stream; consume and move on.
		s.p.pos++
		return nil, string(b), nil
	}

	tok := s.p.readToken()
	if tok == "" {
		// Non-regular byte that fell through; skip it.
		s.p.pos++
		return s.next()
	}
	switch tok {
	case "true":
		return Boolean(true), "", nil
	case "false":
		return Boolean(false), "", nil
	case "null":
		return Null{}, "", nil
	}
	return nil, tok, nil
}

// skipInlineImage consumes everything between a BI operator and the EI
// terminator, including the binary sample data after ID.
func (s *contentScanner) skipInlineImage() {
	data := s.p.data
	// Find the ID keyword that starts the sample data.
	idx := bytes.Index(data[s.p.pos:], []byte("ID"))
	if idx < 0 {
		s.p.pos = len(data)
		return
	}
	pos := s.p.pos + idx + 2
	if pos < len(data) && isWhitespace(data[pos]) {
		pos++
	}
	// Scan for EI preceded by whitespace and followed by a boundary.
	for pos+1 < len(data) {
		if data[pos] == 'E' && data[pos+1] == 'I' &&
			isWhitespace(data[pos-1]) &&
			(pos+2 >= len(data) || isWhitespace(data[pos+2]) || isDelimiter(data[pos+2])) {
			s.p.pos = pos + 2
			return
		}
		pos++
	}
	s.p.pos = len(data)
}
