package reader

import (
	"fmt"
	"strconv"
)

// loadObjectStream decodes an object stream (/Type /ObjStm) and parses
// every object it contains, keyed by object number.
//
// The stream begins with N pairs of integers giving each object's number
// and its offset relative to /First. Objects inside an object stream are
// never individually encrypted; the containing stream was already
// decrypted when it was resolved.
func (d *Document) loadObjectStream(streamNum int) (map[int]Object, error) {
	resolved, err := d.resolve(Reference{Number: streamNum})
	if err != nil {
		return nil, fmt.Errorf("reader: loading object stream %d: %w", streamNum, err)
	}

	stream, ok := resolved.(Stream)
	if !ok {
		return nil, fmt.Errorf("reader: object %d is not an object stream", streamNum)
	}
	if t := stream.Dict.GetName("Type"); t != "" && t != "ObjStm" {
		return nil, fmt.Errorf("reader: object %d has type %s, want ObjStm", streamNum, t)
	}

	count, ok := stream.Dict.GetInt("N")
	if !ok {
		return nil, fmt.Errorf("reader: object stream %d missing /N", streamNum)
	}
	first, ok := stream.Dict.GetInt("First")
	if !ok {
		return nil, fmt.Errorf("reader: object stream %d missing /First", streamNum)
	}

	data, err := decodeStream(stream)
	if err != nil {
		return nil, fmt.Errorf("reader: decoding object stream %d: %w", streamNum, err)
	}
	if first < 0 || first > int64(len(data)) {
		return nil, fmt.Errorf("reader: object stream %d /First %d out of bounds", streamNum, first)
	}

	// Header: N pairs of "objnum offset"
	type slot struct {
		num    int
		offset int64
	}
	hp := newParser(data[:first])
	slots := make([]slot, 0, count)
	for i := int64(0); i < count; i++ {
		numTok := hp.readToken()
		num, err := strconv.Atoi(numTok)
		if err != nil {
			return nil, fmt.Errorf("reader: object stream %d header entry %d: bad object number %q", streamNum, i, numTok)
		}
		offTok := hp.readToken()
		off, err := strconv.ParseInt(offTok, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("reader: object stream %d header entry %d: bad offset %q", streamNum, i, offTok)
		}
		slots = append(slots, slot{num: num, offset: off})
	}

	objects := make(map[int]Object, len(slots))
	for _, s := range slots {
		start := first + s.offset
		if start < 0 || start >= int64(len(data)) {
			return nil, fmt.Errorf("reader: object %d offset %d outside object stream %d", s.num, s.offset, streamNum)
		}
		p := newParser(data[start:])
		obj, err := p.ParseObject()
		if err != nil {
			return nil, fmt.Errorf("reader: parsing object %d in object stream %d: %w", s.num, streamNum, err)
		}
		objects[s.num] = obj
	}
	return objects, nil
}
