package reader

import (
	"bytes"
	"compress/zlib"
	"encoding/ascii85"
	"encoding/hex"
	"fmt"
	"io"
)

// decodeStream applies the filter chain specified in the stream dictionary
// to decompress data, honoring per-filter /DecodeParms.
func decodeStream(s Stream) ([]byte, error) {
	data := s.Data
	filter := s.Dict["Filter"]

	if filter == nil {
		return data, nil
	}

	// Filter can be a single name or an array of names
	var filters []Name
	switch f := filter.(type) {
	case Name:
		filters = []Name{f}
	case Array:
		for _, item := range f {
			n, ok := item.(Name)
			if !ok {
				return nil, fmt.Errorf("reader: filter array contains non-name: %T", item)
			}
			filters = append(filters, n)
		}
	default:
		return nil, fmt.Errorf("reader: unexpected filter type: %T", filter)
	}

	// DecodeParms mirrors the filter list: a single dict, or an array of
	// dict-or-null aligned with the filter array. /DP is a legacy alias.
	parms := make([]Dict, len(filters))
	parmsObj := s.Dict["DecodeParms"]
	if parmsObj == nil {
		parmsObj = s.Dict["DP"]
	}
	switch pv := parmsObj.(type) {
	case Dict:
		if len(parms) > 0 {
			parms[0] = pv
		}
	case Array:
		for i, item := range pv {
			if i >= len(parms) {
				break
			}
			if d, ok := item.(Dict); ok {
				parms[i] = d
			}
		}
	}

	var err error
	for i, f := range filters {
		data, err = applyFilter(f, data, parms[i])
		if err != nil {
			return nil, fmt.Errorf("reader: applying filter %s: %w", f, err)
		}
	}
	return data, nil
}

// applyFilter applies a single decompression filter to the data.
func applyFilter(name Name, data []byte, parms Dict) ([]byte, error) {
	switch name {
	case "FlateDecode":
		decoded, err := flateDecode(data)
		if err != nil {
			return nil, err
		}
		return undoPredictor(decoded, parms)
	case "ASCIIHexDecode":
		return asciiHexDecode(data)
	case "ASCII85Decode":
		return ascii85Decode(data)
	case "RunLengthDecode":
		return runLengthDecode(data)
	default:
		return nil, fmt.Errorf("unsupported filter: %s", name)
	}
}

// flateDecode decompresses zlib/deflate encoded data.
func flateDecode(data []byte) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("zlib init: %w", err)
	}
	defer r.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return nil, fmt.Errorf("zlib decompress: %w", err)
	}
	return buf.Bytes(), nil
}

// undoPredictor reverses the row predictor declared in DecodeParms.
// Cross-reference streams almost always use PNG Up prediction.
func undoPredictor(data []byte, parms Dict) ([]byte, error) {
	if parms == nil {
		return data, nil
	}
	predictor, ok := parms.GetInt("Predictor")
	if !ok || predictor <= 1 {
		return data, nil
	}

	columns := int64(1)
	if v, ok := parms.GetInt("Columns"); ok && v > 0 {
		columns = v
	}
	colors := int64(1)
	if v, ok := parms.GetInt("Colors"); ok && v > 0 {
		colors = v
	}
	bpc := int64(8)
	if v, ok := parms.GetInt("BitsPerComponent"); ok && v > 0 {
		bpc = v
	}

	bytesPerPixel := int((colors*bpc + 7) / 8)
	if bytesPerPixel < 1 {
		bytesPerPixel = 1
	}
	rowLen := int((columns*colors*bpc + 7) / 8)
	if rowLen < 1 {
		return data, nil
	}

	if predictor == 2 {
		return undoTIFFPredictor(data, rowLen, bytesPerPixel), nil
	}

	// PNG predictors (10-15): each row starts with a filter type byte
	stride := rowLen + 1
	if len(data)%stride != 0 {
		return nil, fmt.Errorf("predictor: data length %d not a multiple of row size %d", len(data), stride)
	}

	out := make([]byte, 0, len(data)/stride*rowLen)
	prev := make([]byte, rowLen)

	for pos := 0; pos < len(data); pos += stride {
		ft := data[pos]
		row := make([]byte, rowLen)
		copy(row, data[pos+1:pos+stride])

		switch ft {
		case 0: // None
		case 1: // Sub
			for i := bytesPerPixel; i < rowLen; i++ {
				row[i] += row[i-bytesPerPixel]
			}
		case 2: // Up
			for i := 0; i < rowLen; i++ {
				row[i] += prev[i]
			}
		case 3: // Average
			for i := 0; i < rowLen; i++ {
				left := 0
				if i >= bytesPerPixel {
					left = int(row[i-bytesPerPixel])
				}
				row[i] += byte((left + int(prev[i])) / 2)
			}
		case 4: // Paeth
			for i := 0; i < rowLen; i++ {
				var left, upLeft byte
				if i >= bytesPerPixel {
					left = row[i-bytesPerPixel]
					upLeft = prev[i-bytesPerPixel]
				}
				row[i] += paeth(left, prev[i], upLeft)
			}
		default:
			return nil, fmt.Errorf("predictor: unknown PNG filter type %d", ft)
		}

		out = append(out, row...)
		prev = row
	}
	return out, nil
}

// undoTIFFPredictor reverses TIFF horizontal differencing (8-bit components).
func undoTIFFPredictor(data []byte, rowLen, bytesPerPixel int) []byte {
	out := make([]byte, len(data))
	copy(out, data)
	for rowStart := 0; rowStart+rowLen <= len(out); rowStart += rowLen {
		for i := bytesPerPixel; i < rowLen; i++ {
			out[rowStart+i] += out[rowStart+i-bytesPerPixel]
		}
	}
	return out
}

// paeth is the PNG Paeth predictor function.
func paeth(a, b, c byte) byte {
	p := int(a) + int(b) - int(c)
	pa, pb, pc := p-int(a), p-int(b), p-int(c)
	if pa < 0 {
		pa = -pa
	}
	if pb < 0 {
		pb = -pb
	}
	if pc < 0 {
		pc = -pc
	}
	if pa <= pb && pa <= pc {
		return a
	}
	if pb <= pc {
		return b
	}
	return c
}

// asciiHexDecode decodes ASCII hex-encoded data (terminated by '>').
func asciiHexDecode(data []byte) ([]byte, error) {
	// Remove whitespace and trailing '>'
	var clean bytes.Buffer
	for _, b := range data {
		if b == '>' {
			break
		}
		if !isWhitespace(b) {
			clean.WriteByte(b)
		}
	}

	src := clean.Bytes()
	// Pad odd-length with trailing 0
	if len(src)%2 != 0 {
		src = append(src, '0')
	}

	dst := make([]byte, hex.DecodedLen(len(src)))
	_, err := hex.Decode(dst, src)
	if err != nil {
		return nil, fmt.Errorf("ascii hex decode: %w", err)
	}
	return dst, nil
}

// ascii85Decode decodes ASCII85-encoded data (terminated by "~>").
func ascii85Decode(data []byte) ([]byte, error) {
	// Find the end marker "~>"
	end := bytes.Index(data, []byte("~>"))
	if end >= 0 {
		data = data[:end]
	}

	decoder := ascii85.NewDecoder(bytes.NewReader(data))
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, decoder); err != nil {
		return nil, fmt.Errorf("ascii85 decode: %w", err)
	}
	return buf.Bytes(), nil
}

// runLengthDecode decodes PDF run-length encoded data.
func runLengthDecode(data []byte) ([]byte, error) {
	var out bytes.Buffer
	pos := 0
	for pos < len(data) {
		n := int(data[pos])
		pos++
		switch {
		case n == 128: // EOD
			return out.Bytes(), nil
		case n < 128: // copy n+1 literal bytes
			if pos+n+1 > len(data) {
				return nil, fmt.Errorf("run length: truncated literal run")
			}
			out.Write(data[pos : pos+n+1])
			pos += n + 1
		default: // repeat next byte 257-n times
			if pos >= len(data) {
				return nil, fmt.Errorf("run length: truncated repeat run")
			}
			for i := 0; i < 257-n; i++ {
				out.WriteByte(data[pos])
			}
			pos++
		}
	}
	return out.Bytes(), nil
}
