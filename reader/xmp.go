package reader

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/antchfx/xmlquery"
)

// XMP holds the common fields of a document's XMP metadata packet.
// Fields absent from the packet are empty strings.
type XMP struct {
	Title       string
	Creator     string
	Description string
	Keywords    string
	Producer    string
	CreatorTool string
	CreateDate  string
	ModifyDate  string
}

// XMP returns the parsed XMP metadata packet from the document catalog,
// or nil when the document carries none.
func (d *Document) XMP() (*XMP, error) {
	catalog, err := d.Catalog()
	if err != nil {
		return nil, err
	}
	metaObj, err := d.resolveIfRef(catalog["Metadata"])
	if err != nil {
		return nil, nil
	}
	stream, ok := metaObj.(Stream)
	if !ok {
		return nil, nil
	}
	data, err := decodeStream(stream)
	if err != nil {
		return nil, fmt.Errorf("reader: decoding XMP stream: %w", err)
	}
	return parseXMP(data)
}

func parseXMP(data []byte) (*XMP, error) {
	root, err := xmlquery.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("reader: parsing XMP packet: %w", err)
	}
	return &XMP{
		Title:       xmpText(root, "title"),
		Creator:     xmpText(root, "creator"),
		Description: xmpText(root, "description"),
		Keywords:    xmpText(root, "Keywords"),
		Producer:    xmpText(root, "Producer"),
		CreatorTool: xmpText(root, "CreatorTool"),
		CreateDate:  xmpText(root, "CreateDate"),
		ModifyDate:  xmpText(root, "ModifyDate"),
	}, nil
}

// xmpText pulls the text of the first element with the given local
// name. Namespace prefixes vary between producers, so matching ignores
// them. Array-valued properties (rdf:Seq, rdf:Alt) yield their first
// list item.
func xmpText(root *xmlquery.Node, local string) string {
	if n, err := xmlquery.Query(root, "//*[local-name()='"+local+"']//*[local-name()='li']"); err == nil && n != nil {
		return strings.TrimSpace(n.InnerText())
	}
	if n, err := xmlquery.Query(root, "//*[local-name()='"+local+"']"); err == nil && n != nil {
		return strings.TrimSpace(n.InnerText())
	}
	return ""
}
