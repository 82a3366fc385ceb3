package codec

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// Importer decodes a network document from a format
type Importer interface {
	Parse(r io.Reader) (*Document, error)
	Format() string
}

// Exporter encodes a network document to a format
type Exporter interface {
	Export(doc *Document, w io.Writer) error
	Format() string
}

// Codec both imports and exports one format
type Codec interface {
	Importer
	Exporter
}

// ForFormat returns the codec for "yaml" or "json"
func ForFormat(format string) (Codec, error) {
	switch strings.ToLower(format) {
	case "yaml", "yml":
		return NewYAMLCodec(), nil
	case "json":
		return NewJSONCodec(), nil
	}
	return nil, fmt.Errorf("unsupported format %q", format)
}

// ForPath picks the codec from a file extension
func ForPath(path string) (Codec, error) {
	return ForFormat(strings.TrimPrefix(filepath.Ext(path), "."))
}

// Decode parses and validates a document
func Decode(c Importer, r io.Reader) (*Document, error) {
	doc, err := c.Parse(r)
	if err != nil {
		return nil, err
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return doc, nil
}
