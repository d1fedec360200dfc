package codec

import (
	"encoding/json"
	"fmt"
	"io"

	"grisera/internal/domain"
)

// JSONCodec handles JSON import/export
type JSONCodec struct{}

// NewJSONCodec creates a new JSON codec
func NewJSONCodec() *JSONCodec {
	return &JSONCodec{}
}

// Format returns the codec format identifier
func (c *JSONCodec) Format() string {
	return "json"
}

// ContentType is the media type of the exported data
func (c *JSONCodec) ContentType() string {
	return "application/json"
}

// Parse reads one JSON object
func (c *JSONCodec) Parse(r io.Reader) (domain.Document, error) {
	doc := domain.Document{}
	decoder := json.NewDecoder(r)
	decoder.UseNumber()
	if err := decoder.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}
	return doc, nil
}

// Export writes doc as indented JSON
func (c *JSONCodec) Export(doc domain.Document, w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}
