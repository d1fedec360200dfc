package codec

import (
	"errors"
	"fmt"
	"io"

	"grisera/internal/domain"

	"gopkg.in/yaml.v3"
)

// YAMLCodec handles YAML import/export
type YAMLCodec struct{}

// NewYAMLCodec creates a new YAML codec
func NewYAMLCodec() *YAMLCodec {
	return &YAMLCodec{}
}

// Format returns the codec format identifier
func (c *YAMLCodec) Format() string {
	return "yaml"
}

// ContentType is the media type of the exported data
func (c *YAMLCodec) ContentType() string {
	return "application/yaml"
}

// Parse reads one YAML mapping. An empty body yields an empty document.
func (c *YAMLCodec) Parse(r io.Reader) (domain.Document, error) {
	var raw map[string]any
	decoder := yaml.NewDecoder(r)
	if err := decoder.Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	doc := domain.Document{}
	for k, v := range raw {
		doc[k] = normalize(v)
	}
	return doc, nil
}

// normalize turns the generic maps yaml.v3 produces for nested mappings
// into string-keyed maps so the document encodes as JSON
func normalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, item := range t {
			out[k] = normalize(item)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, item := range t {
			out[fmt.Sprint(k)] = normalize(item)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = normalize(item)
		}
		return out
	default:
		return v
	}
}

// Export writes doc as YAML
func (c *YAMLCodec) Export(doc domain.Document, w io.Writer) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	defer encoder.Close()

	if err := encoder.Encode(plain(doc)); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}
	return nil
}

// plain converts nested documents to generic values yaml.v3 renders as
// mappings
func plain(v any) any {
	switch t := v.(type) {
	case domain.Document:
		return plain(map[string]any(t))
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, item := range t {
			out[k] = plain(item)
		}
		return out
	case []domain.Document:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = plain(item)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = plain(item)
		}
		return out
	default:
		return v
	}
}
