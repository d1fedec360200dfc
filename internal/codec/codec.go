// Package codec reads and writes entity documents in the formats the HTTP
// surface accepts.
package codec

import (
	"fmt"
	"io"
	"sort"

	"grisera/internal/domain"
)

// Importer parses a request body into a document
type Importer interface {
	Parse(r io.Reader) (domain.Document, error)
	Format() string
}

// Exporter writes an expanded entity
type Exporter interface {
	Export(doc domain.Document, w io.Writer) error
	Format() string
	ContentType() string
}

// Codec both imports and exports
type Codec interface {
	Importer
	Exporter
}

var codecs = map[string]Codec{}

func register(c Codec, aliases ...string) {
	codecs[c.Format()] = c
	for _, a := range aliases {
		codecs[a] = c
	}
}

func init() {
	register(NewJSONCodec(), "application/json")
	register(NewYAMLCodec(), "yml", "application/yaml", "application/x-yaml", "text/yaml")
}

// For returns the codec registered under a format name or media type
func For(format string) (Codec, error) {
	c, ok := codecs[format]
	if !ok {
		return nil, fmt.Errorf("unsupported format %q (supported: %v)", format, Formats())
	}
	return c, nil
}

// Formats lists the primary format names
func Formats() []string {
	seen := map[string]bool{}
	var out []string
	for _, c := range codecs {
		if !seen[c.Format()] {
			seen[c.Format()] = true
			out = append(out, c.Format())
		}
	}
	sort.Strings(out)
	return out
}
