package domain

import (
	"encoding/json"
	"fmt"
)

// Document is the storage-neutral representation of an entity: intrinsic
// properties, relation id fields and, after expansion, related entities.
type Document map[string]any

// ID returns the identifier of the document
func (d Document) ID() string {
	return d.String(IDKey)
}

// String returns the string value of key or "" when absent
func (d Document) String(key string) string {
	switch v := d[key].(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// IDs returns the ids held by a relation field. Single values and lists of
// any kind are accepted; empty entries are skipped.
func (d Document) IDs(key string) []string {
	var ids []string
	add := func(v any) {
		if v == nil {
			return
		}
		s, ok := v.(string)
		if !ok {
			s = fmt.Sprint(v)
		}
		if s != "" {
			ids = append(ids, s)
		}
	}
	switch v := d[key].(type) {
	case nil:
	case []string:
		for _, s := range v {
			add(s)
		}
	case []any:
		for _, s := range v {
			add(s)
		}
	default:
		add(v)
	}
	return ids
}

// Documents returns the nested documents stored under key
func (d Document) Documents(key string) []Document {
	var out []Document
	switch v := d[key].(type) {
	case []Document:
		out = append(out, v...)
	case []map[string]any:
		for _, m := range v {
			out = append(out, Document(m))
		}
	case []any:
		for _, item := range v {
			switch m := item.(type) {
			case Document:
				out = append(out, m)
			case map[string]any:
				out = append(out, Document(m))
			}
		}
	}
	return out
}

// Clone returns a shallow copy
func (d Document) Clone() Document {
	out := make(Document, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// Without returns a shallow copy with keys removed
func (d Document) Without(keys ...string) Document {
	out := d.Clone()
	for _, k := range keys {
		delete(out, k)
	}
	return out
}

// ToDocument converts a tagged struct into a Document through its JSON form
func ToDocument(v any) (Document, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	doc := Document{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return doc, nil
}

// Decode fills the tagged struct v from the document
func (d Document) Decode(v any) error {
	data, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode document: %w", err)
	}
	return nil
}
