// Package loader seeds a repository from a dataset file.
//
// A dataset lists entities in creation order. Each entry names its
// collection and may carry a ref; later entries point at it by writing
// "@ref" wherever an id is expected:
//
//	version: "1"
//	entities:
//	  - collection: modalities
//	    ref: eeg
//	    data: {modality: eeg}
//	  - collection: observable_informations
//	    data: {modality_id: "@eeg"}
//	  - collection: appearances
//	    kind: somatotype
//	    data: {ectomorph: 2, endomorph: 3, mesomorph: 4}
package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"grisera/internal/codec"
	"grisera/internal/domain"
)

// RefPrefix marks a string value as a reference to an earlier entry
const RefPrefix = "@"

// Dataset is the file structure
type Dataset struct {
	Version  string  `json:"version"`
	Entities []Entry `json:"entities"`
}

// Entry is one entity to create
type Entry struct {
	Collection domain.Collection `json:"collection"`
	Ref        string            `json:"ref,omitempty"`
	// Kind selects the appearance variant
	Kind domain.AppearanceKind `json:"kind,omitempty"`
	Data domain.Document       `json:"data"`
}

// LoadFile reads a dataset, picking the format from the file extension
func LoadFile(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	defer f.Close()

	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	c, err := codec.For(format)
	if err != nil {
		return nil, err
	}
	doc, err := c.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return FromDocument(doc)
}

// FromDocument converts a parsed document into a dataset and checks it
func FromDocument(doc domain.Document) (*Dataset, error) {
	var ds Dataset
	if err := doc.Decode(&ds); err != nil {
		return nil, err
	}
	if err := ds.Check(); err != nil {
		return nil, err
	}
	return &ds, nil
}

// Check reports the first structural problem: unknown collections,
// duplicate refs and references to entries not yet defined
func (ds *Dataset) Check() error {
	defined := map[string]bool{}
	for i, e := range ds.Entities {
		if _, ok := domain.Lookup(e.Collection); !ok {
			return fmt.Errorf("entity %d: unknown collection %q", i, e.Collection)
		}
		if e.Collection == domain.Appearances &&
			e.Kind != domain.AppearanceOcclusion && e.Kind != domain.AppearanceSomatotype {
			return fmt.Errorf("entity %d: appearance kind must be %q or %q", i, domain.AppearanceOcclusion, domain.AppearanceSomatotype)
		}
		var missing string
		walkRefs(map[string]any(e.Data), func(ref string) {
			if missing == "" && !defined[ref] {
				missing = ref
			}
		})
		if missing != "" {
			return fmt.Errorf("entity %d: unknown reference %q", i, RefPrefix+missing)
		}
		if e.Ref != "" {
			if defined[e.Ref] {
				return fmt.Errorf("entity %d: duplicate ref %q", i, e.Ref)
			}
			defined[e.Ref] = true
		}
	}
	return nil
}

func walkRefs(v any, fn func(string)) {
	switch t := v.(type) {
	case map[string]any:
		for _, x := range t {
			walkRefs(x, fn)
		}
	case domain.Document:
		walkRefs(map[string]any(t), fn)
	case []any:
		for _, x := range t {
			walkRefs(x, fn)
		}
	case string:
		if ref, ok := strings.CutPrefix(t, RefPrefix); ok {
			fn(ref)
		}
	}
}

// resolve returns a copy of v with every reference replaced by its id
func resolve(v any, ids map[string]string) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, x := range t {
			out[k] = resolve(x, ids)
		}
		return out
	case domain.Document:
		return resolve(map[string]any(t), ids)
	case []any:
		out := make([]any, len(t))
		for i, x := range t {
			out[i] = resolve(x, ids)
		}
		return out
	case string:
		if ref, ok := strings.CutPrefix(t, RefPrefix); ok {
			if id, found := ids[ref]; found {
				return id
			}
		}
	}
	return v
}
