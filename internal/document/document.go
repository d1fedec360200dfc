// Package document defines the document persistence boundary: JSON-like
// documents grouped in named collections, addressed by a string id and
// queried with domain.Filter plus an optional projection.
package document

import (
	"context"
	"errors"

	"grisera/internal/domain"
)

// ErrNotFound is returned when a document id does not exist in a collection
var ErrNotFound = errors.New("document: not found")

// Projection restricts the top-level fields returned by Find. Include wins
// over Exclude; the id is always returned.
type Projection struct {
	Include []string
	Exclude []string
}

// Empty reports whether the projection keeps every field
func (p Projection) Empty() bool {
	return len(p.Include) == 0 && len(p.Exclude) == 0
}

// Apply returns the projected copy of doc
func (p Projection) Apply(doc domain.Document) domain.Document {
	if p.Empty() {
		return doc
	}
	if len(p.Include) > 0 {
		out := domain.Document{domain.IDKey: doc[domain.IDKey]}
		for _, k := range p.Include {
			if v, ok := doc[k]; ok {
				out[k] = v
			}
		}
		return out
	}
	return doc.Without(p.Exclude...)
}

// FindOptions tunes Find
type FindOptions struct {
	Projection Projection
}

// Store is implemented by document engines
type Store interface {
	// Insert stores doc and returns its id. A missing id is generated.
	Insert(ctx context.Context, collection string, doc domain.Document) (string, error)
	Get(ctx context.Context, collection, id string) (domain.Document, error)
	Find(ctx context.Context, collection string, filter domain.Filter, opts FindOptions) ([]domain.Document, error)
	Replace(ctx context.Context, collection, id string, doc domain.Document) error
	Delete(ctx context.Context, collection, id string) error
	Close() error
}
