package repository

import (
	"context"

	"grisera/internal/domain"
)

// Query selects entities of one collection for List
type Query struct {
	Filter domain.Filter
	Depth  int
	Source domain.Collection
	// Omit drops top-level fields from every result
	Omit []string
}

// Repository stores entities of every collection and expands their relations.
// Reads report a missing or mistyped id through domain.Result; the error return
// is reserved for backend failures. Writes addressed at a missing id return an
// error wrapping domain.ErrNotFound.
type Repository interface {
	// Create persists doc (intrinsic properties and relation id fields) and
	// returns the new id. Relation targets are assumed to exist.
	Create(ctx context.Context, c domain.Collection, doc domain.Document) (string, error)

	// Get returns the entity with related entities expanded up to depth,
	// skipping the relation that leads back to source.
	Get(ctx context.Context, c domain.Collection, id string, depth int, source domain.Collection) (domain.Result, error)

	List(ctx context.Context, c domain.Collection, q Query) ([]domain.Document, error)

	// UpdateProperties replaces the intrinsic properties of an entity
	UpdateProperties(ctx context.Context, c domain.Collection, id string, props domain.Document) error

	// UpdateRelationships replaces every forward relation of an entity
	UpdateRelationships(ctx context.Context, c domain.Collection, id string, rels domain.Document) error

	Delete(ctx context.Context, c domain.Collection, id string) error

	// Backend names the implementation for logs and metrics
	Backend() string

	Close() error
}
