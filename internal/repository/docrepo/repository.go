// Package docrepo implements repository.Repository over a document store.
//
// Each collection maps to a document collection and relation id fields are
// stored on the documents themselves. Entities whose schema declares an
// Embedding live inside an array of their parent document instead; see
// embedded.go.
package docrepo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"grisera/internal/document"
	"grisera/internal/domain"
	"grisera/internal/repository"

	"github.com/google/uuid"
)

var _ repository.Repository = (*Repository)(nil)

// Repository implements repository.Repository
type Repository struct {
	store document.Store
	log   *slog.Logger
	newID func() string
	mu    sync.Mutex
}

// New wraps a document store
func New(store document.Store, log *slog.Logger) *Repository {
	if log == nil {
		log = slog.Default()
	}
	return &Repository{store: store, log: log, newID: newID}
}

func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// Backend names the implementation
func (r *Repository) Backend() string {
	return "document"
}

// Close closes the underlying store
func (r *Repository) Close() error {
	return r.store.Close()
}

// Create stores doc as a new document
func (r *Repository) Create(ctx context.Context, c domain.Collection, doc domain.Document) (string, error) {
	s := domain.MustLookup(c)
	doc = doc.Without(domain.IDKey)
	if s.Embedded != nil {
		return r.createEmbedded(ctx, s, doc)
	}
	return r.store.Insert(ctx, string(c), doc)
}

// raw loads the stored document without expansion
func (r *Repository) raw(ctx context.Context, s *domain.Schema, id string) (domain.Document, error) {
	if s.Embedded != nil {
		child, _, err := r.findEmbedded(ctx, s, id)
		return child, err
	}
	doc, err := r.store.Get(ctx, string(s.Collection), id)
	if errors.Is(err, document.ErrNotFound) {
		return nil, fmt.Errorf("%s %s: %w", s.Collection, id, domain.ErrNotFound)
	}
	return doc, err
}

// Get reads one document and expands it
func (r *Repository) Get(ctx context.Context, c domain.Collection, id string, depth int, source domain.Collection) (domain.Result, error) {
	s := domain.MustLookup(c)
	doc, err := r.raw(ctx, s, id)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Missing(id, domain.ReasonDocumentNotFound), nil
	}
	if err != nil {
		return domain.Result{}, err
	}
	doc = stripEmbedded(s, doc)
	if err := r.expand(ctx, s, doc, depth, source); err != nil {
		return domain.Result{}, err
	}
	return domain.Found(doc), nil
}

// List runs a filtered query on the collection
func (r *Repository) List(ctx context.Context, c domain.Collection, q repository.Query) ([]domain.Document, error) {
	s := domain.MustLookup(c)
	var (
		docs []domain.Document
		err  error
	)
	if s.Embedded != nil {
		docs, err = r.listEmbedded(ctx, s, q.Filter)
	} else {
		docs, err = r.store.Find(ctx, string(c), q.Filter, document.FindOptions{
			Projection: document.Projection{Exclude: q.Omit},
		})
	}
	if err != nil {
		return nil, err
	}

	out := make([]domain.Document, 0, len(docs))
	for _, doc := range docs {
		doc = stripEmbedded(s, doc).Without(q.Omit...)
		if err := r.expand(ctx, s, doc, q.Depth, q.Source); err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, nil
}

// UpdateProperties replaces the intrinsic properties of a document
func (r *Repository) UpdateProperties(ctx context.Context, c domain.Collection, id string, props domain.Document) error {
	s := domain.MustLookup(c)
	if s.Embedded != nil {
		return r.updateEmbedded(ctx, s, id, func(child domain.Document) domain.Document {
			return s.ApplyProperties(child, props)
		})
	}
	unlock := r.lockParent(c)
	defer unlock()
	doc, err := r.raw(ctx, s, id)
	if err != nil {
		return err
	}
	return r.store.Replace(ctx, string(c), id, s.ApplyProperties(doc, props))
}

// UpdateRelationships replaces every forward relation id field
func (r *Repository) UpdateRelationships(ctx context.Context, c domain.Collection, id string, rels domain.Document) error {
	s := domain.MustLookup(c)
	if s.Embedded != nil {
		return r.relinkEmbedded(ctx, s, id, rels)
	}
	unlock := r.lockParent(c)
	defer unlock()
	doc, err := r.raw(ctx, s, id)
	if err != nil {
		return err
	}
	return r.store.Replace(ctx, string(c), id, s.ApplyRelations(doc, rels))
}

// Delete removes a document. Embedded children go with their parent, and
// relation fields elsewhere that pointed at any removed entity are cleared.
func (r *Repository) Delete(ctx context.Context, c domain.Collection, id string) error {
	s := domain.MustLookup(c)
	if s.Embedded != nil {
		if err := r.deleteEmbedded(ctx, s, id); err != nil {
			return err
		}
		return r.unlink(ctx, c, []string{id})
	}
	removed, err := r.deleteDocument(ctx, s, id)
	if err != nil {
		return err
	}
	for child, ids := range removed {
		if err := r.unlink(ctx, child, ids); err != nil {
			return err
		}
	}
	return r.unlink(ctx, c, []string{id})
}

// deleteDocument removes a top-level document and returns the ids of the
// children that were embedded in it
func (r *Repository) deleteDocument(ctx context.Context, s *domain.Schema, id string) (map[domain.Collection][]string, error) {
	unlock := r.lockParent(s.Collection)
	defer unlock()

	removed := map[domain.Collection][]string{}
	if kids := children(s.Collection); len(kids) > 0 {
		doc, err := r.raw(ctx, s, id)
		if err != nil {
			return nil, err
		}
		for _, child := range kids {
			for _, d := range doc.Documents(child.Embedded.Field) {
				removed[child.Collection] = append(removed[child.Collection], d.ID())
			}
		}
	}
	err := r.store.Delete(ctx, string(s.Collection), id)
	if errors.Is(err, document.ErrNotFound) {
		return nil, fmt.Errorf("%s %s: %w", s.Collection, id, domain.ErrNotFound)
	}
	return removed, err
}
