package docrepo

import (
	"context"
	"errors"
	"fmt"

	"grisera/internal/document"
	"grisera/internal/domain"
)

// Embedded entities are stored as elements of an array field on their parent
// document. Every write rewrites the parent; writes are serialized by r.mu.

// stripEmbedded removes raw child arrays from a parent document
func stripEmbedded(s *domain.Schema, doc domain.Document) domain.Document {
	var fields []string
	for _, child := range children(s.Collection) {
		fields = append(fields, child.Embedded.Field)
	}
	if len(fields) == 0 {
		return doc
	}
	return doc.Without(fields...)
}

func (r *Repository) parent(ctx context.Context, e *domain.Embedding, id string) (domain.Document, error) {
	if id == "" {
		return nil, fmt.Errorf("%s: %w", e.Via, domain.ErrNotFound)
	}
	doc, err := r.store.Get(ctx, string(e.Parent), id)
	if errors.Is(err, document.ErrNotFound) {
		return nil, fmt.Errorf("%s %s: %w", e.Parent, id, domain.ErrNotFound)
	}
	return doc, err
}

func (r *Repository) createEmbedded(ctx context.Context, s *domain.Schema, doc domain.Document) (string, error) {
	e := s.Embedded
	r.mu.Lock()
	defer r.mu.Unlock()

	parent, err := r.parent(ctx, e, doc.String(e.Via))
	if err != nil {
		return "", err
	}
	child := doc.Clone()
	child[domain.IDKey] = r.newID()
	children := append(parent.Documents(e.Field), child)
	if err := r.store.Replace(ctx, string(e.Parent), parent.ID(), withChildren(parent, e, children)); err != nil {
		return "", err
	}
	return child.ID(), nil
}

// findEmbedded locates the child with the given id and its parent document
func (r *Repository) findEmbedded(ctx context.Context, s *domain.Schema, id string) (domain.Document, domain.Document, error) {
	e := s.Embedded
	parents, err := r.store.Find(ctx, string(e.Parent), domain.Filter{e.Field + "." + domain.IDKey: id}, document.FindOptions{})
	if err != nil {
		return nil, nil, err
	}
	for _, p := range parents {
		for _, child := range p.Documents(e.Field) {
			if child.ID() == id {
				return child.Clone(), p, nil
			}
		}
	}
	return nil, nil, fmt.Errorf("%s %s: %w", s.Collection, id, domain.ErrNotFound)
}

// listEmbedded collects the children matching f across all parents. The
// filter is pushed down to the parent query with prefixed keys and then
// applied again to each child.
func (r *Repository) listEmbedded(ctx context.Context, s *domain.Schema, f domain.Filter) ([]domain.Document, error) {
	e := s.Embedded
	pushed := domain.Filter{}
	for k, v := range f {
		pushed[e.Field+"."+k] = v
	}
	parents, err := r.store.Find(ctx, string(e.Parent), pushed, document.FindOptions{
		Projection: document.Projection{Include: []string{e.Field}},
	})
	if err != nil {
		return nil, err
	}
	var out []domain.Document
	for _, p := range parents {
		for _, child := range p.Documents(e.Field) {
			if f.Match(child) {
				out = append(out, child.Clone())
			}
		}
	}
	return out, nil
}

func (r *Repository) updateEmbedded(ctx context.Context, s *domain.Schema, id string, update func(domain.Document) domain.Document) error {
	e := s.Embedded
	r.mu.Lock()
	defer r.mu.Unlock()

	child, parent, err := r.findEmbedded(ctx, s, id)
	if err != nil {
		return err
	}
	children := replaceChild(parent.Documents(e.Field), id, update(child))
	return r.store.Replace(ctx, string(e.Parent), parent.ID(), withChildren(parent, e, children))
}

// relinkEmbedded applies new relation ids to a child. A changed parent id
// moves the child into the new parent's array.
func (r *Repository) relinkEmbedded(ctx context.Context, s *domain.Schema, id string, rels domain.Document) error {
	e := s.Embedded
	r.mu.Lock()
	defer r.mu.Unlock()

	child, parent, err := r.findEmbedded(ctx, s, id)
	if err != nil {
		return err
	}
	updated := s.ApplyRelations(child, rels)
	target := updated.String(e.Via)
	if target == parent.ID() {
		children := replaceChild(parent.Documents(e.Field), id, updated)
		return r.store.Replace(ctx, string(e.Parent), parent.ID(), withChildren(parent, e, children))
	}

	next, err := r.parent(ctx, e, target)
	if err != nil {
		return err
	}
	moved := append(next.Documents(e.Field), updated)
	if err := r.store.Replace(ctx, string(e.Parent), next.ID(), withChildren(next, e, moved)); err != nil {
		return err
	}
	remaining := removeChild(parent.Documents(e.Field), id)
	return r.store.Replace(ctx, string(e.Parent), parent.ID(), withChildren(parent, e, remaining))
}

func (r *Repository) deleteEmbedded(ctx context.Context, s *domain.Schema, id string) error {
	e := s.Embedded
	r.mu.Lock()
	defer r.mu.Unlock()

	_, parent, err := r.findEmbedded(ctx, s, id)
	if err != nil {
		return err
	}
	children := removeChild(parent.Documents(e.Field), id)
	return r.store.Replace(ctx, string(e.Parent), parent.ID(), withChildren(parent, e, children))
}

func withChildren(parent domain.Document, e *domain.Embedding, children []domain.Document) domain.Document {
	out := parent.Clone()
	if children == nil {
		children = []domain.Document{}
	}
	out[e.Field] = children
	return out
}

func replaceChild(children []domain.Document, id string, child domain.Document) []domain.Document {
	out := make([]domain.Document, 0, len(children))
	for _, c := range children {
		if c.ID() == id {
			out = append(out, child)
			continue
		}
		out = append(out, c)
	}
	return out
}

func removeChild(children []domain.Document, id string) []domain.Document {
	out := make([]domain.Document, 0, len(children))
	for _, c := range children {
		if c.ID() != id {
			out = append(out, c)
		}
	}
	return out
}
