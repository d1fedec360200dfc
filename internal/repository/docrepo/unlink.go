package docrepo

import (
	"context"

	"grisera/internal/document"
	"grisera/internal/domain"
)

// children returns the schemas embedded in documents of c
func children(c domain.Collection) []*domain.Schema {
	var out []*domain.Schema
	for _, s := range domain.Schemas() {
		if s.Embedded != nil && s.Embedded.Parent == c {
			out = append(out, s)
		}
	}
	return out
}

// isParent reports whether documents of c embed other entities
func isParent(c domain.Collection) bool {
	return len(children(c)) > 0
}

// lockParent serializes whole-document rewrites of embedding parents with
// the embedded writes in embedded.go
func (r *Repository) lockParent(c domain.Collection) func() {
	if !isParent(c) {
		return func() {}
	}
	r.mu.Lock()
	return r.mu.Unlock
}

// unlink removes the ids of deleted target entities from every forward
// relation field that points at them, so that no stored document keeps a
// dangling reference. Embedded children are rewritten inside their parents.
// Relations through which a child names its parent are skipped: those
// children are gone with the parent.
func (r *Repository) unlink(ctx context.Context, target domain.Collection, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, owner := range domain.Schemas() {
		for _, rel := range owner.Forward() {
			if rel.Target != target {
				continue
			}
			if e := owner.Embedded; e != nil {
				if rel.Field == e.Via {
					continue
				}
				if err := r.unlinkEmbedded(ctx, e, rel, ids); err != nil {
					return err
				}
				continue
			}
			docs, err := r.store.Find(ctx, string(owner.Collection), domain.Filter{rel.Field: domain.InStrings(ids)}, document.FindOptions{})
			if err != nil {
				return err
			}
			for _, doc := range docs {
				if err := r.store.Replace(ctx, string(owner.Collection), doc.ID(), withoutRefs(doc, rel, ids)); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (r *Repository) unlinkEmbedded(ctx context.Context, e *domain.Embedding, rel domain.Relation, ids []string) error {
	parents, err := r.store.Find(ctx, string(e.Parent), domain.Filter{e.Field + "." + rel.Field: domain.InStrings(ids)}, document.FindOptions{})
	if err != nil {
		return err
	}
	for _, p := range parents {
		kids := p.Documents(e.Field)
		updated := make([]domain.Document, 0, len(kids))
		for _, child := range kids {
			updated = append(updated, withoutRefs(child, rel, ids))
		}
		if err := r.store.Replace(ctx, string(e.Parent), p.ID(), withChildren(p, e, updated)); err != nil {
			return err
		}
	}
	return nil
}

// withoutRefs drops ids from the relation field of doc. A to-many field left
// empty is removed, as the graph backend reports no field for no edges.
func withoutRefs(doc domain.Document, rel domain.Relation, ids []string) domain.Document {
	gone := make(map[string]bool, len(ids))
	for _, id := range ids {
		gone[id] = true
	}
	out := doc.Clone()
	var kept []string
	for _, id := range doc.IDs(rel.Field) {
		if !gone[id] {
			kept = append(kept, id)
		}
	}
	switch {
	case len(kept) == 0:
		delete(out, rel.Field)
	case rel.Many:
		out[rel.Field] = kept
	default:
		out[rel.Field] = kept[0]
	}
	return out
}
