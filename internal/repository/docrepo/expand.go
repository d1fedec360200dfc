package docrepo

import (
	"context"

	"grisera/internal/domain"
	"grisera/internal/repository"
)

// expand attaches related entities to doc. Forward relations resolve the ids
// stored on the document, reverse relations query the target collection for
// documents whose relation field holds this id. Related documents are read at
// depth-1 with s as the new source.
func (r *Repository) expand(ctx context.Context, s *domain.Schema, doc domain.Document, depth int, source domain.Collection) error {
	if depth <= 0 {
		return nil
	}
	for _, rel := range s.Relations {
		if !domain.ShouldExpand(depth, rel, source) {
			continue
		}
		switch {
		case rel.Reverse:
			list, err := r.relatedList(ctx, rel, domain.Filter{rel.Field: doc.ID()}, depth, s.Collection)
			if err != nil {
				return err
			}
			doc[rel.Name] = list

		case rel.Many:
			ids := doc.IDs(rel.Field)
			list := []domain.Document{}
			if len(ids) > 0 {
				found, err := r.relatedList(ctx, rel, domain.Filter{domain.IDKey: domain.InStrings(ids)}, depth, s.Collection)
				if err != nil {
					return err
				}
				list = orderByIDs(found, ids)
			}
			doc[rel.Name] = list

		default:
			ids := doc.IDs(rel.Field)
			if len(ids) == 0 {
				continue
			}
			res, err := r.Get(ctx, rel.Target, ids[0], depth-1, s.Collection)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				r.log.Debug("related document unavailable", "relation", rel.Name, "id", ids[0], "error", err)
				continue
			}
			if related := res.Document(); related != nil {
				doc[rel.Name] = related
			}
		}
	}
	return nil
}

// relatedList queries rel's target collection. Only context cancellation is
// reported; any other failure yields an empty list.
func (r *Repository) relatedList(ctx context.Context, rel domain.Relation, f domain.Filter, depth int, from domain.Collection) ([]domain.Document, error) {
	list, err := r.List(ctx, rel.Target, repository.Query{Filter: f, Depth: depth - 1, Source: from})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		r.log.Debug("related documents unavailable", "relation", rel.Name, "error", err)
		return []domain.Document{}, nil
	}
	return list, nil
}

// orderByIDs returns docs in the order their ids appear in ids, repeating a
// document for repeated ids
func orderByIDs(docs []domain.Document, ids []string) []domain.Document {
	byID := make(map[string]domain.Document, len(docs))
	for _, d := range docs {
		byID[d.ID()] = d
	}
	out := make([]domain.Document, 0, len(ids))
	for _, id := range ids {
		if d, ok := byID[id]; ok {
			out = append(out, d)
		}
	}
	return out
}
