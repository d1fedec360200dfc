package graphrepo

import (
	"context"

	"grisera/internal/domain"
	"grisera/internal/graph"
)

// outgoing returns the ids of nodes reached from self through rel's edge
func outgoing(rels []graph.Relationship, self int64, rel domain.Relation) []string {
	label := domain.MustLookup(rel.Target).Label
	var ids []string
	for _, e := range rels {
		if e.StartNode == self && e.Name == rel.Edge && e.EndLabel == label {
			ids = append(ids, formatID(e.EndNode))
		}
	}
	return ids
}

// incoming returns the ids of nodes pointing at self through rel's edge
func incoming(rels []graph.Relationship, self int64, rel domain.Relation) []string {
	label := domain.MustLookup(rel.Target).Label
	var ids []string
	for _, e := range rels {
		if e.EndNode == self && e.Name == rel.Edge && e.StartLabel == label {
			ids = append(ids, formatID(e.StartNode))
		}
	}
	return ids
}

// expand attaches related entities to doc. The node's edges are bucketed into
// forward and reverse lists per relation and every referenced node is read at
// depth-1 with s as the new source. Related nodes that fail to load are left
// out.
func (r *Repository) expand(ctx context.Context, s *domain.Schema, self int64, doc domain.Document, rels []graph.Relationship, depth int, source domain.Collection) error {
	if depth <= 0 {
		return nil
	}
	for _, rel := range s.Relations {
		if !domain.ShouldExpand(depth, rel, source) {
			continue
		}
		var ids []string
		if rel.Reverse {
			ids = incoming(rels, self, rel)
		} else {
			ids = outgoing(rels, self, rel)
		}

		if !rel.Many {
			if len(ids) == 0 {
				continue
			}
			related, err := r.related(ctx, rel, ids[0], depth, s.Collection)
			if err != nil {
				return err
			}
			if related != nil {
				doc[rel.Name] = related
			}
			continue
		}

		list := make([]domain.Document, 0, len(ids))
		for _, id := range ids {
			related, err := r.related(ctx, rel, id, depth, s.Collection)
			if err != nil {
				return err
			}
			if related != nil {
				list = append(list, related)
			}
		}
		doc[rel.Name] = list
	}
	return nil
}

// related loads one related entity. Only context cancellation is reported;
// any other failure counts as absence.
func (r *Repository) related(ctx context.Context, rel domain.Relation, id string, depth int, from domain.Collection) (domain.Document, error) {
	res, err := r.Get(ctx, rel.Target, id, depth-1, from)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		r.log.Debug("related entity unavailable", "relation", rel.Name, "id", id, "error", err)
		return nil, nil
	}
	return res.Document(), nil
}
