// Package graphrepo implements repository.Repository over a property graph.
//
// Every entity is a node labelled with its schema label. Intrinsic properties
// live in the node's property map; each forward relation id is an outgoing edge
// named after the relation. Relation id fields are rebuilt from the node's
// edges on every read, so a document read at depth zero looks the same as one
// coming from the document backend.
package graphrepo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"grisera/internal/domain"
	"grisera/internal/graph"
	"grisera/internal/repository"
)

var _ repository.Repository = (*Repository)(nil)

// Repository implements repository.Repository
type Repository struct {
	store graph.Store
	log   *slog.Logger
}

// New wraps a graph store
func New(store graph.Store, log *slog.Logger) *Repository {
	if log == nil {
		log = slog.Default()
	}
	return &Repository{store: store, log: log}
}

// Backend names the implementation
func (r *Repository) Backend() string {
	return "graph"
}

// Close closes the underlying store
func (r *Repository) Close() error {
	return r.store.Close()
}

func parseID(id string) (int64, bool) {
	n, err := strconv.ParseInt(id, 10, 64)
	return n, err == nil && n > 0
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

// Create adds a node, its properties and one edge per relation id
func (r *Repository) Create(ctx context.Context, c domain.Collection, doc domain.Document) (string, error) {
	s := domain.MustLookup(c)

	id, err := r.store.CreateNode(ctx, s.Label)
	if err != nil {
		return "", err
	}
	if props := s.StoredProperties(doc); len(props) > 0 {
		if err := r.store.CreateProperties(ctx, id, props); err != nil {
			r.discard(ctx, id)
			return "", err
		}
	}
	if err := r.link(ctx, s, id, doc); err != nil {
		r.discard(ctx, id)
		return "", err
	}
	return formatID(id), nil
}

func (r *Repository) discard(ctx context.Context, id int64) {
	if err := r.store.DeleteNode(ctx, id); err != nil {
		r.log.Warn("failed to remove partially created node", "node_id", id, "error", err)
	}
}

// link creates the outgoing edges for every forward relation id in doc
func (r *Repository) link(ctx context.Context, s *domain.Schema, id int64, doc domain.Document) error {
	for _, rel := range s.Forward() {
		for _, target := range doc.IDs(rel.Field) {
			targetID, ok := parseID(target)
			if !ok {
				return fmt.Errorf("%s %q: %w", rel.Field, target, domain.ErrNotFound)
			}
			if _, err := r.store.CreateRelationship(ctx, id, targetID, rel.Edge); err != nil {
				return fmt.Errorf("link %s: %w", rel.Field, err)
			}
		}
	}
	return nil
}

// node fetches a node and checks that it carries the label of s
func (r *Repository) node(ctx context.Context, s *domain.Schema, id string) (*graph.Node, string, error) {
	nodeID, ok := parseID(id)
	if !ok {
		return nil, domain.ReasonInvalidID, nil
	}
	node, err := r.store.GetNode(ctx, nodeID)
	if errors.Is(err, graph.ErrNotFound) {
		return nil, domain.ReasonNodeNotFound, nil
	}
	if err != nil {
		return nil, "", err
	}
	if node.Label != s.Label {
		return nil, domain.ReasonNodeNotFound, nil
	}
	return node, "", nil
}

// Get reads one entity and expands it
func (r *Repository) Get(ctx context.Context, c domain.Collection, id string, depth int, source domain.Collection) (domain.Result, error) {
	s := domain.MustLookup(c)
	node, reason, err := r.node(ctx, s, id)
	if err != nil {
		return domain.Result{}, err
	}
	if node == nil {
		return domain.Missing(id, reason), nil
	}
	doc, rels, err := r.assemble(ctx, s, node)
	if err != nil {
		return domain.Result{}, err
	}
	if err := r.expand(ctx, s, node.ID, doc, rels, depth, source); err != nil {
		return domain.Result{}, err
	}
	return domain.Found(doc), nil
}

// List reads every node of the collection's label matching the query
func (r *Repository) List(ctx context.Context, c domain.Collection, q repository.Query) ([]domain.Document, error) {
	s := domain.MustLookup(c)
	nodes, err := r.store.GetNodes(ctx, s.Label)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Document, 0, len(nodes))
	for i := range nodes {
		doc, rels, err := r.assemble(ctx, s, &nodes[i])
		if err != nil {
			return nil, err
		}
		if !q.Filter.Match(doc) {
			continue
		}
		if err := r.expand(ctx, s, nodes[i].ID, doc, rels, q.Depth, q.Source); err != nil {
			return nil, err
		}
		for _, k := range q.Omit {
			delete(doc, k)
		}
		out = append(out, doc)
	}
	return out, nil
}

// assemble turns a node and its edges into a document carrying the relation
// id fields
func (r *Repository) assemble(ctx context.Context, s *domain.Schema, node *graph.Node) (domain.Document, []graph.Relationship, error) {
	rels, err := r.store.GetNodeRelationships(ctx, node.ID)
	if err != nil {
		return nil, nil, err
	}
	doc := domain.Document{}
	for k, v := range node.Properties {
		doc[k] = v
	}
	doc[domain.IDKey] = formatID(node.ID)

	for _, rel := range s.Forward() {
		ids := outgoing(rels, node.ID, rel)
		switch {
		case len(ids) == 0:
		case rel.Many:
			doc[rel.Field] = ids
		default:
			doc[rel.Field] = ids[0]
		}
	}
	return doc, rels, nil
}

// UpdateProperties replaces the node's intrinsic properties, keeping payload
// properties such as signal values
func (r *Repository) UpdateProperties(ctx context.Context, c domain.Collection, id string, props domain.Document) error {
	s := domain.MustLookup(c)
	node, _, err := r.node(ctx, s, id)
	if err != nil {
		return err
	}
	if node == nil {
		return fmt.Errorf("%s %s: %w", c, id, domain.ErrNotFound)
	}
	updated := s.ApplyProperties(domain.Document(node.Properties), props)
	if err := r.store.DeleteNodeProperties(ctx, node.ID); err != nil {
		return err
	}
	if len(updated) == 0 {
		return nil
	}
	return r.store.CreateProperties(ctx, node.ID, updated)
}

// UpdateRelationships drops the node's outgoing relation edges and recreates
// them from rels
func (r *Repository) UpdateRelationships(ctx context.Context, c domain.Collection, id string, rels domain.Document) error {
	s := domain.MustLookup(c)
	node, _, err := r.node(ctx, s, id)
	if err != nil {
		return err
	}
	if node == nil {
		return fmt.Errorf("%s %s: %w", c, id, domain.ErrNotFound)
	}
	existing, err := r.store.GetNodeRelationships(ctx, node.ID)
	if err != nil {
		return err
	}
	for _, rel := range s.Forward() {
		target := domain.MustLookup(rel.Target)
		for _, e := range existing {
			if e.StartNode == node.ID && e.Name == rel.Edge && e.EndLabel == target.Label {
				if err := r.store.DeleteRelationship(ctx, e.ID); err != nil {
					return err
				}
			}
		}
	}
	return r.link(ctx, s, node.ID, rels)
}

// Delete removes the node and its edges. Entities embedded in this one on
// the document backend are deleted with it, so both backends keep the same
// entities.
func (r *Repository) Delete(ctx context.Context, c domain.Collection, id string) error {
	s := domain.MustLookup(c)
	node, _, err := r.node(ctx, s, id)
	if err != nil {
		return err
	}
	if node == nil {
		return fmt.Errorf("%s %s: %w", c, id, domain.ErrNotFound)
	}
	rels, err := r.store.GetNodeRelationships(ctx, node.ID)
	if err != nil {
		return err
	}
	for _, childID := range embeddedChildren(s, node.ID, rels) {
		if err := r.store.DeleteNode(ctx, childID); err != nil && !errors.Is(err, graph.ErrNotFound) {
			return fmt.Errorf("delete embedded node %d: %w", childID, err)
		}
	}
	return r.store.DeleteNode(ctx, node.ID)
}

// embeddedChildren returns the nodes that point at self through the parent
// relation of a schema embedded in s
func embeddedChildren(s *domain.Schema, self int64, rels []graph.Relationship) []int64 {
	var out []int64
	for _, child := range domain.Schemas() {
		e := child.Embedded
		if e == nil || e.Parent != s.Collection {
			continue
		}
		for _, rel := range child.Forward() {
			if rel.Field != e.Via {
				continue
			}
			for _, edge := range rels {
				if edge.EndNode == self && edge.Name == rel.Edge && edge.StartLabel == child.Label {
					out = append(out, edge.StartNode)
				}
			}
		}
	}
	return out
}
