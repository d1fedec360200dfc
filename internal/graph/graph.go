// Package graph defines the property-graph persistence boundary: labelled
// nodes carrying a property map, joined by named directed relationships.
package graph

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a node or relationship id does not exist
var ErrNotFound = errors.New("graph: not found")

// Node is a labelled vertex
type Node struct {
	ID         int64
	Label      string
	Properties map[string]any
}

// Relationship is a named edge from StartNode to EndNode. The labels of both
// ends are filled in by GetNodeRelationships.
type Relationship struct {
	ID         int64
	StartNode  int64
	EndNode    int64
	Name       string
	StartLabel string
	EndLabel   string
}

// Store is implemented by graph engines
type Store interface {
	CreateNode(ctx context.Context, label string) (int64, error)
	GetNode(ctx context.Context, id int64) (*Node, error)
	GetNodes(ctx context.Context, label string) ([]Node, error)
	DeleteNode(ctx context.Context, id int64) error

	// CreateProperties merges props into the node's property map
	CreateProperties(ctx context.Context, id int64, props map[string]any) error
	DeleteNodeProperties(ctx context.Context, id int64) error

	CreateRelationship(ctx context.Context, start, end int64, name string) (int64, error)
	GetNodeRelationships(ctx context.Context, id int64) ([]Relationship, error)
	DeleteRelationship(ctx context.Context, id int64) error

	Close() error
}
