package sqlstore

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"grisera/internal/graph"
)

// ============================================================================
// JSON Marshaling Helpers
// ============================================================================

// unmarshalJSONField safely unmarshals JSON from nullable string into target
func unmarshalJSONField(ns sql.NullString, target interface{}) error {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	return json.Unmarshal([]byte(ns.String), target)
}

// marshalToNull marshals a property map to nullable JSON.
// Empty maps are stored as NULL rather than "{}".
func marshalToNull(props map[string]any) (sql.NullString, error) {
	if len(props) == 0 {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(props)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

// ============================================================================
// Dialect
// ============================================================================

// rebind rewrites ? placeholders to $n for postgres
func rebind(d Dialect, query string) string {
	if d != DialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// ============================================================================
// Row Scanners
// ============================================================================
//
// Column order must match between the *Columns constants and scanArgs().

const nodeColumns = `id, label, properties`

// nodeRow holds all columns from a node query for scanning
type nodeRow struct {
	ID             int64
	Label          string
	PropertiesJSON sql.NullString
}

func (r *nodeRow) scanArgs() []interface{} {
	return []interface{}{&r.ID, &r.Label, &r.PropertiesJSON}
}

func (r *nodeRow) toGraph() (*graph.Node, error) {
	node := &graph.Node{ID: r.ID, Label: r.Label, Properties: map[string]any{}}
	if err := unmarshalJSONField(r.PropertiesJSON, &node.Properties); err != nil {
		return nil, fmt.Errorf("unmarshal properties of node %d: %w", r.ID, err)
	}
	return node, nil
}

const relationshipColumns = `r.id, r.start_node, r.end_node, r.name, s.label, e.label`

type relationshipRow struct {
	ID         int64
	StartNode  int64
	EndNode    int64
	Name       string
	StartLabel string
	EndLabel   string
}

func (r *relationshipRow) scanArgs() []interface{} {
	return []interface{}{&r.ID, &r.StartNode, &r.EndNode, &r.Name, &r.StartLabel, &r.EndLabel}
}

func (r *relationshipRow) toGraph() graph.Relationship {
	return graph.Relationship{
		ID:         r.ID,
		StartNode:  r.StartNode,
		EndNode:    r.EndNode,
		Name:       r.Name,
		StartLabel: r.StartLabel,
		EndLabel:   r.EndLabel,
	}
}
