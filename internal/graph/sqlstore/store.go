// Package sqlstore implements graph.Store on a relational database. Nodes and
// relationships live in two tables; node properties are a JSON column.
// SQLite (modernc.org/sqlite) and PostgreSQL (pgx) are supported.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"grisera/internal/graph"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// Dialect selects the SQL flavour
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

const (
	defaultSQLitePath  = "./grisera.db"
	defaultPostgresDSN = "postgres://localhost/grisera?sslmode=disable"
)

var (
	sqlOpen = sql.Open
	openMu  sync.Mutex
)

var _ graph.Store = (*Store)(nil)

// Store implements graph.Store using database/sql
type Store struct {
	db      *sql.DB
	dialect Dialect
}

// New opens a store. An empty dsn selects the dialect default; ":memory:"
// gives a throwaway sqlite database.
func New(dialect Dialect, dsn string) (*Store, error) {
	driver := "sqlite"
	switch dialect {
	case DialectSQLite, "":
		dialect = DialectSQLite
		if dsn == "" {
			dsn = defaultSQLitePath
		}
	case DialectPostgres:
		driver = "pgx"
		if dsn == "" {
			dsn = defaultPostgresDSN
		}
	default:
		return nil, fmt.Errorf("unknown graph dialect %q", dialect)
	}

	openMu.Lock()
	db, err := sqlOpen(driver, dsn)
	openMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dialect == DialectSQLite {
		// one connection keeps :memory: databases shared and serializes writers
		db.SetMaxOpenConns(1)
	}

	s := &Store{db: db, dialect: dialect}
	if err := s.migrate(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate(ctx context.Context) error {
	idColumn := "INTEGER PRIMARY KEY AUTOINCREMENT"
	if s.dialect == DialectPostgres {
		idColumn = "BIGSERIAL PRIMARY KEY"
	}
	statements := []string{
		`CREATE TABLE IF NOT EXISTS nodes (
			id ` + idColumn + `,
			label TEXT NOT NULL,
			properties TEXT,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS relationships (
			id ` + idColumn + `,
			start_node BIGINT NOT NULL REFERENCES nodes(id),
			end_node BIGINT NOT NULL REFERENCES nodes(id),
			name TEXT NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_nodes_label ON nodes(label)`,
		`CREATE INDEX IF NOT EXISTS idx_relationships_start ON relationships(start_node)`,
		`CREATE INDEX IF NOT EXISTS idx_relationships_end ON relationships(end_node)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) q(query string) string {
	return rebind(s.dialect, query)
}

// CreateNode inserts an empty node with the given label
func (s *Store) CreateNode(ctx context.Context, label string) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, s.q(`INSERT INTO nodes (label) VALUES (?) RETURNING id`), label).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create node: %w", err)
	}
	return id, nil
}

// GetNode retrieves a node by id
func (s *Store) GetNode(ctx context.Context, id int64) (*graph.Node, error) {
	var row nodeRow
	err := s.db.QueryRowContext(ctx, s.q(`SELECT `+nodeColumns+` FROM nodes WHERE id = ?`), id).Scan(row.scanArgs()...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("node %d: %w", id, graph.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get node %d: %w", id, err)
	}
	return row.toGraph()
}

// GetNodes returns every node with the given label in insertion order
func (s *Store) GetNodes(ctx context.Context, label string) ([]graph.Node, error) {
	rows, err := s.db.QueryContext(ctx, s.q(`SELECT `+nodeColumns+` FROM nodes WHERE label = ? ORDER BY id`), label)
	if err != nil {
		return nil, fmt.Errorf("list nodes: %w", err)
	}
	defer rows.Close()

	var nodes []graph.Node
	for rows.Next() {
		var row nodeRow
		if err := rows.Scan(row.scanArgs()...); err != nil {
			return nil, fmt.Errorf("scan node: %w", err)
		}
		node, err := row.toGraph()
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, *node)
	}
	return nodes, rows.Err()
}

// DeleteNode removes a node together with every relationship touching it
func (s *Store) DeleteNode(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, s.q(`DELETE FROM relationships WHERE start_node = ? OR end_node = ?`), id, id); err != nil {
		return fmt.Errorf("delete relationships of node %d: %w", id, err)
	}
	res, err := tx.ExecContext(ctx, s.q(`DELETE FROM nodes WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("delete node %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("node %d: %w", id, graph.ErrNotFound)
	}
	return tx.Commit()
}

// CreateProperties merges props into the node's properties
func (s *Store) CreateProperties(ctx context.Context, id int64, props map[string]any) error {
	node, err := s.GetNode(ctx, id)
	if err != nil {
		return err
	}
	for k, v := range props {
		node.Properties[k] = v
	}
	return s.writeProperties(ctx, id, node.Properties)
}

// DeleteNodeProperties clears every property of the node
func (s *Store) DeleteNodeProperties(ctx context.Context, id int64) error {
	if _, err := s.GetNode(ctx, id); err != nil {
		return err
	}
	return s.writeProperties(ctx, id, nil)
}

func (s *Store) writeProperties(ctx context.Context, id int64, props map[string]any) error {
	data, err := marshalToNull(props)
	if err != nil {
		return fmt.Errorf("marshal properties: %w", err)
	}
	_, err = s.db.ExecContext(ctx, s.q(`UPDATE nodes SET properties = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`), data, id)
	if err != nil {
		return fmt.Errorf("update properties of node %d: %w", id, err)
	}
	return nil
}

// CreateRelationship links start to end under name
func (s *Store) CreateRelationship(ctx context.Context, start, end int64, name string) (int64, error) {
	for _, id := range []int64{start, end} {
		if _, err := s.GetNode(ctx, id); err != nil {
			return 0, err
		}
	}
	var id int64
	err := s.db.QueryRowContext(ctx,
		s.q(`INSERT INTO relationships (start_node, end_node, name) VALUES (?, ?, ?) RETURNING id`),
		start, end, name).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create relationship: %w", err)
	}
	return id, nil
}

// GetNodeRelationships returns outgoing and incoming relationships of a node
// ordered by creation
func (s *Store) GetNodeRelationships(ctx context.Context, id int64) ([]graph.Relationship, error) {
	rows, err := s.db.QueryContext(ctx, s.q(`SELECT `+relationshipColumns+`
		FROM relationships r
		JOIN nodes s ON s.id = r.start_node
		JOIN nodes e ON e.id = r.end_node
		WHERE r.start_node = ? OR r.end_node = ?
		ORDER BY r.id`), id, id)
	if err != nil {
		return nil, fmt.Errorf("list relationships of node %d: %w", id, err)
	}
	defer rows.Close()

	var rels []graph.Relationship
	for rows.Next() {
		var row relationshipRow
		if err := rows.Scan(row.scanArgs()...); err != nil {
			return nil, fmt.Errorf("scan relationship: %w", err)
		}
		rels = append(rels, row.toGraph())
	}
	return rels, rows.Err()
}

// DeleteRelationship removes one relationship
func (s *Store) DeleteRelationship(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, s.q(`DELETE FROM relationships WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("delete relationship %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("relationship %d: %w", id, graph.ErrNotFound)
	}
	return nil
}
