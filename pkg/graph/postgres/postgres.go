// Package postgres provides a PostgreSQL-based implementation of the
// evidence-graph store. Nodes live in a single table with the embedded
// edge list stored as JSONB.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/tagus/trailhound/pkg/graph"
	"github.com/tagus/trailhound/pkg/logging"
)

// Store implements the GraphReadWriter contract for PostgreSQL.
type Store struct {
	db     *sql.DB
	table  string
	logger logging.Logger
}

// Option represents an option for configuring the store
type Option func(*Store)

// WithTable sets the node table name (default "trailhound_nodes")
func WithTable(table string) Option {
	return func(s *Store) {
		s.table = table
	}
}

// WithLogger sets the logger for the store
func WithLogger(logger logging.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// New creates a new PostgreSQL graph store.
func New(connectionString string, options ...Option) (*Store, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", graph.ErrConnectionFailed, err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("%w: %v", graph.ErrConnectionFailed, err)
	}
	return NewWithDB(db, options...)
}

// NewWithDB creates a store over an existing database connection.
func NewWithDB(db *sql.DB, options ...Option) (*Store, error) {
	store := &Store{
		db:     db,
		table:  "trailhound_nodes",
		logger: logging.New(),
	}
	for _, option := range options {
		option(store)
	}

	if err := store.ensureSchema(context.Background()); err != nil {
		return nil, err
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema(ctx context.Context) error {
	table := pq.QuoteIdentifier(s.table)

	schema := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id          TEXT PRIMARY KEY,
			project_id  TEXT NOT NULL,
			value       TEXT NOT NULL,
			label       TEXT NOT NULL DEFAULT '',
			node_type   TEXT NOT NULL,
			status      TEXT NOT NULL DEFAULT 'UNVERIFIED',
			edges       JSONB NOT NULL DEFAULT '[]',
			created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
		)`, table)
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create node table: %w", err)
	}

	indexes := []string{
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s (project_id, value)`,
			pq.QuoteIdentifier(s.table+"_project_value_idx"), table),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s (project_id, node_type)`,
			pq.QuoteIdentifier(s.table+"_project_type_idx"), table),
	}
	for _, index := range indexes {
		if _, err := s.db.ExecContext(ctx, index); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}
	return nil
}

// PutNode inserts or replaces a whole node document.
func (s *Store) PutNode(ctx context.Context, node graph.Node) error {
	if err := graph.ValidateNode(&node); err != nil {
		return err
	}

	now := time.Now()
	if node.CreatedAt.IsZero() {
		node.CreatedAt = now
	}
	node.UpdatedAt = now

	edges, err := json.Marshal(node.Edges)
	if err != nil {
		return fmt.Errorf("failed to serialize edges for node %s: %w", node.ID, err)
	}
	if node.Edges == nil {
		edges = []byte("[]")
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, project_id, value, label, node_type, status, edges, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			value = EXCLUDED.value,
			label = EXCLUDED.label,
			node_type = EXCLUDED.node_type,
			status = EXCLUDED.status,
			edges = EXCLUDED.edges,
			updated_at = EXCLUDED.updated_at`, pq.QuoteIdentifier(s.table))

	_, err = s.db.ExecContext(ctx, query,
		node.ID, node.ProjectID, node.Value, node.Label, node.Type,
		string(node.Status), edges, node.CreatedAt, node.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to store node %s: %w", node.ID, err)
	}
	return nil
}

// QueryNodesWithEdges returns every project node holding at least one edge.
func (s *Store) QueryNodesWithEdges(ctx context.Context, projectID string) ([]graph.Node, error) {
	query := fmt.Sprintf(`
		SELECT id, project_id, value, label, node_type, status, edges, created_at, updated_at
		FROM %s
		WHERE project_id = $1 AND jsonb_array_length(edges) > 0
		ORDER BY created_at`, pq.QuoteIdentifier(s.table))

	rows, err := s.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to query nodes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanNodes(rows)
}

// QueryEvidenceNodesReferencing returns the evidence nodes whose edges
// reference the given target node id. The containment check runs in the
// database via the JSONB containment operator.
func (s *Store) QueryEvidenceNodesReferencing(ctx context.Context, projectID string, targetID string) ([]graph.Node, error) {
	reference, err := json.Marshal([]map[string]string{{"target_id": targetID}})
	if err != nil {
		return nil, fmt.Errorf("failed to build evidence query: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT id, project_id, value, label, node_type, status, edges, created_at, updated_at
		FROM %s
		WHERE project_id = $1 AND node_type = $2 AND edges @> $3
		ORDER BY created_at`, pq.QuoteIdentifier(s.table))

	rows, err := s.db.QueryContext(ctx, query, projectID, graph.NodeTypeSourceResult, reference)
	if err != nil {
		return nil, fmt.Errorf("failed to query evidence nodes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanNodes(rows)
}

// GetNodeByValue resolves a node by its canonical value.
func (s *Store) GetNodeByValue(ctx context.Context, projectID string, value string) (*graph.Node, error) {
	query := fmt.Sprintf(`
		SELECT id, project_id, value, label, node_type, status, edges, created_at, updated_at
		FROM %s
		WHERE project_id = $1 AND value = $2
		LIMIT 1`, pq.QuoteIdentifier(s.table))

	row := s.db.QueryRowContext(ctx, query, projectID, value)
	node, err := scanNode(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, graph.ErrNodeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get node by value: %w", err)
	}
	return node, nil
}

// UpdateNode applies a partial update to one node document.
func (s *Store) UpdateNode(ctx context.Context, nodeID string, patch graph.NodePatch) error {
	if nodeID == "" {
		return graph.ErrInvalidNodeID
	}

	sets := []string{"updated_at = now()"}
	args := []interface{}{nodeID}

	if patch.Edges != nil {
		edges, err := json.Marshal(*patch.Edges)
		if err != nil {
			return fmt.Errorf("failed to serialize edges for node %s: %w", nodeID, err)
		}
		args = append(args, edges)
		sets = append(sets, fmt.Sprintf("edges = $%d", len(args)))
	}
	if patch.Label != nil {
		args = append(args, *patch.Label)
		sets = append(sets, fmt.Sprintf("label = $%d", len(args)))
	}
	if patch.Status != nil {
		args = append(args, string(*patch.Status))
		sets = append(sets, fmt.Sprintf("status = $%d", len(args)))
	}

	query := fmt.Sprintf(`UPDATE %s SET %s WHERE id = $1`,
		pq.QuoteIdentifier(s.table), strings.Join(sets, ", "))

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update node %s: %w", nodeID, err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return graph.ErrNodeNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanNode(row rowScanner) (*graph.Node, error) {
	node := &graph.Node{}
	var status string
	var edges []byte

	err := row.Scan(&node.ID, &node.ProjectID, &node.Value, &node.Label,
		&node.Type, &status, &edges, &node.CreatedAt, &node.UpdatedAt)
	if err != nil {
		return nil, err
	}

	node.Status = graph.VerificationStatus(status)
	if len(edges) > 0 {
		if err := json.Unmarshal(edges, &node.Edges); err != nil {
			return nil, fmt.Errorf("failed to parse edges for node %s: %w", node.ID, err)
		}
	}
	return node, nil
}

func scanNodes(rows *sql.Rows) ([]graph.Node, error) {
	nodes := []graph.Node{}
	for rows.Next() {
		node, err := scanNode(rows)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, *node)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read node rows: %w", err)
	}
	return nodes, nil
}
