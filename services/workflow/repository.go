package workflow

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository handles workflow definition persistence in PostgreSQL. The
// canvas itself is stored as JSONB; the sync engine turns it into
// individually addressable node records.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new Repository backed by the given connection pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{db: pool}
}

// InitSchema creates the workflows table if it does not exist.
func (r *Repository) InitSchema(ctx context.Context) error {
	_, err := r.db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS workflows (
			id         UUID PRIMARY KEY,
			name       TEXT NOT NULL DEFAULT '',
			nodes      JSONB NOT NULL DEFAULT '[]',
			edges      JSONB NOT NULL DEFAULT '[]',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`)
	if err != nil {
		return fmt.Errorf("init workflows schema: %w", err)
	}
	return nil
}

// Get retrieves a workflow definition by ID. Returns nil, nil if not found.
func (r *Repository) Get(ctx context.Context, id string) (*Workflow, error) {
	var wf Workflow
	var nodesJSON, edgesJSON []byte

	err := r.db.QueryRow(ctx, `
		SELECT id, name, nodes, edges, created_at, updated_at
		FROM workflows WHERE id = $1
	`, id).Scan(&wf.ID, &wf.Name, &nodesJSON, &edgesJSON, &wf.CreatedAt, &wf.UpdatedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get workflow: %w", err)
	}

	if err := json.Unmarshal(nodesJSON, &wf.Nodes); err != nil {
		return nil, fmt.Errorf("unmarshal nodes: %w", err)
	}
	if err := json.Unmarshal(edgesJSON, &wf.Edges); err != nil {
		return nil, fmt.Errorf("unmarshal edges: %w", err)
	}
	return &wf, nil
}

// Save upserts a workflow definition. Saving is what triggers a sync pass,
// so this runs many times per editing session.
func (r *Repository) Save(ctx context.Context, id string, req SaveRequest) error {
	nodesJSON, err := json.Marshal(req.Nodes)
	if err != nil {
		return fmt.Errorf("marshal nodes: %w", err)
	}
	edgesJSON, err := json.Marshal(req.Edges)
	if err != nil {
		return fmt.Errorf("marshal edges: %w", err)
	}

	_, err = r.db.Exec(ctx, `
		INSERT INTO workflows (id, name, nodes, edges)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			nodes = EXCLUDED.nodes,
			edges = EXCLUDED.edges,
			updated_at = NOW()
	`, id, req.Name, nodesJSON, edgesJSON)
	if err != nil {
		return fmt.Errorf("save workflow: %w", err)
	}
	return nil
}

// InitDB creates all schemas. Called from main on startup.
func InitDB(ctx context.Context, pool *pgxpool.Pool) error {
	if err := NewRepository(pool).InitSchema(ctx); err != nil {
		return err
	}
	return NewPgRecordStore(pool).InitSchema(ctx)
}
