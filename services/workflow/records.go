package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Record field names, matching node_records columns. Fields maps these to
// values for create and partial-update calls.
const (
	FieldWorkflowID     = "workflow_id"
	FieldKind           = "kind"
	FieldOrder          = "execution_order"
	FieldPosition       = "position"
	FieldDependsOn      = "depends_on"
	FieldAction         = "action"
	FieldOutputVariable = "output_variable"
	FieldTimeout        = "timeout_seconds"
	FieldRetryCount     = "retry_count"
	FieldCondition      = "condition_expr"
	FieldActive         = "active"
	FieldCredentialID   = "credential_id"
	FieldConfig         = "config"
)

// Fields holds column values for a create or partial update. Keys absent
// from the map are left untouched on the persisted record.
type Fields map[string]any

// StoredRecord is the query-time view of a node record: its durable id and
// the opaque config blob the identity resolver extracts the canvas-id
// marker from.
type StoredRecord struct {
	ID     string
	Config []byte
}

// RecordStore abstracts node record persistence. All four operations may
// fail with transport errors; the sync engine logs and collects per-record
// failures rather than propagating them.
type RecordStore interface {
	Create(ctx context.Context, kind string, fields Fields) (string, error)
	Update(ctx context.Context, recordID string, fields Fields) error
	Delete(ctx context.Context, recordID string) error
	Query(ctx context.Context, workflowID string) ([]StoredRecord, error)
}

// PgRecordStore persists node records in PostgreSQL.
type PgRecordStore struct {
	db *pgxpool.Pool
}

// NewPgRecordStore creates a record store backed by the given pool.
func NewPgRecordStore(pool *pgxpool.Pool) *PgRecordStore {
	return &PgRecordStore{db: pool}
}

// InitSchema creates the node_records table if it does not exist. The
// expression index on the canvasId marker keeps orphan scans cheap while
// identity matching itself stays inside the config blob.
func (s *PgRecordStore) InitSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS node_records (
			id              UUID PRIMARY KEY,
			workflow_id     UUID NOT NULL,
			kind            TEXT NOT NULL DEFAULT '',
			execution_order INT NOT NULL DEFAULT 0,
			position        JSONB,
			depends_on      JSONB NOT NULL DEFAULT '[]',
			action          TEXT,
			output_variable TEXT,
			timeout_seconds INT,
			retry_count     INT,
			condition_expr  TEXT,
			active          BOOLEAN,
			credential_id   UUID,
			config          JSONB NOT NULL DEFAULT '{}',
			created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_node_records_workflow
			ON node_records (workflow_id);
		CREATE INDEX IF NOT EXISTS idx_node_records_canvas
			ON node_records ((config->>'canvasId'));
	`)
	if err != nil {
		return fmt.Errorf("init node_records schema: %w", err)
	}
	return nil
}

var jsonColumns = map[string]bool{
	FieldPosition:  true,
	FieldDependsOn: true,
	FieldConfig:    true,
}

var recordColumns = map[string]bool{
	FieldWorkflowID:     true,
	FieldKind:           true,
	FieldOrder:          true,
	FieldPosition:       true,
	FieldDependsOn:      true,
	FieldAction:         true,
	FieldOutputVariable: true,
	FieldTimeout:        true,
	FieldRetryCount:     true,
	FieldCondition:      true,
	FieldActive:         true,
	FieldCredentialID:   true,
	FieldConfig:         true,
}

// columnArgs validates field names and returns sorted column/value pairs so
// generated SQL is deterministic. JSONB-bound values are marshalled here.
func columnArgs(fields Fields) ([]string, []any, error) {
	cols := make([]string, 0, len(fields))
	for k := range fields {
		if !recordColumns[k] {
			return nil, nil, fmt.Errorf("unknown record field %q", k)
		}
		cols = append(cols, k)
	}
	sort.Strings(cols)

	args := make([]any, 0, len(cols))
	for _, c := range cols {
		v := fields[c]
		if jsonColumns[c] {
			b, err := json.Marshal(v)
			if err != nil {
				return nil, nil, fmt.Errorf("marshal field %q: %w", c, err)
			}
			v = b
		}
		args = append(args, v)
	}
	return cols, args, nil
}

// Create inserts a new node record and returns its store-assigned id. The
// kind argument wins over any kind key in fields.
func (s *PgRecordStore) Create(ctx context.Context, kind string, fields Fields) (string, error) {
	if _, ok := fields[FieldKind]; ok {
		clean := make(Fields, len(fields))
		for k, v := range fields {
			if k != FieldKind {
				clean[k] = v
			}
		}
		fields = clean
	}

	cols, args, err := columnArgs(fields)
	if err != nil {
		return "", err
	}

	id := uuid.New().String()
	cols = append([]string{"id", "kind"}, cols...)
	args = append([]any{id, kind}, args...)

	placeholders := make([]string, len(cols))
	for i := range cols {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}

	query := fmt.Sprintf(
		"INSERT INTO node_records (%s) VALUES (%s)",
		strings.Join(cols, ", "), strings.Join(placeholders, ", "),
	)
	if _, err := s.db.Exec(ctx, query, args...); err != nil {
		return "", fmt.Errorf("create node record: %w", err)
	}
	return id, nil
}

// Update applies a partial update: only the given fields are written,
// everything else on the record is left as-is.
func (s *PgRecordStore) Update(ctx context.Context, recordID string, fields Fields) error {
	cols, args, err := columnArgs(fields)
	if err != nil {
		return err
	}
	if len(cols) == 0 {
		return nil
	}

	sets := make([]string, len(cols))
	for i, c := range cols {
		sets[i] = fmt.Sprintf("%s = $%d", c, i+1)
	}
	args = append(args, recordID)

	query := fmt.Sprintf(
		"UPDATE node_records SET %s, updated_at = NOW() WHERE id = $%d",
		strings.Join(sets, ", "), len(args),
	)
	if _, err := s.db.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("update node record %s: %w", recordID, err)
	}
	return nil
}

// Delete removes a node record by id.
func (s *PgRecordStore) Delete(ctx context.Context, recordID string) error {
	if _, err := s.db.Exec(ctx, "DELETE FROM node_records WHERE id = $1", recordID); err != nil {
		return fmt.Errorf("delete node record %s: %w", recordID, err)
	}
	return nil
}

// Query returns every node record belonging to the given workflow, with the
// raw config blob for marker extraction.
func (s *PgRecordStore) Query(ctx context.Context, workflowID string) ([]StoredRecord, error) {
	rows, err := s.db.Query(ctx,
		"SELECT id, config FROM node_records WHERE workflow_id = $1", workflowID)
	if err != nil {
		return nil, fmt.Errorf("query node records: %w", err)
	}
	defer rows.Close()

	var records []StoredRecord
	for rows.Next() {
		var rec StoredRecord
		if err := rows.Scan(&rec.ID, &rec.Config); err != nil {
			return nil, fmt.Errorf("scan node record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate node records: %w", err)
	}
	return records, nil
}
