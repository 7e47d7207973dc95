package workflow

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func getTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL not set, skipping repository tests")
	}

	pool, err := pgxpool.New(context.Background(), dbURL)
	require.NoError(t, err)
	t.Cleanup(func() { pool.Close() })
	return pool
}

func TestRepository_InitSchema(t *testing.T) {
	pool := getTestPool(t)
	repo := NewRepository(pool)

	err := repo.InitSchema(context.Background())
	require.NoError(t, err)

	// Running again should be idempotent
	err = repo.InitSchema(context.Background())
	require.NoError(t, err)
}

func TestRepository_SaveAndGet(t *testing.T) {
	pool := getTestPool(t)
	repo := NewRepository(pool)

	ctx := context.Background()
	require.NoError(t, repo.InitSchema(ctx))

	id := uuid.New().String()
	req := SaveRequest{
		Name:  "Test Workflow",
		Nodes: []Node{{ID: "a", Type: "trigger", Data: NodeData{Label: "A"}}},
		Edges: []Edge{},
	}
	require.NoError(t, repo.Save(ctx, id, req))

	wf, err := repo.Get(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, wf)

	assert.Equal(t, id, wf.ID)
	assert.Equal(t, "Test Workflow", wf.Name)
	require.Len(t, wf.Nodes, 1)
	assert.Equal(t, "a", wf.Nodes[0].ID)
}

func TestRepository_Save_Upserts(t *testing.T) {
	pool := getTestPool(t)
	repo := NewRepository(pool)

	ctx := context.Background()
	require.NoError(t, repo.InitSchema(ctx))

	id := uuid.New().String()
	require.NoError(t, repo.Save(ctx, id, SaveRequest{Name: "First"}))
	require.NoError(t, repo.Save(ctx, id, SaveRequest{
		Name:  "Second",
		Nodes: []Node{{ID: "a", Type: "action"}},
	}))

	wf, err := repo.Get(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, wf)
	assert.Equal(t, "Second", wf.Name)
	assert.Len(t, wf.Nodes, 1)
}

func TestRepository_Get_NotFound(t *testing.T) {
	pool := getTestPool(t)
	repo := NewRepository(pool)

	ctx := context.Background()
	require.NoError(t, repo.InitSchema(ctx))

	wf, err := repo.Get(ctx, "00000000-0000-0000-0000-000000000000")
	require.NoError(t, err)
	assert.Nil(t, wf)
}
