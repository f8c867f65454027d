package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"order-relay/internal/model"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testDB connects to the database named by TEST_DATABASE_URL and
// rebuilds the schema. Tests are skipped when the variable is unset.
func testDB(t *testing.T) *sqlx.DB {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	db, err := sqlx.Open("postgres", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	migration, err := os.ReadFile(filepath.Join("..", "..", "migrations", "001_init.sql"))
	require.NoError(t, err)
	_, err = db.Exec(string(migration))
	require.NoError(t, err)

	return db
}

func strptr(s string) *string { return &s }

func TestCreateDefaultsStatusToPending(t *testing.T) {
	repo := NewOrdersRepository(testDB(t))
	ctx := context.Background()

	o, err := repo.Create(ctx, "Alice", "Widget", "")
	require.NoError(t, err)
	assert.Equal(t, "pending", o.Status)
	assert.NotZero(t, o.ID)
	assert.False(t, o.UpdatedAt.IsZero())

	o2, err := repo.Create(ctx, "Bob", "Gadget", "shipped")
	require.NoError(t, err)
	assert.Equal(t, "shipped", o2.Status)
}

func TestUpdatePreservesOmittedFields(t *testing.T) {
	repo := NewOrdersRepository(testDB(t))
	ctx := context.Background()

	created, err := repo.Create(ctx, "Alice", "Widget", "")
	require.NoError(t, err)

	updated, err := repo.Update(ctx, created.ID, model.OrderPatch{Status: strptr("shipped")})
	require.NoError(t, err)

	assert.Equal(t, "Alice", updated.CustomerName)
	assert.Equal(t, "Widget", updated.ProductName)
	assert.Equal(t, "shipped", updated.Status)
	assert.True(t, updated.UpdatedAt.After(created.UpdatedAt) || updated.UpdatedAt.Equal(created.UpdatedAt))
}

func TestEmptyPatchStillBumpsUpdatedAt(t *testing.T) {
	repo := NewOrdersRepository(testDB(t))
	ctx := context.Background()

	created, err := repo.Create(ctx, "Alice", "Widget", "")
	require.NoError(t, err)

	// touch: no fields supplied, recency still refreshed
	touched, err := repo.Update(ctx, created.ID, model.OrderPatch{})
	require.NoError(t, err)

	assert.Equal(t, created.CustomerName, touched.CustomerName)
	assert.Equal(t, created.Status, touched.Status)
	assert.False(t, touched.UpdatedAt.Before(created.UpdatedAt))
}

func TestUpdateMissingIDIsNotFound(t *testing.T) {
	repo := NewOrdersRepository(testDB(t))

	_, err := repo.Update(context.Background(), 999999, model.OrderPatch{Status: strptr("shipped")})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteReturnsLastStateAndIsTerminal(t *testing.T) {
	repo := NewOrdersRepository(testDB(t))
	ctx := context.Background()

	created, err := repo.Create(ctx, "Alice", "Widget", "shipped")
	require.NoError(t, err)

	deleted, err := repo.Delete(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, deleted.ID)
	assert.Equal(t, "shipped", deleted.Status)

	// every subsequent operation on the id is not found
	_, err = repo.Delete(ctx, created.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = repo.Update(ctx, created.ID, model.OrderPatch{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListSortsByRecency(t *testing.T) {
	db := testDB(t)
	repo := NewOrdersRepository(db)
	ctx := context.Background()

	first, err := repo.Create(ctx, "Alice", "Widget", "")
	require.NoError(t, err)
	second, err := repo.Create(ctx, "Bob", "Gadget", "")
	require.NoError(t, err)

	// bump the older row so it becomes the most recent
	_, err = repo.Update(ctx, first.ID, model.OrderPatch{Status: strptr("shipped")})
	require.NoError(t, err)

	orders, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, first.ID, orders[0].ID)
	assert.Equal(t, second.ID, orders[1].ID)
}
