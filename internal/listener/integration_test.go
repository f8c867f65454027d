package listener

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"order-relay/internal/model"
	"order-relay/internal/repository"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestFeedDeliversCommitsInOrder runs the whole path against a real
// database: trigger fires on commit, the listener decodes, the hub
// observes events in commit order for one order id.
func TestFeedDeliversCommitsInOrder(t *testing.T) {
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

	rec := &recordingHub{}
	l, err := New(dsn, Config{Channel: "orders_changes"}, rec, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = l.Run(ctx) }()

	repo := repository.NewOrdersRepository(db)

	created, err := repo.Create(ctx, "Alice", "Widget", "")
	require.NoError(t, err)
	_, err = repo.Update(ctx, created.ID, model.OrderPatch{Status: strPtr("shipped")})
	require.NoError(t, err)
	_, err = repo.Delete(ctx, created.ID)
	require.NoError(t, err)

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) && len(rec.snapshot()) < 3 {
		time.Sleep(20 * time.Millisecond)
	}

	got := rec.snapshot()
	require.Len(t, got, 3)
	assert.Equal(t, model.OpInsert, got[0].Op)
	assert.Equal(t, model.OpUpdate, got[1].Op)
	assert.Equal(t, model.OpDelete, got[2].Op)
	for _, e := range got {
		assert.Equal(t, created.ID, e.ID)
		require.NotNil(t, e.Row)
	}
	assert.Equal(t, "shipped", got[2].Row.Status)
}

func strPtr(s string) *string { return &s }
