//go:build integration

package gormstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/sukryu/pAdmin/pkg/errors"
	"github.com/sukryu/pAdmin/pkg/store/database"
	"github.com/sukryu/pAdmin/pkg/store/dynamic"
)

func setupPostgres(t *testing.T) *GormDynamicStore {
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("padmin"),
		tcpostgres.WithUsername("padmin"),
		tcpostgres.WithPassword("padmin"),
		tcpostgres.BasicWaitStrategies(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = testcontainers.TerminateContainer(container) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	m, err := database.NewManager(database.Config{Driver: "postgres", DSN: dsn, LogLevel: "silent"})
	require.NoError(t, err)

	store, err := NewGormDynamicStore(m.GetDB())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestPostgresStore(t *testing.T) {
	store := setupPostgres(t)
	ctx := context.Background()
	require.NoError(t, store.Migrate(ctx, productSchema(), tokenSchema()))

	ids := seedProducts(t, store, 5)

	t.Run("page and filter", func(t *testing.T) {
		rows, total, err := store.GetMany(ctx, "products", dynamic.ListQuery{
			Limit:   2,
			Sorts:   []dynamic.Sort{{Column: "id", Desc: true}},
			Filters: []dynamic.Filter{{Column: "name", Operator: dynamic.OpIContains, Value: "item"}},
		})
		require.NoError(t, err)
		assert.Equal(t, int64(5), total)
		require.Len(t, rows, 2)
		assert.Equal(t, ids[4], rows[0]["id"])
	})

	t.Run("serializable rollback", func(t *testing.T) {
		err := store.TransactionWithOptions(ctx, dynamic.TransactionOptions{IsolationLevel: dynamic.Serializable},
			func(tx dynamic.DynamicStore) error {
				if err := tx.Delete(ctx, "products", ids[0]); err != nil {
					return err
				}
				return tx.Delete(ctx, "products", int64(-1))
			})
		assert.ErrorIs(t, err, errors.ErrNotFound)

		n, err := store.Count(ctx, "products", nil)
		require.NoError(t, err)
		assert.Equal(t, int64(5), n)
	})

	t.Run("uuid key", func(t *testing.T) {
		row, err := store.Create(ctx, "tokens", map[string]interface{}{"label": "pg"})
		require.NoError(t, err)
		assert.Len(t, row["id"], 36)
	})
}
