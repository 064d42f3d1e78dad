//go:build integration

package fulfillment_test

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/Spok95/packing-station/internal/domain/fulfillment"
	"github.com/Spok95/packing-station/migrations"
)

// newRepo поднимает чистый Postgres в контейнере и накатывает миграции.
func newRepo(t *testing.T) *fulfillment.Repo {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("station_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	sqlDB, err := goose.OpenDBWithDriver("postgres", dsn)
	require.NoError(t, err)
	goose.SetBaseFS(migrations.FS)
	require.NoError(t, goose.Up(sqlDB, "."))
	require.NoError(t, sqlDB.Close())

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	return fulfillment.NewRepo(pool)
}

func TestRepo(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()

	orderID, err := r.AddOrder(ctx, "WB-1", 2, 3)
	require.NoError(t, err)
	orders, err := r.LoadOrders(ctx)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, "WB-1", orders[0].Number)
	assert.Equal(t, 2, orders[0].BoxCount)

	boxID, err := r.AddBox(ctx, orderID, "1")
	require.NoError(t, err)
	emptyID, err := r.AddBox(ctx, orderID, "2")
	require.NoError(t, err)

	first, err := r.AddItem(ctx, boxID, fulfillment.ItemFields{Barcode: "460", ProductName: "Футболка", Size: "M"})
	require.NoError(t, err)
	second, err := r.AddItem(ctx, boxID, fulfillment.ItemFields{Barcode: "460", ProductName: "Футболка", Size: "L"})
	require.NoError(t, err)

	t.Run("closed is derived from items", func(t *testing.T) {
		boxes, err := r.LoadBoxes(ctx, orderID)
		require.NoError(t, err)
		require.Len(t, boxes, 2)
		assert.False(t, boxes[0].Closed)
		assert.True(t, boxes[1].Closed, "empty box is closed")

		b, err := r.FindBox(ctx, orderID, "1")
		require.NoError(t, err)
		require.NotNil(t, b)
		assert.Equal(t, boxID, b.ID)

		b, err = r.FindBox(ctx, orderID, "99")
		require.NoError(t, err)
		assert.Nil(t, b)
	})

	t.Run("scan marks lowest id first", func(t *testing.T) {
		it, total, err := r.ScanItem(ctx, boxID, "460")
		require.NoError(t, err)
		require.NotNil(t, it)
		assert.Equal(t, first, it.ID)
		assert.Equal(t, 2, total)

		it, _, err = r.ScanItem(ctx, boxID, "460")
		require.NoError(t, err)
		require.NotNil(t, it)
		assert.Equal(t, second, it.ID)

		it, total, err = r.ScanItem(ctx, boxID, "460")
		require.NoError(t, err)
		assert.Nil(t, it)
		assert.Equal(t, 2, total)

		it, total, err = r.ScanItem(ctx, boxID, "000")
		require.NoError(t, err)
		assert.Nil(t, it)
		assert.Zero(t, total)

		n, err := r.UnscannedCount(ctx, boxID)
		require.NoError(t, err)
		assert.Zero(t, n)
		closed, err := r.IsBoxClosed(ctx, boxID)
		require.NoError(t, err)
		assert.True(t, closed)
	})

	t.Run("report keeps empty box", func(t *testing.T) {
		rows, err := r.OrderReport(ctx, orderID)
		require.NoError(t, err)
		require.Len(t, rows, 3)
		assert.True(t, rows[0].Scanned)
		assert.Equal(t, "L", rows[1].Size)
		assert.Equal(t, "2", rows[2].BoxNumber)
		assert.False(t, rows[2].HasItem)

		rows, err = r.OrderReport(ctx, orderID+100)
		require.NoError(t, err)
		assert.Empty(t, rows)
	})

	t.Run("open resets items and deferral", func(t *testing.T) {
		require.NoError(t, r.SetDeferred(ctx, boxID, true))
		b, err := r.FindBox(ctx, orderID, "1")
		require.NoError(t, err)
		assert.True(t, b.Deferred)

		require.NoError(t, r.OpenBox(ctx, boxID))
		items, err := r.LoadItems(ctx, boxID)
		require.NoError(t, err)
		require.Len(t, items, 2)
		for _, it := range items {
			assert.False(t, it.Scanned)
		}
		b, err = r.FindBox(ctx, orderID, "1")
		require.NoError(t, err)
		assert.False(t, b.Deferred)
		assert.False(t, b.Closed)
	})

	t.Run("unknown box", func(t *testing.T) {
		assert.ErrorIs(t, r.OpenBox(ctx, emptyID+100), fulfillment.ErrNotFound)
		assert.ErrorIs(t, r.SetDeferred(ctx, emptyID+100, true), fulfillment.ErrNotFound)
	})
}
