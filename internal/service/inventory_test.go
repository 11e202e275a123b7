package service_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/SergeyBogomolovv/order-fulfillment-service/internal/entities"
	"github.com/SergeyBogomolovv/order-fulfillment-service/internal/repo/inmem"
	"github.com/SergeyBogomolovv/order-fulfillment-service/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInventoryService(t *testing.T) {
	ctx := context.Background()
	store := inmem.NewStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := service.NewInventoryService(logger, inmem.NewManager(store), inmem.NewInventoryRepo(store))

	created, err := svc.UpsertProduct(ctx, entities.Product{ProductID: "p1", Title: "shirt", Price: 499, Stock: 5})
	require.NoError(t, err)
	assert.Equal(t, 5, created.Stock)

	t.Run("get", func(t *testing.T) {
		p, err := svc.GetProduct(ctx, "p1")
		require.NoError(t, err)
		assert.Equal(t, "shirt", p.Title)

		_, err = svc.GetProduct(ctx, "ghost")
		assert.ErrorIs(t, err, entities.ErrProductNotFound)
	})

	t.Run("set stock", func(t *testing.T) {
		p, err := svc.SetStock(ctx, "p1", 12)
		require.NoError(t, err)
		assert.Equal(t, 12, p.Stock)

		_, err = svc.SetStock(ctx, "ghost", 1)
		assert.ErrorIs(t, err, entities.ErrProductNotFound)
	})

	t.Run("restock adds quantity", func(t *testing.T) {
		p, err := svc.Restock(ctx, "p1", 3)
		require.NoError(t, err)
		assert.Equal(t, 15, p.Stock)
	})

	t.Run("upsert preserves created at", func(t *testing.T) {
		updated, err := svc.UpsertProduct(ctx, entities.Product{ProductID: "p1", Title: "shirt v2", Price: 599, Stock: 7})
		require.NoError(t, err)
		assert.Equal(t, "shirt v2", updated.Title)
		assert.Equal(t, created.CreatedAt, updated.CreatedAt)
	})
}
