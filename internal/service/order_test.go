package service_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/SergeyBogomolovv/order-fulfillment-service/internal/entities"
	"github.com/SergeyBogomolovv/order-fulfillment-service/internal/repo/inmem"
	"github.com/SergeyBogomolovv/order-fulfillment-service/internal/service"
	"github.com/SergeyBogomolovv/order-fulfillment-service/pkg/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	store     *inmem.Store
	inventory *inmem.InventoryRepo
	cache     *cache.LRUCache
	svc       interface {
		CreateOrder(ctx context.Context, order entities.Order) (entities.Order, error)
		ConfirmPayment(ctx context.Context, orderID string, status entities.OrderStatus, paymentID string) (entities.Order, error)
		GetOrderByID(ctx context.Context, orderID string) (entities.Order, error)
		ListOrders(ctx context.Context, filter entities.OrderFilter) ([]entities.Order, error)
		DeleteOrder(ctx context.Context, orderID string) error
		DashboardCounts(ctx context.Context) (entities.DashboardCounts, error)
	}
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store := inmem.NewStore()
	inventory := inmem.NewInventoryRepo(store)
	lru := cache.NewLRUCache(100, time.Minute)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	svc := service.NewOrderService(logger, inmem.NewManager(store), inmem.NewOrderRepo(store), inventory, lru)

	return &testEnv{store: store, inventory: inventory, cache: lru, svc: svc}
}

func (env *testEnv) seedProduct(t *testing.T, productID string, stock int) {
	t.Helper()
	err := env.inventory.UpsertProduct(context.Background(), entities.Product{
		ProductID: productID,
		Title:     "test product",
		Price:     100,
		Stock:     stock,
	})
	require.NoError(t, err)
}

func (env *testEnv) seedOrder(t *testing.T, items ...entities.Item) entities.Order {
	t.Helper()
	order, err := env.svc.CreateOrder(context.Background(), entities.Order{
		Customer: entities.Customer{
			FirstName: "Amit",
			Email:     "amit@example.com",
			Phone:     "9876543210",
		},
		ShippingAddress: entities.ShippingAddress{Address: "MG Road 1", City: "Bengaluru"},
		Items:           items,
		TotalAmount:     999,
	})
	require.NoError(t, err)
	return order
}

func (env *testEnv) productStock(t *testing.T, productID string) int {
	t.Helper()
	p, err := env.inventory.GetProduct(context.Background(), productID)
	require.NoError(t, err)
	return p.Stock
}

func TestOrderService_CreateOrder(t *testing.T) {
	env := newTestEnv(t)

	order := env.seedOrder(t, entities.Item{ProductID: "p1", Title: "shirt", Price: 499, Quantity: 2})

	assert.True(t, strings.HasPrefix(order.OrderID, "ORD-"))
	assert.Equal(t, entities.StatusPending, order.Status)
	assert.False(t, order.Payment.Processed())
	assert.False(t, order.CreatedAt.IsZero())

	t.Run("round trip", func(t *testing.T) {
		fetched, err := env.svc.GetOrderByID(context.Background(), order.OrderID)
		require.NoError(t, err)
		assert.Equal(t, order.OrderID, fetched.OrderID)
		assert.Equal(t, order.Items, fetched.Items)
		assert.Equal(t, order.TotalAmount, fetched.TotalAmount)
		assert.Equal(t, order.Customer, fetched.Customer)
		assert.Equal(t, order.ShippingAddress, fetched.ShippingAddress)
	})

	t.Run("empty items rejected", func(t *testing.T) {
		_, err := env.svc.CreateOrder(context.Background(), entities.Order{})
		assert.ErrorIs(t, err, entities.ErrInvalidOrder)
	})
}

func TestOrderService_ConfirmPayment(t *testing.T) {
	ctx := context.Background()

	t.Run("payment confirms order and decrements stock", func(t *testing.T) {
		env := newTestEnv(t)
		env.seedProduct(t, "p1", 5)
		env.seedProduct(t, "p2", 3)
		order := env.seedOrder(t,
			entities.Item{ProductID: "p1", Title: "shirt", Quantity: 2},
			entities.Item{ProductID: "p2", Title: "jeans", Quantity: 1},
		)

		updated, err := env.svc.ConfirmPayment(ctx, order.OrderID, entities.StatusConfirmed, "pay_123")
		require.NoError(t, err)

		assert.Equal(t, entities.StatusConfirmed, updated.Status)
		assert.Equal(t, "pay_123", updated.Payment.PaymentID)
		assert.Equal(t, "Razorpay", updated.Payment.Method)
		assert.Equal(t, "Paid", updated.Payment.Status)
		assert.Equal(t, 3, env.productStock(t, "p1"))
		assert.Equal(t, 2, env.productStock(t, "p2"))
	})

	t.Run("default status when omitted", func(t *testing.T) {
		env := newTestEnv(t)
		env.seedProduct(t, "p1", 5)
		order := env.seedOrder(t, entities.Item{ProductID: "p1", Title: "shirt", Quantity: 1})

		updated, err := env.svc.ConfirmPayment(ctx, order.OrderID, "", "pay_123")
		require.NoError(t, err)
		assert.Equal(t, entities.StatusConfirmed, updated.Status)
	})

	t.Run("status only path leaves stock untouched", func(t *testing.T) {
		env := newTestEnv(t)
		env.seedProduct(t, "p1", 5)
		order := env.seedOrder(t, entities.Item{ProductID: "p1", Title: "shirt", Quantity: 2})

		updated, err := env.svc.ConfirmPayment(ctx, order.OrderID, entities.StatusShipped, "")
		require.NoError(t, err)

		assert.Equal(t, entities.StatusShipped, updated.Status)
		assert.False(t, updated.Payment.Processed())
		assert.Equal(t, 5, env.productStock(t, "p1"))
	})

	t.Run("invalid status rejected", func(t *testing.T) {
		env := newTestEnv(t)
		_, err := env.svc.ConfirmPayment(ctx, "ORD-1", "Teleported", "pay_123")
		assert.ErrorIs(t, err, entities.ErrInvalidStatus)
	})

	t.Run("order not found", func(t *testing.T) {
		env := newTestEnv(t)
		_, err := env.svc.ConfirmPayment(ctx, "ORD-missing", entities.StatusConfirmed, "pay_123")
		assert.ErrorIs(t, err, entities.ErrOrderNotFound)
	})

	t.Run("second confirmation rejected, stock decremented once", func(t *testing.T) {
		env := newTestEnv(t)
		env.seedProduct(t, "p1", 5)
		order := env.seedOrder(t, entities.Item{ProductID: "p1", Title: "shirt", Quantity: 2})

		_, err := env.svc.ConfirmPayment(ctx, order.OrderID, entities.StatusConfirmed, "pay_123")
		require.NoError(t, err)

		_, err = env.svc.ConfirmPayment(ctx, order.OrderID, entities.StatusConfirmed, "pay_123")
		assert.ErrorIs(t, err, entities.ErrPaymentProcessed)

		// повтор с другим paymentId тоже упирается в guard
		_, err = env.svc.ConfirmPayment(ctx, order.OrderID, entities.StatusConfirmed, "pay_456")
		assert.ErrorIs(t, err, entities.ErrPaymentProcessed)

		stored, err := env.svc.GetOrderByID(ctx, order.OrderID)
		require.NoError(t, err)
		assert.Equal(t, "pay_123", stored.Payment.PaymentID)
		assert.Equal(t, 3, env.productStock(t, "p1"))
	})

	t.Run("insufficient stock rolls back everything", func(t *testing.T) {
		env := newTestEnv(t)
		env.seedProduct(t, "p1", 5)
		env.seedProduct(t, "p2", 0)
		order := env.seedOrder(t,
			entities.Item{ProductID: "p1", Title: "shirt", Quantity: 2},
			entities.Item{ProductID: "p2", Title: "jeans", Quantity: 1},
		)

		_, err := env.svc.ConfirmPayment(ctx, order.OrderID, entities.StatusConfirmed, "pay_123")
		require.ErrorIs(t, err, entities.ErrInsufficientStock)

		var stockErr *entities.InsufficientStockError
		require.ErrorAs(t, err, &stockErr)
		assert.Equal(t, "p2", stockErr.ProductID)

		stored, err := env.svc.GetOrderByID(ctx, order.OrderID)
		require.NoError(t, err)
		assert.Equal(t, entities.StatusPending, stored.Status)
		assert.False(t, stored.Payment.Processed())
		assert.Equal(t, 5, env.productStock(t, "p1"))
		assert.Equal(t, 0, env.productStock(t, "p2"))
	})

	t.Run("unknown product rolls back payment", func(t *testing.T) {
		env := newTestEnv(t)
		env.seedProduct(t, "p1", 5)
		order := env.seedOrder(t,
			entities.Item{ProductID: "p1", Title: "shirt", Quantity: 1},
			entities.Item{ProductID: "ghost", Title: "ghost", Quantity: 1},
		)

		_, err := env.svc.ConfirmPayment(ctx, order.OrderID, entities.StatusConfirmed, "pay_123")
		require.ErrorIs(t, err, entities.ErrProductNotFound)

		stored, err := env.svc.GetOrderByID(ctx, order.OrderID)
		require.NoError(t, err)
		assert.False(t, stored.Payment.Processed())
		assert.Equal(t, 5, env.productStock(t, "p1"))
	})
}

// Несколько конкурентных подтверждений с одним paymentId: эффект
// применяется ровно один раз, остальные получают ErrPaymentProcessed
// либо ErrTxConflict.
func TestOrderService_ConfirmPayment_Concurrent(t *testing.T) {
	const workers = 8

	env := newTestEnv(t)
	env.seedProduct(t, "p1", 10)
	order := env.seedOrder(t, entities.Item{ProductID: "p1", Title: "shirt", Quantity: 2})

	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = env.svc.ConfirmPayment(context.Background(), order.OrderID, entities.StatusConfirmed, "pay_race")
		}()
	}
	wg.Wait()

	var succeeded int
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, entities.ErrPaymentProcessed):
		case errors.Is(err, entities.ErrTxConflict):
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, succeeded)

	stored, err := env.svc.GetOrderByID(context.Background(), order.OrderID)
	require.NoError(t, err)
	assert.Equal(t, "pay_race", stored.Payment.PaymentID)
	assert.Equal(t, 8, env.productStock(t, "p1"))
}

// Два заказа конкурируют за один товар, остатка хватает только одному.
func TestOrderService_ConfirmPayment_StockContention(t *testing.T) {
	env := newTestEnv(t)
	env.seedProduct(t, "p1", 5)
	first := env.seedOrder(t, entities.Item{ProductID: "p1", Title: "shirt", Quantity: 3})
	second := env.seedOrder(t, entities.Item{ProductID: "p1", Title: "shirt", Quantity: 3})

	var wg sync.WaitGroup
	var errFirst, errSecond error
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, errFirst = env.svc.ConfirmPayment(context.Background(), first.OrderID, entities.StatusConfirmed, "pay_a")
	}()
	go func() {
		defer wg.Done()
		_, errSecond = env.svc.ConfirmPayment(context.Background(), second.OrderID, entities.StatusConfirmed, "pay_b")
	}()
	wg.Wait()

	var succeeded, insufficient int
	for _, err := range []error{errFirst, errSecond} {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, entities.ErrInsufficientStock):
			insufficient++
		case errors.Is(err, entities.ErrTxConflict):
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, insufficient)
	assert.Equal(t, 2, env.productStock(t, "p1"))
}

func TestOrderService_GetOrderByID(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	order := env.seedOrder(t, entities.Item{ProductID: "p1", Title: "shirt", Quantity: 1})

	got, err := env.svc.GetOrderByID(ctx, order.OrderID)
	require.NoError(t, err)
	assert.Equal(t, order.OrderID, got.OrderID)
	assert.Equal(t, 1, env.cache.Size())

	// заказа в хранилище больше нет, но кеш ещё отдаёт его
	require.NoError(t, inmem.NewOrderRepo(env.store).DeleteOrder(ctx, order.OrderID))
	cached, err := env.svc.GetOrderByID(ctx, order.OrderID)
	require.NoError(t, err)
	assert.Equal(t, order.OrderID, cached.OrderID)

	t.Run("not found", func(t *testing.T) {
		_, err := env.svc.GetOrderByID(ctx, "ORD-missing")
		assert.ErrorIs(t, err, entities.ErrOrderNotFound)
	})
}

func TestOrderService_DeleteOrder(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	order := env.seedOrder(t, entities.Item{ProductID: "p1", Title: "shirt", Quantity: 1})

	_, err := env.svc.GetOrderByID(ctx, order.OrderID)
	require.NoError(t, err)
	require.Equal(t, 1, env.cache.Size())

	require.NoError(t, env.svc.DeleteOrder(ctx, order.OrderID))

	assert.Equal(t, 0, env.cache.Size())
	_, err = env.svc.GetOrderByID(ctx, order.OrderID)
	assert.ErrorIs(t, err, entities.ErrOrderNotFound)

	assert.ErrorIs(t, env.svc.DeleteOrder(ctx, order.OrderID), entities.ErrOrderNotFound)
}

func TestOrderService_ListOrders(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	order := env.seedOrder(t, entities.Item{ProductID: "p1", Title: "shirt", Quantity: 1})
	env.seedOrder(t, entities.Item{ProductID: "p2", Title: "jeans", Quantity: 1})

	_, err := env.svc.ConfirmPayment(ctx, order.OrderID, entities.StatusShipped, "")
	require.NoError(t, err)

	all, err := env.svc.ListOrders(ctx, entities.OrderFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	shipped, err := env.svc.ListOrders(ctx, entities.OrderFilter{Status: entities.StatusShipped})
	require.NoError(t, err)
	require.Len(t, shipped, 1)
	assert.Equal(t, order.OrderID, shipped[0].OrderID)

	byEmail, err := env.svc.ListOrders(ctx, entities.OrderFilter{Email: "amit@example.com"})
	require.NoError(t, err)
	assert.Len(t, byEmail, 2)

	_, err = env.svc.ListOrders(ctx, entities.OrderFilter{Status: "Teleported"})
	assert.ErrorIs(t, err, entities.ErrInvalidStatus)
}

func TestOrderService_DashboardCounts(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	order := env.seedOrder(t, entities.Item{ProductID: "p1", Title: "shirt", Quantity: 1})
	env.seedOrder(t, entities.Item{ProductID: "p2", Title: "jeans", Quantity: 1})

	_, err := env.svc.ConfirmPayment(ctx, order.OrderID, entities.StatusShipped, "")
	require.NoError(t, err)

	counts, err := env.svc.DashboardCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, counts.Total)
	assert.Equal(t, 1, counts.ByStatus[entities.StatusPending])
	assert.Equal(t, 1, counts.ByStatus[entities.StatusShipped])
	assert.Equal(t, 0, counts.ByStatus[entities.StatusDelivered])
}
