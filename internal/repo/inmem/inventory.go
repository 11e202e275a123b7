package inmem

import (
	"context"
	"time"

	"github.com/SergeyBogomolovv/order-fulfillment-service/internal/entities"
)

type InventoryRepo struct {
	store *Store
}

func NewInventoryRepo(store *Store) *InventoryRepo {
	return &InventoryRepo{store: store}
}

func (r *InventoryRepo) GetProduct(ctx context.Context, productID string) (entities.Product, error) {
	if t := extractTx(ctx); t != nil {
		return t.getProduct(productID)
	}

	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	rec, ok := r.store.products[productID]
	if !ok {
		return entities.Product{}, entities.ErrProductNotFound
	}
	return rec.product, nil
}

// DecrementStock в рамках одной транзакции видит собственные
// буферизованные декременты, поэтому сумма по позициям заказа
// проверяется против одного и того же снапшота остатка.
func (r *InventoryRepo) DecrementStock(ctx context.Context, productID string, quantity int) error {
	return r.store.autoTx(ctx, func(t *tx) error {
		p, err := t.getProduct(productID)
		if err != nil {
			return err
		}
		if p.Stock < quantity {
			return &entities.InsufficientStockError{ProductID: productID}
		}
		p.Stock -= quantity
		p.UpdatedAt = time.Now()
		t.putProduct(p)
		return nil
	})
}

func (r *InventoryRepo) IncrementStock(ctx context.Context, productID string, quantity int) error {
	return r.store.autoTx(ctx, func(t *tx) error {
		p, err := t.getProduct(productID)
		if err != nil {
			return err
		}
		p.Stock += quantity
		p.UpdatedAt = time.Now()
		t.putProduct(p)
		return nil
	})
}

func (r *InventoryRepo) UpsertProduct(ctx context.Context, p entities.Product) error {
	return r.store.autoTx(ctx, func(t *tx) error {
		now := time.Now()
		existing, err := t.getProduct(p.ProductID)
		if err == nil {
			p.CreatedAt = existing.CreatedAt
		} else {
			p.CreatedAt = now
		}
		p.UpdatedAt = now
		t.putProduct(p)
		return nil
	})
}

func (r *InventoryRepo) SetStock(ctx context.Context, productID string, stock int) error {
	return r.store.autoTx(ctx, func(t *tx) error {
		p, err := t.getProduct(productID)
		if err != nil {
			return err
		}
		p.Stock = stock
		p.UpdatedAt = time.Now()
		t.putProduct(p)
		return nil
	})
}
