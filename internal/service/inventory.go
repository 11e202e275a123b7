package service

import (
	"context"
	"log/slog"

	"github.com/SergeyBogomolovv/order-fulfillment-service/internal/entities"
	"github.com/SergeyBogomolovv/order-fulfillment-service/pkg/trm"
)

type InventoryRepo interface {
	GetProduct(ctx context.Context, productID string) (entities.Product, error)
	UpsertProduct(ctx context.Context, p entities.Product) error
	SetStock(ctx context.Context, productID string, stock int) error
	IncrementStock(ctx context.Context, productID string, quantity int) error
}

type inventoryService struct {
	logger    *slog.Logger
	txManager trm.Manager
	repo      InventoryRepo
}

func NewInventoryService(logger *slog.Logger, txManager trm.Manager, repo InventoryRepo) *inventoryService {
	return &inventoryService{
		logger:    logger.With(slog.String("service", "inventory")),
		txManager: txManager,
		repo:      repo,
	}
}

func (s *inventoryService) GetProduct(ctx context.Context, productID string) (entities.Product, error) {
	return s.repo.GetProduct(ctx, productID)
}

func (s *inventoryService) UpsertProduct(ctx context.Context, p entities.Product) (entities.Product, error) {
	err := s.txManager.Do(ctx, func(ctx context.Context) error {
		return s.repo.UpsertProduct(ctx, p)
	})
	if err != nil {
		return entities.Product{}, err
	}
	s.logger.Debug("product upserted", slog.String("product_id", p.ProductID), slog.Int("stock", p.Stock))
	return s.repo.GetProduct(ctx, p.ProductID)
}

// SetStock выставляет абсолютный остаток (ручная корректировка).
// Продажи идут только через условный декремент в транзакции заказа.
func (s *inventoryService) SetStock(ctx context.Context, productID string, stock int) (entities.Product, error) {
	err := s.txManager.Do(ctx, func(ctx context.Context) error {
		return s.repo.SetStock(ctx, productID, stock)
	})
	if err != nil {
		return entities.Product{}, err
	}
	return s.repo.GetProduct(ctx, productID)
}

// Restock — приход товара, например возврат после отмены заказа.
func (s *inventoryService) Restock(ctx context.Context, productID string, quantity int) (entities.Product, error) {
	err := s.txManager.Do(ctx, func(ctx context.Context) error {
		return s.repo.IncrementStock(ctx, productID, quantity)
	})
	if err != nil {
		return entities.Product{}, err
	}
	return s.repo.GetProduct(ctx, productID)
}
