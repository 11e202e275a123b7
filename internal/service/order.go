package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/SergeyBogomolovv/order-fulfillment-service/internal/entities"
	"github.com/SergeyBogomolovv/order-fulfillment-service/pkg/trm"
	"github.com/SergeyBogomolovv/order-fulfillment-service/pkg/utils"
)

// Платёж верифицируется выше по потоку, сюда приходит уже
// подтверждённый paymentId.
const (
	paymentProvider   = "Razorpay"
	paymentStatusPaid = "Paid"
)

type OrderRepo interface {
	GetOrderByID(ctx context.Context, orderID string) (entities.Order, error)

	// GetOrderForUpdate блокирует строку заказа до конца транзакции
	GetOrderForUpdate(ctx context.Context, orderID string) (entities.Order, error)

	SaveOrder(ctx context.Context, o entities.Order) error
	AttachPayment(ctx context.Context, orderID string, status entities.OrderStatus, p entities.Payment) error
	UpdateStatus(ctx context.Context, orderID string, status entities.OrderStatus) error
	DeleteOrder(ctx context.Context, orderID string) error

	ListOrders(ctx context.Context, filter entities.OrderFilter) ([]entities.Order, error)
	CountByStatus(ctx context.Context) (entities.DashboardCounts, error)
}

type StockDecrementer interface {
	DecrementStock(ctx context.Context, productID string, quantity int) error
}

type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte)
	Remove(key string)
}

type orderService struct {
	logger    *slog.Logger
	txManager trm.Manager
	repo      OrderRepo
	inventory StockDecrementer
	cache     Cache
}

func NewOrderService(logger *slog.Logger, txManager trm.Manager, repo OrderRepo, inventory StockDecrementer, cache Cache) *orderService {
	return &orderService{
		logger:    logger.With(slog.String("service", "order")),
		txManager: txManager,
		repo:      repo,
		inventory: inventory,
		cache:     cache,
	}
}

func (s *orderService) CreateOrder(ctx context.Context, order entities.Order) (entities.Order, error) {
	if len(order.Items) == 0 {
		return entities.Order{}, entities.ErrInvalidOrder
	}

	order.OrderID = entities.NewOrderID()
	order.Status = entities.StatusPending
	order.Payment = entities.Payment{}

	err := s.txManager.Do(ctx, func(ctx context.Context) error {
		return s.repo.SaveOrder(ctx, order)
	})
	if err != nil {
		return entities.Order{}, fmt.Errorf("failed to create order: %w", err)
	}

	created, err := s.repo.GetOrderByID(ctx, order.OrderID)
	if err != nil {
		return entities.Order{}, fmt.Errorf("failed to read created order: %w", err)
	}

	s.logger.Debug("order created", slog.String("order_id", created.OrderID))
	return created, nil
}

// ConfirmPayment — операция подтверждения.
//
// Без paymentID меняется только статус заказа, остатки не трогаются.
// С paymentID в одной транзакции: guard на повторную обработку,
// запись платежа, декремент остатка по каждой позиции. Любая ошибка
// откатывает всё целиком.
//
// Ретраи конфликтов сериализации безопасны: после успешного коммита
// повтор с тем же paymentID упрётся в guard и вернёт ErrPaymentProcessed,
// эффекты не применятся второй раз.
func (s *orderService) ConfirmPayment(ctx context.Context, orderID string, status entities.OrderStatus, paymentID string) (entities.Order, error) {
	if status == "" && paymentID != "" {
		status = entities.StatusConfirmed
	}
	if !status.Valid() {
		return entities.Order{}, entities.ErrInvalidStatus
	}

	var updated entities.Order
	fn := func() error {
		return s.txManager.Do(ctx, func(ctx context.Context) error {
			order, err := s.repo.GetOrderForUpdate(ctx, orderID)
			if err != nil {
				return err
			}

			if paymentID == "" {
				if err := s.repo.UpdateStatus(ctx, orderID, status); err != nil {
					return err
				}
				order.Status = status
				updated = order
				return nil
			}

			if order.Payment.Processed() {
				return entities.ErrPaymentProcessed
			}

			payment := entities.Payment{
				Method:    paymentProvider,
				Status:    paymentStatusPaid,
				PaymentID: paymentID,
			}
			if err := s.repo.AttachPayment(ctx, orderID, status, payment); err != nil {
				return err
			}

			// Порядок обхода позиций на результат не влияет:
			// декременты коммутативны, останавливаемся на первой нехватке.
			for _, item := range order.Items {
				if err := s.inventory.DecrementStock(ctx, item.ProductID, item.Quantity); err != nil {
					return err
				}
			}

			order.Status = status
			order.Payment = payment
			updated = order
			return nil
		})
	}

	cfg := utils.RetryConfig{
		InitialDelay: 50 * time.Millisecond,
		MaxAttempts:  3,
		Multiplier:   2,
	}
	err := utils.Retry(cfg, fn,
		entities.ErrOrderNotFound,
		entities.ErrPaymentProcessed,
		entities.ErrInsufficientStock,
		entities.ErrProductNotFound,
	)
	if err != nil {
		if errors.Is(err, trm.ErrSerialization) {
			return entities.Order{}, entities.ErrTxConflict
		}
		return entities.Order{}, err
	}

	s.cache.Remove(orderID)
	s.logger.Debug("order updated",
		slog.String("order_id", orderID),
		slog.String("status", string(status)),
		slog.Bool("payment", paymentID != ""),
	)
	return updated, nil
}

func (s *orderService) GetOrderByID(ctx context.Context, orderID string) (entities.Order, error) {
	if data, ok := s.cache.Get(orderID); ok {
		var order entities.Order
		if err := order.Unmarshal(data); err != nil {
			s.logger.Error("failed to unmarshal cached order", slog.String("order_id", orderID), slog.Any("error", err))
			return entities.Order{}, err
		}
		return order, nil
	}

	var order entities.Order
	fn := func() error {
		var err error
		order, err = s.repo.GetOrderByID(ctx, orderID)
		return err
	}
	cfg := utils.RetryConfig{
		InitialDelay: 100 * time.Millisecond,
		MaxAttempts:  5,
		Multiplier:   2,
	}
	if err := utils.Retry(cfg, fn, entities.ErrOrderNotFound); err != nil {
		return entities.Order{}, err
	}

	data, err := order.Marshal()
	if err != nil {
		s.logger.Error("failed to marshal order", slog.String("order_id", orderID), slog.Any("error", err))
		return entities.Order{}, err
	}
	s.cache.Set(orderID, data)
	return order, nil
}

func (s *orderService) ListOrders(ctx context.Context, filter entities.OrderFilter) ([]entities.Order, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, entities.ErrInvalidStatus
	}
	return s.repo.ListOrders(ctx, filter)
}

func (s *orderService) DeleteOrder(ctx context.Context, orderID string) error {
	err := s.txManager.Do(ctx, func(ctx context.Context) error {
		return s.repo.DeleteOrder(ctx, orderID)
	})
	if err != nil {
		return err
	}
	s.cache.Remove(orderID)
	return nil
}

func (s *orderService) DashboardCounts(ctx context.Context) (entities.DashboardCounts, error) {
	return s.repo.CountByStatus(ctx)
}

func (s *orderService) WarmUpCache(ctx context.Context, count int) error {
	orders, err := s.repo.ListOrders(ctx, entities.OrderFilter{})
	if err != nil {
		return fmt.Errorf("failed to warm up cache: %w", err)
	}
	if len(orders) > count {
		orders = orders[:count]
	}
	for _, order := range orders {
		data, err := order.Marshal()
		if err != nil {
			return fmt.Errorf("failed to warm up cache: %w", err)
		}
		s.cache.Set(order.OrderID, data)
	}
	s.logger.Info("cache warmed up", slog.Int("orders", len(orders)))
	return nil
}
