package inmem

import (
	"context"
	"sort"
	"time"

	"github.com/SergeyBogomolovv/order-fulfillment-service/internal/entities"
)

type OrderRepo struct {
	store *Store
}

func NewOrderRepo(store *Store) *OrderRepo {
	return &OrderRepo{store: store}
}

func (r *OrderRepo) GetOrderByID(ctx context.Context, orderID string) (entities.Order, error) {
	if t := extractTx(ctx); t != nil {
		return t.getOrder(orderID)
	}

	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	rec, ok := r.store.orders[orderID]
	if !ok {
		return entities.Order{}, entities.ErrOrderNotFound
	}
	return cloneOrder(rec.order), nil
}

// Блокировок на строках нет — конфликт обнаруживается на коммите.
func (r *OrderRepo) GetOrderForUpdate(ctx context.Context, orderID string) (entities.Order, error) {
	return r.GetOrderByID(ctx, orderID)
}

func (r *OrderRepo) SaveOrder(ctx context.Context, o entities.Order) error {
	return r.store.autoTx(ctx, func(t *tx) error {
		_, err := t.getOrder(o.OrderID)
		if err == nil {
			return entities.ErrOrderExists
		}

		now := time.Now()
		o.ID = r.store.nextID.Add(1)
		o.CreatedAt = now
		o.UpdatedAt = now
		t.putOrder(o)
		return nil
	})
}

func (r *OrderRepo) AttachPayment(ctx context.Context, orderID string, status entities.OrderStatus, p entities.Payment) error {
	return r.store.autoTx(ctx, func(t *tx) error {
		o, err := t.getOrder(orderID)
		if err != nil {
			return err
		}
		if o.Payment.Processed() {
			return entities.ErrPaymentProcessed
		}
		o.Status = status
		o.Payment = p
		o.UpdatedAt = time.Now()
		t.putOrder(o)
		return nil
	})
}

func (r *OrderRepo) UpdateStatus(ctx context.Context, orderID string, status entities.OrderStatus) error {
	return r.store.autoTx(ctx, func(t *tx) error {
		o, err := t.getOrder(orderID)
		if err != nil {
			return err
		}
		o.Status = status
		o.UpdatedAt = time.Now()
		t.putOrder(o)
		return nil
	})
}

func (r *OrderRepo) DeleteOrder(ctx context.Context, orderID string) error {
	return r.store.autoTx(ctx, func(t *tx) error {
		if _, err := t.getOrder(orderID); err != nil {
			return err
		}
		t.removeOrder(orderID)
		return nil
	})
}

func (r *OrderRepo) ListOrders(ctx context.Context, filter entities.OrderFilter) ([]entities.Order, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	result := make([]entities.Order, 0, len(r.store.orders))
	for _, rec := range r.store.orders {
		o := rec.order
		if filter.Status != "" && o.Status != filter.Status {
			continue
		}
		if filter.Email != "" || filter.Phone != "" {
			matchEmail := filter.Email != "" && o.Customer.Email == filter.Email
			matchPhone := filter.Phone != "" && o.Customer.Phone == filter.Phone
			if !matchEmail && !matchPhone {
				continue
			}
		}
		result = append(result, cloneOrder(o))
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (r *OrderRepo) CountByStatus(ctx context.Context) (entities.DashboardCounts, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	counts := entities.DashboardCounts{
		ByStatus: make(map[entities.OrderStatus]int, len(entities.AllStatuses)),
	}
	for _, s := range entities.AllStatuses {
		counts.ByStatus[s] = 0
	}
	for _, rec := range r.store.orders {
		counts.ByStatus[rec.order.Status]++
		counts.Total++
	}
	return counts, nil
}
