// Package inmem — транзакционное хранилище заказов и остатков в памяти.
// Реализует те же контракты, что и postgres-репозитории, и менеджер
// транзакций pkg/trm: запись буферизуется до коммита, на коммите
// версии всех прочитанных ключей сверяются с текущими. Используется
// в тестах и для локального запуска без базы.
package inmem

import (
	"context"
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/SergeyBogomolovv/order-fulfillment-service/internal/entities"
	"github.com/SergeyBogomolovv/order-fulfillment-service/pkg/trm"
)

type versionedOrder struct {
	order   entities.Order
	version uint64
}

type versionedProduct struct {
	product entities.Product
	version uint64
}

type Store struct {
	mu       sync.RWMutex
	orders   map[string]versionedOrder
	products map[string]versionedProduct
	nextID   atomic.Int64
}

func NewStore() *Store {
	return &Store{
		orders:   make(map[string]versionedOrder),
		products: make(map[string]versionedProduct),
	}
}

// версия 0 — ключ отсутствует; валидация коммита ловит и вставку,
// и удаление, случившиеся после чтения
func (s *Store) orderVersion(orderID string) uint64 {
	if rec, ok := s.orders[orderID]; ok {
		return rec.version
	}
	return 0
}

func (s *Store) productVersion(productID string) uint64 {
	if rec, ok := s.products[productID]; ok {
		return rec.version
	}
	return 0
}

func cloneOrder(o entities.Order) entities.Order {
	o.Items = slices.Clone(o.Items)
	return o
}

const (
	orderKeyPrefix   = "order:"
	productKeyPrefix = "product:"
)

// tx буферизует записи до коммита; nil-значение — удаление.
type tx struct {
	store    *Store
	reads    map[string]uint64
	orders   map[string]*entities.Order
	products map[string]*entities.Product
	done     bool
}

func (s *Store) newTx() *tx {
	return &tx{
		store:    s,
		reads:    make(map[string]uint64),
		orders:   make(map[string]*entities.Order),
		products: make(map[string]*entities.Product),
	}
}

func (t *tx) getOrder(orderID string) (entities.Order, error) {
	if buffered, ok := t.orders[orderID]; ok {
		if buffered == nil {
			return entities.Order{}, entities.ErrOrderNotFound
		}
		return cloneOrder(*buffered), nil
	}

	t.store.mu.RLock()
	defer t.store.mu.RUnlock()

	key := orderKeyPrefix + orderID
	if _, ok := t.reads[key]; !ok {
		t.reads[key] = t.store.orderVersion(orderID)
	}

	rec, ok := t.store.orders[orderID]
	if !ok {
		return entities.Order{}, entities.ErrOrderNotFound
	}
	return cloneOrder(rec.order), nil
}

func (t *tx) putOrder(o entities.Order) {
	cloned := cloneOrder(o)
	t.orders[o.OrderID] = &cloned
}

func (t *tx) removeOrder(orderID string) {
	t.orders[orderID] = nil
}

func (t *tx) getProduct(productID string) (entities.Product, error) {
	if buffered, ok := t.products[productID]; ok {
		if buffered == nil {
			return entities.Product{}, entities.ErrProductNotFound
		}
		return *buffered, nil
	}

	t.store.mu.RLock()
	defer t.store.mu.RUnlock()

	key := productKeyPrefix + productID
	if _, ok := t.reads[key]; !ok {
		t.reads[key] = t.store.productVersion(productID)
	}

	rec, ok := t.store.products[productID]
	if !ok {
		return entities.Product{}, entities.ErrProductNotFound
	}
	return rec.product, nil
}

func (t *tx) putProduct(p entities.Product) {
	cloned := p
	t.products[p.ProductID] = &cloned
}

// Commit сверяет версии прочитанных ключей и применяет буфер целиком.
// Несовпадение хотя бы одной версии — конкурент успел раньше,
// ничего не применяется.
func (t *tx) Commit() error {
	if t.done {
		return nil
	}
	t.done = true

	t.store.mu.Lock()
	defer t.store.mu.Unlock()

	for key, version := range t.reads {
		var current uint64
		switch {
		case strings.HasPrefix(key, orderKeyPrefix):
			current = t.store.orderVersion(strings.TrimPrefix(key, orderKeyPrefix))
		case strings.HasPrefix(key, productKeyPrefix):
			current = t.store.productVersion(strings.TrimPrefix(key, productKeyPrefix))
		}
		if current != version {
			return trm.ErrSerialization
		}
	}

	for orderID, buffered := range t.orders {
		version := t.store.orderVersion(orderID) + 1
		if buffered == nil {
			delete(t.store.orders, orderID)
			continue
		}
		t.store.orders[orderID] = versionedOrder{order: cloneOrder(*buffered), version: version}
	}
	for productID, buffered := range t.products {
		version := t.store.productVersion(productID) + 1
		if buffered == nil {
			delete(t.store.products, productID)
			continue
		}
		t.store.products[productID] = versionedProduct{product: *buffered, version: version}
	}
	return nil
}

func (t *tx) Rollback() error {
	t.done = true
	return nil
}

type txKey struct{}

func withTx(ctx context.Context, t *tx) context.Context {
	return context.WithValue(ctx, txKey{}, t)
}

func extractTx(ctx context.Context) *tx {
	t, ok := ctx.Value(txKey{}).(*tx)
	if !ok {
		return nil
	}
	return t
}

// Manager — trm.Manager поверх Store.
type Manager struct {
	store *Store
}

func NewManager(store *Store) *Manager {
	return &Manager{store: store}
}

func (m *Manager) BeginTx(ctx context.Context) (context.Context, trm.Transaction, error) {
	t := m.store.newTx()
	return withTx(ctx, t), t, nil
}

func (m *Manager) Do(ctx context.Context, callback func(ctx context.Context) error) error {
	ctx, t, err := m.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer t.Rollback()

	if err := callback(ctx); err != nil {
		return err
	}
	return t.Commit()
}

// autoTx выполняет fn в транзакции из контекста либо в одноразовой.
func (s *Store) autoTx(ctx context.Context, fn func(t *tx) error) error {
	if t := extractTx(ctx); t != nil {
		return fn(t)
	}
	t := s.newTx()
	if err := fn(t); err != nil {
		_ = t.Rollback()
		return err
	}
	return t.Commit()
}
