package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/SergeyBogomolovv/order-fulfillment-service/internal/entities"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

var orderColumns = []string{
	"id", "order_id", "status",
	"first_name", "last_name", "email", "phone",
	"ship_address", "ship_city", "ship_state", "ship_zip", "ship_country",
	"total_amount",
	"payment_method", "payment_status", "payment_id",
	"created_at", "updated_at",
}

var itemColumns = []string{
	"order_id", "product_id", "title", "category", "price", "size", "quantity",
}

type orderRepo struct {
	querier
	qb sq.StatementBuilderType
}

func NewOrderRepo(db *sqlx.DB) *orderRepo {
	return &orderRepo{
		querier: querier{db: db},
		qb:      sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (r *orderRepo) GetOrderByID(ctx context.Context, orderID string) (entities.Order, error) {
	return r.getOrder(ctx, orderID, false)
}

// GetOrderForUpdate читает заказ с блокировкой строки.
// Вызывается только внутри транзакции: платёжный guard между
// конкурентными подтверждениями сериализуется именно здесь.
func (r *orderRepo) GetOrderForUpdate(ctx context.Context, orderID string) (entities.Order, error) {
	return r.getOrder(ctx, orderID, true)
}

func (r *orderRepo) getOrder(ctx context.Context, orderID string, forUpdate bool) (entities.Order, error) {
	b := r.qb.Select(orderColumns...).
		From("orders").
		Where(sq.Eq{"order_id": orderID})
	if forUpdate {
		b = b.Suffix("FOR UPDATE")
	}
	query, args := b.MustSql()

	var order Order
	err := r.getContext(ctx, &order, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return entities.Order{}, entities.ErrOrderNotFound
	}
	if err != nil {
		return entities.Order{}, fmt.Errorf("failed to get order: %w", err)
	}

	query, args = r.qb.Select(itemColumns...).
		From("order_items").
		Where(sq.Eq{"order_id": orderID}).
		OrderBy("id").
		MustSql()

	var items []Item
	if err := r.selectContext(ctx, &items, query, args...); err != nil {
		return entities.Order{}, fmt.Errorf("failed to get order items: %w", err)
	}

	return OrderToEntity(order, items), nil
}

func (r *orderRepo) SaveOrder(ctx context.Context, o entities.Order) error {
	query, args := r.qb.Insert("orders").
		Columns(
			"order_id", "status",
			"first_name", "last_name", "email", "phone",
			"ship_address", "ship_city", "ship_state", "ship_zip", "ship_country",
			"total_amount",
		).
		Values(
			o.OrderID, string(o.Status),
			nullString(o.Customer.FirstName), nullString(o.Customer.LastName),
			nullString(o.Customer.Email), nullString(o.Customer.Phone),
			nullString(o.ShippingAddress.Address), nullString(o.ShippingAddress.City),
			nullString(o.ShippingAddress.State), nullString(o.ShippingAddress.ZipCode),
			nullString(o.ShippingAddress.Country),
			o.TotalAmount,
		).
		MustSql()

	if _, err := r.execContext(ctx, query, args...); err != nil {
		var pqErr *pq.Error
		// 23505 unique_violation — order_id уже занят
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return entities.ErrOrderExists
		}
		return fmt.Errorf("failed to save order: %w", err)
	}

	return r.saveItems(ctx, o.OrderID, o.Items)
}

func (r *orderRepo) saveItems(ctx context.Context, orderID string, items []entities.Item) error {
	if len(items) == 0 {
		return nil
	}

	b := r.qb.Insert("order_items").Columns(itemColumns...)
	for _, it := range items {
		b = b.Values(orderID, it.ProductID, it.Title, nullString(it.Category), it.Price, nullString(it.Size), it.Quantity)
	}

	query, args := b.MustSql()
	if _, err := r.execContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to save order items: %w", err)
	}
	return nil
}

// AttachPayment пишет платёж условно: только если payment_id ещё пуст.
// Ноль затронутых строк означает, что платёж уже привязан —
// строка заказа к этому моменту существует и заблокирована вызывающим.
func (r *orderRepo) AttachPayment(ctx context.Context, orderID string, status entities.OrderStatus, p entities.Payment) error {
	query, args := r.qb.Update("orders").
		Set("status", string(status)).
		Set("payment_method", p.Method).
		Set("payment_status", p.Status).
		Set("payment_id", p.PaymentID).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"order_id": orderID}).
		Where("payment_id IS NULL").
		MustSql()

	res, err := r.execContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to attach payment: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to attach payment: %w", err)
	}
	if affected == 0 {
		return entities.ErrPaymentProcessed
	}
	return nil
}

func (r *orderRepo) UpdateStatus(ctx context.Context, orderID string, status entities.OrderStatus) error {
	query, args := r.qb.Update("orders").
		Set("status", string(status)).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"order_id": orderID}).
		MustSql()

	res, err := r.execContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update status: %w", err)
	}
	if affected == 0 {
		return entities.ErrOrderNotFound
	}
	return nil
}

func (r *orderRepo) DeleteOrder(ctx context.Context, orderID string) error {
	query, args := r.qb.Delete("orders").
		Where(sq.Eq{"order_id": orderID}).
		MustSql()

	res, err := r.execContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to delete order: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete order: %w", err)
	}
	if affected == 0 {
		return entities.ErrOrderNotFound
	}
	return nil
}

func (r *orderRepo) ListOrders(ctx context.Context, filter entities.OrderFilter) ([]entities.Order, error) {
	b := r.qb.Select(orderColumns...).
		From("orders").
		OrderBy("created_at DESC")

	if filter.Status != "" {
		b = b.Where(sq.Eq{"status": string(filter.Status)})
	}
	if filter.Email != "" || filter.Phone != "" {
		or := sq.Or{}
		if filter.Email != "" {
			or = append(or, sq.Eq{"email": filter.Email})
		}
		if filter.Phone != "" {
			or = append(or, sq.Eq{"phone": filter.Phone})
		}
		b = b.Where(or)
	}

	query, args := b.MustSql()

	var orders []Order
	if err := r.selectContext(ctx, &orders, query, args...); err != nil {
		return nil, fmt.Errorf("failed to select orders: %w", err)
	}
	if len(orders) == 0 {
		return []entities.Order{}, nil
	}

	uids := make([]string, len(orders))
	for i, order := range orders {
		uids[i] = order.OrderID
	}

	// Товарные позиции одним запросом для всех выбранных заказов
	query, args = r.qb.Select(itemColumns...).
		From("order_items").
		Where(sq.Eq{"order_id": uids}).
		OrderBy("id").
		MustSql()

	var items []Item
	if err := r.selectContext(ctx, &items, query, args...); err != nil {
		return nil, fmt.Errorf("failed to select order items: %w", err)
	}
	itemsMap := make(map[string][]Item, len(uids))
	for _, item := range items {
		itemsMap[item.OrderID] = append(itemsMap[item.OrderID], item)
	}

	result := make([]entities.Order, 0, len(orders))
	for _, order := range orders {
		result = append(result, OrderToEntity(order, itemsMap[order.OrderID]))
	}
	return result, nil
}

func (r *orderRepo) CountByStatus(ctx context.Context) (entities.DashboardCounts, error) {
	query, args := r.qb.Select("status", "count(*) AS count").
		From("orders").
		GroupBy("status").
		MustSql()

	var rows []struct {
		Status string `db:"status"`
		Count  int    `db:"count"`
	}
	if err := r.selectContext(ctx, &rows, query, args...); err != nil {
		return entities.DashboardCounts{}, fmt.Errorf("failed to count orders: %w", err)
	}

	counts := entities.DashboardCounts{
		ByStatus: make(map[entities.OrderStatus]int, len(entities.AllStatuses)),
	}
	for _, s := range entities.AllStatuses {
		counts.ByStatus[s] = 0
	}
	for _, row := range rows {
		counts.ByStatus[entities.OrderStatus(row.Status)] = row.Count
		counts.Total += row.Count
	}
	return counts, nil
}
