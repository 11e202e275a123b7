package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/SergeyBogomolovv/order-fulfillment-service/internal/entities"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
)

var productColumns = []string{
	"product_id", "title", "price", "stock", "created_at", "updated_at",
}

type inventoryRepo struct {
	querier
	qb sq.StatementBuilderType
}

func NewInventoryRepo(db *sqlx.DB) *inventoryRepo {
	return &inventoryRepo{
		querier: querier{db: db},
		qb:      sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (r *inventoryRepo) GetProduct(ctx context.Context, productID string) (entities.Product, error) {
	query, args := r.qb.Select(productColumns...).
		From("products").
		Where(sq.Eq{"product_id": productID}).
		MustSql()

	var product Product
	err := r.getContext(ctx, &product, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return entities.Product{}, entities.ErrProductNotFound
	}
	if err != nil {
		return entities.Product{}, fmt.Errorf("failed to get product: %w", err)
	}
	return ProductToEntity(product), nil
}

// DecrementStock — атомарный условный декремент: строка меняется
// только при stock >= quantity, иначе остаток не затрагивается.
// Внутри транзакции проигравший конкурент ждёт блокировку строки
// и перечитывает уже уменьшенный остаток.
func (r *inventoryRepo) DecrementStock(ctx context.Context, productID string, quantity int) error {
	query, args := r.qb.Update("products").
		Set("stock", sq.Expr("stock - ?", quantity)).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"product_id": productID}).
		Where(sq.GtOrEq{"stock": quantity}).
		MustSql()

	res, err := r.execContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to decrement stock: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to decrement stock: %w", err)
	}
	if affected > 0 {
		return nil
	}

	// Ноль строк: либо товара нет, либо остатка не хватает.
	var exists bool
	query, args = r.qb.Select("true").
		From("products").
		Where(sq.Eq{"product_id": productID}).
		MustSql()
	err = r.getContext(ctx, &exists, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return entities.ErrProductNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to check product: %w", err)
	}
	return &entities.InsufficientStockError{ProductID: productID}
}

func (r *inventoryRepo) IncrementStock(ctx context.Context, productID string, quantity int) error {
	query, args := r.qb.Update("products").
		Set("stock", sq.Expr("stock + ?", quantity)).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"product_id": productID}).
		MustSql()

	res, err := r.execContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to increment stock: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to increment stock: %w", err)
	}
	if affected == 0 {
		return entities.ErrProductNotFound
	}
	return nil
}

func (r *inventoryRepo) UpsertProduct(ctx context.Context, p entities.Product) error {
	query, args := r.qb.Insert("products").
		Columns("product_id", "title", "price", "stock").
		Values(p.ProductID, p.Title, p.Price, p.Stock).
		Suffix("ON CONFLICT (product_id) DO UPDATE SET title = EXCLUDED.title, price = EXCLUDED.price, stock = EXCLUDED.stock, updated_at = now()").
		MustSql()

	if _, err := r.execContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to upsert product: %w", err)
	}
	return nil
}

func (r *inventoryRepo) SetStock(ctx context.Context, productID string, stock int) error {
	query, args := r.qb.Update("products").
		Set("stock", stock).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"product_id": productID}).
		MustSql()

	res, err := r.execContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to set stock: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to set stock: %w", err)
	}
	if affected == 0 {
		return entities.ErrProductNotFound
	}
	return nil
}
