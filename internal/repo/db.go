package repo

import (
	"context"
	"database/sql"

	"github.com/SergeyBogomolovv/order-fulfillment-service/pkg/trm"

	"github.com/jmoiron/sqlx"
)

// querier выполняет запросы внутри транзакции из контекста,
// либо напрямую через пул, если транзакция не открыта.
type querier struct {
	db *sqlx.DB
}

func (q querier) execContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	if tx := trm.ExtractTx(ctx); tx != nil {
		return tx.ExecContext(ctx, query, args...)
	}
	return q.db.ExecContext(ctx, query, args...)
}

func (q querier) getContext(ctx context.Context, dest any, query string, args ...any) error {
	if tx := trm.ExtractTx(ctx); tx != nil {
		return tx.GetContext(ctx, dest, query, args...)
	}
	return q.db.GetContext(ctx, dest, query, args...)
}

func (q querier) selectContext(ctx context.Context, dest any, query string, args ...any) error {
	if tx := trm.ExtractTx(ctx); tx != nil {
		return tx.SelectContext(ctx, dest, query, args...)
	}
	return q.db.SelectContext(ctx, dest, query, args...)
}
