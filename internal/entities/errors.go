package entities

import (
	"errors"
	"fmt"
)

var (
	ErrOrderNotFound   = errors.New("order not found")
	ErrProductNotFound = errors.New("product not found")
	ErrOrderExists     = errors.New("order already exists")
	ErrInvalidOrder    = errors.New("invalid order")
	ErrInvalidStatus   = errors.New("invalid order status")

	// ErrPaymentProcessed — к заказу уже привязан paymentId.
	// Повторная обработка того же платежа отклоняется без побочных эффектов.
	ErrPaymentProcessed = errors.New("payment already processed")

	// ErrTxConflict — транзакция проиграла гонку сериализации.
	// Безопасно повторить тот же вызов с тем же paymentId.
	ErrTxConflict = errors.New("transaction conflict")

	ErrInsufficientStock = errors.New("insufficient stock")
)

// InsufficientStockError указывает товар, которому не хватило остатка.
// Сопоставляется с ErrInsufficientStock через errors.Is.
type InsufficientStockError struct {
	ProductID string
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s", e.ProductID)
}

func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}
