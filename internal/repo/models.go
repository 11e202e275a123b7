package repo

import (
	"database/sql"
	"time"

	"github.com/SergeyBogomolovv/order-fulfillment-service/internal/entities"
)

type Order struct {
	ID      int64  `db:"id"`
	OrderID string `db:"order_id"`
	Status  string `db:"status"`

	FirstName sql.NullString `db:"first_name"`
	LastName  sql.NullString `db:"last_name"`
	Email     sql.NullString `db:"email"`
	Phone     sql.NullString `db:"phone"`

	ShipAddress sql.NullString `db:"ship_address"`
	ShipCity    sql.NullString `db:"ship_city"`
	ShipState   sql.NullString `db:"ship_state"`
	ShipZip     sql.NullString `db:"ship_zip"`
	ShipCountry sql.NullString `db:"ship_country"`

	TotalAmount float64 `db:"total_amount"`

	PaymentMethod sql.NullString `db:"payment_method"`
	PaymentStatus sql.NullString `db:"payment_status"`
	PaymentID     sql.NullString `db:"payment_id"`

	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

type Item struct {
	ID        int64          `db:"id"`
	OrderID   string         `db:"order_id"`
	ProductID string         `db:"product_id"`
	Title     string         `db:"title"`
	Category  sql.NullString `db:"category"`
	Price     float64        `db:"price"`
	Size      sql.NullString `db:"size"`
	Quantity  int            `db:"quantity"`
}

type Product struct {
	ProductID string    `db:"product_id"`
	Title     string    `db:"title"`
	Price     float64   `db:"price"`
	Stock     int       `db:"stock"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func ItemToEntity(i Item) entities.Item {
	return entities.Item{
		ProductID: i.ProductID,
		Title:     i.Title,
		Category:  nullStringToString(i.Category),
		Price:     i.Price,
		Size:      nullStringToString(i.Size),
		Quantity:  i.Quantity,
	}
}

func ProductToEntity(p Product) entities.Product {
	return entities.Product{
		ProductID: p.ProductID,
		Title:     p.Title,
		Price:     p.Price,
		Stock:     p.Stock,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

func OrderToEntity(o Order, items []Item) entities.Order {
	order := entities.Order{
		ID:      o.ID,
		OrderID: o.OrderID,
		Status:  entities.OrderStatus(o.Status),
		Customer: entities.Customer{
			FirstName: nullStringToString(o.FirstName),
			LastName:  nullStringToString(o.LastName),
			Email:     nullStringToString(o.Email),
			Phone:     nullStringToString(o.Phone),
		},
		ShippingAddress: entities.ShippingAddress{
			Address: nullStringToString(o.ShipAddress),
			City:    nullStringToString(o.ShipCity),
			State:   nullStringToString(o.ShipState),
			ZipCode: nullStringToString(o.ShipZip),
			Country: nullStringToString(o.ShipCountry),
		},
		TotalAmount: o.TotalAmount,
		Payment: entities.Payment{
			Method:    nullStringToString(o.PaymentMethod),
			Status:    nullStringToString(o.PaymentStatus),
			PaymentID: nullStringToString(o.PaymentID),
		},
		CreatedAt: o.CreatedAt,
		UpdatedAt: o.UpdatedAt,
	}

	if len(items) > 0 {
		order.Items = make([]entities.Item, 0, len(items))
		for _, it := range items {
			order.Items = append(order.Items, ItemToEntity(it))
		}
	}

	return order
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullStringToString(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}
