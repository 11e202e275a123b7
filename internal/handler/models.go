package handler

import (
	"time"

	"github.com/SergeyBogomolovv/order-fulfillment-service/internal/entities"
)

// Customer — контактные данные покупателя на момент заказа
type Customer struct {
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName,omitempty"`
	Email     string `json:"email" validate:"required,email"`
	Phone     string `json:"phone,omitempty"`
}

// ShippingAddress — адрес доставки
type ShippingAddress struct {
	Address string `json:"address" validate:"required"`
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	ZipCode string `json:"zipCode,omitempty"`
	Country string `json:"country,omitempty"`
}

// Item — позиция заказа, снапшот товара
type Item struct {
	ProductID string  `json:"productId" validate:"required"`
	Title     string  `json:"title" validate:"required"`
	Category  string  `json:"category,omitempty"`
	Price     float64 `json:"price" validate:"gte=0"`
	Size      string  `json:"size,omitempty"`
	Quantity  int     `json:"quantity" validate:"gte=1"`
}

// Payment — состояние оплаты заказа
type Payment struct {
	Method    string `json:"method,omitempty"`
	Status    string `json:"status,omitempty"`
	PaymentID string `json:"paymentId,omitempty"`
}

// Order — заказ в ответах API
type Order struct {
	OrderID         string          `json:"orderId"`
	Status          string          `json:"status"`
	User            Customer        `json:"user"`
	ShippingAddress ShippingAddress `json:"shippingAddress"`
	Items           []Item          `json:"items"`
	TotalAmount     float64         `json:"totalAmount"`
	Payment         *Payment        `json:"payment,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// CreateOrderRequest — тело POST /orders
type CreateOrderRequest struct {
	User            Customer        `json:"user" validate:"required"`
	ShippingAddress ShippingAddress `json:"shippingAddress" validate:"required"`
	Items           []Item          `json:"items" validate:"required,min=1,dive"`
	TotalAmount     float64         `json:"totalAmount" validate:"gte=0"`
}

// UpdateStatusRequest — тело PUT /orders/{order_id}/status.
// При наличии paymentId выполняется платёжный сценарий с декрементом остатков.
type UpdateStatusRequest struct {
	Status    string `json:"status" validate:"required"`
	PaymentID string `json:"paymentId,omitempty"`
}

// SetStockRequest — тело PUT /inventory/{product_id}/stock
type SetStockRequest struct {
	Stock int `json:"stock" validate:"gte=0"`
}

// UpsertProductRequest — тело POST /inventory
type UpsertProductRequest struct {
	ProductID string  `json:"productId" validate:"required"`
	Title     string  `json:"title" validate:"required"`
	Price     float64 `json:"price" validate:"gte=0"`
	Stock     int     `json:"stock" validate:"gte=0"`
}

// Product — инвентарная проекция в ответах API
type Product struct {
	ProductID string    `json:"productId"`
	Title     string    `json:"title"`
	Price     float64   `json:"price"`
	Stock     int       `json:"stock"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// DashboardCounts — агрегаты по статусам для админки
type DashboardCounts struct {
	TotalOrders  int            `json:"totalOrders"`
	StatusCounts map[string]int `json:"statusCounts"`
}

func ItemEntityToJSON(i entities.Item) Item {
	return Item{
		ProductID: i.ProductID,
		Title:     i.Title,
		Category:  i.Category,
		Price:     i.Price,
		Size:      i.Size,
		Quantity:  i.Quantity,
	}
}

func ItemJSONToEntity(i Item) entities.Item {
	return entities.Item{
		ProductID: i.ProductID,
		Title:     i.Title,
		Category:  i.Category,
		Price:     i.Price,
		Size:      i.Size,
		Quantity:  i.Quantity,
	}
}

func OrderEntityToJSON(o entities.Order) Order {
	items := make([]Item, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, ItemEntityToJSON(it))
	}

	order := Order{
		OrderID: o.OrderID,
		Status:  string(o.Status),
		User: Customer{
			FirstName: o.Customer.FirstName,
			LastName:  o.Customer.LastName,
			Email:     o.Customer.Email,
			Phone:     o.Customer.Phone,
		},
		ShippingAddress: ShippingAddress{
			Address: o.ShippingAddress.Address,
			City:    o.ShippingAddress.City,
			State:   o.ShippingAddress.State,
			ZipCode: o.ShippingAddress.ZipCode,
			Country: o.ShippingAddress.Country,
		},
		Items:       items,
		TotalAmount: o.TotalAmount,
		CreatedAt:   o.CreatedAt,
		UpdatedAt:   o.UpdatedAt,
	}

	if o.Payment.Processed() {
		order.Payment = &Payment{
			Method:    o.Payment.Method,
			Status:    o.Payment.Status,
			PaymentID: o.Payment.PaymentID,
		}
	}

	return order
}

func CreateOrderRequestToEntity(req CreateOrderRequest) entities.Order {
	items := make([]entities.Item, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, ItemJSONToEntity(it))
	}

	return entities.Order{
		Customer: entities.Customer{
			FirstName: req.User.FirstName,
			LastName:  req.User.LastName,
			Email:     req.User.Email,
			Phone:     req.User.Phone,
		},
		ShippingAddress: entities.ShippingAddress{
			Address: req.ShippingAddress.Address,
			City:    req.ShippingAddress.City,
			State:   req.ShippingAddress.State,
			ZipCode: req.ShippingAddress.ZipCode,
			Country: req.ShippingAddress.Country,
		},
		Items:       items,
		TotalAmount: req.TotalAmount,
	}
}

func ProductEntityToJSON(p entities.Product) Product {
	return Product{
		ProductID: p.ProductID,
		Title:     p.Title,
		Price:     p.Price,
		Stock:     p.Stock,
		UpdatedAt: p.UpdatedAt,
	}
}
