package entities

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"math/rand"
	"time"
)

type OrderStatus string

const (
	StatusPending         OrderStatus = "Pending"
	StatusConfirmed       OrderStatus = "Confirmed"
	StatusProcessing      OrderStatus = "Processing"
	StatusPacked          OrderStatus = "Packed"
	StatusShipped         OrderStatus = "Shipped"
	StatusInTransit       OrderStatus = "In Transit"
	StatusOutForDelivery  OrderStatus = "Out for Delivery"
	StatusDelivered       OrderStatus = "Delivered"
	StatusCancelled       OrderStatus = "Cancelled"
	StatusReturned        OrderStatus = "Returned"
	StatusRefundCompleted OrderStatus = "Refund Completed"
)

// AllStatuses — полный набор статусов, порядок фиксирован для отчётов.
var AllStatuses = []OrderStatus{
	StatusPending,
	StatusConfirmed,
	StatusProcessing,
	StatusPacked,
	StatusShipped,
	StatusInTransit,
	StatusOutForDelivery,
	StatusDelivered,
	StatusCancelled,
	StatusReturned,
	StatusRefundCompleted,
}

func (s OrderStatus) Valid() bool {
	for _, known := range AllStatuses {
		if s == known {
			return true
		}
	}
	return false
}

type Customer struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
}

type ShippingAddress struct {
	Address string
	City    string
	State   string
	ZipCode string
	Country string
}

// Item — снапшот товара на момент оформления заказа.
// Цена и количество не следуют за изменениями каталога.
type Item struct {
	ProductID string
	Title     string
	Category  string
	Price     float64
	Size      string
	Quantity  int
}

type Payment struct {
	Method    string
	Status    string
	PaymentID string
}

// Processed сообщает, привязан ли к заказу платёж.
// PaymentID пишется один раз и больше никогда не меняется.
func (p Payment) Processed() bool {
	return p.PaymentID != ""
}

type Order struct {
	ID      int64
	OrderID string
	Status  OrderStatus

	Customer        Customer
	ShippingAddress ShippingAddress
	Items           []Item
	TotalAmount     float64

	Payment Payment

	CreatedAt time.Time
	UpdatedAt time.Time
}

// OrderFilter — параметры выборки для списочных эндпоинтов.
// Пустой фильтр возвращает все заказы.
type OrderFilter struct {
	Status OrderStatus
	Email  string
	Phone  string
}

type DashboardCounts struct {
	Total    int
	ByStatus map[OrderStatus]int
}

// NewOrderID генерирует бизнес-идентификатор заказа.
// Формат ORD-<unix millis>-<случайный суффикс> сохранён для совместимости.
func NewOrderID() string {
	return fmt.Sprintf("ORD-%d-%04d", time.Now().UnixMilli(), rand.Intn(10000))
}

func (o *Order) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)
	if err := enc.Encode(o); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (o *Order) Unmarshal(data []byte) error {
	buf := bytes.NewBuffer(data)
	dec := gob.NewDecoder(buf)
	if err := dec.Decode(o); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidOrder, err)
	}
	return nil
}

func init() {
	gob.Register(Order{})
	gob.Register(Customer{})
	gob.Register(ShippingAddress{})
	gob.Register(Payment{})
	gob.Register(Item{})
}
