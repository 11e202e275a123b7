package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

const (
	apiURL        = "http://localhost:9000"
	paymentsTopic = "payments"
)

type item struct {
	ProductID string  `json:"productId"`
	Title     string  `json:"title"`
	Category  string  `json:"category"`
	Price     float64 `json:"price"`
	Size      string  `json:"size"`
	Quantity  int     `json:"quantity"`
}

type createOrderRequest struct {
	User struct {
		FirstName string `json:"firstName"`
		LastName  string `json:"lastName"`
		Email     string `json:"email"`
		Phone     string `json:"phone"`
	} `json:"user"`
	ShippingAddress struct {
		Address string `json:"address"`
		City    string `json:"city"`
		State   string `json:"state"`
		ZipCode string `json:"zipCode"`
		Country string `json:"country"`
	} `json:"shippingAddress"`
	Items       []item  `json:"items"`
	TotalAmount float64 `json:"totalAmount"`
}

type paymentEvent struct {
	EventID   string `json:"event_id"`
	OrderID   string `json:"order_id"`
	PaymentID string `json:"payment_id"`
	Status    string `json:"status"`
}

var products = []item{
	{ProductID: "tshirt-black", Title: "Black T-Shirt", Category: "tshirts", Price: 499, Size: "M"},
	{ProductID: "jeans-slim", Title: "Slim Jeans", Category: "jeans", Price: 1299, Size: "32"},
	{ProductID: "hoodie-grey", Title: "Grey Hoodie", Category: "hoodies", Price: 999, Size: "L"},
	{ProductID: "sneakers-white", Title: "White Sneakers", Category: "shoes", Price: 2499, Size: "42"},
}

func seedProducts() error {
	for _, p := range products {
		body, _ := json.Marshal(map[string]any{
			"productId": p.ProductID,
			"title":     p.Title,
			"price":     p.Price,
			"stock":     100 + rand.Intn(400),
		})
		resp, err := http.Post(apiURL+"/inventory", "application/json", bytes.NewReader(body))
		if err != nil {
			return err
		}
		resp.Body.Close()
		log.Println("product seeded", p.ProductID, resp.Status)
	}
	return nil
}

func randomOrder() createOrderRequest {
	var req createOrderRequest
	req.User.FirstName = "User"
	req.User.LastName = fmt.Sprintf("%d", rand.Intn(1000))
	req.User.Email = fmt.Sprintf("user%d@example.com", rand.Intn(1000))
	req.User.Phone = fmt.Sprintf("9%09d", rand.Intn(999999999))
	req.ShippingAddress.Address = fmt.Sprintf("Street %d", rand.Intn(100))
	req.ShippingAddress.City = "Bengaluru"
	req.ShippingAddress.State = "KA"
	req.ShippingAddress.ZipCode = fmt.Sprintf("%06d", rand.Intn(999999))
	req.ShippingAddress.Country = "IN"

	numItems := 1 + rand.Intn(3)
	for i := 0; i < numItems; i++ {
		p := products[rand.Intn(len(products))]
		p.Quantity = 1 + rand.Intn(3)
		req.Items = append(req.Items, p)
		req.TotalAmount += p.Price * float64(p.Quantity)
	}
	return req
}

func createOrder() (string, error) {
	body, _ := json.Marshal(randomOrder())
	resp, err := http.Post(apiURL+"/orders", "application/json", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	var created struct {
		OrderID string `json:"orderId"`
	}
	if err := json.Unmarshal(data, &created); err != nil {
		return "", err
	}
	if created.OrderID == "" {
		return "", fmt.Errorf("unexpected response: %s", data)
	}
	return created.OrderID, nil
}

func main() {
	writer := &kafka.Writer{
		Addr:  kafka.TCP("localhost:9092"),
		Topic: paymentsTopic,
	}
	defer writer.Close()

	if err := seedProducts(); err != nil {
		log.Fatalln("failed to seed products:", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	ticker := time.NewTicker(2 * time.Second)
	for {
		select {
		case <-ticker.C:
			orderID, err := createOrder()
			if err != nil {
				log.Println("failed to create order:", err)
				continue
			}
			log.Println("order created", orderID)

			event := paymentEvent{
				EventID:   uuid.NewString(),
				OrderID:   orderID,
				PaymentID: "pay_" + uuid.NewString(),
				Status:    "Confirmed",
			}
			data, _ := json.Marshal(event)
			if err := writer.WriteMessages(ctx, kafka.Message{Value: data}); err != nil {
				log.Println("failed to write payment event:", err)
				continue
			}
			log.Println("payment event sent", event.PaymentID)

			// иногда дублируем событие, повтор должен отфильтроваться
			if rand.Intn(4) == 0 {
				writer.WriteMessages(ctx, kafka.Message{Value: data})
				log.Println("payment event duplicated", event.PaymentID)
			}
		case <-ctx.Done():
			return
		}
	}
}
