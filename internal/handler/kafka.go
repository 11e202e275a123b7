package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/SergeyBogomolovv/order-fulfillment-service/internal/config"
	"github.com/SergeyBogomolovv/order-fulfillment-service/internal/entities"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

type PaymentConfirmer interface {
	ConfirmPayment(ctx context.Context, orderID string, status entities.OrderStatus, paymentID string) (entities.Order, error)
}

// PaymentEvent — событие об успешном платеже от платёжного шлюза.
// Платёж уже верифицирован выше по потоку, paymentId уникален.
type PaymentEvent struct {
	EventID   string `json:"event_id,omitempty"`
	OrderID   string `json:"order_id" validate:"required"`
	PaymentID string `json:"payment_id" validate:"required"`
	Status    string `json:"status,omitempty"`
}

type kafkaHandler struct {
	dlq       *kafka.Writer
	reader    *kafka.Reader
	logger    *slog.Logger
	validate  *validator.Validate
	confirmer PaymentConfirmer
}

func NewKafkaHandler(logger *slog.Logger, cfg config.Kafka, confirmer PaymentConfirmer) *kafkaHandler {
	return &kafkaHandler{
		logger: logger.With(slog.String("handler", "kafka")),
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers: cfg.Brokers,
			GroupID: cfg.GroupID,
			Topic:   cfg.Topic,
			MaxWait: cfg.ReaderMaxWait,
		}),
		dlq: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Balancer:     &kafka.LeastBytes{},
			BatchTimeout: cfg.BatchTimeout,
		},
		validate:  validator.New(),
		confirmer: confirmer,
	}
}

func (h *kafkaHandler) Consume(ctx context.Context) {
	for {
		m, err := h.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) {
				break
			}
			h.logger.Error("failed to fetch message", slog.Any("error", err))
			continue
		}

		paymentsInProgress.Inc()
		start := time.Now()

		if err := h.handlePaymentEvent(ctx, m); err != nil {
			paymentsFailed.Inc()
			h.logger.Error("failed to handle payment event", slog.Any("error", err))

			// В библиотеке уже есть retry
			if err := h.WriteToDLQ(ctx, m); err != nil {
				paymentsInProgress.Dec()
				h.logger.Error("failed to write message to DLQ", slog.Any("error", err))
				continue
			}
			paymentsDLQ.Inc()
		} else {
			paymentsProcessed.Inc()
		}

		paymentProcessingDuration.Observe(time.Since(start).Seconds())
		paymentsInProgress.Dec()

		if err := h.reader.CommitMessages(ctx, m); err != nil {
			commitErrors.Inc()
			h.logger.Error("failed to commit message", slog.Any("error", err))
		}
	}
}

func (h *kafkaHandler) handlePaymentEvent(ctx context.Context, m kafka.Message) error {
	var event PaymentEvent
	if err := json.Unmarshal(m.Value, &event); err != nil {
		return fmt.Errorf("failed to unmarshal payment event: %w", err)
	}

	if err := h.validate.Struct(event); err != nil {
		return fmt.Errorf("invalid payment event: %w", err)
	}

	status := entities.OrderStatus(event.Status)
	if event.Status != "" && !status.Valid() {
		return fmt.Errorf("%w: %s", entities.ErrInvalidStatus, event.Status)
	}

	_, err := h.confirmer.ConfirmPayment(ctx, event.OrderID, status, event.PaymentID)

	// Повторная доставка уже обработанного платежа — штатная ситуация,
	// guard гарантирует отсутствие побочных эффектов
	if errors.Is(err, entities.ErrPaymentProcessed) {
		h.logger.Debug("payment event replayed",
			slog.String("order_id", event.OrderID),
			slog.String("payment_id", event.PaymentID),
		)
		return nil
	}
	return err
}

func (h *kafkaHandler) WriteToDLQ(ctx context.Context, m kafka.Message) error {
	m.Topic = fmt.Sprintf("%s-dlq", m.Topic)
	m.Headers = append(m.Headers, kafka.Header{Key: "dlq-event-id", Value: []byte(uuid.NewString())})
	return h.dlq.WriteMessages(ctx, m)
}

func (h *kafkaHandler) Close() error {
	if err := h.reader.Close(); err != nil {
		return err
	}
	return h.dlq.Close()
}
