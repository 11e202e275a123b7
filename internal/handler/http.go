package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/SergeyBogomolovv/order-fulfillment-service/internal/entities"
	"github.com/SergeyBogomolovv/order-fulfillment-service/pkg/utils"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

type OrderService interface {
	CreateOrder(ctx context.Context, order entities.Order) (entities.Order, error)
	GetOrderByID(ctx context.Context, orderID string) (entities.Order, error)
	ConfirmPayment(ctx context.Context, orderID string, status entities.OrderStatus, paymentID string) (entities.Order, error)
	ListOrders(ctx context.Context, filter entities.OrderFilter) ([]entities.Order, error)
	DeleteOrder(ctx context.Context, orderID string) error
	DashboardCounts(ctx context.Context) (entities.DashboardCounts, error)
}

type HTTPHandler struct {
	logger   *slog.Logger
	validate *validator.Validate
	svc      OrderService
}

func NewHTTPHandler(logger *slog.Logger, svc OrderService) *HTTPHandler {
	return &HTTPHandler{
		logger:   logger.With(slog.String("handler", "http")),
		validate: validator.New(),
		svc:      svc,
	}
}

func (h *HTTPHandler) Init(r chi.Router) {
	r.Route("/orders", func(r chi.Router) {
		r.Post("/", h.CreateOrder)
		r.Get("/", h.ListOrders)
		r.Get("/dashboard/counts", h.DashboardCounts)
		r.Get("/user/search", h.SearchOrders)
		r.Get("/filter/status/{status}", h.FilterByStatus)
		r.Get("/{order_id}", h.GetOrderByID)
		r.Put("/{order_id}/status", h.UpdateStatus)
		r.Delete("/{order_id}", h.DeleteOrder)
	})
}

// CreateOrder создаёт заказ.
// @Summary      Создать заказ
// @Description  Создаёт заказ в статусе Pending, orderId генерируется сервером
// @Tags         orders
// @Param        body  body  CreateOrderRequest  true  "Данные заказа"
// @Success      201  {object}  Order
// @Failure      400  {object}  utils.ValidationErrorResponse "Ошибка валидации"
// @Router       /orders [post]
func (h *HTTPHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CreateOrderRequest
	if err := utils.DecodeBody(r, &req); err != nil {
		utils.WriteError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		utils.WriteValidationError(w, err)
		return
	}

	order, err := h.svc.CreateOrder(ctx, CreateOrderRequestToEntity(req))
	if err != nil {
		writeServiceError(ctx, h.logger, w, err)
		return
	}

	utils.WriteJSON(w, OrderEntityToJSON(order), http.StatusCreated)
}

// GetOrderByID возвращает заказ по идентификатору.
// @Summary      Получить заказ
// @Tags         orders
// @Param        order_id  path  string  true  "Бизнес-идентификатор заказа"
// @Success      200  {object}  Order
// @Failure      404  {object}  utils.ErrorResponse "Заказ не найден"
// @Router       /orders/{order_id} [get]
func (h *HTTPHandler) GetOrderByID(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	orderID := chi.URLParam(r, "order_id")

	if err := h.validate.Var(orderID, "required"); err != nil {
		utils.WriteValidationError(w, err)
		return
	}

	order, err := h.svc.GetOrderByID(ctx, orderID)
	if err != nil {
		writeServiceError(ctx, h.logger, w, err)
		return
	}

	utils.WriteJSON(w, OrderEntityToJSON(order), http.StatusOK)
}

// UpdateStatus меняет статус заказа и, при наличии paymentId,
// подтверждает оплату с списанием остатков.
// @Summary      Обновить статус / подтвердить оплату
// @Description  С paymentId: атомарно записывает платёж и списывает остатки по всем позициям. Повторный paymentId отклоняется без побочных эффектов.
// @Tags         orders
// @Param        order_id  path  string               true  "Бизнес-идентификатор заказа"
// @Param        body      body  UpdateStatusRequest  true  "Новый статус и опциональный paymentId"
// @Success      200  {object}  Order
// @Failure      400  {object}  utils.ErrorResponse "Платёж уже обработан или неверный статус"
// @Failure      404  {object}  utils.ErrorResponse "Заказ не найден"
// @Failure      409  {object}  utils.ErrorResponse "Конфликт, можно повторить"
// @Failure      422  {object}  InsufficientStockResponse "Недостаточно остатка"
// @Router       /orders/{order_id}/status [put]
func (h *HTTPHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	orderID := chi.URLParam(r, "order_id")

	var req UpdateStatusRequest
	if err := utils.DecodeBody(r, &req); err != nil {
		utils.WriteError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		utils.WriteValidationError(w, err)
		return
	}

	status := entities.OrderStatus(req.Status)
	if !status.Valid() {
		utils.WriteError(w, "invalid order status", http.StatusBadRequest)
		return
	}

	order, err := h.svc.ConfirmPayment(ctx, orderID, status, req.PaymentID)
	if err != nil {
		writeServiceError(ctx, h.logger, w, err)
		return
	}

	utils.WriteJSON(w, OrderEntityToJSON(order), http.StatusOK)
}

// ListOrders возвращает все заказы, новые первыми.
// @Summary      Список заказов
// @Tags         orders
// @Success      200  {array}  Order
// @Router       /orders [get]
func (h *HTTPHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	h.listWithFilter(w, r, entities.OrderFilter{})
}

// SearchOrders ищет заказы по email или телефону покупателя.
// @Summary      Поиск заказов покупателя
// @Tags         orders
// @Param        email   query  string  false  "Email покупателя"
// @Param        mobile  query  string  false  "Телефон покупателя"
// @Success      200  {array}  Order
// @Failure      400  {object}  utils.ErrorResponse
// @Router       /orders/user/search [get]
func (h *HTTPHandler) SearchOrders(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	mobile := r.URL.Query().Get("mobile")

	if email == "" && mobile == "" {
		utils.WriteError(w, "provide email or mobile", http.StatusBadRequest)
		return
	}

	h.listWithFilter(w, r, entities.OrderFilter{Email: email, Phone: mobile})
}

// FilterByStatus возвращает заказы в заданном статусе.
// @Summary      Заказы по статусу
// @Tags         orders
// @Param        status  path  string  true  "Статус заказа"
// @Success      200  {array}  Order
// @Failure      400  {object}  utils.ErrorResponse
// @Router       /orders/filter/status/{status} [get]
func (h *HTTPHandler) FilterByStatus(w http.ResponseWriter, r *http.Request) {
	status := entities.OrderStatus(chi.URLParam(r, "status"))
	if !status.Valid() {
		utils.WriteError(w, "invalid order status", http.StatusBadRequest)
		return
	}

	h.listWithFilter(w, r, entities.OrderFilter{Status: status})
}

func (h *HTTPHandler) listWithFilter(w http.ResponseWriter, r *http.Request, filter entities.OrderFilter) {
	ctx := r.Context()

	orders, err := h.svc.ListOrders(ctx, filter)
	if err != nil {
		writeServiceError(ctx, h.logger, w, err)
		return
	}

	result := make([]Order, 0, len(orders))
	for _, order := range orders {
		result = append(result, OrderEntityToJSON(order))
	}
	utils.WriteJSON(w, result, http.StatusOK)
}

// DeleteOrder удаляет заказ.
// @Summary      Удалить заказ
// @Tags         orders
// @Param        order_id  path  string  true  "Бизнес-идентификатор заказа"
// @Success      200  {object}  utils.ErrorResponse "Сообщение об удалении"
// @Failure      404  {object}  utils.ErrorResponse
// @Router       /orders/{order_id} [delete]
func (h *HTTPHandler) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	orderID := chi.URLParam(r, "order_id")

	if err := h.svc.DeleteOrder(ctx, orderID); err != nil {
		writeServiceError(ctx, h.logger, w, err)
		return
	}

	utils.WriteJSON(w, map[string]string{"message": "order deleted successfully"}, http.StatusOK)
}

// DashboardCounts возвращает агрегаты по статусам.
// @Summary      Счётчики для дашборда
// @Tags         orders
// @Success      200  {object}  DashboardCounts
// @Router       /orders/dashboard/counts [get]
func (h *HTTPHandler) DashboardCounts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	counts, err := h.svc.DashboardCounts(ctx)
	if err != nil {
		writeServiceError(ctx, h.logger, w, err)
		return
	}

	resp := DashboardCounts{
		TotalOrders:  counts.Total,
		StatusCounts: make(map[string]int, len(counts.ByStatus)),
	}
	for status, count := range counts.ByStatus {
		resp.StatusCounts[string(status)] = count
	}
	utils.WriteJSON(w, resp, http.StatusOK)
}

// InsufficientStockResponse называет товар, которому не хватило остатка
// swagger:model InsufficientStockResponse
type InsufficientStockResponse struct {
	Message   string `json:"message"`
	ProductID string `json:"productId"`
}

func writeServiceError(ctx context.Context, logger *slog.Logger, w http.ResponseWriter, err error) {
	var stockErr *entities.InsufficientStockError

	switch {
	case errors.Is(err, entities.ErrOrderNotFound):
		utils.WriteError(w, "order not found", http.StatusNotFound)
	case errors.Is(err, entities.ErrProductNotFound):
		utils.WriteError(w, "product not found", http.StatusNotFound)
	case errors.Is(err, entities.ErrOrderExists):
		utils.WriteError(w, "order already exists", http.StatusConflict)
	case errors.Is(err, entities.ErrPaymentProcessed):
		utils.WriteError(w, "payment already processed", http.StatusBadRequest)
	case errors.As(err, &stockErr):
		utils.WriteJSON(w, InsufficientStockResponse{
			Message:   "insufficient stock",
			ProductID: stockErr.ProductID,
		}, http.StatusUnprocessableEntity)
	case errors.Is(err, entities.ErrTxConflict):
		utils.WriteError(w, "order is being updated concurrently, retry the request", http.StatusConflict)
	case errors.Is(err, entities.ErrInvalidStatus), errors.Is(err, entities.ErrInvalidOrder):
		utils.WriteError(w, err.Error(), http.StatusBadRequest)
	default:
		logger.ErrorContext(ctx, "internal error", slog.Any("error", err))
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
	}
}
