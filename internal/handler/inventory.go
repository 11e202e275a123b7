package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/SergeyBogomolovv/order-fulfillment-service/internal/entities"
	"github.com/SergeyBogomolovv/order-fulfillment-service/pkg/utils"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

type InventoryService interface {
	GetProduct(ctx context.Context, productID string) (entities.Product, error)
	UpsertProduct(ctx context.Context, p entities.Product) (entities.Product, error)
	SetStock(ctx context.Context, productID string, stock int) (entities.Product, error)
	Restock(ctx context.Context, productID string, quantity int) (entities.Product, error)
}

type InventoryHandler struct {
	logger   *slog.Logger
	validate *validator.Validate
	svc      InventoryService
}

func NewInventoryHandler(logger *slog.Logger, svc InventoryService) *InventoryHandler {
	return &InventoryHandler{
		logger:   logger.With(slog.String("handler", "inventory")),
		validate: validator.New(),
		svc:      svc,
	}
}

func (h *InventoryHandler) Init(r chi.Router) {
	r.Route("/inventory", func(r chi.Router) {
		r.Post("/", h.UpsertProduct)
		r.Get("/{product_id}", h.GetProduct)
		r.Put("/{product_id}/stock", h.SetStock)
	})
}

// GetProduct возвращает остаток по товару.
// @Summary      Остаток товара
// @Tags         inventory
// @Param        product_id  path  string  true  "Идентификатор товара"
// @Success      200  {object}  Product
// @Failure      404  {object}  utils.ErrorResponse
// @Router       /inventory/{product_id} [get]
func (h *InventoryHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	productID := chi.URLParam(r, "product_id")

	product, err := h.svc.GetProduct(ctx, productID)
	if err != nil {
		writeServiceError(ctx, h.logger, w, err)
		return
	}

	utils.WriteJSON(w, ProductEntityToJSON(product), http.StatusOK)
}

// UpsertProduct создаёт или обновляет инвентарную проекцию товара.
// @Summary      Создать/обновить товар
// @Tags         inventory
// @Param        body  body  UpsertProductRequest  true  "Товар"
// @Success      200  {object}  Product
// @Failure      400  {object}  utils.ValidationErrorResponse
// @Router       /inventory [post]
func (h *InventoryHandler) UpsertProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req UpsertProductRequest
	if err := utils.DecodeBody(r, &req); err != nil {
		utils.WriteError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		utils.WriteValidationError(w, err)
		return
	}

	product, err := h.svc.UpsertProduct(ctx, entities.Product{
		ProductID: req.ProductID,
		Title:     req.Title,
		Price:     req.Price,
		Stock:     req.Stock,
	})
	if err != nil {
		writeServiceError(ctx, h.logger, w, err)
		return
	}

	utils.WriteJSON(w, ProductEntityToJSON(product), http.StatusOK)
}

// SetStock выставляет абсолютный остаток товара.
// @Summary      Скорректировать остаток
// @Tags         inventory
// @Param        product_id  path  string           true  "Идентификатор товара"
// @Param        body        body  SetStockRequest  true  "Новый остаток"
// @Success      200  {object}  Product
// @Failure      404  {object}  utils.ErrorResponse
// @Router       /inventory/{product_id}/stock [put]
func (h *InventoryHandler) SetStock(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	productID := chi.URLParam(r, "product_id")

	var req SetStockRequest
	if err := utils.DecodeBody(r, &req); err != nil {
		utils.WriteError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		utils.WriteValidationError(w, err)
		return
	}

	product, err := h.svc.SetStock(ctx, productID, req.Stock)
	if err != nil {
		writeServiceError(ctx, h.logger, w, err)
		return
	}

	utils.WriteJSON(w, ProductEntityToJSON(product), http.StatusOK)
}
