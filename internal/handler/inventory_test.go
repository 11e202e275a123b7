package handler_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/SergeyBogomolovv/order-fulfillment-service/internal/entities"
	"github.com/SergeyBogomolovv/order-fulfillment-service/internal/handler"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
)

type inventoryServiceStub struct {
	getProduct    func(ctx context.Context, productID string) (entities.Product, error)
	upsertProduct func(ctx context.Context, p entities.Product) (entities.Product, error)
	setStock      func(ctx context.Context, productID string, stock int) (entities.Product, error)
	restock       func(ctx context.Context, productID string, quantity int) (entities.Product, error)
}

func (s *inventoryServiceStub) GetProduct(ctx context.Context, productID string) (entities.Product, error) {
	return s.getProduct(ctx, productID)
}

func (s *inventoryServiceStub) UpsertProduct(ctx context.Context, p entities.Product) (entities.Product, error) {
	return s.upsertProduct(ctx, p)
}

func (s *inventoryServiceStub) SetStock(ctx context.Context, productID string, stock int) (entities.Product, error) {
	return s.setStock(ctx, productID, stock)
}

func (s *inventoryServiceStub) Restock(ctx context.Context, productID string, quantity int) (entities.Product, error) {
	return s.restock(ctx, productID, quantity)
}

func newInventoryRouter(svc handler.InventoryService) chi.Router {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	r := chi.NewRouter()
	handler.NewInventoryHandler(logger, svc).Init(r)
	return r
}

func TestInventoryHandler_GetProduct(t *testing.T) {
	svc := &inventoryServiceStub{
		getProduct: func(ctx context.Context, productID string) (entities.Product, error) {
			if productID == "ghost" {
				return entities.Product{}, entities.ErrProductNotFound
			}
			return entities.Product{ProductID: productID, Title: "shirt", Stock: 5}, nil
		},
	}

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/inventory/p1", nil)
	newInventoryRouter(svc).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"stock":5`)

	t.Run("not found", func(t *testing.T) {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/inventory/ghost", nil)
		newInventoryRouter(svc).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
		assert.Contains(t, rr.Body.String(), `"product not found"`)
	})
}

func TestInventoryHandler_UpsertProduct(t *testing.T) {
	svc := &inventoryServiceStub{
		upsertProduct: func(ctx context.Context, p entities.Product) (entities.Product, error) {
			assert.Equal(t, "p1", p.ProductID)
			assert.Equal(t, 10, p.Stock)
			return p, nil
		},
	}

	rr := httptest.NewRecorder()
	body := `{"productId": "p1", "title": "shirt", "price": 499, "stock": 10}`
	req := httptest.NewRequest(http.MethodPost, "/inventory", strings.NewReader(body))
	newInventoryRouter(svc).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"productId":"p1"`)

	t.Run("missing title rejected", func(t *testing.T) {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/inventory", strings.NewReader(`{"productId": "p1"}`))
		newInventoryRouter(svc).ServeHTTP(rr, req)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestInventoryHandler_SetStock(t *testing.T) {
	svc := &inventoryServiceStub{
		setStock: func(ctx context.Context, productID string, stock int) (entities.Product, error) {
			if productID == "ghost" {
				return entities.Product{}, entities.ErrProductNotFound
			}
			return entities.Product{ProductID: productID, Stock: stock}, nil
		},
	}

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/inventory/p1/stock", strings.NewReader(`{"stock": 7}`))
	newInventoryRouter(svc).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"stock":7`)

	t.Run("not found", func(t *testing.T) {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPut, "/inventory/ghost/stock", strings.NewReader(`{"stock": 7}`))
		newInventoryRouter(svc).ServeHTTP(rr, req)
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}
