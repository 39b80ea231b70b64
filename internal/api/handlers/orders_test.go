package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PravdaST/testograph-sync-backend/internal/api/dto"
	"github.com/PravdaST/testograph-sync-backend/internal/domain/order"
	"github.com/PravdaST/testograph-sync-backend/internal/infrastructure/storage"
)

func seedOrders(repo *storage.MockRepository) {
	repo.Seed(
		&order.Record{
			ID:                1,
			Number:            "#1001",
			CustomerName:      "Georgi Dimitrov",
			TotalPrice:        decimal.RequireFromString("129.00"),
			Currency:          "BGN",
			FinancialStatus:   order.FinancialPaid,
			FulfillmentStatus: order.FulfillmentDelivered,
			TrackingNumber:    "SPD1",
			Products: []order.Product{
				{Title: "Testograph - 30 капсули", SKU: "TG-01", Quantity: 1, Classification: order.ClassFull},
			},
			CreatedAt: time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC),
		},
		&order.Record{
			ID:                2,
			Number:            "#1002",
			CustomerName:      "Ivan Petrov",
			TotalPrice:        decimal.RequireFromString("59.00"),
			Currency:          "BGN",
			FinancialStatus:   order.FinancialUnpaid,
			FulfillmentStatus: order.FulfillmentFulfilled,
			CreatedAt:         time.Date(2026, 8, 2, 9, 0, 0, 0, time.UTC),
		},
	)
}

func TestOrdersHandler_List(t *testing.T) {
	repo := storage.NewMockRepository()
	seedOrders(repo)
	handler := NewOrdersHandler(repo)

	req := httptest.NewRequest(http.MethodGet, "/api/orders", nil)
	rec := httptest.NewRecorder()
	handler.List(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var response dto.OrderListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, 2, response.TotalCount)
	require.Len(t, response.Orders, 2)
	assert.Equal(t, "#1002", response.Orders[0].Number, "newest order first")
	assert.Equal(t, "129.00", response.Orders[1].TotalPrice)
}

func TestOrdersHandler_ListFiltersByFulfillmentStatus(t *testing.T) {
	repo := storage.NewMockRepository()
	seedOrders(repo)
	handler := NewOrdersHandler(repo)

	req := httptest.NewRequest(http.MethodGet, "/api/orders?fulfillment_status=delivered", nil)
	rec := httptest.NewRecorder()
	handler.List(rec, req)

	var response dto.OrderListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	require.Len(t, response.Orders, 1)
	assert.Equal(t, "#1001", response.Orders[0].Number)
}

func TestOrdersHandler_Get(t *testing.T) {
	repo := storage.NewMockRepository()
	seedOrders(repo)

	router := chi.NewRouter()
	router.Get("/api/orders/{id}", NewOrdersHandler(repo).Get)

	req := httptest.NewRequest(http.MethodGet, "/api/orders/1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var response dto.OrderResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, int64(1), response.ID)
	assert.Equal(t, "Georgi Dimitrov", response.CustomerName)
	require.Len(t, response.Products, 1)
	assert.Equal(t, "full", response.Products[0].Classification)
	assert.Equal(t, 30, response.Products[0].Capsules, "full product carries a month of capsules")
}

func TestOrdersHandler_GetNotFound(t *testing.T) {
	router := chi.NewRouter()
	router.Get("/api/orders/{id}", NewOrdersHandler(storage.NewMockRepository()).Get)

	req := httptest.NewRequest(http.MethodGet, "/api/orders/99", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestOrdersHandler_GetInvalidID(t *testing.T) {
	router := chi.NewRouter()
	router.Get("/api/orders/{id}", NewOrdersHandler(storage.NewMockRepository()).Get)

	req := httptest.NewRequest(http.MethodGet, "/api/orders/abc", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
