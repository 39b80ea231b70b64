package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/PravdaST/testograph-sync-backend/internal/api/dto"
	"github.com/PravdaST/testograph-sync-backend/internal/domain/classify"
	"github.com/PravdaST/testograph-sync-backend/internal/domain/order"
	"github.com/PravdaST/testograph-sync-backend/internal/infrastructure/storage"
)

// OrdersHandler serves the mirrored order book.
type OrdersHandler struct {
	*Base
}

// NewOrdersHandler creates a new orders handler.
func NewOrdersHandler(repo storage.Repository) *OrdersHandler {
	return &OrdersHandler{
		Base: NewBase(repo),
	}
}

// List handles GET /api/orders - returns a paginated list of mirrored orders.
func (h *OrdersHandler) List(w http.ResponseWriter, r *http.Request) {
	filters := storage.OrderFilters{
		FulfillmentStatus: r.URL.Query().Get("fulfillment_status"),
		Limit:             ParseIntParam(r, "limit", 50),
		Offset:            ParseIntParam(r, "offset", 0),
	}

	result, err := h.repo.ListOrders(filters)
	if err != nil {
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}

	response := dto.OrderListResponse{
		Orders:     make([]dto.OrderResponse, 0, len(result.Orders)),
		TotalCount: result.TotalCount,
		Limit:      result.Limit,
		Offset:     result.Offset,
	}
	for _, rec := range result.Orders {
		response.Orders = append(response.Orders, toOrderResponse(rec))
	}

	h.WriteJSON(w, http.StatusOK, response)
}

// Get handles GET /api/orders/{id} - returns a single mirrored order.
func (h *OrdersHandler) Get(w http.ResponseWriter, r *http.Request) {
	idStr := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("invalid order ID"))
		return
	}

	rec, err := h.repo.GetOrder(id)
	if err != nil {
		h.WriteError(w, http.StatusNotFound, dto.NotFoundError("order"))
		return
	}

	h.WriteJSON(w, http.StatusOK, toOrderResponse(rec))
}

// toOrderResponse converts a domain record to an API response.
func toOrderResponse(rec *order.Record) dto.OrderResponse {
	response := dto.OrderResponse{
		ID:                rec.ID,
		Number:            rec.Number,
		Email:             rec.Email,
		CustomerName:      rec.CustomerName,
		TotalPrice:        rec.TotalPrice.StringFixed(2),
		Currency:          rec.Currency,
		FinancialStatus:   string(rec.FinancialStatus),
		FulfillmentStatus: string(rec.FulfillmentStatus),
		TrackingNumber:    rec.TrackingNumber,
		TrackingURL:       rec.TrackingURL,
		TrackingCompany:   rec.TrackingCompany,
		Phone:             rec.Phone,
		Products:          make([]dto.ProductResponse, 0, len(rec.Products)),
		CreatedAt:         rec.CreatedAt.Format(time.RFC3339),
	}

	for _, p := range rec.Products {
		response.Products = append(response.Products, dto.ProductResponse{
			Title:          p.Title,
			SKU:            p.SKU,
			Quantity:       p.Quantity,
			Classification: string(p.Classification),
			Capsules:       classify.CapsuleCount(p.Classification),
		})
	}

	if rec.ShippingAddress != nil {
		response.ShippingAddress = &dto.AddressResponse{
			Name:     rec.ShippingAddress.Name,
			Address1: rec.ShippingAddress.Address1,
			City:     rec.ShippingAddress.City,
			Zip:      rec.ShippingAddress.Zip,
			Country:  rec.ShippingAddress.Country,
			Phone:    rec.ShippingAddress.Phone,
		}
	}

	if rec.PaidAt != nil {
		paidAt := rec.PaidAt.Format(time.RFC3339)
		response.PaidAt = &paidAt
	}

	return response
}
