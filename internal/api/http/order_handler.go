package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"rentwheels-backend/internal/domain"
	"rentwheels-backend/internal/security"
	"rentwheels-backend/internal/service"
)

type OrderHandler struct {
	orders service.OrderService
}

func NewOrderHandler(orders service.OrderService) *OrderHandler {
	return &OrderHandler{orders: orders}
}

type createOrderRequest struct {
	CustomerID    int32           `json:"customer_id"`
	SubCategoryID int32           `json:"sub_category_id"`
	CityID        int32           `json:"city_id"`
	DateFrom      string          `json:"date_from"` // YYYY-MM-DD
	DateTo        string          `json:"date_to"`
	VehiclesCount int32           `json:"vehicles_count"`
	Total         decimal.Decimal `json:"total"`
	Notes         string          `json:"notes"`
	PassportImage string          `json:"passport_image"`
	HotelName     string          `json:"hotel_name"`
	HotelAddress  string          `json:"hotel_address"`
	HotelPhone    string          `json:"hotel_phone"`
	IsUrgent      bool            `json:"is_urgent"`
	PaymentMethod string          `json:"payment_method"`
}

type createOrderResponse struct {
	Order       *domain.Order `json:"order"`
	ApproveLink string        `json:"approve_link,omitempty"`
}

func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())

	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	dateFrom, err := parseDate(req.DateFrom)
	if err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "date_from must be YYYY-MM-DD")
		return
	}
	dateTo, err := parseDate(req.DateTo)
	if err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "date_to must be YYYY-MM-DD")
		return
	}

	result, err := h.orders.CreateOrder(r.Context(), principal, service.CreateOrderInput{
		CustomerID:    req.CustomerID,
		SubCategoryID: req.SubCategoryID,
		CityID:        req.CityID,
		DateFrom:      dateFrom,
		DateTo:        dateTo,
		VehiclesCount: req.VehiclesCount,
		ClientTotal:   req.Total,
		Notes:         req.Notes,
		PassportImage: req.PassportImage,
		HotelName:     req.HotelName,
		HotelAddress:  req.HotelAddress,
		HotelPhone:    req.HotelPhone,
		IsUrgent:      req.IsUrgent,
		PaymentMethod: domain.PaymentMethod(req.PaymentMethod),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, createOrderResponse{Order: result.Order, ApproveLink: result.ApproveLink})
}

type confirmOrderRequest struct {
	VehicleIDs []int32 `json:"vehicle_ids"`
}

func (h *OrderHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())
	orderID, err := pathID(r, "id")
	if err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "invalid order id")
		return
	}

	var req confirmOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	order, err := h.orders.ConfirmOrder(r.Context(), principal, orderID, req.VehicleIDs)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (h *OrderHandler) MarkOnWay(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.orders.MarkOnWay)
}

func (h *OrderHandler) MarkCustomerReceived(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.orders.MarkCustomerReceived)
}

func (h *OrderHandler) Complete(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.orders.CompleteOrder)
}

func (h *OrderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.orders.CancelOrder)
}

func (h *OrderHandler) transition(w http.ResponseWriter, r *http.Request,
	op func(ctx context.Context, actor *security.Principal, orderID int32) (*domain.Order, error)) {
	principal, _ := PrincipalFromContext(r.Context())
	orderID, err := pathID(r, "id")
	if err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "invalid order id")
		return
	}

	order, err := op(r.Context(), principal, orderID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

type refundRequest struct {
	Outcome string `json:"outcome"` // SUCCESS or FAILED
}

func (h *OrderHandler) ProcessRefund(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())
	orderID, err := pathID(r, "id")
	if err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "invalid order id")
		return
	}

	var req refundRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	refundable, err := h.orders.ProcessRefund(r.Context(), principal, orderID, domain.RefundState(req.Outcome))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, refundable)
}

func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())
	orderID, err := pathID(r, "id")
	if err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "invalid order id")
		return
	}

	order, err := h.orders.GetOrder(r.Context(), principal, orderID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

type listOrdersResponse struct {
	Orders []domain.Order `json:"orders"`
	Total  int32          `json:"total"`
}

func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())

	customerID := principal.UserID
	if v := r.URL.Query().Get("customer_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 32)
		if err != nil {
			writeErrorMessage(w, http.StatusBadRequest, "invalid customer_id")
			return
		}
		customerID = int32(id)
	}

	page := queryInt32(r, "page", 1)
	pageSize := queryInt32(r, "page_size", 20)
	state := r.URL.Query().Get("state")

	orders, total, err := h.orders.ListOrders(r.Context(), principal, customerID, state, page, pageSize)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listOrdersResponse{Orders: orders, Total: total})
}

func pathID(r *http.Request, name string) (int32, error) {
	id, err := strconv.ParseInt(mux.Vars(r)[name], 10, 32)
	if err != nil {
		return 0, err
	}
	return int32(id), nil
}

func queryInt32(r *http.Request, name string, def int32) int32 {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 32)
	if err != nil {
		return def
	}
	return int32(n)
}

func parseDate(s string) (time.Time, error) {
	return time.Parse("2006-01-02", s)
}
