package interfaces

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/pkg/errors"

	"flashmall/internal/pkg/httpx"
	"flashmall/internal/service/order/application"
	"flashmall/internal/service/order/domain"
	"flashmall/internal/service/order/domain/port"
)

// OrderHandler 封装了订单引擎的 HTTP 处理器。
type OrderHandler struct {
	service *application.OrderService
}

func NewOrderHandler(service *application.OrderService) *OrderHandler {
	return &OrderHandler{service: service}
}

// RegisterRoutes 在 ServeMux 上注册所有路由。
func (h *OrderHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /orders", h.handleCreate)
	mux.HandleFunc("GET /orders", h.handleGetList)
	mux.HandleFunc("GET /orders/{orderId}", h.handleGet)
	mux.HandleFunc("POST /orders/{orderId}/cancel", h.handleCancel)
	mux.HandleFunc("DELETE /orders/{orderId}", h.handleRemove)
}

func (h *OrderHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := httpx.ExtractTraceContext(r)

	requester := httpx.Identity(r)
	if requester.UserID == "" {
		http.Error(w, "authenticated user required", http.StatusUnauthorized)
		return
	}

	var req application.CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	order, err := h.service.Create(ctx, requester, &req)
	if err != nil {
		writeOrderError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, order)
}

func (h *OrderHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := httpx.ExtractTraceContext(r)

	order, err := h.service.Get(ctx, httpx.Identity(r), r.PathValue("orderId"))
	if err != nil {
		writeOrderError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, order)
}

func (h *OrderHandler) handleGetList(w http.ResponseWriter, r *http.Request) {
	ctx := httpx.ExtractTraceContext(r)

	q := &application.ListOrdersQuery{
		Query:    httpx.Pagination(r),
		OrderID:  r.URL.Query().Get("orderId"),
		Status:   r.URL.Query().Get("status"),
		UserID:   r.URL.Query().Get("userId"),
		UserName: r.URL.Query().Get("userName"),
		ItemName: r.URL.Query().Get("itemName"),
	}
	if raw := r.URL.Query().Get("createdFrom"); raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			q.CreatedFrom = t
		}
	}
	if raw := r.URL.Query().Get("createdTo"); raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			q.CreatedTo = t
		}
	}

	page, err := h.service.GetList(ctx, httpx.Identity(r), q)
	if err != nil {
		writeOrderError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, page)
}

func (h *OrderHandler) handleCancel(w http.ResponseWriter, r *http.Request) {
	ctx := httpx.ExtractTraceContext(r)

	order, err := h.service.Cancel(ctx, httpx.Identity(r), r.PathValue("orderId"))
	if err != nil {
		writeOrderError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, order)
}

func (h *OrderHandler) handleRemove(w http.ResponseWriter, r *http.Request) {
	ctx := httpx.ExtractTraceContext(r)

	if err := h.service.Remove(ctx, httpx.Identity(r), r.PathValue("orderId")); err != nil {
		writeOrderError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// writeOrderError 根据错误类型返回不同的 HTTP 状态码。
func writeOrderError(w http.ResponseWriter, err error) {
	var statusCode int
	switch {
	case errors.Is(err, domain.ErrOrderNotFound),
		errors.Is(err, port.ErrItemNotFound):
		statusCode = http.StatusNotFound
	case errors.Is(err, domain.ErrForbidden):
		statusCode = http.StatusForbidden
	case errors.Is(err, domain.ErrAlreadyFinal),
		errors.Is(err, port.ErrInsufficientStock),
		errors.Is(err, port.ErrFlashSaleExhausted),
		errors.Is(err, port.ErrVoucherExhausted):
		statusCode = http.StatusConflict
	case errors.Is(err, domain.ErrEmptyOrder),
		errors.Is(err, domain.ErrInvalidQuantity),
		errors.Is(err, port.ErrVoucherInvalid),
		errors.Is(err, port.ErrVoucherNotApplicable):
		statusCode = http.StatusBadRequest
	default:
		statusCode = http.StatusInternalServerError
	}
	http.Error(w, err.Error(), statusCode)
}
