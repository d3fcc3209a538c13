package interfaces

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/pkg/errors"

	"flashmall/internal/pkg/httpx"
	"flashmall/internal/service/catalog/application"
	"flashmall/internal/service/catalog/domain"
)

// ItemHandler 封装了商品目录服务的 HTTP 处理器。
type ItemHandler struct {
	service *application.ItemService
}

func NewItemHandler(service *application.ItemService) *ItemHandler {
	return &ItemHandler{service: service}
}

// RegisterRoutes 在 ServeMux 上注册所有路由。
func (h *ItemHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /items", h.handleCreate)
	mux.HandleFunc("GET /items", h.handleGetList)
	mux.HandleFunc("GET /items/{itemId}", h.handleGet)
	mux.HandleFunc("PATCH /items/{itemId}", h.handleUpdate)
	mux.HandleFunc("DELETE /items/{itemId}", h.handleRemove)
}

func (h *ItemHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := httpx.ExtractTraceContext(r)
	if !httpx.RequireAdmin(w, r) {
		return
	}

	var req application.CreateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	item, err := h.service.Create(ctx, &req)
	if err != nil {
		writeItemError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, item)
}

func (h *ItemHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := httpx.ExtractTraceContext(r)

	view, err := h.service.Get(ctx, r.PathValue("itemId"))
	if err != nil {
		writeItemError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, view)
}

func (h *ItemHandler) handleGetList(w http.ResponseWriter, r *http.Request) {
	ctx := httpx.ExtractTraceContext(r)

	q := &application.ListItemsQuery{
		Query:    httpx.Pagination(r),
		ItemName: r.URL.Query().Get("itemName"),
		Category: r.URL.Query().Get("category"),
	}
	if raw := r.URL.Query().Get("price"); raw != "" {
		if price, err := strconv.ParseInt(raw, 10, 64); err == nil {
			q.PriceCents = &price
		}
	}

	page, err := h.service.GetList(ctx, q)
	if err != nil {
		writeItemError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, page)
}

func (h *ItemHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := httpx.ExtractTraceContext(r)
	if !httpx.RequireAdmin(w, r) {
		return
	}

	var req application.UpdateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	item, err := h.service.Update(ctx, r.PathValue("itemId"), &req)
	if err != nil {
		writeItemError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, item)
}

func (h *ItemHandler) handleRemove(w http.ResponseWriter, r *http.Request) {
	ctx := httpx.ExtractTraceContext(r)
	if !httpx.RequireAdmin(w, r) {
		return
	}

	if err := h.service.Remove(ctx, r.PathValue("itemId")); err != nil {
		writeItemError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

// writeItemError 根据错误类型返回不同的 HTTP 状态码。
func writeItemError(w http.ResponseWriter, err error) {
	var statusCode int
	switch {
	case errors.Is(err, domain.ErrItemNotFound):
		statusCode = http.StatusNotFound
	case errors.Is(err, domain.ErrItemNameConflict),
		errors.Is(err, domain.ErrBarCodeConflict):
		statusCode = http.StatusConflict
	case errors.Is(err, domain.ErrItemHasSales):
		statusCode = http.StatusForbidden
	default:
		statusCode = http.StatusInternalServerError
	}
	http.Error(w, err.Error(), statusCode)
}
