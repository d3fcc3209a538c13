package interfaces

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/pkg/errors"

	"flashmall/internal/pkg/httpx"
	"flashmall/internal/service/flashsale/application"
	"flashmall/internal/service/flashsale/domain"
)

// CampaignHandler 封装了闪购服务的 HTTP 处理器。
type CampaignHandler struct {
	service *application.FlashSaleService
}

func NewCampaignHandler(service *application.FlashSaleService) *CampaignHandler {
	return &CampaignHandler{service: service}
}

// RegisterRoutes 在 ServeMux 上注册所有路由。
func (h *CampaignHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /flashsales", h.handleCreate)
	mux.HandleFunc("GET /flashsales", h.handleGetList)
	mux.HandleFunc("GET /flashsales/current", h.handleGetCurrent)
	mux.HandleFunc("GET /flashsales/{flashSaleId}", h.handleGet)
	mux.HandleFunc("PATCH /flashsales/{flashSaleId}", h.handleUpdate)
	mux.HandleFunc("DELETE /flashsales/{flashSaleId}", h.handleRemove)
}

func (h *CampaignHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := httpx.ExtractTraceContext(r)
	if !httpx.RequireAdmin(w, r) {
		return
	}

	var req application.CreateCampaignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	campaign, err := h.service.Create(ctx, &req)
	if err != nil {
		writeCampaignError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, campaign)
}

func (h *CampaignHandler) handleGetList(w http.ResponseWriter, r *http.Request) {
	ctx := httpx.ExtractTraceContext(r)
	if !httpx.RequireAdmin(w, r) {
		return
	}

	q := &application.ListCampaignsQuery{
		Query:  httpx.Pagination(r),
		Name:   r.URL.Query().Get("name"),
		ItemID: r.URL.Query().Get("itemId"),
	}
	if raw := r.URL.Query().Get("startTime"); raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			q.StartTime = &t
		}
	}
	if raw := r.URL.Query().Get("endTime"); raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			q.EndTime = &t
		}
	}

	page, err := h.service.GetList(ctx, q)
	if err != nil {
		writeCampaignError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, page)
}

// handleGetCurrent 返回当前生效的档期, 无生效档期时返回 null。
func (h *CampaignHandler) handleGetCurrent(w http.ResponseWriter, r *http.Request) {
	ctx := httpx.ExtractTraceContext(r)

	campaign, err := h.service.FindLive(ctx, time.Now())
	if err != nil {
		writeCampaignError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, campaign)
}

func (h *CampaignHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := httpx.ExtractTraceContext(r)

	campaign, err := h.service.Get(ctx, r.PathValue("flashSaleId"))
	if err != nil {
		writeCampaignError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, campaign)
}

func (h *CampaignHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := httpx.ExtractTraceContext(r)
	if !httpx.RequireAdmin(w, r) {
		return
	}

	var req application.UpdateCampaignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	campaign, err := h.service.Update(ctx, r.PathValue("flashSaleId"), &req)
	if err != nil {
		writeCampaignError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, campaign)
}

func (h *CampaignHandler) handleRemove(w http.ResponseWriter, r *http.Request) {
	ctx := httpx.ExtractTraceContext(r)
	if !httpx.RequireAdmin(w, r) {
		return
	}

	if err := h.service.Remove(ctx, r.PathValue("flashSaleId")); err != nil {
		writeCampaignError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

// writeCampaignError 根据错误类型返回不同的 HTTP 状态码。
func writeCampaignError(w http.ResponseWriter, err error) {
	var statusCode int
	switch {
	case errors.Is(err, domain.ErrCampaignNotFound):
		statusCode = http.StatusNotFound
	case errors.Is(err, domain.ErrWindowConflict):
		statusCode = http.StatusConflict
	case errors.Is(err, domain.ErrInvalidWindow),
		errors.Is(err, domain.ErrInvalidDiscount):
		statusCode = http.StatusBadRequest
	default:
		statusCode = http.StatusInternalServerError
	}
	http.Error(w, err.Error(), statusCode)
}
