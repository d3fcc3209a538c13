package interfaces

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/pkg/errors"

	"flashmall/internal/pkg/httpx"
	"flashmall/internal/service/voucher/application"
	"flashmall/internal/service/voucher/domain"
)

// VoucherHandler 封装了折扣券服务的 HTTP 处理器。
// 券的管理面全部是管理员操作; 按码校验留给订单链路内部调用。
type VoucherHandler struct {
	service *application.VoucherService
}

func NewVoucherHandler(service *application.VoucherService) *VoucherHandler {
	return &VoucherHandler{service: service}
}

// RegisterRoutes 在 ServeMux 上注册所有路由。
func (h *VoucherHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /vouchers", h.handleCreate)
	mux.HandleFunc("GET /vouchers", h.handleGetList)
	mux.HandleFunc("GET /vouchers/{voucherId}", h.handleGet)
	mux.HandleFunc("PATCH /vouchers/{voucherId}", h.handleUpdate)
	mux.HandleFunc("DELETE /vouchers/{voucherId}", h.handleRemove)
}

func (h *VoucherHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := httpx.ExtractTraceContext(r)
	if !httpx.RequireAdmin(w, r) {
		return
	}

	var req application.CreateVoucherRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	voucher, err := h.service.Create(ctx, &req)
	if err != nil {
		writeVoucherError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, voucher)
}

func (h *VoucherHandler) handleGetList(w http.ResponseWriter, r *http.Request) {
	ctx := httpx.ExtractTraceContext(r)
	if !httpx.RequireAdmin(w, r) {
		return
	}

	q := &application.ListVouchersQuery{
		Query: httpx.Pagination(r),
		Name:  r.URL.Query().Get("nameVoucher"),
		Code:  r.URL.Query().Get("code"),
	}
	if raw := r.URL.Query().Get("discount"); raw != "" {
		if discount, err := strconv.Atoi(raw); err == nil {
			q.Discount = discount
		}
	}
	if raw := r.URL.Query().Get("startTime"); raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			q.StartTime = t
		}
	}

	page, err := h.service.GetList(ctx, q)
	if err != nil {
		writeVoucherError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, page)
}

func (h *VoucherHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := httpx.ExtractTraceContext(r)
	if !httpx.RequireAdmin(w, r) {
		return
	}

	voucher, err := h.service.Get(ctx, r.PathValue("voucherId"))
	if err != nil {
		writeVoucherError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, voucher)
}

func (h *VoucherHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := httpx.ExtractTraceContext(r)
	if !httpx.RequireAdmin(w, r) {
		return
	}

	var req application.UpdateVoucherRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	voucher, err := h.service.Update(ctx, r.PathValue("voucherId"), &req)
	if err != nil {
		writeVoucherError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, voucher)
}

func (h *VoucherHandler) handleRemove(w http.ResponseWriter, r *http.Request) {
	ctx := httpx.ExtractTraceContext(r)
	if !httpx.RequireAdmin(w, r) {
		return
	}

	if err := h.service.Remove(ctx, r.PathValue("voucherId")); err != nil {
		writeVoucherError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

// writeVoucherError 根据错误类型返回不同的 HTTP 状态码。
func writeVoucherError(w http.ResponseWriter, err error) {
	var statusCode int
	switch {
	case errors.Is(err, domain.ErrVoucherNotFound):
		statusCode = http.StatusNotFound
	case errors.Is(err, domain.ErrVoucherCodeConflict):
		statusCode = http.StatusConflict
	case errors.Is(err, domain.ErrInvalidDiscount),
		errors.Is(err, domain.ErrInvalidWindow):
		statusCode = http.StatusBadRequest
	default:
		statusCode = http.StatusInternalServerError
	}
	http.Error(w, err.Error(), statusCode)
}
