// Package httpx 汇集接口层共用的请求解析与响应写出助手。
package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"flashmall/internal/pkg/identity"
	"flashmall/internal/pkg/pagination"
)

// ExtractTraceContext 从请求头恢复上游的追踪上下文。
func ExtractTraceContext(r *http.Request) context.Context {
	propagator := otel.GetTextMapPropagator()
	return propagator.Extract(r.Context(), propagation.HeaderCarrier(r.Header))
}

// Identity 解析网关注入的身份头。认证在网关完成, 这里只做解析。
func Identity(r *http.Request) identity.Identity {
	return identity.Identity{
		UserID:   r.Header.Get("X-User-Id"),
		UserName: r.Header.Get("X-User-Name"),
		Role:     identity.Role(r.Header.Get("X-User-Role")),
	}
}

// RequireAdmin 非管理员直接写出 401 并返回 false。
func RequireAdmin(w http.ResponseWriter, r *http.Request) bool {
	if !Identity(r).IsAdmin() {
		http.Error(w, "admin role required", http.StatusUnauthorized)
		return false
	}
	return true
}

// Pagination 解析分页查询参数, 缺省值由 Query.Normalize 补齐。
func Pagination(r *http.Request) pagination.Query {
	q := pagination.Query{
		SortBy:   r.URL.Query().Get("sortBy"),
		SortType: r.URL.Query().Get("sortType"),
	}
	if page, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil {
		q.Page = page
	}
	if perPage, err := strconv.Atoi(r.URL.Query().Get("perPage")); err == nil {
		q.PerPage = perPage
	}
	return q
}

func WriteJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
