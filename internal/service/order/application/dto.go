// internal/service/order/application/dto.go
package application

import (
	"time"

	"flashmall/internal/pkg/pagination"
)

type OrderLineRequest struct {
	ItemID   string `json:"itemId"`
	Quantity int64  `json:"quantity"`
}

type CreateOrderRequest struct {
	Items       []OrderLineRequest `json:"items"`
	VoucherCode string             `json:"voucherCode,omitempty"`
}

// ListOrdersQuery 列表过滤条件。非管理员会被强制限定到本人订单。
type ListOrdersQuery struct {
	pagination.Query
	OrderID     string    `json:"orderId"`
	Status      string    `json:"status"`
	UserID      string    `json:"userId"`
	UserName    string    `json:"userName"`
	ItemName    string    `json:"itemName"`
	CreatedFrom time.Time `json:"createdFrom"`
	CreatedTo   time.Time `json:"createdTo"`
}
