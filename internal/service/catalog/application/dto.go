package application

import "flashmall/internal/pkg/pagination"

// CreateItemRequest 创建商品。初始库存 stocks 取自 quantity。
type CreateItemRequest struct {
	Name       string `json:"name"`
	BarCode    string `json:"barCode"`
	Category   string `json:"category"`
	PriceCents int64  `json:"price"`
	Quantity   int64  `json:"quantity"`
}

// UpdateItemRequest 部分更新商品，nil 字段保持不变。
type UpdateItemRequest struct {
	Name       *string `json:"name"`
	BarCode    *string `json:"barCode"`
	Category   *string `json:"category"`
	PriceCents *int64  `json:"price"`
	Stocks     *int64  `json:"stocks"`
}

// ListItemsQuery 列表过滤条件。
type ListItemsQuery struct {
	pagination.Query
	ItemName   string `json:"itemName"`
	Category   string `json:"category"`
	PriceCents *int64 `json:"price"`
}
