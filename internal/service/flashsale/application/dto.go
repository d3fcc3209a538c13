package application

import (
	"time"

	"flashmall/internal/pkg/pagination"
)

// ItemAllocationRequest 档期内单个商品的配置。
type ItemAllocationRequest struct {
	ItemID            string `json:"itemId"`
	FlashSaleQuantity int64  `json:"flashSaleQuantity"`
	DiscountPercent   int    `json:"discount"`
}

// CreateCampaignRequest 创建闪购档期。
type CreateCampaignRequest struct {
	Name      string                  `json:"name"`
	StartTime time.Time               `json:"startTime"`
	EndTime   time.Time               `json:"endTime"`
	Items     []ItemAllocationRequest `json:"items"`
}

// UpdateCampaignRequest 部分更新档期，nil 字段保持不变。
type UpdateCampaignRequest struct {
	Name      *string                 `json:"name"`
	Status    *string                 `json:"status"`
	StartTime *time.Time              `json:"startTime"`
	EndTime   *time.Time              `json:"endTime"`
	Items     []ItemAllocationRequest `json:"items"`
}

// ListCampaignsQuery 档期列表过滤条件。
type ListCampaignsQuery struct {
	pagination.Query
	Name      string     `json:"name"`
	ItemID    string     `json:"itemID"`
	StartTime *time.Time `json:"startTime"`
	EndTime   *time.Time `json:"endTime"`
}
