package port

import (
	"context"
	"errors"
	"time"
)

var ErrFlashSaleExhausted = errors.New("flash sale allocation exhausted")

// FlashAllocation 是某商品在当前生效闪购档期中的配额快照。
type FlashAllocation struct {
	CampaignID      string
	CampaignName    string
	DiscountPercent int
	Remaining       int64
}

// FlashSaleRegistry 是闪购档期登记簿的出站端口。
type FlashSaleRegistry interface {
	// ActiveAllocation 查 now 时刻生效档期里该商品的配额。
	// 无生效档期或档期不含该商品时返回 (nil, nil)。
	ActiveAllocation(ctx context.Context, itemID string, now time.Time) (*FlashAllocation, error)

	// Allocate 条件原子调整配额, 不足时返回 ErrFlashSaleExhausted。
	// delta 为负表示占用, 为正表示回补。
	Allocate(ctx context.Context, campaignID, itemID string, delta int64) error
}
