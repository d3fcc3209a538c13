package port

import (
	"context"
	"time"
)

// ItemPromotion 是闪购服务对单个商品给出的当前优惠。
type ItemPromotion struct {
	CampaignID      string
	CampaignName    string
	DiscountPercent int
	Remaining       int64
}

// PromotionLookup 是商品读路径对闪购注册表的出站端口。
// 实现方保证同一时刻最多只有一个生效的闪购档期。
type PromotionLookup interface {
	ActiveAllocation(ctx context.Context, itemID string, now time.Time) (*ItemPromotion, error)
}
