package adapter

import (
	"context"
	"time"

	"flashmall/internal/service/catalog/port"
	flashsaleapp "flashmall/internal/service/flashsale/application"
)

// PromotionAdapter 把闪购服务适配成商品目录的 PromotionLookup 端口。
// 商品读路径允许短暂陈旧, 走缓存优先的查询。
type PromotionAdapter struct {
	flashSales *flashsaleapp.FlashSaleService
}

func NewPromotionAdapter(flashSales *flashsaleapp.FlashSaleService) *PromotionAdapter {
	return &PromotionAdapter{flashSales: flashSales}
}

func (a *PromotionAdapter) ActiveAllocation(ctx context.Context, itemID string, now time.Time) (*port.ItemPromotion, error) {
	allocation, err := a.flashSales.CachedAllocation(ctx, itemID, now)
	if err != nil {
		return nil, err
	}
	if allocation == nil {
		return nil, nil
	}
	return &port.ItemPromotion{
		CampaignID:      allocation.CampaignID,
		CampaignName:    allocation.CampaignName,
		DiscountPercent: allocation.DiscountPercent,
		Remaining:       allocation.Remaining,
	}, nil
}
