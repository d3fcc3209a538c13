package adapter

import (
	"context"
	"errors"
	"time"

	flashsaleapp "flashmall/internal/service/flashsale/application"
	flashsaledomain "flashmall/internal/service/flashsale/domain"
	"flashmall/internal/service/order/domain/port"
)

// FlashSaleAdapter 把闪购服务适配成订单引擎的 FlashSaleRegistry 端口。
// 订单链路走权威读路径, 不经过缓存, 保证回退定价的判定是确定性的。
type FlashSaleAdapter struct {
	flashSales *flashsaleapp.FlashSaleService
}

func NewFlashSaleAdapter(flashSales *flashsaleapp.FlashSaleService) *FlashSaleAdapter {
	return &FlashSaleAdapter{flashSales: flashSales}
}

func (a *FlashSaleAdapter) ActiveAllocation(ctx context.Context, itemID string, now time.Time) (*port.FlashAllocation, error) {
	allocation, err := a.flashSales.ActiveAllocation(ctx, itemID, now)
	if err != nil {
		return nil, err
	}
	if allocation == nil {
		return nil, nil
	}
	return &port.FlashAllocation{
		CampaignID:      allocation.CampaignID,
		CampaignName:    allocation.CampaignName,
		DiscountPercent: allocation.DiscountPercent,
		Remaining:       allocation.Remaining,
	}, nil
}

func (a *FlashSaleAdapter) Allocate(ctx context.Context, campaignID, itemID string, delta int64) error {
	err := a.flashSales.Allocate(ctx, campaignID, itemID, delta)
	if errors.Is(err, flashsaledomain.ErrAllocationExhausted) {
		return port.ErrFlashSaleExhausted
	}
	return err
}
