package saga

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"flashmall/internal/pkg/logger"
)

// FlashSaleHandler 负责闪购配额占用步骤。
// 规划阶段判定走闪购价的行在这里条件原子扣减配额; 规划与占用之间
// 配额被并发耗尽时整单失败并回滚, 不会以原价偷偷成交闪购定价的行。
type FlashSaleHandler struct {
	NextHandler
}

func (h *FlashSaleHandler) Handle(orderCtx *OrderContext) error {
	ctx, span := orderCtx.Tracer.Start(orderCtx.Ctx, "saga.FlashSaleAllocate")
	defer span.End()

	for _, line := range orderCtx.Order.Items {
		if line.FlashSaleID == "" {
			continue
		}
		campaignID, itemID, qty := line.FlashSaleID, line.ItemID, line.Quantity

		if err := orderCtx.FlashSales.Allocate(ctx, campaignID, itemID, -qty); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "flash sale allocation failed")
			return err
		}

		orderCtx.AddCompensation(func(compCtx context.Context) {
			compCtx, compSpan := orderCtx.Tracer.Start(compCtx, "saga.compensation.RestoreFlashSale")
			defer compSpan.End()
			compSpan.SetAttributes(
				attribute.String("campaign.id", campaignID),
				attribute.String("item.id", itemID),
			)

			if err := orderCtx.FlashSales.Allocate(compCtx, campaignID, itemID, qty); err != nil {
				compSpan.RecordError(err)
				logger.Ctx(compCtx).Error().Err(err).
					Str("order_id", orderCtx.OrderID).
					Str("campaign_id", campaignID).
					Msg("flash sale restore compensation failed, manual reconciliation required")
			}
		})
	}

	return h.executeNext(orderCtx)
}
