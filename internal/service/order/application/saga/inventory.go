package saga

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"flashmall/internal/pkg/logger"
)

// InventoryHandler 负责库存占用步骤。
// 逐行条件原子扣减, 任何一行失败都会回补已扣减的行。
type InventoryHandler struct {
	NextHandler
}

func (h *InventoryHandler) Handle(orderCtx *OrderContext) error {
	ctx, span := orderCtx.Tracer.Start(orderCtx.Ctx, "saga.InventoryCommit")
	defer span.End()

	for _, line := range orderCtx.Order.Items {
		itemID, qty := line.ItemID, line.Quantity
		if err := orderCtx.Catalog.CommitStock(ctx, itemID, qty); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "stock commit failed")
			return err
		}

		orderCtx.AddCompensation(func(compCtx context.Context) {
			compCtx, compSpan := orderCtx.Tracer.Start(compCtx, "saga.compensation.ReleaseStock")
			defer compSpan.End()
			compSpan.SetAttributes(attribute.String("item.id", itemID))

			if err := orderCtx.Catalog.ReleaseStock(compCtx, itemID, qty); err != nil {
				compSpan.RecordError(err)
				logger.Ctx(compCtx).Error().Err(err).
					Str("order_id", orderCtx.OrderID).
					Str("item_id", itemID).
					Msg("stock release compensation failed, manual reconciliation required")
			}
		})
	}

	span.AddEvent("all line items committed")
	return h.executeNext(orderCtx)
}
