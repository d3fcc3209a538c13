package saga

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"flashmall/internal/service/order/domain"
	"flashmall/internal/service/order/domain/port"
)

// PlanHandler 负责订单规划: 按输入顺序逐行校验商品、库存、闪购与券,
// 并经定价器产出行快照。此步骤只读, 不占用任何资源。
type PlanHandler struct {
	NextHandler
}

func (h *PlanHandler) Handle(orderCtx *OrderContext) error {
	ctx, span := orderCtx.Tracer.Start(orderCtx.Ctx, "saga.PlanOrder")
	defer span.End()

	if len(orderCtx.Lines) == 0 {
		return domain.ErrEmptyOrder
	}

	// 券整单只查一次, 行级只做适用性判定。
	if orderCtx.VoucherCode != "" {
		voucher, err := orderCtx.Vouchers.FindValidByCode(ctx, orderCtx.VoucherCode)
		if err != nil {
			span.SetStatus(codes.Error, "voucher validation failed")
			return err
		}
		orderCtx.Voucher = voucher
	}

	items := make([]domain.LineItem, 0, len(orderCtx.Lines))
	for _, line := range orderCtx.Lines {
		item, err := orderCtx.Catalog.GetItemOriginal(ctx, line.ItemID)
		if err != nil {
			span.RecordError(err)
			return err
		}
		if item.Stocks < line.Quantity {
			span.SetStatus(codes.Error, "insufficient stock at planning")
			return port.ErrInsufficientStock
		}

		snapshot := domain.LineItem{
			ItemID:         item.ID,
			ItemName:       item.Name,
			Category:       item.Category,
			Quantity:       line.Quantity,
			UnitPriceCents: item.PriceCents,
		}

		// 生效闪购配额足够覆盖整行才用闪购价, 否则整行回退原价,
		// 不做部分拆分。
		allocation, err := orderCtx.FlashSales.ActiveAllocation(ctx, item.ID, orderCtx.Now)
		if err != nil {
			span.RecordError(err)
			return err
		}
		if allocation != nil && allocation.Remaining >= line.Quantity {
			snapshot.FlashSaleID = allocation.CampaignID
			snapshot.FlashSalePercent = allocation.DiscountPercent
		}

		if orderCtx.Voucher != nil {
			if err := orderCtx.Vouchers.CheckEligibility(ctx, orderCtx.Voucher.ID, item.Category, line.Quantity); err != nil {
				span.SetStatus(codes.Error, "voucher not applicable to line")
				return err
			}
			snapshot.VoucherApplied = true
			snapshot.VoucherPercent = orderCtx.Voucher.DiscountPercent
		}

		quote := domain.ResolveLinePrice(snapshot.UnitPriceCents, snapshot.Quantity, snapshot.FlashSalePercent, snapshot.VoucherPercent)
		snapshot.OriginCents = quote.OriginCents
		snapshot.TotalCents = quote.TotalCents
		items = append(items, snapshot)
	}

	order, err := domain.NewOrder(orderCtx.OrderID, orderCtx.UserID, orderCtx.UserName, items)
	if err != nil {
		return err
	}
	if orderCtx.Voucher != nil {
		order.VoucherID = orderCtx.Voucher.ID
		order.VoucherCode = orderCtx.Voucher.Code
	}
	orderCtx.Order = order

	span.SetAttributes(
		attribute.Int("order.lines", len(items)),
		attribute.Int64("order.total_cents", order.TotalPriceCents),
	)
	return h.executeNext(orderCtx)
}
