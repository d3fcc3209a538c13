package saga

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"flashmall/internal/pkg/logger"
)

// VoucherHandler 负责券核销步骤。
// 无论订单有多少行命中折扣, 整单只核销一次。
type VoucherHandler struct {
	NextHandler
}

func (h *VoucherHandler) Handle(orderCtx *OrderContext) error {
	if orderCtx.Voucher == nil {
		return h.executeNext(orderCtx)
	}

	ctx, span := orderCtx.Tracer.Start(orderCtx.Ctx, "saga.VoucherRedeem")
	defer span.End()

	voucherID := orderCtx.Voucher.ID
	span.SetAttributes(attribute.String("voucher.id", voucherID))

	if err := orderCtx.Vouchers.Redeem(ctx, voucherID); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "voucher redeem failed")
		return err
	}

	orderCtx.AddCompensation(func(compCtx context.Context) {
		compCtx, compSpan := orderCtx.Tracer.Start(compCtx, "saga.compensation.RestoreVoucher")
		defer compSpan.End()

		if err := orderCtx.Vouchers.Restore(compCtx, voucherID); err != nil {
			compSpan.RecordError(err)
			logger.Ctx(compCtx).Error().Err(err).
				Str("order_id", orderCtx.OrderID).
				Str("voucher_id", voucherID).
				Msg("voucher restore compensation failed, manual reconciliation required")
		}
	})

	return h.executeNext(orderCtx)
}
