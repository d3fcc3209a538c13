package saga

import (
	"go.opentelemetry.io/otel/attribute"

	"flashmall/internal/pkg/logger"
)

// NotificationHandler 是 Saga 流程的最后一步，负责发送下单成功通知。
// 通知是非关键路径: 发送失败只记告警, 不影响已成单的订单。
type NotificationHandler struct {
	NextHandler
}

func (h *NotificationHandler) Handle(orderCtx *OrderContext) error {
	ctx, span := orderCtx.Tracer.Start(orderCtx.Ctx, "saga.Notification")
	defer span.End()

	span.SetAttributes(
		attribute.String("messaging.system", "kafka"),
		attribute.String("order.id", orderCtx.Order.ID),
	)

	if err := orderCtx.Notifier.SendOrderPlaced(ctx, orderCtx.Order); err != nil {
		logger.Ctx(ctx).Warn().Err(err).Str("order_id", orderCtx.Order.ID).Msg("failed to publish order placed notification")
		span.RecordError(err)
	}

	return h.executeNext(orderCtx)
}
