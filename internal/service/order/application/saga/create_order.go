package saga

import (
	"fmt"
)

// CreateOrderHandler 负责持久化订单。所有资源都已占用成功,
// 到这里订单以 PLACED 状态落库; 落库失败沿补偿链回滚占用。
type CreateOrderHandler struct {
	NextHandler
}

func (h *CreateOrderHandler) Handle(orderCtx *OrderContext) error {
	ctx, span := orderCtx.Tracer.Start(orderCtx.Ctx, "saga.CreateOrder")
	defer span.End()

	if err := orderCtx.OrderRepo.Create(ctx, orderCtx.Order); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to save placed order: %w", err)
	}
	span.AddEvent("placed order saved to DB")

	return h.executeNext(orderCtx)
}
