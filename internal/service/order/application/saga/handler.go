package saga

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/trace"

	"flashmall/internal/pkg/logger"
	"flashmall/internal/service/order/domain"
	"flashmall/internal/service/order/domain/port"
)

// LineRequest 是下单请求里的一个商品行。
type LineRequest struct {
	ItemID   string
	Quantity int64
}

// OrderContext 在 Saga 流程中传递上下文数据。
// 所有外部依赖都是抽象端口, 链上每一步占用资源后注册对应的补偿操作,
// 任何一步失败都会按注册的逆序执行补偿, 保证对外效果全有或全无。
type OrderContext struct {
	Ctx    context.Context
	Tracer trace.Tracer

	// 请求输入
	OrderID     string
	UserID      string
	UserName    string
	Lines       []LineRequest
	VoucherCode string
	Now         time.Time

	// 依赖出站端口
	Catalog    port.ItemCatalog
	FlashSales port.FlashSaleRegistry
	Vouchers   port.VoucherLedger
	Notifier   port.NotificationProducer
	OrderRepo  domain.OrderRepository

	// 规划阶段产出
	Order   *domain.Order
	Voucher *port.Voucher

	compensations []func(ctx context.Context)
	compLock      sync.Mutex
}

// AddCompensation 头插补偿函数, TriggerCompensation 时按注册逆序执行。
func (c *OrderContext) AddCompensation(comp func(ctx context.Context)) {
	c.compLock.Lock()
	defer c.compLock.Unlock()
	c.compensations = append([]func(context.Context){comp}, c.compensations...)
}

func (c *OrderContext) TriggerCompensation(ctx context.Context) {
	c.compLock.Lock()
	defer c.compLock.Unlock()
	logger.Ctx(ctx).Info().
		Str("order_id", c.OrderID).
		Int("compensations", len(c.compensations)).
		Msg("executing saga compensation functions")
	for _, comp := range c.compensations {
		comp(ctx)
	}
	c.compensations = nil
}

type Handler interface {
	SetNext(handler Handler) Handler
	Handle(orderCtx *OrderContext) error
}

type NextHandler struct {
	next Handler
}

func (h *NextHandler) SetNext(handler Handler) Handler {
	h.next = handler
	return handler
}

func (h *NextHandler) executeNext(orderCtx *OrderContext) error {
	if h.next != nil {
		return h.next.Handle(orderCtx)
	}
	return nil
}
