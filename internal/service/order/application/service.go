// internal/service/order/application/service.go
package application

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"flashmall/internal/pkg/identity"
	"flashmall/internal/pkg/logger"
	"flashmall/internal/pkg/pagination"
	"flashmall/internal/service/order/application/saga"
	"flashmall/internal/service/order/domain"
	"flashmall/internal/service/order/domain/port"
)

const (
	reversalRetries = 3
	reversalBackoff = 100 * time.Millisecond
)

// OrderService 只关注业务流程编排: 创建走补偿式 Saga 链,
// 取消走条件状态流转加并发资源回补。
type OrderService struct {
	orderRepo  domain.OrderRepository
	catalog    port.ItemCatalog
	flashSales port.FlashSaleRegistry
	vouchers   port.VoucherLedger
	notifier   port.NotificationProducer
	alerts     port.AlertProducer
	tracer     trace.Tracer
	now        func() time.Time
}

func NewOrderService(orderRepo domain.OrderRepository, catalog port.ItemCatalog, flashSales port.FlashSaleRegistry, vouchers port.VoucherLedger, notifier port.NotificationProducer, alerts port.AlertProducer, tracer trace.Tracer) *OrderService {
	return &OrderService{
		orderRepo: orderRepo, catalog: catalog, flashSales: flashSales,
		vouchers: vouchers, notifier: notifier, alerts: alerts,
		tracer: tracer, now: time.Now,
	}
}

// WithClock 注入时钟，测试用。
func (s *OrderService) WithClock(now func() time.Time) *OrderService {
	s.now = now
	return s
}

// Create 创建订单。规划、占用、落库由 Saga 链完成,
// 链上任何一步失败都会按逆序执行补偿, 对外效果全有或全无。
func (s *OrderService) Create(ctx context.Context, requester identity.Identity, req *CreateOrderRequest) (*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "order.CreateOrder")
	defer span.End()

	if len(req.Items) == 0 {
		return nil, domain.ErrEmptyOrder
	}
	lines := make([]saga.LineRequest, 0, len(req.Items))
	for _, item := range req.Items {
		// 数量校验必须先于规划: 负数能同时骗过库存与闪购配额的下限检查。
		if item.Quantity < 1 {
			span.SetStatus(codes.Error, "non-positive line quantity")
			return nil, domain.ErrInvalidQuantity
		}
		lines = append(lines, saga.LineRequest{ItemID: item.ItemID, Quantity: item.Quantity})
	}

	orderCtx := &saga.OrderContext{
		Ctx:         ctx,
		Tracer:      s.tracer,
		OrderID:     uuid.New().String(),
		UserID:      requester.UserID,
		UserName:    requester.UserName,
		Lines:       lines,
		VoucherCode: req.VoucherCode,
		Now:         s.now(),
		Catalog:     s.catalog,
		FlashSales:  s.flashSales,
		Vouchers:    s.vouchers,
		Notifier:    s.notifier,
		OrderRepo:   s.orderRepo,
	}

	span.SetAttributes(
		attribute.String("order.id", orderCtx.OrderID),
		attribute.String("user.id", requester.UserID),
		attribute.Int("order.lines", len(lines)),
	)

	if err := s.buildChain().Handle(orderCtx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "order processing failed in chain")
		logger.Ctx(ctx).Warn().Err(err).
			Str("order_id", orderCtx.OrderID).
			Msg("order processing chain failed, saga compensation triggered")
		orderCtx.TriggerCompensation(ctx)
		return nil, err
	}

	ordersPlacedTotal.Inc()
	logger.Ctx(ctx).Info().
		Str("order_id", orderCtx.Order.ID).
		Int64("total_cents", orderCtx.Order.TotalPriceCents).
		Msg("order placed, all resources reserved")
	return orderCtx.Order, nil
}

// Get 查单。非管理员只能查本人订单。
func (s *OrderService) Get(ctx context.Context, requester identity.Identity, orderID string) (*domain.Order, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !requester.IsAdmin() && !order.OwnedBy(requester.UserID) {
		return nil, domain.ErrForbidden
	}
	return order, nil
}

// GetList 分页查订单。非管理员无论请求什么过滤条件,
// 都会被强制限定到本人订单。
func (s *OrderService) GetList(ctx context.Context, requester identity.Identity, q *ListOrdersQuery) (pagination.Page[*domain.Order], error) {
	ctx, span := s.tracer.Start(ctx, "order.ListOrders")
	defer span.End()

	q.Normalize()
	filter := domain.OrderFilter{
		OrderID:     q.OrderID,
		Status:      domain.Status(q.Status),
		UserID:      q.UserID,
		UserName:    q.UserName,
		ItemName:    q.ItemName,
		CreatedFrom: q.CreatedFrom,
		CreatedTo:   q.CreatedTo,
	}
	if !requester.IsAdmin() {
		filter.UserID = requester.UserID
		filter.UserName = ""
	}

	orders, total, err := s.orderRepo.Search(ctx, filter, q.Query)
	if err != nil {
		span.RecordError(err)
		return pagination.Page[*domain.Order]{}, err
	}
	return pagination.NewPage(orders, total, q.Query), nil
}

// Cancel 取消订单并回补占用的资源。
// 状态流转是条件原子的, 对已取消/已送达的订单重复取消返回
// ErrAlreadyFinal 且不产生任何副作用。
func (s *OrderService) Cancel(ctx context.Context, requester identity.Identity, orderID string) (*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "order.CancelOrder")
	defer span.End()
	span.SetAttributes(attribute.String("order.id", orderID))

	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !requester.IsAdmin() && !order.OwnedBy(requester.UserID) {
		span.SetStatus(codes.Error, "requester does not own order")
		return nil, domain.ErrForbidden
	}
	if err := order.CanCancel(); err != nil {
		return nil, err
	}

	// 条件状态流转先行: 并发的两个取消只有一个能完成 PLACED -> CANCEL,
	// 输掉的一方在这里拿到 ErrAlreadyFinal, 不会重复回补资源。
	if err := s.orderRepo.Transition(ctx, orderID, domain.StatusPlaced, domain.StatusCancel); err != nil {
		span.RecordError(err)
		return nil, err
	}
	order.Status = domain.StatusCancel
	ordersCancelledTotal.Inc()

	s.reverseReservations(ctx, order)

	if err := s.notifier.SendOrderCancelled(ctx, order); err != nil {
		logger.Ctx(ctx).Warn().Err(err).Str("order_id", order.ID).Msg("failed to publish order cancelled notification")
	}
	return order, nil
}

// Remove 物理删除订单, 仅限管理员。与取消不同, 删除不做任何资源回补,
// 是面向误操作数据的清理通道。
func (s *OrderService) Remove(ctx context.Context, requester identity.Identity, orderID string) error {
	ctx, span := s.tracer.Start(ctx, "order.RemoveOrder")
	defer span.End()
	span.SetAttributes(attribute.String("order.id", orderID))

	if !requester.IsAdmin() {
		return domain.ErrForbidden
	}
	if err := s.orderRepo.Delete(ctx, orderID); err != nil {
		span.RecordError(err)
		return err
	}
	logger.Ctx(ctx).Info().Str("order_id", orderID).Str("operator", requester.UserID).
		Msg("order hard deleted")
	return nil
}

// reverseReservations 并发回补订单占用的库存、闪购配额与券次数。
// 回补带有限次重试; 重试耗尽的偏差通过告警端口上报人工对账,
// 不会让已经完成状态流转的取消失败。
func (s *OrderService) reverseReservations(ctx context.Context, order *domain.Order) {
	ctx, span := s.tracer.Start(ctx, "order.ReverseReservations")
	defer span.End()

	g, gctx := errgroup.WithContext(ctx)

	for _, line := range order.Items {
		line := line
		g.Go(func() error {
			err := s.withRetry(gctx, func() error {
				return s.catalog.ReleaseStock(gctx, line.ItemID, line.Quantity)
			})
			if err != nil {
				s.reportInconsistency(gctx, order.ID, "stock", line.ItemID, line.Quantity, err)
			}
			return nil
		})

		if line.FlashSaleID != "" {
			g.Go(func() error {
				err := s.withRetry(gctx, func() error {
					return s.flashSales.Allocate(gctx, line.FlashSaleID, line.ItemID, line.Quantity)
				})
				if err != nil {
					s.reportInconsistency(gctx, order.ID, "flashsale", line.FlashSaleID, line.Quantity, err)
				}
				return nil
			})
		}
	}

	if order.VoucherID != "" {
		g.Go(func() error {
			err := s.withRetry(gctx, func() error {
				return s.vouchers.Restore(gctx, order.VoucherID)
			})
			if err != nil {
				s.reportInconsistency(gctx, order.ID, "voucher", order.VoucherID, 1, err)
			}
			return nil
		})
	}

	_ = g.Wait()
}

func (s *OrderService) withRetry(ctx context.Context, fn func() error) error {
	var err error
	for attempt := 1; attempt <= reversalRetries; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt) * reversalBackoff):
		}
	}
	return err
}

func (s *OrderService) reportInconsistency(ctx context.Context, orderID, resource, refID string, delta int64, cause error) {
	inconsistencyTotal.Inc()
	logger.Ctx(ctx).Error().Err(cause).
		Str("order_id", orderID).
		Str("resource", resource).
		Str("ref_id", refID).
		Msg("reservation reversal failed after retries, manual reconciliation required")

	alert := &port.InconsistencyAlert{
		OrderID:  orderID,
		Resource: resource,
		RefID:    refID,
		Delta:    delta,
		Reason:   cause.Error(),
	}
	if err := s.alerts.ReportInconsistency(ctx, alert); err != nil {
		logger.Ctx(ctx).Error().Err(err).Str("order_id", orderID).Msg("failed to publish inconsistency alert")
	}
}

func (s *OrderService) buildChain() saga.Handler {
	chain := new(saga.PlanHandler)
	chain.
		SetNext(new(saga.InventoryHandler)).
		SetNext(new(saga.FlashSaleHandler)).
		SetNext(new(saga.VoucherHandler)).
		SetNext(new(saga.CreateOrderHandler)).
		SetNext(new(saga.NotificationHandler))
	return chain
}
