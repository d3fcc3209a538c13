// internal/service/order/application/service_test.go
package application

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"

	"flashmall/internal/pkg/identity"
	catalogapp "flashmall/internal/service/catalog/application"
	cataloginfra "flashmall/internal/service/catalog/infrastructure"
	flashsaleapp "flashmall/internal/service/flashsale/application"
	flashsaleinfra "flashmall/internal/service/flashsale/infrastructure"
	flashsaleadapter "flashmall/internal/service/flashsale/infrastructure/adapter"
	"flashmall/internal/service/order/domain"
	"flashmall/internal/service/order/domain/port"
	"flashmall/internal/service/order/infrastructure"
	"flashmall/internal/service/order/infrastructure/adapter"
	voucherapp "flashmall/internal/service/voucher/application"
	voucherinfra "flashmall/internal/service/voucher/infrastructure"
	"flashmall/internal/service/voucher/infrastructure/rule"
)

var (
	alice = identity.Identity{UserID: "u-alice", UserName: "alice", Role: identity.RoleMember}
	bob   = identity.Identity{UserID: "u-bob", UserName: "bob", Role: identity.RoleMember}
	root  = identity.Identity{UserID: "u-root", UserName: "root", Role: identity.RoleAdmin}
)

type recordingNotifier struct {
	mu        sync.Mutex
	placed    []string
	cancelled []string
}

func (n *recordingNotifier) SendOrderPlaced(_ context.Context, order *domain.Order) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.placed = append(n.placed, order.ID)
	return nil
}

func (n *recordingNotifier) SendOrderCancelled(_ context.Context, order *domain.Order) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.cancelled = append(n.cancelled, order.ID)
	return nil
}

type recordingAlerts struct {
	mu     sync.Mutex
	alerts []*port.InconsistencyAlert
}

func (a *recordingAlerts) ReportInconsistency(_ context.Context, alert *port.InconsistencyAlert) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.alerts = append(a.alerts, alert)
	return nil
}

func (a *recordingAlerts) count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.alerts)
}

type orderFixture struct {
	svc      *OrderService
	items    *catalogapp.ItemService
	flash    *flashsaleapp.FlashSaleService
	vouchers *voucherapp.VoucherService
	notifier *recordingNotifier
	alerts   *recordingAlerts
	now      time.Time
}

func newOrderFixture(t *testing.T) *orderFixture {
	t.Helper()
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	tracer := otel.Tracer("test")

	itemRepo := cataloginfra.NewMemoryItemRepository()
	items := catalogapp.NewItemService(itemRepo, nil, tracer).WithClock(clock)

	flash := flashsaleapp.NewFlashSaleService(
		flashsaleinfra.NewMemoryCampaignRepository(),
		flashsaleadapter.NewCatalogItemAdapter(itemRepo),
		flashsaleinfra.NewLocalLocker(),
		nil,
		tracer,
	).WithClock(clock)

	rules, err := rule.NewCELRuleEngineAdapter()
	require.NoError(t, err)
	vouchers := voucherapp.NewVoucherService(voucherinfra.NewMemoryVoucherRepository(), rules, tracer).WithClock(clock)

	notifier := &recordingNotifier{}
	alerts := &recordingAlerts{}
	svc := NewOrderService(
		infrastructure.NewMemoryOrderRepository(),
		adapter.NewCatalogAdapter(items),
		adapter.NewFlashSaleAdapter(flash),
		adapter.NewVoucherAdapter(vouchers),
		notifier,
		alerts,
		tracer,
	).WithClock(clock)

	return &orderFixture{svc: svc, items: items, flash: flash, vouchers: vouchers, notifier: notifier, alerts: alerts, now: now}
}

func (f *orderFixture) createItem(t *testing.T, name, category string, priceCents, qty int64) string {
	t.Helper()
	item, err := f.items.Create(context.Background(), &catalogapp.CreateItemRequest{
		Name: name, Category: category, PriceCents: priceCents, Quantity: qty,
	})
	require.NoError(t, err)
	return item.ID
}

func (f *orderFixture) createCampaign(t *testing.T, itemID string, flashQty int64, discount int) string {
	t.Helper()
	campaign, err := f.flash.Create(context.Background(), &flashsaleapp.CreateCampaignRequest{
		Name:      "live-campaign",
		StartTime: f.now.Add(-time.Minute),
		EndTime:   f.now.Add(time.Hour),
		Items: []flashsaleapp.ItemAllocationRequest{
			{ItemID: itemID, FlashSaleQuantity: flashQty, DiscountPercent: discount},
		},
	})
	require.NoError(t, err)
	return campaign.ID
}

func (f *orderFixture) createVoucher(t *testing.T, code string, discount, qty int, categories []string) string {
	t.Helper()
	voucher, err := f.vouchers.Create(context.Background(), &voucherapp.CreateVoucherRequest{
		Name:               "voucher-" + code,
		Code:               code,
		DiscountPercent:    discount,
		Quantity:           qty,
		EligibleCategories: categories,
	})
	require.NoError(t, err)
	return voucher.ID
}

func (f *orderFixture) stocks(t *testing.T, itemID string) int64 {
	t.Helper()
	item, err := f.items.GetOriginal(context.Background(), itemID)
	require.NoError(t, err)
	return item.Stocks
}

func (f *orderFixture) remaining(t *testing.T, itemID string) int64 {
	t.Helper()
	alloc, err := f.flash.ActiveAllocation(context.Background(), itemID, f.now)
	require.NoError(t, err)
	require.NotNil(t, alloc)
	return alloc.Remaining
}

func (f *orderFixture) voucherQuantity(t *testing.T, voucherID string) int {
	t.Helper()
	voucher, err := f.vouchers.Get(context.Background(), voucherID)
	require.NoError(t, err)
	return voucher.Quantity
}

func TestCreateOrderHappyPath(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	itemID := f.createItem(t, "keyboard", "electronics", 10000, 10)

	order, err := f.svc.Create(ctx, alice, &CreateOrderRequest{
		Items: []OrderLineRequest{{ItemID: itemID, Quantity: 2}},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPlaced, order.Status)
	assert.Equal(t, alice.UserID, order.UserID)
	assert.Equal(t, int64(20000), order.OriginPriceCents)
	assert.Equal(t, int64(20000), order.TotalPriceCents)
	assert.Equal(t, int64(8), f.stocks(t, itemID))
	assert.Equal(t, []string{order.ID}, f.notifier.placed)

	fetched, err := f.svc.Get(ctx, alice, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.TotalPriceCents, fetched.TotalPriceCents)
}

// 商品原价 100 元、闪购八折限量 5: 买 3 件走闪购价 240 元, 剩量降到 2;
// 再买 3 件配额不足, 整行回退原价 300 元, 剩量保持 2。
func TestFlashSaleAppliedThenFallsBackWhenShortOnQuota(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	itemID := f.createItem(t, "keyboard", "electronics", 10000, 10)
	campaignID := f.createCampaign(t, itemID, 5, 20)

	first, err := f.svc.Create(ctx, alice, &CreateOrderRequest{
		Items: []OrderLineRequest{{ItemID: itemID, Quantity: 3}},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(24000), first.TotalPriceCents)
	assert.Equal(t, int64(30000), first.OriginPriceCents)
	assert.Equal(t, campaignID, first.Items[0].FlashSaleID)
	assert.Equal(t, int64(2), f.remaining(t, itemID))

	second, err := f.svc.Create(ctx, alice, &CreateOrderRequest{
		Items: []OrderLineRequest{{ItemID: itemID, Quantity: 3}},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(30000), second.TotalPriceCents)
	assert.Empty(t, second.Items[0].FlashSaleID)
	assert.Equal(t, int64(2), f.remaining(t, itemID))
	assert.Equal(t, int64(4), f.stocks(t, itemID))
}

func TestCreateOrderInsufficientStockHasNoSideEffects(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	scarce := f.createItem(t, "keyboard", "electronics", 10000, 2)
	plenty := f.createItem(t, "mouse", "electronics", 3000, 10)
	f.createCampaign(t, plenty, 5, 20)

	// 规划阶段发现第二行库存不足, 整单拒绝, 第一行不会占用任何资源
	_, err := f.svc.Create(ctx, alice, &CreateOrderRequest{
		Items: []OrderLineRequest{
			{ItemID: plenty, Quantity: 2},
			{ItemID: scarce, Quantity: 3},
		},
	})
	assert.ErrorIs(t, err, port.ErrInsufficientStock)

	assert.Equal(t, int64(2), f.stocks(t, scarce))
	assert.Equal(t, int64(10), f.stocks(t, plenty))
	assert.Equal(t, int64(5), f.remaining(t, plenty))

	page, err := f.svc.GetList(ctx, root, &ListOrdersQuery{})
	require.NoError(t, err)
	assert.Zero(t, page.TotalDocs)
}

func TestCreateOrderEmptyLines(t *testing.T) {
	f := newOrderFixture(t)
	_, err := f.svc.Create(context.Background(), alice, &CreateOrderRequest{})
	assert.ErrorIs(t, err, domain.ErrEmptyOrder)
}

func TestCreateOrderRejectsNonPositiveQuantity(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	itemID := f.createItem(t, "keyboard", "electronics", 10000, 10)
	f.createCampaign(t, itemID, 5, 20)

	// 负数行会同时骗过库存下限与闪购配额检查, 必须在规划前拒绝
	for _, qty := range []int64{-5, 0} {
		_, err := f.svc.Create(ctx, alice, &CreateOrderRequest{
			Items: []OrderLineRequest{{ItemID: itemID, Quantity: qty}},
		})
		assert.ErrorIs(t, err, domain.ErrInvalidQuantity, "quantity %d", qty)
	}

	// 混入一行合法数量也不放行
	_, err := f.svc.Create(ctx, alice, &CreateOrderRequest{
		Items: []OrderLineRequest{
			{ItemID: itemID, Quantity: 1},
			{ItemID: itemID, Quantity: -1},
		},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)

	assert.Equal(t, int64(10), f.stocks(t, itemID))
	assert.Equal(t, int64(5), f.remaining(t, itemID))

	page, err := f.svc.GetList(ctx, root, &ListOrdersQuery{})
	require.NoError(t, err)
	assert.Zero(t, page.TotalDocs)
}

func TestVoucherAppliedToEveryLineButRedeemedOnce(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	keyboard := f.createItem(t, "keyboard", "electronics", 10000, 10)
	mouse := f.createItem(t, "mouse", "electronics", 3000, 10)
	voucherID := f.createVoucher(t, "SAVE10", 10, 1, nil)

	order, err := f.svc.Create(ctx, alice, &CreateOrderRequest{
		Items: []OrderLineRequest{
			{ItemID: keyboard, Quantity: 1},
			{ItemID: mouse, Quantity: 2},
		},
		VoucherCode: "SAVE10",
	})
	require.NoError(t, err)
	assert.Equal(t, voucherID, order.VoucherID)
	for _, line := range order.Items {
		assert.True(t, line.VoucherApplied)
		assert.Equal(t, 10, line.VoucherPercent)
	}
	// 10000*1 -> 9000, 3000*2 -> 5400
	assert.Equal(t, int64(14400), order.TotalPriceCents)
	assert.Equal(t, 0, f.voucherQuantity(t, voucherID))

	// 次数用尽后再用同一个码下单, 规划阶段就报次数耗尽, 且不消耗库存
	_, err = f.svc.Create(ctx, alice, &CreateOrderRequest{
		Items:       []OrderLineRequest{{ItemID: mouse, Quantity: 1}},
		VoucherCode: "SAVE10",
	})
	assert.ErrorIs(t, err, port.ErrVoucherExhausted)
	assert.Equal(t, int64(8), f.stocks(t, mouse))
}

func TestVoucherNotApplicableFailsWholeOrder(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	book := f.createItem(t, "novel", "books", 2000, 10)
	keyboard := f.createItem(t, "keyboard", "electronics", 10000, 10)
	voucherID := f.createVoucher(t, "BOOKS20", 20, 5, []string{"books"})

	_, err := f.svc.Create(ctx, alice, &CreateOrderRequest{
		Items: []OrderLineRequest{
			{ItemID: book, Quantity: 1},
			{ItemID: keyboard, Quantity: 1},
		},
		VoucherCode: "BOOKS20",
	})
	assert.ErrorIs(t, err, port.ErrVoucherNotApplicable)
	assert.Equal(t, int64(10), f.stocks(t, book))
	assert.Equal(t, int64(10), f.stocks(t, keyboard))
	assert.Equal(t, 5, f.voucherQuantity(t, voucherID))
}

func TestFlashSaleAndVoucherStack(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	itemID := f.createItem(t, "keyboard", "electronics", 10000, 10)
	f.createCampaign(t, itemID, 5, 20)
	f.createVoucher(t, "SAVE10", 10, 1, nil)

	// 闪购先作用于单价, 券再作用于行小计: 8000*3 = 24000 -> 21600
	order, err := f.svc.Create(ctx, alice, &CreateOrderRequest{
		Items:       []OrderLineRequest{{ItemID: itemID, Quantity: 3}},
		VoucherCode: "SAVE10",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(21600), order.TotalPriceCents)
	assert.Equal(t, int64(30000), order.OriginPriceCents)
}

func TestCancelRestoresAllReservations(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	itemID := f.createItem(t, "keyboard", "electronics", 10000, 10)
	f.createCampaign(t, itemID, 5, 20)
	voucherID := f.createVoucher(t, "SAVE10", 10, 1, nil)

	order, err := f.svc.Create(ctx, alice, &CreateOrderRequest{
		Items:       []OrderLineRequest{{ItemID: itemID, Quantity: 3}},
		VoucherCode: "SAVE10",
	})
	require.NoError(t, err)
	require.Equal(t, int64(7), f.stocks(t, itemID))
	require.Equal(t, int64(2), f.remaining(t, itemID))
	require.Equal(t, 0, f.voucherQuantity(t, voucherID))

	cancelled, err := f.svc.Cancel(ctx, alice, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancel, cancelled.Status)

	assert.Equal(t, int64(10), f.stocks(t, itemID))
	assert.Equal(t, int64(5), f.remaining(t, itemID))
	assert.Equal(t, 1, f.voucherQuantity(t, voucherID))
	assert.Equal(t, []string{order.ID}, f.notifier.cancelled)
	assert.Zero(t, f.alerts.count())

	fetched, err := f.svc.Get(ctx, alice, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancel, fetched.Status)
}

func TestCancelIsIdempotent(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	itemID := f.createItem(t, "keyboard", "electronics", 10000, 10)

	order, err := f.svc.Create(ctx, alice, &CreateOrderRequest{
		Items: []OrderLineRequest{{ItemID: itemID, Quantity: 3}},
	})
	require.NoError(t, err)

	_, err = f.svc.Cancel(ctx, alice, order.ID)
	require.NoError(t, err)
	require.Equal(t, int64(10), f.stocks(t, itemID))

	// 重复取消拒绝, 库存不会被二次回补
	_, err = f.svc.Cancel(ctx, alice, order.ID)
	assert.ErrorIs(t, err, domain.ErrAlreadyFinal)
	assert.Equal(t, int64(10), f.stocks(t, itemID))
	assert.Len(t, f.notifier.cancelled, 1)
}

func TestCancelAuthorization(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	itemID := f.createItem(t, "keyboard", "electronics", 10000, 10)

	order, err := f.svc.Create(ctx, alice, &CreateOrderRequest{
		Items: []OrderLineRequest{{ItemID: itemID, Quantity: 1}},
	})
	require.NoError(t, err)

	_, err = f.svc.Cancel(ctx, bob, order.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	// 管理员可以替任何用户取消
	cancelled, err := f.svc.Cancel(ctx, root, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancel, cancelled.Status)
}

func TestRemoveIsAdminOnlyAndSkipsReversal(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	itemID := f.createItem(t, "keyboard", "electronics", 10000, 10)

	order, err := f.svc.Create(ctx, alice, &CreateOrderRequest{
		Items: []OrderLineRequest{{ItemID: itemID, Quantity: 2}},
	})
	require.NoError(t, err)

	err = f.svc.Remove(ctx, alice, order.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	require.NoError(t, f.svc.Remove(ctx, root, order.ID))

	_, err = f.svc.Get(ctx, root, order.ID)
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
	// 删除只清数据, 不是取消: 占用的库存不回补
	assert.Equal(t, int64(8), f.stocks(t, itemID))

	err = f.svc.Remove(ctx, root, order.ID)
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestGetEnforcesOwnership(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	itemID := f.createItem(t, "keyboard", "electronics", 10000, 10)

	order, err := f.svc.Create(ctx, alice, &CreateOrderRequest{
		Items: []OrderLineRequest{{ItemID: itemID, Quantity: 1}},
	})
	require.NoError(t, err)

	_, err = f.svc.Get(ctx, bob, order.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.svc.Get(ctx, root, order.ID)
	assert.NoError(t, err)

	_, err = f.svc.Get(ctx, alice, "no-such-order")
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestGetListScopesNonAdminsToOwnOrders(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	itemID := f.createItem(t, "keyboard", "electronics", 10000, 10)

	_, err := f.svc.Create(ctx, alice, &CreateOrderRequest{Items: []OrderLineRequest{{ItemID: itemID, Quantity: 1}}})
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, bob, &CreateOrderRequest{Items: []OrderLineRequest{{ItemID: itemID, Quantity: 1}}})
	require.NoError(t, err)

	// 非管理员即便显式过滤别人的 userId, 也只能看到自己的订单
	page, err := f.svc.GetList(ctx, alice, &ListOrdersQuery{UserID: bob.UserID})
	require.NoError(t, err)
	require.Equal(t, int64(1), page.TotalDocs)
	assert.Equal(t, alice.UserID, page.Docs[0].UserID)

	page, err = f.svc.GetList(ctx, root, &ListOrdersQuery{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.TotalDocs)
}

func TestParallelCreatesDrainStockExactly(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	const contenders = 6
	itemID := f.createItem(t, "keyboard", "electronics", 10000, contenders-1)

	errs := make([]error, contenders)
	var wg sync.WaitGroup
	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.Create(ctx, alice, &CreateOrderRequest{
				Items: []OrderLineRequest{{ItemID: itemID, Quantity: 1}},
			})
		}(i)
	}
	wg.Wait()

	var failures int
	for _, err := range errs {
		if err != nil {
			failures++
			assert.ErrorIs(t, err, port.ErrInsufficientStock)
		}
	}
	assert.Equal(t, 1, failures)
	assert.Equal(t, int64(0), f.stocks(t, itemID))

	page, err := f.svc.GetList(ctx, root, &ListOrdersQuery{})
	require.NoError(t, err)
	assert.Equal(t, int64(contenders-1), page.TotalDocs)
}

func TestConcurrentVoucherUseRedeemsExactlyOnce(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	itemID := f.createItem(t, "keyboard", "electronics", 10000, 10)
	voucherID := f.createVoucher(t, "SAVE10", 10, 1, nil)

	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.Create(ctx, alice, &CreateOrderRequest{
				Items:       []OrderLineRequest{{ItemID: itemID, Quantity: 1}},
				VoucherCode: "SAVE10",
			})
		}(i)
	}
	wg.Wait()

	var failures int
	for _, err := range errs {
		if err == nil {
			continue
		}
		failures++
		// 输掉的一方无论在规划还是核销阶段撞上, 错误类别都是次数耗尽
		if !errors.Is(err, port.ErrVoucherExhausted) {
			t.Fatalf("unexpected error for losing order: %v", err)
		}
	}
	assert.Equal(t, 1, failures)
	assert.Equal(t, 0, f.voucherQuantity(t, voucherID))
	// 失败一方占用的库存已回滚
	assert.Equal(t, int64(9), f.stocks(t, itemID))
}
