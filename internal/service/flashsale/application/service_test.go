package application

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"

	catalogapp "flashmall/internal/service/catalog/application"
	cataloginfra "flashmall/internal/service/catalog/infrastructure"
	"flashmall/internal/service/flashsale/domain"
	"flashmall/internal/service/flashsale/infrastructure"
	"flashmall/internal/service/flashsale/infrastructure/adapter"
)

type campaignFixture struct {
	svc    *FlashSaleService
	itemID string
	now    time.Time
}

func newCampaignFixture(t *testing.T) *campaignFixture {
	t.Helper()
	ctx := context.Background()
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

	itemRepo := cataloginfra.NewMemoryItemRepository()
	items := catalogapp.NewItemService(itemRepo, nil, otel.Tracer("test"))
	item, err := items.Create(ctx, &catalogapp.CreateItemRequest{Name: "keyboard", PriceCents: 10000, Quantity: 10})
	require.NoError(t, err)

	svc := NewFlashSaleService(
		infrastructure.NewMemoryCampaignRepository(),
		adapter.NewCatalogItemAdapter(itemRepo),
		infrastructure.NewLocalLocker(),
		nil,
		otel.Tracer("test"),
	).WithClock(func() time.Time { return now })

	return &campaignFixture{svc: svc, itemID: item.ID, now: now}
}

func (f *campaignFixture) request(start, end time.Time) *CreateCampaignRequest {
	return &CreateCampaignRequest{
		Name:      "summer",
		StartTime: start,
		EndTime:   end,
		Items: []ItemAllocationRequest{
			{ItemID: f.itemID, FlashSaleQuantity: 5, DiscountPercent: 20},
		},
	}
}

func TestCreateCampaignRejectsOverlappingWindow(t *testing.T) {
	f := newCampaignFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, f.request(f.now.Add(time.Hour), f.now.Add(2*time.Hour)))
	require.NoError(t, err)

	// 部分重叠
	_, err = f.svc.Create(ctx, f.request(f.now.Add(90*time.Minute), f.now.Add(3*time.Hour)))
	assert.ErrorIs(t, err, domain.ErrWindowConflict)

	// 边界相接也算冲突，窗口比较按闭区间
	_, err = f.svc.Create(ctx, f.request(f.now.Add(2*time.Hour), f.now.Add(3*time.Hour)))
	assert.ErrorIs(t, err, domain.ErrWindowConflict)

	// 完全错开的窗口可以创建
	_, err = f.svc.Create(ctx, f.request(f.now.Add(4*time.Hour), f.now.Add(5*time.Hour)))
	assert.NoError(t, err)
}

func TestCreateCampaignIgnoresFinishedWindows(t *testing.T) {
	f := newCampaignFixture(t)
	ctx := context.Background()

	past, err := f.svc.Create(ctx, f.request(f.now.Add(-3*time.Hour), f.now.Add(-2*time.Hour)))
	require.NoError(t, err)

	// 已结束的档期不参与冲突校验，哪怕窗口完全相同
	_, err = f.svc.Create(ctx, &CreateCampaignRequest{
		Name:      "rerun",
		StartTime: past.StartTime,
		EndTime:   past.EndTime,
		Items:     f.request(past.StartTime, past.EndTime).Items,
	})
	assert.NoError(t, err)
}

func TestUpdateCampaignExcludesSelfFromConflictCheck(t *testing.T) {
	f := newCampaignFixture(t)
	ctx := context.Background()

	campaign, err := f.svc.Create(ctx, f.request(f.now.Add(time.Hour), f.now.Add(2*time.Hour)))
	require.NoError(t, err)

	newEnd := f.now.Add(150 * time.Minute)
	updated, err := f.svc.Update(ctx, campaign.ID, &UpdateCampaignRequest{EndTime: &newEnd})
	require.NoError(t, err)
	assert.True(t, updated.EndTime.Equal(newEnd))
}

func TestCreateCampaignValidatesAllocations(t *testing.T) {
	f := newCampaignFixture(t)
	ctx := context.Background()

	req := f.request(f.now.Add(time.Hour), f.now.Add(2*time.Hour))
	req.Items[0].FlashSaleQuantity = 11 // 商品库存只有 10
	_, err := f.svc.Create(ctx, req)
	assert.Error(t, err)

	req = f.request(f.now.Add(time.Hour), f.now.Add(2*time.Hour))
	req.Items[0].ItemID = "no-such-item"
	_, err = f.svc.Create(ctx, req)
	assert.Error(t, err)

	req = f.request(f.now.Add(time.Hour), f.now.Add(2*time.Hour))
	req.Items = nil
	_, err = f.svc.Create(ctx, req)
	assert.Error(t, err)
}

func TestActiveAllocationAndCountdown(t *testing.T) {
	f := newCampaignFixture(t)
	ctx := context.Background()

	campaign, err := f.svc.Create(ctx, f.request(f.now.Add(-time.Minute), f.now.Add(time.Hour)))
	require.NoError(t, err)

	alloc, err := f.svc.ActiveAllocation(ctx, f.itemID, f.now)
	require.NoError(t, err)
	require.NotNil(t, alloc)
	assert.Equal(t, campaign.ID, alloc.CampaignID)
	assert.Equal(t, 20, alloc.DiscountPercent)
	assert.Equal(t, int64(5), alloc.Remaining)

	// 不在档期内的商品
	other, err := f.svc.ActiveAllocation(ctx, "other-item", f.now)
	require.NoError(t, err)
	assert.Nil(t, other)

	require.NoError(t, f.svc.Allocate(ctx, campaign.ID, f.itemID, -3))
	alloc, err = f.svc.ActiveAllocation(ctx, f.itemID, f.now)
	require.NoError(t, err)
	assert.Equal(t, int64(2), alloc.Remaining)

	// 剩余 2，再扣 3 必须失败且余量不变
	err = f.svc.Allocate(ctx, campaign.ID, f.itemID, -3)
	assert.ErrorIs(t, err, domain.ErrAllocationExhausted)
	alloc, _ = f.svc.ActiveAllocation(ctx, f.itemID, f.now)
	assert.Equal(t, int64(2), alloc.Remaining)
}

func TestRemoveCampaignHidesItFromLiveLookup(t *testing.T) {
	f := newCampaignFixture(t)
	ctx := context.Background()

	campaign, err := f.svc.Create(ctx, f.request(f.now.Add(-time.Minute), f.now.Add(time.Hour)))
	require.NoError(t, err)

	require.NoError(t, f.svc.Remove(ctx, campaign.ID))
	live, err := f.svc.FindLive(ctx, f.now)
	require.NoError(t, err)
	assert.Nil(t, live)

	_, err = f.svc.Get(ctx, campaign.ID)
	assert.ErrorIs(t, err, domain.ErrCampaignNotFound)
}
