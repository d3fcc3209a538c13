package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"

	"flashmall/internal/service/catalog/domain"
	"flashmall/internal/service/catalog/infrastructure"
	"flashmall/internal/service/catalog/port"
)

type stubPromotionLookup struct {
	promo *port.ItemPromotion
	err   error
}

func (s *stubPromotionLookup) ActiveAllocation(_ context.Context, _ string, _ time.Time) (*port.ItemPromotion, error) {
	return s.promo, s.err
}

func newTestItemService(promos port.PromotionLookup) *ItemService {
	return NewItemService(infrastructure.NewMemoryItemRepository(), promos, otel.Tracer("test"))
}

func TestItemCreate(t *testing.T) {
	svc := newTestItemService(nil)
	ctx := context.Background()

	item, err := svc.Create(ctx, &CreateItemRequest{Name: "keyboard", PriceCents: 10000, Quantity: 7, Category: "electronics"})
	require.NoError(t, err)
	assert.NotEmpty(t, item.ID)
	assert.Equal(t, int64(7), item.Stocks)
	assert.Equal(t, int64(0), item.Sold)

	_, err = svc.Create(ctx, &CreateItemRequest{Name: "keyboard", PriceCents: 5000, Quantity: 1})
	assert.ErrorIs(t, err, domain.ErrItemNameConflict)

	_, err = svc.Create(ctx, &CreateItemRequest{Name: "", PriceCents: 5000, Quantity: 1})
	assert.Error(t, err)
}

func TestItemGetAnnotatesFlashSale(t *testing.T) {
	promos := &stubPromotionLookup{promo: &port.ItemPromotion{
		CampaignID:      "camp-1",
		CampaignName:    "summer",
		DiscountPercent: 20,
		Remaining:       5,
	}}
	svc := newTestItemService(promos)
	ctx := context.Background()

	item, err := svc.Create(ctx, &CreateItemRequest{Name: "keyboard", PriceCents: 10000, Quantity: 7})
	require.NoError(t, err)

	view, err := svc.Get(ctx, item.ID)
	require.NoError(t, err)
	require.NotNil(t, view.FlashSale)
	assert.Equal(t, "camp-1", view.FlashSale.CampaignID)
	assert.Equal(t, int64(8000), view.FlashSale.PriceCents)
}

func TestItemGetDegradesWhenLookupFails(t *testing.T) {
	promos := &stubPromotionLookup{err: errors.New("registry down")}
	svc := newTestItemService(promos)
	ctx := context.Background()

	item, err := svc.Create(ctx, &CreateItemRequest{Name: "keyboard", PriceCents: 10000, Quantity: 7})
	require.NoError(t, err)

	view, err := svc.Get(ctx, item.ID)
	require.NoError(t, err)
	assert.Nil(t, view.FlashSale)
}

func TestItemRemoveRejectsSoldItems(t *testing.T) {
	svc := newTestItemService(nil)
	ctx := context.Background()

	item, err := svc.Create(ctx, &CreateItemRequest{Name: "keyboard", PriceCents: 10000, Quantity: 7})
	require.NoError(t, err)

	require.NoError(t, svc.CommitStock(ctx, item.ID, 1))
	assert.ErrorIs(t, svc.Remove(ctx, item.ID), domain.ErrItemHasSales)

	fresh, err := svc.Create(ctx, &CreateItemRequest{Name: "mouse", PriceCents: 3000, Quantity: 2})
	require.NoError(t, err)
	assert.NoError(t, svc.Remove(ctx, fresh.ID))
}

func TestCommitStockInsufficientLeavesItemUntouched(t *testing.T) {
	svc := newTestItemService(nil)
	ctx := context.Background()

	item, err := svc.Create(ctx, &CreateItemRequest{Name: "keyboard", PriceCents: 10000, Quantity: 2})
	require.NoError(t, err)

	err = svc.CommitStock(ctx, item.ID, 3)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	after, err := svc.GetOriginal(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), after.Stocks)
	assert.Equal(t, int64(0), after.Sold)
}

func TestCommitAndReleaseStockRoundTrip(t *testing.T) {
	svc := newTestItemService(nil)
	ctx := context.Background()

	item, err := svc.Create(ctx, &CreateItemRequest{Name: "keyboard", PriceCents: 10000, Quantity: 5})
	require.NoError(t, err)

	require.NoError(t, svc.CommitStock(ctx, item.ID, 3))
	mid, _ := svc.GetOriginal(ctx, item.ID)
	assert.Equal(t, int64(2), mid.Stocks)
	assert.Equal(t, int64(3), mid.Sold)

	require.NoError(t, svc.ReleaseStock(ctx, item.ID, 3))
	after, _ := svc.GetOriginal(ctx, item.ID)
	assert.Equal(t, int64(5), after.Stocks)
	assert.Equal(t, int64(0), after.Sold)

	// 超过已售量的回补与商品缺失是两类错误
	assert.ErrorIs(t, svc.ReleaseStock(ctx, item.ID, 1), domain.ErrOverRelease)
	assert.ErrorIs(t, svc.ReleaseStock(ctx, "no-such-item", 1), domain.ErrItemNotFound)
}
