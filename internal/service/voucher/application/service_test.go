package application

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"

	"flashmall/internal/service/voucher/domain"
	"flashmall/internal/service/voucher/infrastructure"
	"flashmall/internal/service/voucher/infrastructure/rule"
)

func newTestVoucherService(t *testing.T, now time.Time) *VoucherService {
	t.Helper()
	rules, err := rule.NewCELRuleEngineAdapter()
	require.NoError(t, err)
	return NewVoucherService(infrastructure.NewMemoryVoucherRepository(), rules, otel.Tracer("test")).
		WithClock(func() time.Time { return now })
}

func TestVoucherCreateValidation(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestVoucherService(t, now)
	ctx := context.Background()

	voucher, err := svc.Create(ctx, &CreateVoucherRequest{Name: "spring", Code: "SPRING10", DiscountPercent: 10, Quantity: 5})
	require.NoError(t, err)
	assert.NotEmpty(t, voucher.ID)

	_, err = svc.Create(ctx, &CreateVoucherRequest{Name: "dup", Code: "SPRING10", DiscountPercent: 10, Quantity: 5})
	assert.ErrorIs(t, err, domain.ErrVoucherCodeConflict)

	_, err = svc.Create(ctx, &CreateVoucherRequest{Name: "bad", Code: "BAD", DiscountPercent: 100, Quantity: 5})
	assert.ErrorIs(t, err, domain.ErrInvalidDiscount)

	_, err = svc.Create(ctx, &CreateVoucherRequest{
		Name: "bad-window", Code: "WINDOW", DiscountPercent: 10, Quantity: 5,
		StartTime: now.Add(time.Hour), EndTime: now,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidWindow)
}

func TestFindValidByCodeDistinguishesExhaustedFromInvalid(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestVoucherService(t, now)
	ctx := context.Background()

	_, err := svc.Create(ctx, &CreateVoucherRequest{
		Name: "expired", Code: "EXPIRED", DiscountPercent: 10, Quantity: 5,
		StartTime: now.Add(-2 * time.Hour), EndTime: now.Add(-time.Hour),
	})
	require.NoError(t, err)
	_, err = svc.Create(ctx, &CreateVoucherRequest{Name: "drained", Code: "DRAINED", DiscountPercent: 10, Quantity: 0})
	require.NoError(t, err)

	// 不存在与不在有效期是同一个错误, 次数用尽单独成类
	for _, code := range []string{"NO-SUCH-CODE", "EXPIRED"} {
		_, err := svc.FindValidByCode(ctx, code)
		assert.ErrorIs(t, err, domain.ErrVoucherInvalid, "code %s", code)
	}
	_, err = svc.FindValidByCode(ctx, "DRAINED")
	assert.ErrorIs(t, err, domain.ErrVoucherExhausted)

	live, err := svc.Create(ctx, &CreateVoucherRequest{Name: "live", Code: "LIVE", DiscountPercent: 10, Quantity: 1})
	require.NoError(t, err)
	found, err := svc.FindValidByCode(ctx, "LIVE")
	require.NoError(t, err)
	assert.Equal(t, live.ID, found.ID)
}

func TestCheckEligibilityPrefersRuleOverCategorySet(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestVoucherService(t, now)
	ctx := context.Background()

	// 规则表达式优先于品类集合: 集合写 books, 规则却只认 electronics 且要求数量 >= 2
	voucher, err := svc.Create(ctx, &CreateVoucherRequest{
		Name: "bulk", Code: "BULK", DiscountPercent: 15, Quantity: 5,
		EligibleCategories: []string{"books"},
		EligibilityRule:    `category == "electronics" && quantity >= 2`,
	})
	require.NoError(t, err)

	assert.NoError(t, svc.CheckEligibility(ctx, voucher, "electronics", 2))
	assert.ErrorIs(t, svc.CheckEligibility(ctx, voucher, "electronics", 1), domain.ErrVoucherNotApplicable)
	assert.ErrorIs(t, svc.CheckEligibility(ctx, voucher, "books", 5), domain.ErrVoucherNotApplicable)

	// 没挂规则时退回品类集合判定
	plain, err := svc.Create(ctx, &CreateVoucherRequest{
		Name: "books-only", Code: "BOOKS", DiscountPercent: 15, Quantity: 5,
		EligibleCategories: []string{"books"},
	})
	require.NoError(t, err)
	assert.NoError(t, svc.CheckEligibility(ctx, plain, "books", 1))
	assert.ErrorIs(t, svc.CheckEligibility(ctx, plain, "electronics", 1), domain.ErrVoucherNotApplicable)

	// 评估失败按不适用处理, 不让坏规则放行
	broken := &domain.Voucher{ID: "x", EligibilityRule: "category +"}
	assert.ErrorIs(t, svc.CheckEligibility(ctx, broken, "books", 1), domain.ErrVoucherNotApplicable)
}

func TestUpdateCanChangeRuleAndCode(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestVoucherService(t, now)
	ctx := context.Background()

	voucher, err := svc.Create(ctx, &CreateVoucherRequest{
		Name: "seasonal", Code: "SPRING", DiscountPercent: 10, Quantity: 5,
		EligibleCategories: []string{"books"},
	})
	require.NoError(t, err)

	rule := `category == "electronics"`
	code := "SUMMER"
	updated, err := svc.Update(ctx, voucher.ID, &UpdateVoucherRequest{
		Code:            &code,
		EligibilityRule: &rule,
	})
	require.NoError(t, err)
	assert.Equal(t, "SUMMER", updated.Code)
	assert.Equal(t, rule, updated.EligibilityRule)

	// 挂上的规则立刻覆盖品类集合判定
	assert.NoError(t, svc.CheckEligibility(ctx, updated, "electronics", 1))
	assert.ErrorIs(t, svc.CheckEligibility(ctx, updated, "books", 1), domain.ErrVoucherNotApplicable)

	// 旧码失效, 新码可查
	_, err = svc.FindValidByCode(ctx, "SPRING")
	assert.ErrorIs(t, err, domain.ErrVoucherInvalid)
	found, err := svc.FindValidByCode(ctx, "SUMMER")
	require.NoError(t, err)
	assert.Equal(t, voucher.ID, found.ID)

	// 改码不能撞上其他券
	other, err := svc.Create(ctx, &CreateVoucherRequest{
		Name: "other", Code: "OTHER", DiscountPercent: 10, Quantity: 5,
	})
	require.NoError(t, err)
	taken := "SUMMER"
	_, err = svc.Update(ctx, other.ID, &UpdateVoucherRequest{Code: &taken})
	assert.ErrorIs(t, err, domain.ErrVoucherCodeConflict)
}

func TestRedeemAndRestoreAreConditional(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestVoucherService(t, now)
	ctx := context.Background()

	voucher, err := svc.Create(ctx, &CreateVoucherRequest{Name: "once", Code: "ONCE", DiscountPercent: 10, Quantity: 1})
	require.NoError(t, err)

	require.NoError(t, svc.Redeem(ctx, voucher.ID))
	assert.ErrorIs(t, svc.Redeem(ctx, voucher.ID), domain.ErrVoucherExhausted)

	require.NoError(t, svc.Restore(ctx, voucher.ID))
	after, err := svc.Get(ctx, voucher.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, after.Quantity)
}
