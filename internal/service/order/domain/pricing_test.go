package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveLinePrice(t *testing.T) {
	t.Run("no discounts", func(t *testing.T) {
		quote := ResolveLinePrice(10000, 3, 0, 0)
		assert.Equal(t, int64(30000), quote.OriginCents)
		assert.Equal(t, int64(30000), quote.TotalCents)
		assert.False(t, quote.FlashApplied)
		assert.False(t, quote.VoucherApplied)
	})

	t.Run("flash sale discounts the unit price", func(t *testing.T) {
		// 单价 100.00, 八折, 三件: 80.00 * 3 = 240.00
		quote := ResolveLinePrice(10000, 3, 20, 0)
		assert.Equal(t, int64(30000), quote.OriginCents)
		assert.Equal(t, int64(24000), quote.TotalCents)
		assert.True(t, quote.FlashApplied)
	})

	t.Run("voucher discounts the line total", func(t *testing.T) {
		quote := ResolveLinePrice(10000, 2, 0, 10)
		assert.Equal(t, int64(20000), quote.OriginCents)
		assert.Equal(t, int64(18000), quote.TotalCents)
		assert.True(t, quote.VoucherApplied)
	})

	t.Run("voucher stacks on top of flash price", func(t *testing.T) {
		quote := ResolveLinePrice(10000, 3, 20, 10)
		assert.Equal(t, int64(30000), quote.OriginCents)
		// 80.00 * 3 = 240.00, 再九折 = 216.00
		assert.Equal(t, int64(21600), quote.TotalCents)
		assert.True(t, quote.FlashApplied)
		assert.True(t, quote.VoucherApplied)
	})

	t.Run("rounding happens once per discount application", func(t *testing.T) {
		// 单价 9.99, 八八折: (999*88+50)/100 = 879 (8.7912 -> 8.79)
		quote := ResolveLinePrice(999, 3, 12, 0)
		assert.Equal(t, int64(879*3), quote.TotalCents)
	})

	t.Run("total never exceeds origin", func(t *testing.T) {
		for _, pct := range []int{1, 15, 50, 99} {
			quote := ResolveLinePrice(997, 7, pct, pct)
			assert.LessOrEqual(t, quote.TotalCents, quote.OriginCents)
		}
	})
}

func TestNewOrderAggregatesTotals(t *testing.T) {
	items := []LineItem{
		{ItemID: "a", Quantity: 2, OriginCents: 20000, TotalCents: 16000},
		{ItemID: "b", Quantity: 1, OriginCents: 5000, TotalCents: 5000},
	}
	order, err := NewOrder("order-1", "user-1", "alice", items)
	assert.NoError(t, err)
	assert.Equal(t, int64(25000), order.OriginPriceCents)
	assert.Equal(t, int64(21000), order.TotalPriceCents)
	assert.Equal(t, StatusPlaced, order.Status)
}

func TestNewOrderRejectsEmptyLines(t *testing.T) {
	_, err := NewOrder("order-1", "user-1", "alice", nil)
	assert.ErrorIs(t, err, ErrEmptyOrder)
}

func TestStatusFinality(t *testing.T) {
	assert.False(t, StatusPlaced.IsFinal())
	assert.True(t, StatusCancel.IsFinal())
	assert.True(t, StatusDelivered.IsFinal())

	order := &Order{Status: StatusCancel}
	assert.ErrorIs(t, order.CanCancel(), ErrAlreadyFinal)

	order.Status = StatusPlaced
	assert.NoError(t, order.CanCancel())
}
