package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestVoucherIsValidAt(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("unbounded voucher with quantity is valid", func(t *testing.T) {
		v := &Voucher{Quantity: 1}
		assert.True(t, v.IsValidAt(now))
	})

	t.Run("exhausted voucher is invalid", func(t *testing.T) {
		v := &Voucher{Quantity: 0}
		assert.False(t, v.IsValidAt(now))
	})

	t.Run("window is half-open", func(t *testing.T) {
		v := &Voucher{Quantity: 1, StartTime: now.Add(-time.Hour), EndTime: now.Add(time.Hour)}
		assert.True(t, v.IsValidAt(now))
		assert.True(t, v.IsValidAt(v.StartTime))
		assert.False(t, v.IsValidAt(v.EndTime))
	})

	t.Run("outside window is invalid", func(t *testing.T) {
		v := &Voucher{Quantity: 1, StartTime: now.Add(time.Hour), EndTime: now.Add(2 * time.Hour)}
		assert.False(t, v.IsValidAt(now))
	})
}

func TestVoucherEligibleFor(t *testing.T) {
	t.Run("empty category set applies everywhere", func(t *testing.T) {
		v := &Voucher{}
		assert.True(t, v.EligibleFor("books"))
	})

	t.Run("category must be in eligible set", func(t *testing.T) {
		v := &Voucher{EligibleCategories: []string{"books", "toys"}}
		assert.True(t, v.EligibleFor("toys"))
		assert.False(t, v.EligibleFor("food"))
	})
}

func TestVoucherValidate(t *testing.T) {
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	valid := &Voucher{DiscountPercent: 10, Quantity: 5}
	assert.NoError(t, valid.Validate())

	badDiscount := &Voucher{DiscountPercent: 0}
	assert.ErrorIs(t, badDiscount.Validate(), ErrInvalidDiscount)

	inverted := &Voucher{DiscountPercent: 10, StartTime: base.Add(time.Hour), EndTime: base}
	assert.ErrorIs(t, inverted.Validate(), ErrInvalidWindow)
}
