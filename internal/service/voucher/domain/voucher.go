package domain

import (
	"errors"
	"time"
)

var (
	ErrVoucherNotFound      = errors.New("voucher not found")
	ErrVoucherCodeConflict  = errors.New("voucher code already exists")
	ErrVoucherInvalid       = errors.New("voucher is not currently valid")
	ErrVoucherNotApplicable = errors.New("voucher does not apply to this category")
	ErrVoucherExhausted     = errors.New("voucher quantity exhausted")
	ErrInvalidDiscount      = errors.New("voucher discount percent out of range")
	ErrInvalidWindow        = errors.New("voucher start time must be before end time")
)

// Voucher 折扣券聚合根。quantity 是剩余可兑换次数,
// 每个订单恰好消耗一次, 与订单内行数无关。
type Voucher struct {
	ID                 string
	Name               string
	Code               string
	DiscountPercent    int
	EligibleCategories []string
	// EligibilityRule 可选的 CEL 表达式, 非空时覆盖品类集合判定。
	EligibilityRule string
	Quantity        int
	// StartTime/EndTime 为零值时表示不限时段。
	StartTime time.Time
	EndTime   time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (v *Voucher) Validate() error {
	if v.DiscountPercent < 1 || v.DiscountPercent > 99 {
		return ErrInvalidDiscount
	}
	if v.TimeBounded() && !v.StartTime.Before(v.EndTime) {
		return ErrInvalidWindow
	}
	return nil
}

func (v *Voucher) TimeBounded() bool {
	return !v.StartTime.IsZero() || !v.EndTime.IsZero()
}

// IsValidAt 判定券在 now 时刻是否可兑换: 剩余次数大于零,
// 且(若限时)now 落在 [StartTime, EndTime) 内。
func (v *Voucher) IsValidAt(now time.Time) bool {
	return v.Quantity > 0 && v.InWindow(now)
}

// InWindow 判定 now 是否落在券的有效时段内, 不看剩余次数。
func (v *Voucher) InWindow(now time.Time) bool {
	if !v.TimeBounded() {
		return true
	}
	if !v.StartTime.IsZero() && now.Before(v.StartTime) {
		return false
	}
	if !v.EndTime.IsZero() && !now.Before(v.EndTime) {
		return false
	}
	return true
}

// EligibleFor 检查品类是否在券的适用范围内。
// 适用范围为空表示全品类通用。
func (v *Voucher) EligibleFor(category string) bool {
	if len(v.EligibleCategories) == 0 {
		return true
	}
	for _, c := range v.EligibleCategories {
		if c == category {
			return true
		}
	}
	return false
}
