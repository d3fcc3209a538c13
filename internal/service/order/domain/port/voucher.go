package port

import (
	"context"
	"errors"
)

var (
	ErrVoucherInvalid       = errors.New("voucher is not currently valid")
	ErrVoucherNotApplicable = errors.New("voucher does not apply to this category")
	ErrVoucherExhausted     = errors.New("voucher quantity exhausted")
)

// Voucher 是订单侧看到的券快照。
type Voucher struct {
	ID              string
	Code            string
	DiscountPercent int
}

// VoucherLedger 是折扣券账本的出站端口。
type VoucherLedger interface {
	// FindValidByCode 按码查当前可兑换的券, 无效一律返回 ErrVoucherInvalid。
	FindValidByCode(ctx context.Context, code string) (*Voucher, error)

	// CheckEligibility 判定券对某商品行是否适用。
	CheckEligibility(ctx context.Context, voucherID, category string, quantity int64) error

	// Redeem 核销一次, 不足返回 ErrVoucherExhausted。整单只核销一次, 与行数无关。
	Redeem(ctx context.Context, voucherID string) error

	// Restore 是 Redeem 的补偿操作。
	Restore(ctx context.Context, voucherID string) error
}
