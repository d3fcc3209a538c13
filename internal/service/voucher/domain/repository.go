package domain

import (
	"context"
	"time"

	"flashmall/internal/pkg/pagination"
)

// VoucherFilter 列表查询条件, 零值字段不参与过滤。
type VoucherFilter struct {
	Name      string
	Code      string
	Discount  int
	StartTime time.Time
}

type VoucherPatch struct {
	Name               *string
	Code               *string
	DiscountPercent    *int
	EligibleCategories []string
	EligibilityRule    *string
	Quantity           *int
	StartTime          *time.Time
	EndTime            *time.Time
}

type VoucherRepository interface {
	Create(ctx context.Context, voucher *Voucher) error
	FindByID(ctx context.Context, id string) (*Voucher, error)
	FindByCode(ctx context.Context, code string) (*Voucher, error)
	Search(ctx context.Context, filter VoucherFilter, q pagination.Query) ([]*Voucher, int64, error)
	Update(ctx context.Context, id string, patch VoucherPatch) (*Voucher, error)
	Delete(ctx context.Context, id string) error

	// Allocate 对剩余次数做条件原子增减: 仅当 quantity + delta >= 0 时生效。
	// 次数不足返回 ErrVoucherExhausted。
	Allocate(ctx context.Context, id string, delta int) error
}
