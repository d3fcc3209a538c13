package domain

import (
	"context"

	"flashmall/internal/pkg/pagination"
)

// ItemFilter 是商品列表查询的过滤条件。
type ItemFilter struct {
	Name       string
	Category   string
	PriceCents *int64
}

// ItemPatch 是部分更新的字段集合，nil 表示不修改。
type ItemPatch struct {
	Name       *string
	BarCode    *string
	Category   *string
	PriceCents *int64
	Stocks     *int64
}

// ItemRepository 是商品仓储接口。
// CommitStock / ReleaseStock 必须实现为单条条件原子更新，
// 任何读出再写回的实现都会在并发下单时超卖。
type ItemRepository interface {
	Create(ctx context.Context, item *Item) error
	FindByID(ctx context.Context, id string) (*Item, error)
	Search(ctx context.Context, filter ItemFilter, q pagination.Query) ([]*Item, int64, error)
	Update(ctx context.Context, id string, patch ItemPatch) (*Item, error)
	Delete(ctx context.Context, id string) error

	// CommitStock 执行 stocks -= qty, sold += qty，仅当 stocks >= qty。
	// 条件不满足时返回 ErrInsufficientStock，且不产生任何副作用。
	CommitStock(ctx context.Context, id string, qty int64) error
	// ReleaseStock 执行 stocks += qty, sold -= qty（取消订单的回补）。
	ReleaseStock(ctx context.Context, id string, qty int64) error
}
