package port

import (
	"context"
	"errors"
)

var (
	ErrItemNotFound      = errors.New("item not found")
	ErrInsufficientStock = errors.New("insufficient stock")
)

// CatalogItem 是订单侧看到的商品快照, 永远取原价, 不带闪购标注。
type CatalogItem struct {
	ID         string
	Name       string
	Category   string
	PriceCents int64
	Stocks     int64
}

// ItemCatalog 是商品目录与库存账本的出站端口。
type ItemCatalog interface {
	// GetItemOriginal 取商品原始状态 (绕过闪购价标注)。
	GetItemOriginal(ctx context.Context, itemID string) (*CatalogItem, error)

	// CommitStock 条件原子扣减库存: stocks -= qty, sold += qty,
	// 仅当 stocks >= qty 时生效, 否则返回 ErrInsufficientStock。
	CommitStock(ctx context.Context, itemID string, qty int64) error

	// ReleaseStock 是 CommitStock 的补偿操作, 回补库存。
	ReleaseStock(ctx context.Context, itemID string, qty int64) error
}
