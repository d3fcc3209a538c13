package domain

import (
	"errors"
	"time"
)

var (
	ErrItemNotFound      = errors.New("item does not exist")
	ErrItemNameConflict  = errors.New("item name already exists")
	ErrBarCodeConflict   = errors.New("item barcode already exists")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrOverRelease       = errors.New("release exceeds sold quantity")
	ErrItemHasSales      = errors.New("item with sales history cannot be deleted")
)

// Item 是商品聚合根。
// stocks 永远不会小于 0，sold 只增不减（取消订单的回补除外），
// 两个计数器的变更只允许通过仓储的条件原子更新完成。
type Item struct {
	ID         string
	Name       string
	BarCode    string
	Category   string
	PriceCents int64
	Stocks     int64
	Sold       int64
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Promotion 描述商品当前命中的闪购信息，用于读路径的标注。
type Promotion struct {
	CampaignID      string
	CampaignName    string
	DiscountPercent int
	Remaining       int64
	PriceCents      int64 // 闪购价（已按统一舍入策略计算）
}

// ItemView 是对外的商品视图：原始商品 + 可选的闪购标注。
type ItemView struct {
	Item
	FlashSale *Promotion
}
