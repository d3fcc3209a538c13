package infrastructure

import "time"

// ItemModel 是 Item 聚合在数据库中的表示。
// BarCode 可选, 存 NULL 而不是空串, 否则唯一索引会拦住所有没有条码的商品。
type ItemModel struct {
	ID         string  `gorm:"primaryKey;size:36"`
	Name       string  `gorm:"uniqueIndex;size:255"`
	BarCode    *string `gorm:"uniqueIndex;size:64"`
	Category   string  `gorm:"index;size:64"`
	PriceCents int64
	Stocks     int64
	Sold       int64
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (ItemModel) TableName() string {
	return "items"
}
