package infrastructure

import (
	"time"

	"flashmall/internal/service/order/domain"
)

// OrderModel 是订单聚合在数据库中的表示。行快照单独成表。
type OrderModel struct {
	ID               string `gorm:"primaryKey;size:36"`
	UserID           string `gorm:"index;size:36"`
	UserName         string `gorm:"size:255"`
	VoucherID        string `gorm:"size:36"`
	VoucherCode      string `gorm:"size:64"`
	OriginPriceCents int64
	TotalPriceCents  int64
	Status           string           `gorm:"index;size:16"`
	Items            []OrderItemModel `gorm:"foreignKey:OrderID"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (OrderModel) TableName() string {
	return "orders"
}

type OrderItemModel struct {
	ID               uint   `gorm:"primaryKey;autoIncrement"`
	OrderID          string `gorm:"index;size:36"`
	ItemID           string `gorm:"size:36"`
	ItemName         string `gorm:"index;size:255"`
	Category         string `gorm:"size:64"`
	Quantity         int64
	UnitPriceCents   int64
	OriginCents      int64
	TotalCents       int64
	FlashSaleID      string `gorm:"size:36"`
	FlashSalePercent int
	VoucherApplied   bool
	VoucherPercent   int
}

func (OrderItemModel) TableName() string {
	return "order_items"
}

func toOrderModel(order *domain.Order) *OrderModel {
	model := &OrderModel{
		ID:               order.ID,
		UserID:           order.UserID,
		UserName:         order.UserName,
		VoucherID:        order.VoucherID,
		VoucherCode:      order.VoucherCode,
		OriginPriceCents: order.OriginPriceCents,
		TotalPriceCents:  order.TotalPriceCents,
		Status:           string(order.Status),
		CreatedAt:        order.CreatedAt,
		UpdatedAt:        order.UpdatedAt,
	}
	for _, line := range order.Items {
		model.Items = append(model.Items, OrderItemModel{
			OrderID:          order.ID,
			ItemID:           line.ItemID,
			ItemName:         line.ItemName,
			Category:         line.Category,
			Quantity:         line.Quantity,
			UnitPriceCents:   line.UnitPriceCents,
			OriginCents:      line.OriginCents,
			TotalCents:       line.TotalCents,
			FlashSaleID:      line.FlashSaleID,
			FlashSalePercent: line.FlashSalePercent,
			VoucherApplied:   line.VoucherApplied,
			VoucherPercent:   line.VoucherPercent,
		})
	}
	return model
}

func toDomainOrder(model *OrderModel) *domain.Order {
	order := &domain.Order{
		ID:               model.ID,
		UserID:           model.UserID,
		UserName:         model.UserName,
		VoucherID:        model.VoucherID,
		VoucherCode:      model.VoucherCode,
		OriginPriceCents: model.OriginPriceCents,
		TotalPriceCents:  model.TotalPriceCents,
		Status:           domain.Status(model.Status),
		CreatedAt:        model.CreatedAt,
		UpdatedAt:        model.UpdatedAt,
	}
	for _, line := range model.Items {
		order.Items = append(order.Items, domain.LineItem{
			ItemID:           line.ItemID,
			ItemName:         line.ItemName,
			Category:         line.Category,
			Quantity:         line.Quantity,
			UnitPriceCents:   line.UnitPriceCents,
			OriginCents:      line.OriginCents,
			TotalCents:       line.TotalCents,
			FlashSaleID:      line.FlashSaleID,
			FlashSalePercent: line.FlashSalePercent,
			VoucherApplied:   line.VoucherApplied,
			VoucherPercent:   line.VoucherPercent,
		})
	}
	return order
}
