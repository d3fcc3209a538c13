// internal/service/order/domain/order.go
package domain

import (
	"errors"
	"time"
)

var (
	ErrOrderNotFound   = errors.New("order not found")
	ErrEmptyOrder      = errors.New("order must contain at least one line item")
	ErrInvalidQuantity = errors.New("line quantity must be at least 1")
	ErrAlreadyFinal    = errors.New("order is already in a final state")
	ErrForbidden       = errors.New("requester may not operate on this order")
)

// LineItem 是订单内一个商品行的快照。
// 创建订单时从活动数据复制进来, 之后永远不再从 Item/FlashSale/Voucher
// 的实时状态重新推导, 保证历史价格可追溯。
type LineItem struct {
	ItemID           string
	ItemName         string
	Category         string
	Quantity         int64
	UnitPriceCents   int64 // 下单时刻的商品原价
	OriginCents      int64 // 原价行小计
	TotalCents       int64 // 折后行小计
	FlashSaleID      string
	FlashSalePercent int
	VoucherApplied   bool
	VoucherPercent   int
}

// Order 是订单聚合的根实体。
type Order struct {
	ID               string
	UserID           string
	UserName         string
	Items            []LineItem
	VoucherID        string
	VoucherCode      string
	OriginPriceCents int64
	TotalPriceCents  int64
	Status           Status
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// NewOrder 工厂函数, 汇总行快照并校验总价恒等式。
func NewOrder(id, userID, userName string, items []LineItem) (*Order, error) {
	if id == "" || userID == "" {
		return nil, errors.New("cannot create order with empty required fields")
	}
	if len(items) == 0 {
		return nil, ErrEmptyOrder
	}

	order := &Order{
		ID:       id,
		UserID:   userID,
		UserName: userName,
		Items:    items,
		Status:   StatusPlaced,
	}
	for _, line := range items {
		order.OriginPriceCents += line.OriginCents
		order.TotalPriceCents += line.TotalCents
	}
	return order, nil
}

// OwnedBy 判定订单归属。
func (o *Order) OwnedBy(userID string) bool {
	return o.UserID == userID
}

// CanCancel 校验订单是否还能取消。终态订单返回 ErrAlreadyFinal。
func (o *Order) CanCancel() error {
	if o.Status.IsFinal() {
		return ErrAlreadyFinal
	}
	return nil
}
