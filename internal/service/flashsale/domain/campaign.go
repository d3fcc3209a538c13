package domain

import (
	"errors"
	"time"
)

var (
	ErrCampaignNotFound    = errors.New("flash sale does not exist")
	ErrWindowConflict      = errors.New("there existed flash sales during this time")
	ErrInvalidWindow       = errors.New("startTime must be before endTime")
	ErrInvalidDiscount     = errors.New("discount must be between 1 and 99 percent")
	ErrAllocationNotFound  = errors.New("item is not part of this flash sale")
	ErrAllocationExhausted = errors.New("flash sale quantity exhausted")
)

// Status 是档期状态。ACTIVE 表示档期启用；是否正在进行还要结合时间窗口判断。
type Status string

const (
	StatusDraft  Status = "DRAFT"
	StatusActive Status = "ACTIVE"
	StatusEnded  Status = "ENDED"
)

// ItemAllocation 是档期内单个商品的限量折扣配置。
// FlashSaleQuantity 只能通过仓储的条件原子更新增减，永远不会小于 0。
type ItemAllocation struct {
	ItemID            string
	FlashSaleQuantity int64
	DiscountPercent   int
}

// Campaign 是闪购档期聚合根。
// 不变量：同一时刻最多有一个档期覆盖任意商品 —— 档期窗口之间不允许重叠，
// 这个约束在创建/更新时由注册表强制执行。
type Campaign struct {
	ID        string
	Name      string
	Status    Status
	StartTime time.Time
	EndTime   time.Time
	Items     []ItemAllocation
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate 校验档期自身的静态约束。
func (c *Campaign) Validate() error {
	if !c.StartTime.Before(c.EndTime) {
		return ErrInvalidWindow
	}
	for _, alloc := range c.Items {
		if alloc.DiscountPercent < 1 || alloc.DiscountPercent > 99 {
			return ErrInvalidDiscount
		}
	}
	return nil
}

// Overlaps 判断两个时间窗口是否相交（闭区间语义，与既有数据保持一致）。
func (c *Campaign) Overlaps(start, end time.Time) bool {
	return !start.After(c.EndTime) && !c.StartTime.After(end)
}

// IsLive 判断档期此刻是否正在进行：状态启用且 [start, end) 覆盖 now。
func (c *Campaign) IsLive(now time.Time) bool {
	if c.Status != StatusActive {
		return false
	}
	return !now.Before(c.StartTime) && now.Before(c.EndTime)
}

// Allocation 返回指定商品的折扣配置，不在档期内时返回 nil。
func (c *Campaign) Allocation(itemID string) *ItemAllocation {
	for i := range c.Items {
		if c.Items[i].ItemID == itemID {
			return &c.Items[i]
		}
	}
	return nil
}
