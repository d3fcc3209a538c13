package domain

import (
	"context"
	"time"

	"flashmall/internal/pkg/pagination"
)

// CampaignFilter 是档期列表查询的过滤条件。
type CampaignFilter struct {
	Name           string
	ItemID         string
	StartTimeAfter *time.Time
	EndTimeAfter   *time.Time
}

// CampaignRepository 是闪购档期仓储接口。
type CampaignRepository interface {
	Create(ctx context.Context, campaign *Campaign) error
	FindByID(ctx context.Context, id string) (*Campaign, error)
	// FindLive 返回此刻正在进行的档期，没有时返回 (nil, nil)。
	// 由窗口不重叠的不变量保证最多只有一个。
	FindLive(ctx context.Context, now time.Time) (*Campaign, error)
	// FindUpcoming 返回所有还没有结束的档期（endTime > now），用于冲突校验。
	FindUpcoming(ctx context.Context, now time.Time) ([]*Campaign, error)
	Search(ctx context.Context, filter CampaignFilter, q pagination.Query) ([]*Campaign, int64, error)
	Update(ctx context.Context, campaign *Campaign) error
	// Delete 软删除档期，幂等。
	Delete(ctx context.Context, id string) error

	// Allocate 对档期内某个商品的剩余量执行 quantity += delta，
	// 仅当结果 >= 0，否则返回 ErrAllocationExhausted 且无副作用。
	Allocate(ctx context.Context, campaignID, itemID string, delta int64) error
}
