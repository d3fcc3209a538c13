package infrastructure

import (
	"context"
	"sort"
	"sync"
	"time"

	"flashmall/internal/pkg/pagination"
	"flashmall/internal/service/flashsale/domain"
)

// MemoryCampaignRepository 是 CampaignRepository 的内存实现，
// 与 GORM 实现保持相同的条件原子语义，供测试使用。
type MemoryCampaignRepository struct {
	mu        sync.Mutex
	campaigns map[string]*domain.Campaign
	deleted   map[string]bool
}

func NewMemoryCampaignRepository() *MemoryCampaignRepository {
	return &MemoryCampaignRepository{
		campaigns: make(map[string]*domain.Campaign),
		deleted:   make(map[string]bool),
	}
}

func (r *MemoryCampaignRepository) Create(_ context.Context, campaign *domain.Campaign) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	campaign.CreatedAt = time.Now()
	campaign.UpdatedAt = campaign.CreatedAt
	r.campaigns[campaign.ID] = cloneCampaign(campaign)
	return nil
}

func (r *MemoryCampaignRepository) FindByID(_ context.Context, id string) (*domain.Campaign, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	campaign, ok := r.campaigns[id]
	if !ok || r.deleted[id] {
		return nil, domain.ErrCampaignNotFound
	}
	return cloneCampaign(campaign), nil
}

func (r *MemoryCampaignRepository) FindLive(_ context.Context, now time.Time) (*domain.Campaign, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, campaign := range r.campaigns {
		if r.deleted[id] {
			continue
		}
		if campaign.IsLive(now) {
			return cloneCampaign(campaign), nil
		}
	}
	return nil, nil
}

func (r *MemoryCampaignRepository) FindUpcoming(_ context.Context, now time.Time) ([]*domain.Campaign, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*domain.Campaign
	for id, campaign := range r.campaigns {
		if r.deleted[id] {
			continue
		}
		if campaign.EndTime.After(now) {
			result = append(result, cloneCampaign(campaign))
		}
	}
	return result, nil
}

func (r *MemoryCampaignRepository) Search(_ context.Context, filter domain.CampaignFilter, q pagination.Query) ([]*domain.Campaign, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	q.Normalize()

	var matched []*domain.Campaign
	for id, campaign := range r.campaigns {
		if r.deleted[id] {
			continue
		}
		if filter.Name != "" && campaign.Name != filter.Name {
			continue
		}
		if filter.StartTimeAfter != nil && !campaign.StartTime.After(*filter.StartTimeAfter) {
			continue
		}
		if filter.EndTimeAfter != nil && !campaign.EndTime.After(*filter.EndTimeAfter) {
			continue
		}
		if filter.ItemID != "" && campaign.Allocation(filter.ItemID) == nil {
			continue
		}
		matched = append(matched, cloneCampaign(campaign))
	}
	sort.Slice(matched, func(i, j int) bool {
		if q.SortType == "asc" {
			return matched[i].StartTime.Before(matched[j].StartTime)
		}
		return matched[i].StartTime.After(matched[j].StartTime)
	})

	total := int64(len(matched))
	start := q.Offset()
	if start > len(matched) {
		start = len(matched)
	}
	end := start + q.PerPage
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (r *MemoryCampaignRepository) Update(_ context.Context, campaign *domain.Campaign) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.campaigns[campaign.ID]; !ok || r.deleted[campaign.ID] {
		return domain.ErrCampaignNotFound
	}
	campaign.UpdatedAt = time.Now()
	r.campaigns[campaign.ID] = cloneCampaign(campaign)
	return nil
}

func (r *MemoryCampaignRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.campaigns[id]; ok {
		r.deleted[id] = true
	}
	return nil
}

func (r *MemoryCampaignRepository) Allocate(_ context.Context, campaignID, itemID string, delta int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	campaign, ok := r.campaigns[campaignID]
	if !ok || r.deleted[campaignID] {
		return domain.ErrAllocationNotFound
	}
	alloc := campaign.Allocation(itemID)
	if alloc == nil {
		return domain.ErrAllocationNotFound
	}
	if alloc.FlashSaleQuantity+delta < 0 {
		return domain.ErrAllocationExhausted
	}
	alloc.FlashSaleQuantity += delta
	return nil
}

func cloneCampaign(c *domain.Campaign) *domain.Campaign {
	cp := *c
	cp.Items = make([]domain.ItemAllocation, len(c.Items))
	copy(cp.Items, c.Items)
	return &cp
}
