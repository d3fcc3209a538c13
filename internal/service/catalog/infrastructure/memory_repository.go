package infrastructure

import (
	"context"
	"sort"
	"sync"
	"time"

	"flashmall/internal/pkg/pagination"
	"flashmall/internal/service/catalog/domain"
)

// MemoryItemRepository 是 ItemRepository 的内存实现，
// 保持与 GORM 实现相同的条件原子语义，供测试和本地运行使用。
type MemoryItemRepository struct {
	mu    sync.Mutex
	items map[string]*domain.Item
}

func NewMemoryItemRepository() *MemoryItemRepository {
	return &MemoryItemRepository{items: make(map[string]*domain.Item)}
}

func (r *MemoryItemRepository) Create(_ context.Context, item *domain.Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.items {
		if existing.Name == item.Name {
			return domain.ErrItemNameConflict
		}
		if item.BarCode != "" && existing.BarCode == item.BarCode {
			return domain.ErrBarCodeConflict
		}
	}
	item.CreatedAt = time.Now()
	item.UpdatedAt = item.CreatedAt
	cp := *item
	r.items[item.ID] = &cp
	return nil
}

func (r *MemoryItemRepository) FindByID(_ context.Context, id string) (*domain.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[id]
	if !ok {
		return nil, domain.ErrItemNotFound
	}
	cp := *item
	return &cp, nil
}

func (r *MemoryItemRepository) Search(_ context.Context, filter domain.ItemFilter, q pagination.Query) ([]*domain.Item, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	q.Normalize()

	var matched []*domain.Item
	for _, item := range r.items {
		if filter.Name != "" && item.Name != filter.Name {
			continue
		}
		if filter.Category != "" && item.Category != filter.Category {
			continue
		}
		if filter.PriceCents != nil && item.PriceCents != *filter.PriceCents {
			continue
		}
		cp := *item
		matched = append(matched, &cp)
	}
	sort.Slice(matched, func(i, j int) bool {
		if q.SortType == "asc" {
			return matched[i].CreatedAt.Before(matched[j].CreatedAt)
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
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

func (r *MemoryItemRepository) Update(_ context.Context, id string, patch domain.ItemPatch) (*domain.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[id]
	if !ok {
		return nil, domain.ErrItemNotFound
	}
	if patch.Name != nil {
		item.Name = *patch.Name
	}
	if patch.BarCode != nil {
		item.BarCode = *patch.BarCode
	}
	if patch.Category != nil {
		item.Category = *patch.Category
	}
	if patch.PriceCents != nil {
		item.PriceCents = *patch.PriceCents
	}
	if patch.Stocks != nil {
		item.Stocks = *patch.Stocks
	}
	item.UpdatedAt = time.Now()
	cp := *item
	return &cp, nil
}

func (r *MemoryItemRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return domain.ErrItemNotFound
	}
	delete(r.items, id)
	return nil
}

func (r *MemoryItemRepository) CommitStock(_ context.Context, id string, qty int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[id]
	if !ok {
		return domain.ErrItemNotFound
	}
	if item.Stocks < qty {
		return domain.ErrInsufficientStock
	}
	item.Stocks -= qty
	item.Sold += qty
	return nil
}

func (r *MemoryItemRepository) ReleaseStock(_ context.Context, id string, qty int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[id]
	if !ok {
		return domain.ErrItemNotFound
	}
	if item.Sold < qty {
		return domain.ErrOverRelease
	}
	item.Stocks += qty
	item.Sold -= qty
	return nil
}
