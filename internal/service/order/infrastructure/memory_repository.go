package infrastructure

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"flashmall/internal/pkg/pagination"
	"flashmall/internal/service/order/domain"
)

// MemoryOrderRepository 是 OrderRepository 的内存实现，
// 保持与 GORM 实现相同的条件流转语义，供测试和本地运行使用。
type MemoryOrderRepository struct {
	mu     sync.Mutex
	orders map[string]*domain.Order
}

func NewMemoryOrderRepository() *MemoryOrderRepository {
	return &MemoryOrderRepository{orders: make(map[string]*domain.Order)}
}

func cloneOrder(o *domain.Order) *domain.Order {
	cp := *o
	cp.Items = append([]domain.LineItem(nil), o.Items...)
	return &cp
}

func (r *MemoryOrderRepository) Create(_ context.Context, order *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	order.CreatedAt = time.Now()
	order.UpdatedAt = order.CreatedAt
	r.orders[order.ID] = cloneOrder(order)
	return nil
}

func (r *MemoryOrderRepository) FindByID(_ context.Context, id string) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	return cloneOrder(order), nil
}

func (r *MemoryOrderRepository) Search(_ context.Context, filter domain.OrderFilter, q pagination.Query) ([]*domain.Order, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	q.Normalize()

	var matched []*domain.Order
	for _, order := range r.orders {
		if filter.OrderID != "" && order.ID != filter.OrderID {
			continue
		}
		if filter.Status != "" && order.Status != filter.Status {
			continue
		}
		if filter.UserID != "" && order.UserID != filter.UserID {
			continue
		}
		if filter.UserName != "" && order.UserName != filter.UserName {
			continue
		}
		if !filter.CreatedFrom.IsZero() && order.CreatedAt.Before(filter.CreatedFrom) {
			continue
		}
		if !filter.CreatedTo.IsZero() && order.CreatedAt.After(filter.CreatedTo) {
			continue
		}
		if filter.ItemName != "" && !orderContainsItem(order, filter.ItemName) {
			continue
		}
		matched = append(matched, cloneOrder(order))
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

func (r *MemoryOrderRepository) Transition(_ context.Context, id string, from, to domain.Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[id]
	if !ok {
		return domain.ErrOrderNotFound
	}
	if order.Status != from {
		return domain.ErrAlreadyFinal
	}
	order.Status = to
	order.UpdatedAt = time.Now()
	return nil
}

func (r *MemoryOrderRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orders[id]; !ok {
		return domain.ErrOrderNotFound
	}
	delete(r.orders, id)
	return nil
}

func orderContainsItem(order *domain.Order, itemName string) bool {
	for _, line := range order.Items {
		if strings.EqualFold(line.ItemName, itemName) {
			return true
		}
	}
	return false
}
