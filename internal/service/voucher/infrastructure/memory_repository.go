package infrastructure

import (
	"context"
	"sort"
	"sync"
	"time"

	"flashmall/internal/pkg/pagination"
	"flashmall/internal/service/voucher/domain"
)

// MemoryVoucherRepository 是 VoucherRepository 的内存实现，
// 保持与 GORM 实现相同的条件原子语义，供测试和本地运行使用。
type MemoryVoucherRepository struct {
	mu       sync.Mutex
	vouchers map[string]*domain.Voucher
}

func NewMemoryVoucherRepository() *MemoryVoucherRepository {
	return &MemoryVoucherRepository{vouchers: make(map[string]*domain.Voucher)}
}

func cloneVoucher(v *domain.Voucher) *domain.Voucher {
	cp := *v
	cp.EligibleCategories = append([]string(nil), v.EligibleCategories...)
	return &cp
}

func (r *MemoryVoucherRepository) Create(_ context.Context, voucher *domain.Voucher) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.vouchers {
		if existing.Code == voucher.Code {
			return domain.ErrVoucherCodeConflict
		}
	}
	voucher.CreatedAt = time.Now()
	voucher.UpdatedAt = voucher.CreatedAt
	r.vouchers[voucher.ID] = cloneVoucher(voucher)
	return nil
}

func (r *MemoryVoucherRepository) FindByID(_ context.Context, id string) (*domain.Voucher, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	voucher, ok := r.vouchers[id]
	if !ok {
		return nil, domain.ErrVoucherNotFound
	}
	return cloneVoucher(voucher), nil
}

func (r *MemoryVoucherRepository) FindByCode(_ context.Context, code string) (*domain.Voucher, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, voucher := range r.vouchers {
		if voucher.Code == code {
			return cloneVoucher(voucher), nil
		}
	}
	return nil, domain.ErrVoucherNotFound
}

func (r *MemoryVoucherRepository) Search(_ context.Context, filter domain.VoucherFilter, q pagination.Query) ([]*domain.Voucher, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	q.Normalize()

	var matched []*domain.Voucher
	for _, voucher := range r.vouchers {
		if filter.Name != "" && voucher.Name != filter.Name {
			continue
		}
		if filter.Code != "" && voucher.Code != filter.Code {
			continue
		}
		if filter.Discount > 0 && voucher.DiscountPercent != filter.Discount {
			continue
		}
		if !filter.StartTime.IsZero() && voucher.StartTime.Before(filter.StartTime) {
			continue
		}
		matched = append(matched, cloneVoucher(voucher))
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

func (r *MemoryVoucherRepository) Update(_ context.Context, id string, patch domain.VoucherPatch) (*domain.Voucher, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	voucher, ok := r.vouchers[id]
	if !ok {
		return nil, domain.ErrVoucherNotFound
	}
	if patch.Name != nil {
		voucher.Name = *patch.Name
	}
	if patch.Code != nil {
		for _, existing := range r.vouchers {
			if existing.ID != id && existing.Code == *patch.Code {
				return nil, domain.ErrVoucherCodeConflict
			}
		}
		voucher.Code = *patch.Code
	}
	if patch.DiscountPercent != nil {
		voucher.DiscountPercent = *patch.DiscountPercent
	}
	if patch.EligibleCategories != nil {
		voucher.EligibleCategories = append([]string(nil), patch.EligibleCategories...)
	}
	if patch.EligibilityRule != nil {
		voucher.EligibilityRule = *patch.EligibilityRule
	}
	if patch.Quantity != nil {
		voucher.Quantity = *patch.Quantity
	}
	if patch.StartTime != nil {
		voucher.StartTime = *patch.StartTime
	}
	if patch.EndTime != nil {
		voucher.EndTime = *patch.EndTime
	}
	voucher.UpdatedAt = time.Now()
	return cloneVoucher(voucher), nil
}

func (r *MemoryVoucherRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.vouchers[id]; !ok {
		return domain.ErrVoucherNotFound
	}
	delete(r.vouchers, id)
	return nil
}

func (r *MemoryVoucherRepository) Allocate(_ context.Context, id string, delta int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	voucher, ok := r.vouchers[id]
	if !ok {
		return domain.ErrVoucherNotFound
	}
	if voucher.Quantity+delta < 0 {
		return domain.ErrVoucherExhausted
	}
	voucher.Quantity += delta
	return nil
}
