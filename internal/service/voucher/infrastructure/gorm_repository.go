package infrastructure

import (
	"context"
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	pkgerrors "github.com/pkg/errors"
	"gorm.io/gorm"

	"flashmall/internal/pkg/pagination"
	"flashmall/internal/service/voucher/domain"
)

// GormVoucherRepository 是 VoucherRepository 的 GORM 实现。
type GormVoucherRepository struct {
	db *gorm.DB
}

func NewGormVoucherRepository(db *gorm.DB) *GormVoucherRepository {
	return &GormVoucherRepository{db: db}
}

func (r *GormVoucherRepository) Create(ctx context.Context, voucher *domain.Voucher) error {
	model := toVoucherModel(voucher)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return mapVoucherWriteError(err)
	}
	voucher.CreatedAt = model.CreatedAt
	voucher.UpdatedAt = model.UpdatedAt
	return nil
}

func (r *GormVoucherRepository) FindByID(ctx context.Context, id string) (*domain.Voucher, error) {
	var model VoucherModel
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrVoucherNotFound
		}
		return nil, pkgerrors.Wrap(err, "find voucher")
	}
	return toDomainVoucher(&model), nil
}

func (r *GormVoucherRepository) FindByCode(ctx context.Context, code string) (*domain.Voucher, error) {
	var model VoucherModel
	err := r.db.WithContext(ctx).Where("code = ?", code).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrVoucherNotFound
		}
		return nil, pkgerrors.Wrap(err, "find voucher by code")
	}
	return toDomainVoucher(&model), nil
}

func (r *GormVoucherRepository) Search(ctx context.Context, filter domain.VoucherFilter, q pagination.Query) ([]*domain.Voucher, int64, error) {
	q.Normalize()
	tx := r.db.WithContext(ctx).Model(&VoucherModel{})
	if filter.Name != "" {
		tx = tx.Where("name = ?", filter.Name)
	}
	if filter.Code != "" {
		tx = tx.Where("code = ?", filter.Code)
	}
	if filter.Discount > 0 {
		tx = tx.Where("discount_percent = ?", filter.Discount)
	}
	if !filter.StartTime.IsZero() {
		tx = tx.Where("start_time >= ?", filter.StartTime)
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, pkgerrors.Wrap(err, "count vouchers")
	}

	var models []*VoucherModel
	err := tx.Order(voucherOrderClause(q)).
		Limit(q.PerPage).Offset(q.Offset()).
		Find(&models).Error
	if err != nil {
		return nil, 0, pkgerrors.Wrap(err, "search vouchers")
	}

	vouchers := make([]*domain.Voucher, len(models))
	for i, m := range models {
		vouchers[i] = toDomainVoucher(m)
	}
	return vouchers, total, nil
}

func (r *GormVoucherRepository) Update(ctx context.Context, id string, patch domain.VoucherPatch) (*domain.Voucher, error) {
	updates := map[string]interface{}{}
	if patch.Name != nil {
		updates["name"] = *patch.Name
	}
	if patch.Code != nil {
		updates["code"] = *patch.Code
	}
	if patch.DiscountPercent != nil {
		updates["discount_percent"] = *patch.DiscountPercent
	}
	if patch.EligibleCategories != nil {
		updates["eligible_categories"] = strings.Join(patch.EligibleCategories, ",")
	}
	if patch.EligibilityRule != nil {
		updates["eligibility_rule"] = *patch.EligibilityRule
	}
	if patch.Quantity != nil {
		updates["quantity"] = *patch.Quantity
	}
	if patch.StartTime != nil {
		updates["start_time"] = *patch.StartTime
	}
	if patch.EndTime != nil {
		updates["end_time"] = *patch.EndTime
	}
	if len(updates) > 0 {
		res := r.db.WithContext(ctx).Model(&VoucherModel{}).Where("id = ?", id).Updates(updates)
		if res.Error != nil {
			return nil, mapVoucherWriteError(res.Error)
		}
		if res.RowsAffected == 0 {
			return nil, domain.ErrVoucherNotFound
		}
	}
	return r.FindByID(ctx, id)
}

func (r *GormVoucherRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&VoucherModel{})
	if res.Error != nil {
		return pkgerrors.Wrap(res.Error, "delete voucher")
	}
	if res.RowsAffected == 0 {
		return domain.ErrVoucherNotFound
	}
	return nil
}

// Allocate 条件原子增减剩余次数：仅当 quantity + delta >= 0 时生效。
// RowsAffected == 0 时区分券不存在和次数耗尽。
func (r *GormVoucherRepository) Allocate(ctx context.Context, id string, delta int) error {
	res := r.db.WithContext(ctx).Model(&VoucherModel{}).
		Where("id = ? AND quantity + ? >= 0", id, delta).
		Update("quantity", gorm.Expr("quantity + ?", delta))
	if res.Error != nil {
		return pkgerrors.Wrap(res.Error, "allocate voucher")
	}
	if res.RowsAffected == 0 {
		var count int64
		r.db.WithContext(ctx).Model(&VoucherModel{}).Where("id = ?", id).Count(&count)
		if count == 0 {
			return domain.ErrVoucherNotFound
		}
		return domain.ErrVoucherExhausted
	}
	return nil
}

func mapVoucherWriteError(err error) error {
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) && mysqlErr.Number == 1062 {
		return domain.ErrVoucherCodeConflict
	}
	return pkgerrors.Wrap(err, "write voucher")
}

// voucherSortColumns 排序字段白名单, 防止外部输入直接进 ORDER BY。
var voucherSortColumns = map[string]string{
	"createdAt":   "created_at",
	"nameVoucher": "name",
	"code":        "code",
	"discount":    "discount_percent",
	"startTime":   "start_time",
}

func voucherOrderClause(q pagination.Query) string {
	col, ok := voucherSortColumns[q.SortBy]
	if !ok {
		col = "created_at"
	}
	return col + " " + q.SortType
}
