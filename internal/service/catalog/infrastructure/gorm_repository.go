package infrastructure

import (
	"context"
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	pkgerrors "github.com/pkg/errors"
	"gorm.io/gorm"

	"flashmall/internal/pkg/pagination"
	"flashmall/internal/service/catalog/domain"
)

// GormItemRepository 是 ItemRepository 的 GORM 实现。
type GormItemRepository struct {
	db *gorm.DB
}

func NewGormItemRepository(db *gorm.DB) *GormItemRepository {
	return &GormItemRepository{db: db}
}

func (r *GormItemRepository) Create(ctx context.Context, item *domain.Item) error {
	model := toItemModel(item)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return mapItemWriteError(err)
	}
	item.CreatedAt = model.CreatedAt
	item.UpdatedAt = model.UpdatedAt
	return nil
}

func (r *GormItemRepository) FindByID(ctx context.Context, id string) (*domain.Item, error) {
	var model ItemModel
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrItemNotFound
		}
		return nil, pkgerrors.Wrap(err, "find item")
	}
	return toDomainItem(&model), nil
}

func (r *GormItemRepository) Search(ctx context.Context, filter domain.ItemFilter, q pagination.Query) ([]*domain.Item, int64, error) {
	q.Normalize()
	tx := r.db.WithContext(ctx).Model(&ItemModel{})
	if filter.Name != "" {
		tx = tx.Where("name = ?", filter.Name)
	}
	if filter.Category != "" {
		tx = tx.Where("category = ?", filter.Category)
	}
	if filter.PriceCents != nil {
		tx = tx.Where("price_cents = ?", *filter.PriceCents)
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, pkgerrors.Wrap(err, "count items")
	}

	var models []*ItemModel
	err := tx.Order(orderClause(q, "created_at")).
		Limit(q.PerPage).Offset(q.Offset()).
		Find(&models).Error
	if err != nil {
		return nil, 0, pkgerrors.Wrap(err, "search items")
	}

	items := make([]*domain.Item, len(models))
	for i, m := range models {
		items[i] = toDomainItem(m)
	}
	return items, total, nil
}

func (r *GormItemRepository) Update(ctx context.Context, id string, patch domain.ItemPatch) (*domain.Item, error) {
	updates := map[string]interface{}{}
	if patch.Name != nil {
		updates["name"] = *patch.Name
	}
	if patch.BarCode != nil {
		if *patch.BarCode == "" {
			updates["bar_code"] = nil
		} else {
			updates["bar_code"] = *patch.BarCode
		}
	}
	if patch.Category != nil {
		updates["category"] = *patch.Category
	}
	if patch.PriceCents != nil {
		updates["price_cents"] = *patch.PriceCents
	}
	if patch.Stocks != nil {
		updates["stocks"] = *patch.Stocks
	}
	if len(updates) > 0 {
		res := r.db.WithContext(ctx).Model(&ItemModel{}).Where("id = ?", id).Updates(updates)
		if res.Error != nil {
			return nil, mapItemWriteError(res.Error)
		}
		if res.RowsAffected == 0 {
			return nil, domain.ErrItemNotFound
		}
	}
	return r.FindByID(ctx, id)
}

func (r *GormItemRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&ItemModel{})
	if res.Error != nil {
		return pkgerrors.Wrap(res.Error, "delete item")
	}
	if res.RowsAffected == 0 {
		return domain.ErrItemNotFound
	}
	return nil
}

// CommitStock 是一条条件原子更新：只有 stocks >= qty 时才会执行扣减。
// RowsAffected == 0 说明条件不满足（或商品不存在），没有任何副作用。
func (r *GormItemRepository) CommitStock(ctx context.Context, id string, qty int64) error {
	res := r.db.WithContext(ctx).Model(&ItemModel{}).
		Where("id = ? AND stocks >= ?", id, qty).
		Updates(map[string]interface{}{
			"stocks": gorm.Expr("stocks - ?", qty),
			"sold":   gorm.Expr("sold + ?", qty),
		})
	if res.Error != nil {
		return pkgerrors.Wrap(res.Error, "commit stock")
	}
	if res.RowsAffected == 0 {
		var count int64
		r.db.WithContext(ctx).Model(&ItemModel{}).Where("id = ?", id).Count(&count)
		if count == 0 {
			return domain.ErrItemNotFound
		}
		return domain.ErrInsufficientStock
	}
	return nil
}

func (r *GormItemRepository) ReleaseStock(ctx context.Context, id string, qty int64) error {
	res := r.db.WithContext(ctx).Model(&ItemModel{}).
		Where("id = ? AND sold >= ?", id, qty).
		Updates(map[string]interface{}{
			"stocks": gorm.Expr("stocks + ?", qty),
			"sold":   gorm.Expr("sold - ?", qty),
		})
	if res.Error != nil {
		return pkgerrors.Wrap(res.Error, "release stock")
	}
	if res.RowsAffected == 0 {
		var count int64
		r.db.WithContext(ctx).Model(&ItemModel{}).Where("id = ?", id).Count(&count)
		if count == 0 {
			return domain.ErrItemNotFound
		}
		// 回补超过已售量说明对账出了偏差, 错误类别要能和商品缺失区分开
		return domain.ErrOverRelease
	}
	return nil
}

// mapItemWriteError 把 MySQL 唯一键冲突翻译成领域错误，避免把存储细节泄漏给调用方。
func mapItemWriteError(err error) error {
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) && mysqlErr.Number == 1062 {
		if strings.Contains(mysqlErr.Message, "bar_code") {
			return domain.ErrBarCodeConflict
		}
		return domain.ErrItemNameConflict
	}
	return pkgerrors.Wrap(err, "write item")
}

// itemSortColumns 把请求里的排序字段映射到列名。
// sortBy 来自外部输入, 不在白名单内的一律回退默认列, 不能直接拼进 ORDER BY。
var itemSortColumns = map[string]string{
	"createdAt": "created_at",
	"name":      "name",
	"price":     "price_cents",
	"stocks":    "stocks",
	"sold":      "sold",
}

func orderClause(q pagination.Query, fallback string) string {
	col, ok := itemSortColumns[q.SortBy]
	if !ok {
		col = fallback
	}
	return col + " " + q.SortType
}

func toItemModel(item *domain.Item) *ItemModel {
	model := &ItemModel{
		ID:         item.ID,
		Name:       item.Name,
		Category:   item.Category,
		PriceCents: item.PriceCents,
		Stocks:     item.Stocks,
		Sold:       item.Sold,
	}
	if item.BarCode != "" {
		code := item.BarCode
		model.BarCode = &code
	}
	return model
}

func toDomainItem(model *ItemModel) *domain.Item {
	barCode := ""
	if model.BarCode != nil {
		barCode = *model.BarCode
	}
	return &domain.Item{
		ID:         model.ID,
		Name:       model.Name,
		BarCode:    barCode,
		Category:   model.Category,
		PriceCents: model.PriceCents,
		Stocks:     model.Stocks,
		Sold:       model.Sold,
		CreatedAt:  model.CreatedAt,
		UpdatedAt:  model.UpdatedAt,
	}
}
