package infrastructure

import (
	"context"
	"errors"

	pkgerrors "github.com/pkg/errors"
	"gorm.io/gorm"

	"flashmall/internal/pkg/pagination"
	"flashmall/internal/service/order/domain"
)

// GormOrderRepository 是 OrderRepository 的 GORM 实现。
type GormOrderRepository struct {
	db *gorm.DB
}

func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

func (r *GormOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	model := toOrderModel(order)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return pkgerrors.Wrap(err, "create order")
	}
	order.CreatedAt = model.CreatedAt
	order.UpdatedAt = model.UpdatedAt
	return nil
}

func (r *GormOrderRepository) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	var model OrderModel
	err := r.db.WithContext(ctx).Preload("Items").Where("id = ?", id).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, pkgerrors.Wrap(err, "find order")
	}
	return toDomainOrder(&model), nil
}

func (r *GormOrderRepository) Search(ctx context.Context, filter domain.OrderFilter, q pagination.Query) ([]*domain.Order, int64, error) {
	q.Normalize()
	tx := r.db.WithContext(ctx).Model(&OrderModel{})
	if filter.OrderID != "" {
		tx = tx.Where("orders.id = ?", filter.OrderID)
	}
	if filter.Status != "" {
		tx = tx.Where("orders.status = ?", string(filter.Status))
	}
	if filter.UserID != "" {
		tx = tx.Where("orders.user_id = ?", filter.UserID)
	}
	if filter.UserName != "" {
		tx = tx.Where("orders.user_name = ?", filter.UserName)
	}
	if !filter.CreatedFrom.IsZero() {
		tx = tx.Where("orders.created_at >= ?", filter.CreatedFrom)
	}
	if !filter.CreatedTo.IsZero() {
		tx = tx.Where("orders.created_at <= ?", filter.CreatedTo)
	}
	if filter.ItemName != "" {
		tx = tx.Joins("JOIN order_items ON order_items.order_id = orders.id").
			Where("order_items.item_name = ?", filter.ItemName).
			Distinct("orders.*")
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, pkgerrors.Wrap(err, "count orders")
	}

	var models []*OrderModel
	err := tx.Preload("Items").
		Order(orderClause(q)).
		Limit(q.PerPage).Offset(q.Offset()).
		Find(&models).Error
	if err != nil {
		return nil, 0, pkgerrors.Wrap(err, "search orders")
	}

	orders := make([]*domain.Order, len(models))
	for i, m := range models {
		orders[i] = toDomainOrder(m)
	}
	return orders, total, nil
}

// Transition 条件状态流转, 一条条件 UPDATE 完成并发取消的幂等判定。
func (r *GormOrderRepository) Transition(ctx context.Context, id string, from, to domain.Status) error {
	res := r.db.WithContext(ctx).Model(&OrderModel{}).
		Where("id = ? AND status = ?", id, string(from)).
		Update("status", string(to))
	if res.Error != nil {
		return pkgerrors.Wrap(res.Error, "transition order status")
	}
	if res.RowsAffected == 0 {
		var count int64
		r.db.WithContext(ctx).Model(&OrderModel{}).Where("id = ?", id).Count(&count)
		if count == 0 {
			return domain.ErrOrderNotFound
		}
		return domain.ErrAlreadyFinal
	}
	return nil
}

func (r *GormOrderRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ?", id).Delete(&OrderModel{})
		if res.Error != nil {
			return pkgerrors.Wrap(res.Error, "delete order")
		}
		if res.RowsAffected == 0 {
			return domain.ErrOrderNotFound
		}
		if err := tx.Where("order_id = ?", id).Delete(&OrderItemModel{}).Error; err != nil {
			return pkgerrors.Wrap(err, "delete order items")
		}
		return nil
	})
}

// orderSortColumns 排序字段白名单, 防止外部输入直接进 ORDER BY。
var orderSortColumns = map[string]string{
	"createdAt":  "orders.created_at",
	"totalPrice": "orders.total_price_cents",
	"status":     "orders.status",
}

func orderClause(q pagination.Query) string {
	col, ok := orderSortColumns[q.SortBy]
	if !ok {
		col = "orders.created_at"
	}
	return col + " " + q.SortType
}
