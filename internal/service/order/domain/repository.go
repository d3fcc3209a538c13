// internal/service/order/domain/repository.go
package domain

import (
	"context"
	"time"

	"flashmall/internal/pkg/pagination"
)

// OrderFilter 列表查询条件, 零值字段不参与过滤。
type OrderFilter struct {
	OrderID     string
	Status      Status
	UserID      string
	UserName    string
	ItemName    string
	CreatedFrom time.Time
	CreatedTo   time.Time
}

// OrderRepository 定义了订单聚合的持久化接口。
// 它位于领域层, 由基础设施层实现。
type OrderRepository interface {
	Create(ctx context.Context, order *Order) error
	FindByID(ctx context.Context, id string) (*Order, error)
	Search(ctx context.Context, filter OrderFilter, q pagination.Query) ([]*Order, int64, error)

	// Transition 条件状态流转: 仅当当前状态等于 from 时置为 to。
	// 条件不满足时区分订单不存在与已处于终态, 用于取消的幂等判定。
	Transition(ctx context.Context, id string, from, to Status) error

	// Delete 物理删除订单及其行快照, 不回补任何资源。
	Delete(ctx context.Context, id string) error
}
