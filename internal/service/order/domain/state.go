// internal/service/order/domain/state.go
package domain

// Status 定义了订单的生命周期状态。
// PLACED 是唯一的非终态; CANCEL 和 DELIVERED 都是终态, 不允许再流转。
type Status string

const (
	StatusPlaced    Status = "PLACED"    // 下单成功, 资源已占用
	StatusCancel    Status = "CANCEL"    // 已取消, 占用的资源已回补
	StatusDelivered Status = "DELIVERED" // 已送达, 由履约侧置位
)

func (s Status) IsFinal() bool {
	return s == StatusCancel || s == StatusDelivered
}
