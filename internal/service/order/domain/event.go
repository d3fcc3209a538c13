// internal/service/order/domain/event.go
package domain

// NotificationEvent 是发往通知服务的领域事件,
// 由邮件侧消费并渲染成用户可读的通知。
type NotificationEvent struct {
	OrderID    string `json:"orderId"`
	UserID     string `json:"userId"`
	UserName   string `json:"userName"`
	Event      string `json:"event"` // order.placed / order.cancelled
	TotalCents int64  `json:"totalCents"`
	Message    string `json:"message"`
}

const (
	EventOrderPlaced    = "order.placed"
	EventOrderCancelled = "order.cancelled"
)
