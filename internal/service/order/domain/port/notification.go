package port

import (
	"context"

	"flashmall/internal/service/order/domain"
)

// NotificationProducer 是邮件通知的出站端口。
// 通知是 fire-and-forget 的: 发送失败只记日志, 永远不阻塞订单流程。
type NotificationProducer interface {
	// SendOrderPlaced 发送下单成功通知。
	SendOrderPlaced(ctx context.Context, order *domain.Order) error

	// SendOrderCancelled 发送订单取消通知。
	SendOrderCancelled(ctx context.Context, order *domain.Order) error
}

// InconsistencyAlert 描述一次取消回补失败后留下的账目偏差,
// 需要运营介入人工对账。
type InconsistencyAlert struct {
	OrderID  string `json:"orderId"`
	Resource string `json:"resource"` // stock / flashsale / voucher
	RefID    string `json:"refId"`
	Delta    int64  `json:"delta"`
	Reason   string `json:"reason"`
}

// AlertProducer 是运营告警的出站端口。
type AlertProducer interface {
	ReportInconsistency(ctx context.Context, alert *InconsistencyAlert) error
}
