package adapter

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"

	"flashmall/internal/pkg/mq"
	"flashmall/internal/service/order/domain"
)

// NotificationKafkaAdapter 实现了 port.NotificationProducer 接口。
type NotificationKafkaAdapter struct {
	writer *kafka.Writer
}

func NewNotificationKafkaAdapter(writer *kafka.Writer) *NotificationKafkaAdapter {
	return &NotificationKafkaAdapter{writer: writer}
}

func (a *NotificationKafkaAdapter) SendOrderPlaced(ctx context.Context, order *domain.Order) error {
	event := domain.NotificationEvent{
		OrderID:    order.ID,
		UserID:     order.UserID,
		UserName:   order.UserName,
		Event:      domain.EventOrderPlaced,
		TotalCents: order.TotalPriceCents,
		Message:    fmt.Sprintf("Your order %s has been placed successfully.", order.ID),
	}
	return a.produce(ctx, order.UserID, event)
}

func (a *NotificationKafkaAdapter) SendOrderCancelled(ctx context.Context, order *domain.Order) error {
	event := domain.NotificationEvent{
		OrderID:    order.ID,
		UserID:     order.UserID,
		UserName:   order.UserName,
		Event:      domain.EventOrderCancelled,
		TotalCents: order.TotalPriceCents,
		Message:    fmt.Sprintf("Your order %s has been cancelled.", order.ID),
	}
	return a.produce(ctx, order.UserID, event)
}

func (a *NotificationKafkaAdapter) produce(ctx context.Context, key string, event domain.NotificationEvent) error {
	eventBytes, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal notification event: %w", err)
	}
	// mq.ProduceMessage 会自动注入追踪上下文。
	return mq.ProduceMessage(ctx, a.writer, []byte(key), eventBytes)
}

// Close 关闭底层的 Kafka writer。
func (a *NotificationKafkaAdapter) Close() error {
	return a.writer.Close()
}
