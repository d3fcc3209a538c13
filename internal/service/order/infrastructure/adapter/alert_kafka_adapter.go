package adapter

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"

	"flashmall/internal/pkg/mq"
	"flashmall/internal/service/order/domain/port"
)

// AlertKafkaAdapter 实现了 port.AlertProducer 接口,
// 把对账告警投递到运营侧的告警 topic。
type AlertKafkaAdapter struct {
	writer *kafka.Writer
}

func NewAlertKafkaAdapter(writer *kafka.Writer) *AlertKafkaAdapter {
	return &AlertKafkaAdapter{writer: writer}
}

func (a *AlertKafkaAdapter) ReportInconsistency(ctx context.Context, alert *port.InconsistencyAlert) error {
	alertBytes, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("failed to marshal inconsistency alert: %w", err)
	}
	return mq.ProduceMessage(ctx, a.writer, []byte(alert.OrderID), alertBytes)
}

func (a *AlertKafkaAdapter) Close() error {
	return a.writer.Close()
}
