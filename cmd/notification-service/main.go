// cmd/notification-service/main.go
package main

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"flashmall/internal/pkg/bootstrap"
	"flashmall/internal/pkg/logger"
	"flashmall/internal/pkg/mq"
	"flashmall/internal/pkg/tracing"
	orderdomain "flashmall/internal/service/order/domain"
)

const (
	serviceName     = "notification-service"
	consumerGroupID = "notification-group"
)

var tracer = otel.Tracer(serviceName)

func main() {
	bootstrap.Init()
	logger.Init(serviceName)
	cfg := bootstrap.GetCurrentConfig()

	tp, err := tracing.InitTracerProvider(serviceName, cfg.Infra.Jaeger.Endpoint)
	if err != nil {
		logger.Logger().Fatal().Err(err).Msg("failed to initialize tracer provider")
	}
	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			logger.Logger().Error().Err(err).Msg("error shutting down tracer provider")
		}
	}()

	reader := mq.NewKafkaReader(cfg.Infra.Kafka.Brokers, cfg.Infra.Kafka.NotificationTopic, consumerGroupID)
	defer reader.Close()

	logger.Logger().Info().
		Str("topic", cfg.Infra.Kafka.NotificationTopic).
		Msg("notification service started as kafka consumer")

	for {
		msg, err := reader.ReadMessage(context.Background())
		if err != nil {
			logger.Logger().Error().Err(err).Msg("could not read message")
			continue
		}
		go processNotification(msg)
	}
}

// processNotification 处理从 Kafka 收到的单条通知事件。
// 邮件发送是 fire-and-forget 的终点, 失败只记日志。
func processNotification(msg kafka.Message) {
	ctx := mq.ExtractTraceContext(context.Background(), msg.Headers)

	ctx, span := tracer.Start(ctx, "notification-service.ProcessNotification",
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.String("messaging.system", "kafka"),
			attribute.String("messaging.destination", msg.Topic),
			attribute.Int64("messaging.kafka.message.offset", msg.Offset),
		),
	)
	defer span.End()

	var event orderdomain.NotificationEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		logger.Ctx(ctx).Error().Err(err).Msg("failed to unmarshal notification event")
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return
	}

	span.SetAttributes(
		attribute.String("user.id", event.UserID),
		attribute.String("order.id", event.OrderID),
		attribute.String("event", event.Event),
	)

	// 这里对接真实邮件网关; 当前实现记录结构化日志等价于投递。
	logger.Ctx(ctx).Info().
		Str("user_id", event.UserID).
		Str("order_id", event.OrderID).
		Str("event", event.Event).
		Str("message", event.Message).
		Msg("sending email notification")
	span.AddEvent("notification sent")
}
