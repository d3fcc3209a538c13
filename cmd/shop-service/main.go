// cmd/shop-service/main.go
package main

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"

	"flashmall/internal/pkg/bootstrap"
	"flashmall/internal/pkg/logger"
	"flashmall/internal/pkg/mq"
	"flashmall/internal/pkg/mysqldb"
	"flashmall/internal/pkg/redis"
	"flashmall/internal/pkg/zookeeper"

	catalogapp "flashmall/internal/service/catalog/application"
	cataloginfra "flashmall/internal/service/catalog/infrastructure"
	catalogadapter "flashmall/internal/service/catalog/infrastructure/adapter"
	cataloghttp "flashmall/internal/service/catalog/interfaces"

	flashsaleapp "flashmall/internal/service/flashsale/application"
	flashsaleinfra "flashmall/internal/service/flashsale/infrastructure"
	flashsaleadapter "flashmall/internal/service/flashsale/infrastructure/adapter"
	flashsalehttp "flashmall/internal/service/flashsale/interfaces"

	orderapp "flashmall/internal/service/order/application"
	orderinfra "flashmall/internal/service/order/infrastructure"
	orderadapter "flashmall/internal/service/order/infrastructure/adapter"
	orderhttp "flashmall/internal/service/order/interfaces"

	voucherapp "flashmall/internal/service/voucher/application"
	voucherinfra "flashmall/internal/service/voucher/infrastructure"
	voucherrule "flashmall/internal/service/voucher/infrastructure/rule"
	voucherhttp "flashmall/internal/service/voucher/interfaces"
)

const serviceName = "shop-service"

// main 函数是应用的"组装根" (Composition Root)。
// 它的核心职责是：创建并组装所有依赖项,然后启动应用。
func main() {
	bootstrap.Init()
	cfg := bootstrap.GetCurrentConfig()
	tracer := otel.Tracer(serviceName)

	db, err := mysqldb.Open(cfg)
	if err != nil {
		logger.Logger().Fatal().Err(err).Msg("failed to open mysql")
	}

	redisClient := redis.NewClient(cfg.Infra.Redis.Addr)

	zkConn, err := zookeeper.Connect(cfg.Infra.Zookeeper.Servers)
	if err != nil {
		logger.Logger().Fatal().Err(err).Msg("failed to connect zookeeper")
	}

	notificationWriter := mq.NewKafkaWriter(cfg.Infra.Kafka.Brokers, cfg.Infra.Kafka.NotificationTopic)
	alertWriter := mq.NewKafkaWriter(cfg.Infra.Kafka.Brokers, cfg.Infra.Kafka.AlertTopic)

	// 仓储层
	itemRepo := cataloginfra.NewGormItemRepository(db)
	campaignRepo := flashsaleinfra.NewGormCampaignRepository(db)
	voucherRepo := voucherinfra.NewGormVoucherRepository(db)
	orderRepo := orderinfra.NewGormOrderRepository(db)

	// 闪购服务: 档期窗口检查走 ZK 分布式锁, 生效档期走 Redis 缓存。
	flashSaleService := flashsaleapp.NewFlashSaleService(
		campaignRepo,
		flashsaleadapter.NewCatalogItemAdapter(itemRepo),
		flashsaleinfra.NewZkLocker(zkConn),
		flashsaleinfra.NewRedisCampaignCache(redisClient),
		tracer,
	)

	// 商品目录: 读路径经闪购缓存做价格标注。
	itemService := catalogapp.NewItemService(itemRepo, catalogadapter.NewPromotionAdapter(flashSaleService), tracer)

	// 折扣券: 自定义适用规则走 CEL 引擎。
	ruleEngine, err := voucherrule.NewCELRuleEngineAdapter()
	if err != nil {
		logger.Logger().Fatal().Err(err).Msg("failed to build voucher rule engine")
	}
	voucherService := voucherapp.NewVoucherService(voucherRepo, ruleEngine, tracer)

	// 订单引擎: 所有账本依赖都经过端口适配。
	orderService := orderapp.NewOrderService(
		orderRepo,
		orderadapter.NewCatalogAdapter(itemService),
		orderadapter.NewFlashSaleAdapter(flashSaleService),
		orderadapter.NewVoucherAdapter(voucherService),
		orderadapter.NewNotificationKafkaAdapter(notificationWriter),
		orderadapter.NewAlertKafkaAdapter(alertWriter),
		tracer,
	)

	bootstrap.StartService(bootstrap.AppInfo{
		ServiceName: serviceName,
		Port:        8081,
		RegisterHandlers: func(appCtx bootstrap.AppCtx) {
			appCtx.Mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
			appCtx.Mux.Handle("/metrics", promhttp.Handler())

			cataloghttp.NewItemHandler(itemService).RegisterRoutes(appCtx.Mux)
			flashsalehttp.NewCampaignHandler(flashSaleService).RegisterRoutes(appCtx.Mux)
			voucherhttp.NewVoucherHandler(voucherService).RegisterRoutes(appCtx.Mux)
			orderhttp.NewOrderHandler(orderService).RegisterRoutes(appCtx.Mux)
		},
		OnShutdown: func(ctx context.Context) {
			if err := notificationWriter.Close(); err != nil {
				logger.Logger().Error().Err(err).Msg("error closing notification writer")
			}
			if err := alertWriter.Close(); err != nil {
				logger.Logger().Error().Err(err).Msg("error closing alert writer")
			}
			if err := redisClient.Close(); err != nil {
				logger.Logger().Error().Err(err).Msg("error closing redis client")
			}
			zkConn.Close()
		},
	})
}
