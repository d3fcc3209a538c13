// internal/service/order/application/metrics.go
package application

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ordersPlacedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "flashmall_orders_placed_total",
		Help: "Orders that reached PLACED with all resources reserved.",
	})
	ordersCancelledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "flashmall_orders_cancelled_total",
		Help: "Orders transitioned PLACED to CANCEL.",
	})
	inconsistencyTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "flashmall_reservation_inconsistencies_total",
		Help: "Reservation reversals that exhausted retries and were alerted for manual reconciliation.",
	})
)
