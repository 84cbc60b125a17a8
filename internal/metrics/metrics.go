package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	OrdersSettled = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fantasyee_orders_settled_total",
			Help: "Orders settled by the settlement worker.",
		},
		[]string{"kind"},
	)
	OrdersRefunded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fantasyee_orders_refunded_total",
			Help: "Orders refunded after their unit was cancelled.",
		},
		[]string{"kind"},
	)
	EmptyPolls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fantasyee_empty_polls_total",
			Help: "Blocking pops that timed out with nothing ready.",
		},
		[]string{"channel"},
	)
	UsedBacklog = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "fantasyee_used_backlog",
			Help: "Records waiting in a unit's used channel.",
		},
		[]string{"unit"},
	)
	OperationsDropped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "fantasyee_operations_dropped_total",
			Help: "Operation records dropped because the recorder buffer was full.",
		},
	)
)

func Register(registry prometheus.Registerer) {
	registry.MustRegister(OrdersSettled, OrdersRefunded, EmptyPolls, UsedBacklog, OperationsDropped)
}

func Handler(registry *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
