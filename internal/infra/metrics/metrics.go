package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "robux_bot"

// Причины отказа в заявке.
const (
	ReasonNotInteger   = "not_integer"
	ReasonBelowMinimum = "below_minimum"
	ReasonRateLimited  = "rate_limited"
)

// Исходы доставки.
const (
	ResultSent    = "sent"
	ResultFailed  = "failed"
	ResultRetried = "retried"
)

// Направления пересылки в чате с админом.
const (
	DirectionToUser  = "to_user"
	DirectionToAdmin = "to_admin"
)

type Metrics struct {
	Registry *prometheus.Registry

	LotsCreated         prometheus.Counter
	OrdersRejected      *prometheus.CounterVec
	RelayMessages       *prometheus.CounterVec
	BroadcastDeliveries *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		LotsCreated: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lots_created_total",
			Help:      "Lots created and sent to the admin.",
		}),
		OrdersRejected: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_rejected_total",
			Help:      "Amount inputs rejected, by reason.",
		}, []string{"reason"}),
		RelayMessages: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "relay_messages_total",
			Help:      "Messages copied through the admin chat.",
		}, []string{"direction", "result"}),
		BroadcastDeliveries: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "broadcast_deliveries_total",
			Help:      "Broadcast delivery attempts by outcome.",
		}, []string{"result"}),
	}
}
