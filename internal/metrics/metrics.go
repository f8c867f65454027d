package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	ChangeEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ordrel_change_events_total",
			Help: "Change events relayed from the store notification channel, by op",
		},
		[]string{"op"}, // INSERT|UPDATE|DELETE
	)

	DecodeFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ordrel_notification_decode_failures_total",
			Help: "Notifications dropped because the payload could not be decoded",
		},
	)

	SessionsConnected = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "ordrel_sessions_connected",
			Help: "Live broadcast sessions currently registered with the hub",
		},
	)

	SessionsDroppedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ordrel_sessions_dropped_total",
			Help: "Sessions disconnected because their send buffer overflowed",
		},
	)

	SinkFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ordrel_sink_publish_failures_total",
			Help: "Change events that failed to publish to the Kafka mirror",
		},
	)
)

func MustRegister(r prometheus.Registerer) {
	r.MustRegister(
		ChangeEventsTotal,
		DecodeFailuresTotal,
		SessionsConnected,
		SessionsDroppedTotal,
		SinkFailuresTotal,
	)
}
