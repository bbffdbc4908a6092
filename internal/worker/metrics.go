package worker

import "github.com/prometheus/client_golang/prometheus"

var (
	outboxProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "outbox_messages_total", Help: "Outbox deliveries by template and result"},
		[]string{"template", "result"},
	)
	notificationsPurged = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "notifications_purged_total", Help: "Expired notifications deleted by the sweeper"},
	)
)

func init() { prometheus.MustRegister(outboxProcessed, notificationsPurged) }
