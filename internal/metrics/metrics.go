package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	MessagesSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dm_messages_sent_total",
		Help: "Messages appended to conversations.",
	})
	ConversationsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dm_conversations_created_total",
		Help: "New conversations created by find-or-create.",
	})
	LivePushes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dm_live_pushes_total",
		Help: "Query results pushed to live subscribers.",
	})
)

// Handler returns an http.Handler for Prometheus scraping
func Handler() http.Handler {
	return promhttp.Handler()
}
