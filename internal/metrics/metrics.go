// README: Prometheus counters for dispatch activity.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SearchesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "freightgo_searches_total",
		Help: "Transport searches created.",
	})
	JobsCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "freightgo_jobs_created_total",
		Help: "Transport jobs created (search-originated and direct).",
	})
	TransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "freightgo_job_transitions_total",
		Help: "Job status transitions applied.",
	}, []string{"to"})
	NotifyFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "freightgo_notify_failures_total",
		Help: "Notification deliveries that failed and were dropped.",
	})
	PositionUpdatesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "freightgo_position_updates_total",
		Help: "Driver position updates ingested.",
	})
)
