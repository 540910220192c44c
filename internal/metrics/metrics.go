package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors for the comment desk. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	RepliesSent      *prometheus.CounterVec
	CommentsIngested *prometheus.CounterVec
	SyncRuns         *prometheus.CounterVec
	SyncDuration     prometheus.Histogram

	gatherer prometheus.Gatherer
}

// New creates the collectors and registers them with reg
func New(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		RepliesSent: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "comment_desk_replies_total",
				Help: "Replies dispatched, by mode (manual, auto) and outcome (sent, failed)",
			},
			[]string{"mode", "outcome"},
		),
		CommentsIngested: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "comment_desk_comments_ingested_total",
				Help: "Comments ingested, by source and whether the id was new",
			},
			[]string{"source", "created"},
		),
		SyncRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "comment_desk_sync_runs_total",
				Help: "Page sync cycles, by result",
			},
			[]string{"result"},
		),
		SyncDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "comment_desk_sync_duration_seconds",
			Help:    "Duration of page sync cycles",
			Buckets: prometheus.DefBuckets,
		}),
		gatherer: reg,
	}
	reg.MustRegister(m.RepliesSent, m.CommentsIngested, m.SyncRuns, m.SyncDuration)
	return m
}

func (m *Metrics) ObserveReply(auto bool, err error) {
	if m == nil {
		return
	}
	mode := "manual"
	if auto {
		mode = "auto"
	}
	outcome := "sent"
	if err != nil {
		outcome = "failed"
	}
	m.RepliesSent.WithLabelValues(mode, outcome).Inc()
}

func (m *Metrics) ObserveIngest(source string, created bool) {
	if m == nil {
		return
	}
	label := "false"
	if created {
		label = "true"
	}
	m.CommentsIngested.WithLabelValues(source, label).Inc()
}

// ObserveSync records one sync cycle; partial means some items failed
func (m *Metrics) ObserveSync(elapsed time.Duration, err error, partial bool) {
	if m == nil {
		return
	}
	result := "ok"
	switch {
	case err != nil:
		result = "error"
	case partial:
		result = "partial"
	}
	m.SyncRuns.WithLabelValues(result).Inc()
	m.SyncDuration.Observe(elapsed.Seconds())
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	if m == nil || m.gatherer == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
