// Package observability provides metrics and tracing.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"gorm.io/gorm"
)

var (
	// AuthEvents counts session operations by event and outcome.
	AuthEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vidtube_auth_events_total",
		Help: "Total number of authentication events by outcome",
	}, []string{"event", "outcome"})

	// MediaUploads counts media host uploads by outcome.
	MediaUploads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vidtube_media_uploads_total",
		Help: "Total number of media uploads by outcome",
	}, []string{"outcome"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "vidtube_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})
)

// RecordAuthEvent increments AuthEvents with "success" or "failure".
func RecordAuthEvent(event string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	AuthEvents.WithLabelValues(event, outcome).Inc()
}

// RecordUpload increments MediaUploads with "success" or "failure".
func RecordUpload(err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	MediaUploads.WithLabelValues(outcome).Inc()
}

const queryStartKey = "observability:query_start"

// RegisterQueryMetrics installs GORM callbacks that feed DatabaseQueryLatency.
func RegisterQueryMetrics(db *gorm.DB) error {
	cb := db.Callback()
	regs := []error{
		cb.Create().Before("gorm:create").Register("metrics:before_create", startQuery),
		cb.Create().After("gorm:create").Register("metrics:after_create", observeQuery("create")),
		cb.Query().Before("gorm:query").Register("metrics:before_query", startQuery),
		cb.Query().After("gorm:query").Register("metrics:after_query", observeQuery("query")),
		cb.Update().Before("gorm:update").Register("metrics:before_update", startQuery),
		cb.Update().After("gorm:update").Register("metrics:after_update", observeQuery("update")),
		cb.Delete().Before("gorm:delete").Register("metrics:before_delete", startQuery),
		cb.Delete().After("gorm:delete").Register("metrics:after_delete", observeQuery("delete")),
		cb.Raw().Before("gorm:raw").Register("metrics:before_raw", startQuery),
		cb.Raw().After("gorm:raw").Register("metrics:after_raw", observeQuery("raw")),
	}
	for _, err := range regs {
		if err != nil {
			return err
		}
	}
	return nil
}

func startQuery(db *gorm.DB) {
	db.InstanceSet(queryStartKey, time.Now())
}

func observeQuery(op string) func(*gorm.DB) {
	return func(db *gorm.DB) {
		v, ok := db.InstanceGet(queryStartKey)
		if !ok {
			return
		}
		start, ok := v.(time.Time)
		if !ok {
			return
		}
		table := "unknown"
		if db.Statement != nil && db.Statement.Table != "" {
			table = db.Statement.Table
		}
		DatabaseQueryLatency.WithLabelValues(op, table).Observe(time.Since(start).Seconds())
	}
}
