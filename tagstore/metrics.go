package tagstore

import (
	"context"
	"fmt"
	"time"

	"github.com/c360studio/semstreams/metric"
	"github.com/prometheus/client_golang/prometheus"
)

const metricsService = "semtags"

// Metrics records store round-trips.
type Metrics struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

// NewMetrics registers the store metrics with registry.
func NewMetrics(registry *metric.MetricsRegistry) (*Metrics, error) {
	m := &Metrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "semtags",
			Subsystem: "store",
			Name:      "operations_total",
			Help:      "Tag store operations by outcome",
		}, []string{"operation", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "semtags",
			Subsystem: "store",
			Name:      "operation_duration_seconds",
			Help:      "Tag store operation latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
	}

	if err := registry.RegisterCounterVec(metricsService, "store_operations", m.operations); err != nil {
		return nil, fmt.Errorf("register store operations: %w", err)
	}
	if err := registry.RegisterHistogramVec(metricsService, "store_duration", m.duration); err != nil {
		return nil, fmt.Errorf("register store duration: %w", err)
	}
	return m, nil
}

func (m *Metrics) observe(operation string, start time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.operations.WithLabelValues(operation, outcome).Inc()
	m.duration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// InstrumentedStore wraps a Store and records every call.
type InstrumentedStore struct {
	next    Store
	metrics *Metrics
}

// Instrument wraps store with metrics.
func Instrument(store Store, metrics *Metrics) *InstrumentedStore {
	return &InstrumentedStore{next: store, metrics: metrics}
}

// ListTags implements Store.
func (s *InstrumentedStore) ListTags(ctx context.Context, url string) (labels []string, err error) {
	defer func(start time.Time) { s.metrics.observe("list_tags", start, err) }(time.Now())
	return s.next.ListTags(ctx, url)
}

// TagExists implements Store.
func (s *InstrumentedStore) TagExists(ctx context.Context, label string) (ok bool, err error) {
	defer func(start time.Time) { s.metrics.observe("tag_exists", start, err) }(time.Now())
	return s.next.TagExists(ctx, label)
}

// CreateTag implements Store.
func (s *InstrumentedStore) CreateTag(ctx context.Context, label string) (ok bool, err error) {
	defer func(start time.Time) { s.metrics.observe("create_tag", start, err) }(time.Now())
	return s.next.CreateTag(ctx, label)
}

// Associate implements Store.
func (s *InstrumentedStore) Associate(ctx context.Context, url, label string) (ok bool, err error) {
	defer func(start time.Time) { s.metrics.observe("associate", start, err) }(time.Now())
	return s.next.Associate(ctx, url, label)
}

// Disassociate implements Store.
func (s *InstrumentedStore) Disassociate(ctx context.Context, url, label string) (err error) {
	defer func(start time.Time) { s.metrics.observe("disassociate", start, err) }(time.Now())
	return s.next.Disassociate(ctx, url, label)
}
