// Package metrics exports lifecycle events as Prometheus metrics.
package metrics

import (
	"context"
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jdziat/rowlock-jobs/pkg/core"
)

const namespace = "rowlock_jobs"

// Cycle results.
const (
	ResultCommitted  = "committed"
	ResultRolledBack = "rolled_back"
)

// Observer is a core.Observer that counts lifecycle events.
type Observer struct {
	events        *prometheus.CounterVec
	cycles        *prometheus.CounterVec
	storeFailures *prometheus.CounterVec
	lastProcessed prometheus.Gauge
}

// New creates an Observer and registers its collectors with reg. A nil reg
// uses prometheus.DefaultRegisterer.
func New(reg prometheus.Registerer) (*Observer, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	o := &Observer{
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Lifecycle events emitted, by kind.",
		}, []string{"kind"}),
		cycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "service_cycles_total",
			Help:      "Service cycles by entry point and result.",
		}, []string{"entry", "result"}),
		storeFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_failures_total",
			Help:      "Failed store operations inside service cycles, by operation.",
		}, []string{"op"}),
		lastProcessed: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_processed_timestamp_seconds",
			Help:      "Unix time of the last committed job update.",
		}),
	}

	for _, c := range []prometheus.Collector{o.events, o.cycles, o.storeFailures, o.lastProcessed} {
		if err := reg.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				return nil, errors.New("metrics: collectors already registered")
			}
			return nil, err
		}
	}
	return o, nil
}

// Emit records e.
func (o *Observer) Emit(_ context.Context, e core.Event) {
	o.events.WithLabelValues(string(e.Kind())).Inc()

	switch ev := e.(type) {
	case *core.JobUpdated:
		o.lastProcessed.Set(float64(ev.Timestamp.UnixNano()) / 1e9)
	case *core.ProcessCommitted:
		o.cycles.WithLabelValues("poll", result(ev.Committed)).Inc()
	case *core.ProcessNowCommitted:
		o.cycles.WithLabelValues("now", result(ev.Committed)).Inc()
	case *core.ServiceFailed:
		var serr *core.StoreError
		if errors.As(ev.Err, &serr) {
			o.storeFailures.WithLabelValues(serr.Op).Inc()
		}
	}
}

func result(committed bool) string {
	if committed {
		return ResultCommitted
	}
	return ResultRolledBack
}

// Handler serves the metrics gathered by g. A nil g uses
// prometheus.DefaultGatherer.
func Handler(g prometheus.Gatherer) http.Handler {
	if g == nil {
		g = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
