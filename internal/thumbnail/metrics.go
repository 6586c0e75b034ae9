package thumbnail

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	OutcomeSkipped   = "skipped"
	OutcomeSucceeded = "succeeded"
	OutcomeFailed    = "failed"
)

// Observer receives one call per handled upload event.
type Observer interface {
	ObserveInvocation(outcome string, duration time.Duration)
}

type nopObserver struct{}

func (nopObserver) ObserveInvocation(string, time.Duration) {}

// PrometheusObserver exports invocation counts and latency.
type PrometheusObserver struct {
	invocations *prometheus.CounterVec
	duration    *prometheus.HistogramVec
}

func NewPrometheusObserver(namespace string, reg prometheus.Registerer) (*PrometheusObserver, error) {
	if namespace == "" {
		namespace = "thumbnail"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	observer := &PrometheusObserver{
		invocations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invocations_total",
			Help:      "Upload events handled, by outcome.",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "invocation_duration_seconds",
			Help:      "Time spent handling one upload event.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"outcome"}),
	}
	if err := reg.Register(observer.invocations); err != nil {
		existing, err := alreadyRegistered(err)
		if err != nil {
			return nil, err
		}
		observer.invocations = existing.(*prometheus.CounterVec)
	}
	if err := reg.Register(observer.duration); err != nil {
		existing, err := alreadyRegistered(err)
		if err != nil {
			return nil, err
		}
		observer.duration = existing.(*prometheus.HistogramVec)
	}
	return observer, nil
}

func (o *PrometheusObserver) ObserveInvocation(outcome string, duration time.Duration) {
	if o == nil {
		return
	}
	o.invocations.WithLabelValues(outcome).Inc()
	o.duration.WithLabelValues(outcome).Observe(duration.Seconds())
}

// alreadyRegistered lets two observers in one process share collectors.
func alreadyRegistered(err error) (prometheus.Collector, error) {
	if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
		return are.ExistingCollector, nil
	}
	return nil, fmt.Errorf("register thumbnail metric: %w", err)
}
