// Package metrics exports engine activity and rule timings to Prometheus.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	params "github.com/goliatone/go-params"
	"github.com/goliatone/go-params/pkg/activity"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "params"

// Collector counts activity events by verb and times rule evaluations. It is
// both an activity.ActivityHook and a params.RuleObserver.
type Collector struct {
	registry *prom.Registry
	events   *prom.CounterVec
	rules    *prom.HistogramVec
}

var (
	_ activity.ActivityHook = (*Collector)(nil)
	_ params.RuleObserver   = (*Collector)(nil)
)

// New registers the collectors on registry, or on a fresh registry when nil.
func New(registry *prom.Registry) (*Collector, error) {
	if registry == nil {
		registry = prom.NewRegistry()
	}
	c := &Collector{
		registry: registry,
		events: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Parameter engine events by verb.",
		}, []string{"verb"}),
		rules: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "rule_duration_seconds",
			Help:      "Rule evaluation latency by engine and outcome.",
			Buckets:   prom.ExponentialBuckets(0.00001, 4, 8),
		}, []string{"engine", "outcome"}),
	}
	for _, collector := range []prom.Collector{c.events, c.rules} {
		if err := registry.Register(collector); err != nil {
			return nil, fmt.Errorf("metrics: register: %w", err)
		}
	}
	return c, nil
}

// Notify implements activity.ActivityHook.
func (c *Collector) Notify(_ context.Context, event activity.Event) error {
	if event.Verb == "" {
		return errors.New("metrics: event verb is empty")
	}
	c.events.WithLabelValues(event.Verb).Inc()
	return nil
}

// ObserveRule implements params.RuleObserver.
func (c *Collector) ObserveRule(eval params.RuleEvaluation) {
	outcome := "ok"
	if eval.Err != nil {
		outcome = "error"
	}
	engine := eval.Engine
	if engine == "" {
		engine = "unknown"
	}
	c.rules.WithLabelValues(engine, outcome).Observe(eval.Duration.Seconds())
}

// Registry returns the backing registry.
func (c *Collector) Registry() *prom.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
