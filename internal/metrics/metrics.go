// Package metrics exposes Prometheus instruments for the store and the reminder scan.
package metrics

import (
	"context"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/knotcraft/Pre-production/internal/docstore"
)

// Metrics holds the registry and every instrument registered on it.
type Metrics struct {
	registry *prometheus.Registry

	StoreOps         *prometheus.CounterVec
	Subscriptions    prometheus.Gauge
	RemindersCreated prometheus.Counter
}

// New creates a registry with Go runtime collectors and the app's instruments.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		StoreOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "knotcraft",
			Subsystem: "docstore",
			Name:      "operations_total",
			Help:      "Document store operations by kind and outcome.",
		}, []string{"op", "outcome"}),
		Subscriptions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "knotcraft",
			Subsystem: "docstore",
			Name:      "active_subscriptions",
			Help:      "Live document store subscriptions.",
		}),
		RemindersCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "knotcraft",
			Subsystem: "reminders",
			Name:      "created_total",
			Help:      "Due-date reminder notifications written.",
		}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.StoreOps,
		m.Subscriptions,
		m.RemindersCreated,
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// InstrumentStore wraps store so every operation is counted.
func (m *Metrics) InstrumentStore(store docstore.Store) docstore.Store {
	return &instrumentedStore{next: store, m: m}
}

type instrumentedStore struct {
	next docstore.Store
	m    *Metrics
}

func (s *instrumentedStore) observe(op string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	s.m.StoreOps.WithLabelValues(op, outcome).Inc()
}

func (s *instrumentedStore) Subscribe(ctx context.Context, path string, fn docstore.Listener) (docstore.Subscription, error) {
	sub, err := s.next.Subscribe(ctx, path, fn)
	s.observe("subscribe", err)
	if err != nil {
		return nil, err
	}
	s.m.Subscriptions.Inc()
	g := &gaugedSubscription{Subscription: sub, gauge: s.m.Subscriptions}
	context.AfterFunc(ctx, g.Close)
	return g, nil
}

func (s *instrumentedStore) Read(ctx context.Context, path string) (docstore.Snapshot, error) {
	snap, err := s.next.Read(ctx, path)
	s.observe("read", err)
	return snap, err
}

func (s *instrumentedStore) Write(ctx context.Context, path string, value any) error {
	err := s.next.Write(ctx, path, value)
	s.observe("write", err)
	return err
}

func (s *instrumentedStore) Merge(ctx context.Context, path string, fields map[string]any) error {
	err := s.next.Merge(ctx, path, fields)
	s.observe("merge", err)
	return err
}

func (s *instrumentedStore) GenerateKey(path string) string {
	return s.next.GenerateKey(path)
}

func (s *instrumentedStore) Delete(ctx context.Context, path string) error {
	err := s.next.Delete(ctx, path)
	s.observe("delete", err)
	return err
}

func (s *instrumentedStore) BatchedMerge(ctx context.Context, updates map[string]any) error {
	err := s.next.BatchedMerge(ctx, updates)
	s.observe("batched_merge", err)
	return err
}

// gaugedSubscription decrements the gauge exactly once, however it is released.
type gaugedSubscription struct {
	docstore.Subscription
	gauge prometheus.Gauge
	once  sync.Once
}

func (g *gaugedSubscription) Close() {
	g.once.Do(func() {
		g.Subscription.Close()
		g.gauge.Dec()
	})
}
