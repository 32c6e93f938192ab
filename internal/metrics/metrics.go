// Package metrics exposes toast queue activity as Prometheus metrics.
package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jmylchreest/toastui/internal/toast"
)

// Config configures a Collector.
type Config struct {
	// Namespace prefixes every metric (default "toastui").
	Namespace string
	// Registry receives the metrics. Default: a fresh registry.
	Registry *prometheus.Registry
	// Now is used to measure toast lifetimes. Default: time.Now.
	Now func() time.Time
}

// Collector implements toast.Observer.
type Collector struct {
	registry *prometheus.Registry
	now      func() time.Time

	added    *prometheus.CounterVec
	closed   *prometheus.CounterVec
	cleared  prometheus.Counter
	gestures *prometheus.CounterVec
	visible  prometheus.Gauge
	lifetime prometheus.Histogram
}

var _ toast.Observer = (*Collector)(nil)

// New registers the toast metrics.
func New(cfg Config) *Collector {
	if cfg.Namespace == "" {
		cfg.Namespace = "toastui"
	}
	if cfg.Registry == nil {
		cfg.Registry = prometheus.NewRegistry()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	factory := promauto.With(cfg.Registry)

	return &Collector{
		registry: cfg.Registry,
		now:      cfg.Now,
		added: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "toasts_added_total",
			Help:      "Toasts added to the queue, by level.",
		}, []string{"level"}),
		closed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "toasts_closed_total",
			Help:      "Toasts closed, by reason.",
		}, []string{"reason"}),
		cleared: factory.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "toasts_cleared_total",
			Help:      "Toasts removed by a bulk clear.",
		}),
		gestures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "swipe_gestures_total",
			Help:      "Completed swipe gestures, by outcome.",
		}, []string{"outcome"}),
		visible: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Name:      "toasts_visible",
			Help:      "Toasts currently presented.",
		}),
		lifetime: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Name:      "toast_lifetime_seconds",
			Help:      "Time from add to close.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 300},
		}),
	}
}

// Added implements toast.Observer.
func (c *Collector) Added(ref toast.Ref) {
	c.added.WithLabelValues(ref.Content.Level.String()).Inc()
}

// Closed implements toast.Observer.
func (c *Collector) Closed(ref toast.Ref, reason toast.CloseReason) {
	c.closed.WithLabelValues(reason.String()).Inc()
	if !ref.Timestamp.IsZero() {
		c.lifetime.Observe(c.now().Sub(ref.Timestamp).Seconds())
	}
}

// Cleared implements toast.Observer.
func (c *Collector) Cleared(n int) {
	c.cleared.Add(float64(n))
}

// Gesture implements toast.Observer.
func (c *Collector) Gesture(committed bool) {
	outcome := "cancelled"
	if committed {
		outcome = "committed"
	}
	c.gestures.WithLabelValues(outcome).Inc()
}

// Visible implements toast.Observer.
func (c *Collector) Visible(n int) {
	c.visible.Set(float64(n))
}

// Handler serves the collector's registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is done.
func (c *Collector) Serve(ctx context.Context, addr string, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()
	logger.Info("metrics endpoint listening", "addr", addr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
