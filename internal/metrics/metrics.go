// Package metrics exposes Prometheus collectors for the memory-bank server.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/HendryAvila/memory-bank/internal/logging"
)

var (
	globalMetrics *Metrics
	metricsOnce   sync.Once
)

// Metrics holds the server's collectors.
type Metrics struct {
	ToolCallsTotal        *prometheus.CounterVec
	ToolDuration          *prometheus.HistogramVec
	RoutedTotal           *prometheus.CounterVec
	RedundancyChecksTotal *prometheus.CounterVec
	IndexedDocuments      prometheus.Gauge
	SessionsEndedTotal    *prometheus.CounterVec
	AdherenceRatio        prometheus.Histogram
}

// NewMetrics returns the process-wide collectors, registering them with the
// default registry on first use.
//
// Metrics:
//   - membank_tool_calls_total{tool,kind} - tool calls by kind ("memory" or "core")
//   - membank_tool_duration_seconds{tool} - handler latency
//   - membank_routed_total{category} - routed content by primary category
//   - membank_redundancy_checks_total{outcome} - "redundant", "unique" or "skipped"
//   - membank_indexed_documents - documents in the redundancy index
//   - membank_sessions_ended_total{classification} - ended sessions
//   - membank_adherence_ratio - memory adherence ratio of ended sessions
func NewMetrics() *Metrics {
	metricsOnce.Do(func() {
		globalMetrics = &Metrics{
			ToolCallsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "membank_tool_calls_total",
					Help: "Total number of tool calls",
				},
				[]string{"tool", "kind"},
			),
			ToolDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "membank_tool_duration_seconds",
					Help:    "Duration of tool handlers in seconds",
					Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
				},
				[]string{"tool"},
			),
			RoutedTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "membank_routed_total",
					Help: "Total number of routed texts by primary category",
				},
				[]string{"category"},
			),
			RedundancyChecksTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "membank_redundancy_checks_total",
					Help: "Total number of redundancy checks by outcome",
				},
				[]string{"outcome"},
			),
			IndexedDocuments: promauto.NewGauge(
				prometheus.GaugeOpts{
					Name: "membank_indexed_documents",
					Help: "Number of documents in the redundancy index",
				},
			),
			SessionsEndedTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "membank_sessions_ended_total",
					Help: "Total number of ended sessions by classification",
				},
				[]string{"classification"},
			),
			AdherenceRatio: promauto.NewHistogram(
				prometheus.HistogramOpts{
					Name:    "membank_adherence_ratio",
					Help:    "Memory adherence ratio of ended sessions",
					Buckets: []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1},
				},
			),
		}
	})
	return globalMetrics
}

// Redundancy check outcomes.
const (
	OutcomeRedundant = "redundant"
	OutcomeUnique    = "unique"
	OutcomeSkipped   = "skipped"
)

// CountTool counts one tool call. Calls reported by the agent for host
// tools are counted here too, without a duration.
func (m *Metrics) CountTool(tool string, memory bool) {
	kind := "core"
	if memory {
		kind = "memory"
	}
	m.ToolCallsTotal.WithLabelValues(tool, kind).Inc()
}

// ObserveDuration records how long a server tool handler ran.
func (m *Metrics) ObserveDuration(tool string, d time.Duration) {
	m.ToolDuration.WithLabelValues(tool).Observe(d.Seconds())
}

// CountRouted counts one routed text under its primary category.
func (m *Metrics) CountRouted(category string) {
	m.RoutedTotal.WithLabelValues(category).Inc()
}

// CountRedundancyCheck counts one redundancy check by outcome.
func (m *Metrics) CountRedundancyCheck(outcome string) {
	m.RedundancyChecksTotal.WithLabelValues(outcome).Inc()
}

// SetIndexed records the size of the redundancy index.
func (m *Metrics) SetIndexed(docs int) {
	m.IndexedDocuments.Set(float64(docs))
}

// ObserveSessionEnd records an ended session.
func (m *Metrics) ObserveSessionEnd(classification string, ratio float64) {
	m.SessionsEndedTotal.WithLabelValues(classification).Inc()
	m.AdherenceRatio.Observe(ratio)
}

// Serve exposes /metrics on addr until ctx is done.
func Serve(ctx context.Context, addr string, logger *logging.Logger) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("metrics listen on %s: %w", addr, err)
	}
	return serve(ctx, ln, logger)
}

func serve(ctx context.Context, ln net.Listener, logger *logging.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info(ctx, "metrics endpoint listening", zap.String("addr", ln.Addr().String()))
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("metrics server: %w", err)
	}
	return nil
}
