// Package metrics holds the Prometheus collectors of the client and an
// optional /metrics endpoint.
package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "songscope"

// Outcome labels.
const (
	OutcomeSuccess    = "success"
	OutcomeFailure    = "failure"
	OutcomeSuperseded = "superseded"
	OutcomeEmpty      = "empty"
)

// Metrics owns a private registry so several instances can coexist in tests.
// All methods are safe on a nil *Metrics.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests  *prometheus.CounterVec
	httpDuration  *prometheus.HistogramVec
	analysisRuns  *prometheus.CounterVec
	analysisTime  prometheus.Histogram
	lyricsLookups *prometheus.CounterVec
}

// New creates and registers all collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Outbound HTTP requests by backend service",
			},
			[]string{"service", "code", "method"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "Outbound HTTP request latency by backend service",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"service", "method"},
		),
		analysisRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "analysis_runs_total",
				Help:      "Analysis runs by outcome",
			},
			[]string{"outcome"},
		),
		analysisTime: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "analysis_duration_seconds",
				Help:      "Time from analysis start to result",
				Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 40},
			},
		),
		lyricsLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "lyrics_lookups_total",
				Help:      "Lyrics lookups by provider and outcome",
			},
			[]string{"provider", "outcome"},
		),
	}

	m.registry.MustRegister(
		m.httpRequests,
		m.httpDuration,
		m.analysisRuns,
		m.analysisTime,
		m.lyricsLookups,
		collectors.NewGoCollector(),
	)
	return m
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// InstrumentTransport wraps next so requests are counted and timed under service.
func (m *Metrics) InstrumentTransport(service string, next http.RoundTripper) http.RoundTripper {
	if m == nil {
		return next
	}
	labels := prometheus.Labels{"service": service}
	return promhttp.InstrumentRoundTripperCounter(
		m.httpRequests.MustCurryWith(labels),
		promhttp.InstrumentRoundTripperDuration(m.httpDuration.MustCurryWith(labels), next),
	)
}

// ObserveAnalysis records the outcome of one analysis run.
func (m *Metrics) ObserveAnalysis(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.analysisRuns.WithLabelValues(outcome).Inc()
	if outcome == OutcomeSuccess || outcome == OutcomeFailure {
		m.analysisTime.Observe(elapsed.Seconds())
	}
}

// ObserveLyrics records one provider lookup.
func (m *Metrics) ObserveLyrics(provider, outcome string) {
	if m == nil {
		return
	}
	m.lyricsLookups.WithLabelValues(provider, outcome).Inc()
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Server is the optional /metrics endpoint.
type Server struct {
	logger *slog.Logger
	srv    *http.Server
	ln     net.Listener
	wg     sync.WaitGroup
}

// Serve starts listening on addr and serves /metrics in the background.
func (m *Metrics) Serve(addr string, logger *slog.Logger) (*Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())

	s := &Server{
		logger: logger,
		ln:     ln,
		srv: &http.Server{
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server stopped", slog.Any("error", err))
		}
	}()

	logger.Info("metrics exposed", slog.String("addr", "http://"+ln.Addr().String()+"/metrics"))
	return s, nil
}

// Addr returns the address the server listens on.
func (s *Server) Addr() string {
	return s.ln.Addr().String()
}

// Shutdown stops the server and waits for its goroutine.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.srv.Shutdown(ctx)
	s.wg.Wait()
	return err
}
