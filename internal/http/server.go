// Package http exposes health endpoints and Prometheus metrics for the
// download pipeline.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"vidcourier/internal/core"
)

type Server struct {
	config  *core.ServerConfig
	logger  *zap.Logger
	server  *http.Server
	metrics *Metrics
}

// Metrics implements core.Metrics on top of a private Prometheus registry,
// so tests can build servers without global registration conflicts.
type Metrics struct {
	registry *prometheus.Registry

	EnqueuedTotal    prometheus.Counter
	ProbesTotal      *prometheus.CounterVec
	TransfersTotal   *prometheus.CounterVec
	TransferDuration prometheus.Histogram
	DeliveriesTotal  *prometheus.CounterVec
	MirrorsTotal     *prometheus.CounterVec
	FailuresTotal    *prometheus.CounterVec
	ActiveSessions   prometheus.Gauge
	QueuedItems      prometheus.Gauge
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		EnqueuedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "vidcourier_enqueued_total",
				Help: "Total number of links accepted into a queue",
			},
		),
		ProbesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vidcourier_probes_total",
				Help: "Total number of metadata probes",
			},
			[]string{"status"},
		),
		TransfersTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vidcourier_transfers_total",
				Help: "Total number of media transfer attempts",
			},
			[]string{"status"},
		),
		TransferDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "vidcourier_transfer_duration_seconds",
				Help:    "Time spent transferring media",
				Buckets: prometheus.ExponentialBuckets(1, 2, 10),
			},
		),
		DeliveriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vidcourier_deliveries_total",
				Help: "Total number of media deliveries to chats",
			},
			[]string{"kind", "status"},
		),
		MirrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vidcourier_mirrors_total",
				Help: "Total number of mirror channel forwards",
			},
			[]string{"status"},
		),
		FailuresTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vidcourier_failures_total",
				Help: "Total number of pipeline failures by stage",
			},
			[]string{"stage"},
		),
		ActiveSessions: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "vidcourier_active_sessions",
				Help: "Number of sessions with an item in flight",
			},
		),
		QueuedItems: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "vidcourier_queued_items",
				Help: "Number of items waiting across all queues",
			},
		),
	}

	m.registry.MustRegister(
		m.EnqueuedTotal,
		m.ProbesTotal,
		m.TransfersTotal,
		m.TransferDuration,
		m.DeliveriesTotal,
		m.MirrorsTotal,
		m.FailuresTotal,
		m.ActiveSessions,
		m.QueuedItems,
	)

	return m
}

func (m *Metrics) RecordEnqueue() {
	m.EnqueuedTotal.Inc()
}

func (m *Metrics) RecordProbe(status string) {
	m.ProbesTotal.WithLabelValues(status).Inc()
}

func (m *Metrics) RecordTransfer(status string, seconds float64) {
	m.TransfersTotal.WithLabelValues(status).Inc()
	m.TransferDuration.Observe(seconds)
}

func (m *Metrics) RecordDelivery(kind, status string) {
	m.DeliveriesTotal.WithLabelValues(kind, status).Inc()
}

func (m *Metrics) RecordMirror(status string) {
	m.MirrorsTotal.WithLabelValues(status).Inc()
}

func (m *Metrics) RecordFailure(stage string) {
	m.FailuresTotal.WithLabelValues(stage).Inc()
}

func (m *Metrics) SetActiveSessions(count int) {
	m.ActiveSessions.Set(float64(count))
}

func (m *Metrics) SetQueuedItems(count int) {
	m.QueuedItems.Set(float64(count))
}

func NewServer(config *core.ServerConfig, metrics *Metrics, logger *zap.Logger) *Server {
	mux := setupRoutes(metrics, logger)

	return &Server{
		config:  config,
		logger:  logger,
		server:  createHTTPServer(config, mux),
		metrics: metrics,
	}
}

func setupRoutes(metrics *Metrics, logger *zap.Logger) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(`{"status":"ok","service":"vidcourier"}`)); err != nil {
			logger.Debug("Failed to write health response", zap.Error(err))
		}
	})

	mux.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(`{"status":"ready","service":"vidcourier"}`)); err != nil {
			logger.Debug("Failed to write ready response", zap.Error(err))
		}
	})

	mux.Handle("/metrics", promhttp.HandlerFor(metrics.registry, promhttp.HandlerOpts{}))

	return mux
}

func createHTTPServer(config *core.ServerConfig, mux *http.ServeMux) *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf("%s:%d", config.Host, config.Port),
		Handler:      mux,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	}
}

func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("Starting HTTP server",
		zap.String("addr", s.server.Addr))

	go func() {
		<-ctx.Done()
		s.logger.Info("Shutting down HTTP server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := s.server.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("Failed to shutdown HTTP server gracefully", zap.Error(err))
		}
	}()

	if err := s.server.ListenAndServe(); err != http.ErrServerClosed {
		return fmt.Errorf("HTTP server failed: %w", err)
	}

	return nil
}

func (s *Server) GetMetrics() *Metrics {
	return s.metrics
}
