package metrics

import (
	"context"
	"errors"
	"log/slog"
	"math/big"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors for a transfer run and
// implements transfer.Recorder.
type Metrics struct {
	attemptsTotal *prometheus.CounterVec
	chunksTotal   *prometheus.CounterVec
	balanceWaits  prometheus.Counter
	transferred   prometheus.Gauge
}

// NewMetrics creates a new Metrics instance and registers all collectors.
// If registry is nil, prometheus.DefaultRegisterer is used.
func NewMetrics(registry prometheus.Registerer) *Metrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}

	factory := promauto.With(registry)

	return &Metrics{
		attemptsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "autotransfer_attempts_total",
				Help: "Total number of transfer submissions by outcome",
			},
			[]string{"outcome"},
		),
		chunksTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "autotransfer_chunks_total",
				Help: "Total number of chunks by result (sent, abandoned)",
			},
			[]string{"result"},
		),
		balanceWaits: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "autotransfer_balance_waits_total",
				Help: "Total number of balance polls that found insufficient funds",
			},
		),
		transferred: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "autotransfer_transferred_minor_units",
				Help: "Amount transferred so far in the asset's minor units",
			},
		),
	}
}

// ObserveAttempt records one submission attempt.
func (m *Metrics) ObserveAttempt(outcome string) {
	m.attemptsTotal.WithLabelValues(outcome).Inc()
}

// ObserveChunk records a chunk that either succeeded or was abandoned.
func (m *Metrics) ObserveChunk(result string) {
	m.chunksTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveWait() { m.balanceWaits.Inc() }

// SetTransferred exports progress. Large values lose precision as float64.
func (m *Metrics) SetTransferred(v *big.Int) {
	if v == nil {
		m.transferred.Set(0)
		return
	}
	f, _ := new(big.Float).SetInt(v).Float64()
	m.transferred.Set(f)
}

// Serve exposes gatherer on addr under /metrics until ctx is done.
func Serve(ctx context.Context, addr string, gatherer prometheus.Gatherer, logger *slog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	logger.Info("metrics server listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
