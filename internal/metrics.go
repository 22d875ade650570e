package hydrotop

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Metrics instruments the dashboard itself
type Metrics struct {
	LiveMessages     *prometheus.CounterVec
	MalformedSamples *prometheus.CounterVec
	HistoryFetches   *prometheus.CounterVec
	Commands         *prometheus.CounterVec
	Disconnects      prometheus.Counter
	Connected        prometheus.Gauge
}

// NewMetrics creates the collectors and registers them on reg (skipped when reg is nil)
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		LiveMessages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hydrotop",
			Name:      "live_messages_total",
			Help:      "Push channel messages received, by topic.",
		}, []string{"topic"}),
		MalformedSamples: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hydrotop",
			Name:      "malformed_samples_total",
			Help:      "Samples dropped at decoding, by source.",
		}, []string{"source"}),
		HistoryFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hydrotop",
			Name:      "history_fetches_total",
			Help:      "Historical range requests, by metric and result.",
		}, []string{"metric", "result"}),
		Commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hydrotop",
			Name:      "commands_total",
			Help:      "Commands sent to the board, by command and result.",
		}, []string{"command", "result"}),
		Disconnects: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hydrotop",
			Name:      "feed_disconnects_total",
			Help:      "Push channel disconnections.",
		}),
		Connected: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "hydrotop",
			Name:      "feed_connected",
			Help:      "1 while the push channel is connected.",
		}),
	}
	if reg != nil {
		reg.MustRegister(
			m.LiveMessages,
			m.MalformedSamples,
			m.HistoryFetches,
			m.Commands,
			m.Disconnects,
			m.Connected,
		)
	}
	return m
}

func result(ok bool) string {
	if ok {
		return "ok"
	}
	return "error"
}

// ServeMetrics exposes gatherer on addr until ctx is done
func ServeMetrics(ctx context.Context, addr string, gatherer prometheus.Gatherer, logger *zap.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("serving metrics", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
