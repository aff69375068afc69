package metrics

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/samvad-hq/samvad-diagnosis-client/pkg/medapi"
)

// Logger is the logging surface the metrics server uses.
type Logger interface {
	InfoObj(msg, key string, obj interface{})
	ErrorObj(msg, key string, obj interface{})
}

// Metrics holds the collectors for API calls and interview turns.
type Metrics struct {
	gatherer prometheus.Gatherer

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	interviewTurns  *prometheus.CounterVec
	publishFailures *prometheus.CounterVec
}

// New registers the collectors on reg. A nil reg gets a private registry.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)

	return &Metrics{
		gatherer: reg,
		requestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "medapi_requests_total",
				Help: "Total number of diagnosis API requests",
			},
			[]string{"version", "method", "status"},
		),
		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "medapi_request_duration_seconds",
				Help:    "Diagnosis API request duration in seconds",
				Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"version", "method"},
		),
		interviewTurns: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "medapi_interview_turns_total",
				Help: "Total number of interview turns by kind",
			},
			[]string{"version", "kind"},
		),
		publishFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "medapi_publish_failures_total",
				Help: "Total number of interview events that failed to publish",
			},
			[]string{"kind"},
		),
	}
}

// ObserveCall records a finished API call. It matches medapi.CallObserver.
func (m *Metrics) ObserveCall(info medapi.CallInfo) {
	if m == nil {
		return
	}
	version := string(info.Version)
	method := string(info.Method)
	m.requestsTotal.WithLabelValues(version, method, statusLabel(info)).Inc()
	m.requestDuration.WithLabelValues(version, method).Observe(info.Duration.Seconds())
}

// ObserveTurn counts an interview turn (start, answer, triage...).
func (m *Metrics) ObserveTurn(version medapi.APIVersion, kind string) {
	if m == nil {
		return
	}
	m.interviewTurns.WithLabelValues(string(version), kind).Inc()
}

// ObservePublishFailure counts an event the fanout could not deliver everywhere.
func (m *Metrics) ObservePublishFailure(kind string) {
	if m == nil {
		return
	}
	m.publishFailures.WithLabelValues(kind).Inc()
}

// Handler exposes the registered collectors.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is done.
func (m *Metrics) Serve(ctx context.Context, addr string, log Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.InfoObj("metrics server listening", "metrics_server", map[string]any{"addr": addr})
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		log.ErrorObj("metrics server failed", "metrics_server_error", map[string]any{"error": err.Error()})
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func statusLabel(info medapi.CallInfo) string {
	if info.StatusCode > 0 {
		return strconv.Itoa(info.StatusCode)
	}
	if info.Err != nil {
		return "error"
	}
	return "ok"
}
