package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Simulation metrics
	runsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backtester_runs_total",
			Help: "Total number of backtest runs executed",
		},
		[]string{"strategy", "mode"},
	)

	runDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "backtester_run_duration_seconds",
			Help:    "Distribution of backtest run durations",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"strategy"},
	)

	finalNAV = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "backtester_final_nav",
			Help: "Final net asset value of the most recent run",
		},
		[]string{"strategy"},
	)

	// Error metrics
	errorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backtester_errors_total",
			Help: "Total number of failed runs by error type",
		},
		[]string{"type"},
	)
)

func init() {
	prometheus.MustRegister(runsTotal)
	prometheus.MustRegister(runDuration)
	prometheus.MustRegister(finalNAV)
	prometheus.MustRegister(errorsTotal)
}

// MetricsHandler handles the Prometheus metrics endpoint
type MetricsHandler struct{}

// NewMetricsHandler creates a new metrics handler
func NewMetricsHandler() *MetricsHandler {
	return &MetricsHandler{}
}

// ServeHTTP serves the Prometheus metrics endpoint
func (m *MetricsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// RecordRun records a completed backtest run
func RecordRun(strategy, mode string, duration time.Duration, nav float64) {
	runsTotal.WithLabelValues(strategy, mode).Inc()
	runDuration.WithLabelValues(strategy).Observe(duration.Seconds())
	finalNAV.WithLabelValues(strategy).Set(nav)
	defaultHealth.recordRun(strategy, nav)
}

// RecordError records a failed run
func RecordError(errorType string) {
	errorsTotal.WithLabelValues(errorType).Inc()
	defaultHealth.recordError(errorType)
}
