package metrics

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

type Outcome string

const (
	Success                  Outcome       = "success"
	Error                    Outcome       = "error"
	MetricRequestTimeout     time.Duration = 5 * time.Second
	MetricRequestIdleTimeout time.Duration = 10 * time.Second
)

func (O Outcome) String() string {
	return string(O)
}

var (
	once                       sync.Once
	metricsRouter              *chi.Mux
	recomputeDurationHistogram *prometheus.HistogramVec
	recomputeLinesCounter      prometheus.Counter
	recomputePeriodsCounter    *prometheus.CounterVec
	diagnosticsCounter         *prometheus.CounterVec
	overrideCounter            *prometheus.CounterVec
	queueConsumeErrorCounter   prometheus.Counter
	activeJobsGauge            prometheus.Gauge
	pollerDurationHistogram    *prometheus.HistogramVec
	dbLatency                  *prometheus.HistogramVec
)

// Init initializes the metrics package.
func Init(metricsPort int) {
	once.Do(func() {
		initMetricsRouter(metricsPort)
		registerMetrics()
	})
}

// initMetricsRouter initializes the metrics router.
func initMetricsRouter(metricsPort int) {
	metricsRouter = chi.NewRouter()
	metricsRouter.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})
	// Create a custom server with timeout settings
	metricsAddr := fmt.Sprintf(":%d", metricsPort)
	server := &http.Server{
		Addr:         metricsAddr,
		Handler:      metricsRouter,
		ReadTimeout:  MetricRequestTimeout,
		WriteTimeout: MetricRequestTimeout,
		IdleTimeout:  MetricRequestIdleTimeout,
	}

	// Start the server in a separate goroutine
	go func() {
		log.Printf("Starting metrics server on %s", metricsAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msgf("Error starting metrics server on %s", metricsAddr)
		}
	}()
}

// registerMetrics initializes and register the Prometheus metrics.
func registerMetrics() {
	defaultHistogramBucketsSeconds := []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 300}

	recomputeDurationHistogram = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "recompute_job_duration_seconds",
			Help:    "Histogram of recompute job durations in seconds.",
			Buckets: defaultHistogramBucketsSeconds,
		},
		[]string{"chain", "status"},
	)

	recomputeLinesCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "commission_lines_written_total",
			Help: "The total number of commission lines written by recompute jobs",
		},
	)

	recomputePeriodsCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recompute_periods_total",
			Help: "The total number of periods handled by recompute jobs, by outcome",
		},
		[]string{"outcome"}, // processed | skipped
	)

	diagnosticsCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recompute_diagnostics_total",
			Help: "The total number of per-unit anomalies degraded to zero contribution",
		},
		[]string{"kind"},
	)

	overrideCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "commission_overrides_total",
			Help: "The total number of override mutations, by action",
		},
		[]string{"action"},
	)

	queueConsumeErrorCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "queue_consume_error_count",
			Help: "The total number of errors when consuming feed messages from the queue",
		},
	)

	activeJobsGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "recompute_jobs_active",
			Help: "Number of recompute jobs currently running",
		},
	)

	pollerDurationHistogram = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "poller_duration_seconds",
			Help:    "Histogram of poller durations in seconds.",
			Buckets: defaultHistogramBucketsSeconds,
		},
		[]string{"type", "status"},
	)

	dbLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "db_latency_seconds",
			Help: "DB latency in seconds splitted by method and execution status",
		},
		[]string{"method", "status"},
	)

	prometheus.MustRegister(
		recomputeDurationHistogram,
		recomputeLinesCounter,
		recomputePeriodsCounter,
		diagnosticsCounter,
		overrideCounter,
		queueConsumeErrorCounter,
		activeJobsGauge,
		pollerDurationHistogram,
		dbLatency,
	)
}

func RecordRecomputeDuration(d time.Duration, chain string, failure bool) {
	status := Success
	if failure {
		status = Error
	}

	recomputeDurationHistogram.WithLabelValues(chain, status.String()).Observe(d.Seconds())
}

func AddLinesWritten(count uint64) {
	recomputeLinesCounter.Add(float64(count))
}

func AddPeriodsProcessed(count uint64) {
	recomputePeriodsCounter.WithLabelValues("processed").Add(float64(count))
}

func AddPeriodsSkipped(count uint64) {
	recomputePeriodsCounter.WithLabelValues("skipped").Add(float64(count))
}

func IncDiagnostic(kind string) {
	diagnosticsCounter.WithLabelValues(kind).Inc()
}

func IncOverride(action string) {
	overrideCounter.WithLabelValues(action).Inc()
}

func IncQueueConsumeErrors() {
	queueConsumeErrorCounter.Inc()
}

func IncActiveJobs() {
	activeJobsGauge.Inc()
}

func DecActiveJobs() {
	activeJobsGauge.Dec()
}

func RecordDbLatency(d time.Duration, method string, failure bool) {
	status := Success
	if failure {
		status = Error
	}

	dbLatency.WithLabelValues(method, status.String()).Observe(d.Seconds())
}
