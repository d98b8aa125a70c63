package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics is the global metrics container for a planning run.
type Metrics struct {
	// Builder metrics
	BuilderRunsTotal       *prometheus.CounterVec
	BuilderIterations      *prometheus.HistogramVec
	BuilderCandidatesSeen  *prometheus.HistogramVec
	BuilderRunDuration     *prometheus.HistogramVec
	NetworkCostEUR         *prometheus.GaugeVec
	PercentServed          *prometheus.GaugeVec
	RemainingBudgetEUR     *prometheus.GaugeVec

	// ResilienceAugmenter metrics
	AugmenterEdgesAdded *prometheus.HistogramVec

	// AvailabilityEvaluator metrics
	MonteCarloRepsTotal      *prometheus.CounterVec
	MonteCarloRunDuration    *prometheus.HistogramVec
	NetworkAvailability      *prometheus.GaugeVec
	MeanUnsuppliedWaterM3    *prometheus.GaugeVec

	// Graph size observed by PreCompute
	GraphNodesTotal *prometheus.HistogramVec
	GraphEdgesTotal *prometheus.HistogramVec

	// HydraulicProbe collaborator
	HydraulicProbeCallsTotal *prometheus.CounterVec

	// Service information
	ServiceInfo *prometheus.GaugeVec
}

var defaultMetrics *Metrics

// InitMetrics registers and returns the planning-run metrics.
func InitMetrics(namespace, subsystem string) *Metrics {
	m := &Metrics{
		BuilderRunsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "builder_runs_total",
				Help:      "Total number of Builder runs by variant and stop reason",
			},
			[]string{"variant", "stop_reason"},
		),

		BuilderIterations: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "builder_iterations",
				Help:      "Number of admission-loop iterations per Builder run",
				Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
			},
			[]string{"variant"},
		),

		BuilderCandidatesSeen: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "builder_candidates_seen",
				Help:      "Number of candidates enumerated per Builder iteration",
				Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500},
			},
			[]string{"variant"},
		),

		BuilderRunDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "builder_run_duration_seconds",
				Help:      "Duration of a full Builder run",
				Buckets:   []float64{.1, .5, 1, 2.5, 5, 10, 30, 60, 120, 300},
			},
			[]string{"variant"},
		),

		NetworkCostEUR: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "network_cost_eur",
				Help:      "Construction cost of the last finalized network",
			},
			[]string{"variant"},
		),

		PercentServed: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "percent_served",
				Help:      "Fraction of total demand served by the last finalized network",
			},
			[]string{"variant"},
		),

		RemainingBudgetEUR: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "remaining_budget_eur",
				Help:      "Budget remaining when the Builder terminated",
			},
			[]string{"variant"},
		),

		AugmenterEdgesAdded: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "augmenter_edges_added",
				Help:      "Number of secondary-path edges added by the ResilienceAugmenter",
				Buckets:   []float64{0, 1, 2, 5, 10, 25, 50, 100},
			},
			[]string{},
		),

		MonteCarloRepsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "monte_carlo_repetitions_total",
				Help:      "Total Monte Carlo repetitions executed by the AvailabilityEvaluator",
			},
			[]string{"availability_model"},
		),

		MonteCarloRunDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "monte_carlo_run_duration_seconds",
				Help:      "Wall-clock duration of a full Monte Carlo sampling run",
				Buckets:   []float64{.05, .1, .5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"availability_model"},
		),

		NetworkAvailability: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "network_availability",
				Help:      "Fraction of repetitions in which every checked node stayed reachable",
			},
			[]string{"availability_model"},
		),

		MeanUnsuppliedWaterM3: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "mean_unsupplied_water_m3",
				Help:      "Mean unsupplied water across Monte Carlo repetitions, in cubic meters per day",
			},
			[]string{"availability_model"},
		),

		GraphNodesTotal: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "graph_nodes_total",
				Help:      "Number of nodes in the ingested street graph",
				Buckets:   []float64{10, 50, 100, 500, 1000, 5000, 10000, 50000},
			},
			[]string{"stage"},
		),

		GraphEdgesTotal: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "graph_edges_total",
				Help:      "Number of edges in the ingested street graph",
				Buckets:   []float64{20, 100, 500, 1000, 5000, 10000, 50000, 100000},
			},
			[]string{"stage"},
		),

		HydraulicProbeCallsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "hydraulic_probe_calls_total",
				Help:      "Total calls to the external HydraulicProbe collaborator",
			},
			[]string{"verdict"},
		),

		ServiceInfo: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "service_info",
				Help:      "Build and environment information",
			},
			[]string{"version", "environment"},
		),
	}

	defaultMetrics = m
	return m
}

// Get returns the global metrics, initializing with defaults if needed.
func Get() *Metrics {
	if defaultMetrics == nil {
		return InitMetrics("waterplan", "core")
	}
	return defaultMetrics
}

// RecordBuilderRun records the outcome of a completed Builder run.
func (m *Metrics) RecordBuilderRun(variant, stopReason string, iterations, candidatesSeen int, duration time.Duration, costEUR, percentServed, remainingBudget float64) {
	m.BuilderRunsTotal.WithLabelValues(variant, stopReason).Inc()
	m.BuilderIterations.WithLabelValues(variant).Observe(float64(iterations))
	m.BuilderCandidatesSeen.WithLabelValues(variant).Observe(float64(candidatesSeen))
	m.BuilderRunDuration.WithLabelValues(variant).Observe(duration.Seconds())
	m.NetworkCostEUR.WithLabelValues(variant).Set(costEUR)
	m.PercentServed.WithLabelValues(variant).Set(percentServed)
	m.RemainingBudgetEUR.WithLabelValues(variant).Set(remainingBudget)
}

// RecordAugmenterRun records how many secondary-path edges the
// ResilienceAugmenter added in a single run.
func (m *Metrics) RecordAugmenterRun(edgesAdded int) {
	m.AugmenterEdgesAdded.WithLabelValues().Observe(float64(edgesAdded))
}

// RecordMonteCarloRun records a completed AvailabilityEvaluator sampling run.
func (m *Metrics) RecordMonteCarloRun(availabilityModel string, reps int, duration time.Duration, networkAvailability, meanUnsuppliedWater float64) {
	m.MonteCarloRepsTotal.WithLabelValues(availabilityModel).Add(float64(reps))
	m.MonteCarloRunDuration.WithLabelValues(availabilityModel).Observe(duration.Seconds())
	m.NetworkAvailability.WithLabelValues(availabilityModel).Set(networkAvailability)
	m.MeanUnsuppliedWaterM3.WithLabelValues(availabilityModel).Set(meanUnsuppliedWater)
}

// RecordGraphSize records the size of the ingested street graph at a stage.
func (m *Metrics) RecordGraphSize(stage string, nodes, edges int) {
	m.GraphNodesTotal.WithLabelValues(stage).Observe(float64(nodes))
	m.GraphEdgesTotal.WithLabelValues(stage).Observe(float64(edges))
}

// RecordHydraulicProbeCall records a single HydraulicProbe invocation.
func (m *Metrics) RecordHydraulicProbeCall(success bool) {
	verdict := "success"
	if !success {
		verdict = "failure"
	}
	m.HydraulicProbeCallsTotal.WithLabelValues(verdict).Inc()
}

// SetServiceInfo records build/environment metadata as a constant gauge.
func (m *Metrics) SetServiceInfo(version, environment string) {
	m.ServiceInfo.WithLabelValues(version, environment).Set(1)
}

// Handler returns the HTTP handler for /metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// StartMetricsServer starts a blocking HTTP server exposing /metrics and /health.
func StartMetricsServer(port int) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK")) //nolint:errcheck // health endpoint, write failure is not actionable
	})

	server := &http.Server{
		Addr:         ":" + strconv.Itoa(port),
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	return server.ListenAndServe()
}
