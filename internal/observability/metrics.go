package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "wildfire_twin"

// Metrics holds the Prometheus counters, histograms, and gauges for the simulation.
type Metrics struct {
	StepsTotal        prometheus.Counter
	StepDuration      prometheus.Histogram
	SimulationRunning prometheus.Gauge

	// Detection metrics.
	AnomalyCells    *prometheus.HistogramVec // labels: set={reported,hot,eligible}
	Confidence      prometheus.Gauge
	TriggersTotal   prometheus.Counter
	VegetationDelta prometheus.Gauge

	// Collaborator metrics.
	PositionErrors *prometheus.CounterVec // labels: policy={fatal,skip}
	PublishErrors  *prometheus.CounterVec // labels: sink
	FramesDropped  prometheus.Counter

	// Geocoding metrics.
	GeocodeRequests *prometheus.CounterVec // labels: outcome={success,error,empty}
	GeocodeCache    *prometheus.CounterVec // labels: result={hit,miss}
}

// NewMetrics creates and registers all simulation metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		StepsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "steps_total",
			Help:      "Total completed simulation steps.",
		}),
		StepDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "step_duration_seconds",
			Help:      "Wall time spent computing one step, excluding the inter-step wait.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}),
		SimulationRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "simulation_running",
			Help:      "1 while the simulation loop is active, 0 otherwise.",
		}),
		AnomalyCells: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "anomaly_cells",
			Help:      "Anomalous cells per step by extraction set.",
			Buckets:   []float64{0, 1, 4, 8, 13, 18, 32, 64, 128},
		}, []string{"set"}),
		Confidence: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "confidence_percent",
			Help:      "Detection confidence of the most recent step.",
		}),
		TriggersTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payout_triggers_total",
			Help:      "Payout trigger transitions. At most one per run.",
		}),
		VegetationDelta: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "vegetation_delta_celsius",
			Help:      "Mean scene temperature minus the vegetation baseline.",
		}),
		PositionErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "position_errors_total",
			Help:      "Sub-point provider failures by configured policy.",
		}, []string{"policy"}),
		PublishErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_errors_total",
			Help:      "Detection sink failures by sink.",
		}, []string{"sink"}),
		FramesDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_dropped_total",
			Help:      "Thermal frames replaced before the renderer picked them up.",
		}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_requests_total",
			Help:      "Reverse geocoding API requests by outcome.",
		}, []string{"outcome"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_cache_total",
			Help:      "Geocoding cache lookups by result.",
		}, []string{"result"}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.StepsTotal,
		m.StepDuration,
		m.SimulationRunning,
		m.AnomalyCells,
		m.Confidence,
		m.TriggersTotal,
		m.VegetationDelta,
		m.PositionErrors,
		m.PublishErrors,
		m.FramesDropped,
		m.GeocodeRequests,
		m.GeocodeCache,
	}
}
