package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// preparation pipeline.
type Metrics struct {
	FeaturesExtracted *prometheus.CounterVec // labels: kind={road,building}
	FeaturesClipped   *prometheus.CounterVec // labels: kind={road,building}
	EmissionRows      prometheus.Counter
	JoinedFeatures    prometheus.Counter
	DroppedRows       prometheus.Counter
	WeatherRecords    prometheus.Counter
	FilesWritten      *prometheus.CounterVec // labels: stage
	StageDuration     *prometheus.HistogramVec
	PipelineRunning   prometheus.Gauge
}

func newMetrics() *Metrics {
	return &Metrics{
		FeaturesExtracted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gralprep",
			Name:      "features_extracted_total",
			Help:      "Features parsed from the OSM extract by kind.",
		}, []string{"kind"}),
		FeaturesClipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gralprep",
			Name:      "features_clipped_total",
			Help:      "Features remaining after the bounding-box clip by kind.",
		}, []string{"kind"}),
		EmissionRows: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "gralprep",
			Name:      "emission_rows_total",
			Help:      "Emission records read from the traffic simulation output.",
		}),
		JoinedFeatures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "gralprep",
			Name:      "joined_features_total",
			Help:      "Emission records matched to a road segment.",
		}),
		DroppedRows: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "gralprep",
			Name:      "dropped_rows_total",
			Help:      "Emission records with no matching road segment.",
		}),
		WeatherRecords: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "gralprep",
			Name:      "weather_records_total",
			Help:      "Weather observations in the selected series.",
		}),
		FilesWritten: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gralprep",
			Name:      "files_written_total",
			Help:      "Output files written by pipeline stage.",
		}, []string{"stage"}),
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "gralprep",
			Name:      "stage_duration_seconds",
			Help:      "Duration of each pipeline stage.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"stage"}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "gralprep",
			Name:      "pipeline_running",
			Help:      "1 while a run is active, 0 once it finishes.",
		}),
	}
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.FeaturesExtracted,
		m.FeaturesClipped,
		m.EmissionRows,
		m.JoinedFeatures,
		m.DroppedRows,
		m.WeatherRecords,
		m.FilesWritten,
		m.StageDuration,
		m.PipelineRunning,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}
