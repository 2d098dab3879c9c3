package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the harvester.
type Metrics struct {
	StationsHarvested prometheus.Counter
	StationFailures   *prometheus.CounterVec // label: reason={missing_field,malformed_document,duplicate_station,transport,other}
	RecordsPublished  prometheus.Counter
	HarvestRunning    prometheus.Gauge

	HarvestDuration        prometheus.Histogram
	DescribeSensorDuration prometheus.Histogram
}

// NewMetrics creates and registers all harvester metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		StationsHarvested: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sos_harvester",
			Name:      "stations_harvested_total",
			Help:      "Total stations successfully parsed and assembled.",
		}),
		StationFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sos_harvester",
			Name:      "station_failures_total",
			Help:      "Per-station failures by reason.",
		}, []string{"reason"}),
		RecordsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sos_harvester",
			Name:      "records_published_total",
			Help:      "Total station records published to the sink topic.",
		}),
		HarvestRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "sos_harvester",
			Name:      "harvest_running",
			Help:      "1 while a harvest is in progress, 0 otherwise.",
		}),
		HarvestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "sos_harvester",
			Name:      "harvest_duration_seconds",
			Help:      "Duration of a complete harvest across all stations.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}),
		DescribeSensorDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "sos_harvester",
			Name:      "describe_sensor_duration_seconds",
			Help:      "Duration of individual DescribeSensor requests.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
	}

	prometheus.MustRegister(
		m.StationsHarvested,
		m.StationFailures,
		m.RecordsPublished,
		m.HarvestRunning,
		m.HarvestDuration,
		m.DescribeSensorDuration,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		StationsHarvested:      prometheus.NewCounter(prometheus.CounterOpts{Namespace: "sos_harvester", Name: "stations_harvested_total"}),
		StationFailures:        prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "sos_harvester", Name: "station_failures_total"}, []string{"reason"}),
		RecordsPublished:       prometheus.NewCounter(prometheus.CounterOpts{Namespace: "sos_harvester", Name: "records_published_total"}),
		HarvestRunning:         prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "sos_harvester", Name: "harvest_running"}),
		HarvestDuration:        prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "sos_harvester", Name: "harvest_duration_seconds"}),
		DescribeSensorDuration: prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "sos_harvester", Name: "describe_sensor_duration_seconds"}),
	}
}
