package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "cohort_repayment"

// Metrics regroupe les métriques Prometheus d'un calcul, sur un registre dédié.
type Metrics struct {
	registry *prometheus.Registry

	RecordsLoaded    *prometheus.CounterVec
	RecordsDropped   *prometheus.CounterVec
	NegativeOffsets  prometheus.Counter
	Cohorts          prometheus.Gauge
	ZeroTotalBuckets prometheus.Gauge
	StageDuration    *prometheus.HistogramVec
	LastSuccess      prometheus.Gauge
}

// New crée et enregistre toutes les métriques.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		RecordsLoaded: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_loaded_total",
			Help:      "Input records loaded, by table",
		}, []string{"table"}),
		RecordsDropped: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_dropped_total",
			Help:      "Records excluded from the analysis, by reason",
		}, []string{"reason"}),
		NegativeOffsets: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "negative_offsets_total",
			Help:      "Payments received before the registration month",
		}),
		Cohorts: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cohorts",
			Help:      "Number of cohorts in the last computed matrix",
		}),
		ZeroTotalBuckets: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "zero_total_buckets",
			Help:      "Cohort buckets without cumulative total value in the last run",
		}),
		StageDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of each pipeline stage",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}, []string{"stage"}),
		LastSuccess: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful run",
		}),
	}
}

// Registry expose le registre (tests, serveur /metrics éventuel).
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveStage enregistre la durée d'une étape démarrée à start.
func (m *Metrics) ObserveStage(stage string, start time.Time) {
	m.StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}

// Dropped ajoute n enregistrements écartés pour reason (n <= 0 ignoré).
func (m *Metrics) Dropped(reason string, n int) {
	if n > 0 {
		m.RecordsDropped.WithLabelValues(reason).Add(float64(n))
	}
}

// WriteTextfile écrit le registre au format texte, pour le textfile collector de node_exporter.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
