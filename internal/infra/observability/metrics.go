package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"

	"github.com/luisherrera/finances-go/internal/domain"
)

// Metrics holds all Prometheus metrics for the finances service.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	requestDuration *prometheus.HistogramVec
	externalErrors  *prometheus.CounterVec
	snapshotHits    *prometheus.CounterVec
	snapshotMisses  *prometheus.CounterVec
	cyclesTotal     *prometheus.CounterVec
	fallbackTotal   prometheus.Counter
	alertsEmitted   *prometheus.CounterVec
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "finances_request_duration_seconds",
				Help:    "Duration of operations by name.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		externalErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finances_external_errors_total",
				Help: "Total errors from external services.",
			},
			[]string{"service"},
		),
		snapshotHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finances_snapshot_hits_total",
				Help: "Total recommendation snapshot reads that found a value.",
			},
			[]string{"store"},
		),
		snapshotMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finances_snapshot_misses_total",
				Help: "Total recommendation snapshot reads that found nothing.",
			},
			[]string{"store"},
		),
		cyclesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finances_recommendation_cycles_total",
				Help: "Total recommendation generation cycles by result.",
			},
			[]string{"result"},
		),
		fallbackTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "finances_generator_fallback_total",
				Help: "Total generation requests answered by the local fallback.",
			},
		),
		alertsEmitted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finances_dashboard_alerts_total",
				Help: "Total dashboard alerts emitted by severity.",
			},
			[]string{"severity"},
		),
	}
}

// RecordRequestDuration records the duration of an operation.
func (m *Metrics) RecordRequestDuration(operation string, d time.Duration) {
	m.requestDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// IncrExternalError increments the external error counter.
func (m *Metrics) IncrExternalError(service string) {
	m.externalErrors.WithLabelValues(service).Inc()
}

// IncrSnapshotHit increments the snapshot hit counter.
func (m *Metrics) IncrSnapshotHit(store string) {
	m.snapshotHits.WithLabelValues(store).Inc()
}

// IncrSnapshotMiss increments the snapshot miss counter.
func (m *Metrics) IncrSnapshotMiss(store string) {
	m.snapshotMisses.WithLabelValues(store).Inc()
}

// IncrCycle increments the generation cycle counter ("success" or "error").
func (m *Metrics) IncrCycle(result string) {
	m.cyclesTotal.WithLabelValues(result).Inc()
}

// IncrFallback increments the local fallback counter.
func (m *Metrics) IncrFallback() {
	m.fallbackTotal.Inc()
}

// IncrAlert counts an emitted dashboard alert.
func (m *Metrics) IncrAlert(severity string) {
	m.alertsEmitted.WithLabelValues(severity).Inc()
}

// GetEngineSnapshot returns a snapshot of insight-engine metrics suitable
// for the GET /v1/metrics/engine endpoint.
func (m *Metrics) GetEngineSnapshot() *domain.EngineMetrics {
	success := getCounterValue(m.cyclesTotal, "success")
	failed := getCounterValue(m.cyclesTotal, "error")
	cycles := success + failed
	generatorErrors := getCounterValue(m.externalErrors, "generator")
	hits := getCounterValue(m.snapshotHits, "recommendations")
	misses := getCounterValue(m.snapshotMisses, "recommendations")
	fallbacks := counterValue(m.fallbackTotal)

	errorRate := float64(0)
	fallbackRate := float64(0)
	hitRate := float64(0)

	if cycles > 0 {
		errorRate = failed / cycles
		fallbackRate = fallbacks / cycles
	}
	if hits+misses > 0 {
		hitRate = hits / (hits + misses)
	}

	return &domain.EngineMetrics{
		RecommendationCycles: int64(cycles),
		CycleErrorRate:       errorRate,
		FallbackRate:         fallbackRate,
		SnapshotHitRate:      hitRate,
		GeneratorErrors:      int64(generatorErrors),
		Period:               "all_time",
	}
}

// getCounterValue extracts the current float64 value from a CounterVec for a given label.
func getCounterValue(cv *prometheus.CounterVec, label string) float64 {
	return counterValue(cv.WithLabelValues(label))
}

func counterValue(c prometheus.Counter) float64 {
	m := &dto.Metric{}
	if err := c.Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}
