package codec

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Generation results used as the "result" label.
const (
	ResultOK                 = "ok"
	ResultGenerationError    = "generation_error"
	ResultInstantiationError = "instantiation_error"
)

// Metrics holds the Prometheus collectors of a Generator.
type Metrics struct {
	Generations        *prometheus.CounterVec
	CacheHits          prometheus.Counter
	GenerationDuration prometheus.Histogram
}

// NewMetrics creates the codec collectors and registers them with reg. A nil
// reg registers with prometheus.DefaultRegisterer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		Generations: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "msgskema",
				Subsystem: "codec",
				Name:      "generations_total",
				Help:      "Codec generation attempts by result",
			},
			[]string{"result"},
		),
		CacheHits: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: "msgskema",
				Subsystem: "codec",
				Name:      "cache_hits_total",
				Help:      "Codec lookups served from the cache",
			},
		),
		GenerationDuration: f.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "msgskema",
				Subsystem: "codec",
				Name:      "generation_duration_seconds",
				Help:      "Time spent generating and instantiating a codec",
				Buckets:   []float64{.00001, .00005, .0001, .0005, .001, .005, .01, .05},
			},
		),
	}
}

func (m *Metrics) hit() {
	if m == nil {
		return
	}
	m.CacheHits.Inc()
}

func (m *Metrics) generated(result string, took time.Duration) {
	if m == nil {
		return
	}
	m.Generations.WithLabelValues(result).Inc()
	m.GenerationDuration.Observe(took.Seconds())
}
