package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Stage labels.
const (
	StageRoute      = "route"
	StageReply      = "reply"
	StageExpand     = "expand"
	StageRetrieve   = "retrieve"
	StageSynthesize = "synthesize"
)

var (
	once sync.Once

	stageLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "labourlaw_stage_latency_ms",
		Help:    "Latency of pipeline stages in milliseconds",
		Buckets: []float64{10, 50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000, 60000},
	}, []string{"stage", "outcome"})

	intents = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "labourlaw_intent_total",
		Help: "Queries per classified intent",
	}, []string{"intent"})

	parseFallback = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "labourlaw_intent_parse_fallback_total",
		Help: "Classification payloads that could not be parsed and defaulted to CONVERSATIONAL",
	})

	retrievedFragments = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "labourlaw_retrieved_fragments",
		Help:    "Number of fragments returned per retrieval",
		Buckets: []float64{0, 1, 2, 4, 6, 8, 10, 12, 16, 24},
	}, []string{"jurisdiction"})

	indexLoads = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "labourlaw_index_load_total",
		Help: "Index attach attempts per jurisdiction",
	}, []string{"jurisdiction", "outcome"})

	queryErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "labourlaw_query_errors_total",
		Help: "Failed queries by error kind",
	}, []string{"kind"})
)

func ensureRegistered() {
	once.Do(func() {
		prometheus.MustRegister(Collectors()...)
	})
}

// Register installs the collectors in the default registry. Safe to call more than once.
func Register() { ensureRegistered() }

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// ObserveStage records a stage latency.
func ObserveStage(stage string, start time.Time, err error) {
	ensureRegistered()
	stageLatency.WithLabelValues(stage, outcome(err)).Observe(float64(time.Since(start).Milliseconds()))
}

// IncIntent counts a routing decision.
func IncIntent(intent string) {
	ensureRegistered()
	intents.WithLabelValues(intent).Inc()
}

// IncParseFallback counts a fail-open classification.
func IncParseFallback() {
	ensureRegistered()
	parseFallback.Inc()
}

// ParseFallbackCount returns the current fallback counter value.
func ParseFallbackCount() float64 {
	ensureRegistered()
	return counterValue(parseFallback)
}

// ObserveFragments records the number of fragments retrieved.
func ObserveFragments(jurisdiction string, n int) {
	ensureRegistered()
	retrievedFragments.WithLabelValues(jurisdiction).Observe(float64(n))
}

// IncIndexLoad counts an index attach.
func IncIndexLoad(jurisdiction string, err error) {
	ensureRegistered()
	indexLoads.WithLabelValues(jurisdiction, outcome(err)).Inc()
}

// IndexLoadCount returns the number of index attaches recorded for jurisdiction.
func IndexLoadCount(jurisdiction, result string) float64 {
	ensureRegistered()
	return counterValue(indexLoads.WithLabelValues(jurisdiction, result))
}

// IncQueryError counts a failed query.
func IncQueryError(kind string) {
	ensureRegistered()
	if kind == "" {
		kind = "unclassified"
	}
	queryErrors.WithLabelValues(kind).Inc()
}

// Collectors exposes all collectors for external registration with a custom registry.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		stageLatency, intents, parseFallback, retrievedFragments, indexLoads, queryErrors,
	}
}
