// Package metrics exposes Prometheus instrumentation for the rewards service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	dto "github.com/prometheus/client_model/go"
)

// Input quality kinds used as the "kind" label.
const (
	KindInvalidAmount   = "invalid_amount"
	KindNonPositive     = "non_positive_amount"
	KindInvalidDate     = "invalid_date"
	KindUnknownCustomer = "unknown_customer"
)

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	// Registry owns every collector below. It is private to the instance so
	// several Metrics can coexist in one process.
	Registry *prometheus.Registry

	httpDuration        *prometheus.HistogramVec
	aggregationDuration *prometheus.HistogramVec
	transactions        prometheus.Counter
	inputIssues         *prometheus.CounterVec
	cacheHits           *prometheus.CounterVec
	cacheMisses         *prometheus.CounterVec
	cacheExpired        prometheus.Counter
	sourceErrors        *prometheus.CounterVec
	circuitState        *prometheus.GaugeVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		httpDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "rewards_http_request_duration_seconds",
				Help:    "Duration of HTTP requests by route and status.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route", "method", "status"},
		),
		aggregationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "rewards_aggregation_duration_seconds",
				Help:    "Duration of reward aggregations by view.",
				Buckets: []float64{.0005, .001, .005, .01, .05, .1, .5, 1},
			},
			[]string{"view"},
		),
		transactions: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "rewards_transactions_processed_total",
				Help: "Total transactions fed to the aggregators.",
			},
		),
		inputIssues: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rewards_input_issues_total",
				Help: "Transactions with values the aggregators had to degrade.",
			},
			[]string{"kind"},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rewards_cache_hits_total",
				Help: "Total cache hits.",
			},
			[]string{"cache"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rewards_cache_misses_total",
				Help: "Total cache misses.",
			},
			[]string{"cache"},
		),
		cacheExpired: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "rewards_cache_expired_total",
				Help: "Cache entries removed by the periodic sweep.",
			},
		),
		sourceErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rewards_source_errors_total",
				Help: "Failed transaction source loads.",
			},
			[]string{"source"},
		),
		circuitState: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "rewards_source_circuit_state",
				Help: "Source circuit breaker state: 0 closed, 1 half-open, 2 open.",
			},
			[]string{"source"},
		),
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}

// ObserveHTTP records one served request.
func (m *Metrics) ObserveHTTP(route, method string, status int, d time.Duration) {
	m.httpDuration.WithLabelValues(route, method, strconv.Itoa(status)).Observe(d.Seconds())
}

// ObserveAggregation records the duration of one aggregation view.
func (m *Metrics) ObserveAggregation(view string, d time.Duration) {
	m.aggregationDuration.WithLabelValues(view).Observe(d.Seconds())
}

// AddTransactions counts transactions handed to the aggregators.
func (m *Metrics) AddTransactions(n int) {
	m.transactions.Add(float64(n))
}

// AddInputIssues counts degraded values of one kind. Zero is ignored.
func (m *Metrics) AddInputIssues(kind string, n int) {
	if n <= 0 {
		return
	}
	m.inputIssues.WithLabelValues(kind).Add(float64(n))
}

func (m *Metrics) IncrCacheHit(cache string) {
	m.cacheHits.WithLabelValues(cache).Inc()
}

func (m *Metrics) IncrCacheMiss(cache string) {
	m.cacheMisses.WithLabelValues(cache).Inc()
}

// AddCacheExpired matches the cache.Manager cleanup hook.
func (m *Metrics) AddCacheExpired(n int) {
	m.cacheExpired.Add(float64(n))
}

func (m *Metrics) IncrSourceError(source string) {
	m.sourceErrors.WithLabelValues(source).Inc()
}

// SetCircuitState records a breaker transition. Unknown states are ignored.
func (m *Metrics) SetCircuitState(source, state string) {
	var v float64
	switch state {
	case "closed":
		v = 0
	case "half-open":
		v = 1
	case "open":
		v = 2
	default:
		return
	}
	m.circuitState.WithLabelValues(source).Set(v)
}

// Snapshot is a point-in-time view of the counters served by /api/stats.
type Snapshot struct {
	TransactionsProcessed int64            `json:"transactionsProcessed"`
	InputIssues           map[string]int64 `json:"inputIssues"`
	CacheHits             int64            `json:"cacheHits"`
	CacheMisses           int64            `json:"cacheMisses"`
	CacheHitRate          float64          `json:"cacheHitRate"`
}

// Snapshot reads the current counter values for the given cache label.
func (m *Metrics) Snapshot(cache string) Snapshot {
	hits := counterValue(m.cacheHits.WithLabelValues(cache))
	misses := counterValue(m.cacheMisses.WithLabelValues(cache))

	s := Snapshot{
		TransactionsProcessed: int64(counterValue(m.transactions)),
		InputIssues:           make(map[string]int64, 4),
		CacheHits:             int64(hits),
		CacheMisses:           int64(misses),
	}
	for _, kind := range []string{KindInvalidAmount, KindNonPositive, KindInvalidDate, KindUnknownCustomer} {
		s.InputIssues[kind] = int64(counterValue(m.inputIssues.WithLabelValues(kind)))
	}
	if hits+misses > 0 {
		s.CacheHitRate = hits / (hits + misses)
	}
	return s
}

func counterValue(c prometheus.Counter) float64 {
	var out dto.Metric
	if err := c.Write(&out); err != nil {
		return 0
	}
	if out.Counter != nil && out.Counter.Value != nil {
		return *out.Counter.Value
	}
	return 0
}
