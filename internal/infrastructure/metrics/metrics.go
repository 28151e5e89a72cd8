package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/yourusername/translate-relay-bot/internal/infrastructure/cache"
	"github.com/yourusername/translate-relay-bot/internal/infrastructure/ratelimit"
)

var (
	// Pipeline metrics
	messagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_messages_total",
			Help: "Inbound messages by terminal outcome and classification",
		},
		[]string{"outcome", "reason"},
	)

	cacheLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_cache_lookups_total",
			Help: "Translation cache lookups by result",
		},
		[]string{"result"},
	)

	// Provider metrics
	providerRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "relay_provider_request_duration_seconds",
			Help:    "Duration of translation provider calls in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 10.0},
		},
		[]string{"engine", "status"},
	)

	providerRequestSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "relay_provider_request_size_bytes",
			Help:    "Size of text sent to the translation provider in bytes",
			Buckets: []float64{16, 64, 256, 1024, 4096},
		},
		[]string{"engine"},
	)

	// Sampled state
	cacheEntries = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "relay_cache_entries",
		Help: "Entries currently held by the translation cache",
	})

	cacheEvictionsTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "relay_cache_evictions",
		Help: "Translation cache evictions since start",
	})

	rateLimitSenders = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "relay_ratelimit_tracked_senders",
		Help: "Sender windows currently tracked by the rate limiter",
	})

	rateLimitEvictions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "relay_ratelimit_evictions",
		Help: "Sender windows dropped by the sweep or the sender cap since start",
	})
)

// Recorder records pipeline and provider events for one translation engine.
type Recorder struct {
	engine string
}

// NewRecorder creates a Recorder labelled with the engine name.
func NewRecorder(engine string) *Recorder {
	return &Recorder{engine: engine}
}

// RecordMessage counts one terminal pipeline result.
func (r *Recorder) RecordMessage(outcome, reason string) {
	messagesTotal.WithLabelValues(outcome, reason).Inc()
}

// RecordCacheLookup counts a cache hit or miss.
func (r *Recorder) RecordCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	cacheLookupsTotal.WithLabelValues(result).Inc()
}

// RecordProviderCall records one provider call. status is "success" or an error reason.
func (r *Recorder) RecordProviderCall(duration time.Duration, status string, requestSize int) {
	providerRequestDuration.WithLabelValues(r.engine, status).Observe(duration.Seconds())
	providerRequestSize.WithLabelValues(r.engine).Observe(float64(requestSize))
}

// Collector samples cache and limiter state into gauges.
type Collector struct {
	cache   *cache.LRU
	limiter *ratelimit.FixedWindow
	mu      sync.Mutex
}

// NewCollector creates a Collector over the running cache and limiter.
func NewCollector(c *cache.LRU, l *ratelimit.FixedWindow) *Collector {
	return &Collector{cache: c, limiter: l}
}

// UpdateMetrics refreshes every sampled gauge.
func (c *Collector) UpdateMetrics() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cache != nil {
		stats := c.cache.Stats()
		cacheEntries.Set(float64(stats.Entries))
		cacheEvictionsTotal.Set(float64(stats.Evictions))
	}
	if c.limiter != nil {
		stats := c.limiter.Stats()
		rateLimitSenders.Set(float64(stats.Senders))
		rateLimitEvictions.Set(float64(stats.Evictions + stats.Swept))
	}
}
