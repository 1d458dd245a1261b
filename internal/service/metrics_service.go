package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/ipu-result-api/internal/extract"
	"github.com/noah-isme/ipu-result-api/internal/models"
	"github.com/noah-isme/ipu-result-api/internal/walker"
)

// MetricsService owns a private Prometheus registry with HTTP, cache, storage
// and extraction collectors.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLatency    prometheus.Observer
	cacheWrite      prometheus.Observer
	cacheHitRatio   prometheus.Gauge
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
	dbQueryDuration *prometheus.HistogramVec

	pages          *prometheus.CounterVec
	subjects       prometheus.Counter
	marks          prometheus.Counter
	skewedBlocks   prometheus.Counter
	droppedEntries prometheus.Counter
	imports        *prometheus.CounterVec
	importDuration prometheus.Observer

	cacheHitCount        uint64
	cacheMissCount       uint64
	requestCount         uint64
	requestDurationTotal uint64
	importsFinished      uint64
	importsFailed        uint64
	marksExtracted       uint64
	queueDepth           atomic.Value
}

// NewMetricsService registers every collector.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	m := &MetricsService{
		registry: registry,
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
		requestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		cacheHitRatio: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "cache_hit_ratio",
			Help: "Ratio of cache hits to total cache lookups",
		}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Total cache hits",
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Total cache misses",
		}),
		dbQueryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Duration of database operations",
			Buckets: prometheus.DefBuckets,
		}, []string{"query"}),
		pages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "extract_pages_total",
			Help: "Pages walked, by detected kind",
		}, []string{"kind"}),
		subjects: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "extract_subjects_total",
			Help: "Subject rows parsed from scheme pages",
		}),
		marks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "extract_marks_total",
			Help: "Marks attached to results",
		}),
		skewedBlocks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "extract_skewed_blocks_total",
			Help: "Result blocks whose paper, mark and total lists differed in length",
		}),
		droppedEntries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "extract_dropped_entries_total",
			Help: "List entries discarded when truncating skewed blocks",
		}),
		imports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "imports_total",
			Help: "Import jobs processed, by final status",
		}, []string{"status"}),
	}

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_latency_seconds",
		Help:    "Latency for cache reads",
		Buckets: prometheus.DefBuckets,
	})
	cacheWrite := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_write_seconds",
		Help:    "Latency for cache writes",
		Buckets: prometheus.DefBuckets,
	})
	importDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "import_duration_seconds",
		Help:    "Time spent processing one import job",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
	})
	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})
	m.cacheLatency = cacheLatency
	m.cacheWrite = cacheWrite
	m.importDuration = importDuration

	registry.MustRegister(
		m.requestDuration, m.requestTotal,
		cacheLatency, cacheWrite, m.cacheHitRatio, m.cacheHits, m.cacheMisses,
		m.dbQueryDuration,
		m.pages, m.subjects, m.marks, m.skewedBlocks, m.droppedEntries, m.imports, importDuration,
		goroutines,
	)
	m.handler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	return m
}

// TrackQueue exports the import queue depth. Call it once.
func (m *MetricsService) TrackQueue(depth func() int) {
	if m == nil || depth == nil {
		return
	}
	m.queueDepth.Store(depth)
	m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "import_queue_depth",
		Help: "Import jobs waiting for a worker",
	}, func() float64 {
		return float64(depth())
	}))
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Registry exposes the underlying registry, mainly for tests.
func (m *MetricsService) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveHTTPRequest records one served request.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
	atomic.AddUint64(&m.requestCount, 1)
	atomic.AddUint64(&m.requestDurationTotal, uint64(duration.Nanoseconds()))
}

// RecordCacheOperation records a cache lookup and updates the hit ratio.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	if hit {
		m.cacheHits.Inc()
		atomic.AddUint64(&m.cacheHitCount, 1)
	} else {
		m.cacheMisses.Inc()
		atomic.AddUint64(&m.cacheMissCount, 1)
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	total := hits + atomic.LoadUint64(&m.cacheMissCount)
	if total > 0 {
		m.cacheHitRatio.Set(float64(hits) / float64(total))
	}
}

// ObserveCacheWrite tracks the duration of a cache write.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// ObserveDBQuery records database timing under label.
func (m *MetricsService) ObserveDBQuery(label string, duration time.Duration) {
	if m == nil {
		return
	}
	m.dbQueryDuration.WithLabelValues(label).Observe(duration.Seconds())
}

// RecordPage counts one walked page.
func (m *MetricsService) RecordPage(kind extract.PageKind) {
	if m == nil {
		return
	}
	m.pages.WithLabelValues(string(kind)).Inc()
}

// RecordExtraction adds the counters of a finished document walk.
func (m *MetricsService) RecordExtraction(subjects int, stats walker.WalkStats) {
	if m == nil {
		return
	}
	m.subjects.Add(float64(subjects))
	m.marks.Add(float64(stats.Marks))
	m.skewedBlocks.Add(float64(stats.SkewedBlocks))
	m.droppedEntries.Add(float64(stats.Dropped))
	atomic.AddUint64(&m.marksExtracted, uint64(stats.Marks))
}

// RecordImport records the outcome and duration of an import job.
func (m *MetricsService) RecordImport(status models.ImportStatus, duration time.Duration) {
	if m == nil {
		return
	}
	m.imports.WithLabelValues(string(status)).Inc()
	m.importDuration.Observe(duration.Seconds())
	switch status {
	case models.ImportStatusFinished:
		atomic.AddUint64(&m.importsFinished, 1)
	case models.ImportStatusFailed:
		atomic.AddUint64(&m.importsFailed, 1)
	}
}

// Snapshot returns the aggregated counters.
func (m *MetricsService) Snapshot() models.MetricsSnapshot {
	if m == nil {
		return models.MetricsSnapshot{}
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	requests := atomic.LoadUint64(&m.requestCount)
	reqDuration := atomic.LoadUint64(&m.requestDurationTotal)

	var cacheRatio float64
	if hits+misses > 0 {
		cacheRatio = float64(hits) / float64(hits+misses)
	}
	var avgRequestMs float64
	if requests > 0 {
		avgRequestMs = float64(reqDuration) / float64(requests) / float64(time.Millisecond)
	}

	return models.MetricsSnapshot{
		RequestsTotal:            requests,
		AverageRequestDurationMs: avgRequestMs,
		CacheHitRatio:            cacheRatio,
		ImportsFinished:          atomic.LoadUint64(&m.importsFinished),
		ImportsFailed:            atomic.LoadUint64(&m.importsFailed),
		MarksExtracted:           atomic.LoadUint64(&m.marksExtracted),
		QueueDepth:               m.pendingImports(),
		Goroutines:               runtime.NumGoroutine(),
		GeneratedAt:              time.Now().UTC(),
	}
}

func (m *MetricsService) pendingImports() int {
	if depth, ok := m.queueDepth.Load().(func() int); ok {
		return depth()
	}
	return 0
}
