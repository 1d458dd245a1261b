package models

import "time"

// MetricsSnapshot summarises process counters for the health endpoint.
type MetricsSnapshot struct {
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	ImportsFinished          uint64    `json:"imports_finished"`
	ImportsFailed            uint64    `json:"imports_failed"`
	MarksExtracted           uint64    `json:"marks_extracted"`
	QueueDepth               int       `json:"queue_depth"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}
