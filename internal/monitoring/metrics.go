// Package monitoring records per-stage timings and row counts for a
// pipeline run.
package monitoring

import (
	"log/slog"
	"runtime"
	"sync"
	"time"
)

// StageMetric holds the measurements of a single pipeline stage.
type StageMetric struct {
	Stage       string        `json:"stage" yaml:"stage"`
	Duration    time.Duration `json:"duration" yaml:"duration"`
	RowsIn      int           `json:"rows_in" yaml:"rows_in"`
	RowsOut     int           `json:"rows_out" yaml:"rows_out"`
	MemoryDelta int64         `json:"memory_delta" yaml:"memory_delta"`
	Failed      bool          `json:"failed" yaml:"failed"`
}

// LogValue renders the metric as a slog group.
func (m StageMetric) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("stage", m.Stage),
		slog.Duration("duration", m.Duration),
		slog.Int("rows_in", m.RowsIn),
		slog.Int("rows_out", m.RowsOut),
		slog.Int64("memory_delta", m.MemoryDelta),
	)
}

// MetricsCollector collects stage metrics. A disabled collector runs the
// stages and records nothing. It is safe for concurrent use.
type MetricsCollector struct {
	mu      sync.RWMutex
	metrics []StageMetric
	enabled bool
}

// NewMetricsCollector creates a new metrics collector.
func NewMetricsCollector(enabled bool) *MetricsCollector {
	return &MetricsCollector{
		metrics: make([]StageMetric, 0),
		enabled: enabled,
	}
}

// IsEnabled returns whether metrics collection is enabled.
func (mc *MetricsCollector) IsEnabled() bool {
	mc.mu.RLock()
	defer mc.mu.RUnlock()
	return mc.enabled
}

// RecordStage runs fn and records its duration, the rows it received and
// the rows it reported producing. A failing stage is recorded too.
func (mc *MetricsCollector) RecordStage(stage string, rowsIn int, fn func() (int, error)) error {
	if !mc.IsEnabled() {
		_, err := fn()
		return err
	}

	var memBefore runtime.MemStats
	runtime.ReadMemStats(&memBefore)
	start := time.Now()

	rowsOut, err := fn()

	duration := time.Since(start)
	var memAfter runtime.MemStats
	runtime.ReadMemStats(&memAfter)

	metric := StageMetric{
		Stage:       stage,
		Duration:    duration,
		RowsIn:      rowsIn,
		RowsOut:     rowsOut,
		MemoryDelta: int64(memAfter.TotalAlloc - memBefore.TotalAlloc), //nolint:gosec // TotalAlloc only grows
		Failed:      err != nil,
	}

	mc.mu.Lock()
	mc.metrics = append(mc.metrics, metric)
	mc.mu.Unlock()

	return err
}

// GetMetrics returns a copy of all collected metrics in recording order.
func (mc *MetricsCollector) GetMetrics() []StageMetric {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	result := make([]StageMetric, len(mc.metrics))
	copy(result, mc.metrics)
	return result
}

// GetSummary returns a summary of collected metrics.
func (mc *MetricsCollector) GetSummary() MetricsSummary {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	if len(mc.metrics) == 0 {
		return MetricsSummary{}
	}

	summary := MetricsSummary{TotalStages: len(mc.metrics)}
	for _, metric := range mc.metrics {
		summary.TotalDuration += metric.Duration
		summary.TotalMemory += metric.MemoryDelta
		if metric.Failed {
			summary.FailedStages++
		}
		if metric.Duration > summary.SlowestDuration {
			summary.SlowestStage = metric.Stage
			summary.SlowestDuration = metric.Duration
		}
	}
	summary.AverageDuration = summary.TotalDuration / time.Duration(len(mc.metrics))
	return summary
}

// MetricsSummary provides aggregate statistics for collected metrics.
type MetricsSummary struct {
	TotalStages     int           `json:"total_stages"`
	FailedStages    int           `json:"failed_stages"`
	TotalDuration   time.Duration `json:"total_duration"`
	TotalMemory     int64         `json:"total_memory"`
	AverageDuration time.Duration `json:"average_duration"`
	SlowestStage    string        `json:"slowest_stage"`
	SlowestDuration time.Duration `json:"slowest_duration"`
}

// LogValue renders the summary as a slog group.
func (s MetricsSummary) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("stages", s.TotalStages),
		slog.Int("failed", s.FailedStages),
		slog.Duration("total", s.TotalDuration),
		slog.String("slowest", s.SlowestStage),
	)
}
