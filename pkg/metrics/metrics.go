package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// 一次 digest 构建的总耗时（秒）
	DigestBuildDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "digest_build_duration_seconds",
			Help:    "End-to-end digest build duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~40s
		},
	)

	// 远程分类调用延迟（毫秒）
	ClassifierCallLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "classifier_call_latency_ms",
			Help:    "Remote classifier call latency in milliseconds",
			Buckets: prometheus.ExponentialBuckets(50, 2, 10), // 50ms to ~25s
		},
		[]string{"operation", "outcome"},
	)

	// 按来源统计的分类决策计数
	TriageDecisionCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "triage_decision_count",
			Help: "Total triage decisions by resolution source",
		},
		[]string{"source"}, // source: cache, remote, fallback
	)

	// 任务提取计数
	TaskExtractedCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "task_extracted_count",
			Help: "Total tasks extracted per source",
		},
		[]string{"source"}, // source: canvas, canvas_feed, mail, llm
	)

	// 推送结果计数
	PushSendCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "push_send_count",
			Help: "Push notification send attempts",
		},
		[]string{"status"}, // status: sent, failed, skipped
	)

	// 上游拉取失败计数（降级为空集）
	SourceFetchFailureCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "source_fetch_failure_count",
			Help: "Upstream fetch failures degraded to empty collections",
		},
		[]string{"source"}, // source: canvas, outlook
	)
)

// RecordClassifierCall 记录一次远程分类调用
func RecordClassifierCall(operation, outcome string, duration time.Duration) {
	ClassifierCallLatency.WithLabelValues(operation, outcome).Observe(float64(duration.Milliseconds()))
}

// RecordTriageDecision 记录一次分桶决策来源
func RecordTriageDecision(source string) {
	TriageDecisionCount.WithLabelValues(source).Inc()
}

// RecordTaskExtracted 记录一次任务提取
func RecordTaskExtracted(source string) {
	TaskExtractedCount.WithLabelValues(source).Inc()
}

// RecordPushSend 记录推送结果
func RecordPushSend(status string) {
	PushSendCount.WithLabelValues(status).Inc()
}
