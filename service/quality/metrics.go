/*
 * @module service/quality/metrics
 * @description 质量引擎 Prometheus 指标定义
 * @architecture 分层架构 - 业务服务层
 * @documentReference ai_docs/quality_engine_req.md
 * @stateFlow 分析执行 -> 指标更新 -> /metrics 暴露
 * @rules 指标只增不减，由 promhttp 统一暴露
 * @dependencies github.com/prometheus/client_golang
 * @refs main.go
 */

package quality

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	analysesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quality_analyses_total",
		Help: "质量分析执行总数，按结果区分",
	}, []string{"status"})

	analysisDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "quality_analysis_duration_seconds",
		Help:    "单次质量分析耗时",
		Buckets: prometheus.DefBuckets,
	})

	issuesDetected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quality_issues_detected_total",
		Help: "检出质量问题总数",
	})
)
