/*
 * @module service/models/quality_models
 * @description 质量分析派生模型，包含列画像、质量评分、质量问题、异常检测结果等核心结构
 * @architecture 分层架构 - 数据模型层
 * @documentReference ai_docs/quality_engine_req.md
 * @stateFlow 数据集快照 -> 列画像 -> 评分/问题/异常 -> 分析结果
 * @rules 派生模型每次分析全量重算，无跨次运行身份；评分各维度独立约束在 [0,100]
 * @dependencies time
 * @refs service/quality, service/models/dataset.go
 */

package models

import (
	"time"
)

// 质量问题类别
const (
	CategoryCompleteness = "completeness"
	CategoryConsistency  = "consistency"
	CategoryAccuracy     = "accuracy"
	CategoryUniqueness   = "uniqueness"
	CategoryTimeliness   = "timeliness"
	CategoryValidity     = "validity"
	CategoryConformity   = "conformity"
)

// 问题严重程度
const (
	SeverityLow    = "low"
	SeverityMedium = "medium"
	SeverityHigh   = "high"
)

// 异常检测方法
const (
	AnomalyMethodZScore = "zscore"
	AnomalyMethodIQR    = "iqr"
	AnomalyMethodRarity = "rarity"
)

// NumericStats 数值列统计摘要
// 标准差采用总体公式；Q1/Q3 按排序后位置索引取值
type NumericStats struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Q1     float64 `json:"q1"`
	Q3     float64 `json:"q3"`
}

// ColumnProfile 单列画像
// 无任何非空值的列 NumericStats 为 nil，参与均值计算时必须被排除而非按零处理
type ColumnProfile struct {
	Name          string        `json:"name"`
	DeclaredType  string        `json:"declared_type"`
	TotalCount    int64         `json:"total_count"`
	NonNullCount  int64         `json:"non_null_count"`
	DistinctCount int64         `json:"distinct_count"`
	NumericStats  *NumericStats `json:"numeric_stats,omitempty"`
}

// QualityScore 五维质量评分
// Overall 为实际计算出的维度的均值（或配置的加权均值），无适用列的维度不参与
type QualityScore struct {
	Completeness float64 `json:"completeness"`
	Consistency  float64 `json:"consistency"`
	Accuracy     float64 `json:"accuracy"`
	Uniqueness   float64 `json:"uniqueness"`
	Timeliness   float64 `json:"timeliness"`
	Overall      float64 `json:"overall"`
}

// QualityIssue 数据质量问题
type QualityIssue struct {
	Category     string  `json:"category"`
	Severity     string  `json:"severity"` // high, medium, low
	Column       string  `json:"column"`
	Description  string  `json:"description"`
	AffectedRows int64   `json:"affected_rows"`
	Percentage   float64 `json:"percentage"`
}

// Outlier 单个离群点
type Outlier struct {
	Index  int         `json:"index"`
	Value  interface{} `json:"value"`
	Score  float64     `json:"score"`
	Reason string      `json:"reason"`
}

// AnomalyResult 单列异常检测结果
type AnomalyResult struct {
	Column    string    `json:"column"`
	Method    string    `json:"method"` // zscore, iqr, rarity
	Threshold float64   `json:"threshold"`
	Outliers  []Outlier `json:"outliers"`
}

// AnalysisResult 一次完整质量分析的汇总结果
type AnalysisResult struct {
	DatasetID       string          `json:"dataset_id,omitempty"`
	Profiles        []ColumnProfile `json:"profiles"`
	Score           *QualityScore   `json:"score"`
	Issues          []QualityIssue  `json:"issues"`
	Anomalies       []AnomalyResult `json:"anomalies"`
	Recommendations []string        `json:"recommendations"`
	AnalyzedAt      time.Time       `json:"analyzed_at"`
	Duration        time.Duration   `json:"duration"`
}

// SeverityRank 严重程度排序值，用于阈值比较
func SeverityRank(severity string) int {
	switch severity {
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	default:
		return 0
	}
}
