/*
 * @module service/models/trend_models
 * @description 质量趋势模型，包含趋势快照点和质量分析报告
 * @architecture 分层架构 - 数据模型层
 * @documentReference ai_docs/quality_engine_req.md
 * @stateFlow 分析完成 -> 追加趋势点 -> 方向分类
 * @rules 趋势点按时间有序仅追加，写入后不再变更
 * @dependencies gorm.io/gorm, github.com/google/uuid
 * @refs service/trend
 */

package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// 趋势方向
const (
	TrendUp     = "up"
	TrendDown   = "down"
	TrendStable = "stable"
)

// QualityTrendPoint 质量趋势快照点
// 以 (dataset_id, timestamp) 唯一，按时间有序仅追加
type QualityTrendPoint struct {
	ID           string    `gorm:"type:varchar(50);primaryKey" json:"id"`
	DatasetID    string    `gorm:"type:varchar(100);not null;uniqueIndex:idx_trend_dataset_ts" json:"dataset_id"`
	Timestamp    time.Time `gorm:"not null;uniqueIndex:idx_trend_dataset_ts" json:"timestamp"`
	Completeness float64   `json:"completeness"`
	Consistency  float64   `json:"consistency"`
	Accuracy     float64   `json:"accuracy"`
	Uniqueness   float64   `json:"uniqueness"`
	Timeliness   float64   `json:"timeliness"`
	Overall      float64   `json:"overall"`
	IssueCount   int       `json:"issue_count"`
	CreatedAt    time.Time `json:"created_at"`
}

// TableName 指定表名
func (QualityTrendPoint) TableName() string {
	return "quality_trend_points"
}

// BeforeCreate 创建前钩子
func (p *QualityTrendPoint) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	return nil
}

// Score 还原为评分结构
func (p *QualityTrendPoint) Score() QualityScore {
	return QualityScore{
		Completeness: p.Completeness,
		Consistency:  p.Consistency,
		Accuracy:     p.Accuracy,
		Uniqueness:   p.Uniqueness,
		Timeliness:   p.Timeliness,
		Overall:      p.Overall,
	}
}

// QualityReport 质量分析报告持久化模型
type QualityReport struct {
	ID              string    `gorm:"type:varchar(50);primaryKey" json:"id"`
	DatasetID       string    `gorm:"type:varchar(100);not null;index" json:"dataset_id"`
	OverallScore    float64   `json:"overall_score"`
	Completeness    float64   `json:"completeness"`
	Consistency     float64   `json:"consistency"`
	Accuracy        float64   `json:"accuracy"`
	Uniqueness      float64   `json:"uniqueness"`
	Timeliness      float64   `json:"timeliness"`
	IssueCount      int       `json:"issue_count"`
	AnomalyCount    int       `json:"anomaly_count"`
	Issues          JSONB     `gorm:"type:jsonb" json:"issues"`
	Recommendations JSONB     `gorm:"type:jsonb" json:"recommendations"`
	AnalyzedAt      time.Time `gorm:"not null;index" json:"analyzed_at"`
	DurationMs      int64     `json:"duration_ms"`
	GeneratedBy     string    `gorm:"type:varchar(50);default:system" json:"generated_by"`
	CreatedAt       time.Time `json:"created_at"`
}

// TableName 指定表名
func (QualityReport) TableName() string {
	return "quality_reports"
}

// BeforeCreate 创建前钩子
func (r *QualityReport) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	return nil
}
