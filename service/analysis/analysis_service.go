/*
 * @module service/analysis/analysis_service
 * @description 分析编排服务，串联质量引擎、趋势跟踪和告警评估，并负责报告与事件的持久化
 * @architecture 分层架构 - 业务服务层
 * @documentReference ai_docs/quality_engine_req.md
 * @stateFlow 数据集快照 -> 引擎分析 -> 报告落盘 -> 趋势追加 -> 告警评估 -> 事件落盘与回写
 * @rules 分析被取消或超时时不落盘任何部分结果；趋势与事件仅追加
 * @dependencies quality-service/service/quality, quality-service/service/trend, quality-service/service/alerting
 * @refs service/scheduler/quality_scheduler.go, api/controllers/quality_controller.go
 */

package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"quality-service/service/alerting"
	"quality-service/service/models"
	"quality-service/service/quality"
	"quality-service/service/trend"

	"gorm.io/gorm"
)

// Service 分析编排服务
type Service struct {
	engine     *quality.Engine
	tracker    *trend.Tracker
	evaluator  *alerting.Evaluator
	ruleStore  *alerting.RuleStore
	eventStore *alerting.EventStore
	db         *gorm.DB
}

// NewService 创建分析编排服务实例
func NewService(engine *quality.Engine, tracker *trend.Tracker, evaluator *alerting.Evaluator,
	ruleStore *alerting.RuleStore, eventStore *alerting.EventStore, db *gorm.DB) *Service {
	return &Service{
		engine:     engine,
		tracker:    tracker,
		evaluator:  evaluator,
		ruleStore:  ruleStore,
		eventStore: eventStore,
		db:         db,
	}
}

// RunResult 一次编排运行的产出
type RunResult struct {
	Analysis *models.AnalysisResult `json:"analysis"`
	Events   []models.AlertEvent    `json:"events"`
}

// Run 执行一次按需分析
// 数据集带 ID 时追加趋势点、评估告警并持久化；匿名快照只做纯分析
func (s *Service) Run(ctx context.Context, ds *models.Dataset, now time.Time) (*RunResult, error) {
	result, err := s.engine.AnalyzeDataset(ctx, ds, now)
	if err != nil {
		return nil, err
	}
	// 取消的运行到此为止，不落盘
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	runResult := &RunResult{Analysis: result, Events: []models.AlertEvent{}}
	if ds.ID == "" {
		return runResult, nil
	}

	if s.db != nil {
		if err := s.saveReport(result); err != nil {
			slog.Error("保存质量报告失败", "dataset_id", ds.ID, "error", err)
		}
	}

	if s.tracker != nil {
		if _, err := s.tracker.AppendPoint(ds.ID, result.Score, len(result.Issues), now); err != nil {
			slog.Warn("追加趋势点失败", "dataset_id", ds.ID, "error", err)
		}
	}

	if s.evaluator != nil && s.ruleStore != nil {
		events, err := s.evaluateAlerts(result, now)
		if err != nil {
			slog.Error("告警评估失败", "dataset_id", ds.ID, "error", err)
		} else {
			runResult.Events = events
		}
	}
	return runResult, nil
}

// evaluateAlerts 加载启用规则评估告警，持久化事件并回写触发时间
func (s *Service) evaluateAlerts(result *models.AnalysisResult, now time.Time) ([]models.AlertEvent, error) {
	rules, err := s.ruleStore.ListEnabled()
	if err != nil {
		return nil, fmt.Errorf("加载告警规则失败: %w", err)
	}
	if len(rules) == 0 {
		return []models.AlertEvent{}, nil
	}

	events := s.evaluator.EvaluateAlerts(result.Issues, rules, now)
	for i := range events {
		events[i].DatasetID = result.DatasetID
		if s.eventStore != nil {
			if err := s.eventStore.Append(&events[i]); err != nil {
				slog.Error("保存告警事件失败", "event_id", events[i].ID, "error", err)
			}
		}
		// 评估器通过事件上报新的触发时间，由存储层回写
		if err := s.ruleStore.MarkFired(events[i].RuleID, events[i].FiredAt); err != nil {
			slog.Error("回写规则触发时间失败", "rule_id", events[i].RuleID, "error", err)
		}
	}
	return events, nil
}

// saveReport 持久化质量分析报告
func (s *Service) saveReport(result *models.AnalysisResult) error {
	issues := make([]interface{}, len(result.Issues))
	for i, issue := range result.Issues {
		issues[i] = issue
	}
	recommendations := make([]interface{}, len(result.Recommendations))
	for i, r := range result.Recommendations {
		recommendations[i] = r
	}

	report := &models.QualityReport{
		DatasetID:       result.DatasetID,
		OverallScore:    result.Score.Overall,
		Completeness:    result.Score.Completeness,
		Consistency:     result.Score.Consistency,
		Accuracy:        result.Score.Accuracy,
		Uniqueness:      result.Score.Uniqueness,
		Timeliness:      result.Score.Timeliness,
		IssueCount:      len(result.Issues),
		AnomalyCount:    len(result.Anomalies),
		Issues:          models.JSONB{"issues": issues},
		Recommendations: models.JSONB{"recommendations": recommendations},
		AnalyzedAt:      result.AnalyzedAt,
		DurationMs:      result.Duration.Milliseconds(),
		GeneratedBy:     "system",
	}
	return s.db.Create(report).Error
}

// ListReports 分页查询数据集的历史质量报告
func (s *Service) ListReports(datasetID string, page, size int) ([]models.QualityReport, int64, error) {
	if s.db == nil {
		return nil, 0, fmt.Errorf("报告存储未初始化")
	}
	query := s.db.Model(&models.QualityReport{})
	if datasetID != "" {
		query = query.Where("dataset_id = ?", datasetID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var reports []models.QualityReport
	err := query.Order("analyzed_at DESC").
		Offset((page - 1) * size).Limit(size).Find(&reports).Error
	return reports, total, err
}
