/*
 * @module service/quality/engine
 * @description 数据质量引擎，编排画像、评分、问题检测和异常检测，产出完整分析结果
 * @architecture 分层架构 - 业务服务层
 * @documentReference ai_docs/quality_engine_req.md
 * @stateFlow 数据集校验 -> 画像 -> {评分, 问题检测, 异常检测} 并行 -> 结果汇总 -> 改进建议
 * @rules 分析是无副作用的单遍计算，不修改输入；上下文取消时丢弃部分结果不落盘
 * @dependencies quality-service/service/models
 * @refs service/quality/profiler.go, service/quality/scorer.go, service/quality/detector.go, service/quality/anomaly.go
 */

package quality

import (
	"context"
	"fmt"
	"time"

	"quality-service/service/models"
)

// EngineConfig 质量引擎配置
type EngineConfig struct {
	Scorer  *ScorerConfig  `json:"scorer,omitempty"`
	Anomaly *AnomalyConfig `json:"anomaly,omitempty"`
}

// Engine 数据质量引擎
type Engine struct {
	profiler *Profiler
	scorer   *Scorer
	detector *Detector
	anomaly  *AnomalyEngine
}

// NewEngine 创建数据质量引擎实例
func NewEngine(config *EngineConfig) *Engine {
	var scorerCfg *ScorerConfig
	var anomalyCfg *AnomalyConfig
	if config != nil {
		scorerCfg = config.Scorer
		anomalyCfg = config.Anomaly
	}
	return &Engine{
		profiler: NewProfiler(),
		scorer:   NewScorer(scorerCfg),
		detector: NewDetector(),
		anomaly:  NewAnomalyEngine(anomalyCfg),
	}
}

// AnalyzeDataset 执行一次完整的质量分析
// now 由调用方传入，保证相同输入下结果确定
func (e *Engine) AnalyzeDataset(ctx context.Context, ds *models.Dataset, now time.Time) (*models.AnalysisResult, error) {
	startTime := time.Now()

	if err := ds.Validate(); err != nil {
		analysesTotal.WithLabelValues("invalid").Inc()
		return nil, err
	}

	profiles, err := e.profiler.ProfileDataset(ctx, ds)
	if err != nil {
		analysesTotal.WithLabelValues("cancelled").Inc()
		return nil, fmt.Errorf("列画像失败: %w", err)
	}

	// 评分、问题检测、异常检测互相独立，并行执行
	var issues []models.QualityIssue
	var anomalies []models.AnomalyResult
	var issuesErr, anomaliesErr error

	done := make(chan struct{})
	go func() {
		defer close(done)
		issues, issuesErr = e.detector.DetectIssues(ctx, ds)
	}()
	anomalies, anomaliesErr = e.anomaly.DetectAnomalies(ctx, ds)
	score := e.scorer.ComputeScore(ds, profiles, now)
	<-done

	if issuesErr != nil {
		analysesTotal.WithLabelValues("cancelled").Inc()
		return nil, fmt.Errorf("质量问题检测失败: %w", issuesErr)
	}
	if anomaliesErr != nil {
		analysesTotal.WithLabelValues("cancelled").Inc()
		return nil, fmt.Errorf("异常检测失败: %w", anomaliesErr)
	}
	// 取消的运行丢弃所有部分结果
	if err := ctx.Err(); err != nil {
		analysesTotal.WithLabelValues("cancelled").Inc()
		return nil, err
	}

	result := &models.AnalysisResult{
		DatasetID:       ds.ID,
		Profiles:        profiles,
		Score:           score,
		Issues:          issues,
		Anomalies:       anomalies,
		Recommendations: e.generateRecommendations(score, issues),
		AnalyzedAt:      now,
		Duration:        time.Since(startTime),
	}

	analysesTotal.WithLabelValues("success").Inc()
	analysisDuration.Observe(result.Duration.Seconds())
	issuesDetected.Add(float64(len(issues)))
	return result, nil
}

// ComputeQualityScore 仅计算质量评分
func (e *Engine) ComputeQualityScore(ctx context.Context, ds *models.Dataset, now time.Time) (*models.QualityScore, error) {
	profiles, err := e.profiler.ProfileDataset(ctx, ds)
	if err != nil {
		return nil, err
	}
	return e.scorer.ComputeScore(ds, profiles, now), nil
}

// DetectIssues 仅执行质量问题检测
func (e *Engine) DetectIssues(ctx context.Context, ds *models.Dataset) ([]models.QualityIssue, error) {
	return e.detector.DetectIssues(ctx, ds)
}

// DetectAnomalies 仅执行异常检测
func (e *Engine) DetectAnomalies(ctx context.Context, ds *models.Dataset) ([]models.AnomalyResult, error) {
	return e.anomaly.DetectAnomalies(ctx, ds)
}

// generateRecommendations 根据评分和问题生成改进建议
func (e *Engine) generateRecommendations(score *models.QualityScore, issues []models.QualityIssue) []string {
	recommendations := make([]string, 0)

	if score.Overall < 60 {
		recommendations = append(recommendations, "数据质量评分较低，建议全面检查数据源和处理流程")
	} else if score.Overall < 80 {
		recommendations = append(recommendations, "数据质量有改进空间，建议关注主要问题并制定改进计划")
	}

	for _, issue := range issues {
		if issue.Severity == models.SeverityHigh {
			recommendations = append(recommendations,
				fmt.Sprintf("高优先级：%s，%s", issue.Description, suggestionFor(issue.Category)))
		}
	}
	return recommendations
}

// suggestionFor 按问题类别给出改进建议
func suggestionFor(category string) string {
	suggestions := map[string]string{
		models.CategoryCompleteness: "检查数据抽取流程，确保所有必要字段都有值",
		models.CategoryAccuracy:     "验证数据源准确性，检查数据转换逻辑",
		models.CategoryConsistency:  "检查数据格式和编码标准，统一数据表示方式",
		models.CategoryUniqueness:   "添加唯一性约束，检查重复数据来源",
		models.CategoryTimeliness:   "优化数据更新频率，确保数据及时性",
		models.CategoryValidity:     "增强数据验证规则，确保数据格式正确",
		models.CategoryConformity:   "规范字段格式，清理不符合约定格式的值",
	}
	if suggestion, exists := suggestions[category]; exists {
		return suggestion
	}
	return "请检查相关数据质量问题"
}
