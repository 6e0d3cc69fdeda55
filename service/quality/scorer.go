/*
 * @module service/quality/scorer
 * @description 质量评分器，基于列画像计算完整性、一致性、准确性、唯一性、时效性五维评分及总分
 * @architecture 分层架构 - 业务服务层
 * @documentReference ai_docs/quality_engine_req.md
 * @stateFlow 列画像 -> 维度评分 -> 总分聚合
 * @rules 各维度独立约束在 [0,100]；无适用列的维度不参与总分均值；禁止出现 NaN/Inf
 * @dependencies quality-service/service/models
 * @refs service/quality/profiler.go, service/quality/engine.go
 */

package quality

import (
	"time"

	"quality-service/service/models"
)

// DefaultFreshnessDays 时效性判定默认天数
const DefaultFreshnessDays = 30

// 维度名，用于加权配置
const (
	DimCompleteness = "completeness"
	DimConsistency  = "consistency"
	DimAccuracy     = "accuracy"
	DimUniqueness   = "uniqueness"
	DimTimeliness   = "timeliness"
)

// ScorerConfig 评分器配置
type ScorerConfig struct {
	FreshnessDays int                `json:"freshness_days"`
	Weights       map[string]float64 `json:"weights,omitempty"` // 维度 -> 权重，nil 表示等权
}

// Scorer 质量评分器
type Scorer struct {
	config ScorerConfig
}

// NewScorer 创建质量评分器实例
func NewScorer(config *ScorerConfig) *Scorer {
	cfg := ScorerConfig{FreshnessDays: DefaultFreshnessDays}
	if config != nil {
		cfg = *config
		if cfg.FreshnessDays <= 0 {
			cfg.FreshnessDays = DefaultFreshnessDays
		}
	}
	return &Scorer{config: cfg}
}

// ComputeScore 计算五维质量评分
// now 由调用方显式传入，时效性判定不读取环境时钟
func (s *Scorer) ComputeScore(ds *models.Dataset, profiles []models.ColumnProfile, now time.Time) *models.QualityScore {
	// 空数据集约定：无可评判内容即为满分
	if len(ds.Records) == 0 {
		return &models.QualityScore{
			Completeness: 100, Consistency: 100, Accuracy: 100,
			Uniqueness: 100, Timeliness: 100, Overall: 100,
		}
	}

	score := &models.QualityScore{
		Completeness: 100, Consistency: 100, Accuracy: 100,
		Uniqueness: 100, Timeliness: 100,
	}
	computed := make(map[string]float64)

	if v, ok := s.scoreCompleteness(profiles); ok {
		score.Completeness = v
		computed[DimCompleteness] = v
	}
	if v, ok := s.scoreConsistency(ds, profiles); ok {
		score.Consistency = v
		computed[DimConsistency] = v
	}
	if v, ok := s.scoreAccuracy(ds, profiles); ok {
		score.Accuracy = v
		computed[DimAccuracy] = v
	}
	if v, ok := s.scoreUniqueness(profiles); ok {
		score.Uniqueness = v
		computed[DimUniqueness] = v
	}
	if v, ok := s.scoreTimeliness(ds, profiles, now); ok {
		score.Timeliness = v
		computed[DimTimeliness] = v
	}

	score.Overall = s.aggregateOverall(computed)
	return score
}

// scoreCompleteness 完整性：逐列非空占比的均值
func (s *Scorer) scoreCompleteness(profiles []models.ColumnProfile) (float64, bool) {
	var sum float64
	var count int
	for _, p := range profiles {
		if p.TotalCount == 0 {
			continue
		}
		sum += float64(p.NonNullCount) / float64(p.TotalCount) * 100
		count++
	}
	return averageOf(sum, count)
}

// scoreConsistency 一致性：声明数值列的可解析占比，非数值列视为无类型敏感规则贡献满分
func (s *Scorer) scoreConsistency(ds *models.Dataset, profiles []models.ColumnProfile) (float64, bool) {
	var sum float64
	var count int
	for _, p := range profiles {
		if p.DeclaredType != models.ColumnTypeNumeric {
			sum += 100
			count++
			continue
		}
		if p.NonNullCount == 0 {
			continue
		}
		var parseable int64
		for _, v := range ds.ColumnValues(p.Name) {
			if isNull(v) {
				continue
			}
			if _, ok := parseNumeric(v); ok {
				parseable++
			}
		}
		sum += float64(parseable) / float64(p.NonNullCount) * 100
		count++
	}
	return averageOf(sum, count)
}

// 准确性领域规则：列名语义 -> 值域校验
type domainRule struct {
	applies func(name string) bool
	valid   func(v float64) bool
}

var domainRules = []domainRule{
	{applies: func(name string) bool { return nameHasSegment(name, "age") },
		valid: func(v float64) bool { return v >= 0 && v <= 150 }},
	{applies: func(name string) bool { return nameHasSegment(name, "percent", "percentage", "pct") },
		valid: func(v float64) bool { return v >= 0 && v <= 100 }},
	{applies: func(name string) bool {
		return nameHasSegment(name, "amount", "price", "cost", "salary", "balance", "revenue", "fee")
	}, valid: func(v float64) bool { return v >= 0 }},
}

// scoreAccuracy 准确性：被领域规则命中的列的通过率均值，未命中的列不参与也不扣分
func (s *Scorer) scoreAccuracy(ds *models.Dataset, profiles []models.ColumnProfile) (float64, bool) {
	var sum float64
	var count int
	for _, p := range profiles {
		rule := matchDomainRule(p.Name)
		if rule == nil || p.NonNullCount == 0 {
			continue
		}
		var checked, passed int64
		for _, v := range ds.ColumnValues(p.Name) {
			f, ok := parseNumeric(v)
			if !ok {
				continue
			}
			checked++
			if rule.valid(f) {
				passed++
			}
		}
		if checked == 0 {
			continue
		}
		sum += float64(passed) / float64(checked) * 100
		count++
	}
	return averageOf(sum, count)
}

func matchDomainRule(name string) *domainRule {
	for i := range domainRules {
		if domainRules[i].applies(name) {
			return &domainRules[i]
		}
	}
	return nil
}

// scoreUniqueness 唯一性：标识符列的去重占比均值
func (s *Scorer) scoreUniqueness(profiles []models.ColumnProfile) (float64, bool) {
	var sum float64
	var count int
	for _, p := range profiles {
		if !isIdentifierColumn(p.Name) || p.NonNullCount == 0 {
			continue
		}
		sum += float64(p.DistinctCount) / float64(p.NonNullCount) * 100
		count++
	}
	return averageOf(sum, count)
}

// scoreTimeliness 时效性：日期列中新于 now-FreshnessDays 的占比均值
func (s *Scorer) scoreTimeliness(ds *models.Dataset, profiles []models.ColumnProfile, now time.Time) (float64, bool) {
	cutoff := now.AddDate(0, 0, -s.config.FreshnessDays)
	var sum float64
	var count int
	for _, p := range profiles {
		if !isDateColumn(p.Name, p.DeclaredType) || p.NonNullCount == 0 {
			continue
		}
		var parsed, fresh int64
		for _, v := range ds.ColumnValues(p.Name) {
			t, ok := parseTime(v)
			if !ok {
				continue
			}
			parsed++
			if t.After(cutoff) {
				fresh++
			}
		}
		if parsed == 0 {
			continue
		}
		sum += float64(fresh) / float64(parsed) * 100
		count++
	}
	return averageOf(sum, count)
}

// aggregateOverall 聚合总分：实际计算出的维度的（加权）均值
func (s *Scorer) aggregateOverall(computed map[string]float64) float64 {
	if len(computed) == 0 {
		return 100
	}
	if len(s.config.Weights) == 0 {
		var sum float64
		for _, v := range computed {
			sum += v
		}
		return clampScore(sum / float64(len(computed)))
	}

	var weighted, totalWeight float64
	for dim, v := range computed {
		w, ok := s.config.Weights[dim]
		if !ok || w <= 0 {
			w = 1
		}
		weighted += v * w
		totalWeight += w
	}
	return clampScore(weighted / totalWeight)
}

// averageOf 汇总均值，无适用列时返回不适用
func averageOf(sum float64, count int) (float64, bool) {
	if count == 0 {
		return 0, false
	}
	return clampScore(sum / float64(count)), true
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
