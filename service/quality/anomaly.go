/*
 * @module service/quality/anomaly
 * @description 异常检测引擎，对数值列做 Z-score/IQR 离群检测，对类别列做稀有值检测
 * @architecture 分层架构 - 业务服务层
 * @documentReference ai_docs/quality_engine_req.md
 * @stateFlow 数值列: Z-score 检测 -> (无命中时) IQR 回退；类别列: 频次统计 -> 稀有值标记
 * @rules 标准差为 0 时 z 值按 0 处理，绝不产生 NaN/Inf；IQR 仅在 Z-score 无命中时执行
 * @dependencies quality-service/service/models, github.com/spf13/cast
 * @refs service/quality/profiler.go, service/quality/engine.go
 */

package quality

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"quality-service/service/models"

	"github.com/spf13/cast"
)

// 异常检测默认参数
const (
	DefaultZScoreThreshold = 3.0
	DefaultIQRMultiplier   = 1.5
	DefaultRarityFraction  = 0.01
	// 单列记录的离群点上限，计数保持精确，样本列表有界
	maxOutliersPerColumn = 100
)

// AnomalyConfig 异常检测配置
type AnomalyConfig struct {
	ZScoreThreshold float64 `json:"zscore_threshold"`
	IQRMultiplier   float64 `json:"iqr_multiplier"`
	RarityFraction  float64 `json:"rarity_fraction"`
}

// AnomalyEngine 异常检测引擎
type AnomalyEngine struct {
	config AnomalyConfig
}

// NewAnomalyEngine 创建异常检测引擎实例
func NewAnomalyEngine(config *AnomalyConfig) *AnomalyEngine {
	cfg := AnomalyConfig{
		ZScoreThreshold: DefaultZScoreThreshold,
		IQRMultiplier:   DefaultIQRMultiplier,
		RarityFraction:  DefaultRarityFraction,
	}
	if config != nil {
		if config.ZScoreThreshold > 0 {
			cfg.ZScoreThreshold = config.ZScoreThreshold
		}
		if config.IQRMultiplier > 0 {
			cfg.IQRMultiplier = config.IQRMultiplier
		}
		if config.RarityFraction > 0 {
			cfg.RarityFraction = config.RarityFraction
		}
	}
	return &AnomalyEngine{config: cfg}
}

// DetectAnomalies 对数据集全部列做异常检测，仅返回有命中的列
func (e *AnomalyEngine) DetectAnomalies(ctx context.Context, ds *models.Dataset) ([]models.AnomalyResult, error) {
	if err := ds.Validate(); err != nil {
		return nil, err
	}
	if len(ds.Records) == 0 {
		return []models.AnomalyResult{}, nil
	}

	perColumn := make([]*models.AnomalyResult, len(ds.Columns))
	var wg sync.WaitGroup
	for i, col := range ds.Columns {
		wg.Add(1)
		go func(i int, col models.ColumnDef) {
			defer wg.Done()
			values := ds.ColumnValues(col.Name)
			switch col.DeclaredType {
			case models.ColumnTypeNumeric:
				perColumn[i] = e.detectNumericOutliers(col.Name, values)
			case models.ColumnTypeCategorical:
				perColumn[i] = e.detectRareValues(col.Name, values)
			}
		}(i, col)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	results := make([]models.AnomalyResult, 0)
	for _, r := range perColumn {
		if r != nil && len(r.Outliers) > 0 {
			results = append(results, *r)
		}
	}
	return results, nil
}

// detectNumericOutliers 数值列离群检测
// 先做 Z-score 检测；仅当 Z-score 一个都没有命中时回退到 IQR 检测。
// 标准差为 0 时所有 z 值视为 0，必然触发 IQR 回退
func (e *AnomalyEngine) detectNumericOutliers(column string, values []interface{}) *models.AnomalyResult {
	type point struct {
		index int
		value float64
	}
	var points []point
	for i, v := range values {
		if f, ok := parseNumeric(v); ok {
			points = append(points, point{index: i, value: f})
		}
	}
	if len(points) < 2 {
		return nil
	}

	var sum float64
	for _, p := range points {
		sum += p.value
	}
	mean := sum / float64(len(points))

	var variance float64
	for _, p := range points {
		variance += (p.value - mean) * (p.value - mean)
	}
	stdDev := math.Sqrt(variance / float64(len(points)))

	result := &models.AnomalyResult{
		Column:    column,
		Method:    models.AnomalyMethodZScore,
		Threshold: e.config.ZScoreThreshold,
	}

	if stdDev > 0 {
		for _, p := range points {
			z := (p.value - mean) / stdDev
			if math.Abs(z) > e.config.ZScoreThreshold {
				result.Outliers = appendOutlier(result.Outliers, models.Outlier{
					Index: p.index,
					Value: p.value,
					Score: z,
					Reason: fmt.Sprintf("z-score %.2f 超过阈值 %.1f (均值 %.2f, 标准差 %.2f)",
						z, e.config.ZScoreThreshold, mean, stdDev),
				})
			}
		}
	}
	if len(result.Outliers) > 0 {
		return result
	}

	// IQR 回退
	sorted := make([]float64, len(points))
	for i, p := range points {
		sorted[i] = p.value
	}
	sort.Float64s(sorted)
	q1 := percentileAt(sorted, 0.25)
	q3 := percentileAt(sorted, 0.75)
	iqr := q3 - q1
	lower := q1 - e.config.IQRMultiplier*iqr
	upper := q3 + e.config.IQRMultiplier*iqr

	result.Method = models.AnomalyMethodIQR
	result.Threshold = e.config.IQRMultiplier
	for _, p := range points {
		switch {
		case p.value < lower:
			result.Outliers = appendOutlier(result.Outliers, models.Outlier{
				Index:  p.index,
				Value:  p.value,
				Score:  lower - p.value,
				Reason: fmt.Sprintf("低于 Q1 离群下界 %.2f", lower),
			})
		case p.value > upper:
			result.Outliers = appendOutlier(result.Outliers, models.Outlier{
				Index:  p.index,
				Value:  p.value,
				Score:  p.value - upper,
				Reason: fmt.Sprintf("高于 Q3 离群上界 %.2f", upper),
			})
		}
	}
	return result
}

// detectRareValues 类别列稀有值检测
// 阈值为 max(1, floor(RarityFraction * 非空值数))，频次落在 (0, 阈值] 的值被标记
func (e *AnomalyEngine) detectRareValues(column string, values []interface{}) *models.AnomalyResult {
	counts := make(map[string]int64)
	var nonNull int64
	for _, v := range values {
		if isNull(v) {
			continue
		}
		nonNull++
		counts[cast.ToString(v)]++
	}
	if nonNull == 0 {
		return nil
	}

	threshold := int64(math.Floor(e.config.RarityFraction * float64(nonNull)))
	if threshold < 1 {
		threshold = 1
	}

	result := &models.AnomalyResult{
		Column:    column,
		Method:    models.AnomalyMethodRarity,
		Threshold: float64(threshold),
	}
	for i, v := range values {
		if isNull(v) {
			continue
		}
		key := cast.ToString(v)
		count := counts[key]
		if count > threshold {
			continue
		}
		result.Outliers = appendOutlier(result.Outliers, models.Outlier{
			Index: i,
			Value: v,
			Score: 1 - float64(count)/float64(nonNull),
			Reason: fmt.Sprintf("稀有值，出现 %d 次，不超过阈值 %d (非空值共 %d)",
				count, threshold, nonNull),
		})
	}
	return result
}

func appendOutlier(outliers []models.Outlier, o models.Outlier) []models.Outlier {
	if len(outliers) >= maxOutliersPerColumn {
		return outliers
	}
	return append(outliers, o)
}
