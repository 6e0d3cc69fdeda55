/*
 * @module service/quality/profiler
 * @description 模式画像器，从数据集快照推导每列统计信息（空值、去重计数、数值摘要）
 * @architecture 分层架构 - 业务服务层
 * @documentReference ai_docs/quality_engine_req.md
 * @stateFlow 数据集快照 -> 逐列并行画像 -> 列画像列表
 * @rules 列间无共享可变状态，逐列计算可安全并行；零非空值的列数值摘要为 nil
 * @dependencies quality-service/service/models, github.com/spf13/cast
 * @refs service/quality/scorer.go, service/quality/anomaly.go
 */

package quality

import (
	"context"
	"math"
	"sort"
	"sync"

	"quality-service/service/models"

	"github.com/spf13/cast"
)

// Profiler 模式画像器
type Profiler struct{}

// NewProfiler 创建模式画像器实例
func NewProfiler() *Profiler {
	return &Profiler{}
}

// ProfileDataset 对数据集所有声明列做画像，逐列并行
func (p *Profiler) ProfileDataset(ctx context.Context, ds *models.Dataset) ([]models.ColumnProfile, error) {
	if err := ds.Validate(); err != nil {
		return nil, err
	}

	profiles := make([]models.ColumnProfile, len(ds.Columns))
	var wg sync.WaitGroup
	for i, col := range ds.Columns {
		wg.Add(1)
		go func(i int, col models.ColumnDef) {
			defer wg.Done()
			profiles[i] = p.ProfileColumn(col, ds.ColumnValues(col.Name))
		}(i, col)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return profiles, nil
}

// ProfileColumn 对单列计算画像
func (p *Profiler) ProfileColumn(col models.ColumnDef, values []interface{}) models.ColumnProfile {
	profile := models.ColumnProfile{
		Name:         col.Name,
		DeclaredType: col.DeclaredType,
		TotalCount:   int64(len(values)),
	}

	distinct := make(map[string]struct{})
	var numerics []float64
	for _, v := range values {
		if isNull(v) {
			continue
		}
		profile.NonNullCount++
		distinct[cast.ToString(v)] = struct{}{}
		if col.DeclaredType == models.ColumnTypeNumeric {
			if f, ok := parseNumeric(v); ok {
				numerics = append(numerics, f)
			}
		}
	}
	profile.DistinctCount = int64(len(distinct))

	if col.DeclaredType == models.ColumnTypeNumeric && len(numerics) > 0 {
		profile.NumericStats = computeNumericStats(numerics)
	}
	return profile
}

// computeNumericStats 计算数值摘要
// 标准差使用总体公式；Q1/Q3 取排序后 floor(n*0.25)/floor(n*0.75) 位置的值
func computeNumericStats(values []float64) *models.NumericStats {
	n := float64(len(values))

	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / n

	var variance float64
	for _, v := range values {
		variance += (v - mean) * (v - mean)
	}
	variance /= n

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	return &models.NumericStats{
		Mean:   mean,
		StdDev: math.Sqrt(variance),
		Q1:     percentileAt(sorted, 0.25),
		Q3:     percentileAt(sorted, 0.75),
	}
}

// percentileAt 按位置索引取分位数，sorted 必须已升序
func percentileAt(sorted []float64, fraction float64) float64 {
	index := int(math.Floor(float64(len(sorted)) * fraction))
	if index >= len(sorted) {
		index = len(sorted) - 1
	}
	return sorted[index]
}
