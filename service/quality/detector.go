/*
 * @module service/quality/detector
 * @description 质量问题检测器，将内置规则表独立应用到每一列并产出质量问题列表
 * @architecture 分层架构 - 业务服务层
 * @documentReference ai_docs/quality_engine_req.md
 * @stateFlow 数据集快照 -> 规则匹配 -> 违规统计 -> 问题列表
 * @rules 一列可累计多类问题；完整性问题以总行数为基数，其余以该列非空行数为基数
 * @dependencies quality-service/service/models
 * @refs service/quality/rules.go, service/quality/engine.go
 */

package quality

import (
	"context"
	"sync"

	"quality-service/service/models"
)

// Detector 质量问题检测器
type Detector struct {
	rules []issueRule
}

// NewDetector 创建质量问题检测器实例，使用内置规则表
func NewDetector() *Detector {
	return &Detector{rules: builtinRules}
}

// DetectIssues 对数据集逐列应用规则表
// 列间互相独立，逐列并行执行后按列序聚合，保证输出确定有序
func (d *Detector) DetectIssues(ctx context.Context, ds *models.Dataset) ([]models.QualityIssue, error) {
	if err := ds.Validate(); err != nil {
		return nil, err
	}
	if len(ds.Records) == 0 {
		return []models.QualityIssue{}, nil
	}

	perColumn := make([][]models.QualityIssue, len(ds.Columns))
	var wg sync.WaitGroup
	for i, col := range ds.Columns {
		wg.Add(1)
		go func(i int, col models.ColumnDef) {
			defer wg.Done()
			perColumn[i] = d.detectColumn(col, ds.ColumnValues(col.Name))
		}(i, col)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	issues := make([]models.QualityIssue, 0)
	for _, columnIssues := range perColumn {
		issues = append(issues, columnIssues...)
	}
	return issues, nil
}

// detectColumn 对单列执行所有命中的规则
func (d *Detector) detectColumn(col models.ColumnDef, values []interface{}) []models.QualityIssue {
	var nonNull int64
	for _, v := range values {
		if !isNull(v) {
			nonNull++
		}
	}

	var issues []models.QualityIssue
	for _, rule := range d.rules {
		if !rule.applies(col) {
			continue
		}

		affected := rule.check(values)
		if affected == 0 {
			continue
		}

		base := nonNull
		if rule.baseOnTotal {
			base = int64(len(values))
		}
		if base == 0 {
			continue
		}
		pct := float64(affected) / float64(base) * 100

		severity := severityForPercentage(pct)
		if rule.alwaysHigh {
			severity = models.SeverityHigh
		}

		issues = append(issues, models.QualityIssue{
			Category:     rule.category,
			Severity:     severity,
			Column:       col.Name,
			Description:  rule.describe(col.Name, affected),
			AffectedRows: affected,
			Percentage:   pct,
		})
	}
	return issues
}
