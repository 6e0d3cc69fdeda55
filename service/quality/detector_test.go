/*
 * @module service/quality/detector_test
 * @description 质量问题检测器单元测试
 * @architecture 测试层 - 规则表逐条验证
 * @documentReference .specify/memory/test_plan.md
 * @stateFlow 数据集输入 -> 规则执行 -> 问题列表断言
 * @rules 覆盖各内置规则的命中条件、严重程度映射和百分比基数
 * @dependencies testing, testify
 * @refs detector.go, rules.go
 */

package quality

import (
	"context"
	"fmt"
	"testing"

	"quality-service/service/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func detectOn(t *testing.T, ds *models.Dataset) []models.QualityIssue {
	t.Helper()
	issues, err := NewDetector().DetectIssues(context.Background(), ds)
	require.NoError(t, err)
	return issues
}

func issuesOfCategory(issues []models.QualityIssue, category string) []models.QualityIssue {
	var matched []models.QualityIssue
	for _, issue := range issues {
		if issue.Category == category {
			matched = append(matched, issue)
		}
	}
	return matched
}

func TestDetectAgeRangeIssue(t *testing.T) {
	ds := buildDataset(
		[]models.ColumnDef{{Name: "age", DeclaredType: models.ColumnTypeNumeric}},
		[]map[string]interface{}{
			{"age": 25},
			{"age": 30},
			{"age": -5},
			{"age": 45},
		},
	)

	issues := detectOn(t, ds)
	accuracy := issuesOfCategory(issues, models.CategoryAccuracy)
	require.Len(t, accuracy, 1)
	assert.Equal(t, int64(1), accuracy[0].AffectedRows)
	assert.Equal(t, "age", accuracy[0].Column)
	// 年龄越界属于结构关键问题，无论占比一律 high
	assert.Equal(t, models.SeverityHigh, accuracy[0].Severity)
	assert.InDelta(t, 25.0, accuracy[0].Percentage, 1e-9)
}

func TestSeverityMapping(t *testing.T) {
	testCases := []struct {
		name         string
		invalidCount int
		wantSeverity string
	}{
		{name: "5%占比为low", invalidCount: 1, wantSeverity: models.SeverityLow},
		{name: "15%占比为medium", invalidCount: 3, wantSeverity: models.SeverityMedium},
		{name: "25%占比为high", invalidCount: 5, wantSeverity: models.SeverityHigh},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			records := make([]map[string]interface{}, 0, 20)
			for i := 0; i < tc.invalidCount; i++ {
				records = append(records, map[string]interface{}{"email": "不是邮箱"})
			}
			for i := tc.invalidCount; i < 20; i++ {
				records = append(records, map[string]interface{}{"email": fmt.Sprintf("user%d@example.com", i)})
			}
			ds := buildDataset(
				[]models.ColumnDef{{Name: "email", DeclaredType: models.ColumnTypeCategorical}},
				records,
			)

			conformity := issuesOfCategory(detectOn(t, ds), models.CategoryConformity)
			require.Len(t, conformity, 1)
			assert.Equal(t, int64(tc.invalidCount), conformity[0].AffectedRows)
			assert.Equal(t, tc.wantSeverity, conformity[0].Severity)
		})
	}
}

func TestMissingValuesBaseOnTotalRows(t *testing.T) {
	// 完整性问题用总行数做百分比基数，其余规则用非空行数
	ds := buildDataset(
		[]models.ColumnDef{{Name: "email", DeclaredType: models.ColumnTypeCategorical}},
		[]map[string]interface{}{
			{"email": "a@example.com"},
			{"email": nil},
			{"email": nil},
			{"email": "坏格式"},
		},
	)

	issues := detectOn(t, ds)

	completeness := issuesOfCategory(issues, models.CategoryCompleteness)
	require.Len(t, completeness, 1)
	assert.Equal(t, int64(2), completeness[0].AffectedRows)
	assert.InDelta(t, 50.0, completeness[0].Percentage, 1e-9)

	conformity := issuesOfCategory(issues, models.CategoryConformity)
	require.Len(t, conformity, 1)
	assert.Equal(t, int64(1), conformity[0].AffectedRows)
	assert.InDelta(t, 50.0, conformity[0].Percentage, 1e-9)
}

func TestDuplicateIdentifiersAlwaysHigh(t *testing.T) {
	records := make([]map[string]interface{}, 0, 50)
	for i := 0; i < 48; i++ {
		records = append(records, map[string]interface{}{"order_id": i})
	}
	// 两行重复已有标识，重复行数为 2，占比仅 4%
	records = append(records, map[string]interface{}{"order_id": 0})
	records = append(records, map[string]interface{}{"order_id": 1})

	ds := buildDataset(
		[]models.ColumnDef{{Name: "order_id", DeclaredType: models.ColumnTypeNumeric}},
		records,
	)

	uniqueness := issuesOfCategory(detectOn(t, ds), models.CategoryUniqueness)
	require.Len(t, uniqueness, 1)
	assert.Equal(t, int64(2), uniqueness[0].AffectedRows)
	assert.Equal(t, models.SeverityHigh, uniqueness[0].Severity)
}

func TestNonNumericValuesRule(t *testing.T) {
	ds := buildDataset(
		[]models.ColumnDef{{Name: "quantity", DeclaredType: models.ColumnTypeNumeric}},
		[]map[string]interface{}{
			{"quantity": 1},
			{"quantity": "2"},
			{"quantity": "很多"},
			{"quantity": true},
		},
	)

	consistency := issuesOfCategory(detectOn(t, ds), models.CategoryConsistency)
	require.Len(t, consistency, 1)
	assert.Equal(t, int64(2), consistency[0].AffectedRows)
	assert.InDelta(t, 50.0, consistency[0].Percentage, 1e-9)
}

func TestMultipleRulesOnOneColumn(t *testing.T) {
	// 同一列可以同时累计缺失值和格式问题
	ds := buildDataset(
		[]models.ColumnDef{{Name: "phone", DeclaredType: models.ColumnTypeCategorical}},
		[]map[string]interface{}{
			{"phone": "+86 138-0013-8000"},
			{"phone": nil},
			{"phone": "不是电话"},
		},
	)

	issues := detectOn(t, ds)
	assert.Len(t, issuesOfCategory(issues, models.CategoryCompleteness), 1)
	assert.Len(t, issuesOfCategory(issues, models.CategoryConformity), 1)
}

func TestCleanAndEmptyDatasets(t *testing.T) {
	t.Run("干净数据集无问题", func(t *testing.T) {
		ds := buildDataset(
			[]models.ColumnDef{
				{Name: "user_id", DeclaredType: models.ColumnTypeNumeric},
				{Name: "email", DeclaredType: models.ColumnTypeCategorical},
			},
			[]map[string]interface{}{
				{"user_id": 1, "email": "a@example.com"},
				{"user_id": 2, "email": "b@example.com"},
			},
		)
		assert.Empty(t, detectOn(t, ds))
	})

	t.Run("空数据集不产出问题", func(t *testing.T) {
		ds := buildDataset(
			[]models.ColumnDef{{Name: "age", DeclaredType: models.ColumnTypeNumeric}},
			[]map[string]interface{}{},
		)
		issues := detectOn(t, ds)
		assert.NotNil(t, issues)
		assert.Empty(t, issues)
	})
}
