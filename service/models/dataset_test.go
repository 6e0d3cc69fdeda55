/*
 * @module service/models/dataset_test
 * @description 数据集快照模型单元测试
 * @architecture 测试层 - 模型校验逻辑验证
 * @documentReference .specify/memory/test_plan.md
 * @stateFlow 数据集构造 -> 校验 -> 错误断言
 * @rules 零条记录合法；结构性缺陷致命
 * @dependencies testing, testify
 * @refs dataset.go
 */

package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDatasetValidate(t *testing.T) {
	testCases := []struct {
		name    string
		ds      *Dataset
		wantErr bool
	}{
		{
			name: "合法数据集",
			ds: &Dataset{
				Columns: []ColumnDef{{Name: "a", DeclaredType: ColumnTypeNumeric}},
				Records: []map[string]interface{}{{"a": 1}},
			},
		},
		{
			name: "零条记录合法",
			ds: &Dataset{
				Columns: []ColumnDef{{Name: "a"}},
				Records: []map[string]interface{}{},
			},
		},
		{
			name:    "未定义任何列",
			ds:      &Dataset{Records: []map[string]interface{}{}},
			wantErr: true,
		},
		{
			name:    "记录结构缺失",
			ds:      &Dataset{Columns: []ColumnDef{{Name: "a"}}},
			wantErr: true,
		},
		{
			name: "未命名的列",
			ds: &Dataset{
				Columns: []ColumnDef{{Name: "  "}},
				Records: []map[string]interface{}{},
			},
			wantErr: true,
		},
		{
			name: "列名重复",
			ds: &Dataset{
				Columns: []ColumnDef{{Name: "a"}, {Name: "a"}},
				Records: []map[string]interface{}{},
			},
			wantErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.ds.Validate()
			if tc.wantErr {
				require.Error(t, err)
				var invalidErr *InvalidDatasetError
				assert.ErrorAs(t, err, &invalidErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestColumnValuesMissingKeysAsNil(t *testing.T) {
	ds := &Dataset{
		Columns: []ColumnDef{{Name: "a"}, {Name: "b"}},
		Records: []map[string]interface{}{
			{"a": 1, "b": "x"},
			{"a": 2},
		},
	}

	values := ds.ColumnValues("b")
	require.Len(t, values, 2)
	assert.Equal(t, "x", values[0])
	assert.Nil(t, values[1])
}

func TestSeverityRank(t *testing.T) {
	assert.Equal(t, 3, SeverityRank(SeverityHigh))
	assert.Equal(t, 2, SeverityRank(SeverityMedium))
	assert.Equal(t, 1, SeverityRank(SeverityLow))
	assert.Equal(t, 0, SeverityRank("urgent"))
	assert.Equal(t, 0, SeverityRank(""))
}
