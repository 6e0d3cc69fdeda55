/*
 * @module service/models/dataset
 * @description 数据集快照模型定义，质量分析的只读输入
 * @architecture 分层架构 - 数据模型层
 * @documentReference ai_docs/quality_engine_req.md
 * @stateFlow 数据集快照 -> 质量分析 -> 分析结果
 * @rules 数据集为不可变输入，分析过程中禁止修改
 * @dependencies fmt
 * @refs service/quality
 */

package models

import (
	"fmt"
	"strings"
)

// 列声明类型
const (
	ColumnTypeNumeric     = "numeric"
	ColumnTypeCategorical = "categorical"
	ColumnTypeDate        = "date"
)

// ColumnDef 列定义
type ColumnDef struct {
	Name         string `json:"name"`
	DeclaredType string `json:"declared_type"` // numeric, categorical, date
}

// Dataset 数据集快照，质量分析的只读输入
// Records 中每条记录是列名到值的映射，缺失键与 nil 均视为空值
type Dataset struct {
	ID      string                   `json:"id,omitempty"`
	Name    string                   `json:"name,omitempty"`
	Columns []ColumnDef              `json:"columns"`
	Records []map[string]interface{} `json:"records"`
}

// InvalidDatasetError 无效数据集错误，分析直接中止
type InvalidDatasetError struct {
	Reason string
}

func (e *InvalidDatasetError) Error() string {
	return fmt.Sprintf("无效的数据集: %s", e.Reason)
}

// Validate 校验数据集结构
// 无列定义或记录结构缺失视为致命错误；零条记录是合法的空数据集
func (d *Dataset) Validate() error {
	if d == nil {
		return &InvalidDatasetError{Reason: "数据集为空"}
	}
	if len(d.Columns) == 0 {
		return &InvalidDatasetError{Reason: "未定义任何列"}
	}
	if d.Records == nil {
		return &InvalidDatasetError{Reason: "记录结构缺失"}
	}
	seen := make(map[string]bool, len(d.Columns))
	for _, col := range d.Columns {
		if strings.TrimSpace(col.Name) == "" {
			return &InvalidDatasetError{Reason: "存在未命名的列"}
		}
		if seen[col.Name] {
			return &InvalidDatasetError{Reason: fmt.Sprintf("列名 %s 重复", col.Name)}
		}
		seen[col.Name] = true
	}
	return nil
}

// ColumnValues 提取指定列的全部值，记录中缺失该键时以 nil 占位
// 返回的切片是新分配的，调用方可以安全持有
func (d *Dataset) ColumnValues(name string) []interface{} {
	values := make([]interface{}, len(d.Records))
	for i, record := range d.Records {
		values[i] = record[name]
	}
	return values
}
