/*
 * @module service/quality/values
 * @description 记录值解释工具，提供空值判定、数值解析、时间解析和列名语义匹配
 * @architecture 分层架构 - 业务服务层
 * @documentReference ai_docs/quality_engine_req.md
 * @stateFlow 无状态转换：原始记录值 -> 类型化值
 * @rules 空值判定统一：nil、空字符串、纯空白字符串均视为空
 * @dependencies github.com/spf13/cast
 * @refs service/quality/profiler.go, service/quality/rules.go
 */

package quality

import (
	"strings"
	"time"

	"github.com/spf13/cast"
)

// isNull 判断记录值是否为空
// nil、空字符串和纯空白字符串统一视为空值
func isNull(value interface{}) bool {
	if value == nil {
		return true
	}
	if s, ok := value.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	return false
}

// parseNumeric 尝试把记录值解析为数值
func parseNumeric(value interface{}) (float64, bool) {
	if isNull(value) {
		return 0, false
	}
	switch value.(type) {
	case bool, time.Time:
		return 0, false
	}
	f, err := cast.ToFloat64E(value)
	if err != nil {
		return 0, false
	}
	return f, true
}

// 常见日期格式，按出现频率排序
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
}

// parseTime 尝试把记录值解析为时间
func parseTime(value interface{}) (time.Time, bool) {
	if isNull(value) {
		return time.Time{}, false
	}
	if t, ok := value.(time.Time); ok {
		return t, true
	}
	s := strings.TrimSpace(cast.ToString(value))
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// nameSegments 把列名拆分为小写语义片段
// 依次按下划线、连字符、空格切分，用于列名语义判定
func nameSegments(name string) []string {
	lower := strings.ToLower(name)
	return strings.FieldsFunc(lower, func(r rune) bool {
		return r == '_' || r == '-' || r == ' ' || r == '.'
	})
}

// nameHasSegment 判断列名是否包含指定语义片段之一
func nameHasSegment(name string, tokens ...string) bool {
	for _, segment := range nameSegments(name) {
		for _, token := range tokens {
			if segment == token {
				return true
			}
		}
	}
	return false
}

// isIdentifierColumn 判断列名是否表示标识符
func isIdentifierColumn(name string) bool {
	lower := strings.ToLower(name)
	if lower == "id" || lower == "uuid" || lower == "key" {
		return true
	}
	return strings.HasSuffix(lower, "_id") || strings.HasSuffix(lower, "_key") ||
		strings.HasSuffix(lower, "_uuid") || nameHasSegment(name, "id", "uuid")
}

// isDateColumn 判断列是否为日期语义列
func isDateColumn(name, declaredType string) bool {
	if declaredType == "date" {
		return true
	}
	return nameHasSegment(name, "date", "time", "timestamp", "created", "updated", "at")
}
