/*
 * @module service/quality/rules
 * @description 内置质量校验规则表，声明式 (列匹配谓词, 值校验器) 组合，覆盖格式、值域、唯一性和类型一致性检查
 * @architecture 分层架构 - 业务服务层
 * @documentReference ai_docs/quality_engine_req.md
 * @stateFlow 列定义 -> 谓词匹配 -> 校验器执行 -> 违规计数
 * @rules 规则的增删是数据变更而非控制流变更；逐条规则决定严重程度映射和百分比基数
 * @dependencies quality-service/service/models, github.com/spf13/cast
 * @refs service/quality/detector.go
 */

package quality

import (
	"fmt"
	"regexp"
	"strings"

	"quality-service/service/models"

	"github.com/spf13/cast"
)

var (
	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	phoneRegex = regexp.MustCompile(`^\+?[0-9][0-9\s\-().]{5,18}[0-9]$`)
	zipRegex   = regexp.MustCompile(`^\d{5}(-\d{4})?$`)
	stateRegex = regexp.MustCompile(`^[A-Z]{2}$`)
	urlRegex   = regexp.MustCompile(`^https?://[^\s]+\.[^\s]+$`)
)

// issueRule 单条质量校验规则
// applies 决定规则是否作用于某列；check 返回该列的违规行数
type issueRule struct {
	name        string
	category    string
	baseOnTotal bool // 百分比基数使用总行数（默认使用非空行数）
	alwaysHigh  bool // 结构关键字段，无论占比一律 high
	applies     func(col models.ColumnDef) bool
	check       func(values []interface{}) int64
	describe    func(column string, affected int64) string
}

// countInvalid 对非空值逐个执行校验，统计不通过的行数
func countInvalid(values []interface{}, valid func(s string) bool) int64 {
	var invalid int64
	for _, v := range values {
		if isNull(v) {
			continue
		}
		if !valid(cast.ToString(v)) {
			invalid++
		}
	}
	return invalid
}

// builtinRules 内置规则表，按列独立求值，一列可命中多条规则
var builtinRules = []issueRule{
	{
		name:        "missing_values",
		category:    models.CategoryCompleteness,
		baseOnTotal: true,
		applies:     func(col models.ColumnDef) bool { return true },
		check: func(values []interface{}) int64 {
			var missing int64
			for _, v := range values {
				if isNull(v) {
					missing++
				}
			}
			return missing
		},
		describe: func(column string, affected int64) string {
			return fmt.Sprintf("列 %s 存在 %d 个空值", column, affected)
		},
	},
	{
		name:     "email_format",
		category: models.CategoryConformity,
		applies:  func(col models.ColumnDef) bool { return nameHasSegment(col.Name, "email", "mail") },
		check: func(values []interface{}) int64 {
			return countInvalid(values, emailRegex.MatchString)
		},
		describe: func(column string, affected int64) string {
			return fmt.Sprintf("列 %s 存在 %d 个格式非法的邮箱地址", column, affected)
		},
	},
	{
		name:     "phone_format",
		category: models.CategoryConformity,
		applies:  func(col models.ColumnDef) bool { return nameHasSegment(col.Name, "phone", "mobile", "tel") },
		check: func(values []interface{}) int64 {
			return countInvalid(values, phoneRegex.MatchString)
		},
		describe: func(column string, affected int64) string {
			return fmt.Sprintf("列 %s 存在 %d 个格式非法的电话号码", column, affected)
		},
	},
	{
		name:     "zip_format",
		category: models.CategoryConformity,
		applies:  func(col models.ColumnDef) bool { return nameHasSegment(col.Name, "zip", "zipcode", "postal") },
		check: func(values []interface{}) int64 {
			return countInvalid(values, zipRegex.MatchString)
		},
		describe: func(column string, affected int64) string {
			return fmt.Sprintf("列 %s 存在 %d 个格式非法的邮政编码", column, affected)
		},
	},
	{
		name:     "state_code",
		category: models.CategoryConformity,
		applies:  func(col models.ColumnDef) bool { return nameHasSegment(col.Name, "state") },
		check: func(values []interface{}) int64 {
			return countInvalid(values, stateRegex.MatchString)
		},
		describe: func(column string, affected int64) string {
			return fmt.Sprintf("列 %s 存在 %d 个非两位州代码的值", column, affected)
		},
	},
	{
		name:     "url_format",
		category: models.CategoryConformity,
		applies:  func(col models.ColumnDef) bool { return nameHasSegment(col.Name, "url", "link", "website") },
		check: func(values []interface{}) int64 {
			return countInvalid(values, urlRegex.MatchString)
		},
		describe: func(column string, affected int64) string {
			return fmt.Sprintf("列 %s 存在 %d 个格式非法的URL", column, affected)
		},
	},
	{
		name:     "name_whitespace",
		category: models.CategoryConformity,
		applies:  func(col models.ColumnDef) bool { return nameHasSegment(col.Name, "name", "firstname", "lastname") },
		check: func(values []interface{}) int64 {
			return countInvalid(values, func(s string) bool {
				return s == strings.TrimSpace(s) && !strings.Contains(s, "  ")
			})
		},
		describe: func(column string, affected int64) string {
			return fmt.Sprintf("列 %s 存在 %d 个含多余空白字符的名称", column, affected)
		},
	},
	{
		name:       "age_range",
		category:   models.CategoryAccuracy,
		alwaysHigh: true,
		applies:    func(col models.ColumnDef) bool { return nameHasSegment(col.Name, "age") },
		check: func(values []interface{}) int64 {
			var invalid int64
			for _, v := range values {
				f, ok := parseNumeric(v)
				if !ok {
					continue
				}
				if f < 0 || f > 150 {
					invalid++
				}
			}
			return invalid
		},
		describe: func(column string, affected int64) string {
			return fmt.Sprintf("列 %s 存在 %d 个超出 [0,150] 的年龄值", column, affected)
		},
	},
	{
		name:     "percentage_range",
		category: models.CategoryValidity,
		applies: func(col models.ColumnDef) bool {
			return nameHasSegment(col.Name, "percent", "percentage", "pct")
		},
		check: func(values []interface{}) int64 {
			var invalid int64
			for _, v := range values {
				f, ok := parseNumeric(v)
				if !ok {
					continue
				}
				if f < 0 || f > 100 {
					invalid++
				}
			}
			return invalid
		},
		describe: func(column string, affected int64) string {
			return fmt.Sprintf("列 %s 存在 %d 个超出 [0,100] 的百分比值", column, affected)
		},
	},
	{
		name:     "negative_amount",
		category: models.CategoryValidity,
		applies: func(col models.ColumnDef) bool {
			return nameHasSegment(col.Name, "amount", "price", "cost", "salary", "balance", "revenue", "fee")
		},
		check: func(values []interface{}) int64 {
			var invalid int64
			for _, v := range values {
				f, ok := parseNumeric(v)
				if !ok {
					continue
				}
				if f < 0 {
					invalid++
				}
			}
			return invalid
		},
		describe: func(column string, affected int64) string {
			return fmt.Sprintf("列 %s 存在 %d 个为负的金额值", column, affected)
		},
	},
	{
		name:       "duplicate_identifiers",
		category:   models.CategoryUniqueness,
		alwaysHigh: true,
		applies:    func(col models.ColumnDef) bool { return isIdentifierColumn(col.Name) },
		check: func(values []interface{}) int64 {
			seen := make(map[string]int64)
			for _, v := range values {
				if isNull(v) {
					continue
				}
				seen[cast.ToString(v)]++
			}
			var duplicated int64
			for _, count := range seen {
				if count > 1 {
					duplicated += count - 1
				}
			}
			return duplicated
		},
		describe: func(column string, affected int64) string {
			return fmt.Sprintf("标识列 %s 存在 %d 个重复值", column, affected)
		},
	},
	{
		name:     "non_numeric_values",
		category: models.CategoryConsistency,
		applies:  func(col models.ColumnDef) bool { return col.DeclaredType == models.ColumnTypeNumeric },
		check: func(values []interface{}) int64 {
			var invalid int64
			for _, v := range values {
				if isNull(v) {
					continue
				}
				if _, ok := parseNumeric(v); !ok {
					invalid++
				}
			}
			return invalid
		},
		describe: func(column string, affected int64) string {
			return fmt.Sprintf("数值列 %s 存在 %d 个无法解析为数值的值", column, affected)
		},
	},
}

// severityForPercentage 按违规占比映射严重程度
// 超过 20% 为 high，超过 10% 为 medium，其余为 low
func severityForPercentage(pct float64) string {
	if pct > 20 {
		return models.SeverityHigh
	}
	if pct > 10 {
		return models.SeverityMedium
	}
	return models.SeverityLow
}
