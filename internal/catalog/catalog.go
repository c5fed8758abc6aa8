// Package catalog holds the static per-kind metadata of the operation
// catalog: display labels, the advanced subset that gets a spreadsheet-365
// formula equivalent, and aggregate-function display names.
package catalog

import (
	"strings"

	"github.com/roach88/xlnarrate/internal/ir"
)

// GenericLabel is shown for operation kinds outside the catalog.
const GenericLabel = "Excel 操作"

// GenericDescription is the fallback description for unknown kinds.
const GenericDescription = "执行操作"

// Entry is the catalog metadata for one operation kind.
type Entry struct {
	Kind     ir.Kind
	Label    string
	Advanced bool // has a spreadsheet-365 dynamic-array equivalent
}

var entries = map[ir.Kind]Entry{
	ir.KindAggregate:     {Kind: ir.KindAggregate, Label: "聚合计算"},
	ir.KindAddColumn:     {Kind: ir.KindAddColumn, Label: "新增列"},
	ir.KindUpdateColumn:  {Kind: ir.KindUpdateColumn, Label: "更新列"},
	ir.KindCompute:       {Kind: ir.KindCompute, Label: "标量计算"},
	ir.KindFilter:        {Kind: ir.KindFilter, Label: "筛选数据", Advanced: true},
	ir.KindSort:          {Kind: ir.KindSort, Label: "排序", Advanced: true},
	ir.KindGroupBy:       {Kind: ir.KindGroupBy, Label: "分组统计", Advanced: true},
	ir.KindTake:          {Kind: ir.KindTake, Label: "取前/后 N 行", Advanced: true},
	ir.KindCreateSheet:   {Kind: ir.KindCreateSheet, Label: "创建工作表"},
	ir.KindSelectColumns: {Kind: ir.KindSelectColumns, Label: "选择列", Advanced: true},
	ir.KindDropColumns:   {Kind: ir.KindDropColumns, Label: "删除列", Advanced: true},
}

// Lookup returns the entry for k. ok is false for kinds outside the catalog.
func Lookup(k ir.Kind) (Entry, bool) {
	e, ok := entries[k]
	return e, ok
}

// Label returns the display label for k, or GenericLabel.
func Label(k ir.Kind) string {
	if e, ok := entries[k]; ok {
		return e.Label
	}
	return GenericLabel
}

// IsAdvanced reports whether k belongs to the advanced subset.
func IsAdvanced(k ir.Kind) bool {
	return entries[k].Advanced
}

var aggregateNames = map[string]string{
	"SUM":       "求和",
	"COUNT":     "计数",
	"COUNTA":    "非空计数",
	"AVERAGE":   "平均值",
	"MIN":       "最小值",
	"MAX":       "最大值",
	"MEDIAN":    "中位数",
	"SUMIF":     "条件求和",
	"COUNTIF":   "条件计数",
	"AVERAGEIF": "条件平均值",
}

// AggregateName returns the display name of an aggregate function. Lookup is
// case-insensitive; unknown functions return the raw name.
func AggregateName(fn string) string {
	if name, ok := aggregateNames[strings.ToUpper(fn)]; ok {
		return name
	}
	return fn
}

// OrderName returns the display name of a sort direction.
func OrderName(desc bool) string {
	if desc {
		return "降序"
	}
	return "升序"
}

// LogicWord returns the conjunction used to join filter conditions in prose.
func LogicWord(or bool) string {
	if or {
		return "或"
	}
	return "且"
}
