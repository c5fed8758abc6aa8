package narrate

import (
	"fmt"
	"strings"

	"github.com/roach88/xlnarrate/internal/catalog"
	"github.com/roach88/xlnarrate/internal/formula"
	"github.com/roach88/xlnarrate/internal/ir"
)

// kindText holds the per-kind prose renderers of the strategy document.
type kindText struct {
	describe func(ir.Operation) string   // fallback description
	details  func(ir.Operation) []string // detail lines, may be empty
	method   func(ir.Operation) string   // "方法" line
}

// typed adapts a renderer over a concrete operation type.
func typed[T ir.Operation, R any](f func(T) R) func(ir.Operation) R {
	return func(op ir.Operation) R {
		return f(op.(T))
	}
}

func noDetails(ir.Operation) []string { return nil }

func fixed(s string) func(ir.Operation) string {
	return func(ir.Operation) string { return s }
}

var kindTexts = map[ir.Kind]kindText{
	ir.KindAggregate: {
		describe: typed(func(o ir.Aggregate) string {
			return fmt.Sprintf("计算 %s 表「%s」列的%s", o.Table, o.Column, catalog.AggregateName(o.Function))
		}),
		details: typed(func(o ir.Aggregate) []string {
			if o.ConditionColumn == "" || o.Condition == nil {
				return nil
			}
			return []string{fmt.Sprintf("条件：%s = %s", o.ConditionColumn, o.Condition.String())}
		}),
		method: typed(func(o ir.Aggregate) string {
			return o.Function + " 函数"
		}),
	},
	ir.KindAddColumn: {
		describe: typed(func(o ir.AddColumn) string {
			return fmt.Sprintf("在 %s 表中新增「%s」列", o.Table, o.Name)
		}),
		details: noDetails,
		method:  typed(func(o ir.AddColumn) string { return formulaMethod(o.Formula) }),
	},
	ir.KindUpdateColumn: {
		describe: typed(func(o ir.UpdateColumn) string {
			return fmt.Sprintf("更新 %s 表中「%s」列的值", o.Table, o.Column)
		}),
		details: noDetails,
		method:  typed(func(o ir.UpdateColumn) string { return formulaMethod(o.Formula) }),
	},
	ir.KindCompute: {
		describe: typed(func(o ir.Compute) string {
			return "计算得到 " + o.AsVar
		}),
		details: noDetails,
		method:  fixed("标量运算"),
	},
	ir.KindFilter: {
		describe: typed(func(o ir.Filter) string {
			return fmt.Sprintf("筛选 %s 表中符合条件的数据", o.Table)
		}),
		details: typed(func(o ir.Filter) []string {
			conds := make([]string, len(o.Conditions))
			for i, c := range o.Conditions {
				conds[i] = fmt.Sprintf("%s %s %s", c.Column, c.Operator(), proseValue(c.Value))
			}
			sep := " " + catalog.LogicWord(o.IsOr()) + " "
			return []string{"条件：" + strings.Join(conds, sep)}
		}),
		method: typed(func(o ir.Filter) string {
			logic := "AND 逻辑"
			if o.IsOr() {
				logic = "OR 逻辑"
			}
			return "FILTER 函数（" + logic + "）"
		}),
	},
	ir.KindSort: {
		describe: typed(func(o ir.Sort) string {
			return fmt.Sprintf("对 %s 表进行排序", o.Table)
		}),
		details: typed(func(o ir.Sort) []string {
			rules := make([]string, len(o.By))
			for i, k := range o.By {
				rules[i] = fmt.Sprintf("%s（%s）", k.Column, catalog.OrderName(k.Descending()))
			}
			return []string{"排序列：" + strings.Join(rules, ", ")}
		}),
		method: typed(func(o ir.Sort) string {
			if len(o.By) > 1 {
				return "SORT 函数（多列排序）"
			}
			desc := len(o.By) == 1 && o.By[0].Descending()
			return "SORT 函数（" + catalog.OrderName(desc) + "）"
		}),
	},
	ir.KindGroupBy: {
		describe: typed(func(o ir.GroupBy) string {
			return fmt.Sprintf("按 %s 分组统计 %s 表", strings.Join(o.GroupColumns, ", "), o.Table)
		}),
		details: typed(func(o ir.GroupBy) []string {
			aggs := make([]string, len(o.Aggregations))
			for i, a := range o.Aggregations {
				aggs[i] = fmt.Sprintf("%s 的%s", a.Column, catalog.AggregateName(a.Function))
			}
			return []string{
				"分组列：" + strings.Join(o.GroupColumns, ", "),
				"计算：" + strings.Join(aggs, ", "),
			}
		}),
		method: fixed("GROUPBY 函数"),
	},
	ir.KindTake: {
		describe: typed(func(o ir.Take) string {
			if o.FromStart() {
				return fmt.Sprintf("从 %s 表取前 %d 行", o.Table, o.Count())
			}
			return fmt.Sprintf("从 %s 表取后 %d 行", o.Table, o.Count())
		}),
		details: noDetails,
		method:  fixed("TAKE 函数"),
	},
	ir.KindSelectColumns: {
		describe: typed(func(o ir.SelectColumns) string {
			return fmt.Sprintf("从 %s 表中选择列：%s", o.Table, strings.Join(o.Columns, ", "))
		}),
		details: typed(func(o ir.SelectColumns) []string {
			return []string{"保留列：" + strings.Join(o.Columns, ", ")}
		}),
		method: fixed("CHOOSECOLS 函数"),
	},
	ir.KindDropColumns: {
		describe: typed(func(o ir.DropColumns) string {
			return fmt.Sprintf("从 %s 表中删除列：%s", o.Table, strings.Join(o.Columns, ", "))
		}),
		details: typed(func(o ir.DropColumns) []string {
			return []string{"删除列：" + strings.Join(o.Columns, ", ")}
		}),
		method: fixed("CHOOSECOLS 函数"),
	},
	ir.KindCreateSheet: {
		describe: typed(func(o ir.CreateSheet) string {
			return "创建新工作表「" + o.Name + "」"
		}),
		details: noDetails,
		method: typed(func(o ir.CreateSheet) string {
			if o.SourceType() == ir.SourceCopy {
				return "复制工作表"
			}
			return "新建工作表"
		}),
	},
}

// unknownText renders operations outside the catalog.
var unknownText = kindText{
	describe: fixed(catalog.GenericDescription),
	details:  noDetails,
	method:   fixed(catalog.GenericLabel),
}

// textFor returns the renderers for op's kind. Unknown operations, and an
// operation whose kind string collides with a known kind but whose type does
// not, use unknownText.
func textFor(op ir.Operation) kindText {
	if _, ok := op.(ir.Unknown); ok {
		return unknownText
	}
	if t, ok := kindTexts[op.Kind()]; ok {
		return t
	}
	return unknownText
}

// description returns the author-supplied description or the kind fallback.
func description(op ir.Operation) string {
	if d := op.Meta().Description; d != "" {
		return d
	}
	return textFor(op).describe(op)
}

// formulaMethod names the functions an expression uses, e.g. "ROUND, SUM 函数".
func formulaMethod(e ir.Expression) string {
	if funcs := formula.CollectFunctions(e); len(funcs) > 0 {
		return strings.Join(funcs, ", ") + " 函数"
	}
	return "公式计算"
}

// proseValue renders a condition value for prose: strings quoted, lists
// bracketed, everything else as text.
func proseValue(v ir.Value) string {
	switch val := v.(type) {
	case ir.String:
		return `"` + string(val) + `"`
	case ir.List:
		items := make([]string, len(val))
		for i, item := range val {
			items[i] = proseValue(item)
		}
		return "[" + strings.Join(items, ", ") + "]"
	default:
		return ir.ValueText(v)
	}
}
