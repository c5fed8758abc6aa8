package formula

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/roach88/xlnarrate/internal/ir"
)

// Equivalent returns the spreadsheet-365 formula for an operation of the
// advanced subset. ok is false for every other kind.
func (c *Compiler) Equivalent(op ir.Operation) (formula string, ok bool) {
	switch o := op.(type) {
	case ir.Filter:
		return c.Filter(o), true
	case ir.Sort:
		return c.Sort(o), true
	case ir.GroupBy:
		return c.GroupBy(o), true
	case ir.Take:
		return c.Take(o), true
	case ir.SelectColumns:
		return c.SelectColumns(o), true
	case ir.DropColumns:
		return c.DropColumns(o), true
	case ir.Aggregate, ir.AddColumn, ir.UpdateColumn, ir.Compute, ir.CreateSheet, ir.Unknown:
		return "", false
	default:
		return "", false
	}
}

// Filter renders =FILTER(t!A:Z, terms). AND terms are joined with "*", OR
// terms with "+".
func (c *Compiler) Filter(op ir.Filter) string {
	at := RefOf(op)
	terms := make([]string, len(op.Conditions))
	for i, cond := range op.Conditions {
		terms[i] = filterTerm(at.Table, cond)
	}
	joined := Ellipsis
	if len(terms) > 0 {
		sep := "*"
		if op.IsOr() {
			sep = "+"
		}
		joined = strings.Join(terms, sep)
	}
	return fmt.Sprintf("=FILTER(%s!%s, %s)", at.Table, c.FullRange(at), joined)
}

// filterTerm renders one boolean condition term over a structured column
// reference t![col].
func filterTerm(table string, cond ir.Condition) string {
	ref := fmt.Sprintf("%s![%s]", table, cond.Column)
	switch op := cond.Operator(); op {
	case "contains":
		return fmt.Sprintf("ISNUMBER(SEARCH(%s, %s))", Quote(ir.ValueText(cond.Value)), ref)
	case "in":
		return fmt.Sprintf("ISNUMBER(MATCH(%s, %s, 0))", ref, arrayConstant(cond.Value))
	default:
		return "(" + ref + formulaOp(op) + literal(cond.Value) + ")"
	}
}

// arrayConstant renders a value as a {a, b} array constant.
func arrayConstant(v ir.Value) string {
	if l, ok := v.(ir.List); ok {
		return literal(l)
	}
	return "{" + literal(v) + "}"
}

// Sort renders =SORT(t!A:Z, MATCH("col", t!1:1, 0), 1|-1). Only the first key
// is represented.
func (c *Compiler) Sort(op ir.Sort) string {
	at := RefOf(op)
	full := c.FullRange(at)
	if len(op.By) == 0 {
		return fmt.Sprintf("=SORT(%s!%s)", at.Table, full)
	}
	key := op.By[0]
	order := "1"
	if key.Descending() {
		order = "-1"
	}
	return fmt.Sprintf("=SORT(%s!%s, %s, %s)", at.Table, full, headerMatch(key.Column, at.Table), order)
}

// GroupBy renders =GROUPBY(t![g], t![a], FUNC) from the first group column and
// the first aggregation.
func (c *Compiler) GroupBy(op ir.GroupBy) string {
	table := ir.TargetTable(op)
	if len(op.Aggregations) == 0 {
		return fmt.Sprintf("=GROUPBY(%s!A:A, %s!B:B, COUNT)", table, table)
	}
	group := "A"
	if len(op.GroupColumns) > 0 {
		group = op.GroupColumns[0]
	}
	agg := op.Aggregations[0]
	return fmt.Sprintf("=GROUPBY(%s![%s], %s![%s], %s)", table, group, table, agg.Column, strings.ToUpper(agg.Function))
}

// Take renders =TAKE(t!A:Z, rows).
func (c *Compiler) Take(op ir.Take) string {
	at := RefOf(op)
	return fmt.Sprintf("=TAKE(%s!%s, %d)", at.Table, c.FullRange(at), op.Rows)
}

// SelectColumns renders =CHOOSECOLS(t!A:Z, i, ...). Each index is the column's
// 1-based position when the table is known, else a header MATCH.
func (c *Compiler) SelectColumns(op ir.SelectColumns) string {
	at := RefOf(op)
	cols, known := c.columns(at)
	indices := make([]string, len(op.Columns))
	for i, col := range op.Columns {
		if pos := slices.Index(cols, col); known && pos >= 0 {
			indices[i] = strconv.Itoa(pos + 1)
		} else {
			indices[i] = headerMatch(col, at.Table)
		}
	}
	return chooseCols(at.Table, c.FullRange(at), indices)
}

// DropColumns renders =CHOOSECOLS(t!A:Z, i, ...) over the complement of the
// dropped columns. When the table is unknown the complement is computed by the
// spreadsheet: FILTER(SEQUENCE(...), ISNA(MATCH(t!1:1, {...}, 0))).
func (c *Compiler) DropColumns(op ir.DropColumns) string {
	at := RefOf(op)
	full := c.FullRange(at)
	cols, known := c.columns(at)
	if !known {
		if len(op.Columns) == 0 {
			return chooseCols(at.Table, full, nil)
		}
		dropped := make([]string, len(op.Columns))
		for i, col := range op.Columns {
			dropped[i] = Quote(col)
		}
		return fmt.Sprintf("=CHOOSECOLS(%s!%s, FILTER(SEQUENCE(1, COLUMNS(%s!%s)), ISNA(MATCH(%s!1:1, {%s}, 0))))",
			at.Table, full, at.Table, full, at.Table, strings.Join(dropped, ", "))
	}

	var indices []string
	for i, col := range cols {
		if !slices.Contains(op.Columns, col) {
			indices = append(indices, strconv.Itoa(i+1))
		}
	}
	return chooseCols(at.Table, full, indices)
}

func chooseCols(table, full string, indices []string) string {
	args := Ellipsis
	if len(indices) > 0 {
		args = strings.Join(indices, ", ")
	}
	return fmt.Sprintf("=CHOOSECOLS(%s!%s, %s)", table, full, args)
}

// Aggregate renders the single-cell formula of an aggregate step:
// =FUNC(t!C:C), or =FUNC(t!B:B, cond, t!C:C) for the *IF variants.
func (c *Compiler) Aggregate(op ir.Aggregate) string {
	at := RefOf(op)
	fn := strings.ToUpper(op.Function)
	valueRange := c.columnRange(at, op.Column)

	if op.IsConditional() && op.ConditionColumn != "" {
		condRange := c.columnRange(at, op.ConditionColumn)
		criteria := literal(op.Condition)
		return fmt.Sprintf("=%s(%s, %s, %s)", fn, condRange, criteria, valueRange)
	}
	return fmt.Sprintf("=%s(%s)", fn, valueRange)
}

// columnRange renders t!C:C for a resolved column, else an INDEX/MATCH that
// selects the whole column by header.
func (c *Compiler) columnRange(at TableRef, column string) string {
	if letter, ok := c.ColumnLetter(at, column); ok {
		return fmt.Sprintf("%s!%s:%s", at.Table, letter, letter)
	}
	return fmt.Sprintf("INDEX(%s!%s, 0, %s)", at.Table, c.FullRange(at), headerMatch(column, at.Table))
}
