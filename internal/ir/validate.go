package ir

import (
	"fmt"
	"strings"
)

// Validation codes (E120-E139). Issues never block narration: every one of
// them degrades to a fallback rendering. They exist so a planner's output can
// be linted before it reaches users.
const (
	ErrUnknownKind        = "E120" // type not in the catalog
	ErrMissingTable       = "E121" // table (or create_sheet name) absent
	ErrMalformedExpr      = "E122" // expression node could not be interpreted
	ErrMissingExpr        = "E123" // formula/expression absent
	ErrUnknownFunction    = "E124" // aggregate function not recognized
	ErrMissingCondition   = "E125" // *IF aggregate without condition_column
	ErrEmptyList          = "E126" // conditions/by/columns/group_columns empty
	ErrInvalidOutput      = "E127" // output.type not in_place/new_sheet
	ErrInvalidSource      = "E128" // create_sheet source type unknown
	ErrUnresolvedVariable = "E129" // var reference not bound by an earlier step
	ErrZeroRows           = "E130" // take with rows = 0
)

// AggregateFunctions lists the functions an aggregate step may use.
var AggregateFunctions = []string{
	"SUM", "COUNT", "COUNTA", "AVERAGE", "MIN", "MAX", "MEDIAN",
	"SUMIF", "COUNTIF", "AVERAGEIF",
}

// ValidationIssue describes one lint finding on an operation list.
type ValidationIssue struct {
	Step    int    `json:"step"` // 1-based
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationIssue) Error() string {
	return fmt.Sprintf("[%s] step %d: %s: %s", e.Code, e.Step, e.Field, e.Message)
}

// Validate lints an operation list. Returns all issues found (does not
// fail-fast), in step order.
func Validate(ops []Operation) []ValidationIssue {
	var issues []ValidationIssue
	bound := make(map[string]bool)

	for i, op := range ops {
		step := i + 1
		add := func(field, code, format string, args ...any) {
			issues = append(issues, ValidationIssue{
				Step:    step,
				Field:   field,
				Message: fmt.Sprintf(format, args...),
				Code:    code,
			})
		}

		if TargetTable(op) == "" {
			if _, ok := op.(Compute); !ok {
				add("table", ErrMissingTable, "no table given")
			}
		}
		if out := op.Meta().Output; out != nil && out.Type != OutputInPlace && out.Type != OutputNewSheet {
			add("output.type", ErrInvalidOutput, "unknown output type %q", out.Type)
		}

		checkExpr := func(field string, e Expression) {
			if e == nil {
				add(field, ErrMissingExpr, "expression is missing")
				return
			}
			Walk(e, func(n Expression) bool {
				switch n := n.(type) {
				case Malformed:
					add(field, ErrMalformedExpr, "unrecognized expression node %s", n.Raw)
				case VarRef:
					if !bound[n.Name] {
						add(field, ErrUnresolvedVariable, "variable %q is not produced by an earlier step", n.Name)
					}
				}
				return true
			})
		}

		switch o := op.(type) {
		case Aggregate:
			if !isAggregateFunction(o.Function) {
				add("function", ErrUnknownFunction, "unknown aggregate function %q", o.Function)
			}
			if o.IsConditional() && o.ConditionColumn == "" {
				add("condition_column", ErrMissingCondition, "%s requires condition_column", strings.ToUpper(o.Function))
			}
			if o.AsVar != "" {
				bound[o.AsVar] = true
			}
		case AddColumn:
			checkExpr("formula", o.Formula)
		case UpdateColumn:
			checkExpr("formula", o.Formula)
		case Compute:
			checkExpr("expression", o.Expression)
			if o.AsVar != "" {
				bound[o.AsVar] = true
			}
		case Filter:
			if len(o.Conditions) == 0 {
				add("conditions", ErrEmptyList, "filter has no conditions")
			}
		case Sort:
			if len(o.By) == 0 {
				add("by", ErrEmptyList, "sort has no keys")
			}
		case GroupBy:
			if len(o.GroupColumns) == 0 {
				add("group_columns", ErrEmptyList, "group_by has no group columns")
			}
		case Take:
			if o.Rows == 0 {
				add("rows", ErrZeroRows, "rows is 0; only the header row is kept")
			}
		case SelectColumns:
			if len(o.Columns) == 0 {
				add("columns", ErrEmptyList, "no columns to keep")
			}
		case DropColumns:
			if len(o.Columns) == 0 {
				add("columns", ErrEmptyList, "no columns to drop")
			}
		case CreateSheet:
			if st := o.SourceType(); st != SourceCopy && st != SourceEmpty {
				add("source.type", ErrInvalidSource, "unknown source type %q", st)
			}
		case Unknown:
			add("type", ErrUnknownKind, "unknown operation type %q", o.Type)
		}
	}

	return issues
}

func isAggregateFunction(fn string) bool {
	fn = strings.ToUpper(fn)
	for _, f := range AggregateFunctions {
		if f == fn {
			return true
		}
	}
	return false
}
