package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateCleanPlan(t *testing.T) {
	ops, err := UnmarshalOperations([]byte(`[
		{"type": "aggregate", "table": "t", "function": "sum", "column": "金额", "as_var": "total"},
		{"type": "compute", "expression": {"op": "*", "left": {"var": "total"}, "right": 2}, "as_var": "double"},
		{"type": "add_column", "table": "t", "name": "占比", "formula": {"op": "/", "left": {"col": "金额"}, "right": {"var": "total"}}},
		{"type": "create_sheet", "name": "汇总", "output": {"type": "new_sheet", "name": "汇总"}}
	]`))
	require.NoError(t, err)

	assert.Empty(t, Validate(ops))
}

func TestValidateReportsIssues(t *testing.T) {
	ops, err := UnmarshalOperations([]byte(`[
		{"type": "aggregate", "table": "t", "function": "MODE", "column": "x"},
		{"type": "aggregate", "table": "t", "function": "SUMIF", "column": "x"},
		{"type": "compute", "expression": {"op": "+", "left": {"var": "later"}, "right": {"bogus": 1}}, "as_var": "later"},
		{"type": "filter", "table": "t", "conditions": []},
		{"type": "take", "rows": 0},
		{"type": "update_column", "table": "t", "column": "x"},
		{"type": "create_sheet", "name": "s", "source": {"type": "link"}},
		{"type": "sort", "table": "t", "by": [{"column": "x"}], "output": {"type": "replace"}},
		{"type": "pivot", "table": "t"}
	]`))
	require.NoError(t, err)

	issues := Validate(ops)

	var codes []string
	for _, is := range issues {
		codes = append(codes, is.Code)
	}
	assert.Equal(t, []string{
		ErrUnknownFunction,    // step 1
		ErrMissingCondition,   // step 2
		ErrUnresolvedVariable, // step 3: bound only after the expression
		ErrMalformedExpr,      // step 3
		ErrEmptyList,          // step 4
		ErrMissingTable,       // step 5
		ErrZeroRows,           // step 5
		ErrMissingExpr,        // step 6
		ErrInvalidSource,      // step 7
		ErrInvalidOutput,      // step 8
		ErrUnknownKind,        // step 9
	}, codes)

	assert.Equal(t, 3, issues[2].Step)
	assert.Equal(t, "expression", issues[2].Field)
	assert.Equal(t, `[E120] step 9: type: unknown operation type "pivot"`, issues[len(issues)-1].Error())
}
