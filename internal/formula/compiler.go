package formula

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/roach88/xlnarrate/internal/ir"
	"github.com/roach88/xlnarrate/internal/lookup"
)

// RowPlaceholder marks the row in row-relative formula templates.
const RowPlaceholder = "{row}"

// Ellipsis stands in for anything that cannot be rendered.
const Ellipsis = "..."

// TableRef names the table an expression or operation is evaluated against.
type TableRef struct {
	FileID string
	Table  string
}

// RefOf returns the TableRef of an operation.
func RefOf(op ir.Operation) TableRef {
	return TableRef{FileID: op.Meta().FileID, Table: ir.TargetTable(op)}
}

// Compiler renders IR into formula text, resolving column letters through a
// Lookup. A Compiler is immutable and safe for concurrent use.
type Compiler struct {
	lookup lookup.Lookup
	opts   Options
}

// NewCompiler creates a Compiler. A nil Lookup resolves nothing.
func NewCompiler(l lookup.Lookup, opts Options) *Compiler {
	return &Compiler{lookup: l, opts: opts.withDefaults()}
}

// Options returns the effective options.
func (c *Compiler) Options() Options {
	return c.opts
}

// columns resolves the table's columns.
func (c *Compiler) columns(at TableRef) ([]string, bool) {
	return lookup.Columns(c.lookup, at.FileID, at.Table)
}

// ColumnLetter resolves a column to its letter by position. ok is false when
// the table or the column is unknown.
func (c *Compiler) ColumnLetter(at TableRef, column string) (string, bool) {
	cols, ok := c.columns(at)
	if !ok {
		return "", false
	}
	idx := slices.Index(cols, column)
	if idx < 0 {
		return "", false
	}
	letter, err := ColumnLetter(idx)
	if err != nil {
		return "", false
	}
	return letter, true
}

// FullRange returns the whole-table range for at, e.g. "A:Z".
func (c *Compiler) FullRange(at TableRef) string {
	if c.opts.FitToTable {
		if cols, ok := c.columns(at); ok {
			return fitRange(c.opts.FullRange, len(cols))
		}
	}
	return c.opts.FullRange
}

// Compile renders expr as a row-relative formula template (without the
// leading "="). Column references resolve against at.
func (c *Compiler) Compile(expr ir.Expression, at TableRef) string {
	switch e := expr.(type) {
	case nil:
		return Ellipsis
	case ir.Literal:
		return literal(e.Value)
	case ir.ColumnRef:
		if letter, ok := c.ColumnLetter(at, e.Column); ok {
			return letter + RowPlaceholder
		}
		return fmt.Sprintf("INDEX(%s!%s, %s, %s)", at.Table, c.FullRange(at), RowPlaceholder, headerMatch(e.Column, at.Table))
	case ir.VarRef:
		return "${" + e.Name + "}"
	case ir.BinaryOp:
		return "(" + c.Compile(e.Left, at) + " " + formulaOp(e.Op) + " " + c.Compile(e.Right, at) + ")"
	case ir.FuncCall:
		args := make([]string, len(e.Args))
		for i, a := range e.Args {
			args[i] = c.Compile(a, at)
		}
		return e.Func + "(" + strings.Join(args, ", ") + ")"
	case ir.Malformed:
		return Ellipsis
	default:
		return Ellipsis
	}
}

// Instantiate substitutes row into a formula template.
func Instantiate(template string, row int) string {
	return strings.ReplaceAll(template, RowPlaceholder, strconv.Itoa(row))
}

// Cell renders expr as a complete formula for the options' sample row,
// e.g. "=(C2 * 1.13)".
func (c *Compiler) Cell(expr ir.Expression, at TableRef) string {
	return "=" + Instantiate(c.Compile(expr, at), c.opts.SampleRow)
}

// CollectFunctions returns the sorted, de-duplicated function names used in
// expr, recursing through function arguments and operator operands.
func CollectFunctions(expr ir.Expression) []string {
	seen := make(map[string]bool)
	ir.Walk(expr, func(n ir.Expression) bool {
		if f, ok := n.(ir.FuncCall); ok && f.Func != "" {
			seen[f.Func] = true
		}
		return true
	})
	return slices.Sorted(maps.Keys(seen))
}

// Describe renders expr for prose: literals as plain text, variables as
// ${name}, operators as (left op right), calls as FUNC(args).
func Describe(expr ir.Expression) string {
	switch e := expr.(type) {
	case nil:
		return Ellipsis
	case ir.Literal:
		return ir.ValueText(e.Value)
	case ir.ColumnRef:
		return "「" + e.Column + "」"
	case ir.VarRef:
		return "${" + e.Name + "}"
	case ir.BinaryOp:
		return "(" + Describe(e.Left) + " " + e.Op + " " + Describe(e.Right) + ")"
	case ir.FuncCall:
		args := make([]string, len(e.Args))
		for i, a := range e.Args {
			args[i] = Describe(a)
		}
		return e.Func + "(" + strings.Join(args, ", ") + ")"
	case ir.Malformed:
		return Ellipsis
	default:
		return Ellipsis
	}
}

// literal renders a value as formula text.
func literal(v ir.Value) string {
	switch val := v.(type) {
	case nil, ir.Null:
		return `""`
	case ir.String:
		return Quote(string(val))
	case ir.Number, ir.Bool:
		return val.String()
	case ir.List:
		items := make([]string, len(val))
		for i, item := range val {
			items[i] = literal(item)
		}
		return "{" + strings.Join(items, ", ") + "}"
	default:
		return Quote(v.String())
	}
}

// Quote renders s as a formula string literal, doubling embedded quotes.
func Quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// formulaOp maps IR comparison operators to spreadsheet spelling.
func formulaOp(op string) string {
	switch op {
	case "==":
		return "="
	case "!=":
		return "<>"
	default:
		return op
	}
}

// headerMatch renders MATCH("col", t!1:1, 0).
func headerMatch(column, table string) string {
	return fmt.Sprintf("MATCH(%s, %s!1:1, 0)", Quote(column), table)
}
