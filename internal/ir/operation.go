package ir

import (
	"encoding/json"
	"strings"
)

// Kind is the operation discriminator carried in the "type" JSON field.
type Kind string

// Operation kinds. The catalog is closed: adding a kind means adding a struct
// below, a case to every exhaustive switch, and an entry in decoders.
const (
	KindAggregate     Kind = "aggregate"
	KindAddColumn     Kind = "add_column"
	KindUpdateColumn  Kind = "update_column"
	KindCompute       Kind = "compute"
	KindFilter        Kind = "filter"
	KindSort          Kind = "sort"
	KindGroupBy       Kind = "group_by"
	KindTake          Kind = "take"
	KindSelectColumns Kind = "select_columns"
	KindDropColumns   Kind = "drop_columns"
	KindCreateSheet   Kind = "create_sheet"
)

// Kinds lists every known kind in catalog order.
var Kinds = []Kind{
	KindAggregate,
	KindAddColumn,
	KindUpdateColumn,
	KindCompute,
	KindFilter,
	KindSort,
	KindGroupBy,
	KindTake,
	KindCreateSheet,
	KindSelectColumns,
	KindDropColumns,
}

// Operation is a sealed interface over the closed set of table operations.
//
// This is a sealed interface - only types in this package implement it.
// The marker method pattern prevents external implementations and enables
// exhaustive type switches in the narrators.
type Operation interface {
	operationNode() // Marker method - seals interface to this package

	// Kind returns the operation discriminator.
	Kind() Kind

	// Meta returns the fields shared by every operation.
	Meta() Common
}

// OutputType says where an operation writes its result.
type OutputType string

const (
	OutputInPlace  OutputType = "in_place"
	OutputNewSheet OutputType = "new_sheet"
)

// Output describes an operation's destination. A nil *Output means the
// planner did not say.
type Output struct {
	Type OutputType `json:"type"`
	Name string     `json:"name,omitempty"`
}

// NewSheet returns the target sheet name when the output is a named new sheet.
// Safe to call on a nil receiver.
func (o *Output) NewSheet() (string, bool) {
	if o == nil || o.Type != OutputNewSheet || o.Name == "" {
		return "", false
	}
	return o.Name, true
}

// IsNewSheet reports whether the output type is new_sheet, named or not.
func (o *Output) IsNewSheet() bool {
	return o != nil && o.Type == OutputNewSheet
}

// NameOr returns the output name, or fallback when absent.
func (o *Output) NameOr(fallback string) string {
	if o == nil || o.Name == "" {
		return fallback
	}
	return o.Name
}

// Common holds the optional fields every operation may carry.
type Common struct {
	Description string  `json:"description,omitempty"`
	FileID      string  `json:"file_id,omitempty"`
	Table       string  `json:"table,omitempty"`
	Output      *Output `json:"output,omitempty"`
}

// Meta returns the common fields.
func (c Common) Meta() Common { return c }

// Aggregate computes a single scalar over a column, optionally conditioned.
type Aggregate struct {
	Common
	Function        string `json:"function"`
	Column          string `json:"column"`
	ConditionColumn string `json:"condition_column,omitempty"`
	Condition       Value  `json:"condition,omitempty"`
	AsVar           string `json:"as_var,omitempty"`
}

func (Aggregate) operationNode() {}

// Kind returns KindAggregate.
func (Aggregate) Kind() Kind { return KindAggregate }

// IsConditional reports whether the function is one of the *IF variants.
func (a Aggregate) IsConditional() bool {
	switch strings.ToUpper(a.Function) {
	case "SUMIF", "COUNTIF", "AVERAGEIF":
		return true
	}
	return false
}

// UnmarshalJSON implements json.Unmarshaler for Aggregate.
func (a *Aggregate) UnmarshalJSON(data []byte) error {
	type Alias Aggregate
	aux := struct {
		*Alias
		Condition json.RawMessage `json:"condition"`
	}{Alias: (*Alias)(a)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	v, err := DecodeValue(aux.Condition)
	if err != nil {
		return err
	}
	a.Condition = v
	return nil
}

// AddColumn appends a computed column.
type AddColumn struct {
	Common
	Name    string     `json:"name"`
	Formula Expression `json:"formula,omitempty"`
}

func (AddColumn) operationNode() {}

// Kind returns KindAddColumn.
func (AddColumn) Kind() Kind { return KindAddColumn }

// UnmarshalJSON implements json.Unmarshaler for AddColumn.
func (a *AddColumn) UnmarshalJSON(data []byte) error {
	type Alias AddColumn
	aux := struct {
		*Alias
		Formula json.RawMessage `json:"formula"`
	}{Alias: (*Alias)(a)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	a.Formula = DecodeExpression(aux.Formula)
	return nil
}

// UpdateColumn rewrites an existing column from an expression.
type UpdateColumn struct {
	Common
	Column  string     `json:"column"`
	Formula Expression `json:"formula,omitempty"`
}

func (UpdateColumn) operationNode() {}

// Kind returns KindUpdateColumn.
func (UpdateColumn) Kind() Kind { return KindUpdateColumn }

// UnmarshalJSON implements json.Unmarshaler for UpdateColumn.
func (u *UpdateColumn) UnmarshalJSON(data []byte) error {
	type Alias UpdateColumn
	aux := struct {
		*Alias
		Formula json.RawMessage `json:"formula"`
	}{Alias: (*Alias)(u)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	u.Formula = DecodeExpression(aux.Formula)
	return nil
}

// Compute evaluates a scalar expression over earlier variables.
type Compute struct {
	Common
	Expression Expression `json:"expression,omitempty"`
	AsVar      string     `json:"as_var"`
}

func (Compute) operationNode() {}

// Kind returns KindCompute.
func (Compute) Kind() Kind { return KindCompute }

// UnmarshalJSON implements json.Unmarshaler for Compute.
func (c *Compute) UnmarshalJSON(data []byte) error {
	type Alias Compute
	aux := struct {
		*Alias
		Expression json.RawMessage `json:"expression"`
	}{Alias: (*Alias)(c)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	c.Expression = DecodeExpression(aux.Expression)
	return nil
}

// Condition is one row predicate of a filter.
type Condition struct {
	Column string `json:"column"`
	Op     string `json:"op,omitempty"`
	Value  Value  `json:"value"`
}

// Operator returns Op, defaulting to "=".
func (c Condition) Operator() string {
	if c.Op == "" {
		return "="
	}
	return c.Op
}

// UnmarshalJSON implements json.Unmarshaler for Condition.
func (c *Condition) UnmarshalJSON(data []byte) error {
	type Alias Condition
	aux := struct {
		*Alias
		Value json.RawMessage `json:"value"`
	}{Alias: (*Alias)(c)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	v, err := DecodeValue(aux.Value)
	if err != nil {
		return err
	}
	if v == nil {
		v = String("")
	}
	c.Value = v
	return nil
}

// Filter keeps rows matching all (AND) or any (OR) conditions.
type Filter struct {
	Common
	Conditions []Condition `json:"conditions"`
	Logic      string      `json:"logic,omitempty"`
}

func (Filter) operationNode() {}

// Kind returns KindFilter.
func (Filter) Kind() Kind { return KindFilter }

// IsOr reports whether conditions are combined disjunctively. Anything other
// than OR (including an absent logic field) means AND.
func (f Filter) IsOr() bool {
	return strings.EqualFold(f.Logic, "OR")
}

// SortKey is one sort rule.
type SortKey struct {
	Column string `json:"column"`
	Order  string `json:"order,omitempty"`
}

// Descending reports whether the rule sorts descending. An absent order is
// ascending.
func (k SortKey) Descending() bool {
	return k.Order != "" && !strings.EqualFold(k.Order, "asc")
}

// Sort orders rows by one or more keys, first key primary.
type Sort struct {
	Common
	By []SortKey `json:"by"`
}

func (Sort) operationNode() {}

// Kind returns KindSort.
func (Sort) Kind() Kind { return KindSort }

// GroupAggregation is one value column of a group_by.
type GroupAggregation struct {
	Column   string `json:"column"`
	Function string `json:"function"`
}

// GroupBy groups rows and aggregates value columns.
type GroupBy struct {
	Common
	GroupColumns []string           `json:"group_columns"`
	Aggregations []GroupAggregation `json:"aggregations"`
}

func (GroupBy) operationNode() {}

// Kind returns KindGroupBy.
func (GroupBy) Kind() Kind { return KindGroupBy }

// Take keeps the first Rows rows (positive) or the last |Rows| rows (negative).
type Take struct {
	Common
	Rows int `json:"rows"`
}

func (Take) operationNode() {}

// Kind returns KindTake.
func (Take) Kind() Kind { return KindTake }

// FromStart reports whether the take keeps leading rows. Rows == 0 is treated
// as taking the first zero rows, leaving only the header.
func (t Take) FromStart() bool {
	return t.Rows >= 0
}

// Count returns the absolute number of rows kept.
func (t Take) Count() int {
	if t.Rows < 0 {
		return -t.Rows
	}
	return t.Rows
}

// SelectColumns keeps only the listed columns, in the listed order.
type SelectColumns struct {
	Common
	Columns []string `json:"columns"`
}

func (SelectColumns) operationNode() {}

// Kind returns KindSelectColumns.
func (SelectColumns) Kind() Kind { return KindSelectColumns }

// DropColumns removes the listed columns.
type DropColumns struct {
	Common
	Columns []string `json:"columns"`
}

func (DropColumns) operationNode() {}

// Kind returns KindDropColumns.
func (DropColumns) Kind() Kind { return KindDropColumns }

// Source types for create_sheet.
const (
	SourceCopy  = "copy"
	SourceEmpty = "empty"
)

// SheetSource says how a new sheet is initialized.
type SheetSource struct {
	Type  string `json:"type"`
	Table string `json:"table,omitempty"`
}

// CreateSheet adds a sheet, empty or copied from another table.
type CreateSheet struct {
	Common
	Name   string       `json:"name"`
	Source *SheetSource `json:"source,omitempty"`
}

func (CreateSheet) operationNode() {}

// Kind returns KindCreateSheet.
func (CreateSheet) Kind() Kind { return KindCreateSheet }

// SourceType returns the source type, defaulting to empty.
func (c CreateSheet) SourceType() string {
	if c.Source == nil || c.Source.Type == "" {
		return SourceEmpty
	}
	return c.Source.Type
}

// Unknown is an operation whose "type" is not in the catalog. It keeps the
// common fields and the raw JSON so nothing is lost.
type Unknown struct {
	Common
	Type string          `json:"-"`
	Raw  json.RawMessage `json:"-"`
}

func (Unknown) operationNode() {}

// Kind returns the unrecognized discriminator as-is.
func (u Unknown) Kind() Kind { return Kind(u.Type) }

// TargetTable returns the sheet an operation works on: table, or for
// create_sheet its name when no table is given.
func TargetTable(op Operation) string {
	if t := op.Meta().Table; t != "" {
		return t
	}
	if cs, ok := op.(CreateSheet); ok {
		return cs.Name
	}
	return ""
}

// CreatedSheet returns the sheet an operation brings into existence: the name
// of a create_sheet, or the named new_sheet output of any other kind.
func CreatedSheet(op Operation) (string, bool) {
	if cs, ok := op.(CreateSheet); ok && cs.Name != "" {
		return cs.Name, true
	}
	return op.Meta().Output.NewSheet()
}
