package ir

import (
	"bytes"
	"encoding/json"
)

// Expression is a sealed interface for the recursive expression trees used by
// add_column.formula, update_column.formula and compute.expression.
//
// Expression types:
//   - Literal:   {"value": v} or a bare JSON scalar
//   - ColumnRef: {"col": "金额"}, a same-row reference to a table column
//   - VarRef:    {"var": "total"}, a variable produced by an earlier step
//   - BinaryOp:  {"op": "+", "left": e, "right": e}
//   - FuncCall:  {"func": "ROUND", "args": [e, ...]}
//   - Malformed: anything else; renders as a placeholder, never an error
type Expression interface {
	exprNode() // Marker method - seals interface to this package
}

// Literal is a constant value.
type Literal struct {
	Value Value
}

func (Literal) exprNode() {}

// MarshalJSON implements json.Marshaler for Literal.
func (l Literal) MarshalJSON() ([]byte, error) {
	v := l.Value
	if v == nil {
		v = Null{}
	}
	return json.Marshal(map[string]any{"value": v})
}

// ColumnRef references a column of the operation's table in the current row.
type ColumnRef struct {
	Column string
}

func (ColumnRef) exprNode() {}

// MarshalJSON implements json.Marshaler for ColumnRef.
func (c ColumnRef) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{"col": c.Column})
}

// VarRef references a scalar variable bound by an earlier aggregate or compute.
type VarRef struct {
	Name string
}

func (VarRef) exprNode() {}

// MarshalJSON implements json.Marshaler for VarRef.
func (v VarRef) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{"var": v.Name})
}

// BinaryOp applies an infix operator to two operands.
type BinaryOp struct {
	Op    string
	Left  Expression
	Right Expression
}

func (BinaryOp) exprNode() {}

// MarshalJSON implements json.Marshaler for BinaryOp.
func (b BinaryOp) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{
		"op":    b.Op,
		"left":  exprOrMalformed(b.Left),
		"right": exprOrMalformed(b.Right),
	})
}

// FuncCall calls a spreadsheet function with ordered arguments.
type FuncCall struct {
	Func string
	Args []Expression
}

func (FuncCall) exprNode() {}

// MarshalJSON implements json.Marshaler for FuncCall.
func (f FuncCall) MarshalJSON() ([]byte, error) {
	args := make([]Expression, len(f.Args))
	for i, a := range f.Args {
		args[i] = exprOrMalformed(a)
	}
	return json.Marshal(map[string]any{"func": f.Func, "args": args})
}

// Malformed is a node whose shape was not recognized. Raw holds the original
// JSON text (empty when the node was missing entirely).
type Malformed struct {
	Raw string
}

func (Malformed) exprNode() {}

// MarshalJSON implements json.Marshaler for Malformed, echoing the input.
func (m Malformed) MarshalJSON() ([]byte, error) {
	if m.Raw == "" || !json.Valid([]byte(m.Raw)) {
		return []byte("{}"), nil
	}
	return []byte(m.Raw), nil
}

func exprOrMalformed(e Expression) Expression {
	if e == nil {
		return Malformed{}
	}
	return e
}

// DecodeExpression decodes an expression tree. It never fails: nodes that
// cannot be interpreted become Malformed. Absent input (nil, empty or JSON
// null) returns nil so callers can distinguish "no formula".
func DecodeExpression(data json.RawMessage) Expression {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	return decodeNode(data)
}

// decodeNode decodes one node. Key precedence follows the planner's format:
// value, col, var, op, func.
func decodeNode(data json.RawMessage) Expression {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return Malformed{}
	}

	if data[0] != '{' {
		if data[0] == '[' {
			return Malformed{Raw: string(data)}
		}
		v, err := DecodeValue(data)
		if err != nil {
			return Malformed{Raw: string(data)}
		}
		if v == nil {
			v = Null{}
		}
		return Literal{Value: v}
	}

	var node map[string]json.RawMessage
	if err := json.Unmarshal(data, &node); err != nil {
		return Malformed{Raw: string(data)}
	}

	if raw, ok := node["value"]; ok {
		v, err := DecodeValue(raw)
		if err != nil {
			return Malformed{Raw: string(data)}
		}
		if v == nil {
			v = Null{}
		}
		return Literal{Value: v}
	}

	if raw, ok := node["col"]; ok {
		var name string
		if err := json.Unmarshal(raw, &name); err != nil {
			return Malformed{Raw: string(data)}
		}
		return ColumnRef{Column: name}
	}

	if raw, ok := node["var"]; ok {
		var name string
		if err := json.Unmarshal(raw, &name); err != nil {
			return Malformed{Raw: string(data)}
		}
		return VarRef{Name: name}
	}

	if raw, ok := node["op"]; ok {
		var op string
		if err := json.Unmarshal(raw, &op); err != nil {
			return Malformed{Raw: string(data)}
		}
		return BinaryOp{
			Op:    op,
			Left:  decodeNode(node["left"]),
			Right: decodeNode(node["right"]),
		}
	}

	if raw, ok := node["func"]; ok {
		var name string
		if err := json.Unmarshal(raw, &name); err != nil {
			return Malformed{Raw: string(data)}
		}
		call := FuncCall{Func: name}
		var args []json.RawMessage
		if rawArgs, ok := node["args"]; ok {
			// A non-array args field is treated as no arguments.
			_ = json.Unmarshal(rawArgs, &args)
		}
		for _, arg := range args {
			call.Args = append(call.Args, decodeNode(arg))
		}
		return call
	}

	return Malformed{Raw: string(data)}
}

// Walk visits e and every node beneath it in depth-first, left-to-right
// order. Nil children are skipped. Returning false from fn prunes the
// subtree below the current node.
func Walk(e Expression, fn func(Expression) bool) {
	if e == nil || !fn(e) {
		return
	}
	switch n := e.(type) {
	case BinaryOp:
		Walk(n.Left, fn)
		Walk(n.Right, fn)
	case FuncCall:
		for _, a := range n.Args {
			Walk(a, fn)
		}
	}
}
