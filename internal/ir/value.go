package ir

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Value is a sealed interface representing scalar values carried by the IR:
// filter values, aggregate conditions and expression literals.
// Only Null, String, Number, Bool and List implement this.
type Value interface {
	irValue() // Sealed - only these types implement it

	// String returns the plain textual form used in prose.
	String() string
}

// Null represents a JSON null value.
type Null struct{}

func (Null) irValue() {}

// String returns the empty string.
func (Null) String() string { return "" }

// MarshalJSON implements json.Marshaler for Null.
func (Null) MarshalJSON() ([]byte, error) {
	return []byte("null"), nil
}

// String represents a string value.
type String string

func (String) irValue() {}

func (s String) String() string { return string(s) }

// Number represents a numeric value, kept as its decimal text so integers and
// decimals survive decoding without float rounding.
type Number string

func (Number) irValue() {}

// String returns the normalized decimal form: "1000.0" renders as "1000",
// "1e3" as "1000". Text that is not a valid decimal is returned unchanged.
func (n Number) String() string {
	d, err := decimal.NewFromString(string(n))
	if err != nil {
		return string(n)
	}
	return d.String()
}

// MarshalJSON implements json.Marshaler for Number.
func (n Number) MarshalJSON() ([]byte, error) {
	if !json.Valid([]byte(n)) {
		return nil, fmt.Errorf("invalid number %q", string(n))
	}
	return []byte(n), nil
}

// Bool represents a boolean value.
type Bool bool

func (Bool) irValue() {}

// String returns TRUE or FALSE, the spreadsheet spelling.
func (b Bool) String() string {
	if b {
		return "TRUE"
	}
	return "FALSE"
}

// List represents an array of values, e.g. the operand of an "in" condition.
type List []Value

func (List) irValue() {}

// String joins the elements with ", ".
func (l List) String() string {
	parts := make([]string, len(l))
	for i, v := range l {
		parts[i] = v.String()
	}
	return strings.Join(parts, ", ")
}

// DecodeValue decodes a JSON value into a Value.
//
// Absent input (nil or empty) and JSON null both yield nil, which callers
// treat as "not provided". Objects have no scalar meaning and are kept as
// their compact JSON text in a String so rendering can still show them.
func DecodeValue(data json.RawMessage) (Value, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}

	switch data[0] {
	case 'n':
		if string(data) != "null" {
			return nil, fmt.Errorf("invalid JSON value: %s", string(data))
		}
		return nil, nil

	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, err
		}
		return String(s), nil

	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return nil, err
		}
		return Bool(b), nil

	case '[':
		var raws []json.RawMessage
		if err := json.Unmarshal(data, &raws); err != nil {
			return nil, err
		}
		list := make(List, 0, len(raws))
		for i, raw := range raws {
			v, err := DecodeValue(raw)
			if err != nil {
				return nil, fmt.Errorf("list[%d]: %w", i, err)
			}
			if v == nil {
				v = Null{}
			}
			list = append(list, v)
		}
		return list, nil

	case '{':
		var buf bytes.Buffer
		if err := json.Compact(&buf, data); err != nil {
			return nil, err
		}
		return String(buf.String()), nil

	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return nil, err
		}
		return Number(n.String()), nil
	}
}

// ValueText returns v.String(), or "" for a nil Value.
func ValueText(v Value) string {
	if v == nil {
		return ""
	}
	return v.String()
}
