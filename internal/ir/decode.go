package ir

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// DecodeError reports an operation that is not structurally valid JSON for
// its kind. Unknown kinds and malformed expressions are NOT decode errors.
type DecodeError struct {
	Index   int    // 1-based step number, 0 when the whole document is bad
	Kind    string // operation type, when known
	Message string
	Err     error
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	prefix := "operations"
	if e.Index > 0 {
		prefix = fmt.Sprintf("operation %d", e.Index)
		if e.Kind != "" {
			prefix += fmt.Sprintf(" (%s)", e.Kind)
		}
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", prefix, e.Message)
}

// Unwrap returns the underlying error.
func (e *DecodeError) Unwrap() error {
	return e.Err
}

type decodeFunc func(data []byte) (Operation, error)

// decodeInto returns a decodeFunc for a concrete operation struct.
func decodeInto[T Operation]() decodeFunc {
	return func(data []byte) (Operation, error) {
		var op T
		if err := json.Unmarshal(data, &op); err != nil {
			return nil, err
		}
		return op, nil
	}
}

// decoders maps every known kind to its decoder. Keep in sync with Kinds.
var decoders = map[Kind]decodeFunc{
	KindAggregate:     decodeInto[Aggregate](),
	KindAddColumn:     decodeInto[AddColumn](),
	KindUpdateColumn:  decodeInto[UpdateColumn](),
	KindCompute:       decodeInto[Compute](),
	KindFilter:        decodeInto[Filter](),
	KindSort:          decodeInto[Sort](),
	KindGroupBy:       decodeInto[GroupBy](),
	KindTake:          decodeInto[Take](),
	KindSelectColumns: decodeInto[SelectColumns](),
	KindDropColumns:   decodeInto[DropColumns](),
	KindCreateSheet:   decodeInto[CreateSheet](),
}

// UnmarshalOperations decodes a JSON array of operations, preserving order.
func UnmarshalOperations(data []byte) ([]Operation, error) {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, &DecodeError{Message: "expected a JSON array of operations", Err: err}
	}

	ops := make([]Operation, 0, len(raws))
	for i, raw := range raws {
		op, err := unmarshalOperation(raw)
		if err != nil {
			var de *DecodeError
			if errors.As(err, &de) {
				de.Index = i + 1
				return nil, de
			}
			return nil, &DecodeError{Index: i + 1, Message: "invalid operation", Err: err}
		}
		ops = append(ops, op)
	}
	return ops, nil
}

// UnmarshalOperation decodes a single operation object.
func UnmarshalOperation(data []byte) (Operation, error) {
	return unmarshalOperation(data)
}

func unmarshalOperation(data []byte) (Operation, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		return nil, &DecodeError{Message: "operation must be a JSON object"}
	}

	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, &DecodeError{Message: "invalid type field", Err: err}
	}

	decode, ok := decoders[Kind(head.Type)]
	if !ok {
		u := Unknown{Type: head.Type, Raw: append(json.RawMessage(nil), data...)}
		if err := json.Unmarshal(data, &u.Common); err != nil {
			return nil, &DecodeError{Kind: head.Type, Message: "invalid common fields", Err: err}
		}
		return u, nil
	}

	op, err := decode(data)
	if err != nil {
		return nil, &DecodeError{Kind: head.Type, Message: "invalid fields", Err: err}
	}
	return op, nil
}

// Encode marshals an operation back to its wire form, including the "type"
// discriminator. Unknown operations are echoed from their raw input.
func Encode(op Operation) ([]byte, error) {
	if u, ok := op.(Unknown); ok && len(u.Raw) > 0 {
		return u.Raw, nil
	}

	body, err := json.Marshal(op)
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", op.Kind(), err)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, fmt.Errorf("reshape %s: %w", op.Kind(), err)
	}
	kind, err := json.Marshal(string(op.Kind()))
	if err != nil {
		return nil, err
	}
	fields["type"] = kind
	return json.Marshal(fields)
}

// EncodeOperations marshals a list of operations as a JSON array.
func EncodeOperations(ops []Operation) ([]byte, error) {
	items := make([]json.RawMessage, len(ops))
	for i, op := range ops {
		b, err := Encode(op)
		if err != nil {
			return nil, fmt.Errorf("operation %d: %w", i+1, err)
		}
		items[i] = b
	}
	return json.Marshal(items)
}
