package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/roach88/xlnarrate/internal/btrack"
	"github.com/roach88/xlnarrate/internal/ir"
)

// timeLayout is fixed-width so TEXT ordering matches time ordering.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func marshalTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func unmarshalTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		// Rows written by other tools may use plain RFC 3339.
		t, err = time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return time.Time{}, fmt.Errorf("unmarshal created_at: %w", err)
		}
	}
	return t.UTC(), nil
}

// marshalSteps converts a step log to canonical JSON TEXT.
func marshalSteps(steps json.RawMessage) (string, error) {
	if len(steps) == 0 {
		return "[]", nil
	}
	data, err := ir.MarshalCanonical(steps)
	if err != nil {
		return "", fmt.Errorf("marshal steps: %w", err)
	}
	return string(data), nil
}

func marshalErrors(errs []string) (string, error) {
	data, err := btrack.EncodeErrors(errs)
	if err != nil {
		return "", fmt.Errorf("marshal errors: %w", err)
	}
	return data, nil
}
