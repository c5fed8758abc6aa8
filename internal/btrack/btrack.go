// Package btrack models incident ("BTrack") records: reports of a turn that
// went wrong, carrying the generation prompt, the step log and the errors the
// pipeline produced.
package btrack

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/roach88/xlnarrate/internal/pipeline"
)

// Record is one incident.
type Record struct {
	ID               string          `json:"id"`
	ReporterID       string          `json:"reporter_id"`
	ReporterName     string          `json:"reporter_name"`
	ThreadTurnID     string          `json:"thread_turn_id"`
	GenerationPrompt string          `json:"generation_prompt"`
	Steps            json.RawMessage `json:"steps"`
	Errors           []string        `json:"errors"`
	Cause            *string         `json:"cause"`
	Fixed            bool            `json:"fixed"`
	CreatedAt        time.Time       `json:"created_at"`
}

// Report is the caller-supplied part of a new record.
type Report struct {
	ReporterID       string
	ReporterName     string
	ThreadTurnID     string
	GenerationPrompt string
	Events           []pipeline.Event
}

// IDGenerator produces record IDs.
type IDGenerator interface {
	Generate() string
}

// Clock supplies creation times.
type Clock interface {
	Now() time.Time
}

// UUIDv7Generator generates time-sortable UUIDv7 record IDs.
//
// Thread-safety: stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate creates a new UUIDv7. Panics if the random source fails.
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// SystemClock reads the wall clock in UTC.
type SystemClock struct{}

// Now returns the current UTC time.
func (SystemClock) Now() time.Time { return time.Now().UTC() }

// Recorder builds records from reports.
type Recorder struct {
	ids   IDGenerator
	clock Clock
}

// NewRecorder returns a Recorder. Nil arguments select UUIDv7 IDs and the
// system clock.
func NewRecorder(ids IDGenerator, clock Clock) *Recorder {
	if ids == nil {
		ids = UUIDv7Generator{}
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return &Recorder{ids: ids, clock: clock}
}

// New builds a record from a report. The step log is the step events of the
// report in order; errors are collected from the same events.
func (r *Recorder) New(rep Report) (Record, error) {
	steps, err := stepLog(rep.Events)
	if err != nil {
		return Record{}, err
	}
	return Record{
		ID:               r.ids.Generate(),
		ReporterID:       rep.ReporterID,
		ReporterName:     rep.ReporterName,
		ThreadTurnID:     rep.ThreadTurnID,
		GenerationPrompt: rep.GenerationPrompt,
		Steps:            steps,
		Errors:           CollectErrors(rep.Events),
		CreatedAt:        r.clock.Now(),
	}, nil
}

func stepLog(events []pipeline.Event) (json.RawMessage, error) {
	steps := []pipeline.StepEvent{}
	for _, ev := range events {
		if se, ok := ev.AsStep(); ok {
			steps = append(steps, se)
		}
	}
	data, err := json.Marshal(steps)
	if err != nil {
		return nil, fmt.Errorf("encode step log: %w", err)
	}
	return data, nil
}

// ParseErrors decodes a stored error list. Empty input yields no errors; a
// JSON array yields one entry per item, strings as-is and other items as
// their compact JSON; any other JSON value yields one entry; text that is not
// JSON is returned whole as a single entry.
func ParseErrors(raw string) []string {
	if raw == "" {
		return []string{}
	}
	var parsed any
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&parsed); err != nil || dec.More() {
		return []string{raw}
	}
	if items, ok := parsed.([]any); ok {
		out := make([]string, len(items))
		for i, item := range items {
			out[i] = stringify(item)
		}
		return out
	}
	return []string{stringify(parsed)}
}

func stringify(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case nil:
		return "null"
	case json.Number:
		return x.String()
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Sprint(v)
	}
	return strings.TrimRight(buf.String(), "\n")
}

// CollectErrors gathers the errors a turn reported, in event order: the
// message of each failed step, the errors of the complete step's output, and
// the message of each system-level error event.
func CollectErrors(events []pipeline.Event) []string {
	errs := []string{}
	for _, ev := range events {
		if ee, ok := ev.AsError(); ok {
			errs = append(errs, ee.Message)
			continue
		}
		se, ok := ev.AsStep()
		if !ok {
			continue
		}
		switch {
		case se.Status == pipeline.StatusError:
			errs = append(errs, se.Error)
		case se.Step == pipeline.StepComplete && len(se.Output) > 0:
			var out struct {
				Errors json.RawMessage `json:"errors"`
			}
			if err := json.Unmarshal(se.Output, &out); err == nil && len(out.Errors) > 0 && string(out.Errors) != "null" {
				errs = append(errs, ParseErrors(string(out.Errors))...)
			}
		}
	}
	return errs
}

// EncodeErrors renders an error list in the stored form ParseErrors reads.
func EncodeErrors(errs []string) (string, error) {
	if errs == nil {
		errs = []string{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(errs); err != nil {
		return "", fmt.Errorf("encode errors: %w", err)
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}
