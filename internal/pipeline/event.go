// Package pipeline defines the events a turn emits while it moves through
// its stages, and their server-sent-events framing.
//
// Step events carry no SSE event name; the system-level error event is
// named "error". Payloads are JSON with non-ASCII text left unescaped.
package pipeline

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Step names a pipeline stage.
type Step string

const (
	StepLoadFile     Step = "load:file"
	StepAnalyze      Step = "analyze"
	StepGenerate     Step = "generate"
	StepExecute      Step = "execute"
	StepExportResult Step = "export:result"
	StepComplete     Step = "complete"
)

// Status is the state a step event reports.
type Status string

const (
	StatusRunning   Status = "running"
	StatusStreaming Status = "streaming"
	StatusDone      Status = "done"
	StatusError     Status = "error"
)

// EventError is the SSE event name of a system-level error.
const EventError = "error"

// Event is one SSE frame: an optional event name and a JSON payload.
type Event struct {
	Name string
	Data json.RawMessage
}

// StepEvent is the payload of an unnamed step event.
type StepEvent struct {
	Step    Step            `json:"step"`
	Status  Status          `json:"status"`
	StageID string          `json:"stage_id,omitempty"`
	Delta   string          `json:"delta,omitempty"`
	Output  json.RawMessage `json:"output,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// ErrorEvent is the payload of a system-level error event.
type ErrorEvent struct {
	Message string `json:"message"`
}

// CompleteOutput is the output of the complete step.
type CompleteOutput struct {
	Success bool     `json:"success"`
	Errors  []string `json:"errors,omitempty"`
}

// marshal encodes v without HTML escaping and without the trailing newline
// json.Encoder appends.
func marshal(v any) (json.RawMessage, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// NewEvent builds an event from any JSON-encodable payload.
func NewEvent(name string, payload any) (Event, error) {
	data, err := marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("encode %s event: %w", eventLabel(name), err)
	}
	return Event{Name: name, Data: data}, nil
}

func eventLabel(name string) string {
	if name == "" {
		return "step"
	}
	return name
}

func stepEvent(se StepEvent) Event {
	ev, err := NewEvent("", se)
	if err != nil {
		// StepEvent holds only strings and pre-encoded JSON.
		panic(err)
	}
	return ev
}

// Running reports that a step started.
func Running(step Step, stageID string) Event {
	return stepEvent(StepEvent{Step: step, Status: StatusRunning, StageID: stageID})
}

// Streaming carries an incremental text delta of a step.
func Streaming(step Step, delta, stageID string) Event {
	return stepEvent(StepEvent{Step: step, Status: StatusStreaming, Delta: delta, StageID: stageID})
}

// Done reports that a step finished with output.
func Done(step Step, output any, stageID string) (Event, error) {
	out, err := marshal(output)
	if err != nil {
		return Event{}, fmt.Errorf("encode %s output: %w", step, err)
	}
	return stepEvent(StepEvent{Step: step, Status: StatusDone, Output: out, StageID: stageID}), nil
}

// Failed reports that a step failed.
func Failed(step Step, message, stageID string) Event {
	return stepEvent(StepEvent{Step: step, Status: StatusError, Error: message, StageID: stageID})
}

// SystemError is the top-level error event, outside any step.
func SystemError(message string) Event {
	ev, err := NewEvent(EventError, ErrorEvent{Message: message})
	if err != nil {
		panic(err)
	}
	return ev
}

// AsStep decodes the payload of an unnamed event as a StepEvent.
func (e Event) AsStep() (StepEvent, bool) {
	if e.Name != "" {
		return StepEvent{}, false
	}
	var se StepEvent
	if err := json.Unmarshal(e.Data, &se); err != nil || se.Step == "" {
		return StepEvent{}, false
	}
	return se, true
}

// AsError decodes the payload of a system-level error event.
func (e Event) AsError() (ErrorEvent, bool) {
	if e.Name != EventError {
		return ErrorEvent{}, false
	}
	var ee ErrorEvent
	if err := json.Unmarshal(e.Data, &ee); err != nil {
		return ErrorEvent{}, false
	}
	return ee, true
}
