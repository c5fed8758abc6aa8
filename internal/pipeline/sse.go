package pipeline

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Encode writes ev as one SSE frame: an "event:" line when named, one
// "data:" line per payload line, then a blank line.
func Encode(w io.Writer, ev Event) error {
	var buf bytes.Buffer
	if ev.Name != "" {
		fmt.Fprintf(&buf, "event: %s\n", ev.Name)
	}
	for _, line := range strings.Split(string(ev.Data), "\n") {
		fmt.Fprintf(&buf, "data: %s\n", line)
	}
	buf.WriteByte('\n')
	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("write event: %w", err)
	}
	return nil
}

// EncodeAll writes every event in order.
func EncodeAll(w io.Writer, events []Event) error {
	for i, ev := range events {
		if err := Encode(w, ev); err != nil {
			return fmt.Errorf("event %d: %w", i+1, err)
		}
	}
	return nil
}

// Decoder reads SSE frames from a stream.
type Decoder struct {
	scanner *bufio.Scanner
}

// NewDecoder returns a decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	return &Decoder{scanner: s}
}

// Next returns the next frame, or io.EOF when the stream ends. Comment lines
// and fields other than event and data are ignored; a frame with no data
// lines is skipped.
func (d *Decoder) Next() (Event, error) {
	var (
		name string
		data []string
	)
	for d.scanner.Scan() {
		line := strings.TrimSuffix(d.scanner.Text(), "\r")
		if line == "" {
			if len(data) == 0 {
				name = ""
				continue
			}
			return Event{Name: name, Data: []byte(strings.Join(data, "\n"))}, nil
		}
		if strings.HasPrefix(line, ":") {
			continue
		}
		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")
		switch field {
		case "event":
			name = value
		case "data":
			data = append(data, value)
		}
	}
	if err := d.scanner.Err(); err != nil {
		return Event{}, fmt.Errorf("read events: %w", err)
	}
	if len(data) > 0 {
		return Event{Name: name, Data: []byte(strings.Join(data, "\n"))}, nil
	}
	return Event{}, io.EOF
}

// DecodeAll reads every frame until EOF.
func DecodeAll(r io.Reader) ([]Event, error) {
	d := NewDecoder(r)
	var events []Event
	for {
		ev, err := d.Next()
		if errors.Is(err, io.EOF) {
			return events, nil
		}
		if err != nil {
			return events, err
		}
		events = append(events, ev)
	}
}
