package btrack

import (
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// ExportReporter identifies who filed an exported record.
type ExportReporter struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// ExportTurn is the turn an exported record points at.
type ExportTurn struct {
	ID    string          `json:"id"`
	Steps json.RawMessage `json:"steps"`
}

// ExportEntry is one element of the export document.
type ExportEntry struct {
	BTrackID         string         `json:"btrack_id"`
	CreatedAt        string         `json:"created_at"`
	Fixed            bool           `json:"fixed"`
	Reporter         ExportReporter `json:"reporter"`
	Turn             ExportTurn     `json:"turn"`
	GenerationPrompt string         `json:"generation_prompt"`
	Errors           []string       `json:"errors"`
	Cause            *string        `json:"cause,omitempty"`
}

// ExportEntries converts records to export entries, preserving order.
// Records without a thread turn are skipped.
func ExportEntries(records []Record) []ExportEntry {
	entries := make([]ExportEntry, 0, len(records))
	for _, r := range records {
		if r.ThreadTurnID == "" {
			continue
		}
		steps := r.Steps
		if len(steps) == 0 {
			steps = json.RawMessage("[]")
		}
		errs := r.Errors
		if errs == nil {
			errs = []string{}
		}
		entries = append(entries, ExportEntry{
			BTrackID:         r.ID,
			CreatedAt:        r.CreatedAt.UTC().Format(time.RFC3339),
			Fixed:            r.Fixed,
			Reporter:         ExportReporter{ID: r.ReporterID, Username: r.ReporterName},
			Turn:             ExportTurn{ID: r.ThreadTurnID, Steps: steps},
			GenerationPrompt: r.GenerationPrompt,
			Errors:           errs,
			Cause:            r.Cause,
		})
	}
	return entries
}

// Export writes records as an indented JSON array with non-ASCII text left
// unescaped.
func Export(w io.Writer, records []Record) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(ExportEntries(records)); err != nil {
		return fmt.Errorf("export records: %w", err)
	}
	return nil
}

// ExportFilename returns the conventional file name of an export taken at t.
func ExportFilename(t time.Time) string {
	return "btracks_export_" + t.Format("20060102_150405") + ".json"
}
