// Package lookup resolves file ids and table names to display filenames and
// ordered column lists. The narrators only read through the Lookup interface
// and treat every error as "unknown", degrading to raw identifiers.
package lookup

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
)

// Sentinel errors returned by Lookup implementations.
var (
	ErrFileNotFound  = errors.New("file not found")
	ErrTableNotFound = errors.New("table not found")
)

// Lookup is the read-only table metadata collaborator.
type Lookup interface {
	// File resolves a file id. Returns ErrFileNotFound when unknown.
	File(fileID string) (File, error)

	// Table resolves a table of a file. Returns ErrFileNotFound or
	// ErrTableNotFound when unknown.
	Table(fileID, name string) (Table, error)
}

// File is the metadata of one uploaded workbook.
type File struct {
	ID       string `json:"-"`
	Filename string `json:"filename"`
}

// Table is an ordered list of column names. Position is the authoritative
// column-to-letter mapping: index 0 is column A.
type Table struct {
	Columns []string `json:"columns"`
}

// Index returns the 0-based position of column, or -1.
func (t Table) Index(column string) int {
	return slices.Index(t.Columns, column)
}

// FileEntry is one file of a FileCollection.
type FileEntry struct {
	Filename string           `json:"filename"`
	Tables   map[string]Table `json:"tables"`
}

// FileCollection maps file id to its entry. It is the in-memory Lookup used by
// the CLI and tests. A nil FileCollection resolves nothing.
type FileCollection map[string]FileEntry

// File implements Lookup.
func (c FileCollection) File(fileID string) (File, error) {
	entry, ok := c[fileID]
	if !ok {
		return File{}, fmt.Errorf("%w: %q", ErrFileNotFound, fileID)
	}
	return File{ID: fileID, Filename: entry.Filename}, nil
}

// Table implements Lookup.
func (c FileCollection) Table(fileID, name string) (Table, error) {
	entry, ok := c[fileID]
	if !ok {
		return Table{}, fmt.Errorf("%w: %q", ErrFileNotFound, fileID)
	}
	table, ok := entry.Tables[name]
	if !ok {
		return Table{}, fmt.Errorf("%w: %q in file %q", ErrTableNotFound, name, fileID)
	}
	return table, nil
}

// Merge returns a new collection holding the entries of c overlaid with other.
func (c FileCollection) Merge(other FileCollection) FileCollection {
	out := make(FileCollection, len(c)+len(other))
	for id, e := range c {
		out[id] = e
	}
	for id, e := range other {
		out[id] = e
	}
	return out
}

// ParseFileCollection decodes the JSON form
// {"<file id>": {"filename": "...", "tables": {"<name>": {"columns": [...]}}}}.
func ParseFileCollection(data []byte) (FileCollection, error) {
	var c FileCollection
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse file collection: %w", err)
	}
	if c == nil {
		c = FileCollection{}
	}
	return c, nil
}

// FilenameOr resolves fileID to its filename, or returns fallback when the
// file cannot be resolved.
func FilenameOr(l Lookup, fileID, fallback string) string {
	if l == nil {
		return fallback
	}
	f, err := l.File(fileID)
	if err != nil || f.Filename == "" {
		return fallback
	}
	return f.Filename
}

// Columns resolves a table's columns. ok is false when the table cannot be
// resolved.
func Columns(l Lookup, fileID, table string) ([]string, bool) {
	if l == nil {
		return nil, false
	}
	t, err := l.Table(fileID, table)
	if err != nil {
		return nil, false
	}
	return t.Columns, true
}
