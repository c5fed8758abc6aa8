package lookup

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// LoadWorkbook reads the header row of every sheet of an .xlsx workbook into a
// FileEntry. Trailing empty header cells are dropped; interior empty cells are
// kept so positions still map to letters.
func LoadWorkbook(path string) (FileEntry, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return FileEntry{}, fmt.Errorf("open workbook %s: %w", path, err)
	}
	defer f.Close()

	entry := FileEntry{
		Filename: filepath.Base(path),
		Tables:   make(map[string]Table),
	}
	for _, sheet := range f.GetSheetList() {
		rows, err := f.Rows(sheet)
		if err != nil {
			return FileEntry{}, fmt.Errorf("read sheet %s: %w", sheet, err)
		}
		var header []string
		if rows.Next() {
			header, err = rows.Columns()
			if err != nil {
				rows.Close()
				return FileEntry{}, fmt.Errorf("read header of %s: %w", sheet, err)
			}
		}
		rows.Close()
		entry.Tables[sheet] = Table{Columns: trimHeader(header)}
	}
	return entry, nil
}

// LoadWorkbooks builds a FileCollection from id=path pairs.
func LoadWorkbooks(specs []string) (FileCollection, error) {
	c := make(FileCollection, len(specs))
	for _, spec := range specs {
		id, path, ok := strings.Cut(spec, "=")
		if !ok || id == "" || path == "" {
			return nil, fmt.Errorf("invalid workbook %q: want ID=PATH", spec)
		}
		entry, err := LoadWorkbook(path)
		if err != nil {
			return nil, err
		}
		c[id] = entry
	}
	return c, nil
}

func trimHeader(header []string) []string {
	cols := make([]string, len(header))
	for i, h := range header {
		cols[i] = strings.TrimSpace(h)
	}
	for len(cols) > 0 && cols[len(cols)-1] == "" {
		cols = cols[:len(cols)-1]
	}
	return cols
}
