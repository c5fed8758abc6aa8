package formula

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ColumnLetter converts a 0-based column index to its letter name:
// 0 is A, 25 is Z, 26 is AA.
func ColumnLetter(index int) (string, error) {
	if index < 0 {
		return "", fmt.Errorf("column index %d out of range", index)
	}
	return excelize.ColumnNumberToName(index + 1)
}

// rangeWidth returns the number of columns a range like "A:Z" spans.
func rangeWidth(r string) (int, bool) {
	start, end, ok := strings.Cut(r, ":")
	if !ok {
		return 0, false
	}
	s, err := excelize.ColumnNameToNumber(strings.TrimPrefix(start, "$"))
	if err != nil {
		return 0, false
	}
	e, err := excelize.ColumnNameToNumber(strings.TrimPrefix(end, "$"))
	if err != nil {
		return 0, false
	}
	return e - s + 1, true
}

// fitRange returns full widened to n columns when n exceeds its width.
func fitRange(full string, n int) string {
	width, ok := rangeWidth(full)
	if !ok || n <= width {
		return full
	}
	last, err := ColumnLetter(n - 1)
	if err != nil {
		return full
	}
	return "A:" + last
}
