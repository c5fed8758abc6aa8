package lookup

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeWorkbook(t *testing.T) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]any{"日期", "", " 金额 ", ""}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]any{"2024-01-01", "x", 100}))

	_, err := f.NewSheet("空表")
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "sales.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestLoadWorkbook(t *testing.T) {
	path := writeWorkbook(t)

	entry, err := LoadWorkbook(path)
	require.NoError(t, err)

	assert.Equal(t, "sales.xlsx", entry.Filename)
	assert.Equal(t, []string{"日期", "", "金额"}, entry.Tables["Sheet1"].Columns)
	assert.Empty(t, entry.Tables["空表"].Columns)
}

func TestLoadWorkbooks(t *testing.T) {
	path := writeWorkbook(t)

	c, err := LoadWorkbooks([]string{"f1=" + path})
	require.NoError(t, err)
	table, err := c.Table("f1", "Sheet1")
	require.NoError(t, err)
	assert.Equal(t, 2, table.Index("金额"))

	_, err = LoadWorkbooks([]string{"no-separator"})
	assert.ErrorContains(t, err, "want ID=PATH")

	_, err = LoadWorkbooks([]string{"f1=" + filepath.Join(t.TempDir(), "missing.xlsx")})
	assert.Error(t, err)
}
