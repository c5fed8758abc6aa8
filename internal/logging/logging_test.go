package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_TerminalOnly(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Options{Level: slog.LevelInfo, Writer: &buf})
	require.NoError(t, err)
	defer l.Close()

	l.Debug("hidden")
	l.Info("shown", "step", 3)
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "msg=shown step=3")
}

func TestNew_FansOutToFile(t *testing.T) {
	var buf bytes.Buffer
	path := filepath.Join(t.TempDir(), "x.log")
	l, err := New(Options{Level: slog.LevelDebug, Writer: &buf, File: path})
	require.NoError(t, err)

	l.Debug("table unresolved", "table", "orders")
	require.NoError(t, l.Close())

	assert.Contains(t, buf.String(), "table unresolved")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var rec map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(data), &rec))
	assert.Equal(t, "table unresolved", rec["msg"])
	assert.Equal(t, "orders", rec["table"])
}

func TestNew_BadFile(t *testing.T) {
	_, err := New(Options{File: filepath.Join(t.TempDir(), "missing", "x.log")})
	assert.Error(t, err)
}
