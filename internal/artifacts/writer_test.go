package artifacts

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteJSON(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "ledger")
	w := NewWriter(dir)

	payload := map[string]interface{}{
		"symbol":    "TCS",
		"direction": "upward",
		"pct":       1.25,
	}

	path, err := w.WriteJSON("momentum-report", payload)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(path, "-momentum-report.json"))

	content, err := os.ReadFile(path)
	require.NoError(t, err)

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(content, &got))
	assert.Equal(t, "TCS", got["symbol"])
	assert.Equal(t, 1.25, got["pct"])
}

func TestWriteCSV(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "ledger")
	w := NewWriter(dir)

	rows := [][]string{
		{"symbol", "direction", "pct_change"},
		{"TCS", "upward", "1.25"},
		{"RELIANCE", "downward", "-0.80"},
	}

	path, err := w.WriteCSV("momentum-report", rows)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(path, "-momentum-report.csv"))

	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "RELIANCE", records[2][0])
}

func TestWriterCreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b", "c")
	w := NewWriter(dir)

	_, err := w.WriteJSON("x", map[string]string{"k": "v"})
	require.NoError(t, err)

	files, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, files, 1)
}
