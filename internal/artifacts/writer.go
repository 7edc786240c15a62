// Package artifacts writes timestamped scan outputs under a ledger
// directory so successive runs never overwrite each other.
package artifacts

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Writer emits timestamped JSON and CSV files under a base directory.
type Writer struct {
	dir string
	now func() time.Time
}

// NewWriter creates a writer rooted at dir.
func NewWriter(dir string) *Writer {
	return &Writer{dir: dir, now: time.Now}
}

// WriteJSON marshals v as indented JSON into <dir>/<stamp>-<name>.json and
// returns the written path.
func (w *Writer) WriteJSON(name string, v interface{}) (string, error) {
	path, err := w.preparePath(name, "json")
	if err != nil {
		return "", err
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal json: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write file %s: %w", path, err)
	}
	return path, nil
}

// WriteCSV writes rows into <dir>/<stamp>-<name>.csv and returns the
// written path.
func (w *Writer) WriteCSV(name string, rows [][]string) (string, error) {
	path, err := w.preparePath(name, "csv")
	if err != nil {
		return "", err
	}

	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create file %s: %w", path, err)
	}
	defer file.Close()

	cw := csv.NewWriter(file)
	defer cw.Flush()

	for _, row := range rows {
		if err := cw.Write(row); err != nil {
			return "", fmt.Errorf("write csv row: %w", err)
		}
	}
	return path, nil
}

func (w *Writer) preparePath(name, ext string) (string, error) {
	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return "", fmt.Errorf("ensure dir %s: %w", w.dir, err)
	}
	stamp := w.now().UTC().Format("20060102-150405")
	return filepath.Join(w.dir, fmt.Sprintf("%s-%s.%s", stamp, name, ext)), nil
}
