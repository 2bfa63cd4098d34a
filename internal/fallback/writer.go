package fallback

import (
	"bytes"
	_ "embed"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

//go:embed template.csv
var defaultTemplate []byte

var ErrEmptyTemplate = errors.New("fallback template has no header")

// Writer renders records against a fixed template: the template header is
// the column order and its first data row provides defaults.
type Writer struct {
	dir      string
	header   []string
	defaults map[string]string
}

// NewWriter reads the template at templatePath, or the built-in template
// when the path is empty.
func NewWriter(dir, templatePath string) (*Writer, error) {
	raw := defaultTemplate
	if templatePath != "" {
		b, err := os.ReadFile(templatePath)
		if err != nil {
			return nil, fmt.Errorf("read fallback template: %w", err)
		}
		raw = b
	}

	rows, err := csv.NewReader(bytes.NewReader(raw)).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse fallback template: %w", err)
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, ErrEmptyTemplate
	}

	w := &Writer{dir: dir, header: rows[0], defaults: map[string]string{}}
	if len(rows) > 1 {
		for i, col := range w.header {
			if i < len(rows[1]) {
				w.defaults[col] = rows[1][i]
			}
		}
	}
	return w, nil
}

func (w *Writer) Header() []string { return append([]string(nil), w.header...) }

// Row lays r out in template column order. Columns the record does not
// know keep the template default.
func (w *Writer) Row(r Record) []string {
	row := make([]string, len(w.header))
	for i, col := range w.header {
		if v, ok := r[col]; ok {
			row[i] = v
		} else {
			row[i] = w.defaults[col]
		}
	}
	return row
}

func (w *Writer) Encode(out io.Writer, r Record) error {
	cw := csv.NewWriter(out)
	if err := cw.Write(w.header); err != nil {
		return err
	}
	if err := cw.Write(w.Row(r)); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

// Write stores r as <dir>/<campaign name>.csv and returns the path.
func (w *Writer) Write(name string, r Record) (string, error) {
	if err := os.MkdirAll(w.dir, 0o750); err != nil {
		return "", fmt.Errorf("create fallback dir: %w", err)
	}
	path := filepath.Join(w.dir, FileName(name))

	var buf bytes.Buffer
	if err := w.Encode(&buf, r); err != nil {
		return "", fmt.Errorf("encode fallback row: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o640); err != nil {
		return "", fmt.Errorf("write fallback file: %w", err)
	}
	return path, nil
}

// FileName is the campaign name with path separators replaced.
func FileName(name string) string {
	return strings.NewReplacer("/", "-", `\`, "-").Replace(name) + ".csv"
}
