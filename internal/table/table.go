// Package table reads uploaded CSV and XLSX files into an in-memory table
// with case-insensitive column lookup.
package table

import (
	"bytes"
	"io"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/Sreehari2710/Apify-Reels-Discovery/internal/model"
)

var zipMagic = []byte("PK\x03\x04")

// Table is a parsed upload: one header row followed by data rows. Rows may
// be shorter than the header.
type Table struct {
	Header []string
	Rows   [][]string

	index map[string]int
}

// New builds a table from a header and rows. Header names are trimmed;
// lookups ignore case.
func New(header []string, rows [][]string) *Table {
	t := &Table{
		Header: make([]string, len(header)),
		Rows:   rows,
		index:  make(map[string]int, len(header)),
	}
	for i, h := range header {
		h = strings.TrimSpace(h)
		t.Header[i] = h
		key := normalize(h)
		if _, dup := t.index[key]; !dup {
			t.index[key] = i
		}
	}
	return t
}

// Parse reads an upload, choosing XLSX when the filename says so or the
// content is a zip archive, and CSV otherwise.
func Parse(filename string, r io.Reader) (*Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, eris.Wrap(err, "table: read upload")
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if ext == ".xlsx" || bytes.HasPrefix(data, zipMagic) {
		return ParseXLSX(data)
	}
	return ParseCSV(bytes.NewReader(data))
}

// Has reports whether the header contains col.
func (t *Table) Has(col string) bool {
	_, ok := t.index[normalize(col)]
	return ok
}

// HasAll reports whether the header contains every one of cols.
func (t *Table) HasAll(cols ...string) bool {
	for _, c := range cols {
		if !t.Has(c) {
			return false
		}
	}
	return true
}

// Column returns the trimmed, non-empty values of col in row order. A
// missing column is a *model.SchemaError.
func (t *Table) Column(col string) ([]string, error) {
	idx, ok := t.index[normalize(col)]
	if !ok {
		return nil, &model.SchemaError{Column: col, Header: t.Header}
	}

	var out []string
	for _, row := range t.Rows {
		if idx >= len(row) {
			continue
		}
		if v := strings.TrimSpace(row[idx]); v != "" {
			out = append(out, v)
		}
	}
	return out, nil
}

// Value returns the trimmed cell of row under col, or "" when either is
// missing.
func (t *Table) Value(row []string, col string) string {
	idx, ok := t.index[normalize(col)]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

func normalize(col string) string {
	return strings.ToLower(strings.TrimSpace(col))
}
