package extract

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/afero"
)

// record is one CSV line keyed by normalized column name.
type record map[string]string

// normalizeHeader lowercases a column and joins words with underscores:
// "Session Beginning Date" becomes "session_beginning_date".
func normalizeHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	return strings.Join(strings.Fields(strings.ToLower(h)), "_")
}

// readCSV streams path through fn after checking the schema's columns.
func readCSV(fs afero.Fs, path string, schema Schema, fn func(record) error) (int, error) {
	f, err := fs.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.ReuseRecord = true

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return 0, fmt.Errorf("%w: %s is empty", ErrMissingColumn, path)
	}
	if err != nil {
		return 0, fmt.Errorf("read header of %s: %w", path, err)
	}
	cols := make([]string, len(header))
	present := make(map[string]bool, len(header))
	for i, h := range header {
		cols[i] = normalizeHeader(h)
		present[cols[i]] = true
	}
	for _, req := range schema.Required {
		if !present[req] {
			return 0, fmt.Errorf("%w: %s has no %q column", ErrMissingColumn, path, req)
		}
	}

	n := 0
	for {
		line, err := r.Read()
		if errors.Is(err, io.EOF) {
			return n, nil
		}
		if err != nil {
			return n, fmt.Errorf("read %s: %w", path, err)
		}
		rec := make(record, len(cols))
		for i, v := range line {
			if i < len(cols) {
				rec[cols[i]] = strings.TrimSpace(v)
			}
		}
		n++
		if err := fn(rec); err != nil {
			return n, err
		}
	}
}
