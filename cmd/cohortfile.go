package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/afero"
)

const cohortColumn = "empl_id"

var errNoCohortColumn = errors.New("cohort file has no " + cohortColumn + " column")

// readCohortFile returns the student ids listed in the empl_id column of a
// CSV file. Blank cells are ignored; anything else that is not a number is
// an error.
func readCohortFile(fs afero.Fs, path string) ([]int, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open cohort file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read cohort file %s: %w", path, err)
	}
	col := -1
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if strings.ReplaceAll(h, " ", "_") == cohortColumn {
			col = i
			break
		}
	}
	if col < 0 {
		return nil, fmt.Errorf("%w: %s", errNoCohortColumn, path)
	}

	var ids []int
	for line := 2; ; line++ {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read cohort file %s: %w", path, err)
		}
		if col >= len(rec) || strings.TrimSpace(rec[col]) == "" {
			continue
		}
		id, err := strconv.Atoi(strings.TrimSpace(rec[col]))
		if err != nil {
			return nil, fmt.Errorf("cohort file %s line %d: bad student id %q", path, line, rec[col])
		}
		ids = append(ids, id)
	}
	return ids, nil
}
