package stats

import (
	"fmt"
	"strings"
)

// Field names a reportable statistic.
type Field string

// Reportable statistics in display order.
const (
	FieldN       Field = "n"
	FieldMedian  Field = "median"
	FieldMean    Field = "mean"
	FieldMode    Field = "mode"
	FieldMin     Field = "min"
	FieldMax     Field = "max"
	FieldQ1      Field = "q1"
	FieldQ2      Field = "q2"
	FieldQ3      Field = "q3"
	FieldSIQR    Field = "siqr"
	FieldStdDev  Field = "std_dev"
	FieldConfInt Field = "conf_int"
)

var fieldLabels = map[Field]string{
	FieldN:       "N",
	FieldMedian:  "Median",
	FieldMean:    "Mean",
	FieldMode:    "Mode",
	FieldMin:     "Min",
	FieldMax:     "Max",
	FieldQ1:      "Q1",
	FieldQ2:      "Q2",
	FieldQ3:      "Q3",
	FieldSIQR:    "SIQR",
	FieldStdDev:  "Std Dev",
	FieldConfInt: "95% Conf",
}

// DefaultFields is the default report selection.
var DefaultFields = []Field{
	FieldN, FieldMedian, FieldMean, FieldMode, FieldMin, FieldMax,
	FieldQ1, FieldQ2, FieldQ3, FieldSIQR, FieldStdDev,
}

// ParseFields resolves statistic names case-insensitively. N is always
// reported and is prepended when missing.
func ParseFields(names []string) ([]Field, error) {
	out := []Field{FieldN}
	for _, name := range names {
		f := Field(strings.ToLower(strings.TrimSpace(name)))
		if _, ok := fieldLabels[f]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownField, name)
		}
		if f == FieldN {
			continue
		}
		out = append(out, f)
	}
	return out, nil
}

// Label is the display label, e.g. "Std Dev".
func (f Field) Label() string {
	if l, ok := fieldLabels[f]; ok {
		return l
	}
	return string(f)
}

// Value extracts f from s. ok is false when the summary does not carry it.
func (s Summary) Value(f Field) (float64, bool) {
	if f == FieldN {
		return float64(s.N), true
	}
	d := s.Descriptive
	if d == nil {
		return 0, false
	}
	switch f {
	case FieldMedian:
		return d.Median, true
	case FieldMean:
		return d.Mean, true
	case FieldMode:
		return float64(d.Mode), true
	case FieldMin:
		return float64(d.Min), true
	case FieldMax:
		return float64(d.Max), true
	case FieldQ1:
		return d.Q1, true
	case FieldQ2:
		return d.Q2, true
	case FieldQ3:
		return d.Q3, true
	case FieldSIQR:
		return d.SIQR, true
	case FieldStdDev:
		return d.StdDev, true
	case FieldConfInt:
		return d.ConfidenceInterval, true
	}
	return 0, false
}
