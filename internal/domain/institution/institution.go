// Package institution is the catalog of campus codes.
package institution

import (
	"fmt"
	"sort"
	"strings"
)

var names = map[string]string{
	"BAR": "Baruch",
	"BCC": "Bronx",
	"BKL": "Brooklyn",
	"BMC": "BMCC",
	"CSI": "Staten Island",
	"CTY": "City",
	"HOS": "Hostos",
	"HTR": "Hunter",
	"JJC": "John Jay",
	"KCC": "Kingsborough",
	"LAG": "LaGuardia",
	"LEH": "Lehman",
	"MEC": "Medgar Evers",
	"NCC": "Guttman",
	"NYT": "City Tech",
	"QCC": "Queensborough",
	"QNS": "Queens",
	"SLU": "Labor/Urban",
	"SOJ": "Journalism",
	"SPH": "Public Health",
	"SPS": "SPS",
	"YRK": "York",
}

// Defaults is the institution list used when none is configured.
var Defaults = []string{
	"BCC", "BMC", "HOS", "KCC", "LAG", "QCC", "CSI", "MEC", "NYT",
	"BAR", "BKL", "CTY", "HTR", "JJC", "LEH", "QNS", "SPS", "YRK",
}

// SeniorColleges is the default super-cohort membership.
var SeniorColleges = []string{"BAR", "BKL", "CTY", "HTR", "JJC", "LEH", "QNS", "SLU", "SPS", "YRK"}

// Normalize reduces a campus code to its upper-case three-letter form:
// "qns" and "QNS01" both become "QNS".
func Normalize(code string) string {
	c := strings.ToUpper(strings.TrimSpace(code))
	if len(c) > 3 {
		c = c[:3]
	}
	return c
}

// Known reports whether code is in the catalog.
func Known(code string) bool {
	_, ok := names[Normalize(code)]
	return ok
}

// Validate normalizes every code and rejects unknown ones. Codes that
// normalize to one already seen are dropped, keeping first-seen order.
func Validate(codes []string) ([]string, error) {
	out := make([]string, 0, len(codes))
	seen := make(map[string]bool, len(codes))
	for _, c := range codes {
		n := Normalize(c)
		if _, ok := names[n]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownInstitution, c)
		}
		if seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out, nil
}

// Name is the display name, falling back to the code itself. Super-cohort
// codes are not in the catalog and display as given.
func Name(code string) string {
	if n, ok := names[Normalize(code)]; ok {
		return n
	}
	return code
}

// Codes lists the catalog, sorted.
func Codes() []string {
	out := make([]string, 0, len(names))
	for c := range names {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// SuperCode builds the super-cohort code from the members' first letters
// with consecutive repeats collapsed. The default senior colleges give
// "BCHJLQSY".
func SuperCode(members []string) string {
	var b strings.Builder
	var last byte
	for _, m := range members {
		n := Normalize(m)
		if n == "" {
			continue
		}
		if n[0] != last {
			b.WriteByte(n[0])
			last = n[0]
		}
	}
	return b.String()
}
