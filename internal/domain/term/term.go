// Package term handles CUNYfirst-style term codes (CYYM: century digit,
// two-digit year, month digit) and the admit-term merging rule.
package term

import (
	"fmt"
	"strconv"
	"strings"
)

// Code is a term code such as 1209 (Fall 2020) or 1212 (Spring 2021).
type Code int

// Semester month digits.
const (
	Spring = 2
	Summer = 6
	Fall   = 9
)

// Parse reads a term code, accepting only month digits 2, 6 and 9.
func Parse(s string) (Code, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTerm, s)
	}
	c := Code(n)
	if err := c.Validate(); err != nil {
		return 0, err
	}
	return c, nil
}

// ParseAll parses every code, failing on the first bad one.
func ParseAll(ss []string) ([]Code, error) {
	out := make([]Code, 0, len(ss))
	for _, s := range ss {
		c, err := Parse(s)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// Validate checks the range and month digit.
func (c Code) Validate() error {
	if c < 1000 || c > 9999 {
		return fmt.Errorf("%w: %d is not a four digit code", ErrInvalidTerm, int(c))
	}
	switch c.Month() {
	case Spring, Summer, Fall:
		return nil
	}
	return fmt.Errorf("%w: %d has month digit %d", ErrInvalidTerm, int(c), c.Month())
}

// Month is the final digit.
func (c Code) Month() int { return int(c) % 10 }

// Year is the calendar year: 1209 -> 2020, 992 -> 1999.
func (c Code) Year() int {
	t := int(c)
	return 1900 + 100*(t/1000) + (t/10)%100
}

// Semester is "Spring" for month digit 2 and "Fall" otherwise; summer
// admits are reported with the fall cohort they merge into.
func (c Code) Semester() string {
	if c.Month() == Spring {
		return "Spring"
	}
	return "Fall"
}

// Name is the display name, e.g. "Fall 2020".
func (c Code) Name() string {
	return fmt.Sprintf("%s %d", c.Semester(), c.Year())
}

func (c Code) String() string { return strconv.Itoa(int(c)) }

// Window returns the term codes whose rows belong to an admit term's
// cohort. Non-spring terms merge the summer and fall of the same year.
func (c Code) Window() []Code {
	if c.Month() == Spring {
		return []Code{c}
	}
	base := 10 * (c / 10)
	return []Code{base + Summer, base + Fall}
}

// Contains reports whether other falls in c's window.
func (c Code) Contains(other Code) bool {
	for _, w := range c.Window() {
		if w == other {
			return true
		}
	}
	return false
}

// Admittable reports whether c may be offered as a default admit term:
// spring or fall, from Spring 2013 on.
func (c Code) Admittable() bool {
	return c >= 1132 && (c.Month() == Spring || c.Month() == Fall)
}
