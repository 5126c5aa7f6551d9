// Package event defines the closed vocabulary of milestone events that make
// up a student's transfer timeline, and the ordered pairs measured between
// them.
package event

import (
	"fmt"
	"strings"
)

// Type is a milestone event code, e.g. "admit" or "first_eval".
type Type string

// The vocabulary, in display order.
const (
	Apply                Type = "apply"
	Admit                Type = "admit"
	Commit               Type = "commit"
	Matriculate          Type = "matric"
	FirstEvaluation      Type = "first_eval"
	LatestEvaluation     Type = "latest_eval"
	StartEarlyEnrollment Type = "start_early_enr"
	StartOpenEnrollment  Type = "start_open_enr"
	StartClasses         Type = "start_classes"
	CensusDate           Type = "census_date"
	FirstRegistration    Type = "first_reg"
	LatestRegistration   Type = "latest_reg"
	Admin                Type = "admin"
)

// Source says where an event's date comes from.
type Source int

const (
	// FromStudent dates come from a student's own admission, evaluation or
	// registration rows.
	FromStudent Source = iota
	// FromCalendar dates are fixed for a cohort by its session calendar.
	FromCalendar
	// FromAdministration marks display-only annotations.
	FromAdministration
)

type descriptor struct {
	typ        Type
	name       string
	label      string
	definition string
	source     Source
}

var vocabulary = []descriptor{
	{Apply, "Apply", "Apply", "Student submitted transfer application", FromStudent},
	{Admit, "Admit", "Admit", "College admitted student", FromStudent},
	{Commit, "Commit", "Commit", "Student committed to attend", FromStudent},
	{Matriculate, "Matriculate", "Matric", "Student matriculated", FromStudent},
	{FirstEvaluation, "FirstEvaluation", "First Eval", "First date college evaluated student’s courses", FromStudent},
	{LatestEvaluation, "LatestEvaluation", "Latest Eval", "Latest date college evaluated student’s courses", FromStudent},
	{StartEarlyEnrollment, "StartEarlyEnrollment", "Early Enroll", "Start of early enrollment period", FromCalendar},
	{StartOpenEnrollment, "StartOpenEnrollment", "Open Enroll", "Start of open enrollment period", FromCalendar},
	{StartClasses, "StartClasses", "Start Classes", "First day of classes", FromCalendar},
	{CensusDate, "CensusDate", "Census Date", "Official enrollment headcount date", FromCalendar},
	{FirstRegistration, "FirstRegistration", "First Register", "Date student first registered for courses", FromStudent},
	{LatestRegistration, "LatestRegistration", "Latest Register", "Latest date student altered registration", FromStudent},
	{Admin, "Admin", "Admin", "Deposit and administrative withdrawal annotations", FromAdministration},
}

var byKey = func() map[string]descriptor {
	m := make(map[string]descriptor, 2*len(vocabulary))
	for _, d := range vocabulary {
		m[string(d.typ)] = d
		m[strings.ToLower(d.name)] = d
	}
	return m
}()

// All returns every event type in display order, Admin included.
func All() []Type {
	out := make([]Type, len(vocabulary))
	for i, d := range vocabulary {
		out[i] = d.typ
	}
	return out
}

// Measurable returns the event types usable in an event pair.
func Measurable() []Type {
	out := make([]Type, 0, len(vocabulary)-1)
	for _, d := range vocabulary {
		if d.source != FromAdministration {
			out = append(out, d.typ)
		}
	}
	return out
}

// Lookup resolves a code ("first_eval") or name ("FirstEvaluation"),
// ignoring case and surrounding space.
func Lookup(s string) (Type, bool) {
	d, ok := byKey[strings.ToLower(strings.TrimSpace(s))]
	return d.typ, ok
}

// Valid reports whether t belongs to the vocabulary.
func (t Type) Valid() bool {
	_, ok := byKey[string(t)]
	return ok
}

// Measurable reports whether t may appear in an event pair.
func (t Type) Measurable() bool {
	d, ok := byKey[string(t)]
	return ok && d.source != FromAdministration
}

// Label is the short human label, e.g. "First Eval".
func (t Type) Label() string {
	if d, ok := byKey[string(t)]; ok {
		return d.label
	}
	return string(t)
}

// Name is the CamelCase name, e.g. "FirstEvaluation".
func (t Type) Name() string {
	if d, ok := byKey[string(t)]; ok {
		return d.name
	}
	return string(t)
}

// Source reports where t's date comes from.
func (t Type) Source() Source {
	return byKey[string(t)].source
}

func (t Type) String() string { return string(t) }

// Definition is one row of the event glossary.
type Definition struct {
	Code       Type
	Label      string
	Definition string
}

// Definitions lists the measurable events with their meaning.
func Definitions() []Definition {
	out := make([]Definition, 0, len(vocabulary))
	for _, d := range vocabulary {
		if d.source == FromAdministration {
			continue
		}
		out = append(out, Definition{Code: d.typ, Label: d.label, Definition: d.definition})
	}
	return out
}

func validCodes() string {
	codes := Measurable()
	parts := make([]string, len(codes))
	for i, c := range codes {
		parts[i] = string(c)
	}
	return strings.Join(parts, "\n  ")
}

func unknown(arg string) error {
	return fmt.Errorf("%w: “%s” does not match earlier:later event pair structure.\nValid event types are:\n  %s",
		ErrUnknownEventType, arg, validCodes())
}
