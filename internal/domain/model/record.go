// Package model holds the per-student event record and the source row
// shapes it is folded from.
package model

import (
	"sort"
	"strings"
	"time"

	"github.com/okian/timelines/internal/domain/event"
)

// Annotation is an administrative action kept for display only.
type Annotation struct {
	Date time.Time
	Code string
}

// String renders e.g. "2020-06-01 DEIN:ENDC".
func (a Annotation) String() string {
	return a.Date.Format(time.DateOnly) + " " + a.Code
}

// NewAnnotation builds the "ACTION:REASON" code, dropping the colon when
// there is no reason.
func NewAnnotation(date time.Time, action, reason string) Annotation {
	code := strings.TrimSuffix(strings.ToUpper(action)+":"+strings.ToUpper(reason), ":")
	return Annotation{Date: date, Code: code}
}

// Record is one student's milestone dates within a cohort.
type Record struct {
	StudentID int
	Admin     []Annotation
	dates     map[event.Type]time.Time
}

// NewRecord creates a record seeded with the cohort's calendar dates.
func NewRecord(studentID int, s Session) *Record {
	r := &Record{
		StudentID: studentID,
		dates:     make(map[event.Type]time.Time, len(event.All())),
	}
	r.dates[event.StartEarlyEnrollment] = s.EarlyEnrollment
	r.dates[event.StartOpenEnrollment] = s.OpenEnrollment
	r.dates[event.StartClasses] = s.SessionStart
	r.dates[event.CensusDate] = s.CensusDate
	return r
}

// Set stores d for t. Admin is not a dated event and is ignored.
func (r *Record) Set(t event.Type, d time.Time) {
	if !t.Measurable() {
		return
	}
	r.dates[t] = Day(d)
}

// Get returns t's date if it is known.
func (r *Record) Get(t event.Type) (time.Time, bool) {
	d, ok := r.dates[t]
	if !ok || !Known(d) {
		return time.Time{}, false
	}
	return d, true
}

// SetEarliest keeps the smaller of the current and given date.
func (r *Record) SetEarliest(t event.Type, d time.Time) {
	if cur, ok := r.Get(t); ok && !d.Before(cur) {
		return
	}
	r.Set(t, d)
}

// SetLatest keeps the larger of the current and given date.
func (r *Record) SetLatest(t event.Type, d time.Time) {
	if cur, ok := r.Get(t); ok && !d.After(cur) {
		return
	}
	r.Set(t, d)
}

// Annotate appends an administrative annotation.
func (r *Record) Annotate(a Annotation) {
	r.Admin = append(r.Admin, a)
}

// Days is the elapsed days from p.Earlier to p.Later; ok is false when
// either date is unknown.
func (r *Record) Days(p event.Pair) (int, bool) {
	earlier, ok := r.Get(p.Earlier)
	if !ok {
		return 0, false
	}
	later, ok := r.Get(p.Later)
	if !ok {
		return 0, false
	}
	return DaysBetween(earlier, later), true
}

// AdminSummary joins the sorted annotations with "; ".
func (r *Record) AdminSummary() string {
	parts := make([]string, len(r.Admin))
	for i, a := range r.Admin {
		parts[i] = a.String()
	}
	sort.Strings(parts)
	return strings.Join(parts, "; ")
}
