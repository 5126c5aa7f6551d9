// Package cohort groups students into (institution, admit term) cohorts,
// folds their source rows into event records, and extracts day deltas.
package cohort

import (
	"fmt"
	"sort"

	"github.com/okian/timelines/internal/domain/event"
	"github.com/okian/timelines/internal/domain/model"
	"github.com/okian/timelines/internal/domain/term"
)

// Key identifies a cohort.
type Key struct {
	Institution string
	AdmitTerm   term.Code
}

// String renders e.g. "QNS-1209", the stem of the timeline file name.
func (k Key) String() string {
	return fmt.Sprintf("%s-%d", k.Institution, int(k.AdmitTerm))
}

// Issues counts source rows that could not be folded.
type Issues struct {
	BadStudentIDs int
	BadDates      int
}

// Cohort is the set of students admitted to one institution for one admit
// term, with their event records.
type Cohort struct {
	Key     Key
	Session model.Session
	Issues  Issues

	members map[int]struct{}
	records map[int]*model.Record
}

func newCohort(key Key, session model.Session) *Cohort {
	return &Cohort{
		Key:     key,
		Session: session,
		members: make(map[int]struct{}),
		records: make(map[int]*model.Record),
	}
}

// enroll adds id to the admission-derived student set.
func (c *Cohort) enroll(id int) { c.members[id] = struct{}{} }

// record returns the student's record, creating it on first sight.
func (c *Cohort) record(id int) *model.Record {
	r, ok := c.records[id]
	if !ok {
		r = model.NewRecord(id, c.Session)
		c.records[id] = r
	}
	return r
}

// Len is the number of students.
func (c *Cohort) Len() int { return len(c.members) }

// Record returns the student's record.
func (c *Cohort) Record(id int) (*model.Record, bool) {
	r, ok := c.records[id]
	return r, ok
}

// StudentIDs lists the members in ascending order.
func (c *Cohort) StudentIDs() []int {
	ids := make([]int, 0, len(c.members))
	for id := range c.members {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Records lists the records in ascending student id order.
func (c *Cohort) Records() []*model.Record {
	ids := make([]int, 0, len(c.records))
	for id := range c.records {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	out := make([]*model.Record, 0, len(ids))
	for _, id := range ids {
		out = append(out, c.records[id])
	}
	return out
}

// Verify checks that the admission-derived student set and the record keys
// are the same set.
func (c *Cohort) Verify() error {
	for _, id := range c.StudentIDs() {
		if _, ok := c.records[id]; !ok {
			return fmt.Errorf("%w: %s student %d has no record", ErrMembershipMismatch, c.Key, id)
		}
	}
	for _, r := range c.Records() {
		if _, ok := c.members[r.StudentID]; !ok {
			return fmt.Errorf("%w: %s record %d has no admission", ErrMembershipMismatch, c.Key, r.StudentID)
		}
	}
	return nil
}

// Deltas returns the cohort's day deltas for p.
func (c *Cohort) Deltas(p event.Pair) []int {
	return Deltas(c.Records(), p)
}

// Deltas collects later minus earlier, in days, for every record where both
// dates are known. Negative values are kept.
func Deltas(records []*model.Record, p event.Pair) []int {
	out := make([]int, 0, len(records))
	for _, r := range records {
		if d, ok := r.Days(p); ok {
			out = append(out, d)
		}
	}
	return out
}
