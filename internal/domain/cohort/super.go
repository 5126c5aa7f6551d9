package cohort

import (
	"github.com/okian/timelines/internal/domain/event"
	"github.com/okian/timelines/internal/domain/model"
	"github.com/okian/timelines/internal/domain/term"
)

// SuperCohort mirrors the cohorts of several institutions for one admit
// term. Records stay keyed by institution so the same student admitted to
// two colleges counts twice.
type SuperCohort struct {
	Code      string
	AdmitTerm term.Code

	order   []string
	members map[string]*Cohort
}

// NewSuperCohort creates an empty super-cohort.
func NewSuperCohort(code string, admitTerm term.Code) *SuperCohort {
	return &SuperCohort{
		Code:      code,
		AdmitTerm: admitTerm,
		members:   make(map[string]*Cohort),
	}
}

// Absorb adds c. A second cohort for the same institution replaces the
// first.
func (s *SuperCohort) Absorb(c *Cohort) {
	inst := c.Key.Institution
	if _, ok := s.members[inst]; !ok {
		s.order = append(s.order, inst)
	}
	s.members[inst] = c
}

// Institutions lists the absorbed institutions in absorption order.
func (s *SuperCohort) Institutions() []string {
	return append([]string(nil), s.order...)
}

// Len is the total number of member records.
func (s *SuperCohort) Len() int {
	n := 0
	for _, c := range s.members {
		n += c.Len()
	}
	return n
}

// Records lists every member record, by institution then student id.
func (s *SuperCohort) Records() []*model.Record {
	var out []*model.Record
	for _, inst := range s.order {
		out = append(out, s.members[inst].Records()...)
	}
	return out
}

// Deltas is the union of the members' deltas for p.
func (s *SuperCohort) Deltas(p event.Pair) []int {
	return Deltas(s.Records(), p)
}
