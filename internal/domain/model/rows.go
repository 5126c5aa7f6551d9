package model

import (
	"time"

	"github.com/okian/timelines/internal/domain/term"
)

// Session is the calendar of one (institution, term, session) triple.
// Missing dates hold MissingDate.
type Session struct {
	Institution     string
	Term            term.Code
	Number          string
	EarlyEnrollment time.Time
	OpenEnrollment  time.Time
	LastWaitlist    time.Time
	EndEnrollment   time.Time
	SessionStart    time.Time
	CensusDate      time.Time
	SixtyPercent    time.Time
	SessionEnd      time.Time
}

// RegularSession is the session number whose calendar seeds a cohort.
const RegularSession = "1"

// AdmissionRow is one program action from the admissions extract. Ids and
// dates stay textual so malformed values can be reported per row.
type AdmissionRow struct {
	StudentID       string
	Institution     string
	AdmitTerm       term.Code
	RequirementTerm term.Code
	ProgramAction   string
	ActionReason    string
	ActionDate      string
	EffectiveDate   string
}

// EvaluationRow is one posted course-credit evaluation.
type EvaluationRow struct {
	StudentID        string
	DstInstitution   string
	ArticulationTerm term.Code
	PostedDate       string
}

// RegistrationRow is one course registration.
type RegistrationRow struct {
	StudentID   string
	Institution string
	Term        term.Code
	AddDate     string
	DropDate    string
}
