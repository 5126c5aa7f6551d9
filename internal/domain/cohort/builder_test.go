package cohort

import (
	"context"
	"errors"
	"testing"

	"github.com/okian/timelines/internal/domain/event"
	"github.com/okian/timelines/internal/domain/model"
	"github.com/okian/timelines/internal/domain/term"
	. "github.com/smartystreets/goconvey/convey"
)

type fakeSource struct {
	sessions      map[Key]model.Session
	admissions    []model.AdmissionRow
	evaluations   []model.EvaluationRow
	registrations []model.RegistrationRow
	err           error
}

func (f *fakeSource) Session(_ context.Context, inst string, t term.Code) (model.Session, bool, error) {
	if f.err != nil {
		return model.Session{}, false, f.err
	}
	s, ok := f.sessions[Key{Institution: inst, AdmitTerm: t}]
	return s, ok, nil
}

func (f *fakeSource) Admissions(_ context.Context, inst string, _ []term.Code) ([]model.AdmissionRow, error) {
	var out []model.AdmissionRow
	for _, r := range f.admissions {
		if r.Institution == inst {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeSource) Evaluations(context.Context, string, []term.Code) ([]model.EvaluationRow, error) {
	return f.evaluations, nil
}

func (f *fakeSource) Registrations(context.Context, string, []term.Code) ([]model.RegistrationRow, error) {
	return f.registrations, nil
}

func qnsSession() model.Session {
	early, _ := model.ParseDate("2020-04-01")
	open, _ := model.ParseDate("2020-05-01")
	start, _ := model.ParseDate("2020-08-26")
	census, _ := model.ParseDate("2020-09-17")
	return model.Session{
		Institution:     "QNS",
		Term:            1209,
		Number:          model.RegularSession,
		EarlyEnrollment: early,
		OpenEnrollment:  open,
		SessionStart:    start,
		CensusDate:      census,
	}
}

func adm(id, action, reason, date string, admitTerm term.Code) model.AdmissionRow {
	return model.AdmissionRow{
		StudentID:     id,
		Institution:   "QNS",
		AdmitTerm:     admitTerm,
		ProgramAction: action,
		ActionReason:  reason,
		EffectiveDate: date,
	}
}

func TestBuild(t *testing.T) {
	ctx := context.Background()
	admitMatric := event.Pair{Earlier: event.Admit, Later: event.Matriculate}

	Convey("Given a Queens Fall 2020 source", t, func() {
		src := &fakeSource{
			sessions: map[Key]model.Session{{Institution: "QNS", AdmitTerm: 1209}: qnsSession()},
			admissions: []model.AdmissionRow{
				adm("1001", "MATR", "", "2020-08-15", 1209),
				adm("1001", "ADMT", "", "2020-06-01", 1206),
				adm("1001", "APPL", "", "2020-03-01", 1209),
				adm("1002", "ADMT", "", "2020-06-10", 1209),
				adm("1002", "DEIN", "ENDC", "2020-07-01", 1209),
				adm("1003", "APPL", "", "2020-02-01", 1212),
				adm("abc", "ADMT", "", "2020-06-01", 1209),
				adm("1004", "ADMT", "", "not a date", 1209),
				adm("1005", "WADM", "", "2020-07-15", 1209),
				adm("1005", "XFER", "", "2020-07-16", 1209),
			},
			evaluations: []model.EvaluationRow{
				{StudentID: "1001", DstInstitution: "QNS01", ArticulationTerm: 1209, PostedDate: "2020-07-01"},
				{StudentID: "1001", DstInstitution: "QNS01", ArticulationTerm: 1206, PostedDate: "2020-06-15"},
				{StudentID: "1001", DstInstitution: "QNS01", ArticulationTerm: 1209, PostedDate: "1901-01-01"},
				{StudentID: "1001", DstInstitution: "BAR01", ArticulationTerm: 1209, PostedDate: "2020-05-01"},
				{StudentID: "9999", DstInstitution: "QNS01", ArticulationTerm: 1209, PostedDate: "2020-07-01"},
			},
			registrations: []model.RegistrationRow{
				{StudentID: "1002", Institution: "QNS01", Term: 1209, AddDate: "2020-07-20"},
				{StudentID: "1002", Institution: "QNS01", Term: 1209, AddDate: "2020-08-20"},
				{StudentID: "1002", Institution: "QNS01", Term: 1212, AddDate: "2020-12-01"},
			},
		}
		b := NewBuilder(src)

		Convey("When the cohort is built", func() {
			c, err := b.Build(ctx, "qns", 1209)
			So(err, ShouldBeNil)

			Convey("Then membership comes from admissions in the window", func() {
				So(c.Key, ShouldResemble, Key{Institution: "QNS", AdmitTerm: 1209})
				So(c.StudentIDs(), ShouldResemble, []int{1001, 1002, 1004, 1005})
				So(c.Len(), ShouldEqual, len(c.Records()))
				So(c.Verify(), ShouldBeNil)
			})

			Convey("Then bad rows are counted", func() {
				So(c.Issues.BadStudentIDs, ShouldEqual, 1)
				So(c.Issues.BadDates, ShouldEqual, 1)
			})

			Convey("Then admit to matric is 75 days", func() {
				r, ok := c.Record(1001)
				So(ok, ShouldBeTrue)
				days, ok := r.Days(admitMatric)
				So(ok, ShouldBeTrue)
				So(days, ShouldEqual, 75)
			})

			Convey("Then a DEIN with ENDC commits and matriculates", func() {
				r, _ := c.Record(1002)
				commit, ok := r.Get(event.Commit)
				So(ok, ShouldBeTrue)
				matric, ok := r.Get(event.Matriculate)
				So(ok, ShouldBeTrue)
				So(commit, ShouldEqual, matric)
				So(r.AdminSummary(), ShouldEqual, "2020-07-01 DEIN:ENDC")
			})

			Convey("Then evaluations fold to first and latest after the sentinel", func() {
				r, _ := c.Record(1001)
				first, _ := r.Get(event.FirstEvaluation)
				latest, _ := r.Get(event.LatestEvaluation)
				So(model.FormatDate(first), ShouldEqual, "2020-06-15")
				So(model.FormatDate(latest), ShouldEqual, "2020-07-01")
			})

			Convey("Then registrations fold within the window", func() {
				r, _ := c.Record(1002)
				first, _ := r.Get(event.FirstRegistration)
				latest, _ := r.Get(event.LatestRegistration)
				So(model.FormatDate(first), ShouldEqual, "2020-07-20")
				So(model.FormatDate(latest), ShouldEqual, "2020-08-20")
			})

			Convey("Then calendar dates seed every record", func() {
				r, _ := c.Record(1005)
				start, ok := r.Get(event.StartClasses)
				So(ok, ShouldBeTrue)
				So(model.FormatDate(start), ShouldEqual, "2020-08-26")
				So(r.AdminSummary(), ShouldEqual, "2020-07-15 WADM")
			})

			Convey("Then deltas skip students missing either date", func() {
				So(c.Deltas(admitMatric), ShouldResemble, []int{75, 21})
				So(c.Deltas(admitMatric.Reverse()), ShouldResemble, []int{-75, -21})
			})
		})

		Convey("When students have only actions outside the folded set", func() {
			src.admissions = []model.AdmissionRow{
				adm("1001", "ADMT", "", "2020-06-01", 1209),
				adm("2002", "PRGC", "", "2020-06-02", 1209),
				adm("3003", "ddef", "", "2020-06-03", 1209),
				adm("4004", " matr ", "", "2020-06-04", 1209),
			}
			c, err := b.Build(ctx, "QNS", 1209)
			So(err, ShouldBeNil)

			Convey("Then they are not members", func() {
				So(c.StudentIDs(), ShouldResemble, []int{1001, 4004})
				So(c.Len(), ShouldEqual, 2)
				_, ok := c.Record(2002)
				So(ok, ShouldBeFalse)
				So(len(c.Records()), ShouldEqual, 2)
			})
		})

		Convey("When an allow-list is given", func() {
			c, err := NewBuilder(src, WithAllowList([]int{1002, 4242})).Build(ctx, "QNS", 1209)
			So(err, ShouldBeNil)
			So(c.StudentIDs(), ShouldResemble, []int{1002})
		})

		Convey("When the term has no session", func() {
			_, err := b.Build(ctx, "QNS", 1219)
			So(errors.Is(err, ErrNoSession), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "QNS-1219")
		})

		Convey("When the source fails", func() {
			boom := errors.New("boom")
			src.err = boom
			_, err := b.Build(ctx, "QNS", 1209)
			So(errors.Is(err, boom), ShouldBeTrue)
		})
	})
}

func TestVerify(t *testing.T) {
	Convey("Given a cohort", t, func() {
		c := newCohort(Key{Institution: "BAR", AdmitTerm: 1212}, model.Session{})
		c.enroll(1)
		c.record(1)

		Convey("When members and records agree", func() {
			So(c.Verify(), ShouldBeNil)
		})

		Convey("When a record has no admission", func() {
			c.record(2)
			err := c.Verify()
			So(errors.Is(err, ErrMembershipMismatch), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "BAR-1212 record 2")
			So(c.Len(), ShouldEqual, 1)
			So(len(c.Records()), ShouldEqual, 2)
		})

		Convey("When an admitted student has no record", func() {
			c.enroll(3)
			err := c.Verify()
			So(errors.Is(err, ErrMembershipMismatch), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "BAR-1212 student 3")
		})
	})
}

func TestSuperCohort(t *testing.T) {
	Convey("Given two senior college cohorts", t, func() {
		pair := event.Pair{Earlier: event.Admit, Later: event.Matriculate}
		build := func(inst string, ids []int, days []int) *Cohort {
			c := newCohort(Key{Institution: inst, AdmitTerm: 1209}, model.Session{})
			admit, _ := model.ParseDate("2020-06-01")
			for i, id := range ids {
				c.enroll(id)
				r := c.record(id)
				r.Set(event.Admit, admit)
				r.Set(event.Matriculate, admit.AddDate(0, 0, days[i]))
			}
			return c
		}
		bar := build("BAR", []int{2, 1}, []int{20, 10})
		qns := build("QNS", []int{1, 3}, []int{5, 7})

		s := NewSuperCohort("BCHJLQSY", 1209)
		s.Absorb(bar)
		s.Absorb(qns)

		Convey("Then the same student in two colleges counts twice", func() {
			So(s.Len(), ShouldEqual, 4)
			So(s.Institutions(), ShouldResemble, []string{"BAR", "QNS"})
		})

		Convey("Then deltas are the union in member then id order", func() {
			So(s.Deltas(pair), ShouldResemble, []int{10, 20, 5, 7})
			So(len(s.Deltas(pair)), ShouldEqual, len(bar.Deltas(pair))+len(qns.Deltas(pair)))
		})

		Convey("Then absorbing an institution again replaces it", func() {
			s.Absorb(build("BAR", []int{9}, []int{1}))
			So(s.Len(), ShouldEqual, 3)
			So(s.Institutions(), ShouldResemble, []string{"BAR", "QNS"})
		})
	})
}
