package event_test

import (
	"errors"
	"testing"

	"github.com/okian/timelines/internal/domain/event"
	. "github.com/smartystreets/goconvey/convey"
)

func TestVocabulary(t *testing.T) {
	Convey("Given the event vocabulary", t, func() {
		Convey("Then All keeps display order and includes Admin last", func() {
			all := event.All()
			So(len(all), ShouldEqual, 13)
			So(all[0], ShouldEqual, event.Apply)
			So(all[len(all)-1], ShouldEqual, event.Admin)
		})

		Convey("Then Measurable excludes Admin", func() {
			m := event.Measurable()
			So(len(m), ShouldEqual, 12)
			So(m, ShouldNotContain, event.Admin)
			So(event.Admin.Measurable(), ShouldBeFalse)
			So(event.Admin.Valid(), ShouldBeTrue)
		})

		Convey("Then calendar events are marked as such", func() {
			So(event.StartClasses.Source(), ShouldEqual, event.FromCalendar)
			So(event.CensusDate.Source(), ShouldEqual, event.FromCalendar)
			So(event.Admit.Source(), ShouldEqual, event.FromStudent)
			So(event.Admin.Source(), ShouldEqual, event.FromAdministration)
		})

		Convey("Then lookup accepts codes and names in any case", func() {
			for in, want := range map[string]event.Type{
				"admit":               event.Admit,
				" MATRIC ":            event.Matriculate,
				"Matriculate":         event.Matriculate,
				"firstevaluation":     event.FirstEvaluation,
				"LATEST_REG":          event.LatestRegistration,
				"StartOpenEnrollment": event.StartOpenEnrollment,
			} {
				got, ok := event.Lookup(in)
				So(ok, ShouldBeTrue)
				So(got, ShouldEqual, want)
			}
			_, ok := event.Lookup("graduate")
			So(ok, ShouldBeFalse)
		})

		Convey("Then labels and definitions are available", func() {
			So(event.FirstEvaluation.Label(), ShouldEqual, "First Eval")
			So(event.FirstEvaluation.Name(), ShouldEqual, "FirstEvaluation")
			defs := event.Definitions()
			So(len(defs), ShouldEqual, 12)
			So(defs[0].Code, ShouldEqual, event.Apply)
		})
	})
}

func TestParsePair(t *testing.T) {
	Convey("Given event pair arguments", t, func() {
		Convey("When the pair is valid", func() {
			p, err := event.ParsePair("ADMIT:Matric")

			Convey("Then both members resolve", func() {
				So(err, ShouldBeNil)
				So(p.Earlier, ShouldEqual, event.Admit)
				So(p.Later, ShouldEqual, event.Matriculate)
				So(p.String(), ShouldEqual, "admit:matric")
				So(p.Title(), ShouldEqual, "Admit to Matric")
				So(p.Reverse(), ShouldResemble, event.Pair{Earlier: event.Matriculate, Later: event.Admit})
			})
		})

		Convey("When a member is unknown", func() {
			_, err := event.ParsePair("admit:graduate")

			Convey("Then the error lists the valid names", func() {
				So(errors.Is(err, event.ErrUnknownEventType), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "admit:graduate")
				So(err.Error(), ShouldContainSubstring, "first_eval")
				So(err.Error(), ShouldContainSubstring, "census_date")
				So(err.Error(), ShouldNotContainSubstring, "  admin")
			})
		})

		Convey("When Admin is used", func() {
			_, err := event.ParsePair("admin:admit")
			So(errors.Is(err, event.ErrUnknownEventType), ShouldBeTrue)
		})

		Convey("When the structure is wrong", func() {
			for _, arg := range []string{"admit", "admit:matric:commit", ""} {
				_, err := event.ParsePair(arg)
				So(errors.Is(err, event.ErrUnknownEventType), ShouldBeTrue)
			}
		})

		Convey("When parsing several pairs", func() {
			pairs, err := event.ParsePairs([]string{"apply:admit", "first_eval:census_date"})
			So(err, ShouldBeNil)
			So(len(pairs), ShouldEqual, 2)

			_, err = event.ParsePairs([]string{"apply:admit", "bogus:admit"})
			So(err, ShouldNotBeNil)

			_, err = event.ParsePairs(nil)
			So(errors.Is(err, event.ErrNoPairs), ShouldBeTrue)
		})

		Convey("When building a pair from types", func() {
			p, err := event.NewPair(event.Commit, event.FirstEvaluation)
			So(err, ShouldBeNil)
			So(p.String(), ShouldEqual, "commit:first_eval")

			_, err = event.NewPair(event.Admin, event.Admit)
			So(err, ShouldNotBeNil)
		})
	})
}
