package logger

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestLoggerInit(t *testing.T) {
	err := Init()
	if err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() {
		if err := Sync(); err != nil {
			t.Errorf("failed to sync logger: %v", err)
		}
	}()

	if Get() == nil {
		t.Fatal("logger is nil after initialization")
	}
}

func TestLoggerOutput(t *testing.T) {
	Convey("Given a logger writing to a buffer", t, func() {
		var buf bytes.Buffer
		So(InitWithWriter(&buf), ShouldBeNil)
		ctx := context.Background()

		Convey("When logging with fields", func() {
			Get().Info(ctx, "cohort built", String("institution", "QNS"), Int("students", 12))

			Convey("Then the fields and caller are written", func() {
				out := buf.String()
				So(out, ShouldContainSubstring, "cohort built")
				So(out, ShouldContainSubstring, "institution=QNS")
				So(out, ShouldContainSubstring, "students=12")
				So(out, ShouldContainSubstring, "logger_test.go")
			})
		})

		Convey("When using a named logger with bound fields", func() {
			Named("builder").With(String("run_id", "abc")).Warn(ctx, "no session")

			Convey("Then component and bound fields appear", func() {
				out := buf.String()
				So(out, ShouldContainSubstring, "component=builder")
				So(out, ShouldContainSubstring, "run_id=abc")
				So(out, ShouldContainSubstring, "level=WARN")
			})
		})

		Convey("When the level filters debug", func() {
			Get().Debug(ctx, "hidden")
			So(buf.String(), ShouldNotContainSubstring, "hidden")

			So(SetLevelString("debug"), ShouldBeNil)
			Get().Debug(ctx, "shown")
			So(buf.String(), ShouldContainSubstring, "shown")
			So(SetLevelString("info"), ShouldBeNil)
		})

		Convey("When formatting dates and durations", func() {
			d := time.Date(2020, 6, 1, 0, 0, 0, 0, time.UTC)
			So(Date("admit", d).Value, ShouldEqual, "2020-06-01")
			So(Date("admit", time.Time{}).Value, ShouldEqual, "none")
			So(Duration("took", 1500*time.Microsecond).Value, ShouldEqual, "2ms")
			So(Error(errors.New("boom")).Key, ShouldEqual, "error")
		})
	})
}

func TestSetLevelString(t *testing.T) {
	Convey("Given level strings", t, func() {
		for _, lvl := range []string{"debug", "INFO", " warn ", "warning", "error", ""} {
			So(SetLevelString(lvl), ShouldBeNil)
		}
		err := SetLevelString("loud")
		So(err, ShouldNotBeNil)
		So(strings.Contains(err.Error(), "loud"), ShouldBeTrue)
		So(SetLevelString("info"), ShouldBeNil)
	})
}
