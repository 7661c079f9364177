package timeutil_test

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/mooot/league/pkg/timeutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestWindows(t *testing.T) {
	madrid, err := time.LoadLocation("Europe/Madrid")
	if err != nil {
		t.Fatal(err)
	}

	Convey("Given the Madrid timezone", t, func() {
		Convey("When an instant is late on the last UTC day of a month", func() {
			now := time.Date(2024, 10, 31, 23, 30, 0, 0, time.UTC)

			Convey("Then it already belongs to the next local month", func() {
				from, to := timeutil.MonthWindow(now, madrid)
				So(from.Equal(time.Date(2024, 11, 1, 0, 0, 0, 0, madrid)), ShouldBeTrue)
				So(to.Equal(time.Date(2024, 12, 1, 0, 0, 0, 0, madrid)), ShouldBeTrue)
				So(timeutil.PeriodCode(now, madrid), ShouldEqual, 11)
			})
		})

		Convey("When the day is a DST fall-back day", func() {
			from, to := timeutil.DayWindow(time.Date(2024, 10, 27, 12, 0, 0, 0, time.UTC), madrid)

			Convey("Then the window spans 25 hours", func() {
				So(to.Sub(from), ShouldEqual, 25*time.Hour)
			})
		})

		Convey("When the day is a DST spring-forward day", func() {
			from, to := timeutil.DayWindow(time.Date(2024, 3, 31, 12, 0, 0, 0, time.UTC), madrid)
			So(to.Sub(from), ShouldEqual, 23*time.Hour)
		})
	})
}

func TestMonthEnd(t *testing.T) {
	Convey("Given dates near the end of a month", t, func() {
		So(timeutil.IsLastDayOfMonth(time.Date(2024, 2, 29, 10, 0, 0, 0, time.UTC), time.UTC), ShouldBeTrue)
		So(timeutil.IsLastDayOfMonth(time.Date(2023, 2, 28, 10, 0, 0, 0, time.UTC), time.UTC), ShouldBeTrue)
		So(timeutil.IsLastDayOfMonth(time.Date(2024, 2, 28, 10, 0, 0, 0, time.UTC), time.UTC), ShouldBeFalse)
		So(timeutil.DaysRemainingInMonth(time.Date(2024, 4, 20, 0, 0, 0, 0, time.UTC), time.UTC), ShouldEqual, 10)
		So(timeutil.LastDayOfMonth(time.Date(2024, 12, 5, 0, 0, 0, 0, time.UTC), time.UTC), ShouldEqual, 31)
	})
}
