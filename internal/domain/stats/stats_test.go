package stats_test

import (
	"testing"
	"time"

	model "github.com/okian/triage/internal/domain/model"
	stats "github.com/okian/triage/internal/domain/stats"
	. "github.com/smartystreets/goconvey/convey"
)

func matched(staff string, created time.Time, minutes float64) model.Assignment {
	return model.Assignment{
		Identity:  staff + created.String(),
		Staff:     staff,
		State:     model.StateMatched,
		CreatedAt: created,
		Matched:   created.Add(time.Duration(minutes * float64(time.Minute))),
		Duration:  time.Duration(minutes * float64(time.Minute)),
	}
}

func TestCompute(t *testing.T) {
	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	Convey("Given a staff member with durations [5,10,15] minutes", t, func() {
		rows := stats.Compute([]model.Assignment{
			matched("amy@x", base, 5),
			matched("amy@x", base.Add(time.Minute), 10),
			matched("amy@x", base.Add(2*time.Minute), 15),
		}, time.Time{}, time.Time{})

		Convey("Then the median is 10 and the row is low-confidence", func() {
			So(rows, ShouldHaveLength, 1)
			So(rows[0].HasData, ShouldBeTrue)
			So(rows[0].MedianMinutes, ShouldEqual, 10)
			So(rows[0].P90Minutes, ShouldAlmostEqual, 14, 0.0001)
			So(rows[0].LowConfidence, ShouldBeTrue)
			So(rows[0].Assigned, ShouldEqual, 3)
			So(rows[0].Completed, ShouldEqual, 3)
		})
	})

	Convey("Given a staff member with open work and no matched samples", t, func() {
		rows := stats.Compute([]model.Assignment{
			{Identity: "i1", Staff: "bob@x", State: model.StateOpen, CreatedAt: base},
		}, time.Time{}, time.Time{})

		Convey("Then the row renders as no data, not zero", func() {
			So(rows, ShouldHaveLength, 1)
			So(rows[0].HasData, ShouldBeFalse)
			So(rows[0].Active, ShouldEqual, 1)
			So(rows[0].MedianMinutes, ShouldEqual, 0)
		})
	})

	Convey("Given eleven matched samples", t, func() {
		var as []model.Assignment
		for i := 0; i < 11; i++ {
			as = append(as, matched("cal@x", base.Add(time.Duration(i)*time.Minute), float64(i+1)))
		}
		rows := stats.Compute(as, time.Time{}, time.Time{})

		Convey("Then the row is not low-confidence", func() {
			So(rows[0].LowConfidence, ShouldBeFalse)
			So(rows[0].MedianMinutes, ShouldEqual, 6)
			So(rows[0].P90Minutes, ShouldEqual, 10)
		})
	})

	Convey("Given a date range", t, func() {
		rows := stats.Compute([]model.Assignment{
			matched("amy@x", base, 5),
			matched("amy@x", base.Add(48*time.Hour), 50),
		}, base.Add(-time.Hour), base.Add(time.Hour))

		Convey("Then out-of-range matches are excluded from the samples", func() {
			So(rows, ShouldHaveLength, 1)
			So(rows[0].Assigned, ShouldEqual, 1)
			So(rows[0].Completed, ShouldEqual, 1)
			So(rows[0].MedianMinutes, ShouldEqual, 5)
		})
	})

	Convey("Given no assignments at all", t, func() {
		Convey("Then no staff appear spuriously", func() {
			So(stats.Compute(nil, time.Time{}, time.Time{}), ShouldBeEmpty)
		})
	})
}
