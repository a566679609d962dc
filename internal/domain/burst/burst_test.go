package burst_test

import (
	"testing"
	"time"

	burst "github.com/okian/triage/internal/domain/burst"
	. "github.com/smartystreets/goconvey/convey"
)

func seed(b *burst.Detector, now time.Time, n int) {
	for i := 0; i < n; i++ {
		b.Record(now.Add(-time.Duration(i) * time.Minute))
	}
}

func TestThresholds(t *testing.T) {
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	Convey("Given 9 arrivals in 30 minutes", t, func() {
		b := burst.New()
		seed(b, now, 9)
		st, alert := b.Evaluate(now)

		Convey("Then the status is normal", func() {
			So(st.Level, ShouldEqual, burst.StatusNormal)
			So(st.Count, ShouldEqual, 9)
			So(alert, ShouldBeFalse)
		})
	})

	Convey("Given 12 arrivals", t, func() {
		b := burst.New()
		seed(b, now, 12)
		st, alert := b.Evaluate(now)

		Convey("Then the status is elevated and nothing alerts", func() {
			So(st.Level, ShouldEqual, burst.StatusElevated)
			So(alert, ShouldBeFalse)
			So(st.LastBurstAt.IsZero(), ShouldBeTrue)
		})
	})

	Convey("Given 17 arrivals", t, func() {
		b := burst.New()
		seed(b, now, 17)
		st, alert := b.Evaluate(now)

		Convey("Then the status is burst and the transition alerts once", func() {
			So(st.Level, ShouldEqual, burst.StatusBurst)
			So(alert, ShouldBeTrue)
			So(st.LastBurstAt, ShouldEqual, now)

			Convey("And a re-evaluation inside the cooldown stays quiet", func() {
				_, again := b.Evaluate(now.Add(time.Minute))
				So(again, ShouldBeFalse)
			})

			Convey("And an evaluation after the cooldown alerts again if still bursting", func() {
				for i := 0; i < 17; i++ {
					b.Record(now.Add(61 * time.Minute))
				}
				_, again := b.Evaluate(now.Add(61 * time.Minute))
				So(again, ShouldBeTrue)
			})
		})
	})
}

func TestWindowEdge(t *testing.T) {
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	Convey("Given an arrival exactly 30 minutes old among recent ones", t, func() {
		b := burst.New()
		b.Record(now.Add(-30 * time.Minute))
		b.Record(now.Add(-29 * time.Minute))
		b.Record(now.Add(-time.Minute))

		st, _ := b.Evaluate(now)

		Convey("Then the edge arrival has dropped out of the count", func() {
			So(st.Count, ShouldEqual, 2)
		})

		Convey("And the window keeps sliding on later evaluations", func() {
			st, _ := b.Evaluate(now.Add(28 * time.Minute))
			So(st.Count, ShouldEqual, 1)
			// At +29m the now-1m arrival is exactly window-old and drops.
			st, _ = b.Evaluate(now.Add(29 * time.Minute))
			So(st.Count, ShouldEqual, 0)
		})
	})
}

func TestRestore(t *testing.T) {
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	Convey("Given persisted arrivals restored into a fresh detector", t, func() {
		b := burst.New()
		seed(b, now, 5)
		snap := b.Snapshot()
		snap.LastBurstAt = now.Add(-2 * time.Hour)

		fresh := burst.New()
		fresh.Restore(snap)
		st, _ := fresh.Evaluate(now)

		Convey("Then the count and last-burst marker survive", func() {
			So(st.Count, ShouldEqual, 5)
			So(st.LastBurstAt, ShouldEqual, now.Add(-2*time.Hour))
		})
	})

	Convey("Given a detector that alerted just before a restart", t, func() {
		b := burst.New()
		seed(b, now, 17)
		_, alerted := b.Evaluate(now)
		So(alerted, ShouldBeTrue)

		fresh := burst.New()
		fresh.Restore(b.Snapshot())
		st, again := fresh.Evaluate(now.Add(time.Minute))

		Convey("Then the restored cooldown keeps the alert quiet", func() {
			So(st.Level, ShouldEqual, burst.StatusBurst)
			So(again, ShouldBeFalse)
		})

		Convey("And the burst onset time is not reset by the restart", func() {
			So(st.LastBurstAt, ShouldEqual, now)
		})
	})
}
