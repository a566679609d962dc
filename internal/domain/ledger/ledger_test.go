package ledger_test

import (
	"testing"
	"time"

	ledger "github.com/okian/triage/internal/domain/ledger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestLedger(t *testing.T) {
	Convey("Given an empty ledger", t, func() {
		l := ledger.New()
		now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

		Convey("Then nothing is seen", func() {
			So(l.Seen("abc"), ShouldBeFalse)
			So(l.Len(), ShouldEqual, 0)
		})

		Convey("When an identity is recorded", func() {
			l.Record("abc", "assigned", now)

			Convey("Then it is seen exactly once", func() {
				So(l.Seen("abc"), ShouldBeTrue)
				So(l.Len(), ShouldEqual, 1)
			})

			Convey("Then a repeat record is ignored, first write wins", func() {
				l.Record("abc", "completed", now.Add(time.Hour))
				snap := l.Snapshot()
				So(snap["abc"].Outcome, ShouldEqual, "assigned")
				So(l.Len(), ShouldEqual, 1)
			})
		})

		Convey("When an empty identity is recorded", func() {
			l.Record("", "assigned", now)

			Convey("Then it is dropped", func() {
				So(l.Len(), ShouldEqual, 0)
			})
		})

		Convey("When the ledger round-trips through snapshot and restore", func() {
			l.Record("abc", "assigned", now)
			l.Record("def", "held", now)

			fresh := ledger.New()
			fresh.Restore(l.Snapshot())

			Convey("Then the restored ledger still gates both identities", func() {
				So(fresh.Seen("abc"), ShouldBeTrue)
				So(fresh.Seen("def"), ShouldBeTrue)
				So(fresh.Seen("ghi"), ShouldBeFalse)
				So(fresh.Identities(), ShouldResemble, []string{"abc", "def"})
			})
		})
	})
}
