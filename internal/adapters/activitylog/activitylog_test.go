package activitylog_test

import (
	"os"
	"strings"
	"testing"
	"time"

	activitylog "github.com/okian/triage/internal/adapters/activitylog"
	model "github.com/okian/triage/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestActivityLog(t *testing.T) {
	now := time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)

	Convey("Given a fresh activity log", t, func() {
		log := activitylog.New(t.TempDir())

		Convey("When appending an assignment row", func() {
			err := log.Append(activitylog.Row{
				Timestamp:   now,
				EventType:   activitylog.EventAssigned,
				Identity:    "abc123",
				Bucket:      "external_image_request",
				Action:      "forward",
				Assignee:    "amy@x",
				CCApps:      true,
				RefCode:     "REF-AB12CD",
				Risk:        model.RiskNormal,
				StatusAfter: "OPEN",
			})
			So(err, ShouldBeNil)

			Convey("Then the file starts with the header", func() {
				data, err := os.ReadFile(log.ActivityPath())
				So(err, ShouldBeNil)
				lines := strings.Split(strings.TrimSpace(string(data)), "\n")
				So(lines, ShouldHaveLength, 2)
				So(lines[0], ShouldStartWith, "row_id,ts,event_type")
			})

			Convey("And appending again adds exactly one row, no header", func() {
				So(log.Append(activitylog.Row{
					Timestamp:   now.Add(time.Minute),
					EventType:   activitylog.EventCompleted,
					Identity:    "abc123",
					RefCode:     "REF-AB12CD",
					StatusAfter: "MATCHED",
					DurationSec: 1500,
				}), ShouldBeNil)

				rows, err := log.ReadAll()
				So(err, ShouldBeNil)
				So(rows, ShouldHaveLength, 2)
				So(rows[0].EventType, ShouldEqual, activitylog.EventAssigned)
				So(rows[0].CCApps, ShouldBeTrue)
				So(rows[1].DurationSec, ShouldEqual, 1500)
			})
		})

		Convey("When appending reconciliation rows", func() {
			rec := model.ReconciliationRecord{
				ID: "r-1", Identity: "abc123", Staff: "amy@x",
				Reason: "confirmed by phone", Timestamp: now,
			}
			So(log.AppendReconciliation(activitylog.EventReconciled, rec), ShouldBeNil)
			So(log.AppendReconciliation(activitylog.EventUndone, rec), ShouldBeNil)

			Convey("Then both land in the separate reconciliation file", func() {
				data, err := os.ReadFile(strings.Replace(log.ActivityPath(), "activity_log", "reconciliation_log", 1))
				So(err, ShouldBeNil)
				So(strings.Count(string(data), "\n"), ShouldEqual, 3)
				So(string(data), ShouldContainSubstring, "RECONCILED")
				So(string(data), ShouldContainSubstring, "RECONCILE_UNDONE")
			})
		})

		Convey("When reading an absent log", func() {
			empty := activitylog.New(t.TempDir())
			rows, err := empty.ReadAll()

			Convey("Then there are no rows and no error", func() {
				So(err, ShouldBeNil)
				So(rows, ShouldBeEmpty)
			})
		})
	})
}
