package service_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/triage/internal/adapters/mailbox"
	service "github.com/okian/triage/internal/app"
	"github.com/okian/triage/internal/domain/correlation"
	"github.com/okian/triage/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestService_ForwardFailureRetry(t *testing.T) {
	Convey("Given a service whose host rejects the first forward", t, func() {
		svc, host, _ := newTestService(t, testRoster)
		ctx := context.Background()

		item := newItem("crash-1", "cust@client.example", "image request")
		host.Deliver(item)
		host.FailNextForward(item.Identity(), 1)

		Convey("When the tick runs into the failure", func() {
			svc.Tick(ctx)

			Convey("Then nothing is committed for the item", func() {
				So(host.Forwards(), ShouldBeEmpty)
				So(host.Processed(), ShouldBeEmpty)
				So(svc.Active(correlation.Filter{}), ShouldBeEmpty)
				_, ok := svc.Assignment(item.Identity())
				So(ok, ShouldBeFalse)
			})

			Convey("And the next tick retries identically with one forward total", func() {
				svc.Tick(ctx)

				fws := host.Forwards()
				So(fws, ShouldHaveLength, 1)
				So(fws[0].To, ShouldResemble, []string{"alice@corp.example"})
				asg, ok := svc.Assignment(item.Identity())
				So(ok, ShouldBeTrue)
				So(asg.State, ShouldEqual, model.StateOpen)
				So(asg.Staff, ShouldEqual, "alice@corp.example")
			})
		})
	})
}

func TestService_MarkFailureRecovery(t *testing.T) {
	Convey("Given a service whose host fails the mark-processed step", t, func() {
		svc, host, _ := newTestService(t, testRoster)
		ctx := context.Background()

		item := newItem("crash-2", "cust@client.example", "image request")
		host.Deliver(item)
		host.FailNextMark(item.Identity(), 1)

		Convey("When the tick runs", func() {
			svc.Tick(ctx)

			Convey("Then the assignment commits but the item stays unread", func() {
				So(host.Forwards(), ShouldHaveLength, 1)
				So(host.Processed(), ShouldBeEmpty)
				_, ok := svc.Assignment(item.Identity())
				So(ok, ShouldBeTrue)
			})

			Convey("And the ledger suppresses a duplicate on the next tick", func() {
				svc.Tick(ctx)

				So(host.Forwards(), ShouldHaveLength, 1)
				So(host.Processed(), ShouldHaveLength, 1)
				So(svc.Active(correlation.Filter{}), ShouldHaveLength, 1)
			})
		})
	})
}

func TestService_PoisonTracking(t *testing.T) {
	Convey("Given a service with a poison threshold of two", t, func() {
		svc, host, _ := newTestService(t, testRoster, service.WithPoisonThreshold(2))
		ctx := context.Background()

		item := newItem("poison-1", "cust@client.example", "image request")
		host.Deliver(item)
		host.FailNextForward(item.Identity(), 10)

		Convey("When the item fails two consecutive ticks", func() {
			svc.Tick(ctx)
			svc.Tick(ctx)
			So(svc.Active(correlation.Filter{}), ShouldBeEmpty)

			Convey("Then the third tick poisons it instead of retrying", func() {
				svc.Tick(ctx)

				So(host.Processed(), ShouldHaveLength, 1)
				_, ok := svc.Assignment(item.Identity())
				So(ok, ShouldBeFalse)

				Convey("And it never runs through the pipeline again", func() {
					host.Deliver(newItem("poison-1", "cust@client.example", "image request"))
					svc.Tick(ctx)

					So(svc.Active(correlation.Filter{}), ShouldBeEmpty)
					_, ok := svc.Assignment(item.Identity())
					So(ok, ShouldBeFalse)
				})
			})
		})
	})
}

func TestService_PersistFailureRollback(t *testing.T) {
	Convey("Given a service whose rotation state file cannot be replaced", t, func() {
		svc, host, dir := newTestService(t, testRoster)
		ctx := context.Background()

		// A directory squatting on the target path makes the atomic
		// rename fail.
		blocker := filepath.Join(dir, "rotation.json")
		So(os.Mkdir(blocker, 0o755), ShouldBeNil)

		item := newItem("commit-1", "cust@client.example", "image request")
		host.Deliver(item)

		Convey("When the tick runs into the write failure", func() {
			svc.Tick(ctx)

			Convey("Then the item is not marked and nothing is committed", func() {
				So(host.Processed(), ShouldBeEmpty)
				So(svc.Active(correlation.Filter{}), ShouldBeEmpty)
				_, ok := svc.Assignment(item.Identity())
				So(ok, ShouldBeFalse)
				So(host.Forwards(), ShouldHaveLength, 1)
			})

			Convey("And the item commits cleanly once the path is writable", func() {
				So(os.RemoveAll(blocker), ShouldBeNil)
				svc.Tick(ctx)

				So(host.Processed(), ShouldHaveLength, 1)
				fws := host.Forwards()
				So(fws, ShouldHaveLength, 2)
				asg, ok := svc.Assignment(item.Identity())
				So(ok, ShouldBeTrue)
				// The rolled-back rotation still points at the first
				// roster member.
				So(asg.Staff, ShouldEqual, "alice@corp.example")
			})
		})
	})
}

func TestService_RestartRecovery(t *testing.T) {
	Convey("Given a service with committed state", t, func() {
		svc, host, dir := newTestService(t, testRoster)
		ctx := context.Background()

		first := newItem("restart-1", "cust1@client.example", "job one")
		second := newItem("restart-2", "cust2@client.example", "job two")
		host.Deliver(first, second)
		svc.Tick(ctx)
		So(svc.Active(correlation.Filter{}), ShouldHaveLength, 2)
		svc.Stop()

		Convey("When a new process starts over the same data dir", func() {
			host2 := mailbox.NewMemory()
			svc2 := service.New(
				service.WithHost(host2),
				service.WithDataDir(dir),
			)
			So(svc2.Start(ctx), ShouldBeNil)
			defer svc2.Stop()

			Convey("Then the open assignments survive the restart", func() {
				active := svc2.Active(correlation.Filter{})
				So(active, ShouldHaveLength, 2)
				So(active[0].Staff, ShouldEqual, "alice@corp.example")
				So(active[1].Staff, ShouldEqual, "bob@corp.example")
			})

			Convey("And the ledger still suppresses already-handled items", func() {
				host2.Deliver(newItem("restart-1", "cust1@client.example", "job one"))
				svc2.Tick(ctx)

				So(host2.Forwards(), ShouldBeEmpty)
				So(svc2.Active(correlation.Filter{}), ShouldHaveLength, 2)
			})

			Convey("And rotation resumes where it left off", func() {
				host2.Deliver(newItem("restart-3", "cust3@client.example", "job three"))
				svc2.Tick(ctx)

				fws := host2.Forwards()
				So(fws, ShouldHaveLength, 1)
				So(fws[0].To, ShouldResemble, []string{"carol@corp.example"})
			})

			Convey("And completions still match restored assignments", func() {
				asg, ok := svc2.Assignment(first.Identity())
				So(ok, ShouldBeTrue)

				reply := newItem("restart-reply", "helper@corp.example", "RE: job one ["+asg.RefCode+"]")
				host2.Deliver(reply)
				svc2.Tick(ctx)

				got, _ := svc2.Assignment(first.Identity())
				So(got.State, ShouldEqual, model.StateMatched)
			})
		})
	})
}
