package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/okian/triage/internal/adapters/http/api"
	"github.com/okian/triage/internal/adapters/mailbox"
	service "github.com/okian/triage/internal/app"
	"github.com/okian/triage/internal/domain/model"
	"github.com/okian/triage/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

const testPolicy = `
external_image_request:
  domains: [client.example]
system_notification:
  domains: [noreply.example]
hold:
  domains: [vendor.example]
internal_domains: [corp.example]
support_staff: [helper@corp.example]
manager: [boss@corp.example]
apps_team: [apps@corp.example]
`

const testRoster = "alice@corp.example\nbob@corp.example\ncarol@corp.example\n"

// newTestMux builds a started service over a fresh data dir and wires
// the full route table onto a plain mux.
func newTestMux(t *testing.T) (*http.ServeMux, *service.Service, *mailbox.Memory) {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "roster.txt"), []byte(testRoster), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "policy.yaml"), []byte(testPolicy), 0o644); err != nil {
		t.Fatal(err)
	}

	host := mailbox.NewMemory()
	svc := service.New(
		service.WithHost(host),
		service.WithDataDir(dir),
	)
	if err := svc.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(svc.Stop)

	mux := http.NewServeMux()
	api.NewServer(svc).Register(context.Background(), mux)
	return mux, svc, host
}

func newItem(id, sender, subject string) model.Item {
	return model.Item{
		MessageID:  id,
		Sender:     sender,
		Subject:    subject,
		ReceivedAt: time.Now().UTC(),
	}
}

func doJSON(mux *http.ServeMux, method, target string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, target, &buf)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestAPI_Health(t *testing.T) {
	Convey("Given a registered API server", t, func() {
		mux, _, _ := newTestMux(t)

		Convey("When GET /healthz is requested", func() {
			rec := doJSON(mux, http.MethodGet, "/healthz", nil)

			Convey("Then it should report ok with runtime stats", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				var body map[string]interface{}
				So(json.Unmarshal(rec.Body.Bytes(), &body), ShouldBeNil)
				So(body["status"], ShouldEqual, "ok")
				So(body["stats"], ShouldNotBeNil)
			})
		})

		Convey("When GET /metrics is requested", func() {
			rec := doJSON(mux, http.MethodGet, "/metrics", nil)

			Convey("Then it should expose the engine metrics", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(rec.Body.String(), ShouldContainSubstring, "triage_engine")
			})
		})
	})
}

func TestAPI_Summary(t *testing.T) {
	Convey("Given a service with processed items", t, func() {
		mux, svc, host := newTestMux(t)
		host.Deliver(
			newItem("m-1", "ann@client.example", "logo request"),
			newItem("m-2", "ben@client.example", "banner request"),
		)
		svc.Tick(context.Background())

		Convey("When GET /api/summary is requested", func() {
			rec := doJSON(mux, http.MethodGet, "/api/summary", nil)

			Convey("Then totals should reflect the tick", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				var sum service.Summary
				So(json.Unmarshal(rec.Body.Bytes(), &sum), ShouldBeNil)
				So(sum.TotalAssigned, ShouldEqual, 2)
				So(sum.Active, ShouldEqual, 2)
				So(len(sum.Staff), ShouldBeGreaterThanOrEqualTo, 2)
			})
		})

		Convey("When the range excludes everything", func() {
			rec := doJSON(mux, http.MethodGet, "/api/summary?from=2001-01-01&to=2001-01-02", nil)

			Convey("Then totals should be zero but active retained", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				var sum service.Summary
				So(json.Unmarshal(rec.Body.Bytes(), &sum), ShouldBeNil)
				So(sum.TotalAssigned, ShouldEqual, 0)
				So(sum.Active, ShouldEqual, 2)
			})
		})

		Convey("When the range is malformed", func() {
			rec := doJSON(mux, http.MethodGet, "/api/summary?from=yesterday", nil)

			Convey("Then it should reject with 400", func() {
				So(rec.Code, ShouldEqual, http.StatusBadRequest)
			})
		})
	})
}

func TestAPI_Roster(t *testing.T) {
	Convey("Given a registered API server", t, func() {
		mux, _, _ := newTestMux(t)

		Convey("When GET /api/roster is requested", func() {
			rec := doJSON(mux, http.MethodGet, "/api/roster", nil)

			Convey("Then it should list the configured staff", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				var doc struct {
					Staff []string `json:"staff"`
				}
				So(json.Unmarshal(rec.Body.Bytes(), &doc), ShouldBeNil)
				So(doc.Staff, ShouldResemble, []string{
					"alice@corp.example", "bob@corp.example", "carol@corp.example",
				})
			})
		})

		Convey("When PUT /api/roster replaces the list", func() {
			rec := doJSON(mux, http.MethodPut, "/api/roster", map[string]any{
				"staff": []string{"dave@corp.example", "erin@corp.example"},
			})

			Convey("Then it should accept the replacement", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
			})
		})

		Convey("When PUT /api/roster carries an empty list", func() {
			rec := doJSON(mux, http.MethodPut, "/api/roster", map[string]any{"staff": []string{}})

			Convey("Then it should reject with 400", func() {
				So(rec.Code, ShouldEqual, http.StatusBadRequest)
			})
		})
	})
}

func TestAPI_RecipientsAndBuckets(t *testing.T) {
	Convey("Given a registered API server", t, func() {
		mux, _, _ := newTestMux(t)

		Convey("When GET /api/recipients is requested", func() {
			rec := doJSON(mux, http.MethodGet, "/api/recipients", nil)

			Convey("Then it should return manager and apps team", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(rec.Body.String(), ShouldContainSubstring, "boss@corp.example")
				So(rec.Body.String(), ShouldContainSubstring, "apps@corp.example")
			})
		})

		Convey("When PUT /api/recipients replaces the manager", func() {
			rec := doJSON(mux, http.MethodPut, "/api/recipients", map[string]any{
				"manager":   []string{"chief@corp.example"},
				"apps_team": []string{"apps@corp.example"},
			})
			So(rec.Code, ShouldEqual, http.StatusOK)

			Convey("Then the buckets should survive the write", func() {
				rec = doJSON(mux, http.MethodGet, "/api/buckets", nil)
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(rec.Body.String(), ShouldContainSubstring, "client.example")
				So(rec.Body.String(), ShouldContainSubstring, "corp.example")
			})

			Convey("And the new manager should read back", func() {
				rec = doJSON(mux, http.MethodGet, "/api/recipients", nil)
				So(rec.Body.String(), ShouldContainSubstring, "chief@corp.example")
			})
		})

		Convey("When PUT /api/buckets adds a hold domain", func() {
			var doc map[string]any
			rec := doJSON(mux, http.MethodGet, "/api/buckets", nil)
			So(json.Unmarshal(rec.Body.Bytes(), &doc), ShouldBeNil)
			doc["hold"] = map[string]any{"domains": []string{"vendor.example", "partner.example"}}

			rec = doJSON(mux, http.MethodPut, "/api/buckets", doc)
			So(rec.Code, ShouldEqual, http.StatusOK)

			Convey("Then the change should read back", func() {
				rec = doJSON(mux, http.MethodGet, "/api/buckets", nil)
				So(rec.Body.String(), ShouldContainSubstring, "partner.example")
			})

			Convey("And the recipients should survive the write", func() {
				rec = doJSON(mux, http.MethodGet, "/api/recipients", nil)
				So(rec.Body.String(), ShouldContainSubstring, "boss@corp.example")
			})
		})
	})
}

func TestAPI_ActiveAssignments(t *testing.T) {
	Convey("Given a service with open assignments", t, func() {
		mux, svc, host := newTestMux(t)
		host.Deliver(
			newItem("m-1", "ann@client.example", "logo request"),
			newItem("m-2", "ben@client.example", "banner request"),
			newItem("m-3", "cat@client.example", "icon request"),
		)
		svc.Tick(context.Background())

		Convey("When GET /api/assignments/active is requested", func() {
			rec := doJSON(mux, http.MethodGet, "/api/assignments/active", nil)

			Convey("Then all open assignments should list", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				var got []model.Assignment
				So(json.Unmarshal(rec.Body.Bytes(), &got), ShouldBeNil)
				So(len(got), ShouldEqual, 3)
			})
		})

		Convey("When filtered by staff", func() {
			rec := doJSON(mux, http.MethodGet, "/api/assignments/active?staff=alice@corp.example", nil)

			Convey("Then only that staff member's items should list", func() {
				var got []model.Assignment
				So(json.Unmarshal(rec.Body.Bytes(), &got), ShouldBeNil)
				So(len(got), ShouldEqual, 1)
				So(got[0].Staff, ShouldEqual, "alice@corp.example")
			})
		})
	})
}

func TestAPI_Reconcile(t *testing.T) {
	Convey("Given a service with one open assignment", t, func() {
		mux, svc, host := newTestMux(t)
		item := newItem("m-1", "ann@client.example", "logo request")
		host.Deliver(item)
		svc.Tick(context.Background())
		identity := item.Identity()

		Convey("When POST reconcile closes it", func() {
			rec := doJSON(mux, http.MethodPost, "/api/assignments/"+identity+"/reconcile",
				map[string]any{"reason": "resolved by phone"})

			Convey("Then the record should return and the item leave active", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				var got model.ReconciliationRecord
				So(json.Unmarshal(rec.Body.Bytes(), &got), ShouldBeNil)
				So(got.Identity, ShouldEqual, identity)
				So(got.Reason, ShouldEqual, "resolved by phone")

				active := doJSON(mux, http.MethodGet, "/api/assignments/active", nil)
				var list []model.Assignment
				So(json.Unmarshal(active.Body.Bytes(), &list), ShouldBeNil)
				So(len(list), ShouldEqual, 0)
			})

			Convey("And DELETE should undo it", func() {
				undo := doJSON(mux, http.MethodDelete, "/api/assignments/"+identity+"/reconcile", nil)
				So(undo.Code, ShouldEqual, http.StatusOK)

				active := doJSON(mux, http.MethodGet, "/api/assignments/active", nil)
				var list []model.Assignment
				So(json.Unmarshal(active.Body.Bytes(), &list), ShouldBeNil)
				So(len(list), ShouldEqual, 1)
			})
		})

		Convey("When the reason is missing", func() {
			rec := doJSON(mux, http.MethodPost, "/api/assignments/"+identity+"/reconcile",
				map[string]any{"reason": "  "})

			Convey("Then it should reject with 400", func() {
				So(rec.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When the identity is unknown", func() {
			rec := doJSON(mux, http.MethodPost, "/api/assignments/no-such/reconcile",
				map[string]any{"reason": "stale"})

			Convey("Then it should reject with 404", func() {
				So(rec.Code, ShouldEqual, http.StatusNotFound)
			})
		})

		Convey("When DELETE targets a never-reconciled assignment", func() {
			rec := doJSON(mux, http.MethodDelete, "/api/assignments/"+identity+"/reconcile", nil)

			Convey("Then it should reject with 409", func() {
				So(rec.Code, ShouldEqual, http.StatusConflict)
			})
		})
	})
}

func TestAPI_BulkReconcile(t *testing.T) {
	Convey("Given a service with assignments across staff", t, func() {
		mux, svc, host := newTestMux(t)
		host.Deliver(
			newItem("m-1", "ann@client.example", "logo request"),
			newItem("m-2", "ben@client.example", "banner request"),
			newItem("m-3", "cat@client.example", "icon request"),
		)
		svc.Tick(context.Background())

		Convey("When bulk reconcile targets one staff member", func() {
			rec := doJSON(mux, http.MethodPost, "/api/assignments/reconcile",
				map[string]any{"reason": "quarterly sweep", "staff": "bob@corp.example"})

			Convey("Then only that staff member's items should close", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				var recs []model.ReconciliationRecord
				So(json.Unmarshal(rec.Body.Bytes(), &recs), ShouldBeNil)
				So(len(recs), ShouldEqual, 1)
				So(recs[0].Staff, ShouldEqual, "bob@corp.example")

				active := doJSON(mux, http.MethodGet, "/api/assignments/active", nil)
				var list []model.Assignment
				So(json.Unmarshal(active.Body.Bytes(), &list), ShouldBeNil)
				So(len(list), ShouldEqual, 2)
			})
		})

		Convey("When the filter matches nothing", func() {
			rec := doJSON(mux, http.MethodPost, "/api/assignments/reconcile",
				map[string]any{"reason": "sweep", "staff": "ghost@corp.example"})

			Convey("Then it should return an empty list", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(strings.TrimSpace(rec.Body.String()), ShouldEqual, "[]")
			})
		})

		Convey("When the reason is missing", func() {
			rec := doJSON(mux, http.MethodPost, "/api/assignments/reconcile", map[string]any{})

			Convey("Then it should reject with 400", func() {
				So(rec.Code, ShouldEqual, http.StatusBadRequest)
			})
		})
	})
}

func TestAPI_Exports(t *testing.T) {
	Convey("Given a service with an assignment and a completion", t, func() {
		mux, svc, host := newTestMux(t)
		item := newItem("m-1", "ann@client.example", "logo request")
		host.Deliver(item, newItem("m-2", "ben@client.example", "banner request"))
		svc.Tick(context.Background())

		host.Deliver(newItem("m-3", "helper@corp.example", "done ["+item.RefCode()+"]"))
		svc.Tick(context.Background())

		Convey("When GET /api/export/active.csv is requested", func() {
			rec := doJSON(mux, http.MethodGet, "/api/export/active.csv", nil)

			Convey("Then it should stream the remaining open assignment", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(rec.Header().Get("Content-Type"), ShouldContainSubstring, "text/csv")
				lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
				So(len(lines), ShouldEqual, 2)
				So(lines[0], ShouldStartWith, "identity,staff,bucket")
				So(lines[1], ShouldContainSubstring, "bob@corp.example")
			})
		})

		Convey("When GET /api/export/staff.csv is requested", func() {
			rec := doJSON(mux, http.MethodGet, "/api/export/staff.csv", nil)

			Convey("Then staff with assignments should each have a row", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
				So(len(lines), ShouldEqual, 3)
				So(rec.Body.String(), ShouldContainSubstring, "no data")
			})

			Convey("And the staff filter should narrow it", func() {
				rec = doJSON(mux, http.MethodGet, "/api/export/staff.csv?staff=alice@corp.example", nil)
				lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
				So(len(lines), ShouldEqual, 2)
				So(lines[1], ShouldStartWith, "alice@corp.example")
			})
		})

		Convey("When GET /api/export/history.csv filters by ref", func() {
			rec := doJSON(mux, http.MethodGet, "/api/export/history.csv?ref="+item.RefCode(), nil)

			Convey("Then only that thread's rows should stream", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
				// Header, ASSIGNED and COMPLETED rows.
				So(len(lines), ShouldEqual, 3)
				So(rec.Body.String(), ShouldContainSubstring, "ASSIGNED")
				So(rec.Body.String(), ShouldContainSubstring, "COMPLETED")
			})
		})
	})
}
