// Package service provides the core distribution engine service that
// implements the dependencies required by the HTTP API.
//
// All engine state mutation happens under one mutex: the polling tick
// and operator mutations (reconcile, roster/policy edits) serialize on
// it, while dashboard reads take snapshot copies under the read lock.
package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/okian/triage/internal/adapters/activitylog"
	"github.com/okian/triage/internal/adapters/mailbox"
	"github.com/okian/triage/internal/adapters/statefile"
	"github.com/okian/triage/internal/domain/burst"
	"github.com/okian/triage/internal/domain/correlation"
	"github.com/okian/triage/internal/domain/ledger"
	"github.com/okian/triage/internal/domain/model"
	"github.com/okian/triage/internal/domain/policy"
	"github.com/okian/triage/internal/domain/rotation"
	"github.com/okian/triage/pkg/logger"
	"github.com/okian/triage/pkg/metrics"
)

// State file names under the data dir.
const (
	rotationFile = "rotation.json"
	ledgerFile   = "ledger.json"
	engineFile   = "assignments.json"
	burstFile    = "burst.json"
	poisonFile   = "failures.json"
)

// Ledger outcome codes.
const (
	outcomeAssigned   = "assigned"
	outcomeCompletion = "completion"
	outcomeHeld       = "held"
	outcomePoison     = "poison"
)

// Service implements the distribution engine: tick pipeline, operator
// mutations, and snapshot reads.
type Service struct {
	mu sync.RWMutex

	// Core components
	host     mailbox.Host
	rotation rotation.State
	ledger   *ledger.Ledger
	engine   *correlation.Engine
	detector *burst.Detector
	audit    *activitylog.Log

	// Hot-reloaded config files
	roster *statefile.Reloader[[]string]
	policy *statefile.Reloader[*policy.Policy]

	// Configuration
	dataDir         string
	mailboxAddr     string
	rosterPath      string
	policyPath      string
	tickSchedule    string
	tickTimeout     time.Duration
	safeMode        bool
	burstBucket     string
	poisonThreshold int

	// failures counts consecutive per-item aborts for poison tracking.
	failures map[string]int

	// State
	started bool
	cron    *cron.Cron

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithHost sets the mailbox host collaborator.
func WithHost(h mailbox.Host) Option {
	return func(s *Service) {
		if h != nil {
			s.host = h
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMailbox sets the shared mailbox address the engine drains.
func WithMailbox(addr string) Option {
	return func(s *Service) {
		if addr != "" {
			s.mailboxAddr = addr
		}
	}
}

// WithDataDir sets the directory for state files and audit logs.
func WithDataDir(dir string) Option {
	return func(s *Service) {
		if dir != "" {
			s.dataDir = dir
		}
	}
}

// WithRosterPath overrides the roster file location.
func WithRosterPath(path string) Option {
	return func(s *Service) {
		if path != "" {
			s.rosterPath = path
		}
	}
}

// WithPolicyPath overrides the policy file location.
func WithPolicyPath(path string) Option {
	return func(s *Service) {
		if path != "" {
			s.policyPath = path
		}
	}
}

// WithTickSchedule sets the cron spec for the polling tick. An empty
// schedule disables the scheduler; ticks then only run when invoked
// directly.
func WithTickSchedule(spec string) Option {
	return func(s *Service) {
		s.tickSchedule = spec
	}
}

// WithTickTimeout bounds mailbox I/O per tick.
func WithTickTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.tickTimeout = d
		}
	}
}

// WithSafeMode suppresses outbound forwards while keeping the rest of
// the pipeline live.
func WithSafeMode(on bool) Option {
	return func(s *Service) {
		s.safeMode = on
	}
}

// WithBurstBucket selects the bucket the burst detector watches.
func WithBurstBucket(bucket string) Option {
	return func(s *Service) {
		if bucket != "" {
			s.burstBucket = bucket
		}
	}
}

// WithBurstDetector replaces the default detector, typically to set
// window and thresholds from config.
func WithBurstDetector(d *burst.Detector) Option {
	return func(s *Service) {
		if d != nil {
			s.detector = d
		}
	}
}

// WithPoisonThreshold sets the consecutive-failure count after which
// an item is held instead of retried.
func WithPoisonThreshold(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.poisonThreshold = n
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		dataDir:         "data",
		tickTimeout:     time.Minute,
		burstBucket:     string(policy.BucketHold),
		poisonThreshold: 3,
		ledger:          ledger.New(),
		engine:          correlation.New(),
		detector:        burst.New(),
		failures:        make(map[string]int),
	}

	// Apply all options
	for _, opt := range opts {
		opt(s)
	}

	if s.rosterPath == "" {
		s.rosterPath = filepath.Join(s.dataDir, "roster.txt")
	}
	if s.policyPath == "" {
		s.policyPath = filepath.Join(s.dataDir, "policy.yaml")
	}

	return s
}

// Start restores persisted state and begins scheduled ticks.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.host == nil {
		return ErrNoHost
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting triage engine...")

	if err := os.MkdirAll(s.dataDir, 0o755); err != nil {
		return fmt.Errorf("%w: %w", ErrStartFailed, err)
	}

	s.audit = activitylog.New(s.dataDir)
	s.roster = statefile.NewReloader(s.rosterPath, parseRoster, s.logger)
	s.policy = statefile.NewReloader(s.policyPath, policy.Parse, s.logger)

	s.restoreState(ctx)

	if s.tickSchedule != "" {
		c := cron.New()
		if _, err := c.AddFunc(s.tickSchedule, func() { s.Tick(context.Background()) }); err != nil {
			return fmt.Errorf("%w: %w", ErrStartFailed, err)
		}
		c.Start()
		s.cron = c
	}

	s.started = true
	s.logger.Info(ctx, "triage engine started",
		logger.String("dataDir", s.dataDir),
		logger.String("tickSchedule", s.tickSchedule),
		logger.Int("ledgerSize", s.ledger.Len()),
		logger.Int("openAssignments", len(s.engine.Active(correlation.Filter{}))),
		logger.Any("safeMode", s.safeMode),
	)
	return nil
}

// restoreState loads the persisted rotation, ledger, engine and burst
// snapshots. Missing files mean a fresh start; corrupt files are
// surfaced loudly but do not prevent startup.
func (s *Service) restoreState(ctx context.Context) {
	var rot rotation.State
	switch err := statefile.LoadJSON(filepath.Join(s.dataDir, rotationFile), &rot); {
	case err == nil:
		s.rotation = rot
	case !isNotExist(err):
		s.logger.Error(ctx, "rotation state unreadable, starting fresh", logger.Error(err))
	}

	entries := make(map[string]ledger.Entry)
	switch err := statefile.LoadJSON(filepath.Join(s.dataDir, ledgerFile), &entries); {
	case err == nil:
		s.ledger.Restore(entries)
	case !isNotExist(err):
		s.logger.Error(ctx, "ledger unreadable, starting fresh", logger.Error(err))
	}

	var snap correlation.Snapshot
	switch err := statefile.LoadJSON(filepath.Join(s.dataDir, engineFile), &snap); {
	case err == nil:
		s.engine.Restore(snap)
	case !isNotExist(err):
		s.logger.Error(ctx, "engine state unreadable, starting fresh", logger.Error(err))
	}

	var bs burst.Snapshot
	switch err := statefile.LoadJSON(filepath.Join(s.dataDir, burstFile), &bs); {
	case err == nil:
		s.detector.Restore(bs)
	case !isNotExist(err):
		s.logger.Error(ctx, "burst state unreadable, starting fresh", logger.Error(err))
	}

	failures := make(map[string]int)
	if err := statefile.LoadJSON(filepath.Join(s.dataDir, poisonFile), &failures); err == nil {
		s.failures = failures
	}
}

func isNotExist(err error) bool {
	return errors.Is(err, statefile.ErrNotExist)
}

// Stop halts scheduled ticks and releases file watches.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.logger.Info(context.Background(), "stopping triage engine...")

	if s.cron != nil {
		s.cron.Stop()
	}
	if s.roster != nil {
		_ = s.roster.Close()
	}
	if s.policy != nil {
		_ = s.policy.Close()
	}

	s.started = false
	s.logger.Info(context.Background(), "triage engine stopped")
}

// parseRoster reads one address per line, tolerating blank lines and
// # comments.
func parseRoster(data []byte) ([]string, error) {
	var out []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return out, nil
}

// Tick runs one full polling pass. A tick arriving while the previous
// one still runs is skipped, not queued.
func (s *Service) Tick(ctx context.Context) {
	if !s.mu.TryLock() {
		metrics.RecordTickSkipped()
		return
	}
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	metrics.RecordTick()
	start := time.Now()
	defer func() { metrics.RecordTickDuration(time.Since(start).Seconds()) }()

	tctx, cancel := context.WithTimeout(ctx, s.tickTimeout)
	defer cancel()

	roster, err := s.roster.Get(tctx)
	if err != nil && !isNotExist(err) {
		s.logger.Warn(tctx, "roster reload failed, keeping last known good", logger.Error(err))
	}
	s.rotation = s.rotation.WithRoster(roster)
	metrics.UpdateRosterSize(len(roster))

	pol, err := s.policy.Get(tctx)
	if err != nil {
		// Fails closed: a nil policy classifies everything unknown.
		metrics.RecordPolicyFailure()
		if !isNotExist(err) {
			s.logger.Warn(tctx, "policy reload failed", logger.Error(err))
		}
	}

	items, err := s.host.ListUnread(tctx, s.mailboxAddr)
	if err != nil {
		s.logger.Error(tctx, "mailbox list failed, tick abandoned", logger.Error(err))
		return
	}

	for _, item := range items {
		if tctx.Err() != nil {
			s.logger.Warn(tctx, "tick timeout reached, remaining items deferred",
				logger.Int("remaining", len(items)))
			break
		}
		s.processItem(tctx, item, pol)
	}

	status, alert := s.detector.Evaluate(time.Now().UTC())
	metrics.UpdateBurstWindow(status.Count, status.Level)
	if alert {
		metrics.RecordBurstAlert()
		s.logger.Warn(tctx, "burst threshold crossed",
			logger.String("bucket", s.burstBucket),
			logger.Int("count", status.Count),
			logger.String("window", status.Window),
		)
	}
	s.persistBurst(tctx)

	metrics.UpdateOpenAssignments(len(s.engine.Active(correlation.Filter{})))
	metrics.UpdateLedgerSize(s.ledger.Len())
}

// processItem runs the per-item pipeline: dedupe, classify, route.
// Any failure aborts this item only; nothing is committed and the
// item is retried next tick.
func (s *Service) processItem(ctx context.Context, item model.Item, pol *policy.Policy) {
	metrics.RecordItemScanned()
	identity := item.Identity()
	now := time.Now().UTC()

	if s.ledger.Seen(identity) {
		metrics.RecordItemDuplicate()
		// Already committed on a previous tick; only the mailbox-side
		// mark can still be pending.
		if err := s.host.MarkProcessed(ctx, item); err != nil {
			s.logger.Warn(ctx, "mark processed failed for duplicate", logger.String("identity", identity), logger.Error(err))
			return
		}
		s.appendAudit(ctx, activitylog.Row{
			Timestamp: now, EventType: activitylog.EventSkipped,
			Identity: identity, Action: "skip", StatusAfter: "duplicate",
		})
		return
	}

	if s.failures[identity] >= s.poisonThreshold {
		s.poisonItem(ctx, item, identity, now, pol)
		return
	}

	cls := pol.Classify(item.Sender)

	switch {
	case cls.IsCompletion:
		s.processCompletion(ctx, item, identity, now)
	case cls.Bucket == policy.BucketExternalImageRequest || cls.Bucket == policy.BucketInternal:
		s.processAssignment(ctx, item, identity, cls, now, pol)
	default:
		s.processHold(ctx, item, identity, cls.Bucket, now, pol)
	}
}

// processCompletion consumes a support-staff reply against the open
// assignment set.
func (s *Service) processCompletion(ctx context.Context, item model.Item, identity string, now time.Time) {
	ev := model.CompletionEvent{
		RefCode:   correlation.ExtractRefCode(item.Subject),
		Staff:     policy.NormalizeAddress(item.Sender),
		Timestamp: item.ReceivedAt,
	}

	prev := s.snapshotState()
	matched, ok := s.engine.Complete(ev)

	s.ledger.Record(identity, outcomeCompletion, now)
	if err := s.commitItem(ctx, identity, prev); err != nil {
		return
	}

	if err := s.host.MarkProcessed(ctx, item); err != nil {
		s.logger.Warn(ctx, "mark processed failed", logger.String("identity", identity), logger.Error(err))
	}

	if ok {
		minutes := matched.Duration.Minutes()
		metrics.RecordCompletionMatched()
		metrics.RecordCompletionDuration(minutes)
		s.appendAudit(ctx, activitylog.Row{
			Timestamp: now, EventType: activitylog.EventCompleted,
			Identity: matched.Identity, Bucket: matched.Bucket, Action: "complete",
			Assignee: matched.Staff, RefCode: matched.RefCode, Risk: matched.Risk,
			StatusAfter: string(model.StateMatched), DurationSec: matched.Duration.Seconds(),
		})
		s.logger.Info(ctx, "completion matched",
			logger.String("ref", matched.RefCode),
			logger.String("staff", matched.Staff),
			logger.Float64("minutes", minutes),
		)
	} else {
		metrics.RecordCompletionUnmatched()
		s.appendAudit(ctx, activitylog.Row{
			Timestamp: now, EventType: activitylog.EventUnmatched,
			Identity: identity, Action: "complete", Assignee: ev.Staff,
			RefCode: ev.RefCode, StatusAfter: "unmatched",
		})
		s.logger.Warn(ctx, "unmatched completion",
			logger.String("ref", ev.RefCode),
			logger.String("staff", ev.Staff),
		)
	}
	metrics.RecordItemProcessed()
	delete(s.failures, identity)
}

// processAssignment routes a new work item to the next staff member in
// rotation. RosterEmpty degrades to a hold, never a crash.
func (s *Service) processAssignment(ctx context.Context, item model.Item, identity string, cls policy.Class, now time.Time, pol *policy.Policy) {
	staff, advanced, err := s.rotation.Next()
	if err != nil {
		s.logger.Warn(ctx, "roster empty, holding item", logger.String("identity", identity))
		s.processHold(ctx, item, identity, cls.Bucket, now, pol)
		return
	}

	risk, riskHit := policy.DetectRisk(item.Subject, item.Body, item.HighImportance)
	ref := item.RefCode()

	asg := model.Assignment{
		Identity:  identity,
		Staff:     staff,
		Bucket:    string(cls.Bucket),
		Action:    "assign",
		RefCode:   ref,
		Risk:      risk,
		Subject:   item.Subject,
		Sender:    policy.NormalizeAddress(item.Sender),
		State:     model.StateOpen,
		CreatedAt: now,
	}

	ccManager := risk == model.RiskHigh
	var cc []string
	if ccManager {
		cc = pol.Manager()
	}
	fw := mailbox.Forwarded{
		Item:    item,
		To:      []string{staff},
		CC:      cc,
		Subject: correlation.StampRefCode(item.Subject, ref),
	}
	if err := s.forward(ctx, fw, identity); err != nil {
		return
	}

	// Commit: memory first, then atomic file replaces, mailbox mark
	// last so a crash leaves the item retryable with the ledger as
	// the sole dedupe gate. A failed file write unwinds the memory
	// mutations and leaves the item unread.
	prev := s.snapshotState()
	s.rotation = advanced
	if err := s.engine.Track(asg); err != nil {
		s.logger.Error(ctx, "track failed", logger.String("identity", identity), logger.Error(err))
	}
	s.ledger.Record(identity, outcomeAssigned, now)
	if err := s.commitItem(ctx, identity, prev); err != nil {
		return
	}
	s.recordArrival(string(cls.Bucket), item.ReceivedAt)

	if err := s.host.MarkProcessed(ctx, item); err != nil {
		s.logger.Warn(ctx, "mark processed failed", logger.String("identity", identity), logger.Error(err))
	}

	s.appendAudit(ctx, activitylog.Row{
		Timestamp: now, EventType: activitylog.EventAssigned,
		Identity: identity, Bucket: asg.Bucket, Action: asg.Action,
		Assignee: staff, CCManager: ccManager, RefCode: ref, Risk: risk,
		StatusAfter: string(model.StateOpen),
	})
	metrics.RecordAssignment(asg.Bucket)
	metrics.RecordItemProcessed()
	delete(s.failures, identity)

	if riskHit != "" {
		s.logger.Info(ctx, "risk term flagged",
			logger.String("identity", identity),
			logger.String("risk", string(risk)),
			logger.String("term", riskHit),
		)
	}
	s.logger.Info(ctx, "item assigned",
		logger.String("identity", identity),
		logger.String("staff", staff),
		logger.String("bucket", asg.Bucket),
		logger.String("ref", ref),
	)
}

// processHold forwards an unassignable item to the manager for
// visibility. Unknown senders additionally CC the apps team.
func (s *Service) processHold(ctx context.Context, item model.Item, identity string, bucket policy.Bucket, now time.Time, pol *policy.Policy) {
	to := pol.Manager()
	var cc []string
	if bucket == policy.BucketUnknown {
		cc = pol.AppsTeam()
	}

	if len(to) > 0 {
		fw := mailbox.Forwarded{Item: item, To: to, CC: cc, Subject: item.Subject}
		if err := s.forward(ctx, fw, identity); err != nil {
			return
		}
	}

	prev := s.snapshotState()
	s.ledger.Record(identity, outcomeHeld, now)
	if err := s.commitItem(ctx, identity, prev); err != nil {
		return
	}
	s.recordArrival(string(bucket), item.ReceivedAt)

	if err := s.host.MarkProcessed(ctx, item); err != nil {
		s.logger.Warn(ctx, "mark processed failed", logger.String("identity", identity), logger.Error(err))
	}

	s.appendAudit(ctx, activitylog.Row{
		Timestamp: now, EventType: activitylog.EventHeld,
		Identity: identity, Bucket: string(bucket), Action: "hold",
		CCApps: len(cc) > 0, StatusAfter: outcomeHeld,
	})
	metrics.RecordHeldItem(string(bucket))
	metrics.RecordItemProcessed()
	delete(s.failures, identity)
}

// poisonItem stops retrying an item that failed too many consecutive
// ticks: best-effort hold to the manager, then a ledger record so it
// never runs through the pipeline again.
func (s *Service) poisonItem(ctx context.Context, item model.Item, identity string, now time.Time, pol *policy.Policy) {
	if to := pol.Manager(); len(to) > 0 {
		fw := mailbox.Forwarded{Item: item, To: to, Subject: item.Subject}
		if err := s.forwardRaw(ctx, fw); err != nil {
			s.logger.Warn(ctx, "poison hold forward failed", logger.String("identity", identity), logger.Error(err))
		}
	}

	prev := s.snapshotState()
	s.ledger.Record(identity, outcomePoison, now)
	if err := s.commitItem(ctx, identity, prev); err != nil {
		return
	}
	delete(s.failures, identity)
	s.persistFailures(ctx)

	if err := s.host.MarkProcessed(ctx, item); err != nil {
		s.logger.Warn(ctx, "mark processed failed", logger.String("identity", identity), logger.Error(err))
	}

	s.appendAudit(ctx, activitylog.Row{
		Timestamp: now, EventType: activitylog.EventPoisoned,
		Identity: identity, Action: "hold", StatusAfter: outcomePoison,
	})
	s.logger.Error(ctx, "item poisoned after repeated failures", logger.String("identity", identity))
}

// forward delivers or, in safe mode, suppresses an outbound forward.
// A failure bumps the item's poison counter and aborts the item.
func (s *Service) forward(ctx context.Context, fw mailbox.Forwarded, identity string) error {
	if err := s.forwardRaw(ctx, fw); err != nil {
		metrics.RecordForwardFailure()
		metrics.RecordItemError()
		s.failures[identity]++
		s.persistFailures(ctx)
		s.logger.Warn(ctx, "forward failed, item deferred",
			logger.String("identity", identity),
			logger.Int("failures", s.failures[identity]),
			logger.Error(err),
		)
		return err
	}
	return nil
}

func (s *Service) forwardRaw(ctx context.Context, fw mailbox.Forwarded) error {
	if s.safeMode {
		s.logger.Info(ctx, "safe mode: forward suppressed",
			logger.Any("to", fw.To),
			logger.String("subject", fw.Subject),
		)
		return nil
	}
	return s.host.Forward(ctx, fw)
}

// recordArrival feeds the burst detector when the bucket matches the
// watched category.
func (s *Service) recordArrival(bucket string, ts time.Time) {
	if bucket == s.burstBucket {
		s.detector.Record(ts)
	}
}

func (s *Service) appendAudit(ctx context.Context, row activitylog.Row) {
	if err := s.audit.Append(row); err != nil {
		metrics.RecordPersistenceError()
		s.logger.Error(ctx, "activity log append failed", logger.Error(err))
	}
}

// memento captures the assignment-affecting state before an item is
// applied so a failed durable commit can be unwound completely.
type memento struct {
	rotation rotation.State
	engine   correlation.Snapshot
	ledger   map[string]ledger.Entry
}

func (s *Service) snapshotState() memento {
	return memento{
		rotation: s.rotation,
		engine:   s.engine.Snapshot(),
		ledger:   s.ledger.Snapshot(),
	}
}

// commitItem makes one item's in-memory mutations durable. On any
// write failure the pre-item state is restored, the failure counter
// advances toward the poison threshold, and the caller must leave the
// item unread so it retries next tick.
func (s *Service) commitItem(ctx context.Context, identity string, prev memento) error {
	err := s.persistRotation(ctx)
	if err == nil {
		err = s.persistEngine(ctx)
	}
	if err == nil {
		err = s.persistLedger(ctx)
	}
	if err == nil {
		return nil
	}

	s.rotation = prev.rotation
	s.engine.Restore(prev.engine)
	s.ledger.Restore(prev.ledger)
	s.failures[identity]++
	s.persistFailures(ctx)
	metrics.RecordItemError()
	s.logger.Error(ctx, "commit failed, item deferred",
		logger.String("identity", identity),
		logger.Int("failures", s.failures[identity]),
		logger.Error(err),
	)
	return err
}

// Persistence helpers. Each write is an atomic replace. Item-state
// writes (rotation, ledger, engine) report failure so the item commit
// can be rolled back; detector and counter writes are best-effort.

func (s *Service) persistRotation(ctx context.Context) error {
	if err := statefile.SaveJSON(filepath.Join(s.dataDir, rotationFile), s.rotation); err != nil {
		metrics.RecordPersistenceError()
		s.logger.Error(ctx, "rotation persist failed", logger.Error(err))
		return err
	}
	return nil
}

func (s *Service) persistLedger(ctx context.Context) error {
	if err := statefile.SaveJSON(filepath.Join(s.dataDir, ledgerFile), s.ledger.Snapshot()); err != nil {
		metrics.RecordPersistenceError()
		s.logger.Error(ctx, "ledger persist failed", logger.Error(err))
		return err
	}
	return nil
}

func (s *Service) persistEngine(ctx context.Context) error {
	if err := statefile.SaveJSON(filepath.Join(s.dataDir, engineFile), s.engine.Snapshot()); err != nil {
		metrics.RecordPersistenceError()
		s.logger.Error(ctx, "engine persist failed", logger.Error(err))
		return err
	}
	return nil
}

func (s *Service) persistBurst(ctx context.Context) {
	if err := statefile.SaveJSON(filepath.Join(s.dataDir, burstFile), s.detector.Snapshot()); err != nil {
		metrics.RecordPersistenceError()
		s.logger.Error(ctx, "burst persist failed", logger.Error(err))
	}
}

func (s *Service) persistFailures(ctx context.Context) {
	if err := statefile.SaveJSON(filepath.Join(s.dataDir, poisonFile), s.failures); err != nil {
		metrics.RecordPersistenceError()
		s.logger.Error(ctx, "failure counters persist failed", logger.Error(err))
	}
}
