// Package burst classifies arrival load for a designated high-volume
// item category over a strictly rolling time window, recomputed at
// evaluation time rather than on calendar buckets.
package burst

import (
	"sync"
	"time"
)

// Load statuses with inclusive threshold boundaries.
const (
	StatusNormal   = "normal"   // 0-9 arrivals in window
	StatusElevated = "elevated" // 10-14
	StatusBurst    = "burst"    // 15+
)

// Default detector configuration constants.
const (
	defaultWindow            = 30 * time.Minute
	defaultElevatedThreshold = 10
	defaultBurstThreshold    = 15
	defaultAlertCooldown     = 60 * time.Minute
)

// Status is the evaluated window state.
type Status struct {
	Count  int    `json:"count"`
	Level  string `json:"status"`
	Window string `json:"window"`
	// LastBurstAt is the last time the status transitioned into
	// burst; zero when it never has.
	LastBurstAt time.Time `json:"last_burst_at,omitempty"`
}

// Detector keeps arrival timestamps for the watched category.
type Detector struct {
	mu sync.Mutex

	window            time.Duration
	elevatedThreshold int
	burstThreshold    int
	alertCooldown     time.Duration

	arrivals    []time.Time
	inBurst     bool
	lastBurstAt time.Time
	lastAlertAt time.Time
}

// Option applies a configuration option to the Detector.
type Option func(*Detector)

// WithWindow overrides the rolling window length.
func WithWindow(d time.Duration) Option {
	return func(b *Detector) {
		if d > 0 {
			b.window = d
		}
	}
}

// WithThresholds overrides the elevated and burst boundaries.
func WithThresholds(elevated, burst int) Option {
	return func(b *Detector) {
		if elevated > 0 && burst > elevated {
			b.elevatedThreshold = elevated
			b.burstThreshold = burst
		}
	}
}

// WithAlertCooldown overrides the minimum spacing between alerts.
func WithAlertCooldown(d time.Duration) Option {
	return func(b *Detector) {
		if d > 0 {
			b.alertCooldown = d
		}
	}
}

// New creates a detector with the default 30-minute window and
// 10/15 thresholds.
func New(opts ...Option) *Detector {
	b := &Detector{
		window:            defaultWindow,
		elevatedThreshold: defaultElevatedThreshold,
		burstThreshold:    defaultBurstThreshold,
		alertCooldown:     defaultAlertCooldown,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Record notes one arrival of the watched category.
func (b *Detector) Record(ts time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.arrivals = append(b.arrivals, ts)
}

// Evaluate prunes arrivals older than the window and classifies the
// current count. shouldAlert is true when the status transitioned
// into burst and the cooldown since the previous alert has elapsed.
func (b *Detector) Evaluate(now time.Time) (Status, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	cutoff := now.Add(-b.window)
	kept := b.arrivals[:0]
	for _, ts := range b.arrivals {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	b.arrivals = kept

	count := len(b.arrivals)
	level := StatusNormal
	switch {
	case count >= b.burstThreshold:
		level = StatusBurst
	case count >= b.elevatedThreshold:
		level = StatusElevated
	}

	shouldAlert := false
	if level == StatusBurst {
		if !b.inBurst {
			b.inBurst = true
			b.lastBurstAt = now
		}
		if b.lastAlertAt.IsZero() || now.Sub(b.lastAlertAt) >= b.alertCooldown {
			b.lastAlertAt = now
			shouldAlert = true
		}
	} else {
		b.inBurst = false
	}

	return Status{
		Count:       count,
		Level:       level,
		Window:      b.window.String(),
		LastBurstAt: b.lastBurstAt,
	}, shouldAlert
}

// Snapshot is the persistable detector state. Carrying the alert and
// burst markers across a restart keeps the cooldown honest: a restored
// detector neither re-fires a cooled-down alert nor resets LastBurstAt
// mid-burst.
type Snapshot struct {
	Arrivals    []time.Time `json:"arrivals"`
	InBurst     bool        `json:"in_burst,omitempty"`
	LastBurstAt time.Time   `json:"last_burst_at,omitempty"`
	LastAlertAt time.Time   `json:"last_alert_at,omitempty"`
}

// Snapshot returns a copy of the detector state for persistence.
func (b *Detector) Snapshot() Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]time.Time, len(b.arrivals))
	copy(out, b.arrivals)
	return Snapshot{
		Arrivals:    out,
		InBurst:     b.inBurst,
		LastBurstAt: b.lastBurstAt,
		LastAlertAt: b.lastAlertAt,
	}
}

// Restore seeds the detector from a persisted snapshot.
func (b *Detector) Restore(s Snapshot) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.arrivals = append([]time.Time(nil), s.Arrivals...)
	b.inBurst = s.InBurst
	b.lastBurstAt = s.LastBurstAt
	b.lastAlertAt = s.LastAlertAt
}
