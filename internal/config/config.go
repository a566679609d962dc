// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() initializer to build a Config with defaults.
// - Load layers defaults, an optional YAML file, and TRIAGE_ env vars.
// - External errors must be wrapped via this package's error helpers.
package config

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":9090".
	Addr string `koanf:"addr"`

	// DataDir is where state files and audit logs live.
	DataDir string `koanf:"data_dir"`

	// Mailbox is the shared mailbox address the engine drains.
	Mailbox string `koanf:"mailbox"`

	// TickSchedule is a cron spec for the polling tick, e.g. "@every 5m".
	TickSchedule string `koanf:"tick_schedule"`

	// TickTimeoutSec bounds mailbox I/O per tick.
	TickTimeoutSec int `koanf:"tick_timeout_sec"`

	// SafeMode suppresses outbound forwards while keeping the rest of
	// the pipeline live. Useful for dry runs against a real mailbox.
	SafeMode bool `koanf:"safe_mode"`

	// RosterFile and PolicyFile are hot-reloaded each tick.
	// Relative paths are resolved under DataDir.
	RosterFile string `koanf:"roster_file"`
	PolicyFile string `koanf:"policy_file"`

	// BurstBucket selects which bucket the burst detector watches.
	BurstBucket string `koanf:"burst_bucket"`

	// BurstWindowMin, BurstElevated and BurstThreshold configure the
	// sliding-window detector.
	BurstWindowMin   int `koanf:"burst_window_min"`
	BurstElevated    int `koanf:"burst_elevated"`
	BurstThreshold   int `koanf:"burst_threshold"`
	BurstCooldownMin int `koanf:"burst_cooldown_min"`

	// PoisonThreshold is the consecutive-failure count after which an
	// item is held to the manager instead of retried.
	PoisonThreshold int `koanf:"poison_threshold"`
}

// New creates a Config populated with defaults.
func New() *Config {
	c := &Config{
		LogLevel:         "info",
		Addr:             ":9090",
		DataDir:          "data",
		Mailbox:          "triage@example.com",
		TickSchedule:     "@every 5m",
		TickTimeoutSec:   60,
		SafeMode:         false,
		RosterFile:       "roster.txt",
		PolicyFile:       "policy.yaml",
		BurstBucket:      "hold",
		BurstWindowMin:   30,
		BurstElevated:    10,
		BurstThreshold:   15,
		BurstCooldownMin: 60,
		PoisonThreshold:  3,
	}
	return c
}
