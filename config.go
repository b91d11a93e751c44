package goSession

import (
	"errors"
	"time"

	"github.com/MrEthical07/goSession/checksum"
)

// Config holds every tunable of a Manager. Zero values are not defaults;
// start from DefaultConfig.
type Config struct {
	Session  SessionConfig  `yaml:"session"`
	Refresh  RefreshConfig  `yaml:"refresh"`
	Idle     IdleConfig     `yaml:"idle"`
	Health   HealthConfig   `yaml:"health"`
	Network  NetworkConfig  `yaml:"network"`
	Sync     SyncConfig     `yaml:"sync"`
	Storage  StorageConfig  `yaml:"storage"`
	Profile  ProfileConfig  `yaml:"profile"`
	Checksum ChecksumConfig `yaml:"checksum"`
	Audit    AuditConfig    `yaml:"audit"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig bounds sessions whose expiry cannot be read.
type SessionConfig struct {
	// Window is applied from now when neither the session nor its access
	// token carries an expiry.
	Window time.Duration `yaml:"window"`
}

/*
====================================
REFRESH CONFIG
====================================
*/

// RefreshConfig tunes the scheduler and retry controller.
type RefreshConfig struct {
	Buffer         time.Duration   `yaml:"buffer"`
	MinDelay       time.Duration   `yaml:"min_delay"`
	MaxRetries     int             `yaml:"max_retries"`
	Backoff        []time.Duration `yaml:"backoff"`
	Cooldown       time.Duration   `yaml:"cooldown"`
	RequestTimeout time.Duration   `yaml:"request_timeout"`
}

/*
====================================
IDLE CONFIG
====================================
*/

// IdleConfig tunes idle validation. Interval 0 disables it.
type IdleConfig struct {
	Interval  time.Duration `yaml:"interval"`
	Threshold time.Duration `yaml:"threshold"`
}

/*
====================================
HEALTH CONFIG
====================================
*/

// HealthConfig tunes the health poller. Interval 0 disables periodic polls;
// the first-boot check still runs when a HealthChecker is configured.
type HealthConfig struct {
	Interval time.Duration `yaml:"interval"`
	Timeout  time.Duration `yaml:"timeout"`
}

/*
====================================
NETWORK CONFIG
====================================
*/

// NetworkConfig tunes the reachability monitor.
type NetworkConfig struct {
	Debounce time.Duration `yaml:"debounce"`
}

/*
====================================
SYNC CONFIG
====================================
*/

// SyncConfig names the cross-instance channel.
type SyncConfig struct {
	ChannelName string `yaml:"channel_name"`
}

/*
====================================
STORAGE CONFIG
====================================
*/

// StorageConfig names durable cache keys.
type StorageConfig struct {
	AdminFlagKey string `yaml:"admin_flag_key"`
}

/*
====================================
PROFILE CONFIG
====================================
*/

// ProfileConfig controls role resolution.
type ProfileConfig struct {
	DefaultRole string `yaml:"default_role"`
	// AdminRole, when resolved from the profile, also grants the admin flag.
	AdminRole string `yaml:"admin_role"`
}

/*
====================================
CHECKSUM CONFIG
====================================
*/

// ChecksumConfig selects the fingerprint digest: "sha256", "blake3" or
// "fallback".
type ChecksumConfig struct {
	Digest string `yaml:"digest"`
}

/*
====================================
AUDIT / METRICS CONFIG
====================================
*/

// AuditConfig controls asynchronous audit dispatch.
type AuditConfig struct {
	Enabled    bool `yaml:"enabled"`
	BufferSize int  `yaml:"buffer_size"`
	DropIfFull bool `yaml:"drop_if_full"`
}

// MetricsConfig controls in-process counters.
type MetricsConfig struct {
	Enabled                 bool `yaml:"enabled"`
	EnableLatencyHistograms bool `yaml:"enable_latency_histograms"`
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		Session: SessionConfig{
			Window: 90 * time.Minute,
		},
		Refresh: RefreshConfig{
			Buffer:         30 * time.Second,
			MinDelay:       time.Second,
			MaxRetries:     3,
			Backoff:        []time.Duration{2 * time.Second, 4 * time.Second, 8 * time.Second},
			Cooldown:       time.Second,
			RequestTimeout: 10 * time.Second,
		},
		Idle: IdleConfig{
			Interval:  60 * time.Second,
			Threshold: 30 * time.Second,
		},
		Health: HealthConfig{
			Interval: 30 * time.Second,
			Timeout:  5 * time.Second,
		},
		Network: NetworkConfig{
			Debounce: time.Second,
		},
		Sync: SyncConfig{
			ChannelName: "gosession-sync",
		},
		Storage: StorageConfig{
			AdminFlagKey: "isAdmin",
		},
		Profile: ProfileConfig{
			DefaultRole: "user",
			AdminRole:   "admin",
		},
		Checksum: ChecksumConfig{
			Digest: "sha256",
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 true,
			EnableLatencyHistograms: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Refresh.Backoff = cloneDurations(cfg.Refresh.Backoff)
	return out
}

func cloneDurations(in []time.Duration) []time.Duration {
	if len(in) == 0 {
		return nil
	}
	out := make([]time.Duration, len(in))
	copy(out, in)
	return out
}

func (c ChecksumConfig) digest() checksum.Digest {
	switch c.Digest {
	case "blake3":
		return checksum.DigestBLAKE3
	case "fallback":
		return checksum.DigestFallback
	default:
		return checksum.DigestSHA256
	}
}

/*
====================================
CONFIG VALIDATION
====================================
*/

// Validate rejects configurations the Manager cannot run with.
func (c *Config) Validate() error {
	if c.Session.Window <= 0 {
		return errors.New("Session Window must be > 0")
	}

	if c.Refresh.Buffer < 0 {
		return errors.New("Refresh Buffer must be >= 0")
	}
	if c.Refresh.Buffer >= c.Session.Window {
		return errors.New("Refresh Buffer must be shorter than Session Window")
	}
	if c.Refresh.MinDelay <= 0 {
		return errors.New("Refresh MinDelay must be > 0")
	}
	if c.Refresh.MaxRetries <= 0 {
		return errors.New("Refresh MaxRetries must be > 0")
	}
	if len(c.Refresh.Backoff) == 0 {
		return errors.New("Refresh Backoff must not be empty")
	}
	for i, d := range c.Refresh.Backoff {
		if d <= 0 {
			return errors.New("Refresh Backoff entries must be > 0")
		}
		if i > 0 && d < c.Refresh.Backoff[i-1] {
			return errors.New("Refresh Backoff must be non-decreasing")
		}
	}
	if c.Refresh.Cooldown < 0 {
		return errors.New("Refresh Cooldown must be >= 0")
	}
	if c.Refresh.RequestTimeout < 0 {
		return errors.New("Refresh RequestTimeout must be >= 0")
	}

	if c.Idle.Interval < 0 {
		return errors.New("Idle Interval must be >= 0")
	}
	if c.Idle.Interval > 0 && c.Idle.Threshold <= 0 {
		return errors.New("Idle Threshold must be > 0 when idle validation is enabled")
	}

	if c.Health.Interval < 0 {
		return errors.New("Health Interval must be >= 0")
	}
	if c.Health.Timeout <= 0 {
		return errors.New("Health Timeout must be > 0")
	}

	if c.Network.Debounce < 0 {
		return errors.New("Network Debounce must be >= 0")
	}

	if c.Sync.ChannelName == "" {
		return errors.New("Sync ChannelName must be set")
	}
	if c.Storage.AdminFlagKey == "" {
		return errors.New("Storage AdminFlagKey must be set")
	}
	if c.Profile.DefaultRole == "" {
		return errors.New("Profile DefaultRole must be set")
	}

	switch c.Checksum.Digest {
	case "sha256", "blake3", "fallback":
	default:
		return errors.New("unsupported Checksum Digest")
	}

	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0")
	}
	return nil
}
