// Package config owns the COPX configuration: a TOML file merged from
// system, user, and project locations, overridable through COPX_
// environment variables. The fusion section is hot-reloadable through the
// file watcher; everything else is read once at start.
package config

// Config represents the core COPX configuration
type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Server   ServerConfig   `mapstructure:"server"`
	Fusion   FusionConfig   `mapstructure:"fusion"`
	Access   AccessConfig   `mapstructure:"access"`
	Audit    AuditConfig    `mapstructure:"audit"`
}

// DatabaseConfig configures the SQLite database
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// ServerConfig configures the COPX HTTP server
type ServerConfig struct {
	Port           *int     `mapstructure:"port"` // nil = default 8470
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	// RateLimitPerSecond caps requests per client token.
	RateLimitPerSecond float64 `mapstructure:"rate_limit_per_second"`
	RateLimitBurst     int     `mapstructure:"rate_limit_burst"`
}

// Server port constants
const (
	DefaultServerPort = 8470
)

// FusionConfig carries the fusion tunables. Durations are in seconds in
// the file; the fusion package converts.
type FusionConfig struct {
	RadiusMeters    float64 `mapstructure:"radius_meters"`
	WindowSeconds   int     `mapstructure:"window_seconds"`
	Compatibility   string  `mapstructure:"compatibility"`
	BonusPerSource  float64 `mapstructure:"bonus_per_source"`
	MaxBonus        float64 `mapstructure:"max_bonus"`
	EventType       string  `mapstructure:"event_type"`
	ScheduleSeconds int     `mapstructure:"schedule_seconds"` // 0 = manual fusion only
}

// AccessConfig configures denial disclosure.
type AccessConfig struct {
	// RevealDenialReasons discloses the role-vs-clearance sub-reason to
	// every denied requester instead of reviewers only.
	RevealDenialReasons bool `mapstructure:"reveal_denial_reasons"`
}

// AuditConfig configures the audit trail.
type AuditConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// File system constants
const (
	DefaultDirPermissions  = 0755
	DefaultFilePermissions = 0644
)
