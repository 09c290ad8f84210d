// Package config loads the TOML configuration file named in spec.md
// §6, defaulting every key when the file is absent.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/leddt/bwtui/pkg/vaulterr"
)

// FileName is the config file's name inside the per-user config directory.
const FileName = "config.toml"

// Cache holds the `[cache]` table.
type Cache struct {
	TTLSeconds         int  `toml:"ttl_seconds"`
	AutoRefreshMinutes int  `toml:"auto_refresh_minutes"`
	Enabled            bool `toml:"enabled"`
}

// Config is the full set of user-tunable settings from spec.md §6.
type Config struct {
	ClipboardTimeout int   `toml:"clipboard_timeout"`
	AutoLockMinutes  int   `toml:"auto_lock_minutes"`
	CaseSensitive    bool  `toml:"case_sensitive"`
	FuzzyMatching    bool  `toml:"fuzzy_matching"`
	Cache            Cache `toml:"cache"`

	// HostCommand names the host CLI binary to invoke. spec.md §6 names
	// the host tool only abstractly; this key makes the binary
	// configurable rather than hardcoded.
	HostCommand string `toml:"host_command"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		ClipboardTimeout: 30,
		AutoLockMinutes:  15,
		CaseSensitive:    false,
		FuzzyMatching:    true,
		Cache: Cache{
			TTLSeconds:         300,
			AutoRefreshMinutes: 5,
			Enabled:            true,
		},
		HostCommand: "bw",
	}
}

// ClipboardTimeoutDuration returns ClipboardTimeout as a time.Duration.
func (c Config) ClipboardTimeoutDuration() time.Duration {
	return time.Duration(c.ClipboardTimeout) * time.Second
}

// AutoLockDuration returns AutoLockMinutes as a time.Duration.
func (c Config) AutoLockDuration() time.Duration {
	return time.Duration(c.AutoLockMinutes) * time.Minute
}

// CacheTTL returns Cache.TTLSeconds as a time.Duration.
func (c Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLSeconds) * time.Second
}

// Load reads dir/FileName, falling back to Default for any key not
// present in the file. A missing file is not an error.
func Load(dir string) (Config, error) {
	cfg := Default()

	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, &vaulterr.IoError{Path: path, Err: err}
	}

	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return Default(), &vaulterr.ConfigError{Msg: err.Error()}
	}
	return cfg, nil
}
