package shared

import (
	_ "embed"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Endpoint EndpointConfig `toml:"endpoint"`
	Sync     SyncConfig     `toml:"sync"`
	Bookings BookingsConfig `toml:"bookings"`
	Admin    AdminConfig    `toml:"admin"`
	Welcome  WelcomeConfig  `toml:"welcome"`
	Database DatabaseConfig `toml:"database"`
	Server   ServerConfig   `toml:"server"`
	Log      LogConfig      `toml:"log"`
}

// EndpointConfig locates the sheet endpoint.
type EndpointConfig struct {
	URL       string `toml:"url"`
	TimeoutMS int    `toml:"timeout_ms"`
}

// SyncConfig tunes the poll scheduler and the reconciliation pass.
type SyncConfig struct {
	IntervalMS       int  `toml:"interval_ms"`
	MinIntervalMS    int  `toml:"min_interval_ms"`
	GracePeriodMS    int  `toml:"grace_period_ms"`
	ResumeDelayMS    int  `toml:"resume_delay_ms"`
	SendOnlyChanged  bool `toml:"send_only_changed"`
	ResyncAfterEdit  bool `toml:"resync_after_edit"`
	ForceNotesAsText bool `toml:"force_notes_as_text"`
	UTCOffsetHours   int  `toml:"utc_offset_hours"`
}

// BookingsConfig holds input limits.
type BookingsConfig struct {
	MaxSongs          int `toml:"max_songs"`
	PhoneLength       int `toml:"phone_length"`
	MinPasswordLength int `toml:"min_password_length"`
	MaxLoginAttempts  int `toml:"max_login_attempts"`
}

// AdminConfig contains the locally checked admin credentials. An empty password disables admin login.
type AdminConfig struct {
	Username string `toml:"username"`
	Password string `toml:"password"`
}

// WelcomeConfig controls the first-booking message and its contact link.
type WelcomeConfig struct {
	Enabled            bool   `toml:"enabled"`
	WhatsAppNumber     string `toml:"whatsapp_number"`
	Template           string `toml:"template"`
	Message            string `toml:"message"`
	DurationMinutes    int    `toml:"duration_minutes"`
	RemoveOnLastDelete bool   `toml:"remove_on_last_delete"`
	ShowForAdmin       bool   `toml:"show_for_admin"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains settings for the development sheet server.
type ServerConfig struct {
	Host         string `toml:"host"`
	Port         int    `toml:"port"`
	DatabasePath string `toml:"database_path"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level   string `toml:"level"`
	TUIFile string `toml:"tui_file"`
}

func millis(ms int) time.Duration { return time.Duration(ms) * time.Millisecond }

func (c SyncConfig) Interval() time.Duration { return millis(c.IntervalMS) }
func (c SyncConfig) MinInterval() time.Duration { return millis(c.MinIntervalMS) }
func (c SyncConfig) GracePeriod() time.Duration { return millis(c.GracePeriodMS) }
func (c SyncConfig) ResumeDelay() time.Duration { return millis(c.ResumeDelayMS) }

func (c EndpointConfig) Timeout() time.Duration { return millis(c.TimeoutMS) }

func (c WelcomeConfig) Duration() time.Duration {
	return time.Duration(c.DurationMinutes) * time.Minute
}

// Addr returns the host:port listen address of the development server.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Validate checks the values the sync client cannot run without.
func (c *Config) Validate() error {
	if c.Endpoint.URL == "" {
		return fmt.Errorf("%w: endpoint.url is required", ErrInvalidConfig)
	}
	if u, err := url.Parse(c.Endpoint.URL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: endpoint.url %q is not an absolute URL", ErrInvalidConfig, c.Endpoint.URL)
	}
	if c.Sync.IntervalMS <= 0 {
		return fmt.Errorf("%w: sync.interval_ms must be positive", ErrInvalidConfig)
	}
	if c.Sync.MinIntervalMS < 0 || c.Sync.GracePeriodMS < 0 || c.Sync.ResumeDelayMS < 0 {
		return fmt.Errorf("%w: sync durations must not be negative", ErrInvalidConfig)
	}
	if c.Sync.UTCOffsetHours < -12 || c.Sync.UTCOffsetHours > 14 {
		return fmt.Errorf("%w: sync.utc_offset_hours %d out of range", ErrInvalidConfig, c.Sync.UTCOffsetHours)
	}
	return nil
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep their embedded defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ResolveConfig loads the config at path when it exists, falls back to defaults otherwise,
// and applies environment overrides on top.
func ResolveConfig(path string) (*Config, error) {
	config := DefaultConfig()
	if _, err := os.Stat(path); err == nil {
		loaded, err := LoadConfig(path)
		if err != nil {
			return nil, err
		}
		config = loaded
	}

	ApplyEnv(config)
	return config, nil
}
