package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// ProviderConfig describes the remote events provider.
type ProviderConfig struct {
	// BaseURL is the provider API root, without the /v1/events/ suffix.
	BaseURL string `yaml:"base_url" json:"base_url" env:"PREDICTHQ_BASE_URL"`
	// Token is the bearer token. Usually supplied via PREDICTHQ_TOKEN rather
	// than written to disk; when empty every request falls back to synthesis.
	Token string `yaml:"token,omitempty" json:"-" env:"PREDICTHQ_TOKEN"`
	// Timeout bounds one provider round trip.
	Timeout time.Duration `yaml:"timeout" json:"timeout"`
	// Limit is the page size sent as the limit query parameter.
	Limit int `yaml:"limit" json:"limit"`
	// RatePerMinute caps outbound provider requests. Zero disables the cap.
	RatePerMinute int `yaml:"rate_per_minute" json:"rate_per_minute"`
}

// SessionConfig controls the download session lifecycle.
type SessionConfig struct {
	TTL   time.Duration `yaml:"ttl" json:"ttl"`
	Grace time.Duration `yaml:"grace" json:"grace"`
}

// BatchConfig describes the scheduled generation of the static events.ics.
type BatchConfig struct {
	Enabled bool `yaml:"enabled" json:"enabled"`
	// Schedule is a cron expression (e.g. "0 4 * * *").
	Schedule string `yaml:"schedule" json:"schedule"`
	// Output is the path of the generated calendar file.
	Output string `yaml:"output" json:"output"`
	// Location uses the "<radius>km@<lat>,<lon>" form.
	Location   string `yaml:"location" json:"location"`
	CityName   string `yaml:"city_name" json:"city_name"`
	Categories string `yaml:"categories" json:"categories"`
	Weeks      int    `yaml:"weeks" json:"weeks"`
}

// HTTPConfig holds server timeouts.
type HTTPConfig struct {
	ReadTimeout  time.Duration `yaml:"read_timeout" json:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout" json:"write_timeout"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the API.
	Listen string `yaml:"listen" json:"listen"`

	// Port, when set through the PORT environment variable, replaces the port
	// of Listen and binds on all interfaces.
	Port string `yaml:"-" json:"-" env:"PORT"`

	// Timezone is the IANA zone used for event times and the calendar header.
	Timezone string `yaml:"timezone" json:"timezone"`

	// CalendarName is the X-WR-CALNAME prefix of generated calendars.
	CalendarName string `yaml:"calendar_name" json:"calendar_name"`

	// LogLevel is one of DEBUG, INFO, ERROR.
	LogLevel string `yaml:"log_level" json:"log_level" env:"EVENTCAL_LOG_LEVEL"`

	Provider ProviderConfig `yaml:"provider" json:"provider"`
	Session  SessionConfig  `yaml:"session" json:"session"`
	Batch    BatchConfig    `yaml:"batch" json:"batch"`
	HTTP     HTTPConfig     `yaml:"http" json:"http"`
}

const (
	defaultListen       = "127.0.0.1:3000"
	defaultTimezone     = "UTC"
	defaultCalendarName = "Local Events"
	defaultBaseURL      = "https://api.predicthq.com"
	defaultBatchOutput  = "./public/events.ics"
	defaultBatchLoc     = "50km@52.5200,13.4050"
	defaultBatchCity    = "Berlin"
)

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:       defaultListen,
		Timezone:     defaultTimezone,
		CalendarName: defaultCalendarName,
		LogLevel:     "INFO",
		Provider: ProviderConfig{
			BaseURL:       defaultBaseURL,
			Timeout:       15 * time.Second,
			Limit:         100,
			RatePerMinute: 60,
		},
		Session: SessionConfig{
			TTL:   10 * time.Minute,
			Grace: time.Second,
		},
		Batch: BatchConfig{
			Enabled:    false,
			Schedule:   "0 4 * * *",
			Output:     defaultBatchOutput,
			Location:   defaultBatchLoc,
			CityName:   defaultBatchCity,
			Categories: "concerts,festivals,performing-arts,sports",
			Weeks:      4,
		},
		HTTP: HTTPConfig{
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
	}
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = defaultListen
	}
	if c.Timezone == "" {
		c.Timezone = defaultTimezone
	}
	if c.CalendarName == "" {
		c.CalendarName = defaultCalendarName
	}
	if c.LogLevel == "" {
		c.LogLevel = "INFO"
	}

	if c.Provider.BaseURL == "" {
		c.Provider.BaseURL = defaultBaseURL
	}
	if c.Provider.Timeout <= 0 {
		c.Provider.Timeout = 15 * time.Second
	}
	if c.Provider.Limit <= 0 {
		c.Provider.Limit = 100
	}
	if c.Provider.RatePerMinute < 0 {
		c.Provider.RatePerMinute = 0
	}

	if c.Session.TTL <= 0 {
		c.Session.TTL = 10 * time.Minute
	}
	if c.Session.Grace <= 0 {
		c.Session.Grace = time.Second
	}

	if c.Batch.Schedule == "" {
		c.Batch.Schedule = "0 4 * * *"
	}
	if c.Batch.Output == "" {
		c.Batch.Output = defaultBatchOutput
	}
	if c.Batch.Location == "" {
		c.Batch.Location = defaultBatchLoc
		if c.Batch.CityName == "" {
			c.Batch.CityName = defaultBatchCity
		}
	}
	if c.Batch.Weeks <= 0 {
		c.Batch.Weeks = 4
	}

	if c.HTTP.ReadTimeout <= 0 {
		c.HTTP.ReadTimeout = 10 * time.Second
	}
	if c.HTTP.WriteTimeout <= 0 {
		c.HTTP.WriteTimeout = 30 * time.Second
	}
}

// ApplyEnv overlays environment variables (PREDICTHQ_TOKEN, PREDICTHQ_BASE_URL,
// PORT, EVENTCAL_LOG_LEVEL) on top of the file values.
func (c *Config) ApplyEnv() error {
	if err := env.Parse(c); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	if c.Port != "" {
		c.Listen = ":" + c.Port
	}
	c.Normalize()
	return nil
}

// Load loads configuration from the given YAML path and applies environment
// overrides.
//
// Behavior:
//   - If the file does not exist:
//   - create parent directory if needed
//   - write a default config with 0600 perms
//   - return the default config
//   - If the file exists:
//   - read YAML and unmarshal into Config
//   - normalize defaults
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// First run: create default config file.
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			if err := cfg.ApplyEnv(); err != nil {
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes the given configuration to the specified path. The token is
// never written back; keep it in the environment.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	out := *cfg
	out.Provider.Token = ""

	data, err := yaml.Marshal(&out)
	if err != nil {
		return err
	}

	return WriteFileAtomic(path, data, 0o600)
}

// WriteFileAtomic writes data to a temp file in the same directory, then
// renames it over path, so readers never observe a partial file.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".eventcal-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	// Ensure we clean up temp file on error.
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}

	// Flush and close before chmod/rename.
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Chmod(tmpName, perm); err != nil {
		return err
	}

	return os.Rename(tmpName, path)
}
