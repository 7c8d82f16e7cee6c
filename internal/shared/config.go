package shared

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Backend   BackendConfig   `toml:"backend"`
	Polling   PollingConfig   `toml:"polling"`
	Selection SelectionConfig `toml:"selection"`
	Upload    UploadConfig    `toml:"upload"`
	Download  DownloadConfig  `toml:"download"`
	Database  DatabaseConfig  `toml:"database"`
	Log       LogConfig       `toml:"log"`
}

// BackendConfig locates the video-generation backend.
type BackendConfig struct {
	URL            string `toml:"url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	UserAgent      string `toml:"user_agent"`
}

// PollingConfig holds the cadences and budgets of every poller.
type PollingConfig struct {
	JobIntervalMS          int `toml:"job_interval_ms"`
	DashboardIntervalMS    int `toml:"dashboard_interval_ms"`
	DashboardLimit         int `toml:"dashboard_limit"`
	TaskIntervalMS         int `toml:"task_interval_ms"`
	TaskMaxPolls           int `toml:"task_max_polls"`
	TaskFailureNoticeEvery int `toml:"task_failure_notice_every"`
	SimulationIntervalMS   int `toml:"simulation_interval_ms"`
}

// SelectionConfig tunes the remote selection mirror.
type SelectionConfig struct {
	NotifyRate float64 `toml:"notify_rate"`
}

// UploadConfig controls client-side preparation of the images archive.
type UploadConfig struct {
	CompressImages bool `toml:"compress_images"`
	MaxDimension   int  `toml:"max_dimension"`
	JPEGQuality    int  `toml:"jpeg_quality"`
}

// DownloadConfig holds archive download defaults.
type DownloadConfig struct {
	Resolution string `toml:"resolution"`
	Directory  string `toml:"directory"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// LogConfig controls log verbosity and the file used while the TUI runs.
type LogConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

func ms(n int) time.Duration { return time.Duration(n) * time.Millisecond }

// JobInterval is the job-details poll cadence.
func (p PollingConfig) JobInterval() time.Duration { return ms(p.JobIntervalMS) }

// DashboardInterval is the job-list poll cadence.
func (p PollingConfig) DashboardInterval() time.Duration { return ms(p.DashboardIntervalMS) }

// TaskInterval is the upscale status poll cadence.
func (p PollingConfig) TaskInterval() time.Duration { return ms(p.TaskIntervalMS) }

// SimulationInterval is the tick of the simulated upscale ramp.
func (p PollingConfig) SimulationInterval() time.Duration { return ms(p.SimulationIntervalMS) }

// Timeout is the per-request HTTP timeout.
func (b BackendConfig) Timeout() time.Duration {
	return time.Duration(b.TimeoutSeconds) * time.Second
}

// Validate rejects configurations the pollers cannot run with.
func (c *Config) Validate() error {
	if c.Backend.URL == "" {
		return fmt.Errorf("%w: backend.url is empty", ErrInvalidConfig)
	}
	checks := []struct {
		name  string
		value int
	}{
		{"polling.job_interval_ms", c.Polling.JobIntervalMS},
		{"polling.dashboard_interval_ms", c.Polling.DashboardIntervalMS},
		{"polling.task_interval_ms", c.Polling.TaskIntervalMS},
		{"polling.task_max_polls", c.Polling.TaskMaxPolls},
		{"polling.task_failure_notice_every", c.Polling.TaskFailureNoticeEvery},
		{"polling.simulation_interval_ms", c.Polling.SimulationIntervalMS},
	}
	for _, ch := range checks {
		if ch.value <= 0 {
			return fmt.Errorf("%w: %s must be positive, got %d", ErrInvalidConfig, ch.name, ch.value)
		}
	}
	if c.Selection.NotifyRate <= 0 {
		return fmt.Errorf("%w: selection.notify_rate must be positive", ErrInvalidConfig)
	}
	return nil
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep the embedded defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
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
