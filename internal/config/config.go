package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/t3track/t3agent/internal/logging"
	"github.com/t3track/t3agent/internal/productivity"
)

const (
	AppName = "t3agent"

	CaptureModeActive  = "active"
	CaptureModeSources = "sources"
)

// Config holds all application configuration
type Config struct {
	// Tracker configuration
	Tracker TrackerConfig `yaml:"tracker"`

	// Screenshot configuration
	Capture CaptureConfig `yaml:"capture"`

	// Remote API relay configuration
	Relay RelayConfig `yaml:"relay"`

	// App classification used for the productive/unproductive split
	Productivity ProductivityConfig `yaml:"productivity"`

	// Database configuration
	Database DatabaseConfig `yaml:"database"`

	// Daemon configuration
	Daemon DaemonConfig `yaml:"daemon"`

	// Control API configuration
	Web WebConfig `yaml:"web"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging"`
}

// TrackerConfig holds sampling behavior configuration
type TrackerConfig struct {
	SampleInterval    time.Duration `yaml:"sample_interval"` // How often to check focused window
	MinSampleInterval time.Duration `yaml:"-"`               // Minimum allowed sample interval
	MaxSampleInterval time.Duration `yaml:"-"`               // Maximum allowed sample interval
	AutoStart         bool          `yaml:"auto_start"`      // Start a session when the agent starts
}

// CaptureConfig holds screenshot configuration
type CaptureConfig struct {
	Enabled     bool          `yaml:"enabled"`
	Interval    time.Duration `yaml:"interval"` // Time between screenshots
	MinInterval time.Duration `yaml:"-"`
	MaxInterval time.Duration `yaml:"-"`
	Dir         string        `yaml:"dir"`       // Screenshots directory, created on demand
	Mode        string        `yaml:"mode"`      // "active" or "sources"
	HostApps    []string      `yaml:"host_apps"` // App names never captured (case-insensitive)
}

// RelayConfig holds the remote API settings
type RelayConfig struct {
	Enabled bool          `yaml:"enabled"`
	BaseURL string        `yaml:"base_url"`
	Token   string        `yaml:"token"` // Identity token, sent as employee_id
	Timeout time.Duration `yaml:"timeout"`
}

// ProductivityConfig lists app names per category
type ProductivityConfig struct {
	Productive   []string `yaml:"productive"`
	Unproductive []string `yaml:"unproductive"`
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	Path string `yaml:"path"` // Path to SQLite database file
}

// DaemonConfig holds daemon process configuration
type DaemonConfig struct {
	PIDFile string `yaml:"pid_file"` // Path to PID file for daemon management
	LogFile string `yaml:"log_file"` // Log destination when running detached
}

// WebConfig holds control API configuration
type WebConfig struct {
	Host string `yaml:"host"` // Host to bind control API to
	Port int    `yaml:"port"` // Port for control API

	// Browser origins allowed to call the control API. "*" allows any.
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// LoggingConfig holds log output configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns a Config with sensible default values
func Default() *Config {
	uid := os.Getuid()
	if uid < 0 {
		uid = 0 // windows
	}
	tmp := os.TempDir()

	return &Config{
		Tracker: TrackerConfig{
			SampleInterval:    time.Second,
			MinSampleInterval: 500 * time.Millisecond,
			MaxSampleInterval: 60 * time.Second,
			AutoStart:         false,
		},
		Capture: CaptureConfig{
			Enabled:     true,
			Interval:    60 * time.Second,
			MinInterval: 10 * time.Second,
			MaxInterval: 24 * time.Hour,
			Dir:         "screenshots",
			Mode:        CaptureModeActive,
			HostApps:    DefaultHostApps(),
		},
		Relay: RelayConfig{
			Enabled: true,
			BaseURL: "http://127.0.0.1:8001",
			Timeout: 15 * time.Second,
		},
		Productivity: ProductivityConfig{
			Productive:   productivity.DefaultProductive(),
			Unproductive: productivity.DefaultUnproductive(),
		},
		Database: DatabaseConfig{
			Path: "", // Empty means use default ~/.config/t3agent/t3agent.db
		},
		Daemon: DaemonConfig{
			PIDFile: filepath.Join(tmp, fmt.Sprintf("%s-%d.pid", AppName, uid)),
			LogFile: filepath.Join(tmp, fmt.Sprintf("%s-%d.log", AppName, uid)),
		},
		Web: WebConfig{
			Host: "127.0.0.1",
			Port: 47000 + uid%1000,

			// dev server the UI shell loads
			AllowedOrigins: []string{"http://localhost:5173"},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// DefaultHostApps returns the names of this program and of the UI shell
// that hosts it. Their windows are never captured.
func DefaultHostApps() []string {
	apps := []string{AppName, "Electron", "rest-express"}
	if exe, err := os.Executable(); err == nil {
		name := strings.TrimSuffix(filepath.Base(exe), filepath.Ext(exe))
		if name != "" && !strings.EqualFold(name, AppName) {
			apps = append(apps, name)
		}
	}
	return apps
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// Validate tracker intervals
	if c.Tracker.SampleInterval < c.Tracker.MinSampleInterval {
		return fmt.Errorf("sample interval (%v) cannot be less than minimum (%v)",
			c.Tracker.SampleInterval, c.Tracker.MinSampleInterval)
	}

	if c.Tracker.SampleInterval > c.Tracker.MaxSampleInterval {
		return fmt.Errorf("sample interval (%v) cannot be greater than maximum (%v)",
			c.Tracker.SampleInterval, c.Tracker.MaxSampleInterval)
	}

	if c.Capture.Enabled {
		if c.Capture.Interval < c.Capture.MinInterval {
			return fmt.Errorf("capture interval (%v) cannot be less than minimum (%v)",
				c.Capture.Interval, c.Capture.MinInterval)
		}
		if c.Capture.Interval > c.Capture.MaxInterval {
			return fmt.Errorf("capture interval (%v) cannot be greater than maximum (%v)",
				c.Capture.Interval, c.Capture.MaxInterval)
		}
		if c.Capture.Dir == "" {
			return fmt.Errorf("screenshots directory cannot be empty")
		}
	}

	switch c.Capture.Mode {
	case CaptureModeActive, CaptureModeSources:
	default:
		return fmt.Errorf("capture mode must be %q or %q, got %q",
			CaptureModeActive, CaptureModeSources, c.Capture.Mode)
	}

	if c.Relay.Enabled {
		u, err := url.Parse(c.Relay.BaseURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("relay base URL is invalid: %q", c.Relay.BaseURL)
		}
		if c.Relay.Timeout <= 0 {
			return fmt.Errorf("relay timeout must be positive")
		}
	}

	// Validate web config
	if c.Web.Port < 1 || c.Web.Port > 65535 {
		return fmt.Errorf("web port must be between 1 and 65535, got %d", c.Web.Port)
	}

	if c.Web.Host == "" {
		return fmt.Errorf("web host cannot be empty")
	}

	// Validate daemon config
	if c.Daemon.PIDFile == "" {
		return fmt.Errorf("PID file path cannot be empty")
	}

	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		return err
	}

	return nil
}

// SetSampleInterval sets the sample interval with validation
func (c *Config) SetSampleInterval(interval time.Duration) error {
	if interval < c.Tracker.MinSampleInterval {
		return fmt.Errorf("sample interval cannot be less than %v", c.Tracker.MinSampleInterval)
	}
	if interval > c.Tracker.MaxSampleInterval {
		return fmt.Errorf("sample interval cannot be greater than %v", c.Tracker.MaxSampleInterval)
	}
	c.Tracker.SampleInterval = interval
	return nil
}

// SetCaptureInterval sets the screenshot interval with validation
func (c *Config) SetCaptureInterval(interval time.Duration) error {
	if interval < c.Capture.MinInterval {
		return fmt.Errorf("capture interval cannot be less than %v", c.Capture.MinInterval)
	}
	if interval > c.Capture.MaxInterval {
		return fmt.Errorf("capture interval cannot be greater than %v", c.Capture.MaxInterval)
	}
	c.Capture.Interval = interval
	return nil
}

// SetWebPort sets the control API port with validation
func (c *Config) SetWebPort(port int) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", port)
	}
	c.Web.Port = port
	return nil
}

// ControlURL is the base URL of the local control API.
func (c *Config) ControlURL() string {
	return fmt.Sprintf("http://%s:%d", c.Web.Host, c.Web.Port)
}

// String returns a string representation of the config
func (c *Config) String() string {
	token := "(none)"
	if c.Relay.Token != "" {
		token = "(set)"
	}

	return fmt.Sprintf(`Configuration:
  Tracker:
    Sample Interval: %v
    Auto Start: %v
  Capture:
    Enabled: %v
    Interval: %v
    Directory: %s
    Mode: %s
    Host Apps: %s
  Relay:
    Enabled: %v
    Base URL: %s
    Token: %s
  Database:
    Path: %s
  Daemon:
    PID File: %s
    Log File: %s
  Web:
    Host: %s
    Port: %d
    Allowed Origins: %s
  Logging:
    Level: %s
    Format: %s`,
		c.Tracker.SampleInterval,
		c.Tracker.AutoStart,
		c.Capture.Enabled,
		c.Capture.Interval,
		c.Capture.Dir,
		c.Capture.Mode,
		strings.Join(c.Capture.HostApps, ", "),
		c.Relay.Enabled,
		c.Relay.BaseURL,
		token,
		c.Database.Path,
		c.Daemon.PIDFile,
		c.Daemon.LogFile,
		c.Web.Host,
		c.Web.Port,
		strings.Join(c.Web.AllowedOrigins, ", "),
		c.Logging.Level,
		c.Logging.Format,
	)
}
