package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// parseInterval accepts either a Go duration ("90s", "2m") or a bare
// number of seconds.
func parseInterval(value string) (time.Duration, bool) {
	if seconds, err := strconv.Atoi(value); err == nil {
		if seconds <= 0 {
			return 0, false
		}
		return time.Duration(seconds) * time.Second, true
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return 0, false
	}
	return d, true
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// LoadFromEnv loads configuration from environment variables
// Environment variables override default and file values
func LoadFromEnv(cfg *Config) {
	// Database configuration
	if dbPath := os.Getenv("T3_DB_PATH"); dbPath != "" {
		cfg.Database.Path = dbPath
	}

	// Tracker configuration
	if v := os.Getenv("T3_SAMPLE_INTERVAL"); v != "" {
		if interval, ok := parseInterval(v); ok {
			if interval >= cfg.Tracker.MinSampleInterval && interval <= cfg.Tracker.MaxSampleInterval {
				cfg.Tracker.SampleInterval = interval
			}
		}
	}

	if v := os.Getenv("T3_AUTOSTART"); v != "" {
		if val, err := strconv.ParseBool(v); err == nil {
			cfg.Tracker.AutoStart = val
		}
	}

	// Capture configuration
	if v := os.Getenv("T3_CAPTURE_ENABLED"); v != "" {
		if val, err := strconv.ParseBool(v); err == nil {
			cfg.Capture.Enabled = val
		}
	}

	if v := os.Getenv("T3_CAPTURE_INTERVAL"); v != "" {
		if interval, ok := parseInterval(v); ok {
			if interval >= cfg.Capture.MinInterval && interval <= cfg.Capture.MaxInterval {
				cfg.Capture.Interval = interval
			}
		}
	}

	if dir := os.Getenv("T3_CAPTURE_DIR"); dir != "" {
		cfg.Capture.Dir = dir
	}

	if mode := os.Getenv("T3_CAPTURE_MODE"); mode == CaptureModeActive || mode == CaptureModeSources {
		cfg.Capture.Mode = mode
	}

	if apps := os.Getenv("T3_HOST_APPS"); apps != "" {
		cfg.Capture.HostApps = splitList(apps)
	}

	// Relay configuration
	if v := os.Getenv("T3_RELAY_ENABLED"); v != "" {
		if val, err := strconv.ParseBool(v); err == nil {
			cfg.Relay.Enabled = val
		}
	}

	if baseURL := os.Getenv("T3_RELAY_URL"); baseURL != "" {
		cfg.Relay.BaseURL = strings.TrimRight(baseURL, "/")
	}

	if token := os.Getenv("T3_TOKEN"); token != "" {
		cfg.Relay.Token = token
	}

	// Daemon configuration
	if pidFile := os.Getenv("T3_PID_FILE"); pidFile != "" {
		cfg.Daemon.PIDFile = pidFile
	}

	if logFile := os.Getenv("T3_LOG_FILE"); logFile != "" {
		cfg.Daemon.LogFile = logFile
	}

	// Web configuration
	if webHost := os.Getenv("T3_WEB_HOST"); webHost != "" {
		cfg.Web.Host = webHost
	}

	if webPort := os.Getenv("T3_WEB_PORT"); webPort != "" {
		if port, err := strconv.Atoi(webPort); err == nil && port > 0 && port <= 65535 {
			cfg.Web.Port = port
		}
	}

	if origins := os.Getenv("T3_WEB_ALLOWED_ORIGINS"); origins != "" {
		cfg.Web.AllowedOrigins = splitList(origins)
	}

	// Logging configuration
	if level := os.Getenv("T3_LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}

	if format := os.Getenv("T3_LOG_FORMAT"); format != "" {
		cfg.Logging.Format = format
	}
}

// New creates a new Config with default values and loads from environment
func New() *Config {
	cfg := Default()
	LoadFromEnv(cfg)
	return cfg
}
