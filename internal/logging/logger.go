package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

// Logger is the structured logger every component receives.
// Fields are key/value pairs: key1, value1, key2, value2, ...
type Logger interface {
	Debug(msg string, fields ...interface{})
	Info(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
	Error(msg string, fields ...interface{})
}

// Options controls how New builds a logger.
type Options struct {
	Level  string // debug, info, warn, error
	Format string // text or json
	Output io.Writer
}

// SlogLogger adapts log/slog to Logger. Its level can be changed at runtime.
type SlogLogger struct {
	level  *slog.LevelVar
	logger *slog.Logger
}

// New creates a logger writing to opts.Output (stderr when nil).
func New(opts Options) (*SlogLogger, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}

	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	lv := new(slog.LevelVar)
	lv.Set(level)
	handlerOpts := &slog.HandlerOptions{Level: lv}

	var handler slog.Handler
	switch strings.ToLower(opts.Format) {
	case "", "text":
		handler = slog.NewTextHandler(out, handlerOpts)
	case "json":
		handler = slog.NewJSONHandler(out, handlerOpts)
	default:
		return nil, errors.Errorf("unknown log format %q", opts.Format)
	}

	return &SlogLogger{level: lv, logger: slog.New(handler)}, nil
}

// ParseLevel maps a level name onto a slog level. Empty means info.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, errors.Errorf("unknown log level %q", name)
	}
}

// SetLevel changes the minimum level of an existing logger.
func (l *SlogLogger) SetLevel(name string) error {
	level, err := ParseLevel(name)
	if err != nil {
		return err
	}
	l.level.Set(level)
	return nil
}

// With returns a logger that adds fields to every entry.
func (l *SlogLogger) With(fields ...interface{}) Logger {
	return &SlogLogger{level: l.level, logger: l.logger.With(fields...)}
}

func (l *SlogLogger) Debug(msg string, fields ...interface{}) { l.logger.Debug(msg, fields...) }
func (l *SlogLogger) Info(msg string, fields ...interface{})  { l.logger.Info(msg, fields...) }
func (l *SlogLogger) Warn(msg string, fields ...interface{})  { l.logger.Warn(msg, fields...) }
func (l *SlogLogger) Error(msg string, fields ...interface{}) { l.logger.Error(msg, fields...) }

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

// Nop returns a logger that discards everything.
func Nop() Logger { return nopLogger{} }

// Entry is a captured log line, used by Recorder.
type Entry struct {
	Level   string
	Message string
	Fields  []interface{}
}

// Recorder keeps every entry in memory. Tests use it to assert on logging.
type Recorder struct {
	mu      sync.Mutex
	entries []Entry
}

func (r *Recorder) record(level, msg string, fields []interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, Entry{Level: level, Message: msg, Fields: fields})
}

func (r *Recorder) Debug(msg string, fields ...interface{}) { r.record("DEBUG", msg, fields) }
func (r *Recorder) Info(msg string, fields ...interface{})  { r.record("INFO", msg, fields) }
func (r *Recorder) Warn(msg string, fields ...interface{})  { r.record("WARN", msg, fields) }
func (r *Recorder) Error(msg string, fields ...interface{}) { r.record("ERROR", msg, fields) }

// Entries returns a copy of everything recorded so far.
func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Count returns how many entries were recorded at the given level.
func (r *Recorder) Count(level string) int {
	n := 0
	for _, e := range r.Entries() {
		if e.Level == level {
			n++
		}
	}
	return n
}
