//go:build linux

package power

import (
	"context"

	"github.com/godbus/dbus/v5"
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"

	"github.com/t3track/t3agent/internal/logging"
	"github.com/t3track/t3agent/internal/tracking"
)

const (
	logindDest      = "org.freedesktop.login1"
	logindPath      = "/org/freedesktop/login1"
	logindInterface = "org.freedesktop.login1.Manager"
)

// Logind listens for PrepareForSleep on the system bus and holds a delay
// inhibitor so the suspend handler runs before the machine sleeps.
type Logind struct {
	logger logging.Logger
	errs   tracking.ErrorSink
	who    string

	conn *dbus.Conn
	fd   int
}

// New returns the logind monitor.
func New(who string, logger logging.Logger, errs tracking.ErrorSink) Monitor {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Logind{logger: logger, errs: sinkOrNop(errs), who: who, fd: -1}
}

// Available reports whether the system bus is reachable.
func (l *Logind) Available() bool {
	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

// Run blocks until ctx is cancelled.
func (l *Logind) Run(ctx context.Context, handle Handler) error {
	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		l.errs.RecordError("power", errors.Wrap(err, "failed to connect to system bus"))
		l.logger.Warn("power notifications unavailable", "error", err)
		<-ctx.Done()
		return nil
	}
	l.conn = conn
	defer conn.Close()

	if err := conn.AddMatchSignal(
		dbus.WithMatchObjectPath(logindPath),
		dbus.WithMatchInterface(logindInterface),
		dbus.WithMatchMember("PrepareForSleep"),
	); err != nil {
		return errors.Wrap(err, "failed to subscribe to PrepareForSleep")
	}

	signals := make(chan *dbus.Signal, 8)
	conn.Signal(signals)
	defer conn.RemoveSignal(signals)

	l.acquire()
	defer l.release()

	l.logger.Info("listening for logind sleep signals")
	for {
		select {
		case <-ctx.Done():
			return nil
		case sig, ok := <-signals:
			if !ok {
				return errors.New("system bus connection closed")
			}
			if sig.Name != logindInterface+".PrepareForSleep" {
				continue
			}
			s, ok := signalFromBody(sig.Body)
			if !ok {
				l.logger.Warn("unexpected PrepareForSleep payload", "body", sig.Body)
				continue
			}

			l.logger.Info("power signal", "signal", s.String())
			handle(s)

			if s == Suspend {
				l.release()
			} else {
				l.acquire()
			}
		}
	}
}

func (l *Logind) acquire() {
	if l.fd >= 0 {
		return
	}

	var fd dbus.UnixFD
	obj := l.conn.Object(logindDest, logindPath)
	err := obj.Call(logindInterface+".Inhibit", 0,
		"sleep", l.who, "Saving activity before sleep", "delay").Store(&fd)
	if err != nil {
		l.errs.RecordError("power", errors.Wrap(err, "failed to take sleep inhibitor"))
		l.logger.Warn("sleep inhibitor unavailable, suspend flush may race", "error", err)
		return
	}
	l.fd = int(fd)
}

func (l *Logind) release() {
	if l.fd < 0 {
		return
	}
	if err := unix.Close(l.fd); err != nil {
		l.logger.Warn("failed to release sleep inhibitor", "error", err)
	}
	l.fd = -1
}
