package daemon

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// ChildEnv marks a process started by Spawn.
const ChildEnv = "T3_DAEMON_CHILD"

type Daemon struct {
	pidFile string
}

func New(pidFile string) *Daemon {
	return &Daemon{pidFile: pidFile}
}

// IsChild reports whether this process was started by Spawn.
func IsChild() bool {
	return os.Getenv(ChildEnv) == "1"
}

func (d *Daemon) PIDFile() string {
	return d.pidFile
}

func (d *Daemon) WritePID() error {
	pid := os.Getpid()
	return os.WriteFile(d.pidFile, fmt.Appendf([]byte{}, "%d", pid), 0644)
}

func (d *Daemon) ReadPID() (int, error) {
	data, err := os.ReadFile(d.pidFile)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, errors.Wrap(err, "failed to read PID file")
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, errors.Wrap(err, "invalid PID in file")
	}

	return pid, nil
}

func (d *Daemon) RemovePID() error {
	if err := os.Remove(d.pidFile); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "failed to remove PID file")
	}
	return nil
}

func (d *Daemon) IsRunning() (bool, int, error) {
	pid, err := d.ReadPID()
	if err != nil {
		return false, 0, err
	}

	if pid == 0 {
		return false, 0, nil
	}

	if !processAlive(pid) {
		d.RemovePID()
		return false, 0, nil
	}

	return true, pid, nil
}

func (d *Daemon) Stop() error {
	running, pid, err := d.IsRunning()
	if err != nil {
		return errors.Wrap(err, "error checking daemon status")
	}

	if !running {
		return errors.New("daemon is not running or PID file is stale")
	}

	if err := terminate(pid); err != nil {
		if !processAlive(pid) {
			_ = d.RemovePID()
			return errors.New("daemon process already terminated")
		}
		return errors.Wrap(err, "failed to signal daemon")
	}

	return nil
}

// Spawn starts args[0] with args[1:] as a detached child, with stdout and
// stderr appended to logFile and ChildEnv set. The child writes its own
// PID file.
func (d *Daemon) Spawn(args []string, logFile string) (int, error) {
	if len(args) == 0 {
		return 0, errors.New("no command to spawn")
	}

	running, pid, err := d.IsRunning()
	if err != nil {
		return 0, errors.Wrap(err, "failed to check daemon status")
	}
	if running {
		return 0, errors.Errorf("daemon is already running (PID: %d)", pid)
	}

	logF, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return 0, errors.Wrap(err, "failed to open log file")
	}
	defer logF.Close()

	procAttr := &os.ProcAttr{
		Env:   append(os.Environ(), ChildEnv+"=1"),
		Files: []*os.File{nil, logF, logF},
		Sys:   detachAttr(),
	}

	process, err := os.StartProcess(args[0], args, procAttr)
	if err != nil {
		return 0, errors.Wrap(err, "failed to start daemon process")
	}

	pid = process.Pid
	if err := process.Release(); err != nil {
		return pid, errors.Wrap(err, "failed to release daemon process")
	}
	return pid, nil
}
