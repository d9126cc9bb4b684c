//go:build !linux && !windows && !darwin

package detector

import (
	"runtime"

	"github.com/pkg/errors"

	"github.com/t3track/t3agent/pkg/window"
)

func newPlatformBackend() (window.Backend, error) {
	return nil, errors.Wrapf(ErrNoBackend, "unsupported platform %s", runtime.GOOS)
}
