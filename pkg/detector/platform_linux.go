//go:build linux

package detector

import (
	"os"

	"github.com/pkg/errors"

	"github.com/t3track/t3agent/pkg/integrations/hybrid"
	"github.com/t3track/t3agent/pkg/integrations/wayland"
	"github.com/t3track/t3agent/pkg/integrations/x11"
	"github.com/t3track/t3agent/pkg/window"
)

func newPlatformBackend() (window.Backend, error) {
	switch DetectDisplayServer() {
	case "wayland":
		wl := wayland.NewDetector()
		if os.Getenv("DISPLAY") == "" {
			return wl, nil
		}
		return hybrid.New(wl, x11.NewDetector()), nil
	case "x11":
		return x11.NewDetector(), nil
	}
	return nil, errors.Wrap(ErrNoBackend, "neither WAYLAND_DISPLAY nor DISPLAY is set")
}
