//go:build darwin

package detector

import (
	"github.com/t3track/t3agent/pkg/integrations/darwin"
	"github.com/t3track/t3agent/pkg/window"
)

func newPlatformBackend() (window.Backend, error) {
	return darwin.New(), nil
}
