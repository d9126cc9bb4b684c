//go:build windows

package detector

import (
	"github.com/t3track/t3agent/pkg/integrations/winapi"
	"github.com/t3track/t3agent/pkg/window"
)

func newPlatformBackend() (window.Backend, error) {
	return winapi.New(), nil
}
