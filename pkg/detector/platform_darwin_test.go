//go:build darwin

package detector

import (
	"testing"

	"github.com/t3track/t3agent/pkg/integrations/darwin"
	"github.com/t3track/t3agent/pkg/window"
)

func TestDarwinBackend(t *testing.T) {
	b, err := newPlatformBackend()
	if err != nil {
		t.Fatalf("newPlatformBackend() error = %v", err)
	}
	defer b.Close()

	if _, ok := b.(*darwin.Backend); !ok {
		t.Errorf("newPlatformBackend() = %T, want *darwin.Backend", b)
	}
	if _, ok := b.(window.PermissionRequester); !ok {
		t.Error("darwin backend should request screen recording permission")
	}
}
