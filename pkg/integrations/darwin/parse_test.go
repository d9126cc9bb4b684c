package darwin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/t3track/t3agent/pkg/integrations/common"
)

func TestParseFront(t *testing.T) {
	info, r, err := parseFront("Safari|812|Apple|0,25,1440,875\n")
	require.NoError(t, err)

	assert.Equal(t, "Safari", info.AppName)
	assert.Equal(t, "Apple", info.WindowTitle)
	assert.Equal(t, uint32(812), info.PID)
	assert.Equal(t, "darwin", info.DisplayServer)
	require.NotNil(t, r)
	assert.Equal(t, common.Rect{X: 0, Y: 25, Width: 1440, Height: 875}, *r)
}

func TestParseFrontWithoutWindow(t *testing.T) {
	info, r, err := parseFront("Finder|301||")
	require.NoError(t, err)
	assert.Equal(t, "Finder", info.AppName)
	assert.Empty(t, info.WindowTitle)
	assert.Nil(t, r)
}

func TestParseFrontInvalid(t *testing.T) {
	_, _, err := parseFront("")
	assert.Error(t, err)
}

func TestRegionArg(t *testing.T) {
	assert.Equal(t, "10,20,300,400", regionArg(common.Rect{X: 10, Y: 20, Width: 300, Height: 400}))
}
