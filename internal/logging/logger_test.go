package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTextLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Level: "info", Format: "text", Output: &buf})
	require.NoError(t, err)

	logger.Debug("hidden")
	logger.Info("tracking started", "session", 3)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "tracking started")
	assert.Contains(t, out, "session=3")
}

func TestNewJSONLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Level: "debug", Format: "json", Output: &buf})
	require.NoError(t, err)

	logger.Debug("sample", "app", "Editor")
	assert.True(t, strings.HasPrefix(buf.String(), "{"))
	assert.Contains(t, buf.String(), `"app":"Editor"`)
}

func TestNewRejectsUnknownSettings(t *testing.T) {
	_, err := New(Options{Level: "loud"})
	assert.Error(t, err)

	_, err = New(Options{Format: "xml"})
	assert.Error(t, err)
}

func TestSetLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Level: "error", Output: &buf})
	require.NoError(t, err)

	logger.Warn("first")
	require.NoError(t, logger.SetLevel("warn"))
	logger.Warn("second")

	assert.NotContains(t, buf.String(), "first")
	assert.Contains(t, buf.String(), "second")
	assert.Error(t, logger.SetLevel("nope"))
}

func TestRecorder(t *testing.T) {
	rec := &Recorder{}
	rec.Info("a")
	rec.Warn("b", "k", "v")
	rec.Warn("c")

	assert.Equal(t, 2, rec.Count("WARN"))
	assert.Equal(t, 1, rec.Count("INFO"))
	assert.Equal(t, []interface{}{"k", "v"}, rec.Entries()[1].Fields)
}
