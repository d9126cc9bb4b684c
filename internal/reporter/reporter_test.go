package reporter

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/t3track/t3agent/internal/productivity"
	"github.com/t3track/t3agent/internal/tracking"
)

func newReporter() *Reporter {
	return New(productivity.NewClassifier([]string{"Code"}, []string{"Slack"}))
}

func TestSummarize(t *testing.T) {
	s := newReporter().Summarize(tracking.Usage{"Code": 6000, "Slack": 3000, "Firefox": 1000})

	assert.Equal(t, int64(10000), s.TotalMs)
	assert.Equal(t, int64(6000), s.ProductiveMs)
	assert.Equal(t, int64(3000), s.UnproductiveMs)
	require.Len(t, s.Apps, 3)
	assert.Equal(t, "Code", s.Apps[0].AppName)
	assert.Equal(t, "productive", s.Apps[0].Category)
	assert.InDelta(t, 60.0, s.Apps[0].Percentage, 0.001)
	assert.Equal(t, "neutral", s.Apps[2].Category)
}

func TestSummarizeEmpty(t *testing.T) {
	s := New(nil).Summarize(tracking.Usage{})
	assert.Zero(t, s.TotalMs)
	assert.Empty(t, s.Apps)
}

func TestFormatText(t *testing.T) {
	r := newReporter()
	report := &tracking.UsageReport{
		SessionID: 2,
		Started:   time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC),
		Ended:     time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC),
		Reason:    tracking.ReasonStop,
		Usage:     tracking.Usage{"Code": 45 * 60 * 1000, "A very long application name that overflows": 15 * 60 * 1000},
	}

	out := r.FormatText("Session summary", r.SummarizeReport(report))
	assert.Contains(t, out, "Session: 2024-03-04 09:00:00 to 2024-03-04 10:00:00")
	assert.Contains(t, out, "Total Time: 1h00m")
	assert.Contains(t, out, "75.0%")
	assert.Contains(t, out, "A very long application nam...")
	assert.NotContains(t, out, "A very long application name")

	empty := r.FormatText("Now", r.Summarize(nil))
	assert.True(t, strings.HasSuffix(empty, "No activity recorded.\n"))
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"Code", 30, "Code"},
		{"abcdefghij", 10, "abcdefghij"},
		{"abcdefghijk", 10, "abcdefg..."},
		{"微信开发者工具专业版本", 8, "微信开发者..."},
	}
	for _, tt := range tests {
		got := truncate(tt.in, tt.max)
		assert.Equal(t, tt.want, got, tt.in)
		assert.True(t, utf8.ValidString(got), tt.in)
	}
}

func TestFormatJSON(t *testing.T) {
	r := newReporter()
	out, err := r.FormatJSON(r.Summarize(tracking.Usage{"Code": 1000}))
	require.NoError(t, err)

	var decoded Summary
	require.NoError(t, sonic.UnmarshalString(out, &decoded))
	assert.Equal(t, int64(1000), decoded.ProductiveMs)
	assert.Equal(t, "Code", decoded.Apps[0].AppName)
}
