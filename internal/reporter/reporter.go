package reporter

import (
	"fmt"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"

	"github.com/t3track/t3agent/internal/productivity"
	"github.com/t3track/t3agent/internal/tracking"
	"github.com/t3track/t3agent/pkg/utils"
)

// AppSummary is one application's share of a session
type AppSummary struct {
	AppName      string  `json:"app_name"`
	Milliseconds int64   `json:"duration_ms"`
	Category     string  `json:"category"`
	Percentage   float64 `json:"percentage"`
}

// Summary describes a usage map with totals and the productivity split
type Summary struct {
	SessionID      uint64       `json:"session_id,omitempty"`
	Reason         string       `json:"reason,omitempty"`
	Started        time.Time    `json:"started,omitempty"`
	Ended          time.Time    `json:"ended,omitempty"`
	Apps           []AppSummary `json:"apps"`
	TotalMs        int64        `json:"total_ms"`
	ProductiveMs   int64        `json:"productive_ms"`
	UnproductiveMs int64        `json:"unproductive_ms"`
}

// Reporter handles usage summaries
type Reporter struct {
	classifier *productivity.Classifier
}

// New creates a new reporter
func New(classifier *productivity.Classifier) *Reporter {
	if classifier == nil {
		classifier = productivity.NewClassifier(nil, nil)
	}
	return &Reporter{classifier: classifier}
}

// Summarize computes per-app percentages and categories
func (r *Reporter) Summarize(usage tracking.Usage) *Summary {
	split := r.classifier.Split(usage)
	s := &Summary{
		TotalMs:        split.Total,
		ProductiveMs:   split.Productive,
		UnproductiveMs: split.Unproductive,
		Apps:           make([]AppSummary, 0, len(usage)),
	}

	for _, row := range usage.Sorted() {
		app := AppSummary{
			AppName:      row.App,
			Milliseconds: row.Milliseconds,
			Category:     r.classifier.Classify(row.App).String(),
		}
		if split.Total > 0 {
			app.Percentage = float64(row.Milliseconds) / float64(split.Total) * 100.0
		}
		s.Apps = append(s.Apps, app)
	}
	return s
}

// SummarizeReport is Summarize plus the session metadata of a flush
func (r *Reporter) SummarizeReport(report *tracking.UsageReport) *Summary {
	s := r.Summarize(report.Usage)
	s.SessionID = report.SessionID
	s.Reason = string(report.Reason)
	s.Started = report.Started
	s.Ended = report.Ended
	return s
}

// FormatText formats a summary as a human-readable table
func (r *Reporter) FormatText(title string, s *Summary) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s\n", title)
	if !s.Started.IsZero() {
		fmt.Fprintf(&b, "Session: %s to %s\n",
			s.Started.Format("2006-01-02 15:04:05"),
			s.Ended.Format("2006-01-02 15:04:05"))
	}
	fmt.Fprintf(&b, "Total Time: %s (productive %s, unproductive %s)\n\n",
		utils.FormatMillis(s.TotalMs), utils.FormatMillis(s.ProductiveMs), utils.FormatMillis(s.UnproductiveMs))

	if len(s.Apps) == 0 {
		b.WriteString("No activity recorded.\n")
		return b.String()
	}

	fmt.Fprintf(&b, "%-30s %10s %14s %10s\n", "Application", "Time", "Category", "Percent")
	fmt.Fprintf(&b, "%s\n", strings.Repeat("-", 67))

	for _, app := range s.Apps {
		fmt.Fprintf(&b, "%-30s %10s %14s %9.1f%%\n",
			truncate(app.AppName, 30),
			utils.FormatMillis(app.Milliseconds),
			app.Category,
			app.Percentage)
	}

	return b.String()
}

// FormatJSON formats a summary as indented JSON
func (r *Reporter) FormatJSON(s *Summary) (string, error) {
	data, err := sonic.ConfigStd.MarshalIndent(s, "", "  ")
	if err != nil {
		return "", errors.Wrap(err, "failed to marshal JSON")
	}
	return string(data), nil
}

// truncate shortens s to maxLen runes, ending in "..."
func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}
