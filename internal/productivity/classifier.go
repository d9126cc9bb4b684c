// Package productivity splits tracked time into productive and
// unproductive buckets by application name.
package productivity

import "strings"

// Category of an application.
type Category int

const (
	Neutral Category = iota
	Productive
	Unproductive
)

func (c Category) String() string {
	switch c {
	case Productive:
		return "productive"
	case Unproductive:
		return "unproductive"
	default:
		return "neutral"
	}
}

// DefaultProductive returns the built-in productive app names.
func DefaultProductive() []string {
	return []string{
		"Code", "iTerm", "Terminal",
		"Microsoft Word", "Microsoft Excel", "Microsoft PowerPoint",
		"Adobe Photoshop", "Adobe Illustrator", "Adobe Premiere Pro",
		"Final Cut Pro", "Logic Pro X", "Ableton Live",
		"AutoCAD", "SketchUp", "Blender", "Unity", "Unreal Engine",
	}
}

// DefaultUnproductive returns the built-in unproductive app names.
func DefaultUnproductive() []string {
	return []string{
		"Slack", "Discord", "Telegram", "WhatsApp", "Messages", "Mail",
		"TweetDeck", "Twitter", "Facebook", "Instagram", "Reddit",
		"YouTube", "Netflix", "Hulu", "Spotify", "Apple Music",
		"Steam", "Epic Games Launcher",
	}
}

// Classifier matches app names case-insensitively.
type Classifier struct {
	categories map[string]Category
}

// NewClassifier builds a classifier. A name listed in both sets counts as
// productive.
func NewClassifier(productive, unproductive []string) *Classifier {
	c := &Classifier{categories: make(map[string]Category, len(productive)+len(unproductive))}
	for _, name := range unproductive {
		c.categories[normalize(name)] = Unproductive
	}
	for _, name := range productive {
		c.categories[normalize(name)] = Productive
	}
	return c
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Classify returns the category of one app.
func (c *Classifier) Classify(app string) Category {
	return c.categories[normalize(app)]
}

// Split totals durations per category. Neutral time only counts towards
// the total.
type Split struct {
	Total        int64
	Productive   int64
	Unproductive int64
}

// Split sums a usage map (app name to duration) by category.
func (c *Classifier) Split(usage map[string]int64) Split {
	var s Split
	for app, d := range usage {
		s.Total += d
		switch c.Classify(app) {
		case Productive:
			s.Productive += d
		case Unproductive:
			s.Unproductive += d
		}
	}
	return s
}
