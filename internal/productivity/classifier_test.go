package productivity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	c := NewClassifier(DefaultProductive(), DefaultUnproductive())

	tests := []struct {
		app  string
		want Category
	}{
		{"Code", Productive},
		{"code", Productive},
		{"  Blender ", Productive},
		{"Slack", Unproductive},
		{"epic games launcher", Unproductive},
		{"Firefox", Neutral},
		{"", Neutral},
	}

	for _, tt := range tests {
		t.Run(tt.app, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Classify(tt.app))
		})
	}
}

func TestProductiveWinsOverlap(t *testing.T) {
	c := NewClassifier([]string{"Mail"}, []string{"Mail"})
	assert.Equal(t, Productive, c.Classify("mail"))
}

func TestSplit(t *testing.T) {
	c := NewClassifier([]string{"Code"}, []string{"Slack"})
	s := c.Split(map[string]int64{"Code": 3000, "Slack": 2000, "Firefox": 500})

	assert.Equal(t, int64(5500), s.Total)
	assert.Equal(t, int64(3000), s.Productive)
	assert.Equal(t, int64(2000), s.Unproductive)
}

func TestCategoryString(t *testing.T) {
	assert.Equal(t, "productive", Productive.String())
	assert.Equal(t, "unproductive", Unproductive.String())
	assert.Equal(t, "neutral", Neutral.String())
}
