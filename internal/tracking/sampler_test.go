package tracking

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSampler() (*Sampler, *fakeClock, *fakeDetector, *recordingSink) {
	clock := newFakeClock()
	det := &fakeDetector{}
	sink := &recordingSink{}
	return NewSampler(det, clock, nil, sink), clock, det, sink
}

func TestSamplerConstantApp(t *testing.T) {
	s, clock, det, _ := newTestSampler()
	det.focus("Editor", "main.go")

	s.Begin(1)
	for i := 0; i < 5; i++ {
		clock.Advance(time.Second)
		s.Tick(1)
	}

	assert.Equal(t, Usage{"Editor": 5000}, s.Snapshot())
	assert.Equal(t, "Editor", s.CurrentApp())
}

func TestSamplerFocusSwitch(t *testing.T) {
	s, clock, det, _ := newTestSampler()

	s.Begin(1)
	det.focus("Editor", "main.go")
	for i := 0; i < 3; i++ {
		clock.Advance(time.Second)
		s.Tick(1)
	}
	det.focus("Browser", "docs")
	for i := 0; i < 2; i++ {
		clock.Advance(time.Second)
		s.Tick(1)
	}

	assert.Equal(t, Usage{"Editor": 3000, "Browser": 2000}, s.End())
}

func TestSamplerFailedTickAdvancesLastCheck(t *testing.T) {
	s, clock, det, sink := newTestSampler()

	s.Begin(1)
	det.focus("Editor", "")
	clock.Advance(time.Second)
	s.Tick(1)

	det.fail(errors.New("display gone"))
	clock.Advance(time.Second)
	s.Tick(1)
	clock.Advance(time.Second)
	s.Tick(1)

	det.focus("Browser", "")
	clock.Advance(time.Second)
	s.Tick(1)

	// the two failed seconds are attributed to nobody
	assert.Equal(t, Usage{"Editor": 1000, "Browser": 1000}, s.Snapshot())
	// one record per failure streak
	assert.Equal(t, 1, sink.count("sampler"))
}

func TestSamplerEmptyResultIsAFailure(t *testing.T) {
	s, clock, det, sink := newTestSampler()

	s.Begin(1)
	clock.Advance(time.Second)
	s.Tick(1) // detector has no window

	det.focus("", "untitled")
	clock.Advance(time.Second)
	s.Tick(1)

	assert.Empty(t, s.Snapshot())
	assert.Equal(t, 1, sink.count("sampler"))
	assert.Equal(t, "", s.CurrentApp())
}

func TestSamplerDropsStaleSession(t *testing.T) {
	s, clock, det, _ := newTestSampler()
	det.focus("Editor", "")

	s.Begin(1)
	s.Begin(2)
	clock.Advance(time.Second)
	s.Tick(1)
	assert.Empty(t, s.Snapshot())

	s.Tick(2)
	assert.Equal(t, Usage{"Editor": 1000}, s.Snapshot())

	s.End()
	clock.Advance(time.Second)
	s.Tick(2)
	assert.Empty(t, s.Snapshot())
}

func TestSamplerBeginResets(t *testing.T) {
	s, clock, det, _ := newTestSampler()
	det.focus("Editor", "")

	s.Begin(1)
	clock.Advance(time.Second)
	s.Tick(1)
	require.NotEmpty(t, s.Snapshot())

	clock.Advance(10 * time.Second)
	s.Begin(2)
	clock.Advance(time.Second)
	s.Tick(2)

	assert.Equal(t, Usage{"Editor": 1000}, s.Snapshot())
}

func TestSamplerEndClears(t *testing.T) {
	s, clock, det, _ := newTestSampler()
	det.focus("Editor", "")

	s.Begin(1)
	clock.Advance(time.Second)
	s.Tick(1)

	assert.Equal(t, Usage{"Editor": 1000}, s.End())
	assert.Empty(t, s.End())
}

func TestSamplerConcurrentTicks(t *testing.T) {
	s, clock, det, _ := newTestSampler()
	det.focus("Editor", "")
	s.Begin(1)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Tick(1)
			_ = s.Snapshot()
		}()
	}
	clock.Advance(time.Second)
	wg.Wait()

	s.Tick(1)
	// all ticks together cover exactly the elapsed second
	assert.Equal(t, int64(1000), s.Snapshot().Total())
}
