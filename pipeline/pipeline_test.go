package pipeline

import (
	"image"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"zonetrack/detection"
	"zonetrack/overlay"
	"zonetrack/tracking"
)

// stubSource yields a fixed number of blank frames.
type stubSource struct {
	frames int
}

func (s *stubSource) Next(dst *gocv.Mat) bool {
	if s.frames == 0 {
		return false
	}
	s.frames--

	blank := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer blank.Close()
	blank.CopyTo(dst)
	return true
}

func (s *stubSource) Close() error { return nil }

// stubDisplay records shows and replays scripted key presses.
type stubDisplay struct {
	shown int
	keys  []int
}

func (d *stubDisplay) Show(_ gocv.Mat) { d.shown++ }

func (d *stubDisplay) Poll(_ time.Duration) int {
	if len(d.keys) == 0 {
		return -1
	}
	key := d.keys[0]
	d.keys = d.keys[1:]
	return key
}

func (d *stubDisplay) Close() error { return nil }

// stubProvider returns the same detections every frame.
type stubProvider struct {
	dets []detection.Detection
}

func (p *stubProvider) Initialize(detection.Config) error { return nil }

func (p *stubProvider) Detect(gocv.Mat) ([]detection.Detection, error) {
	return p.dets, nil
}

func (p *stubProvider) Close() error { return nil }

func newTestPipeline(provider detection.Provider, passes []overlay.Annotator) *Pipeline {
	cfg := tracking.DefaultConfig()
	cfg.MinHits = 1
	return New(provider, tracking.NewTracker(cfg), passes, nil,
		Options{OutputSize: image.Pt(320, 240), Speed: 1.0}, zerolog.Nop())
}

func TestRunStopsOnExhaustedSource(t *testing.T) {
	display := &stubDisplay{}
	p := newTestPipeline(&stubProvider{}, nil)

	err := p.Run(&stubSource{frames: 0}, display, 30)
	require.NoError(t, err)
	assert.Zero(t, display.shown)
}

func TestRunFailsOnLabelMismatch(t *testing.T) {
	// A tracked detection produces labels, but no pass consumes them.
	provider := &stubProvider{dets: []detection.Detection{
		{ClassID: 0, ClassName: "person", Confidence: 0.9, Box: image.Rect(0, 0, 50, 100)},
	}}
	display := &stubDisplay{}
	p := newTestPipeline(provider, []overlay.Annotator{overlay.NewBoxAnnotator()})

	err := p.Run(&stubSource{frames: 1}, display, 30)
	assert.ErrorIs(t, err, overlay.ErrLabelMismatch)
	assert.Zero(t, display.shown, "nothing may be emitted after a label mismatch")
}

func TestRunStopsOnQuitKey(t *testing.T) {
	display := &stubDisplay{keys: []int{-1, 'q'}}
	p := newTestPipeline(&stubProvider{}, nil)

	err := p.Run(&stubSource{frames: 10}, display, 30)
	require.NoError(t, err)
	assert.Equal(t, 2, display.shown, "the loop must end at the quit poll")
}

func TestFrameWait(t *testing.T) {
	assert.Equal(t, time.Second/30, frameWait(30, 1.0))
	assert.Equal(t, time.Second/60, frameWait(30, 2.0))
	assert.Equal(t, time.Millisecond, frameWait(0, 1.0))
	assert.Equal(t, time.Millisecond, frameWait(-5, 1.0))
	assert.Equal(t, time.Millisecond, frameWait(5000, 1.0))
}
