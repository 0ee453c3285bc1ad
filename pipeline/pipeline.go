// Package pipeline drives the per-frame annotation loop: detect, filter
// to the target class, track, compose annotation passes, resize and emit
// to the display sink.
package pipeline

import (
	"image"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gocv.io/x/gocv"

	"zonetrack/detection"
	"zonetrack/overlay"
	"zonetrack/tracking"
	"zonetrack/zones"
)

// quitKey ends the run loop when polled from the display.
const quitKey = 'q'

// Options configures a pipeline run.
type Options struct {
	// TargetClass is the single class id kept after detection.
	TargetClass int
	// OutputSize is the fixed resolution frames are resized to before
	// display.
	OutputSize image.Point
	// Speed scales playback: 2.0 halves the per-frame wait.
	Speed float64
}

// Pipeline owns the per-frame processing chain. It is single-threaded;
// Run processes one frame to completion before reading the next.
type Pipeline struct {
	provider detection.Provider
	tracker  *tracking.Tracker
	passes   []overlay.Annotator
	zones    []*zones.Zone
	opts     Options
	log      zerolog.Logger
}

// New assembles a pipeline. The zones slice may be nil when no geometry
// file is configured.
func New(provider detection.Provider, tracker *tracking.Tracker,
	passes []overlay.Annotator, zs []*zones.Zone, opts Options, log zerolog.Logger) *Pipeline {

	if opts.Speed <= 0 {
		opts.Speed = 1.0
	}
	return &Pipeline{
		provider: provider,
		tracker:  tracker,
		passes:   passes,
		zones:    zs,
		opts:     opts,
		log:      log.With().Str("run_id", uuid.NewString()).Logger(),
	}
}

// Run consumes the source until exhaustion or until the display reports
// the quit key. Each frame is detected, tracked, annotated onto a copy,
// resized and shown. A label contract violation aborts the run before
// any drawing.
func (p *Pipeline) Run(src FrameSource, display Display, frameRate float64) error {
	wait := frameWait(frameRate, p.opts.Speed)

	p.log.Info().
		Int("target_class", p.opts.TargetClass).
		Int("zones", len(p.zones)).
		Float64("speed", p.opts.Speed).
		Dur("frame_wait", wait).
		Msg("pipeline started")

	frame := gocv.NewMat()
	defer frame.Close()

	frames := 0
	for src.Next(&frame) {
		if err := p.processFrame(frame, display); err != nil {
			return err
		}
		frames++

		if key := display.Poll(wait); key == quitKey {
			p.log.Info().Int("frames", frames).Msg("quit requested")
			return nil
		}
	}

	p.log.Info().Int("frames", frames).Msg("source exhausted")
	return nil
}

func (p *Pipeline) processFrame(frame gocv.Mat, display Display) error {
	dets, err := p.provider.Detect(frame)
	if err != nil {
		return err
	}
	dets = detection.FilterClass(dets, p.opts.TargetClass)
	tracked := p.tracker.Update(dets)
	labels := overlay.BuildLabels(tracked)

	if len(p.zones) > 0 {
		boxes := make([]image.Rectangle, 0, len(tracked))
		for _, d := range tracked {
			boxes = append(boxes, d.Box)
		}
		zones.UpdateCounts(p.zones, boxes)
	}

	out := frame.Clone()
	defer out.Close()
	if err := overlay.Compose(&out, tracked, p.passes, labels); err != nil {
		return err
	}

	resized := gocv.NewMat()
	defer resized.Close()
	gocv.Resize(out, &resized, p.opts.OutputSize, 0, 0, gocv.InterpolationLinear)
	display.Show(resized)

	p.log.Debug().
		Int("detections", len(dets)).
		Int("tracked", len(tracked)).
		Msg("frame annotated")
	return nil
}

// frameWait converts a container frame rate and playback speed into the
// bounded per-frame poll duration. Unknown frame rates fall back to a
// minimal poll so playback runs as fast as processing allows.
func frameWait(frameRate, speed float64) time.Duration {
	if frameRate <= 0 {
		return time.Millisecond
	}
	wait := time.Duration(float64(time.Second) / frameRate / speed)
	if wait < time.Millisecond {
		wait = time.Millisecond
	}
	return wait
}
