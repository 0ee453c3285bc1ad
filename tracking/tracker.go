// Package tracking assigns persistent identities to per-frame detections.
// The tracker associates detections to existing tracks greedily by
// bounding-box overlap, with a Kalman-predicted center-distance fallback
// for fast movers, and only reports tracks that have been matched over
// consecutive frames.
package tracking

import (
	"image"

	"github.com/chewxy/math32"

	"zonetrack/detection"
)

// Config tunes track association and lifecycle.
type Config struct {
	// IoUThreshold is the minimum overlap for a detection to continue a
	// track.
	IoUThreshold float32
	// MaxCenterDistance associates a zero-overlap detection with a track
	// whose predicted center is within this many pixels. Zero disables
	// the fallback.
	MaxCenterDistance float32
	// MinHits is how many consecutive matches confirm a track. Until
	// confirmed, a track is not reported.
	MinHits int
	// MaxLost is how many frames a track survives without a match. Once
	// exceeded the identity is retired; a re-acquired object gets a
	// fresh id.
	MaxLost int
	// TrailLength bounds the per-track position history kept for trace
	// rendering.
	TrailLength int
}

// DefaultConfig matches typical person-tracking deployments at video
// frame rates.
func DefaultConfig() Config {
	return Config{
		IoUThreshold:      0.3,
		MaxCenterDistance: 80,
		MinHits:           3,
		MaxLost:           30,
		TrailLength:       64,
	}
}

// track is the tracker's internal per-identity state.
type track struct {
	id         int
	box        image.Rectangle
	classID    int
	className  string
	confidence float32
	hits       int
	lost       int
	confirmed  bool
	filter     *KalmanFilter
	trail      []image.Point
}

// Tracker maintains track state across frames. It is owned by the single
// pipeline goroutine; methods are not safe for concurrent use.
type Tracker struct {
	cfg    Config
	tracks []*track
	nextID int
}

// NewTracker returns an empty tracker. Identifiers start at 1 and
// increase monotonically for the session.
func NewTracker(cfg Config) *Tracker {
	if cfg.TrailLength <= 0 {
		cfg.TrailLength = DefaultConfig().TrailLength
	}
	return &Tracker{cfg: cfg, nextID: 1}
}

// Update feeds one frame's detections through the tracker and returns the
// subset belonging to confirmed tracks, each carrying its stable
// TrackerID. Input order is not preserved; output follows track creation
// order.
func (t *Tracker) Update(dets []detection.Detection) []detection.Detection {
	matched := make([]bool, len(dets))

	// Greedy association: every live track claims the best unclaimed
	// detection above the overlap threshold, falling back to predicted
	// center distance when boxes no longer overlap.
	for _, tr := range t.tracks {
		best := -1
		bestIoU := float32(0)
		px, py := tr.filter.Predict(1)
		predicted := tr.box.Add(image.Pt(
			int(px)-(tr.box.Min.X+tr.box.Max.X)/2,
			int(py)-(tr.box.Min.Y+tr.box.Max.Y)/2,
		))

		for i, d := range dets {
			if matched[i] || d.ClassID != tr.classID {
				continue
			}
			iou := detection.IoU(predicted, d.Box)
			if iou >= t.cfg.IoUThreshold && iou > bestIoU {
				best = i
				bestIoU = iou
				continue
			}
			if iou == 0 && bestIoU == 0 && t.cfg.MaxCenterDistance > 0 {
				if centerDistance(predicted, d.Box) <= t.cfg.MaxCenterDistance {
					best = i
				}
			}
		}

		if best >= 0 {
			matched[best] = true
			tr.observe(dets[best], t.cfg.TrailLength)
			if tr.hits >= t.cfg.MinHits {
				tr.confirmed = true
			}
		} else {
			tr.lost++
		}
	}

	// Retire tracks lost for too long.
	live := t.tracks[:0]
	for _, tr := range t.tracks {
		if tr.lost <= t.cfg.MaxLost {
			live = append(live, tr)
		}
	}
	t.tracks = live

	// Unmatched detections open new tracks.
	for i, d := range dets {
		if matched[i] {
			continue
		}
		tr := &track{
			id:         t.nextID,
			box:        d.Box,
			classID:    d.ClassID,
			className:  d.ClassName,
			confidence: d.Confidence,
			hits:       1,
			confirmed:  t.cfg.MinHits <= 1,
			filter:     NewKalmanFilter(),
		}
		cx, cy := boxCenter(d.Box)
		tr.filter.Step(float64(cx), float64(cy))
		tr.trail = append(tr.trail, anchorOf(d.Box))
		t.nextID++
		t.tracks = append(t.tracks, tr)
	}

	// Report confirmed tracks that were seen this frame.
	out := make([]detection.Detection, 0, len(t.tracks))
	for _, tr := range t.tracks {
		if tr.lost > 0 || !tr.confirmed {
			continue
		}
		out = append(out, detection.Detection{
			ClassID:    tr.classID,
			ClassName:  tr.className,
			Confidence: tr.confidence,
			Box:        tr.box,
			TrackerID:  tr.id,
		})
	}
	return out
}

// Trail returns the recorded anchor positions for a track id, oldest
// first, or nil for unknown ids.
func (t *Tracker) Trail(id int) []image.Point {
	for _, tr := range t.tracks {
		if tr.id == id {
			return tr.trail
		}
	}
	return nil
}

// observe folds a matched detection into the track.
func (tr *track) observe(d detection.Detection, trailLen int) {
	tr.box = d.Box
	tr.confidence = d.Confidence
	tr.hits++
	tr.lost = 0

	cx, cy := boxCenter(d.Box)
	tr.filter.Step(float64(cx), float64(cy))

	tr.trail = append(tr.trail, anchorOf(d.Box))
	if len(tr.trail) > trailLen {
		tr.trail = tr.trail[len(tr.trail)-trailLen:]
	}
}

func boxCenter(box image.Rectangle) (int, int) {
	return (box.Min.X + box.Max.X) / 2, (box.Min.Y + box.Max.Y) / 2
}

// anchorOf is the bottom-center of the box, the point used for trails and
// zone presence.
func anchorOf(box image.Rectangle) image.Point {
	return image.Pt((box.Min.X+box.Max.X)/2, box.Max.Y)
}

func centerDistance(a, b image.Rectangle) float32 {
	ax, ay := boxCenter(a)
	bx, by := boxCenter(b)
	dx := float32(ax - bx)
	dy := float32(ay - by)
	return math32.Sqrt(dx*dx + dy*dy)
}
