// Package overlay composes independent annotation passes onto video
// frames: bounding boxes, labels, motion traces, translucent masks and
// polygon zones. Passes apply strictly in list order; each mutates the
// frame it receives and must not retain it past the call.
package overlay

import (
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"zonetrack/detection"
	"zonetrack/zones"
)

// Annotator is one rendering pass. Annotate receives the frame produced
// by the previous pass. Labels are only meaningful to passes whose
// NeedsLabels reports true; all others ignore the argument.
type Annotator interface {
	Annotate(frame *gocv.Mat, dets []detection.Detection, labels []string)
	NeedsLabels() bool
}

// BuildLabels formats the display label for each tracked detection as
// "#<tracker_id> <class_name>".
func BuildLabels(dets []detection.Detection) []string {
	labels := make([]string, 0, len(dets))
	for _, d := range dets {
		labels = append(labels, fmt.Sprintf("#%d %s", d.TrackerID, d.ClassName))
	}
	return labels
}

// BoxAnnotator draws the bounding box of every detection, colored by
// tracker id.
type BoxAnnotator struct {
	Colors    Palette
	Thickness int
}

// NewBoxAnnotator returns a box pass with the default palette.
func NewBoxAnnotator() *BoxAnnotator {
	return &BoxAnnotator{Colors: DefaultPalette, Thickness: 2}
}

func (a *BoxAnnotator) Annotate(frame *gocv.Mat, dets []detection.Detection, _ []string) {
	for _, d := range dets {
		gocv.Rectangle(frame, d.Box, a.Colors.ByIdx(d.TrackerID), a.Thickness)
	}
}

func (a *BoxAnnotator) NeedsLabels() bool { return false }

// LabelAnnotator draws one label per detection on a filled background
// above the box. It is the only pass that consumes the label list;
// labels pair with detections by index.
type LabelAnnotator struct {
	Colors Palette
	Scale  float64
}

// NewLabelAnnotator returns a label pass with the default palette.
func NewLabelAnnotator() *LabelAnnotator {
	return &LabelAnnotator{Colors: DefaultPalette, Scale: 0.5}
}

func (a *LabelAnnotator) Annotate(frame *gocv.Mat, dets []detection.Detection, labels []string) {
	for i, d := range dets {
		if i >= len(labels) {
			return
		}
		c := a.Colors.ByIdx(d.TrackerID)

		size := gocv.GetTextSize(labels[i], gocv.FontHersheySimplex, a.Scale, 1)
		pad := 4
		bg := image.Rect(
			d.Box.Min.X,
			d.Box.Min.Y-size.Y-2*pad,
			d.Box.Min.X+size.X+2*pad,
			d.Box.Min.Y,
		)
		gocv.Rectangle(frame, bg, c, -1)
		gocv.PutText(frame, labels[i],
			image.Pt(d.Box.Min.X+pad, d.Box.Min.Y-pad),
			gocv.FontHersheySimplex, a.Scale, textColorFor(c), 1)
	}
}

func (a *LabelAnnotator) NeedsLabels() bool { return true }

// TraceAnnotator draws the recent motion trail of each tracked
// detection. Trails is a lookup from tracker id to anchor history,
// typically the tracker's Trail method.
type TraceAnnotator struct {
	Colors    Palette
	Thickness int
	Trails    func(trackerID int) []image.Point
}

// NewTraceAnnotator returns a trace pass reading trails from the given
// lookup.
func NewTraceAnnotator(trails func(trackerID int) []image.Point) *TraceAnnotator {
	return &TraceAnnotator{Colors: DefaultPalette, Thickness: 2, Trails: trails}
}

func (a *TraceAnnotator) Annotate(frame *gocv.Mat, dets []detection.Detection, _ []string) {
	if a.Trails == nil {
		return
	}
	for _, d := range dets {
		trail := a.Trails(d.TrackerID)
		c := a.Colors.ByIdx(d.TrackerID)
		for i := 1; i < len(trail); i++ {
			gocv.Line(frame, trail[i-1], trail[i], c, a.Thickness)
		}
	}
}

func (a *TraceAnnotator) NeedsLabels() bool { return false }

// MaskAnnotator fills each detection box translucently, blending the
// fill into the frame at the configured opacity.
type MaskAnnotator struct {
	Colors  Palette
	Opacity float64
}

// NewMaskAnnotator returns a mask pass at 30% opacity.
func NewMaskAnnotator() *MaskAnnotator {
	return &MaskAnnotator{Colors: DefaultPalette, Opacity: 0.3}
}

func (a *MaskAnnotator) Annotate(frame *gocv.Mat, dets []detection.Detection, _ []string) {
	if len(dets) == 0 {
		return
	}
	fill := frame.Clone()
	defer fill.Close()
	for _, d := range dets {
		gocv.Rectangle(&fill, d.Box, a.Colors.ByIdx(d.TrackerID), -1)
	}
	gocv.AddWeighted(fill, a.Opacity, *frame, 1-a.Opacity, 0, frame)
}

func (a *MaskAnnotator) NeedsLabels() bool { return false }

// ZoneAnnotator draws the configured polygon zones as closed loops with
// their live occupancy count, colored per zone index.
type ZoneAnnotator struct {
	Colors    Palette
	Thickness int
	Zones     []*zones.Zone
}

// NewZoneAnnotator returns a zone pass over the loaded zones.
func NewZoneAnnotator(zs []*zones.Zone) *ZoneAnnotator {
	return &ZoneAnnotator{Colors: DefaultPalette, Thickness: 2, Zones: zs}
}

func (a *ZoneAnnotator) Annotate(frame *gocv.Mat, _ []detection.Detection, _ []string) {
	for idx, z := range a.Zones {
		poly := z.Polygon
		if len(poly) < 2 {
			continue
		}
		c := a.Colors.ByIdx(idx)
		for i := 1; i < len(poly); i++ {
			gocv.Line(frame, poly[i-1], poly[i], c, a.Thickness)
		}
		gocv.Line(frame, poly[len(poly)-1], poly[0], c, a.Thickness)

		gocv.PutText(frame, fmt.Sprintf("%d", z.Count),
			centroid(poly), gocv.FontHersheySimplex, 0.8, c, 2)
	}
}

func (a *ZoneAnnotator) NeedsLabels() bool { return false }

// centroid is the vertex average, good enough for count placement.
func centroid(poly zones.Polygon) image.Point {
	var sx, sy int
	for _, pt := range poly {
		sx += pt.X
		sy += pt.Y
	}
	return image.Pt(sx/len(poly), sy/len(poly))
}

// textColorFor picks black or white text for contrast against the label
// background.
func textColorFor(bg color.RGBA) color.RGBA {
	lum := (299*int(bg.R) + 587*int(bg.G) + 114*int(bg.B)) / 1000
	if lum > 140 {
		return color.RGBA{}
	}
	return color.RGBA{R: 255, G: 255, B: 255}
}
