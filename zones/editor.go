package zones

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"
)

// lineThickness is the stroke width for every polygon edge the editor
// draws.
const lineThickness = 2

// activeColor is the highlight color for the in-progress polygon and the
// transient cursor segment.
var activeColor = color.RGBA{R: 255, G: 255, B: 255, A: 0}

// Editor is the single-session state machine behind the interactive zone
// drawing tool. It owns one mutable zone set whose last polygon is always
// the active one, plus the current cursor position when known. The event
// loop feeds it one event at a time; there is no concurrent access.
type Editor struct {
	set    ZoneSet
	cursor *image.Point
}

// NewEditor returns an editor holding a single empty active polygon and
// no cursor position.
func NewEditor() *Editor {
	return &Editor{set: ZoneSet{Polygon{}}}
}

// MoveCursor records the pointer position. Geometry is unchanged.
func (e *Editor) MoveCursor(pt image.Point) {
	e.cursor = &pt
}

// AddPoint appends a vertex to the active polygon.
func (e *Editor) AddPoint(pt image.Point) {
	last := len(e.set) - 1
	e.set[last] = append(e.set[last], pt)
}

// Finalize commits the active polygon and opens a new empty one. The
// committed polygon is closed visually only when it has more than two
// points; smaller polygons stay in the set un-closed. Finalizing an
// empty polygon still opens a new one, which is benign because Save
// strips a single trailing empty polygon.
func (e *Editor) Finalize() {
	e.set = append(e.set, Polygon{})
}

// Cancel discards the active polygon's points and forgets the cursor.
// Finalized polygons are untouched.
func (e *Editor) Cancel() {
	e.set[len(e.set)-1] = Polygon{}
	e.cursor = nil
}

// Set returns the editor's zone set. The returned slice is the editor's
// own state; callers must not mutate it.
func (e *Editor) Set() ZoneSet {
	return e.set
}

// Save persists the zone set to path, dropping the trailing active
// polygon if and only if it is empty.
func (e *Editor) Save(path string) error {
	return Save(path, e.set)
}

// Redraw repaints the live canvas from the unmodified original image:
// every finalized polygon as a closed loop in its per-index color, the
// active polygon as an open polyline extended by one transient segment
// from its last point to the cursor. colorFor cycles a fixed palette by
// polygon index.
func (e *Editor) Redraw(canvas *gocv.Mat, original gocv.Mat, colorFor func(idx int) color.RGBA) {
	original.CopyTo(canvas)

	last := len(e.set) - 1
	for idx, poly := range e.set {
		if idx < last {
			drawPolygon(canvas, poly, colorFor(idx), true)
			continue
		}

		drawPolygon(canvas, poly, activeColor, false)
		if len(poly) > 0 && e.cursor != nil {
			gocv.Line(canvas, poly[len(poly)-1], *e.cursor, activeColor, lineThickness)
		}
	}
}

// drawPolygon strokes the polygon edges; closed additionally draws the
// edge from the last point back to the first when the polygon has more
// than two points.
func drawPolygon(canvas *gocv.Mat, poly Polygon, c color.RGBA, closed bool) {
	if len(poly) < 2 {
		return
	}
	for i := 1; i < len(poly); i++ {
		gocv.Line(canvas, poly[i-1], poly[i], c, lineThickness)
	}
	if closed && len(poly) > 2 {
		gocv.Line(canvas, poly[len(poly)-1], poly[0], c, lineThickness)
	}
}
