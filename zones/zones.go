// Package zones holds the polygon zone geometry shared by the runtime
// pipeline and the interactive zone editor. A zone set is persisted as a
// JSON array of polygons, each an array of [x, y] integer pairs.
package zones

import (
	"encoding/json"
	"errors"
	"image"
	"os"

	pkgerrors "github.com/pkg/errors"
)

// ErrMalformedGeometry is returned when a geometry file is not a JSON
// array of arrays of 2-element numeric arrays.
var ErrMalformedGeometry = errors.New("malformed geometry")

// Polygon is an ordered sequence of 2D integer points. While being drawn
// it may hold any number of points; a meaningful closed zone has at least
// three.
type Polygon []image.Point

// ZoneSet is an ordered sequence of polygons. By convention the last
// element is the one currently being drawn in the editor; all earlier
// elements are finalized.
type ZoneSet []Polygon

// Load reads a zone set from a JSON geometry file. Coordinates are
// truncated to integers. No zone-count or point-count minimum is
// enforced; validating degenerate polygons is the caller's concern.
func Load(path string) (ZoneSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "reading geometry file %s", path)
	}

	var raw [][][]float64
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, pkgerrors.Wrapf(ErrMalformedGeometry, "%s: %v", path, err)
	}

	set := make(ZoneSet, 0, len(raw))
	for _, rawPoly := range raw {
		poly := make(Polygon, 0, len(rawPoly))
		for _, pt := range rawPoly {
			if len(pt) != 2 {
				return nil, pkgerrors.Wrapf(ErrMalformedGeometry,
					"%s: point has %d coordinates", path, len(pt))
			}
			poly = append(poly, image.Pt(int(pt[0]), int(pt[1])))
		}
		set = append(set, poly)
	}
	return set, nil
}

// Save persists a zone set as a JSON geometry file in a single write.
// A trailing empty polygon (the editor's untouched active polygon) is
// dropped; non-empty trailing polygons, degenerate or not, are persisted
// as-is.
func Save(path string, set ZoneSet) error {
	out := set
	if n := len(set); n > 0 && len(set[n-1]) == 0 {
		out = set[:n-1]
	}

	raw := make([][][2]int, 0, len(out))
	for _, poly := range out {
		rawPoly := make([][2]int, 0, len(poly))
		for _, pt := range poly {
			rawPoly = append(rawPoly, [2]int{pt.X, pt.Y})
		}
		raw = append(raw, rawPoly)
	}

	data, err := json.Marshal(raw)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Contains reports whether pt lies inside the polygon, using ray casting
// along +X. Points on an edge are not guaranteed either way.
func (p Polygon) Contains(pt image.Point) bool {
	if len(p) < 3 {
		return false
	}
	inside := false
	j := len(p) - 1
	for i := 0; i < len(p); i++ {
		pi, pj := p[i], p[j]
		if (pi.Y > pt.Y) != (pj.Y > pt.Y) {
			crossX := float64(pj.X-pi.X)*float64(pt.Y-pi.Y)/float64(pj.Y-pi.Y) + float64(pi.X)
			if float64(pt.X) < crossX {
				inside = !inside
			}
		}
		j = i
	}
	return inside
}

// Zone pairs a polygon with the live count of tracked objects currently
// inside it.
type Zone struct {
	Polygon Polygon
	Count   int
}

// NewZones wraps every polygon of a loaded set into a runtime zone.
func NewZones(set ZoneSet) []*Zone {
	zs := make([]*Zone, 0, len(set))
	for _, poly := range set {
		zs = append(zs, &Zone{Polygon: poly})
	}
	return zs
}

// UpdateCounts recomputes each zone's occupancy from the anchor points of
// the current frame's tracked detections. The anchor is the bottom center
// of the bounding box, where a person touches the ground.
func UpdateCounts(zs []*Zone, boxes []image.Rectangle) {
	for _, z := range zs {
		z.Count = 0
		for _, box := range boxes {
			anchor := image.Pt((box.Min.X+box.Max.X)/2, box.Max.Y)
			if z.Polygon.Contains(anchor) {
				z.Count++
			}
		}
	}
}
