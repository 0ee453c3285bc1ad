// Package detection runs object detection on video frames. Two provider
// backends implement the same interface: OpenCV's DNN module and ONNX
// Runtime. Both decode YOLO-style output into plain detections so the
// rest of the pipeline never sees backend types.
package detection

import (
	"image"
	"sort"
)

// Detection is one observed object instance in a single frame. TrackerID
// is zero until the tracker has confirmed the detection and assigned it a
// persistent identity.
type Detection struct {
	ClassID    int
	ClassName  string
	Confidence float32
	Box        image.Rectangle
	TrackerID  int
}

// FilterClass keeps only detections of the target class.
func FilterClass(dets []Detection, classID int) []Detection {
	out := make([]Detection, 0, len(dets))
	for _, d := range dets {
		if d.ClassID == classID {
			out = append(out, d)
		}
	}
	return out
}

// decodeOutput converts a raw YOLO output tensor into detections above the
// confidence threshold. The tensor is attribute-major: raw[a*numBoxes+b]
// holds attribute a of box b, with attributes [cx, cy, w, h,
// class0score, class1score, ...] in model-input pixel units. scaleX and
// scaleY map model-input coordinates back to source-frame coordinates.
func decodeOutput(raw []float32, numAttrs, numBoxes int, scaleX, scaleY float32,
	confThreshold float32, classNames []string) []Detection {

	var dets []Detection
	for b := 0; b < numBoxes; b++ {
		classID := 0
		best := float32(0)
		for a := 4; a < numAttrs; a++ {
			if score := raw[a*numBoxes+b]; score > best {
				best = score
				classID = a - 4
			}
		}
		if best < confThreshold || classID >= len(classNames) {
			continue
		}

		cx := raw[0*numBoxes+b] * scaleX
		cy := raw[1*numBoxes+b] * scaleY
		w := raw[2*numBoxes+b] * scaleX
		h := raw[3*numBoxes+b] * scaleY

		dets = append(dets, Detection{
			ClassID:    classID,
			ClassName:  classNames[classID],
			Confidence: best,
			Box:        image.Rect(int(cx-w/2), int(cy-h/2), int(cx+w/2), int(cy+h/2)),
		})
	}
	return dets
}

// nonMaxSuppression greedily suppresses overlapping same-class boxes whose
// IoU with a higher-confidence box exceeds the threshold.
func nonMaxSuppression(dets []Detection, iouThreshold float32) []Detection {
	if len(dets) == 0 {
		return nil
	}

	sort.SliceStable(dets, func(i, j int) bool {
		return dets[i].Confidence > dets[j].Confidence
	})

	kept := make([]Detection, 0, len(dets))
	used := make([]bool, len(dets))
	for i := range dets {
		if used[i] {
			continue
		}
		kept = append(kept, dets[i])
		used[i] = true
		for j := i + 1; j < len(dets); j++ {
			if used[j] || dets[i].ClassID != dets[j].ClassID {
				continue
			}
			if IoU(dets[i].Box, dets[j].Box) > iouThreshold {
				used[j] = true
			}
		}
	}
	return kept
}

// IoU returns the intersection-over-union overlap of two boxes, 0 when
// they do not intersect.
func IoU(a, b image.Rectangle) float32 {
	inter := a.Intersect(b)
	if inter.Empty() {
		return 0
	}
	interArea := inter.Dx() * inter.Dy()
	unionArea := a.Dx()*a.Dy() + b.Dx()*b.Dy() - interArea
	if unionArea <= 0 {
		return 0
	}
	return float32(interArea) / float32(unionArea)
}
