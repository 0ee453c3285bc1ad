package detection

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterClass(t *testing.T) {
	dets := []Detection{
		{ClassID: 0, ClassName: "person", Confidence: 0.9},
		{ClassID: 1, ClassName: "bicycle", Confidence: 0.95},
	}

	filtered := FilterClass(dets, 0)
	require.Len(t, filtered, 1)
	assert.Equal(t, "person", filtered[0].ClassName)
	assert.InDelta(t, 0.9, filtered[0].Confidence, 1e-6)

	assert.Empty(t, FilterClass(dets, 7))
	assert.Empty(t, FilterClass(nil, 0))
}

func TestIoU(t *testing.T) {
	tests := []struct {
		name     string
		a, b     image.Rectangle
		expected float32
	}{
		{"identical", image.Rect(0, 0, 100, 100), image.Rect(0, 0, 100, 100), 1.0},
		{"disjoint", image.Rect(0, 0, 100, 100), image.Rect(200, 200, 300, 300), 0.0},
		{"touching", image.Rect(0, 0, 100, 100), image.Rect(100, 0, 200, 100), 0.0},
		{"quarter inside", image.Rect(0, 0, 100, 100), image.Rect(25, 25, 75, 75), 0.25},
		{"half overlap", image.Rect(0, 0, 100, 100), image.Rect(50, 50, 150, 150), 1.0 / 7.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, IoU(tt.a, tt.b), 1e-4)
			assert.InDelta(t, tt.expected, IoU(tt.b, tt.a), 1e-4, "IoU must be symmetric")
		})
	}
}

// buildOutput lays out detections in the attribute-major tensor format the
// providers decode: raw[attr*numBoxes+box].
func buildOutput(numAttrs, numBoxes int, boxes [][4]float32, scores [][]float32) []float32 {
	raw := make([]float32, numAttrs*numBoxes)
	for b := range boxes {
		for a := 0; a < 4; a++ {
			raw[a*numBoxes+b] = boxes[b][a]
		}
		for c, s := range scores[b] {
			raw[(4+c)*numBoxes+b] = s
		}
	}
	return raw
}

func TestDecodeOutput(t *testing.T) {
	classNames := []string{"person", "bicycle"}
	numAttrs := 4 + len(classNames)

	// Two boxes: a confident person at model-space (100,100) 40x80, and a
	// bicycle below threshold.
	raw := buildOutput(numAttrs, 2,
		[][4]float32{{100, 100, 40, 80}, {300, 300, 50, 50}},
		[][]float32{{0.9, 0.05}, {0.1, 0.3}},
	)

	dets := decodeOutput(raw, numAttrs, 2, 2.0, 1.0, 0.5, classNames)
	require.Len(t, dets, 1)
	assert.Equal(t, 0, dets[0].ClassID)
	assert.Equal(t, "person", dets[0].ClassName)
	assert.InDelta(t, 0.9, dets[0].Confidence, 1e-6)
	// scaleX doubles x and width; scaleY leaves y and height.
	assert.Equal(t, image.Rect(160, 60, 240, 140), dets[0].Box)
}

func TestDecodeOutputPicksBestClass(t *testing.T) {
	classNames := []string{"person", "bicycle", "car"}
	numAttrs := 4 + len(classNames)

	raw := buildOutput(numAttrs, 1,
		[][4]float32{{50, 50, 20, 20}},
		[][]float32{{0.2, 0.8, 0.6}},
	)

	dets := decodeOutput(raw, numAttrs, 1, 1.0, 1.0, 0.5, classNames)
	require.Len(t, dets, 1)
	assert.Equal(t, "bicycle", dets[0].ClassName)
}

func TestNonMaxSuppression(t *testing.T) {
	dets := []Detection{
		{ClassID: 0, Confidence: 0.9, Box: image.Rect(0, 0, 100, 100)},
		{ClassID: 0, Confidence: 0.8, Box: image.Rect(5, 5, 105, 105)},
		{ClassID: 0, Confidence: 0.7, Box: image.Rect(300, 300, 400, 400)},
	}

	kept := nonMaxSuppression(dets, 0.5)
	require.Len(t, kept, 2)
	assert.InDelta(t, 0.9, kept[0].Confidence, 1e-6)
	assert.InDelta(t, 0.7, kept[1].Confidence, 1e-6)
}

func TestNonMaxSuppressionIsClassAware(t *testing.T) {
	dets := []Detection{
		{ClassID: 0, Confidence: 0.9, Box: image.Rect(0, 0, 100, 100)},
		{ClassID: 1, Confidence: 0.8, Box: image.Rect(0, 0, 100, 100)},
	}

	kept := nonMaxSuppression(dets, 0.5)
	assert.Len(t, kept, 2, "identical boxes of different classes both survive")
}

func TestOutputBoxCount(t *testing.T) {
	assert.Equal(t, 8400, outputBoxCount(640, 640))
	assert.Equal(t, 2100, outputBoxCount(320, 320))
}

func TestClampBox(t *testing.T) {
	assert.Equal(t, image.Rect(0, 0, 100, 100), clampBox(image.Rect(-20, -20, 100, 100), 640, 480))
	assert.Equal(t, image.Rect(600, 400, 640, 480), clampBox(image.Rect(600, 400, 700, 500), 640, 480))
}
