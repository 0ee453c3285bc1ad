package detection

import (
	"image"
	"sync"

	pkgerrors "github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// DNNProvider runs YOLO inference through OpenCV's DNN module.
type DNNProvider struct {
	net gocv.Net
	cfg Config
	mu  sync.Mutex
}

// Initialize loads the ONNX model into an OpenCV network on the CPU
// backend.
func (p *DNNProvider) Initialize(cfg Config) error {
	p.cfg = cfg.withDefaults()

	p.net = gocv.ReadNetFromONNX(p.cfg.ModelPath)
	if p.net.Empty() {
		return pkgerrors.Errorf("failed to load network from %s", p.cfg.ModelPath)
	}
	p.net.SetPreferableBackend(gocv.NetBackendDefault)
	p.net.SetPreferableTarget(gocv.NetTargetCPU)
	return nil
}

// Detect runs one forward pass and returns detections above the
// confidence threshold, after non-maximum suppression at the configured
// IoU threshold. Box coordinates are in source-frame pixels.
func (p *DNNProvider) Detect(frame gocv.Mat) ([]Detection, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	blob := gocv.BlobFromImage(frame, 1.0/255.0, p.cfg.InputSize,
		gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	p.net.SetInput(blob, "")
	output := p.net.Forward("")
	defer output.Close()

	// Output shape is [1, 4+classes, boxes].
	sizes := output.Size()
	if len(sizes) != 3 {
		return nil, pkgerrors.Errorf("unexpected output rank %d", len(sizes))
	}
	numAttrs, numBoxes := sizes[1], sizes[2]

	raw, err := output.DataPtrFloat32()
	if err != nil {
		return nil, pkgerrors.Wrap(err, "reading network output")
	}

	scaleX := float32(frame.Cols()) / float32(p.cfg.InputSize.X)
	scaleY := float32(frame.Rows()) / float32(p.cfg.InputSize.Y)
	dets := decodeOutput(raw, numAttrs, numBoxes, scaleX, scaleY,
		p.cfg.ConfidenceThreshold, p.cfg.ClassNames)
	dets = nonMaxSuppression(dets, p.cfg.IoUThreshold)
	for i := range dets {
		dets[i].Box = clampBox(dets[i].Box, frame.Cols(), frame.Rows())
	}
	return dets, nil
}

// Close releases the network.
func (p *DNNProvider) Close() error {
	return p.net.Close()
}

// clampBox keeps a detection box inside the frame bounds.
func clampBox(box image.Rectangle, width, height int) image.Rectangle {
	return box.Intersect(image.Rect(0, 0, width, height))
}
