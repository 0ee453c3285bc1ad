package detection

import (
	"sync"

	pkgerrors "github.com/pkg/errors"
	ort "github.com/yalue/onnxruntime_go"
	"gocv.io/x/gocv"
)

// ortInit guards one-time ONNX Runtime environment setup shared by all
// provider instances in the process.
var (
	ortInit    sync.Once
	ortInitErr error
)

// ONNXProvider runs YOLO inference through ONNX Runtime, for builds where
// the OpenCV DNN module is unavailable or a different execution provider
// is wanted.
type ONNXProvider struct {
	session *ort.AdvancedSession
	input   *ort.Tensor[float32]
	output  *ort.Tensor[float32]
	cfg     Config
	mu      sync.Mutex
}

// Initialize creates the ONNX Runtime session with fixed input and output
// tensors sized for the configured input resolution.
func (p *ONNXProvider) Initialize(cfg Config) error {
	p.cfg = cfg.withDefaults()

	ortInit.Do(func() {
		if p.cfg.ONNXLibraryPath != "" {
			ort.SetSharedLibraryPath(p.cfg.ONNXLibraryPath)
		}
		ortInitErr = ort.InitializeEnvironment()
	})
	if ortInitErr != nil {
		return pkgerrors.Wrap(ortInitErr, "initializing ONNX Runtime environment")
	}

	w, h := p.cfg.InputSize.X, p.cfg.InputSize.Y
	input, err := ort.NewEmptyTensor[float32](ort.NewShape(1, 3, int64(h), int64(w)))
	if err != nil {
		return pkgerrors.Wrap(err, "creating input tensor")
	}

	numAttrs := int64(4 + len(p.cfg.ClassNames))
	numBoxes := int64(outputBoxCount(w, h))
	output, err := ort.NewEmptyTensor[float32](ort.NewShape(1, numAttrs, numBoxes))
	if err != nil {
		input.Destroy()
		return pkgerrors.Wrap(err, "creating output tensor")
	}

	options, err := ort.NewSessionOptions()
	if err != nil {
		input.Destroy()
		output.Destroy()
		return pkgerrors.Wrap(err, "creating session options")
	}
	defer options.Destroy()
	options.SetGraphOptimizationLevel(ort.GraphOptimizationLevelEnableExtended)

	session, err := ort.NewAdvancedSession(p.cfg.ModelPath,
		[]string{"images"}, []string{"output0"},
		[]ort.ArbitraryTensor{input}, []ort.ArbitraryTensor{output}, options)
	if err != nil {
		input.Destroy()
		output.Destroy()
		return pkgerrors.Wrapf(err, "creating session for %s", p.cfg.ModelPath)
	}

	p.session = session
	p.input = input
	p.output = output
	return nil
}

// Detect preprocesses the frame into the input tensor, runs the session
// and decodes the output, applying the same thresholding and NMS as the
// DNN provider.
func (p *ONNXProvider) Detect(frame gocv.Mat) ([]Detection, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.session == nil {
		return nil, pkgerrors.New("provider not initialized")
	}

	if err := p.preprocess(frame); err != nil {
		return nil, err
	}
	if err := p.session.Run(); err != nil {
		return nil, pkgerrors.Wrap(err, "running inference")
	}

	numAttrs := 4 + len(p.cfg.ClassNames)
	numBoxes := outputBoxCount(p.cfg.InputSize.X, p.cfg.InputSize.Y)
	scaleX := float32(frame.Cols()) / float32(p.cfg.InputSize.X)
	scaleY := float32(frame.Rows()) / float32(p.cfg.InputSize.Y)

	dets := decodeOutput(p.output.GetData(), numAttrs, numBoxes, scaleX, scaleY,
		p.cfg.ConfidenceThreshold, p.cfg.ClassNames)
	dets = nonMaxSuppression(dets, p.cfg.IoUThreshold)
	for i := range dets {
		dets[i].Box = clampBox(dets[i].Box, frame.Cols(), frame.Rows())
	}
	return dets, nil
}

// preprocess fills the input tensor with the frame resized to the model
// resolution, converted BGR to RGB, channel-planar, normalized to [0,1].
func (p *ONNXProvider) preprocess(frame gocv.Mat) error {
	resized := gocv.NewMat()
	defer resized.Close()
	gocv.Resize(frame, &resized, p.cfg.InputSize, 0, 0, gocv.InterpolationLinear)

	rgb := gocv.NewMat()
	defer rgb.Close()
	gocv.CvtColor(resized, &rgb, gocv.ColorBGRToRGB)

	pixels, err := rgb.DataPtrUint8()
	if err != nil {
		return pkgerrors.Wrap(err, "reading resized frame")
	}

	w, h := p.cfg.InputSize.X, p.cfg.InputSize.Y
	data := p.input.GetData()
	for c := 0; c < 3; c++ {
		plane := data[c*w*h : (c+1)*w*h]
		for i := 0; i < w*h; i++ {
			plane[i] = float32(pixels[i*3+c]) / 255.0
		}
	}
	return nil
}

// Close destroys the session and its tensors.
func (p *ONNXProvider) Close() error {
	if p.session != nil {
		p.session.Destroy()
		p.session = nil
	}
	if p.input != nil {
		p.input.Destroy()
		p.input = nil
	}
	if p.output != nil {
		p.output.Destroy()
		p.output = nil
	}
	return nil
}

// outputBoxCount returns the number of YOLO anchor-free output boxes for
// an input resolution: one box per cell at strides 8, 16 and 32.
func outputBoxCount(w, h int) int {
	return (w/8)*(h/8) + (w/16)*(h/16) + (w/32)*(h/32)
}
