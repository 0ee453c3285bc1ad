package detection

import (
	"image"

	"gocv.io/x/gocv"
)

// Backend selects the inference implementation behind the Provider
// interface.
type Backend string

const (
	// BackendDNN runs the model through OpenCV's DNN module.
	BackendDNN Backend = "dnn"
	// BackendONNX runs the model through ONNX Runtime.
	BackendONNX Backend = "onnx"
)

// Config carries everything a provider needs to load and run a model.
type Config struct {
	// ModelPath is the YOLO ONNX model file.
	ModelPath string
	// InputSize is the model input resolution, typically 640x640.
	InputSize image.Point
	// ConfidenceThreshold discards detections scoring below it.
	ConfidenceThreshold float32
	// IoUThreshold is the overlap cutoff for non-maximum suppression.
	IoUThreshold float32
	// ClassNames maps class ids to names. Defaults to the COCO classes.
	ClassNames []string
	// ONNXLibraryPath points at the ONNX Runtime shared library. Only the
	// ONNX backend reads it; empty means the library's default lookup.
	ONNXLibraryPath string
}

// Provider is the inference boundary the pipeline depends on. A provider
// owns its model session; Detect is safe to call from the single pipeline
// goroutine for the provider's lifetime.
type Provider interface {
	Initialize(cfg Config) error
	Detect(frame gocv.Mat) ([]Detection, error)
	Close() error
}

// NewProvider returns an uninitialized provider for the backend. Unknown
// backends fall back to the DNN provider.
func NewProvider(backend Backend) Provider {
	if backend == BackendONNX {
		return &ONNXProvider{}
	}
	return &DNNProvider{}
}

// withDefaults fills zero-value config fields.
func (c Config) withDefaults() Config {
	if c.InputSize.X == 0 || c.InputSize.Y == 0 {
		c.InputSize = image.Pt(640, 640)
	}
	if len(c.ClassNames) == 0 {
		c.ClassNames = COCOClasses
	}
	return c
}
