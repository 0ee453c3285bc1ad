package pipeline

import (
	"errors"

	pkgerrors "github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// ErrSourceUnavailable is returned when a media source cannot be opened.
var ErrSourceUnavailable = errors.New("source unavailable")

// FrameSource is a finite, ordered stream of frames. A source is
// single-pass; restarting means constructing a new one over the same
// path.
type FrameSource interface {
	// Next reads the next frame into dst and reports whether one was
	// available. After Next returns false the stream is exhausted.
	Next(dst *gocv.Mat) bool
	Close() error
}

// VideoSource streams frames from a video container or capture URL.
type VideoSource struct {
	capture *gocv.VideoCapture
}

// OpenVideo opens path as a frame source. The path may be a local file
// or a URL the capture backend understands.
func OpenVideo(path string) (*VideoSource, error) {
	capture, err := gocv.OpenVideoCapture(path)
	if err != nil {
		return nil, pkgerrors.Wrapf(ErrSourceUnavailable, "%s: %v", path, err)
	}
	if !capture.IsOpened() {
		capture.Close()
		return nil, pkgerrors.Wrapf(ErrSourceUnavailable, "%s", path)
	}
	return &VideoSource{capture: capture}, nil
}

// Next reads one frame. Empty reads (container padding) end the stream.
func (s *VideoSource) Next(dst *gocv.Mat) bool {
	if ok := s.capture.Read(dst); !ok {
		return false
	}
	return !dst.Empty()
}

// FPS reports the container frame rate, or 0 when unknown.
func (s *VideoSource) FPS() float64 {
	return s.capture.Get(gocv.VideoCaptureFPS)
}

// Close releases the capture.
func (s *VideoSource) Close() error {
	return s.capture.Close()
}

// FirstFrame loads an editing canvas from path: a still image when the
// file decodes as one, otherwise the first frame of the video. The
// returned Mat is owned by the caller.
func FirstFrame(path string) (gocv.Mat, error) {
	img := gocv.IMRead(path, gocv.IMReadColor)
	if !img.Empty() {
		return img, nil
	}
	img.Close()

	src, err := OpenVideo(path)
	if err != nil {
		return gocv.Mat{}, err
	}
	defer src.Close()

	frame := gocv.NewMat()
	if !src.Next(&frame) {
		frame.Close()
		return gocv.Mat{}, pkgerrors.Wrapf(ErrSourceUnavailable, "%s: no frames", path)
	}
	return frame, nil
}
