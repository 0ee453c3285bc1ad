package pipeline

import (
	"time"

	"gocv.io/x/gocv"
)

// Display is the sink frames are emitted to, paired with a bounded key
// poll that doubles as playback pacing.
type Display interface {
	Show(frame gocv.Mat)
	// Poll waits up to the given duration for a key press and returns
	// its code, or a negative value when none was pressed.
	Poll(wait time.Duration) int
	Close() error
}

// Window is a Display over a single gocv window.
type Window struct {
	window *gocv.Window
}

// NewWindow opens a named display window.
func NewWindow(name string) *Window {
	return &Window{window: gocv.NewWindow(name)}
}

// Show renders the frame.
func (w *Window) Show(frame gocv.Mat) {
	w.window.IMShow(frame)
}

// Poll pumps the window event loop for up to wait and returns the
// pressed key code, or a negative value when none. The wait is clamped
// to at least one millisecond because a zero WaitKey blocks forever.
func (w *Window) Poll(wait time.Duration) int {
	ms := int(wait.Milliseconds())
	if ms < 1 {
		ms = 1
	}
	return w.window.WaitKey(ms)
}

// Close destroys the window.
func (w *Window) Close() error {
	return w.window.Close()
}
