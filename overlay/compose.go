package overlay

import (
	"errors"

	"gocv.io/x/gocv"

	"zonetrack/detection"
)

// ErrLabelMismatch is returned when the label list and the set of
// label-consuming passes disagree: a label-consuming pass with no labels
// supplied, or labels supplied with no pass to consume them.
var ErrLabelMismatch = errors.New("labels and label annotator must be used together")

// Compose applies the annotation passes to the frame strictly in list
// order; each pass receives the frame produced by the one before it. The
// label contract is validated first, so a mismatch fails before anything
// is drawn.
func Compose(frame *gocv.Mat, dets []detection.Detection, passes []Annotator, labels []string) error {
	if err := validateLabels(passes, labels); err != nil {
		return err
	}
	for _, pass := range passes {
		pass.Annotate(frame, dets, labels)
	}
	return nil
}

// validateLabels enforces the pairing between the label list and
// label-consuming passes.
func validateLabels(passes []Annotator, labels []string) error {
	consumer := false
	for _, pass := range passes {
		if pass.NeedsLabels() {
			consumer = true
			break
		}
	}
	if consumer && labels == nil {
		return ErrLabelMismatch
	}
	if !consumer && len(labels) > 0 {
		return ErrLabelMismatch
	}
	return nil
}
