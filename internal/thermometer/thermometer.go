// Package thermometer implements the temperature-reading pipeline:
// a Source variant wrapped by zero or more decorators, composed in the
// fixed order Source -> ScaleAdapter -> SimilarityChecker -> AveragingTask.
package thermometer

import (
	"context"
)

// Source is any object that can report the current temperature in its
// own configured scale. Calibration, if any, is applied inside the
// Source's Temperature implementation -- it is a property of the raw
// reading, not a separate pipeline stage.
type Source interface {
	// Temperature returns the current temperature. It returns
	// status.ThermometerError (directly or wrapped) on failure, or
	// status.ScriptError when a script source's output cannot be parsed.
	Temperature(ctx context.Context) (float64, error)

	// Close releases any resource held by the source (child process
	// handles, GPIO lines, background goroutines). Decorators forward
	// Close to the wrapped source after releasing their own resources.
	Close() error
}
