// Package actuator implements the heating/cooling actuator abstraction:
// a Script variant driving external commands and a GPIO relay variant
// driving a set of pins, both satisfying the same Actuator interface.
package actuator

import (
	"context"
	"time"
)

// Actuator is anything that can switch the plant on or off and report
// its current state, grounded in
// original_source/thermod/heating.py's BaseHeating.
type Actuator interface {
	// SwitchOn turns the plant on. A failure leaves the actuator's
	// reported status unchanged and returns status.HeatingError, or
	// status.ScriptError when a script's output cannot be parsed.
	SwitchOn(ctx context.Context) error

	// SwitchOff turns the plant off. A failure leaves the actuator's
	// reported status unchanged and returns status.HeatingError, or
	// status.ScriptError when a script's output cannot be parsed.
	SwitchOff(ctx context.Context) error

	// Status returns the actuator's current on/off state. Between a
	// successful switch call and the next switch call it reflects the
	// last commanded state (spec.md §4.3).
	Status(ctx context.Context) (bool, error)

	// LastOffTime returns the time of the last successful SwitchOff,
	// or the zero time if the actuator has never been switched off.
	// The control cycle does not read it: grace_time is enforced by
	// timetable.TimeTable from its own on/off decisions.
	LastOffTime() time.Time

	Close() error
}
