package status

import "errors"

// Sentinel errors identifying the taxonomy from the error-handling design:
// each concrete error returned by the daemon wraps one of these with
// errors.Is/errors.As-compatible %w wrapping, following the teacher's
// fmt.Errorf("...: %w", err) convention throughout internal/controller
// and internal/poller.
var (
	// ErrConfig marks a malformed or missing daemon configuration.
	// Fatal, raised only at startup.
	ErrConfig = errors.New("config error")

	// ErrNotFound marks a missing timetable file.
	ErrNotFound = errors.New("not found")
	// ErrPermissionDenied marks a timetable file that could not be read or written.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrInvalidSyntax marks a timetable file that is not valid JSON.
	ErrInvalidSyntax = errors.New("invalid syntax")
	// ErrInvalidContent marks a timetable file that is valid JSON but
	// fails schema/semantic validation.
	ErrInvalidContent = errors.New("invalid content")

	// ErrThermometer marks a transient failure reading the current temperature.
	ErrThermometer = errors.New("thermometer error")
	// ErrHeating marks a transient failure switching or querying the actuator.
	ErrHeating = errors.New("heating error")
	// ErrScript marks a failing external helper script.
	ErrScript = errors.New("script error")

	// ErrValidation marks bad input from the control socket.
	ErrValidation = errors.New("validation error")
	// ErrJSONValue marks a JSON value of the wrong type or out of range.
	ErrJSONValue = errors.New("invalid json value")
)

// TimetableError wraps one of ErrNotFound, ErrPermissionDenied,
// ErrInvalidSyntax or ErrInvalidContent with the offending path.
type TimetableError struct {
	Path string
	Err  error
}

func (e *TimetableError) Error() string {
	if e.Path == "" {
		return e.Err.Error()
	}
	return e.Path + ": " + e.Err.Error()
}

func (e *TimetableError) Unwrap() error { return e.Err }

// ThermometerError wraps a transient thermometer failure, optionally
// carrying the sub-error returned by a script or hardware read.
type ThermometerError struct {
	Reason string
	Sub    error
}

func (e *ThermometerError) Error() string {
	if e.Sub != nil {
		return "thermometer: " + e.Reason + ": " + e.Sub.Error()
	}
	return "thermometer: " + e.Reason
}

func (e *ThermometerError) Unwrap() error { return errors.Join(ErrThermometer, e.Sub) }

// HeatingError wraps a transient actuator failure.
type HeatingError struct {
	Reason string
	Sub    error
}

func (e *HeatingError) Error() string {
	if e.Sub != nil {
		return "heating: " + e.Reason + ": " + e.Sub.Error()
	}
	return "heating: " + e.Reason
}

func (e *HeatingError) Unwrap() error { return errors.Join(ErrHeating, e.Sub) }

// ScriptError wraps a failing external helper, naming the script that
// produced the error.
type ScriptError struct {
	Script string
	Sub    error
}

func (e *ScriptError) Error() string {
	if e.Sub != nil {
		return "script " + e.Script + ": " + e.Sub.Error()
	}
	return "script " + e.Script
}

func (e *ScriptError) Unwrap() error { return errors.Join(ErrScript, e.Sub) }

// ValidationError wraps a bad request from the control socket or an
// invalid settings mutation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation: " + e.Field + ": " + e.Reason
}

func (e *ValidationError) Unwrap() error { return ErrValidation }
