// Package timetable owns the weekly program and numeric settings, and
// resolves a target temperature and an on/off decision from
// (now, current temperature, actuator state).
package timetable

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/thermod-go/thermod/internal/status"
)

// TimeTable owns the in-memory Settings and serialises mutations
// against concurrent readers. It plays the role of the spec's "master
// lock" target for timetable state: callers needing to coordinate a
// whole read-decide-act cycle across components still take their own
// lock (internal/cycle); TimeTable's own lock only protects its fields.
type TimeTable struct {
	mu       sync.RWMutex
	settings Settings
	path     string

	// notify is closed and replaced on every mutation, giving
	// select-based "wait until changed" semantics in place of a native
	// condition variable (spec.md §9), grounded in the teacher's
	// ticker/refresh-channel select loop (internal/poller/poller.go).
	notifyMu sync.Mutex
	notify   chan struct{}

	// onSince tracks how long the actuator has been continuously on,
	// to implement grace_time (spec.md §4.1). Set by the first decision
	// that turns the actuator on, cleared by any decision that is off.
	onSince *time.Time
}

// New creates an empty TimeTable. Call Load before using it.
func New() *TimeTable {
	return &TimeTable{notify: make(chan struct{})}
}

// Load reads and validates a timetable JSON file at path, replacing the
// in-memory state atomically. On failure, the prior state is preserved.
func (t *TimeTable) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &status.TimetableError{Path: path, Err: fmt.Errorf("%w", status.ErrNotFound)}
		}
		if errors.Is(err, os.ErrPermission) {
			return &status.TimetableError{Path: path, Err: fmt.Errorf("%w", status.ErrPermissionDenied)}
		}
		return &status.TimetableError{Path: path, Err: err}
	}

	var s Settings
	if err := json.Unmarshal(data, &s); err != nil {
		var syntaxErr *json.SyntaxError
		if errors.As(err, &syntaxErr) {
			err = fmt.Errorf("%w: %v", status.ErrInvalidSyntax, err)
		}
		return &status.TimetableError{Path: path, Err: err}
	}
	if err := s.Validate(); err != nil {
		return &status.TimetableError{Path: path, Err: err}
	}

	t.mu.Lock()
	t.settings = s
	t.path = path
	t.mu.Unlock()
	t.notifyChange()
	return nil
}

// Reload re-reads the file the TimeTable was last loaded from. Used on
// SIGHUP. On failure the prior state is retained.
func (t *TimeTable) Reload() error {
	t.mu.RLock()
	path := t.path
	t.mu.RUnlock()
	if path == "" {
		return &status.TimetableError{Err: fmt.Errorf("%w: no path to reload from", status.ErrNotFound)}
	}
	return t.Load(path)
}

// Save atomically writes the current settings to path (write-to-temp
// then rename), grounded in original_source/thermod/timetable.py's
// _write_timetable_file.
func (t *TimeTable) Save(path string) error {
	t.mu.RLock()
	data, err := json.MarshalIndent(t.settings, "", "  ")
	t.mu.RUnlock()
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".timetable-*.tmp")
	if err != nil {
		return &status.TimetableError{Path: path, Err: fmt.Errorf("%w", status.ErrPermissionDenied)}
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return &status.TimetableError{Path: path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &status.TimetableError{Path: path, Err: err}
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return &status.TimetableError{Path: path, Err: err}
	}
	return nil
}

// Settings returns a copy of the current settings, e.g. for the
// control socket's GET /settings endpoint.
func (t *TimeTable) Settings() Settings {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.settings
}

// TargetTemperature resolves the target temperature for the given time
// under mode. Read-only; never fails for well-formed state (spec.md
// §4.1, §8 invariant 3).
func (t *TimeTable) TargetTemperature(now time.Time, mode status.Mode) float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.targetTemperatureLocked(now, mode)
}

func (t *TimeTable) targetTemperatureLocked(now time.Time, mode status.Mode) float64 {
	switch mode {
	case status.ModeOn:
		return t.settings.Temperatures[status.TMax]
	case status.ModeOff:
		if t.settings.HVACMode == status.Cooling {
			return status.PositiveInfinity
		}
		return status.NegativeInfinity
	case status.ModeTMax:
		return t.settings.Temperatures[status.TMax]
	case status.ModeTMin:
		return t.settings.Temperatures[status.TMin]
	case status.ModeT0:
		return t.settings.Temperatures[status.T0]
	default: // auto
		day := DayFromTime(now)
		hour := HourFromTime(now)
		quarter := QuarterFromTime(now)
		cell, ok := t.settings.Program.CellAt(day, hour, quarter)
		if !ok {
			// Validate() guarantees every cell exists; this only
			// happens against an un-Loaded TimeTable.
			if t.settings.HVACMode == status.Cooling {
				return status.PositiveInfinity
			}
			return status.NegativeInfinity
		}
		if cell.IsName {
			return t.settings.Temperatures[cell.Name]
		}
		return cell.Literal
	}
}

// Decision is the result of ShouldBeOn: whether the actuator should be
// on, and the ThermodStatus snapshot derived alongside it.
type Decision struct {
	On     bool
	Status status.ThermodStatus
}

// ShouldBeOn resolves whether the actuator should be on right now,
// given the current temperature and whether the actuator is currently
// on. It applies the hysteresis of spec.md §3 and the grace_time cap
// of §4.1, and is a latching function: in the dead zone it returns
// actuatorOn unchanged (spec.md §8 invariant 2).
func (t *TimeTable) ShouldBeOn(now time.Time, currentTemp float64, actuatorOn bool) Decision {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := t.settings
	target := t.targetTemperatureLocked(now, s.Mode)

	var on bool
	switch s.Mode {
	case status.ModeOn:
		on = true
	case status.ModeOff:
		on = false
	default:
		on = shouldBeOn(s.HVACMode, s.Inertia, target, s.Differential, currentTemp, actuatorOn)
	}

	on = t.applyGraceTime(now, s, on)
	t.updateOnSince(now, on)

	return Decision{
		On: on,
		Status: status.ThermodStatus{
			Timestamp:  now,
			Mode:       s.Mode,
			HVACMode:   s.HVACMode,
			Current:    currentTemp,
			Target:     target,
			ActuatorOn: on,
		},
	}
}

// applyGraceTime forces the decision off once the actuator has been
// continuously on for grace_time seconds, per spec.md §4.1. The on-time
// is counted from the first decision that turned the actuator on. The
// cap applies uniformly to heating and cooling. A decision that is off,
// forced or not, clears the count, so the next call is governed by the
// normal hysteresis/latching rule and starts a new count if it is on.
func (t *TimeTable) applyGraceTime(now time.Time, s Settings, on bool) bool {
	if !on || s.GraceTime == nil || t.onSince == nil {
		return on
	}
	elapsed := now.Sub(*t.onSince)
	if elapsed.Seconds() >= *s.GraceTime {
		return false
	}
	return on
}

func (t *TimeTable) updateOnSince(now time.Time, on bool) {
	if !on {
		t.onSince = nil
		return
	}
	if t.onSince == nil {
		t.onSince = &now
	}
}

// SetMode changes the current mode.
func (t *TimeTable) SetMode(m status.Mode) error {
	if !m.Valid() {
		return &status.ValidationError{Field: "mode", Reason: fmt.Sprintf("unknown mode %q", m)}
	}
	t.mu.Lock()
	t.settings.Mode = m
	t.mu.Unlock()
	t.notifyChange()
	return nil
}

// SetHVACMode changes the current HVAC mode. It does not change any
// cell values, only the direction of the hysteresis comparison
// (spec.md §4.1).
func (t *TimeTable) SetHVACMode(h status.HVACMode) error {
	if !h.Valid() {
		return &status.ValidationError{Field: "hvac_mode", Reason: fmt.Sprintf("unknown hvac mode %q", h)}
	}
	t.mu.Lock()
	t.settings.HVACMode = h
	t.mu.Unlock()
	t.notifyChange()
	return nil
}

// SetInertia changes the hysteresis strategy.
func (t *TimeTable) SetInertia(i status.Inertia) error {
	if !i.Valid() {
		return &status.ValidationError{Field: "inertia", Reason: "must be 1, 2 or 3"}
	}
	t.mu.Lock()
	t.settings.Inertia = i
	t.mu.Unlock()
	t.notifyChange()
	return nil
}

// SetDifferential changes the hysteresis half-width.
func (t *TimeTable) SetDifferential(d float64) error {
	if d < 0 || d > 1 {
		return &status.ValidationError{Field: "differential", Reason: "must be within [0,1]"}
	}
	t.mu.Lock()
	t.settings.Differential = d
	t.mu.Unlock()
	t.notifyChange()
	return nil
}

// SetGraceTime changes the grace time, or disables it when seconds is nil.
func (t *TimeTable) SetGraceTime(seconds *float64) error {
	if seconds != nil && *seconds < 0 {
		return &status.ValidationError{Field: "grace_time", Reason: "must not be negative"}
	}
	t.mu.Lock()
	t.settings.GraceTime = seconds
	t.mu.Unlock()
	t.notifyChange()
	return nil
}

// SetTemperature changes one of the three named comfort temperatures.
func (t *TimeTable) SetTemperature(name status.TemperatureName, value float64) error {
	if !name.Valid() {
		return &status.ValidationError{Field: "temperatures", Reason: fmt.Sprintf("unknown name %q", name)}
	}
	t.mu.Lock()
	if t.settings.Temperatures == nil {
		t.settings.Temperatures = make(map[status.TemperatureName]float64)
	}
	t.settings.Temperatures[name] = value
	t.mu.Unlock()
	t.notifyChange()
	return nil
}

// SetProgram replaces the whole weekly program, validating it against
// the current named temperatures first.
func (t *TimeTable) SetProgram(p Program) error {
	t.mu.Lock()
	names := t.settings.Temperatures
	t.mu.Unlock()
	if err := p.Validate(names); err != nil {
		return &status.ValidationError{Field: "timetable", Reason: err.Error()}
	}
	t.mu.Lock()
	t.settings.Program = p
	t.mu.Unlock()
	t.notifyChange()
	return nil
}

// SetSettings replaces the whole settings document, after validation.
func (t *TimeTable) SetSettings(s Settings) error {
	if err := s.Validate(); err != nil {
		return &status.ValidationError{Field: "settings", Reason: err.Error()}
	}
	t.mu.Lock()
	t.settings = s
	t.mu.Unlock()
	t.notifyChange()
	return nil
}

// Changed returns a channel that is closed the next time the timetable
// mutates. Callers select on it to wake up promptly instead of sleeping
// for the full cycle interval.
func (t *TimeTable) Changed() <-chan struct{} {
	t.notifyMu.Lock()
	defer t.notifyMu.Unlock()
	return t.notify
}

func (t *TimeTable) notifyChange() {
	t.notifyMu.Lock()
	defer t.notifyMu.Unlock()
	close(t.notify)
	t.notify = make(chan struct{})
}

// loadFromBytes lets tests round-trip a Settings document without
// touching the filesystem.
func (t *TimeTable) loadFromBytes(data []byte) error {
	var s Settings
	if err := json.Unmarshal(data, &s); err != nil {
		return &status.TimetableError{Err: err}
	}
	if err := s.Validate(); err != nil {
		return &status.TimetableError{Err: err}
	}
	t.mu.Lock()
	t.settings = s
	t.mu.Unlock()
	t.notifyChange()
	return nil
}
