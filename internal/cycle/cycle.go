// Package cycle implements the control cycle: the outer scheduler that
// ties the timetable, thermometer and actuator together, grounded in
// the teacher's ticker/select run loop (internal/poller/poller.go).
package cycle

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/thermod-go/thermod/internal/actuator"
	"github.com/thermod-go/thermod/internal/status"
	"github.com/thermod-go/thermod/internal/thermometer"
	"github.com/thermod-go/thermod/internal/timetable"
	"github.com/thermod-go/thermod/pkg/pubsub"
)

// Cycle is the read -> decide -> act -> publish scheduler of spec.md
// §4.4. One Cycle owns exactly one thermometer pipeline and one
// actuator; the timetable and master lock are shared with the control
// socket so a settings mutation and a cycle step can never interleave.
type Cycle struct {
	TimeTable   *timetable.TimeTable
	Thermometer thermometer.Source
	Actuator    actuator.Actuator
	Publisher   *pubsub.Publisher[status.ThermodStatus]

	// MasterLock serialises a cycle step against the control socket's
	// POST /settings (spec.md §4.4: "All actuator commands happen
	// while holding the master lock"). Shared by pointer with
	// internal/socket so neither package imports the other.
	MasterLock *sync.Mutex

	// Interval is the normal time between cycle steps.
	Interval time.Duration
	// SleepOnError is the backoff applied after a known, transient
	// error (spec.md §4.4, §5: "backpressure... grows... to
	// sleep_on_error").
	SleepOnError time.Duration
	// OpTimeout bounds every external operation within a single step
	// (thermometer read, actuator status/switch), spec.md §5.
	OpTimeout time.Duration

	Logger *slog.Logger
}

// Run executes the control cycle until ctx is cancelled. Context
// cancellation plays the role of spec.md §4.4's "enabled" flag: the
// daemon's signal handler (SIGINT/SIGTERM) cancels the shared context,
// which is the idiomatic Go substitute for an internal running flag
// (see DESIGN.md). A returned error means an unexpected failure was
// hit and the cycle is shutting down, per spec.md §4.4's "except
// unexpected: ... initiate shutdown".
func (c *Cycle) Run(ctx context.Context) error {
	c.Logger.Debug("started", slog.Duration("interval", c.Interval))
	defer c.Logger.Debug("stopped")

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		wait := c.Interval
		if err := c.step(ctx); err != nil {
			if !isKnownError(err) {
				c.Logger.Error("unexpected control cycle error, shutting down", slog.Any("err", err))
				return err
			}
			c.Logger.Warn("control cycle step failed", slog.Any("err", err))
			wait = c.SleepOnError
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(wait):
		case <-c.TimeTable.Changed():
		}
	}
}

// step runs exactly one read -> decide -> act -> publish pass, holding
// MasterLock for its whole duration.
func (c *Cycle) step(ctx context.Context) error {
	c.MasterLock.Lock()
	defer c.MasterLock.Unlock()

	opCtx, cancel := context.WithTimeout(ctx, c.OpTimeout)
	defer cancel()

	now := time.Now()

	current, err := c.Thermometer.Temperature(opCtx)
	if err != nil {
		c.publishError(now, err)
		return err
	}

	actuatorOn, err := c.Actuator.Status(opCtx)
	if err != nil {
		c.publishError(now, err)
		return err
	}

	decision := c.TimeTable.ShouldBeOn(now, current, actuatorOn)
	if decision.On != actuatorOn {
		if decision.On {
			err = c.Actuator.SwitchOn(opCtx)
		} else {
			err = c.Actuator.SwitchOff(opCtx)
		}
		if err != nil {
			c.publishError(now, err)
			return err
		}
	}

	st := decision.Status
	st.ActuatorOn = decision.On
	c.Publisher.Publish(st)
	c.Logger.Debug("cycle step completed", slog.Any("status", st))
	return nil
}

// publishError fans out an error-status snapshot, keeping the last
// known mode/HVAC mode so monitors still see what the daemon is
// configured to do even while a reading is failing.
func (c *Cycle) publishError(now time.Time, err error) {
	s := c.TimeTable.Settings()
	c.Publisher.Publish(status.ThermodStatus{
		Timestamp: now,
		Mode:      s.Mode,
		HVACMode:  s.HVACMode,
		Error:     err.Error(),
	})
}

// Reload re-reads the timetable file in place, for SIGHUP (spec.md
// §4.4). Failures leave the prior in-memory timetable untouched.
func (c *Cycle) Reload() error {
	c.MasterLock.Lock()
	defer c.MasterLock.Unlock()
	if err := c.TimeTable.Reload(); err != nil {
		c.Logger.Error("timetable reload failed", slog.Any("err", err))
		return err
	}
	c.Logger.Info("timetable reloaded")
	return nil
}

// isKnownError reports whether err belongs to the taxonomy spec.md
// §4.4 lists as transient (ThermometerError, HeatingError,
// ScriptError, ValidationError, JsonValueError); anything else is
// "unexpected" and triggers shutdown.
func isKnownError(err error) bool {
	return errors.Is(err, status.ErrThermometer) ||
		errors.Is(err, status.ErrHeating) ||
		errors.Is(err, status.ErrScript) ||
		errors.Is(err, status.ErrValidation) ||
		errors.Is(err, status.ErrJSONValue)
}
