package actuator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/thermod-go/thermod/internal/status"
)

// Pin drives and reads back a single GPIO line. Generalised behind an
// interface the same way internal/thermometer.ChannelReader generalises
// an A/D converter channel, since there is no portable Go equivalent of
// the Python gpiozero/RPi.GPIO libraries the original hardware-specific
// subclasses bind to.
type Pin interface {
	Set(high bool) error
	Get() (high bool, err error)
}

// GPIORelay drives a set of pins high or low according to a configured
// trigger level to switch the plant, and reads them back to report
// status. All pins must agree after a read or the result is a
// status.HeatingError, grounded in the "status is readback from the
// pins, consistent across pins" rule of spec.md §4.3 (the original
// Python daemon has no GPIO relay variant of its own; this is modelled
// after its ScriptHeating state-caching behaviour, generalised to
// hardware pins per spec.md).
type GPIORelay struct {
	pins        []Pin
	triggerHigh bool
	logger      *slog.Logger

	mu          sync.Mutex
	lastOffTime time.Time
}

// NewGPIORelay builds a GPIORelay over pins. triggerHigh selects
// whether driving a pin high (true) or low (false) switches the plant
// on.
func NewGPIORelay(pins []Pin, triggerHigh bool, logger *slog.Logger) (*GPIORelay, error) {
	if len(pins) == 0 {
		return nil, fmt.Errorf("%w: GPIO relay actuator requires at least one pin", status.ErrConfig)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &GPIORelay{pins: pins, triggerHigh: triggerHigh, logger: logger.With(slog.String("component", "actuator.gpio"))}, nil
}

func (g *GPIORelay) set(on bool) error {
	high := on == g.triggerHigh
	for i, p := range g.pins {
		if err := p.Set(high); err != nil {
			return &status.HeatingError{Reason: fmt.Sprintf("failed to drive pin %d", i), Sub: err}
		}
	}
	return nil
}

func (g *GPIORelay) SwitchOn(context.Context) error {
	if err := g.set(true); err != nil {
		return err
	}
	return nil
}

func (g *GPIORelay) SwitchOff(context.Context) error {
	if err := g.set(false); err != nil {
		return err
	}
	g.mu.Lock()
	g.lastOffTime = time.Now()
	g.mu.Unlock()
	return nil
}

func (g *GPIORelay) Status(context.Context) (bool, error) {
	var states []bool
	for i, p := range g.pins {
		high, err := p.Get()
		if err != nil {
			return false, &status.HeatingError{Reason: fmt.Sprintf("failed to read pin %d", i), Sub: err}
		}
		states = append(states, high)
	}
	first := states[0]
	for i, s := range states[1:] {
		if s != first {
			return false, &status.HeatingError{Reason: fmt.Sprintf("pins disagree on status: pin 0 is %v, pin %d is %v", first, i+1, s)}
		}
	}
	return first == g.triggerHigh, nil
}

func (g *GPIORelay) LastOffTime() time.Time {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.lastOffTime
}

func (g *GPIORelay) Close() error { return nil }
