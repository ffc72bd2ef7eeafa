package actuator

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/stianeikeland/go-rpio/v4"
)

var (
	rpioOnce sync.Once
	rpioErr  error
)

// openRPIO maps /dev/gpiomem once per process, grounded in
// _examples/cava-fortino's single rpio.Open()/defer rpio.Close() call
// in main().
func openRPIO() error {
	rpioOnce.Do(func() { rpioErr = rpio.Open() })
	return rpioErr
}

// RPIOPin drives one Raspberry Pi GPIO line through
// github.com/stianeikeland/go-rpio/v4, the same library
// _examples/cava-fortino uses to switch its DigitalOutputs
// (rpio.Pin(o.PIN); pin.Write(rpio.High/Low)).
type RPIOPin struct {
	pin rpio.Pin
}

// NewRPIOPin opens the rpio memory map and configures bcm as an
// output pin.
func NewRPIOPin(bcm int) (*RPIOPin, error) {
	if err := openRPIO(); err != nil {
		return nil, fmt.Errorf("rpio.Open: %w", err)
	}
	p := rpio.Pin(bcm)
	p.Output()
	return &RPIOPin{pin: p}, nil
}

func (p *RPIOPin) Set(high bool) error {
	if high {
		p.pin.Write(rpio.High)
	} else {
		p.pin.Write(rpio.Low)
	}
	return nil
}

func (p *RPIOPin) Get() (bool, error) {
	return p.pin.Read() == rpio.High, nil
}

// ParsePinName parses a configured pin identifier such as "gpio17"
// into its BCM pin number.
func ParsePinName(name string) (int, error) {
	trimmed := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(name)), "gpio")
	n, err := strconv.Atoi(trimmed)
	if err != nil {
		return 0, fmt.Errorf("invalid GPIO pin name %q: expected e.g. \"gpio17\"", name)
	}
	return n, nil
}
