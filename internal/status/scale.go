// Package status holds the value types shared across the thermostat
// daemon: the degree scale, the user-facing mode, the HVAC direction,
// the inertia strategy and the status snapshot published to monitors.
package status

import "fmt"

// Scale is the degree scale the daemon works in. All external
// temperatures are normalised to the configured working scale.
type Scale string

const (
	Celsius    Scale = "celsius"
	Fahrenheit Scale = "fahrenheit"
)

// Valid reports whether s is one of the known scales.
func (s Scale) Valid() bool {
	return s == Celsius || s == Fahrenheit
}

// CelsiusToFahrenheit converts a celsius temperature to fahrenheit.
func CelsiusToFahrenheit(c float64) float64 {
	return 1.8*c + 32.0
}

// FahrenheitToCelsius converts a fahrenheit temperature to celsius.
func FahrenheitToCelsius(f float64) float64 {
	return (f - 32.0) / 1.8
}

// Convert converts value expressed in from to the to scale.
func Convert(value float64, from, to Scale) float64 {
	if from == to {
		return value
	}
	if from == Celsius {
		return CelsiusToFahrenheit(value)
	}
	return FahrenheitToCelsius(value)
}

func (s Scale) String() string { return string(s) }

// ParseScale parses a scale name, returning an error for anything else.
func ParseScale(name string) (Scale, error) {
	s := Scale(name)
	if !s.Valid() {
		return "", fmt.Errorf("%w: unknown degree scale %q", ErrInvalidContent, name)
	}
	return s, nil
}
