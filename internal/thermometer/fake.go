package thermometer

import (
	"context"

	"github.com/thermod-go/thermod/internal/status"
)

// Fake always reports a fixed temperature, grounded in
// original_source/thermod/thermometer.py's FakeThermometer. Used for
// testing and for the pipeline document's "fake" thermometer source.
type Fake struct {
	Scale       status.Scale
	Temp        float64
	Calibration Calibration
}

// NewFake builds a Fake reporting 20.0 in celsius, or its fahrenheit
// equivalent, matching the default of the teacher's original.
func NewFake(scale status.Scale) *Fake {
	temp := 20.0
	if scale == status.Fahrenheit {
		temp = status.CelsiusToFahrenheit(temp)
	}
	return &Fake{Scale: scale, Temp: temp}
}

func (f *Fake) Temperature(context.Context) (float64, error) {
	return f.Calibration.Apply(f.Temp), nil
}

func (f *Fake) Close() error { return nil }
