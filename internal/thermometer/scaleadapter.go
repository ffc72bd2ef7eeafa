package thermometer

import (
	"context"

	"github.com/thermod-go/thermod/internal/status"
)

// ScaleAdapter converts a wrapped Source's readings from its own scale
// to the working scale, grounded in
// original_source/thermod/thermometer.py's
// ScaleAdapterThermometerDecorator. A no-op when the scales already
// match.
type ScaleAdapter struct {
	Source
	From, To status.Scale
}

// NewScaleAdapter wraps source, converting its readings from the from
// scale to the to scale.
func NewScaleAdapter(source Source, from, to status.Scale) *ScaleAdapter {
	return &ScaleAdapter{Source: source, From: from, To: to}
}

func (a *ScaleAdapter) Temperature(ctx context.Context) (float64, error) {
	v, err := a.Source.Temperature(ctx)
	if err != nil {
		return 0, err
	}
	return status.Convert(v, a.From, a.To), nil
}
