package thermometer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalibration_Identity(t *testing.T) {
	c, err := NewCalibration(nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 12.34, c.Apply(12.34))
}

func TestCalibration_Interpolate(t *testing.T) {
	c, err := NewCalibration([]float64{0, 10, 20}, []float64{1, 9, 22})
	require.NoError(t, err)

	assert.InDelta(t, 1.0, c.Apply(0), 1e-9)
	assert.InDelta(t, 9.0, c.Apply(10), 1e-9)
	assert.InDelta(t, 5.0, c.Apply(5), 1e-9) // midpoint of segment [0,10] -> [1,9]
	assert.InDelta(t, 22.0, c.Apply(20), 1e-9)
}

func TestCalibration_Extrapolate(t *testing.T) {
	c, err := NewCalibration([]float64{0, 10}, []float64{2, 12})
	require.NoError(t, err)

	// Slope is 1, offset +2; extrapolation below/above must follow the
	// same line through the two nearest points.
	assert.InDelta(t, -3.0, c.Apply(-5), 1e-9)
	assert.InDelta(t, 17.0, c.Apply(15), 1e-9)
}

func TestCalibration_MismatchedLengths(t *testing.T) {
	_, err := NewCalibration([]float64{0, 10}, []float64{1})
	assert.Error(t, err)
}

func TestCalibration_TooFewPoints(t *testing.T) {
	_, err := NewCalibration([]float64{0}, []float64{1})
	assert.Error(t, err)
}

func TestCalibration_UnsortedInput(t *testing.T) {
	// raw points need not be given in order.
	c, err := NewCalibration([]float64{20, 0, 10}, []float64{22, 1, 9})
	require.NoError(t, err)
	assert.InDelta(t, 5.0, c.Apply(5), 1e-9)
}
