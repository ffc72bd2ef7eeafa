package thermometer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thermod-go/thermod/internal/status"
)

func TestScript_Success(t *testing.T) {
	s, err := NewScript([]string{"/bin/sh", "-c", `echo '{"temperature": 21.5, "error": null}'`}, status.Celsius, Calibration{}, nil)
	require.NoError(t, err)

	v, err := s.Temperature(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 21.5, v)
}

func TestScript_NonZeroExit(t *testing.T) {
	s, err := NewScript([]string{"/bin/sh", "-c", `echo '{"temperature": 0, "error": "sensor unreachable"}'; exit 1`}, status.Celsius, Calibration{}, nil)
	require.NoError(t, err)

	_, err = s.Temperature(context.Background())
	assert.ErrorIs(t, err, status.ErrThermometer)
	assert.Contains(t, err.Error(), "sensor unreachable")
}

func TestScript_InvalidOutput(t *testing.T) {
	s, err := NewScript([]string{"/bin/sh", "-c", `echo 'not json'`}, status.Celsius, Calibration{}, nil)
	require.NoError(t, err)

	_, err = s.Temperature(context.Background())
	assert.ErrorIs(t, err, status.ErrScript)
}

func TestScript_RejectsEmptyArgs(t *testing.T) {
	_, err := NewScript(nil, status.Celsius, Calibration{}, nil)
	assert.ErrorIs(t, err, status.ErrConfig)
}

func TestScript_AppliesCalibration(t *testing.T) {
	calib, err := NewCalibration([]float64{0, 10}, []float64{1, 12})
	require.NoError(t, err)

	s, err := NewScript([]string{"/bin/sh", "-c", `echo '{"temperature": 5, "error": null}'`}, status.Celsius, calib, nil)
	require.NoError(t, err)

	v, err := s.Temperature(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 6.5, v, 1e-9)
}
