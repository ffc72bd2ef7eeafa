package status

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThermodStatus_JSONRoundTrip(t *testing.T) {
	s := ThermodStatus{
		Timestamp:  time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC),
		Mode:       ModeAuto,
		HVACMode:   Heating,
		Current:    19.5,
		Target:     20.0,
		ActuatorOn: true,
	}
	data, err := json.Marshal(s)
	require.NoError(t, err)

	var decoded ThermodStatus
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, s, decoded)
}

func TestThermodStatus_JSONRoundTrip_Infinities(t *testing.T) {
	for _, target := range []float64{PositiveInfinity, NegativeInfinity} {
		s := ThermodStatus{Mode: ModeOff, HVACMode: Heating, Target: target}
		data, err := json.Marshal(s)
		require.NoError(t, err)

		var decoded ThermodStatus
		require.NoError(t, json.Unmarshal(data, &decoded))
		assert.Equal(t, target, decoded.Target)
	}
}

func TestActuatorStatus(t *testing.T) {
	assert.Equal(t, 1, ThermodStatus{ActuatorOn: true}.ActuatorStatus())
	assert.Equal(t, 0, ThermodStatus{ActuatorOn: false}.ActuatorStatus())
}
