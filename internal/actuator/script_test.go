package actuator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thermod-go/thermod/internal/status"
)

func sh(script string) []string { return []string{"/bin/sh", "-c", script} }

func TestScript_SwitchOnOff_AndStatus(t *testing.T) {
	s, err := NewScript(context.Background(),
		sh(`echo '{"success": true, "status": null, "error": null}'`),
		sh(`echo '{"success": true, "status": null, "error": null}'`),
		sh(`echo '{"success": true, "status": 1, "error": null}'`),
		nil)
	require.NoError(t, err)

	require.NoError(t, s.SwitchOn(context.Background()))
	on, err := s.Status(context.Background())
	require.NoError(t, err)
	assert.True(t, on)
}

func TestScript_SwitchOnFailure(t *testing.T) {
	s, err := NewScript(context.Background(),
		sh(`echo '{"success": false, "status": null, "error": "relay stuck"}'; exit 1`),
		sh(`echo '{"success": true, "status": null, "error": null}'`),
		nil, nil)
	require.NoError(t, err)

	err = s.SwitchOn(context.Background())
	assert.ErrorIs(t, err, status.ErrHeating)
	assert.Contains(t, err.Error(), "relay stuck")
}

func TestScript_NoStatusScript_CachesAndForcesOffAtStartup(t *testing.T) {
	s, err := NewScript(context.Background(),
		sh(`echo '{"success": true, "status": null, "error": null}'`),
		sh(`echo '{"success": true, "status": null, "error": null}'`),
		nil, nil)
	require.NoError(t, err)

	on, err := s.Status(context.Background())
	require.NoError(t, err)
	assert.False(t, on, "constructor must force a known off state when no status script is configured")
	assert.False(t, s.LastOffTime().IsZero())

	require.NoError(t, s.SwitchOn(context.Background()))
	on, err = s.Status(context.Background())
	require.NoError(t, err)
	assert.True(t, on)
}

func TestScript_RejectsMissingCommands(t *testing.T) {
	_, err := NewScript(context.Background(), nil, sh("true"), nil, nil)
	assert.ErrorIs(t, err, status.ErrConfig)
}

func TestScript_LastOffTimeUpdatesOnSwitchOff(t *testing.T) {
	s, err := NewScript(context.Background(),
		sh(`echo '{"success": true, "status": null, "error": null}'`),
		sh(`echo '{"success": true, "status": null, "error": null}'`),
		sh(`echo '{"success": true, "status": 0, "error": null}'`),
		nil)
	require.NoError(t, err)

	before := s.LastOffTime()
	require.NoError(t, s.SwitchOff(context.Background()))
	assert.True(t, s.LastOffTime().After(before) || s.LastOffTime().Equal(before))
}
