package timetable

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thermod-go/thermod/internal/status"
)

func fullProgram(cell Cell) Program {
	p := make(Program, 7)
	for _, day := range Days {
		hp := make(HourProgram, 24)
		for _, hour := range Hours {
			hp[hour] = Quarters{cell, cell, cell, cell}
		}
		p[day] = hp
	}
	return p
}

func baseSettings() Settings {
	return Settings{
		Temperatures: map[status.TemperatureName]float64{
			status.TMax: 21, status.TMin: 18, status.T0: 7,
		},
		Differential: 0.5,
		Mode:         status.ModeAuto,
		HVACMode:     status.Heating,
		Inertia:      status.Inertia1,
		Program:      fullProgram(NamedCell(status.TMax)),
	}
}

func newLoaded(t *testing.T, s Settings) *TimeTable {
	t.Helper()
	data, err := json.Marshal(s)
	require.NoError(t, err)
	tt := New()
	require.NoError(t, tt.loadFromBytes(data))
	return tt
}

// S1: heating, inertia 1, comfort.
func TestShouldBeOn_S1(t *testing.T) {
	s := baseSettings()
	s.Temperatures[status.TMax] = 20
	s.Differential = 0.5
	s.Inertia = status.Inertia1
	s.HVACMode = status.Heating
	s.Mode = status.ModeTMax
	tt := newLoaded(t, s)
	now := time.Date(2026, 1, 5, 8, 0, 0, 0, time.Local)

	d := tt.ShouldBeOn(now, 19.4, false)
	assert.True(t, d.On)

	d = tt.ShouldBeOn(now, 20.6, true)
	assert.False(t, d.On)

	d = tt.ShouldBeOn(now, 20.0, true)
	assert.True(t, d.On, "dead zone must latch to the prior actuator state")
}

// S2: cooling, inertia 2.
func TestShouldBeOn_S2(t *testing.T) {
	s := baseSettings()
	s.Temperatures[status.TMax] = 24
	s.Differential = 0.5
	s.Inertia = status.Inertia2
	s.HVACMode = status.Cooling
	s.Mode = status.ModeTMax
	tt := newLoaded(t, s)
	now := time.Date(2026, 1, 5, 8, 0, 0, 0, time.Local)

	d := tt.ShouldBeOn(now, 25.5, false)
	assert.True(t, d.On)

	d = tt.ShouldBeOn(now, 24.0, true)
	assert.False(t, d.On)

	d = tt.ShouldBeOn(now, 24.7, true)
	assert.True(t, d.On)
}

// S3: mode override.
func TestShouldBeOn_S3_ModeOff(t *testing.T) {
	s := baseSettings()
	s.Mode = status.ModeOff
	tt := newLoaded(t, s)
	now := time.Date(2026, 1, 5, 8, 0, 0, 0, time.Local)

	for _, current := range []float64{-100, 0, 50, 100} {
		for _, prev := range []bool{true, false} {
			d := tt.ShouldBeOn(now, current, prev)
			assert.False(t, d.On)
		}
	}
}

// S4: program resolution.
func TestTargetTemperature_S4(t *testing.T) {
	s := baseSettings()
	s.Temperatures[status.TMax] = 21
	s.Temperatures[status.TMin] = 18
	s.Mode = status.ModeAuto

	hp := s.Program[Monday]
	hp["h08"] = Quarters{
		NamedCell(status.TMin), NamedCell(status.TMin),
		NamedCell(status.TMax), NamedCell(status.TMax),
	}
	s.Program[Monday] = hp

	tt := newLoaded(t, s)
	// Monday 08:34 falls in quarter 2 (30-44 minutes).
	monday0834 := time.Date(2026, 1, 5, 8, 34, 0, 0, time.Local)
	require.Equal(t, time.Monday, monday0834.Weekday())

	target := tt.TargetTemperature(monday0834, status.ModeAuto)
	assert.Equal(t, 21.0, target)
}

func TestTargetTemperature_OffIsInfinite(t *testing.T) {
	s := baseSettings()
	s.Mode = status.ModeOff
	s.HVACMode = status.Heating
	tt := newLoaded(t, s)
	now := time.Now()
	assert.Equal(t, status.NegativeInfinity, tt.TargetTemperature(now, status.ModeOff))

	s.HVACMode = status.Cooling
	tt = newLoaded(t, s)
	assert.Equal(t, status.PositiveInfinity, tt.TargetTemperature(now, status.ModeOff))
}

// JSON round trip (spec.md §8 invariant 4).
func TestSettingsJSONRoundTrip(t *testing.T) {
	s := baseSettings()
	s.GraceTime = ptr(3600.0)

	data, err := json.Marshal(s)
	require.NoError(t, err)

	var decoded Settings
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, s.Temperatures, decoded.Temperatures)
	assert.Equal(t, s.Differential, decoded.Differential)
	assert.Equal(t, *s.GraceTime, *decoded.GraceTime)
	assert.Equal(t, s.Mode, decoded.Mode)
	assert.Equal(t, s.HVACMode, decoded.HVACMode)
	assert.Equal(t, s.Inertia, decoded.Inertia)
	assert.Equal(t, s.Program, decoded.Program)
}

func TestGraceTime_ForcesOff(t *testing.T) {
	s := baseSettings()
	s.Temperatures[status.TMax] = 20
	s.Mode = status.ModeTMax
	s.HVACMode = status.Heating
	s.Differential = 0.5
	s.GraceTime = ptr(60.0)
	tt := newLoaded(t, s)

	start := time.Date(2026, 1, 5, 8, 0, 0, 0, time.Local)
	d := tt.ShouldBeOn(start, 10, false)
	assert.True(t, d.On)

	later := start.Add(90 * time.Second)
	d = tt.ShouldBeOn(later, 10, true)
	assert.False(t, d.On, "grace time must force off after continuous on-time")
}

func TestDifferentialValidation(t *testing.T) {
	s := baseSettings()
	s.Differential = 1.5
	assert.ErrorIs(t, s.Validate(), status.ErrInvalidContent)
}

func ptr(v float64) *float64 { return &v }
