package cycle

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thermod-go/thermod/internal/status"
	"github.com/thermod-go/thermod/internal/thermometer"
	"github.com/thermod-go/thermod/internal/timetable"
	"github.com/thermod-go/thermod/pkg/pubsub"
)

// fakeActuator is a minimal in-memory actuator test double.
type fakeActuator struct {
	mu          sync.Mutex
	on          bool
	lastOff     time.Time
	switchOnErr error
}

func (a *fakeActuator) SwitchOn(context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.switchOnErr != nil {
		return a.switchOnErr
	}
	a.on = true
	return nil
}

func (a *fakeActuator) SwitchOff(context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.on = false
	a.lastOff = time.Now()
	return nil
}

func (a *fakeActuator) Status(context.Context) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.on, nil
}

func (a *fakeActuator) LastOffTime() time.Time {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastOff
}

func (a *fakeActuator) Close() error { return nil }

func quarters(c timetable.Cell) timetable.Quarters {
	return timetable.Quarters{c, c, c, c}
}

func alwaysOnTimetable(t *testing.T, mode status.Mode) *timetable.TimeTable {
	t.Helper()
	hp := make(timetable.HourProgram, 24)
	for _, h := range timetable.Hours {
		hp[h] = quarters(timetable.NamedCell(status.TMax))
	}
	prog := make(timetable.Program, 7)
	for _, d := range timetable.Days {
		prog[d] = hp
	}
	s := timetable.Settings{
		Temperatures: map[status.TemperatureName]float64{status.TMax: 21, status.TMin: 18, status.T0: 7},
		Differential: 0.5,
		Mode:         mode,
		HVACMode:     status.Heating,
		Inertia:      status.Inertia1,
		Program:      prog,
	}
	data, err := json.Marshal(s)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "timetable.json")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	tt := timetable.New()
	require.NoError(t, tt.Load(path))
	return tt
}

func newTestCycle(t *testing.T, tt *timetable.TimeTable, source thermometer.Source, act *fakeActuator) (*Cycle, *pubsub.Publisher[status.ThermodStatus]) {
	t.Helper()
	pub := pubsub.New[status.ThermodStatus](4, slog.New(slog.DiscardHandler))
	c := &Cycle{
		TimeTable:    tt,
		Thermometer:  source,
		Actuator:     act,
		Publisher:    pub,
		MasterLock:   &sync.Mutex{},
		Interval:     20 * time.Millisecond,
		SleepOnError: 20 * time.Millisecond,
		OpTimeout:    time.Second,
		Logger:       slog.New(slog.DiscardHandler),
	}
	return c, pub
}

func TestCycle_SwitchesOnBelowTarget(t *testing.T) {
	tt := alwaysOnTimetable(t, status.ModeAuto)
	act := &fakeActuator{}
	source := thermometer.NewFake(status.Celsius)
	source.Temp = 10 // well below tmax=21, differential latches on

	c, pub := newTestCycle(t, tt, source, act)
	ch := pub.Subscribe()
	defer pub.Unsubscribe(ch)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, c.step(ctx))

	on, err := act.Status(ctx)
	require.NoError(t, err)
	assert.True(t, on)

	select {
	case st := <-ch:
		assert.True(t, st.ActuatorOn)
		assert.Equal(t, 21.0, st.Target)
	case <-time.After(time.Second):
		t.Fatal("expected a published status")
	}
}

func TestCycle_SwitchesOffAboveTarget(t *testing.T) {
	tt := alwaysOnTimetable(t, status.ModeAuto)
	act := &fakeActuator{on: true}
	source := thermometer.NewFake(status.Celsius)
	source.Temp = 25 // well above tmax=21

	c, _ := newTestCycle(t, tt, source, act)
	require.NoError(t, c.step(context.Background()))

	on, err := act.Status(context.Background())
	require.NoError(t, err)
	assert.False(t, on)
}

func TestCycle_ThermometerErrorIsKnownAndPublished(t *testing.T) {
	tt := alwaysOnTimetable(t, status.ModeAuto)
	act := &fakeActuator{}
	source := &erroringSource{err: &status.ThermometerError{Reason: "bus fault"}}

	c, pub := newTestCycle(t, tt, source, act)
	ch := pub.Subscribe()
	defer pub.Unsubscribe(ch)

	err := c.step(context.Background())
	require.Error(t, err)
	assert.True(t, isKnownError(err))

	select {
	case st := <-ch:
		assert.NotEmpty(t, st.Error)
	case <-time.After(time.Second):
		t.Fatal("expected an error status to be published")
	}
}

func TestCycle_Run_StopsOnContextCancel(t *testing.T) {
	tt := alwaysOnTimetable(t, status.ModeAuto)
	act := &fakeActuator{}
	source := thermometer.NewFake(status.Celsius)

	c, _ := newTestCycle(t, tt, source, act)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after context cancellation")
	}
}

func TestCycle_Run_ShutsDownOnUnexpectedError(t *testing.T) {
	tt := alwaysOnTimetable(t, status.ModeAuto)
	act := &fakeActuator{}
	source := &erroringSource{err: errUnexpected("boom")}

	c, _ := newTestCycle(t, tt, source, act)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	err := c.Run(ctx)
	assert.Error(t, err)
}

func TestCycle_Reload(t *testing.T) {
	tt := alwaysOnTimetable(t, status.ModeAuto)
	act := &fakeActuator{}
	source := thermometer.NewFake(status.Celsius)
	c, _ := newTestCycle(t, tt, source, act)

	require.NoError(t, c.Reload())
}

type erroringSource struct{ err error }

func (s *erroringSource) Temperature(context.Context) (float64, error) { return 0, s.err }
func (s *erroringSource) Close() error                                 { return nil }

type errUnexpected string

func (e errUnexpected) Error() string { return string(e) }
