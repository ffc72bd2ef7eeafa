package thermometer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thermod-go/thermod/internal/status"
)

func TestMeanWithinStddev_Accepts(t *testing.T) {
	mean, err := meanWithinStddev([]float64{19.9, 20.0, 20.1}, 1.0)
	require.NoError(t, err)
	assert.InDelta(t, 20.0, mean, 1e-9)
}

func TestMeanWithinStddev_Rejects(t *testing.T) {
	_, err := meanWithinStddev([]float64{10, 20, 30}, 1.0)
	assert.ErrorIs(t, err, status.ErrThermometer)
}

func TestMeanWithinStddev_Empty(t *testing.T) {
	_, err := meanWithinStddev(nil, 1.0)
	assert.ErrorIs(t, err, status.ErrThermometer)
}

type fakeChannel struct {
	value float64
	err   error
}

func (c fakeChannel) ReadChannel(context.Context) (float64, error) { return c.value, c.err }

func TestAnalogBoard_Mean(t *testing.T) {
	b, err := NewAnalogBoard([]ChannelReader{
		fakeChannel{value: 19.9}, fakeChannel{value: 20.1},
	}, 1.0, Calibration{}, nil)
	require.NoError(t, err)

	v, err := b.Temperature(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 20.0, v, 1e-9)
}

func TestAnalogBoard_SkipsErroringChannel(t *testing.T) {
	b, err := NewAnalogBoard([]ChannelReader{
		fakeChannel{value: 20.0}, fakeChannel{err: errors.New("bus fault")},
	}, 1.0, Calibration{}, nil)
	require.NoError(t, err)

	v, err := b.Temperature(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 20.0, v, 1e-9)
}

func TestAnalogBoard_RejectsEmptyChannelList(t *testing.T) {
	_, err := NewAnalogBoard(nil, 1.0, Calibration{}, nil)
	assert.ErrorIs(t, err, status.ErrConfig)
}

func writeW1File(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestOneWire_ReadsDevices(t *testing.T) {
	dir := t.TempDir()
	p1 := writeW1File(t, dir, "dev1", "a1 b2 crc=12 YES\nt=19900\n")
	p2 := writeW1File(t, dir, "dev2", "a1 b2 crc=12 YES\nt=20100\n")

	w, err := NewOneWire([]string{p1, p2}, 1.0, Calibration{}, nil)
	require.NoError(t, err)

	v, err := w.Temperature(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 20.0, v, 1e-9)
}

func TestOneWire_SkipsNotReadyDevice(t *testing.T) {
	dir := t.TempDir()
	p1 := writeW1File(t, dir, "dev1", "a1 b2 crc=12 YES\nt=20000\n")
	p2 := writeW1File(t, dir, "dev2", "a1 b2 crc=12 NO\nt=20000\n")

	w, err := NewOneWire([]string{p1, p2}, 1.0, Calibration{}, nil)
	require.NoError(t, err)

	v, err := w.Temperature(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 20.0, v, 1e-9)
}

func TestOneWire_RejectsMissingDeviceAtConstruction(t *testing.T) {
	_, err := NewOneWire([]string{filepath.Join(t.TempDir(), "missing")}, 1.0, Calibration{}, nil)
	assert.ErrorIs(t, err, status.ErrConfig)
}
