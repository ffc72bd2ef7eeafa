package thermometer

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"strconv"
	"strings"

	"golang.org/x/sync/semaphore"

	"github.com/thermod-go/thermod/internal/status"
)

// maxConcurrentChannelReads bounds how many channel/device reads run at
// once, grounded in the pool pattern of golang.org/x/sync/semaphore
// (SPEC_FULL.md §5's bounded worker pool for blocking I/O).
const maxConcurrentChannelReads = 4

// ChannelReader reads a single raw voltage-derived temperature from one
// analog-to-digital converter channel.
type ChannelReader interface {
	ReadChannel(ctx context.Context) (float64, error)
}

// meanWithinStddev computes the arithmetic mean of values, returning a
// ThermometerError if their population standard deviation exceeds max.
// Shared between AnalogBoard and OneWire, grounded in the near-identical
// stddev check duplicated across PiAnalogZeroThermometer.raw_temperature
// and OneWireThermometer.raw_temperature in
// original_source/thermod/thermometer.py (spec.md §4.2).
func meanWithinStddev(values []float64, max float64) (float64, error) {
	if len(values) == 0 {
		return 0, &status.ThermometerError{Reason: "no temperature retrieved, probably all channels are unavailable"}
	}

	mean := 0.0
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))

	var variance float64
	for _, v := range values {
		d := v - mean
		variance += d * d
	}
	variance /= float64(len(values))
	std := math.Sqrt(variance)

	if std > max {
		return 0, &status.ThermometerError{Reason: fmt.Sprintf(
			"standard deviation of channel temperatures (%.2f) exceeds the maximum allowed value (%.2f)", std, max)}
	}
	return mean, nil
}

// readAll reads every channel/device concurrently, bounded by a weighted
// semaphore, skipping (with a logged warning) any reader that errors.
func readAll(ctx context.Context, n int, logger *slog.Logger, read func(ctx context.Context, i int) (float64, bool, error)) ([]float64, error) {
	sem := semaphore.NewWeighted(maxConcurrentChannelReads)
	values := make([]float64, n)
	ok := make([]bool, n)
	errs := make([]error, n)

	done := make(chan int, n)
	for i := 0; i < n; i++ {
		i := i
		if err := sem.Acquire(ctx, 1); err != nil {
			return nil, err
		}
		go func() {
			defer sem.Release(1)
			v, ready, err := read(ctx, i)
			values[i], ok[i], errs[i] = v, ready, err
			done <- i
		}()
	}
	for received := 0; received < n; received++ {
		<-done
	}

	result := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		switch {
		case errs[i] != nil:
			logger.Warn("skipping channel after read error", slog.Int("channel", i), slog.Any("err", errs[i]))
		case !ok[i]:
			logger.Warn("channel not ready, continuing without it", slog.Int("channel", i))
		default:
			result = append(result, values[i])
		}
	}
	return result, nil
}

// AnalogBoard reads N analog-to-digital channels and reports the mean
// of their readings, within a standard deviation bound, grounded in
// original_source/thermod/thermometer.py's PiAnalogZeroThermometer
// (generalised here behind the ChannelReader interface rather than a
// hard dependency on MCP3008/gpiozero, which have no Go equivalent).
type AnalogBoard struct {
	Channels    []ChannelReader
	StdDev      float64
	Calibration Calibration
	Logger      *slog.Logger
}

// NewAnalogBoard validates channels is non-empty and returns an AnalogBoard.
func NewAnalogBoard(channels []ChannelReader, stddev float64, calib Calibration, logger *slog.Logger) (*AnalogBoard, error) {
	if len(channels) == 0 {
		return nil, fmt.Errorf("%w: missing input channel(s) for analog board thermometer", status.ErrConfig)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AnalogBoard{Channels: channels, StdDev: stddev, Calibration: calib, Logger: logger.With(slog.String("component", "thermometer.board"))}, nil
}

func (b *AnalogBoard) Temperature(ctx context.Context) (float64, error) {
	values, err := readAll(ctx, len(b.Channels), b.Logger, func(ctx context.Context, i int) (float64, bool, error) {
		v, err := b.Channels[i].ReadChannel(ctx)
		return v, true, err
	})
	if err != nil {
		return 0, err
	}
	mean, err := meanWithinStddev(values, b.StdDev)
	if err != nil {
		return 0, err
	}
	return b.Calibration.Apply(mean), nil
}

func (b *AnalogBoard) Close() error { return nil }

// OneWire reads N 1-Wire device files (in the kernel w1_slave format:
// a first line ending "YES"/"NO" for CRC validity, a second line
// containing "t=<millidegrees>") and reports the mean within a standard
// deviation bound, grounded in original_source/thermod/thermometer.py's
// OneWireThermometer/Wire1Thermometer. Unlike the original (which takes
// the median), this follows spec.md §4.2's explicit "returns the mean".
type OneWire struct {
	Paths       []string
	StdDev      float64
	Calibration Calibration
	Logger      *slog.Logger
}

// NewOneWire validates paths is non-empty and that each path is
// readable at construction time, matching the original's
// "with open(path, 'r')" existence check in __init__.
func NewOneWire(paths []string, stddev float64, calib Calibration, logger *slog.Logger) (*OneWire, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: missing 1-Wire devices to read temperature from", status.ErrConfig)
	}
	for _, p := range paths {
		f, err := os.Open(p)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", status.ErrConfig, err)
		}
		_ = f.Close()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &OneWire{Paths: paths, StdDev: stddev, Calibration: calib, Logger: logger.With(slog.String("component", "thermometer.onewire"))}, nil
}

func (w *OneWire) Temperature(ctx context.Context) (float64, error) {
	values, err := readAll(ctx, len(w.Paths), w.Logger, func(ctx context.Context, i int) (float64, bool, error) {
		return readOneWireFile(w.Paths[i])
	})
	if err != nil {
		return 0, err
	}
	mean, err := meanWithinStddev(values, w.StdDev)
	if err != nil {
		return 0, err
	}
	return w.Calibration.Apply(mean), nil
}

func (w *OneWire) Close() error { return nil }

func readOneWireFile(path string) (float64, bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, false, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return 0, false, err
	}
	if len(lines) < 2 {
		return 0, false, nil
	}
	if !strings.HasSuffix(strings.TrimSpace(lines[0]), "YES") {
		return 0, false, nil
	}

	idx := strings.Index(lines[1], "t=")
	if idx < 0 {
		return 0, false, nil
	}
	milli, err := strconv.ParseFloat(strings.TrimSpace(lines[1][idx+2:]), 64)
	if err != nil {
		return 0, false, err
	}
	return milli / 1000.0, true, nil
}
