package thermometer

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/thermod-go/thermod/internal/status"
)

// sample is one timestamped reading in the averaging ring.
type sample struct {
	at    time.Time
	value float64
}

// AveragingTask owns a background worker that samples the wrapped
// Source at a short interval and reports the trimmed mean over a
// longer window, smoothing out a noisy thermometer. Grounded in
// original_source/thermod/thermometer.py's
// AveragingTaskThermometerDecorator, adapted from its asyncio task plus
// deque to a goroutine plus a slice pruned by timestamp (the original
// sizes its deque by sample count; this keeps samples by age directly,
// which tolerates a worker that occasionally misses its interval). Per
// spec.md, should be the outer-most decorator relative to
// SimilarityChecker.
type AveragingTask struct {
	Source
	interval     time.Duration
	window       time.Duration
	skip         float64
	sleepOnError time.Duration
	logger       *slog.Logger

	mu      sync.Mutex
	samples []sample

	cancel context.CancelFunc
	done   chan struct{}
}

// NewAveragingTask wraps source with a background sampler. interval is
// the short sampling period (avgint); window is the long averaging
// period (avgtime) and must be at least 2*interval; skip is the
// fraction (in [0,1)) of the top and bottom readings excluded from the
// mean, split evenly between the two tails; sleepOnError caps the
// exponential backoff applied to a misbehaving source. The background
// worker starts immediately and runs until Close is called.
func NewAveragingTask(ctx context.Context, source Source, interval, window time.Duration, skip float64, sleepOnError time.Duration, logger *slog.Logger) (*AveragingTask, error) {
	if window < 2*interval {
		return nil, fmt.Errorf("%w: averaging window must be at least twice the sampling interval", status.ErrConfig)
	}
	if skip < 0 || skip >= 1 {
		return nil, fmt.Errorf("%w: averaging skip fraction must be within [0,1)", status.ErrConfig)
	}
	if logger == nil {
		logger = slog.Default()
	}

	taskCtx, cancel := context.WithCancel(ctx)
	a := &AveragingTask{
		Source:       source,
		interval:     interval,
		window:       window,
		skip:         skip,
		sleepOnError: sleepOnError,
		logger:       logger.With(slog.String("component", "thermometer.averaging")),
		cancel:       cancel,
		done:         make(chan struct{}),
	}
	go a.run(taskCtx)
	return a, nil
}

func (a *AveragingTask) run(ctx context.Context) {
	defer close(a.done)

	backoff := a.interval
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		v, err := a.Source.Temperature(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			a.logger.Warn("sample failed, retrying with backoff", slog.Any("err", err), slog.Duration("backoff", backoff))
			timer.Reset(backoff)
			backoff *= 2
			if backoff > a.sleepOnError {
				backoff = a.sleepOnError
			}
			continue
		}

		backoff = a.interval
		a.append(v)
		timer.Reset(a.interval)
	}
}

func (a *AveragingTask) append(v float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.samples = append(a.samples, sample{at: time.Now(), value: v})
}

// Temperature returns the trimmed mean of samples collected within the
// averaging window. It never calls the wrapped Source directly; that is
// the background worker's job.
func (a *AveragingTask) Temperature(context.Context) (float64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	cutoff := time.Now().Add(-a.window)
	kept := a.samples[:0:0]
	for _, s := range a.samples {
		if s.at.After(cutoff) {
			kept = append(kept, s)
		}
	}
	a.samples = kept

	if len(kept) == 0 {
		return 0, &status.ThermometerError{Reason: "no samples yet"}
	}

	values := make([]float64, len(kept))
	for i, s := range kept {
		values[i] = s.value
	}
	sort.Float64s(values)

	skipEachSide := int(math.Round(float64(len(values)) * a.skip / 2))
	lo, hi := skipEachSide, len(values)-skipEachSide
	if lo >= hi {
		lo, hi = 0, len(values)
	}
	trimmed := values[lo:hi]

	mean := 0.0
	for _, v := range trimmed {
		mean += v
	}
	return mean / float64(len(trimmed)), nil
}

// Close stops the background worker and forwards to the wrapped Source.
func (a *AveragingTask) Close() error {
	a.cancel()
	<-a.done
	return a.Source.Close()
}
