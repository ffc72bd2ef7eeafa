package thermometer

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/thermod-go/thermod/internal/status"
)

// SimilarityChecker rejects a reading that strays too far from the
// median of recent accepted readings, guarding against a single noisy
// or broken sample. Grounded in
// original_source/thermod/thermometer.py's
// SimilarityCheckerThermometerDecorator, resolved toward the median
// (spec.md §4.2 and §9's Open Question decision; the original compares
// against statistics.mean). Per spec.md, should be the inner-most
// decorator relative to AveragingTask.
type SimilarityChecker struct {
	Source
	queueLen int
	delta    float64

	mu      sync.Mutex
	history []float64
}

// NewSimilarityChecker wraps source, keeping the last queueLen accepted
// readings and rejecting any new one farther than delta from their
// median.
func NewSimilarityChecker(source Source, queueLen int, delta float64) *SimilarityChecker {
	return &SimilarityChecker{Source: source, queueLen: queueLen, delta: delta}
}

func (c *SimilarityChecker) Temperature(ctx context.Context) (float64, error) {
	v, err := c.Source.Temperature(ctx)
	if err != nil {
		return 0, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// The first reading, and every reading during the 2-sample warm-up,
	// is always accepted (spec.md §4.2).
	if len(c.history) < 2 {
		c.history = append(c.history, v)
		return v, nil
	}

	med := median(c.history)
	diff := v - med
	if diff < 0 {
		diff = -diff
	}
	if diff > c.delta {
		return 0, &status.ThermometerError{Reason: fmt.Sprintf(
			"the just read temperature (%.2f) has been ignored because it is more than %.2f degrees away from the median of the previous temperatures (%.2f)",
			v, c.delta, med)}
	}

	c.history = append(c.history, v)
	if len(c.history) > c.queueLen {
		c.history = c.history[len(c.history)-c.queueLen:]
	}
	return v, nil
}

func median(values []float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
