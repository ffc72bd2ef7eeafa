package thermometer

import (
	"context"
	"sync"
)

// sequenceSource returns values from a fixed sequence in order, then
// repeats the last one. A value at an index present in errs is returned
// as an error instead. Safe for concurrent Temperature calls (needed by
// AveragingTask's background worker running alongside test assertions).
type sequenceSource struct {
	mu     sync.Mutex
	values []float64
	errs   map[int]error
	i      int
	closed bool
}

func (s *sequenceSource) Temperature(context.Context) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.i
	if i >= len(s.values) {
		i = len(s.values) - 1
	}
	if err, ok := s.errs[s.i]; ok {
		s.i++
		return 0, err
	}
	v := s.values[i]
	s.i++
	return v, nil
}

func (s *sequenceSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *sequenceSource) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.i
}
