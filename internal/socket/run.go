package socket

import (
	"context"
	"log/slog"
)

// Run subscribes to the status publisher and keeps the latest snapshot
// cached for GET /status, grounded in the teacher's Health.Run.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Debug("started")
	defer s.logger.Debug("stopped")

	ch := s.publisher.Subscribe()
	defer s.publisher.Unsubscribe(ch)

	for {
		select {
		case <-ctx.Done():
			return nil
		case st := <-ch:
			s.mu.Lock()
			s.last = st
			s.haveAny = true
			s.mu.Unlock()
			s.logger.Debug("status updated", slog.Any("status", st))
		}
	}
}
