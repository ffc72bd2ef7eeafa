package socket

import (
	"encoding/json"
	"net/http"
	"strconv"
)

const defaultMonitorCount = 1

// handleMonitor holds the connection open and streams the next N
// status snapshots, one JSON object per line, flushing after each
// (spec.md §4.5: "long-poll: holds the connection and streams the next
// N status snapshots"). The connection closes once N snapshots have
// been sent or the client disconnects.
func (s *Server) handleMonitor(w http.ResponseWriter, r *http.Request) {
	n := defaultMonitorCount
	if v := r.URL.Query().Get("n"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 {
			writeError(w, http.StatusBadRequest, "query parameter n must be a positive integer", "")
			return
		}
		n = parsed
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported", "")
		return
	}

	ch := s.publisher.Subscribe()
	defer s.publisher.Unsubscribe(ch)

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)

	enc := json.NewEncoder(w)
	ctx := r.Context()
	for i := 0; i < n; i++ {
		select {
		case <-ctx.Done():
			return
		case st := <-ch:
			if err := enc.Encode(st); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
