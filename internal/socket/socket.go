// Package socket implements the HTTP control socket: the external
// interface for reading status/settings and mutating the timetable,
// grounded in the teacher's internal/health handler (a poller
// subscriber caching the latest update behind a ServeHTTP method) and
// generalised to the richer endpoint table of spec.md §4.5.
package socket

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/thermod-go/thermod/internal/status"
	"github.com/thermod-go/thermod/internal/timetable"
	"github.com/thermod-go/thermod/pkg/pubsub"
)

// Server is the control socket's HTTP handler. It caches the latest
// published status for GET /status and fans out live snapshots to
// GET /monitor long-pollers, while GET/POST /settings read and mutate
// the timetable directly.
type Server struct {
	timetable  *timetable.TimeTable
	publisher  *pubsub.Publisher[status.ThermodStatus]
	masterLock *sync.Mutex
	version    string
	logger     *slog.Logger

	mux *http.ServeMux

	mu      sync.RWMutex
	last    status.ThermodStatus
	haveAny bool
}

// New builds a control socket Server. masterLock is the same lock the
// control cycle holds for the duration of a read-decide-act step
// (internal/cycle); a settings mutation that cannot acquire it
// immediately is reported to the client as 423 Locked rather than
// blocking the request (spec.md §4.5).
func New(tt *timetable.TimeTable, publisher *pubsub.Publisher[status.ThermodStatus], masterLock *sync.Mutex, version string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		timetable:  tt,
		publisher:  publisher,
		masterLock: masterLock,
		version:    version,
		logger:     logger.With(slog.String("component", "socket")),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /version", s.handleVersion)
	mux.HandleFunc("GET /status", s.handleStatus)
	mux.HandleFunc("GET /heating", s.handleStatus) // legacy alias, spec.md §4.5
	mux.HandleFunc("GET /settings", s.handleGetSettings)
	mux.HandleFunc("POST /settings", s.handlePostSettings)
	mux.HandleFunc("GET /monitor", s.handleMonitor)
	mux.HandleFunc("/", s.handleInfo)
	s.mux = mux

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}
